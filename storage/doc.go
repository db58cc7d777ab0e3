// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// maintain the on-disk result store
//
// This maintains a LevelDB database split into pools.  Each pool is
// defined by a prefix byte.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++              = concatenation of byte data
// 3. completion time = big endian uint64 nanoseconds since the epoch (8 bytes)
// 4. task id         = the identifier given when the task was submitted
//
// Results:
//
//   R ++ task id                   - result record
//                                    data: JSON encoded Record
//   C ++ completion time ++ task id - completion order index
//                                    data: task id
//
// Version:
//
//   0x00 ++ "VERSION"               - database version
//                                    data: big endian uint32
package storage
