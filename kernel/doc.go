// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package kernel - device programs
//
// Everything here is written against 32 bit words only so it maps
// directly onto a compute shader: Keccak-256 with each 64 bit lane
// split into two words, the leading zero checks on word digests and
// the nonce search kernel itself.
package kernel
