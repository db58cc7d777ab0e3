// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package device - compute device abstraction
//
// A device runs a kernel once per invocation over a set of bound
// buffers.  Buffers hold 32 bit words; sizes and writes that are not
// a multiple of 4 bytes are rejected.  The software sub-package
// provides a device that runs workgroups on goroutines.
package device
