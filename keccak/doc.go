// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keccak - the Keccak sponge on 64 bit lanes
//
// Keccak-256 here is the original submission (domain byte 0x01), not
// the FIPS-202 SHA3-256 (domain byte 0x06); the two give different
// digests for every input.
package keccak
