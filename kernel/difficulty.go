// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kernel

import (
	"math/bits"
)

// MatchBytes - device form of the leading zero byte check on a
// digest held as little endian words
func MatchBytes(hash [digestWords]uint32, n uint32) bool {
	if n > 4*digestWords {
		return false
	}
	wordIndex := n / 4
	remainder := n % 4

	for i := uint32(0); i < wordIndex; i += 1 {
		if 0 != hash[i] {
			return false
		}
	}

	if 0 != remainder {
		mask := uint32(0xffffffff) << ((4 - remainder) * 8)
		if 0 != bits.ReverseBytes32(hash[wordIndex])&mask {
			return false
		}
	}
	return true
}

// MatchBits - leading zero bits of the digest read as one big endian
// number, counted from the first word
func MatchBits(hash [digestWords]uint32, n uint32) bool {
	if n > 32*digestWords {
		return false
	}
	wordIndex := n / 32
	remainder := n % 32

	for i := uint32(0); i < wordIndex; i += 1 {
		if 0 != hash[i] {
			return false
		}
	}

	if 0 != remainder {
		if 0 != bits.ReverseBytes32(hash[wordIndex])>>(32-remainder) {
			return false
		}
	}
	return true
}
