// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keccak

import (
	"math/bits"
)

// number of rounds of Keccak-f[1600]
const rounds = 24

// iota step constants
var roundConstants = [rounds]uint64{
	0x0000000000000001, 0x0000000000008082, 0x800000000000808a, 0x8000000080008000,
	0x000000000000808b, 0x0000000080000001, 0x8000000080008081, 0x8000000000008009,
	0x000000000000008a, 0x0000000000000088, 0x0000000080008009, 0x000000008000000a,
	0x000000008000808b, 0x800000000000008b, 0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080, 0x000000000000800a, 0x800000008000000a,
	0x8000000080008081, 0x8000000000008080, 0x0000000080000001, 0x8000000080008008,
}

// rho rotation amounts, in the order the pi walk visits the lanes
var rotations = [rounds]int{
	1, 3, 6, 10, 15, 21, 28, 36, 45, 55, 2, 14,
	27, 41, 56, 8, 25, 43, 62, 18, 39, 61, 20, 44,
}

// pi destination lane for each step of the walk starting at lane 1
var piLanes = [rounds]int{
	10, 7, 11, 17, 18, 3, 5, 16, 8, 21, 24, 4,
	15, 23, 19, 13, 12, 2, 20, 14, 22, 9, 6, 1,
}

// permute - apply Keccak-f[1600] to a state of 25 little endian lanes
func permute(a *[25]uint64) {
	var c [5]uint64

	for round := 0; round < rounds; round += 1 {

		// theta
		for x := 0; x < 5; x += 1 {
			c[x] = a[x] ^ a[x+5] ^ a[x+10] ^ a[x+15] ^ a[x+20]
		}
		for x := 0; x < 5; x += 1 {
			t := c[(x+4)%5] ^ bits.RotateLeft64(c[(x+1)%5], 1)
			for y := 0; y < 25; y += 5 {
				a[y+x] ^= t
			}
		}

		// rho and pi
		current := a[1]
		for t := 0; t < rounds; t += 1 {
			j := piLanes[t]
			next := a[j]
			a[j] = bits.RotateLeft64(current, rotations[t])
			current = next
		}

		// chi
		for y := 0; y < 25; y += 5 {
			for x := 0; x < 5; x += 1 {
				c[x] = a[y+x]
			}
			for x := 0; x < 5; x += 1 {
				a[y+x] ^= ^c[(x+1)%5] & c[(x+2)%5]
			}
		}

		// iota
		a[0] ^= roundConstants[round]
	}
}
