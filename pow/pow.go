// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import (
	"encoding/binary"

	"github.com/bitmark-inc/keccakminer/keccak"
)

// sizes of the double hash construction
const (
	NonceSize  = 8
	RecordSize = keccak.Length + NonceSize // inner digest followed by the nonce

	// KeyWords - number of 32 bit words in a device key
	KeyWords = RecordSize / 4
)

// Prefix - the inner hash, identical for every nonce of a task
func Prefix(input []byte) keccak.Digest {
	return keccak.Sum256(input)
}

// Hash - Keccak256(Keccak256(input) || LE64(nonce))
func Hash(input []byte, nonce uint64) keccak.Digest {
	return HashWithPrefix(Prefix(input), nonce)
}

// HashWithPrefix - outer hash using an already computed inner digest
func HashWithPrefix(prefix keccak.Digest, nonce uint64) keccak.Digest {
	var record [RecordSize]byte
	copy(record[:], prefix[:])
	binary.LittleEndian.PutUint64(record[keccak.Length:], nonce)
	return keccak.Sum256(record[:])
}

// SplitNonce - high and low 32 bit halves
func SplitNonce(nonce uint64) (high uint32, low uint32) {
	return uint32(nonce >> 32), uint32(nonce)
}

// JoinNonce - recombine the halves
func JoinNonce(high uint32, low uint32) uint64 {
	return uint64(high)<<32 | uint64(low)
}

// Key - the device form of a record: the inner digest as little
// endian words followed by the low then the high nonce word, which is
// the same byte layout HashWithPrefix hashes
func Key(prefix keccak.Digest, high uint32, low uint32) []uint32 {
	key := make([]uint32, KeyWords)
	for i := 0; i < keccak.Length/4; i += 1 {
		key[i] = binary.LittleEndian.Uint32(prefix[4*i:])
	}
	key[KeyWords-2] = low
	key[KeyWords-1] = high
	return key
}
