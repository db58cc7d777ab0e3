// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keccak

import (
	"encoding/binary"

	"github.com/bitmark-inc/keccakminer/fault"
)

// sponge parameters for Keccak-256
const (
	Rate256    = 136  // bytes absorbed per permutation
	Suffix256  = 0x01 // domain byte of the original Keccak submission
	Length     = 32   // digest size in bytes
	stateBytes = 200
	padFinal   = 0x80
)

// Hasher - a Keccak sponge with configurable rate, domain suffix
// and output length
//
// implements hash.Hash and io.Reader; the first Read finalises the
// sponge and further writes are not allowed
type Hasher struct {
	a         [25]uint64
	rate      int
	suffix    byte
	outputLen int

	block [stateBytes]byte
	n     int

	squeezing bool
	out       [stateBytes]byte
	outPos    int
}

// NewHasher - create a sponge, rate must be a multiple of 8 bytes
// and leave some capacity
func NewHasher(rate int, suffix byte, outputLen int) (*Hasher, error) {
	if rate <= 0 || rate >= stateBytes || 0 != rate%8 {
		return nil, fault.ErrInvalidRate
	}
	if outputLen <= 0 {
		return nil, fault.ErrInvalidCount
	}
	h := &Hasher{
		rate:      rate,
		suffix:    suffix,
		outputLen: outputLen,
	}
	return h, nil
}

// New256 - create a Keccak-256 hasher
func New256() *Hasher {
	return &Hasher{
		rate:      Rate256,
		suffix:    Suffix256,
		outputLen: Length,
	}
}

// Sum256 - Keccak-256 of a byte slice
func Sum256(data []byte) Digest {
	h := Hasher{
		rate:      Rate256,
		suffix:    Suffix256,
		outputLen: Length,
	}
	h.Write(data)

	var d Digest
	h.Read(d[:])
	return d
}

// Size - number of bytes Sum appends
func (h *Hasher) Size() int { return h.outputLen }

// BlockSize - the sponge rate in bytes
func (h *Hasher) BlockSize() int { return h.rate }

// Reset - back to the empty absorbing state
func (h *Hasher) Reset() {
	h.a = [25]uint64{}
	h.block = [stateBytes]byte{}
	h.n = 0
	h.squeezing = false
	h.outPos = 0
}

// Write - absorb data, never fails
func (h *Hasher) Write(p []byte) (int, error) {
	if h.squeezing {
		panic("keccak: Write after Read")
	}
	written := len(p)

	for len(p) > 0 {
		take := copy(h.block[h.n:h.rate], p)
		h.n += take
		p = p[take:]
		if h.n == h.rate {
			h.absorb()
		}
	}
	return written, nil
}

// Sum - append the digest to b without changing the sponge
func (h *Hasher) Sum(b []byte) []byte {
	duplicate := *h
	out := make([]byte, h.outputLen)
	duplicate.Read(out)
	return append(b, out...)
}

// Read - squeeze any number of bytes
func (h *Hasher) Read(out []byte) (int, error) {
	if !h.squeezing {
		h.finalise()
	}

	n := len(out)
	for len(out) > 0 {
		if h.outPos == h.rate {
			permute(&h.a)
			h.extract()
		}
		take := copy(out, h.out[h.outPos:h.rate])
		h.outPos += take
		out = out[take:]
	}
	return n, nil
}

// xor the pending block into the state and permute
func (h *Hasher) absorb() {
	for i := 0; i < h.rate/8; i += 1 {
		h.a[i] ^= binary.LittleEndian.Uint64(h.block[8*i:])
	}
	permute(&h.a)
	h.block = [stateBytes]byte{}
	h.n = 0
}

// pad the final block: suffix in the next free byte, 0x80 in the last
// byte of the rate; a suffix carrying the top bit in the last byte
// needs a block of its own for the final bit
func (h *Hasher) finalise() {
	h.block[h.n] ^= h.suffix
	if 0 != h.suffix&padFinal && h.n == h.rate-1 {
		h.absorb()
	}
	h.block[h.rate-1] ^= padFinal
	h.absorb()

	h.squeezing = true
	h.extract()
}

// copy the rate portion of the state out as bytes
func (h *Hasher) extract() {
	for i := 0; i < h.rate/8; i += 1 {
		binary.LittleEndian.PutUint64(h.out[8*i:], h.a[i])
	}
	h.outPos = 0
}
