// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kernel

// Keccak-256 in the form the device runs it: the 1600 bit state is
// 50 words of 32 bits, lane i is the pair (state[2i], state[2i+1])
// holding its low and high halves, so state words line up with the
// little endian words of the input

const (
	keccakRounds = 24
	stateWords   = 50
	rateWords    = 136 / 4 // 34
	digestWords  = 8
	suffix       = 0x01
	padFinal     = 0x80

	// MaxInputWords - size of the per invocation input buffer
	MaxInputWords = 32
)

// pi walk destinations, already doubled to index the word array
var piWords = [keccakRounds]uint32{
	20, 14, 22, 34, 36, 6, 10, 32, 16, 42, 48, 8,
	30, 46, 38, 26, 24, 4, 40, 28, 44, 18, 12, 2,
}

var rhoShifts = [keccakRounds]uint32{
	1, 3, 6, 10, 15, 21, 28, 36, 45, 55, 2, 14,
	27, 41, 56, 8, 25, 43, 62, 18, 39, 61, 20, 44,
}

// round constants split into low and high words
var iotaLow = [keccakRounds]uint32{
	0x00000001, 0x00008082, 0x0000808a, 0x80008000, 0x0000808b, 0x80000001,
	0x80008081, 0x00008009, 0x0000008a, 0x00000088, 0x80008009, 0x8000000a,
	0x8000808b, 0x0000008b, 0x00008089, 0x00008003, 0x00008002, 0x00000080,
	0x0000800a, 0x8000000a, 0x80008081, 0x00008080, 0x80000001, 0x80008008,
}

var iotaHigh = [keccakRounds]uint32{
	0x00000000, 0x00000000, 0x80000000, 0x80000000, 0x00000000, 0x00000000,
	0x80000000, 0x80000000, 0x00000000, 0x00000000, 0x00000000, 0x00000000,
	0x00000000, 0x80000000, 0x80000000, 0x80000000, 0x80000000, 0x80000000,
	0x00000000, 0x80000000, 0x80000000, 0x80000000, 0x00000000, 0x80000000,
}

// rotate the 64 bit lane (high:low) left by s, 0 < s < 64
func rotlLow(low uint32, high uint32, s uint32) uint32 {
	if s > 32 {
		return (high << (s - 32)) | (low >> (64 - s))
	}
	return (low << s) | (high >> (32 - s))
}

func rotlHigh(low uint32, high uint32, s uint32) uint32 {
	if s > 32 {
		return (low << (s - 32)) | (high >> (64 - s))
	}
	return (high << s) | (low >> (32 - s))
}

// sponge context for one invocation
type sponge struct {
	state     [stateWords]uint32
	blockLen  uint32
	outputLen uint32
	pos       uint32
	posOut    uint32
}

func (ctx *sponge) permute() {
	var b [10]uint32

	for round := 0; round < keccakRounds; round += 1 {

		// theta
		for x := 0; x < 10; x += 1 {
			b[x] = ctx.state[x] ^ ctx.state[x+10] ^ ctx.state[x+20] ^ ctx.state[x+30] ^ ctx.state[x+40]
		}
		for x := 0; x < 10; x += 2 {
			next := (x + 2) % 10
			previous := (x + 8) % 10
			tLow := rotlLow(b[next], b[next+1], 1) ^ b[previous]
			tHigh := rotlHigh(b[next], b[next+1], 1) ^ b[previous+1]
			for y := 0; y < stateWords; y += 10 {
				ctx.state[x+y] ^= tLow
				ctx.state[x+y+1] ^= tHigh
			}
		}

		// rho and pi
		curLow := ctx.state[2]
		curHigh := ctx.state[3]
		for t := 0; t < keccakRounds; t += 1 {
			shift := rhoShifts[t]
			tLow := rotlLow(curLow, curHigh, shift)
			tHigh := rotlHigh(curLow, curHigh, shift)

			p := piWords[t]
			curLow = ctx.state[p]
			curHigh = ctx.state[p+1]
			ctx.state[p] = tLow
			ctx.state[p+1] = tHigh
		}

		// chi
		for y := 0; y < stateWords; y += 10 {
			for x := 0; x < 10; x += 1 {
				b[x] = ctx.state[y+x]
			}
			for x := 0; x < 10; x += 1 {
				ctx.state[y+x] ^= ^b[(x+2)%10] & b[(x+4)%10]
			}
		}

		// iota
		ctx.state[0] ^= iotaLow[round]
		ctx.state[1] ^= iotaHigh[round]
	}

	ctx.pos = 0
	ctx.posOut = 0
}

func (ctx *sponge) update(input []uint32) {
	pos := uint32(0)
	length := uint32(len(input))
	for pos < length {
		take := min32(ctx.blockLen-ctx.pos, length-pos)
		for i := uint32(0); i < take; i += 1 {
			ctx.state[ctx.pos] ^= input[pos]
			ctx.pos += 1
			pos += 1
		}
		if ctx.pos == ctx.blockLen {
			ctx.permute()
		}
	}
}

// the input is whole words so the suffix always lands in the low
// byte of the next free word
func (ctx *sponge) finish() {
	ctx.state[ctx.pos] ^= suffix
	ctx.state[ctx.blockLen-1] ^= padFinal << 24
	ctx.permute()
}

func (ctx *sponge) output(out []uint32) {
	pos := uint32(0)
	length := uint32(len(out))
	for pos < length {
		if ctx.posOut >= ctx.blockLen {
			ctx.permute()
		}
		take := min32(ctx.blockLen-ctx.posOut, length-pos)
		for i := uint32(0); i < take; i += 1 {
			out[pos] = ctx.state[ctx.posOut]
			ctx.posOut += 1
			pos += 1
		}
	}
}

// hash words into an 8 word digest
func keccak256(input []uint32, out *[digestWords]uint32) {
	ctx := sponge{
		blockLen:  rateWords,
		outputLen: digestWords,
	}
	ctx.update(input)
	ctx.finish()
	ctx.output(out[:])
}

// Sum256Words - the device Keccak-256 of little endian words, for
// checking it against the host engine
func Sum256Words(input []uint32) [digestWords]uint32 {
	var out [digestWords]uint32
	keccak256(input, &out)
	return out
}

// Squeeze - the device sponge with an arbitrary number of output words
func Squeeze(input []uint32, outputWords int) []uint32 {
	ctx := sponge{
		blockLen:  rateWords,
		outputLen: uint32(outputWords),
	}
	ctx.update(input)
	ctx.finish()
	out := make([]uint32, outputWords)
	ctx.output(out)
	return out
}

func min32(a uint32, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
