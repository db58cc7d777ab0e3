// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keccak_test

import (
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/keccak"
)

func sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 3)
	}
	return b
}

func TestSum256KnownAnswers(t *testing.T) {
	fixture := []struct {
		input    string
		expected string
	}{
		{"", "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"abc", "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
		{"hello world", "47173285a8d7341e5e972fc677286384f802f8ef42a5ec5f03bbfa254cb01fad"},
	}

	for i, f := range fixture {
		d := keccak.Sum256([]byte(f.input))
		assert.Equal(t, f.expected, d.String(), "%dth test wrong digest", i)
	}
}

func TestSum256MatchesLegacyKeccak(t *testing.T) {
	for n := 0; n <= 300; n += 1 {
		data := sequence(n)

		reference := sha3.NewLegacyKeccak256()
		reference.Write(data)
		expected := reference.Sum(nil)

		actual := keccak.Sum256(data)
		assert.Equal(t, expected, actual[:], "wrong digest for length %d", n)
		assert.Equal(t, actual, keccak.Sum256(data), "digest not deterministic for length %d", n)
	}
}

func TestHasherIncrementalWrites(t *testing.T) {
	data := sequence(1000)
	expected := keccak.Sum256(data)

	for _, chunk := range []int{1, 7, 135, 136, 137, 500} {
		h := keccak.New256()
		for i := 0; i < len(data); i += chunk {
			end := i + chunk
			if end > len(data) {
				end = len(data)
			}
			h.Write(data[i:end])
		}
		assert.Equal(t, expected[:], h.Sum(nil), "wrong digest for chunk size %d", chunk)

		// Sum must not disturb the sponge
		assert.Equal(t, expected[:], h.Sum(nil), "second Sum differs for chunk size %d", chunk)
	}
}

func TestHasherReset(t *testing.T) {
	h := keccak.New256()
	h.Write([]byte("discard me"))
	h.Reset()
	h.Write([]byte("abc"))

	expected := keccak.Sum256([]byte("abc"))
	assert.Equal(t, expected[:], h.Sum(nil), "wrong digest after reset")
	assert.Equal(t, keccak.Length, h.Size(), "wrong size")
	assert.Equal(t, keccak.Rate256, h.BlockSize(), "wrong block size")
}

// other parameter sets: SHA3-256 and SHAKE128 with a long squeeze
func TestHasherOtherParameters(t *testing.T) {
	data := sequence(333)

	h, err := keccak.NewHasher(136, 0x06, 32)
	assert.Nil(t, err, "wrong NewHasher error")
	h.Write(data)
	expected := sha3.Sum256(data)
	assert.Equal(t, expected[:], h.Sum(nil), "wrong SHA3-256 digest")

	const outputLength = 1000 // several squeeze blocks
	shake, err := keccak.NewHasher(168, 0x1f, outputLength)
	assert.Nil(t, err, "wrong NewHasher error")
	shake.Write(data)

	expectedShake := make([]byte, outputLength)
	sha3.ShakeSum128(expectedShake, data)

	actual := make([]byte, outputLength)
	// squeeze in uneven pieces
	shake.Read(actual[:10])
	shake.Read(actual[10:400])
	shake.Read(actual[400:])
	assert.Equal(t, expectedShake, actual, "wrong SHAKE128 output")
}

// the legacy reference also reads past one block
func TestLongSqueezeMatchesLegacyKeccak(t *testing.T) {
	data := sequence(50)

	reference := sha3.NewLegacyKeccak256()
	reference.Write(data)
	reader, ok := reference.(interface{ Read([]byte) (int, error) })
	if !ok {
		t.Skip("reference hasher cannot squeeze")
	}
	expected := make([]byte, 3*keccak.Rate256+5)
	reader.Read(expected)

	h := keccak.New256()
	h.Write(data)
	actual := make([]byte, len(expected))
	h.Read(actual)

	assert.Equal(t, expected, actual, "wrong multi-block squeeze")
}

func TestNewHasherInvalid(t *testing.T) {
	fixture := []struct {
		rate      int
		outputLen int
		err       error
	}{
		{0, 32, fault.ErrInvalidRate},
		{200, 32, fault.ErrInvalidRate},
		{135, 32, fault.ErrInvalidRate},
		{136, 0, fault.ErrInvalidCount},
	}

	for i, f := range fixture {
		h, err := keccak.NewHasher(f.rate, keccak.Suffix256, f.outputLen)
		assert.Equal(t, f.err, err, "%dth test wrong error", i)
		assert.Nil(t, h, "%dth test hasher should be nil", i)
	}
}

func TestDigestText(t *testing.T) {
	d := keccak.Sum256(nil)
	text, err := d.MarshalText()
	assert.Nil(t, err, "wrong MarshalText error")
	assert.Equal(t, d.String(), string(text), "wrong text")
	assert.Equal(t, "<Keccak256:"+d.String()+">", fmt.Sprintf("%#v", d), "wrong GoString")

	var back keccak.Digest
	err = back.UnmarshalText(text)
	assert.Nil(t, err, "wrong UnmarshalText error")
	assert.Equal(t, d, back, "wrong round trip")

	err = back.UnmarshalText([]byte("abcd"))
	assert.Equal(t, fault.ErrInvalidCount, err, "short text should fail")

	var scanned keccak.Digest
	n, err := fmt.Sscan(hex.EncodeToString(d[:]), &scanned)
	assert.Nil(t, err, "wrong Sscan error")
	assert.Equal(t, 1, n, "wrong scan count")
	assert.Equal(t, d, scanned, "wrong scanned digest")

	var fromBytes keccak.Digest
	assert.Nil(t, keccak.DigestFromBytes(&fromBytes, d[:]), "wrong DigestFromBytes error")
	assert.Equal(t, d, fromBytes, "wrong DigestFromBytes digest")
	assert.Equal(t, fault.ErrInvalidCount, keccak.DigestFromBytes(&fromBytes, d[:5]), "short bytes should fail")
}
