// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import (
	"strings"

	"github.com/holiman/uint256"

	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/keccak"
)

// Mode - how a difficulty value is applied to a digest
type Mode int

// supported modes, ByteMode is the canonical one
const (
	ByteMode Mode = iota // difficulty counts leading zero bytes
	BitMode              // difficulty counts leading zero bits
)

// maximum difficulty for each mode
const (
	maxByteDifficulty = keccak.Length
	maxBitDifficulty  = keccak.Length * 8
)

// String - mode name
func (m Mode) String() string {
	switch m {
	case ByteMode:
		return "byte"
	case BitMode:
		return "bit"
	default:
		return "unknown"
	}
}

// ParseMode - convert a name to a mode, blank means the canonical mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "byte", "bytes":
		return ByteMode, nil
	case "bit", "bits":
		return BitMode, nil
	default:
		return ByteMode, fault.ErrInvalidMode
	}
}

// MarshalText - for JSON
func (m Mode) MarshalText() ([]byte, error) {
	if m != ByteMode && m != BitMode {
		return nil, fault.ErrInvalidMode
	}
	return []byte(m.String()), nil
}

// UnmarshalText - for JSON
func (m *Mode) UnmarshalText(s []byte) error {
	mode, err := ParseMode(string(s))
	if nil != err {
		return err
	}
	*m = mode
	return nil
}

// MaxDifficulty - largest meaningful difficulty for the mode
func (m Mode) MaxDifficulty() uint32 {
	if BitMode == m {
		return maxBitDifficulty
	}
	return maxByteDifficulty
}

// Match - apply the mode's predicate
func (m Mode) Match(hash keccak.Digest, difficulty uint32) bool {
	if BitMode == m {
		return MatchBits(hash, difficulty)
	}
	return MatchBytes(hash, difficulty)
}

// MatchBytes - the first difficulty bytes of the hash are all zero
func MatchBytes(hash keccak.Digest, difficulty uint32) bool {
	if difficulty > maxByteDifficulty {
		return false
	}
	for _, b := range hash[:difficulty] {
		if 0 != b {
			return false
		}
	}
	return true
}

// MatchBits - the first difficulty bits of the hash, read as a big
// endian number, are all zero
func MatchBits(hash keccak.Digest, difficulty uint32) bool {
	if difficulty > maxBitDifficulty {
		return false
	}
	value := new(uint256.Int).SetBytes32(hash[:])
	return value.BitLen() <= int(maxBitDifficulty-difficulty)
}

// Target - the largest big endian hash value that satisfies the
// difficulty
func Target(m Mode, difficulty uint32) (*uint256.Int, error) {
	if difficulty > m.MaxDifficulty() {
		return nil, fault.ErrDifficultyOutOfRange
	}
	zeroBits := difficulty
	if ByteMode == m {
		zeroBits *= 8
	}
	t := new(uint256.Int).SetAllOne()
	return t.Rsh(t, uint(zeroBits)), nil
}
