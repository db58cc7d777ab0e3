// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kernel

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/keccakminer/device"
	"github.com/bitmark-inc/keccakminer/fault"
)

// binding slots of the nonce search kernel
const (
	BindingKey = iota
	BindingDifficulty
	BindingResults
	BindingCount
	BindingLog
	bindingCount
)

// buffer sizes in bytes
const (
	DifficultySize = 4
	ResultsSize    = 1024 // 256 low nonce slots
	CountSize      = 4
	LogSize        = 256
	minKeyWords    = 2
)

// NonceSearch - tests one low nonce word per invocation
//
// the key holds the inner digest followed by the low and high nonce
// words; the low word in the key is the base of the window and each
// invocation adds its global id to it.  Matching low words are
// collected in the results buffer up to its capacity, the count
// keeps going past it.  The first match also copies its input and
// digest words into the log buffer.
type NonceSearch struct{}

var _ device.Kernel = NonceSearch{}

// Name - kernel name
func (NonceSearch) Name() string {
	return "nonce-search"
}

// Check - binding layout
func (NonceSearch) Check(sizes []int) error {
	if bindingCount != len(sizes) {
		return errors.Wrapf(fault.ErrWrongBindingCount, "bindings: %d", len(sizes))
	}
	for i, size := range sizes {
		if err := device.CheckAligned(size); nil != err {
			return errors.Wrapf(err, "binding: %d", i)
		}
	}
	keyWords := sizes[BindingKey] / 4
	if keyWords < minKeyWords || keyWords > MaxInputWords {
		return errors.Wrapf(fault.ErrKeyLength, "key words: %d", keyWords)
	}
	if sizes[BindingDifficulty] < DifficultySize || sizes[BindingCount] < CountSize {
		return errors.Wrap(fault.ErrInvalidCount, "scalar binding too small")
	}
	return nil
}

// Invoke - one candidate
func (NonceSearch) Invoke(globalID uint32, bindings [][]uint32) {
	key := bindings[BindingKey]
	keyLength := len(key)
	lowSlot := keyLength - 2

	var input [MaxInputWords]uint32
	copy(input[:], key)
	input[lowSlot] = key[lowSlot] + globalID

	var hash [digestWords]uint32
	keccak256(input[:keyLength], &hash)

	if !MatchBytes(hash, bindings[BindingDifficulty][0]) {
		return
	}

	results := bindings[BindingResults]
	index := atomic.AddUint32(&bindings[BindingCount][0], 1) - 1
	if index < uint32(len(results)) {
		results[index] = input[lowSlot]
	}

	if 0 == index {
		log := bindings[BindingLog]
		n := copy(log, input[:keyLength])
		copy(log[n:], hash[:])
	}
}
