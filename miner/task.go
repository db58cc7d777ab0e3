// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner

import (
	"fmt"
	"time"

	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/keccak"
	"github.com/bitmark-inc/keccakminer/pow"
)

// Task - one mining request, must not be modified after AddTask
type Task struct {
	ID          string
	Input       []byte
	Difficulty  uint32
	Mode        pow.Mode
	SubmittedAt time.Time
	Reporter    Reporter
}

// Reporter - receives the outcome of a task on the manager's control
// goroutine
//
// End is called with nil when every unit exhausted its range without
// finding a nonce.  At most one of End or Error is called per task.
type Reporter interface {
	End(result *MintResult)
	Error(err error)
	Progress(report ProgressReport)
}

// MintResult - the winning nonce
type MintResult struct {
	TaskID string        `json:"id"`
	Nonce  uint64        `json:"nonce"`
	Hash   keccak.Digest `json:"hash"`
}

// Range - half open nonce interval [Start, End)
type Range struct {
	Start uint64
	End   uint64
}

// Size - number of nonces in the range
func (r Range) Size() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Assignment - the part of a task given to one unit
type Assignment struct {
	Job         uint64
	TaskID      string
	Input       []byte
	Prefix      keccak.Digest
	Difficulty  uint32
	Mode        pow.Mode
	Start       uint64
	End         uint64
	SubmittedAt time.Time
}

// Kind - type of execution unit
type Kind int

// unit kinds
const (
	CPU Kind = iota
	GPU
)

// String - name of a unit kind
func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case GPU:
		return "gpu"
	default:
		return fmt.Sprintf("kind-%d", int(k))
	}
}

// MarshalText - kind as its name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnitStatus - the last known state of one unit for the current task
type UnitStatus struct {
	Kind      Kind           `json:"kind"`
	Index     int            `json:"index"`
	HashRate  float64        `json:"hashRate"`
	LastNonce *uint64        `json:"lastNonce,omitempty"`
	LastHash  *keccak.Digest `json:"lastHash,omitempty"`
	Exhausted bool           `json:"exhausted"`
	Err       error          `json:"-"`
}

// ProgressReport - summary sent on every tick of a running task
type ProgressReport struct {
	TaskID   string       `json:"id"`
	HashRate float64      `json:"hashRate"`
	Details  []UnitStatus `json:"details"`
}

// UnitError - failure of one execution unit
//
// it matches fault.ErrUnitFault with errors.Is and unwraps to the
// underlying cause
type UnitError struct {
	Kind  Kind
	Index int
	Err   error
}

// Error - message naming the unit
func (e *UnitError) Error() string {
	return fmt.Sprintf("%s unit %d: %s: %s", e.Kind, e.Index, fault.ErrUnitFault, e.Err)
}

// Is - every unit error is a unit fault
func (e *UnitError) Is(target error) bool {
	return fault.ErrUnitFault == target
}

// Unwrap - the underlying cause
func (e *UnitError) Unwrap() error {
	return e.Err
}

// check a task before it is queued
func validate(task *Task) error {
	if nil == task {
		return fault.ErrNilTask
	}
	if 0 == len(task.Input) {
		return fault.ErrEmptyInput
	}
	if pow.ByteMode != task.Mode && pow.BitMode != task.Mode {
		return fault.ErrInvalidMode
	}
	if 0 == task.Difficulty || task.Difficulty > task.Mode.MaxDifficulty() {
		return fault.ErrDifficultyOutOfRange
	}
	return nil
}
