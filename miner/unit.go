// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner

import (
	"fmt"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/keccakminer/background"
	"github.com/bitmark-inc/keccakminer/keccak"
)

// depth of a unit's event channel
const outboxSize = 16

type messageKind int

const (
	messageMint messageKind = iota
	messageStop
)

// manager to unit
type message struct {
	kind       messageKind
	assignment Assignment
}

type eventKind int

const (
	eventProgress eventKind = iota
	eventEnd
	eventError
)

// unit to manager, every event carries the job it belongs to
type event struct {
	kind     eventKind
	job      uint64
	hashRate float64
	nonce    uint64
	hash     keccak.Digest
	result   *MintResult // only for eventEnd, nil when exhausted
	err      error       // only for eventError
}

// the search loop of one kind of unit
//
// search returns when the range is finished or when interrupted, in
// the second case it returns the message that interrupted it, or nil
// on shutdown
type engine interface {
	search(u *unit, a Assignment, shutdown <-chan struct{}) *message
	close()
}

// one execution unit, runs as a background process
type unit struct {
	kind   Kind
	index  int
	log    *logger.L
	inbox  chan message
	outbox chan event
	engine engine
}

var _ background.Process = &unit{}

func newUnit(kind Kind, index int, e engine) *unit {
	return &unit{
		kind:   kind,
		index:  index,
		log:    logger.New(fmt.Sprintf("%s-%d", kind, index)),
		inbox:  make(chan message, 1),
		outbox: make(chan event, outboxSize),
		engine: e,
	}
}

// post - replace any unread message, only the manager calls this
func (u *unit) post(m message) {
	select {
	case <-u.inbox:
	default:
	}
	select {
	case u.inbox <- m:
	default:
		u.log.Warnf("inbox full, message: %d dropped", m.kind)
	}
}

// poll - non-blocking check for a message or shutdown
func (u *unit) poll(shutdown <-chan struct{}) (*message, bool) {
	select {
	case <-shutdown:
		return nil, true
	case m := <-u.inbox:
		return &m, true
	default:
		return nil, false
	}
}

// progress - dropped when the manager has not drained the outbox
func (u *unit) progress(e event) {
	select {
	case u.outbox <- e:
	default:
	}
}

// finish - terminal events wait for room unless shutting down
func (u *unit) finish(e event, shutdown <-chan struct{}) {
	select {
	case u.outbox <- e:
	case <-shutdown:
	}
}

// fail - terminal error event
func (u *unit) fail(job uint64, err error, shutdown <-chan struct{}) {
	u.log.Errorf("job: %d  error: %s", job, err)
	u.finish(event{
		kind: eventError,
		job:  job,
		err: &UnitError{
			Kind:  u.kind,
			Index: u.index,
			Err:   err,
		},
	}, shutdown)
}

// Run - wait for mint messages and search each assignment
func (u *unit) Run(args interface{}, shutdown <-chan struct{}) {

	log := u.log

	log.Info("starting…")

	var next *message
loop:
	for {
		m := next
		next = nil
		if nil == m {
			select {
			case <-shutdown:
				break loop
			case received := <-u.inbox:
				m = &received
			}
		}

		if messageMint != m.kind {
			continue loop
		}

		log.Infof("job: %d  range: [0x%016x, 0x%016x)", m.assignment.Job, m.assignment.Start, m.assignment.End)
		next = u.mine(m.assignment, shutdown)
	}

	u.engine.close()
	log.Info("stopped")
}

// mine - run the engine, a panic becomes a unit error
func (u *unit) mine(a Assignment, shutdown <-chan struct{}) (next *message) {
	defer func() {
		if r := recover(); nil != r {
			u.log.Criticalf("job: %d  panic: %v", a.Job, r)
			u.fail(a.Job, fmt.Errorf("panic: %v", r), shutdown)
			next = nil
		}
	}()
	return u.engine.search(u, a, shutdown)
}
