// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner

import (
	"container/list"
)

// first in, first out list of tasks waiting to be mined
//
// not safe for concurrent use, the manager holds its lock around every
// call
type queue struct {
	tasks *list.List
}

func newQueue() *queue {
	return &queue{
		tasks: list.New(),
	}
}

// append a task to the tail
func (q *queue) push(task *Task) {
	q.tasks.PushBack(task)
}

// remove the head, nil when empty
func (q *queue) pop() *Task {
	e := q.tasks.Front()
	if nil == e {
		return nil
	}
	return q.tasks.Remove(e).(*Task)
}

func (q *queue) length() int {
	return q.tasks.Len()
}

// discard everything
func (q *queue) clear() {
	q.tasks.Init()
}
