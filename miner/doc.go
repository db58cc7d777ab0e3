// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package miner - searches a nonce space with a set of CPU and GPU
// execution units
//
// A Manager holds a queue of tasks and mines one at a time.  On each
// tick it either splits [0, MaxSequence) between the units, weighted
// by kind, or collects the events the units have sent.  The first
// unit to report a nonce wins and the others are told to stop.
//
// Each unit runs as a background process with a single slot inbox,
// where a newer message replaces an unread one, and a buffered outbox
// of events tagged with the dispatch sequence number so that events
// from an abandoned task are ignored.
package miner
