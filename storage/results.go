// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/keccak"
	"github.com/bitmark-inc/keccakminer/pow"
)

// Record - the outcome of one task
//
// Nonce and Hash are nil when no nonce was found, Error is set when
// the task failed
type Record struct {
	ID          string         `json:"id"`
	Input       string         `json:"input"`
	Difficulty  uint32         `json:"difficulty"`
	Mode        pow.Mode       `json:"mode"`
	Nonce       *uint64        `json:"nonce,omitempty"`
	Hash        *keccak.Digest `json:"hash,omitempty"`
	Error       string         `json:"error,omitempty"`
	SubmittedAt time.Time      `json:"submittedAt"`
	CompletedAt time.Time      `json:"completedAt"`
}

// Found - true if the record holds a nonce
func (r *Record) Found() bool {
	return nil != r.Nonce && nil != r.Hash
}

// completion index key: big endian nanoseconds followed by the id
func completedKey(r *Record) []byte {
	key := make([]byte, 8, 8+len(r.ID))
	binary.BigEndian.PutUint64(key, uint64(r.CompletedAt.UnixNano()))
	return append(key, r.ID...)
}

// Put - store a record, replacing any earlier record with the same id
func (s *Store) Put(r *Record) error {
	if nil == r || "" == r.ID {
		return fault.ErrInvalidInput
	}

	data, err := json.Marshal(r)
	if nil != err {
		return errors.Wrapf(err, "encode record: %q", r.ID)
	}

	s.Lock()
	defer s.Unlock()
	if nil == s.database {
		return fault.ErrNotInitialised
	}

	batch := new(leveldb.Batch)

	// drop the completion index entry of a replaced record
	old, err := s.database.Get(s.results.prefixKey([]byte(r.ID)), nil)
	if nil == err {
		var previous Record
		if nil == json.Unmarshal(old, &previous) {
			s.completed.batchDelete(batch, completedKey(&previous))
		}
	} else if leveldb.ErrNotFound != err {
		return err
	}

	s.results.batchPut(batch, []byte(r.ID), data)
	s.completed.batchPut(batch, completedKey(r), []byte(r.ID))

	return s.database.Write(batch, nil)
}

// Get - fetch a record by task id
func (s *Store) Get(id string) (*Record, error) {
	data, err := s.results.Get([]byte(id))
	if nil != err {
		return nil, err
	}
	if nil == data {
		return nil, fault.ErrResultNotFound
	}
	var r Record
	err = json.Unmarshal(data, &r)
	if nil != err {
		return nil, errors.Wrapf(err, "decode record: %q", id)
	}
	return &r, nil
}

// Has - check if a task already has a record
func (s *Store) Has(id string) (bool, error) {
	return s.results.Has([]byte(id))
}

// List - every record in completion order
func (s *Store) List() ([]*Record, error) {
	ids := [][]byte{}
	err := s.completed.Map(func(key []byte, value []byte) error {
		ids = append(ids, value)
		return nil
	})
	if nil != err {
		return nil, err
	}

	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(string(id))
		if nil != err {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
