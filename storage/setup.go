// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/keccakminer/fault"
)

// key prefixes of the pools
const (
	resultsPrefix   = 'R' // task id → encoded record
	completedPrefix = 'C' // completion time ++ task id → task id
)

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const currentResultsDBVersion = 0x100

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Store - the result database
type Store struct {
	sync.RWMutex

	database  *leveldb.DB
	log       *logger.L
	results   *PoolHandle
	completed *PoolHandle
}

// Open - open or create a result database
func Open(name string, readOnly bool, log *logger.L) (*Store, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	db, version, err := getDB(name, readOnly)
	if nil != err {
		return nil, err
	}

	// ensure no database downgrade
	if version > currentResultsDBVersion {
		db.Close()
		log.Criticalf("results database version: %d > current version: %d", version, currentResultsDBVersion)
		return nil, fmt.Errorf("results database version: %d > current version: %d", version, currentResultsDBVersion)
	}

	if 0 == version {
		if readOnly {
			db.Close()
			return nil, fmt.Errorf("results database: %q has no version", name)
		}

		// database was empty so tag as current version
		err = putVersion(db, currentResultsDBVersion)
		if nil != err {
			db.Close()
			return nil, err
		}
	}

	s := &Store{
		database: db,
		log:      log,
	}
	s.results = newPoolHandle(s, resultsPrefix)
	s.completed = newPoolHandle(s, completedPrefix)

	log.Infof("opened: %q  read only: %t", name, readOnly)
	return s, nil
}

// Close - close the database
func (s *Store) Close() {
	s.Lock()
	defer s.Unlock()
	if nil != s.database {
		s.database.Close()
		s.database = nil
		s.log.Info("closed")
	}
}

// return:
//   database handle
//   version number
func getDB(name string, readOnly bool) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}
