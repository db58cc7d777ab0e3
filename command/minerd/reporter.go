// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/hashrate"
	"github.com/bitmark-inc/keccakminer/miner"
	"github.com/bitmark-inc/keccakminer/storage"
)

// progress lines per second for each task
const (
	progressRateLimit = rate.Limit(0.2)
	progressRateBurst = 1
)

// results are written here below the spool directory
const doneSubdirectory = "done"

// recorder - saves the outcome of one spooled task
type recorder struct {
	log      *logger.L
	store    *storage.Store
	done     string // directory for <id>.json
	taskFile string // spool file removed once the outcome is saved
	limiter  *rate.Limiter
	record   storage.Record
	finished func(id string)
}

func newRecorder(log *logger.L, store *storage.Store, spoolDirectory string, taskFile string, task *miner.Task, finished func(id string)) *recorder {
	return &recorder{
		log:      log,
		store:    store,
		done:     filepath.Join(spoolDirectory, doneSubdirectory),
		taskFile: taskFile,
		limiter:  rate.NewLimiter(progressRateLimit, progressRateBurst),
		record: storage.Record{
			ID:          task.ID,
			Input:       hex.EncodeToString(task.Input),
			Difficulty:  task.Difficulty,
			Mode:        task.Mode,
			SubmittedAt: task.SubmittedAt,
		},
		finished: finished,
	}
}

// End - a nonce was found or the whole range was searched
func (r *recorder) End(result *miner.MintResult) {
	if nil == result {
		r.log.Warnf("task: %q  no nonce in range", r.record.ID)
	} else {
		nonce := result.Nonce
		hash := result.Hash
		r.record.Nonce = &nonce
		r.record.Hash = &hash
		r.log.Infof("task: %q  nonce: %d  hash: %s", r.record.ID, nonce, hash)
	}
	r.save()
}

// Error - the task failed
func (r *recorder) Error(err error) {
	r.log.Errorf("task: %q  error: %s", r.record.ID, err)
	r.record.Error = err.Error()
	r.save()
}

// Progress - log the total rate, at most every few seconds
func (r *recorder) Progress(report miner.ProgressReport) {
	if !r.limiter.Allow() {
		return
	}
	r.log.Infof("task: %q  rate: %s", report.TaskID, hashrate.Format(report.HashRate))
	for _, d := range report.Details {
		if nil == d.LastNonce {
			continue
		}
		r.log.Debugf("%s-%d  rate: %s  nonce: %d", d.Kind, d.Index, hashrate.Format(d.HashRate), *d.LastNonce)
	}
}

func (r *recorder) save() {
	defer r.finished(r.record.ID)

	r.record.CompletedAt = time.Now().UTC()

	err := r.store.Put(&r.record)
	if nil != err {
		r.log.Errorf("task: %q  store error: %s", r.record.ID, err)
	}

	// the record holds only strings, numbers and digests
	data, err := json.MarshalIndent(&r.record, "", "  ")
	fault.PanicIfError("encode result record", err)

	fileName := filepath.Join(r.done, r.record.ID+".json")
	err = ioutil.WriteFile(fileName, append(data, '\n'), 0600)
	if nil != err {
		r.log.Errorf("task: %q  write: %q  error: %s", r.record.ID, fileName, err)
		return
	}

	if "" != r.taskFile {
		err = os.Remove(r.taskFile)
		if nil != err && !os.IsNotExist(err) {
			r.log.Warnf("task: %q  remove: %q  error: %s", r.record.ID, r.taskFile, err)
		}
	}
}
