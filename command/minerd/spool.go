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
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/miner"
	"github.com/bitmark-inc/keccakminer/pow"
	"github.com/bitmark-inc/keccakminer/storage"
)

const (
	spoolLoggerPrefix = "spool"
	taskExtension     = ".json"
)

// TaskQueue - where parsed tasks are sent
type TaskQueue interface {
	AddTask(task *miner.Task) error
}

// task file contents
type taskFile struct {
	ID         string   `json:"id"`
	Input      string   `json:"input"`
	Difficulty uint32   `json:"difficulty"`
	Mode       pow.Mode `json:"mode"`
}

type spool struct {
	log       *logger.L
	watcher   *fsnotify.Watcher
	directory string
	store     *storage.Store
	queue     TaskQueue
	seen      *cache.Cache // file names, expire after the dedup window
	active    *cache.Cache // queued task ids until their outcome is saved
}

func newSpool(directory string, window time.Duration, store *storage.Store, queue TaskQueue, log *logger.L) (*spool, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	directory, err := filepath.Abs(filepath.Clean(directory))
	if nil != err {
		return nil, err
	}

	if info, err := os.Stat(directory); nil != err {
		return nil, err
	} else if !info.IsDir() {
		return nil, errors.Errorf("spool: %q is not a directory", directory)
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, errors.Wrap(err, "new watcher")
	}

	return &spool{
		log:       log,
		watcher:   watcher,
		directory: directory,
		store:     store,
		queue:     queue,
		seen:      cache.New(window, 2*window),
		active:    cache.New(cache.NoExpiration, 0),
	}, nil
}

// Run - queue existing task files then every new one until shutdown
func (s *spool) Run(args interface{}, shutdown <-chan struct{}) {
	defer s.watcher.Close()

	err := s.watcher.Add(s.directory)
	if nil != err {
		s.log.Criticalf("watch: %q  error: %s", s.directory, err)
		return
	}

	s.scan()

	s.log.Info("starting…")
loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-s.watcher.Events:
			if !ok {
				break loop
			}
			s.log.Debugf("file event: %v", event)
			if watcherEventFileArrived(event) && isTaskFile(event.Name) {
				s.load(event.Name)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				break loop
			}
			s.log.Errorf("watcher error: %s", err)
		}
	}
	s.log.Info("shutting down…")
}

// queue every task file already present
func (s *spool) scan() {
	files, err := ioutil.ReadDir(s.directory)
	if nil != err {
		s.log.Errorf("read: %q  error: %s", s.directory, err)
		return
	}
	for _, f := range files {
		if f.Mode().IsRegular() && isTaskFile(f.Name()) {
			s.load(filepath.Join(s.directory, f.Name()))
		}
	}
}

// read one task file and queue it
//
// a file that does not parse is not marked as seen, so the next write
// to a partially written file retries it
func (s *spool) load(fileName string) {
	name := filepath.Base(fileName)
	if _, found := s.seen.Get(name); found {
		s.log.Debugf("duplicate event: %q", name)
		return
	}

	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		if !os.IsNotExist(err) {
			s.log.Warnf("read: %q  error: %s", fileName, err)
		}
		return
	}

	task, err := parseTask(name, data)
	if nil != err {
		s.log.Warnf("task file: %q  error: %s", name, err)
		return
	}
	s.seen.SetDefault(name, struct{}{})

	err = s.active.Add(task.ID, name, cache.NoExpiration)
	if nil != err {
		s.log.Debugf("task: %q already queued", task.ID)
		return
	}

	if has, err := s.store.Has(task.ID); nil != err {
		s.log.Errorf("task: %q  store error: %s", task.ID, err)
		s.active.Delete(task.ID)
		return
	} else if has {
		s.log.Infof("task: %q already has a result", task.ID)
		s.active.Delete(task.ID)
		return
	}

	r := newRecorder(s.log, s.store, s.directory, fileName, task, s.finished)
	task.Reporter = r

	err = s.queue.AddTask(task)
	if nil != err {
		r.Error(err)
	}
}

func (s *spool) finished(id string) {
	s.active.Delete(id)
}

// decode a task file, the id defaults to the file name
func parseTask(name string, data []byte) (*miner.Task, error) {
	var f taskFile
	err := json.Unmarshal(data, &f)
	if nil != err {
		return nil, errors.Wrap(err, "decode")
	}

	id := f.ID
	if "" == id {
		id = strings.TrimSuffix(name, taskExtension)
	}
	if "" == id || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return nil, errors.Wrapf(fault.ErrInvalidInput, "id: %q", id)
	}

	s := f.Input
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	input, err := hex.DecodeString(s)
	if nil != err {
		return nil, errors.Wrapf(fault.ErrInvalidInput, "input: %s", err)
	}

	task := &miner.Task{
		ID:          id,
		Input:       input,
		Difficulty:  f.Difficulty,
		Mode:        f.Mode,
		SubmittedAt: time.Now().UTC(),
	}
	return task, nil
}

// visible task files only, writers should create a hidden file and
// rename it into place
func isTaskFile(fileName string) bool {
	name := filepath.Base(fileName)
	return taskExtension == filepath.Ext(name) && !strings.HasPrefix(name, ".")
}

func watcherEventFileArrived(event fsnotify.Event) bool {
	return event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Write == fsnotify.Write
}
