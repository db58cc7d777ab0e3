// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/keccakminer/background"
	"github.com/bitmark-inc/keccakminer/device"
	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/pow"
)

// defaults for a zero Configuration field
const (
	DefaultMaxSequence    = uint64(0xffffffff)
	DefaultCPUWeight      = uint64(1)
	DefaultGPUWeight      = uint64(10)
	DefaultTick           = 100 * time.Millisecond
	DefaultReportInterval = uint64(10000)
)

// Configuration - manager setup
type Configuration struct {
	CPUUnits       int
	GPUUnits       int
	MaxSequence    uint64        // nonces are searched in [0, MaxSequence)
	CPUWeight      uint64        // share of the range for each CPU unit
	GPUWeight      uint64        // share of the range for each GPU unit
	Tick           time.Duration // control loop period
	ReportInterval uint64        // CPU nonces between progress events
	BatchSize      uint64        // GPU invocations per dispatch, 0 = device ceiling
	OpenDevice     device.Opener // called once by each GPU unit
}

// the task being mined
type current struct {
	task   *Task
	job    uint64
	status []UnitStatus
}

// Manager - runs one task at a time across all execution units
type Manager struct {
	sync.Mutex

	log    *logger.L
	config Configuration

	queue   *queue
	current *current

	running    bool
	generation uint64 // changes on every Start and Stop
	jobs       uint64 // dispatch sequence number
	units      []*unit
	processes  *background.T
	done       chan struct{}
}

// New - create an idle manager
func New(config Configuration, log *logger.L) (*Manager, error) {

	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	if config.CPUUnits < 0 || config.GPUUnits < 0 {
		return nil, fault.ErrInvalidCount
	}

	if 0 == config.MaxSequence {
		config.MaxSequence = DefaultMaxSequence
	}
	if 0 == config.CPUWeight {
		config.CPUWeight = DefaultCPUWeight
	}
	if 0 == config.GPUWeight {
		config.GPUWeight = DefaultGPUWeight
	}
	if _, ok := totalWeight(config.CPUUnits, config.CPUWeight, config.GPUUnits, config.GPUWeight); !ok {
		return nil, fault.ErrInvalidCount
	}
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	if 0 == config.ReportInterval {
		config.ReportInterval = DefaultReportInterval
	}

	m := &Manager{
		log:    log,
		config: config,
		queue:  newQueue(),
	}
	return m, nil
}

// AddTask - queue a task, it is mined once every earlier task is
// finished
func (m *Manager) AddTask(task *Task) error {
	err := validate(task)
	if nil != err {
		return err
	}

	m.Lock()
	m.queue.push(task)
	n := m.queue.length()
	m.Unlock()

	m.log.Infof("queued task: %q  difficulty: %d  mode: %s  pending: %d", task.ID, task.Difficulty, task.Mode, n)
	return nil
}

// Start - create the execution units and begin mining the queue
func (m *Manager) Start() error {
	m.Lock()
	defer m.Unlock()

	if m.running {
		return fault.ErrAlreadyStarted
	}
	if 0 == m.config.CPUUnits+m.config.GPUUnits {
		return fault.ErrNoExecutionUnits
	}

	units := make([]*unit, 0, m.config.CPUUnits+m.config.GPUUnits)
	for i := 0; i < m.config.CPUUnits; i += 1 {
		units = append(units, newCPUUnit(i, m.config.ReportInterval))
	}
	for i := 0; i < m.config.GPUUnits; i += 1 {
		units = append(units, newGPUUnit(i, m.config.OpenDevice, m.config.BatchSize))
	}

	processes := make(background.Processes, len(units))
	for i, u := range units {
		processes[i] = u
	}

	m.generation += 1
	m.running = true
	m.units = units
	m.current = nil
	m.done = make(chan struct{})
	m.processes = background.Start(processes, nil)

	go m.control(m.generation, m.done)

	m.log.Infof("started cpu: %d  gpu: %d", m.config.CPUUnits, m.config.GPUUnits)
	return nil
}

// Stop - abandon the current task, empty the queue and shut down all
// units
//
// safe to call when idle or from inside a Reporter method
func (m *Manager) Stop() {
	m.Lock()
	if !m.running {
		m.Unlock()
		return
	}

	m.generation += 1
	m.running = false
	close(m.done)

	processes := m.processes
	m.processes = nil
	m.units = nil
	m.current = nil
	m.queue.clear()
	m.Unlock()

	processes.Stop()
	m.log.Info("stopped")
}

// IsRunning - true between Start and Stop
func (m *Manager) IsRunning() bool {
	m.Lock()
	defer m.Unlock()
	return m.running
}

// Pending - number of queued tasks
func (m *Manager) Pending() int {
	m.Lock()
	defer m.Unlock()
	return m.queue.length()
}

// Current - task being mined, nil if none
func (m *Manager) Current() *Task {
	m.Lock()
	defer m.Unlock()
	if nil == m.current {
		return nil
	}
	return m.current.task
}

// control loop, one per Start
func (m *Manager) control(generation uint64, done <-chan struct{}) {

	ticker := time.NewTicker(m.config.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		for _, callback := range m.tick(generation) {
			if !m.deliver(generation, callback) {
				return
			}
		}
	}
}

// run a callback only if its generation is still live
func (m *Manager) deliver(generation uint64, callback func()) bool {
	m.Lock()
	live := generation == m.generation
	m.Unlock()
	if live {
		callback()
	}
	return live
}

// tick - start the next task or collect unit events, returns the
// reporter calls to make once the lock is released
func (m *Manager) tick(generation uint64) []func() {
	m.Lock()
	defer m.Unlock()

	if generation != m.generation {
		return nil
	}

	if nil == m.current {
		task := m.queue.pop()
		if nil != task {
			m.dispatch(task)
		}
		return nil
	}

	c := m.current
	callbacks := []func(){}

	for i, u := range m.units {
	drain:
		for {
			select {
			case e := <-u.outbox:
				if nil == m.current || e.job != c.job {
					continue drain
				}
				if callback := m.apply(c, i, e); nil != callback {
					callbacks = append(callbacks, callback)
				}
			default:
				break drain
			}
		}
	}

	if nil == m.current {
		return callbacks
	}

	report := ProgressReport{
		TaskID:  c.task.ID,
		Details: make([]UnitStatus, len(c.status)),
	}
	copy(report.Details, c.status)
	for _, s := range c.status {
		report.HashRate += s.HashRate
	}
	if reporter := c.task.Reporter; nil != reporter {
		callbacks = append(callbacks, func() { reporter.Progress(report) })
	}
	return callbacks
}

// dispatch - partition the nonce space and send every unit its range
func (m *Manager) dispatch(task *Task) {

	m.jobs += 1
	job := m.jobs

	weights := make([]uint64, len(m.units))
	status := make([]UnitStatus, len(m.units))
	for i, u := range m.units {
		if GPU == u.kind {
			weights[i] = m.config.GPUWeight
		} else {
			weights[i] = m.config.CPUWeight
		}
		status[i] = UnitStatus{
			Kind:  u.kind,
			Index: u.index,
		}
	}

	m.current = &current{
		task:   task,
		job:    job,
		status: status,
	}

	prefix := pow.Prefix(task.Input)
	ranges := partition(m.config.MaxSequence, weights)

	m.log.Infof("task: %q  job: %d  difficulty: %d  mode: %s  prefix: %s", task.ID, job, task.Difficulty, task.Mode, prefix)

	for i, u := range m.units {
		u.post(message{
			kind: messageMint,
			assignment: Assignment{
				Job:         job,
				TaskID:      task.ID,
				Input:       task.Input,
				Prefix:      prefix,
				Difficulty:  task.Difficulty,
				Mode:        task.Mode,
				Start:       ranges[i].Start,
				End:         ranges[i].End,
				SubmittedAt: task.SubmittedAt,
			},
		})
	}
}

// apply - fold one event of the current job into the task state
func (m *Manager) apply(c *current, i int, e event) func() {

	status := &c.status[i]
	reporter := c.task.Reporter

	switch e.kind {

	case eventProgress:
		nonce := e.nonce
		hash := e.hash
		status.HashRate = e.hashRate
		status.LastNonce = &nonce
		status.LastHash = &hash

	case eventEnd:
		if nil != e.result {
			m.log.Infof("task: %q  winner: %s-%d  nonce: 0x%016x", c.task.ID, status.Kind, status.Index, e.result.Nonce)
			m.resolve()
			result := e.result
			if nil != reporter {
				return func() { reporter.End(result) }
			}
			return nil
		}
		status.Exhausted = true
		status.HashRate = 0
		for _, s := range c.status {
			if !s.Exhausted {
				return nil
			}
		}
		m.log.Infof("task: %q  every range exhausted", c.task.ID)
		m.resolve()
		if nil != reporter {
			return func() { reporter.End(nil) }
		}

	case eventError:
		status.Err = e.err
		status.HashRate = 0
		m.log.Errorf("task: %q  error: %s", c.task.ID, e.err)
		m.resolve()
		err := e.err
		if nil != reporter {
			return func() { reporter.Error(err) }
		}
	}
	return nil
}

// resolve - the current task is finished, stop every unit
func (m *Manager) resolve() {
	m.current = nil
	for _, u := range m.units {
		u.post(message{
			kind: messageStop,
		})
	}
}
