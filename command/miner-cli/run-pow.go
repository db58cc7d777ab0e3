// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/keccakminer/device/software"
	"github.com/bitmark-inc/keccakminer/hashrate"
	"github.com/bitmark-inc/keccakminer/keccak"
	"github.com/bitmark-inc/keccakminer/miner"
	"github.com/bitmark-inc/keccakminer/pow"
)

const cliTaskID = "miner-cli"

type powReply struct {
	Input      string        `json:"input"`
	Difficulty uint32        `json:"difficulty"`
	Mode       pow.Mode      `json:"mode"`
	Hash       keccak.Digest `json:"hash"`
	Nonce      uint64        `json:"nonce"`
	ElapsedMs  int64         `json:"elapsed_ms"`
}

// outcome of a single task
type outcome struct {
	result *miner.MintResult
	err    error
}

// reporter that hands the outcome back to the command
type waiter struct {
	done    chan outcome
	e       io.Writer
	verbose bool
	limiter *rate.Limiter
}

func newWaiter(e io.Writer, verbose bool) *waiter {
	return &waiter{
		done:    make(chan outcome, 1),
		e:       e,
		verbose: verbose,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (w *waiter) End(result *miner.MintResult) {
	w.done <- outcome{result: result}
}

func (w *waiter) Error(err error) {
	w.done <- outcome{err: err}
}

func (w *waiter) Progress(report miner.ProgressReport) {
	if w.verbose && w.limiter.Allow() {
		fmt.Fprintf(w.e, "hash rate: %s\n", hashrate.Format(report.HashRate))
	}
}

func runPow(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	input, err := checkHex(c.String("input"))
	if nil != err {
		return err
	}
	difficulty, mode, err := checkDifficulty(c.Uint("difficulty"), c.String("mode"))
	if nil != err {
		return err
	}

	config := miner.Configuration{
		CPUUnits:    c.Int("cpu"),
		GPUUnits:    c.Int("gpu"),
		MaxSequence: c.Uint64("max-sequence"),
		BatchSize:   c.Uint64("batch-size"),
		OpenDevice:  software.Open,
	}
	manager, err := miner.New(config, logger.New("manager"))
	if nil != err {
		return err
	}

	w := newWaiter(m.e, m.verbose)
	task := &miner.Task{
		ID:          cliTaskID,
		Input:       input,
		Difficulty:  difficulty,
		Mode:        mode,
		SubmittedAt: time.Now(),
		Reporter:    w,
	}
	err = manager.AddTask(task)
	if nil != err {
		return err
	}

	if m.verbose {
		fmt.Fprintf(m.e, "mining: %x  difficulty: %d  mode: %s  cpu: %d  gpu: %d\n", input, difficulty, mode, config.CPUUnits, config.GPUUnits)
	}

	start := time.Now()
	err = manager.Start()
	if nil != err {
		return err
	}
	defer manager.Stop()

	var timeout <-chan time.Time
	if d := c.Duration("timeout"); d > 0 {
		timeout = time.After(d)
	}

	var o outcome
	select {
	case o = <-w.done:
	case <-timeout:
		return ErrTimeout
	}
	elapsed := time.Since(start)

	if nil != o.err {
		return o.err
	}
	if nil == o.result {
		return ErrNoNonceFound
	}

	reply := powReply{
		Input:      hex.EncodeToString(input),
		Difficulty: difficulty,
		Mode:       mode,
		Hash:       o.result.Hash,
		Nonce:      o.result.Nonce,
		ElapsedMs:  int64(elapsed / time.Millisecond),
	}
	return printJson(m.w, reply)
}
