// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner

import (
	"runtime"

	"github.com/bitmark-inc/keccakminer/hashrate"
	"github.com/bitmark-inc/keccakminer/pow"
)

// host search loop
type cpuEngine struct {
	reportInterval uint64
}

func newCPUUnit(index int, reportInterval uint64) *unit {
	return newUnit(CPU, index, &cpuEngine{
		reportInterval: reportInterval,
	})
}

// try every nonce of the range in order, stopping at the first match
func (c *cpuEngine) search(u *unit, a Assignment, shutdown <-chan struct{}) *message {

	sampler := hashrate.NewSampler()
	count := uint64(0)

	for nonce := a.Start; nonce < a.End; nonce += 1 {

		hash := pow.HashWithPrefix(a.Prefix, nonce)

		if a.Mode.Match(hash, a.Difficulty) {
			u.log.Infof("job: %d  nonce: 0x%016x  hash: %s", a.Job, nonce, hash)
			u.finish(event{
				kind: eventEnd,
				job:  a.Job,
				result: &MintResult{
					TaskID: a.TaskID,
					Nonce:  nonce,
					Hash:   hash,
				},
			}, shutdown)
			return nil
		}

		count += 1
		if count < c.reportInterval {
			continue
		}

		sampler.Add(count)
		count = 0
		u.progress(event{
			kind:     eventProgress,
			job:      a.Job,
			hashRate: sampler.Sample(),
			nonce:    nonce,
			hash:     hash,
		})

		runtime.Gosched()

		if m, interrupted := u.poll(shutdown); interrupted {
			return m
		}
	}

	u.log.Infof("job: %d  range exhausted", a.Job)
	u.finish(event{
		kind: eventEnd,
		job:  a.Job,
	}, shutdown)
	return nil
}

func (c *cpuEngine) close() {
}
