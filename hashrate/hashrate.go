// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hashrate

import (
	"fmt"
	"math"
	"time"

	"github.com/bitmark-inc/keccakminer/counter"
)

var units = []string{"H/s", "KH/s", "MH/s", "GH/s", "TH/s", "PH/s", "EH/s", "ZH/s", "YH/s"}

// Sampler - counts hashes and turns them into a rate on each sample
//
// Add may be called from any goroutine, Sample from one goroutine only
type Sampler struct {
	hashes counter.Counter
	last   time.Time
	clock  func() time.Time
}

// NewSampler - sampler using the wall clock
func NewSampler() *Sampler {
	return NewSamplerWithClock(time.Now)
}

// NewSamplerWithClock - sampler using a specific time source
func NewSamplerWithClock(clock func() time.Time) *Sampler {
	return &Sampler{
		last:  clock(),
		clock: clock,
	}
}

// Add - record some hashes
func (s *Sampler) Add(n uint64) {
	s.hashes.Add(n)
}

// Sample - hashes per second since the previous sample
func (s *Sampler) Sample() float64 {
	now := s.clock()
	rate := Rate(s.hashes.Take(), now.Sub(s.last))
	s.last = now
	return rate
}

// Rate - count per second over an elapsed time, zero when no time
// has passed
func Rate(count uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed.Seconds()
}

// Format - human readable rate with one decimal, scaled by 1000
func Format(rate float64) string {
	if math.IsNaN(rate) || rate < 0 {
		rate = 0
	}
	i := 0
	for rate >= 1000 && i < len(units)-1 {
		rate /= 1000
		i += 1
	}
	return fmt.Sprintf("%.1f %s", rate, units[i])
}
