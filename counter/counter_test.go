// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package counter_test

import (
	"sync"
	"testing"

	"github.com/bitmark-inc/keccakminer/counter"
)

// test incrementing and taking a counter
func TestCounter(t *testing.T) {

	var c1 counter.Counter

	if !c1.IsZero() {
		t.Errorf("counter is not zero at start: %d", c1.Uint64())
	}

	c1.Increment()
	c1.Increment()
	c1.Add(10000)

	if 10002 != c1.Uint64() {
		t.Errorf("counter is not 10002 after adding: %d", c1.Uint64())
	}

	if n := c1.Take(); 10002 != n {
		t.Errorf("take returned: %d  expected: 10002", n)
	}

	if !c1.IsZero() {
		t.Errorf("counter did not return to zero after take: %d", c1.Uint64())
	}

	c1.Add(^uint64(0))
	c1.Increment()

	// check wrap around, i.e. twos complement
	if !c1.IsZero() {
		t.Errorf("counter did not wrap: %d", c1.Uint64())
	}
}

// several writers, one taker
func TestCounterConcurrent(t *testing.T) {

	var c counter.Counter
	var wg sync.WaitGroup

	const writers = 8
	const perWriter = 10000

	done := make(chan struct{})
	taken := make(chan uint64)
	go func() {
		total := uint64(0)
		for {
			select {
			case <-done:
				taken <- total + c.Take()
				return
			default:
				total += c.Take()
			}
		}
	}()

	for i := 0; i < writers; i += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j += 1 {
				c.Add(1)
			}
		}()
	}
	wg.Wait()
	close(done)

	if total := <-taken; writers*perWriter != total {
		t.Errorf("taken total: %d  expected: %d", total, writers*perWriter)
	}
}
