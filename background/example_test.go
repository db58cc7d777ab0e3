// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"fmt"

	"github.com/bitmark-inc/keccakminer/background"
	"github.com/bitmark-inc/keccakminer/pow"
)

// searches upwards from a nonce until it finds a leading zero byte
// or is told to stop
type searcher struct {
	input []byte
	nonce uint64
	found chan uint64
}

func Example() {

	s := &searcher{
		input: []byte("test"),
		found: make(chan uint64, 1),
	}

	// list of background processes to start
	processes := background.Processes{
		s,
	}

	p := background.Start(processes, uint64(0))
	nonce := <-s.found
	p.Stop()

	fmt.Printf("leading zero byte: %t\n", pow.MatchBytes(pow.Hash(s.input, nonce), 1))
	// Output: leading zero byte: true
}

func (s *searcher) Run(args interface{}, shutdown <-chan struct{}) {

	s.nonce = args.(uint64)

loop:
	for {
		select {
		case <-shutdown:
			break loop
		default:
		}

		if pow.MatchBytes(pow.Hash(s.input, s.nonce), 1) {
			s.found <- s.nonce
			<-shutdown
			break loop
		}
		s.nonce += 1
	}
}
