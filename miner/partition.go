// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner

import (
	"math/bits"
)

// split [0, max) into consecutive ranges proportional to the weights
//
// range i starts at floor(max*c_i/W) where c_i is the sum of the
// weights before it and W is the total, the last range always ends at
// max.  All weights must be non-zero.
func partition(max uint64, weights []uint64) []Range {
	if 0 == len(weights) {
		return nil
	}

	total := uint64(0)
	for _, w := range weights {
		total += w
	}

	ranges := make([]Range, len(weights))
	start := uint64(0)
	cumulative := uint64(0)
	last := len(weights) - 1
	for i, w := range weights {
		cumulative += w
		end := max
		if i < last {
			// max*cumulative < 2^64*total so the quotient fits
			hi, lo := bits.Mul64(max, cumulative)
			end, _ = bits.Div64(hi, lo, total)
		}
		ranges[i] = Range{
			Start: start,
			End:   end,
		}
		start = end
	}
	return ranges
}

// sum of count*weight for both unit kinds, ok is false when the total
// does not fit in 64 bits
func totalWeight(cpuUnits int, cpuWeight uint64, gpuUnits int, gpuWeight uint64) (uint64, bool) {
	hi1, cpu := bits.Mul64(uint64(cpuUnits), cpuWeight)
	hi2, gpu := bits.Mul64(uint64(gpuUnits), gpuWeight)
	if 0 != hi1 || 0 != hi2 {
		return 0, false
	}
	total, carry := bits.Add64(cpu, gpu, 0)
	if 0 != carry {
		return 0, false
	}
	return total, true
}
