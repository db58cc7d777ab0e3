// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ranges must be consecutive, start at zero and end at max
func checkCoverage(t *testing.T, max uint64, ranges []Range) {
	if !assert.NotEmpty(t, ranges, "no ranges") {
		return
	}
	assert.Equal(t, uint64(0), ranges[0].Start, "first range start")
	assert.Equal(t, max, ranges[len(ranges)-1].End, "last range end")
	for i := 1; i < len(ranges); i += 1 {
		assert.Equal(t, ranges[i-1].End, ranges[i].Start, "gap or overlap at: %d", i)
		assert.True(t, ranges[i].Start <= ranges[i].End, "range: %d reversed", i)
	}
}

func TestPartitionCoverage(t *testing.T) {
	fixture := []struct {
		max     uint64
		weights []uint64
	}{
		{DefaultMaxSequence, []uint64{1}},
		{DefaultMaxSequence, []uint64{1, 1, 1, 1}},
		{DefaultMaxSequence, []uint64{1, 1, 10, 10}},
		{^uint64(0), []uint64{1, 10}},
		{^uint64(0), []uint64{3, 7, 11, 13, 17}},
		{7, []uint64{1, 1, 1}},
		{1, []uint64{1, 10}},
		{0, []uint64{1, 10}},
	}

	for _, f := range fixture {
		ranges := partition(f.max, f.weights)
		assert.Equal(t, len(f.weights), len(ranges), "max: %d  weights: %v", f.max, f.weights)
		checkCoverage(t, f.max, ranges)

		total := uint64(0)
		for _, r := range ranges {
			total += r.Size()
		}
		assert.Equal(t, f.max, total, "sizes do not add up  max: %d", f.max)
	}
}

func TestPartitionFloor(t *testing.T) {
	ranges := partition(100, []uint64{1, 1, 1})
	expected := []Range{
		{Start: 0, End: 33},
		{Start: 33, End: 66},
		{Start: 66, End: 100},
	}
	assert.Equal(t, expected, ranges, "wrong floor division")
}

func TestPartitionWeights(t *testing.T) {
	weights := []uint64{DefaultCPUWeight, DefaultCPUWeight, DefaultGPUWeight, DefaultGPUWeight}
	ranges := partition(DefaultMaxSequence, weights)
	checkCoverage(t, DefaultMaxSequence, ranges)

	for _, cpu := range ranges[:2] {
		for _, gpu := range ranges[2:] {
			assert.True(t, gpu.Size() > cpu.Size(), "gpu range: %d not larger than cpu range: %d", gpu.Size(), cpu.Size())
		}
	}

	// near the top of the 64 bit space the products overflow 64 bits
	ranges = partition(^uint64(0), []uint64{1, 1})
	assert.Equal(t, uint64(0x7fffffffffffffff), ranges[0].End, "wrong midpoint")
}

func TestTotalWeight(t *testing.T) {
	fixture := []struct {
		cpuUnits  int
		cpuWeight uint64
		gpuUnits  int
		gpuWeight uint64
		total     uint64
		ok        bool
	}{
		{2, DefaultCPUWeight, 2, DefaultGPUWeight, 22, true},
		{0, DefaultCPUWeight, 1, DefaultGPUWeight, 10, true},
		{1, ^uint64(0), 0, DefaultGPUWeight, ^uint64(0), true},
		{1, 1 << 63, 1, 1 << 63, 0, false},
		{2, 1 << 63, 0, DefaultGPUWeight, 0, false},
		{1, 1, 1, ^uint64(0), 0, false},
		{3, 1 << 62, 1, 1 << 62, 0, false},
	}

	for i, f := range fixture {
		total, ok := totalWeight(f.cpuUnits, f.cpuWeight, f.gpuUnits, f.gpuWeight)
		assert.Equal(t, f.ok, ok, "%dth fixture overflow flag", i)
		assert.Equal(t, f.total, total, "%dth fixture total", i)
	}
}

func TestPartitionEmpty(t *testing.T) {
	assert.Nil(t, partition(100, nil), "ranges without weights")
}

func TestRangeSize(t *testing.T) {
	assert.Equal(t, uint64(0), Range{Start: 5, End: 5}.Size(), "empty range")
	assert.Equal(t, uint64(0), Range{Start: 6, End: 5}.Size(), "reversed range")
	assert.Equal(t, uint64(10), Range{Start: 5, End: 15}.Size(), "normal range")
}
