// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/keccakminer/device"
	devicemocks "github.com/bitmark-inc/keccakminer/device/mocks"
	"github.com/bitmark-inc/keccakminer/device/software"
	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/fixtures"
	"github.com/bitmark-inc/keccakminer/kernel"
	"github.com/bitmark-inc/keccakminer/miner"
	"github.com/bitmark-inc/keccakminer/miner/mocks"
	"github.com/bitmark-inc/keccakminer/pow"
)

var smallLimits = device.Limits{
	MaxWorkgroupsPerDimension:  64,
	MaxWorkgroupSizeX:          64,
	MaxInvocationsPerWorkgroup: 64,
}

// a reporter that expects exactly one result
func resultReporter(ctl *gomock.Controller) (*mocks.MockReporter, <-chan *miner.MintResult) {
	results := make(chan *miner.MintResult, 1)
	r := mocks.NewMockReporter(ctl)
	r.EXPECT().Progress(gomock.Any()).AnyTimes()
	r.EXPECT().End(gomock.Any()).Do(func(result *miner.MintResult) {
		results <- result
	}).Times(1)
	return r, results
}

// a reporter that expects exactly one error
func errorReporter(ctl *gomock.Controller) (*mocks.MockReporter, <-chan error) {
	errs := make(chan error, 1)
	r := mocks.NewMockReporter(ctl)
	r.EXPECT().Progress(gomock.Any()).AnyTimes()
	r.EXPECT().Error(gomock.Any()).Do(func(err error) {
		errs <- err
	}).Times(1)
	return r, errs
}

func waitError(t *testing.T, errs <-chan error) error {
	select {
	case err := <-errs:
		return err
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for error")
	}
	return nil
}

func TestGPUSoftwareDevice(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r, results := resultReporter(ctl)

	m := newManager(t, miner.Configuration{
		GPUUnits:   1,
		OpenDevice: software.Opener("test-gpu", smallLimits, 2),
	})
	assert.Nil(t, m.AddTask(&miner.Task{
		ID:         "gpu",
		Input:      fixtures.TestInput,
		Difficulty: 1,
		Reporter:   r,
	}), "add task")
	assert.Nil(t, m.Start(), "start")
	defer m.Stop()

	result := waitResult(t, results)
	assert.Equal(t, bruteForce(fixtures.TestInput, 0, pow.ByteMode, 1), result.Nonce, "batches are searched in order")
	assert.Equal(t, pow.Hash(fixtures.TestInput, result.Nonce), result.Hash, "wrong hash")
}

func TestGPUSoftwareDeviceBitMode(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r, results := resultReporter(ctl)

	// every nonce passes the zero byte device test, so keep each batch
	// within the result buffer's capacity
	m := newManager(t, miner.Configuration{
		GPUUnits:   1,
		BatchSize:  kernel.ResultsSize / 4,
		OpenDevice: software.Opener("test-gpu", smallLimits, 2),
	})
	assert.Nil(t, m.AddTask(&miner.Task{
		ID:         "gpu-bits",
		Input:      fixtures.LongInput,
		Difficulty: 7,
		Mode:       pow.BitMode,
		Reporter:   r,
	}), "add task")
	assert.Nil(t, m.Start(), "start")
	defer m.Stop()

	result := waitResult(t, results)
	assert.Equal(t, bruteForce(fixtures.LongInput, 0, pow.BitMode, 7), result.Nonce, "wrong nonce")
	assert.True(t, pow.MatchBits(result.Hash, 7), "hash does not meet difficulty")
}

func TestGPUAndCPUTogether(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r, results := resultReporter(ctl)

	m := newManager(t, miner.Configuration{
		CPUUnits:   2,
		GPUUnits:   1,
		OpenDevice: software.Opener("test-gpu", smallLimits, 2),
	})
	assert.Nil(t, m.AddTask(&miner.Task{
		ID:         "mixed",
		Input:      fixtures.LongInput,
		Difficulty: 1,
		Reporter:   r,
	}), "add task")
	assert.Nil(t, m.Start(), "start")
	defer m.Stop()

	result := waitResult(t, results)
	assert.True(t, pow.MatchBytes(result.Hash, 1), "hash does not meet difficulty")
	assert.Equal(t, pow.Hash(fixtures.LongInput, result.Nonce), result.Hash, "wrong hash")
}

func TestGPUOpenerFailure(t *testing.T) {
	fixture := []struct {
		name string
		open device.Opener
	}{
		{"no opener", nil},
		{"opener error", func() (device.Device, error) { return nil, errors.New("no adapter") }},
		{"no device", func() (device.Device, error) { return nil, nil }},
	}

	for _, f := range fixture {
		ctl := gomock.NewController(t)
		r, errs := errorReporter(ctl)

		m := newManager(t, miner.Configuration{
			GPUUnits:   1,
			OpenDevice: f.open,
		})
		assert.Nil(t, m.AddTask(&miner.Task{
			ID:         f.name,
			Input:      fixtures.TestInput,
			Difficulty: 1,
			Reporter:   r,
		}), "%s: add task", f.name)
		assert.Nil(t, m.Start(), "%s: start", f.name)

		err := waitError(t, errs)
		assert.True(t, errors.Is(err, fault.ErrDeviceUnavailable), "%s: wrong error: %s", f.name, err)
		assert.True(t, errors.Is(err, fault.ErrUnitFault), "%s: not a unit fault: %s", f.name, err)
		assert.True(t, fault.IsErrNotFound(err), "%s: wrong class: %s", f.name, err)

		var unitError *miner.UnitError
		if assert.True(t, errors.As(err, &unitError), "%s: not a unit error", f.name) {
			assert.Equal(t, miner.GPU, unitError.Kind, "%s: wrong kind", f.name)
			assert.Equal(t, 0, unitError.Index, "%s: wrong index", f.name)
		}

		m.Stop()
		ctl.Finish()
	}
}

func TestGPUBatchTooLarge(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	d := devicemocks.NewMockDevice(ctl)
	d.EXPECT().Name().Return("mock").AnyTimes()
	d.EXPECT().Limits().Return(device.Limits{
		MaxWorkgroupsPerDimension:  2,
		MaxWorkgroupSizeX:          8,
		MaxInvocationsPerWorkgroup: 8,
	}).AnyTimes()
	d.EXPECT().Close().Return(nil).Times(1)

	r, errs := errorReporter(ctl)

	m := newManager(t, miner.Configuration{
		GPUUnits:   1,
		BatchSize:  17,
		OpenDevice: func() (device.Device, error) { return d, nil },
	})
	assert.Nil(t, m.AddTask(&miner.Task{
		ID:         "batch",
		Input:      fixtures.TestInput,
		Difficulty: 1,
		Reporter:   r,
	}), "add task")
	assert.Nil(t, m.Start(), "start")

	err := waitError(t, errs)
	assert.True(t, errors.Is(err, fault.ErrBatchTooLarge), "wrong error: %s", err)
	assert.True(t, fault.IsErrInvalid(err), "wrong class: %s", err)

	m.Stop()
}

// the five buffers of one dispatch, in creation order
type dispatchBuffers struct {
	key        *devicemocks.MockBuffer
	difficulty *devicemocks.MockBuffer
	results    *devicemocks.MockBuffer
	count      *devicemocks.MockBuffer
	log        *devicemocks.MockBuffer
}

func expectBuffers(ctl *gomock.Controller, d *devicemocks.MockDevice, key []uint32, difficulty uint32) dispatchBuffers {
	b := dispatchBuffers{
		key:        devicemocks.NewMockBuffer(ctl),
		difficulty: devicemocks.NewMockBuffer(ctl),
		results:    devicemocks.NewMockBuffer(ctl),
		count:      devicemocks.NewMockBuffer(ctl),
		log:        devicemocks.NewMockBuffer(ctl),
	}
	gomock.InOrder(
		d.EXPECT().CreateBuffer(4*len(key), device.UsageStorage|device.UsageCopyDst).Return(b.key, nil),
		b.key.EXPECT().Write(device.Bytes(key)).Return(nil),
		d.EXPECT().CreateBuffer(kernel.DifficultySize, device.UsageStorage|device.UsageCopyDst).Return(b.difficulty, nil),
		b.difficulty.EXPECT().Write(device.Bytes([]uint32{difficulty})).Return(nil),
		d.EXPECT().CreateBuffer(kernel.ResultsSize, device.UsageStorage|device.UsageCopySrc).Return(b.results, nil),
		d.EXPECT().CreateBuffer(kernel.CountSize, device.UsageStorage|device.UsageCopySrc|device.UsageCopyDst).Return(b.count, nil),
		b.count.EXPECT().Write(make([]byte, kernel.CountSize)).Return(nil),
		d.EXPECT().CreateBuffer(kernel.LogSize, device.UsageStorage|device.UsageCopySrc).Return(b.log, nil),
	)
	b.key.EXPECT().Release().Times(1)
	b.difficulty.EXPECT().Release().Times(1)
	b.results.EXPECT().Release().Times(1)
	b.count.EXPECT().Release().Times(1)
	b.log.EXPECT().Release().Times(1)
	return b
}

var batchLimits = device.Limits{
	MaxWorkgroupsPerDimension:  1,
	MaxWorkgroupSizeX:          256,
	MaxInvocationsPerWorkgroup: 256,
}

func TestGPUDispatchFailure(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	d := devicemocks.NewMockDevice(ctl)
	d.EXPECT().Name().Return("mock").AnyTimes()
	d.EXPECT().Limits().Return(batchLimits).AnyTimes()
	d.EXPECT().Close().Return(nil).Times(1)

	key := pow.Key(pow.Prefix(fixtures.TestInput), 0, 0)
	expectBuffers(ctl, d, key, 1)

	lost := errors.New("device lost")
	d.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any(), uint32(256)).Return(lost).Times(1)

	r, errs := errorReporter(ctl)

	m := newManager(t, miner.Configuration{
		GPUUnits:   1,
		OpenDevice: func() (device.Device, error) { return d, nil },
	})
	assert.Nil(t, m.AddTask(&miner.Task{
		ID:         "lost",
		Input:      fixtures.TestInput,
		Difficulty: 1,
		Reporter:   r,
	}), "add task")
	assert.Nil(t, m.Start(), "start")

	err := waitError(t, errs)
	assert.True(t, errors.Is(err, fault.ErrUnitFault), "not a unit fault: %s", err)
	assert.True(t, errors.Is(err, lost), "cause lost: %s", err)

	var unitError *miner.UnitError
	assert.True(t, errors.As(err, &unitError), "not a unit error")

	m.Stop()
}

// an input whose first byte difficulty 1 nonce is below 256
func smallNonceInput() ([]byte, uint32) {
	for i := 0; ; i += 1 {
		input := []byte(fmt.Sprintf("small-nonce-%d", i))
		prefix := pow.Prefix(input)
		for nonce := uint64(0); nonce < 256; nonce += 1 {
			if pow.MatchBytes(pow.HashWithPrefix(prefix, nonce), 1) {
				return input, uint32(nonce)
			}
		}
	}
}

func TestGPUMockedResult(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	input, low := smallNonceInput()

	d := devicemocks.NewMockDevice(ctl)
	d.EXPECT().Name().Return("mock").AnyTimes()
	d.EXPECT().Limits().Return(batchLimits).AnyTimes()
	d.EXPECT().Close().Return(nil).Times(1)

	b := expectBuffers(ctl, d, pow.Key(pow.Prefix(input), 0, 0), 1)

	results := make([]uint32, kernel.ResultsSize/4)
	results[0] = low

	d.EXPECT().Dispatch(gomock.Any(), kernel.NonceSearch{}, gomock.Any(), uint32(256)).Return(nil).Times(1)
	b.count.EXPECT().Read().Return(device.Bytes([]uint32{1}), nil).Times(1)
	b.results.EXPECT().Read().Return(device.Bytes(results), nil).Times(1)
	b.log.EXPECT().Read().Return(make([]byte, kernel.LogSize), nil).Times(1)

	r, found := resultReporter(ctl)

	m := newManager(t, miner.Configuration{
		GPUUnits:   1,
		OpenDevice: func() (device.Device, error) { return d, nil },
	})
	assert.Nil(t, m.AddTask(&miner.Task{
		ID:         "mocked",
		Input:      input,
		Difficulty: 1,
		Reporter:   r,
	}), "add task")
	assert.Nil(t, m.Start(), "start")

	result := waitResult(t, found)
	assert.Equal(t, uint64(low), result.Nonce, "wrong nonce")
	assert.Equal(t, pow.Hash(input, uint64(low)), result.Hash, "wrong hash")

	m.Stop()
}
