// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/keccakminer/device"
	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/hashrate"
	"github.com/bitmark-inc/keccakminer/kernel"
	"github.com/bitmark-inc/keccakminer/pow"
)

// size of one low nonce window
const windowSize = uint64(1) << 32

// device search loop
type gpuEngine struct {
	open      device.Opener
	batchSize uint64
	device    device.Device
	kernel    kernel.NonceSearch
}

func newGPUUnit(index int, open device.Opener, batchSize uint64) *unit {
	return newUnit(GPU, index, &gpuEngine{
		open:      open,
		batchSize: batchSize,
	})
}

// acquire - open the device on first use
func (g *gpuEngine) acquire(u *unit) (device.Device, error) {
	if nil != g.device {
		return g.device, nil
	}
	if nil == g.open {
		return nil, fault.ErrDeviceUnavailable
	}
	d, err := g.open()
	if nil != err {
		if errors.Is(err, fault.ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, errors.Wrapf(fault.ErrDeviceUnavailable, "open: %s", err)
	}
	if nil == d {
		return nil, fault.ErrDeviceUnavailable
	}
	u.log.Infof("device: %q  limits: %+v", d.Name(), d.Limits())
	g.device = d
	return d, nil
}

// batch - invocations per dispatch
func (g *gpuEngine) batch(d device.Device) (uint64, error) {
	ceiling := d.Limits().MaxInvocations()
	if 0 == ceiling {
		return 0, errors.Wrapf(fault.ErrInvalidCount, "device: %q has no invocations", d.Name())
	}
	if 0 == g.batchSize {
		return ceiling, nil
	}
	if g.batchSize > ceiling {
		return 0, errors.Wrapf(fault.ErrBatchTooLarge, "batch: %d  ceiling: %d", g.batchSize, ceiling)
	}
	return g.batchSize, nil
}

// walk the range one high nonce word at a time, dispatching each low
// window in batches
func (g *gpuEngine) search(u *unit, a Assignment, shutdown <-chan struct{}) *message {

	d, err := g.acquire(u)
	if nil != err {
		u.fail(a.Job, err, shutdown)
		return nil
	}

	batch, err := g.batch(d)
	if nil != err {
		u.fail(a.Job, err, shutdown)
		return nil
	}

	// the device only tests whole bytes, bit mode is finished on the host
	difficulty := a.Difficulty
	if pow.BitMode == a.Mode {
		difficulty = a.Difficulty / 8
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	sampler := hashrate.NewSampler()

	for base := a.Start; base < a.End; {

		high, low := pow.SplitNonce(base)

		// end of this high word's window, or of the range
		limit := a.End
		if uint64(high) < uint64(^uint32(0)) {
			if windowEnd := (uint64(high) + 1) * windowSize; windowEnd < limit {
				limit = windowEnd
			}
		}
		n := limit - base
		if n > batch {
			n = batch
		}

		candidates, err := g.dispatch(ctx, u, d, a, high, low, uint32(n), difficulty)
		if nil != ctx.Err() {
			return nil
		}
		if nil != err {
			u.fail(a.Job, err, shutdown)
			return nil
		}

		for _, nonce := range candidates {
			hash := pow.HashWithPrefix(a.Prefix, nonce)
			if !pow.MatchBytes(hash, difficulty) {
				u.log.Warnf("job: %d  kernel/host mismatch nonce: 0x%016x  hash: %s", a.Job, nonce, hash)
				continue
			}
			if !a.Mode.Match(hash, a.Difficulty) {
				continue
			}
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

		last := base + n - 1
		sampler.Add(n)
		u.progress(event{
			kind:     eventProgress,
			job:      a.Job,
			hashRate: sampler.Sample(),
			nonce:    last,
			hash:     pow.HashWithPrefix(a.Prefix, last),
		})

		if m, interrupted := u.poll(shutdown); interrupted {
			return m
		}

		base += n
	}

	u.log.Infof("job: %d  range exhausted", a.Job)
	u.finish(event{
		kind: eventEnd,
		job:  a.Job,
	}, shutdown)
	return nil
}

// dispatch - one batch of invocations starting at (high, low), returns
// the candidate nonces in ascending order
func (g *gpuEngine) dispatch(ctx context.Context, u *unit, d device.Device, a Assignment, high uint32, low uint32, invocations uint32, difficulty uint32) ([]uint64, error) {

	scope := device.NewScope(d)
	defer scope.Release()

	bindings := make([]device.Buffer, kernel.BindingLog+1)

	key, err := scope.Upload("key", device.Bytes(pow.Key(a.Prefix, high, low)), device.UsageStorage|device.UsageCopyDst)
	if nil != err {
		return nil, err
	}
	bindings[kernel.BindingKey] = key

	target, err := scope.Upload("difficulty", device.Bytes([]uint32{difficulty}), device.UsageStorage|device.UsageCopyDst)
	if nil != err {
		return nil, err
	}
	bindings[kernel.BindingDifficulty] = target

	results, err := scope.Create("results", kernel.ResultsSize, device.UsageStorage|device.UsageCopySrc)
	if nil != err {
		return nil, err
	}
	bindings[kernel.BindingResults] = results

	count, err := scope.Upload("count", make([]byte, kernel.CountSize), device.UsageStorage|device.UsageCopySrc|device.UsageCopyDst)
	if nil != err {
		return nil, err
	}
	bindings[kernel.BindingCount] = count

	diagnostic, err := scope.Create("log", kernel.LogSize, device.UsageStorage|device.UsageCopySrc)
	if nil != err {
		return nil, err
	}
	bindings[kernel.BindingLog] = diagnostic

	err = d.Dispatch(ctx, g.kernel, bindings, invocations)
	if nil != err {
		return nil, errors.Wrapf(err, "dispatch: %q  invocations: %d", g.kernel.Name(), invocations)
	}

	found, err := readWords(count, "count")
	if nil != err {
		return nil, err
	}
	if 0 == found[0] {
		return nil, nil
	}

	lows, err := readWords(results, "results")
	if nil != err {
		return nil, err
	}
	n := int(found[0])
	if n > len(lows) {
		u.log.Warnf("job: %d  %d candidates, only %d recorded", a.Job, n, len(lows))
		n = len(lows)
	}
	lows = lows[:n]
	sort.Slice(lows, func(i, j int) bool { return lows[i] < lows[j] })

	nonces := make([]uint64, n)
	for i, l := range lows {
		nonces[i] = pow.JoinNonce(high, l)
	}
	u.log.Infof("job: %d  found %d candidates", a.Job, n)
	u.log.Debugf("job: %d  candidate nonces (LE): %x", a.Job, device.Bytes(lows))

	if entry, err := readWords(diagnostic, "log"); nil == err {
		u.log.Debugf("job: %d  kernel log: %08x", a.Job, entry)
	}

	return nonces, nil
}

// read a buffer back as words
func readWords(b device.Buffer, name string) ([]uint32, error) {
	data, err := b.Read()
	if nil != err {
		return nil, errors.Wrapf(err, "read %s buffer", name)
	}
	words, err := device.Words(data)
	if nil != err {
		return nil, errors.Wrapf(err, "read %s buffer", name)
	}
	if 0 == len(words) {
		return nil, errors.Wrapf(fault.ErrInvalidCount, "read %s buffer", name)
	}
	return words, nil
}

func (g *gpuEngine) close() {
	if nil == g.device {
		return
	}
	_ = g.device.Close()
	g.device = nil
}
