// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package software

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/keccakminer/device"
	"github.com/bitmark-inc/keccakminer/fault"
)

// DefaultName - name reported by the default device
const DefaultName = "software"

// DefaultLimits - limits of the default device
var DefaultLimits = device.Limits{
	MaxWorkgroupsPerDimension:  65535,
	MaxWorkgroupSizeX:          256,
	MaxInvocationsPerWorkgroup: 256,
}

// Device - runs kernels on goroutines, one workgroup at a time per
// worker
type Device struct {
	name    string
	limits  device.Limits
	workers int
	closed  int32
}

type buffer struct {
	owner    *Device
	words    []uint32
	usage    device.Usage
	released int32
}

// New - create a device with the given limits
func New(name string, limits device.Limits, workers int) *Device {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Device{
		name:    name,
		limits:  limits,
		workers: workers,
	}
}

// Open - device.Opener for the default software device
func Open() (device.Device, error) {
	return New(DefaultName, DefaultLimits, 0), nil
}

// Opener - device.Opener for a device with specific limits
func Opener(name string, limits device.Limits, workers int) device.Opener {
	return func() (device.Device, error) {
		return New(name, limits, workers), nil
	}
}

// Name - device name
func (d *Device) Name() string {
	return d.name
}

// Limits - device limits
func (d *Device) Limits() device.Limits {
	return d.limits
}

// Close - no further buffers or dispatches
func (d *Device) Close() error {
	atomic.StoreInt32(&d.closed, 1)
	return nil
}

func (d *Device) isClosed() bool {
	return 0 != atomic.LoadInt32(&d.closed)
}

// CreateBuffer - zero filled device memory
func (d *Device) CreateBuffer(size int, usage device.Usage) (device.Buffer, error) {
	if d.isClosed() {
		return nil, fault.ErrDeviceClosed
	}
	if err := device.CheckAligned(size); nil != err {
		return nil, err
	}
	return &buffer{
		owner: d,
		words: make([]uint32, size/4),
		usage: usage,
	}, nil
}

// Dispatch - run invocations of the kernel and wait for all of them
//
// the context is checked between workgroups, a cancelled dispatch
// returns the context error after the workgroups already running
// have finished
func (d *Device) Dispatch(ctx context.Context, kernel device.Kernel, bindings []device.Buffer, invocations uint32) error {
	if d.isClosed() {
		return fault.ErrDeviceClosed
	}
	if uint64(invocations) > d.limits.MaxInvocations() {
		return errors.Wrapf(fault.ErrBatchTooLarge, "invocations: %d", invocations)
	}

	memory := make([][]uint32, len(bindings))
	sizes := make([]int, len(bindings))
	for i, b := range bindings {
		sb, ok := b.(*buffer)
		if !ok || sb.owner != d {
			return errors.Wrapf(fault.ErrForeignBuffer, "binding: %d", i)
		}
		if sb.isReleased() {
			return errors.Wrapf(fault.ErrBufferReleased, "binding: %d", i)
		}
		memory[i] = sb.words
		sizes[i] = 4 * len(sb.words)
	}
	if err := kernel.Check(sizes); nil != err {
		return errors.Wrapf(err, "kernel: %s", kernel.Name())
	}

	groupSize := d.limits.WorkgroupSize()
	groups := d.limits.Workgroups(invocations)

	next := uint32(0)
	var failure atomic.Value
	var wg sync.WaitGroup

	workers := d.workers
	if uint32(workers) > groups {
		workers = int(groups)
	}

	for w := 0; w < workers; w += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); nil != r {
					failure.Store(errors.Wrapf(fault.ErrKernelFault, "kernel: %s panic: %v", kernel.Name(), r))
				}
			}()

			for {
				g := atomic.AddUint32(&next, 1) - 1
				if g >= groups || nil != ctx.Err() || nil != failure.Load() {
					return
				}
				first := g * groupSize
				last := first + groupSize
				if last > invocations || last < first {
					last = invocations
				}
				for id := first; id < last; id += 1 {
					kernel.Invoke(id, memory)
				}
			}
		}()
	}
	wg.Wait()

	if err, ok := failure.Load().(error); ok {
		return err
	}
	return ctx.Err()
}

// Size - size in bytes
func (b *buffer) Size() int {
	return 4 * len(b.words)
}

// Usage - usage flags given at creation
func (b *buffer) Usage() device.Usage {
	return b.usage
}

func (b *buffer) isReleased() bool {
	return 0 != atomic.LoadInt32(&b.released)
}

// Write - fill from the start of the buffer
func (b *buffer) Write(data []byte) error {
	if b.isReleased() {
		return fault.ErrBufferReleased
	}
	words, err := device.Words(data)
	if nil != err {
		return err
	}
	if len(words) > len(b.words) {
		return errors.Wrapf(fault.ErrInvalidCount, "write: %d bytes into: %d", len(data), b.Size())
	}
	copy(b.words, words)
	return nil
}

// Read - copy the whole buffer back to the host
func (b *buffer) Read() ([]byte, error) {
	if b.isReleased() {
		return nil, fault.ErrBufferReleased
	}
	if 0 == b.usage&(device.UsageCopySrc|device.UsageMapRead) {
		return nil, fault.ErrNotReadable
	}
	return device.Bytes(b.words), nil
}

// Release - drop the memory, later use fails
func (b *buffer) Release() {
	if atomic.CompareAndSwapInt32(&b.released, 0, 1) {
		b.words = nil
	}
}
