// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"encoding/binary"

	"github.com/bitmark-inc/keccakminer/fault"
)

// Usage - what a buffer may be used for
type Usage uint32

// buffer usage flags
const (
	UsageStorage Usage = 1 << iota
	UsageCopySrc
	UsageCopyDst
	UsageMapRead
)

// Limits - compute limits reported by a device
type Limits struct {
	MaxWorkgroupsPerDimension  uint32
	MaxWorkgroupSizeX          uint32
	MaxInvocationsPerWorkgroup uint32
}

// largest number of invocations any one dispatch may request
const maxDispatch = uint64(1) << 32

// Buffer - device memory, always a whole number of 32 bit words
type Buffer interface {
	Size() int
	Usage() Usage
	Write(data []byte) error
	Read() ([]byte, error)
	Release()
}

// Kernel - a compute program
//
// Check validates the binding sizes (in bytes) before a dispatch and
// Invoke runs one invocation against the bound memory
type Kernel interface {
	Name() string
	Check(sizes []int) error
	Invoke(globalID uint32, bindings [][]uint32)
}

// Device - a compute device
type Device interface {
	Name() string
	Limits() Limits
	CreateBuffer(size int, usage Usage) (Buffer, error)
	Dispatch(ctx context.Context, kernel Kernel, bindings []Buffer, invocations uint32) error
	Close() error
}

// Opener - obtain a device, fails with fault.ErrDeviceUnavailable
// when there is none
type Opener func() (Device, error)

// WorkgroupSize - invocations per workgroup
func (l Limits) WorkgroupSize() uint32 {
	size := l.MaxWorkgroupSizeX
	if 0 != l.MaxInvocationsPerWorkgroup && l.MaxInvocationsPerWorkgroup < size {
		size = l.MaxInvocationsPerWorkgroup
	}
	if 0 == size {
		return 1
	}
	return size
}

// MaxInvocations - the per dispatch invocation ceiling
func (l Limits) MaxInvocations() uint64 {
	n := uint64(l.MaxWorkgroupsPerDimension) * uint64(l.WorkgroupSize())
	if n > maxDispatch-1 {
		return maxDispatch - 1
	}
	return n
}

// Workgroups - number of workgroups needed for some invocations
func (l Limits) Workgroups(invocations uint32) uint32 {
	size := uint64(l.WorkgroupSize())
	return uint32((uint64(invocations) + size - 1) / size)
}

// CheckAligned - sizes must be a multiple of 4 bytes
func CheckAligned(size int) error {
	if size <= 0 || 0 != size%4 {
		return fault.ErrMisalignedBuffer
	}
	return nil
}

// Words - little endian bytes to words
func Words(data []byte) ([]uint32, error) {
	if 0 != len(data)%4 {
		return nil, fault.ErrMisalignedBuffer
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return words, nil
}

// Bytes - words to little endian bytes
func Bytes(words []uint32) []byte {
	data := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[4*i:], w)
	}
	return data
}
