// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package device_test

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/keccakminer/device"
	"github.com/bitmark-inc/keccakminer/device/mocks"
	"github.com/bitmark-inc/keccakminer/fault"
)

func TestLimits(t *testing.T) {
	fixture := []struct {
		limits        device.Limits
		size          uint32
		ceiling       uint64
		invocations   uint32
		workgroupsFor uint32
	}{
		{device.Limits{65535, 256, 256}, 256, 65535 * 256, 1000, 4},
		{device.Limits{16, 64, 32}, 32, 512, 33, 2},
		{device.Limits{16, 0, 0}, 1, 16, 16, 16},
		{device.Limits{0xffffffff, 0xffffffff, 0}, 0xffffffff, 0xffffffff, 0, 0},
	}

	for i, f := range fixture {
		assert.Equal(t, f.size, f.limits.WorkgroupSize(), "%dth test wrong workgroup size", i)
		assert.Equal(t, f.ceiling, f.limits.MaxInvocations(), "%dth test wrong ceiling", i)
		assert.Equal(t, f.workgroupsFor, f.limits.Workgroups(f.invocations), "%dth test wrong workgroups", i)
	}
}

func TestWordsAndBytes(t *testing.T) {
	words, err := device.Words([]byte{1, 0, 0, 0, 0x78, 0x56, 0x34, 0x12})
	assert.Nil(t, err, "wrong error")
	assert.Equal(t, []uint32{1, 0x12345678}, words, "wrong words")
	assert.Equal(t, []byte{1, 0, 0, 0, 0x78, 0x56, 0x34, 0x12}, device.Bytes(words), "wrong bytes")

	_, err = device.Words([]byte{1, 2, 3})
	assert.Equal(t, fault.ErrMisalignedBuffer, err, "wrong misaligned error")

	assert.Equal(t, fault.ErrMisalignedBuffer, device.CheckAligned(5), "5 is not aligned")
	assert.Equal(t, fault.ErrMisalignedBuffer, device.CheckAligned(0), "0 is not a size")
	assert.Nil(t, device.CheckAligned(1024), "1024 is aligned")
}

func TestScopeReleasesEverything(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	d := mocks.NewMockDevice(ctl)
	first := mocks.NewMockBuffer(ctl)
	second := mocks.NewMockBuffer(ctl)

	gomock.InOrder(
		d.EXPECT().CreateBuffer(8, device.UsageStorage).Return(first, nil).Times(1),
		first.EXPECT().Write([]byte{1, 2, 3, 4, 5, 6, 7, 8}).Return(nil).Times(1),
		d.EXPECT().CreateBuffer(4, device.UsageCopySrc).Return(second, nil).Times(1),
		second.EXPECT().Release().Times(1),
		first.EXPECT().Release().Times(1),
	)

	scope := device.NewScope(d)
	_, err := scope.Upload("first", []byte{1, 2, 3, 4, 5, 6, 7, 8}, device.UsageStorage)
	assert.Nil(t, err, "wrong upload error")
	_, err = scope.Create("second", 4, device.UsageCopySrc)
	assert.Nil(t, err, "wrong create error")

	scope.Release()
	scope.Release() // nothing left the second time
}

func TestScopeErrors(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	d := mocks.NewMockDevice(ctl)
	b := mocks.NewMockBuffer(ctl)
	writeErr := errors.New("write failed")

	d.EXPECT().CreateBuffer(4, device.UsageStorage).Return(b, nil).Times(1)
	b.EXPECT().Write(gomock.Any()).Return(writeErr).Times(1)
	d.EXPECT().CreateBuffer(6, device.UsageStorage).Return(nil, fault.ErrMisalignedBuffer).Times(1)
	b.EXPECT().Release().Times(1)

	scope := device.NewScope(d)
	defer scope.Release()

	_, err := scope.Upload("key", []byte{0, 0, 0, 0}, device.UsageStorage)
	assert.Equal(t, writeErr, pkgerrors.Cause(err), "wrong write error")

	_, err = scope.Create("odd", 6, device.UsageStorage)
	assert.Equal(t, fault.ErrMisalignedBuffer, pkgerrors.Cause(err), "wrong create error")
	assert.True(t, fault.IsErrInvalid(err), "misaligned should be invalid")
}
