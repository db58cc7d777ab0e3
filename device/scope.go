// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package device

import (
	"github.com/pkg/errors"
)

// Scope - owns the buffers of one dispatch; Release frees all of
// them and is safe to defer straight after creation
type Scope struct {
	device  Device
	buffers []Buffer
}

// NewScope - start a scope on a device
func NewScope(d Device) *Scope {
	return &Scope{
		device: d,
	}
}

// Create - allocate a buffer owned by the scope
func (s *Scope) Create(name string, size int, usage Usage) (Buffer, error) {
	b, err := s.device.CreateBuffer(size, usage)
	if nil != err {
		return nil, errors.Wrapf(err, "create %s buffer", name)
	}
	s.buffers = append(s.buffers, b)
	return b, nil
}

// Upload - allocate a buffer and fill it
func (s *Scope) Upload(name string, data []byte, usage Usage) (Buffer, error) {
	b, err := s.Create(name, len(data), usage)
	if nil != err {
		return nil, err
	}
	err = b.Write(data)
	if nil != err {
		return nil, errors.Wrapf(err, "write %s buffer", name)
	}
	return b, nil
}

// Release - free every buffer, newest first
func (s *Scope) Release() {
	for i := len(s.buffers) - 1; i >= 0; i -= 1 {
		s.buffers[i].Release()
	}
	s.buffers = nil
}
