// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised   = ExistsError("already initialised")
	ErrAlreadyStarted       = ExistsError("already started")
	ErrBatchTooLarge        = InvalidError("batch size exceeds device invocation limit")
	ErrBufferReleased       = ProcessError("buffer already released")
	ErrDeviceClosed         = ProcessError("device is closed")
	ErrDeviceUnavailable    = NotFoundError("no compute device available")
	ErrDifficultyOutOfRange = InvalidError("difficulty out of range")
	ErrEmptyInput           = InvalidError("input data is empty")
	ErrForeignBuffer        = InvalidError("buffer belongs to another device")
	ErrInvalidCount         = InvalidError("invalid count")
	ErrInvalidInput         = InvalidError("invalid input")
	ErrInvalidLoggerChannel = InvalidError("invalid logger channel")
	ErrInvalidMode          = InvalidError("invalid difficulty mode")
	ErrInvalidNonce         = InvalidError("invalid nonce")
	ErrInvalidRate          = InvalidError("invalid sponge rate")
	ErrInvalidStructPointer = InvalidError("invalid struct pointer")
	ErrKernelFault          = ProcessError("kernel fault")
	ErrKeyLength            = InvalidError("key length is invalid")
	ErrMisalignedBuffer     = InvalidError("buffer is not 32-bit aligned")
	ErrNilTask              = InvalidError("task is nil")
	ErrNoExecutionUnits     = InvalidError("no execution units configured")
	ErrNotInitialised       = NotFoundError("not initialised")
	ErrNotReadable          = InvalidError("buffer usage does not allow read")
	ErrResultNotFound       = NotFoundError("result not found")
	ErrUnitFault            = ProcessError("execution unit fault")
	ErrWrongBindingCount    = InvalidError("wrong number of kernel bindings")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrExists(e error) bool   { var x ExistsError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool  { var x InvalidError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool { var x NotFoundError; return errors.As(e, &x) }
func IsErrProcess(e error) bool  { var x ProcessError; return errors.As(e, &x) }
