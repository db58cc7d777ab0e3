// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/pow"
)

var (
	ErrRequiredDatabase   = fault.InvalidError("database is required")
	ErrRequiredDifficulty = fault.InvalidError("difficulty is required")
	ErrRequiredInput      = fault.InvalidError("input is required")
	ErrRequiredNonce      = fault.InvalidError("nonce is required")
	ErrNoNonceFound       = fault.NotFoundError("no nonce found in range")
	ErrTimeout            = fault.ProcessError("timed out")
)

// hex data with an optional 0x prefix
func checkHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if "" == s {
		return nil, ErrRequiredInput
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	data, err := hex.DecodeString(s)
	if nil != err {
		return nil, fault.ErrInvalidInput
	}
	if 0 == len(data) {
		return nil, fault.ErrEmptyInput
	}
	return data, nil
}

// decimal or 0x prefixed hex nonce
func checkNonce(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if "" == s {
		return 0, ErrRequiredNonce
	}
	nonce, err := strconv.ParseUint(s, 0, 64)
	if nil != err {
		return 0, fault.ErrInvalidNonce
	}
	return nonce, nil
}

// difficulty in range for the mode
func checkDifficulty(difficulty uint, modeName string) (uint32, pow.Mode, error) {
	mode, err := pow.ParseMode(modeName)
	if nil != err {
		return 0, mode, err
	}
	if 0 == difficulty {
		return 0, mode, ErrRequiredDifficulty
	}
	if difficulty > math.MaxUint32 || uint32(difficulty) > mode.MaxDifficulty() {
		return 0, mode, fault.ErrDifficultyOutOfRange
	}
	return uint32(difficulty), mode, nil
}
