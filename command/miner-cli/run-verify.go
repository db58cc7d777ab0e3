// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/keccakminer/keccak"
	"github.com/bitmark-inc/keccakminer/pow"
)

type verifyReply struct {
	Difficulty uint32        `json:"difficulty"`
	Mode       pow.Mode      `json:"mode"`
	Nonce      uint64        `json:"nonce"`
	Hash       keccak.Digest `json:"hash"`
	Target     string        `json:"target"`
	Valid      bool          `json:"valid"`
}

func runVerify(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	input, err := checkHex(c.String("input"))
	if nil != err {
		return err
	}
	nonce, err := checkNonce(c.String("nonce"))
	if nil != err {
		return err
	}
	difficulty, mode, err := checkDifficulty(c.Uint("difficulty"), c.String("mode"))
	if nil != err {
		return err
	}

	target, err := pow.Target(mode, difficulty)
	if nil != err {
		return err
	}
	t := target.Bytes32()

	hash := pow.Hash(input, nonce)
	reply := verifyReply{
		Difficulty: difficulty,
		Mode:       mode,
		Nonce:      nonce,
		Hash:       hash,
		Target:     hex.EncodeToString(t[:]),
		Valid:      mode.Match(hash, difficulty),
	}
	return printJson(m.w, reply)
}
