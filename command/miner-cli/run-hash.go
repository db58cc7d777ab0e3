// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/keccakminer/keccak"
	"github.com/bitmark-inc/keccakminer/pow"
)

type hashReply struct {
	Input     string         `json:"input"`
	Hash      keccak.Digest  `json:"hash"`
	Nonce     *uint64        `json:"nonce,omitempty"`
	ProofHash *keccak.Digest `json:"proof_hash,omitempty"`
}

func runHash(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	input, err := checkHex(c.String("input"))
	if nil != err {
		return err
	}

	reply := hashReply{
		Input: hex.EncodeToString(input),
		Hash:  keccak.Sum256(input),
	}

	if "" != c.String("nonce") {
		nonce, err := checkNonce(c.String("nonce"))
		if nil != err {
			return err
		}
		proof := pow.HashWithPrefix(reply.Hash, nonce)
		reply.Nonce = &nonce
		reply.ProofHash = &proof
	}

	if m.verbose {
		fmt.Fprintf(m.e, "hashed: %d bytes\n", len(input))
	}
	return printJson(m.w, reply)
}
