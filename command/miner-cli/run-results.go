// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"github.com/bitmark-inc/keccakminer/storage"
)

func runResults(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	database := c.String("database")
	if "" == database {
		return ErrRequiredDatabase
	}

	store, err := storage.Open(database, storage.ReadOnly, logger.New("storage"))
	if nil != err {
		return err
	}
	defer store.Close()

	if id := c.String("id"); "" != id {
		r, err := store.Get(id)
		if nil != err {
			return err
		}
		return printJson(m.w, r)
	}

	records, err := store.List()
	if nil != err {
		return err
	}
	if m.verbose {
		fmt.Fprintf(m.e, "records: %d\n", len(records))
	}
	return printJson(m.w, records)
}
