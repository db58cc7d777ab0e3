// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"

	"github.com/bitmark-inc/exitwithstatus"
)

// written by the "config" command, all paths are relative to the
// data directory
const configurationTemplate = `-- minerd.conf  -*- mode: lua -*-

local M = {}

-- "." is the directory containing this file
M.data_directory = "."

-- optional pid file if not run under a supervisor
-- M.pidfile = "minerd.pid"

-- tasks are read from *.json files here; results go to "done"
M.spool_directory = "spool"

-- result database
M.database = "results.leveldb"

-- seconds during which repeated events for one file are ignored
M.dedup_window = 10

-- percentage of the CPUs to use, at least one unit always runs
M.max_cpu_usage = 50

-- nonces are searched in [0, max_sequence)
M.max_sequence = 0xffffffff

M.gpu = {
    count = 0,
    -- invocations per dispatch, 0 is the device limit
    batch_size = 0,
    -- run CPU only if no device can be opened
    fallback = true,
}

M.weights = {
    cpu = 1,
    gpu = 10,
}

M.logging = {
    size = 1048576,
    count = 10,
    console = false,
    levels = {
        DEFAULT = "info",
        -- spool = "debug",
        -- manager = "debug",
    },
}

return M
`

// setup command handler
//
// commands that run before the configuration file is read, returns
// false if the daemon should start
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "config", "c":
		if len(arguments) < 1 {
			fmt.Print(configurationTemplate)
			break
		}
		fileName := arguments[0]
		err := ioutil.WriteFile(fileName, []byte(configurationTemplate), 0600)
		if nil != err {
			fmt.Printf("cannot write configuration: %q  error: %s\n", fileName, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated configuration: %q\n", fileName)

	case "start", "run":
		return false // continue processing

	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %v\n", command)
		}

		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  config [FILE]              (c)      - write a sample configuration to FILE or stdout\n\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convienience when passing script arguments\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}
	return true
}
