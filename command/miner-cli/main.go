// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"
)

type metadata struct {
	verbose bool
	logging bool // logger was initialised for this command
	e       io.Writer
	w       io.Writer
}

// rolling log for the commands that run the miner
const (
	logSize  = 1048576
	logCount = 10
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	app := newApp(os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer, e io.Writer) *cli.App {

	app := cli.NewApp()
	app.Name = "miner-cli"
	app.Usage = "keccak-256 proof of work tool"
	app.Version = version
	app.HideVersion = true
	app.Metadata = map[string]interface{}{}

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:  "log-directory, l",
			Value: os.TempDir(),
			Usage: " write the log file to `DIR`",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "hash",
			Usage:     "keccak-256 digest of some data",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "input, i",
					Value: "",
					Usage: "*data to hash `HEX`",
				},
				cli.StringFlag{
					Name:  "nonce, n",
					Value: "",
					Usage: " also give the proof of work hash for `NONCE`",
				},
			},
			Action: runHash,
		},
		{
			Name:      "pow",
			Usage:     "search for a nonce that meets a difficulty",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "input, i",
					Value: "",
					Usage: "*data to mine `HEX`",
				},
				cli.UintFlag{
					Name:  "difficulty, d",
					Value: 0,
					Usage: "*leading zero bytes (or bits) `COUNT`",
				},
				cli.StringFlag{
					Name:  "mode, m",
					Value: "byte",
					Usage: " difficulty `MODE` [byte|bit]",
				},
				cli.IntFlag{
					Name:  "cpu, c",
					Value: 1,
					Usage: " CPU execution units `COUNT`",
				},
				cli.IntFlag{
					Name:  "gpu, g",
					Value: 0,
					Usage: " GPU execution units `COUNT`",
				},
				cli.Uint64Flag{
					Name:  "batch-size, b",
					Value: 0,
					Usage: " GPU invocations per dispatch `COUNT` [default device limit]",
				},
				cli.Uint64Flag{
					Name:  "max-sequence, s",
					Value: 0,
					Usage: " search nonces below `LIMIT` [default 0xffffffff]",
				},
				cli.DurationFlag{
					Name:  "timeout, t",
					Value: 0,
					Usage: " give up after `DURATION`, zero waits forever",
				},
			},
			Action: runPow,
		},
		{
			Name:      "verify",
			Usage:     "check a nonce against a difficulty",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "input, i",
					Value: "",
					Usage: "*mined data `HEX`",
				},
				cli.StringFlag{
					Name:  "nonce, n",
					Value: "",
					Usage: "*nonce to check `NONCE`",
				},
				cli.UintFlag{
					Name:  "difficulty, d",
					Value: 0,
					Usage: "*leading zero bytes (or bits) `COUNT`",
				},
				cli.StringFlag{
					Name:  "mode, m",
					Value: "byte",
					Usage: " difficulty `MODE` [byte|bit]",
				},
			},
			Action: runVerify,
		},
		{
			Name:      "results",
			Usage:     "list results stored by minerd",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "database, b",
					Value: "",
					Usage: "*result database `DIR`",
				},
				cli.StringFlag{
					Name:  "id",
					Value: "",
					Usage: " only show task `ID`",
				},
			},
			Action: runResults,
		},
		{
			Name:  "version",
			Usage: "display miner-cli version",
			Action: func(c *cli.Context) error {
				fmt.Fprintln(c.App.Writer, version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {

		m := &metadata{
			verbose: c.GlobalBool("verbose"),
			e:       c.App.ErrWriter,
			w:       c.App.Writer,
		}
		c.App.Metadata["config"] = m

		// only the commands that run library code need a log
		switch c.Args().Get(0) {
		case "pow", "results":
		default:
			return nil
		}

		level := "critical"
		if m.verbose {
			level = "info"
		}
		logging := logger.Configuration{
			Directory: c.GlobalString("log-directory"),
			File:      app.Name + ".log",
			Size:      logSize,
			Count:     logCount,
			Console:   false,
			Levels: map[string]string{
				logger.DefaultTag: level,
			},
		}
		if err := logger.Initialise(logging); nil != err {
			return err
		}
		m.logging = true
		return nil
	}

	app.After = func(c *cli.Context) error {
		m, ok := c.App.Metadata["config"].(*metadata)
		if ok && m.logging {
			logger.Finalise()
			m.logging = false
		}
		return nil
	}

	return app
}
