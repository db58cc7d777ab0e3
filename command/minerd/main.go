// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/keccakminer/background"
	"github.com/bitmark-inc/keccakminer/device"
	"github.com/bitmark-inc/keccakminer/device/software"
	"github.com/bitmark-inc/keccakminer/fault"
	"github.com/bitmark-inc/keccakminer/miner"
	"github.com/bitmark-inc/keccakminer/storage"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	if len(options["help"]) > 0 {
		exitwithstatus.Message("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]", program)
	}

	// these commands don't require the configuration
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	masterConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// start logging
	if err = logger.Initialise(masterConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// last chance logging
	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: fault setup failed with error: %s", program, err)
	}
	defer fault.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("shutting down…")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("masterConfiguration: %v", masterConfiguration)

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != masterConfiguration.PidFile {
		lockFile, err := os.OpenFile(masterConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, masterConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(masterConfiguration.PidFile)
	}

	store, err := storage.Open(masterConfiguration.Database, storage.ReadWrite, logger.New("storage"))
	if nil != err {
		fault.Criticalf("storage: %q  error: %s", masterConfiguration.Database, err)
		exitwithstatus.Message("%s: storage: %q  error: %s", program, masterConfiguration.Database, err)
	}
	defer store.Close()

	gpuUnits := masterConfiguration.GPU.Count
	if gpuUnits > 0 && masterConfiguration.GPU.Fallback && !probeDevice(software.Open, log) {
		log.Warn("no compute device, running on CPU only")
		gpuUnits = 0
	}

	config := masterConfiguration.managerConfiguration(gpuUnits)
	config.OpenDevice = software.Open
	log.Infof("cpu units: %d  gpu units: %d", config.CPUUnits, config.GPUUnits)

	manager, err := miner.New(config, logger.New("manager"))
	if nil != err {
		fault.Criticalf("manager error: %s", err)
		exitwithstatus.Message("%s: manager error: %s", program, err)
	}
	err = manager.Start()
	if nil != err {
		fault.Criticalf("manager start error: %s", err)
		exitwithstatus.Message("%s: manager start error: %s", program, err)
	}
	defer manager.Stop()

	watcher, err := newSpool(
		masterConfiguration.SpoolDirectory,
		masterConfiguration.dedupWindow(),
		store,
		manager,
		logger.New(spoolLoggerPrefix),
	)
	if nil != err {
		fault.Criticalf("spool error: %s", err)
		exitwithstatus.Message("%s: spool setup failed with error: %s", program, err)
	}

	processes := background.Start(background.Processes{watcher}, nil)
	defer processes.Stop()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down...\n")
	}
}

// check a device can be opened, then close it so each GPU unit opens
// its own
func probeDevice(open device.Opener, log *logger.L) bool {
	d, err := open()
	if nil != err {
		log.Warnf("device probe error: %s", err)
		return false
	}
	if nil == d {
		return false
	}
	log.Infof("device: %q  limits: %+v", d.Name(), d.Limits())
	err = d.Close()
	if nil != err {
		log.Warnf("device: %q  close error: %s", d.Name(), err)
	}
	return true
}
