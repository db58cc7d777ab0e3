// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/pkg/errors"

	"github.com/bitmark-inc/keccakminer/configuration"
	"github.com/bitmark-inc/keccakminer/miner"
	"github.com/bitmark-inc/keccakminer/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultSpoolDirectory = "spool"
	defaultDatabase       = "results.leveldb"
	defaultMaxCPUUsage    = 50
	defaultDedupWindow    = 10 // seconds

	defaultLogDirectory = "log"
	defaultLogFile      = "minerd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// GPUType - compute device settings
type GPUType struct {
	Count     int    `gluamapper:"count" json:"count"`
	BatchSize uint64 `gluamapper:"batch_size" json:"batch_size"`
	Fallback  bool   `gluamapper:"fallback" json:"fallback"`
}

// WeightType - relative share of the nonce space per unit kind
type WeightType struct {
	CPU uint64 `gluamapper:"cpu" json:"cpu"`
	GPU uint64 `gluamapper:"gpu" json:"gpu"`
}

// Configuration - the daemon settings
type Configuration struct {
	DataDirectory  string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile        string               `gluamapper:"pidfile" json:"pidfile"`
	SpoolDirectory string               `gluamapper:"spool_directory" json:"spool_directory"`
	Database       string               `gluamapper:"database" json:"database"`
	DedupWindow    int                  `gluamapper:"dedup_window" json:"dedup_window"`
	MaxCPUUsage    int                  `gluamapper:"max_cpu_usage" json:"max_cpu_usage"`
	MaxSequence    uint64               `gluamapper:"max_sequence" json:"max_sequence"`
	GPU            GPUType              `gluamapper:"gpu" json:"gpu"`
	Weights        WeightType           `gluamapper:"weights" json:"weights"`
	Logging        logger.Configuration `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory:  defaultDataDirectory,
		PidFile:        "", // no PidFile by default
		SpoolDirectory: defaultSpoolDirectory,
		Database:       defaultDatabase,
		DedupWindow:    defaultDedupWindow,
		MaxCPUUsage:    defaultMaxCPUUsage,
		MaxSequence:    miner.DefaultMaxSequence,

		GPU: GPUType{
			Count:     0,
			BatchSize: 0, // device ceiling
			Fallback:  true,
		},

		Weights: WeightType{
			CPU: miner.DefaultCPUWeight,
			GPU: miner.DefaultGPUWeight,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	if options.MaxCPUUsage <= 0 || options.MaxCPUUsage > 100 {
		options.MaxCPUUsage = defaultMaxCPUUsage
	}
	if options.GPU.Count < 0 {
		return nil, fmt.Errorf("GPU count: %d is negative", options.GPU.Count)
	}
	if options.DedupWindow <= 0 {
		options.DedupWindow = defaultDedupWindow
	}
	if 0 == options.MaxSequence {
		options.MaxSequence = miner.DefaultMaxSequence
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("Path: %q is not a directory", options.DataDirectory)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = util.EnsureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("Files: %q is not plain name", *f[0])
		}
	}

	options.Database = util.EnsureAbsolute(options.DataDirectory, options.Database)

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Logging.Directory,
		&options.SpoolDirectory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := util.EnsureDirectory(*d); nil != err {
			return nil, errors.Wrapf(err, "directory: %q", *d)
		}
	}
	doneDirectory := filepath.Join(options.SpoolDirectory, doneSubdirectory)
	if err := util.EnsureDirectory(doneDirectory); nil != err {
		return nil, errors.Wrapf(err, "directory: %q", doneDirectory)
	}

	// done
	return options, nil
}

// number of CPU units for the configured usage, at least one and
// never more than the number of CPUs
func (c *Configuration) cpuUnits() int {
	return cpuUnitsFor(c.MaxCPUUsage, runtime.NumCPU())
}

func cpuUnitsFor(percent int, cpus int) int {
	n := cpus * percent / 100
	if n < 1 {
		n = 1
	}
	if n > cpus {
		n = cpus
	}
	return n
}

func (c *Configuration) dedupWindow() time.Duration {
	return time.Duration(c.DedupWindow) * time.Second
}

// manager settings derived from this configuration
func (c *Configuration) managerConfiguration(gpuUnits int) miner.Configuration {
	return miner.Configuration{
		CPUUnits:    c.cpuUnits(),
		GPUUnits:    gpuUnits,
		MaxSequence: c.MaxSequence,
		CPUWeight:   c.Weights.CPU,
		GPUWeight:   c.Weights.GPU,
		BatchSize:   c.GPU.BatchSize,
	}
}
