// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/keccakminer/configuration"
	"github.com/bitmark-inc/keccakminer/fault"
)

type gpu struct {
	Count     int    `gluamapper:"count"`
	BatchSize uint64 `gluamapper:"batch_size"`
	Fallback  bool   `gluamapper:"fallback"`
}

type sample struct {
	DataDirectory string            `gluamapper:"data_directory"`
	MaxCPUUsage   int               `gluamapper:"max_cpu_usage"`
	GPU           gpu               `gluamapper:"gpu"`
	Levels        map[string]string `gluamapper:"levels"`
}

const sampleChunk = `
local M = {}
M.data_directory = arg[0] .. ".data"
M.max_cpu_usage = 25 * 2
M.gpu = {
  count = 2,
  batch_size = 65536,
  fallback = true,
}
M.levels = {
  DEFAULT = "info",
  ["cpu-0"] = "debug",
}
return M
`

func TestParseString(t *testing.T) {
	var s sample
	err := configuration.ParseConfigurationString("inline", sampleChunk, &s)
	assert.Nil(t, err, "parse error")

	assert.Equal(t, "inline.data", s.DataDirectory, "arg[0] not set")
	assert.Equal(t, 50, s.MaxCPUUsage, "wrong cpu usage")
	assert.Equal(t, 2, s.GPU.Count, "wrong gpu count")
	assert.Equal(t, uint64(65536), s.GPU.BatchSize, "wrong batch size")
	assert.True(t, s.GPU.Fallback, "wrong fallback")
	assert.Equal(t, "debug", s.Levels["cpu-0"], "wrong level")
}

func TestParseFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "configuration")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "minerd.conf")
	err = ioutil.WriteFile(fileName, []byte(sampleChunk), 0600)
	if nil != err {
		t.Fatalf("write error: %s", err)
	}

	var s sample
	err = configuration.ParseConfigurationFile(fileName, &s)
	assert.Nil(t, err, "parse error")
	assert.Equal(t, fileName+".data", s.DataDirectory, "arg[0] not the file name")
	assert.Equal(t, 50, s.MaxCPUUsage, "wrong cpu usage")
}

func TestParseErrors(t *testing.T) {
	var s sample

	err := configuration.ParseConfigurationString("bad", "return {", &s)
	assert.NotNil(t, err, "syntax error accepted")

	err = configuration.ParseConfigurationString("number", "return 42", &s)
	assert.Equal(t, fault.ErrInvalidInput, err, "non-table result accepted")

	err = configuration.ParseConfigurationString("pointer", "return {}", s)
	assert.Equal(t, fault.ErrInvalidStructPointer, err, "struct value accepted")

	n := 0
	err = configuration.ParseConfigurationString("int", "return {}", &n)
	assert.Equal(t, fault.ErrInvalidStructPointer, err, "int pointer accepted")

	err = configuration.ParseConfigurationFile("/no/such/file.conf", &s)
	assert.NotNil(t, err, "missing file accepted")
}
