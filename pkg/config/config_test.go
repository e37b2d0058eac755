// Panelcore
// Copyright (c) 2026 The Panelcore Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Panelcore.
//
// Panelcore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Panelcore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Panelcore.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigCreatesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, CfgFile))
	assert.Equal(t, "/dev/ttyACM0", cfg.SerialDevice())
	assert.Equal(t, 115200, cfg.SerialBaud())
	assert.Equal(t, 20*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 3*time.Second, cfg.LongPress())
	assert.Equal(t, 447*time.Millisecond, cfg.BlinkStagger())
	assert.Equal(t, 32, cfg.QueueCapacity())

	rows, cols := cfg.SwitchDimensions()
	assert.Equal(t, uint8(8), rows)
	assert.Equal(t, uint8(8), cols)

	timings := cfg.BlinkTimings()
	assert.Equal(t, time.Second, timings[0][0])
	assert.Equal(t, 6*time.Second, timings[1][1])
}

func TestLoadOverridesOnTopOfDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CfgFile)
	body := `
config_schema = 1

[serial]
device = "/dev/ttyUSB3"
baud = 57600

[switches]
long_press_ms = 1500
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB3", cfg.SerialDevice())
	assert.Equal(t, 57600, cfg.SerialBaud())
	assert.Equal(t, 1500*time.Millisecond, cfg.LongPress())
	// Untouched fields keep their defaults.
	assert.Equal(t, 20*time.Millisecond, cfg.Debounce())
}

func TestLoadRejectsSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CfgFile)
	require.NoError(t, os.WriteFile(path, []byte("config_schema = 99\n"), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CfgFile)
	body := `
config_schema = 1

[switches]
rows = 99
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	cfg.SetDebugLogging(true)
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	assert.True(t, reloaded.DebugLogging())
}
