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

// Package config holds the panel controller's tuning values: serial link
// settings, matrix dimensions, debounce and blink timing. Values live in a
// TOML file; fields absent from the file keep their defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "PANELCORE_CFG"
	CfgFile       = "panelcore.toml"
)

type Values struct {
	Serial       Serial   `toml:"serial"`
	Switches     Switches `toml:"switches,omitempty"`
	Blink        Blink    `toml:"blink,omitempty"`
	Events       Events   `toml:"events,omitempty"`
	Loop         Loop     `toml:"loop,omitempty"`
	Pins         Pins     `toml:"pins,omitempty"`
	ConfigSchema int      `toml:"config_schema"`
	DebugLogging bool     `toml:"debug_logging"`
}

type Serial struct {
	Device string `toml:"device" validate:"required"`
	Baud   int    `toml:"baud"   validate:"gt=0"`
}

type Switches struct {
	Rows        int `toml:"rows"          validate:"gt=0,lte=32"`
	Cols        int `toml:"cols"          validate:"gt=0,lte=32"`
	DebounceMs  int `toml:"debounce_ms"   validate:"gt=0"`
	LongPressMs int `toml:"long_press_ms" validate:"gt=0"`
}

type Blink struct {
	NormalBrightMs int `toml:"normal_bright_ms" validate:"gt=0"`
	NormalDarkMs   int `toml:"normal_dark_ms"   validate:"gt=0"`
	SlowBrightMs   int `toml:"slow_bright_ms"   validate:"gt=0"`
	SlowDarkMs     int `toml:"slow_dark_ms"     validate:"gt=0"`
	StaggerMs      int `toml:"stagger_ms"       validate:"gte=0"`
}

type Events struct {
	QueueCapacity int `toml:"queue_capacity" validate:"gt=0"`
}

type Loop struct {
	TickMs     int `toml:"tick_ms"      validate:"gt=0"`
	SelfTestMs int `toml:"self_test_ms" validate:"gte=0"`
}

// Pins names the GPIO lines by their registry names. The shift-register
// lines are required; switch row/col pin lists must match the configured
// matrix dimensions.
type Pins struct {
	Clock        string   `toml:"clock"         validate:"required"`
	Data         string   `toml:"data"          validate:"required"`
	Strobe       string   `toml:"strobe"        validate:"required"`
	OutputEnable string   `toml:"output_enable"`
	SwitchRows   []string `toml:"switch_rows"`
	SwitchCols   []string `toml:"switch_cols"`
}

// BaseDefaults preserve the original panel's hardware tuning.
var BaseDefaults = Values{
	Serial: Serial{
		Device: "/dev/ttyACM0",
		Baud:   115200,
	},
	Switches: Switches{
		Rows:        8,
		Cols:        8,
		DebounceMs:  20,
		LongPressMs: 3000,
	},
	Blink: Blink{
		NormalBrightMs: 1000,
		NormalDarkMs:   1000,
		SlowBrightMs:   2000,
		SlowDarkMs:     6000,
		StaggerMs:      447,
	},
	Events: Events{
		QueueCapacity: 32,
	},
	Loop: Loop{
		TickMs:     5,
		SelfTestMs: 1500,
	},
	Pins: Pins{
		Clock:        "GPIO4",
		Data:         "GPIO5",
		Strobe:       "GPIO3",
		OutputEnable: "GPIO2",
		SwitchRows:   []string{"GPIO17", "GPIO27", "GPIO22", "GPIO10", "GPIO9", "GPIO11", "GPIO0", "GPIO6"},
		SwitchCols:   []string{"GPIO12", "GPIO13", "GPIO16", "GPIO19", "GPIO20", "GPIO21", "GPIO26", "GPIO7"},
	},
	ConfigSchema: SchemaVersion,
}

// Instance wraps Values behind a lock so the serial feeder goroutine and the
// control loop can both read settings.
type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       sync.RWMutex
}

var validate = validator.New()

// NewConfig loads the config file from configDir (or $PANELCORE_CFG),
// creating it with defaults if it does not exist.
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")
		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top, so fields
	// not present in the file retain their default values.
	newVals := c.defaults
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema, SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	if err := validate.Struct(&newVals); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) SerialDevice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.Device
}

func (c *Instance) SerialBaud() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.Baud
}

func (c *Instance) SwitchDimensions() (rows, cols uint8) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint8(c.vals.Switches.Rows), uint8(c.vals.Switches.Cols)
}

func (c *Instance) Debounce() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Switches.DebounceMs) * time.Millisecond
}

func (c *Instance) LongPress() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Switches.LongPressMs) * time.Millisecond
}

// BlinkTimings returns (bright, dark) durations indexed by speed class:
// normal first, slow second.
func (c *Instance) BlinkTimings() [2][2]time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ms := time.Millisecond
	return [2][2]time.Duration{
		{time.Duration(c.vals.Blink.NormalBrightMs) * ms, time.Duration(c.vals.Blink.NormalDarkMs) * ms},
		{time.Duration(c.vals.Blink.SlowBrightMs) * ms, time.Duration(c.vals.Blink.SlowDarkMs) * ms},
	}
}

func (c *Instance) BlinkStagger() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Blink.StaggerMs) * time.Millisecond
}

func (c *Instance) QueueCapacity() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Events.QueueCapacity
}

func (c *Instance) TickInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Loop.TickMs) * time.Millisecond
}

func (c *Instance) SelfTestDuration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Loop.SelfTestMs) * time.Millisecond
}

func (c *Instance) PinNames() Pins {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pins := c.vals.Pins
	pins.SwitchRows = append([]string(nil), c.vals.Pins.SwitchRows...)
	pins.SwitchCols = append([]string(nil), c.vals.Pins.SwitchCols...)
	return pins
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}
