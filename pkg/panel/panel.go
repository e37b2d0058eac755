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

// Package panel runs the real-time control loop that ties the scanner, the
// event pipeline and the LED driver together. Scheduling is cooperative and
// single-threaded: one tick is one pass through scan, report, dispatch,
// device updates and LED refresh. Serial input is the only asynchronous
// entry point and is only ever buffered between ticks.
package panel

import (
	"context"
	"errors"
	"fmt"

	"github.com/avpanel/panelcore/pkg/config"
	"github.com/avpanel/panelcore/pkg/events"
	"github.com/avpanel/panelcore/pkg/ledmatrix"
	"github.com/avpanel/panelcore/pkg/switchmatrix"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Display field identifiers of the fixed panel layout.
const (
	// FieldFlightLevel is the three-digit flight level display, one digit
	// per row starting at row 0, columns 8-15.
	FieldFlightLevel uint8 = 2
	// FieldSquawk is the four-digit transponder code display, one digit
	// per row starting at row 3, columns 8-15.
	FieldSquawk uint8 = 3
)

// ByteSource hands over serial bytes received since the last call. The
// control loop polls it once per tick.
type ByteSource interface {
	Drain() []byte
}

// Updater is implemented by device handlers that need a call every tick in
// addition to dispatched events (clocks, timers).
type Updater interface {
	Update()
}

// Controller owns the control loop. Construct with NewController, register
// device handlers, call Startup once, then Run (or Tick directly).
type Controller struct {
	cfg        *config.Instance
	clock      clockwork.Clock
	leds       *ledmatrix.Matrix
	switches   *switchmatrix.Matrix
	queue      *events.Queue
	dispatcher *events.Dispatcher
	reporter   switchmatrix.Reporter
	input      ByteSource
	updaters   []Updater
	lineBuf    events.LineBuffer
	started    bool
}

// NewController wires the components into a loop. All arguments are
// required except clock, which defaults to the real clock.
func NewController(
	cfg *config.Instance,
	clock clockwork.Clock,
	leds *ledmatrix.Matrix,
	switches *switchmatrix.Matrix,
	queue *events.Queue,
	dispatcher *events.Dispatcher,
	reporter switchmatrix.Reporter,
	input ByteSource,
) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		cfg:        cfg,
		clock:      clock,
		leds:       leds,
		switches:   switches,
		queue:      queue,
		dispatcher: dispatcher,
		reporter:   reporter,
		input:      input,
	}
}

// RegisterDevice binds a handler to a device identifier. Handlers that also
// implement Updater get a call every tick.
func (c *Controller) RegisterDevice(deviceID string, h events.Handler) {
	c.dispatcher.Register(deviceID, h)
	if u, ok := h.(Updater); ok {
		c.updaters = append(c.updaters, u)
	}
}

// Startup brings the panel into steady state: bus init, a visible self-test
// pattern, the idle display, and one full switch-state report so the host
// starts from a consistent snapshot.
func (c *Controller) Startup() error {
	if c.started {
		return errors.New("controller already started")
	}

	if err := c.leds.InitBus(); err != nil {
		return fmt.Errorf("led bus init: %w", err)
	}
	c.defineLayout()

	c.leds.SelfTest()
	c.leds.Refresh()
	if d := c.cfg.SelfTestDuration(); d > 0 {
		c.clock.Sleep(d)
	}
	c.leds.Clear()
	c.idlePattern()
	c.leds.Refresh()

	c.switches.Scan()
	c.switches.ReportChanges(switchmatrix.ReportAll, c.reporter)
	// Deliver the initial snapshot to any handlers registered before
	// startup rather than leaking it into the first tick.
	c.dispatcher.DispatchAll(c.queue)

	c.started = true
	log.Info().Msg("panel controller started")
	return nil
}

func (c *Controller) defineLayout() {
	for digit := 0; digit < 3; digit++ {
		pos := ledmatrix.Pos{Row: uint8(digit), Col: 8}
		if err := c.leds.DefineField(FieldFlightLevel, digit, pos); err != nil {
			log.Error().Err(err).Int("digit", digit).Msg("flight level field definition failed")
		}
	}
	for digit := 0; digit < 4; digit++ {
		pos := ledmatrix.Pos{Row: uint8(3 + digit), Col: 8}
		if err := c.leds.DefineField(FieldSquawk, digit, pos); err != nil {
			log.Error().Err(err).Int("digit", digit).Msg("squawk field definition failed")
		}
	}
}

func (c *Controller) idlePattern() {
	if err := c.leds.SetFieldText(FieldFlightLevel, "---"); err != nil {
		log.Error().Err(err).Msg("idle pattern failed")
	}
	if err := c.leds.SetFieldText(FieldSquawk, "----"); err != nil {
		log.Error().Err(err).Msg("idle pattern failed")
	}
}

// Tick runs one pass of the cooperative loop: scan and report switches,
// feed buffered serial bytes through the input pipeline, dispatch queued
// events, update tick-driven devices, refresh the LEDs.
func (c *Controller) Tick() {
	c.switches.Scan()
	c.switches.ReportChanges(switchmatrix.ReportChangedOnly, c.reporter)

	for _, b := range c.input.Drain() {
		line, complete := c.lineBuf.Feed(b)
		if !complete {
			continue
		}
		ev, err := events.ParseLine(line)
		if err != nil {
			log.Debug().Str("line", line).Msg("malformed line dropped")
			continue
		}
		if err := c.queue.Push(ev); err != nil {
			log.Warn().Err(err).Str("device", ev.Device).
				Uint64("dropped", c.queue.Dropped()).Msg("event rejected")
		}
	}

	c.dispatcher.DispatchAll(c.queue)

	for _, u := range c.updaters {
		u.Update()
	}

	c.leds.Refresh()
}

// Run ticks the loop at the configured interval until the context is done.
func (c *Controller) Run(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.cfg.TickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			c.Tick()
		}
	}
}
