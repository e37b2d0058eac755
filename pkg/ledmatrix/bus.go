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

package ledmatrix

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
)

// ShiftBus is the physical serial bus feeding the LED shift-register chain.
// Matrix drives it one signal edge at a time during Refresh; implementations
// own any settle delays their hardware needs.
type ShiftBus interface {
	// Init performs the power-on pin setup and must be called once before
	// the first Refresh.
	Init() error
	// Strobe drives the strobe/latch line. Low while a row is being
	// shifted, high to latch the row onto the outputs.
	Strobe(level bool)
	// Clock drives the shift clock line. Data is latched into the shift
	// register on the rising edge.
	Clock(level bool)
	// Data drives the serial data line.
	Data(level bool)
}

// GPIOBus drives a MIC5891/5821-style shift-register chain over four GPIO
// lines. Pin errors are logged and otherwise ignored: a failed edge on a
// display bus is not recoverable mid-frame and the next refresh rewrites
// everything anyway.
type GPIOBus struct {
	CLK  gpio.PinIO // shift clock
	DIN  gpio.PinIO // serial data in
	STRB gpio.PinIO // strobe/latch
	OE   gpio.PinIO // output enable, active low

	// SettleDelay separates clock edges. Defaults to one microsecond,
	// within the timing requirements of the MIC5891 at 5V.
	SettleDelay time.Duration
}

// Init configures all four lines as outputs and runs the register wake-up
// sequence: clock and data low, strobe pulsed high so the latches pass the
// register contents through, output enable asserted.
func (b *GPIOBus) Init() error {
	for _, pin := range []gpio.PinIO{b.CLK, b.DIN, b.STRB} {
		if pin == nil {
			return fmt.Errorf("shift bus: %w", ErrBusNotConfigured)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("shift bus: configure %s: %w", pin.Name(), err)
		}
	}
	b.settle()
	if err := b.STRB.Out(gpio.High); err != nil {
		return fmt.Errorf("shift bus: strobe %s: %w", b.STRB.Name(), err)
	}
	if b.OE != nil {
		if err := b.OE.Out(gpio.Low); err != nil {
			return fmt.Errorf("shift bus: output enable %s: %w", b.OE.Name(), err)
		}
	}
	b.settle()
	return nil
}

func (b *GPIOBus) Strobe(level bool) { b.out(b.STRB, level) }

func (b *GPIOBus) Clock(level bool) {
	b.out(b.CLK, level)
	b.settle()
}

func (b *GPIOBus) Data(level bool) { b.out(b.DIN, level) }

func (*GPIOBus) out(pin gpio.PinIO, level bool) {
	if err := pin.Out(gpio.Level(level)); err != nil {
		log.Error().Err(err).Str("pin", pin.Name()).Msg("shift bus write failed")
	}
}

func (b *GPIOBus) settle() {
	d := b.SettleDelay
	if d <= 0 {
		d = time.Microsecond
	}
	time.Sleep(d)
}
