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

// Package ledmatrix drives a bit-mapped LED matrix multiplexed through
// serial shift registers. It keeps a logical bitmap of the intended display
// separate from the hardware bitmap that is actually shifted out, so that
// two independent blink speed classes can animate subsets of the matrix
// without disturbing the intended state.
package ledmatrix

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

// Matrix dimensions, fixed by the shift-register chain: one 8-bit row-select
// register and four cascaded 8-bit column registers.
const (
	Rows = 8
	Cols = 32

	// digitSpan is the number of columns a seven-segment digit occupies:
	// seven segments plus the decimal point in the top bit.
	digitSpan = 8
)

// NumSpeedClasses is the number of independent blink rates.
const NumSpeedClasses = 2

// SpeedClass selects one of the independent blink rates.
type SpeedClass uint8

const (
	BlinkNormal SpeedClass = iota
	BlinkSlow
)

var (
	ErrInvalidCoordinate = errors.New("row/col outside matrix bounds")
	ErrInvalidSpeedClass = errors.New("unknown blink speed class")
	ErrUnknownField      = errors.New("display field or digit not defined")
	ErrBusNotConfigured  = errors.New("bus pin not configured")
)

// Pos addresses a single LED as a (row, column) pair.
type Pos struct {
	Row uint8
	Col uint8
}

// BlinkTiming holds the bright and dark phase durations of one speed class.
type BlinkTiming struct {
	Bright time.Duration
	Dark   time.Duration
}

// DefaultTimings match the original panel hardware tuning: normal blink is
// symmetric at 1Hz halves, slow blink is a short flash with a long pause.
func DefaultTimings() [NumSpeedClasses]BlinkTiming {
	return [NumSpeedClasses]BlinkTiming{
		BlinkNormal: {Bright: time.Second, Dark: time.Second},
		BlinkSlow:   {Bright: 2 * time.Second, Dark: 6 * time.Second},
	}
}

// DefaultStagger offsets the phase start of each successive speed class so
// the classes do not visually tick in unison.
const DefaultStagger = 447 * time.Millisecond

type blinkPhase struct {
	start    time.Time
	duration time.Duration
	dark     bool
}

type field struct {
	digits []Pos
}

// Matrix owns the display state and the bus. It is not safe for concurrent
// use; the cooperative loop is its only caller.
type Matrix struct {
	clock   clockwork.Clock
	bus     ShiftBus
	fields  map[uint8]*field
	timings [NumSpeedClasses]BlinkTiming
	phases  [NumSpeedClasses]blinkPhase
	logical [Rows]uint32
	// hardware is derived from logical on every Refresh and is the only
	// image ever shifted out. Never written by the mutation API.
	hardware  [Rows]uint32
	blinkMask [NumSpeedClasses][Rows]uint32
}

// NewMatrix creates an all-off matrix. A nil clock falls back to the real
// clock. Blink phases start bright, staggered per speed class.
func NewMatrix(bus ShiftBus, clock clockwork.Clock, timings [NumSpeedClasses]BlinkTiming, stagger time.Duration) *Matrix {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	m := &Matrix{
		clock:   clock,
		bus:     bus,
		fields:  make(map[uint8]*field),
		timings: timings,
	}
	now := clock.Now()
	for class := range m.phases {
		m.phases[class] = blinkPhase{
			start:    now.Add(time.Duration(class) * stagger),
			duration: timings[class].Bright,
		}
	}
	return m
}

// InitBus runs the bus power-on sequence.
func (m *Matrix) InitBus() error {
	return m.bus.Init()
}

func validPos(pos Pos) bool {
	return pos.Row < Rows && pos.Col < Cols
}

func validSpan(pos Pos) bool {
	return validPos(pos) && int(pos.Col)+digitSpan <= Cols
}

// LedOn sets a single LED in the logical bitmap.
func (m *Matrix) LedOn(pos Pos) error {
	if !validPos(pos) {
		return ErrInvalidCoordinate
	}
	m.logical[pos.Row] |= uint32(1) << pos.Col
	return nil
}

// LedOff clears a single LED in the logical bitmap.
func (m *Matrix) LedOff(pos Pos) error {
	if !validPos(pos) {
		return ErrInvalidCoordinate
	}
	m.logical[pos.Row] &^= uint32(1) << pos.Col
	return nil
}

// LedToggle flips a single LED in the logical bitmap.
func (m *Matrix) LedToggle(pos Pos) error {
	if !validPos(pos) {
		return ErrInvalidCoordinate
	}
	m.logical[pos.Row] ^= uint32(1) << pos.Col
	return nil
}

// IsLedOn reports the logical (not phase-adjusted) state of a single LED.
func (m *Matrix) IsLedOn(pos Pos) (bool, error) {
	if !validPos(pos) {
		return false, ErrInvalidCoordinate
	}
	return m.logical[pos.Row]&(uint32(1)<<pos.Col) != 0, nil
}

// BlinkOn marks an LED as blink-eligible for the given speed class.
func (m *Matrix) BlinkOn(pos Pos, class SpeedClass) error {
	if !validPos(pos) {
		return ErrInvalidCoordinate
	}
	if class >= NumSpeedClasses {
		return ErrInvalidSpeedClass
	}
	m.blinkMask[class][pos.Row] |= uint32(1) << pos.Col
	return nil
}

// BlinkOff clears an LED's blink eligibility for the given speed class.
func (m *Matrix) BlinkOff(pos Pos, class SpeedClass) error {
	if !validPos(pos) {
		return ErrInvalidCoordinate
	}
	if class >= NumSpeedClasses {
		return ErrInvalidSpeedClass
	}
	m.blinkMask[class][pos.Row] &^= uint32(1) << pos.Col
	return nil
}

// IsBlinkOn reports whether an LED is blink-eligible for the given class.
func (m *Matrix) IsBlinkOn(pos Pos, class SpeedClass) (bool, error) {
	if !validPos(pos) {
		return false, ErrInvalidCoordinate
	}
	if class >= NumSpeedClasses {
		return false, ErrInvalidSpeedClass
	}
	return m.blinkMask[class][pos.Row]&(uint32(1)<<pos.Col) != 0, nil
}

// DefineField registers the origin of one digit of a named seven-segment
// display field. Digits must be defined in order; redefining an existing
// digit index is allowed.
func (m *Matrix) DefineField(fieldID uint8, digitIndex int, pos Pos) error {
	if !validSpan(pos) {
		return ErrInvalidCoordinate
	}
	f := m.fields[fieldID]
	if f == nil {
		f = &field{}
		m.fields[fieldID] = f
	}
	switch {
	case digitIndex == len(f.digits):
		f.digits = append(f.digits, pos)
	case digitIndex >= 0 && digitIndex < len(f.digits):
		f.digits[digitIndex] = pos
	default:
		return ErrUnknownField
	}
	return nil
}

func (m *Matrix) digitPos(fieldID uint8, digitIndex int) (Pos, error) {
	f := m.fields[fieldID]
	if f == nil || digitIndex < 0 || digitIndex >= len(f.digits) {
		return Pos{}, ErrUnknownField
	}
	return f.digits[digitIndex], nil
}

// SetDigit writes one character to a digit of a display field. The character
// is resolved through the glyph table; unsupported characters render as the
// error glyph. The decimal point occupies the top bit of the span.
func (m *Matrix) SetDigit(fieldID uint8, digitIndex int, character byte, decimalPoint bool) error {
	pos, err := m.digitPos(fieldID, digitIndex)
	if err != nil {
		return err
	}
	m.logical[pos.Row] &^= uint32(0xFF) << pos.Col
	m.logical[pos.Row] |= uint32(SegmentsFor(character)) << pos.Col
	if decimalPoint {
		m.logical[pos.Row] |= uint32(1) << (pos.Col + digitSpan - 1)
	}
	return nil
}

// SetFieldText writes a string onto a display field, one character per
// digit. A '.' attaches a decimal point to the preceding digit instead of
// consuming one. Characters beyond the defined digits are dropped.
func (m *Matrix) SetFieldText(fieldID uint8, text string) error {
	f := m.fields[fieldID]
	if f == nil {
		return ErrUnknownField
	}
	digit := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '.' {
			if digit > 0 {
				pos := f.digits[digit-1]
				m.logical[pos.Row] |= uint32(1) << (pos.Col + digitSpan - 1)
			}
			continue
		}
		if digit >= len(f.digits) {
			break
		}
		if err := m.SetDigit(fieldID, digit, text[i], false); err != nil {
			return err
		}
		digit++
	}
	return nil
}

// DigitBlinkOn marks a whole digit span blink-eligible, optionally without
// the decimal point bit.
func (m *Matrix) DigitBlinkOn(fieldID uint8, digitIndex int, includeDP bool, class SpeedClass) error {
	return m.digitBlink(fieldID, digitIndex, includeDP, class, true)
}

// DigitBlinkOff clears a digit span's blink eligibility.
func (m *Matrix) DigitBlinkOff(fieldID uint8, digitIndex int, includeDP bool, class SpeedClass) error {
	return m.digitBlink(fieldID, digitIndex, includeDP, class, false)
}

func (m *Matrix) digitBlink(fieldID uint8, digitIndex int, includeDP bool, class SpeedClass, on bool) error {
	if class >= NumSpeedClasses {
		return ErrInvalidSpeedClass
	}
	pos, err := m.digitPos(fieldID, digitIndex)
	if err != nil {
		return err
	}
	mask := uint32(0x7F)
	if includeDP {
		mask = 0xFF
	}
	if on {
		m.blinkMask[class][pos.Row] |= mask << pos.Col
	} else {
		m.blinkMask[class][pos.Row] &^= mask << pos.Col
	}
	return nil
}

// Clear turns every LED off and removes all blink eligibility. Field
// definitions are kept.
func (m *Matrix) Clear() {
	for row := range m.logical {
		m.logical[row] = 0
	}
	for class := range m.blinkMask {
		for row := range m.blinkMask[class] {
			m.blinkMask[class][row] = 0
		}
	}
}

// updatePhases flips any blink phase whose current duration has elapsed and
// swaps in the complementary duration. Comparing through clock.Since keeps
// the check monotonic and wrap-safe.
func (m *Matrix) updatePhases() {
	for class := range m.phases {
		p := &m.phases[class]
		if m.clock.Since(p.start) <= p.duration {
			continue
		}
		p.dark = !p.dark
		if p.dark {
			p.duration = m.timings[class].Dark
		} else {
			p.duration = m.timings[class].Bright
		}
		p.start = m.clock.Now()
	}
}

// deriveHardware rebuilds the hardware bitmap: a row-by-row copy of the
// logical bitmap with every dark-phase class's blink mask cleared out.
func (m *Matrix) deriveHardware() {
	for row := range m.logical {
		m.hardware[row] = m.logical[row]
		for class := range m.phases {
			if m.phases[class].dark {
				m.hardware[row] &^= m.blinkMask[class][row]
			}
		}
	}
}

// Refresh advances the blink phases, rebuilds the hardware bitmap and shifts
// it out. Must be called at high frequency from the control loop; it never
// blocks beyond the bus's bit-clock settle delays.
//
// Per row the bus sees: strobe low, the 32 column bits MSB first, the
// one-hot row-select byte MSB first, strobe high. The strobe framing means
// the registers only ever latch a complete row, so the physical outputs
// never show a torn image.
func (m *Matrix) Refresh() {
	m.updatePhases()
	m.deriveHardware()
	for row := 0; row < Rows; row++ {
		m.bus.Strobe(false)
		word := m.hardware[row]
		for bit := Cols; bit != 0; bit-- {
			m.shiftBit(word>>(bit-1)&1 == 1)
		}
		rowSelect := uint8(1) << row
		for bit := 8; bit != 0; bit-- {
			m.shiftBit(rowSelect>>(bit-1)&1 == 1)
		}
		m.bus.Strobe(true)
	}
}

func (m *Matrix) shiftBit(level bool) {
	m.bus.Data(level)
	m.bus.Clock(true)
	m.bus.Clock(false)
}

// HardwareRow exposes one row of the derived hardware bitmap for tests and
// diagnostics. The hardware bitmap is never a source of truth.
func (m *Matrix) HardwareRow(row uint8) (uint32, error) {
	if row >= Rows {
		return 0, ErrInvalidCoordinate
	}
	return m.hardware[row], nil
}

// SelfTest paints the power-on test image: every defined field shows all
// segments lit with decimal points, the first column of annunciators is lit,
// and one annunciator per blink class exercises the blink path.
func (m *Matrix) SelfTest() {
	for id, f := range m.fields {
		for digit := range f.digits {
			_ = m.SetDigit(id, digit, Glyph8, true)
		}
	}
	for row := uint8(0); row < Rows; row++ {
		_ = m.LedOn(Pos{Row: row, Col: 0})
	}
	_ = m.BlinkOn(Pos{Row: 0, Col: 0}, BlinkNormal)
	_ = m.BlinkOn(Pos{Row: 1, Col: 0}, BlinkSlow)
}
