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

// Package switchmatrix scans a row/column contact matrix, debounces the
// contacts and classifies each one as off, on or long-on. State changes are
// pushed to a Reporter so that the initial full-state snapshot and the
// steady-state delta reports share one classification path.
package switchmatrix

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

// State is the debounced classification of one contact.
type State uint8

const (
	Off State = iota
	On
	LongOn
)

// Code returns the wire code for a state: 0 for off, 1 for on, 2 for long-on.
func (s State) Code() uint8 { return uint8(s) }

func (s State) String() string {
	switch s {
	case Off:
		return "OFF"
	case On:
		return "ON"
	case LongOn:
		return "LON"
	default:
		return "UNKNOWN"
	}
}

// ReportMode selects which cells ReportChanges pushes to the Reporter.
type ReportMode uint8

const (
	// ReportChangedOnly pushes only cells whose classification changed
	// since the previous report. Used every loop iteration.
	ReportChangedOnly ReportMode = iota
	// ReportAll pushes every cell unconditionally. Used once at startup
	// so the host receives a consistent initial snapshot.
	ReportAll
)

// Sampler reads the raw (not debounced) level of one contact.
type Sampler interface {
	Sample(row, col uint8) bool
}

// Reporter receives classified switch states. Implementations typically
// emit the outbound telegram and feed the internal event pipeline.
type Reporter interface {
	Report(row, col uint8, state State)
}

// Thresholds tune the per-cell state machine.
type Thresholds struct {
	// Debounce is how long a raw level must hold steady before it is
	// accepted as the contact's debounced level.
	Debounce time.Duration
	// LongPress is how long an accepted "on" must be held before it is
	// reclassified as long-on.
	LongPress time.Duration
}

// DefaultThresholds preserve the feel of the original panel hardware.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Debounce:  20 * time.Millisecond,
		LongPress: 3 * time.Second,
	}
}

var ErrInvalidDimensions = errors.New("switch matrix dimensions out of range")

const maxDimension = 32

type cell struct {
	stableSince time.Time
	onSince     time.Time
	raw         bool
	debounced   bool
	state       State
	reported    State
}

// Matrix scans and classifies a contact matrix. Not safe for concurrent
// use; the cooperative loop is its only caller.
type Matrix struct {
	clock      clockwork.Clock
	sampler    Sampler
	cells      [][]cell
	thresholds Thresholds
	rows       uint8
	cols       uint8
}

// NewMatrix creates a matrix of the given dimensions with every cell off.
// A nil clock falls back to the real clock.
func NewMatrix(rows, cols uint8, sampler Sampler, clock clockwork.Clock, thresholds Thresholds) (*Matrix, error) {
	if rows == 0 || cols == 0 || rows > maxDimension || cols > maxDimension {
		return nil, ErrInvalidDimensions
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cells := make([][]cell, rows)
	now := clock.Now()
	for row := range cells {
		cells[row] = make([]cell, cols)
		for col := range cells[row] {
			cells[row][col].stableSince = now
		}
	}
	return &Matrix{
		clock:      clock,
		sampler:    sampler,
		cells:      cells,
		thresholds: thresholds,
		rows:       rows,
		cols:       cols,
	}, nil
}

// Scan samples every contact once and advances each cell's state machine:
// off -> on on a debounced press, on -> long-on past the hold threshold,
// and back to off on a debounced release from either.
func (m *Matrix) Scan() {
	now := m.clock.Now()
	for row := uint8(0); row < m.rows; row++ {
		for col := uint8(0); col < m.cols; col++ {
			c := &m.cells[row][col]
			raw := m.sampler.Sample(row, col)

			if raw != c.raw {
				// Level moved, restart the stability window.
				c.raw = raw
				c.stableSince = now
				continue
			}
			if raw != c.debounced && now.Sub(c.stableSince) >= m.thresholds.Debounce {
				c.debounced = raw
				if raw {
					c.onSince = now
					c.state = On
				} else {
					c.state = Off
				}
			}
			if c.debounced && c.state == On && now.Sub(c.onSince) >= m.thresholds.LongPress {
				c.state = LongOn
			}
		}
	}
}

// ReportChanges pushes cell states to the Reporter: every cell for
// ReportAll, otherwise only cells whose classification changed since they
// were last reported. Each transition is reported exactly once.
func (m *Matrix) ReportChanges(mode ReportMode, reporter Reporter) {
	for row := uint8(0); row < m.rows; row++ {
		for col := uint8(0); col < m.cols; col++ {
			c := &m.cells[row][col]
			if mode == ReportAll || c.state != c.reported {
				reporter.Report(row, col, c.state)
				c.reported = c.state
			}
		}
	}
}

// StateAt returns the current classification of one cell, for diagnostics.
func (m *Matrix) StateAt(row, col uint8) (State, bool) {
	if row >= m.rows || col >= m.cols {
		return Off, false
	}
	return m.cells[row][col].state, true
}
