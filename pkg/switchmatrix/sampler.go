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

package switchmatrix

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
)

// GPIOSampler reads a contact matrix wired as one output pin per row and
// one input pin per column. Contacts pull the column line low when closed
// against an active (low) row; column inputs are expected to have pull-ups.
type GPIOSampler struct {
	RowPins []gpio.PinIO
	ColPins []gpio.PinIO
}

// Init configures row pins as inactive outputs and column pins as pulled-up
// inputs.
func (s *GPIOSampler) Init() error {
	for _, pin := range s.RowPins {
		if err := pin.Out(gpio.High); err != nil {
			return fmt.Errorf("switch matrix: configure row %s: %w", pin.Name(), err)
		}
	}
	for _, pin := range s.ColPins {
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return fmt.Errorf("switch matrix: configure col %s: %w", pin.Name(), err)
		}
	}
	return nil
}

// Sample drives the addressed row low, reads the column and releases the
// row again. Out-of-range coordinates read as open.
func (s *GPIOSampler) Sample(row, col uint8) bool {
	if int(row) >= len(s.RowPins) || int(col) >= len(s.ColPins) {
		return false
	}
	rowPin := s.RowPins[row]
	if err := rowPin.Out(gpio.Low); err != nil {
		log.Error().Err(err).Str("pin", rowPin.Name()).Msg("row select failed")
		return false
	}
	closed := s.ColPins[col].Read() == gpio.Low
	if err := rowPin.Out(gpio.High); err != nil {
		log.Error().Err(err).Str("pin", rowPin.Name()).Msg("row release failed")
	}
	return closed
}
