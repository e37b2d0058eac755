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

package events

import (
	"fmt"
	"io"

	"github.com/avpanel/panelcore/pkg/switchmatrix"
	"github.com/rs/zerolog/log"
)

// SwitchDevice is the device identifier carried by internal switch events,
// matching the source field of the outbound telegram grammar.
const SwitchDevice = "S"

// NameTable resolves switch matrix positions to the human-readable names
// used in outbound telegrams.
type NameTable struct {
	names map[[2]uint8]string
}

// NewNameTable builds a table from a position -> name map.
func NewNameTable(names map[[2]uint8]string) *NameTable {
	t := &NameTable{names: make(map[[2]uint8]string, len(names))}
	for pos, name := range names {
		t.names[pos] = name
	}
	return t
}

// DefaultSwitchNames is the panel's static switch layout: the clock cluster
// on rows 0-1 and the transponder cluster on rows 2-7.
func DefaultSwitchNames() map[[2]uint8]string {
	return map[[2]uint8]string{
		{0, 0}: "CLOCK_SEL",
		{0, 1}: "CLOCK_CTL",
		{0, 2}: "CLOCK_OAT",
		{1, 0}: "CLOCK_SET",
		{1, 1}: "CLOCK_RST",
		{2, 0}: "XPDR_IDT",
		{2, 1}: "XPDR_VFR",
		{3, 0}: "XPDR_OFF",
		{3, 1}: "XPDR_SBY",
		{3, 2}: "XPDR_TST",
		{3, 3}: "XPDR_ON",
		{3, 4}: "XPDR_ALT",
		{4, 0}: "XPDR_0",
		{4, 1}: "XPDR_1",
		{4, 2}: "XPDR_2",
		{4, 3}: "XPDR_3",
		{5, 0}: "XPDR_4",
		{5, 1}: "XPDR_5",
		{5, 2}: "XPDR_6",
		{5, 3}: "XPDR_7",
	}
}

// Lookup returns the name for a position. Unmapped positions resolve to a
// stable generated name so a miswired contact is still observable on the
// host side.
func (t *NameTable) Lookup(row, col uint8) string {
	if name, ok := t.names[[2]uint8{row, col}]; ok {
		return name
	}
	return fmt.Sprintf("SW_%d_%d", row, col)
}

// FormatTelegram renders one outbound switch telegram:
// `S;S;<switchName>;ON|OFF|LON` with a trailing newline.
func FormatTelegram(name string, state switchmatrix.State) string {
	return fmt.Sprintf("S;S;%s;%s\n", name, state)
}

// TelegramReporter implements switchmatrix.Reporter by emitting the
// outbound telegram for every reported cell and enqueueing the equivalent
// inbound-style event so the change can also drive local device logic.
type TelegramReporter struct {
	Out   io.Writer
	Queue *Queue
	Names *NameTable
}

// Report sends `S;S;<name>;<state>` to the host and pushes
// {Device: "S", Payload: "S;<name>;<state>"} onto the queue.
func (r *TelegramReporter) Report(row, col uint8, state switchmatrix.State) {
	name := r.Names.Lookup(row, col)
	telegram := FormatTelegram(name, state)
	if _, err := io.WriteString(r.Out, telegram); err != nil {
		log.Error().Err(err).Str("switch", name).Msg("telegram write failed")
	}
	ev := Event{
		Device:  SwitchDevice,
		Payload: fmt.Sprintf("%s;%s;%s", SwitchDevice, name, state),
	}
	if err := r.Queue.Push(ev); err != nil {
		log.Warn().Err(err).Str("switch", name).
			Uint64("dropped", r.Queue.Dropped()).Msg("switch event rejected")
	}
}
