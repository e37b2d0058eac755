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
	"strings"
	"testing"

	"github.com/avpanel/panelcore/pkg/switchmatrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTelegramGrammar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "S;S;XPDR_IDT;ON\n", FormatTelegram("XPDR_IDT", switchmatrix.On))
	assert.Equal(t, "S;S;XPDR_IDT;OFF\n", FormatTelegram("XPDR_IDT", switchmatrix.Off))
	assert.Equal(t, "S;S;XPDR_IDT;LON\n", FormatTelegram("XPDR_IDT", switchmatrix.LongOn))
}

func TestStateCodes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint8(0), switchmatrix.Off.Code())
	assert.Equal(t, uint8(1), switchmatrix.On.Code())
	assert.Equal(t, uint8(2), switchmatrix.LongOn.Code())
}

func TestNameTableLookup(t *testing.T) {
	t.Parallel()

	table := NewNameTable(DefaultSwitchNames())
	assert.Equal(t, "XPDR_IDT", table.Lookup(2, 0))
	assert.Equal(t, "CLOCK_SEL", table.Lookup(0, 0))
	assert.Equal(t, "SW_7_7", table.Lookup(7, 7), "unmapped positions get a generated name")
}

func TestTelegramReporterEmitsAndEnqueues(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	q := NewQueue(8)
	r := &TelegramReporter{
		Out:   &out,
		Queue: q,
		Names: NewNameTable(DefaultSwitchNames()),
	}

	r.Report(2, 0, switchmatrix.On)

	assert.Equal(t, "S;S;XPDR_IDT;ON\n", out.String())
	ev, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, Event{Device: SwitchDevice, Payload: "S;XPDR_IDT;ON"}, ev)

	// The internal event is exactly the telegram as the parser would see
	// it coming back in.
	parsed, err := ParseLine(strings.TrimSuffix(out.String(), "\n"))
	require.NoError(t, err)
	assert.Equal(t, ev, parsed)
}

func TestTelegramReporterQueueOverflowCounted(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	q := NewQueue(1)
	r := &TelegramReporter{Out: &out, Queue: q, Names: NewNameTable(nil)}

	r.Report(0, 0, switchmatrix.On)
	r.Report(0, 1, switchmatrix.On)

	assert.Equal(t, uint64(1), q.Dropped())
	// Both telegrams still reach the host.
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
}
