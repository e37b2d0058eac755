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
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Property: any sequence of set/clear/toggle operations on valid coordinates
// is faithfully reflected by IsLedOn, and a cell is only ever affected by
// operations addressed to it.
func TestBitmapOperationsProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		m, _, _ := newTestMatrix()
		var shadow [Rows][Cols]bool

		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			pos := Pos{
				Row: uint8(rapid.IntRange(0, Rows-1).Draw(t, "row")),
				Col: uint8(rapid.IntRange(0, Cols-1).Draw(t, "col")),
			}
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				require.NoError(t, m.LedOn(pos))
				shadow[pos.Row][pos.Col] = true
			case 1:
				require.NoError(t, m.LedOff(pos))
				shadow[pos.Row][pos.Col] = false
			case 2:
				require.NoError(t, m.LedToggle(pos))
				shadow[pos.Row][pos.Col] = !shadow[pos.Row][pos.Col]
			}
		}

		for row := uint8(0); row < Rows; row++ {
			for col := uint8(0); col < Cols; col++ {
				on, err := m.IsLedOn(Pos{Row: row, Col: col})
				require.NoError(t, err)
				require.Equal(t, shadow[row][col], on, "cell (%d,%d)", row, col)
			}
		}
	})
}
