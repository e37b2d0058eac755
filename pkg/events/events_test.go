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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFOOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue(8)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(Event{Device: "D", Payload: fmt.Sprintf("%d", i)}))
	}
	assert.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		ev, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("%d", i), ev.Payload)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueOverflowRejectsNewest(t *testing.T) {
	t.Parallel()

	q := NewQueue(2)
	require.NoError(t, q.Push(Event{Payload: "first"}))
	require.NoError(t, q.Push(Event{Payload: "second"}))

	err := q.Push(Event{Payload: "third"})
	assert.ErrorIs(t, err, ErrQueueOverflow)
	assert.Equal(t, uint64(1), q.Dropped())

	// The already-queued events survive in order.
	ev, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "first", ev.Payload)
	ev, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "second", ev.Payload)
}

func TestQueueWrapsAround(t *testing.T) {
	t.Parallel()

	q := NewQueue(3)
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Push(Event{Payload: fmt.Sprintf("%d", i)}))
		ev, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("%d", i), ev.Payload)
	}
	assert.Zero(t, q.Dropped())
}

func TestNewQueueDefaultCapacity(t *testing.T) {
	t.Parallel()

	q := NewQueue(0)
	for i := 0; i < DefaultQueueCapacity; i++ {
		require.NoError(t, q.Push(Event{}))
	}
	assert.ErrorIs(t, q.Push(Event{}), ErrQueueOverflow)
}
