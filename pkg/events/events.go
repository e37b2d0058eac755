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

// Package events implements the input pipeline of the panel controller:
// accumulating serial bytes into lines, parsing lines into typed events,
// queueing them and dispatching them to per-device handlers.
package events

import "errors"

var (
	ErrMalformedLine = errors.New("line has no device identifier")
	ErrQueueOverflow = errors.New("event queue at capacity")
)

// Event is one parsed command addressed to a device. Immutable once parsed;
// it has no identity beyond its position in the queue.
type Event struct {
	// Device is the identifier token before the first field delimiter.
	Device string
	// Payload is the raw command tail after the delimiter.
	Payload string
}

// DefaultQueueCapacity bounds the event queue. 32 events is far beyond what
// a single loop iteration can produce or the host can deliver between ticks.
const DefaultQueueCapacity = 32

// Queue is a fixed-capacity strict-FIFO event queue. On overflow the
// incoming event is rejected and counted, so transitions that are already
// queued are never lost. Not safe for concurrent use.
type Queue struct {
	buf     []Event
	head    int
	size    int
	dropped uint64
}

// NewQueue creates a queue with the given capacity, or
// DefaultQueueCapacity if the capacity is not positive.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{buf: make([]Event, capacity)}
}

// Push appends an event. A full queue rejects the newest event with
// ErrQueueOverflow and increments the drop counter.
func (q *Queue) Push(ev Event) error {
	if q.size == len(q.buf) {
		q.dropped++
		return ErrQueueOverflow
	}
	q.buf[(q.head+q.size)%len(q.buf)] = ev
	q.size++
	return nil
}

// Pop removes and returns the oldest event.
func (q *Queue) Pop() (Event, bool) {
	if q.size == 0 {
		return Event{}, false
	}
	ev := q.buf[q.head]
	q.buf[q.head] = Event{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return ev, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return q.size }

// Dropped returns how many events were rejected due to overflow.
func (q *Queue) Dropped() uint64 { return q.dropped }
