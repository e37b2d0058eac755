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

import "github.com/rs/zerolog/log"

// Handler consumes events addressed to one device. Process errors are
// logged and never abort the dispatch loop.
type Handler interface {
	Process(ev Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ev Event) error

func (f HandlerFunc) Process(ev Event) error { return f(ev) }

// Dispatcher routes queued events to device handlers by exact identifier
// match. Not safe for concurrent use.
type Dispatcher struct {
	handlers map[string]Handler
	unrouted uint64
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register binds a handler to a device identifier, replacing any previous
// binding.
func (d *Dispatcher) Register(deviceID string, h Handler) {
	d.handlers[deviceID] = h
}

// DispatchAll drains the queue in FIFO order. Events addressed to no
// registered handler are dropped and counted; handler errors are logged and
// dispatch continues.
func (d *Dispatcher) DispatchAll(q *Queue) {
	for {
		ev, ok := q.Pop()
		if !ok {
			return
		}
		h, ok := d.handlers[ev.Device]
		if !ok {
			d.unrouted++
			log.Debug().Str("device", ev.Device).Str("payload", ev.Payload).
				Msg("event for unregistered device dropped")
			continue
		}
		if err := h.Process(ev); err != nil {
			log.Error().Err(err).Str("device", ev.Device).Msg("device handler failed")
		}
	}
}

// Unrouted returns how many events were dropped for lack of a handler.
func (d *Dispatcher) Unrouted() uint64 { return d.unrouted }
