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

// Package serlink owns the serial link to the host application. Incoming
// bytes are collected by a background reader and handed to the control loop
// at tick boundaries through Drain; the loop never waits on I/O.
package serlink

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// Port defines the serial port operations the link needs (mockable in
// tests).
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// PortFactory creates a serial port connection.
type PortFactory func(path string, mode *serial.Mode) (Port, error)

// DefaultPortFactory opens real serial ports.
func DefaultPortFactory(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

var ErrNotOpen = errors.New("serial link not open")

const readTimeout = 100 * time.Millisecond

// Link is a host serial connection. Write may be called from the control
// loop while the background reader runs; both are guarded by the mutex.
type Link struct {
	port        Port
	portFactory PortFactory
	pending     []byte
	path        string
	polling     bool
	mu          sync.Mutex
}

// NewLink creates an unopened link. A nil factory falls back to real ports.
func NewLink(factory PortFactory) *Link {
	if factory == nil {
		factory = DefaultPortFactory
	}
	return &Link{portFactory: factory}
}

// Open connects to the device and starts the background reader, which
// appends incoming bytes to an internal buffer until the loop drains them.
func (l *Link) Open(path string, baud int) error {
	port, err := l.portFactory(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		return fmt.Errorf("failed to set read timeout on serial port: %w", err)
	}

	l.mu.Lock()
	l.port = port
	l.path = path
	l.polling = true
	l.mu.Unlock()

	go l.readLoop()
	return nil
}

func (l *Link) readLoop() {
	buf := make([]byte, 256)
	for {
		l.mu.Lock()
		polling := l.polling
		port := l.port
		l.mu.Unlock()
		if !polling {
			return
		}

		n, err := port.Read(buf)
		if err != nil {
			log.Error().Err(err).Str("path", l.path).Msg("failed to read from serial port")
			if closeErr := l.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close serial port")
			}
			return
		}
		if n == 0 {
			continue
		}

		l.mu.Lock()
		l.pending = append(l.pending, buf[:n]...)
		l.mu.Unlock()
	}
}

// Drain returns all bytes received since the previous call. Called once per
// loop tick; returns nil when nothing arrived.
func (l *Link) Drain() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil
	}
	out := l.pending
	l.pending = nil
	return out
}

// Write sends bytes to the host.
func (l *Link) Write(p []byte) (int, error) {
	l.mu.Lock()
	port := l.port
	l.mu.Unlock()
	if port == nil {
		return 0, ErrNotOpen
	}
	n, err := port.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write to serial port: %w", err)
	}
	return n, nil
}

// Connected reports whether the background reader is running.
func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.polling && l.port != nil
}

// Close stops the background reader and closes the port.
func (l *Link) Close() error {
	l.mu.Lock()
	l.polling = false
	port := l.port
	l.port = nil
	l.mu.Unlock()
	if port != nil {
		if err := port.Close(); err != nil {
			return fmt.Errorf("failed to close serial port: %w", err)
		}
	}
	return nil
}
