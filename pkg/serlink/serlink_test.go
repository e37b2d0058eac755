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

package serlink

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/goleak"
)

// mockPort feeds scripted bytes to the reader and records writes.
type mockPort struct {
	incoming chan []byte
	done     chan struct{}
	written  []byte
	timeout  time.Duration
	closed   bool
	mu       sync.Mutex
}

func newMockPort() *mockPort {
	return &mockPort{
		incoming: make(chan []byte, 16),
		done:     make(chan struct{}),
		timeout:  10 * time.Millisecond,
	}
}

func (p *mockPort) Read(buf []byte) (int, error) {
	select {
	case data := <-p.incoming:
		return copy(buf, data), nil
	case <-p.done:
		return 0, errors.New("port closed")
	case <-time.After(p.timeout):
		// A serial read timeout delivers zero bytes, not an error.
		return 0, nil
	}
}

func (p *mockPort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("port closed")
	}
	p.written = append(p.written, buf...)
	return len(buf), nil
}

func (p *mockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.done)
	}
	return nil
}

func (p *mockPort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func (p *mockPort) writtenBytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.written...)
}

func openTestLink(t *testing.T) (*Link, *mockPort) {
	t.Helper()
	port := newMockPort()
	link := NewLink(func(string, *serial.Mode) (Port, error) {
		return port, nil
	})
	require.NoError(t, link.Open("/dev/test", 115200))
	t.Cleanup(func() { _ = link.Close() })
	return link, port
}

func TestOpenFactoryError(t *testing.T) {
	t.Parallel()

	link := NewLink(func(string, *serial.Mode) (Port, error) {
		return nil, errors.New("no such device")
	})
	err := link.Open("/dev/missing", 115200)
	require.Error(t, err)
	assert.False(t, link.Connected())
}

func TestDrainCollectsIncomingBytes(t *testing.T) {
	t.Parallel()

	link, port := openTestLink(t)

	port.incoming <- []byte("M803;")
	port.incoming <- []byte("SET\r\n")

	require.Eventually(t, func() bool {
		link.mu.Lock()
		defer link.mu.Unlock()
		return len(link.pending) == 10
	}, time.Second, time.Millisecond)

	assert.Equal(t, []byte("M803;SET\r\n"), link.Drain())
	assert.Nil(t, link.Drain(), "second drain without new data is empty")
}

func TestWriteGoesToPort(t *testing.T) {
	t.Parallel()

	link, port := openTestLink(t)

	n, err := link.Write([]byte("S;S;XPDR_IDT;ON\n"))
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, []byte("S;S;XPDR_IDT;ON\n"), port.writtenBytes())
}

func TestWriteBeforeOpen(t *testing.T) {
	t.Parallel()

	link := NewLink(nil)
	_, err := link.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestCloseStopsReader(t *testing.T) {
	defer goleak.VerifyNone(t)

	port := newMockPort()
	link := NewLink(func(string, *serial.Mode) (Port, error) {
		return port, nil
	})
	require.NoError(t, link.Open("/dev/test", 115200))
	assert.True(t, link.Connected())

	require.NoError(t, link.Close())
	assert.False(t, link.Connected())

	// Give the reader goroutine time to observe the closed port.
	assert.Eventually(t, func() bool {
		return !link.Connected()
	}, time.Second, time.Millisecond)
}
