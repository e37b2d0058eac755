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

import "strings"

// MaxLineLength bounds the line buffer. Bytes beyond the bound are dropped;
// an oversized line is delivered truncated rather than overflowing storage.
const MaxLineLength = 128

// DeviceDelimiter separates the device identifier from the payload in the
// inbound line grammar `<deviceId>;<payload...>`.
const DeviceDelimiter = ';'

// LineBuffer accumulates validated serial bytes into one in-progress line.
// Not safe for concurrent use.
type LineBuffer struct {
	buf [MaxLineLength]byte
	n   int
}

// Feed consumes one serial byte. Content bytes (alphanumeric, punctuation,
// space, underscore) are appended; CR or LF completes the accumulated line
// and wipes the buffer. A terminator on an empty buffer is a no-op, which
// keeps CRLF pairs from producing a spurious empty line. Every other byte
// is silently dropped.
func (b *LineBuffer) Feed(c byte) (line string, complete bool) {
	if c == '\r' || c == '\n' {
		if b.n == 0 {
			return "", false
		}
		line = string(b.buf[:b.n])
		b.n = 0
		return line, true
	}
	if !acceptedByte(c) {
		return "", false
	}
	if b.n < len(b.buf) {
		b.buf[b.n] = c
		b.n++
	}
	return "", false
}

// Len returns the number of accumulated bytes.
func (b *LineBuffer) Len() int { return b.n }

// Wipe discards the in-progress line.
func (b *LineBuffer) Wipe() { b.n = 0 }

func acceptedByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		return true
	case c == ' ', c == '_':
		return true
	}
	// ASCII punctuation blocks.
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') ||
		(c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

// ParseLine splits a raw line into an Event on the first field delimiter.
// A line without a delimiter or with an empty device identifier fails with
// ErrMalformedLine; the caller must not enqueue on failure.
func ParseLine(line string) (Event, error) {
	idx := strings.IndexByte(line, DeviceDelimiter)
	if idx <= 0 {
		return Event{}, ErrMalformedLine
	}
	return Event{Device: line[:idx], Payload: line[idx+1:]}, nil
}
