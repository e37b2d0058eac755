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

// Seven-segment glyph patterns. Bit 0 is segment a, bit 6 is segment g,
// following the usual labeling:
//
//	    a
//	  -----
//	f |   | b
//	  | g |
//	  -----
//	e |   | c
//	  |   |
//	  -----
//	    d
//
// The decimal point is not part of the glyph; it occupies the eighth column
// of a digit span and is driven separately.
var glyphBits = [GlyphCount]uint8{
	//         gfedcba
	Glyph0:      0b0111111,
	Glyph1:      0b0000110,
	Glyph2:      0b1011011,
	Glyph3:      0b1001111,
	Glyph4:      0b1100110,
	Glyph5:      0b1101101,
	Glyph6:      0b1111101,
	Glyph7:      0b0000111,
	Glyph8:      0b1111111,
	Glyph9:      0b1101111,
	GlyphSpace:  0b0000000,
	GlyphDashes: 0b1001001, // three horizontal bars: segments g, d, a
	GlyphPipes:  0b0110110, // two vertical bars: segments f, e, c, b
	GlyphA:      0b1110111,
	GlyphB:      0b1111100,
	GlyphC:      0b0111001,
	GlyphD:      0b1011110,
	GlyphE:      0b1111001,
	GlyphF:      0b1110001,
	GlyphH:      0b0110110,
	GlyphL:      0b0111000,
	GlyphO:      0b1011100,
	GlyphP:      0b1110011,
	GlyphR:      0b1010000,
	GlyphU:      0b0111110,
	GlyphSmallU: 0b0011100,
	GlyphMinus:  0b1000000,
	GlyphDegree: 0b1100011,
	GlyphSmallC: 0b1011000,
}

// Glyph indices. A Glyph value can be passed directly to SetDigit in place
// of an ASCII character, which is how the non-ASCII patterns (bars, degree
// sign) are addressed.
const (
	Glyph0 = iota
	Glyph1
	Glyph2
	Glyph3
	Glyph4
	Glyph5
	Glyph6
	Glyph7
	Glyph8
	Glyph9
	GlyphSpace
	GlyphDashes
	GlyphPipes
	GlyphA
	GlyphB
	GlyphC
	GlyphD
	GlyphE
	GlyphF
	GlyphH
	GlyphL
	GlyphO
	GlyphP
	GlyphR
	GlyphU
	GlyphSmallU
	GlyphMinus
	GlyphDegree
	GlyphSmallC
	GlyphCount

	// GlyphError is shown for any character outside the supported alphabet.
	GlyphError = GlyphDashes
)

// asciiGlyphs maps the supported ASCII characters to glyph indices. Digits
// are handled separately in SegmentsFor.
var asciiGlyphs = map[byte]int{
	' ': GlyphSpace,
	'A': GlyphA,
	'b': GlyphB,
	'C': GlyphC,
	'c': GlyphSmallC,
	'd': GlyphD,
	'E': GlyphE,
	'F': GlyphF,
	'H': GlyphH,
	'L': GlyphL,
	'o': GlyphO,
	'P': GlyphP,
	'r': GlyphR,
	'U': GlyphU,
	'u': GlyphSmallU,
	'-': GlyphMinus,
}

// SegmentsFor resolves a character to its seven-segment bit pattern. The
// input may be a raw glyph index below GlyphCount, an ASCII digit, or one of
// the supported ASCII letters/symbols. Anything else resolves to the error
// glyph; there is no failure path.
func SegmentsFor(character byte) uint8 {
	if int(character) < GlyphCount {
		return glyphBits[character]
	}
	if character >= '0' && character <= '9' {
		return glyphBits[character-'0']
	}
	if g, ok := asciiGlyphs[character]; ok {
		return glyphBits[g]
	}
	return glyphBits[GlyphError]
}
