// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package assembler

import (
	"errors"
	"unicode"

	"github.com/uxntools/uxnasm/pkg/encoding"
)

// Scanner is a cursor over an immutable source text. It only ever moves
// forward; save/restore is done by copying out and back in a Cursor.
type Scanner struct {
	src string
	cur Cursor
}

func newScanner(src string) *Scanner {
	return &Scanner{src: src, cur: Cursor{Pos: 0, Line: 1, Char: 1}}
}

func (s *Scanner) cursor() Cursor   { return s.cur }
func (s *Scanner) restore(c Cursor) { s.cur = c }

// peek returns the current byte without consuming it, or 0 past the end
// of the source.
func (s *Scanner) peek() byte {
	if s.cur.Pos >= len(s.src) {
		return 0
	}
	return s.src[s.cur.Pos]
}

// atEnd is true when the scanner has consumed the whole source. In
// macro mode it is additionally true when the current character is
// '}' — the macro terminator acts as a synthetic end-of-input for the
// nested pass over a macro's body (spec.md §4.1).
func (s *Scanner) atEnd(macroMode bool) bool {
	if s.cur.Pos >= len(s.src) {
		return true
	}
	return macroMode && s.peek() == runeMacroClose
}

// advance returns the current character, then moves forward one byte.
// At end-of-input it returns the current character (0) without moving.
func (s *Scanner) advance() byte {
	if s.cur.Pos >= len(s.src) {
		return 0
	}
	ch := s.src[s.cur.Pos]
	s.cur.Pos++
	if ch == '\n' {
		s.cur.Line++
		s.cur.Char = 1
	} else {
		s.cur.Char++
	}
	return ch
}

func isSpace(b byte) bool {
	return unicode.IsSpace(rune(b))
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f')
}

// skipWhitespace advances while the current character is whitespace.
func (s *Scanner) skipWhitespace() {
	for s.cur.Pos < len(s.src) && isSpace(s.peek()) {
		s.advance()
	}
}

// skipComment consumes characters until a closing ')', assuming the
// opening '(' has already been consumed by the caller.
func (s *Scanner) skipComment() error {
	for {
		if s.cur.Pos >= len(s.src) {
			return errors.New("Missing closing parenthesis")
		}
		if s.advance() == ')' {
			return nil
		}
	}
}

// scanIdentifier returns the maximal run of non-whitespace characters
// starting at the current position, or "" if the first character is
// whitespace or EOF.
func (s *Scanner) scanIdentifier() string {
	start := s.cur.Pos
	for s.cur.Pos < len(s.src) && !isSpace(s.peek()) {
		s.advance()
	}
	return s.src[start:s.cur.Pos]
}

// atHexToken reports whether the token starting at the current position
// consists only of [0-9a-f] digits, i.e. is a raw number rather than an
// identifier (such as a macro name) that merely begins with a hex letter.
func (s *Scanner) atHexToken() bool {
	i := s.cur.Pos
	for i < len(s.src) && isHexDigit(s.src[i]) {
		i++
	}
	return i > s.cur.Pos && (i == len(s.src) || isSpace(s.src[i]))
}

// scanNumber consumes a maximal run of [0-9a-f] and parses it as
// hexadecimal, returning the value and the number of bytes it encodes.
//
// In literal mode the returned width is decided by digit count: 1-2
// digits is one byte, 3-4 digits is two bytes, 5+ digits is an error.
// In non-literal (padding) mode the width is decided by the parsed
// value instead: <0x100 is one byte, <0x10000 is two bytes, otherwise
// an error.
func (s *Scanner) scanNumber(literalMode bool) (value uint16, width int, err error) {
	start := s.cur.Pos
	for s.cur.Pos < len(s.src) && isHexDigit(s.peek()) {
		s.advance()
	}
	digits := s.src[start:s.cur.Pos]
	if len(digits) == 0 {
		return 0, 0, errors.New("Expected a number")
	}

	if literalMode {
		if len(digits) > 4 {
			return 0, 0, errors.New("Number too big")
		}
		v, err := encoding.DecodeBareHex(digits)
		if err != nil {
			return 0, 0, err
		}
		if len(digits) <= 2 {
			return uint16(v), 1, nil
		}
		return uint16(v), 2, nil
	}

	v, err := encoding.DecodeBareHex(digits)
	if err != nil {
		return 0, 0, err
	}
	if v < 0x100 {
		return uint16(v), 1, nil
	}
	if v < 0x10000 {
		return uint16(v), 2, nil
	}
	return 0, 0, errors.New("Number too big")
}

// setStart latches (startLine, startChar) from the live position.
func (s *Scanner) setStart() {
	s.cur.StartLine = s.cur.Line
	s.cur.StartChar = s.cur.Char
}
