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

import "fmt"

// encodeOpcode matches an identifier against the closed base-mnemonic
// enumeration plus its mode-flag suffix, producing a single encoded
// byte. The second return value is false if the identifier is not an
// opcode at all (a macro invocation or an unknown identifier).
func encodeOpcode(ident string) (byte, bool) {
	if ident == "BRK" {
		return 0x00, true
	}

	if len(ident) < 3 {
		return 0, false
	}

	prefix := ident[:3]
	var base byte
	matched := false
	for _, entry := range baseOpcodes {
		if entry.mnemonic == prefix {
			base = entry.base
			matched = true
			break
		}
	}
	if !matched {
		return 0, false
	}

	var flags byte
	if base == 0x00 {
		// BRK's prefix matched but the identifier is longer than "BRK" —
		// reinterpret as LIT with KEEP, the conventional disassembly of
		// 0x80 (spec.md §4.2 step 2).
		flags |= ModeKeep
	}

	for i := 3; i < len(ident); i++ {
		switch ident[i] {
		case '2':
			flags |= ModeShort
		case 'k':
			flags |= ModeKeep
		case 'r':
			flags |= ModeReturn
		default:
			return 0, false
		}
	}

	return base | flags, true
}

// DescribeOpcode reports the mnemonic's base byte and active mode
// flags as a short human-readable string, for editor hover/tooltip
// integrations. The second return value is false if ident isn't a
// known opcode.
func DescribeOpcode(ident string) (string, bool) {
	b, ok := encodeOpcode(ident)
	if !ok {
		return "", false
	}

	base := b &^ (ModeShort | ModeReturn | ModeKeep)
	mnemonic := "BRK"
	for _, entry := range baseOpcodes {
		if entry.base == base {
			mnemonic = entry.mnemonic
			break
		}
	}

	var flags []string
	if b&ModeShort != 0 {
		flags = append(flags, "SHORT")
	}
	if b&ModeReturn != 0 {
		flags = append(flags, "RETURN")
	}
	if b&ModeKeep != 0 {
		flags = append(flags, "KEEP")
	}

	desc := fmt.Sprintf("%s (base 0x%02x)", mnemonic, base)
	for _, f := range flags {
		desc += " " + f
	}

	return desc, true
}
