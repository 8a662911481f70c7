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

package assembler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxntools/uxnasm/pkg/assembler"
)

type testCase struct {
	Name   string
	Input  string
	Output []byte
}

func runOK(t *testing.T, input string) *assembler.Result {
	t.Helper()
	result := assembler.Assemble(input, assembler.Options{})
	require.Falsef(t, result.Diagnostics.HadError(),
		"unexpected errors: %v", result.Diagnostics.Entries())
	return result
}

// End-to-end scenarios, spec.md §8.

func TestScenarios(t *testing.T) {
	tests := []testCase{
		{
			Name:   "S1",
			Input:  "|0100 #01 #02 ADD BRK",
			Output: []byte{0x80, 0x01, 0x80, 0x02, 0x18, 0x00},
		},
		{
			Name:   "S2",
			Input:  "|0100 @loop INC2 ;loop JMP2 BRK",
			Output: []byte{0x21, 0xA0, 0x01, 0x00, 0x2C, 0x00},
		},
		{
			Name:   "S3",
			Input:  "%double { #02 MUL } |0100 #03 double BRK",
			Output: []byte{0x80, 0x03, 0x80, 0x02, 0x1A, 0x00},
		},
		{
			Name:   "S4",
			Input:  `|0100 "hi BRK`,
			Output: []byte{0x68, 0x69, 0x00},
		},
		{
			Name:   "S6",
			Input:  "|0100 @a &b ;a/b BRK",
			Output: []byte{0xA0, 0x01, 0x00, 0x00},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			result := runOK(t, test.Input)
			assert.Equal(t, test.Output, result.Code)
		})
	}
}

// S5: an undefined label reference is an error, and the exact message
// format (spec.md §4.7) is load-bearing for tooling that parses it.
func TestUndefinedLabelReference(t *testing.T) {
	result := assembler.Assemble("|0100 .nope", assembler.Options{})

	require.True(t, result.Diagnostics.HadError())
	require.Len(t, result.Diagnostics.Entries(), 1)
	assert.Equal(t, "Error (1,7): Label 'nope' does not exist.", result.Diagnostics.Entries()[0].String())
	assert.Equal(t, []byte{0x80, 0x00}, result.Code, "an unresolved reference still emits its placeholder byte(s)")
}

func TestSubLabelKey(t *testing.T) {
	result := runOK(t, "|0100 @a &b ;a/b BRK")

	label, ok := result.Labels["a/b"]
	require.True(t, ok, "expected the sub-label to be keyed as 'a/b'")
	assert.Equal(t, uint16(0x0100), label.Address)
}

func TestAmpersandSubLabelReference(t *testing.T) {
	result := runOK(t, "|0100 @a &b .&b BRK")
	assert.Equal(t, []byte{0x80, 0x00, 0x00}, result.Code)
}

func TestSubLabelReferenceScopesToNearestMainLabel(t *testing.T) {
	result := runOK(t, "|0100 @a &b .b @c &b BRK")
	assert.Equal(t, []byte{0x80, 0x00, 0x00}, result.Code)
}

func TestMacroInvokedTwice(t *testing.T) {
	result := runOK(t, "%m { INC2 } |0100 m m")
	assert.Equal(t, []byte{0x21, 0x21}, result.Code)
	assert.Equal(t, 1, result.MacroCount)
}

func TestLiteralEncoding(t *testing.T) {
	result := runOK(t, "|0100 #ab #abcd")
	assert.Equal(t, []byte{0x80, 0xab, 0xA0, 0xab, 0xcd}, result.Code)
}

func TestPaddingIsIdempotentAgainstEmission(t *testing.T) {
	a := runOK(t, "|0200 BRK")
	b := runOK(t, "|0100 $0100 BRK")
	assert.Equal(t, a.Code, b.Code)
}

func TestDuplicateLabelIsAnError(t *testing.T) {
	result := assembler.Assemble("|0100 @a @a", assembler.Options{})
	require.True(t, result.Diagnostics.HadError())
}

func TestMacroBodyMayReferenceAmpersandSubLabel(t *testing.T) {
	result := runOK(t, "%m { .&sub } |0100 @a &sub m BRK")
	assert.Equal(t, []byte{0x80, 0x00, 0x00}, result.Code)
}

func TestMacroBodyMayNotDeclareLabels(t *testing.T) {
	result := assembler.Assemble("%m { @inner } |0100 m", assembler.Options{})
	require.True(t, result.Diagnostics.HadError())
}

func TestWriteBelowZeropageIsAnError(t *testing.T) {
	result := assembler.Assemble("|0010 BRK", assembler.Options{})
	require.True(t, result.Diagnostics.HadError())
}

func TestZeropageReferenceToAbsoluteAddressWarns(t *testing.T) {
	result := runOK(t, "|1000 @far |0100 .far")
	require.Len(t, result.Diagnostics.Entries(), 1)
	assert.True(t, result.Diagnostics.Entries()[0].Warning)
}

func TestWerrorPromotesWarningsToErrors(t *testing.T) {
	result := assembler.Assemble("|1000 @far |0100 .far", assembler.Options{Werror: true})
	assert.True(t, result.Diagnostics.HadError())
}

func TestEmptyRomProducesNoCode(t *testing.T) {
	result := runOK(t, "")
	assert.Empty(t, result.Code)
}

// Opcode encoding invariants, spec.md §8.7-9.

func TestOpcodeEncoding(t *testing.T) {
	cases := []struct {
		Mnemonic string
		Byte     byte
	}{
		{"BRK", 0x00},
		{"BRKk", 0x80},
		{"ADD2kr", 0xF8},
		{"INC2", 0x21},
		{"MUL", 0x1a},
	}

	for _, c := range cases {
		result := runOK(t, "BRK "+c.Mnemonic)
		// The first byte is always BRK's own 0x00; the second is under test.
		require.Len(t, result.Code, 2)
		assert.Equalf(t, c.Byte, result.Code[1], "%s", c.Mnemonic)
	}
}

func TestUnknownIdentifierIsAnError(t *testing.T) {
	result := assembler.Assemble("|0100 NOPE", assembler.Options{})
	require.True(t, result.Diagnostics.HadError())
}
