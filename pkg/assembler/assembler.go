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

// Package assembler implements the two-pass assembler for the target
// stack machine's binary ROM format: scanning, label/macro symbol
// tables, memory-position tracking, opcode encoding, and macro
// expansion via an explicit state stack.
package assembler

import (
	"fmt"

	"github.com/uxntools/uxnasm/pkg/encoding"
)

// Options configures a single Assemble call.
type Options struct {
	// Werror promotes warnings to errors, so output is withheld the
	// same way it already is for any other error (spec_full.md §C).
	Werror bool
}

// Result is everything a completed (or aborted) assembly run produced.
type Result struct {
	Code        []byte
	Diagnostics *Diagnostics
	Labels      map[string]Label
	MacroCount  int
}

// Program owns all per-run mutable state: the scanner cursor, the
// symbol tables, the memory-position model, the emitted code buffer,
// and the macro-expansion state stack. It is used for exactly one
// Assemble call and then discarded.
type Program struct {
	scanner *Scanner
	mem     *memory
	sym     *symbolTable
	diag    *Diagnostics
	stack   stateStack

	code       []byte
	macroCount int
}

func newProgram(source string, opts Options) *Program {
	return &Program{
		scanner: newScanner(source),
		mem:     newMemory(),
		sym:     newSymbolTable(),
		diag:    NewDiagnostics(opts.Werror),
	}
}

// Assemble runs both passes over source and returns everything the
// caller needs to either write a ROM or report diagnostics. It never
// itself touches the filesystem — spec.md §1 treats file I/O as an
// external collaborator.
func Assemble(source string, opts Options) *Result {
	p := newProgram(source, opts)

	p.runPass1()

	p.scanner = newScanner(source)
	p.mem = newMemory()
	p.runPass2(false)

	labels := make(map[string]Label, len(p.sym.labels))
	for name, l := range p.sym.labels {
		labels[name] = *l
	}

	return &Result{
		Code:        p.code,
		Diagnostics: p.diag,
		Labels:      labels,
		MacroCount:  p.macroCount,
	}
}

// errAt and warnAt report a diagnostic at the latched start position if
// one is set, falling back to the scanner's live position, then reset
// the latch (spec.md §4.7, §9).
func (p *Program) errAt(message string) {
	line, char := p.diagPosition()
	p.diag.report(line, char, false, message)
}

func (p *Program) warnAt(message string) {
	line, char := p.diagPosition()
	p.diag.report(line, char, true, message)
}

func (p *Program) diagPosition() (int, int) {
	c := p.scanner.cursor()
	if c.StartLine != 0 {
		p.scanner.cur.StartLine = 0
		p.scanner.cur.StartChar = 0
		return c.StartLine, c.StartChar
	}
	return c.Line, c.Char
}

// emit appends one byte to the code buffer and advances the memory
// position. Writing below the zeropage boundary is an error, but the
// byte is still appended (spec.md §4.4).
func (p *Program) emit(b byte) {
	if p.mem.pos < ZeroPage {
		p.errAt("can't write over zeropage")
	}
	p.code = append(p.code, b)
	p.mem.pos++
}

// ---- pass 1: discover labels, macros, and final addresses ----

func (p *Program) runPass1() {
	for !p.scanner.atEnd(false) {
		p.scanner.skipWhitespace()
		if p.scanner.atEnd(false) {
			break
		}
		p.scanner.setStart()
		p.pass1Dispatch()
	}
}

func (p *Program) pass1Dispatch() {
	ch := p.scanner.peek()
	switch {
	case ch == runeComment:
		p.scanner.advance()
		if err := p.scanner.skipComment(); err != nil {
			p.errAt(err.Error())
		}

	case ch == runeOrnamentOpen || ch == runeOrnamentOpen2:
		p.scanner.advance()

	case ch == runeOrnamentClose || ch == runeMacroClose:
		p.scanner.advance()
		p.errAt("Stray closing bracket")

	case ch == runeString:
		p.scanner.advance()
		str := p.scanner.scanIdentifier()
		// Open question spec.md §9.1, resolved in SPEC_FULL.md §D.1: pass
		// 1 must budget the string's bytes, or every label declared
		// after a string literal gets the wrong address.
		p.mem.advance(uint16(len(str)))

	case ch == runeMacroDef:
		p.scanner.advance()
		p.definePassOneMacro()

	case ch == runeMainLabel:
		p.scanner.advance()
		p.declareMainLabelPass1()

	case ch == runeSubLabel:
		p.scanner.advance()
		p.declareSubLabelPass1()

	case ch == runePadAbs:
		p.scanner.advance()
		p.parsePadding(true)

	case ch == runePadRel:
		p.scanner.advance()
		p.parsePadding(false)

	case ch == runeLiteral:
		p.scanner.advance()
		_, width, err := p.scanner.scanNumber(true)
		if err != nil {
			p.errAt(err.Error())
			return
		}
		p.mem.advance(uint16(1 + width))

	case ch == runeRefZeroPage:
		p.scanner.advance()
		p.scanner.scanIdentifier()
		p.mem.advance(2)

	case ch == runeRefAbsolute:
		p.scanner.advance()
		p.scanner.scanIdentifier()
		p.mem.advance(3)

	case ch == runeRawZeroPage:
		p.scanner.advance()
		p.scanner.scanIdentifier()
		p.mem.advance(1)

	case ch == runeRawAbsolute:
		p.scanner.advance()
		p.scanner.scanIdentifier()
		p.mem.advance(2)

	case isHexDigit(ch) && p.scanner.atHexToken():
		_, width, err := p.scanner.scanNumber(true)
		if err != nil {
			p.errAt(err.Error())
			return
		}
		p.mem.advance(uint16(width))

	default:
		ident := p.scanner.scanIdentifier()
		if _, ok := encodeOpcode(ident); ok {
			p.mem.advance(1)
		}
		// Else: a macro invocation or an unknown identifier, silently
		// skipped in pass 1 (spec.md §4.5) — see spec.md §9.4 / SPEC_FULL
		// §D.4 for the address skew this causes when a macro emits bytes.
	}
}

func (p *Program) declareMainLabelPass1() {
	p.scanner.setStart()
	name := p.scanner.scanIdentifier()
	if name == "" {
		p.errAt("Expected a label name")
		return
	}
	if _, ok := p.sym.addLabel(name, false, p.mem.pos); !ok {
		p.errAt(fmt.Sprintf("Label '%s' already exists", name))
	}
}

func (p *Program) declareSubLabelPass1() {
	p.scanner.setStart()
	name := p.scanner.scanIdentifier()
	if name == "" {
		p.errAt("Expected a label name")
		return
	}
	resolved := p.sym.resolveLabelName(name)
	if _, ok := p.sym.addLabel(name, true, p.mem.pos); !ok {
		p.errAt(fmt.Sprintf("Label '%s' already exists", resolved))
	}
}

func (p *Program) parsePadding(absolute bool) {
	v, _, err := p.scanner.scanNumber(false)
	if err != nil {
		p.errAt(err.Error())
		return
	}
	p.mem.moveMemPos(v, absolute)
}

func (p *Program) definePassOneMacro() {
	p.scanner.setStart()
	name := p.scanner.scanIdentifier()
	if name == "" {
		p.errAt("Expected a macro name")
		return
	}
	p.scanner.skipWhitespace()
	if p.scanner.peek() != runeOrnamentOpen2 {
		p.errAt("Expected '{'")
		return
	}
	p.scanner.advance()
	p.sym.addMacro(name, p.scanner.cursor())
	p.macroCount++
	p.skipMacroBody(true)
}

// skipMacroBody consumes a macro body up to (and including) its closing
// '}', without assembling it. checkNested rejects labels/macros defined
// inside the body (spec.md §9.3 / SPEC_FULL §D.3) — only needed the
// first time a macro's definition is scanned, in pass 1. The nested-
// definition check only ever looks at a token's leading sigil, never at
// a byte in the middle of one, so a reference like ".&sub" (spec.md §8
// invariant 6) is skipped as a single token rather than mistaken for a
// '&' sub-label definition partway through it.
func (p *Program) skipMacroBody(checkNested bool) {
	for !p.scanner.atEnd(true) {
		p.scanner.skipWhitespace()
		if p.scanner.atEnd(true) {
			break
		}
		ch := p.scanner.peek()
		switch {
		case ch == runeComment:
			p.scanner.advance()
			if err := p.scanner.skipComment(); err != nil {
				p.errAt(err.Error())
			}
		case ch == runeString:
			p.scanner.advance()
			p.scanner.scanIdentifier()
		case checkNested && (ch == runeMainLabel || ch == runeSubLabel || ch == runeMacroDef):
			p.scanner.setStart()
			p.scanner.advance()
			p.scanner.scanIdentifier()
			p.errAt("Macro bodies may not define labels or macros")
		default:
			p.scanner.scanIdentifier()
		}
	}
	if p.scanner.peek() == runeMacroClose {
		p.scanner.advance()
	} else {
		p.errAt("Unterminated macro body")
	}
}

// ---- pass 2: emit bytes, resolving references against pass 1's table ----

func (p *Program) runPass2(macroMode bool) {
	for !p.scanner.atEnd(macroMode) {
		p.scanner.skipWhitespace()
		if p.scanner.atEnd(macroMode) {
			break
		}
		p.scanner.setStart()
		p.pass2Dispatch()
	}
	if macroMode {
		if p.scanner.peek() == runeMacroClose {
			p.scanner.advance()
		}
		// Discard the body-start duplicate pushed by expandMacro; the
		// caller's own cursor (pushed first) is popped by expandMacro
		// itself after this call returns. This two-push/two-pop dance
		// is load-bearing — see spec.md §4.6/§9.
		p.stack.pop()
	}
}

func (p *Program) pass2Dispatch() {
	ch := p.scanner.peek()
	switch {
	case ch == runeComment:
		p.scanner.advance()
		if err := p.scanner.skipComment(); err != nil {
			p.errAt(err.Error())
		}

	case ch == runeOrnamentOpen || ch == runeOrnamentOpen2:
		p.scanner.advance()

	case ch == runeOrnamentClose || ch == runeMacroClose:
		p.scanner.advance()

	case ch == runeString:
		p.scanner.advance()
		str := p.scanner.scanIdentifier()
		if len(str) == 0 {
			p.errAt("Expected a string")
			return
		}
		for i := 0; i < len(str); i++ {
			p.emit(str[i])
		}

	case ch == runeMacroDef:
		p.scanner.advance()
		p.skipPassTwoMacroDef()

	case ch == runeMainLabel:
		p.scanner.advance()
		name := p.scanner.scanIdentifier()
		// Pass 1 already recorded this label; re-entering its scope here
		// keeps sub-label reference resolution in step with the source
		// position instead of freezing it at pass 1's final main label
		// (spec.md §4.3).
		p.sym.enterMainLabelScope(name)

	case ch == runeSubLabel:
		p.scanner.advance()
		p.scanner.scanIdentifier()

	case ch == runePadAbs:
		p.scanner.advance()
		p.parsePadding(true)

	case ch == runePadRel:
		p.scanner.advance()
		p.parsePadding(false)

	case ch == runeLiteral:
		p.scanner.advance()
		p.pass2Literal()

	case ch == runeRefZeroPage || ch == runeRefAbsolute || ch == runeRawZeroPage || ch == runeRawAbsolute:
		p.scanner.advance()
		p.pass2Ref(ch)

	case isHexDigit(ch) && p.scanner.atHexToken():
		p.pass2RawNumber()

	default:
		p.pass2Identifier()
	}
}

func (p *Program) skipPassTwoMacroDef() {
	p.scanner.scanIdentifier()
	p.scanner.skipWhitespace()
	if p.scanner.peek() == runeOrnamentOpen2 {
		p.scanner.advance()
		p.skipMacroBody(false)
	}
}

func (p *Program) pass2Literal() {
	v, width, err := p.scanner.scanNumber(true)
	if err != nil {
		p.errAt("Expected a number")
		return
	}
	if width == 1 {
		p.emit(opLIT)
		p.emit(byte(v))
		return
	}
	p.emit(opLIT | ModeShort)
	hi, lo := encoding.HiLo(v)
	p.emit(hi)
	p.emit(lo)
}

func (p *Program) pass2RawNumber() {
	v, width, err := p.scanner.scanNumber(true)
	if err != nil {
		p.errAt(err.Error())
		return
	}
	if width == 1 {
		p.emit(byte(v))
		return
	}
	hi, lo := encoding.HiLo(v)
	p.emit(hi)
	p.emit(lo)
}

func (p *Program) pass2Ref(kind byte) {
	name := p.scanner.scanIdentifier()
	if name == "" {
		p.errAt("Expected a label name")
		return
	}
	addr, ok := p.sym.getLabelAddr(name)
	if !ok {
		p.errAt(fmt.Sprintf("Label '%s' does not exist", name))
	}

	switch kind {
	case runeRefZeroPage:
		if ok && addr >= 0x100 {
			p.warnAt(fmt.Sprintf("Zeropage reference to '%s' resolves to an absolute address", name))
		}
		p.emit(opLIT)
		p.emit(byte(addr))

	case runeRefAbsolute:
		if ok && addr < 0x100 {
			p.warnAt(fmt.Sprintf("Absolute reference to '%s' resolves to a zeropage address", name))
		}
		p.emit(opLIT | ModeShort)
		hi, lo := encoding.HiLo(addr)
		p.emit(hi)
		p.emit(lo)

	case runeRawZeroPage:
		p.emit(byte(addr))

	case runeRawAbsolute:
		hi, lo := encoding.HiLo(addr)
		p.emit(hi)
		p.emit(lo)
	}
}

func (p *Program) pass2Identifier() {
	ident := p.scanner.scanIdentifier()
	if ident == "" {
		return
	}
	if b, ok := encodeOpcode(ident); ok {
		p.emit(b)
		return
	}
	if m, ok := p.sym.getMacro(ident); ok {
		p.expandMacro(m)
		return
	}
	p.errAt(fmt.Sprintf("Undefined identifier '%s'", ident))
}

// expandMacro implements spec.md §4.6's two-push/two-pop dance: the
// caller's cursor is pushed first and popped last (steps 1 and 6); a
// duplicate of the body-start cursor is pushed second and popped by
// runPass2 itself the moment the body's closing '}' is reached (step
// 5), so the caller's saved state is never disturbed by the nested
// scan.
func (p *Program) expandMacro(m *Macro) {
	p.stack.push(p.scanner.cursor())
	p.scanner.restore(m.BodyCursor)
	p.stack.push(p.scanner.cursor())

	p.runPass2(true)

	caller := p.stack.pop()
	p.scanner.restore(caller)
}
