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

// Diagnostics accumulates every error and warning a run produces.
// hadError is sticky: once set, subsequent warnings are suppressed
// (spec.md §4.7), though they're still counted for callers that care.
type Diagnostics struct {
	entries      []Diagnostic
	hadError     bool
	promoteWarn  bool
	suppressedWn int
}

// NewDiagnostics returns an empty accumulator. If werror is true,
// warnings are recorded as errors, promoting "no output" the same way
// spec.md §7 already gates output on hadError (spec_full.md §C).
func NewDiagnostics(werror bool) *Diagnostics {
	return &Diagnostics{promoteWarn: werror}
}

func (d *Diagnostics) report(line, char int, warning bool, message string) {
	if warning && !d.promoteWarn {
		if d.hadError {
			d.suppressedWn++
			return
		}
		d.entries = append(d.entries, Diagnostic{Line: line, Char: char, Warning: true, Message: message})
		return
	}
	d.entries = append(d.entries, Diagnostic{Line: line, Char: char, Warning: false, Message: message})
	d.hadError = true
}

func (d *Diagnostics) HadError() bool { return d.hadError }

func (d *Diagnostics) Entries() []Diagnostic { return d.entries }

// SuppressedWarnings reports how many warnings were dropped because an
// error had already been recorded.
func (d *Diagnostics) SuppressedWarnings() int { return d.suppressedWn }
