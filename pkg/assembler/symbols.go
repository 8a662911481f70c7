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

import "strings"

// symbolTable holds the single label mapping (main labels keyed by
// their bare name, sub-labels keyed by "<mainlabel>/<subname>") and the
// macro mapping, plus the main label currently in scope for resolving
// sub-label references.
type symbolTable struct {
	labels        map[string]*Label
	macros        map[string]*Macro
	lastMainLabel *Label
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		labels: make(map[string]*Label),
		macros: make(map[string]*Macro),
	}
}

// resolveLabelName returns "<lastMainLabel>/<name>" if a main label is
// currently in scope, else name unchanged.
func (t *symbolTable) resolveLabelName(name string) string {
	if t.lastMainLabel != nil {
		return t.lastMainLabel.Name + "/" + name
	}
	return name
}

// addLabel constructs a Label at the given address. A main label
// becomes the new scope for subsequent sub-labels; a sub-label is keyed
// by resolveLabelName. Returns false if the key already exists.
func (t *symbolTable) addLabel(name string, isSub bool, address uint16) (*Label, bool) {
	key := name
	var parent *Label
	if isSub {
		key = t.resolveLabelName(name)
		parent = t.lastMainLabel
	}
	if _, exists := t.labels[key]; exists {
		return nil, false
	}
	label := &Label{Name: key, Address: address, Parent: parent}
	t.labels[key] = label
	if !isSub {
		t.lastMainLabel = label
	}
	return label, true
}

// getLabelAddr looks up name directly, then via resolveLabelName. A
// leading '&' forces the current-scope sub-label reading regardless of
// a direct match (".&sub" — spec.md §8 invariant 6), since a bare
// "&sub" is never itself a valid label key. Successful lookups bump the
// label's usage count and its parent's.
func (t *symbolTable) getLabelAddr(name string) (uint16, bool) {
	var label *Label
	var ok bool
	if strings.HasPrefix(name, "&") {
		label, ok = t.labels[t.resolveLabelName(name[1:])]
	} else {
		label, ok = t.labels[name]
		if !ok {
			label, ok = t.labels[t.resolveLabelName(name)]
		}
	}
	if !ok {
		return 0, false
	}
	label.UsageCount++
	if label.Parent != nil {
		label.Parent.UsageCount++
	}
	return label.Address, true
}

// enterMainLabelScope sets name as the main label currently in scope,
// the way addLabel does when a main label is declared. Pass 2 uses this
// to keep sub-label reference resolution in step with the textual
// position of the reference, rather than frozen at whichever main
// label pass 1 declared last (spec.md §4.3).
func (t *symbolTable) enterMainLabelScope(name string) {
	if label, ok := t.labels[name]; ok {
		t.lastMainLabel = label
	}
}

// labelExists is true iff either name or resolveLabelName(name) is a
// known label.
func (t *symbolTable) labelExists(name string) bool {
	if _, ok := t.labels[name]; ok {
		return true
	}
	_, ok := t.labels[t.resolveLabelName(name)]
	return ok
}

// addMacro stores a macro's body cursor, silently overwriting a prior
// definition of the same name.
func (t *symbolTable) addMacro(name string, body Cursor) {
	t.macros[name] = &Macro{Name: name, BodyCursor: body}
}

func (t *symbolTable) getMacro(name string) (*Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}
