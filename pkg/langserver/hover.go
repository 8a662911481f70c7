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

package langserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/uxntools/uxnasm/pkg/assembler"
)

// wordAt extracts the whitespace-delimited token containing col on
// line, both zero-based.
func wordAt(text string, line, col int) string {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	s := lines[line]
	if col < 0 || col > len(s) {
		return ""
	}

	start, end := col, col
	for start > 0 && !isWordBoundary(s[start-1]) {
		start--
	}
	for end < len(s) && !isWordBoundary(s[end]) {
		end++
	}
	return s[start:end]
}

func isWordBoundary(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}

func hoverRequest(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := TextDocumentPositionParams{}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		replyInvalidParams(conn, req)
		return
	}

	doc := documentMap[string(params.TextDocument.URI)]
	token := wordAt(doc.Text, params.Position.Line, params.Position.Character)
	if token == "" {
		conn.Reply(context.Background(), req.ID, nil)
		return
	}

	text, ok := describeToken(token, doc.lastResult)
	if !ok {
		conn.Reply(context.Background(), req.ID, nil)
		return
	}

	conn.Reply(context.Background(), req.ID, Hover{
		Contents: MarkupContent{Kind: "markdown", Value: text},
	})
}

func describeToken(token string, result *assembler.Result) (string, bool) {
	if desc, ok := assembler.DescribeOpcode(token); ok {
		return fmt.Sprintf("`%s` — opcode %s", token, desc), true
	}

	if result == nil {
		return "", false
	}

	name := token
	switch token[0] {
	case '@', '&', '.', ';', '-', '=', '#':
		name = token[1:]
	}

	if label, ok := result.Labels[name]; ok {
		return fmt.Sprintf("`%s` — label at 0x%04x (used %d times)", name, label.Address, label.UsageCount), true
	}

	for key, label := range result.Labels {
		if strings.HasSuffix(key, "/"+name) {
			return fmt.Sprintf("`%s` — label at 0x%04x (used %d times)", key, label.Address, label.UsageCount), true
		}
	}

	return "", false
}
