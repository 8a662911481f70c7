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

	"github.com/sourcegraph/jsonrpc2"

	"github.com/uxntools/uxnasm/pkg/assembler"
)

var documentMap = make(map[string]TextDocumentItem)

func assembleAndPublish(conn *jsonrpc2.Conn, uri DocumentUri, version int) {
	doc := documentMap[string(uri)]
	result := assembler.Assemble(doc.Text, assembler.Options{})
	doc.lastResult = result
	documentMap[string(uri)] = doc

	diagnostics := make([]Diagnostic, 0, len(result.Diagnostics.Entries()))
	for _, d := range result.Diagnostics.Entries() {
		diagnostics = append(diagnostics, toLSPDiagnostic(d))
	}

	conn.Notify(context.Background(), "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diagnostics,
	})
}

func replyInvalidParams(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	rpcErr := jsonrpc2.Error{}
	rpcErr.SetError("invalid parameters")
	conn.ReplyWithError(context.Background(), req.ID, &rpcErr)
}

func documentOpenNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DidOpenTextDocumentParams{}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		replyInvalidParams(conn, req)
		return
	}
	documentMap[string(params.TextDocument.URI)] = params.TextDocument
	assembleAndPublish(conn, params.TextDocument.URI, params.TextDocument.Version)
}

func documentCloseNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DidCloseTextDocumentParams{}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		replyInvalidParams(conn, req)
		return
	}
	delete(documentMap, string(params.TextDocument.URI))
}

func documentChangeNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DidChangeTextDocumentParams{}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		replyInvalidParams(conn, req)
		return
	}

	doc := documentMap[string(params.TextDocument.URI)]
	if len(params.ContentChanges) > 0 {
		doc.Text = params.ContentChanges[0].Text
	}
	doc.Version = params.TextDocument.Version
	documentMap[string(params.TextDocument.URI)] = doc

	assembleAndPublish(conn, params.TextDocument.URI, doc.Version)
}

func documentDiagnosticRequest(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DocumentDiagnosticParams{}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		replyInvalidParams(conn, req)
		return
	}

	doc := documentMap[string(params.TextDocument.URI)]
	items := make([]Diagnostic, 0)
	if doc.lastResult != nil {
		for _, d := range doc.lastResult.Diagnostics.Entries() {
			items = append(items, toLSPDiagnostic(d))
		}
	}

	conn.Reply(context.Background(), req.ID, DocumentDiagnosticReport{Kind: "full", Items: items})
}
