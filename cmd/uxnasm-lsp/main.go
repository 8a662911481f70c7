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

package main

import (
	"flag"
	"log"
	"os"

	"github.com/uxntools/uxnasm/pkg/langserver"
)

var tcpAddr string

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
	log.SetPrefix("uxnasm-lsp: ")
}

func init() {
	flag.StringVar(&tcpAddr, "tcp", "", "Listen for TCP connections on this address instead of stdio")
	flag.Parse()
}

func main() {
	if tcpAddr != "" {
		if err := langserver.ListenAndServeTCP(tcpAddr); err != nil {
			log.Fatal(err)
		}
		return
	}
	langserver.ListenAndServe()
}
