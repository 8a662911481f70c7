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
	"encoding/gob"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/uxntools/uxnasm/pkg/assembler"
)

var (
	debugvar   bool
	outvar     string
	werrorvar  bool
	versionvar bool
)

const usage = "uxnasm [-debug] [-Werror] [-out outfile] input.tal output.rom"

const version = "uxnasm 0.1.0"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&debugvar, "debug", false,
		"Write a '.sym' label/address side-table next to the output ROM")
	flag.BoolVar(&werrorvar, "Werror", false,
		"Promote warnings to errors")
	flag.StringVar(&outvar, "out", "",
		"Override the output path positional argument")
	flag.BoolVar(&versionvar, "v", false, "Print version and exit")
	flag.BoolVar(&versionvar, "version", false, "Print version and exit")
	flag.Parse()
}

// isatty decides whether the diagnostic printer may emit ANSI SGR
// codes, reading stdout's terminal state the same way term.go reads (to
// mutate) stdin's.
func isatty(fd int) bool {
	_, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	return err == nil
}

func colorize(on bool, code, s string) string {
	if !on {
		return s
	}
	return fmt.Sprintf("\033[%sm%s\033[0m", code, s)
}

func uxnasm() int {
	if versionvar {
		fmt.Println(version)
		return 0
	}

	args := flag.Args()
	if len(args) != 2 {
		log.Println(usage)
		return -1
	}
	infile, outfile := args[0], args[1]
	if outvar != "" {
		outfile = outvar
	}

	data, err := os.ReadFile(infile)
	if err != nil {
		log.Println(err)
		return -1
	}

	log.SetPrefix(colorize(isatty(1), "1", infile+": "))

	start := time.Now()
	result := assembler.Assemble(string(data), assembler.Options{Werror: werrorvar})
	elapsed := time.Since(start)

	color := isatty(1)
	for _, d := range result.Diagnostics.Entries() {
		kind := "31"
		if d.Warning {
			kind = "33"
		}
		log.Println(colorize(color, kind, d.String()))
	}

	if result.Diagnostics.HadError() {
		return 0
	}

	if len(result.Code) == 0 {
		log.Println(colorize(color, "33", "Warning: Output rom is empty."))
	}

	if err := os.WriteFile(outfile, result.Code, 0644); err != nil {
		log.Println(err)
		return -1
	}

	if debugvar {
		if err := writeSymFile(outfile, infile, result); err != nil {
			log.Println(err)
			return -1
		}
	}

	printSummary(infile, result, elapsed)

	return 0
}

func printSummary(infile string, result *assembler.Result, elapsed time.Duration) {
	fmt.Printf("Assembled '%s' in %dms\n", infile, elapsed.Milliseconds())

	bytes := len(result.Code)
	pct := float64(bytes) / 652.80
	overflow := ""
	if bytes >= 0xffff {
		overflow = "!"
	}

	labelCount := 0
	for range result.Labels {
		labelCount++
	}
	labelPlural := "s"
	if labelCount == 1 {
		labelPlural = ""
	}

	fmt.Printf(
		"%d bytes (%.2f%%%s), %d label%s, %d macro%s.\n",
		bytes, pct, overflow, labelCount, labelPlural,
		result.MacroCount, pluralMacro(result.MacroCount),
	)
}

func pluralMacro(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// writeSymFile gob-encodes the label table next to outfile, replacing
// a '.rom' suffix with '.sym' (or appending '.sym' to any other name) — the same renaming idiom
// cmd/golc3-asm/main.go uses for its '.lc3db' file, repurposed to carry
// a label table instead of LC-3 line-number offsets.
func writeSymFile(outfile, infile string, result *assembler.Result) error {
	symPath := strings.TrimSuffix(outfile, ".rom") + ".sym"
	if symPath == outfile {
		symPath = outfile + ".sym"
	}

	table := assembler.SymTable{Source: infile, Labels: make(map[string]assembler.SymLabel, len(result.Labels))}
	for name, l := range result.Labels {
		table.Labels[name] = assembler.SymLabel{Address: l.Address, UsageCount: l.UsageCount}
	}

	file, err := os.Create(symPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(table)
}

func main() {
	code := uxnasm()
	if code != 0 {
		os.Exit(code)
	}
}
