// Copyright (C) 2024  The lc3vm Authors

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
	"bytes"
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hexlatch/lc3vm/pkg/assembler"
)

var helpvar bool
var debugvar bool
var outvar string

const usage = "lc3vm-asm [-debug] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.lc3db'",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

// printErrs renders assembly errors against the in-memory source,
// underlining the offending token when the error carries a position.
func printErrs(source []byte, errs []error) {
	for _, err := range errs {
		tokenErr, ok := err.(assembler.TokenError)

		if !ok {
			log.Println(err)
			continue
		}

		cursor := tokenErr.GetPosition()

		line := source[cursor.LineByte:]
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}

		underlinefmt := fmt.Sprintf(
			"%% %ds%s",
			int(cursor.Byte-cursor.LineByte)+1,
			strings.Repeat("~", int(cursor.Size)-1),
		)

		log.Printf(
			"%s\n%s\n\033[31m%s\033[0m",
			err,
			line,
			fmt.Sprintf(underlinefmt, "^"),
		)
	}
}

func lc3vmAsm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var infile string
	var source []byte

	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		var err error

		if source, err = io.ReadAll(os.Stdin); err != nil {
			log.Println(err)
			return 1
		}

		log.SetPrefix("\033[1m<stdin>:\033[0m")

		if outvar == "" {
			outvar = "out.bin"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 2
		}

		var err error

		if source, err = os.ReadFile(args[0]); err != nil {
			log.Println(err)
			return 1
		}

		infile = args[0]
		filename := filepath.Base(infile)
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m", filename))

		if outvar == "" {
			outvar = strings.ReplaceAll(
				filename, filepath.Ext(filename), ".bin",
			)
		}
	}

	var symtable assembler.SymTable
	var symtarget *assembler.SymTable

	if debugvar {
		if infile != "" {
			var err error

			if symtable.Source, err = filepath.Abs(infile); err != nil {
				log.Println(err)
				symtable.Source = ""
			}
		}

		symtable.Symbols = make(map[uint16]int64)
		symtable.Labels = make(map[uint16]string)
		symtarget = &symtable
	}

	image, errs := assembler.Assemble(bytes.NewReader(source), symtarget)

	if len(errs) > 0 {
		printErrs(source, errs)
		return 1
	}

	outfile, err := os.Create(outvar)

	if err != nil {
		log.Println("Error writing output file")
		log.Println(err)
		return 1
	}

	defer outfile.Close()

	if _, err := image.WriteTo(outfile); err != nil {
		log.Println("Error writing output file")
		log.Println(err)
		return 1
	}

	if debugvar {
		filename := filepath.Dir(outvar) + "/" + strings.ReplaceAll(
			filepath.Base(outvar), filepath.Ext(outvar), ".lc3db",
		)

		symfile, err := os.Create(filename)

		if err != nil {
			log.Println("Error creating symbol table")
			log.Println(err)
			return 1
		}

		defer symfile.Close()

		if err := gob.NewEncoder(symfile).Encode(symtable); err != nil {
			log.Println("Error writing symbol table")
			log.Println(err)
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(lc3vmAsm())
}
