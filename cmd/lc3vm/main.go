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
	"context"
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/hexlatch/lc3vm/pkg/assembler"
	"github.com/hexlatch/lc3vm/pkg/console"
	"github.com/hexlatch/lc3vm/pkg/debugger"
	"github.com/hexlatch/lc3vm/pkg/machine"
)

var helpvar bool
var debugvar bool

const usage = "lc3vm [-debug] image-file ..."

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.Parse()
}

// loadSymbols looks for a .lc3db symbol table next to the image and
// attaches it, with its source file, to the debugger. Missing symbols
// are not fatal; the debugger just loses source listings.
func loadSymbols(dbg *debugger.Debugger, imagePath string) {
	filename := filepath.Dir(imagePath) + "/" + strings.ReplaceAll(
		filepath.Base(imagePath), filepath.Ext(imagePath), ".lc3db",
	)

	file, err := os.Open(filename)

	if err != nil {
		log.Println("Error loading symbol file")
		log.Println(err)
		return
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		log.Println("Error loading symbol file")
		log.Println(err)
		return
	}

	dbg.SymTable = &symtable

	if symtable.Source == "" {
		return
	}

	if source, err := os.Open(symtable.Source); err == nil {
		dbg.Source = source
	} else {
		log.Println("Error loading source file")
		log.Println(err)
	}
}

func lc3vm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) < 1 {
		log.Println(usage)
		return 2
	}

	var mc machine.Machine
	mc.Reset()

	for _, arg := range args {
		file, err := os.Open(arg)

		if err != nil {
			log.Println(err)
			return 1
		}

		err = mc.LoadImage(file)
		file.Close()

		if err != nil {
			log.Printf("failed to load image %s: %v", arg, err)
			return 1
		}
	}

	cons := console.New(os.Stdin, os.Stdout)
	mc.Devices = &machine.DeviceHandler{Keyboard: cons, Display: cons}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cons.Raw(os.Stdin); err != nil {
		log.Println(err)
		return 1
	}

	defer cons.Restore()

	if debugvar {
		var dbg debugger.Debugger

		dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
			handleBreak(cons, dbg, mc)
		}
		dbg.HandleRead = func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
			handleWatch(cons, addr, dbg, mc)
		}
		dbg.HandleWrite = func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
			handleWatch(cons, addr, dbg, mc)
		}

		loadSymbols(&dbg, args[0])

		if dbg.Source != nil {
			defer dbg.Source.Close()
		}

		mc.Hooks = &dbg

		debugREPL(cons, &dbg, &mc)
	}

	err := mc.Run(ctx)

	cons.Restore()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println()
			return 130
		}

		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(lc3vm())
}
