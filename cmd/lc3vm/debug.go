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
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hexlatch/lc3vm/pkg/console"
	"github.com/hexlatch/lc3vm/pkg/debugger"
	"github.com/hexlatch/lc3vm/pkg/encoding"
	"github.com/hexlatch/lc3vm/pkg/machine"
)

var lastcmd []string

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usage = "break [add|list|remove]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		exists := false

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Addr == addr {
				exists = true
				break
			}
		}

		if !exists {
			dbg.Breakpoints = append(
				dbg.Breakpoints,
				debugger.Breakpoint{Addr: addr},
			)

			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		const usage = "break list"

		if len(args) != 0 {
			log.Println(usage)
			return
		}

		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Breakpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#x\n", int64(digits)+1)
		}

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Breakpoints)) {
			log.Println("Invalid breakpoint number")
			return
		}

		dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
		dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = make([]debugger.Breakpoint, 0)
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm]"

	if len(args) == 0 {
		log.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		exists := false

		for _, watchpoint := range dbg.Watchpoints {
			if watchpoint.Addr == addr && watchpoint.Type == wtype {
				exists = true
				break
			}
		}

		if !exists {
			dbg.Watchpoints = append(
				dbg.Watchpoints,
				debugger.Watchpoint{Addr: addr, Type: wtype},
			)

			var typename string
			switch wtype {
			case debugger.ReadWatch:
				typename = "R"
			case debugger.WriteWatch:
				typename = "W"
			case debugger.ReadWriteWatch:
				typename = "RW"
			}

			fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, typename)
		}

	case "l", "ls", "list":
		const usage = "watch list"

		if len(args) != 0 {
			log.Println(usage)
			return
		}

		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Watchpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#x %%s\n", int64(digits)+1)
		}

		for i, watchpoint := range dbg.Watchpoints {
			switch watchpoint.Type {
			case debugger.WriteWatch:
				fmt.Printf(fmtstring, i, watchpoint.Addr, "write")
			case debugger.ReadWatch:
				fmt.Printf(fmtstring, i, watchpoint.Addr, "read")
			case debugger.ReadWriteWatch:
				fmt.Printf(fmtstring, i, watchpoint.Addr, "rwrite")
			}
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			log.Println("Invalid watchpoint number")
			return
		}

		dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
		dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = make([]debugger.Watchpoint, 0)
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
	}
}

func debugReg(st *machine.State, args []string) {
	const usage = "register [R#|PC|COND] [0x####]"

	if len(args) > 0 {
		if len(args) != 2 {
			log.Println(usage)
			return
		}

		value, err := encoding.DecodeHex(args[1])

		if err != nil {
			log.Println(err)
			return
		}

		args[0] = strings.ToUpper(args[0])

		switch args[0] {
		case "R0":
			st.Registers[0] = value
		case "R1":
			st.Registers[1] = value
		case "R2":
			st.Registers[2] = value
		case "R3":
			st.Registers[3] = value
		case "R4":
			st.Registers[4] = value
		case "R5":
			st.Registers[5] = value
		case "R6":
			st.Registers[6] = value
		case "R7":
			st.Registers[7] = value
		case "PC":
			st.PC = value
		case "COND":
			st.Cond = value
		default:
			log.Println("Invalid register")
			return
		}

		fmt.Printf("\033[1m%s:\033[0m %#04x\n", args[0], value)
	} else {
		for i, register := range st.Registers {
			fmt.Printf("\033[1mR%d:\033[0m %#04x\t", i, register)
			if i == (len(st.Registers)-1)/2 {
				fmt.Println()
			}
		}

		fmt.Println()
		fmt.Printf(
			"\033[1mPC:\033[0m %#04x\t\033[1mCOND:\033[0m %#04x\n",
			st.PC,
			st.Cond,
		)
	}
}

func debugSource(dbg *debugger.Debugger, st *machine.State, args []string) {
	const usage = "source [0x####|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	var addr uint16 = st.PC
	var size uint16 = 3
	var err error = nil

	if len(args) > 0 {
		isLabel := false
		for labelAddr, label := range dbg.SymTable.Labels {
			if label == args[0] {
				isLabel = true
				addr = labelAddr
				break
			}
		}

		if !isLabel {
			addr, err = encoding.DecodeHex(args[0])

			if err != nil {
				var value int64
				value, err = strconv.ParseInt(args[0], 10, 16)

				if err != nil {
					log.Println(err)
					return
				}

				addr = st.PC
				size = uint16(value)
			}
		}
	}

	if len(args) > 1 {
		var value int64
		value, err = strconv.ParseInt(args[1], 10, 16)

		if err != nil {
			log.Println(err)
			return
		}

		size = uint16(value)
	}

	dbg.PrintSource(os.Stdout, addr, size)
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	const usage = "labels"

	if len(args) > 0 {
		fmt.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Printf(
			"\033[1m[%#04x]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}

func debugJump(dbg *debugger.Debugger, st *machine.State, args []string) {
	const usage = "jump [0x####|label]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	if addr, err := encoding.DecodeHex(args[0]); err == nil {
		st.PC = addr

		fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
	} else if dbg.SymTable != nil {
		for addr, label := range dbg.SymTable.Labels {
			if label == args[0] {
				st.PC = addr
				fmt.Printf(
					"\033[1mPC:\033[0m %#04x \033[1;30m(%s)\033[0m\n",
					addr,
					label,
				)
				return
			}
		}

		fmt.Printf("Unable to find '%s'\n", args[0])
	} else {
		fmt.Println("No symbol table loaded")
	}
}

func debugMemory(dbg *debugger.Debugger, st *machine.State, args []string) {
	const usage = "memory [0x####|#] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	var size uint16 = 1
	var addr uint16 = st.PC
	var err error

	if len(args) > 0 {
		addr, err = encoding.DecodeHex(args[0])

		if err != nil {
			var value int64
			value, err = strconv.ParseInt(args[0], 10, 16)

			if err != nil {
				log.Println(err)
				return
			}

			addr = st.PC
			size = uint16(value)
		}
	}

	if len(args) > 1 {
		var value int64
		value, err = strconv.ParseInt(args[1], 10, 16)

		if err != nil {
			log.Println(err)
			return
		}

		size = uint16(value)
	}

	dbg.PrintMem(os.Stdout, st, addr, size)
}

func debugSet(dbg *debugger.Debugger, st *machine.State, args []string) {
	const usage = "set [0x####] [0x####]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	var addr uint16
	var value uint16
	var err error

	addr, err = encoding.DecodeHex(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	value, err = encoding.DecodeHex(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	st.Memory[addr] = value
	dbg.PrintMem(os.Stdout, st, addr, 1)
}

func debugREPL(cons *console.Console, dbg *debugger.Debugger, mc *machine.Machine) {
	cons.Cooked()
	defer cons.Resume()

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		line, err := cons.ReadLine()

		if err != nil {
			fmt.Println()
			mc.Halt()
			return
		}

		args := strings.Split(strings.TrimSpace(line), " ")

		if len(args[0]) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(&mc.State, args)

		case "s", "src", "source":
			debugSource(dbg, &mc.State, args)

		case "l", "label", "labels":
			debugLabels(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, &mc.State, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, args)

		case "set":
			debugSet(dbg, &mc.State, args)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			mc.Halt()
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(cons *console.Console, dbg *debugger.Debugger, mc *machine.Machine) {
	if !dbg.Break {
		fmt.Println()
		fmt.Println("Program stopped")
		dbg.PrintSource(os.Stdout, mc.State.PC, 8)
	}
	debugREPL(cons, dbg, mc)
}

func handleWatch(cons *console.Console, addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(os.Stdout, &mc.State, addr, 1)
	debugREPL(cons, dbg, mc)
}
