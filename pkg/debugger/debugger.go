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

package debugger

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hexlatch/lc3vm/pkg/machine"
)

// Step fires the break callback when a pending break was requested or
// the PC has reached a breakpoint.
func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.PC == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// PrintSource writes `count` source lines starting at the line that
// assembled to addr, tagging each line that owns an address.
func (dbg *Debugger) PrintSource(w io.Writer, addr uint16, count uint16) {
	if dbg.Source == nil {
		fmt.Fprintln(w, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(w, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(w, "No instruction found at %#04x\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(w, err)
		return
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		foundaddr := false
		for lineaddr, linebyte := range dbg.SymTable.Symbols {
			if linebyte == offset {
				fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", lineaddr)
				foundaddr = true
				break
			}
		}

		if !foundaddr {
			fmt.Fprint(w, "\033[1;30m~~~~~~~~\033[0m ")
		}

		fmt.Fprintln(w, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(w, err)
	}
}

// PrintMem writes `count` memory words starting at addr, four per row,
// dimming zero words.
func (dbg *Debugger) PrintMem(w io.Writer, st *machine.State, addr, count uint16) {
	for i := addr; i < addr+count; i++ {
		if i == addr {
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		} else if (i-addr)%4 == 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		}

		value := st.Memory[i]

		if value == 0 {
			fmt.Fprintf(w, "\033[1;30m%#04x\033[0m ", value)
		} else {
			fmt.Fprintf(w, "%#04x ", value)
		}
	}

	fmt.Fprintln(w)
}
