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

package machine

// Condition flags. Exactly one is set at any time.
const (
	FlagPositive uint16 = 1 << 0
	FlagZero     uint16 = 1 << 1
	FlagNegative uint16 = 1 << 2
)

// Trap vectors handled by the dispatcher.
const (
	TrapGETC  uint16 = 0x20
	TrapOUT   uint16 = 0x21
	TrapPUTS  uint16 = 0x22
	TrapIN    uint16 = 0x23
	TrapPUTSP uint16 = 0x24
	TrapHALT  uint16 = 0x25
)

// ProgramStart is the conventional load and start address for user
// programs.
const ProgramStart uint16 = 0x3000

// Memory-mapped device registers. Reads of KBSR poll the keyboard; the
// pending byte, if any, lands in KBDR.
const (
	AddrKBSR uint16 = 0xFE00
	AddrKBDR uint16 = 0xFE02
)

// Opcode identifies one of the sixteen instruction classes held in the
// top four bits of an instruction word.
type Opcode uint16

const (
	OpBR   Opcode = 0b0000
	OpADD  Opcode = 0b0001
	OpLD   Opcode = 0b0010
	OpST   Opcode = 0b0011
	OpJSR  Opcode = 0b0100
	OpAND  Opcode = 0b0101
	OpLDR  Opcode = 0b0110
	OpSTR  Opcode = 0b0111
	OpRTI  Opcode = 0b1000
	OpNOT  Opcode = 0b1001
	OpLDI  Opcode = 0b1010
	OpSTI  Opcode = 0b1011
	OpJMP  Opcode = 0b1100
	OpRES  Opcode = 0b1101
	OpLEA  Opcode = 0b1110
	OpTRAP Opcode = 0b1111
)

var opcodeNames = [16]string{
	OpBR:   "BR",
	OpADD:  "ADD",
	OpLD:   "LD",
	OpST:   "ST",
	OpJSR:  "JSR",
	OpAND:  "AND",
	OpLDR:  "LDR",
	OpSTR:  "STR",
	OpRTI:  "RTI",
	OpNOT:  "NOT",
	OpLDI:  "LDI",
	OpSTI:  "STI",
	OpJMP:  "JMP",
	OpRES:  "RES",
	OpLEA:  "LEA",
	OpTRAP: "TRAP",
}

func (op Opcode) String() string {
	if op > 0xF {
		return "INVALID"
	}

	return opcodeNames[op]
}
