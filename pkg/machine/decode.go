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

import (
	"github.com/hexlatch/lc3vm/pkg/encoding"
)

// Instruction is a raw instruction word. The accessors extract the
// operand fields; which of them are meaningful depends on the opcode.
//
// ADD  |0001    |DR   |SR1  |0|00 |SR2   |
// ADD  |0001    |DR   |SR1  |1|imm5      |
// AND  |0101    |DR   |SR1  |0|00 |SR2   |
// AND  |0101    |DR   |SR1  |1|imm5      |
// BR   |0000    |N|Z|P|PCoffset9         |
// JMP  |1100    |000  |BaseR|000000      |
// JSR  |0100    |1|PCoffset11            |
// JSRR |0100    |0|00 |BaseR|000000      |
// LD   |0010    |DR   |PCoffset9         |
// LDI  |1010    |DR   |PCoffset9         |
// LDR  |0110    |DR   |BaseR|offset6     |
// LEA  |1110    |DR   |PCoffset9         |
// NOT  |1001    |DR   |SR   |1|11111     |
// ST   |0011    |SR   |PCoffset9         |
// STI  |1011    |SR   |PCoffset9         |
// STR  |0111    |SR   |BaseR|offset6     |
// TRAP |1111    |0000 |trapvect8        |
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type Instruction uint16

// Opcode returns the top four bits.
func (in Instruction) Opcode() Opcode {
	return Opcode(in >> 12)
}

// DR returns bits 11-9, the destination register of ADD, AND, NOT, and
// the loads. The same field holds SR for the stores and the condition
// mask for BR.
func (in Instruction) DR() uint16 {
	return uint16(in>>9) & 0x7
}

// SR1 returns bits 8-6, the first source register. The same field holds
// BaseR for JMP, JSRR, LDR, and STR.
func (in Instruction) SR1() uint16 {
	return uint16(in>>6) & 0x7
}

// SR2 returns bits 2-0, the second source register of register-mode ADD
// and AND.
func (in Instruction) SR2() uint16 {
	return uint16(in) & 0x7
}

// Immediate reports whether bit 5, the ADD/AND mode flag, is set.
func (in Instruction) Immediate() bool {
	return in&(1<<5) != 0
}

// Imm5 returns the sign-extended 5-bit immediate of ADD and AND.
func (in Instruction) Imm5() uint16 {
	return encoding.SignExtend(uint16(in), 5)
}

// Offset6 returns the sign-extended 6-bit offset of LDR and STR.
func (in Instruction) Offset6() uint16 {
	return encoding.SignExtend(uint16(in), 6)
}

// PCOffset9 returns the sign-extended 9-bit PC-relative offset of BR, LD,
// LDI, LEA, ST, and STI.
func (in Instruction) PCOffset9() uint16 {
	return encoding.SignExtend(uint16(in), 9)
}

// PCOffset11 returns the sign-extended 11-bit PC-relative offset of JSR.
func (in Instruction) PCOffset11() uint16 {
	return encoding.SignExtend(uint16(in), 11)
}

// Relative reports whether bit 11, the JSR/JSRR mode flag, is set.
func (in Instruction) Relative() bool {
	return in&(1<<11) != 0
}

// CondMask returns bits 11-9 of BR: the N/Z/P flags the branch tests.
func (in Instruction) CondMask() uint16 {
	return uint16(in>>9) & 0x7
}

// TrapVector returns the zero-extended 8-bit vector of TRAP.
func (in Instruction) TrapVector() uint16 {
	return encoding.ZeroExtend(uint16(in), 8)
}
