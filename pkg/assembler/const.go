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

package assembler

const (
	TokenNone TokenType = iota
	TokenIdent
	TokenDirective
	TokenString
	TokenLiteral
)

// Operand field widths, in bits.
const (
	LiteralImm5       LiteralType = 5
	LiteralOffset6    LiteralType = 6
	LiteralTrapvec8   LiteralType = 8
	LiteralPCOffset9  LiteralType = 9
	LiteralPCOffset11 LiteralType = 11
	LiteralWord       LiteralType = 16
)

const (
	DirectiveInvalid DirectiveType = iota
	DirectiveOrig
	DirectiveFill
	DirectiveBlkw
	DirectiveStringz
	DirectiveEnd
)

var directives = map[string]DirectiveType{
	".ORIG":    DirectiveOrig,
	".FILL":    DirectiveFill,
	".BLKW":    DirectiveBlkw,
	".STRINGZ": DirectiveStringz,
	".END":     DirectiveEnd,
}

// shape describes the operand list an instruction mnemonic expects.
type shape uint

const (
	// no operands (RET, trap aliases)
	shapeNone shape = iota
	// DR, SR1, SR2-or-imm5 (ADD, AND)
	shapeRegRegArg
	// DR, SR (NOT)
	shapeRegReg
	// BaseR (JMP, JSRR)
	shapeReg
	// label (BR variants, JSR)
	shapeLabel
	// DR/SR, label (LD, LDI, LEA, ST, STI)
	shapeRegLabel
	// DR/SR, BaseR, offset6 (LDR, STR)
	shapeRegRegOffset
	// trapvect8 (TRAP)
	shapeVector
)

// spec is one row of the mnemonic table: the fixed bits of the encoded
// word (opcode, condition masks, trap vectors, the NOT trailer) plus the
// operand shape and, for label shapes, the offset field width.
type spec struct {
	bits  uint16
	shape shape
	width LiteralType
}

var mnemonics = map[string]spec{
	"ADD": {bits: 0b0001 << 12, shape: shapeRegRegArg},
	"AND": {bits: 0b0101 << 12, shape: shapeRegRegArg},
	"NOT": {bits: 0b1001<<12 | 0x3F, shape: shapeRegReg},

	"BR":    {bits: 0x7 << 9, shape: shapeLabel, width: LiteralPCOffset9},
	"BRN":   {bits: 0x4 << 9, shape: shapeLabel, width: LiteralPCOffset9},
	"BRZ":   {bits: 0x2 << 9, shape: shapeLabel, width: LiteralPCOffset9},
	"BRP":   {bits: 0x1 << 9, shape: shapeLabel, width: LiteralPCOffset9},
	"BRNZ":  {bits: 0x6 << 9, shape: shapeLabel, width: LiteralPCOffset9},
	"BRZP":  {bits: 0x3 << 9, shape: shapeLabel, width: LiteralPCOffset9},
	"BRNP":  {bits: 0x5 << 9, shape: shapeLabel, width: LiteralPCOffset9},
	"BRNZP": {bits: 0x7 << 9, shape: shapeLabel, width: LiteralPCOffset9},

	"JMP":  {bits: 0b1100 << 12, shape: shapeReg},
	"RET":  {bits: 0b1100<<12 | 7<<6, shape: shapeNone},
	"JSR":  {bits: 0b0100<<12 | 1<<11, shape: shapeLabel, width: LiteralPCOffset11},
	"JSRR": {bits: 0b0100 << 12, shape: shapeReg},

	"LD":  {bits: 0b0010 << 12, shape: shapeRegLabel, width: LiteralPCOffset9},
	"LDI": {bits: 0b1010 << 12, shape: shapeRegLabel, width: LiteralPCOffset9},
	"LEA": {bits: 0b1110 << 12, shape: shapeRegLabel, width: LiteralPCOffset9},
	"ST":  {bits: 0b0011 << 12, shape: shapeRegLabel, width: LiteralPCOffset9},
	"STI": {bits: 0b1011 << 12, shape: shapeRegLabel, width: LiteralPCOffset9},

	"LDR": {bits: 0b0110 << 12, shape: shapeRegRegOffset},
	"STR": {bits: 0b0111 << 12, shape: shapeRegRegOffset},

	"TRAP":  {bits: 0b1111 << 12, shape: shapeVector},
	"GETC":  {bits: 0b1111<<12 | 0x20, shape: shapeNone},
	"OUT":   {bits: 0b1111<<12 | 0x21, shape: shapeNone},
	"PUTS":  {bits: 0b1111<<12 | 0x22, shape: shapeNone},
	"IN":    {bits: 0b1111<<12 | 0x23, shape: shapeNone},
	"PUTSP": {bits: 0b1111<<12 | 0x24, shape: shapeNone},
	"HALT":  {bits: 0b1111<<12 | 0x25, shape: shapeNone},
}

var registers = map[string]uint16{
	"R0": 0, "R1": 1, "R2": 2, "R3": 3,
	"R4": 4, "R5": 5, "R6": 6, "R7": 7,
}
