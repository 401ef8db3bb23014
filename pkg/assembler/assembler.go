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

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	"github.com/hexlatch/lc3vm/pkg/encoding"
)

const defaultOrigin = 0x3000

type labelRef struct {
	label    string
	addr     uint16
	width    LiteralType
	position Cursor
}

type fillRef struct {
	label    string
	addr     uint16
	position Cursor
}

// Assemble turns LC-3 assembly into an image. All errors are collected
// rather than stopping at the first; an image is only meaningful when no
// errors are returned. When symtable is non-nil it is filled with
// address-to-source mappings for the debugger.
func Assemble(input io.Reader, symtable *SymTable) (*Image, []error) {
	var errs []error

	var labels = make(map[string]uint16)
	var labelRefs []labelRef
	var fillRefs []fillRef

	var scratch [1 << 16]uint16
	var pc uint32 = defaultOrigin
	var origin uint16 = defaultOrigin

	lo, hi := -1, -1

	emit := func(word uint16) bool {
		if pc > 0xFFFF {
			errs = append(errs, &OversizedBinaryError{})
			return false
		}

		scratch[pc] = word

		if lo < 0 || int(pc) < lo {
			lo = int(pc)
		}

		if int(pc) > hi {
			hi = int(pc)
		}

		pc++

		return true
	}

	scanner := bufio.NewScanner(input)

	lineNum := 1
	lineByte := int64(0)

scan:
	for scanner.Scan() {
		line := scanner.Text()

		tokens, lineErrs := scanLine(line, lineNum, lineByte)
		errs = append(errs, lineErrs...)

		lineNum++
		lineByte += int64(len(line) + 1)

		if len(tokens) == 0 || len(lineErrs) > 0 {
			continue
		}

		// An identifier that is not a mnemonic declares a label at the
		// current address.
		if tokens[0].Type == TokenIdent && !isMnemonic(tokens[0].Value) {
			label := tokens[0]

			if _, exists := labels[label.Value]; exists {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			} else {
				labels[label.Value] = uint16(pc)
			}

			tokens = tokens[1:]

			if len(tokens) == 0 {
				continue
			}
		}

		keyword := tokens[0]
		operands := tokens[1:]

		switch keyword.Type {
		case TokenDirective:
			directive := directives[strings.ToUpper(keyword.Value)]

			if directive == DirectiveInvalid {
				errs = append(
					errs,
					&UnknownIdentifierError{keyword.Position, keyword.Value},
				)

				continue
			}

			if directive == DirectiveEnd {
				if count := len(operands); count != 0 {
					errs = append(
						errs,
						&InvalidNumArgumentsError{keyword.Position, 0, count},
					)
				}

				break scan
			}

			if count := len(operands); count != 1 {
				errs = append(
					errs,
					&InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				continue
			}

			if symtable != nil && directive != DirectiveOrig {
				symtable.Symbols[uint16(pc)] = lineByte - int64(len(line)+1)
			}

			switch directive {
			case DirectiveOrig:
				literal, err := parseLiteral(&operands[0], LiteralWord)

				if err != nil {
					errs = append(errs, err)
					continue
				}

				pc = uint32(literal)

				if lo < 0 {
					origin = literal
				}

			case DirectiveFill:
				switch operands[0].Type {
				case TokenLiteral:
					literal, err := parseLiteral(&operands[0], LiteralWord)

					if err != nil {
						errs = append(errs, err)
					}

					emit(literal)

				case TokenIdent:
					if addr, exists := labels[operands[0].Value]; exists {
						emit(addr)
					} else {
						fillRefs = append(fillRefs, fillRef{
							operands[0].Value,
							uint16(pc),
							operands[0].Position,
						})
						emit(0)
					}

				default:
					errs = append(errs, &InvalidOperandError{
						operands[0].Position,
						[]TokenType{TokenLiteral, TokenIdent},
						operands[0].Type,
					})
				}

			case DirectiveBlkw:
				if operands[0].Type != TokenLiteral {
					errs = append(errs, &InvalidOperandError{
						operands[0].Position,
						[]TokenType{TokenLiteral},
						operands[0].Type,
					})

					continue
				}

				literal, err := parseLiteral(&operands[0], LiteralWord)

				if err != nil {
					errs = append(errs, err)
					continue
				}

				for i := uint16(0); i < literal; i++ {
					if !emit(0) {
						break
					}
				}

			case DirectiveStringz:
				if operands[0].Type != TokenString {
					errs = append(errs, &InvalidOperandError{
						operands[0].Position,
						[]TokenType{TokenString},
						operands[0].Type,
					})

					continue
				}

				s, err := strconv.Unquote(operands[0].Value)

				if err != nil {
					errs = append(
						errs, &InvalidStringError{operands[0].Position},
					)

					continue
				}

				for _, c := range s {
					emit(uint16(c))
				}

				emit(0)
			}

		case TokenIdent:
			sp, ok := mnemonics[strings.ToUpper(keyword.Value)]

			if !ok {
				errs = append(
					errs,
					&UnknownIdentifierError{keyword.Position, keyword.Value},
				)

				continue
			}

			word, ref, instrErrs := encodeInstruction(
				sp, &keyword, operands, uint16(pc),
			)

			if len(instrErrs) > 0 {
				errs = append(errs, instrErrs...)
				continue
			}

			if ref != nil {
				labelRefs = append(labelRefs, *ref)
			}

			if symtable != nil {
				symtable.Symbols[uint16(pc)] = lineByte - int64(len(line)+1)
			}

			emit(word)

		default:
			errs = append(errs, &InvalidOperandError{
				keyword.Position,
				[]TokenType{TokenIdent, TokenDirective},
				keyword.Type,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	// Resolve label references against the field width of the operand
	// that named them. Offsets count from the address after the
	// referencing instruction.
	for _, ref := range labelRefs {
		addr, exists := labels[ref.label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.position, ref.label})
			continue
		}

		limit := int64(1) << (ref.width - 1)
		offset := int64(addr) - int64(ref.addr) - 1

		if offset < -limit || offset >= limit {
			errs = append(
				errs, &OversizedLabelError{ref.position, limit, offset},
			)

			continue
		}

		scratch[ref.addr] |= uint16(offset) & ((1 << ref.width) - 1)
	}

	for _, ref := range fillRefs {
		addr, exists := labels[ref.label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.position, ref.label})
			continue
		}

		scratch[ref.addr] = addr
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	image := &Image{Origin: origin}

	if lo >= 0 {
		image.Origin = uint16(lo)
		image.Words = scratch[lo : hi+1]
	}

	return image, errs
}

// WriteTo serializes the image in load format: a big-endian origin word
// followed by the program words.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	buffer := new(bytes.Buffer)

	if err := binary.Write(buffer, binary.BigEndian, img.Origin); err != nil {
		return 0, err
	}

	if err := binary.Write(buffer, binary.BigEndian, img.Words); err != nil {
		return 0, err
	}

	return buffer.WriteTo(w)
}

func isMnemonic(ident string) bool {
	_, ok := mnemonics[strings.ToUpper(ident)]
	return ok
}

func parseRegister(token *Token) (uint16, bool) {
	reg, ok := registers[strings.ToUpper(token.Value)]
	return reg, ok
}

// parseLiteral decodes a numeric token and checks it fits the operand's
// field: hex literals are unsigned, decimal literals two's complement.
func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	if strings.ContainsAny(token.Value, "xX") {
		result, err := encoding.DecodeHex(token.Value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		if bits < LiteralWord {
			limit := uint16(1) << bits

			if result >= limit {
				return 0, &OversizedLiteralError{
					token.Position, int64(limit) - 1, int64(result),
				}
			}
		}

		return result, nil
	}

	result, err := encoding.DecodeInt(token.Value)

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	if bits < LiteralWord {
		limit := int16(1) << (bits - 1)

		if result < -limit || result >= limit {
			return 0, &OversizedLiteralError{
				token.Position, int64(limit) - 1, int64(result),
			}
		}
	}

	return uint16(result), nil
}

// encodeInstruction assembles one mnemonic and its operands into an
// instruction word. Label operands cannot be resolved yet; they come
// back as a labelRef for the second pass.
func encodeInstruction(
	sp spec, keyword *Token, operands []Token, pc uint16,
) (uint16, *labelRef, []error) {
	var errs []error

	word := sp.bits

	expect := func(count int) bool {
		if len(operands) != count {
			errs = append(errs, &InvalidNumArgumentsError{
				keyword.Position, count, len(operands),
			})

			return false
		}

		return true
	}

	register := func(token *Token, shift uint16) {
		if token.Type != TokenIdent {
			errs = append(errs, &InvalidOperandError{
				token.Position, []TokenType{TokenIdent}, token.Type,
			})

			return
		}

		reg, ok := parseRegister(token)

		if !ok {
			errs = append(errs, &InvalidRegisterError{token.Position})
			return
		}

		word |= reg << shift
	}

	label := func(token *Token, width LiteralType) *labelRef {
		if token.Type != TokenIdent {
			errs = append(errs, &InvalidOperandError{
				token.Position, []TokenType{TokenIdent}, token.Type,
			})

			return nil
		}

		return &labelRef{token.Value, pc, width, token.Position}
	}

	switch sp.shape {
	case shapeNone:
		expect(0)

	case shapeRegRegArg:
		if !expect(3) {
			break
		}

		register(&operands[0], 9)
		register(&operands[1], 6)

		switch operands[2].Type {
		case TokenIdent:
			register(&operands[2], 0)

		case TokenLiteral:
			literal, err := parseLiteral(&operands[2], LiteralImm5)

			if err != nil {
				errs = append(errs, err)
				break
			}

			word |= 1 << 5
			word |= literal & 0x1F

		default:
			errs = append(errs, &InvalidOperandError{
				operands[2].Position,
				[]TokenType{TokenIdent, TokenLiteral},
				operands[2].Type,
			})
		}

	case shapeRegReg:
		if !expect(2) {
			break
		}

		register(&operands[0], 9)
		register(&operands[1], 6)

	case shapeReg:
		if !expect(1) {
			break
		}

		register(&operands[0], 6)

	case shapeLabel:
		if !expect(1) {
			break
		}

		if ref := label(&operands[0], sp.width); ref != nil {
			return word, ref, errs
		}

	case shapeRegLabel:
		if !expect(2) {
			break
		}

		register(&operands[0], 9)

		if ref := label(&operands[1], sp.width); ref != nil {
			return word, ref, errs
		}

	case shapeRegRegOffset:
		if !expect(3) {
			break
		}

		register(&operands[0], 9)
		register(&operands[1], 6)

		if operands[2].Type != TokenLiteral {
			errs = append(errs, &InvalidOperandError{
				operands[2].Position,
				[]TokenType{TokenLiteral},
				operands[2].Type,
			})

			break
		}

		literal, err := parseLiteral(&operands[2], LiteralOffset6)

		if err != nil {
			errs = append(errs, err)
			break
		}

		word |= literal & 0x3F

	case shapeVector:
		if !expect(1) {
			break
		}

		if operands[0].Type != TokenLiteral {
			errs = append(errs, &InvalidOperandError{
				operands[0].Position,
				[]TokenType{TokenLiteral},
				operands[0].Type,
			})

			break
		}

		literal, err := parseLiteral(&operands[0], LiteralTrapvec8)

		if err != nil {
			errs = append(errs, err)
			break
		}

		word |= literal & 0xFF
	}

	return word, nil, errs
}
