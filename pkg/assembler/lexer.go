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
	"strings"
	"unicode"
)

// scanLine splits one source line into tokens. Commas and whitespace
// separate tokens, ';' comments to end of line, '"' delimits string
// literals (kept quoted for strconv.Unquote). Errors do not stop the
// scan; the caller decides whether to assemble the line.
func scanLine(line string, lineNum int, lineByte int64) ([]Token, []error) {
	var tokens []Token
	var errs []error

	runes := []rune(line)

	position := func(start, size int) Cursor {
		return Cursor{
			Line:     lineNum,
			Column:   start + 1,
			Byte:     lineByte + int64(start),
			Size:     int64(size),
			LineByte: lineByte,
		}
	}

	for i := 0; i < len(runes); {
		c := runes[i]

		switch {
		case unicode.IsSpace(c) || c == ',':
			i++

		case c == ';':
			return tokens, errs

		case c == '"':
			start := i

			for i++; i < len(runes) && runes[i] != '"'; i++ {
			}

			if i == len(runes) {
				errs = append(
					errs, &InvalidStringError{position(start, i-start)},
				)

				return tokens, errs
			}

			i++
			tokens = append(tokens, Token{
				Type:     TokenString,
				Position: position(start, i-start),
				Value:    string(runes[start:i]),
			})

		default:
			start := i

			for i < len(runes) &&
				!unicode.IsSpace(runes[i]) &&
				runes[i] != ',' && runes[i] != ';' && runes[i] != '"' {
				i++
			}

			word := string(runes[start:i])

			tokenType, bad := classify(word)

			if bad >= 0 {
				errs = append(
					errs,
					&UnexpectedCharacterError{
						position(start+bad, 1), runes[start+bad],
					},
				)

				continue
			}

			tokens = append(tokens, Token{
				Type:     tokenType,
				Position: position(start, i-start),
				Value:    word,
			})
		}
	}

	return tokens, errs
}

// classify decides what kind of token a bare word is. It returns the
// index of the first offending rune, or -1 when the word is well formed.
func classify(word string) (TokenType, int) {
	runes := []rune(word)

	switch {
	case runes[0] == '.':
		for i, c := range runes[1:] {
			if c > unicode.MaxASCII || !unicode.IsLetter(c) {
				return TokenDirective, i + 1
			}
		}

		return TokenDirective, -1

	case runes[0] == '#' || runes[0] == '-' || unicode.IsDigit(runes[0]):
		return TokenLiteral, -1

	case (runes[0] == 'x' || runes[0] == 'X') && len(runes) > 1 &&
		strings.IndexFunc(word[1:], notHexDigit) == -1:
		return TokenLiteral, -1

	case runes[0] == '_' || isASCIILetter(runes[0]):
		for i, c := range runes {
			if c != '_' && !isASCIILetter(c) && !unicode.IsDigit(c) {
				return TokenIdent, i
			}
		}

		return TokenIdent, -1
	}

	return TokenNone, 0
}

func isASCIILetter(c rune) bool {
	return c <= unicode.MaxASCII && unicode.IsLetter(c)
}

func notHexDigit(c rune) bool {
	return !strings.ContainsRune("0123456789abcdefABCDEF", c)
}
