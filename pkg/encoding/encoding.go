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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

// SignExtend widens the low `bits` bits of value to a 16-bit two's
// complement quantity by replicating the field's sign bit into every
// higher bit. Bits above the field are discarded first, so callers may
// pass an unmasked instruction word.
func SignExtend(value uint16, bits uint16) uint16 {
	value &= (1 << bits) - 1

	if value&(1<<(bits-1)) != 0 {
		value |= 0xFFFF << bits
	}

	return value
}

// ZeroExtend clears every bit above the low `bits` bits of value.
func ZeroExtend(value uint16, bits uint16) uint16 {
	return value & ((1 << bits) - 1)
}

// DecodeHex parses a hexadecimal literal in the formats: 0xFFFF, xFFFF,
// 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i != 1 {
		return 0, errors.New("invalid hex literal")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// DecodeInt parses a base-10 literal in the formats: #123, #-4, 123
func DecodeInt(s string) (int16, error) {
	s = strings.TrimPrefix(s, "#")

	result, err := strconv.ParseInt(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return int16(result), nil
}
