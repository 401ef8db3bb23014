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
	"encoding/binary"
	"errors"
	"io"
)

// LoadImage reads one image: a big-endian origin word followed by
// big-endian words stored contiguously from origin until EOF or the top
// of memory. Images loaded later overlay earlier ones word for word. The
// PC is not touched; execution starts wherever Reset pointed it.
func (mc *Machine) LoadImage(reader io.Reader) error {
	origin, err := readWord(reader)

	if err != nil {
		return &LoadError{Offset: 0, Err: errors.New("missing origin word")}
	}

	addr := origin
	offset := int64(2)

	for {
		word, err := readWord(reader)

		if err == io.EOF {
			return nil
		} else if err != nil {
			return &LoadError{Offset: offset, Err: err}
		}

		mc.State.Memory[addr] = word
		offset += 2

		if addr == 0xFFFF {
			return nil
		}

		addr++
	}
}

func readWord(reader io.Reader) (uint16, error) {
	var scratch [2]byte

	if _, err := io.ReadFull(reader, scratch[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return 0, errors.New("odd number of bytes")
		}

		return 0, err
	}

	return binary.BigEndian.Uint16(scratch[:]), nil
}
