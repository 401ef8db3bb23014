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

// Package console adapts a terminal (or any reader/writer pair) to the
// machine's keyboard and display contracts: a non-blocking poll, a
// blocking character read, and character output.
package console

import (
	"io"
	"sync"

	"golang.org/x/sys/unix"
)

type Console struct {
	output io.Writer
	keys   chan byte

	fd      uintptr
	restore *unix.Termios
	raw     *unix.Termios
	once    sync.Once
}

// New starts a reader pump on input and returns a console writing to
// output. The pump feeds a small key buffer so Poll can answer without
// blocking while ReadChar waits on the buffer.
func New(input io.Reader, output io.Writer) *Console {
	cons := &Console{
		output: output,
		keys:   make(chan byte, 8),
	}

	go cons.pump(input)

	return cons
}

func (cons *Console) pump(input io.Reader) {
	var scratch [1]byte

	for {
		n, err := input.Read(scratch[:])

		if n > 0 {
			cons.keys <- scratch[0]
		}

		if err != nil {
			close(cons.keys)
			return
		}
	}
}

// Poll reports whether a character is already buffered. It never blocks.
func (cons *Console) Poll() bool {
	return len(cons.keys) > 0
}

// ReadChar blocks until a character arrives. Once the input source is
// exhausted it returns io.EOF for every call.
func (cons *Console) ReadChar() (byte, error) {
	key, ok := <-cons.keys

	if !ok {
		return 0, io.EOF
	}

	return key, nil
}

// ReadLine assembles a newline-terminated line from the key buffer,
// dropping carriage returns. Meant for prompts running while the pump
// owns the input stream.
func (cons *Console) ReadLine() (string, error) {
	var line []byte

	for {
		key, err := cons.ReadChar()

		if err != nil {
			return string(line), err
		}

		switch key {
		case '\n':
			return string(line), nil
		case '\r':
		default:
			line = append(line, key)
		}
	}
}

// Echo writes a just-read character back to the user.
func (cons *Console) Echo(key byte) error {
	return cons.WriteChar(key)
}

func (cons *Console) WriteChar(key byte) error {
	_, err := cons.output.Write([]byte{key})
	return err
}
