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
	"errors"
	"fmt"
)

// ErrHalted is returned by Step and Run when invoked on a machine that
// has already reached the Halted state.
var ErrHalted = errors.New("machine halted")

var errNoDevice = errors.New("no device attached")

// DecodeError reports an instruction the architecture defines but this
// machine does not execute (RES, RTI). The machine halts rather than run
// undefined semantics.
type DecodeError struct {
	PC          uint16
	Instruction uint16
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf(
		"illegal %s instruction %#04x at %#04x",
		Opcode(err.Instruction>>12),
		err.Instruction,
		err.PC,
	)
}

// TrapError reports a TRAP instruction naming a vector the dispatcher
// does not recognize.
type TrapError struct {
	PC     uint16
	Vector uint16
}

func (err *TrapError) Error() string {
	return fmt.Sprintf(
		"unknown trap vector %#02x at %#04x", err.Vector, err.PC,
	)
}

// DeviceError wraps a failure from an attached keyboard or display.
type DeviceError struct {
	PC     uint16
	Device string
	Err    error
}

func (err *DeviceError) Error() string {
	return fmt.Sprintf(
		"%s device failure at %#04x: %v", err.Device, err.PC, err.Err,
	)
}

func (err *DeviceError) Unwrap() error {
	return err.Err
}

// LoadError reports a malformed or truncated image file.
type LoadError struct {
	Offset int64
	Err    error
}

func (err *LoadError) Error() string {
	return fmt.Sprintf("invalid image at byte %d: %v", err.Offset, err.Err)
}

func (err *LoadError) Unwrap() error {
	return err.Err
}
