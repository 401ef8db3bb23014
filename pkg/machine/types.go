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

// Keyboard is the input collaborator. Poll reports without blocking
// whether a character is pending; ReadChar blocks until one arrives;
// Echo writes a just-read character back to the user during the IN trap.
type Keyboard interface {
	Poll() bool
	ReadChar() (byte, error)
	Echo(c byte) error
}

// Display is the output collaborator used by OUT, PUTS, and PUTSP.
type Display interface {
	WriteChar(c byte) error
}

// DeviceHandler bundles the collaborators attached to a machine. Either
// field may be nil, in which case the keyboard never has input pending
// and display traps discard their output.
type DeviceHandler struct {
	Keyboard Keyboard
	Display  Display
}

// State is the complete architectural state: eight general registers, the
// program counter, the condition flags, and one 16-bit word per address.
type State struct {
	Registers [8]uint16
	PC        uint16
	Cond      uint16
	Memory    [1 << 16]uint16
}

// Status is the interpreter loop state. A machine starts Running and
// moves to Halted on the HALT trap or on a fatal decode error; Halted is
// terminal.
type Status uint8

const (
	StatusRunning Status = iota
	StatusHalted
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusHalted:
		return "Halted"
	}

	return "INVALID"
}

// Hooks observes execution without the machine knowing who is watching.
// The debugger package implements it; a nil Hooks costs nothing.
type Hooks interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	Devices *DeviceHandler
	State   State
	Hooks   Hooks

	status Status
}
