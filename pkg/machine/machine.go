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
	"context"
)

// Reset zeroes registers and memory and points the machine at the
// conventional program start with the zero flag set.
func (mc *Machine) Reset() {
	for i := range mc.State.Registers {
		mc.State.Registers[i] = 0x0000
	}

	for i := range mc.State.Memory {
		mc.State.Memory[i] = 0x0000
	}

	mc.State.PC = ProgramStart
	mc.State.Cond = FlagZero
	mc.status = StatusRunning
}

// Status reports whether the machine is still running or has halted.
func (mc *Machine) Status() Status {
	return mc.status
}

// Halt moves the machine to the terminal Halted state. The HALT trap and
// fatal decode errors use it internally; external drivers may call it to
// stop a machine between steps.
func (mc *Machine) Halt() {
	mc.status = StatusHalted
}

// read returns the word at addr. Reading the keyboard status register
// polls the keyboard first: a pending byte sets KBSR.15 and lands in
// KBDR, otherwise KBSR is cleared.
func (mc *Machine) read(addr uint16) uint16 {
	if addr == AddrKBSR {
		if kb := mc.keyboard(); kb != nil && kb.Poll() {
			key, err := kb.ReadChar()

			if err == nil {
				mc.State.Memory[AddrKBSR] = 1 << 15
				mc.State.Memory[AddrKBDR] = uint16(key)
			} else {
				mc.State.Memory[AddrKBSR] = 0
			}
		} else {
			mc.State.Memory[AddrKBSR] = 0
		}
	}

	if mc.Hooks != nil {
		mc.Hooks.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

// write stores value at addr. The device registers are not RAM; stores
// aimed at them are dropped.
func (mc *Machine) write(addr uint16, value uint16) {
	if addr != AddrKBSR && addr != AddrKBDR {
		mc.State.Memory[addr] = value
	}

	if mc.Hooks != nil {
		mc.Hooks.Write(addr, mc)
	}
}

func (mc *Machine) keyboard() Keyboard {
	if mc.Devices == nil {
		return nil
	}

	return mc.Devices.Keyboard
}

func (mc *Machine) display() Display {
	if mc.Devices == nil {
		return nil
	}

	return mc.Devices.Display
}

// setFlags recomputes the condition flags from the signed interpretation
// of value. Called immediately after every destination register write.
func (mc *Machine) setFlags(value uint16) {
	if value == 0 {
		mc.State.Cond = FlagZero
	} else if value>>15 == 1 {
		mc.State.Cond = FlagNegative
	} else {
		mc.State.Cond = FlagPositive
	}
}

// Step fetches, decodes, and executes a single instruction. A non-nil
// error means the machine has halted: ErrHalted if it already had, a
// DecodeError or TrapError if this instruction was fatal. Each
// instruction either completes fully or halts the machine with no
// partial update visible.
func (mc *Machine) Step() error {
	if mc.status != StatusRunning {
		return ErrHalted
	}

	in := Instruction(mc.read(mc.State.PC))
	mc.State.PC++

	switch in.Opcode() {
	case OpADD:
		if in.Immediate() {
			mc.State.Registers[in.DR()] =
				mc.State.Registers[in.SR1()] + in.Imm5()
		} else {
			mc.State.Registers[in.DR()] =
				mc.State.Registers[in.SR1()] + mc.State.Registers[in.SR2()]
		}

		mc.setFlags(mc.State.Registers[in.DR()])

	case OpAND:
		if in.Immediate() {
			mc.State.Registers[in.DR()] =
				mc.State.Registers[in.SR1()] & in.Imm5()
		} else {
			mc.State.Registers[in.DR()] =
				mc.State.Registers[in.SR1()] & mc.State.Registers[in.SR2()]
		}

		mc.setFlags(mc.State.Registers[in.DR()])

	case OpNOT:
		mc.State.Registers[in.DR()] = ^mc.State.Registers[in.SR1()]

		mc.setFlags(mc.State.Registers[in.DR()])

	case OpBR:
		// An all-zero mask never branches.
		if in.CondMask()&mc.State.Cond != 0 {
			mc.State.PC += in.PCOffset9()
		}

	case OpJMP:
		// RET is JMP with BaseR=R7
		mc.State.PC = mc.State.Registers[in.SR1()]

	case OpJSR:
		// BaseR is read before R7 is written so JSRR R7 still jumps to
		// the address that was in R7.
		target := mc.State.Registers[in.SR1()]

		mc.State.Registers[7] = mc.State.PC

		if in.Relative() {
			mc.State.PC += in.PCOffset11()
		} else {
			mc.State.PC = target
		}

	case OpLD:
		mc.State.Registers[in.DR()] = mc.read(mc.State.PC + in.PCOffset9())

		mc.setFlags(mc.State.Registers[in.DR()])

	case OpLDI:
		mc.State.Registers[in.DR()] =
			mc.read(mc.read(mc.State.PC + in.PCOffset9()))

		mc.setFlags(mc.State.Registers[in.DR()])

	case OpLDR:
		mc.State.Registers[in.DR()] =
			mc.read(mc.State.Registers[in.SR1()] + in.Offset6())

		mc.setFlags(mc.State.Registers[in.DR()])

	case OpLEA:
		mc.State.Registers[in.DR()] = mc.State.PC + in.PCOffset9()

		mc.setFlags(mc.State.Registers[in.DR()])

	case OpST:
		mc.write(mc.State.PC+in.PCOffset9(), mc.State.Registers[in.DR()])

	case OpSTI:
		mc.write(
			mc.read(mc.State.PC+in.PCOffset9()),
			mc.State.Registers[in.DR()],
		)

	case OpSTR:
		mc.write(
			mc.State.Registers[in.SR1()]+in.Offset6(),
			mc.State.Registers[in.DR()],
		)

	case OpTRAP:
		mc.State.Registers[7] = mc.State.PC

		if err := mc.trap(in.TrapVector()); err != nil {
			mc.Halt()
			return err
		}

	case OpRTI, OpRES:
		// No supervisor mode: both are fatal rather than undefined.
		mc.Halt()
		return &DecodeError{
			PC:          mc.State.PC - 1,
			Instruction: uint16(in),
		}
	}

	if mc.Hooks != nil {
		mc.Hooks.Step(mc)
	}

	return nil
}

// Run steps the machine until it halts or ctx is cancelled. Cancellation
// is observed at iteration boundaries only, so the instruction in flight
// always completes. A normal HALT returns nil.
func (mc *Machine) Run(ctx context.Context) error {
	for mc.status == StatusRunning {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := mc.Step(); err != nil {
			return err
		}
	}

	return nil
}
