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

// trap routes a TRAP instruction to its handler. The vectors are serviced
// here in the host rather than through a trap table in machine memory;
// R7 has already been saved by the executor.
func (mc *Machine) trap(vector uint16) error {
	switch vector {
	case TrapGETC:
		return mc.trapGetc()
	case TrapOUT:
		return mc.trapOut()
	case TrapPUTS:
		return mc.trapPuts()
	case TrapIN:
		return mc.trapIn()
	case TrapPUTSP:
		return mc.trapPutsp()
	case TrapHALT:
		mc.Halt()
		return nil
	}

	return &TrapError{PC: mc.State.PC - 1, Vector: vector}
}

// trapGetc blocks until a character arrives and stores it zero-extended
// in R0. No echo, no flag update.
func (mc *Machine) trapGetc() error {
	kb := mc.keyboard()

	if kb == nil {
		return &DeviceError{
			PC: mc.State.PC - 1, Device: "keyboard", Err: errNoDevice,
		}
	}

	key, err := kb.ReadChar()

	if err != nil {
		return &DeviceError{PC: mc.State.PC - 1, Device: "keyboard", Err: err}
	}

	mc.State.Registers[0] = uint16(key)

	return nil
}

// trapOut writes the low byte of R0.
func (mc *Machine) trapOut() error {
	return mc.putChar(byte(mc.State.Registers[0]))
}

// trapIn prompts, blocks for a character, echoes it, and stores it in R0.
func (mc *Machine) trapIn() error {
	for _, c := range []byte("Enter a character: ") {
		if err := mc.putChar(c); err != nil {
			return err
		}
	}

	kb := mc.keyboard()

	if kb == nil {
		return &DeviceError{
			PC: mc.State.PC - 1, Device: "keyboard", Err: errNoDevice,
		}
	}

	key, err := kb.ReadChar()

	if err != nil {
		return &DeviceError{PC: mc.State.PC - 1, Device: "keyboard", Err: err}
	}

	if err := kb.Echo(key); err != nil {
		return &DeviceError{PC: mc.State.PC - 1, Device: "keyboard", Err: err}
	}

	mc.State.Registers[0] = uint16(key)

	return nil
}

// trapPuts writes the null-terminated string at R0, one character per
// word.
func (mc *Machine) trapPuts() error {
	for addr := mc.State.Registers[0]; ; addr++ {
		word := mc.read(addr)

		if word == 0 {
			return nil
		}

		if err := mc.putChar(byte(word)); err != nil {
			return err
		}
	}
}

// trapPutsp writes the null-terminated string at R0, two characters
// packed per word, low byte first. A zero high byte ends the final word
// but the terminator is still the all-zero word.
func (mc *Machine) trapPutsp() error {
	for addr := mc.State.Registers[0]; ; addr++ {
		word := mc.read(addr)

		if word == 0 {
			return nil
		}

		if err := mc.putChar(byte(word)); err != nil {
			return err
		}

		if high := byte(word >> 8); high != 0 {
			if err := mc.putChar(high); err != nil {
				return err
			}
		}
	}
}

func (mc *Machine) putChar(c byte) error {
	disp := mc.display()

	if disp == nil {
		return nil
	}

	if err := disp.WriteChar(c); err != nil {
		return &DeviceError{PC: mc.State.PC - 1, Device: "display", Err: err}
	}

	return nil
}
