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

package machine_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hexlatch/lc3vm/pkg/machine"
)

// testKeyboard feeds a scripted byte sequence to the machine. Echoes
// land in the echo buffer so tests can assert on TRAP x23 behavior.
type testKeyboard struct {
	keys []byte
	echo bytes.Buffer
}

func (kb *testKeyboard) Poll() bool {
	return len(kb.keys) > 0
}

func (kb *testKeyboard) ReadChar() (byte, error) {
	if len(kb.keys) == 0 {
		return 0, io.EOF
	}

	key := kb.keys[0]
	kb.keys = kb.keys[1:]
	return key, nil
}

func (kb *testKeyboard) Echo(key byte) error {
	kb.echo.WriteByte(key)
	return nil
}

type testDisplay struct {
	bytes.Buffer
}

func (d *testDisplay) WriteChar(key byte) error {
	d.WriteByte(key)
	return nil
}

type testMachineState struct {
	Registers [8]uint16
	PC        uint16
	Condition uint16
	Memory    map[uint16]uint16
}

type testCase struct {
	Name     string
	Steps    uint
	Keyboard string
	Display  string
	Halted   bool
	Input    testMachineState
	Output   testMachineState
}

func testMachineSuccess(t *testing.T, test *testCase) {
	if test.Input.Condition > 0x7 {
		panic("Condition must be 0x7 or lower")
	}

	if test.Input.Memory == nil && test.Output.Memory == nil {
		panic("No memory maps provided")
	}

	var mc machine.Machine
	var devices machine.DeviceHandler
	var display testDisplay

	keyboard := &testKeyboard{keys: []byte(test.Keyboard)}

	if len(test.Keyboard) > 0 {
		devices.Keyboard = keyboard
	}

	if len(test.Display) > 0 {
		devices.Display = &display
	}

	if devices.Keyboard != nil || devices.Display != nil {
		mc.Devices = &devices
	}

	mc.Reset()
	mc.State.Registers = test.Input.Registers
	mc.State.PC = test.Input.PC
	mc.State.Cond = test.Input.Condition

	if mc.State.Cond == 0 {
		mc.State.Cond = machine.FlagZero
	}

	for addr, value := range test.Input.Memory {
		mc.State.Memory[addr] = value
	}

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		if err := mc.Step(); err != nil {
			t.Fatalf("Unexpected step error: %v", err)
		}
	}

	for i := 0; i < 8; i++ {
		want := test.Output.Registers[i]
		have := mc.State.Registers[i]
		if have != want {
			t.Errorf(
				"Register mismatch"+
					"\nwant:%#04x (test.Output.Registers[%d])\nhave:%#04x",
				want,
				i,
				have,
			)
		}
	}

	if mc.State.PC != test.Output.PC {
		t.Errorf(
			"Program counter mismatch"+
				"\nwant:%#04x (test.Output.PC)\nhave:%#04x",
			test.Output.PC,
			mc.State.PC,
		)
	}

	wantCond := test.Output.Condition
	if wantCond == 0 {
		wantCond = machine.FlagZero
	}

	if have := mc.State.Cond; have != wantCond {
		t.Errorf(
			"Condition flag mismatch"+
				"\nwant:%#03b (test.Output.Condition)\nhave:%#03b",
			wantCond,
			have,
		)
	}

	wantStatus := machine.StatusRunning
	if test.Halted {
		wantStatus = machine.StatusHalted
	}

	if have := mc.Status(); have != wantStatus {
		t.Errorf(
			"Status mismatch\nwant:%v (test.Halted=%v)\nhave:%v",
			wantStatus,
			test.Halted,
			have,
		)
	}

	for i, value := range mc.State.Memory {
		input, expectingInput := test.Input.Memory[uint16(i)]
		output, expectingOutput := test.Output.Memory[uint16(i)]

		if expectingOutput {
			// Value was supposed to change
			if value != output {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Output.Memory[%#04x])\nhave:%#02x",
					output,
					i,
					value,
				)
			}
		} else if expectingInput {
			// Value was supposed to remain
			if value != input {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Input.Memory[%#04x])\nhave:%#02x",
					input,
					i,
					value,
				)
			}
		} else if value != 0 {
			// Value was expected to remain uninitialized
			t.Fatalf(
				"Memory unexpectedly changed"+
					"\nwant:0x00 (test.Output.Memory[%#04x])\nhave:%#02x",
				i,
				value,
			)
		}
	}

	if len(test.Display) > 0 {
		if have := display.String(); have != test.Display {
			t.Errorf(
				"Display output mismatch"+
					"\nwant:%q (test.Display)\nhave:%q",
				test.Display,
				have,
			)
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAdd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ADD SR2 Negative",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0001, // SR1
					2: 0x8001, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_000_010,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagNegative,
				Registers: [8]uint16{
					0: 0x8002, // DR
					1: 0x0001, // SR1
					2: 0x8001, // SR2
				},
			},
		},
		{
			Name: "ADD SR2 Zero",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0xFFFF, // SR1
					2: 0x0001, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_000_010,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagZero,
				Registers: [8]uint16{
					0: 0x0000, // DR
					1: 0xFFFF, // SR1
					2: 0x0001, // SR2
				},
			},
		},
		{
			Name: "ADD SR2 Positive",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x00FF, // SR1
					2: 0x0001, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_000_010,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagPositive,
				Registers: [8]uint16{
					0: 0x0100, // DR
					1: 0x00FF, // SR1
					2: 0x0001, // SR2
				},
			},
		},
		{
			Name: "ADD Imm5 Positive",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0x0000, // DR, SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_000_1_00001,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagPositive,
				Registers: [8]uint16{
					0: 0x0001, // DR
				},
			},
		},
		{
			Name: "ADD Imm5 Negative",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0005, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_1_11000,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagNegative,
				Registers: [8]uint16{
					0: 0xFFFD, // DR = 5 + (-8)
					1: 0x0005, // SR1
				},
			},
		},
		{
			Name: "ADD DR Is SR1",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0x0002, // DR, SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_000_1_00011,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagPositive,
				Registers: [8]uint16{
					0: 0x0005, // DR
				},
			},
		},
	})
}

// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise and
// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise and
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAnd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "AND SR2",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0xF0F0, // SR1
					2: 0xFF00, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_001_000_010,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagNegative,
				Registers: [8]uint16{
					0: 0xF000, // DR
					1: 0xF0F0, // SR1
					2: 0xFF00, // SR2
				},
			},
		},
		{
			Name: "AND Imm5 Clear",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x1234, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_001_1_00000,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagZero,
				Registers: [8]uint16{
					0: 0x0000, // DR
					1: 0x1234, // SR1
				},
			},
		},
		{
			Name: "AND Imm5 Mask",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x00FF, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_001_1_01111,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagPositive,
				Registers: [8]uint16{
					0: 0x000F, // DR
					1: 0x00FF, // SR1
				},
			},
		},
	})
}

// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestNot(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "NOT Negative",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0F0F, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1001_000_001_1_11111,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagNegative,
				Registers: [8]uint16{
					0: 0xF0F0, // DR
					1: 0x0F0F, // SR
				},
			},
		},
		{
			Name: "NOT Zero",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0xFFFF, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1001_000_001_1_11111,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagZero,
				Registers: [8]uint16{
					0: 0x0000, // DR
					1: 0xFFFF, // SR
				},
			},
		},
	})
}

// BR   |0000    |n|z|p|PCoffset9         | Conditional branch
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestBr(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "BR Taken Forward",
			Input: testMachineState{
				PC:        0x3000,
				Condition: machine.FlagZero,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_010_000000010,
				},
			},
			Output: testMachineState{
				PC:        0x3003,
				Condition: machine.FlagZero,
			},
		},
		{
			Name: "BR Taken Backward",
			Input: testMachineState{
				PC:        0x3004,
				Condition: machine.FlagPositive,
				Memory: map[uint16]uint16{
					0x3004: 0b0000_001_111111011,
				},
			},
			Output: testMachineState{
				PC:        0x3000,
				Condition: machine.FlagPositive,
			},
		},
		{
			Name: "BR Not Taken",
			Input: testMachineState{
				PC:        0x3000,
				Condition: machine.FlagPositive,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_100_000000010,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagPositive,
			},
		},
		{
			Name: "BR Unconditional",
			Input: testMachineState{
				PC:        0x3000,
				Condition: machine.FlagNegative,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_111_000000101,
				},
			},
			Output: testMachineState{
				PC:        0x3006,
				Condition: machine.FlagNegative,
			},
		},
		{
			Name: "BR Empty Mask Never Taken",
			Input: testMachineState{
				PC:        0x3000,
				Condition: machine.FlagZero,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_000_000000101,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagZero,
			},
		},
	})
}

// JMP  |1100    |000  |BaseR|000000      | Unconditional jump
// RET  |1100    |000  |111  |000000      | Return (JMP R7)
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJmp(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JMP BaseR",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					2: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1100_000_010_000000,
				},
			},
			Output: testMachineState{
				PC: 0x4000,
				Registers: [8]uint16{
					2: 0x4000, // BaseR
				},
			},
		},
		{
			Name: "RET",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					7: 0x3005,
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1100_000_111_000000,
				},
			},
			Output: testMachineState{
				PC: 0x3005,
				Registers: [8]uint16{
					7: 0x3005,
				},
			},
		},
	})
}

// JSR  |0100    |1|PCoffset11            | Subroutine call, relative
// JSRR |0100    |0|00|BaseR|000000       | Subroutine call, register
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJsr(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JSR Forward",
			Input: testMachineState{
				PC: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0100_1_00000001000,
				},
			},
			Output: testMachineState{
				PC: 0x3009,
				Registers: [8]uint16{
					7: 0x3001,
				},
			},
		},
		{
			Name: "JSR Backward",
			Input: testMachineState{
				PC: 0x3004,
				Memory: map[uint16]uint16{
					0x3004: 0b0100_1_11111111011,
				},
			},
			Output: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					7: 0x3005,
				},
			},
		},
		{
			Name: "JSRR",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					3: 0x5000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0100_0_00_011_000000,
				},
			},
			Output: testMachineState{
				PC: 0x5000,
				Registers: [8]uint16{
					3: 0x5000, // BaseR
					7: 0x3001,
				},
			},
		},
		{
			Name: "JSRR BaseR Is R7",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					7: 0x5000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0100_0_00_111_000000,
				},
			},
			Output: testMachineState{
				PC: 0x5000,
				Registers: [8]uint16{
					7: 0x3001,
				},
			},
		},
	})
}

// LD   |0010    |DR   |PCoffset9         | PC-relative load
// LDI  |1010    |DR   |PCoffset9         | Indirect load
// LDR  |0110    |DR   |BaseR|offset6     | Base+offset load
// LEA  |1110    |DR   |PCoffset9         | Load effective address
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestLoads(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0010_000_000000100,
					0x3005: 0x1234,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagPositive,
				Registers: [8]uint16{
					0: 0x1234, // DR
				},
			},
		},
		{
			Name: "LDI",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1010_000_000000100,
					0x3005: 0x4000,
					0x4000: 0x8001,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagNegative,
				Registers: [8]uint16{
					0: 0x8001, // DR
				},
			},
		},
		{
			Name: "LDR",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x4002, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0110_000_001_111110,
					0x4000: 0x0042,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagPositive,
				Registers: [8]uint16{
					0: 0x0042, // DR
					1: 0x4002, // BaseR
				},
			},
		},
		{
			Name: "LEA",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1110_000_000001111,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagPositive,
				Registers: [8]uint16{
					0: 0x3010, // DR
				},
			},
		},
		{
			Name: "LD Zero Sets Flag",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0010_000_000000100,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagZero,
				Registers: [8]uint16{
					0: 0x0000, // DR
				},
			},
		},
	})
}

// ST   |0011    |SR   |PCoffset9         | PC-relative store
// STI  |1011    |SR   |PCoffset9         | Indirect store
// STR  |0111    |SR   |BaseR|offset6     | Base+offset store
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestStores(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ST",
			Input: testMachineState{
				PC:        0x3000,
				Condition: machine.FlagNegative,
				Registers: [8]uint16{
					0: 0x1234, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0011_000_000000100,
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagNegative,
				Registers: [8]uint16{
					0: 0x1234, // SR
				},
				Memory: map[uint16]uint16{
					0x3005: 0x1234,
				},
			},
		},
		{
			Name: "STI",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0x1234, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1011_000_000000100,
					0x3005: 0x4000,
				},
			},
			Output: testMachineState{
				PC: 0x3001,
				Registers: [8]uint16{
					0: 0x1234, // SR
				},
				Memory: map[uint16]uint16{
					0x4000: 0x1234,
				},
			},
		},
		{
			Name: "STR",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0x1234, // SR
					1: 0x4002, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0111_000_001_111110,
				},
			},
			Output: testMachineState{
				PC: 0x3001,
				Registers: [8]uint16{
					0: 0x1234, // SR
					1: 0x4002, // BaseR
				},
				Memory: map[uint16]uint16{
					0x4000: 0x1234,
				},
			},
		},
	})
}

// Round-trips a value through ST and LD and returns to the caller
// through the R7 linkage.
func TestSubroutineRoundTrip(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:  "JSR ST LD RET",
			Steps: 5,
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0x0007,
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0100_1_00000000011, // JSR   +3
					0x3004: 0b0011_000_000001011, // ST R0 +11
					0x3005: 0b0001_001_000_1_00001, // ADD R1, R0, #1
					0x3006: 0b0010_010_000001001, // LD R2 +9
					0x3007: 0b1100_000_111_000000, // RET
				},
			},
			Output: testMachineState{
				PC:        0x3001,
				Condition: machine.FlagPositive,
				Registers: [8]uint16{
					0: 0x0007,
					1: 0x0008,
					2: 0x0007,
					7: 0x3001,
				},
				Memory: map[uint16]uint16{
					0x3010: 0x0007,
				},
			},
		},
	})
}

func TestTraps(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:     "GETC",
			Keyboard: "a",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE,
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1111_0000_00100000,
				},
			},
			Output: testMachineState{
				PC: 0x3001,
				Registers: [8]uint16{
					0: 0x0061,
					7: 0x3001,
				},
			},
		},
		{
			Name:    "OUT",
			Display: "A",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0xFF41, // only the low byte leaves
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1111_0000_00100001,
				},
			},
			Output: testMachineState{
				PC: 0x3001,
				Registers: [8]uint16{
					0: 0xFF41,
					7: 0x3001,
				},
			},
		},
		{
			Name:     "IN",
			Keyboard: "x",
			Display:  "Enter a character: ",
			Input: testMachineState{
				PC: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b1111_0000_00100011,
				},
			},
			Output: testMachineState{
				PC: 0x3001,
				Registers: [8]uint16{
					0: 0x0078,
					7: 0x3001,
				},
			},
		},
		{
			Name:    "PUTS",
			Display: "HI",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0x4000,
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1111_0000_00100010,
					0x4000: 0x0048,
					0x4001: 0x0049,
				},
			},
			Output: testMachineState{
				PC: 0x3001,
				Registers: [8]uint16{
					0: 0x4000,
					7: 0x3001,
				},
			},
		},
		{
			Name:    "PUTSP",
			Display: "Hi!",
			Input: testMachineState{
				PC: 0x3000,
				Registers: [8]uint16{
					0: 0x4000,
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1111_0000_00100100,
					0x4000: 0x6948, // 'H' low, 'i' high
					0x4001: 0x0021, // '!' low, zero high ends the word
				},
			},
			Output: testMachineState{
				PC: 0x3001,
				Registers: [8]uint16{
					0: 0x4000,
					7: 0x3001,
				},
			},
		},
		{
			Name:   "HALT",
			Halted: true,
			Input: testMachineState{
				PC: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b1111_0000_00100101,
				},
			},
			Output: testMachineState{
				PC: 0x3001,
				Registers: [8]uint16{
					7: 0x3001,
				},
			},
		},
	})
}

// Trap dispatch leaves the condition flags alone even when the trap
// writes R0.
func TestTrapLeavesFlags(t *testing.T) {
	var mc machine.Machine
	mc.Devices = &machine.DeviceHandler{
		Keyboard: &testKeyboard{keys: []byte{0}},
	}

	mc.Reset()
	mc.State.Cond = machine.FlagPositive
	mc.State.Memory[0x3000] = 0b1111_0000_00100000 // GETC

	if err := mc.Step(); err != nil {
		t.Fatalf("Unexpected step error: %v", err)
	}

	if mc.State.Registers[0] != 0 {
		t.Errorf("R0 mismatch\nwant:0x0000\nhave:%#04x", mc.State.Registers[0])
	}

	if mc.State.Cond != machine.FlagPositive {
		t.Errorf(
			"Condition flag mismatch\nwant:%#03b\nhave:%#03b",
			machine.FlagPositive,
			mc.State.Cond,
		)
	}
}

func TestStepAfterHalt(t *testing.T) {
	var mc machine.Machine
	mc.Reset()
	mc.State.Memory[0x3000] = 0b1111_0000_00100101 // HALT

	if err := mc.Step(); err != nil {
		t.Fatalf("Unexpected step error: %v", err)
	}

	if err := mc.Step(); !errors.Is(err, machine.ErrHalted) {
		t.Errorf("Step error mismatch\nwant:%v\nhave:%v", machine.ErrHalted, err)
	}
}

func TestReservedOpcodes(t *testing.T) {
	for name, word := range map[string]uint16{
		"RTI": 0b1000_000000000000,
		"RES": 0b1101_000000000000,
	} {
		t.Run(name, func(t *testing.T) {
			var mc machine.Machine
			mc.Reset()
			mc.State.Memory[0x3000] = word

			err := mc.Step()

			var decodeErr *machine.DecodeError

			if !errors.As(err, &decodeErr) {
				t.Fatalf("Step error mismatch\nwant:*DecodeError\nhave:%v", err)
			}

			if decodeErr.PC != 0x3000 {
				t.Errorf(
					"DecodeError PC mismatch\nwant:0x3000\nhave:%#04x",
					decodeErr.PC,
				)
			}

			if decodeErr.Instruction != word {
				t.Errorf(
					"DecodeError instruction mismatch\nwant:%#04x\nhave:%#04x",
					word,
					decodeErr.Instruction,
				)
			}

			if mc.Status() != machine.StatusHalted {
				t.Error("Machine still running after fatal decode")
			}
		})
	}
}

func TestUnknownTrapVector(t *testing.T) {
	var mc machine.Machine
	mc.Reset()
	mc.State.Memory[0x3000] = 0b1111_0000_01000000 // TRAP x40

	err := mc.Step()

	var trapErr *machine.TrapError

	if !errors.As(err, &trapErr) {
		t.Fatalf("Step error mismatch\nwant:*TrapError\nhave:%v", err)
	}

	if trapErr.PC != 0x3000 {
		t.Errorf("TrapError PC mismatch\nwant:0x3000\nhave:%#04x", trapErr.PC)
	}

	if trapErr.Vector != 0x40 {
		t.Errorf("TrapError vector mismatch\nwant:0x40\nhave:%#02x", trapErr.Vector)
	}

	if mc.Status() != machine.StatusHalted {
		t.Error("Machine still running after unknown trap")
	}
}

func TestGetcWithoutKeyboard(t *testing.T) {
	var mc machine.Machine
	mc.Reset()
	mc.State.Memory[0x3000] = 0b1111_0000_00100000 // GETC

	err := mc.Step()

	var deviceErr *machine.DeviceError

	if !errors.As(err, &deviceErr) {
		t.Fatalf("Step error mismatch\nwant:*DeviceError\nhave:%v", err)
	}

	if mc.Status() != machine.StatusHalted {
		t.Error("Machine still running after device failure")
	}
}

// Reading KBSR polls the keyboard; a ready byte parks in KBDR with
// KBSR.15 set, and stores aimed at either register are dropped.
func TestKeyboardRegisters(t *testing.T) {
	var mc machine.Machine
	mc.Devices = &machine.DeviceHandler{
		Keyboard: &testKeyboard{keys: []byte("k")},
	}

	mc.Reset()
	mc.State.Memory[0x3000] = 0b1010_000_000000010 // LDI R0, KBSR ptr
	mc.State.Memory[0x3001] = 0b1010_001_000000010 // LDI R1, KBDR ptr
	mc.State.Memory[0x3002] = 0b1011_010_000000000 // STI R2, KBSR ptr
	mc.State.Memory[0x3003] = machine.AddrKBSR
	mc.State.Memory[0x3004] = machine.AddrKBDR

	if err := mc.Step(); err != nil {
		t.Fatalf("Unexpected step error: %v", err)
	}

	if mc.State.Registers[0] != 1<<15 {
		t.Errorf("KBSR mismatch\nwant:0x8000\nhave:%#04x", mc.State.Registers[0])
	}

	if err := mc.Step(); err != nil {
		t.Fatalf("Unexpected step error: %v", err)
	}

	if mc.State.Registers[1] != 'k' {
		t.Errorf("KBDR mismatch\nwant:0x6b\nhave:%#04x", mc.State.Registers[1])
	}

	mc.State.Registers[2] = 0xBEEF

	if err := mc.Step(); err != nil {
		t.Fatalf("Unexpected step error: %v", err)
	}

	if mc.State.Memory[machine.AddrKBSR] == 0xBEEF {
		t.Error("Store to KBSR was not dropped")
	}

	// Polling again with nothing pending clears the status bit
	mc.State.PC = 0x3000

	if err := mc.Step(); err != nil {
		t.Fatalf("Unexpected step error: %v", err)
	}

	if mc.State.Registers[0] != 0 {
		t.Errorf(
			"KBSR mismatch after drain\nwant:0x0000\nhave:%#04x",
			mc.State.Registers[0],
		)
	}
}

func TestRunUntilHalt(t *testing.T) {
	var mc machine.Machine
	mc.Reset()
	mc.State.Memory[0x3000] = 0b0001_000_000_1_00001 // ADD R0, R0, #1
	mc.State.Memory[0x3001] = 0b0001_000_000_1_00001 // ADD R0, R0, #1
	mc.State.Memory[0x3002] = 0b1111_0000_00100101   // HALT

	if err := mc.Run(context.Background()); err != nil {
		t.Fatalf("Unexpected run error: %v", err)
	}

	if mc.State.Registers[0] != 2 {
		t.Errorf("R0 mismatch\nwant:0x0002\nhave:%#04x", mc.State.Registers[0])
	}

	if mc.Status() != machine.StatusHalted {
		t.Error("Machine still running after HALT")
	}
}

func TestRunCancellation(t *testing.T) {
	var mc machine.Machine
	mc.Reset()
	mc.State.Memory[0x3000] = 0b0000_111_111111111 // BRnzp -1, spins forever

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := mc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error mismatch\nwant:%v\nhave:%v", context.Canceled, err)
	}

	if mc.Status() != machine.StatusRunning {
		t.Error("Cancellation should not halt the machine")
	}
}
