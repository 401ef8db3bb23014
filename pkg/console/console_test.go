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

package console_test

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hexlatch/lc3vm/pkg/console"
)

func TestReadChar(t *testing.T) {
	var output bytes.Buffer

	cons := console.New(strings.NewReader("ab"), &output)

	for _, want := range []byte("ab") {
		key, err := cons.ReadChar()

		if err != nil {
			t.Fatalf("Unexpected read error: %v", err)
		}

		if key != want {
			t.Errorf("ReadChar mismatch\nwant:%q\nhave:%q", want, key)
		}
	}

	if _, err := cons.ReadChar(); err != io.EOF {
		t.Errorf("ReadChar past EOF\nwant:%v\nhave:%v", io.EOF, err)
	}
}

func TestPoll(t *testing.T) {
	var output bytes.Buffer

	cons := console.New(strings.NewReader("x"), &output)

	// The pump runs concurrently; wait for the byte to land.
	deadline := time.Now().Add(time.Second)
	for !cons.Poll() {
		if time.Now().After(deadline) {
			t.Fatal("Poll never saw the buffered byte")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := cons.ReadChar(); err != nil {
		t.Fatalf("Unexpected read error: %v", err)
	}

	if cons.Poll() {
		t.Error("Poll true on a drained buffer")
	}
}

func TestReadLine(t *testing.T) {
	var output bytes.Buffer

	cons := console.New(strings.NewReader("break add 0x3000\r\nnext\n"), &output)

	line, err := cons.ReadLine()

	if err != nil {
		t.Fatalf("Unexpected read error: %v", err)
	}

	if line != "break add 0x3000" {
		t.Errorf("ReadLine mismatch\nwant:%q\nhave:%q", "break add 0x3000", line)
	}

	line, err = cons.ReadLine()

	if err != nil {
		t.Fatalf("Unexpected read error: %v", err)
	}

	if line != "next" {
		t.Errorf("ReadLine mismatch\nwant:%q\nhave:%q", "next", line)
	}

	if _, err := cons.ReadLine(); err != io.EOF {
		t.Errorf("ReadLine past EOF\nwant:%v\nhave:%v", io.EOF, err)
	}
}

func TestWriteAndEcho(t *testing.T) {
	var output bytes.Buffer

	cons := console.New(strings.NewReader(""), &output)

	if err := cons.WriteChar('H'); err != nil {
		t.Fatalf("Unexpected write error: %v", err)
	}

	if err := cons.Echo('i'); err != nil {
		t.Fatalf("Unexpected echo error: %v", err)
	}

	if have := output.String(); have != "Hi" {
		t.Errorf("Output mismatch\nwant:%q\nhave:%q", "Hi", have)
	}
}
