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

package console

import (
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Raw switches f into raw mode, delivering keystrokes unbuffered and
// unechoed. It is a no-op when f is not a terminal, so piped input works
// unchanged. Callers must pair it with Restore.
func (cons *Console) Raw(f *os.File) error {
	if !term.IsTerminal(int(f.Fd())) {
		return nil
	}

	var state unix.Termios

	if err := termios.Tcgetattr(f.Fd(), &state); err != nil {
		return err
	}

	saved := state
	cons.fd = f.Fd()
	cons.restore = &saved

	state.Lflag &^= unix.ICANON | unix.ECHO

	raw := state
	cons.raw = &raw

	return termios.Tcsetattr(f.Fd(), termios.TCSANOW, &raw)
}

// Restore puts the terminal back the way Raw found it. It is safe to call
// from every exit path; only the first call touches the terminal.
func (cons *Console) Restore() {
	cons.once.Do(func() {
		if cons.restore != nil {
			termios.Tcsetattr(cons.fd, termios.TCSANOW, cons.restore)
		}
	})
}

// Cooked temporarily reinstates the original line-buffered, echoing
// terminal so a prompt can own the line. Resume undoes it. Neither
// consumes the Restore guarantee.
func (cons *Console) Cooked() {
	if cons.restore != nil {
		termios.Tcsetattr(cons.fd, termios.TCSANOW, cons.restore)
	}
}

func (cons *Console) Resume() {
	if cons.raw != nil {
		termios.Tcsetattr(cons.fd, termios.TCSANOW, cons.raw)
	}
}
