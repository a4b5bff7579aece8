// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestLogAlsoToFile(t *testing.T) {
	var console bytes.Buffer
	logConsole = &console
	defer func() { logConsole = os.Stdout }()

	fileName := filepath.Join(t.TempDir(), "run.log")
	if err := LogAlsoToFile(fileName); err != nil {
		t.Fatal(err)
	}
	LogPrintf("radius %d\n", 3)
	LogPrintln("done")
	fmt.Fprint(LogWriter{}, "via writer\n")
	LogSync()

	want := "radius 3\ndone\nvia writer\n"
	if console.String() != want {
		t.Errorf("console=%q; want %q", console.String(), want)
	}
	got, err := os.ReadFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Errorf("file=%q; want %q", string(got), want)
	}

	if err := LogAlsoToFile(filepath.Join(t.TempDir(), "no", "such", "dir.log")); err == nil {
		t.Errorf("opening log in missing directory succeeded")
	}
}
