// Copyright (c) 2025 The Pycc Contributors
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
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package utils

import (
	"bytes"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func Assert(cond bool, format string, msg ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, msg...))
	}
}

func Any[T comparable](c T, cs ...T) bool {
	for _, cc := range cs {
		if c == cc {
			return true
		}
	}
	return false
}

func ShouldNotReachHere() {
	panic("Should not reach here")
}

func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	println(msg)
	panic(msg)
}

func CommandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// RunCmd executes args in workDir and returns stdout. A non-zero exit is an
// error carrying both output streams.
func RunCmd(workDir string, args ...string) (string, error) {
	if !CommandExists(args[0]) {
		return "", errors.Errorf("can not find %v in PATH", args[0])
	}
	cmd := exec.Command(args[0], args[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Dir = workDir

	err := cmd.Run()
	if err != nil {
		return stdout.String(), errors.Wrapf(err, "%v failed\nout:\n%s\nerr:\n%s",
			args, stdout.String(), stderr.String())
	}
	return stdout.String(), nil
}

// ExitStatus extracts the process exit code from a RunCmd error, -1 if the
// command never ran at all.
func ExitStatus(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// FormatDouble renders a float64 the way the IR text and the .double
// directive expect it. Integral values keep a trailing ".0" so that 10.0
// does not degenerate to the integer literal 10.
func FormatDouble(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func Float64ToHex(f float64) string {
	hex := fmt.Sprintf("%x", math.Float64bits(f))
	return fmt.Sprintf("0x%s", hex)
}
