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

//go:build linux && amd64

package execmem

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Supported reports whether this platform can load and call compiled code.
func Supported() bool {
	return true
}

// Load copies code into a fresh anonymous mapping, flips it to
// read+execute, and registers the resulting function under name. The page
// is never writable and executable at the same time.
func Load(name string, code []byte, numArgs int) (*Function, error) {
	if len(code) == 0 {
		return nil, errors.New("empty code blob")
	}

	mem, err := unix.Mmap(-1, 0, len(code),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.Wrap(err, "mmap code page")
	}
	copy(mem, code)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return nil, errors.Wrap(err, "mprotect code page")
	}

	f := &Function{
		Name:    name,
		NumArgs: numArgs,
		entry:   uintptr(unsafe.Pointer(&mem[0])),
		mem:     mem,
	}
	retain(f)
	return f, nil
}

// Call invokes the native function with args.
func (f *Function) Call(args ...float64) (float64, error) {
	if err := f.checkArity(args); err != nil {
		return 0, err
	}
	var argp *float64
	if len(args) > 0 {
		argp = &args[0]
	}
	return callJIT(f.entry, argp, int64(len(args))), nil
}

// Release unmaps the code page and drops the registry reference. The
// function must not be called afterwards.
func (f *Function) Release() error {
	forget(f)
	if f.mem == nil {
		return nil
	}
	mem := f.mem
	f.mem = nil
	f.entry = 0
	return errors.Wrap(unix.Munmap(mem), "munmap code page")
}

// callJIT loads up to 15 doubles into %xmm0..%xmm14 and calls entry,
// implemented in call_linux_amd64.s.
func callJIT(entry uintptr, args *float64, n int64) float64
