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

// Package execmem maps a linked flat binary into an executable page and
// exposes it as a callable native function. Offset zero of the blob is the
// entry point, the function follows the System V AMD64 convention: double
// arguments in %xmm0..%xmm14, double result in %xmm0.
package execmem

import (
	"sync"

	"github.com/pkg/errors"
)

// Function is a loaded native function. The mapping stays referenced by the
// package registry until Release, a collected mapping would turn a later
// call into a segfault.
type Function struct {
	Name    string
	NumArgs int

	entry uintptr
	mem   []byte
}

// Entry is the address of the first instruction.
func (f *Function) Entry() uintptr {
	return f.entry
}

var (
	funcMapMu sync.Mutex
	funcMap   = make(map[string]*Function)
)

func retain(f *Function) {
	funcMapMu.Lock()
	defer funcMapMu.Unlock()
	funcMap[f.Name] = f
}

func forget(f *Function) {
	funcMapMu.Lock()
	defer funcMapMu.Unlock()
	delete(funcMap, f.Name)
}

// Lookup returns the loaded function registered under name.
func Lookup(name string) (*Function, bool) {
	funcMapMu.Lock()
	defer funcMapMu.Unlock()
	f, ok := funcMap[name]
	return f, ok
}

func (f *Function) checkArity(args []float64) error {
	if len(args) != f.NumArgs {
		return errors.Errorf("%s takes %d arguments, got %d",
			f.Name, f.NumArgs, len(args))
	}
	return nil
}
