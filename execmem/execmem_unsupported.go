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

//go:build !(linux && amd64)

package execmem

import (
	"runtime"

	"github.com/pkg/errors"
)

var errUnsupported = errors.Errorf(
	"executable memory is not supported on %s/%s, only linux/amd64",
	runtime.GOOS, runtime.GOARCH)

func Supported() bool {
	return false
}

func Load(name string, code []byte, numArgs int) (*Function, error) {
	return nil, errUnsupported
}

func (f *Function) Call(args ...float64) (float64, error) {
	return 0, errUnsupported
}

func (f *Function) Release() error {
	return errUnsupported
}
