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
package codegen

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrRegisterPressureExceeded reports that no XMM register can be freed
// while respecting liveness. The register file has no escape to the stack.
var ErrRegisterPressureExceeded = errors.New(
	"register pressure exceeded: no free xmm register and no stack spill")

// UndefinedValueError reports an SSA operand the backend cannot locate in
// the register file.
type UndefinedValueError struct {
	Name string
}

func (e *UndefinedValueError) Error() string {
	return fmt.Sprintf("undefined value %s: not resident in any location", e.Name)
}

// TypeMismatchError reports a binary operation over operand locations of
// kinds the backend cannot bridge.
type TypeMismatchError struct {
	Left  string
	Right string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: can not combine %s with %s", e.Left, e.Right)
}
