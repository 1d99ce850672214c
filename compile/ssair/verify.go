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
package ssair

import "github.com/pkg/errors"

// -----------------------------------------------------------------------------
// Verification
// Continuing on the wrong thing will only lead to more mistakes, so the
// driver verifies the IR after lowering and again after optimization.
//
// The checked invariants:
//   - every VersionedVariable is defined at most once (SSA)
//   - every used VersionedVariable is defined earlier (use after def)
//   - the last statement is the one and only Return, nothing follows it

// Verify checks the structural invariants of an IR program.
func Verify(ir []Stmt) error {
	if len(ir) == 0 {
		return errors.New("empty IR program")
	}

	defined := make(map[VersionedVariable]bool)
	useBeforeDef := func(v VersionedVariable) error {
		if !defined[v] {
			return errors.Errorf("use of undefined value %v", v)
		}
		return nil
	}

	for idx, stmt := range ir {
		switch stmt.StmtTag() {
		case TagAssignment:
			assign := stmt.(Assignment)
			if defined[assign.Left] {
				return errors.Errorf("%v is assigned more than once", assign.Left)
			}
			switch rhs := assign.Right.(type) {
			case VersionedVariable:
				if err := useBeforeDef(rhs); err != nil {
					return err
				}
			case BinOp:
				if err := useBeforeDef(rhs.Left); err != nil {
					return err
				}
				if err := useBeforeDef(rhs.Right); err != nil {
					return err
				}
			}
			defined[assign.Left] = true
		case TagReturn:
			ret := stmt.(Return)
			if err := useBeforeDef(ret.Value); err != nil {
				return err
			}
			if idx != len(ir)-1 {
				return errors.Errorf("statement after return at index %d", idx)
			}
		case TagLabel, TagGoto:
			// Reserved, the front end never emits these.
		}
	}

	if ir[len(ir)-1].StmtTag() != TagReturn {
		return errors.New("IR program does not end with a return")
	}
	return nil
}
