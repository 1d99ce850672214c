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

import (
	"fmt"
	"strings"

	"github.com/rw89fayv37/pycc/utils"
)

// -----------------------------------------------------------------------------
// SSA IR Grammar
// The IR is a flat, totally ordered statement list in Single Static
// Assignment form. A simple example is as follows
//
//	x#0     := %xmm0
//	y#0     := %xmm1
//	__PYCC_INTERNAL__A2#0 := x#0 * y#0
//	ret __PYCC_INTERNAL__A2#0
//
// Every statement and operand carries an explicit variant tag, the optimizer
// and the backend dispatch on tags only, never on reflection.

// Reserved name prefixes. Any other name is a user visible source identifier.
const (
	// AnonPrefix names anonymous temporaries holding BinOp results.
	AnonPrefix = "__PYCC_INTERNAL__A"
	// ConstPrefix names SSA constant holders.
	ConstPrefix = "__PYCC_INTERNAL__C"
	// DoubleConstPrefix names interned doubles at the assembly level.
	DoubleConstPrefix = "__PYCC_INTERNAL_DOUBLE_CONST__N"
)

type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	}
	return "<unknown>"
}

// Commutative reports whether swapping the operands yields the same result,
// the backend swaps commutative operands to reuse a dying register.
func (op Op) Commutative() bool {
	return op == OpAdd || op == OpMul
}

func LookupOp(s string) (Op, bool) {
	switch s {
	case "+":
		return OpAdd, true
	case "-":
		return OpSub, true
	case "*":
		return OpMul, true
	case "/":
		return OpDiv, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------
// Operands

type OperandTag int

const (
	TagVersionedVariable OperandTag = iota
	TagConstant
	TagXmmRegister
	TagBinOp
)

// Operand is anything that may appear on the right-hand side of an
// Assignment.
type Operand interface {
	OperandTag() OperandTag
	String() string
}

// VersionedVariable is an SSA name, identity is the (Name, Version) pair.
type VersionedVariable struct {
	Name    string
	Version int
}

func (v VersionedVariable) OperandTag() OperandTag { return TagVersionedVariable }

func (v VersionedVariable) String() string {
	return fmt.Sprintf("%s#%d", v.Name, v.Version)
}

// Constant is an IEEE-754 double value.
type Constant struct {
	Value float64
}

func (c Constant) OperandTag() OperandTag { return TagConstant }

func (c Constant) String() string {
	return utils.FormatDouble(c.Value)
}

// XmmRegister is a symbolic argument-register handle, %xmm0 through %xmm14.
type XmmRegister struct {
	Name string
}

func (x XmmRegister) OperandTag() OperandTag { return TagXmmRegister }

func (x XmmRegister) String() string {
	return x.Name
}

// BinOp combines two previously defined SSA names.
type BinOp struct {
	Left  VersionedVariable
	Op    Op
	Right VersionedVariable
}

func (b BinOp) OperandTag() OperandTag { return TagBinOp }

func (b BinOp) String() string {
	return fmt.Sprintf("%v %v %v", b.Left, b.Op, b.Right)
}

// -----------------------------------------------------------------------------
// Statements

type StmtTag int

const (
	TagAssignment StmtTag = iota
	TagReturn
	TagLabel
	TagGoto
)

type Stmt interface {
	StmtTag() StmtTag
	String() string
}

type Assignment struct {
	Left  VersionedVariable
	Right Operand
}

func (a Assignment) StmtTag() StmtTag { return TagAssignment }

func (a Assignment) String() string {
	return fmt.Sprintf("%v\t:=\t%v", a.Left, a.Right)
}

type Return struct {
	Value VersionedVariable
}

func (r Return) StmtTag() StmtTag { return TagReturn }

func (r Return) String() string {
	return fmt.Sprintf("ret %v", r.Value)
}

// Label and Goto are part of the grammar and the IR text parser reads them,
// but the front end never emits them and the backend rejects them.
type Label struct {
	Name string
}

func (l Label) StmtTag() StmtTag { return TagLabel }

func (l Label) String() string {
	return fmt.Sprintf("label %s", l.Name)
}

type Goto struct {
	Name string
}

func (g Goto) StmtTag() StmtTag { return TagGoto }

func (g Goto) String() string {
	return fmt.Sprintf("goto %s", g.Name)
}

// -----------------------------------------------------------------------------
// Helpers over whole programs

// String renders ir in its canonical text form, one statement per line.
func String(ir []Stmt) string {
	lines := make([]string, 0, len(ir))
	for _, stmt := range ir {
		lines = append(lines, stmt.String())
	}
	return strings.Join(lines, "\n")
}
