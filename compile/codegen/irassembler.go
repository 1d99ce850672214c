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
	"strings"

	"github.com/pkg/errors"
	"github.com/rw89fayv37/pycc/compile/ssair"
	"github.com/rw89fayv37/pycc/utils"
)

// -----------------------------------------------------------------------------
// IR To x86-64 Assembly
// The backend walks the IR once front to back, assigning SSA names to XMM
// registers by last-use analysis. A "location" is either one of the fifteen
// modeled registers %xmm0..%xmm14 or the RIP-relative operand of an interned
// double, both hold IEEE-754 doubles. %xmm15 stays reserved.
//
// All decisions are functions of the statement index and the register file,
// the same IR always yields byte-identical assembly.

// NumArgRegisters bounds the parameters a compiled function can take, one
// XMM register each.
const NumArgRegisters = 15

// regFile maps locations to the SSA name currently resident there, "" means
// free. The location search order is fixed: %xmm0..%xmm14 first, interned
// constants in the order they joined.
type regFile struct {
	order []string
	slots map[string]string
}

func newRegFile() *regFile {
	rf := &regFile{slots: make(map[string]string)}
	for i := 0; i < NumArgRegisters; i++ {
		loc := xmmName(i)
		rf.order = append(rf.order, loc)
		rf.slots[loc] = ""
	}
	return rf
}

func xmmName(i int) string {
	return fmt.Sprintf("%%xmm%d", i)
}

func isXmmLoc(loc string) bool {
	return strings.HasPrefix(loc, "%xmm")
}

func isDoubleConstLoc(loc string) bool {
	return strings.HasPrefix(loc, ssair.DoubleConstPrefix)
}

// locate finds the location whose occupant is name.
func (rf *regFile) locate(name string) (string, bool) {
	for _, loc := range rf.order {
		if rf.slots[loc] == name {
			return loc, true
		}
	}
	return "", false
}

// bind makes name the occupant of loc, registering loc first if it is a
// fresh constant location.
func (rf *regFile) bind(loc string, name string) {
	if _, known := rf.slots[loc]; !known {
		rf.order = append(rf.order, loc)
	}
	rf.slots[loc] = name
}

type IRAssemblerX64 struct {
	asm  *Assembler
	regs *regFile
	ir   []ssair.Stmt
}

func NewIRAssemblerX64(ir []ssair.Stmt) *IRAssemblerX64 {
	return &IRAssemblerX64{
		asm:  NewAssembler(),
		regs: newRegFile(),
		ir:   ir,
	}
}

// Assemble walks the IR and emits instructions into the assembler.
func (ia *IRAssemblerX64) Assemble() error {
	for idx, stmt := range ia.ir {
		var err error
		switch stmt.StmtTag() {
		case ssair.TagAssignment:
			err = ia.visitAssignment(stmt.(ssair.Assignment), idx)
		case ssair.TagReturn:
			err = ia.visitReturn(stmt.(ssair.Return), idx)
		default:
			err = errors.Errorf("control flow statement %v reached the backend", stmt)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// GnuAs renders the emitted code, see Assembler.GnuAs.
func (ia *IRAssemblerX64) GnuAs() string {
	return ia.asm.GnuAs()
}

// -----------------------------------------------------------------------------
// Liveness

// hasDependent reports whether any statement after idx reads name, as a
// BinOp operand, as a bare copy source, or as the return operand.
func hasDependent(ir []ssair.Stmt, name string, idx int) bool {
	for _, stmt := range ir[idx+1:] {
		switch stmt.StmtTag() {
		case ssair.TagAssignment:
			switch rhs := stmt.(ssair.Assignment).Right.(type) {
			case ssair.BinOp:
				if rhs.Left.String() == name || rhs.Right.String() == name {
					return true
				}
			case ssair.VersionedVariable:
				if rhs.String() == name {
					return true
				}
			}
		case ssair.TagReturn:
			if stmt.(ssair.Return).Value.String() == name {
				return true
			}
		}
	}
	return false
}

// findFreeXmm returns the first register that is free or whose occupant is
// not read at or after the statement at idx.
func (ia *IRAssemblerX64) findFreeXmm(idx int) (string, error) {
	for _, loc := range ia.regs.order {
		if !isXmmLoc(loc) {
			continue
		}
		occupant := ia.regs.slots[loc]
		if occupant == "" {
			return loc, nil
		}
		// idx-1 so the query includes the current statement, a register
		// read by the operation being emitted is not stealable.
		if !hasDependent(ia.ir, occupant, idx-1) {
			return loc, nil
		}
	}
	return "", ErrRegisterPressureExceeded
}

// -----------------------------------------------------------------------------
// Per-statement handlers

func (ia *IRAssemblerX64) visitAssignment(assign ssair.Assignment, idx int) error {
	lhs := assign.Left.String()
	switch rhs := assign.Right.(type) {
	case ssair.Constant:
		// No instruction yet, the constant is materialized lazily at its
		// first use. The RIP operand becomes a virtual location.
		ia.regs.bind(ia.asm.DoubleConst(rhs.Value), lhs)
		return nil
	case ssair.XmmRegister:
		ia.regs.bind(rhs.Name, lhs)
		return nil
	case ssair.VersionedVariable:
		src := rhs.String()
		if hasDependent(ia.ir, src, idx) {
			// The source stays live, the copy would need a second home and
			// the register file has no spill path.
			return ErrRegisterPressureExceeded
		}
		loc, found := ia.regs.locate(src)
		if !found {
			return &UndefinedValueError{Name: src}
		}
		ia.regs.bind(loc, lhs)
		return nil
	case ssair.BinOp:
		result, err := ia.visitBinOp(rhs, idx)
		if err != nil {
			return err
		}
		ia.regs.bind(result, lhs)
		return nil
	}
	return errors.Errorf("unknown assignment right-hand side %v", assign.Right)
}

func (ia *IRAssemblerX64) visitBinOp(binop ssair.BinOp, idx int) (string, error) {
	lloc, found := ia.regs.locate(binop.Left.String())
	if !found {
		return "", &UndefinedValueError{Name: binop.Left.String()}
	}
	rloc, found := ia.regs.locate(binop.Right.String())
	if !found {
		return "", &UndefinedValueError{Name: binop.Right.String()}
	}

	// Both locations must hold doubles, the backend can not bridge kinds.
	if !isFloatLoc(lloc) || !isFloatLoc(rloc) {
		return "", &TypeMismatchError{Left: lloc, Right: rloc}
	}

	switch {
	case isXmmLoc(lloc) && isXmmLoc(rloc):
		return ia.binOpRegReg(lloc, rloc, binop.Op, idx)
	case isDoubleConstLoc(lloc) && isXmmLoc(rloc):
		return ia.binOpMemReg(lloc, rloc, binop.Op, idx)
	case isXmmLoc(lloc) && isDoubleConstLoc(rloc):
		return ia.binOpRegMem(lloc, rloc, binop.Op, idx)
	default:
		// mem/mem needs a scratch register for both sides
		return "", ErrRegisterPressureExceeded
	}
}

func isFloatLoc(loc string) bool {
	return isXmmLoc(loc) || isDoubleConstLoc(loc)
}

func (ia *IRAssemblerX64) opSd(op ssair.Op, src string, dst string) {
	switch op {
	case ssair.OpMul:
		ia.asm.Mulsd(src, dst)
	case ssair.OpAdd:
		ia.asm.Addsd(src, dst)
	case ssair.OpSub:
		ia.asm.Subsd(src, dst)
	case ssair.OpDiv:
		ia.asm.Divsd(src, dst)
	default:
		utils.ShouldNotReachHere()
	}
}

// dead reports whether the occupant of loc has no reader after idx.
func (ia *IRAssemblerX64) dead(loc string, idx int) bool {
	return !hasDependent(ia.ir, ia.regs.slots[loc], idx)
}

// binOpRegReg handles both operands in registers.
//
// AT&T "op src, dst" writes dst, so "subsd %xmm1, %xmm0" computes
// xmm0 = xmm0 - xmm1. Commutative operators may land in either dying
// register, sub and div must land in the left one.
func (ia *IRAssemblerX64) binOpRegReg(left string, right string, op ssair.Op, idx int) (string, error) {
	if ia.dead(left, idx) {
		ia.opSd(op, right, left)
		return left, nil
	}
	if op.Commutative() && ia.dead(right, idx) {
		ia.opSd(op, left, right)
		return right, nil
	}
	return "", ErrRegisterPressureExceeded
}

// binOpMemReg handles left in memory, right in a register. A commutative
// operator reuses the dying right register directly, otherwise the memory
// operand moves into a scratch register first so the result reads
// left-op-right.
func (ia *IRAssemblerX64) binOpMemReg(left string, right string, op ssair.Op, idx int) (string, error) {
	if op.Commutative() && ia.dead(right, idx) {
		ia.opSd(op, left, right)
		return right, nil
	}
	tmp, err := ia.findFreeXmm(idx)
	if err != nil {
		return "", err
	}
	ia.asm.Movsd(left, tmp)
	ia.opSd(op, right, tmp)
	return tmp, nil
}

// binOpRegMem handles left in a register, right in memory. The memory
// operand is a legal source, so a dying left register absorbs the result
// for every operator.
func (ia *IRAssemblerX64) binOpRegMem(left string, right string, op ssair.Op, idx int) (string, error) {
	if ia.dead(left, idx) {
		ia.opSd(op, right, left)
		return left, nil
	}
	return "", ErrRegisterPressureExceeded
}

func (ia *IRAssemblerX64) visitReturn(ret ssair.Return, idx int) error {
	loc, found := ia.regs.locate(ret.Value.String())
	if !found {
		return &UndefinedValueError{Name: ret.Value.String()}
	}
	if !isFloatLoc(loc) {
		return &TypeMismatchError{Left: loc, Right: "%xmm0"}
	}
	// Floating-point results return in %xmm0 per the System V ABI.
	if loc != "%xmm0" {
		ia.asm.Movsd(loc, "%xmm0")
	}
	ia.asm.Ret()
	return nil
}
