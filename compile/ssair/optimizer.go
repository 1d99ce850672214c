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

type Optimizer struct {
	ir    []Stmt
	debug bool
}

// Optimize rewrites ir with the three passes in order: copy propagation,
// constant folding of binary operations, dead-code elimination. Each pass
// produces a fresh statement list, the input is never mutated.
func Optimize(ir []Stmt, debug bool) []Stmt {
	opt := &Optimizer{ir: ir, debug: debug}
	opt.propagateCopies()
	opt.foldConstantBinOps()
	opt.removeDeadCode()
	return opt.ir
}

// -----------------------------------------------------------------------------
// Copy Propagation
// An assignment whose right-hand side is a bare versioned variable (X := Y)
// is a copy. The pass removes the copy and substitutes Y for X in every
// later use. Because the IR is SSA, one forward sweep with an accumulated
// substitution map reaches a fixed point.

func (opt *Optimizer) propagateCopies() {
	subst := make(map[VersionedVariable]VersionedVariable)
	resolve := func(v VersionedVariable) VersionedVariable {
		if to, ok := subst[v]; ok {
			return to
		}
		return v
	}

	newIR := make([]Stmt, 0, len(opt.ir))
	for _, stmt := range opt.ir {
		switch stmt.StmtTag() {
		case TagAssignment:
			assign := stmt.(Assignment)
			switch rhs := assign.Right.(type) {
			case VersionedVariable:
				// Earlier copies are already resolved, so chains collapse
				// in a single sweep.
				subst[assign.Left] = resolve(rhs)
				if opt.debug {
					fmt.Printf("Propagate %v -> %v\n", assign.Left, subst[assign.Left])
				}
				continue
			case BinOp:
				rhs.Left = resolve(rhs.Left)
				rhs.Right = resolve(rhs.Right)
				newIR = append(newIR, Assignment{Left: assign.Left, Right: rhs})
				continue
			}
			newIR = append(newIR, stmt)
		case TagReturn:
			ret := stmt.(Return)
			newIR = append(newIR, Return{Value: resolve(ret.Value)})
		default:
			newIR = append(newIR, stmt)
		}
	}
	opt.ir = newIR
}

// -----------------------------------------------------------------------------
// Constant Folding
// A binary operation whose operands both resolve to constant holders can be
// evaluated now. Division by zero is not an error, the result follows
// IEEE-754 and becomes an interned infinity or NaN.

// constantValue looks up the constant bound to the holder v, false when v is
// not defined by a Constant assignment.
func (opt *Optimizer) constantValue(v VersionedVariable) (float64, bool) {
	for _, stmt := range opt.ir {
		if stmt.StmtTag() != TagAssignment {
			continue
		}
		assign := stmt.(Assignment)
		if assign.Left != v {
			continue
		}
		if c, ok := assign.Right.(Constant); ok {
			return c.Value, true
		}
		return 0, false
	}
	return 0, false
}

func evalBinOp(left float64, op Op, right float64) float64 {
	switch op {
	case OpAdd:
		return left + right
	case OpSub:
		return left - right
	case OpMul:
		return left * right
	case OpDiv:
		return left / right
	}
	utils.ShouldNotReachHere()
	return 0
}

func (opt *Optimizer) foldConstantBinOps() {
	newIR := make([]Stmt, 0, len(opt.ir))
	for _, stmt := range opt.ir {
		if stmt.StmtTag() != TagAssignment {
			newIR = append(newIR, stmt)
			continue
		}
		assign := stmt.(Assignment)
		binop, isBinOp := assign.Right.(BinOp)
		if !isBinOp ||
			!strings.HasPrefix(binop.Left.Name, ConstPrefix) ||
			!strings.HasPrefix(binop.Right.Name, ConstPrefix) {
			newIR = append(newIR, stmt)
			continue
		}
		left, okl := opt.constantValue(binop.Left)
		right, okr := opt.constantValue(binop.Right)
		if !okl || !okr {
			newIR = append(newIR, stmt)
			continue
		}
		folded := evalBinOp(left, binop.Op, right)
		if opt.debug {
			fmt.Printf("Fold %v to %v\n", binop, Constant{Value: folded})
		}
		newIR = append(newIR, Assignment{Left: assign.Left, Right: Constant{Value: folded}})
	}
	opt.ir = newIR
}

// -----------------------------------------------------------------------------
// Dead Code Elimination
// An assignment is dead when no later statement reads its left-hand side,
// either as a BinOp operand or as the operand of the return. The pass runs
// once and counts uses against the list as it stands before the pass, so a
// definition whose only reader is itself dropped here stays in the output.

func (opt *Optimizer) isUsedAfter(lhs VersionedVariable, idx int) bool {
	for _, stmt := range opt.ir[idx+1:] {
		switch stmt.StmtTag() {
		case TagReturn:
			if stmt.(Return).Value == lhs {
				return true
			}
		case TagAssignment:
			if binop, ok := stmt.(Assignment).Right.(BinOp); ok {
				if binop.Left == lhs || binop.Right == lhs {
					return true
				}
			}
		}
	}
	return false
}

func (opt *Optimizer) removeDeadCode() {
	newIR := make([]Stmt, 0, len(opt.ir))
	for idx, stmt := range opt.ir {
		if stmt.StmtTag() != TagAssignment {
			newIR = append(newIR, stmt)
			continue
		}
		assign := stmt.(Assignment)
		if !opt.isUsedAfter(assign.Left, idx) {
			if opt.debug {
				fmt.Printf("Dead value %v\n", assign.Left)
			}
			continue
		}
		newIR = append(newIR, stmt)
	}
	opt.ir = newIR
}
