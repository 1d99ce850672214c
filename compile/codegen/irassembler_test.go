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
	"testing"

	"github.com/rw89fayv37/pycc/compile/ssair"
	"github.com/stretchr/testify/require"
)

func vv(name string, version int) ssair.VersionedVariable {
	return ssair.VersionedVariable{Name: name, Version: version}
}

func xmm(name string) ssair.XmmRegister {
	return ssair.XmmRegister{Name: name}
}

func assemble(t *testing.T, ir []ssair.Stmt) *IRAssemblerX64 {
	t.Helper()
	ia := NewIRAssemblerX64(ir)
	require.NoError(t, ia.Assemble())
	return ia
}

func instructions(ia *IRAssemblerX64) []string {
	instrs := ia.asm.Instructions()
	lines := make([]string, 0, len(instrs))
	for _, instr := range instrs {
		lines = append(lines, instr.String())
	}
	return lines
}

func TestReturnParameterInPlace(t *testing.T) {
	// f(x) { return x }, the value already sits in %xmm0
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv("x", 0), Right: xmm("%xmm0")},
		ssair.Return{Value: vv("x", 0)},
	})
	require.Equal(t, []string{"ret"}, instructions(ia))
}

func TestReturnNonFirstParameterMoves(t *testing.T) {
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv("a", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv("b", 0), Right: xmm("%xmm1")},
		ssair.Return{Value: vv("b", 0)},
	})
	require.Equal(t, []string{
		"movsd %xmm1,%xmm0",
		"ret",
	}, instructions(ia))
}

func TestReturnInternedConstant(t *testing.T) {
	// f() { return 10.0 }, a zero-parameter function returns straight from
	// the constant pool.
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv(ssair.ConstPrefix+"0", 0), Right: ssair.Constant{Value: 10.0}},
		ssair.Return{Value: vv(ssair.ConstPrefix + "0", 0)},
	})
	require.Equal(t, []string{
		"movsd __PYCC_INTERNAL_DOUBLE_CONST__N0(%rip),%xmm0",
		"ret",
	}, instructions(ia))
}

func TestBinOpRegRegReusesDyingLeft(t *testing.T) {
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv("a", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv("b", 0), Right: xmm("%xmm1")},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"0", 0),
			Right: ssair.BinOp{Left: vv("a", 0), Op: ssair.OpAdd, Right: vv("b", 0)}},
		ssair.Return{Value: vv(ssair.AnonPrefix + "0", 0)},
	})
	// a dies at the op, the result lands in a's register which is %xmm0
	require.Equal(t, []string{
		"addsd %xmm1,%xmm0",
		"ret",
	}, instructions(ia))
}

func TestBinOpRegRegReusesDyingRightWhenLeftLives(t *testing.T) {
	// a is read again after the multiply, so the product must land in b.
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv("a", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv("b", 0), Right: xmm("%xmm1")},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"0", 0),
			Right: ssair.BinOp{Left: vv("a", 0), Op: ssair.OpMul, Right: vv("b", 0)}},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"1", 0),
			Right: ssair.BinOp{Left: vv("a", 0), Op: ssair.OpAdd, Right: vv(ssair.AnonPrefix + "0", 0)}},
		ssair.Return{Value: vv(ssair.AnonPrefix + "1", 0)},
	})
	require.Equal(t, []string{
		"mulsd %xmm0,%xmm1",
		"addsd %xmm1,%xmm0",
		"ret",
	}, instructions(ia))
}

func TestBinOpSubtractRequiresLeftDestination(t *testing.T) {
	// a - b with dying a: subsd %xmm1, %xmm0 computes xmm0 = xmm0 - xmm1
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv("a", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv("b", 0), Right: xmm("%xmm1")},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"0", 0),
			Right: ssair.BinOp{Left: vv("a", 0), Op: ssair.OpSub, Right: vv("b", 0)}},
		ssair.Return{Value: vv(ssair.AnonPrefix + "0", 0)},
	})
	require.Equal(t, []string{
		"subsd %xmm1,%xmm0",
		"ret",
	}, instructions(ia))
}

func TestBinOpConstOperandMaterializesLazily(t *testing.T) {
	// f(x) { return 2.0 * x * x }, the interned 2.0 moves into a scratch
	// register at first use because x stays live.
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv("x", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv(ssair.ConstPrefix+"0", 0), Right: ssair.Constant{Value: 2.0}},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"1", 0),
			Right: ssair.BinOp{Left: vv(ssair.ConstPrefix+"0", 0), Op: ssair.OpMul, Right: vv("x", 0)}},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"2", 0),
			Right: ssair.BinOp{Left: vv(ssair.AnonPrefix+"1", 0), Op: ssair.OpMul, Right: vv("x", 0)}},
		ssair.Return{Value: vv(ssair.AnonPrefix + "2", 0)},
	})
	require.Equal(t, []string{
		"movsd __PYCC_INTERNAL_DOUBLE_CONST__N0(%rip),%xmm1",
		"mulsd %xmm0,%xmm1",
		"mulsd %xmm0,%xmm1",
		"movsd %xmm1,%xmm0",
		"ret",
	}, instructions(ia))
}

func TestBinOpCommutativeConstUsesDyingRegisterDirectly(t *testing.T) {
	// x dies at the op, so the memory operand folds into the instruction.
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv("x", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv(ssair.ConstPrefix+"0", 0), Right: ssair.Constant{Value: 2.0}},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"1", 0),
			Right: ssair.BinOp{Left: vv(ssair.ConstPrefix+"0", 0), Op: ssair.OpMul, Right: vv("x", 0)}},
		ssair.Return{Value: vv(ssair.AnonPrefix + "1", 0)},
	})
	require.Equal(t, []string{
		"mulsd __PYCC_INTERNAL_DOUBLE_CONST__N0(%rip),%xmm0",
		"ret",
	}, instructions(ia))
}

func TestBinOpRegMemSubtract(t *testing.T) {
	// x - 1.0 with dying x reads the constant straight from memory.
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv("x", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv(ssair.ConstPrefix+"0", 0), Right: ssair.Constant{Value: 1.0}},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"1", 0),
			Right: ssair.BinOp{Left: vv("x", 0), Op: ssair.OpSub, Right: vv(ssair.ConstPrefix + "0", 0)}},
		ssair.Return{Value: vv(ssair.AnonPrefix + "1", 0)},
	})
	require.Equal(t, []string{
		"subsd __PYCC_INTERNAL_DOUBLE_CONST__N0(%rip),%xmm0",
		"ret",
	}, instructions(ia))
}

func TestBinOpMemRegSubtractGoesThroughScratch(t *testing.T) {
	// 1.0 - x must compute left-minus-right, the constant moves to a
	// scratch register first.
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv("x", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv(ssair.ConstPrefix+"0", 0), Right: ssair.Constant{Value: 1.0}},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"1", 0),
			Right: ssair.BinOp{Left: vv(ssair.ConstPrefix+"0", 0), Op: ssair.OpSub, Right: vv("x", 0)}},
		ssair.Return{Value: vv(ssair.AnonPrefix + "1", 0)},
	})
	require.Equal(t, []string{
		"movsd __PYCC_INTERNAL_DOUBLE_CONST__N0(%rip),%xmm1",
		"subsd %xmm0,%xmm1",
		"movsd %xmm1,%xmm0",
		"ret",
	}, instructions(ia))
}

func TestBinOpBothOperandsLiveFails(t *testing.T) {
	ia := NewIRAssemblerX64([]ssair.Stmt{
		ssair.Assignment{Left: vv("a", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv("b", 0), Right: xmm("%xmm1")},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"0", 0),
			Right: ssair.BinOp{Left: vv("a", 0), Op: ssair.OpMul, Right: vv("b", 0)}},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"1", 0),
			Right: ssair.BinOp{Left: vv("a", 0), Op: ssair.OpMul, Right: vv("b", 0)}},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"2", 0),
			Right: ssair.BinOp{Left: vv(ssair.AnonPrefix+"0", 0), Op: ssair.OpAdd, Right: vv(ssair.AnonPrefix + "1", 0)}},
		ssair.Return{Value: vv(ssair.AnonPrefix + "2", 0)},
	})
	require.ErrorIs(t, ia.Assemble(), ErrRegisterPressureExceeded)
}

func TestBinOpMemMemFails(t *testing.T) {
	ia := NewIRAssemblerX64([]ssair.Stmt{
		ssair.Assignment{Left: vv(ssair.ConstPrefix+"0", 0), Right: ssair.Constant{Value: 2.0}},
		ssair.Assignment{Left: vv(ssair.ConstPrefix+"1", 0), Right: ssair.Constant{Value: 3.0}},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"2", 0),
			Right: ssair.BinOp{Left: vv(ssair.ConstPrefix+"0", 0), Op: ssair.OpSub, Right: vv(ssair.ConstPrefix + "1", 0)}},
		ssair.Return{Value: vv(ssair.AnonPrefix + "2", 0)},
	})
	require.ErrorIs(t, ia.Assemble(), ErrRegisterPressureExceeded)
}

func TestUndefinedOperandFails(t *testing.T) {
	ia := NewIRAssemblerX64([]ssair.Stmt{
		ssair.Assignment{Left: vv("x", 0), Right: xmm("%xmm0")},
		ssair.Return{Value: vv("ghost", 0)},
	})
	err := ia.Assemble()
	var undefErr *UndefinedValueError
	require.ErrorAs(t, err, &undefErr)
	require.Equal(t, "ghost#0", undefErr.Name)
}

func TestCopyRenamesLocationWhenSourceDies(t *testing.T) {
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv("x", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv("y", 0), Right: vv("x", 0)},
		ssair.Return{Value: vv("y", 0)},
	})
	// A pure renaming, no instruction moves anything.
	require.Equal(t, []string{"ret"}, instructions(ia))
}

func TestCopyWithLiveSourceFails(t *testing.T) {
	ia := NewIRAssemblerX64([]ssair.Stmt{
		ssair.Assignment{Left: vv("x", 0), Right: xmm("%xmm0")},
		ssair.Assignment{Left: vv("y", 0), Right: vv("x", 0)},
		ssair.Assignment{Left: vv(ssair.AnonPrefix+"0", 0),
			Right: ssair.BinOp{Left: vv("x", 0), Op: ssair.OpMul, Right: vv("y", 0)}},
		ssair.Return{Value: vv(ssair.AnonPrefix + "0", 0)},
	})
	require.ErrorIs(t, ia.Assemble(), ErrRegisterPressureExceeded)
}

func TestControlFlowRejected(t *testing.T) {
	ia := NewIRAssemblerX64([]ssair.Stmt{
		ssair.Label{Name: "head"},
		ssair.Return{Value: vv("x", 0)},
	})
	require.Error(t, ia.Assemble())
}

func TestGnuAsLayout(t *testing.T) {
	ia := assemble(t, []ssair.Stmt{
		ssair.Assignment{Left: vv(ssair.ConstPrefix+"0", 0), Right: ssair.Constant{Value: 10.0}},
		ssair.Return{Value: vv(ssair.ConstPrefix + "0", 0)},
	})
	require.Equal(t, `# pycc compiled for x86_64

.section .rodata
	__PYCC_INTERNAL_DOUBLE_CONST__N0: .double 10.0

.section .text
.global _start
_start:
	movsd __PYCC_INTERNAL_DOUBLE_CONST__N0(%rip),%xmm0
	ret
`, ia.GnuAs())
}

func TestDoubleConstInternsByValue(t *testing.T) {
	asm := NewAssembler()
	first := asm.DoubleConst(3.14)
	second := asm.DoubleConst(3.14)
	third := asm.DoubleConst(2.71)
	require.Equal(t, first, second)
	require.NotEqual(t, first, third)
	require.Equal(t, "__PYCC_INTERNAL_DOUBLE_CONST__N0(%rip)", first)
	require.Equal(t, "__PYCC_INTERNAL_DOUBLE_CONST__N1(%rip)", third)
}

func TestFindFreeXmmPrefersLowestRegister(t *testing.T) {
	ia := NewIRAssemblerX64([]ssair.Stmt{
		ssair.Return{Value: vv("x", 0)},
	})
	loc, err := ia.findFreeXmm(0)
	require.NoError(t, err)
	require.Equal(t, "%xmm0", loc)
}

func TestRegisterFileStopsAtXmm14(t *testing.T) {
	rf := newRegFile()
	require.Len(t, rf.order, NumArgRegisters)
	require.Equal(t, "%xmm0", rf.order[0])
	require.Equal(t, "%xmm14", rf.order[len(rf.order)-1])
	for _, loc := range rf.order {
		require.NotEqual(t, "%xmm15", loc)
	}
}
