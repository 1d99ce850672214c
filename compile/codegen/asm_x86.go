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

	"github.com/rw89fayv37/pycc/compile/ssair"
	"github.com/rw89fayv37/pycc/utils"
)

// -----------------------------------------------------------------------------
// Assembly Emitter
// The emitter collects instruction tuples and interned double constants and
// renders GNU assembler text in AT&T syntax: source before destination,
// registers prefixed with %, memory references as sym(%rip).
//
// sd-suffixed SSE2 instructions operate on the low 64 bits of an XMM
// register, one IEEE-754 double per register.

type Instruction struct {
	Mnemonic string
	Operands []string
}

func (i Instruction) String() string {
	if len(i.Operands) == 0 {
		return i.Mnemonic
	}
	return i.Mnemonic + " " + strings.Join(i.Operands, ",")
}

type Assembler struct {
	doubleConsts map[float64]string
	constOrder   []float64
	instrs       []Instruction
}

func NewAssembler() *Assembler {
	return &Assembler{
		doubleConsts: make(map[float64]string),
		constOrder:   make([]float64, 0),
		instrs:       make([]Instruction, 0),
	}
}

// DoubleConst interns value into the read-only data section and returns its
// RIP-relative operand. Re-requesting a present value returns the existing
// symbol.
func (asm *Assembler) DoubleConst(value float64) string {
	if sym, exist := asm.doubleConsts[value]; exist {
		return sym + "(%rip)"
	}
	sym := fmt.Sprintf("%s%d", ssair.DoubleConstPrefix, len(asm.doubleConsts))
	asm.doubleConsts[value] = sym
	asm.constOrder = append(asm.constOrder, value)
	return sym + "(%rip)"
}

// Instructions exposes the emitted instruction list, mostly for tests.
func (asm *Assembler) Instructions() []Instruction {
	return asm.instrs
}

func (asm *Assembler) emit(mnemonic string, operands ...string) {
	asm.instrs = append(asm.instrs, Instruction{Mnemonic: mnemonic, Operands: operands})
}

func (asm *Assembler) Movsd(src string, dst string) {
	asm.emit("movsd", src, dst)
}

func (asm *Assembler) Mulsd(src string, dst string) {
	asm.emit("mulsd", src, dst)
}

func (asm *Assembler) Addsd(src string, dst string) {
	asm.emit("addsd", src, dst)
}

func (asm *Assembler) Subsd(src string, dst string) {
	asm.emit("subsd", src, dst)
}

func (asm *Assembler) Divsd(src string, dst string) {
	asm.emit("divsd", src, dst)
}

func (asm *Assembler) Ret() {
	asm.emit("ret")
}

// GnuAs renders the collected code as a GNU assembler file: the interned
// doubles in .rodata in insertion order, then the instruction body under
// the global _start symbol.
func (asm *Assembler) GnuAs() string {
	var sb strings.Builder
	sb.WriteString("# pycc compiled for x86_64\n\n")

	sb.WriteString(".section .rodata\n")
	for _, value := range asm.constOrder {
		sb.WriteString(fmt.Sprintf("\t%s: .double %s\n",
			asm.doubleConsts[value], utils.FormatDouble(value)))
	}
	sb.WriteString("\n")

	sb.WriteString(".section .text\n")
	sb.WriteString(".global _start\n")
	sb.WriteString("_start:\n")
	for _, instr := range asm.instrs {
		sb.WriteString("\t" + instr.String() + "\n")
	}
	return sb.String()
}
