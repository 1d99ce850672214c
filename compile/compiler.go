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
package compile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"github.com/rw89fayv37/pycc/ast"
	"github.com/rw89fayv37/pycc/compile/codegen"
	"github.com/rw89fayv37/pycc/compile/ssair"
	"github.com/rw89fayv37/pycc/utils"
)

const DebugPrintTypedAst = false
const DebugPrintIR = false
const DebugPrintAsm = false

// Program is the result of the pure compile pipeline, source text in,
// assembly text out. Neither as nor ld has run yet.
type Program struct {
	Name       string
	IR         []ssair.Stmt
	Descriptor CallDescriptor
	Asm        string
}

// CompileText runs the pipeline over the source of a single function:
// parse, lower to SSA, verify, optimize, verify again, allocate registers
// and emit assembly. The pipeline is synchronous and touches no process
// state, the same source always yields byte-identical assembly.
func CompileText(source string, fileName string) (*Program, error) {
	fn, err := ast.ParseText(source, fileName)
	if err != nil {
		return nil, err
	}
	if DebugPrintTypedAst {
		fmt.Printf("== AST(%s) ==\n%# v\n", fn.Name, pretty.Formatter(fn))
	}

	py2ir := NewPy2IR(fileName)
	ir, desc, err := py2ir.Lower(fn)
	if err != nil {
		return nil, err
	}
	if err := ssair.Verify(ir); err != nil {
		return nil, errors.Wrap(err, "broken IR after lowering")
	}
	if DebugPrintIR {
		fmt.Printf("== IR(%s) ==\n%s\n", fn.Name, ssair.String(ir))
	}

	ir = ssair.Optimize(ir, DebugPrintIR)
	if err := ssair.Verify(ir); err != nil {
		return nil, errors.Wrap(err, "broken IR after optimization")
	}
	if DebugPrintIR {
		fmt.Printf("== IR after optimization(%s) ==\n%s\n", fn.Name, ssair.String(ir))
	}

	irasm := codegen.NewIRAssemblerX64(ir)
	if err := irasm.Assemble(); err != nil {
		return nil, err
	}
	text := irasm.GnuAs()
	if DebugPrintAsm {
		fmt.Printf("== ASM(%s) ==\n%s\n", fn.Name, text)
	}

	return &Program{
		Name:       fn.Name,
		IR:         ir,
		Descriptor: desc,
		Asm:        text,
	}, nil
}

// CompileFile compiles the single function declared in the file at path.
func CompileFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return CompileText(string(data), path)
}

// -----------------------------------------------------------------------------
// External toolchain
// The assembly text becomes a flat binary through gnu as and ld. The linker
// script places .text at offset zero so that _start is the first byte of
// the output, the loader treats offset zero as the entry point.

const linkerScript = `ENTRY(_start)
SECTIONS
{
	. = 0;
	.text : { *(.text*) }
	.rodata : { *(.rodata*) }
}
`

// ToolchainAvailable reports whether as and ld are installed. The pure
// pipeline never needs them, only AssembleAndLink does.
func ToolchainAvailable() bool {
	return utils.CommandExists("as") && utils.CommandExists("ld")
}

// AssembleAndLink writes the program's artifacts into buildDir and turns
// the assembly into a flat binary blob: name.ir, name.s, name.o, name.bin
// and the jit.ld linker script. It returns the binary's bytes.
func (p *Program) AssembleAndLink(buildDir string) ([]byte, error) {
	irName := p.Name + ".ir"
	asmName := p.Name + ".s"
	objName := p.Name + ".o"
	binName := p.Name + ".bin"

	files := map[string]string{
		irName:   ssair.Unparse(p.IR),
		asmName:  p.Asm,
		"jit.ld": linkerScript,
	}
	for name, content := range files {
		path := filepath.Join(buildDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if _, err := utils.RunCmd(buildDir, "as", "--64", "-o", objName, asmName); err != nil {
		return nil, &ExternalToolError{Stage: "as", Status: utils.ExitStatus(err), Err: err}
	}
	if _, err := utils.RunCmd(buildDir,
		"ld", "-T", "jit.ld", "--oformat", "binary", "-o", binName, objName); err != nil {
		return nil, &ExternalToolError{Stage: "ld", Status: utils.ExitStatus(err), Err: err}
	}

	bin, err := os.ReadFile(filepath.Join(buildDir, binName))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return bin, nil
}
