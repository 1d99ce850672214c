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
	"strings"

	"github.com/pkg/errors"
	"github.com/rw89fayv37/pycc/ast"
	"github.com/rw89fayv37/pycc/compile/codegen"
	"github.com/rw89fayv37/pycc/compile/ssair"
)

// -----------------------------------------------------------------------------
// Front-End Lowering
// Py2IR turns the typed syntax tree of a single function into SSA IR.
// Parameters materialize as loads from the argument registers, literals
// become constant-holder assignments, and operator nodes become anonymous
// temporaries. Reads yield the current version of a name without emitting
// anything.

// CallDescriptor describes the native signature of a compiled function.
// Every slot is the IEEE-754 double in the core.
type CallDescriptor struct {
	Return *ast.Type
	Args   []*ast.Type
}

func (d CallDescriptor) NumArgs() int {
	return len(d.Args)
}

// CPrototype renders a C-like prototype for diagnostics, e.g.
// "double f(double, double);".
func (d CallDescriptor) CPrototype(name string) string {
	args := make([]string, 0, len(d.Args))
	for _, t := range d.Args {
		args = append(args, t.String())
	}
	return fmt.Sprintf("%s %s(%s);", d.Return, name, strings.Join(args, ", "))
}

type Py2IR struct {
	fileName string

	// variableDB tracks the current version of every SSA name.
	variableDB map[string]int
	// tmpCount mints fresh temporaries, independent of user names.
	tmpCount int
}

func NewPy2IR(fileName string) *Py2IR {
	return &Py2IR{
		fileName:   fileName,
		variableDB: make(map[string]int),
	}
}

// namedVariable yields the current version of name, registering version 0
// on first sight. An undefined read therefore lowers, the IR verifier
// rejects it afterwards.
func (p *Py2IR) namedVariable(name string) ssair.VersionedVariable {
	if version, exist := p.variableDB[name]; exist {
		return ssair.VersionedVariable{Name: name, Version: version}
	}
	p.variableDB[name] = 0
	return ssair.VersionedVariable{Name: name, Version: 0}
}

// defineVariable starts a new version of name for an assignment target.
func (p *Py2IR) defineVariable(name string) ssair.VersionedVariable {
	if version, exist := p.variableDB[name]; exist {
		p.variableDB[name] = version + 1
		return ssair.VersionedVariable{Name: name, Version: version + 1}
	}
	p.variableDB[name] = 0
	return ssair.VersionedVariable{Name: name, Version: 0}
}

func (p *Py2IR) anonVariable() ssair.VersionedVariable {
	name := fmt.Sprintf("%s%d", ssair.AnonPrefix, p.tmpCount)
	p.tmpCount++
	p.variableDB[name] = 0
	return ssair.VersionedVariable{Name: name, Version: 0}
}

func (p *Py2IR) constVariable(value float64) (ssair.Stmt, ssair.VersionedVariable) {
	name := fmt.Sprintf("%s%d", ssair.ConstPrefix, p.tmpCount)
	p.tmpCount++
	p.variableDB[name] = 0
	vv := ssair.VersionedVariable{Name: name, Version: 0}
	return ssair.Assignment{Left: vv, Right: ssair.Constant{Value: value}}, vv
}

var tokenToOp = map[ast.TokenKind]ssair.Op{
	ast.TK_PLUS:  ssair.OpAdd,
	ast.TK_MINUS: ssair.OpSub,
	ast.TK_TIMES: ssair.OpMul,
	ast.TK_DIV:   ssair.OpDiv,
}

// lowerExpr lowers expr into an IR fragment whose result is the returned
// versioned variable. Identifier reads yield an empty fragment.
func (p *Py2IR) lowerExpr(expr ast.AstExpr) ([]ssair.Stmt, ssair.VersionedVariable, error) {
	switch e := expr.(type) {
	case *ast.DoubleExpr:
		assign, vv := p.constVariable(e.Value)
		return []ssair.Stmt{assign}, vv, nil
	case *ast.VarExpr:
		return nil, p.namedVariable(e.Name), nil
	case *ast.BinaryExpr:
		op, exist := tokenToOp[e.Opt]
		if !exist {
			return nil, ssair.VersionedVariable{}, &UnsupportedSyntaxError{
				File:   p.fileName,
				Line:   e.GetLine(),
				Detail: fmt.Sprintf("operator %v", e.Opt),
			}
		}
		leftFrag, leftVar, err := p.lowerExpr(e.Left)
		if err != nil {
			return nil, ssair.VersionedVariable{}, err
		}
		rightFrag, rightVar, err := p.lowerExpr(e.Right)
		if err != nil {
			return nil, ssair.VersionedVariable{}, err
		}
		result := p.anonVariable()
		frag := append(leftFrag, rightFrag...)
		frag = append(frag, ssair.Assignment{
			Left:  result,
			Right: ssair.BinOp{Left: leftVar, Op: op, Right: rightVar},
		})
		return frag, result, nil
	default:
		return nil, ssair.VersionedVariable{}, &UnsupportedSyntaxError{
			File:   p.fileName,
			Line:   expr.GetLine(),
			Detail: fmt.Sprintf("unable to lower %v", expr),
		}
	}
}

func (p *Py2IR) lowerStmt(stmt ast.AstStmt) ([]ssair.Stmt, error) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		frag, result, err := p.lowerExpr(s.Right)
		if err != nil {
			return nil, err
		}
		target := p.defineVariable(s.Name)
		return append(frag, ssair.Assignment{Left: target, Right: result}), nil
	case *ast.ReturnStmt:
		frag, result, err := p.lowerExpr(s.Expr)
		if err != nil {
			return nil, err
		}
		return append(frag, ssair.Return{Value: result}), nil
	default:
		return nil, &UnsupportedSyntaxError{
			File:   p.fileName,
			Line:   stmt.GetLine(),
			Detail: fmt.Sprintf("unable to lower %v", stmt),
		}
	}
}

// descriptor validates the annotations of fn against the recognized-type
// set and builds the native-call descriptor.
func (p *Py2IR) descriptor(fn *ast.FuncDecl) (CallDescriptor, error) {
	retType, exist := ast.CompilableTypes[fn.RetAnnotation]
	if !exist {
		return CallDescriptor{}, &UnsupportedTypeError{
			File:       p.fileName,
			Line:       fn.Line,
			Annotation: fn.RetAnnotation,
		}
	}
	desc := CallDescriptor{Return: retType}
	for argIdx, param := range fn.Params {
		if param.Annotation == "" {
			return CallDescriptor{}, &MissingAnnotationError{
				File:     p.fileName,
				Line:     param.Line,
				ArgIndex: argIdx,
			}
		}
		argType, exist := ast.CompilableTypes[param.Annotation]
		if !exist {
			return CallDescriptor{}, &UnsupportedTypeError{
				File:       p.fileName,
				Line:       param.Line,
				Annotation: param.Annotation,
			}
		}
		desc.Args = append(desc.Args, argType)
	}
	return desc, nil
}

// Lower produces the SSA IR and the native-call descriptor for fn.
func (p *Py2IR) Lower(fn *ast.FuncDecl) ([]ssair.Stmt, CallDescriptor, error) {
	desc, err := p.descriptor(fn)
	if err != nil {
		return nil, CallDescriptor{}, err
	}
	if len(fn.Params) > codegen.NumArgRegisters {
		return nil, CallDescriptor{}, errors.Wrapf(codegen.ErrRegisterPressureExceeded,
			"%d parameters but only %d argument registers",
			len(fn.Params), codegen.NumArgRegisters)
	}

	// Arguments arrive in %xmm0..%xmmN-1 per the System V ABI.
	ir := make([]ssair.Stmt, 0)
	for argIdx, param := range fn.Params {
		vv := p.namedVariable(param.Name)
		ir = append(ir, ssair.Assignment{
			Left:  vv,
			Right: ssair.XmmRegister{Name: fmt.Sprintf("%%xmm%d", argIdx)},
		})
	}

	for _, stmt := range fn.Body {
		frag, err := p.lowerStmt(stmt)
		if err != nil {
			return nil, CallDescriptor{}, err
		}
		ir = append(ir, frag...)
	}
	return ir, desc, nil
}
