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
package ast

import "fmt"

// -----------------------------------------------------------------------------
// Ast Root Interfaces

type AstNode interface {
	String() string
}

type AstExpr interface {
	AstNode
	GetType() *Type
	SetType(*Type)
	GetLine() int
}

type AstStmt interface {
	AstNode
	GetLine() int
}

// -----------------------------------------------------------------------------
// Expressions

type Expr struct {
	Type *Type
	Line int
}

func (e *Expr) String() string {
	return fmt.Sprintf("Expr{%v}", e.Type)
}

func (e *Expr) GetType() *Type {
	return e.Type
}

func (e *Expr) SetType(t *Type) {
	e.Type = t
}

func (e *Expr) GetLine() int {
	return e.Line
}

type VarExpr struct {
	Expr
	Name string
}

type DoubleExpr struct {
	Expr
	Value float64
}

type BinaryExpr struct {
	Expr
	Left  AstExpr
	Right AstExpr
	Opt   TokenKind
}

func (v *VarExpr) String() string {
	return fmt.Sprintf("VarExpr{%v}", v.Name)
}

func (d *DoubleExpr) String() string {
	return fmt.Sprintf("DoubleExpr{%v}", d.Value)
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("BinaryExpr{%v}", b.Opt.String())
}

// -----------------------------------------------------------------------------
// Statements
// The compilable subset has exactly two statement forms, "name = expr" and
// "return expr".

type AssignStmt struct {
	Name  string
	Right AstExpr
	Line  int
}

type ReturnStmt struct {
	Expr AstExpr
	Line int
}

func (a *AssignStmt) String() string {
	return fmt.Sprintf("AssignStmt{%v}", a.Name)
}

func (a *AssignStmt) GetLine() int {
	return a.Line
}

func (r *ReturnStmt) String() string {
	return "ReturnStmt"
}

func (r *ReturnStmt) GetLine() int {
	return r.Line
}

// -----------------------------------------------------------------------------
// Declarations

// Param is a function parameter with its textual type annotation. Annotation
// validity is checked by the front-end lowering, not by the parser, so that
// an unknown annotation reports UnsupportedType rather than a parse failure.
type Param struct {
	Name       string
	Annotation string
	Line       int
}

type FuncDecl struct {
	Name          string
	Params        []*Param
	RetAnnotation string
	Body          []AstStmt
	File          string
	Line          int
}

func (fn *FuncDecl) String() string {
	return fmt.Sprintf("FuncDecl{%v/%d}", fn.Name, len(fn.Params))
}
