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

import "github.com/rw89fayv37/pycc/utils"

// -----------------------------------------------------------------------------
// Types System
// The compilable core carries a single scalar type, the IEEE-754 double.
// The kind enum leaves room for the integer kinds the backend refuses today.

type TypeKind int

const (
	TypeDouble TypeKind = iota
	TypeInt
	TypeVoid
)

type Type struct {
	Kind TypeKind
}

// Pre-defined basic types
var (
	TDouble = &Type{Kind: TypeDouble}
	TInt    = &Type{Kind: TypeInt}
	TVoid   = &Type{Kind: TypeVoid}
)

func (t *Type) IsDouble() bool { return t == TDouble }
func (t *Type) IsInt() bool    { return t == TInt }
func (t *Type) IsVoid() bool   { return t == TVoid }

func (t *Type) String() string {
	switch t.Kind {
	case TypeDouble:
		return "double"
	case TypeInt:
		return "int"
	case TypeVoid:
		return "void"
	default:
		utils.ShouldNotReachHere()
	}
	return ""
}

// CompilableTypes is the recognized-type set, every annotation the compiler
// accepts maps to the IEEE-754 double.
var CompilableTypes = map[string]*Type{
	"double":   TDouble,
	"c_double": TDouble,
	"float":    TDouble,
}
