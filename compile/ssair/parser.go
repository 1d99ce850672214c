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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// -----------------------------------------------------------------------------
// IR Text Parser
// Parse and Unparse are inverses up to whitespace, the driver writes .ir
// artifacts with Unparse and the round-trip test checks Parse(Unparse(ir)).

// ParseVersionedVariable parses "name#version".
func ParseVersionedVariable(s string) (VersionedVariable, error) {
	name, version, found := strings.Cut(s, "#")
	if !found || name == "" {
		return VersionedVariable{}, errors.Errorf("malformed versioned variable %q", s)
	}
	n, err := strconv.Atoi(version)
	if err != nil || n < 0 {
		return VersionedVariable{}, errors.Errorf("malformed version in %q", s)
	}
	return VersionedVariable{Name: name, Version: n}, nil
}

func parseXmmRegister(s string) (XmmRegister, error) {
	num, ok := strings.CutPrefix(s, "%xmm")
	if !ok {
		return XmmRegister{}, errors.Errorf("malformed register %q", s)
	}
	n, err := strconv.Atoi(num)
	// %xmm15 is reserved, only %xmm0..%xmm14 are modeled.
	if err != nil || n < 0 || n >= 15 {
		return XmmRegister{}, errors.Errorf("register %q out of range", s)
	}
	return XmmRegister{Name: s}, nil
}

func parseOperand(fields []string) (Operand, error) {
	switch len(fields) {
	case 1:
		s := fields[0]
		switch {
		case strings.HasPrefix(s, "%"):
			return parseXmmRegister(s)
		case strings.Contains(s, "#"):
			return ParseVersionedVariable(s)
		default:
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Errorf("malformed constant %q", s)
			}
			return Constant{Value: v}, nil
		}
	case 3:
		left, err := ParseVersionedVariable(fields[0])
		if err != nil {
			return nil, err
		}
		op, ok := LookupOp(fields[1])
		if !ok {
			return nil, errors.Errorf("unknown operator %q", fields[1])
		}
		right, err := ParseVersionedVariable(fields[2])
		if err != nil {
			return nil, err
		}
		return BinOp{Left: left, Op: op, Right: right}, nil
	}
	return nil, errors.Errorf("malformed right-hand side %v", fields)
}

// Parse reads the canonical IR text form back into a statement list.
func Parse(data string) ([]Stmt, error) {
	ir := make([]Stmt, 0)
	for _, line := range strings.Split(data, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "ret":
			if len(fields) != 2 {
				return nil, errors.Errorf("malformed return %q", line)
			}
			v, err := ParseVersionedVariable(fields[1])
			if err != nil {
				return nil, err
			}
			ir = append(ir, Return{Value: v})
		case "label":
			if len(fields) != 2 {
				return nil, errors.Errorf("malformed label %q", line)
			}
			ir = append(ir, Label{Name: fields[1]})
		case "goto":
			if len(fields) != 2 {
				return nil, errors.Errorf("malformed goto %q", line)
			}
			ir = append(ir, Goto{Name: fields[1]})
		default:
			if len(fields) < 3 || fields[1] != ":=" {
				return nil, errors.Errorf("malformed statement %q", line)
			}
			left, err := ParseVersionedVariable(fields[0])
			if err != nil {
				return nil, err
			}
			right, err := parseOperand(fields[2:])
			if err != nil {
				return nil, err
			}
			ir = append(ir, Assignment{Left: left, Right: right})
		}
	}
	return ir, nil
}

// Unparse renders ir as text, one statement per line.
func Unparse(ir []Stmt) string {
	return String(ir)
}
