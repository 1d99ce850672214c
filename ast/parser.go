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

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rw89fayv37/pycc/utils"
)

// SyntaxError reports a malformed source construct with its location.
type SyntaxError struct {
	File   string
	Line   int
	Detail string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError: %s:%d | %s", e.File, e.Line, e.Detail)
}

type Parser struct {
	token  TokenKind
	lexeme string
	lexer  *Lexer
}

func (p *Parser) syntaxError(format string, args ...interface{}) {
	panic(&SyntaxError{
		File:   p.lexer.fileName,
		Line:   p.lexer.line,
		Detail: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) guarantee(cond bool, format string, args ...interface{}) {
	if !cond {
		p.syntaxError(format, args...)
	}
}

func (p *Parser) consume() {
	p.token, p.lexeme = p.lexer.NextToken()
}

func (p *Parser) expect(tk TokenKind) string {
	p.guarantee(p.token == tk, "Expected %v, found %v", tk, p.token)
	lexeme := p.lexeme
	p.consume()
	return lexeme
}

// The source BNF is as follows:
//
//	func_decl = "func" name "(" [param ("," param)* [","]] ")" "->" name "{" stmt* "}"
//	param     = name [":" name]
//	stmt      = name "=" expr
//	          | "return" expr
//	expr      = mul_expr ((+ | -) mul_expr)*
//	mul_expr  = unary_expr ((* | /) unary_expr)*
//	unary_expr = "-" double_lit | primary_expr
//	primary_expr = double_lit | name | "(" expr ")"
//
// A missing parameter annotation parses, the front-end lowering rejects it
// so that the failure is reported as MissingAnnotation with the right line.
func (p *Parser) parseFuncDecl() *FuncDecl {
	fn := &FuncDecl{File: p.lexer.fileName, Line: p.lexer.line}
	p.guarantee(p.token == KW_FUNC, "Expected function definition")
	p.consume()
	fn.Name = p.expect(TK_IDENT)

	p.expect(TK_LPAREN)
	for p.token != TK_RPAREN {
		param := &Param{Line: p.lexer.line}
		param.Name = p.expect(TK_IDENT)
		if p.token == TK_COLON {
			p.consume()
			param.Annotation = p.expect(TK_IDENT)
		}
		fn.Params = append(fn.Params, param)
		if p.token == TK_COMMA {
			p.consume()
			continue
		}
		p.guarantee(p.token == TK_RPAREN, "Expected ')'")
	}
	p.consume()

	p.expect(TK_ARROW)
	fn.RetAnnotation = p.expect(TK_IDENT)

	p.expect(TK_LBRACE)
	for p.token != TK_RBRACE {
		fn.Body = append(fn.Body, p.parseStatement())
	}
	p.consume()
	return fn
}

func (p *Parser) parseStatement() AstStmt {
	switch p.token {
	case KW_RETURN:
		elem := &ReturnStmt{Line: p.lexer.line}
		p.consume()
		elem.Expr = p.parseExpression()
		return elem
	case TK_IDENT:
		elem := &AssignStmt{Line: p.lexer.line}
		elem.Name = p.lexeme
		p.consume()
		p.expect(TK_ASSIGN)
		elem.Right = p.parseExpression()
		return elem
	default:
		p.syntaxError("Expected statement, found %v", p.token)
	}
	return nil
}

func (p *Parser) parsePrimaryExpr() AstExpr {
	switch p.token {
	case LIT_DOUBLE:
		elem := &DoubleExpr{}
		elem.Type = TDouble
		elem.Line = p.lexer.line
		var err error
		elem.Value, err = strconv.ParseFloat(p.lexeme, 64)
		if err != nil {
			p.syntaxError("Failed to parse double literal %v", p.lexeme)
		}
		p.consume()
		return elem
	case TK_IDENT:
		elem := &VarExpr{Name: p.lexeme}
		elem.Line = p.lexer.line
		p.consume()
		return elem
	case TK_LPAREN:
		p.consume()
		expr := p.parseExpression()
		p.expect(TK_RPAREN)
		return expr
	}
	p.syntaxError("Expected expression, found %v", p.token)
	return nil
}

func (p *Parser) parseUnaryExpr() AstExpr {
	if p.token == TK_MINUS {
		p.consume()
		// Negation folds into the literal, the compiled core has no unary
		// operator.
		p.guarantee(p.token == LIT_DOUBLE, "Expected double literal after '-'")
		elem := p.parsePrimaryExpr().(*DoubleExpr)
		elem.Value = -elem.Value
		return elem
	}
	return p.parsePrimaryExpr()
}

func (p *Parser) parseMulExpr() AstExpr {
	left := p.parseUnaryExpr()
	for utils.Any(p.token, TK_TIMES, TK_DIV) {
		val := &BinaryExpr{Opt: p.token}
		val.Line = p.lexer.line
		p.consume()
		val.Left = left
		val.Right = p.parseUnaryExpr()
		left = val
	}
	return left
}

func (p *Parser) parseExpression() AstExpr {
	left := p.parseMulExpr()
	for utils.Any(p.token, TK_PLUS, TK_MINUS) {
		val := &BinaryExpr{Opt: p.token}
		val.Line = p.lexer.line
		p.consume()
		val.Left = left
		val.Right = p.parseMulExpr()
		left = val
	}
	return left
}

// ParseText parses source into the declaration of exactly one function.
func ParseText(source string, fileName string) (fn *FuncDecl, err error) {
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*SyntaxError); ok {
				fn, err = nil, se
				return
			}
			panic(r)
		}
	}()

	lexer := new(Lexer)
	lexer.Init(strings.NewReader(source), fileName)
	p := &Parser{lexer: lexer}
	p.consume()
	fn = p.parseFuncDecl()
	p.guarantee(p.token == TK_EOF, "Expected a single function, found %v", p.token)
	return fn, nil
}

// ParseFile parses the source file at path, it must hold exactly one
// function declaration.
func ParseFile(path string) (*FuncDecl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseText(string(data), path)
}
