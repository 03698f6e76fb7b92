// Package parser implements bang's parser: a Pratt expression parser
// with statement recognition at indentation boundaries.
//
// The whole token stream is buffered up front (via lexer.Lexer.Tokenize)
// rather than kept as a two-token lookahead window, because disambiguating
// a function literal's `(params) -> ...` from a parenthesised expression
// requires scanning ahead to the matching `)` before committing to either
// parse. Everything else about the grammar only ever needs one token of
// lookahead, in keeping with the indentation-sensitive design.
package parser

import (
	"strconv"
	"strings"

	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/diagnostic"
	"github.com/kristofer/bang/pkg/lexer"
)

// Operator precedence, lowest to highest.
const (
	precNone = iota
	precAssignment
	precPipeline
	precNullish
	precOr
	precAnd
	precEquality
	precComparison
	precAdditive
	precMultiplicative
	precUnary
	precCall
)

var binaryPrecedence = map[lexer.TokenType]int{
	lexer.TokenPipeline:          precPipeline,
	lexer.TokenQuestionQuestion:  precNullish,
	lexer.TokenOrOr:              precOr,
	lexer.TokenOr:                precOr,
	lexer.TokenAndAnd:            precAnd,
	lexer.TokenAnd:               precAnd,
	lexer.TokenEqual:             precEquality,
	lexer.TokenNotEqual:          precEquality,
	lexer.TokenLess:              precComparison,
	lexer.TokenGreater:           precComparison,
	lexer.TokenLessEqual:         precComparison,
	lexer.TokenGreaterEqual:      precComparison,
	lexer.TokenPlus:              precAdditive,
	lexer.TokenMinus:             precAdditive,
	lexer.TokenStar:              precMultiplicative,
	lexer.TokenSlash:             precMultiplicative,
	lexer.TokenLParen:            precCall,
	lexer.TokenLBracket:          precCall,
	lexer.TokenDot:               precCall,
}

var assignOps = map[lexer.TokenType]string{
	lexer.TokenAssign:      "",
	lexer.TokenPlusAssign:  "+",
	lexer.TokenMinusAssign: "-",
	lexer.TokenStarAssign:  "*",
	lexer.TokenSlashAssign: "/",
}

// Parser parses a buffered token stream into an AST. Create one per
// source file or splice body; it is not reusable.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New tokenizes src and returns a Parser ready to parse it.
func New(src string) (*Parser, error) {
	toks, err := lexer.New(src).Tokenize()
	if err != nil {
		return nil, diagnostic.New(diagnostic.SyntaxError, 0, "%s", err)
	}
	return &Parser{tokens: toks}, nil
}

func (p *Parser) cur() lexer.Token  { return p.peekAt(0) }
func (p *Parser) peek() lexer.Token { return p.peekAt(1) }

func (p *Parser) peekAt(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) curIs(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if !p.curIs(tt) {
		return lexer.Token{}, p.errorf("expected %s, got %s", tt, p.cur().Type)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return diagnostic.New(diagnostic.SyntaxError, p.cur().Line, format, args...)
}

// skipNewlines consumes any run of EndOfLine tokens, used between
// statements where blank/comment-only lines leave nothing behind.
func (p *Parser) skipNewlines() {
	for p.curIs(lexer.TokenEndOfLine) {
		p.advance()
	}
}

// Parse parses the entire token stream as a program.
func (p *Parser) Parse() (*ast.Program, error) {
	program := &ast.Program{}
	p.skipNewlines()
	for !p.curIs(lexer.TokenEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
		p.skipNewlines()
	}
	return program, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Type {
	case lexer.TokenLet:
		return p.parseLet()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenReturn:
		return p.parseReturn()
	case lexer.TokenFrom:
		return p.parseImport()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseLet() (ast.Statement, error) {
	start := p.advance() // `let`

	var names []string
	destructure := false

	if p.curIs(lexer.TokenLBracket) {
		destructure = true
		p.advance()
		for !p.curIs(lexer.TokenRBracket) {
			name, err := p.expect(lexer.TokenIdentifier)
			if err != nil {
				return nil, err
			}
			names = append(names, name.Literal)
			if p.curIs(lexer.TokenComma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.TokenRBracket); err != nil {
			return nil, err
		}
	} else {
		name, err := p.expect(lexer.TokenIdentifier)
		if err != nil {
			return nil, err
		}
		names = []string{name.Literal}
	}

	if _, err := p.expect(lexer.TokenAssign); err != nil {
		return nil, err
	}

	expr, err := p.parseExpression(precAssignment)
	if err != nil {
		return nil, err
	}

	return &ast.Declaration{
		Span:        span(start, p.cur()),
		Names:       names,
		Destructure: destructure,
		Expression:  expr,
	}, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	start := p.advance() // `if`

	cond, err := p.parseExpression(precAssignment)
	if err != nil {
		return nil, err
	}

	then, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	stmt := &ast.If{Span: span(start, p.cur()), Condition: cond, Then: then}

	p.skipNewlines()
	if p.curIs(lexer.TokenElse) {
		p.advance()
		if p.curIs(lexer.TokenIf) {
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Otherwise = elseIf
		} else {
			otherwise, err := p.parseBody()
			if err != nil {
				return nil, err
			}
			stmt.Otherwise = otherwise
		}
	}

	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	start := p.advance() // `while`

	cond, err := p.parseExpression(precAssignment)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.While{Span: span(start, p.cur()), Condition: cond, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	start := p.advance() // `return`

	if p.curIs(lexer.TokenEndOfLine) || p.curIs(lexer.TokenEOF) || p.curIs(lexer.TokenBlockEnd) {
		return &ast.Return{Span: span(start, p.cur())}, nil
	}
	expr, err := p.parseExpression(precAssignment)
	if err != nil {
		return nil, err
	}
	return &ast.Return{Span: span(start, p.cur()), Expression: expr}, nil
}

func (p *Parser) parseImport() (ast.Statement, error) {
	start := p.advance() // `from`

	module, err := p.expect(lexer.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenImport); err != nil {
		return nil, err
	}

	var names []ast.ImportedName
	bare := true
	if p.curIs(lexer.TokenLBracket) {
		bare = false
		p.advance()
	}
	for {
		name, err := p.expect(lexer.TokenIdentifier)
		if err != nil {
			return nil, err
		}
		alias := name.Literal
		if p.curIs(lexer.TokenAs) {
			p.advance()
			aliasTok, err := p.expect(lexer.TokenIdentifier)
			if err != nil {
				return nil, err
			}
			alias = aliasTok.Literal
		}
		names = append(names, ast.ImportedName{Name: name.Literal, Alias: alias})
		if p.curIs(lexer.TokenComma) {
			p.advance()
			continue
		}
		break
	}
	if !bare {
		if _, err := p.expect(lexer.TokenRBracket); err != nil {
			return nil, err
		}
	}

	return &ast.Import{Span: span(start, p.cur()), Module: module.Literal, Names: names}, nil
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	start := p.cur()
	expr, err := p.parseExpression(precAssignment)
	if err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Span: span(start, p.cur()), Expression: expr}, nil
}

// parseBody parses either an indented block (EndOfLine followed by
// BlockStart ... BlockEnd) or a single same-line statement, per if,
// while, and function-literal bodies all sharing this rule.
func (p *Parser) parseBody() (*ast.Block, error) {
	start := p.cur()

	if p.curIs(lexer.TokenEndOfLine) {
		p.advance()
		p.skipNewlines()
		if !p.curIs(lexer.TokenBlockStart) {
			return nil, p.errorf("expected an indented block")
		}
		p.advance()

		block := &ast.Block{Span: span(start, p.cur())}
		p.skipNewlines()
		for !p.curIs(lexer.TokenBlockEnd) && !p.curIs(lexer.TokenEOF) {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			block.Body = append(block.Body, stmt)
			p.skipNewlines()
		}
		if _, err := p.expect(lexer.TokenBlockEnd); err != nil {
			return nil, err
		}
		return block, nil
	}

	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Block{Span: span(start, p.cur()), Body: []ast.Statement{stmt}}, nil
}

func span(start, end lexer.Token) ast.Span {
	return ast.Span{Start: ast.Position(start.Column), End: ast.Position(end.Column), Line: start.Line}
}

// --- expressions ---

func (p *Parser) parseExpression(precedence int) (ast.Expression, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		tt := p.cur().Type
		if op, ok := assignOps[tt]; ok && precedence <= precAssignment {
			left, err = p.parseAssignment(left, op)
			if err != nil {
				return nil, err
			}
			continue
		}
		prec, ok := binaryPrecedence[tt]
		if !ok || prec <= precedence {
			break
		}
		switch tt {
		case lexer.TokenLParen:
			left, err = p.parseCall(left)
		case lexer.TokenLBracket:
			left, err = p.parseIndex(left)
		case lexer.TokenDot:
			left, err = p.parseModuleAccess(left)
		default:
			left, err = p.parseBinary(left, prec)
		}
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

func (p *Parser) parsePrefix() (ast.Expression, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		n, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorf("invalid number literal %q", tok.Literal)
		}
		return &ast.Literal{Span: span(tok, tok), Value: n}, nil
	case lexer.TokenString:
		p.advance()
		return &ast.Literal{Span: span(tok, tok), Value: tok.Literal}, nil
	case lexer.TokenFormatString:
		p.advance()
		return p.buildFormatString(tok)
	case lexer.TokenTrue:
		p.advance()
		return &ast.Literal{Span: span(tok, tok), Value: true}, nil
	case lexer.TokenFalse:
		p.advance()
		return &ast.Literal{Span: span(tok, tok), Value: false}, nil
	case lexer.TokenNull:
		p.advance()
		return &ast.Literal{Span: span(tok, tok), Value: nil}, nil
	case lexer.TokenIdentifier:
		p.advance()
		return &ast.Variable{Span: span(tok, tok), Name: tok.Literal}, nil
	case lexer.TokenMinus, lexer.TokenBang:
		p.advance()
		operand, err := p.parseExpression(precUnary)
		if err != nil {
			return nil, err
		}
		op := "-"
		if tok.Type == lexer.TokenBang {
			op = "!"
		}
		return &ast.Unary{Span: span(tok, p.cur()), Operator: op, Expression: operand}, nil
	case lexer.TokenLBracket:
		return p.parseList()
	case lexer.TokenLParen:
		if p.looksLikeFunctionLiteral() {
			return p.parseFunctionLiteral()
		}
		p.advance()
		expr, err := p.parseExpression(precAssignment)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return &ast.Group{Span: span(tok, p.cur()), Expression: expr}, nil
	}
	return nil, p.errorf("unexpected token %s", tok.Type)
}

func (p *Parser) parseAssignment(target ast.Expression, op string) (ast.Expression, error) {
	eq := p.advance()
	value, err := p.parseExpression(precAssignment - 1)
	if err != nil {
		return nil, err
	}
	if idx, ok := target.(*ast.Index); ok {
		return &ast.IndexAssignment{
			Span:       span(eq, p.cur()),
			Expression: idx.Expression,
			IndexExpr:  idx.IndexExpr,
			Operator:   op,
			Value:      value,
		}, nil
	}
	return &ast.Assignment{Span: span(eq, p.cur()), Target: target, Operator: op, Value: value}, nil
}

func (p *Parser) parseBinary(left ast.Expression, prec int) (ast.Expression, error) {
	opTok := p.advance()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	return &ast.Binary{Span: span(opTok, p.cur()), Left: left, Operator: operatorText(opTok), Right: right}, nil
}

func operatorText(tok lexer.Token) string {
	if tok.Literal != "" {
		return tok.Literal
	}
	return tok.Type.String()
}

func (p *Parser) parseCall(callee ast.Expression) (ast.Expression, error) {
	start := p.advance() // (
	var args []ast.Expression
	for !p.curIs(lexer.TokenRParen) {
		arg, err := p.parseExpression(precAssignment)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.curIs(lexer.TokenComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	return &ast.Call{Span: span(start, p.cur()), Callee: callee, Arguments: args}, nil
}

func (p *Parser) parseIndex(receiver ast.Expression) (ast.Expression, error) {
	start := p.advance() // [
	idx, err := p.parseExpression(precAssignment)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	return &ast.Index{Span: span(start, p.cur()), Expression: receiver, IndexExpr: idx}, nil
}

// parseModuleAccess handles `Module.symbol`, the dot-notation companion
// to `from Module import [...]`. Only a bare identifier receiver is
// accepted — ModuleAccess names a module and a symbol, not a general
// member-access chain.
func (p *Parser) parseModuleAccess(receiver ast.Expression) (ast.Expression, error) {
	dot := p.advance() // .
	v, ok := receiver.(*ast.Variable)
	if !ok {
		return nil, p.errorf("module access requires a module name, got %T", receiver)
	}
	symbol, err := p.expect(lexer.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	return &ast.ModuleAccess{Span: span(dot, symbol), Module: v.Name, Symbol: symbol.Literal}, nil
}

func (p *Parser) parseList() (ast.Expression, error) {
	start := p.advance() // [
	var items []ast.Expression
	for !p.curIs(lexer.TokenRBracket) {
		item, err := p.parseExpression(precAssignment)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.curIs(lexer.TokenComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	return &ast.List{Span: span(start, p.cur()), Items: items}, nil
}

// looksLikeFunctionLiteral scans ahead from the current `(` to its
// matching `)` without consuming tokens, and reports whether an arrow
// follows it — the only way to tell a function literal's parameter
// list apart from a parenthesised expression without backtracking.
func (p *Parser) looksLikeFunctionLiteral() bool {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case lexer.TokenLParen:
			depth++
		case lexer.TokenRParen:
			depth--
			if depth == 0 {
				if i+1 >= len(p.tokens) {
					return false
				}
				next := p.tokens[i+1].Type
				return next == lexer.TokenArrow || next == lexer.TokenFatArrow
			}
		case lexer.TokenEOF:
			return false
		}
	}
	return false
}

func (p *Parser) parseFunctionLiteral() (ast.Expression, error) {
	start := p.advance() // (

	var params []ast.Parameter
	variadic := false
	for !p.curIs(lexer.TokenRParen) {
		name, err := p.expect(lexer.TokenIdentifier)
		if err != nil {
			return nil, err
		}
		if p.curIs(lexer.TokenDot) && p.peek().Type == lexer.TokenDot && p.peekAt(2).Type == lexer.TokenDot {
			p.advance()
			p.advance()
			p.advance()
			variadic = true
		}
		var typ *ast.TypeExpression
		if p.curIs(lexer.TokenColon) {
			p.advance()
			t, err := p.parseTypeExpression()
			if err != nil {
				return nil, err
			}
			typ = t
		}
		params = append(params, ast.Parameter{Name: name.Literal, Type: typ})
		if p.curIs(lexer.TokenComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}

	fn := &ast.Function{Parameters: params, Variadic: variadic}

	switch {
	case p.curIs(lexer.TokenArrow):
		p.advance()
		retType, err := p.parseTypeExpression()
		if err != nil {
			return nil, err
		}
		fn.ReturnType = retType
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		fn.Body = body
	case p.curIs(lexer.TokenFatArrow):
		p.advance()
		expr, err := p.parseExpression(precAssignment)
		if err != nil {
			return nil, err
		}
		fn.Body = &ast.Block{Body: []ast.Statement{&ast.Return{Expression: expr}}}
	default:
		return nil, p.errorf("expected -> or => after function parameters")
	}

	fn.Span = span(start, p.cur())
	return fn, nil
}

// buildFormatString re-parses each `${...}` splice collected by the
// lexer with a fresh Parser, since a splice body is itself a full
// expression (and may nest format strings of its own).
func (p *Parser) buildFormatString(tok lexer.Token) (ast.Expression, error) {
	fs := &ast.FormatString{Span: span(tok, tok)}
	var pendingLiteral strings.Builder

	flush := func() {
		fs.Strings = append(fs.Strings, pendingLiteral.String())
		pendingLiteral.Reset()
	}

	for _, part := range tok.Parts {
		if !part.IsSplice {
			pendingLiteral.WriteString(part.Literal)
			continue
		}
		flush()
		sub, err := New(part.Splice)
		if err != nil {
			return nil, err
		}
		expr, err := sub.parseExpression(precAssignment)
		if err != nil {
			return nil, err
		}
		fs.Expressions = append(fs.Expressions, expr)
	}
	flush()

	return fs, nil
}

// --- type expressions ---

// parseTypeExpression parses one type annotation. Union types
// (TypeUnion) have no surface syntax here: the lexer has no single-pipe
// token (only `||`), so TypeUnion exists in the AST purely for a future
// grammar extension and is never produced by this parser.
func (p *Parser) parseTypeExpression() (*ast.TypeExpression, error) {
	return p.parseTypePrimary()
}

func (p *Parser) parseTypePrimary() (*ast.TypeExpression, error) {
	start := p.cur()

	var base *ast.TypeExpression
	switch {
	case p.curIs(lexer.TokenIdentifier):
		p.advance()
		base = &ast.TypeExpression{Span: span(start, start), Kind: ast.TypeNamed, Ident: start.Literal}
	case p.curIs(lexer.TokenLBracket):
		p.advance()
		inner, err := p.parseTypeExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRBracket); err != nil {
			return nil, err
		}
		base = &ast.TypeExpression{Span: span(start, p.cur()), Kind: ast.TypeList, Inner: inner}
	case p.curIs(lexer.TokenLParen):
		p.advance()
		var params []*ast.TypeExpression
		for !p.curIs(lexer.TokenRParen) {
			t, err := p.parseTypeExpression()
			if err != nil {
				return nil, err
			}
			params = append(params, t)
			if p.curIs(lexer.TokenComma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		if p.curIs(lexer.TokenArrow) {
			p.advance()
			ret, err := p.parseTypeExpression()
			if err != nil {
				return nil, err
			}
			base = &ast.TypeExpression{Span: span(start, p.cur()), Kind: ast.TypeFunction, Parameters: params, Return: ret}
		} else if len(params) == 1 {
			base = &ast.TypeExpression{Span: span(start, p.cur()), Kind: ast.TypeGroup, Inner: params[0]}
		} else {
			return nil, p.errorf("expected -> after parenthesised type list")
		}
	default:
		return nil, p.errorf("expected a type, got %s", p.cur().Type)
	}

	return base, nil
}
