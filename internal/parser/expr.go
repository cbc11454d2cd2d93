package parser

import (
	"strconv"
	"strings"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/token"
)

// Binary precedence levels below the conditional, loosest first. Levels
// past precCompare are parsed by dedicated functions.
const (
	precOr = iota
	precAnd
	precIn
	precMatch
	precCompare
)

var assignOps = map[token.Token]bool{
	token.ASSIGN:     true,
	token.ADD_ASSIGN: true,
	token.SUB_ASSIGN: true,
	token.MUL_ASSIGN: true,
	token.DIV_ASSIGN: true,
	token.MOD_ASSIGN: true,
	token.POW_ASSIGN: true,
}

// parseExpr parses a full expression.
func (p *Parser) parseExpr() ast.Expr {
	return p.assign(false)
}

// parsePrintExpr parses a print argument, where an unparenthesized > or |
// starts the redirection.
func (p *Parser) parsePrintExpr() ast.Expr {
	return p.assign(true)
}

// assign parses right-associative assignments.
func (p *Parser) assign(inPrint bool) ast.Expr {
	start := p.tok.Pos
	left := p.conditional(inPrint)
	if !assignOps[p.tok.Type] {
		return left
	}
	op, opPos := p.tok.Type, p.tok.Pos
	p.next()
	p.skipNewlines()
	right := p.assign(inPrint)

	if ast.IsLValue(left) {
		return newAssign(left, op, right)
	}
	// "1 && x = 1" assigns to x
	if bin, ok := left.(*ast.BinaryExpr); ok && ast.IsLValue(bin.Right) {
		switch bin.Op {
		case token.AND, token.OR,
			token.EQUALS, token.NOT_EQUALS, token.LESS, token.LTE, token.GTE, token.GREATER:
			return &ast.BinaryExpr{
				BaseExpr: ast.MakeBaseExpr(start, right.End()),
				Left:     bin.Left,
				Op:       bin.Op,
				Right:    newAssign(bin.Right, op, right),
			}
		}
	}
	p.fail(errorf(opPos, "left side of assignment must be a variable, field, or array element"))
	return nil
}

func newAssign(left ast.Expr, op token.Token, right ast.Expr) *ast.AssignExpr {
	return &ast.AssignExpr{
		BaseExpr: ast.MakeBaseExpr(left.Pos(), right.End()),
		Left:     ast.Unparen(left),
		Op:       op,
		Right:    right,
	}
}

func newBinary(left ast.Expr, op token.Token, right ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{
		BaseExpr: ast.MakeBaseExpr(left.Pos(), right.End()),
		Left:     left,
		Op:       op,
		Right:    right,
	}
}

// conditional parses "cond ? then : else", which nests to the right.
func (p *Parser) conditional(inPrint bool) ast.Expr {
	cond := p.binary(precOr, inPrint)
	if p.tok.Type != token.QUESTION {
		return cond
	}
	p.next()
	p.skipNewlines()
	then := p.parseExpr()
	p.skipNewlines()
	p.expect(token.COLON)
	p.skipNewlines()
	els := p.conditional(inPrint)
	return &ast.TernaryExpr{
		BaseExpr: ast.MakeBaseExpr(cond.Pos(), els.End()),
		Cond:     cond,
		Then:     then,
		Else:     els,
	}
}

// binary parses the operators of level prec and everything tighter.
func (p *Parser) binary(prec int, inPrint bool) ast.Expr {
	if prec > precCompare {
		return p.pipeGetline(!inPrint)
	}
	operand := func() ast.Expr { return p.binary(prec+1, inPrint) }
	expr := operand()

	switch prec {
	case precOr, precAnd:
		op := token.OR
		if prec == precAnd {
			op = token.AND
		}
		for p.tok.Type == op {
			p.next()
			p.skipNewlines()
			expr = newBinary(expr, op, operand())
		}

	case precIn:
		for p.tok.Type == token.IN {
			p.next()
			array := p.arrayName()
			expr = &ast.InExpr{
				BaseExpr: ast.MakeBaseExpr(expr.Pos(), array.End()),
				Index:    []ast.Expr{expr},
				Array:    array,
			}
		}

	case precMatch:
		for p.at(token.MATCH, token.NOT_MATCH) {
			op := p.tok.Type
			p.next()
			pattern := operand()
			expr = &ast.MatchExpr{
				BaseExpr: ast.MakeBaseExpr(expr.Pos(), pattern.End()),
				Expr:     expr,
				Op:       op,
				Pattern:  pattern,
			}
		}

	case precCompare:
		// Comparisons don't chain: "a < b < c" is a syntax error.
		if p.atComparison(inPrint) {
			op := p.tok.Type
			p.next()
			expr = newBinary(expr, op, operand())
		}
	}
	return expr
}

// atComparison reports whether the current token is a comparison
// operator. Inside print arguments > is a redirection instead.
func (p *Parser) atComparison(inPrint bool) bool {
	switch p.tok.Type {
	case token.EQUALS, token.NOT_EQUALS, token.LESS, token.LTE, token.GTE:
		return true
	case token.GREATER:
		return !inPrint
	}
	return false
}

// pipeGetline parses a concatenation optionally piped into getline:
// "cmd" | getline [var]. The pipe binds looser than concatenation.
func (p *Parser) pipeGetline(pipes bool) ast.Expr {
	expr := p.concat()
	for pipes && p.tok.Type == token.PIPE {
		p.next()
		if p.tok.Type != token.GETLINE {
			p.fail(expectedError(p.tok.Pos, "getline after |", p.tokenDesc()))
		}
		p.next()
		target := p.lvalue()
		expr = &ast.GetlineExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), p.prevTok.Pos),
			Command:  expr,
			Target:   target,
		}
	}
	return expr
}

// concat parses implicit concatenation.
func (p *Parser) concat() ast.Expr {
	first := p.additive()
	if !p.startsOperand() {
		return first
	}
	exprs := []ast.Expr{first}
	for p.startsOperand() {
		exprs = append(exprs, p.additive())
	}
	return &ast.ConcatExpr{
		BaseExpr: ast.MakeBaseExpr(first.Pos(), exprs[len(exprs)-1].End()),
		Exprs:    exprs,
	}
}

// startsOperand reports whether the current token can begin a
// concatenated operand. '+', '-' and '/' are binary operators here.
func (p *Parser) startsOperand() bool {
	switch p.tok.Type {
	case token.DOLLAR, token.NOT, token.NAME, token.NUMBER, token.STRING,
		token.LPAREN, token.INCR, token.DECR, token.REGEX:
		return true
	}
	return p.tok.Type.IsBuiltin()
}

func (p *Parser) additive() ast.Expr {
	expr := p.multiplicative()
	for p.at(token.ADD, token.SUB) {
		op := p.tok.Type
		p.next()
		expr = newBinary(expr, op, p.multiplicative())
	}
	return expr
}

func (p *Parser) multiplicative() ast.Expr {
	expr := p.power()
	for p.at(token.MUL, token.DIV, token.MOD) {
		op := p.tok.Type
		p.next()
		expr = newBinary(expr, op, p.power())
	}
	return expr
}

// power parses right-associative ^. A signed exponent binds to the
// power: 2^-1 is 2^(-1).
func (p *Parser) power() ast.Expr {
	base := p.postfix()
	if p.tok.Type != token.POW {
		return base
	}
	p.next()
	var exp ast.Expr
	if p.at(token.SUB, token.ADD, token.NOT) {
		exp = p.primary()
	} else {
		exp = p.power()
	}
	return newBinary(base, token.POW, exp)
}

// postfix parses x++ and x--.
func (p *Parser) postfix() ast.Expr {
	expr := p.primary()
	if !p.at(token.INCR, token.DECR) || !ast.IsLValue(expr) {
		return expr
	}
	op := p.tok.Type
	p.next()
	return &ast.UnaryExpr{
		BaseExpr: ast.MakeBaseExpr(expr.Pos(), p.prevTok.Pos),
		Op:       op,
		Expr:     ast.Unparen(expr),
		Post:     true,
	}
}

// primary parses operands and prefix operators.
func (p *Parser) primary() ast.Expr {
	start := p.tok.Pos

	switch tok := p.tok; tok.Type {
	case token.NUMBER:
		p.next()
		return &ast.NumLit{BaseExpr: p.exprSpan(start), Value: parseNumber(tok.Value), Raw: tok.Value}

	case token.STRING:
		p.next()
		return &ast.StrLit{BaseExpr: p.exprSpan(start), Value: tok.Value}

	case token.REGEX:
		p.next()
		return &ast.RegexLit{BaseExpr: p.exprSpan(start), Pattern: tok.Value}

	case token.DIV, token.DIV_ASSIGN:
		// The lexer took '/' for division; in operand position it opens a regex
		p.tok = p.lexer.RescanRegex(p.tok)
		if p.tok.Type == token.ILLEGAL {
			p.errorf("%s", p.tok.Value)
		}
		return p.primary()

	case token.DOLLAR:
		return p.field()

	case token.NOT, token.ADD, token.SUB:
		p.next()
		operand := p.power()
		return &ast.UnaryExpr{BaseExpr: ast.MakeBaseExpr(start, operand.End()), Op: tok.Type, Expr: operand}

	case token.INCR, token.DECR:
		p.next()
		target := p.lvalue()
		if target == nil {
			p.errorf("expected variable after %s", tok.Type)
		}
		return &ast.UnaryExpr{BaseExpr: ast.MakeBaseExpr(start, target.End()), Op: tok.Type, Expr: target}

	case token.NAME:
		name, pos := p.name()
		switch {
		case p.tok.Type == token.LBRACKET:
			return p.element(name, pos)
		case p.tok.Type == token.LPAREN && !p.lexer.HadSpace():
			return p.userCall(name, pos)
		}
		return &ast.Ident{BaseExpr: ast.MakeBaseExpr(pos, pos), Name: name}

	case token.LPAREN:
		return p.grouping()

	case token.GETLINE:
		return p.simpleGetline()
	}

	if p.tok.Type.IsBuiltin() {
		return p.builtinCall()
	}
	p.fail(expectedError(p.tok.Pos, "expression", p.tokenDesc()))
	return nil
}

// field parses "$expr", where expr is a primary.
func (p *Parser) field() *ast.FieldExpr {
	start := p.tok.Pos
	p.expect(token.DOLLAR)
	index := p.primary()
	return &ast.FieldExpr{BaseExpr: ast.MakeBaseExpr(start, index.End()), Index: index}
}

// element parses the subscript of name[...], the name already consumed.
func (p *Parser) element(name string, pos token.Position) *ast.IndexExpr {
	array := &ast.Ident{BaseExpr: ast.MakeBaseExpr(pos, pos), Name: name, Array: true}
	index := p.subscript()
	return &ast.IndexExpr{BaseExpr: p.exprSpan(pos), Array: array, Index: index}
}

// grouping parses a parenthesized expression, a list for a multi
// dimensional "in", or a list of print arguments.
func (p *Parser) grouping() ast.Expr {
	start := p.tok.Pos
	p.next()
	p.skipNewlines()
	exprs := p.exprList(p.parseExpr)
	p.skipNewlines()
	p.expect(token.RPAREN)

	switch len(exprs) {
	case 0:
		p.fail(errorf(start, "expected expression in parentheses"))
	case 1:
		return &ast.GroupExpr{BaseExpr: p.exprSpan(start), Expr: exprs[0]}
	}
	if p.tok.Type == token.IN {
		p.next()
		array := p.arrayName()
		return &ast.InExpr{BaseExpr: ast.MakeBaseExpr(start, array.End()), Index: exprs, Array: array}
	}
	return &ast.ListExpr{BaseExpr: p.exprSpan(start), Exprs: exprs}
}

// parseNumber converts a NUMBER token to its value. Hex literals are
// integers; decimal literals that overflow become infinities.
func parseNumber(raw string) float64 {
	if len(raw) > 2 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X') {
		if n, err := strconv.ParseUint(raw[2:], 16, 64); err == nil {
			return float64(n)
		}
		f, _ := strconv.ParseFloat(raw+"p0", 64)
		return f
	}
	f, _ := strconv.ParseFloat(strings.TrimRight(raw, "eE"), 64)
	return f
}

// simpleGetline parses "getline [var] [< file]".
func (p *Parser) simpleGetline() *ast.GetlineExpr {
	start := p.tok.Pos
	p.next()
	target := p.lvalue()
	var file ast.Expr
	if p.tok.Type == token.LESS {
		p.next()
		file = p.primary()
	}
	return &ast.GetlineExpr{BaseExpr: p.exprSpan(start), Target: target, File: file}
}

// lvalue parses the optional target of getline or a prefix ++/--: a
// variable, array element or field. It returns nil if none follows.
func (p *Parser) lvalue() ast.Expr {
	switch p.tok.Type {
	case token.NAME:
		name, pos := p.name()
		switch {
		case p.tok.Type == token.LPAREN && !p.lexer.HadSpace():
			p.fail(errorf(pos, "cannot assign to function call %s()", name))
		case p.tok.Type == token.LBRACKET:
			return p.element(name, pos)
		}
		return &ast.Ident{BaseExpr: ast.MakeBaseExpr(pos, pos), Name: name}
	case token.DOLLAR:
		return p.field()
	}
	return nil
}

// arrayName parses the bare array name of in, delete and split.
func (p *Parser) arrayName() *ast.Ident {
	name, pos := p.name()
	return &ast.Ident{BaseExpr: ast.MakeBaseExpr(pos, pos), Name: name, Array: true}
}

// subscript parses "[expr, ...]".
func (p *Parser) subscript() []ast.Expr {
	p.expect(token.LBRACKET)
	p.skipNewlines()
	index := p.exprList(p.parseExpr)
	if len(index) == 0 {
		p.errorf("expected expression in array index")
	}
	p.skipNewlines()
	p.expect(token.RBRACKET)
	return index
}

// callArgs parses "(arg, ...)". parseArg parses argument i.
func (p *Parser) callArgs(parseArg func(i int) ast.Expr) []ast.Expr {
	p.expect(token.LPAREN)
	p.skipNewlines()
	var args []ast.Expr
	for p.tok.Type != token.RPAREN {
		if len(args) > 0 {
			p.comma()
		}
		args = append(args, parseArg(len(args)))
		p.skipNewlines()
	}
	p.expect(token.RPAREN)
	return args
}

// userCall parses a call of a user-defined or extended builtin function.
// The resolver binds it later.
func (p *Parser) userCall(name string, pos token.Position) *ast.CallExpr {
	args := p.callArgs(func(int) ast.Expr { return p.parseExpr() })
	return &ast.CallExpr{BaseExpr: p.exprSpan(pos), Name: name, Args: args, Func: -1}
}

// builtinArity gives the minimum and maximum argument counts of the POSIX
// builtins. A maximum of -1 means variadic.
var builtinArity = map[token.Token][2]int{
	token.F_ATAN2:   {2, 2},
	token.F_CLOSE:   {1, 1},
	token.F_COS:     {1, 1},
	token.F_EXP:     {1, 1},
	token.F_FFLUSH:  {0, 1},
	token.F_GSUB:    {2, 3},
	token.F_INDEX:   {2, 2},
	token.F_INT:     {1, 1},
	token.F_LENGTH:  {0, 1},
	token.F_LOG:     {1, 1},
	token.F_MATCH:   {2, 3},
	token.F_RAND:    {0, 0},
	token.F_SIN:     {1, 1},
	token.F_SPLIT:   {2, 3},
	token.F_SPRINTF: {1, -1},
	token.F_SQRT:    {1, 1},
	token.F_SRAND:   {0, 1},
	token.F_SUB:     {2, 3},
	token.F_SUBSTR:  {2, 3},
	token.F_SYSTEM:  {1, 1},
	token.F_TOLOWER: {1, 1},
	token.F_TOUPPER: {1, 1},
}

// builtinCall parses a call of a POSIX builtin function.
func (p *Parser) builtinCall() ast.Expr {
	start := p.tok.Pos
	fn := p.tok.Type
	p.next()

	// length can be called without parens
	if fn == token.F_LENGTH && p.tok.Type != token.LPAREN {
		return &ast.BuiltinExpr{BaseExpr: p.exprSpan(start), Func: fn}
	}

	args := p.callArgs(func(i int) ast.Expr { return p.builtinArg(fn, i) })
	arity := builtinArity[fn]
	if len(args) < arity[0] || (arity[1] >= 0 && len(args) > arity[1]) {
		p.fail(errorf(start, "wrong number of arguments to %s: %d", fn, len(args)))
	}
	return &ast.BuiltinExpr{BaseExpr: p.exprSpan(start), Func: fn, Args: args}
}

// builtinArg parses argument i of builtin fn. The array argument of split
// and match must be a bare name, and the target of sub and gsub must be
// assignable.
func (p *Parser) builtinArg(fn token.Token, i int) ast.Expr {
	switch {
	case fn == token.F_SPLIT && i == 1, fn == token.F_MATCH && i == 2:
		return p.arrayName()
	case (fn == token.F_SUB || fn == token.F_GSUB) && i == 2:
		pos := p.tok.Pos
		target := p.parseExpr()
		if !ast.IsLValue(target) {
			p.fail(errorf(pos, "third argument to %s must be a variable, field, or array element", fn))
		}
		return ast.Unparen(target)
	}
	return p.parseExpr()
}

// exprList parses comma-separated expressions up to a token that closes
// the list.
func (p *Parser) exprList(parse func() ast.Expr) []ast.Expr {
	var exprs []ast.Expr
	for !p.at(token.NEWLINE, token.SEMICOLON, token.RBRACE, token.RBRACKET,
		token.RPAREN, token.GREATER, token.PIPE, token.APPEND, token.EOF) {
		if len(exprs) > 0 {
			p.comma()
		}
		exprs = append(exprs, parse())
	}
	return exprs
}
