package parser

import (
	"strconv"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/lexer"
	"github.com/kolkov/xawk/internal/token"
)

// blockKind says which kind of block is being parsed. It decides where
// next and nextfile are legal.
type blockKind uint8

const (
	inRule blockKind = iota
	inBegin
	inEnd
	inBeginFile
	inEndFile
)

// Parser is a recursive descent parser for xawk programs.
type Parser struct {
	lexer   *lexer.Lexer
	tok     lexer.Token
	prevTok lexer.Token
	err     *ParseError // first error; parsing stops there

	scope     blockKind
	funcName  string // enclosing function, empty at rule level
	loopDepth int
}

// Parse parses an xawk program from source code.
// The returned error is a *ParseError.
func Parse(src string) (*ast.Program, error) {
	return ParseBytes([]byte(src))
}

// ParseBytes parses an xawk program from byte slice.
func ParseBytes(src []byte) (prog *ast.Program, err error) {
	p := newParser(src)
	defer p.recover(&err)
	p.next()
	return p.program(), nil
}

// ParseExpr parses a single expression (useful for testing).
func ParseExpr(src string) (expr ast.Expr, err error) {
	p := newParser([]byte(src))
	defer p.recover(&err)
	p.next()
	expr = p.parseExpr()
	if p.tok.Type != token.EOF {
		p.fail(expectedError(p.tok.Pos, "end of expression", p.tokenDesc()))
	}
	return expr, nil
}

func newParser(src []byte) *Parser {
	return &Parser{lexer: lexer.New(src)}
}

// recover turns a bailout into the recorded error.
func (p *Parser) recover(err *error) {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
		*err = p.err
	}
}

// next advances to the next token. An ILLEGAL token from the lexer ends
// the parse with the lexer's message.
func (p *Parser) next() {
	p.prevTok = p.tok
	p.tok = p.lexer.Scan()
	if p.tok.Type == token.ILLEGAL {
		p.fail(errorf(p.tok.Pos, "%s", p.tok.Value))
	}
}

func (p *Parser) expect(tok token.Token) {
	if p.tok.Type != tok {
		p.fail(expectedError(p.tok.Pos, tok.String(), p.tokenDesc()))
	}
	p.next()
}

// name expects a NAME token and returns it.
func (p *Parser) name() (string, token.Position) {
	tok := p.tok
	if tok.Type != token.NAME {
		p.fail(expectedError(tok.Pos, "name", p.tokenDesc()))
	}
	p.next()
	return tok.Value, tok.Pos
}

// at reports whether the current token is one of toks.
func (p *Parser) at(toks ...token.Token) bool {
	for _, t := range toks {
		if p.tok.Type == t {
			return true
		}
	}
	return false
}

// tokenDesc describes the current token for error messages.
func (p *Parser) tokenDesc() string {
	switch p.tok.Type {
	case token.NAME, token.NUMBER:
		return p.tok.Value
	case token.STRING:
		return strconv.Quote(p.tok.Value)
	case token.NEWLINE:
		return "newline"
	case token.EOF:
		return "end of file"
	}
	return p.tok.Type.String()
}

// fail records err and abandons the parse.
func (p *Parser) fail(err *ParseError) {
	p.err = err
	panic(bailout{})
}

func (p *Parser) errorf(format string, args ...any) {
	p.fail(errorf(p.tok.Pos, format, args...))
}

// stmtSpan is the span from start to the last consumed token.
func (p *Parser) stmtSpan(start token.Position) ast.BaseStmt {
	return ast.MakeBaseStmt(start, p.prevTok.Pos)
}

func (p *Parser) exprSpan(start token.Position) ast.BaseExpr {
	return ast.MakeBaseExpr(start, p.prevTok.Pos)
}

func (p *Parser) skipNewlines() {
	for p.tok.Type == token.NEWLINE {
		p.next()
	}
}

// skipTerminators skips newlines and semicolons.
func (p *Parser) skipTerminators() {
	for p.at(token.NEWLINE, token.SEMICOLON) {
		p.next()
	}
}

// comma expects a comma, which may be followed by newlines.
func (p *Parser) comma() {
	p.expect(token.COMMA)
	p.skipNewlines()
}

func (p *Parser) atTerminator() bool {
	return p.at(token.NEWLINE, token.SEMICOLON, token.RBRACE, token.EOF)
}

// endSimple checks that a simple statement ends here. An else or the
// while of a do loop may follow on the same line.
func (p *Parser) endSimple() {
	if !p.atTerminator() && !p.at(token.ELSE, token.WHILE) {
		p.fail(expectedError(p.tok.Pos, "end of statement", p.tokenDesc()))
	}
}

// program parses a complete program: rules, special blocks and functions
// in any order.
func (p *Parser) program() *ast.Program {
	prog := &ast.Program{StartPos: p.tok.Pos}

	// A rule without an action must be followed by ; or a newline unless
	// it is the last item.
	bare := false
	for p.tok.Type != token.EOF {
		if bare && !p.at(token.NEWLINE, token.SEMICOLON) {
			p.errorf("expected ; or newline between items")
		}
		bare = false
		p.skipTerminators()

		switch p.tok.Type {
		case token.EOF:
		case token.BEGIN:
			prog.Begin = append(prog.Begin, p.specialBlock(inBegin))
		case token.END:
			prog.EndBlocks = append(prog.EndBlocks, p.specialBlock(inEnd))
		case token.BEGINFILE:
			prog.BeginFile = append(prog.BeginFile, p.specialBlock(inBeginFile))
		case token.ENDFILE:
			prog.EndFile = append(prog.EndFile, p.specialBlock(inEndFile))
		case token.FUNCTION:
			prog.Functions = append(prog.Functions, p.function())
		default:
			p.scope = inRule
			rule := p.rule()
			prog.Rules = append(prog.Rules, rule)
			bare = rule.Action == nil
		}
	}

	prog.EndPos = p.tok.Pos
	return prog
}

// specialBlock parses the action of BEGIN, END, BEGINFILE or ENDFILE.
func (p *Parser) specialBlock(kind blockKind) *ast.BlockStmt {
	p.next()
	p.scope = kind
	defer func() { p.scope = inRule }()
	return p.block()
}

// rule parses a pattern-action rule, optionally prefixed by a sampler:
// "@every N" or "@last N".
func (p *Parser) rule() *ast.Rule {
	rule := &ast.Rule{StartPos: p.tok.Pos}
	if p.tok.Type == token.AT {
		p.sampler(rule)
	}

	if !p.at(token.LBRACE, token.EOF, token.NEWLINE, token.SEMICOLON) {
		rule.Pattern = p.parseExpr()
		if p.tok.Type == token.COMMA {
			if rule.Sample != ast.SampleNone {
				p.errorf("a sampled rule cannot use a range pattern")
			}
			p.next()
			p.skipNewlines()
			start, stop := rule.Pattern, p.parseExpr()
			rule.Pattern = &ast.CommaExpr{
				BaseExpr: ast.MakeBaseExpr(start.Pos(), stop.End()),
				Left:     start,
				Right:    stop,
			}
		}
	}

	switch {
	case p.tok.Type == token.LBRACE:
		rule.Action = p.block()
	case rule.Pattern == nil && rule.Sample == ast.SampleNone:
		p.fail(expectedError(p.tok.Pos, "pattern or action", p.tokenDesc()))
	}

	rule.EndPos = p.prevTok.Pos
	return rule
}

// sampler parses "@every N" or "@last N" into rule.
func (p *Parser) sampler(rule *ast.Rule) {
	p.next()
	kind, pos := p.name()
	switch kind {
	case "every":
		rule.Sample = ast.SampleEvery
	case "last":
		rule.Sample = ast.SampleLast
	default:
		p.fail(errorf(pos, "unknown sampler @%s", kind))
	}
	if p.tok.Type != token.NUMBER {
		p.fail(expectedError(p.tok.Pos, "sample size", p.tokenDesc()))
	}
	n, err := strconv.Atoi(p.tok.Value)
	if err != nil || n <= 0 {
		p.errorf("sample size must be a positive integer, got %s", p.tok.Value)
	}
	rule.N = n
	p.next()
}

// function parses "function name(params) { body }".
func (p *Parser) function() *ast.FuncDecl {
	start := p.tok.Pos
	p.expect(token.FUNCTION)

	if p.tok.Type.IsBuiltin() {
		p.errorf("cannot redefine builtin function %s", p.tok.Type)
	}
	name, namePos := p.name()
	if p.tok.Type != token.LPAREN || p.lexer.HadSpace() {
		p.fail(expectedError(p.tok.Pos, "( directly after function name", p.tokenDesc()))
	}
	p.next()
	p.skipNewlines()

	var params []string
	seen := make(map[string]bool)
	for p.tok.Type != token.RPAREN {
		if len(params) > 0 {
			p.comma()
		}
		param, pos := p.name()
		switch {
		case param == name:
			p.fail(errorf(pos, "cannot use function name %q as parameter", name))
		case seen[param]:
			p.fail(errorf(pos, "duplicate parameter %q", param))
		}
		seen[param] = true
		params = append(params, param)
		p.skipNewlines()
	}
	p.expect(token.RPAREN)
	p.skipNewlines()

	p.funcName = name
	body := p.block()
	p.funcName = ""

	return &ast.FuncDecl{
		Name:     name,
		Params:   params,
		Body:     body,
		NamePos:  namePos,
		StartPos: start,
		EndPos:   p.prevTok.Pos,
	}
}

// block parses "{ stmts }".
func (p *Parser) block() *ast.BlockStmt {
	start := p.tok.Pos
	p.expect(token.LBRACE)

	var stmts []ast.Stmt
	for {
		p.skipTerminators()
		if p.tok.Type == token.RBRACE {
			break
		}
		if p.tok.Type == token.EOF {
			p.fail(expectedError(p.tok.Pos, "}", p.tokenDesc()))
		}
		stmts = append(stmts, p.stmt())
	}

	end := p.tok.Pos
	p.next()
	return &ast.BlockStmt{BaseStmt: ast.MakeBaseStmt(start, end), Stmts: stmts}
}

// stmt parses one statement.
func (p *Parser) stmt() ast.Stmt {
	start := p.tok.Pos

	var s ast.Stmt
	switch p.tok.Type {
	case token.IF:
		return p.ifStmt()
	case token.WHILE:
		return p.whileStmt()
	case token.FOR:
		return p.forStmt()
	case token.DO:
		return p.doStmt()
	case token.LBRACE:
		return p.block()

	case token.BREAK, token.CONTINUE:
		kind := p.tok.Type
		if p.loopDepth == 0 {
			p.errorf("%s must be inside a loop", kind)
		}
		p.next()
		if kind == token.BREAK {
			s = &ast.BreakStmt{BaseStmt: p.stmtSpan(start)}
		} else {
			s = &ast.ContinueStmt{BaseStmt: p.stmtSpan(start)}
		}

	case token.NEXT:
		if p.scope != inRule && p.funcName == "" {
			p.errorf("next cannot be inside BEGIN, END, BEGINFILE or ENDFILE")
		}
		p.next()
		s = &ast.NextStmt{BaseStmt: p.stmtSpan(start)}

	case token.NEXTFILE:
		if p.scope != inRule && p.scope != inBeginFile && p.funcName == "" {
			p.errorf("nextfile cannot be inside BEGIN, END or ENDFILE")
		}
		p.next()
		s = &ast.NextFileStmt{BaseStmt: p.stmtSpan(start)}

	case token.EXIT:
		p.next()
		code := p.optionalExpr()
		s = &ast.ExitStmt{BaseStmt: p.stmtSpan(start), Code: code}

	case token.RETURN:
		if p.funcName == "" {
			p.errorf("return must be inside a function")
		}
		p.next()
		value := p.optionalExpr()
		s = &ast.ReturnStmt{BaseStmt: p.stmtSpan(start), Value: value}

	default:
		s = p.simpleStmt()
	}

	p.endSimple()
	return s
}

// optionalExpr parses the operand of exit or return, if there is one.
func (p *Parser) optionalExpr() ast.Expr {
	if p.atTerminator() {
		return nil
	}
	return p.parseExpr()
}

// simpleStmt parses a statement allowed in a for header: an expression,
// print or delete.
func (p *Parser) simpleStmt() ast.Stmt {
	switch p.tok.Type {
	case token.PRINT, token.PRINTF:
		return p.printStmt()
	case token.DELETE:
		return p.deleteStmt()
	}
	start := p.tok.Pos
	expr := p.parseExpr()
	return &ast.ExprStmt{BaseStmt: p.stmtSpan(start), Expr: expr}
}

// condition parses "( expr )".
func (p *Parser) condition() ast.Expr {
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	return cond
}

func (p *Parser) ifStmt() *ast.IfStmt {
	start := p.tok.Pos
	p.next()
	cond := p.condition()
	p.skipNewlines()
	then := p.body()

	// Look past ; or newlines for an else. Without one the terminators
	// are simply consumed, as the enclosing block would do.
	p.skipTerminators()
	var els ast.Stmt
	if p.tok.Type == token.ELSE {
		p.next()
		p.skipNewlines()
		els = p.body()
	}
	return &ast.IfStmt{BaseStmt: p.stmtSpan(start), Cond: cond, Then: then, Else: els}
}

func (p *Parser) whileStmt() *ast.WhileStmt {
	start := p.tok.Pos
	p.next()
	cond := p.condition()

	// "while (cond);" has an empty body
	if p.tok.Type == token.SEMICOLON {
		p.next()
		return &ast.WhileStmt{BaseStmt: p.stmtSpan(start), Cond: cond}
	}
	p.skipNewlines()
	body := p.loopBody()
	return &ast.WhileStmt{BaseStmt: p.stmtSpan(start), Cond: cond, Body: body}
}

func (p *Parser) doStmt() *ast.DoWhileStmt {
	start := p.tok.Pos
	p.next()
	p.skipNewlines()
	body := p.loopBody()
	p.skipTerminators()

	p.expect(token.WHILE)
	cond := p.condition()
	s := &ast.DoWhileStmt{BaseStmt: p.stmtSpan(start), Body: body, Cond: cond}
	p.endSimple()
	return s
}

// forStmt parses "for (init; cond; post)" and "for (var in array)".
func (p *Parser) forStmt() ast.Stmt {
	start := p.tok.Pos
	p.next()
	p.expect(token.LPAREN)

	var init ast.Stmt
	if p.tok.Type != token.SEMICOLON {
		init = p.simpleStmt()
	}
	if init != nil && p.tok.Type == token.RPAREN {
		return p.forInStmt(start, init)
	}

	p.expect(token.SEMICOLON)
	p.skipNewlines()
	var cond ast.Expr
	if p.tok.Type != token.SEMICOLON {
		cond = p.parseExpr()
	}
	p.expect(token.SEMICOLON)
	p.skipNewlines()
	var post ast.Stmt
	if p.tok.Type != token.RPAREN {
		post = p.simpleStmt()
	}
	p.expect(token.RPAREN)
	p.skipNewlines()

	body := p.loopBody()
	return &ast.ForStmt{BaseStmt: p.stmtSpan(start), Init: init, Cond: cond, Post: post, Body: body}
}

// forInStmt finishes a for loop whose header parsed as "var in array".
func (p *Parser) forInStmt(start token.Position, header ast.Stmt) *ast.ForInStmt {
	var in *ast.InExpr
	if es, ok := header.(*ast.ExprStmt); ok {
		in, _ = es.Expr.(*ast.InExpr)
	}
	if in == nil || len(in.Index) != 1 {
		p.errorf("expected 'for (var in array)'")
	}
	v, ok := ast.Unparen(in.Index[0]).(*ast.Ident)
	if !ok {
		p.errorf("expected variable name in for-in")
	}
	p.next()
	p.skipNewlines()

	body := p.loopBody()
	return &ast.ForInStmt{BaseStmt: p.stmtSpan(start), Var: v, Array: in.Array, Body: body}
}

func (p *Parser) loopBody() ast.Stmt {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.body()
}

// body parses the body of if, else or a loop: an empty statement, a
// block, or a single statement.
func (p *Parser) body() ast.Stmt {
	switch p.tok.Type {
	case token.SEMICOLON:
		p.next()
		return nil
	case token.LBRACE:
		return p.block()
	}
	return p.stmt()
}

// deleteStmt parses "delete name" and "delete name[subscript]".
func (p *Parser) deleteStmt() *ast.DeleteStmt {
	start := p.tok.Pos
	p.next()
	array := p.arrayName()
	var index []ast.Expr
	if p.tok.Type == token.LBRACKET {
		index = p.subscript()
	}
	return &ast.DeleteStmt{BaseStmt: p.stmtSpan(start), Array: array, Index: index}
}

// printStmt parses print and printf with an optional redirection.
func (p *Parser) printStmt() *ast.PrintStmt {
	start := p.tok.Pos
	printf := p.tok.Type == token.PRINTF
	p.next()

	args := p.exprList(p.parsePrintExpr)
	// print (a, b) prints two arguments
	if len(args) == 1 {
		if list, ok := args[0].(*ast.ListExpr); ok {
			args = list.Exprs
		}
	}
	if printf && len(args) == 0 {
		p.errorf("printf requires at least one argument")
	}

	s := &ast.PrintStmt{Printf: printf, Args: args, Redirect: token.ILLEGAL}
	if p.at(token.GREATER, token.APPEND, token.PIPE) {
		s.Redirect = p.tok.Type
		p.next()
		s.Dest = p.concat()
	}
	s.BaseStmt = p.stmtSpan(start)
	return s
}
