package ast

import "github.com/kolkov/xawk/internal/token"

// NumLit is a numeric literal such as 42, 3.14 or 0x1F.
type NumLit struct {
	BaseExpr
	Value float64
	Raw   string
}

// StrLit is a string literal with escapes already processed.
type StrLit struct {
	BaseExpr
	Value string
}

// RegexLit is a /regex/ literal. Outside of a match operand it tests $0.
type RegexLit struct {
	BaseExpr
	Pattern string
}

// Scope says where a resolved identifier lives.
type Scope uint8

const (
	ScopeUnresolved Scope = iota
	ScopeGlobal
	ScopeLocal
	ScopeSpecial
)

// Ident is a variable reference. The resolver fills Scope, Index and Array:
// globals index the scalar or array table depending on Array, locals index
// the current frame, and specials carry the special-variable id.
type Ident struct {
	BaseExpr
	Name  string
	Scope Scope
	Index int
	Array bool
}

// FieldExpr is $expr.
type FieldExpr struct {
	BaseExpr
	Index Expr
}

// IndexExpr is an array element reference: a[k] or a[i, j].
type IndexExpr struct {
	BaseExpr
	Array *Ident
	Index []Expr
}

// BinaryExpr is an arithmetic, comparison or logical operation.
type BinaryExpr struct {
	BaseExpr
	Left  Expr
	Op    token.Token
	Right Expr
}

// UnaryExpr is -x, +x, !x, or a pre/post increment or decrement.
type UnaryExpr struct {
	BaseExpr
	Op   token.Token
	Expr Expr
	Post bool
}

// TernaryExpr is cond ? a : b.
type TernaryExpr struct {
	BaseExpr
	Cond Expr
	Then Expr
	Else Expr
}

// AssignExpr is plain or compound assignment.
type AssignExpr struct {
	BaseExpr
	Left  Expr
	Op    token.Token
	Right Expr
}

// ConcatExpr is implicit concatenation of two or more operands.
type ConcatExpr struct {
	BaseExpr
	Exprs []Expr
}

// GroupExpr is a parenthesized expression.
type GroupExpr struct {
	BaseExpr
	Expr Expr
}

// ListExpr is a parenthesized list "(a, b)". It is only meaningful as the
// argument list of print or the subscript of an in test.
type ListExpr struct {
	BaseExpr
	Exprs []Expr
}

// CallExpr is a call of a user function or of an extended builtin. The
// resolver sets Func to the user function index, or Builtin to a non-zero
// builtin handle.
type CallExpr struct {
	BaseExpr
	Name    string
	Args    []Expr
	Func    int
	Builtin int
}

// BuiltinExpr is a call of a POSIX builtin with its own token.
type BuiltinExpr struct {
	BaseExpr
	Func token.Token
	Args []Expr
}

// GetlineExpr covers the getline forms:
//
//	getline [var]
//	getline [var] < file
//	cmd | getline [var]
type GetlineExpr struct {
	BaseExpr
	Target  Expr
	File    Expr
	Command Expr
}

// InExpr is (k in a) or ((i, j) in a).
type InExpr struct {
	BaseExpr
	Index []Expr
	Array *Ident
}

// MatchExpr is s ~ re or s !~ re.
type MatchExpr struct {
	BaseExpr
	Expr    Expr
	Op      token.Token
	Pattern Expr
}

// CommaExpr is the start, stop pair of a range pattern.
type CommaExpr struct {
	BaseExpr
	Left  Expr
	Right Expr
}
