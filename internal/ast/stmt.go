package ast

import "github.com/kolkov/xawk/internal/token"

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	BaseStmt
	Expr Expr
}

// PrintStmt is print or printf with an optional redirection. Redirect is
// GREATER, APPEND, PIPE, or ILLEGAL when output goes to stdout.
type PrintStmt struct {
	BaseStmt
	Printf   bool
	Args     []Expr
	Redirect token.Token
	Dest     Expr
}

// BlockStmt is a braced statement list.
type BlockStmt struct {
	BaseStmt
	Stmts []Stmt
}

// IfStmt is if/else.
type IfStmt struct {
	BaseStmt
	Cond Expr
	Then Stmt
	Else Stmt
}

// WhileStmt is while (cond) body.
type WhileStmt struct {
	BaseStmt
	Cond Expr
	Body Stmt
}

// DoWhileStmt is do body while (cond).
type DoWhileStmt struct {
	BaseStmt
	Body Stmt
	Cond Expr
}

// ForStmt is the C-style for loop. Any of Init, Cond and Post may be nil.
type ForStmt struct {
	BaseStmt
	Init Stmt
	Cond Expr
	Post Stmt
	Body Stmt
}

// ForInStmt is for (k in a) body.
type ForInStmt struct {
	BaseStmt
	Var   *Ident
	Array *Ident
	Body  Stmt
}

// BreakStmt is break.
type BreakStmt struct{ BaseStmt }

// ContinueStmt is continue.
type ContinueStmt struct{ BaseStmt }

// NextStmt is next.
type NextStmt struct{ BaseStmt }

// NextFileStmt is nextfile.
type NextFileStmt struct{ BaseStmt }

// ReturnStmt is return [value].
type ReturnStmt struct {
	BaseStmt
	Value Expr
}

// ExitStmt is exit [code].
type ExitStmt struct {
	BaseStmt
	Code Expr
}

// DeleteStmt is delete a[k] or, with no Index, delete a.
type DeleteStmt struct {
	BaseStmt
	Array *Ident
	Index []Expr
}
