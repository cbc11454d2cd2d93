// Package ast defines the syntax tree of xawk programs.
//
// Nodes are produced by the parser and annotated in place by the semantic
// resolver (variable slots, function indexes, builtin handles). After
// resolution the tree is read-only; per-run state such as range flags lives
// in the interpreter.
package ast

import "github.com/kolkov/xawk/internal/token"

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() token.Position
	End() token.Position
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// BaseExpr holds the source span of an expression.
type BaseExpr struct {
	StartPos token.Position
	EndPos   token.Position
}

func (b *BaseExpr) Pos() token.Position { return b.StartPos }
func (b *BaseExpr) End() token.Position { return b.EndPos }
func (b *BaseExpr) exprNode()           {}

// BaseStmt holds the source span of a statement.
type BaseStmt struct {
	StartPos token.Position
	EndPos   token.Position
}

func (b *BaseStmt) Pos() token.Position { return b.StartPos }
func (b *BaseStmt) End() token.Position { return b.EndPos }
func (b *BaseStmt) stmtNode()           {}

// IsLValue reports whether e can be assigned to.
func IsLValue(e Expr) bool {
	switch e := e.(type) {
	case *Ident, *FieldExpr, *IndexExpr:
		return true
	case *GroupExpr:
		return IsLValue(e.Expr)
	}
	return false
}

// Unparen strips any grouping parentheses around e.
func Unparen(e Expr) Expr {
	for {
		g, ok := e.(*GroupExpr)
		if !ok {
			return e
		}
		e = g.Expr
	}
}

// MakeBaseExpr returns a BaseExpr spanning start to end.
func MakeBaseExpr(start, end token.Position) BaseExpr {
	return BaseExpr{StartPos: start, EndPos: end}
}

// MakeBaseStmt returns a BaseStmt spanning start to end.
func MakeBaseStmt(start, end token.Position) BaseStmt {
	return BaseStmt{StartPos: start, EndPos: end}
}
