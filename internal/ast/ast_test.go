package ast

import (
	"testing"

	"github.com/kolkov/xawk/internal/token"
)

func TestIsLValue(t *testing.T) {
	id := &Ident{Name: "x"}
	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{"ident", id, true},
		{"field", &FieldExpr{Index: &NumLit{Value: 1}}, true},
		{"element", &IndexExpr{Array: id, Index: []Expr{&StrLit{Value: "k"}}}, true},
		{"grouped ident", &GroupExpr{Expr: id}, true},
		{"number", &NumLit{Value: 1}, false},
		{"sum", &BinaryExpr{Left: id, Op: token.ADD, Right: id}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLValue(tt.expr); got != tt.want {
				t.Errorf("IsLValue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnparen(t *testing.T) {
	inner := &Ident{Name: "x"}
	e := &GroupExpr{Expr: &GroupExpr{Expr: inner}}
	if Unparen(e) != Expr(inner) {
		t.Error("Unparen did not strip nested groups")
	}
}

func TestWalkVisitsOptionalChildren(t *testing.T) {
	prog := &Program{
		BeginFile: []*BlockStmt{{Stmts: []Stmt{&ExprStmt{Expr: &Ident{Name: "a"}}}}},
		Rules: []*Rule{
			{Pattern: &CommaExpr{Left: &RegexLit{Pattern: "x"}, Right: &RegexLit{Pattern: "y"}}},
			{Action: &BlockStmt{Stmts: []Stmt{
				&IfStmt{Cond: &Ident{Name: "b"}, Then: &BlockStmt{}},
				&ForStmt{Body: &BlockStmt{}},
				&PrintStmt{Args: []Expr{&FieldExpr{Index: &NumLit{Value: 2}}}},
			}}},
		},
		EndFile: []*BlockStmt{{Stmts: []Stmt{&ReturnStmt{}}}},
	}

	var idents, regexes, fields int
	Walk(prog, func(n Node) bool {
		switch n.(type) {
		case *Ident:
			idents++
		case *RegexLit:
			regexes++
		case *FieldExpr:
			fields++
		}
		return true
	})

	if idents != 2 || regexes != 2 || fields != 1 {
		t.Errorf("got idents=%d regexes=%d fields=%d, want 2 2 1", idents, regexes, fields)
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	e := &BinaryExpr{Left: &Ident{Name: "a"}, Op: token.ADD, Right: &Ident{Name: "b"}}
	count := 0
	Walk(e, func(n Node) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("visited %d nodes, want 1", count)
	}
}
