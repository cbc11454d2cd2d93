package ast

import "github.com/kolkov/xawk/internal/token"

// Program is a parsed xawk program.
type Program struct {
	Begin     []*BlockStmt
	BeginFile []*BlockStmt
	Rules     []*Rule
	EndFile   []*BlockStmt
	EndBlocks []*BlockStmt
	Functions []*FuncDecl

	StartPos token.Position
	EndPos   token.Position
}

func (p *Program) Pos() token.Position { return p.StartPos }
func (p *Program) End() token.Position { return p.EndPos }

// SampleKind selects a sampling pattern.
type SampleKind uint8

const (
	SampleNone  SampleKind = iota
	SampleEvery            // @every N: every Nth matching record
	SampleLast             // @last N: the final N matching records, replayed before END
)

// Rule is one pattern-action unit. A nil Pattern matches every record; a
// *CommaExpr pattern is a range. A nil Action prints $0.
type Rule struct {
	Pattern Expr
	Sample  SampleKind
	N       int
	Action  *BlockStmt

	StartPos token.Position
	EndPos   token.Position
}

func (r *Rule) Pos() token.Position { return r.StartPos }
func (r *Rule) End() token.Position { return r.EndPos }

// FuncDecl is a user function. Params beyond the caller's arguments act as
// locals.
type FuncDecl struct {
	Name    string
	Params  []string
	Body    *BlockStmt
	NamePos token.Position

	StartPos token.Position
	EndPos   token.Position
}

func (f *FuncDecl) Pos() token.Position { return f.StartPos }
func (f *FuncDecl) End() token.Position { return f.EndPos }
