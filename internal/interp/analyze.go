package interp

import (
	"sort"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/semantic"
	"github.com/kolkov/xawk/internal/token"
)

// Usage summarizes what a program touches, so the interpreter can skip
// work it provably does not need.
type Usage struct {
	// NeedsFields is set when any $i with i != 0, or NF, is referenced.
	NeedsFields bool

	// NeedsNF is set when NF is read or written, or a field index is
	// negative or computed.
	NeedsNF bool

	// MaxField bounds every field reference, or is -1 when no bound is
	// known.
	MaxField int

	// Regexes lists the regex literal sources, for pre-compilation.
	Regexes []string

	// OutputTargets and InputTargets list the redirection and getline
	// targets written as string literals.
	OutputTargets []string
	InputTargets  []string

	// Builtins lists the names of the builtins called.
	Builtins []string
}

// Calls reports whether the program calls any of the named builtins.
func (u *Usage) Calls(names ...string) bool {
	for _, name := range names {
		i := sort.SearchStrings(u.Builtins, name)
		if i < len(u.Builtins) && u.Builtins[i] == name {
			return true
		}
	}
	return false
}

// Analyze walks prog once and returns its usage summary.
func Analyze(prog *ast.Program) *Usage {
	a := &analyzer{
		regexes:  make(map[string]bool),
		outputs:  make(map[string]bool),
		inputs:   make(map[string]bool),
		builtins: make(map[string]bool),
	}
	ast.Walk(prog, a.visit)

	u := &Usage{
		NeedsFields:   a.needsFields,
		NeedsNF:       a.needsNF,
		MaxField:      a.maxField,
		Regexes:       sortedSet(a.regexes),
		OutputTargets: sortedSet(a.outputs),
		InputTargets:  sortedSet(a.inputs),
		Builtins:      sortedSet(a.builtins),
	}
	if a.unbounded {
		u.MaxField = -1
	}
	return u
}

type analyzer struct {
	needsFields bool
	needsNF     bool
	maxField    int
	unbounded   bool

	regexes  map[string]bool
	outputs  map[string]bool
	inputs   map[string]bool
	builtins map[string]bool
}

func (a *analyzer) visit(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.FieldExpr:
		a.field(n.Index)

	case *ast.Ident:
		if n.Scope == ast.ScopeSpecial && n.Index == semantic.V_NF {
			a.needsFields = true
			a.needsNF = true
			a.unbounded = true
		}

	case *ast.AssignExpr:
		// $0 = ... re-splits, and later reads may reach any field
		if f, ok := n.Left.(*ast.FieldExpr); ok && isLiteral(f.Index, 0) {
			a.unbounded = true
		}

	case *ast.RegexLit:
		a.regexes[n.Pattern] = true

	case *ast.PrintStmt:
		if n.Redirect != token.ILLEGAL {
			if s, ok := n.Dest.(*ast.StrLit); ok {
				a.outputs[s.Value] = true
			}
		}

	case *ast.GetlineExpr:
		if s, ok := n.File.(*ast.StrLit); ok {
			a.inputs[s.Value] = true
		}
		if s, ok := n.Command.(*ast.StrLit); ok {
			a.inputs[s.Value] = true
		}

	case *ast.BuiltinExpr:
		a.builtins[n.Func.String()] = true

	case *ast.CallExpr:
		if n.Builtin != 0 {
			a.builtins[semantic.Builtin(n.Builtin).String()] = true
		}
	}
	return true
}

// field records a reference to $index.
func (a *analyzer) field(index ast.Expr) {
	lit, ok := ast.Unparen(index).(*ast.NumLit)
	if !ok {
		a.needsFields = true
		a.needsNF = true
		a.unbounded = true
		return
	}

	n := int(lit.Value)
	switch {
	case n == 0:
	case n < 0:
		a.needsFields = true
		a.needsNF = true
		a.unbounded = true
	default:
		a.needsFields = true
		if n > a.maxField {
			a.maxField = n
		}
	}
}

func isLiteral(e ast.Expr, value float64) bool {
	lit, ok := ast.Unparen(e).(*ast.NumLit)
	return ok && lit.Value == value
}

func sortedSet(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
