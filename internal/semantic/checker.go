package semantic

import (
	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/token"
)

// Check validates a resolved program, now that every identifier knows its
// scope: assignment targets must be writable, read-only arrays must not
// be modified, and a parenthesized list may only be print arguments or the
// subscript of "in".
func Check(prog *ast.Program) ErrorList {
	var errs ErrorList
	ast.Walk(prog, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.ListExpr:
			errs.Add(n.Pos(), errListOutsidePrint)
			return false

		case *ast.AssignExpr:
			checkTarget(&errs, n.Pos(), n.Left)

		case *ast.UnaryExpr:
			if n.Op == token.INCR || n.Op == token.DECR {
				checkTarget(&errs, n.Pos(), n.Expr)
			}

		case *ast.GetlineExpr:
			if n.Target != nil {
				checkTarget(&errs, n.Pos(), n.Target)
			}

		case *ast.DeleteStmt:
			checkWritable(&errs, n.Array)

		case *ast.CallExpr:
			if n.Builtin == 0 {
				break
			}
			info := Builtin(n.Builtin).Info()
			for i, arg := range n.Args {
				if id, ok := arg.(*ast.Ident); ok && info.IsWriteArg(i) {
					checkWritable(&errs, id)
				}
			}

		case *ast.BuiltinExpr:
			switch {
			case n.Func == token.F_SPLIT && len(n.Args) > 1:
				checkWritable(&errs, n.Args[1].(*ast.Ident))
			case n.Func == token.F_MATCH && len(n.Args) > 2:
				checkWritable(&errs, n.Args[2].(*ast.Ident))
			case (n.Func == token.F_SUB || n.Func == token.F_GSUB) && len(n.Args) > 2:
				checkTarget(&errs, n.Pos(), n.Args[2])
			}
		}
		return true
	})
	return errs
}

// checkTarget reports an assignment target that can't be written.
func checkTarget(errs *ErrorList, pos token.Position, target ast.Expr) {
	if !ast.IsLValue(target) {
		errs.Add(pos, errAssignToNonLValue)
		return
	}
	if index, ok := ast.Unparen(target).(*ast.IndexExpr); ok {
		checkWritable(errs, index.Array)
	}
}

// checkWritable reports a write to a read-only global array.
func checkWritable(errs *ErrorList, id *ast.Ident) {
	if id != nil && id.Scope == ast.ScopeGlobal && ReadOnlyArrays[id.Name] {
		errs.Add(id.Pos(), errReadOnlyArray, id.Name)
	}
}

// ValidateProgram resolves and checks prog. The error, if any, is an
// ErrorList holding every problem found; the result's Warnings are
// filled either way.
func ValidateProgram(prog *ast.Program) (*ResolveResult, error) {
	result, err := Resolve(prog)
	if err != nil {
		return result, err
	}
	if errs := Check(prog); len(errs) > 0 {
		result.Errors = append(result.Errors, errs...)
		return result, result.Errors.Err()
	}
	return result, nil
}
