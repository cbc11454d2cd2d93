package interp

import (
	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/semantic"
	"github.com/kolkov/xawk/internal/types"
)

// callUser calls a user-defined function. Arguments are evaluated in the
// caller's frame before the callee's frame is pushed.
func (p *Interp) callUser(e *ast.CallExpr) (types.Value, error) {
	if e.Func < 0 || e.Func >= len(p.prog.Functions) {
		return types.Null(), errorf(e.Pos(), "call to undefined function %s", e.Name)
	}
	fn := p.prog.Functions[e.Func]
	if len(e.Args) > len(fn.Params) {
		return types.Null(), errorf(e.Pos(), "%s called with %d args, accepts %d", fn.Name, len(e.Args), len(fn.Params))
	}
	if len(p.frames) >= MaxCallDepth {
		return types.Null(), &RecursionError{Pos: e.Pos(), Name: fn.Name, Depth: MaxCallDepth}
	}

	locals := make([]cell, len(fn.Params))
	kinds := p.params[e.Func]
	for i, arg := range e.Args {
		c, err := p.argument(fn, i, kinds[i], arg)
		if err != nil {
			return types.Null(), err
		}
		locals[i] = c
	}

	p.frames = append(p.frames, frame{fn: fn, locals: locals})
	err := p.executeBlock(fn.Body)
	p.frames = p.frames[:len(p.frames)-1]

	switch err := err.(type) {
	case nil:
		return types.Null(), nil
	case *returnSignal:
		return err.value, nil
	}
	switch err {
	case errBreak, errContinue:
		return types.Null(), errorf(e.Pos(), "break or continue outside a loop in %s", fn.Name)
	}
	return types.Null(), err
}

// argument binds argument i of a call. Arrays pass by reference; an
// untyped caller local handed to an array parameter is created in the
// caller's slot first so the callee's writes stay visible.
func (p *Interp) argument(fn *ast.FuncDecl, i int, kind semantic.VarType, arg ast.Expr) (cell, error) {
	id, isIdent := ast.Unparen(arg).(*ast.Ident)

	wantArray := kind == semantic.TypeArray
	if isIdent && !wantArray && kind == semantic.TypeUnknown {
		wantArray = p.isArray(id)
	}

	if wantArray {
		if !isIdent || id.Scope == ast.ScopeSpecial {
			return cell{}, typeErrorf(arg.Pos(), fn.Params[i], "scalar passed as array parameter of %s", fn.Name)
		}
		if id.Scope == ast.ScopeLocal {
			c := &p.frame().locals[id.Index]
			if c.arr == nil {
				if !c.v.IsNull() {
					return cell{}, typeErrorf(arg.Pos(), id.Name, "scalar passed as array parameter of %s", fn.Name)
				}
				c.arr = NewArray()
			}
			return cell{arr: c.arr}, nil
		}
		arr, err := p.arrayOf(id)
		if err != nil {
			return cell{}, err
		}
		return cell{arr: arr}, nil
	}

	if isIdent && p.isArray(id) {
		return cell{}, typeErrorf(arg.Pos(), id.Name, "array passed as scalar parameter of %s", fn.Name)
	}
	v, err := p.eval(arg)
	if err != nil {
		return cell{}, err
	}
	return cell{v: v}, nil
}
