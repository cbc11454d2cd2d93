package interp

import (
	"errors"
	"io"
	"strings"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/runtime"
	"github.com/kolkov/xawk/internal/token"
	"github.com/kolkov/xawk/internal/types"
)

// executeBlock runs a block. A nil block does nothing.
func (p *Interp) executeBlock(block *ast.BlockStmt) error {
	if block == nil {
		return nil
	}
	return p.executeStmts(block.Stmts)
}

func (p *Interp) executeStmts(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := p.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

// execute runs one statement.
func (p *Interp) execute(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case nil:
		return nil

	case *ast.ExprStmt:
		_, err := p.eval(s.Expr)
		return err

	case *ast.PrintStmt:
		return p.print(s)

	case *ast.BlockStmt:
		return p.executeBlock(s)

	case *ast.IfStmt:
		cond, err := p.eval(s.Cond)
		if err != nil {
			return err
		}
		if cond.AsBool() {
			return p.execute(s.Then)
		}
		return p.execute(s.Else)

	case *ast.WhileStmt:
		for {
			cond, err := p.eval(s.Cond)
			if err != nil {
				return err
			}
			if !cond.AsBool() {
				return nil
			}
			if done, err := loopBody(p.execute(s.Body)); done {
				return err
			}
		}

	case *ast.DoWhileStmt:
		for {
			if done, err := loopBody(p.execute(s.Body)); done {
				return err
			}
			cond, err := p.eval(s.Cond)
			if err != nil {
				return err
			}
			if !cond.AsBool() {
				return nil
			}
		}

	case *ast.ForStmt:
		return p.executeFor(s)

	case *ast.ForInStmt:
		return p.executeForIn(s)

	case *ast.BreakStmt:
		return errBreak

	case *ast.ContinueStmt:
		return errContinue

	case *ast.NextStmt:
		return errNext

	case *ast.NextFileStmt:
		return errNextFile

	case *ast.ReturnStmt:
		v := types.Null()
		if s.Value != nil {
			var err error
			if v, err = p.eval(s.Value); err != nil {
				return err
			}
		}
		return &returnSignal{value: v}

	case *ast.ExitStmt:
		if s.Code != nil {
			v, err := p.eval(s.Code)
			if err != nil {
				return err
			}
			if !p.exitSet {
				p.exitCode = int(v.AsInt())
				p.exitSet = true
			}
		}
		return &ExitError{Code: p.exitCode}

	case *ast.DeleteStmt:
		arr, err := p.arrayOf(s.Array)
		if err != nil {
			return err
		}
		if s.Index == nil {
			arr.Clear()
			return nil
		}
		key, err := p.subscript(s.Index)
		if err != nil {
			return err
		}
		arr.Delete(key)
		return nil
	}
	return errorf(stmt.Pos(), "unexpected statement %T", stmt)
}

// loopBody interprets the result of one loop iteration. It reports
// whether the loop is over, and with which error.
func loopBody(err error) (bool, error) {
	switch err {
	case nil, errContinue:
		return false, nil
	case errBreak:
		return true, nil
	}
	return true, err
}

func (p *Interp) executeFor(s *ast.ForStmt) error {
	if err := p.execute(s.Init); err != nil {
		return err
	}
	for {
		if s.Cond != nil {
			cond, err := p.eval(s.Cond)
			if err != nil {
				return err
			}
			if !cond.AsBool() {
				return nil
			}
		}
		if done, err := loopBody(p.execute(s.Body)); done {
			return err
		}
		if err := p.execute(s.Post); err != nil {
			return err
		}
	}
}

// executeForIn iterates over a snapshot of the keys. Keys deleted during
// the loop are skipped.
func (p *Interp) executeForIn(s *ast.ForInStmt) error {
	arr, err := p.arrayOf(s.Array)
	if err != nil {
		return err
	}
	lv, err := p.lvalueOf(s.Var)
	if err != nil {
		return err
	}

	order := ""
	if v, ok := p.procinfo.Get("sorted_in"); ok {
		order = p.toStr(v)
	}
	for _, key := range arr.orderedKeys(order, p.convfmt) {
		if !arr.Has(key) {
			continue
		}
		if err := p.set(lv, types.Str(key)); err != nil {
			return err
		}
		if done, err := loopBody(p.execute(s.Body)); done {
			return err
		}
	}
	return nil
}

// print runs print and printf.
func (p *Interp) print(s *ast.PrintStmt) error {
	out, name, err := p.output(s.Redirect, s.Dest)
	if err != nil || out == nil {
		return err
	}

	var text string
	switch {
	case s.Printf:
		args, err := p.evalAll(s.Args)
		if err != nil {
			return err
		}
		text = p.sprintf(p.toStr(args[0]), args[1:])
	case len(s.Args) == 0:
		text = p.rec.Text() + p.ors
	default:
		var sb strings.Builder
		for i, arg := range s.Args {
			v, err := p.eval(arg)
			if err != nil {
				return err
			}
			if i > 0 {
				sb.WriteString(p.ofs)
			}
			sb.WriteString(v.AsStr(p.ofmt))
		}
		sb.WriteString(p.ors)
		text = sb.String()
	}

	if err := out.WriteString(text); err != nil {
		p.reportOutput(name, &runtime.ResourceError{Op: "write", Name: name, Err: err})
	}
	return nil
}

// output resolves a print destination. A target that can't be opened is
// reported once and yields a nil output.
func (p *Interp) output(redirect token.Token, dest ast.Expr) (*runtime.Output, string, error) {
	if redirect == token.ILLEGAL {
		return p.io.Stdout(), "/dev/stdout", nil
	}
	v, err := p.eval(dest)
	if err != nil {
		return nil, "", err
	}
	name := p.toStr(v)

	mode := runtime.RedirectWrite
	switch redirect {
	case token.APPEND:
		mode = runtime.RedirectAppend
	case token.PIPE:
		mode = runtime.RedirectPipe
	}
	out, err := p.io.Output(name, mode)
	if err != nil {
		p.reportOutput(name, err)
		return nil, name, nil
	}
	return out, name, nil
}

func (p *Interp) reportOutput(name string, err error) {
	if p.badOutputs[name] {
		return
	}
	p.badOutputs[name] = true
	p.warnf("%v", err)
}

func (p *Interp) evalAll(exprs []ast.Expr) ([]types.Value, error) {
	values := make([]types.Value, len(exprs))
	for i, e := range exprs {
		v, err := p.eval(e)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// getline runs the three getline forms. Open and read failures return -1.
func (p *Interp) getline(e *ast.GetlineExpr) (types.Value, error) {
	var text string
	switch {
	case e.Command != nil || e.File != nil:
		src, command := e.File, false
		if e.Command != nil {
			src, command = e.Command, true
		}
		v, err := p.eval(src)
		if err != nil {
			return types.Null(), err
		}
		in, err := p.io.Input(p.toStr(v), command)
		if err != nil {
			return types.Num(-1), nil
		}
		text, err = in.Reader().Read(p.rsSep)
		if errors.Is(err, io.EOF) {
			return types.Num(0), nil
		}
		if err != nil {
			return types.Num(-1), nil
		}
		// Named sources advance NR but never FNR
		p.nr++

	default:
		line, ok, err := p.nextRecord()
		if err != nil {
			return types.Null(), err
		}
		if !ok {
			return types.Num(0), nil
		}
		text = line
	}

	if e.Target == nil {
		p.rec.SetRecord(text)
		return types.Num(1), nil
	}
	lv, err := p.lvalueOf(e.Target)
	if err != nil {
		return types.Null(), err
	}
	if err := p.set(lv, types.NumStr(text)); err != nil {
		return types.Null(), err
	}
	return types.Num(1), nil
}
