package interp

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/runtime"
	"github.com/kolkov/xawk/internal/semantic"
	"github.com/kolkov/xawk/internal/types"
)

// callContextBuiltin runs the builtins that read the clock or touch
// resources.
func (p *Interp) callContextBuiltin(b semantic.Builtin, e *ast.CallExpr) (types.Value, error) {
	switch b {
	case semantic.BuiltinDump:
		return p.dump(e)
	case semantic.BuiltinSlurp:
		return p.slurp(b, e)
	}

	name := ""
	if len(e.Args) > 0 {
		v, err := p.eval(e.Args[0])
		if err != nil {
			return types.Null(), err
		}
		name = p.toStr(v)
	}

	now := time.Now()
	switch b {
	case semantic.BuiltinSystime:
		return types.Num(float64(now.Unix())), nil
	case semantic.BuiltinClock:
		return types.Num(now.Sub(p.start).Seconds()), nil
	case semantic.BuiltinTic:
		p.timers[name] = now
		return types.Num(0), nil
	case semantic.BuiltinToc:
		since, ok := p.timers[name]
		if !ok {
			since = p.start
		}
		return types.Num(now.Sub(since).Seconds()), nil
	}
	return types.Null(), errorf(e.Pos(), "unexpected builtin %s", b)
}

// dump writes a variable to stderr, or appends it to a file: one
// "name[key] = value" line per element for arrays, "name = value" for
// anything else.
func (p *Interp) dump(e *ast.CallExpr) (types.Value, error) {
	var sb strings.Builder
	arg := ast.Unparen(e.Args[0])
	id, isIdent := arg.(*ast.Ident)
	switch {
	case isIdent && id.Scope != ast.ScopeSpecial && p.isArray(id):
		arr, err := p.arrayOf(id)
		if err != nil {
			return types.Null(), err
		}
		for _, k := range arr.SortedKeys() {
			fmt.Fprintf(&sb, "%s[%s] = %s\n", id.Name, k, p.toStr(arr.items[k]))
		}
	default:
		v, err := p.eval(arg)
		if err != nil {
			return types.Null(), err
		}
		label := "value"
		if isIdent {
			label = id.Name
		}
		fmt.Fprintf(&sb, "%s = %s\n", label, p.toStr(v))
	}

	out := p.io.Stderr()
	name := "/dev/stderr"
	if len(e.Args) > 1 {
		v, err := p.eval(e.Args[1])
		if err != nil {
			return types.Null(), err
		}
		name = p.toStr(v)
		if out, err = p.io.Output(name, runtime.RedirectAppend); err != nil {
			p.reportOutput(name, err)
			return types.Num(0), nil
		}
	}
	if err := out.WriteString(sb.String()); err != nil {
		p.reportOutput(name, err)
		return types.Num(0), nil
	}
	return types.Num(1), nil
}

// slurp reads a whole file through the resource manager and closes it.
// With an array it stores the lines keyed 1..n and returns their count.
func (p *Interp) slurp(b semantic.Builtin, e *ast.CallExpr) (types.Value, error) {
	v, err := p.eval(e.Args[0])
	if err != nil {
		return types.Null(), err
	}
	name := p.toStr(v)
	var arr *Array
	if len(e.Args) > 1 {
		if arr, _, err = p.arrayArg(b, e, 1); err != nil {
			return types.Null(), err
		}
		arr.Clear()
	}
	failed := func() (types.Value, error) {
		if arr != nil {
			return types.Num(-1), nil
		}
		return types.Str(""), nil
	}

	lines, err := p.readLines(name)
	if err != nil {
		p.warnf("slurp: %v", err)
		return failed()
	}
	if arr != nil {
		for i, line := range lines {
			arr.Set(strconv.Itoa(i+1), types.NumStr(line))
		}
		return types.Num(float64(len(lines))), nil
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return types.Str(sb.String()), nil
}

// readLines reads every newline-terminated line of a file, then closes it.
func (p *Interp) readLines(name string) ([]string, error) {
	in, err := p.io.Input(name, false)
	if err != nil {
		return nil, err
	}
	defer p.io.Close(name)

	sep, err := runtime.NewSeparator("\n", p.regexes)
	if err != nil {
		return nil, err
	}
	var lines []string
	for {
		line, err := in.Reader().Read(sep)
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, &runtime.ResourceError{Op: "read", Name: name, Err: err}
		}
		lines = append(lines, line)
	}
}
