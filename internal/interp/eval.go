package interp

import (
	"errors"
	"math"
	"strings"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/runtime"
	"github.com/kolkov/xawk/internal/token"
	"github.com/kolkov/xawk/internal/types"
)

// eval evaluates an expression.
func (p *Interp) eval(expr ast.Expr) (types.Value, error) {
	switch e := expr.(type) {
	case *ast.NumLit:
		return types.Num(e.Value), nil

	case *ast.StrLit:
		return types.Str(e.Value), nil

	case *ast.RegexLit:
		re, err := p.literal(e)
		if err != nil {
			return types.Null(), err
		}
		return types.Bool(re.MatchString(p.rec.Text())), nil

	case *ast.Ident:
		return p.getVar(e)

	case *ast.FieldExpr:
		i, ok, err := p.fieldIndex(e)
		if err != nil || !ok {
			return types.Null(), err
		}
		return p.rec.Field(i), nil

	case *ast.IndexExpr:
		arr, err := p.arrayOf(e.Array)
		if err != nil {
			return types.Null(), err
		}
		key, err := p.subscript(e.Index)
		if err != nil {
			return types.Null(), err
		}
		return arr.Ref(key), nil

	case *ast.BinaryExpr:
		return p.binary(e)

	case *ast.UnaryExpr:
		return p.unary(e)

	case *ast.TernaryExpr:
		cond, err := p.eval(e.Cond)
		if err != nil {
			return types.Null(), err
		}
		if cond.AsBool() {
			return p.eval(e.Then)
		}
		return p.eval(e.Else)

	case *ast.AssignExpr:
		return p.assign(e)

	case *ast.ConcatExpr:
		var sb strings.Builder
		for _, sub := range e.Exprs {
			v, err := p.eval(sub)
			if err != nil {
				return types.Null(), err
			}
			sb.WriteString(p.toStr(v))
		}
		return types.Str(sb.String()), nil

	case *ast.GroupExpr:
		return p.eval(e.Expr)

	case *ast.ListExpr:
		key, err := p.subscript(e.Exprs)
		if err != nil {
			return types.Null(), err
		}
		return types.Str(key), nil

	case *ast.CallExpr:
		if e.Builtin != 0 {
			return p.callBuiltin(e)
		}
		return p.callUser(e)

	case *ast.BuiltinExpr:
		return p.callPOSIX(e)

	case *ast.GetlineExpr:
		return p.getline(e)

	case *ast.InExpr:
		arr, err := p.arrayOf(e.Array)
		if err != nil {
			return types.Null(), err
		}
		key, err := p.subscript(e.Index)
		if err != nil {
			return types.Null(), err
		}
		return types.Bool(arr.Has(key)), nil

	case *ast.MatchExpr:
		v, err := p.eval(e.Expr)
		if err != nil {
			return types.Null(), err
		}
		re, err := p.pattern(e.Pattern)
		if err != nil {
			return types.Null(), err
		}
		matched := re.MatchString(p.toStr(v))
		if e.Op == token.NOT_MATCH {
			matched = !matched
		}
		return types.Bool(matched), nil

	case *ast.CommaExpr:
		return types.Null(), errorf(e.Pos(), "range pattern used as an expression")
	}
	return types.Null(), errorf(expr.Pos(), "unexpected expression %T", expr)
}

func (p *Interp) binary(e *ast.BinaryExpr) (types.Value, error) {
	left, err := p.eval(e.Left)
	if err != nil {
		return types.Null(), err
	}

	switch e.Op {
	case token.AND:
		if !left.AsBool() {
			return types.Num(0), nil
		}
		right, err := p.eval(e.Right)
		if err != nil {
			return types.Null(), err
		}
		return types.Bool(right.AsBool()), nil
	case token.OR:
		if left.AsBool() {
			return types.Num(1), nil
		}
		right, err := p.eval(e.Right)
		if err != nil {
			return types.Null(), err
		}
		return types.Bool(right.AsBool()), nil
	}

	right, err := p.eval(e.Right)
	if err != nil {
		return types.Null(), err
	}

	switch e.Op {
	case token.EQUALS:
		return types.Bool(types.Compare(left, right, p.convfmt) == 0), nil
	case token.NOT_EQUALS:
		return types.Bool(types.Compare(left, right, p.convfmt) != 0), nil
	case token.LESS:
		return types.Bool(types.Compare(left, right, p.convfmt) < 0), nil
	case token.LTE:
		return types.Bool(types.Compare(left, right, p.convfmt) <= 0), nil
	case token.GREATER:
		return types.Bool(types.Compare(left, right, p.convfmt) > 0), nil
	case token.GTE:
		return types.Bool(types.Compare(left, right, p.convfmt) >= 0), nil
	}

	n, ok := arith(e.Op, left.AsNum(), right.AsNum())
	if !ok {
		return types.Null(), errorf(e.Pos(), "unexpected binary operator %s", e.Op)
	}
	return types.Num(n), nil
}

// arith applies an arithmetic operator, or the operator behind a compound
// assignment. Division by zero follows IEEE rules.
func arith(op token.Token, l, r float64) (float64, bool) {
	switch op {
	case token.ADD, token.ADD_ASSIGN:
		return l + r, true
	case token.SUB, token.SUB_ASSIGN:
		return l - r, true
	case token.MUL, token.MUL_ASSIGN:
		return l * r, true
	case token.DIV, token.DIV_ASSIGN:
		return l / r, true
	case token.MOD, token.MOD_ASSIGN:
		return math.Mod(l, r), true
	case token.POW, token.POW_ASSIGN:
		return math.Pow(l, r), true
	}
	return 0, false
}

func (p *Interp) unary(e *ast.UnaryExpr) (types.Value, error) {
	switch e.Op {
	case token.INCR, token.DECR:
		lv, err := p.lvalueOf(e.Expr)
		if err != nil {
			return types.Null(), err
		}
		old, err := p.get(lv)
		if err != nil {
			return types.Null(), err
		}
		n := old.AsNum()
		updated := n + 1
		if e.Op == token.DECR {
			updated = n - 1
		}
		if err := p.set(lv, types.Num(updated)); err != nil {
			return types.Null(), err
		}
		if e.Post {
			return types.Num(n), nil
		}
		return types.Num(updated), nil
	}

	v, err := p.eval(e.Expr)
	if err != nil {
		return types.Null(), err
	}
	switch e.Op {
	case token.SUB:
		return types.Num(-v.AsNum()), nil
	case token.ADD:
		return types.Num(v.AsNum()), nil
	case token.NOT:
		return types.Bool(!v.AsBool()), nil
	}
	return types.Null(), errorf(e.Pos(), "unexpected unary operator %s", e.Op)
}

func (p *Interp) assign(e *ast.AssignExpr) (types.Value, error) {
	lv, err := p.lvalueOf(e.Left)
	if err != nil {
		return types.Null(), err
	}
	right, err := p.eval(e.Right)
	if err != nil {
		return types.Null(), err
	}

	v := right
	if e.Op != token.ASSIGN {
		old, err := p.get(lv)
		if err != nil {
			return types.Null(), err
		}
		n, ok := arith(e.Op, old.AsNum(), right.AsNum())
		if !ok {
			return types.Null(), errorf(e.Pos(), "unexpected assignment operator %s", e.Op)
		}
		v = types.Num(n)
	}
	if err := p.set(lv, v); err != nil {
		return types.Null(), err
	}
	return v, nil
}

type lvalueKind uint8

const (
	lvScalar lvalueKind = iota
	lvElement
	lvField
)

// lvalue is an assignable target: a variable, an array element or a
// field. Subscripts and field indexes are evaluated once, when the lvalue
// is built.
type lvalue struct {
	kind  lvalueKind
	ident *ast.Ident
	arr   *Array
	key   string
	field int
	pos   token.Position
}

func (p *Interp) lvalueOf(expr ast.Expr) (lvalue, error) {
	switch e := ast.Unparen(expr).(type) {
	case *ast.Ident:
		if p.isArray(e) {
			return lvalue{}, typeErrorf(e.Pos(), e.Name, "can't assign to array")
		}
		return lvalue{kind: lvScalar, ident: e, pos: e.Pos()}, nil

	case *ast.IndexExpr:
		arr, err := p.arrayOf(e.Array)
		if err != nil {
			return lvalue{}, err
		}
		key, err := p.subscript(e.Index)
		if err != nil {
			return lvalue{}, err
		}
		return lvalue{kind: lvElement, arr: arr, key: key, pos: e.Pos()}, nil

	case *ast.FieldExpr:
		i, ok, err := p.fieldIndex(e)
		if err != nil {
			return lvalue{}, err
		}
		if !ok {
			return lvalue{}, errorf(e.Pos(), "assignment to unknown column")
		}
		return lvalue{kind: lvField, field: i, pos: e.Pos()}, nil
	}
	return lvalue{}, errorf(expr.Pos(), "expression is not assignable")
}

func (p *Interp) get(lv lvalue) (types.Value, error) {
	switch lv.kind {
	case lvElement:
		return lv.arr.Ref(lv.key), nil
	case lvField:
		return p.rec.Field(lv.field), nil
	default:
		return p.getVar(lv.ident)
	}
}

func (p *Interp) set(lv lvalue, v types.Value) error {
	switch lv.kind {
	case lvElement:
		lv.arr.Set(lv.key, v)
		return nil
	case lvField:
		if err := p.rec.SetField(lv.field, v); err != nil {
			return errorf(lv.pos, "%v: %d", err, lv.field)
		}
		return nil
	default:
		return p.setVar(lv.ident, v)
	}
}

// getVar reads a scalar variable.
func (p *Interp) getVar(id *ast.Ident) (types.Value, error) {
	switch id.Scope {
	case ast.ScopeGlobal:
		if id.Array {
			return types.Null(), typeErrorf(id.Pos(), id.Name, "array used in scalar context")
		}
		return p.globals[id.Index], nil
	case ast.ScopeLocal:
		c := &p.frame().locals[id.Index]
		if id.Array || c.arr != nil {
			return types.Null(), typeErrorf(id.Pos(), id.Name, "array used in scalar context")
		}
		return c.v, nil
	case ast.ScopeSpecial:
		return p.getSpecial(id.Index), nil
	}
	return types.Null(), errorf(id.Pos(), "unresolved variable %s", id.Name)
}

// setVar assigns a scalar variable.
func (p *Interp) setVar(id *ast.Ident, v types.Value) error {
	switch id.Scope {
	case ast.ScopeGlobal:
		if id.Array {
			return typeErrorf(id.Pos(), id.Name, "can't assign to array")
		}
		p.globals[id.Index] = v
		return nil
	case ast.ScopeLocal:
		c := &p.frame().locals[id.Index]
		if id.Array || c.arr != nil {
			return typeErrorf(id.Pos(), id.Name, "can't assign to array")
		}
		c.v = v
		return nil
	case ast.ScopeSpecial:
		return withPos(p.setSpecial(id.Index, v), id.Pos())
	}
	return errorf(id.Pos(), "unresolved variable %s", id.Name)
}

// arrayOf returns the array an identifier names. A local that has not
// been given an array yet gets a fresh one.
func (p *Interp) arrayOf(id *ast.Ident) (*Array, error) {
	switch id.Scope {
	case ast.ScopeGlobal:
		if !id.Array {
			return nil, typeErrorf(id.Pos(), id.Name, "scalar used as array")
		}
		return p.arrays[id.Index], nil
	case ast.ScopeLocal:
		c := &p.frame().locals[id.Index]
		if c.arr != nil {
			return c.arr, nil
		}
		if !id.Array {
			return nil, typeErrorf(id.Pos(), id.Name, "scalar used as array")
		}
		c.arr = NewArray()
		return c.arr, nil
	}
	return nil, typeErrorf(id.Pos(), id.Name, "special variable used as array")
}

// isArray reports whether id currently refers to an array.
func (p *Interp) isArray(id *ast.Ident) bool {
	switch id.Scope {
	case ast.ScopeGlobal:
		return id.Array
	case ast.ScopeLocal:
		return id.Array || p.frame().locals[id.Index].arr != nil
	}
	return false
}

// subscript builds an array key, joining multiple subscripts with SUBSEP.
func (p *Interp) subscript(index []ast.Expr) (string, error) {
	if len(index) == 1 {
		v, err := p.eval(index[0])
		if err != nil {
			return "", err
		}
		return p.toStr(v), nil
	}
	var sb strings.Builder
	for i, e := range index {
		if i > 0 {
			sb.WriteString(p.subsep)
		}
		v, err := p.eval(e)
		if err != nil {
			return "", err
		}
		sb.WriteString(p.toStr(v))
	}
	return sb.String(), nil
}

// fieldIndex evaluates the index of $expr. Text that is not a number
// names a column through HDR; ok is false for an unknown column.
func (p *Interp) fieldIndex(e *ast.FieldExpr) (int, bool, error) {
	v, err := p.eval(e.Index)
	if err != nil {
		return 0, false, err
	}
	if v.IsStr() || v.IsNumStr() {
		name := v.AsStr("")
		if name != "" && !types.LooksNumeric(name) {
			col, ok := p.hdr.Get(name)
			if !ok {
				return 0, false, nil
			}
			return int(col.AsInt()), true, nil
		}
	}
	return int(v.AsInt()), true, nil
}

// literal returns the compiled regex for a regex literal.
func (p *Interp) literal(e *ast.RegexLit) (*runtime.Regex, error) {
	if re, ok := p.literals[e.Pattern]; ok {
		return re, nil
	}
	re, err := p.regexes.Get(e.Pattern)
	if err != nil {
		return nil, errorf(e.Pos(), "invalid regex /%s/: %v", e.Pattern, err)
	}
	return re, nil
}

// pattern returns the regex for a match operand: a literal, or any other
// expression whose text is compiled through the cache.
func (p *Interp) pattern(expr ast.Expr) (*runtime.Regex, error) {
	if lit, ok := expr.(*ast.RegexLit); ok {
		return p.literal(lit)
	}
	v, err := p.eval(expr)
	if err != nil {
		return nil, err
	}
	return p.compile(p.toStr(v), expr.Pos())
}

// compile compiles a dynamic regex through the cache.
func (p *Interp) compile(src string, pos token.Position) (*runtime.Regex, error) {
	re, err := p.regexes.Get(src)
	if err != nil {
		return nil, errorf(pos, "invalid regex %q: %v", src, err)
	}
	return re, nil
}

// withPos fills in the position of a RuntimeError raised without one.
func withPos(err error, pos token.Position) error {
	var re *RuntimeError
	if errors.As(err, &re) && !re.Pos.IsValid() {
		re.Pos = pos
	}
	return err
}
