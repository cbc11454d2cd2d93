package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ncruces/go-strftime"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/runtime"
	"github.com/kolkov/xawk/internal/semantic"
	"github.com/kolkov/xawk/internal/types"
)

// defaultTimeFormat is the strftime and parsedate format when none is given.
const defaultTimeFormat = "%Y-%m-%d %H:%M:%S"

// maxBuiltLen bounds the strings repeat, lpad and rpad may build.
const maxBuiltLen = 1 << 30

// callBuiltin calls an extended builtin through its resolved handle.
func (p *Interp) callBuiltin(e *ast.CallExpr) (types.Value, error) {
	b := semantic.Builtin(e.Builtin)
	switch b.Info().Class {
	case semantic.ClassArray:
		return p.callArrayBuiltin(b, e)
	case semantic.ClassContext:
		return p.callContextBuiltin(b, e)
	}

	switch {
	case b == semantic.BuiltinTypeof:
		return p.typeOf(e.Args[0])
	case b.TakesArray(0, len(e.Args)):
		return p.callStats(b, e)
	}

	args, err := p.evalAll(e.Args)
	if err != nil {
		return types.Null(), err
	}
	str := func(i int) string { return p.toStr(args[i]) }
	num := func(i int) float64 { return args[i].AsNum() }

	switch b {
	case semantic.BuiltinTrim:
		return types.Str(strings.TrimSpace(str(0))), nil
	case semantic.BuiltinLtrim:
		return types.Str(strings.TrimLeftFunc(str(0), unicode.IsSpace)), nil
	case semantic.BuiltinRtrim:
		return types.Str(strings.TrimRightFunc(str(0), unicode.IsSpace)), nil
	case semantic.BuiltinStartsWith:
		return types.Bool(strings.HasPrefix(str(0), str(1))), nil
	case semantic.BuiltinEndsWith:
		return types.Bool(strings.HasSuffix(str(0), str(1))), nil
	case semantic.BuiltinRepeat:
		s, n := str(0), args[1].AsInt()
		if n <= 0 || s == "" {
			return types.Str(""), nil
		}
		if n > maxBuiltLen/int64(len(s)) {
			return types.Null(), errorf(e.Pos(), "repeat: result exceeds %d bytes", maxBuiltLen)
		}
		return types.Str(strings.Repeat(s, int(n))), nil
	case semantic.BuiltinReverse:
		return types.Str(reverse(str(0))), nil
	case semantic.BuiltinChr:
		n := args[0].AsInt()
		if n < 0 || n > utf8.MaxRune || !utf8.ValidRune(rune(n)) {
			return types.Str(""), nil
		}
		return types.Str(string(rune(n))), nil
	case semantic.BuiltinOrd:
		r, size := utf8.DecodeRuneInString(str(0))
		if size == 0 {
			return types.Num(0), nil
		}
		return types.Num(float64(r)), nil
	case semantic.BuiltinHex:
		return types.Str(fmt.Sprintf("%#x", uint64(args[0].AsInt()))), nil
	case semantic.BuiltinLpad, semantic.BuiltinRpad:
		fill := " "
		if len(args) > 2 {
			fill = str(2)
		}
		width := args[1].AsInt()
		if width > maxBuiltLen/utf8.UTFMax {
			return types.Null(), errorf(e.Pos(), "%s: width %d exceeds %d", b, width, maxBuiltLen/utf8.UTFMax)
		}
		return types.Str(pad(str(0), int(width), fill, b == semantic.BuiltinLpad)), nil
	case semantic.BuiltinGensub:
		return p.gensub(e, args)
	case semantic.BuiltinUUID:
		return types.Str(uuid.NewString()), nil

	case semantic.BuiltinAbs:
		return types.Num(math.Abs(num(0))), nil
	case semantic.BuiltinCeil:
		return types.Num(math.Ceil(num(0))), nil
	case semantic.BuiltinFloor:
		return types.Num(math.Floor(num(0))), nil
	case semantic.BuiltinRound:
		return types.Num(math.Round(num(0))), nil
	case semantic.BuiltinLog2:
		return types.Num(math.Log2(num(0))), nil
	case semantic.BuiltinLog10:
		return types.Num(math.Log10(num(0))), nil
	case semantic.BuiltinMin:
		return types.Num(math.Min(num(0), num(1))), nil
	case semantic.BuiltinMax:
		return types.Num(math.Max(num(0), num(1))), nil

	case semantic.BuiltinAnd, semantic.BuiltinOr, semantic.BuiltinXor,
		semantic.BuiltinLshift, semantic.BuiltinRshift:
		return types.Num(float64(bitwise(b, args[0].AsInt(), args[1].AsInt()))), nil
	case semantic.BuiltinCompl:
		return types.Num(float64(^args[0].AsInt())), nil

	case semantic.BuiltinStrftime:
		format := defaultTimeFormat
		if len(args) > 0 {
			format = str(0)
		}
		t := time.Now()
		if len(args) > 1 {
			t = time.Unix(args[1].AsInt(), 0)
		}
		return types.Str(strftime.Format(format, t.UTC())), nil
	case semantic.BuiltinMktime:
		return types.Num(float64(mktime(str(0)))), nil
	case semantic.BuiltinParsedate:
		format := defaultTimeFormat
		if len(args) > 1 {
			format = str(1)
		}
		return types.Num(float64(parsedate(str(0), format))), nil
	}
	return types.Null(), errorf(e.Pos(), "unexpected builtin %s", b)
}

// typeOf reports "array", "number", "string" or "uninitialized" without
// creating the variable or element it inspects.
func (p *Interp) typeOf(arg ast.Expr) (types.Value, error) {
	switch a := ast.Unparen(arg).(type) {
	case *ast.Ident:
		if a.Scope != ast.ScopeSpecial && p.isArray(a) {
			return types.Str("array"), nil
		}
	case *ast.IndexExpr:
		arr, err := p.arrayOf(a.Array)
		if err != nil {
			return types.Null(), err
		}
		key, err := p.subscript(a.Index)
		if err != nil {
			return types.Null(), err
		}
		v, ok := arr.Get(key)
		if !ok {
			return types.Str("uninitialized"), nil
		}
		return types.Str(v.TypeName()), nil
	}
	v, err := p.eval(arg)
	if err != nil {
		return types.Null(), err
	}
	return types.Str(v.TypeName()), nil
}

// gensub returns the target, $0 by default, with the matches selected by
// how replaced: "g" or "G" replaces all, a number n replaces the nth.
func (p *Interp) gensub(e *ast.CallExpr, args []types.Value) (types.Value, error) {
	re, err := p.patternValue(e.Args[0], args[0])
	if err != nil {
		return types.Null(), err
	}
	repl := p.toStr(args[1])
	how := p.toStr(args[2])
	target := p.rec.Text()
	if len(args) > 3 {
		target = p.toStr(args[3])
	}

	if strings.HasPrefix(how, "g") || strings.HasPrefix(how, "G") {
		return types.Str(re.ReplaceAllStringFunc(target, func(matched string) string {
			return expandReplacement(repl, matched)
		})), nil
	}

	n := 1
	if types.LooksNumeric(how) {
		n = int(args[2].AsInt())
	}
	if n <= 0 {
		return types.Str(target), nil
	}
	for k, loc := range re.FindAllStringIndex(target, n) {
		if k == n-1 {
			return types.Str(target[:loc[0]] + expandReplacement(repl, target[loc[0]:loc[1]]) + target[loc[1]:]), nil
		}
	}
	return types.Str(target), nil
}

// patternValue returns the regex for an already evaluated argument: the
// literal itself when one was written, else the argument's text.
func (p *Interp) patternValue(expr ast.Expr, v types.Value) (*runtime.Regex, error) {
	if lit, ok := ast.Unparen(expr).(*ast.RegexLit); ok {
		return p.literal(lit)
	}
	return p.compile(p.toStr(v), expr.Pos())
}

// reverse reverses s by character.
func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// pad pads s to width characters with the first character of fill. It
// never truncates.
func pad(s string, width int, fill string, left bool) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	r, size := utf8.DecodeRuneInString(fill)
	if size == 0 {
		r = ' '
	}
	padding := strings.Repeat(string(r), width-n)
	if left {
		return padding + s
	}
	return s + padding
}

// bitwise applies a two-operand bit function on 64-bit integers. Shift
// counts are taken modulo 64 and rshift is logical.
func bitwise(b semantic.Builtin, x, y int64) int64 {
	switch b {
	case semantic.BuiltinAnd:
		return x & y
	case semantic.BuiltinOr:
		return x | y
	case semantic.BuiltinXor:
		return x ^ y
	case semantic.BuiltinLshift:
		return x << (uint64(y) & 63)
	case semantic.BuiltinRshift:
		return int64(uint64(x) >> (uint64(y) & 63))
	}
	return 0
}

// mktime converts "YYYY MM DD HH MM SS" in UTC to epoch seconds. Out of
// range parts normalize as in time.Date; fewer than six fields give -1.
func mktime(spec string) int64 {
	fields := strings.Fields(spec)
	if len(fields) < 6 {
		return -1
	}
	var parts [6]int
	for i := range parts {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return -1
		}
		parts[i] = n
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.UTC)
	return t.Unix()
}

// parsedate parses s with a strftime format, in UTC, returning epoch
// seconds or -1.
func parsedate(s, format string) int64 {
	layout, err := strftime.Layout(format)
	if err != nil {
		return -1
	}
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return -1
	}
	return t.Unix()
}
