package interp

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/token"
	"github.com/kolkov/xawk/internal/types"
)

// callPOSIX calls one of the POSIX builtins.
func (p *Interp) callPOSIX(e *ast.BuiltinExpr) (types.Value, error) {
	switch e.Func {
	case token.F_LENGTH:
		return p.length(e)
	case token.F_SPLIT:
		return p.split(e)
	case token.F_SUB:
		return p.substitute(e, false)
	case token.F_GSUB:
		return p.substitute(e, true)
	case token.F_MATCH:
		return p.match(e)
	}

	args, err := p.evalAll(e.Args)
	if err != nil {
		return types.Null(), err
	}

	switch e.Func {
	case token.F_SUBSTR:
		s := p.toStr(args[0])
		length := math.Inf(1)
		if len(args) > 2 {
			length = args[2].AsNum()
		}
		return types.Str(substr(s, args[1].AsNum(), length)), nil

	case token.F_INDEX:
		return types.Num(float64(runeIndex(p.toStr(args[0]), p.toStr(args[1])))), nil

	case token.F_SPRINTF:
		return types.Str(p.sprintf(p.toStr(args[0]), args[1:])), nil

	case token.F_TOLOWER:
		return types.Str(toLowerASCII(p.toStr(args[0]))), nil

	case token.F_TOUPPER:
		return types.Str(toUpperASCII(p.toStr(args[0]))), nil

	case token.F_SIN:
		return types.Num(math.Sin(args[0].AsNum())), nil
	case token.F_COS:
		return types.Num(math.Cos(args[0].AsNum())), nil
	case token.F_ATAN2:
		return types.Num(math.Atan2(args[0].AsNum(), args[1].AsNum())), nil
	case token.F_EXP:
		return types.Num(math.Exp(args[0].AsNum())), nil
	case token.F_LOG:
		return types.Num(math.Log(args[0].AsNum())), nil
	case token.F_SQRT:
		return types.Num(math.Sqrt(args[0].AsNum())), nil
	case token.F_INT:
		return types.Num(math.Trunc(args[0].AsNum())), nil

	case token.F_RAND:
		return types.Num(p.rnd.Float64()), nil

	case token.F_SRAND:
		prev := p.seed
		if len(args) > 0 {
			p.seed = args[0].AsNum()
		} else {
			p.seed = float64(time.Now().Unix())
		}
		p.reseed()
		return types.Num(prev), nil

	case token.F_CLOSE:
		return types.Num(float64(p.io.Close(p.toStr(args[0])))), nil

	case token.F_FFLUSH:
		if len(args) == 0 || p.toStr(args[0]) == "" {
			if p.io.FlushAll() != nil {
				return types.Num(-1), nil
			}
			return types.Num(0), nil
		}
		return types.Num(float64(p.io.Flush(p.toStr(args[0])))), nil

	case token.F_SYSTEM:
		return types.Num(float64(p.io.System(p.toStr(args[0])))), nil
	}
	return types.Null(), errorf(e.Pos(), "unexpected builtin %s", e.Func)
}

// length counts the characters of its argument or $0, or the elements of
// an array.
func (p *Interp) length(e *ast.BuiltinExpr) (types.Value, error) {
	if len(e.Args) == 0 {
		return types.Num(float64(utf8.RuneCountInString(p.rec.Text()))), nil
	}
	if id, ok := ast.Unparen(e.Args[0]).(*ast.Ident); ok && p.isArray(id) {
		arr, err := p.arrayOf(id)
		if err != nil {
			return types.Null(), err
		}
		return types.Num(float64(arr.Len())), nil
	}
	v, err := p.eval(e.Args[0])
	if err != nil {
		return types.Null(), err
	}
	return types.Num(float64(utf8.RuneCountInString(p.toStr(v)))), nil
}

// split splits a string into an array, with FS when no separator is given.
func (p *Interp) split(e *ast.BuiltinExpr) (types.Value, error) {
	v, err := p.eval(e.Args[0])
	if err != nil {
		return types.Null(), err
	}
	text := p.toStr(v)

	splitter := p.rec.next
	if len(e.Args) > 2 {
		if lit, ok := e.Args[2].(*ast.RegexLit); ok {
			splitter, err = splitterFor(lit.Pattern, true, p.regexes)
		} else {
			var sep types.Value
			if sep, err = p.eval(e.Args[2]); err != nil {
				return types.Null(), err
			}
			splitter, err = splitterFor(p.toStr(sep), false, p.regexes)
		}
		if err != nil {
			return types.Null(), errorf(e.Args[2].Pos(), "invalid split separator: %v", err)
		}
	}

	arr, err := p.arrayOf(e.Args[1].(*ast.Ident))
	if err != nil {
		return types.Null(), err
	}
	parts := splitter.splitText(text)
	arr.Clear()
	for i, part := range parts {
		arr.Set(strconv.Itoa(i+1), types.NumStr(part))
	}
	return types.Num(float64(len(parts))), nil
}

// substitute runs sub and gsub. The target, $0 by default, is assigned
// only when something was replaced.
func (p *Interp) substitute(e *ast.BuiltinExpr, global bool) (types.Value, error) {
	re, err := p.pattern(e.Args[0])
	if err != nil {
		return types.Null(), err
	}
	replv, err := p.eval(e.Args[1])
	if err != nil {
		return types.Null(), err
	}
	repl := p.toStr(replv)

	lv := lvalue{kind: lvField, field: 0, pos: e.Pos()}
	if len(e.Args) > 2 {
		if lv, err = p.lvalueOf(e.Args[2]); err != nil {
			return types.Null(), err
		}
	}
	target, err := p.get(lv)
	if err != nil {
		return types.Null(), err
	}
	text := p.toStr(target)

	var result string
	count := 0
	if global {
		result = re.ReplaceAllStringFunc(text, func(matched string) string {
			count++
			return expandReplacement(repl, matched)
		})
	} else if loc := re.FindStringIndex(text); loc != nil {
		count = 1
		result = text[:loc[0]] + expandReplacement(repl, text[loc[0]:loc[1]]) + text[loc[1]:]
	}

	if count > 0 {
		if err := p.set(lv, types.Str(result)); err != nil {
			return types.Null(), err
		}
	}
	return types.Num(float64(count)), nil
}

// match sets RSTART and RLENGTH for the leftmost match, in characters. The
// optional array receives the matched text at [0] and [1].
func (p *Interp) match(e *ast.BuiltinExpr) (types.Value, error) {
	v, err := p.eval(e.Args[0])
	if err != nil {
		return types.Null(), err
	}
	re, err := p.pattern(e.Args[1])
	if err != nil {
		return types.Null(), err
	}
	var arr *Array
	if len(e.Args) > 2 {
		if arr, err = p.arrayOf(e.Args[2].(*ast.Ident)); err != nil {
			return types.Null(), err
		}
		arr.Clear()
	}

	s := p.toStr(v)
	loc := re.FindStringIndex(s)
	if loc == nil {
		p.rstart, p.rlength = 0, -1
		return types.Num(0), nil
	}
	matched := s[loc[0]:loc[1]]
	p.rstart = utf8.RuneCountInString(s[:loc[0]]) + 1
	p.rlength = utf8.RuneCountInString(matched)
	if arr != nil {
		arr.Set("0", types.NumStr(matched))
		arr.Set("1", types.NumStr(matched))
	}
	return types.Num(float64(p.rstart)), nil
}

// substr returns the characters of s from position start, 1-based, for
// length characters. Both are rounded and clamped to the string.
func substr(s string, start, length float64) string {
	n := utf8.RuneCountInString(s)
	from := math.RoundToEven(start)
	to := from + math.RoundToEven(length)
	if math.IsNaN(from) || math.IsNaN(to) {
		return ""
	}
	if from < 1 {
		from = 1
	}
	if to > float64(n+1) {
		to = float64(n + 1)
	}
	if to <= from {
		return ""
	}

	i, j := int(from)-1, int(to)-1
	if n == len(s) {
		return s[i:j]
	}
	runes := []rune(s)
	return string(runes[i:j])
}

// runeIndex returns the 1-based character position of t in s, or 0.
func runeIndex(s, t string) int {
	i := strings.Index(s, t)
	if i < 0 {
		return 0
	}
	return utf8.RuneCountInString(s[:i]) + 1
}

// expandReplacement builds the replacement text for one match: & is the
// matched text, \& a literal & and \\ a backslash.
func expandReplacement(repl, matched string) string {
	if strings.IndexByte(repl, '&') < 0 && strings.IndexByte(repl, '\\') < 0 {
		return repl
	}
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c == '\\' && i+1 < len(repl) && (repl[i+1] == '&' || repl[i+1] == '\\') {
			sb.WriteByte(repl[i+1])
			i++
			continue
		}
		if c == '&' {
			sb.WriteString(matched)
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// toLowerASCII lowercases s, using byte arithmetic while s is ASCII.
func toLowerASCII(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= utf8.RuneSelf {
			return strings.ToLower(s)
		}
		if c >= 'A' && c <= 'Z' {
			return mapASCII(s, i, 'A', 'Z', 'a'-'A', strings.ToLower)
		}
	}
	return s
}

// toUpperASCII uppercases s, using byte arithmetic while s is ASCII.
func toUpperASCII(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= utf8.RuneSelf {
			return strings.ToUpper(s)
		}
		if c >= 'a' && c <= 'z' {
			return mapASCII(s, i, 'a', 'z', 'A'-'a', strings.ToUpper)
		}
	}
	return s
}

// mapASCII shifts the bytes in [lo, hi] by delta from position start on,
// falling back to slow for non-ASCII input.
func mapASCII(s string, start int, lo, hi byte, delta int, slow func(string) string) string {
	b := make([]byte, len(s))
	copy(b, s[:start])
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= utf8.RuneSelf:
			return slow(s)
		case c >= lo && c <= hi:
			b[i] = byte(int(c) + delta)
		default:
			b[i] = c
		}
	}
	return string(b)
}

// reseed restarts the random generator from the current seed.
func (p *Interp) reseed() {
	p.rnd = rand.New(rand.NewSource(int64(p.seed)))
}
