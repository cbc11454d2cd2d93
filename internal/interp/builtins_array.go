package interp

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/semantic"
	"github.com/kolkov/xawk/internal/types"
)

// defaultBins is the number of hist bins when none is given.
const defaultBins = 10

// arrayArg resolves array argument i of an extended builtin: an array
// variable, or any expression whose text names a global array. It returns
// the array and its name.
func (p *Interp) arrayArg(b semantic.Builtin, e *ast.CallExpr, i int) (*Array, string, error) {
	arg := ast.Unparen(e.Args[i])
	if id, ok := arg.(*ast.Ident); ok && id.Scope != ast.ScopeSpecial && (id.Array || p.isArray(id)) {
		arr, err := p.arrayOf(id)
		return arr, id.Name, err
	}

	v, err := p.eval(arg)
	if err != nil {
		return nil, "", err
	}
	name := p.toStr(v)
	if idx, ok := p.res.GlobalArray(name); ok {
		return p.arrays[idx], name, nil
	}
	return nil, "", typeErrorf(arg.Pos(), name, "argument %d of %s is not an array", i+1, b)
}

// setList replaces the contents of a with values keyed 1..n.
func (a *Array) setList(values []types.Value) {
	a.Clear()
	for i, v := range values {
		a.items[strconv.Itoa(i+1)] = v
	}
}

// values returns the elements in SortedKeys order.
func (a *Array) values() []types.Value {
	keys := a.SortedKeys()
	vals := make([]types.Value, len(keys))
	for i, k := range keys {
		vals[i] = a.items[k]
	}
	return vals
}

// callArrayBuiltin runs the builtins that read or rebuild arrays.
func (p *Interp) callArrayBuiltin(b semantic.Builtin, e *ast.CallExpr) (types.Value, error) {
	if b == semantic.BuiltinJpath {
		return p.jpath(b, e)
	}

	arr, name, err := p.arrayArg(b, e, 0)
	if err != nil {
		return types.Null(), err
	}
	count := func() (types.Value, error) {
		return types.Num(float64(arr.Len())), nil
	}

	switch b {
	case semantic.BuiltinAsort, semantic.BuiltinAsorti:
		dest := arr
		if len(e.Args) > 1 {
			if dest, _, err = p.arrayArg(b, e, 1); err != nil {
				return types.Null(), err
			}
		}
		var sorted []types.Value
		if b == semantic.BuiltinAsort {
			sorted = arr.values()
			sort.SliceStable(sorted, func(i, j int) bool {
				return valueLess(sorted[i], sorted[j], p.convfmt)
			})
		} else {
			for _, k := range arr.SortedKeys() {
				sorted = append(sorted, types.Str(k))
			}
		}
		dest.setList(sorted)
		return types.Num(float64(len(sorted))), nil

	case semantic.BuiltinKeys:
		return types.Str(strings.Join(arr.SortedKeys(), "\n")), nil

	case semantic.BuiltinVals, semantic.BuiltinJoin:
		sep := "\n"
		if b == semantic.BuiltinJoin {
			sep = p.ofs
			if len(e.Args) > 1 {
				v, err := p.eval(e.Args[1])
				if err != nil {
					return types.Null(), err
				}
				sep = p.toStr(v)
			}
		}
		parts := make([]string, 0, arr.Len())
		for _, v := range arr.values() {
			parts = append(parts, p.toStr(v))
		}
		return types.Str(strings.Join(parts, sep)), nil

	case semantic.BuiltinUniq:
		seen := make(map[string]bool, arr.Len())
		var distinct []types.Value
		for _, v := range arr.values() {
			s := p.toStr(v)
			if !seen[s] {
				seen[s] = true
				distinct = append(distinct, v)
			}
		}
		arr.setList(distinct)
		return count()

	case semantic.BuiltinInv:
		inverted := make(map[string]types.Value, arr.Len())
		for _, k := range arr.SortedKeys() {
			inverted[p.toStr(arr.items[k])] = types.NumStr(k)
		}
		arr.Clear()
		for k, v := range inverted {
			arr.items[k] = v
		}
		return count()

	case semantic.BuiltinTidy:
		var kept []types.Value
		for _, v := range arr.values() {
			if p.toStr(v) != "" {
				kept = append(kept, v)
			}
		}
		arr.setList(kept)
		return count()

	case semantic.BuiltinShuf:
		vals := arr.values()
		p.rnd.Shuffle(len(vals), func(i, j int) {
			vals[i], vals[j] = vals[j], vals[i]
		})
		arr.setList(vals)
		return count()

	case semantic.BuiltinDiff, semantic.BuiltinInter, semantic.BuiltinUnion:
		other, _, err := p.arrayArg(b, e, 1)
		if err != nil {
			return types.Null(), err
		}
		setOp(b, arr, other)
		return count()

	case semantic.BuiltinSeq:
		args, err := p.evalAll(e.Args[1:])
		if err != nil {
			return types.Null(), err
		}
		arr.setList(sequence(args[0].AsNum(), args[1].AsNum()))
		return count()

	case semantic.BuiltinSamp:
		v, err := p.eval(e.Args[1])
		if err != nil {
			return types.Null(), err
		}
		p.sample(arr, int(v.AsInt()))
		return count()

	case semantic.BuiltinHist:
		bins := defaultBins
		if len(e.Args) > 1 {
			v, err := p.eval(e.Args[1])
			if err != nil {
				return types.Null(), err
			}
			bins = int(v.AsInt())
		}
		histogram(arr, max(bins, 1))
		return types.Str(name), nil

	case semantic.BuiltinEdges:
		dest, _, err := p.arrayArg(b, e, 1)
		if err != nil {
			return types.Null(), err
		}
		edges := append([]float64(nil), arr.Meta()...)
		vals := make([]types.Value, len(edges))
		for i, edge := range edges {
			vals[i] = types.Num(edge)
		}
		dest.setList(vals)
		return types.Num(float64(len(vals))), nil
	}
	return types.Null(), errorf(e.Pos(), "unexpected builtin %s", b)
}

// valueLess orders numbers before text, numbers by value and text
// byte-wise.
func valueLess(x, y types.Value, convfmt string) bool {
	xn, xText := x.IsTrueStr()
	yn, yText := y.IsTrueStr()
	switch {
	case !xText && !yText:
		return xn < yn
	case !xText:
		return true
	case !yText:
		return false
	}
	return x.AsStr(convfmt) < y.AsStr(convfmt)
}

// setOp updates a in place by key: diff drops the keys in other, inter
// keeps only them and union adds the missing ones.
func setOp(b semantic.Builtin, a, other *Array) {
	a.meta = nil
	switch b {
	case semantic.BuiltinDiff:
		for k := range a.items {
			if other.Has(k) {
				delete(a.items, k)
			}
		}
	case semantic.BuiltinInter:
		for k := range a.items {
			if !other.Has(k) {
				delete(a.items, k)
			}
		}
	case semantic.BuiltinUnion:
		for k, v := range other.items {
			if !a.Has(k) {
				a.items[k] = v
			}
		}
	}
}

// sequence counts from from to to in steps of 1, downward when to is
// smaller.
func sequence(from, to float64) []types.Value {
	if math.IsNaN(from) || math.IsNaN(to) || math.IsInf(from, 0) || math.IsInf(to, 0) {
		return nil
	}
	step := 1.0
	if to < from {
		step = -1
	}
	n := int(math.Floor(math.Abs(to-from))) + 1
	vals := make([]types.Value, n)
	for i := range vals {
		vals[i] = types.Num(from + float64(i)*step)
	}
	return vals
}

// sample keeps n randomly chosen elements of arr, with their keys.
func (p *Interp) sample(arr *Array, n int) {
	arr.meta = nil
	keys := arr.SortedKeys()
	if n >= len(keys) {
		return
	}
	keep := make(map[string]bool, max(n, 0))
	for _, i := range p.rnd.Perm(len(keys))[:max(n, 0)] {
		keep[keys[i]] = true
	}
	for _, k := range keys {
		if !keep[k] {
			delete(arr.items, k)
		}
	}
}

// histogram replaces arr with the counts of its values in bins equal-width
// bins, keyed 1..bins, and stores the lower edge of each bin as metadata.
func histogram(arr *Array, bins int) {
	vals := sortedValues(arr)
	counts := make([]types.Value, bins)
	edges := make([]float64, bins)
	if len(vals) == 0 {
		for i := range counts {
			counts[i] = types.Num(0)
		}
		arr.setList(counts)
		arr.meta = edges
		return
	}

	lo, hi := vals[0], vals[len(vals)-1]
	width := (hi - lo) / float64(bins)
	tally := make([]int, bins)
	for _, v := range vals {
		i := 0
		if width > 0 {
			i = min(int((v-lo)/width), bins-1)
		}
		tally[i]++
	}
	for i := range counts {
		counts[i] = types.Num(float64(tally[i]))
		edges[i] = lo + float64(i)*width
	}
	arr.setList(counts)
	arr.meta = edges
}
