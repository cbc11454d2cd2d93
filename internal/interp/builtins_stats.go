package interp

import (
	"math"
	"sort"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/semantic"
	"github.com/kolkov/xawk/internal/types"
)

// callStats reduces the numeric values of an array. Every statistic of an
// empty array is 0.
func (p *Interp) callStats(b semantic.Builtin, e *ast.CallExpr) (types.Value, error) {
	arr, _, err := p.arrayArg(b, e, 0)
	if err != nil {
		return types.Null(), err
	}

	pct := 50.0
	if len(e.Args) > 1 {
		v, err := p.eval(e.Args[1])
		if err != nil {
			return types.Null(), err
		}
		pct = v.AsNum()
		if b == semantic.BuiltinQuantile {
			pct *= 100
		}
	}

	vals := sortedValues(arr)
	if len(vals) == 0 {
		return types.Num(0), nil
	}

	switch b {
	case semantic.BuiltinSum:
		return types.Num(sum(vals)), nil
	case semantic.BuiltinMean:
		return types.Num(mean(vals)), nil
	case semantic.BuiltinMedian:
		return types.Num(percentile(vals, 50)), nil
	case semantic.BuiltinVariance:
		return types.Num(variance(vals)), nil
	case semantic.BuiltinStddev:
		return types.Num(math.Sqrt(variance(vals))), nil
	case semantic.BuiltinPercentile, semantic.BuiltinQuantile:
		return types.Num(percentile(vals, pct)), nil
	case semantic.BuiltinIQM:
		return types.Num(iqm(vals)), nil
	case semantic.BuiltinMin:
		return types.Num(vals[0]), nil
	case semantic.BuiltinMax:
		return types.Num(vals[len(vals)-1]), nil
	}
	return types.Null(), errorf(e.Pos(), "unexpected builtin %s", b)
}

// sortedValues returns the numeric values of arr in ascending order.
func sortedValues(arr *Array) []float64 {
	vals := make([]float64, 0, arr.Len())
	for _, v := range arr.items {
		vals = append(vals, v.AsNum())
	}
	sort.Float64s(vals)
	return vals
}

func sum(vals []float64) float64 {
	total := 0.0
	for _, v := range vals {
		total += v
	}
	return total
}

func mean(vals []float64) float64 {
	return sum(vals) / float64(len(vals))
}

// variance is the population variance.
func variance(vals []float64) float64 {
	m := mean(vals)
	total := 0.0
	for _, v := range vals {
		total += (v - m) * (v - m)
	}
	return total / float64(len(vals))
}

// percentile interpolates linearly between the closest ranks of sorted
// values. pct is clamped to [0, 100].
func percentile(sorted []float64, pct float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return sorted[0]
	}
	if math.IsNaN(pct) {
		pct = 0
	}
	pct = math.Max(0, math.Min(100, pct))
	rank := pct / 100 * float64(n-1)
	lo, hi := int(math.Floor(rank)), int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// iqm is the interquartile mean: the mean of the values left after
// dropping a quarter of them, rounded down, from each end.
func iqm(sorted []float64) float64 {
	q := len(sorted) / 4
	return mean(sorted[q : len(sorted)-q])
}
