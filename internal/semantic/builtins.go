package semantic

// Builtin is a resolved handle for an extended builtin function. The zero
// value means the call is not a builtin. Handles are stored on
// ast.CallExpr.Builtin so the interpreter dispatches without name lookups.
type Builtin int

const (
	BuiltinNone Builtin = iota

	// Pure string functions
	BuiltinTrim
	BuiltinLtrim
	BuiltinRtrim
	BuiltinStartsWith
	BuiltinEndsWith
	BuiltinRepeat
	BuiltinReverse
	BuiltinChr
	BuiltinOrd
	BuiltinHex
	BuiltinLpad
	BuiltinRpad
	BuiltinGensub
	BuiltinTypeof
	BuiltinUUID

	// Pure math and bit functions
	BuiltinAbs
	BuiltinCeil
	BuiltinFloor
	BuiltinRound
	BuiltinLog2
	BuiltinLog10
	BuiltinMin
	BuiltinMax
	BuiltinAnd
	BuiltinOr
	BuiltinXor
	BuiltinLshift
	BuiltinRshift
	BuiltinCompl

	// Time and JSON
	BuiltinStrftime
	BuiltinMktime
	BuiltinParsedate
	BuiltinJpath

	// Statistics over an array
	BuiltinSum
	BuiltinMean
	BuiltinMedian
	BuiltinVariance
	BuiltinStddev
	BuiltinPercentile
	BuiltinQuantile
	BuiltinIQM

	// Array functions
	BuiltinAsort
	BuiltinAsorti
	BuiltinKeys
	BuiltinVals
	BuiltinUniq
	BuiltinInv
	BuiltinTidy
	BuiltinShuf
	BuiltinDiff
	BuiltinInter
	BuiltinUnion
	BuiltinSeq
	BuiltinSamp
	BuiltinHist
	BuiltinEdges
	BuiltinJoin

	// Context functions
	BuiltinSystime
	BuiltinClock
	BuiltinTic
	BuiltinToc
	BuiltinDump
	BuiltinSlurp

	numBuiltins
)

// Class groups builtins by what they may touch.
type Class uint8

const (
	ClassPure    Class = iota // value in, value out
	ClassArray                // reads or rebuilds an array argument
	ClassContext              // needs the execution context (clock, I/O)
)

func (c Class) String() string {
	switch c {
	case ClassPure:
		return "pure"
	case ClassArray:
		return "array"
	case ClassContext:
		return "context"
	}
	return "invalid"
}

// BuiltinInfo describes one extended builtin.
//
// ArrayArgs has bit i set when argument i is an array. A bare identifier
// there names the array itself; any other expression is evaluated and its
// text names a global array. WriteArgs marks the array arguments the
// function rebuilds. AnyArgs marks arguments that may be either a scalar
// or an array (typeof, dump).
type BuiltinInfo struct {
	Name      string
	MinArgs   int
	MaxArgs   int
	Class     Class
	ArrayArgs uint8
	WriteArgs uint8
	AnyArgs   uint8
}

// IsArrayArg reports whether argument i is an array argument.
func (b *BuiltinInfo) IsArrayArg(i int) bool { return i < 8 && b.ArrayArgs&(1<<i) != 0 }

// IsWriteArg reports whether argument i is an array the call rebuilds.
func (b *BuiltinInfo) IsWriteArg(i int) bool { return i < 8 && b.WriteArgs&(1<<i) != 0 }

// IsAnyArg reports whether argument i may be a scalar or an array.
func (b *BuiltinInfo) IsAnyArg(i int) bool { return i < 8 && b.AnyArgs&(1<<i) != 0 }

const (
	arg0 = 1 << iota
	arg1
	arg2
)

var builtinInfos = [numBuiltins]BuiltinInfo{
	BuiltinTrim:       {Name: "trim", MinArgs: 1, MaxArgs: 1},
	BuiltinLtrim:      {Name: "ltrim", MinArgs: 1, MaxArgs: 1},
	BuiltinRtrim:      {Name: "rtrim", MinArgs: 1, MaxArgs: 1},
	BuiltinStartsWith: {Name: "startswith", MinArgs: 2, MaxArgs: 2},
	BuiltinEndsWith:   {Name: "endswith", MinArgs: 2, MaxArgs: 2},
	BuiltinRepeat:     {Name: "repeat", MinArgs: 2, MaxArgs: 2},
	BuiltinReverse:    {Name: "reverse", MinArgs: 1, MaxArgs: 1},
	BuiltinChr:        {Name: "chr", MinArgs: 1, MaxArgs: 1},
	BuiltinOrd:        {Name: "ord", MinArgs: 1, MaxArgs: 1},
	BuiltinHex:        {Name: "hex", MinArgs: 1, MaxArgs: 1},
	BuiltinLpad:       {Name: "lpad", MinArgs: 2, MaxArgs: 3},
	BuiltinRpad:       {Name: "rpad", MinArgs: 2, MaxArgs: 3},
	BuiltinGensub:     {Name: "gensub", MinArgs: 3, MaxArgs: 4},
	BuiltinTypeof:     {Name: "typeof", MinArgs: 1, MaxArgs: 1, AnyArgs: arg0},
	BuiltinUUID:       {Name: "uuid", MinArgs: 0, MaxArgs: 0},

	BuiltinAbs:    {Name: "abs", MinArgs: 1, MaxArgs: 1},
	BuiltinCeil:   {Name: "ceil", MinArgs: 1, MaxArgs: 1},
	BuiltinFloor:  {Name: "floor", MinArgs: 1, MaxArgs: 1},
	BuiltinRound:  {Name: "round", MinArgs: 1, MaxArgs: 1},
	BuiltinLog2:   {Name: "log2", MinArgs: 1, MaxArgs: 1},
	BuiltinLog10:  {Name: "log10", MinArgs: 1, MaxArgs: 1},
	BuiltinMin:    {Name: "min", MinArgs: 1, MaxArgs: 2},
	BuiltinMax:    {Name: "max", MinArgs: 1, MaxArgs: 2},
	BuiltinAnd:    {Name: "and", MinArgs: 2, MaxArgs: 2},
	BuiltinOr:     {Name: "or", MinArgs: 2, MaxArgs: 2},
	BuiltinXor:    {Name: "xor", MinArgs: 2, MaxArgs: 2},
	BuiltinLshift: {Name: "lshift", MinArgs: 2, MaxArgs: 2},
	BuiltinRshift: {Name: "rshift", MinArgs: 2, MaxArgs: 2},
	BuiltinCompl:  {Name: "compl", MinArgs: 1, MaxArgs: 1},

	BuiltinStrftime:  {Name: "strftime", MinArgs: 0, MaxArgs: 2},
	BuiltinMktime:    {Name: "mktime", MinArgs: 1, MaxArgs: 1},
	BuiltinParsedate: {Name: "parsedate", MinArgs: 1, MaxArgs: 2},
	BuiltinJpath:     {Name: "jpath", MinArgs: 2, MaxArgs: 3, Class: ClassArray, ArrayArgs: arg2, WriteArgs: arg2},

	BuiltinSum:        {Name: "sum", MinArgs: 1, MaxArgs: 1, ArrayArgs: arg0},
	BuiltinMean:       {Name: "mean", MinArgs: 1, MaxArgs: 1, ArrayArgs: arg0},
	BuiltinMedian:     {Name: "median", MinArgs: 1, MaxArgs: 1, ArrayArgs: arg0},
	BuiltinVariance:   {Name: "variance", MinArgs: 1, MaxArgs: 1, ArrayArgs: arg0},
	BuiltinStddev:     {Name: "stddev", MinArgs: 1, MaxArgs: 1, ArrayArgs: arg0},
	BuiltinPercentile: {Name: "percentile", MinArgs: 1, MaxArgs: 2, ArrayArgs: arg0},
	BuiltinQuantile:   {Name: "quantile", MinArgs: 1, MaxArgs: 2, ArrayArgs: arg0},
	BuiltinIQM:        {Name: "iqm", MinArgs: 1, MaxArgs: 1, ArrayArgs: arg0},

	BuiltinAsort:  {Name: "asort", MinArgs: 1, MaxArgs: 2, Class: ClassArray, ArrayArgs: arg0 | arg1, WriteArgs: arg0 | arg1},
	BuiltinAsorti: {Name: "asorti", MinArgs: 1, MaxArgs: 2, Class: ClassArray, ArrayArgs: arg0 | arg1, WriteArgs: arg0 | arg1},
	BuiltinKeys:   {Name: "keys", MinArgs: 1, MaxArgs: 1, Class: ClassArray, ArrayArgs: arg0},
	BuiltinVals:   {Name: "vals", MinArgs: 1, MaxArgs: 1, Class: ClassArray, ArrayArgs: arg0},
	BuiltinUniq:   {Name: "uniq", MinArgs: 1, MaxArgs: 1, Class: ClassArray, ArrayArgs: arg0, WriteArgs: arg0},
	BuiltinInv:    {Name: "inv", MinArgs: 1, MaxArgs: 1, Class: ClassArray, ArrayArgs: arg0, WriteArgs: arg0},
	BuiltinTidy:   {Name: "tidy", MinArgs: 1, MaxArgs: 1, Class: ClassArray, ArrayArgs: arg0, WriteArgs: arg0},
	BuiltinShuf:   {Name: "shuf", MinArgs: 1, MaxArgs: 1, Class: ClassArray, ArrayArgs: arg0, WriteArgs: arg0},
	BuiltinDiff:   {Name: "diff", MinArgs: 2, MaxArgs: 2, Class: ClassArray, ArrayArgs: arg0 | arg1, WriteArgs: arg0},
	BuiltinInter:  {Name: "inter", MinArgs: 2, MaxArgs: 2, Class: ClassArray, ArrayArgs: arg0 | arg1, WriteArgs: arg0},
	BuiltinUnion:  {Name: "union", MinArgs: 2, MaxArgs: 2, Class: ClassArray, ArrayArgs: arg0 | arg1, WriteArgs: arg0},
	BuiltinSeq:    {Name: "seq", MinArgs: 3, MaxArgs: 3, Class: ClassArray, ArrayArgs: arg0, WriteArgs: arg0},
	BuiltinSamp:   {Name: "samp", MinArgs: 2, MaxArgs: 2, Class: ClassArray, ArrayArgs: arg0, WriteArgs: arg0},
	BuiltinHist:   {Name: "hist", MinArgs: 1, MaxArgs: 2, Class: ClassArray, ArrayArgs: arg0, WriteArgs: arg0},
	BuiltinEdges:  {Name: "edges", MinArgs: 2, MaxArgs: 2, Class: ClassArray, ArrayArgs: arg0 | arg1, WriteArgs: arg1},
	BuiltinJoin:   {Name: "join", MinArgs: 1, MaxArgs: 2, Class: ClassArray, ArrayArgs: arg0},

	BuiltinSystime: {Name: "systime", MinArgs: 0, MaxArgs: 0, Class: ClassContext},
	BuiltinClock:   {Name: "clk", MinArgs: 0, MaxArgs: 0, Class: ClassContext},
	BuiltinTic:     {Name: "tic", MinArgs: 0, MaxArgs: 1, Class: ClassContext},
	BuiltinToc:     {Name: "toc", MinArgs: 0, MaxArgs: 1, Class: ClassContext},
	BuiltinDump:    {Name: "dump", MinArgs: 1, MaxArgs: 2, Class: ClassContext, AnyArgs: arg0},
	BuiltinSlurp:   {Name: "slurp", MinArgs: 1, MaxArgs: 2, Class: ClassContext, ArrayArgs: arg1, WriteArgs: arg1},
}

// builtinNames maps every callable name, aliases included, to its handle.
var builtinNames = func() map[string]Builtin {
	m := make(map[string]Builtin, numBuiltins+4)
	for b := BuiltinNone + 1; b < numBuiltins; b++ {
		m[builtinInfos[b].Name] = b
	}
	m["p"] = BuiltinPercentile
	m["clock"] = BuiltinClock
	m["start"] = BuiltinTic
	m["elapsed"] = BuiltinToc
	return m
}()

// LookupBuiltin returns the handle for an extended builtin name, or
// BuiltinNone.
func LookupBuiltin(name string) Builtin {
	return builtinNames[name]
}

// Info returns the table entry of b.
func (b Builtin) Info() *BuiltinInfo {
	if b <= BuiltinNone || b >= numBuiltins {
		return &BuiltinInfo{Name: "<none>"}
	}
	return &builtinInfos[b]
}

func (b Builtin) String() string {
	return b.Info().Name
}

// TakesArray reports whether argument i of a call with nargs arguments is an
// array. min(a) and max(a) reduce an array while min(x, y) compares.
func (b Builtin) TakesArray(i, nargs int) bool {
	if (b == BuiltinMin || b == BuiltinMax) && nargs == 1 {
		return i == 0
	}
	return b.Info().IsArrayArg(i)
}
