package interp

import (
	"math"
	"reflect"
	"testing"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/parser"
	"github.com/kolkov/xawk/internal/runtime"
	"github.com/kolkov/xawk/internal/semantic"
	"github.com/kolkov/xawk/internal/types"
)

func TestSubstr(t *testing.T) {
	tests := []struct {
		s             string
		start, length float64
		want          string
	}{
		{"hello", 1, math.Inf(1), "hello"},
		{"hello", 2, 3, "ell"},
		{"hello", 0, 2, "h"},
		{"hello", -1, 3, "h"},
		{"hello", 1.5, 2, "el"},
		{"hello", 6, 1, ""},
		{"hello", 3, -1, ""},
		{"héllo", 2, 2, "él"},
		{"hello", math.NaN(), 2, ""},
	}
	for _, tt := range tests {
		if got := substr(tt.s, tt.start, tt.length); got != tt.want {
			t.Errorf("substr(%q, %v, %v) = %q, want %q", tt.s, tt.start, tt.length, got, tt.want)
		}
	}
}

func TestExpandReplacement(t *testing.T) {
	tests := []struct {
		repl, matched, want string
	}{
		{"x", "m", "x"},
		{"&", "m", "m"},
		{"[&&]", "m", "[mm]"},
		{`\&`, "m", "&"},
		{`\\&`, "m", `\m`},
		{`a\b`, "m", `a\b`},
	}
	for _, tt := range tests {
		if got := expandReplacement(tt.repl, tt.matched); got != tt.want {
			t.Errorf("expandReplacement(%q, %q) = %q, want %q", tt.repl, tt.matched, got, tt.want)
		}
	}
}

func TestStatistics(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	if got := percentile(vals, 50); got != 4.5 {
		t.Errorf("percentile 50 = %v, want 4.5", got)
	}
	if got := percentile(vals, 0); got != 1 {
		t.Errorf("percentile 0 = %v, want 1", got)
	}
	if got := percentile(vals, 150); got != 8 {
		t.Errorf("percentile 150 = %v, want 8", got)
	}
	if got := iqm(vals); got != 4.5 {
		t.Errorf("iqm = %v, want 4.5", got)
	}
	if got := variance([]float64{2, 4, 4, 4, 5, 5, 7, 9}); got != 4 {
		t.Errorf("variance = %v, want 4", got)
	}
	if got := iqm([]float64{3}); got != 3 {
		t.Errorf("iqm of one value = %v, want 3", got)
	}
}

func TestBitwise(t *testing.T) {
	tests := []struct {
		b    semantic.Builtin
		x, y int64
		want int64
	}{
		{semantic.BuiltinAnd, 12, 10, 8},
		{semantic.BuiltinOr, 12, 10, 14},
		{semantic.BuiltinXor, 12, 10, 6},
		{semantic.BuiltinLshift, 1, 65, 2},
		{semantic.BuiltinRshift, -1, 63, 1},
	}
	for _, tt := range tests {
		if got := bitwise(tt.b, tt.x, tt.y); got != tt.want {
			t.Errorf("%s(%d, %d) = %d, want %d", tt.b, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestMktime(t *testing.T) {
	tests := []struct {
		spec string
		want int64
	}{
		{"1970 01 01 00 00 00", 0},
		{"2024 01 02 03 04 05", 1704164645},
		{"2024 01 01 24 00 00", 1704153600},
		{"2024 01", -1},
		{"2024 xx 01 00 00 00", -1},
	}
	for _, tt := range tests {
		if got := mktime(tt.spec); got != tt.want {
			t.Errorf("mktime(%q) = %d, want %d", tt.spec, got, tt.want)
		}
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		s     string
		width int
		fill  string
		left  bool
		want  string
	}{
		{"7", 3, "0", true, "007"},
		{"ab", 4, "-", false, "ab--"},
		{"abc", 2, " ", true, "abc"},
		{"a", 3, "", true, "  a"},
		{"é", 2, "·", false, "é·"},
	}
	for _, tt := range tests {
		if got := pad(tt.s, tt.width, tt.fill, tt.left); got != tt.want {
			t.Errorf("pad(%q, %d, %q, %v) = %q, want %q", tt.s, tt.width, tt.fill, tt.left, got, tt.want)
		}
	}
}

func TestSprintf(t *testing.T) {
	p := &Interp{convfmt: "%.6g"}
	tests := []struct {
		format string
		args   []types.Value
		want   string
	}{
		{"%d", []types.Value{types.Num(3.9)}, "3"},
		{"%i|%5d|%-5d|", []types.Value{types.Num(1), types.Num(2), types.Num(3)}, "1|    2|3    |"},
		{"%s %s", []types.Value{types.Str("a")}, "a "},
		{"%d", nil, "0"},
		{"%%", nil, "%"},
		{"%u", []types.Value{types.Num(-1)}, "18446744073709551615"},
		{"%o %X", []types.Value{types.Num(8), types.Num(255)}, "10 FF"},
		{"%e", []types.Value{types.Num(1234.5)}, "1.234500e+03"},
		{"%G", []types.Value{types.Num(0.0001)}, "0.0001"},
		{"%F", []types.Value{types.Num(1.5)}, "1.500000"},
		{"%c", []types.Value{types.Num(0x263A)}, "☺"},
		{"%d", []types.Value{types.Num(math.Inf(1))}, "inf"},
		{"%q", []types.Value{types.Num(1)}, "%q"},
		{"%5", nil, "%5"},
		{"%-*d|", []types.Value{types.Num(3), types.Num(1)}, "1  |"},
		{"%*d|", []types.Value{types.Num(-3), types.Num(1)}, "1  |"},
		{"%.3s", []types.Value{types.Str("abcdef")}, "abc"},
		{"%s", []types.Value{types.Num(0.5)}, "0.5"},
	}
	for _, tt := range tests {
		if got := p.sprintf(tt.format, tt.args); got != tt.want {
			t.Errorf("sprintf(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestKeyOrder(t *testing.T) {
	a := NewArray()
	for _, k := range []string{"b", "10", "2", "a", "-1", "1.5"} {
		a.Set(k, types.Num(1))
	}
	want := []string{"-1", "1.5", "2", "10", "a", "b"}
	if got := a.SortedKeys(); !reflect.DeepEqual(got, want) {
		t.Errorf("SortedKeys = %v, want %v", got, want)
	}

	a.meta = []float64{1}
	a.Clear()
	if a.Len() != 0 || a.Meta() != nil {
		t.Errorf("Clear left %d elements and meta %v", a.Len(), a.Meta())
	}
}

func TestOrderedKeys(t *testing.T) {
	a := NewArray()
	a.Set("x", types.Num(3))
	a.Set("y", types.Num(1))
	a.Set("z", types.Num(2))

	tests := []struct {
		order string
		want  []string
	}{
		{"@ind_str_asc", []string{"x", "y", "z"}},
		{"@ind_str_desc", []string{"z", "y", "x"}},
		{"@val_num_asc", []string{"y", "z", "x"}},
		{"@val_num_desc", []string{"x", "z", "y"}},
	}
	for _, tt := range tests {
		if got := a.orderedKeys(tt.order, "%.6g"); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("orderedKeys(%s) = %v, want %v", tt.order, got, tt.want)
		}
	}
}

func TestValueOrder(t *testing.T) {
	vals := []types.Value{types.Str("b"), types.Num(10), types.NumStr("9"), types.Str("a")}
	want := []bool{false, true, true, true}
	for i, v := range vals[1:] {
		if got := valueLess(v, vals[0], "%.6g"); got != want[i+1] {
			t.Errorf("valueLess(%v, %v) = %v, want %v", v, vals[0], got, want[i+1])
		}
	}
	if !valueLess(types.NumStr("9"), types.Num(10), "%.6g") {
		t.Error("strnum 9 should sort before 10")
	}
}

func TestHistogram(t *testing.T) {
	a := NewArray()
	for i, v := range []float64{0, 1, 2, 3, 10} {
		a.Set(string(rune('a'+i)), types.Num(v))
	}
	histogram(a, 2)

	if got := a.Meta(); !reflect.DeepEqual(got, []float64{0, 5}) {
		t.Errorf("edges = %v, want [0 5]", got)
	}
	first, _ := a.Get("1")
	second, _ := a.Get("2")
	if first.AsNum() != 4 || second.AsNum() != 1 {
		t.Errorf("counts = %v %v, want 4 1", first, second)
	}
}

func TestSequence(t *testing.T) {
	tests := []struct {
		from, to float64
		want     []float64
	}{
		{1, 3, []float64{1, 2, 3}},
		{3, 1, []float64{3, 2, 1}},
		{2, 2, []float64{2}},
		{1, 2.5, []float64{1, 2}},
	}
	for _, tt := range tests {
		vals := sequence(tt.from, tt.to)
		got := make([]float64, len(vals))
		for i, v := range vals {
			got[i] = v.AsNum()
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("sequence(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if vals := sequence(math.NaN(), 1); vals != nil {
		t.Errorf("sequence(NaN, 1) = %v, want nil", vals)
	}
}

func TestJSONPath(t *testing.T) {
	doc := `{"a": {"b": [10, 20, {"c": "x"}]}, "list": [{"n": 1}, {"n": 2}, 3], "s": "q\"uote"}`
	root, err := decodeJSON(doc)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want []string
	}{
		{".a.b[0]", []string{"10"}},
		{"a.b[2].c", []string{"x"}},
		{".a.b[-1]", []string{`{"c":"x"}`}},
		{".a.b[]", []string{"10", "20", `{"c":"x"}`}},
		{".list.n", []string{"1", "2"}},
		{`["s"]`, []string{`q"uote`}},
		{".missing", nil},
		{".a.b[9]", nil},
	}
	for _, tt := range tests {
		var got []string
		for _, v := range selectPath(root, parsePath(tt.path)) {
			got = append(got, v.text())
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("path %q = %q, want %q", tt.path, got, tt.want)
		}
	}

	for _, bad := range []string{"", "{", `{"a":1} x`, "[1,]"} {
		if _, err := decodeJSON(bad); err == nil {
			t.Errorf("decodeJSON(%q) succeeded", bad)
		}
	}
}

func TestFieldSplitting(t *testing.T) {
	cache := runtime.NewRegexCache(10)
	tests := []struct {
		fs   string
		text string
		want []string
	}{
		{" ", "  a  b\tc  ", []string{"a", "b", "c"}},
		{",", "a,,b", []string{"a", "", "b"}},
		{"", "abc", []string{"a", "b", "c"}},
		{"[0-9]", "a1b2c", []string{"a", "b", "c"}},
		{"\t", "a\t\tb", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		s, err := newFieldSplitter(tt.fs, false, cache)
		if err != nil {
			t.Fatalf("newFieldSplitter(%q): %v", tt.fs, err)
		}
		if got := s.splitText(tt.text); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("split %q by %q = %q, want %q", tt.text, tt.fs, got, tt.want)
		}
	}
}

func TestRecordFields(t *testing.T) {
	s, err := newFieldSplitter(" ", false, runtime.NewRegexCache(10))
	if err != nil {
		t.Fatal(err)
	}
	r := newRecord(s, -1, fieldsSome)
	r.SetRecord("a b c")

	if r.NF() != 3 {
		t.Fatalf("NF = %d, want 3", r.NF())
	}
	if got := r.Field(2).AsStr(""); got != "b" {
		t.Errorf("$2 = %q, want b", got)
	}
	if !r.Field(7).IsNull() {
		t.Errorf("$7 = %v, want uninitialized", r.Field(7))
	}
	if err := r.SetNF(2); err != nil {
		t.Fatal(err)
	}
	if got := r.Text(); got != "a b" {
		t.Errorf("after NF=2, $0 = %q", got)
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		source   string
		fields   bool
		maxField int
	}{
		{`{ print }`, false, 0},
		{`{ print $3 }`, true, 3},
		{`{ print $1, $NF }`, true, -1},
		{`{ i = 2; print $i }`, true, -1},
	}
	for _, tt := range tests {
		prog := parseProgram(t, tt.source)
		u := Analyze(prog)
		if u.NeedsFields != tt.fields || u.MaxField != tt.maxField {
			t.Errorf("%s: NeedsFields=%v MaxField=%d, want %v %d",
				tt.source, u.NeedsFields, u.MaxField, tt.fields, tt.maxField)
		}
	}

	u := Analyze(parseProgram(t, `/a/ { print > "out"; "cmd" | getline; x = trim($0) }`))
	if !reflect.DeepEqual(u.Regexes, []string{"a"}) {
		t.Errorf("Regexes = %v", u.Regexes)
	}
	if !reflect.DeepEqual(u.OutputTargets, []string{"out"}) {
		t.Errorf("OutputTargets = %v", u.OutputTargets)
	}
	if !reflect.DeepEqual(u.InputTargets, []string{"cmd"}) {
		t.Errorf("InputTargets = %v", u.InputTargets)
	}
	if !reflect.DeepEqual(u.Builtins, []string{"trim"}) {
		t.Errorf("Builtins = %v", u.Builtins)
	}
	if !u.Calls("rand", "trim") || u.Calls("rand", "tic") {
		t.Errorf("Calls disagrees with Builtins %v", u.Builtins)
	}
}

func TestFieldUse(t *testing.T) {
	tests := []struct {
		source string
		want   fieldUse
	}{
		{`{ print }`, fieldsNone},
		{`{ print $2 }`, fieldsSome},
		{`{ print NF }`, fieldsAll},
		{`{ print $(i+1) }`, fieldsAll},
	}
	for _, tt := range tests {
		if got := fieldUseOf(Analyze(parseProgram(t, tt.source))); got != tt.want {
			t.Errorf("%s: field use %d, want %d", tt.source, got, tt.want)
		}
	}

	s, err := newFieldSplitter(" ", false, runtime.NewRegexCache(10))
	if err != nil {
		t.Fatal(err)
	}
	for _, use := range []fieldUse{fieldsNone, fieldsSome, fieldsAll} {
		r := newRecord(s, 1, use)
		r.SetRecord("a b c")
		if use == fieldsAll && !r.complete {
			t.Errorf("use %d: record not split on arrival", use)
		}
		if got := r.Field(3).AsStr(""); got != "c" || r.NF() != 3 {
			t.Errorf("use %d: $3 = %q, NF = %d", use, got, r.NF())
		}
		r.SetRecord("x")
		if r.NF() != 1 || r.Field(1).AsStr("") != "x" {
			t.Errorf("use %d: stale fields after SetRecord", use)
		}
	}
}

// parseProgram parses and resolves source.
func parseProgram(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.ValidateProgram(prog); err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	return prog
}
