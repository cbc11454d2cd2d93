package semantic

import (
	"strings"
	"testing"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/parser"
	"github.com/kolkov/xawk/internal/token"
)

// Helper to parse and resolve
func resolveCode(t *testing.T, code string) (*ast.Program, *ResolveResult) {
	t.Helper()
	prog, err := parser.Parse(code)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	result, err := ValidateProgram(prog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return prog, result
}

// Helper to check for expected error
func expectError(t *testing.T, code string, errSubstr string) {
	t.Helper()
	prog, err := parser.Parse(code)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = ValidateProgram(prog)
	if err == nil {
		t.Errorf("expected error containing %q, got no error", errSubstr)
		return
	}
	if !strings.Contains(err.Error(), errSubstr) {
		t.Errorf("expected error containing %q, got: %v", errSubstr, err)
	}
}

// Helper to check no errors
func expectNoError(t *testing.T, code string) *ResolveResult {
	t.Helper()
	_, result := resolveCode(t, code)
	return result
}

// userGlobals returns the program's own global scalars and arrays.
func userGlobals(result *ResolveResult) (scalars, arrays []string) {
	for _, name := range result.ScalarNames {
		scalars = append(scalars, name)
	}
	for _, name := range result.ArrayNames {
		if !IsPredefinedArray(name) {
			arrays = append(arrays, name)
		}
	}
	return scalars, arrays
}

// findIdents collects every identifier called name.
func findIdents(prog *ast.Program, name string) []*ast.Ident {
	var found []*ast.Ident
	ast.Walk(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == name {
			found = append(found, id)
		}
		return true
	})
	return found
}

// findCalls collects every extended call expression.
func findCalls(prog *ast.Program) []*ast.CallExpr {
	var found []*ast.CallExpr
	ast.Walk(prog, func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok {
			found = append(found, call)
		}
		return true
	})
	return found
}

func TestResolveGlobals(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		vars   string // Expected global scalars, sorted
		arrays string // Expected global arrays, sorted
	}{
		{"simple assignment", `BEGIN { x = 1 }`, "x", ""},
		{"multiple globals", `BEGIN { x = 1; y = 2; z = 3 }`, "x y z", ""},
		{"array access", `BEGIN { a[1] = "one"; a[2] = "two" }`, "", "a"},
		{"mixed scalar and array", `BEGIN { x = 1; a[1] = 2; y = 3 }`, "x y", "a"},
		{"global in rule", `{ x = $1 }`, "x", ""},
		{"auto-create on read", `BEGIN { print x }`, "x", ""},
		{"global in BEGINFILE", `BEGINFILE { n++ } ENDFILE { print n }`, "n", ""},
		{"array from builtin argument", `END { print sum(data), join(names, ",") }`, "", "data names"},
		{"min over array", `{ v[NR] = $1 } END { print min(v) }`, "", "v"},
		{"min of scalars", `{ print min($1, lo) }`, "lo", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expectNoError(t, tt.code)
			scalars, arrays := userGlobals(result)
			if got := strings.Join(scalars, " "); got != tt.vars {
				t.Errorf("scalars = %q, want %q", got, tt.vars)
			}
			if got := strings.Join(arrays, " "); got != tt.arrays {
				t.Errorf("arrays = %q, want %q", got, tt.arrays)
			}
		})
	}
}

func TestPredefinedArrays(t *testing.T) {
	result := expectNoError(t, `BEGIN { print ARGV[0], ENVIRON["HOME"], PROCINFO["sorted_in"], HDR[1] }`)
	for _, name := range PredefinedArrays {
		if _, ok := result.GlobalArray(name); !ok {
			t.Errorf("predefined array %s has no global slot", name)
		}
	}
}

func TestResolveSpecials(t *testing.T) {
	prog, _ := resolveCode(t, `{ print NR, NF, FS; $NF = FILENAME }`)

	for name, id := range map[string]int{"NR": V_NR, "NF": V_NF, "FS": V_FS, "FILENAME": V_FILENAME} {
		idents := findIdents(prog, name)
		if len(idents) == 0 {
			t.Fatalf("no reference to %s", name)
		}
		for _, ident := range idents {
			if ident.Scope != ast.ScopeSpecial || ident.Index != id {
				t.Errorf("%s resolved to scope %d index %d, want special %d", name, ident.Scope, ident.Index, id)
			}
		}
	}
}

func TestResolveLocals(t *testing.T) {
	prog, result := resolveCode(t, `
		function f(a, b, tmp) { tmp = a; b[tmp] = 1; return tmp }
		BEGIN { f(1, arr) }
	`)

	funcInfo, ok := result.GetFunction("f")
	if !ok {
		t.Fatal("function f not found")
	}

	want := map[string]struct {
		slot  int
		array bool
	}{
		"a":   {0, false},
		"b":   {1, true},
		"tmp": {2, false},
	}
	for name, w := range want {
		sym, ok := funcInfo.Symbols.LookupLocal(name)
		if !ok {
			t.Fatalf("param %s not found", name)
		}
		if sym.Index != w.slot {
			t.Errorf("param %s slot = %d, want %d", name, sym.Index, w.slot)
		}
		for _, ident := range findIdents(prog, name) {
			if ident.Scope != ast.ScopeLocal || ident.Index != w.slot || ident.Array != w.array {
				t.Errorf("%s annotated scope=%d index=%d array=%v", name, ident.Scope, ident.Index, ident.Array)
			}
		}
	}

	types := funcInfo.ParamTypes()
	if types[0] != TypeScalar || types[1] != TypeArray || types[2] != TypeScalar {
		t.Errorf("param types = %v", types)
	}
}

func TestLocalShadowsGlobal(t *testing.T) {
	prog, _ := resolveCode(t, `
		function f(x) { x = 2 }
		BEGIN { x = 1; f(x) }
	`)

	var locals, globals int
	for _, ident := range findIdents(prog, "x") {
		switch ident.Scope {
		case ast.ScopeLocal:
			locals++
		case ast.ScopeGlobal:
			globals++
		}
	}
	if locals != 1 || globals != 2 {
		t.Errorf("got %d local and %d global references, want 1 and 2", locals, globals)
	}
}

func TestResolveFunctions(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		funcs []string
	}{
		{"single function", `function f() { }`, []string{"f"}},
		{"multiple functions", `function f() { } function g() { } function h() { }`, []string{"f", "g", "h"}},
		{"recursive function", `function fac(n) { return n <= 1 ? 1 : n * fac(n-1) }`, []string{"fac"}},
		{"mutual recursion", `function even(n) { return n == 0 ? 1 : odd(n-1) }
			function odd(n) { return n == 0 ? 0 : even(n-1) }`, []string{"even", "odd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expectNoError(t, tt.code)
			if len(result.FuncList) != len(tt.funcs) {
				t.Fatalf("got %d functions, want %d", len(result.FuncList), len(tt.funcs))
			}
			for i, name := range tt.funcs {
				fi := result.FuncList[i]
				if fi.Name != name || fi.Index != i {
					t.Errorf("function %d = %s (index %d), want %s", i, fi.Name, fi.Index, name)
				}
			}
		})
	}
}

func TestResolveCalls(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		call    string
		fn      int
		builtin Builtin
	}{
		{"user function", `function f(x) { return x } BEGIN { f(1) }`, "f", 0, BuiltinNone},
		{"extended builtin", `BEGIN { print trim(" a ") }`, "trim", -1, BuiltinTrim},
		{"alias", `{ v[NR] = $1 } END { print p(v, 90) }`, "p", -1, BuiltinPercentile},
		{"user function shadows builtin", `function trim(s) { return s } BEGIN { print trim(" a ") }`, "trim", 0, BuiltinNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, _ := resolveCode(t, tt.code)
			for _, call := range findCalls(prog) {
				if call.Name != tt.call {
					continue
				}
				if call.Func != tt.fn || Builtin(call.Builtin) != tt.builtin {
					t.Errorf("call %s bound to func %d builtin %v, want %d %v",
						call.Name, call.Func, Builtin(call.Builtin), tt.fn, tt.builtin)
				}
				return
			}
			t.Fatalf("call %s not found", tt.call)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		err  string
	}{
		{"undefined function", `BEGIN { undefined_func() }`, `undefined function "undefined_func"`},
		{"too many arguments", `function f(a) { } BEGIN { f(1, 2) }`, `too many arguments in call to "f"`},
		{"builtin missing argument", `BEGIN { print trim() }`, `not enough arguments in call to "trim"`},
		{"builtin extra argument", `BEGIN { print uuid(1) }`, `too many arguments in call to "uuid"`},
		{"scalar then array", `BEGIN { x = 1; x[1] = 2 }`, `cannot use "x" as both array and scalar`},
		{"array then scalar", `BEGIN { a[1] = 1; print a }`, `cannot use "a" as both array and scalar`},
		{"special as array", `BEGIN { NR[1] = 1 }`, `cannot use "NR" as both array and scalar`},
		{"predefined array as scalar", `BEGIN { ARGV = 1 }`, `cannot use "ARGV" as both array and scalar`},
		{"param scalar then array", `function f(p) { p = 1; p[1] = 1 }`, `cannot use "p" as both array and scalar`},
		{"function as variable", `function f() { } BEGIN { f = 1 }`, `variable "f" shadows function name`},
		{"assign ENVIRON", `BEGIN { ENVIRON["HOME"] = "/" }`, "cannot modify read-only array ENVIRON"},
		{"delete ENVIRON", `BEGIN { delete ENVIRON }`, "cannot modify read-only array ENVIRON"},
		{"split into ENVIRON", `BEGIN { split("a b", ENVIRON) }`, "cannot modify read-only array ENVIRON"},
		{"sort ENVIRON", `BEGIN { asort(ENVIRON) }`, "cannot modify read-only array ENVIRON"},
		{"increment ENVIRON", `BEGIN { ENVIRON["n"]++ }`, "cannot modify read-only array ENVIRON"},
		{"list outside print", `BEGIN { x = (1, 2) }`, "parenthesized list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, tt.code, tt.err)
		})
	}
}

func TestReadingEnvironIsAllowed(t *testing.T) {
	expectNoError(t, `BEGIN { for (k in ENVIRON) n++; print join(ENVIRON, ","), ("PATH" in ENVIRON) }`)
}

func TestLocalNamedEnvironIsWritable(t *testing.T) {
	expectNoError(t, `function f(ENVIRON) { ENVIRON["x"] = 1 } BEGIN { f(a) }`)
}

func TestTypeInference(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		varName  string
		wantType VarType
	}{
		{"scalar from assignment", `BEGIN { x = 1 }`, "x", TypeScalar},
		{"array from index", `BEGIN { a[1] = 1 }`, "a", TypeArray},
		{"array from for-in", `BEGIN { for (k in a) print k }`, "a", TypeArray},
		{"for-in key is scalar", `BEGIN { for (k in a) print k }`, "k", TypeScalar},
		{"array from in-expr", `BEGIN { if (1 in a) print "yes" }`, "a", TypeArray},
		{"array from delete", `BEGIN { delete a[1] }`, "a", TypeArray},
		{"array from split", `BEGIN { split("a:b:c", arr, ":") }`, "arr", TypeArray},
		{"array from match", `BEGIN { match("abc", /b/, m) }`, "m", TypeArray},
		{"array from seq", `BEGIN { seq(r, 1, 5) }`, "r", TypeArray},
		{"length of array", `BEGIN { a[1]; print length(a) }`, "a", TypeArray},
		{"length of scalar", `BEGIN { s = "x"; print length(s) }`, "s", TypeScalar},
		{"typeof array", `BEGIN { a[1]; print typeof(a) }`, "a", TypeArray},
		{"untyped defaults to scalar", `function f(p) { } BEGIN { f(u) }`, "u", TypeScalar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expectNoError(t, tt.code)
			sym, found := result.Globals.LookupLocal(tt.varName)
			if !found {
				t.Fatalf("variable %q not found", tt.varName)
			}
			if sym.Type != tt.wantType {
				t.Errorf("type of %q = %v, want %v", tt.varName, sym.Type, tt.wantType)
			}
		})
	}
}

func TestFunctionArgumentTypeInference(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		varName string
	}{
		{
			name: "param typed by body",
			code: `function fill(arr) { arr[1] = 1 }
				BEGIN { fill(x) }`,
			varName: "x",
		},
		{
			name: "through a call chain",
			code: `function outer(p) { inner(p) }
				function inner(q) { q["k"] = 1 }
				BEGIN { outer(z) }`,
			varName: "z",
		},
		{
			name: "call before definition",
			code: `BEGIN { count(w) }
				function count(a,   k, n) { for (k in a) n++; return n }`,
			varName: "w",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expectNoError(t, tt.code)
			sym, found := result.Globals.LookupLocal(tt.varName)
			if !found {
				t.Fatalf("variable %q not found", tt.varName)
			}
			if sym.Type != TypeArray {
				t.Errorf("expected %q to be array, got %v", tt.varName, sym.Type)
			}
		})
	}
}

func TestSymbolIndices(t *testing.T) {
	prog, result := resolveCode(t, `
		BEGIN {
			a = 1
			b = 2
			c[1] = 3
			d = 4
		}
	`)

	for i, name := range result.ScalarNames {
		slot, ok := result.GlobalScalar(name)
		if !ok || slot != i {
			t.Errorf("scalar %s: slot %d, ok %v, want %d", name, slot, ok, i)
		}
	}
	for i, name := range result.ArrayNames {
		slot, ok := result.GlobalArray(name)
		if !ok || slot != i {
			t.Errorf("array %s: slot %d, ok %v, want %d", name, slot, ok, i)
		}
	}

	for _, name := range []string{"a", "b", "d"} {
		want, _ := result.GlobalScalar(name)
		for _, ident := range findIdents(prog, name) {
			if ident.Scope != ast.ScopeGlobal || ident.Array || ident.Index != want {
				t.Errorf("%s annotated scope=%d index=%d array=%v, want global scalar %d",
					name, ident.Scope, ident.Index, ident.Array, want)
			}
		}
	}
	want, _ := result.GlobalArray("c")
	for _, ident := range findIdents(prog, "c") {
		if ident.Scope != ast.ScopeGlobal || !ident.Array || ident.Index != want {
			t.Errorf("c annotated scope=%d index=%d array=%v, want global array %d",
				ident.Scope, ident.Index, ident.Array, want)
		}
	}
}

func TestWarnings(t *testing.T) {
	result := expectNoError(t, `
		function used(a, b) { return a }
		function unused() { }
		BEGIN { used(1) }
	`)

	var msgs []string
	for _, w := range result.Warnings {
		msgs = append(msgs, w.Message)
	}
	all := strings.Join(msgs, "\n")
	for _, want := range []string{`function "unused" is declared but never called`, `parameter "b" is never used`} {
		if !strings.Contains(all, want) {
			t.Errorf("warnings %q missing %q", all, want)
		}
	}
	if strings.Contains(all, `function "used"`) {
		t.Errorf("unexpected warning for called function: %q", all)
	}
}

func TestLookupBuiltin(t *testing.T) {
	tests := []struct {
		name string
		want Builtin
	}{
		{"trim", BuiltinTrim},
		{"gensub", BuiltinGensub},
		{"percentile", BuiltinPercentile},
		{"p", BuiltinPercentile},
		{"clk", BuiltinClock},
		{"clock", BuiltinClock},
		{"tic", BuiltinTic},
		{"start", BuiltinTic},
		{"toc", BuiltinToc},
		{"elapsed", BuiltinToc},
		{"length", BuiltinNone},
		{"myfunction", BuiltinNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LookupBuiltin(tt.name); got != tt.want {
				t.Errorf("LookupBuiltin(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestBuiltinTable(t *testing.T) {
	for b := BuiltinNone + 1; b < numBuiltins; b++ {
		info := b.Info()
		if info.Name == "" {
			t.Errorf("builtin %d has no table entry", b)
			continue
		}
		if info.MinArgs > info.MaxArgs {
			t.Errorf("%s: min args %d > max args %d", info.Name, info.MinArgs, info.MaxArgs)
		}
		if info.WriteArgs&^info.ArrayArgs != 0 {
			t.Errorf("%s: writes a non-array argument", info.Name)
		}
		if LookupBuiltin(info.Name) != b {
			t.Errorf("%s does not map back to its handle", info.Name)
		}
	}

	if !BuiltinMin.TakesArray(0, 1) || BuiltinMin.TakesArray(0, 2) {
		t.Error("min takes an array only when called with one argument")
	}
	if !BuiltinEdges.TakesArray(1, 2) || BuiltinJoin.TakesArray(1, 2) {
		t.Error("array argument positions are wrong")
	}
}

func TestIsSpecialVar(t *testing.T) {
	specials := []string{
		"NR", "NF", "FS", "RS", "OFS", "ORS", "FILENAME", "FNR",
		"RSTART", "RLENGTH", "SUBSEP", "CONVFMT", "OFMT", "ARGC",
	}

	for _, name := range specials {
		if !IsSpecialVar(name) {
			t.Errorf("expected %s to be special variable", name)
		}
		if SpecialVarName(SpecialVarIndex(name)) != name {
			t.Errorf("special %s does not round trip through its id", name)
		}
	}

	nonSpecials := []string{"x", "y", "foo", "NRX", "ANF", "ARGV", "ENVIRON"}
	for _, name := range nonSpecials {
		if IsSpecialVar(name) {
			t.Errorf("expected %s to NOT be special variable", name)
		}
	}
}

func TestSpecialVarIndex(t *testing.T) {
	for name := range specialVars {
		idx := SpecialVarIndex(name)
		if idx <= V_ILLEGAL || idx >= NumSpecials {
			t.Errorf("special %s has out of range index %d", name, idx)
		}
	}

	if idx := SpecialVarIndex("x"); idx != -1 {
		t.Errorf("non-special 'x' should return -1, got %d", idx)
	}
}

// Benchmark symbol table operations
func BenchmarkSymbolTableLookup(b *testing.B) {
	st := NewSymbolTable(nil, "global")
	for i := 0; i < 100; i++ {
		st.Define("var"+string(rune('a'+i%26))+string(rune('0'+i/26)), SymbolGlobal, TypeScalar, token.Position{})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st.Lookup("varz3")
	}
}

func BenchmarkResolveLargeProgram(b *testing.B) {
	code := `
		function fib(n) { return n <= 1 ? n : fib(n-1) + fib(n-2) }
		function fac(n) { return n <= 1 ? 1 : n * fac(n-1) }
		BEGIN {
			for (i = 1; i <= 20; i++) {
				f = fib(i)
				g = fac(i)
				print i, f, g, max(f, g), min(f, g)
			}
		}
		{
			split($0, fields, ":")
			for (k in fields) {
				gsub(/[^a-z]/, "", fields[k])
				if (length(fields[k]) > 0) {
					words[fields[k]]++
				}
			}
		}
		END {
			for (w in words) {
				printf "%s: %d\n", w, words[w]
			}
		}
	`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		prog, _ := parser.Parse(code)
		Resolve(prog)
	}
}
