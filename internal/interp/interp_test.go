package interp

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kolkov/xawk/internal/parser"
	"github.com/kolkov/xawk/internal/semantic"
)

// runProgram parses, resolves and runs source over input.
func runProgram(t *testing.T, source, input string, config Config) (string, int, error) {
	t.Helper()

	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := semantic.ValidateProgram(prog)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	var stdout, stderr bytes.Buffer
	config.Stdin = strings.NewReader(input)
	config.Stdout = &stdout
	config.Stderr = &stderr
	if config.Environ == nil {
		config.Environ = []string{}
	}

	p, err := New(prog, res, config)
	if err != nil {
		t.Fatalf("setup error: %v", err)
	}
	status, err := p.Run()
	return stdout.String(), status, err
}

// runAWK runs source and fails the test on a runtime error.
func runAWK(t *testing.T, source, input string) string {
	t.Helper()
	out, _, err := runProgram(t, source, input, Config{})
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return out
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"fields", `{ print $2, NF }`, "a b c\n", "b 3\n"},
		{"default action", `/b/`, "a\nb\nc\n", "b\n"},
		{"field assignment rebuilds", `{ $2 = "X"; print }`, "a b c\n", "a X c\n"},
		{"NF shrink", `{ NF = 2; print }`, "a b c\n", "a b\n"},
		{"field beyond NF", `{ $5 = "e"; print; print NF }`, "a b\n", "a b   e\n5\n"},
		{"negative field", `{ print $-1 }`, "a b c\n", "c\n"},
		{"OFS rebuild", `BEGIN { OFS = "-" } { $1 = $1; print }`, "a b c\n", "a-b-c\n"},
		{"FS single char", `BEGIN { FS = "," } { print $2 }`, "a,b,c\n", "b\n"},
		{"FS regex", `BEGIN { FS = "[0-9]+" } { print $2 }`, "a12b345c\n", "b\n"},
		{"strnum compare", `{ print ($1 < $2) }`, "10 9\n", "0\n"},
		{"string compare", `BEGIN { print ("10" < "9") }`, "", "1\n"},
		{"uninitialized", `BEGIN { print x + 0, length(x), x == "" }`, "", "0 0 1\n"},
		{"concatenation", `BEGIN { x = 1; y = 2; print x y }`, "", "12\n"},
		{"number output", `BEGIN { print 1/3, 100000000, 0.1 + 0.2 }`, "", "0.333333 100000000 0.3\n"},
		{"division by zero", `BEGIN { print 1/0, -1/0 }`, "", "inf -inf\n"},
		{"CONVFMT", `BEGIN { CONVFMT = "%.2g"; x = 3.14159; y = x ""; print y }`, "", "3.1\n"},
		{"range", `/b/,/c/`, "a\nb\nx\nc\nd\n", "b\nx\nc\n"},
		{"range same record", `/b/,/b/ { print "r", $0 }`, "a\nb\nc\n", "r b\n"},
		{"NR FNR", `END { print NR, FNR }`, "a\nb\nc\n", "3 3\n"},
		{"END keeps last record", `END { print $0 }`, "a\nb\n", "b\n"},
		{"paragraph mode", `BEGIN { RS = "" } { print NR ": " $1 }`, "a b\nc\n\n\nd\n", "1: a\n2: d\n"},
		{"while", `BEGIN { while (i < 3) i++; print i }`, "", "3\n"},
		{"do while", `BEGIN { do { i++ } while (i < 0); print i }`, "", "1\n"},
		{"for break continue", `BEGIN { for (i = 0; i < 10; i++) { if (i == 2) continue; if (i == 4) break; s = s i }; print s }`, "", "013\n"},
		{"next", `NR == 1 { next } { print }`, "a\nb\n", "b\n"},
		{"delete", `BEGIN { a[1]; a[2]; delete a[1]; print length(a); delete a; print length(a) }`, "", "1\n0\n"},
		{"in", `BEGIN { a["x"]; print ("x" in a), ("y" in a), length(a) }`, "", "1 0 1\n"},
		{"multi subscript", `BEGIN { a[1, 2] = 3; for (k in a) { split(k, parts, SUBSEP); print parts[1], parts[2] } }`, "", "1 2\n"},
		{"sorted for in", `BEGIN { a[2]; a[10]; a[1]; PROCINFO["sorted_in"] = "@ind_num_asc"; for (k in a) s = s k " "; print s }`, "", "1 2 10 \n"},
		{"ternary", `BEGIN { print 1 ? "y" : "n", 0 ? "y" : "n" }`, "", "y n\n"},
		{"increment", `BEGIN { x = 5; print x++, x, ++x, x-- }`, "", "5 6 7 7\n"},
		{"match operator", `$0 ~ /^a/ { print "A" } $0 !~ "b" { print "notb" }`, "ab\nc\n", "A\nnotb\n"},
		{"printf", `BEGIN { printf "%5.2f|%-3s|%d|%x|%c%c\n", 3.14159, "a", "42x", 255, 65, "hi" }`, "", " 3.14|a  |42|ff|Ah\n"},
		{"printf star", `BEGIN { printf "%*d|%.*f\n", 4, 7, 1, 2.25 }`, "", "   7|2.2\n"},
		{"substr", `BEGIN { print substr("hello", 2, 3), substr("hello", 0), substr("hello", 4, 100) }`, "", "ell hello lo\n"},
		{"index length", `BEGIN { print index("hello", "ll"), length("héllo") }`, "", "3 5\n"},
		{"split", `BEGIN { n = split("a:b:c", parts, ":"); print n, parts[1], parts[3] }`, "", "3 a c\n"},
		{"split regex", `BEGIN { n = split("a1b22c", parts, /[0-9]+/); print n, parts[2] }`, "", "3 b\n"},
		{"gsub record", `{ n = gsub(/o/, "0"); print n, $0 }`, "foo boo\n", "4 f00 b00\n"},
		{"sub ampersand", `BEGIN { s = "abc"; sub(/b/, "[&]", s); print s }`, "", "a[b]c\n"},
		{"sub escaped ampersand", `BEGIN { s = "abc"; sub(/b/, "\\&", s); print s }`, "", "a&c\n"},
		{"match", `BEGIN { print match("foobar", /ob/), RSTART, RLENGTH }`, "", "3 3 2\n"},
		{"no match", `BEGIN { print match("foo", /z/), RSTART, RLENGTH }`, "", "0 0 -1\n"},
		{"case", `BEGIN { print toupper("abc"), tolower("ÀBC") }`, "", "ABC àbc\n"},
		{"math", `BEGIN { print int(3.9), int(-3.9), sqrt(16), exp(0), 2 ^ 10 }`, "", "3 -3 4 1 1024\n"},
		{"srand returns previous seed", `BEGIN { print srand(5), srand(7) }`, "", "0 5\n"},
		{"getline var", `BEGIN { while ((getline line) > 0) n++; print n, NR }`, "a\nb\n", "2 2\n"},
		{"getline record", `NR == 1 { getline; print "got", $0 }`, "a\nb\nc\n", "got b\n"},
		{"command getline", `BEGIN { "echo hi" | getline x; print x }`, "", "hi\n"},
		{"user function", `function f(n) { return n <= 1 ? 1 : n * f(n - 1) } BEGIN { print f(5) }`, "", "120\n"},
		{"array parameter", `function fill(a) { a["x"] = 1 } BEGIN { fill(arr); print length(arr) }`, "", "1\n"},
		{"locals are fresh", `function f(x,   tmp) { tmp = tmp + x; return tmp } BEGIN { print f(1), f(2) }`, "", "1 2\n"},
		{"every", `@every 2 { print }`, "1\n2\n3\n4\n5\n", "1\n3\n5\n"},
		{"every with pattern", `@every 2 /x/ { print }`, "x1\ny\nx2\nx3\n", "x1\nx3\n"},
		{"last", `@last 2 { print NR, $0 } END { print "end", NR, $0 }`, "a\nb\nc\nd\n", "3 c\n4 d\nend 4 d\n"},
		{"BEGINFILE ENDFILE stdin", `BEGINFILE { print "begin" } ENDFILE { print "end", FNR }`, "a\nb\n", "begin\nend 2\n"},
		{"exit runs END", `{ exit 3 } END { print "end", NR }`, "a\nb\n", "end 1\n"},
		{"exit in END stops", `END { print "a"; exit; print "b" }`, "", "a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runAWK(t, tt.source, tt.input)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtendedBuiltins(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"trim", `BEGIN { print "[" trim("  x  ") "][" ltrim("  x ") "][" rtrim(" x  ") "]" }`, "", "[x][x ][ x]\n"},
		{"affixes", `BEGIN { print startswith("hello", "he"), endswith("hello", "lo"), startswith("a", "b") }`, "", "1 1 0\n"},
		{"repeat reverse", `BEGIN { print repeat("ab", 3), reverse("héllo") }`, "", "ababab olléh\n"},
		{"repeat empty", `BEGIN { print length(repeat("", 1e18)) "|" repeat("x", -1) "|" }`, "", "0||\n"},
		{"chr ord hex", `BEGIN { print chr(65), ord("A"), hex(255) }`, "", "A 65 0xff\n"},
		{"pad", `BEGIN { print lpad("7", 3, "0"), rpad("ab", 4, ".") "|", lpad("long", 2) }`, "", "007 ab..| long\n"},
		{"rounding", `BEGIN { print abs(-2), ceil(1.2), floor(-1.2), round(2.5), log2(8), log10(1000) }`, "", "2 2 -2 3 3 3\n"},
		{"scalar min max", `BEGIN { print min(3, 1), max(3, 1) }`, "", "1 3\n"},
		{"bitwise", `BEGIN { print and(12, 10), or(12, 10), xor(12, 10), lshift(1, 4), rshift(16, 2) }`, "", "8 14 6 16 4\n"},
		{"gensub", `BEGIN { print gensub(/o/, "0", "g", "foo"), gensub(/o/, "0", 2, "foo"), gensub(/o/, "[&]", 1, "foo") }`, "", "f00 fo0 f[o]o\n"},
		{"gensub keeps record", `{ s = gensub(/a/, "b", "g"); print s, $0 }`, "aa\n", "bb aa\n"},
		{"typeof", `BEGIN { a[1]; x = 1; s = "s"; print typeof(a), typeof(x), typeof(s), typeof(y), typeof(a[2]) }`, "", "array number string uninitialized uninitialized\n"},
		{"typeof strnum", `{ print typeof($1), typeof($2) }`, "12 ab\n", "number string\n"},
		{"time round trip", `BEGIN { t = mktime("2024 01 02 03 04 05"); print t, strftime("%Y-%m-%d %H:%M:%S", t) }`, "", "1704164645 2024-01-02 03:04:05\n"},
		{"mktime short", `BEGIN { print mktime("2024 01") }`, "", "-1\n"},
		{"parsedate", `BEGIN { print parsedate("2024-01-02 03:04:05") }`, "", "1704164645\n"},
		{"clock and timers", `BEGIN { tic("t"); print (clk() >= 0), (clock() >= 0), (toc("t") >= 0), (toc("none") >= 0) }`, "", "1 1 1 1\n"},
		{"uuid", `BEGIN { u = uuid(); print length(u), substr(u, 9, 1) }`, "", "36 -\n"},

		{"stats", `{ a[NR] = $1 } END { print sum(a), mean(a), median(a), min(a), max(a) }`, "1\n2\n3\n4\n", "10 2.5 2.5 1 4\n"},
		{"spread", `{ a[NR] = $1 } END { print variance(a), stddev(a) }`, "2\n4\n4\n4\n5\n5\n7\n9\n", "4 2\n"},
		{"percentiles", `{ a[NR] = $1 } END { print percentile(a, 25), p(a, 100), quantile(a, 0.5) }`, "1\n2\n3\n4\n5\n", "2 5 3\n"},
		{"empty stats", `BEGIN { print sum(a), mean(a), median(a) }`, "", "0 0 0\n"},

		{"keys vals", `BEGIN { a["b"] = 3; a[2] = 2; a[1] = 1; print keys(a); print vals(a) }`, "", "1\n2\nb\n1\n2\n3\n"},
		{"join", `BEGIN { a[1] = "x"; a[2] = "y"; print join(a), join(a, ",") }`, "", "x y x,y\n"},
		{"asort", `BEGIN { a["x"] = "c"; a["y"] = "a"; a["z"] = 10; a["w"] = 9; n = asort(a); print n, join(a, ",") }`, "", "4 9,10,a,c\n"},
		{"asorti", `BEGIN { a["b"]; a["a"]; n = asorti(a, d); print n, d[1], d[2], length(a) }`, "", "2 a b 2\n"},
		{"uniq", `BEGIN { a[1] = "x"; a[2] = "y"; a[3] = "x"; print uniq(a), join(a, ",") }`, "", "2 x,y\n"},
		{"inv", `BEGIN { a["k"] = "v"; print inv(a), a["v"] }`, "", "1 k\n"},
		{"tidy", `BEGIN { a[1] = "x"; a[2] = ""; a[3] = "z"; print tidy(a), join(a, ",") }`, "", "2 x,z\n"},
		{"shuf keeps values", `BEGIN { for (i = 1; i <= 5; i++) a[i] = i; print shuf(a), sum(a) }`, "", "5 15\n"},
		{"diff", `BEGIN { a[1]; a[2]; a[3]; b[2]; print diff(a, b), keys(a) }`, "", "2 1\n3\n"},
		{"inter", `BEGIN { a[1]; a[2]; a[3]; b[2]; b[9]; print inter(a, b), keys(a) }`, "", "1 2\n"},
		{"union", `BEGIN { a[1]; b[2]; print union(a, b), keys(a) }`, "", "2 1\n2\n"},
		{"seq", `BEGIN { print seq(a, 3, 1), join(a, ","); print seq(b, 1, 4), join(b, ",") }`, "", "3 3,2,1\n4 1,2,3,4\n"},
		{"samp", `BEGIN { for (i = 1; i <= 10; i++) a[i] = i; print samp(a, 3), length(a) }`, "", "3 3\n"},
		{"hist edges", `BEGIN { for (i = 0; i < 10; i++) v[i] = i; n = edges(hist(v, 2), e); print n, e[1], e[2], v[1], v[2] }`, "", "2 0 4.5 5 5\n"},
		{"array named by string", `BEGIN { a[1] = 4; a[2] = 6; name = "a"; print sum(name) }`, "", "10\n"},

		{"jpath scalar", `{ print jpath($0, ".a.b") }`, `{"a":{"b":7}}` + "\n", "7\n"},
		{"jpath index", `{ print jpath($0, ".a[1]"), jpath($0, "a[-1]") }`, `{"a":[1,2,3]}` + "\n", "2 3\n"},
		{"jpath projection", `{ print jpath($0, ".items.name") }`, `{"items":[{"name":"x"},{"name":"y"}]}` + "\n", "x\ny\n"},
		{"jpath container", `{ print jpath($0, ".a") }`, `{"a":{"z":1,"b":[true,null]}}` + "\n", `{"z":1,"b":[true,null]}` + "\n"},
		{"jpath missing", `{ print "[" jpath($0, ".nope") "]" }`, `{"a":1}` + "\n", "[]\n"},
		{"jpath invalid", `{ print "[" jpath($0, ".a") "]" }`, "not json\n", "[]\n"},
		{"jpath array", `{ n = jpath($0, ".items", it); print n, it[2] }`, `{"items":[1,2,3]}` + "\n", "3 2\n"},
		{"jpath object", `{ n = jpath($0, ".", o); print n, o["x"], o["y"] }`, `{"x":"a","y":false}` + "\n", "2 a 0\n"},
		{"jpath scalar into array", `{ n = jpath($0, ".x", o); print n, o[0] }`, `{"x":1.50}` + "\n", "1 1.5\n"},

		{"clock", `BEGIN { tic("t"); print (toc("t") >= 0), (clk() >= 0), (systime() > 0) }`, "", "1 1 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runAWK(t, tt.source, tt.input)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
		status int
	}{
		{"exit code", `BEGIN { exit 3 } END { print "end" }`, "end\n", 3},
		{"first code kept", `BEGIN { exit 3 } END { exit }`, "", 3},
		{"later code ignored", `BEGIN { exit 3 } END { exit 4 }`, "", 3},
		{"no exit", `BEGIN { print "x" }`, "x\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, status, err := runProgram(t, tt.source, "", Config{})
			if err != nil {
				t.Fatalf("run error: %v", err)
			}
			if out != tt.want || status != tt.status {
				t.Errorf("got %q status %d, want %q status %d", out, status, tt.want, tt.status)
			}
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		check  func(error) bool
	}{
		{
			"recursion limit",
			`function r(n) { return r(n + 1) } BEGIN { r(0) }`,
			func(err error) bool {
				var re *RecursionError
				return errors.As(err, &re) && re.Depth == MaxCallDepth && re.Name == "r"
			},
		},
		{
			"unknown array name",
			`BEGIN { print sum("nosuch") }`,
			func(err error) bool {
				var te *TypeError
				return errors.As(err, &te)
			},
		},
		{
			"repeat too long",
			`BEGIN { print length(repeat("ab", 1e18)) }`,
			func(err error) bool {
				var re *RuntimeError
				return errors.As(err, &re)
			},
		},
		{
			"pad too wide",
			`BEGIN { print lpad("x", 1e12) }`,
			func(err error) bool {
				var re *RuntimeError
				return errors.As(err, &re)
			},
		},
		{
			"invalid dynamic regex",
			`BEGIN { r = "("; print "x" ~ r }`,
			func(err error) bool {
				var re *RuntimeError
				return errors.As(err, &re)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, status, err := runProgram(t, tt.source, "", Config{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error %T: %v", err, err)
			}
			if status != 2 {
				t.Errorf("status = %d, want 2", status)
			}
		})
	}
}

func TestInputFiles(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "one")
	two := filepath.Join(dir, "two")
	if err := os.WriteFile(one, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(two, []byte("c\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("files and assignments", func(t *testing.T) {
		source := `BEGINFILE { print "begin", FILENAME } { print x, FNR, NR, $0 } ENDFILE { print "end", FNR }`
		out, _, err := runProgram(t, source, "", Config{Args: []string{one, "x=1", two}})
		if err != nil {
			t.Fatal(err)
		}
		want := "begin " + one + "\n" +
			" 1 1 a\n 2 2 b\n" +
			"end 2\n" +
			"begin " + two + "\n" +
			"1 1 3 c\n" +
			"end 1\n"
		if out != want {
			t.Errorf("got %q, want %q", out, want)
		}
	})

	t.Run("nextfile", func(t *testing.T) {
		out, _, err := runProgram(t, `{ print $0; nextfile }`, "", Config{Args: []string{one, two}})
		if err != nil {
			t.Fatal(err)
		}
		if out != "a\nc\n" {
			t.Errorf("got %q", out)
		}
	})

	t.Run("nextfile in BEGINFILE", func(t *testing.T) {
		source := `BEGINFILE { if (FILENAME ~ /one$/) nextfile } { print } ENDFILE { print "end" }`
		out, _, err := runProgram(t, source, "", Config{Args: []string{one, two}})
		if err != nil {
			t.Fatal(err)
		}
		if out != "c\nend\n" {
			t.Errorf("got %q", out)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		out, status, err := runProgram(t, `{ print }`, "", Config{Args: []string{filepath.Join(dir, "nope"), two}})
		if err != nil {
			t.Fatal(err)
		}
		if out != "c\n" || status != 2 {
			t.Errorf("got %q status %d", out, status)
		}
	})

	t.Run("stdin operand", func(t *testing.T) {
		out, _, err := runProgram(t, `{ print FILENAME, $0 }`, "s\n", Config{Args: []string{"-"}})
		if err != nil {
			t.Fatal(err)
		}
		if out != "- s\n" {
			t.Errorf("got %q", out)
		}
	})

	t.Run("getline from file counts records", func(t *testing.T) {
		source := `BEGIN { getline line < F; print NR, FNR, line; getline < F; print NR, FNR, $0 }`
		out, _, err := runProgram(t, source, "", Config{Vars: []Assign{{Name: "F", Value: one}}})
		if err != nil {
			t.Fatal(err)
		}
		if out != "1 0 a\n2 0 b\n" {
			t.Errorf("got %q", out)
		}
	})

	t.Run("getline from file", func(t *testing.T) {
		source := `BEGIN { while ((getline line < F) > 0) n++; print n, NR; print (getline x < "/no/such/file") }`
		out, _, err := runProgram(t, source, "", Config{Vars: []Assign{{Name: "F", Value: one}}})
		if err != nil {
			t.Fatal(err)
		}
		if out != "2 2\n-1\n" {
			t.Errorf("got %q", out)
		}
	})
}

func TestOutputRedirection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out")
	source := `BEGIN {
		print "a" > F
		print "b" > F
		close(F)
		print "c" >> F
		close(F)
		printf "%s", slurp(F)
		n = slurp(F, lines)
		print n, lines[3]
		dump(lines, F)
	}`
	out, _, err := runProgram(t, source, "", Config{Vars: []Assign{{Name: "F", Value: path}}})
	if err != nil {
		t.Fatal(err)
	}
	if want := "a\nb\nc\n3 c\n"; out != want {
		t.Errorf("got %q, want %q", out, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "a\nb\nc\nlines[1] = a\nlines[2] = b\nlines[3] = c\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestHeader(t *testing.T) {
	source := `{ print $"name", $"id" + 1, HDR[1], "[" $"missing" "]" }`
	out, _, err := runProgram(t, source, "id name\n1 bob\n2 amy\n", Config{Header: true})
	if err != nil {
		t.Fatal(err)
	}
	if want := "bob 2 id []\namy 3 id []\n"; out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestPresetVars(t *testing.T) {
	config := Config{
		Vars:    []Assign{{Name: "x", Value: "42"}, {Name: "FS", Value: ":"}},
		Environ: []string{"HOME=/home/test"},
	}
	out, _, err := runProgram(t, `{ print x + 1, $2, ENVIRON["HOME"] }`, "a:b\n", config)
	if err != nil {
		t.Fatal(err)
	}
	if want := "43 b /home/test\n"; out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}
