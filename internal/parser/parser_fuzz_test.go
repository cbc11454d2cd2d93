package parser_test

import (
	"testing"

	"github.com/kolkov/xawk/internal/parser"
	"github.com/kolkov/xawk/internal/semantic"
)

// programSeeds covers each rule form, statement and extension once.
var programSeeds = []string{
	"",
	"{ print }",
	"BEGIN { x = 0 } { x++ } END { print x }",
	"BEGINFILE { n = 0 } { n++ } ENDFILE { print FILENAME, n }",
	"/start/,/end/ { print }",
	"NR == 1, NR == 10",
	"@every 3 { print NR }",
	"@last 2",
	"$1 > 0 { print $2 }",
	`{ print $"name", HDR[1] }`,
	"{ print $-1, $(NF-1) }",
	"function f(a, b,   tmp) { tmp = a; return tmp + b } { print f($1, $2) }",
	"function fill(arr) { arr[1] = 1 } BEGIN { fill(x); print length(x) }",
	"{ if (x) print; else print y }",
	"{ do x++; while (x < 10) }",
	"{ for (i = 0; i < NF; i++) s = s $i }",
	"{ for (k in arr) delete arr[k] }",
	"{ while (1) { if (++n > 3) break; continue } }",
	"{ next } END { exit 1 }",
	"{ nextfile }",
	`{ print "x" > "out"; print "y" >> "out"; print "z" | "sort"; close("out") }`,
	`{ printf "%-5s|%5.2f\n", $1, $2 }`,
	`BEGIN { while (("ls" | getline line) > 0) n++; getline < "file"; getline }`,
	`{ print ($1, $2) > "f" }`,
	`{ a[$1, $2] = 1 } END { for (k in a) { split(k, p, SUBSEP); print p[1] } }`,
	`BEGIN { print jpath("{\"a\":[1,2]}", ".a[]"), trim("  x "), hex(255) }`,
	`{ v[NR] = $1 } END { print sum(v), mean(v), median(v), p(v, 90), iqm(v) }`,
	`BEGIN { n = seq(a, 1, 5); shuf(a); asort(a, b); print join(b, ",") }`,
	`BEGIN { tic("t"); print toc("t") >= 0, typeof(x), uuid() != "" }`,
	`BEGIN { print gensub(/(a)(b)/, "\\2\\1", "g", "abab") }`,
	`BEGIN { PROCINFO["sorted_in"] = "@val_num_desc" }`,
	"{ x = y = z = $1 }",
	"{ print a ? b : c ? d : e }",
	"{ print !a in b }",
	"{ print 1 - -1, 2^3^2, -2^2 }",
	"{ $0 = tolower($0); $3 = \"\"; print NF }",
	"# comment\n{ print } # trailing\n",
	"{ print \\\n $1 }",
}

// invalidSeeds must fail to parse without panicking.
var invalidSeeds = []string{
	"{",
	"}",
	"BEGIN",
	"{ print $ }",
	"{ x = }",
	"function () { }",
	"function f(a, a) { }",
	"@every { }",
	"@last x { }",
	`{ print $"" "`,
	"{ getline < }",
	"/unterminated",
	`"unterminated`,
	"{ a[ }",
	"{ for (;;; ) }",
	"BEGIN { next }",
	"\x00\xff",
}

// FuzzParser checks that parsing and resolving never panic.
func FuzzParser(f *testing.F) {
	for _, seed := range programSeeds {
		f.Add(seed)
	}
	for _, seed := range invalidSeeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		if len(src) > 10000 {
			return
		}
		prog, err := parser.Parse(src)
		if err != nil {
			if prog != nil {
				t.Fatalf("Parse returned a program along with error %v", err)
			}
			return
		}
		_, _ = semantic.ValidateProgram(prog)
	})
}

// FuzzParseExpr checks expression parsing on its own.
func FuzzParseExpr(f *testing.F) {
	exprs := []string{
		"1 + 2 * 3",
		"a = b += c",
		"x ~ /re/ && y !~ \"s\"",
		"(i, j) in arr",
		"$NF-- ++x",
		"f(a)(b)",
		"cond ? 1 : 2",
		`"a" "b" 1 2`,
		"cmd | getline",
		"$\"col\"",
		"substr(s, 2)",
		"-x^2",
	}
	for _, e := range exprs {
		f.Add(e)
	}

	f.Fuzz(func(t *testing.T, src string) {
		if len(src) > 1000 {
			return
		}
		_, _ = parser.ParseExpr(src)
	})
}
