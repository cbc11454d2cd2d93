package lexer

import (
	"testing"

	"github.com/kolkov/xawk/internal/token"
)

// FuzzLexer checks that arbitrary input scans to EOF without panicking and
// that positions stay within the source.
func FuzzLexer(f *testing.F) {
	seeds := []string{
		`{ print $1 }`,
		`BEGIN { FS = ":" }`,
		`/pattern/ { count++ }`,
		`$1 ~ /foo/ || $2 !~ /bar/`,
		`123 456.789 .5 1e10 0x1A`,
		`"hello" "world\n" "tab\there"`,
		``,
		`# comment only`,
		"\\\n",
		`"unterminated`,
		`/unterminated`,
		`@every 3 { print }`,
		`$-1 $"name"`,
		`/foo\/bar/`,
		`"привет мир"`,
		"a\x00b",
	}
	for _, seed := range seeds {
		f.Add([]byte(seed))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		l := New(data)
		for n := 0; n < 100000; n++ {
			tok := l.Scan()
			if tok.Pos.Offset < 0 || tok.Pos.Offset > len(data) {
				t.Fatalf("offset %d outside source of length %d", tok.Pos.Offset, len(data))
			}
			if tok.Type == token.EOF {
				return
			}
		}
		t.Fatal("scanner did not reach EOF")
	})
}
