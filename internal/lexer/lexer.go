// Package lexer turns xawk source into tokens.
//
// The scanner is byte oriented. Multi-byte UTF-8 sequences are passed
// through untouched inside strings, regexes and comments; outside of them
// they are reported as ILLEGAL.
package lexer

import (
	"fmt"
	"strings"

	"github.com/kolkov/xawk/internal/token"
)

// Token is a scanned token with its position and text.
type Token struct {
	Type  token.Token
	Pos   token.Position
	Value string
}

// Lexer tokenizes xawk source code.
type Lexer struct {
	src  string
	i    int // offset of the current byte
	line int
	col  int

	spaced bool        // blanks came before the last token
	prev   token.Token // type of the last token handed out
}

// New returns a Lexer over src.
func New(src []byte) *Lexer {
	return NewFromString(string(src))
}

// NewFromString returns a Lexer over src.
func NewFromString(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Scan returns the next token.
func (l *Lexer) Scan() Token {
	tok := l.scan()
	l.prev = tok.Type
	return tok
}

// HadSpace reports whether blanks preceded the last token. A user function
// call needs its '(' directly after the name.
func (l *Lexer) HadSpace() bool {
	return l.spaced
}

// RescanRegex turns a DIV or DIV_ASSIGN token that the parser met in
// operand position into a regex literal. The lexer must not have scanned
// past tok.
func (l *Lexer) RescanRegex(tok Token) Token {
	prefix := ""
	if tok.Type == token.DIV_ASSIGN {
		prefix = "="
	}
	re := l.regex(tok.Pos, prefix)
	l.prev = re.Type
	return re
}

// operators lists every operator except '/', longest spelling first.
var operators = []struct {
	text string
	tok  token.Token
}{
	{"++", token.INCR}, {"+=", token.ADD_ASSIGN}, {"--", token.DECR}, {"-=", token.SUB_ASSIGN},
	{"*=", token.MUL_ASSIGN}, {"%=", token.MOD_ASSIGN}, {"^=", token.POW_ASSIGN},
	{"==", token.EQUALS}, {"!=", token.NOT_EQUALS}, {"!~", token.NOT_MATCH},
	{"<=", token.LTE}, {">=", token.GTE}, {">>", token.APPEND},
	{"||", token.OR}, {"&&", token.AND},

	{"+", token.ADD}, {"-", token.SUB}, {"*", token.MUL}, {"%", token.MOD}, {"^", token.POW},
	{"=", token.ASSIGN}, {"!", token.NOT}, {"<", token.LESS}, {">", token.GREATER},
	{"|", token.PIPE}, {"~", token.MATCH},
	{"(", token.LPAREN}, {")", token.RPAREN}, {"{", token.LBRACE}, {"}", token.RBRACE},
	{"[", token.LBRACKET}, {"]", token.RBRACKET},
	{",", token.COMMA}, {";", token.SEMICOLON}, {":", token.COLON}, {"?", token.QUESTION},
	{"$", token.DOLLAR}, {"@", token.AT},
}

// regexAfter holds the tokens after which a '/' opens a regex rather than
// dividing.
var regexAfter = func() map[token.Token]bool {
	m := make(map[token.Token]bool)
	for _, t := range []token.Token{
		token.ILLEGAL, token.EOF, token.NEWLINE,
		token.LPAREN, token.LBRACE, token.RBRACE, token.LBRACKET,
		token.COMMA, token.SEMICOLON, token.COLON, token.QUESTION,
		token.AND, token.OR, token.NOT, token.MATCH, token.NOT_MATCH,
		token.ADD, token.SUB, token.MUL, token.DIV, token.MOD, token.POW,
		token.ASSIGN, token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN,
		token.DIV_ASSIGN, token.MOD_ASSIGN, token.POW_ASSIGN,
		token.EQUALS, token.NOT_EQUALS, token.LESS, token.LTE, token.GREATER, token.GTE,
		token.PRINT, token.PRINTF, token.IF, token.WHILE, token.FOR, token.DO, token.ELSE,
		token.RETURN, token.IN, token.PIPE, token.APPEND,
	} {
		m[t] = true
	}
	return m
}()

func (l *Lexer) scan() Token {
	l.skipBlanks()
	start := l.pos()
	if l.eof() {
		return Token{Type: token.EOF, Pos: start}
	}

	switch c := l.cur(); {
	case c == '\n':
		l.advance()
		return Token{Type: token.NEWLINE, Pos: start}
	case c == '/':
		l.advance()
		if regexAfter[l.prev] {
			return l.regex(start, "")
		}
		if l.cur() == '=' {
			l.advance()
			return Token{Type: token.DIV_ASSIGN, Pos: start, Value: "/="}
		}
		return Token{Type: token.DIV, Pos: start, Value: "/"}
	case c == '"':
		return l.str(start)
	case isDigit(c), c == '.' && isDigit(l.peek(1)):
		return l.number(start)
	case isLetter(c):
		l.skipWhile(isWordByte)
		word := l.src[start.Offset:l.i]
		return Token{Type: token.LookupIdent(word), Pos: start, Value: word}
	}

	rest := l.src[l.i:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.text) {
			l.skip(len(op.text))
			return Token{Type: op.tok, Pos: start, Value: op.text}
		}
	}
	c := l.cur()
	l.advance()
	return Token{Type: token.ILLEGAL, Pos: start, Value: "unexpected character " + quoteByte(c)}
}

// regex reads a regex body up to the closing '/'. The opening '/' is
// already consumed. "\/" stands for a slash; other escapes are kept for
// the regex engine.
func (l *Lexer) regex(start token.Position, prefix string) Token {
	var sb strings.Builder
	sb.WriteString(prefix)
	for !l.eof() && l.cur() != '\n' {
		c := l.cur()
		l.advance()
		if c == '/' {
			return Token{Type: token.REGEX, Pos: start, Value: sb.String()}
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if l.eof() || l.cur() == '\n' {
			break
		}
		if l.cur() != '/' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(l.cur())
		l.advance()
	}
	return Token{Type: token.ILLEGAL, Pos: start, Value: "unterminated regex"}
}

func (l *Lexer) str(start token.Position) Token {
	l.advance()
	var buf []byte
	for !l.eof() && l.cur() != '\n' {
		c := l.cur()
		l.advance()
		switch c {
		case '"':
			return Token{Type: token.STRING, Pos: start, Value: string(buf)}
		case '\\':
			buf = l.escape(buf)
		default:
			buf = append(buf, c)
		}
	}
	return Token{Type: token.ILLEGAL, Pos: start, Value: "unterminated string"}
}

var escapes = map[byte]byte{
	'n': '\n', 't': '\t', 'r': '\r', 'b': '\b', 'f': '\f', 'a': '\a', 'v': '\v',
	'\\': '\\', '"': '"', '/': '/',
}

// escape appends the value of the escape sequence following a consumed
// backslash. Unknown escapes keep their backslash so that strings used as
// regexes, such as "\.", survive.
func (l *Lexer) escape(buf []byte) []byte {
	if l.eof() {
		return append(buf, '\\')
	}
	c := l.cur()
	if v, ok := escapes[c]; ok {
		l.advance()
		return append(buf, v)
	}

	switch {
	case isOctal(c):
		n := 0
		for k := 0; k < 3 && isOctal(l.cur()); k++ {
			n = n<<3 | int(l.cur()-'0')
			l.advance()
		}
		return append(buf, byte(n))
	case c == 'x':
		l.advance()
		if !isHex(l.cur()) {
			return append(buf, '\\', 'x')
		}
		n := 0
		for k := 0; k < 2 && isHex(l.cur()); k++ {
			n = n<<4 | hexVal(l.cur())
			l.advance()
		}
		return append(buf, byte(n))
	case c == '\n':
		// line continuation inside a string
		l.advance()
		return buf
	}
	l.advance()
	return append(buf, '\\', c)
}

func (l *Lexer) number(start token.Position) Token {
	if l.cur() == '0' && l.peek(1)|0x20 == 'x' && isHex(l.peek(2)) {
		l.skip(2)
		l.skipWhile(isHex)
	} else {
		l.skipWhile(isDigit)
		if l.cur() == '.' {
			l.advance()
			l.skipWhile(isDigit)
		}
		// "1e+a" is the number 1 followed by e, + and a.
		if l.cur()|0x20 == 'e' && l.exponentFollows() {
			l.advance()
			if c := l.cur(); c == '+' || c == '-' {
				l.advance()
			}
			l.skipWhile(isDigit)
		}
	}
	return Token{Type: token.NUMBER, Pos: start, Value: l.src[start.Offset:l.i]}
}

func (l *Lexer) exponentFollows() bool {
	k := 1
	if c := l.peek(k); c == '+' || c == '-' {
		k++
	}
	return isDigit(l.peek(k))
}

// skipBlanks skips spaces, tabs, carriage returns, backslash-newline
// continuations and a trailing comment. The newline ending a comment is
// left in place.
func (l *Lexer) skipBlanks() {
	l.spaced = false
	for !l.eof() {
		switch c := l.cur(); {
		case c == ' ', c == '\t', c == '\r':
			l.advance()
		case c == '\\' && l.continuation():
		case c == '#':
			for !l.eof() && l.cur() != '\n' {
				l.advance()
			}
			return
		default:
			return
		}
		l.spaced = true
	}
}

// continuation consumes a backslash followed by a newline or CRLF.
func (l *Lexer) continuation() bool {
	n := 1
	if l.peek(n) == '\r' {
		n++
	}
	if l.peek(n) != '\n' {
		return false
	}
	l.skip(n + 1)
	return true
}

func (l *Lexer) eof() bool { return l.i >= len(l.src) }

func (l *Lexer) cur() byte { return l.peek(0) }

// peek returns the byte k places ahead, or 0 past the end.
func (l *Lexer) peek(k int) byte {
	if l.i+k < len(l.src) {
		return l.src[l.i+k]
	}
	return 0
}

func (l *Lexer) pos() token.Position {
	return token.Position{Offset: l.i, Line: l.line, Column: l.col}
}

func (l *Lexer) advance() {
	if l.eof() {
		return
	}
	if l.src[l.i] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.i++
}

func (l *Lexer) skip(n int) {
	for ; n > 0; n-- {
		l.advance()
	}
}

func (l *Lexer) skipWhile(class func(byte) bool) {
	for !l.eof() && class(l.cur()) {
		l.advance()
	}
}

func isDigit(c byte) bool  { return '0' <= c && c <= '9' }
func isOctal(c byte) bool  { return '0' <= c && c <= '7' }
func isLetter(c byte) bool { return c == '_' || 'a' <= c|0x20 && c|0x20 <= 'z' }

func isWordByte(c byte) bool { return isLetter(c) || isDigit(c) }

func isHex(c byte) bool {
	return isDigit(c) || 'a' <= c|0x20 && c|0x20 <= 'f'
}

func hexVal(c byte) int {
	if isDigit(c) {
		return int(c - '0')
	}
	return int((c|0x20)-'a') + 10
}

func quoteByte(c byte) string {
	if c < ' ' || c >= 0x7f {
		return fmt.Sprintf(`'\x%02x'`, c)
	}
	return "'" + string(rune(c)) + "'"
}

// Unescape processes the escape sequences of s as in a string literal. It
// serves command-line assignments, whose values are not source code.
func Unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	l := NewFromString(s)
	buf := make([]byte, 0, len(s))
	for !l.eof() {
		c := l.cur()
		l.advance()
		if c == '\\' {
			buf = l.escape(buf)
		} else {
			buf = append(buf, c)
		}
	}
	return string(buf)
}
