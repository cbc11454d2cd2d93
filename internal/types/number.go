package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// exactLimit is 2^53; integral floats below it print digit for digit
// through int64.
const exactLimit = 1 << 53

// FormatNum renders n for output. Integral values ignore format and print
// as integers; NaN and the infinities print as "nan", "inf" and "-inf".
func FormatNum(n float64, format string) string {
	if math.IsNaN(n) {
		return "nan"
	}
	if math.IsInf(n, 0) {
		if n < 0 {
			return "-inf"
		}
		return "inf"
	}
	if n != math.Trunc(n) {
		if format == "%.6g" {
			return strconv.FormatFloat(n, 'g', 6, 64)
		}
		return fmt.Sprintf(format, n)
	}
	if -exactLimit < n && n < exactLimit {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', 0, 64)
}

// ToInt truncates n toward zero. NaN becomes 0 and out of range values
// clamp to the int64 limits.
func ToInt(n float64) int64 {
	if math.IsNaN(n) {
		return 0
	}
	if n >= math.MaxInt64 {
		return math.MaxInt64
	}
	if n <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(n)
}

// LooksNumeric reports whether s, less surrounding blanks, is a whole
// number. Blank text never looks numeric.
func LooksNumeric(s string) bool {
	_, ok := numericText(s)
	return ok
}

// numericText is ParseNum restricted to non-blank input.
func numericText(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	n, err := ParseNum(s)
	return n, err == nil
}

// ParseNum converts all of s to a number. Blanks around it are ignored
// and blank input is 0. Hex integers, nan and inf are accepted.
func ParseNum(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, ok := special(s); ok {
		return n, nil
	}
	// strconv would take digit separators.
	if strings.IndexByte(s, '_') >= 0 {
		return 0, strconv.ErrSyntax
	}
	if isHexLiteral(strings.TrimLeft(s, "+-")) {
		s += "p0"
	}
	return strconv.ParseFloat(s, 64)
}

// special recognizes an optionally signed nan or inf spelled exactly.
func special(s string) (float64, bool) {
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg, s = true, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	switch {
	case strings.EqualFold(s, "nan"):
		return math.NaN(), true
	case strings.EqualFold(s, "inf"):
		if neg {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	return 0, false
}

func isHexLiteral(s string) bool {
	return len(s) > 2 && s[0] == '0' && (s[1]|0x20) == 'x' && !strings.ContainsAny(s, "pP")
}

// ParseNumPrefix converts the longest numeric prefix of s after leading
// blanks. Text without one is 0, so "12abc" is 12 and "abc" is 0.
func ParseNumPrefix(s string) float64 {
	sc := prefixScanner{s: s}
	sc.skip(isBlank)
	start := sc.i
	sign := sc.sign()
	if sc.done() {
		return 0
	}

	if word := sc.peek(3); strings.EqualFold(word, "nan") {
		return math.NaN()
	} else if strings.EqualFold(word, "inf") {
		return math.Inf(sign)
	}

	if sc.hexStart() {
		sc.i += 2
		sc.skip(isHex)
		n, _ := strconv.ParseFloat(s[start:sc.i]+"p0", 64)
		return n
	}

	digits := sc.skip(isDigit)
	if sc.take('.') {
		digits += sc.skip(isDigit)
	}
	if digits == 0 {
		return 0
	}
	end := sc.i
	if sc.take('e') || sc.take('E') {
		sc.sign()
		if sc.skip(isDigit) > 0 {
			end = sc.i
		}
	}
	n, _ := strconv.ParseFloat(s[start:end], 64)
	return n
}

// prefixScanner walks a string byte by byte.
type prefixScanner struct {
	s string
	i int
}

func (sc *prefixScanner) done() bool { return sc.i >= len(sc.s) }

func (sc *prefixScanner) skip(class func(byte) bool) int {
	n := 0
	for !sc.done() && class(sc.s[sc.i]) {
		sc.i++
		n++
	}
	return n
}

func (sc *prefixScanner) take(c byte) bool {
	if !sc.done() && sc.s[sc.i] == c {
		sc.i++
		return true
	}
	return false
}

// sign consumes an optional sign and returns 1 or -1.
func (sc *prefixScanner) sign() int {
	if sc.take('-') {
		return -1
	}
	sc.take('+')
	return 1
}

func (sc *prefixScanner) peek(n int) string {
	if sc.i+n > len(sc.s) {
		return ""
	}
	return sc.s[sc.i : sc.i+n]
}

// hexStart reports whether a 0x prefix with at least one hex digit follows.
func (sc *prefixScanner) hexStart() bool {
	p := sc.peek(3)
	return p != "" && p[0] == '0' && (p[1]|0x20) == 'x' && isHex(p[2])
}

func isBlank(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHex(c byte) bool {
	lower := c | 0x20
	return isDigit(c) || ('a' <= lower && lower <= 'f')
}
