// Package types defines the xawk runtime value model.
package types

import (
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull   Kind = iota // never assigned
	KindNum                // number
	KindStr                // string constant or computed text
	KindNumStr             // input text that may compare as a number
)

var kindNames = [...]string{"null", "num", "str", "numstr"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is an awk scalar. It is small and copied by value; only KindNum
// uses num and only the text kinds use str.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Null is the value of a variable that was never assigned.
func Null() Value { return Value{} }

// Num wraps a number.
func Num(n float64) Value { return Value{kind: KindNum, num: n} }

// Str wraps text that always compares as text.
func Str(s string) Value { return Value{kind: KindStr, str: s} }

// NumStr wraps text read from input: fields, getline results, ARGV,
// ENVIRON and split elements. Whether it is numeric is decided when used.
func NumStr(s string) Value { return Value{kind: KindNumStr, str: s} }

// Bool is 1 for true and 0 for false.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindNum, num: 1}
	}
	return Value{kind: KindNum}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsNum() bool    { return v.kind == KindNum }
func (v Value) IsStr() bool    { return v.kind == KindStr }
func (v Value) IsNumStr() bool { return v.kind == KindNumStr }
func (v Value) isText() bool   { return v.kind == KindStr || v.kind == KindNumStr }

// AsInt truncates the numeric value of v toward zero.
func (v Value) AsInt() int64 { return ToInt(v.AsNum()) }

// AsNum converts v to a number. Text yields its leading number, or 0.
func (v Value) AsNum() float64 {
	if v.isText() {
		return ParseNumPrefix(v.str)
	}
	return v.num
}

// AsStr converts v to text. format applies only to numbers with a
// fractional part; the caller passes CONVFMT or OFMT.
func (v Value) AsStr(format string) string {
	if v.kind == KindNum {
		return FormatNum(v.num, format)
	}
	return v.str
}

// AsBool is the truth of v in a condition. Numbers are true when non-zero
// and strings when non-empty. A strnum is judged as a number when it
// looks like one.
func (v Value) AsBool() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindNum:
		return v.num != 0
	case KindNumStr:
		if n, ok := numericText(v.str); ok {
			return n != 0
		}
	}
	return v.str != ""
}

// IsTrueStr reports whether v takes part in comparisons as text. When it
// does not, its numeric value comes back too. Empty and non-numeric
// strnums count as text.
func (v Value) IsTrueStr() (float64, bool) {
	switch v.kind {
	case KindStr:
		return 0, true
	case KindNumStr:
		n, ok := numericText(v.str)
		return n, !ok
	}
	return v.num, false
}

// TypeName is what typeof reports for v.
func (v Value) TypeName() string {
	if v.kind == KindNull {
		return "uninitialized"
	}
	if _, text := v.IsTrueStr(); text {
		return "string"
	}
	return "number"
}

// String renders v for debugging.
func (v Value) String() string {
	switch v.kind {
	case KindNum:
		return "Num(" + FormatNum(v.num, "%.6g") + ")"
	case KindStr:
		return "Str(" + strconv.Quote(v.str) + ")"
	case KindNumStr:
		return "NumStr(" + strconv.Quote(v.str) + ")"
	}
	return "Null()"
}

// Compare returns -1, 0 or 1 as a sorts before, with or after b. The
// comparison is numeric unless either side is text (see IsTrueStr), in
// which case both are converted with convfmt and compared byte-wise.
func Compare(a, b Value, convfmt string) int {
	x, aText := a.IsTrueStr()
	y, bText := b.IsTrueStr()
	if aText || bText {
		return strings.Compare(a.AsStr(convfmt), b.AsStr(convfmt))
	}
	if x < y {
		return -1
	}
	if x > y {
		return 1
	}
	return 0
}
