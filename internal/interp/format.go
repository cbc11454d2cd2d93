package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kolkov/xawk/internal/types"
)

// sprintf formats values with an awk printf format. Missing values format
// as "" or 0; surplus values are ignored.
func (p *Interp) sprintf(format string, values []types.Value) string {
	var result strings.Builder
	next := 0
	nextValue := func() types.Value {
		if next < len(values) {
			v := values[next]
			next++
			return v
		}
		return types.Null()
	}

	i := 0
	for i < len(format) {
		if format[i] != '%' {
			result.WriteByte(format[i])
			i++
			continue
		}

		i++
		if i >= len(format) {
			result.WriteByte('%')
			break
		}
		if format[i] == '%' {
			result.WriteByte('%')
			i++
			continue
		}

		// Flags: -+ #0
		var flags strings.Builder
		for i < len(format) && strings.IndexByte("-+ #0", format[i]) >= 0 {
			flags.WriteByte(format[i])
			i++
		}

		// Width, possibly * from the arguments
		var width string
		if i < len(format) && format[i] == '*' {
			w := int(nextValue().AsInt())
			if w < 0 {
				flags.WriteByte('-')
				w = -w
			}
			width = strconv.Itoa(w)
			i++
		} else {
			start := i
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				i++
			}
			width = format[start:i]
		}

		// Precision; a negative * precision is ignored
		var precision string
		if i < len(format) && format[i] == '.' {
			i++
			if i < len(format) && format[i] == '*' {
				if n := int(nextValue().AsInt()); n >= 0 {
					precision = "." + strconv.Itoa(n)
				}
				i++
			} else {
				start := i
				for i < len(format) && format[i] >= '0' && format[i] <= '9' {
					i++
				}
				precision = "." + format[start:i]
			}
		}

		if i >= len(format) {
			result.WriteString("%" + flags.String() + width + precision)
			break
		}

		verb := format[i]
		i++
		spec := "%" + flags.String() + width + precision
		if strings.IndexByte("diouxXcseEfFgG", verb) < 0 {
			// Unknown conversions print as written and take no argument
			result.WriteString(spec)
			result.WriteByte(verb)
			continue
		}
		value := nextValue()

		switch verb {
		case 'd', 'i':
			n := value.AsNum()
			if math.IsNaN(n) || math.IsInf(n, 0) {
				result.WriteString(fmt.Sprintf("%"+flags.String()+width+"s", nonFinite(n)))
				break
			}
			result.WriteString(fmt.Sprintf(spec+"d", int64(n)))
		case 'o', 'x', 'X', 'u':
			goVerb := verb
			if verb == 'u' {
				goVerb = 'd'
			}
			result.WriteString(fmt.Sprintf(spec+string(goVerb), toUnsigned(value.AsNum())))
		case 'c':
			result.WriteString(fmt.Sprintf("%"+flags.String()+width+"s", p.formatChar(value)))
		case 's':
			result.WriteString(fmt.Sprintf(spec+"s", p.toStr(value)))
		case 'e', 'E', 'f', 'g', 'G':
			result.WriteString(fmt.Sprintf(spec+string(verb), value.AsNum()))
		case 'F':
			result.WriteString(fmt.Sprintf(spec+"f", value.AsNum()))
		}
	}
	return result.String()
}

// formatChar renders a %c value: a number is a character code, anything
// else contributes its first character.
func (p *Interp) formatChar(v types.Value) string {
	if v.IsNum() || v.IsNull() {
		n := int(v.AsInt())
		if n < 0 {
			return ""
		}
		if n < utf8.RuneSelf {
			return string([]byte{byte(n)})
		}
		return string(rune(n))
	}
	s := p.toStr(v)
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

// toUnsigned converts n for the unsigned conversions, wrapping negative
// values the way a C cast does.
func toUnsigned(n float64) uint64 {
	if n < 0 {
		return uint64(int64(n))
	}
	return uint64(n)
}

func nonFinite(n float64) string {
	switch {
	case math.IsNaN(n):
		return "nan"
	case n > 0:
		return "inf"
	}
	return "-inf"
}
