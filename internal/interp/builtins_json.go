package interp

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/semantic"
	"github.com/kolkov/xawk/internal/types"
)

// jsonKind is the kind of a decoded JSON value.
type jsonKind uint8

const (
	jsonNull jsonKind = iota
	jsonBool
	jsonNumber
	jsonString
	jsonArray
	jsonObject
)

// jsonValue is a decoded JSON value. Objects keep their key order: keys
// and items are parallel for objects, items alone holds array elements.
type jsonValue struct {
	kind   jsonKind
	scalar string
	keys   []string
	items  []*jsonValue
}

// pathStep is one step of a jpath path.
type pathStep struct {
	key   string
	index int
	kind  stepKind
}

type stepKind uint8

const (
	stepKey stepKind = iota
	stepIndex
	stepEach
)

// jpath extracts values from JSON text. With two arguments it returns the
// selected values joined by newlines. With an array it fills the array and
// returns the element count.
func (p *Interp) jpath(b semantic.Builtin, e *ast.CallExpr) (types.Value, error) {
	args, err := p.evalAll(e.Args[:2])
	if err != nil {
		return types.Null(), err
	}
	var arr *Array
	if len(e.Args) > 2 {
		if arr, _, err = p.arrayArg(b, e, 2); err != nil {
			return types.Null(), err
		}
		arr.Clear()
	}

	var results []*jsonValue
	if root, err := decodeJSON(p.toStr(args[0])); err == nil {
		results = selectPath(root, parsePath(p.toStr(args[1])))
	}

	if arr == nil {
		parts := make([]string, len(results))
		for i, v := range results {
			parts[i] = v.text()
		}
		return types.NumStr(strings.Join(parts, "\n")), nil
	}

	switch {
	case len(results) == 0:
	case len(results) > 1:
		fillList(arr, results)
	case results[0].kind == jsonArray:
		fillList(arr, results[0].items)
	case results[0].kind == jsonObject:
		for i, k := range results[0].keys {
			arr.Set(k, types.NumStr(results[0].items[i].text()))
		}
	default:
		arr.Set("0", types.NumStr(results[0].text()))
	}
	return types.Num(float64(arr.Len())), nil
}

func fillList(arr *Array, values []*jsonValue) {
	for i, v := range values {
		arr.Set(strconv.Itoa(i+1), types.NumStr(v.text()))
	}
}

// decodeJSON decodes a single JSON value, keeping object key order.
func decodeJSON(src string) (*jsonValue, error) {
	dec := json.NewDecoder(strings.NewReader(src))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (*jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return &jsonValue{kind: jsonNull}, nil
	case bool:
		if t {
			return &jsonValue{kind: jsonBool, scalar: "1"}, nil
		}
		return &jsonValue{kind: jsonBool, scalar: "0"}, nil
	case json.Number:
		return &jsonValue{kind: jsonNumber, scalar: formatJSONNumber(t)}, nil
	case string:
		return &jsonValue{kind: jsonString, scalar: t}, nil
	case json.Delim:
		v := &jsonValue{kind: jsonArray}
		if t == '{' {
			v.kind = jsonObject
		}
		for dec.More() {
			if v.kind == jsonObject {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v.keys = append(v.keys, key.(string))
			}
			item, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			v.items = append(v.items, item)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, errors.New("unexpected JSON token")
}

// formatJSONNumber prints a number the way awk prints numeric values, so
// 1.50 reads back as 1.5 and 1e3 as 1000.
func formatJSONNumber(n json.Number) string {
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return types.FormatNum(f, "%.6g")
}

// text renders a value for awk: scalars bare, containers as compact JSON.
func (v *jsonValue) text() string {
	switch v.kind {
	case jsonNull:
		return ""
	case jsonArray, jsonObject:
		var buf bytes.Buffer
		v.writeJSON(&buf)
		return buf.String()
	}
	return v.scalar
}

func (v *jsonValue) writeJSON(buf *bytes.Buffer) {
	switch v.kind {
	case jsonNull:
		buf.WriteString("null")
	case jsonBool:
		if v.scalar == "1" {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case jsonNumber:
		buf.WriteString(v.scalar)
	case jsonString:
		writeJSONString(buf, v.scalar)
	case jsonArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.writeJSON(buf)
		}
		buf.WriteByte(']')
	case jsonObject:
		buf.WriteByte('{')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, v.keys[i])
			buf.WriteByte(':')
			item.writeJSON(buf)
		}
		buf.WriteByte('}')
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode terminates each value with a newline
	buf.Truncate(buf.Len() - 1)
}

// parsePath parses ".a.b[0][]" style paths. A leading dot is optional and
// "." alone selects the whole document.
func parsePath(path string) []pathStep {
	var steps []pathStep
	for i := 0; i < len(path); {
		switch path[i] {
		case '.':
			i++
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				end = len(path) - i
			}
			content := strings.TrimSpace(path[i+1 : i+end])
			i += end + 1
			switch {
			case content == "":
				steps = append(steps, pathStep{kind: stepEach})
			case len(content) >= 2 && content[0] == '"' && content[len(content)-1] == '"':
				steps = append(steps, pathStep{kind: stepKey, key: content[1 : len(content)-1]})
			default:
				if n, err := strconv.Atoi(content); err == nil {
					steps = append(steps, pathStep{kind: stepIndex, index: n})
				}
			}
		default:
			end := strings.IndexAny(path[i:], ".[")
			if end < 0 {
				end = len(path) - i
			}
			steps = append(steps, pathStep{kind: stepKey, key: path[i : i+end]})
			i += end
		}
	}
	return steps
}

// selectPath applies steps to root. A key step on an array projects the
// key from each element object; a negative index counts from the end.
func selectPath(root *jsonValue, steps []pathStep) []*jsonValue {
	current := []*jsonValue{root}
	for _, step := range steps {
		var next []*jsonValue
		for _, v := range current {
			switch step.kind {
			case stepKey:
				switch v.kind {
				case jsonObject:
					if item := v.lookup(step.key); item != nil {
						next = append(next, item)
					}
				case jsonArray:
					for _, elem := range v.items {
						if elem.kind != jsonObject {
							continue
						}
						if item := elem.lookup(step.key); item != nil {
							next = append(next, item)
						}
					}
				}
			case stepIndex:
				if v.kind != jsonArray {
					continue
				}
				i := step.index
				if i < 0 {
					i += len(v.items)
				}
				if i >= 0 && i < len(v.items) {
					next = append(next, v.items[i])
				}
			case stepEach:
				if v.kind == jsonArray || v.kind == jsonObject {
					next = append(next, v.items...)
				}
			}
		}
		current = next
	}
	return current
}

// lookup returns the first member named key, or nil.
func (v *jsonValue) lookup(key string) *jsonValue {
	for i, k := range v.keys {
		if k == key {
			return v.items[i]
		}
	}
	return nil
}
