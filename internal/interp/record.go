package interp

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/kolkov/xawk/internal/runtime"
	"github.com/kolkov/xawk/internal/types"
)

var errFieldRange = errors.New("field index out of range")

type splitKind uint8

const (
	splitSpace splitKind = iota // FS == " "
	splitChar                   // one literal character
	splitRunes                  // FS == "": every character is a field
	splitRegex
)

// fieldSplitter is a compiled FS value.
type fieldSplitter struct {
	kind splitKind
	seps string // splitChar: the separator bytes
	re   *runtime.Regex
}

// newFieldSplitter compiles fs. In paragraph mode (RS == "") a newline
// separates fields whatever FS is.
func newFieldSplitter(fs string, paragraph bool, cache *runtime.RegexCache) (*fieldSplitter, error) {
	switch {
	case fs == " ":
		return &fieldSplitter{kind: splitSpace}, nil
	case fs == "":
		return &fieldSplitter{kind: splitRunes}, nil
	case len(fs) == 1:
		seps := fs
		if paragraph && fs != "\n" {
			seps += "\n"
		}
		return &fieldSplitter{kind: splitChar, seps: seps}, nil
	}

	pattern := fs
	if paragraph {
		pattern = "(" + fs + ")|\n"
	}
	re, err := cache.Get(pattern)
	if err != nil {
		return nil, err
	}
	return &fieldSplitter{kind: splitRegex, re: re}, nil
}

// splitterFor compiles the separator given to split(): a regex literal,
// or a string following the FS rules.
func splitterFor(sep string, isRegex bool, cache *runtime.RegexCache) (*fieldSplitter, error) {
	if isRegex {
		re, err := cache.Get(sep)
		if err != nil {
			return nil, err
		}
		return &fieldSplitter{kind: splitRegex, re: re}, nil
	}
	return newFieldSplitter(sep, false, cache)
}

// split appends start, end offset pairs for up to limit fields (all when
// limit < 0) and reports whether the whole text was consumed.
func (s *fieldSplitter) split(text string, limit int, offsets []int) ([]int, bool) {
	switch s.kind {
	case splitSpace:
		return splitSpaces(text, limit, offsets)
	case splitChar:
		return splitSeps(text, s.seps, limit, offsets)
	case splitRunes:
		return splitEachRune(text, limit, offsets)
	default:
		return splitMatches(text, s.re, limit, offsets)
	}
}

func isFieldSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

func splitSpaces(text string, limit int, offsets []int) ([]int, bool) {
	i, n := 0, 0
	for {
		for i < len(text) && isFieldSpace(text[i]) {
			i++
		}
		if i >= len(text) {
			return offsets, true
		}
		if limit >= 0 && n == limit {
			return offsets, false
		}
		start := i
		for i < len(text) && !isFieldSpace(text[i]) {
			i++
		}
		offsets = append(offsets, start, i)
		n++
	}
}

func splitSeps(text, seps string, limit int, offsets []int) ([]int, bool) {
	if text == "" {
		return offsets, true
	}
	start, n := 0, 0
	for {
		if limit >= 0 && n == limit {
			return offsets, false
		}
		var j int
		if len(seps) == 1 {
			j = strings.IndexByte(text[start:], seps[0])
		} else {
			j = strings.IndexAny(text[start:], seps)
		}
		if j < 0 {
			return append(offsets, start, len(text)), true
		}
		offsets = append(offsets, start, start+j)
		n++
		start += j + 1
	}
}

func splitEachRune(text string, limit int, offsets []int) ([]int, bool) {
	n := 0
	for i := 0; i < len(text); {
		if limit >= 0 && n == limit {
			return offsets, false
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		offsets = append(offsets, i, i+size)
		n++
		i += size
	}
	return offsets, true
}

func splitMatches(text string, re *runtime.Regex, limit int, offsets []int) ([]int, bool) {
	if text == "" {
		return offsets, true
	}
	start, n := 0, 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if limit >= 0 && n == limit {
			return offsets, false
		}
		offsets = append(offsets, start, loc[0])
		n++
		start = loc[1]
	}
	if limit >= 0 && n == limit {
		return offsets, false
	}
	return append(offsets, start, len(text)), true
}

// splitText splits text into field strings.
func (s *fieldSplitter) splitText(text string) []string {
	offsets, _ := s.split(text, -1, nil)
	parts := make([]string, len(offsets)/2)
	for i := range parts {
		parts[i] = text[offsets[2*i]:offsets[2*i+1]]
	}
	return parts
}

type fieldState uint8

const (
	fieldsRaw   fieldState = iota // text plus cached offsets
	fieldsOwned                   // materialized fields, $0 rebuilt when dirty
)

// fieldUse says how much of each record a program reads.
type fieldUse uint8

const (
	fieldsNone fieldUse = iota // only $0
	fieldsSome                 // fields up to the split bound
	fieldsAll                  // NF or computed indexes
)

// fieldUseOf derives the field use from a usage summary.
func fieldUseOf(u *Usage) fieldUse {
	switch {
	case u.NeedsNF:
		return fieldsAll
	case u.NeedsFields:
		return fieldsSome
	}
	return fieldsNone
}

// Record is the current input record and its fields.
//
// In the raw state the fields are offset pairs into text, computed lazily
// and only as far as the split bound when the bound covers the request.
// Any field write moves the record to the owned state through
// materialize; from then on $0 is rebuilt from the fields with OFS.
type Record struct {
	text  string
	state fieldState

	offsets  []int
	complete bool

	fields []types.Value
	dirty  bool

	splitter *fieldSplitter
	next     *fieldSplitter
	bound    int
	use      fieldUse

	ofs     string
	convfmt string
}

func newRecord(splitter *fieldSplitter, bound int, use fieldUse) *Record {
	return &Record{
		splitter: splitter,
		next:     splitter,
		bound:    bound,
		use:      use,
		ofs:      " ",
		convfmt:  "%.6g",
	}
}

// SetSplitter installs a new FS. It applies from the next SetRecord.
func (r *Record) SetSplitter(s *fieldSplitter) {
	r.next = s
}

// SetRecord replaces $0 and drops the field cache. A program that reads
// NF gets the record split at once; one that reads no fields keeps no
// buffers between records.
func (r *Record) SetRecord(text string) {
	r.text = text
	r.state = fieldsRaw
	r.complete = false
	r.dirty = false
	r.splitter = r.next
	if r.use == fieldsNone {
		r.offsets, r.fields = nil, nil
		return
	}
	r.offsets = r.offsets[:0]
	r.fields = r.fields[:0]
	if r.use == fieldsAll {
		r.splitAll()
	}
}

// Text returns $0, rebuilding it from the fields once after a write.
func (r *Record) Text() string {
	if r.state == fieldsOwned && r.dirty {
		var sb strings.Builder
		for i, f := range r.fields {
			if i > 0 {
				sb.WriteString(r.ofs)
			}
			sb.WriteString(f.AsStr(r.convfmt))
		}
		r.text = sb.String()
		r.dirty = false
	}
	return r.text
}

// NF returns the number of fields, splitting fully if needed.
func (r *Record) NF() int {
	if r.state == fieldsOwned {
		return len(r.fields)
	}
	r.splitAll()
	return len(r.offsets) / 2
}

// Field returns field i. Index 0 is $0 and a negative index counts back
// from NF. Fields that do not exist read as Uninitialized.
func (r *Record) Field(i int) types.Value {
	if i == 0 {
		return types.NumStr(r.Text())
	}
	if i < 0 {
		i = r.NF() + i + 1
		if i < 1 {
			return types.Null()
		}
	}

	if r.state == fieldsOwned {
		if i > len(r.fields) {
			return types.Null()
		}
		return r.fields[i-1]
	}

	r.ensure(i)
	if i > len(r.offsets)/2 {
		return types.Null()
	}
	return types.NumStr(r.text[r.offsets[2*i-2]:r.offsets[2*i-1]])
}

// SetField assigns field i, growing the record with empty fields as
// needed. Assigning $0 re-splits the record.
func (r *Record) SetField(i int, v types.Value) error {
	if i == 0 {
		r.SetRecord(v.AsStr(r.convfmt))
		return nil
	}
	if i < 0 {
		i = r.NF() + i + 1
		if i < 1 {
			return errFieldRange
		}
	}

	r.materialize()
	for len(r.fields) < i {
		r.fields = append(r.fields, types.Str(""))
	}
	r.fields[i-1] = v
	r.dirty = true
	return nil
}

// SetNF truncates or pads the field list to n fields.
func (r *Record) SetNF(n int) error {
	if n < 0 {
		return errFieldRange
	}
	r.materialize()
	if n < len(r.fields) {
		r.fields = r.fields[:n]
	}
	for len(r.fields) < n {
		r.fields = append(r.fields, types.Str(""))
	}
	r.dirty = true
	return nil
}

// ensure splits far enough to answer field i.
func (r *Record) ensure(i int) {
	if r.complete || len(r.offsets)/2 >= i {
		return
	}
	limit := -1
	if r.bound >= 0 && i <= r.bound {
		limit = r.bound
	}
	r.offsets, r.complete = r.splitter.split(r.text, limit, r.offsets[:0])
}

func (r *Record) splitAll() {
	if !r.complete {
		r.offsets, r.complete = r.splitter.split(r.text, -1, r.offsets[:0])
	}
}

// materialize is the one transition from the raw state to the owned one.
func (r *Record) materialize() {
	if r.state == fieldsOwned {
		return
	}
	r.splitAll()
	r.fields = r.fields[:0]
	for k := 0; k < len(r.offsets); k += 2 {
		r.fields = append(r.fields, types.NumStr(r.text[r.offsets[k]:r.offsets[k+1]]))
	}
	r.state = fieldsOwned
	r.dirty = false
}
