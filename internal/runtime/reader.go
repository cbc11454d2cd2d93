package runtime

import (
	"bufio"
	"bytes"
	"io"
)

// maxRecord bounds the size of a single record.
const maxRecord = 1 << 30

// SepKind is the kind of record separator.
type SepKind uint8

const (
	SepNewline   SepKind = iota // RS == "\n"
	SepChar                     // RS is one byte
	SepParagraph                // RS == "": blank lines separate records
	SepRegex                    // RS is longer than one byte
)

// Separator is a compiled RS value.
type Separator struct {
	Kind  SepKind
	Char  byte
	Regex *Regex
}

// NewSeparator compiles rs, using cache for regex separators.
func NewSeparator(rs string, cache *RegexCache) (Separator, error) {
	switch {
	case rs == "\n":
		return Separator{Kind: SepNewline}, nil
	case rs == "":
		return Separator{Kind: SepParagraph}, nil
	case len(rs) == 1:
		return Separator{Kind: SepChar, Char: rs[0]}, nil
	}
	re, err := cache.Get(rs)
	if err != nil {
		return Separator{}, err
	}
	return Separator{Kind: SepRegex, Regex: re}, nil
}

// RecordReader reads records from a stream. The separator is given on each
// read, so an RS change takes effect on the next record.
type RecordReader struct {
	scanner *bufio.Scanner
	sep     Separator
}

// NewRecordReader creates a reader over r.
func NewRecordReader(r io.Reader) *RecordReader {
	rr := &RecordReader{}
	rr.scanner = bufio.NewScanner(r)
	rr.scanner.Buffer(make([]byte, 0, 64*1024), maxRecord)
	rr.scanner.Split(rr.split)
	return rr
}

// Read returns the next record. It returns io.EOF when the stream is
// exhausted, and keeps returning it.
func (rr *RecordReader) Read(sep Separator) (string, error) {
	rr.sep = sep
	if rr.scanner.Scan() {
		return rr.scanner.Text(), nil
	}
	if err := rr.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (rr *RecordReader) split(data []byte, atEOF bool) (int, []byte, error) {
	switch rr.sep.Kind {
	case SepChar:
		return splitByte(data, atEOF, rr.sep.Char)
	case SepParagraph:
		return splitParagraph(data, atEOF)
	case SepRegex:
		return splitRegex(data, atEOF, rr.sep.Regex)
	default:
		return splitByte(data, atEOF, '\n')
	}
}

func splitByte(data []byte, atEOF bool, sep byte) (int, []byte, error) {
	if i := bytes.IndexByte(data, sep); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// splitParagraph separates records by one or more blank lines. Leading
// newlines are skipped and trailing newlines at end of input are dropped.
func splitParagraph(data []byte, atEOF bool) (int, []byte, error) {
	start := 0
	for start < len(data) && data[start] == '\n' {
		start++
	}
	if start == len(data) {
		return start, nil, nil
	}

	if i := bytes.Index(data[start:], []byte("\n\n")); i >= 0 {
		end := start + i
		next := end
		for next < len(data) && data[next] == '\n' {
			next++
		}
		return next, data[start:end], nil
	}

	if atEOF {
		return len(data), bytes.TrimRight(data[start:], "\n"), nil
	}
	return start, nil, nil
}

// splitRegex ends a record at the first non-empty match of re. A match
// that reaches the end of the buffer waits for more input, since it might
// extend further.
func splitRegex(data []byte, atEOF bool, re *Regex) (int, []byte, error) {
	for _, loc := range re.FindAllStringIndex(string(data), -1) {
		if loc[0] == loc[1] {
			continue
		}
		if loc[1] < len(data) || atEOF {
			return loc[1], data[:loc[0]], nil
		}
		break
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
