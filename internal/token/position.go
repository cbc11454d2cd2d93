package token

import "fmt"

// Position is a location in program source.
type Position struct {
	Filename string
	Line     int // 1-based
	Column   int // 1-based byte column
	Offset   int // 0-based byte offset
}

// String formats the position as "file:line:col" or "line:col".
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position refers to real source.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// NoPos is the zero Position.
var NoPos = Position{}
