// Package parser turns xawk source into an *ast.Program. Parsing stops at
// the first syntax error.
package parser

import (
	"fmt"

	"github.com/kolkov/xawk/internal/token"
)

// ParseError is a syntax error at a source position. Want and Got are set
// when a specific token was expected.
type ParseError struct {
	Pos     token.Position
	Message string
	Got     string
	Want    string
}

func (e *ParseError) Error() string {
	if !e.Pos.IsValid() {
		return e.Message
	}
	return e.Pos.String() + ": " + e.Message
}

// bailout is the panic value that unwinds the parser after an error.
type bailout struct{}

func errorf(pos token.Position, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// expectedError reports that want was expected where got was found.
func expectedError(pos token.Position, want, got string) *ParseError {
	return &ParseError{
		Pos:     pos,
		Message: "expected " + want + ", got " + got,
		Want:    want,
		Got:     got,
	}
}
