package xawk

import (
	"errors"
	"fmt"

	"github.com/kolkov/xawk/internal/interp"
	"github.com/kolkov/xawk/internal/parser"
	"github.com/kolkov/xawk/internal/semantic"
)

// ParseError represents a syntax error in xawk source code.
type ParseError struct {
	Line    int    // 1-based line number
	Column  int    // 1-based column number
	Message string // Error description

	err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

func (e *ParseError) Unwrap() error { return e.err }

// CompileError represents a semantic error found while resolving a
// program, such as a name used both as a scalar and as an array. Line and
// Column locate the first error; Message lists them all.
type CompileError struct {
	Line    int
	Column  int
	Message string

	err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %s", e.Message)
}

func (e *CompileError) Unwrap() error { return e.err }

// RuntimeError represents a fatal error during execution.
type RuntimeError struct {
	Line    int // 0 when the error has no source position
	Column  int
	Message string

	err error
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("runtime error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("runtime error: %s", e.Message)
}

func (e *RuntimeError) Unwrap() error { return e.err }

// TypeClashError reports a scalar used where an array is required, or the
// reverse, when the mismatch only shows at run time.
type TypeClashError struct {
	Line    int
	Column  int
	Name    string
	Message string

	err error
}

func (e *TypeClashError) Error() string {
	return fmt.Sprintf("type error at %d:%d: %s: %s", e.Line, e.Column, e.Name, e.Message)
}

func (e *TypeClashError) Unwrap() error { return e.err }

// RecursionLimitError reports a user function call that would exceed the
// maximum call depth.
type RecursionLimitError struct {
	Line     int
	Column   int
	Function string
	Depth    int

	err error
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("runtime error at %d:%d: call to %s exceeds maximum call depth %d",
		e.Line, e.Column, e.Function, e.Depth)
}

func (e *RecursionLimitError) Unwrap() error { return e.err }

// ExitError represents a normal exit with a status code.
// This is not an error condition; it indicates the program
// called exit with the given status, or that input could not be read.
type ExitError struct {
	Code int // Exit status code (never 0)
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// IsExitError reports whether err is an ExitError and returns the exit code.
// Returns (code, true) if err is an ExitError, or (0, false) otherwise.
func IsExitError(err error) (int, bool) {
	var e *ExitError
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// compileError converts a parser or resolver error to its public form.
func compileError(err error) error {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Pos.Line, Column: pe.Pos.Column, Message: pe.Message, err: err}
	}
	ce := &CompileError{Message: err.Error(), err: err}
	var list semantic.ErrorList
	var se *semantic.Error
	switch {
	case errors.As(err, &list) && len(list) > 0:
		ce.Line, ce.Column = list[0].Pos.Line, list[0].Pos.Column
	case errors.As(err, &se):
		ce.Line, ce.Column = se.Pos.Line, se.Pos.Column
	}
	return ce
}

// runtimeError converts an execution error to its public form.
func runtimeError(err error) error {
	var te *interp.TypeError
	if errors.As(err, &te) {
		return &TypeClashError{Line: te.Pos.Line, Column: te.Pos.Column, Name: te.Name, Message: te.Msg, err: err}
	}
	var re *interp.RecursionError
	if errors.As(err, &re) {
		return &RecursionLimitError{Line: re.Pos.Line, Column: re.Pos.Column, Function: re.Name, Depth: re.Depth, err: err}
	}
	var rt *interp.RuntimeError
	if errors.As(err, &rt) {
		return &RuntimeError{Line: rt.Pos.Line, Column: rt.Pos.Column, Message: rt.Msg, err: err}
	}
	return &RuntimeError{Message: err.Error(), err: err}
}
