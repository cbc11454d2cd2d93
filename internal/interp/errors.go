package interp

import (
	"errors"
	"fmt"

	"github.com/kolkov/xawk/internal/token"
	"github.com/kolkov/xawk/internal/types"
)

// Control flow sentinels. They travel up the Go call stack as errors and
// are caught by the statement that owns them.
var (
	errBreak    = errors.New("break")
	errContinue = errors.New("continue")
	errNext     = errors.New("next")
	errNextFile = errors.New("nextfile")
)

// returnSignal carries a function's return value to its call.
type returnSignal struct {
	value types.Value
}

func (r *returnSignal) Error() string { return "return" }

// ExitError ends the program with a status code. It is not a failure.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// RuntimeError is a fatal error raised while running the program.
type RuntimeError struct {
	Pos token.Position
	Msg string
}

func (e *RuntimeError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return e.Msg
}

// TypeError reports a scalar used as an array or an array used as a
// scalar, when the mismatch can only be seen at run time.
type TypeError struct {
	Pos  token.Position
	Name string
	Msg  string
}

func (e *TypeError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Name, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}

// RecursionError reports a call that would exceed MaxCallDepth.
type RecursionError struct {
	Pos   token.Position
	Name  string
	Depth int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("%s: call to %s exceeds maximum call depth %d", e.Pos, e.Name, e.Depth)
}

func errorf(pos token.Position, format string, args ...any) error {
	return &RuntimeError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func typeErrorf(pos token.Position, name, format string, args ...any) error {
	return &TypeError{Pos: pos, Name: name, Msg: fmt.Sprintf(format, args...)}
}
