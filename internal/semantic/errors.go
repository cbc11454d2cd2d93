// Package semantic resolves names in a parsed xawk program.
//
// Resolution binds every identifier to a slot (global scalar, global array,
// frame local or special variable), infers which names are arrays, binds
// calls to user functions or extended builtin handles, and rejects programs
// that misuse names. The results are written back onto the AST.
package semantic

import (
	"fmt"
	"strings"

	"github.com/kolkov/xawk/internal/token"
)

// Error is a problem that stops the program from running.
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	return e.Pos.String() + ": " + e.Message
}

// Warning is a likely mistake that doesn't stop the program.
type Warning struct {
	Pos     token.Position
	Message string
}

func (w *Warning) String() string {
	return w.Pos.String() + ": warning: " + w.Message
}

// ErrorList collects errors in source order of discovery.
type ErrorList []*Error

func (el *ErrorList) Add(pos token.Position, format string, args ...any) {
	*el = append(*el, &Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Err returns el as an error, or nil if it is empty.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Error lists one error per line.
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	lines := make([]string, len(el))
	for i, e := range el {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

type WarningList []*Warning

func (wl *WarningList) Add(pos token.Position, format string, args ...any) {
	*wl = append(*wl, &Warning{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

const (
	errUndefinedFunc       = "undefined function %q"
	errDuplicateFunc       = "function %q already defined"
	errDuplicateParam      = "duplicate parameter %q in function %q"
	errTooManyArgs         = "too many arguments in call to %q"
	errNotEnoughArgs       = "not enough arguments in call to %q"
	errAssignToNonLValue   = "cannot assign to non-lvalue"
	errVarShadowsFunc      = "variable %q shadows function name"
	errArrayScalarConflict = "cannot use %q as both array and scalar"
	errReadOnlyArray       = "cannot modify read-only array %s"
	errListOutsidePrint    = "parenthesized list is only allowed as print arguments or before in"

	warnUnusedFunc  = "function %q is declared but never called"
	warnUnusedParam = "parameter %q is never used"
)
