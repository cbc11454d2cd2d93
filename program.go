package xawk

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/interp"
	"github.com/kolkov/xawk/internal/semantic"
)

// Program represents a parsed and resolved program ready for execution.
// It is safe for concurrent use; each call to Run creates an
// independent execution context.
type Program struct {
	prog   *ast.Program
	res    *semantic.ResolveResult
	source string
}

// Run executes the program with the given input and configuration.
// Returns the output as a string, or an error if execution fails.
//
// If config is nil, default configuration is used.
// If config.Output is set, output is written there and the returned
// string will be empty. A nil input reads as empty.
//
// A nonzero exit status is reported as an *ExitError together with the
// output produced so far.
func (p *Program) Run(input io.Reader, config *Config) (string, error) {
	if config == nil {
		config = &Config{}
	}
	cfg := *config
	cfg.applyDefaults()
	if input == nil {
		input = strings.NewReader("")
	}

	var outputBuf *bytes.Buffer
	output := cfg.Output
	if output == nil {
		outputBuf = &bytes.Buffer{}
		output = outputBuf
	}

	icfg := cfg.interpConfig(input, output)
	if cfg.Warnings {
		for _, w := range p.res.Warnings {
			fmt.Fprintf(icfg.Stderr, "xawk: %s\n", w)
		}
	}

	in, err := interp.New(p.prog, p.res, icfg)
	if err != nil {
		return "", runtimeError(err)
	}
	status, err := in.Run()

	out := ""
	if outputBuf != nil {
		out = outputBuf.String()
	}
	if err != nil {
		return out, runtimeError(err)
	}
	if status != 0 {
		return out, &ExitError{Code: status}
	}
	return out, nil
}

// Source returns the original source code.
func (p *Program) Source() string {
	return p.source
}

// Warnings returns the resolver's warnings, one "line:col: warning: msg"
// string each.
func (p *Program) Warnings() []string {
	warnings := make([]string, len(p.res.Warnings))
	for i, w := range p.res.Warnings {
		warnings[i] = w.String()
	}
	return warnings
}
