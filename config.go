package xawk

import (
	"io"
	"slices"

	"github.com/kolkov/xawk/internal/interp"
)

// Config holds configuration options for xawk execution.
type Config struct {
	// FS is the input field separator (default: " ").
	// When set to a single space, runs of whitespace are treated as separators.
	// A single other character splits on that character; anything longer is
	// a regular expression.
	FS string

	// RS is the input record separator (default: "\n").
	// Paragraph mode (RS set to the empty string) is selected with
	// Variables{"RS": ""} or from the program.
	RS string

	// OFS is the output field separator (default: " ").
	OFS string

	// ORS is the output record separator (default: "\n").
	ORS string

	// CONVFMT formats numbers converted to strings (default: "%.6g").
	CONVFMT string

	// OFMT formats numbers printed by print (default: "%.6g").
	OFMT string

	// Variables contains pre-defined variables, applied in name order
	// after the separators and before BEGIN runs.
	// Example: map[string]string{"threshold": "100", "prefix": "LOG:"}
	Variables map[string]string

	// Output is the writer for print/printf statements.
	// If nil, output is captured and returned from Run.
	Output io.Writer

	// LineFlush flushes Output after every line instead of when the
	// buffer fills. Use it when Output is interactive.
	LineFlush bool

	// Stderr receives diagnostics and dump output.
	// If nil, they are discarded.
	Stderr io.Writer

	// Args contains command-line arguments (ARGV).
	// Args[0] is the program name; the rest are operands, which may be
	// input file names or var=value assignments.
	Args []string

	// Input lists input files read after the operands in Args. When
	// neither names a file, the input passed to Run is read.
	Input []string

	// Header treats the first record of each input file as column names,
	// available through HDR and $"name".
	Header bool

	// Warnings writes resolver warnings, such as unused variables, to
	// Stderr before the program runs.
	Warnings bool

	// Environ fills ENVIRON as "name=value" pairs.
	// If nil, the process environment is used.
	Environ []string

	// POSIXRegex enables POSIX leftmost-longest regex matching.
	// When true (default), uses AWK/POSIX ERE semantics (slower but compliant).
	// When false, uses leftmost-first matching (faster, Perl-like).
	POSIXRegex *bool
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.FS == "" {
		c.FS = " "
	}
	if c.RS == "" {
		c.RS = "\n"
	}
	if c.OFS == "" {
		c.OFS = " "
	}
	if c.ORS == "" {
		c.ORS = "\n"
	}
	if c.CONVFMT == "" {
		c.CONVFMT = "%.6g"
	}
	if c.OFMT == "" {
		c.OFMT = "%.6g"
	}
}

// assignments returns the preset variables in the order they apply.
func (c *Config) assignments() []interp.Assign {
	vars := []interp.Assign{
		{Name: "FS", Value: c.FS},
		{Name: "RS", Value: c.RS},
		{Name: "OFS", Value: c.OFS},
		{Name: "ORS", Value: c.ORS},
		{Name: "CONVFMT", Value: c.CONVFMT},
		{Name: "OFMT", Value: c.OFMT},
	}
	names := make([]string, 0, len(c.Variables))
	for name := range c.Variables {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		vars = append(vars, interp.Assign{Name: name, Value: c.Variables[name]})
	}
	return vars
}

// interpConfig translates c into the engine's configuration.
func (c *Config) interpConfig(input io.Reader, output io.Writer) interp.Config {
	stderr := c.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	posix := true
	if c.POSIXRegex != nil {
		posix = *c.POSIXRegex
	}

	var argv0 string
	var operands []string
	if len(c.Args) > 0 {
		argv0 = c.Args[0]
		operands = append(operands, c.Args[1:]...)
	}
	operands = append(operands, c.Input...)

	return interp.Config{
		Stdin:      input,
		Stdout:     output,
		Stderr:     stderr,
		LineFlush:  c.LineFlush,
		Argv0:      argv0,
		Args:       operands,
		Vars:       c.assignments(),
		Environ:    c.Environ,
		Header:     c.Header,
		POSIXRegex: posix,
	}
}
