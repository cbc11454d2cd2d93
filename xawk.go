package xawk

import (
	"io"

	"github.com/kolkov/xawk/internal/interp"
	"github.com/kolkov/xawk/internal/parser"
	"github.com/kolkov/xawk/internal/semantic"
)

// Version is the xawk version string, also reported in PROCINFO["version"].
const Version = "0.1.0"

func init() {
	interp.Version = Version
}

// Run executes a program with the given input.
// This is a convenience function for one-off execution.
// For repeated execution of the same program, use Compile followed by Program.Run.
//
// Parameters:
//   - program: xawk source code
//   - input: input data reader (can be nil for programs without input)
//   - config: execution configuration (can be nil for defaults)
//
// Returns the program output as a string, or an error if parsing,
// resolution, or execution fails.
//
// Example:
//
//	output, err := xawk.Run(`{ print $1 }`, strings.NewReader("hello world"), nil)
//	// output: "hello\n"
func Run(program string, input io.Reader, config *Config) (string, error) {
	prog, err := Compile(program)
	if err != nil {
		return "", err
	}
	return prog.Run(input, config)
}

// Compile parses and resolves a program for execution.
// The returned Program can be executed multiple times with different inputs.
//
// Syntax errors are returned as *ParseError, and scope or type errors
// found by the resolver as *CompileError.
//
// Example:
//
//	prog, err := xawk.Compile(`{ sum += $1 } END { print sum }`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	output1, _ := prog.Run(file1, nil)
//	output2, _ := prog.Run(file2, nil)
func Compile(program string) (*Program, error) {
	astProg, err := parser.Parse(program)
	if err != nil {
		return nil, compileError(err)
	}

	resolved, err := semantic.ValidateProgram(astProg)
	if err != nil {
		return nil, compileError(err)
	}

	return &Program{
		prog:   astProg,
		res:    resolved,
		source: program,
	}, nil
}

// Exec is a simplified interface for running a program.
// It reads from input, writes to output, and returns any error.
//
// This function is useful for integration with I/O pipelines
// where you need control over the output writer. config is not modified.
//
// Example:
//
//	err := xawk.Exec(`{ print toupper($0) }`, os.Stdin, os.Stdout, nil)
func Exec(program string, input io.Reader, output io.Writer, config *Config) error {
	prog, err := Compile(program)
	if err != nil {
		return err
	}

	var cfg Config
	if config != nil {
		cfg = *config
	}
	cfg.Output = output

	_, err = prog.Run(input, &cfg)
	return err
}

// MustCompile is like Compile but panics if the program cannot be compiled.
// It simplifies initialization of global program variables.
//
// Example:
//
//	var sumProgram = xawk.MustCompile(`{ sum += $1 } END { print sum }`)
func MustCompile(program string) *Program {
	prog, err := Compile(program)
	if err != nil {
		panic(err)
	}
	return prog
}
