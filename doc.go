// Package xawk provides an embeddable extended AWK interpreter.
//
// xawk runs POSIX AWK programs plus a set of extensions:
//   - BEGINFILE/ENDFILE blocks and @every/@last sampling patterns
//   - Named columns through HDR and $"name" when a header row is read
//   - Negative field indexes ($-1 is the last field)
//   - String, math, time, bitwise, array, statistics and JSON builtins
//   - POSIX leftmost-longest regex matching (coregex)
//
// # Quick Start
//
// For simple one-off execution:
//
//	output, err := xawk.Run(`{ print $1 }`, strings.NewReader("hello world"), nil)
//
// With configuration:
//
//	output, err := xawk.Run(program, input, &xawk.Config{
//	    FS: ":",
//	    Variables: map[string]string{"threshold": "100"},
//	})
//
// # Compiled Programs
//
// For repeated execution of the same program:
//
//	prog, err := xawk.Compile(`$1 > threshold { print $2 }`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, file := range files {
//	    output, err := prog.Run(file, &xawk.Config{
//	        Variables: map[string]string{"threshold": "100"},
//	    })
//	    // ...
//	}
//
// # Configuration
//
// The [Config] type allows customization of execution:
//   - Field and record separators (FS, RS, OFS, ORS)
//   - Number formats (CONVFMT, OFMT)
//   - Pre-defined variables, ARGV operands and input files
//   - Custom I/O writers
//
// Settings can also be kept in a YAML profile and loaded with
// [LoadProfile].
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [ParseError]: syntax errors in the source
//   - [CompileError]: scope and type errors found before running
//   - [RuntimeError]: fatal errors during execution
//   - [TypeClashError]: scalar/array mismatches found at run time
//   - [RecursionLimitError]: runaway user function recursion
//   - [ExitError]: a nonzero exit status
//
// # Thread Safety
//
// Compiled [Program] objects are safe for concurrent use.
// Each call to [Program.Run] creates an independent execution context.
package xawk
