// xawk - extended AWK interpreter
//
// Runs POSIX AWK programs with the xawk extensions.
// Uses manual argument parsing for POSIX compatibility (supports -F: style flags).
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/kolkov/xawk"
	"github.com/kolkov/xawk/internal/lexer"
)

// version details are set by GoReleaser at build time via -ldflags.
var (
	commit = "none"
	date   = "unknown"
)

const (
	shortUsage = "usage: xawk [-F fs] [-v var=value] [-P profile] [-f progfile | 'prog'] [file ...]"
	longUsage  = `Standard AWK arguments:
  -F separator      field separator (default " ")
  -f progfile       load program source from progfile (multiple allowed)
  -v var=value      variable assignment (multiple allowed)

Additional xawk features:
  -H                treat the first line of each file as a header (HDR, $"name")
  -P profile        load settings from a YAML profile
  -w                print warnings about unused functions and parameters

Regex options:
  --posix           use POSIX leftmost-longest regex matching (default)
  --no-posix        use faster leftmost-first regex matching (Perl-like)

Other:
  -h, --help        show this help message
  -version          show xawk version and exit
`
)

//nolint:gocyclo,funlen // CLI argument parsing is inherently complex
func main() {
	// Parse command line arguments manually rather than using the
	// "flag" package, so we can support flags with no space between
	// flag and argument, like '-F:' (allowed by POSIX)
	var progFiles []string
	var vars []string
	var fieldSep *string
	var profile string
	header := false
	warnings := false
	var posixRegex *bool // nil = default (true), explicit true/false from flags

	var i int
	for i = 1; i < len(os.Args); i++ {
		// Stop on explicit end of args or first arg not prefixed with "-"
		arg := os.Args[i]
		if arg == "--" {
			i++
			break
		}
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			break
		}

		switch arg {
		case "-F":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -F")
			}
			i++
			fieldSep = &os.Args[i]
		case "-f":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -f")
			}
			i++
			progFiles = append(progFiles, os.Args[i])
		case "-v":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -v")
			}
			i++
			vars = append(vars, os.Args[i])
		case "-P":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -P")
			}
			i++
			profile = os.Args[i]
		case "-H":
			header = true
		case "-w":
			warnings = true
		case "--posix":
			t := true
			posixRegex = &t
		case "--no-posix":
			f := false
			posixRegex = &f
		case "-h", "--help":
			fmt.Printf("xawk %s - extended AWK interpreter\n\n%s\n\n%s", xawk.Version, shortUsage, longUsage)
			os.Exit(0)
		case "-version", "--version":
			fmt.Printf("xawk version %s\n", xawk.Version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
			fmt.Println("  regex:  coregex")
			os.Exit(0)
		default:
			// Handle flags with no space: -F:, -ffile, -vvar=val, -Pfile
			switch {
			case strings.HasPrefix(arg, "-F"):
				fs := arg[2:]
				fieldSep = &fs
			case strings.HasPrefix(arg, "-f"):
				progFiles = append(progFiles, arg[2:])
			case strings.HasPrefix(arg, "-v"):
				vars = append(vars, arg[2:])
			case strings.HasPrefix(arg, "-P"):
				profile = arg[2:]
			default:
				errorExitf("flag provided but not defined: %s", arg)
			}
		}
	}

	// Remaining args are program and operands
	args := os.Args[i:]

	var program string
	var operands []string

	if len(progFiles) > 0 {
		var sb strings.Builder
		for _, f := range progFiles {
			content, err := readProgram(f)
			if err != nil {
				errorExitf("cannot read program file %s: %v", f, err)
			}
			sb.Write(content)
			sb.WriteByte('\n')
		}
		program = sb.String()
		operands = args
	} else if len(args) > 0 {
		// First arg is the program
		program = args[0]
		operands = args[1:]
	} else {
		errorExitf(shortUsage)
	}

	prog, err := xawk.Compile(program)
	if err != nil {
		errorExit(err)
	}

	config := &xawk.Config{
		Output:     os.Stdout,
		LineFlush:  isTerminal(os.Stdout),
		Stderr:     os.Stderr,
		Args:       append([]string{"xawk"}, operands...),
		Header:     header,
		Warnings:   warnings,
		POSIXRegex: posixRegex,
	}
	if profile != "" {
		prof, err := xawk.LoadProfile(profile)
		if err != nil {
			errorExit(err)
		}
		prof.Apply(config)
	}
	// Command line flags win over the profile
	if fieldSep != nil {
		fs := *fieldSep
		if fs == "t" {
			fs = "\t"
		}
		config.FS = lexer.Unescape(fs)
	}
	if header {
		config.Header = true
	}
	if posixRegex != nil {
		config.POSIXRegex = posixRegex
	}

	if len(vars) > 0 && config.Variables == nil {
		config.Variables = make(map[string]string, len(vars))
	}
	for _, v := range vars {
		name, value, ok := strings.Cut(v, "=")
		if !ok || !isName(name) {
			errorExitf("invalid variable assignment: %s (expected var=value)", v)
		}
		config.Variables[name] = lexer.Unescape(value)
	}

	_, err = prog.Run(os.Stdin, config)
	if err != nil {
		if code, ok := xawk.IsExitError(err); ok {
			os.Exit(code)
		}
		errorExitCode(2, err)
	}
}

// readProgram reads a -f program file; "-" is standard input.
func readProgram(name string) ([]byte, error) {
	if name == "-" || name == "/dev/stdin" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// isTerminal reports whether f is an interactive terminal, in which case
// output is flushed line by line.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// isName reports whether s is a valid variable name.
func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// errorExitf prints formatted error message and exits with code 1
func errorExitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "xawk: "+format+"\n", args...)
	os.Exit(1)
}

// errorExit prints error and exits with code 1
func errorExit(err error) {
	errorExitCode(1, err)
}

// errorExitCode prints error and exits with the given code
func errorExitCode(code int, err error) {
	fmt.Fprintf(os.Stderr, "xawk: %v\n", err)
	os.Exit(code)
}
