// Package interp is the xawk execution engine: a tree-walking evaluator
// over the resolved program, the record and field model, and the rule
// driver that feeds it input.
package interp

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/runtime"
	"github.com/kolkov/xawk/internal/semantic"
	"github.com/kolkov/xawk/internal/types"
)

// MaxCallDepth bounds the user function call stack.
const MaxCallDepth = 200

// regexCacheSize bounds the cache of dynamically built regexes.
const regexCacheSize = 500

// Assign is a preset variable assignment applied before BEGIN.
type Assign struct {
	Name  string
	Value string
}

// Config configures one run.
type Config struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	LineFlush bool

	// Argv0 is ARGV[0]; Args are the operands, ARGV[1] onwards.
	Argv0 string
	Args  []string

	// Vars are applied in order before BEGIN. Values are used as given,
	// without escape processing.
	Vars []Assign

	// Environ fills ENVIRON; nil means the process environment.
	Environ []string

	// Header treats the first record of each input file as column names.
	Header bool

	// POSIXRegex selects leftmost-longest matching.
	POSIXRegex bool
}

// cell is a function-local slot. It holds a scalar, or an array once one
// is passed in or created on first array use.
type cell struct {
	v   types.Value
	arr *Array
}

// frame is one active user function call.
type frame struct {
	fn     *ast.FuncDecl
	locals []cell
}

// tailEntry is a record buffered for an @last rule.
type tailEntry struct {
	text     string
	nr, fnr  int
	filename string
}

// ruleState is the per-rule state of the driver.
type ruleState struct {
	inRange bool
	count   int
	tail    []tailEntry
	tailPos int
}

// Interp is the execution context of one run. It is not safe for
// concurrent use.
type Interp struct {
	prog   *ast.Program
	res    *semantic.ResolveResult
	usage  *Usage
	params [][]semantic.VarType
	config Config

	globals []types.Value
	arrays  []*Array
	frames  []frame

	argv     *Array
	hdr      *Array
	procinfo *Array

	rec      *Record
	io       *runtime.IOManager
	regexes  *runtime.RegexCache
	literals map[string]*runtime.Regex

	// Special variables
	argc     types.Value
	convfmt  string
	filename string
	fnr      int
	fs       string
	nr       int
	ofmt     string
	ofs      string
	ors      string
	rlength  int
	rs       string
	rstart   int
	subsep   string
	rsSep    runtime.Separator

	// Driver state
	rules      []ruleState
	input      *runtime.RecordReader
	inputFile  *os.File
	argIndex   int
	sawFile    bool
	inputDone  bool
	inEnd      bool
	exitCode   int
	exitSet    bool
	inputError bool
	badOutputs map[string]bool

	// Builtin state
	rnd    *rand.Rand
	seed   float64
	start  time.Time
	timers map[string]time.Time
}

// New prepares prog, already resolved into res, to run with config.
func New(prog *ast.Program, res *semantic.ResolveResult, config Config) (*Interp, error) {
	usage := Analyze(prog)
	p := &Interp{
		prog:       prog,
		res:        res,
		usage:      usage,
		config:     config,
		globals:    make([]types.Value, len(res.ScalarNames)),
		arrays:     make([]*Array, len(res.ArrayNames)),
		frames:     make([]frame, 0, 16),
		literals:   make(map[string]*runtime.Regex, len(usage.Regexes)),
		regexes:    runtime.NewRegexCacheWithConfig(regexCacheSize, runtime.RegexConfig{POSIX: config.POSIXRegex}),
		rules:      make([]ruleState, len(prog.Rules)),
		badOutputs: make(map[string]bool),
		start:      time.Now(),

		argc:    types.Num(float64(len(config.Args) + 1)),
		convfmt: "%.6g",
		fs:      " ",
		ofmt:    "%.6g",
		ofs:     " ",
		ors:     "\n",
		rs:      "\n",
		subsep:  "\x1c",
	}

	for i := range p.arrays {
		p.arrays[i] = NewArray()
	}
	for _, fn := range res.FuncList {
		p.params = append(p.params, fn.ParamTypes())
	}

	for _, pattern := range usage.Regexes {
		re, err := runtime.CompileWithConfig(pattern, p.regexes.Config())
		if err != nil {
			return nil, &RuntimeError{Msg: fmt.Sprintf("invalid regex /%s/: %v", pattern, err)}
		}
		p.literals[pattern] = re
	}

	p.io = runtime.NewIOManager(runtime.Streams{
		Stdin:     config.Stdin,
		Stdout:    config.Stdout,
		Stderr:    config.Stderr,
		LineFlush: config.LineFlush,
	})
	p.io.Expect(usage.OutputTargets, usage.InputTargets)

	if usage.Calls("rand", "srand", "shuf", "samp") {
		p.reseed()
	}
	if usage.Calls("tic", "toc") {
		p.timers = make(map[string]time.Time)
	}

	splitter, _ := newFieldSplitter(p.fs, false, p.regexes)
	p.rec = newRecord(splitter, usage.MaxField, fieldUseOf(usage))
	p.rsSep, _ = runtime.NewSeparator(p.rs, p.regexes)

	p.setupArrays()

	for _, a := range config.Vars {
		if err := p.assignVar(a.Name, a.Value); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// setupArrays fills ARGV, ENVIRON and PROCINFO.
func (p *Interp) setupArrays() {
	if idx, ok := p.res.GlobalArray("ARGV"); ok {
		p.argv = p.arrays[idx]
		argv0 := p.config.Argv0
		if argv0 == "" {
			argv0 = "xawk"
		}
		p.argv.Set("0", types.Str(argv0))
		for i, arg := range p.config.Args {
			p.argv.Set(fmt.Sprint(i+1), types.NumStr(arg))
		}
	} else {
		p.argv = NewArray()
	}

	if idx, ok := p.res.GlobalArray("ENVIRON"); ok {
		environ := p.config.Environ
		if environ == nil {
			environ = os.Environ()
		}
		env := p.arrays[idx]
		for _, kv := range environ {
			if name, value, ok := strings.Cut(kv, "="); ok {
				env.Set(name, types.NumStr(value))
			}
		}
	}

	if idx, ok := p.res.GlobalArray("HDR"); ok {
		p.hdr = p.arrays[idx]
	} else {
		p.hdr = NewArray()
	}

	if idx, ok := p.res.GlobalArray("PROCINFO"); ok {
		p.procinfo = p.arrays[idx]
	} else {
		p.procinfo = NewArray()
	}
	p.procinfo.Set("pid", types.Num(float64(os.Getpid())))
	p.procinfo.Set("ppid", types.Num(float64(os.Getppid())))
	p.procinfo.Set("version", types.Str(Version))
}

// Version is reported in PROCINFO["version"].
var Version = "dev"

// Usage returns the program's usage summary.
func (p *Interp) Usage() *Usage {
	return p.usage
}

// assignVar applies name=value to a special or global scalar. Names the
// program never mentions are ignored.
func (p *Interp) assignVar(name, value string) error {
	if id := semantic.SpecialVarIndex(name); id > 0 {
		return p.setSpecial(id, types.NumStr(value))
	}
	if idx, ok := p.res.GlobalScalar(name); ok {
		p.globals[idx] = types.NumStr(value)
		return nil
	}
	if _, ok := p.res.GlobalArray(name); ok {
		return &TypeError{Name: name, Msg: "can't assign to array"}
	}
	return nil
}

// getSpecial returns special variable id.
func (p *Interp) getSpecial(id int) types.Value {
	switch id {
	case semantic.V_ARGC:
		return p.argc
	case semantic.V_CONVFMT:
		return types.Str(p.convfmt)
	case semantic.V_FILENAME:
		return types.Str(p.filename)
	case semantic.V_FNR:
		return types.Num(float64(p.fnr))
	case semantic.V_FS:
		return types.Str(p.fs)
	case semantic.V_NF:
		return types.Num(float64(p.rec.NF()))
	case semantic.V_NR:
		return types.Num(float64(p.nr))
	case semantic.V_OFMT:
		return types.Str(p.ofmt)
	case semantic.V_OFS:
		return types.Str(p.ofs)
	case semantic.V_ORS:
		return types.Str(p.ors)
	case semantic.V_RLENGTH:
		return types.Num(float64(p.rlength))
	case semantic.V_RS:
		return types.Str(p.rs)
	case semantic.V_RSTART:
		return types.Num(float64(p.rstart))
	case semantic.V_SUBSEP:
		return types.Str(p.subsep)
	}
	return types.Null()
}

// setSpecial assigns special variable id, recompiling FS and RS.
func (p *Interp) setSpecial(id int, v types.Value) error {
	switch id {
	case semantic.V_ARGC:
		p.argc = v
	case semantic.V_CONVFMT:
		format := p.toStr(v)
		if err := checkNumberFormat(format); err != nil {
			return &RuntimeError{Msg: "CONVFMT: " + err.Error()}
		}
		p.convfmt = format
		p.rec.convfmt = format
	case semantic.V_FILENAME:
		p.filename = p.toStr(v)
	case semantic.V_FNR:
		p.fnr = int(v.AsInt())
	case semantic.V_FS:
		fs := p.toStr(v)
		if err := p.setFieldSep(fs, p.rs); err != nil {
			return err
		}
		p.fs = fs
	case semantic.V_NF:
		if err := p.rec.SetNF(int(v.AsInt())); err != nil {
			return &RuntimeError{Msg: fmt.Sprintf("NF set to negative value %s", p.toStr(v))}
		}
	case semantic.V_NR:
		p.nr = int(v.AsInt())
	case semantic.V_OFMT:
		format := p.toStr(v)
		if err := checkNumberFormat(format); err != nil {
			return &RuntimeError{Msg: "OFMT: " + err.Error()}
		}
		p.ofmt = format
	case semantic.V_OFS:
		p.ofs = p.toStr(v)
		p.rec.ofs = p.ofs
	case semantic.V_ORS:
		p.ors = p.toStr(v)
	case semantic.V_RLENGTH:
		p.rlength = int(v.AsInt())
	case semantic.V_RS:
		rs := p.toStr(v)
		sep, err := runtime.NewSeparator(rs, p.regexes)
		if err != nil {
			return &RuntimeError{Msg: fmt.Sprintf("invalid RS %q: %v", rs, err)}
		}
		if (rs == "") != (p.rs == "") {
			if err := p.setFieldSep(p.fs, rs); err != nil {
				return err
			}
		}
		p.rs = rs
		p.rsSep = sep
	case semantic.V_RSTART:
		p.rstart = int(v.AsInt())
	case semantic.V_SUBSEP:
		p.subsep = p.toStr(v)
	}
	return nil
}

// setFieldSep compiles fs for the record separator rs and installs it for
// the next record.
func (p *Interp) setFieldSep(fs, rs string) error {
	splitter, err := newFieldSplitter(fs, rs == "", p.regexes)
	if err != nil {
		return &RuntimeError{Msg: fmt.Sprintf("invalid FS %q: %v", fs, err)}
	}
	p.rec.SetSplitter(splitter)
	return nil
}

// checkNumberFormat accepts a printf format with exactly one floating
// point conversion.
func checkNumberFormat(format string) error {
	verbs := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		for i < len(format) && strings.IndexByte("-+ #0123456789.", format[i]) >= 0 {
			i++
		}
		if i >= len(format) {
			return fmt.Errorf("incomplete conversion in %q", format)
		}
		switch format[i] {
		case '%':
		case 'e', 'E', 'f', 'F', 'g', 'G':
			verbs++
		default:
			return fmt.Errorf("bad conversion %%%c in %q", format[i], format)
		}
	}
	if verbs != 1 {
		return fmt.Errorf("format %q must convert exactly one number", format)
	}
	return nil
}

// toStr converts v to text with CONVFMT.
func (p *Interp) toStr(v types.Value) string {
	return v.AsStr(p.convfmt)
}

// frame returns the innermost call frame.
func (p *Interp) frame() *frame {
	return &p.frames[len(p.frames)-1]
}

// warnf writes a non-fatal diagnostic to stderr.
func (p *Interp) warnf(format string, args ...any) {
	p.io.Stdout().Writer().Flush()
	p.io.Stderr().WriteString("xawk: " + fmt.Sprintf(format, args...) + "\n")
}
