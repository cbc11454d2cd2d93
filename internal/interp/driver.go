package interp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/lexer"
	"github.com/kolkov/xawk/internal/runtime"
	"github.com/kolkov/xawk/internal/types"
)

// Run executes the program: BEGIN, each input source with its BEGINFILE
// and ENDFILE blocks, the @last replay and END. It returns the exit
// status. Run must be called once.
func (p *Interp) Run() (int, error) {
	err := p.run()
	if closeErr := p.io.CloseAll(); closeErr != nil && err == nil {
		p.warnf("%v", closeErr)
		if !p.exitSet {
			p.exitCode = 2
			p.exitSet = true
		}
	}
	if err != nil {
		return 2, err
	}
	if !p.exitSet && p.inputError {
		return 2, nil
	}
	return p.exitCode, nil
}

func (p *Interp) run() error {
	err := p.executeBlocks(p.prog.Begin)
	if err == nil && p.needsInput() {
		err = p.runInput()
		if err == nil {
			err = p.replayTails()
		}
	}
	var exit *ExitError
	if err != nil && !errors.As(err, &exit) {
		return p.misplaced(err)
	}

	p.inEnd = true
	err = p.executeBlocks(p.prog.EndBlocks)
	if errors.As(err, &exit) {
		return nil
	}
	return p.misplaced(err)
}

// misplaced turns a next or nextfile that escaped to the top level into a
// runtime error.
func (p *Interp) misplaced(err error) error {
	switch err {
	case errNext:
		return &RuntimeError{Msg: "next used outside a rule"}
	case errNextFile:
		return &RuntimeError{Msg: "nextfile used outside a rule"}
	case errBreak, errContinue:
		return &RuntimeError{Msg: "break or continue outside a loop"}
	}
	return err
}

func (p *Interp) executeBlocks(blocks []*ast.BlockStmt) error {
	for _, block := range blocks {
		if err := p.executeBlock(block); err != nil {
			return err
		}
	}
	return nil
}

// needsInput reports whether anything runs per record or per file.
func (p *Interp) needsInput() bool {
	prog := p.prog
	return len(prog.Rules) > 0 || len(prog.EndBlocks) > 0 ||
		len(prog.BeginFile) > 0 || len(prog.EndFile) > 0
}

// runInput feeds every record through the rules.
func (p *Interp) runInput() error {
	for {
		text, ok, err := p.nextRecord()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		p.rec.SetRecord(text)

		switch err := p.runRules(); err {
		case nil, errNext:
		case errNextFile:
			if err := p.endFile(); err != nil {
				return err
			}
		default:
			return err
		}
	}
}

// runRules runs every rule against the current record.
func (p *Interp) runRules() error {
	for i, rule := range p.prog.Rules {
		matched, err := p.matchRule(i, rule)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}

		st := &p.rules[i]
		switch rule.Sample {
		case ast.SampleEvery:
			st.count++
			if (st.count-1)%max(rule.N, 1) != 0 {
				continue
			}
		case ast.SampleLast:
			st.buffer(tailEntry{
				text:     p.rec.Text(),
				nr:       p.nr,
				fnr:      p.fnr,
				filename: p.filename,
			}, max(rule.N, 1))
			continue
		}

		if err := p.runAction(rule); err != nil {
			return err
		}
	}
	return nil
}

// matchRule evaluates a rule's pattern. A range stays active from a start
// match through the next stop match; both may match the same record.
func (p *Interp) matchRule(i int, rule *ast.Rule) (bool, error) {
	switch pat := rule.Pattern.(type) {
	case nil:
		return true, nil

	case *ast.CommaExpr:
		st := &p.rules[i]
		if !st.inRange {
			start, err := p.eval(pat.Left)
			if err != nil {
				return false, err
			}
			if !start.AsBool() {
				return false, nil
			}
			st.inRange = true
		}
		stop, err := p.eval(pat.Right)
		if err != nil {
			return false, err
		}
		if stop.AsBool() {
			st.inRange = false
		}
		return true, nil
	}

	v, err := p.eval(rule.Pattern)
	if err != nil {
		return false, err
	}
	return v.AsBool(), nil
}

// runAction runs a rule's action. A rule without one prints $0.
func (p *Interp) runAction(rule *ast.Rule) error {
	if rule.Action == nil {
		out := p.io.Stdout()
		if err := out.WriteString(p.rec.Text() + p.ors); err != nil {
			p.reportOutput("/dev/stdout", err)
		}
		return nil
	}
	return p.executeBlock(rule.Action)
}

// buffer appends e to the @last ring of size n, dropping the oldest entry
// once the ring is full.
func (st *ruleState) buffer(e tailEntry, n int) {
	if len(st.tail) < n {
		st.tail = append(st.tail, e)
		return
	}
	st.tail[st.tailPos] = e
	st.tailPos = (st.tailPos + 1) % n
}

// replayTails runs each @last rule's action over its buffered records,
// oldest first, then restores the final record for END.
func (p *Interp) replayTails() error {
	text, nr, fnr, filename := p.rec.Text(), p.nr, p.fnr, p.filename
	defer func() {
		p.rec.SetRecord(text)
		p.nr, p.fnr, p.filename = nr, fnr, filename
	}()

	for i, rule := range p.prog.Rules {
		if rule.Sample != ast.SampleLast {
			continue
		}
		st := &p.rules[i]
		for k := range st.tail {
			e := st.tail[(st.tailPos+k)%len(st.tail)]
			p.rec.SetRecord(e.text)
			p.nr, p.fnr, p.filename = e.nr, e.fnr, e.filename

			switch err := p.runAction(rule); err {
			case nil, errNext, errNextFile:
			default:
				return err
			}
		}
		st.tail, st.tailPos = nil, 0
	}
	return nil
}

// nextRecord reads the next main input record, moving through the ARGV
// operands as sources run out. ok is false once every source is done.
func (p *Interp) nextRecord() (string, bool, error) {
	for {
		if p.input == nil {
			ok, err := p.openNext()
			if err != nil || !ok {
				return "", false, err
			}
		}

		text, err := p.input.Read(p.rsSep)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.warnf("error reading %s: %v", p.sourceName(), err)
				p.inputError = true
			}
			if err := p.endFile(); err != nil {
				return "", false, err
			}
			continue
		}

		p.nr++
		p.fnr++
		if p.config.Header && p.fnr == 1 {
			p.loadHeader(text)
			continue
		}
		return text, true, nil
	}
}

// openNext opens the next input source and runs BEGINFILE. A nextfile in
// BEGINFILE skips the source without running ENDFILE.
func (p *Interp) openNext() (bool, error) {
	for {
		ok, err := p.nextSource()
		if err != nil || !ok {
			return false, err
		}
		p.fnr = 0

		err = p.executeBlocks(p.prog.BeginFile)
		if err == errNextFile {
			p.closeInput()
			continue
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}
}

// nextSource advances through ARGV[1] to ARGV[ARGC-1]. Empty operands are
// skipped and name=value operands are applied as assignments. Standard
// input is read when no operand names a file.
func (p *Interp) nextSource() (bool, error) {
	for !p.inputDone {
		p.argIndex++
		if p.argIndex >= int(p.argc.AsInt()) {
			p.inputDone = true
			if p.sawFile {
				return false, nil
			}
			p.sawFile = true
			p.input, p.filename = p.io.Stdin(), ""
			return true, nil
		}

		v, ok := p.argv.Get(strconv.Itoa(p.argIndex))
		if !ok {
			continue
		}
		arg := p.toStr(v)
		if arg == "" {
			continue
		}
		if name, value, ok := cutAssignment(arg); ok {
			if err := p.assignVar(name, lexer.Unescape(value)); err != nil {
				return false, err
			}
			continue
		}

		p.sawFile = true
		if arg == "-" || arg == "/dev/stdin" {
			p.input, p.filename = p.io.Stdin(), arg
			return true, nil
		}
		f, err := os.Open(arg)
		if err != nil {
			p.warnf("%v", &runtime.ResourceError{Op: "open", Name: arg, Err: unwrapPathError(err)})
			p.inputError = true
			continue
		}
		p.input, p.inputFile, p.filename = runtime.NewRecordReader(f), f, arg
		return true, nil
	}
	return false, nil
}

// endFile closes the current source and runs ENDFILE.
func (p *Interp) endFile() error {
	p.closeInput()
	return p.executeBlocks(p.prog.EndFile)
}

func (p *Interp) closeInput() {
	if p.inputFile != nil {
		p.inputFile.Close()
	}
	p.input, p.inputFile = nil, nil
}

func (p *Interp) sourceName() string {
	if p.filename == "" {
		return "standard input"
	}
	return p.filename
}

// loadHeader fills HDR from a header record: HDR[i] is the name of column
// i and HDR[name] its index.
func (p *Interp) loadHeader(text string) {
	p.hdr.Clear()
	for i, name := range p.rec.next.splitText(text) {
		col := fmt.Sprint(i + 1)
		p.hdr.Set(col, types.Str(name))
		p.hdr.Set(name, types.Num(float64(i+1)))
	}
}

// cutAssignment splits a name=value operand. The name must be a valid
// identifier.
func cutAssignment(arg string) (string, string, bool) {
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		switch {
		case c == '=' && i > 0:
			return arg[:i], arg[i+1:], true
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return "", "", false
		}
	}
	return "", "", false
}

func unwrapPathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
