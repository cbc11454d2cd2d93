package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	goruntime "runtime"
)

// Redirect selects how an output target is opened.
type Redirect uint8

const (
	RedirectWrite  Redirect = iota // > file
	RedirectAppend                 // >> file
	RedirectPipe                   // | command
)

// ResourceError reports a failure to open, read, write or close a named
// getline source or output target.
type ResourceError struct {
	Op   string // "open", "read", "write", "close"
	Name string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("can't %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Streams are the standard streams a manager binds /dev/stdout,
// /dev/stderr and "-" to.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// LineFlush flushes stdout after every write, for terminals.
	LineFlush bool
}

// Output is an open output target.
type Output struct {
	w         *bufio.Writer
	file      *os.File
	cmd       *exec.Cmd
	pipe      io.WriteCloser
	std       bool
	lineFlush bool
}

// WriteString writes s, flushing at once for unbuffered targets.
func (o *Output) WriteString(s string) error {
	if _, err := o.w.WriteString(s); err != nil {
		return err
	}
	if o.lineFlush {
		return o.w.Flush()
	}
	return nil
}

// Writer returns the buffered writer behind the target.
func (o *Output) Writer() *bufio.Writer {
	return o.w
}

// close flushes and releases the target, returning its exit status.
func (o *Output) close() (int, error) {
	flushErr := o.w.Flush()
	if o.std {
		return 0, flushErr
	}
	if o.cmd != nil {
		o.pipe.Close()
		status := exitStatus(o.cmd.Wait())
		return status, flushErr
	}
	if err := o.file.Close(); err != nil {
		return -1, err
	}
	if flushErr != nil {
		return -1, flushErr
	}
	return 0, nil
}

// Input is an open getline source.
type Input struct {
	reader *RecordReader
	file   *os.File
	cmd    *exec.Cmd
	pipe   io.ReadCloser
	std    bool
}

// Reader returns the record reader for the source.
func (in *Input) Reader() *RecordReader {
	return in.reader
}

func (in *Input) close() (int, error) {
	if in.std {
		return 0, nil
	}
	if in.cmd != nil {
		in.pipe.Close()
		return exitStatus(in.cmd.Wait()), nil
	}
	if err := in.file.Close(); err != nil {
		return -1, err
	}
	return 0, nil
}

// IOManager owns every named output target and getline source, keyed by
// target text. It belongs to a single interpreter and is not safe for
// concurrent use.
type IOManager struct {
	streams Streams

	stdout *Output
	stderr *Output
	stdin  *Input

	outputs map[string]*Output
	inputs  map[string]*Input

	// Output names in the order they were opened
	order []string
}

// NewIOManager creates a manager bound to the given streams.
func NewIOManager(streams Streams) *IOManager {
	if streams.Stdin == nil {
		streams.Stdin = os.Stdin
	}
	if streams.Stdout == nil {
		streams.Stdout = os.Stdout
	}
	if streams.Stderr == nil {
		streams.Stderr = os.Stderr
	}
	m := &IOManager{
		streams: streams,
		outputs: make(map[string]*Output),
		inputs:  make(map[string]*Input),
	}
	m.stdout = &Output{w: bufio.NewWriterSize(streams.Stdout, 64*1024), std: true, lineFlush: streams.LineFlush}
	m.stderr = &Output{w: bufio.NewWriter(streams.Stderr), std: true, lineFlush: true}
	m.stdin = &Input{reader: NewRecordReader(streams.Stdin), std: true}
	return m
}

// Expect sizes the registries for the output targets and getline sources
// a program names literally. Nothing is opened until first use.
func (m *IOManager) Expect(outputs, inputs []string) {
	if len(m.outputs) == 0 && len(outputs) > 0 {
		m.outputs = make(map[string]*Output, len(outputs))
		m.order = make([]string, 0, len(outputs))
	}
	if len(m.inputs) == 0 && len(inputs) > 0 {
		m.inputs = make(map[string]*Input, len(inputs))
	}
}

// Stdout returns the standard output target.
func (m *IOManager) Stdout() *Output {
	return m.stdout
}

// Stderr returns the standard error target. Writes to it are unbuffered.
func (m *IOManager) Stderr() *Output {
	return m.stderr
}

// Stdin returns the standard input reader, shared by the main input and
// getline < "-".
func (m *IOManager) Stdin() *RecordReader {
	return m.stdin.reader
}

// Output returns the target called name, opening it on first use. Later
// calls reuse the open target whatever the redirect.
func (m *IOManager) Output(name string, redirect Redirect) (*Output, error) {
	if redirect != RedirectPipe {
		switch name {
		case "/dev/stdout", "-":
			return m.stdout, nil
		case "/dev/stderr":
			return m.stderr, nil
		}
	}
	if out, ok := m.outputs[name]; ok {
		return out, nil
	}

	var (
		out *Output
		err error
	)
	if redirect == RedirectPipe {
		out, err = m.startOutputPipe(name)
	} else {
		out, err = openOutputFile(name, redirect == RedirectAppend)
	}
	if err != nil {
		return nil, &ResourceError{Op: "open", Name: name, Err: err}
	}
	m.outputs[name] = out
	m.order = append(m.order, name)
	return out, nil
}

func openOutputFile(name string, append bool) (*Output, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if append {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	file, err := os.OpenFile(name, flag, 0644)
	if err != nil {
		return nil, err
	}
	return &Output{w: bufio.NewWriter(file), file: file}, nil
}

func (m *IOManager) startOutputPipe(command string) (*Output, error) {
	// The command shares our stdout, so anything already printed goes first
	m.stdout.w.Flush()

	cmd := shellCommand(command)
	cmd.Stdout = m.streams.Stdout
	cmd.Stderr = m.streams.Stderr
	pipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		pipe.Close()
		return nil, err
	}
	return &Output{w: bufio.NewWriter(pipe), cmd: cmd, pipe: pipe}, nil
}

// Input returns the getline source called name, opening it on first use.
// A command source runs name through the shell. Reads continue where the
// previous read on the same name stopped.
func (m *IOManager) Input(name string, command bool) (*Input, error) {
	if !command && (name == "-" || name == "/dev/stdin") {
		return m.stdin, nil
	}
	key := inputKey(name, command)
	if in, ok := m.inputs[key]; ok {
		return in, nil
	}

	var (
		in  *Input
		err error
	)
	if command {
		in, err = m.startInputPipe(name)
	} else {
		var file *os.File
		file, err = os.Open(name)
		if err == nil {
			in = &Input{reader: NewRecordReader(file), file: file}
		}
	}
	if err != nil {
		return nil, &ResourceError{Op: "open", Name: name, Err: err}
	}
	m.inputs[key] = in
	return in, nil
}

// inputKey keeps a file and a command with the same text apart.
func inputKey(name string, command bool) string {
	if command {
		return "|" + name
	}
	return "<" + name
}

func (m *IOManager) startInputPipe(command string) (*Input, error) {
	m.stdout.w.Flush()

	cmd := shellCommand(command)
	cmd.Stdin = inheritStdin(m.streams.Stdin)
	cmd.Stderr = m.streams.Stderr
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &Input{reader: NewRecordReader(pipe), cmd: cmd, pipe: pipe}, nil
}

// Close flushes and releases every target and source called name. It
// returns the command's exit status for pipes, 0 for files and standard
// streams, and -1 when nothing by that name is open or closing fails.
func (m *IOManager) Close(name string) int {
	status, found := 0, false

	switch name {
	case "/dev/stdout", "-":
		found = true
		if m.stdout.w.Flush() != nil {
			status = -1
		}
	case "/dev/stderr":
		found = true
		m.stderr.w.Flush()
	}

	if out, ok := m.outputs[name]; ok {
		found = true
		delete(m.outputs, name)
		s, err := out.close()
		if err != nil {
			s = -1
		}
		status = s
	}

	for _, key := range []string{inputKey(name, false), inputKey(name, true)} {
		if in, ok := m.inputs[key]; ok {
			found = true
			delete(m.inputs, key)
			s, err := in.close()
			if err != nil {
				s = -1
			}
			status = s
		}
	}

	if !found {
		return -1
	}
	return status
}

// Flush flushes the output target called name. It returns 0 on success and
// -1 on error or when no such target is open.
func (m *IOManager) Flush(name string) int {
	var out *Output
	switch name {
	case "/dev/stdout", "-":
		out = m.stdout
	case "/dev/stderr":
		out = m.stderr
	default:
		out = m.outputs[name]
	}
	if out == nil {
		return -1
	}
	if out.w.Flush() != nil {
		return -1
	}
	return 0
}

// FlushAll flushes stdout, stderr and every open output target, returning
// the first error.
func (m *IOManager) FlushAll() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	keep(m.stdout.w.Flush())
	keep(m.stderr.w.Flush())
	for _, name := range m.order {
		if out, ok := m.outputs[name]; ok {
			keep(out.w.Flush())
		}
	}
	return first
}

// CloseAll closes every output target and getline source in the order they
// were opened and flushes the standard streams. It returns the first error.
func (m *IOManager) CloseAll() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	keep(m.stdout.w.Flush())
	for _, name := range m.order {
		if out, ok := m.outputs[name]; ok {
			delete(m.outputs, name)
			if _, err := out.close(); err != nil {
				keep(&ResourceError{Op: "close", Name: name, Err: err})
			}
		}
	}
	m.order = m.order[:0]

	for key, in := range m.inputs {
		delete(m.inputs, key)
		if _, err := in.close(); err != nil {
			keep(&ResourceError{Op: "close", Name: key[1:], Err: err})
		}
	}

	keep(m.stdout.w.Flush())
	keep(m.stderr.w.Flush())
	return first
}

// System flushes every output and runs command through the shell with the
// standard streams attached, returning its exit status.
func (m *IOManager) System(command string) int {
	m.FlushAll()

	cmd := shellCommand(command)
	cmd.Stdin = inheritStdin(m.streams.Stdin)
	cmd.Stdout = m.streams.Stdout
	cmd.Stderr = m.streams.Stderr
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(m.streams.Stderr, "xawk: %v\n", &ResourceError{Op: "run", Name: command, Err: err})
		return -1
	}
	return exitStatus(cmd.Wait())
}

// shellCommand builds the command for a pipe or system() call.
func shellCommand(command string) *exec.Cmd {
	if goruntime.GOOS == "windows" {
		return exec.Command("cmd", "/c", command)
	}
	return exec.Command("sh", "-c", command)
}

// inheritStdin passes stdin to a child only when it is a real file, so a
// child never drains an in-memory input the interpreter is still reading.
func inheritStdin(r io.Reader) io.Reader {
	if f, ok := r.(*os.File); ok {
		return f
	}
	return nil
}

// exitStatus converts a Wait error to an exit code.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
