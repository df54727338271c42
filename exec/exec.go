package exec

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexellis/go-execute/v2"
	"github.com/spf13/afero"
)

// Execer runs commands inside a working directory.
type Execer interface {
	Run(ctx context.Context, command string, args ...string) (Result, error)
	RunX(ctx context.Context, command string, args ...string) (string, error)
	RunWithStdin(ctx context.Context, stdin io.Reader, command string, args ...string) (Result, error)
	Log(ctx context.Context, level slog.Level, msg string, fields ...any)
	WithEnv(kv ...string) Execer
	WithLogFields(fields ...any) Execer
	Sub(subpath string) (Execer, error)
	FS() afero.Fs
}

type execer struct {
	dir          string
	printCommand bool
	env          []string
	logger       *slog.Logger
}

var _ Execer = execer{}

var discardLogger = slog.New(slog.DiscardHandler)

// NewExecer returns an Execer rooted at dir.
func NewExecer(dir string, printCommand bool) Execer {
	return NewExecerWithLogger(dir, printCommand, nil)
}

// NewExecerWithLogger returns an Execer rooted at dir logging through l. A nil
// logger discards everything.
func NewExecerWithLogger(dir string, printCommand bool, l *slog.Logger) Execer {
	if l == nil {
		l = discardLogger
	}
	return execer{dir: dir, printCommand: printCommand, logger: l}
}

// Run executes a command with the execer's folder as working dir
func (e execer) Run(ctx context.Context, command string, args ...string) (Result, error) {
	return e.RunWithStdin(ctx, nil, command, args...)
}

// RunX executes a command with the execer's folder as working dir. It will return an error
// if exit code is non zero.
func (e execer) RunX(ctx context.Context, command string, args ...string) (string, error) {
	res, err := e.Run(ctx, command, args...)
	if err != nil {
		return "", err
	}

	if res.ExitCode() != 0 {
		return res.Stdout(), NewExecErr(
			fmt.Sprintf("%s: exit code %d", cmdString(command, args...), res.ExitCode()),
			res.Stderr(), res.ExitCode(),
		)
	}

	return res.Stdout(), nil
}

// RunWithStdin executes a command with the execer's folder as working dir accepting a stdin.
// When ctx ends before the command does, the error wraps ctx.Err() and the
// returned Result still holds the captured output.
func (e execer) RunWithStdin(ctx context.Context, stdin io.Reader, command string, args ...string) (Result, error) {
	task := execute.ExecTask{
		Command:      command,
		Args:         args,
		Cwd:          e.dir,
		Env:          e.env,
		PrintCommand: e.printCommand,
		Stdin:        stdin,
	}

	e.logger.DebugContext(ctx, "running command", "command", cmdString(command, args...))

	// go-execute returns ctx.Err() next to whatever the process produced
	// before it was killed, so the result is kept on that path.
	execRes, err := task.Execute(ctx)
	if err != nil {
		return result{execRes}, fmt.Errorf("%s: %w", cmdString(command, args...), err)
	}

	e.logger.DebugContext(ctx, "command finished", "exit_code", execRes.ExitCode, "cancelled", execRes.Cancelled)

	return result{execRes}, nil
}

func (e execer) Log(ctx context.Context, level slog.Level, msg string, fields ...any) {
	e.logger.Log(ctx, level, msg, fields...)
}

// WithEnv returns a copy of the execer adding the given KEY=VALUE pairs to the
// environment of every command.
func (e execer) WithEnv(kv ...string) Execer {
	e.env = append(append([]string{}, e.env...), kv...)
	return e
}

func (e execer) WithLogFields(fields ...any) Execer {
	e.logger = e.logger.With(fields...)
	return e
}

// Sub returns an execer rooted at subpath inside the current working dir.
func (e execer) Sub(subpath string) (Execer, error) {
	dir := filepath.Join(e.dir, subpath)
	if rel, err := filepath.Rel(e.dir, dir); err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("subpath %q escapes %q", subpath, e.dir)
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening subpath: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("subpath %q is not a directory", subpath)
	}

	e.dir = dir
	return e, nil
}

// FS returns a filesystem rooted at the working dir.
func (e execer) FS() afero.Fs {
	return afero.NewBasePathFs(afero.NewOsFs(), e.dir)
}

func cmdString(command string, args ...string) string {
	return strings.Join(append([]string{command}, args...), " ")
}

// Result holds the result from a command run
type Result interface {
	Stdout() string
	TrimStdout() string
	Stderr() string
	ExitCode() int
	Cancelled() bool
	// Signaled reports whether the process was terminated by a signal rather
	// than exiting on its own.
	Signaled() bool
}

// NewResult builds a Result from raw values, mostly useful for mocks.
func NewResult(stdout, stderr string, exitCode int) Result {
	return result{execute.ExecResult{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}}
}

type result struct {
	execute.ExecResult
}

func (r result) Stdout() string {
	return r.ExecResult.Stdout
}

// TrimStdout returns the content of stdout removing the trailing new lines.
func (r result) TrimStdout() string {
	return strings.TrimSpace(r.ExecResult.Stdout)
}

func (r result) Stderr() string {
	return r.ExecResult.Stderr
}

func (r result) ExitCode() int {
	return r.ExecResult.ExitCode
}

func (r result) Cancelled() bool {
	return r.ExecResult.Cancelled
}

// Signaled relies on os.ProcessState.ExitCode reporting -1 for processes
// killed by a signal.
func (r result) Signaled() bool {
	return r.ExecResult.ExitCode < 0 && !r.ExecResult.Cancelled
}
