package mock

import (
	"context"
	"io"
	"log/slog"

	probeexec "github.com/jcchavezs/crashprobe/exec"
	"github.com/spf13/afero"
)

// Execer is an exec.Execer whose behavior is given by function fields. Calling
// a method whose field is nil panics.
type Execer struct {
	RunFn          func(ctx context.Context, command string, args ...string) (probeexec.Result, error)
	RunXFn         func(ctx context.Context, command string, args ...string) (string, error)
	RunWithStdinFn func(ctx context.Context, stdin io.Reader, command string, args ...string) (probeexec.Result, error)
	Logger         *slog.Logger

	WithEnvFn       func(kv ...string) probeexec.Execer
	WithLogFieldsFn func(fields ...any) probeexec.Execer
	SubFn           func(subpath string) (probeexec.Execer, error)
	FSFn            func() afero.Fs
}

var _ probeexec.Execer = Execer{}

func (x Execer) Run(ctx context.Context, command string, args ...string) (probeexec.Result, error) {
	return x.RunFn(ctx, command, args...)
}

func (x Execer) RunX(ctx context.Context, command string, args ...string) (string, error) {
	return x.RunXFn(ctx, command, args...)
}

func (x Execer) RunWithStdin(ctx context.Context, stdin io.Reader, command string, args ...string) (probeexec.Result, error) {
	return x.RunWithStdinFn(ctx, stdin, command, args...)
}

func (x Execer) Log(ctx context.Context, level slog.Level, msg string, fields ...any) {
	if x.Logger != nil {
		x.Logger.Log(ctx, level, msg, fields...)
	}
}

// WithEnv returns x itself when WithEnvFn is unset.
func (x Execer) WithEnv(kv ...string) probeexec.Execer {
	if x.WithEnvFn == nil {
		return x
	}
	return x.WithEnvFn(kv...)
}

// WithLogFields returns x itself when WithLogFieldsFn is unset.
func (x Execer) WithLogFields(fields ...any) probeexec.Execer {
	if x.WithLogFieldsFn == nil {
		return x
	}
	return x.WithLogFieldsFn(fields...)
}

func (x Execer) Sub(subpath string) (probeexec.Execer, error) {
	return x.SubFn(subpath)
}

// FS returns an in-memory filesystem when FSFn is unset.
func (x Execer) FS() afero.Fs {
	if x.FSFn == nil {
		return afero.NewMemMapFs()
	}
	return x.FSFn()
}
