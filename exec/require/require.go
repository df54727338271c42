package require

import (
	"github.com/jcchavezs/crashprobe/exec"
	"github.com/stretchr/testify/require"
)

type tHelper = interface {
	Helper()
}

// ArgEqual asserts that the argument at position i in args is equal to expected.
func ArgEqual(t require.TestingT, expected any, args []string, i int, msgAndArgs ...any) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Greater(t, len(args), i, "not enough arguments to compare")
	require.Equal(t, expected, args[i], msgAndArgs...)
}

// ExitedCleanly asserts that the process exited on its own with code 0.
func ExitedCleanly(t require.TestingT, res exec.Result, msgAndArgs ...any) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.False(t, res.Signaled(), "process was killed by a signal")
	require.Equal(t, 0, res.ExitCode(), msgAndArgs...)
}

// Signaled asserts that the process was terminated by a signal.
func Signaled(t require.TestingT, res exec.Result, msgAndArgs ...any) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.True(t, res.Signaled(), msgAndArgs...)
}

// StderrEqual asserts that the process wrote exactly expected to stderr.
func StderrEqual(t require.TestingT, expected string, res exec.Result, msgAndArgs ...any) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, expected, res.Stderr(), msgAndArgs...)
}

// StdoutEmpty asserts that the process wrote nothing to stdout.
func StdoutEmpty(t require.TestingT, res exec.Result, msgAndArgs ...any) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Empty(t, res.Stdout(), msgAndArgs...)
}
