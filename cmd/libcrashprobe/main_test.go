//go:build cgo && linux

package main

import (
	"context"
	"os"
	osexec "os/exec"
	"path/filepath"
	"testing"

	"github.com/jcchavezs/crashprobe"
	"github.com/jcchavezs/crashprobe/exec"
	execrequire "github.com/jcchavezs/crashprobe/exec/require"
	"github.com/jcchavezs/crashprobe/probe"
	"github.com/stretchr/testify/require"
)

// loader dlopens the library given as first argument and calls the export
// named by the second one.
const loader = `#include <dlfcn.h>
#include <stdio.h>
#include <string.h>

int main(int argc, char **argv) {
	if (argc != 3) return 64;

	void *lib = dlopen(argv[1], RTLD_NOW);
	if (lib == NULL) {
		fprintf(stdout, "%s\n", dlerror());
		return 65;
	}

	if (strcmp(argv[2], "CrashMe") == 0) {
		void (*crash)(int) = (void (*)(int))dlsym(lib, "CrashMe");
		if (crash == NULL) return 66;
		crash(0);
		return 67;
	}

	void (*write_stderr)(void) = (void (*)(void))dlsym(lib, argv[2]);
	if (write_stderr == NULL) return 66;
	write_stderr();
	return 0;
}
`

func requireTools(t *testing.T, tools ...string) {
	t.Helper()
	for _, tool := range tools {
		if _, err := osexec.LookPath(tool); err != nil {
			t.Skipf("%s not in PATH", tool)
		}
	}
}

// buildLibrary builds this package as a C shared library and a loader
// program for it, returning an execer rooted at their directory.
func buildLibrary(t *testing.T) exec.Execer {
	t.Helper()
	if testing.Short() {
		t.Skip("builds a shared library")
	}
	requireTools(t, "go", "cc")

	ctx := context.Background()
	dir := t.TempDir()

	wd, err := os.Getwd()
	require.NoError(t, err)

	err = crashprobe.BuildProbe(ctx, exec.NewExecer(wd, false), ".", filepath.Join(dir, "libcrashprobe.so"), true)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "loader.c"), []byte(loader), 0o600))

	x := exec.NewExecer(dir, false)
	_, err = x.RunX(ctx, "cc", "-o", "loader", "loader.c", "-ldl")
	if stderr, ok := exec.GetStderr(err); ok {
		t.Fatalf("compiling loader: %v\n%s", err, stderr)
	}
	require.NoError(t, err)

	return x
}

func TestSharedLibrary(t *testing.T) {
	x := buildLibrary(t)
	ctx := context.Background()

	t.Run("exports", func(t *testing.T) {
		requireTools(t, "nm")

		out, err := x.RunX(ctx, "nm", "-D", "--defined-only", "libcrashprobe.so")
		require.NoError(t, err)
		require.Regexp(t, `(?m) T CrashMe$`, out)
		require.Regexp(t, `(?m) T WriteToStderr$`, out)
	})

	t.Run("WriteToStderr", func(t *testing.T) {
		res, err := x.Run(ctx, "./loader", "./libcrashprobe.so", "WriteToStderr")
		require.NoError(t, err)
		execrequire.ExitedCleanly(t, res)
		execrequire.StderrEqual(t, probe.StderrMessage, res)
		execrequire.StdoutEmpty(t, res)
	})

	t.Run("CrashMe", func(t *testing.T) {
		res, err := x.Run(ctx, "./loader", "./libcrashprobe.so", "CrashMe")
		require.NoError(t, err)
		execrequire.Signaled(t, res)
		execrequire.StdoutEmpty(t, res)

		outcome, _ := crashprobe.Classify(res)
		require.Equal(t, crashprobe.OutcomeCrashed, outcome)
	})
}
