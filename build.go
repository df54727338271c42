package crashprobe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcchavezs/crashprobe/exec"
)

// BuildProbe compiles the Go package pkg into out with the go command, from
// x's working directory. When shared is true the package is linked as a C
// shared library, which requires cgo.
//
// A failed build returns an error carrying the compiler output, retrievable
// with exec.GetStderr.
func BuildProbe(ctx context.Context, x exec.Execer, pkg, out string, shared bool) error {
	args := []string{"build"}
	if shared {
		args = append(args, "-buildmode=c-shared")
	}
	args = append(args, "-o", out, pkg)

	x.Log(ctx, slog.LevelDebug, "building probe", "package", pkg, "output", out, "shared", shared)

	if _, err := x.RunX(ctx, "go", args...); err != nil {
		return fmt.Errorf("building %s: %w", pkg, err)
	}

	return nil
}
