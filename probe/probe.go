// Package probe holds the two entry points a crash-detection harness spawns:
// one that faults the process and one that writes a known literal to stderr.
package probe

import (
	"io"
	"os"
	"runtime/debug"
	"unsafe"
)

// StderrMessage is the literal written by WriteStderr.
const StderrMessage = "Just testing"

// target is never assigned and must stay a variable the compiler cannot fold.
var target unsafe.Pointer

// Crash writes to address zero and never returns. The argument is ignored.
//
// The write happens on its own goroutine so a deferred recover in the caller
// cannot swallow the fault, and the traceback level is raised to "crash" so
// the runtime terminates the process with a signal instead of exit code 2.
func Crash(_ int) {
	debug.SetTraceback("crash")

	go fault()

	select {}
}

//go:noinline
func fault() {
	*(*int)(target) = 0
}

// WriteStderr writes StderrMessage to the process standard error.
func WriteStderr() {
	// os.Stderr is unbuffered, nothing to flush.
	_ = WriteMessage(os.Stderr)
}

// WriteMessage writes StderrMessage to w.
func WriteMessage(w io.Writer) error {
	_, err := io.WriteString(w, StderrMessage)
	return err
}
