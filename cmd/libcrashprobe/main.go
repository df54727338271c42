// Command libcrashprobe builds the probes as a C shared library for harnesses
// that load them dynamically:
//
//	go build -buildmode=c-shared -o libcrashprobe.so ./cmd/libcrashprobe
package main

/*
#include <signal.h>

static int *volatile crash_target;

// The Go runtime owns SIGSEGV inside the library. Restoring the default
// disposition first makes the host process die from the fault signal itself.
static void crash_me(void) {
#ifndef _WIN32
	signal(SIGSEGV, SIG_DFL);
#endif
	*crash_target = 0;
}
*/
import "C"

import "github.com/jcchavezs/crashprobe/probe"

// CrashMe writes to address zero from C and never returns. The argument is
// ignored.
//
//export CrashMe
func CrashMe(arg C.int) {
	C.crash_me()
	// Unreachable unless address zero is mapped.
	probe.Crash(int(arg))
}

//export WriteToStderr
func WriteToStderr() {
	probe.WriteStderr()
}

// Required by -buildmode=c-shared.
func main() {}
