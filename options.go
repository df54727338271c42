package crashprobe

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/jcchavezs/crashprobe/probe"
)

// Entry is a probe entry point, passed as the first argument to the probe binary.
type Entry string

const (
	EntryCrash  Entry = "crash"
	EntryStderr Entry = "stderr"
)

func (e Entry) Valid() bool {
	return e == EntryCrash || e == EntryStderr
}

// Outcome is how a probe process terminated.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	// OutcomeClean means exit code zero.
	OutcomeClean
	// OutcomeFailed means a non-zero exit code chosen by the process.
	OutcomeFailed
	// OutcomeCrashed means the process was terminated by a fault.
	OutcomeCrashed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomeFailed:
		return "failed"
	case OutcomeCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clean":
		return OutcomeClean, nil
	case "failed":
		return OutcomeFailed, nil
	case "crashed":
		return OutcomeCrashed, nil
	default:
		return OutcomeUnknown, fmt.Errorf("unknown outcome %q", s)
	}
}

// Expectation describes what every run of a case must look like.
type Expectation struct {
	Outcome Outcome
	// Stderr is compared byte for byte when MatchStderr is set.
	Stderr      string
	MatchStderr bool
	StdoutEmpty bool
	// Signal, when not empty, is the fault signal a crashed run must report.
	Signal string
}

type Case struct {
	Name  string
	Entry Entry
	// Args are passed after the entry point.
	Args   []string
	Repeat int
	Expect Expectation
}

func (c Case) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("case has no name")
	}

	if !c.Entry.Valid() {
		return fmt.Errorf("case %q: unknown entry %q", c.Name, c.Entry)
	}

	if c.Repeat < 1 {
		return fmt.Errorf("case %q: repeat must be positive, got %d", c.Name, c.Repeat)
	}

	if c.Expect.Outcome == OutcomeUnknown {
		return fmt.Errorf("case %q: missing expected outcome", c.Name)
	}

	return nil
}

const defaultRepeat = 3

// FaultSignal is the signal reported by the Go runtime for a write to address
// zero on the current platform.
func FaultSignal() string {
	if runtime.GOOS == "windows" {
		return "0xc0000005"
	}
	return "SIGSEGV"
}

// DefaultSuite checks the crash and stderr contracts of a probe binary.
func DefaultSuite() []Case {
	return []Case{
		{
			Name:   "crash",
			Entry:  EntryCrash,
			Repeat: defaultRepeat,
			Expect: Expectation{
				Outcome:     OutcomeCrashed,
				StdoutEmpty: true,
				Signal:      FaultSignal(),
			},
		},
		{
			Name:   "stderr",
			Entry:  EntryStderr,
			Repeat: defaultRepeat,
			Expect: Expectation{
				Outcome:     OutcomeClean,
				Stderr:      probe.StderrMessage,
				MatchStderr: true,
				StdoutEmpty: true,
			},
		},
	}
}

type Options struct {
	// ArgsPrefix is inserted before the entry point, e.g. to drive a test binary.
	ArgsPrefix []string
	// Env holds extra KEY=VALUE pairs for every probe process.
	Env []string
	// Timeout bounds every single run. Zero means DefaultTimeout.
	Timeout time.Duration
	// Debug prints the commands being run.
	Debug      bool
	LogHandler slog.Handler
}

const DefaultTimeout = 30 * time.Second

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o Options) logger() *slog.Logger {
	if o.LogHandler == nil {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(o.LogHandler)
}
