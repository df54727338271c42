// Package crashprobe spawns probe processes and checks how they terminate.
package crashprobe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/jcchavezs/crashprobe/exec"
	"github.com/spf13/afero"
)

// Observation is what a single probe process did.
type Observation struct {
	Outcome  Outcome
	ExitCode int
	Stdout   string
	Stderr   string
	Fault    *Fault
	// Artifacts lists files the process left in its scratch directory, such as
	// core dumps.
	Artifacts []string
	TimedOut  bool
	Duration  time.Duration
}

type CaseReport struct {
	Case     Case
	Runs     []Observation
	Failures []string
}

func (r CaseReport) Passed() bool {
	return len(r.Failures) == 0
}

type Report struct {
	Cases []CaseReport
}

func (r Report) Passed() bool {
	return r.Failed() == 0
}

// Failed returns the number of failed cases.
func (r Report) Failed() int {
	n := 0
	for _, c := range r.Cases {
		if !c.Passed() {
			n++
		}
	}
	return n
}

// RunSuite runs every case against binary, each run in a fresh process and a
// fresh scratch directory. A returned error means the harness itself could not
// run; probe misbehavior is reported in the Report.
func RunSuite(ctx context.Context, binary string, cases []Case, opts Options) (Report, error) {
	if err := validateSuite(cases); err != nil {
		return Report{}, fmt.Errorf("invalid suite: %w", err)
	}

	baseDir, err := os.MkdirTemp("", "crashprobe-")
	if err != nil {
		return Report{}, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(baseDir)

	logger := opts.logger()
	x := exec.NewExecerWithLogger(baseDir, opts.Debug, logger)

	report := Report{}
	for _, c := range cases {
		cr, err := RunCase(ctx, x, binary, c, opts)
		if err != nil {
			return report, err
		}

		logger.InfoContext(ctx, "case finished", "case", c.Name, "passed", cr.Passed())
		report.Cases = append(report.Cases, cr)
	}

	return report, nil
}

// validateSuite checks every case and rejects names used twice, since reports
// and logs identify cases by name.
func validateSuite(cases []Case) error {
	var errs []error
	seen := make(map[string]bool, len(cases))
	for _, c := range cases {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}

		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("case %q: duplicate name", c.Name))
		}
		seen[c.Name] = true
	}

	return errors.Join(errs...)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// RunCase runs c.Repeat probe processes through x and checks them against the
// case expectation and against each other.
func RunCase(ctx context.Context, x exec.Execer, binary string, c Case, opts Options) (CaseReport, error) {
	cr := CaseReport{Case: c}

	args := append(append(append([]string{}, opts.ArgsPrefix...), string(c.Entry)), c.Args...)

	for i := range c.Repeat {
		scratch, err := afero.TempDir(x.FS(), ".", fmt.Sprintf("%s-%d-", unsafeName.ReplaceAllString(c.Name, "_"), i))
		if err != nil {
			return cr, fmt.Errorf("creating scratch directory for case %q: %w", c.Name, err)
		}

		sx, err := x.Sub(scratch)
		if err != nil {
			return cr, fmt.Errorf("entering scratch directory for case %q: %w", c.Name, err)
		}
		sx = sx.WithEnv(opts.Env...).WithLogFields("case", c.Name, "run", i)

		obs, err := runOnce(ctx, sx, opts.timeout(), binary, args)
		if err != nil {
			return cr, fmt.Errorf("running case %q: %w", c.Name, err)
		}

		sx.Log(ctx, slog.LevelDebug, "probe observed",
			"outcome", obs.Outcome.String(), "exit_code", obs.ExitCode, "artifacts", len(obs.Artifacts))

		for _, f := range c.Expect.check(obs) {
			cr.Failures = append(cr.Failures, fmt.Sprintf("run %d: %s", i+1, f))
		}
		cr.Runs = append(cr.Runs, obs)
	}

	cr.Failures = append(cr.Failures, checkDeterminism(cr.Runs)...)

	return cr, nil
}

func runOnce(ctx context.Context, x exec.Execer, timeout time.Duration, binary string, args []string) (Observation, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := x.Run(runCtx, binary, args...)
	if ctx.Err() != nil {
		return Observation{}, ctx.Err()
	}

	timedOut := errors.Is(err, context.DeadlineExceeded)
	if err != nil && !timedOut {
		return Observation{}, err
	}
	if res == nil {
		res = exec.NewResult("", "", -1)
	}

	obs := Observation{
		ExitCode: res.ExitCode(),
		Stdout:   res.Stdout(),
		Stderr:   res.Stderr(),
		Duration: time.Since(start),
		TimedOut: timedOut,
	}

	if !timedOut {
		obs.Outcome, obs.Fault = Classify(res)
	}

	obs.Artifacts, err = listArtifacts(x.FS())
	if err != nil {
		return obs, fmt.Errorf("listing artifacts: %w", err)
	}

	return obs, nil
}

func listArtifacts(fs afero.Fs) ([]string, error) {
	entries, err := afero.ReadDir(fs, ".")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (e Expectation) check(o Observation) []string {
	if o.TimedOut {
		return []string{"timed out"}
	}

	var failures []string
	if o.Outcome != e.Outcome {
		failures = append(failures, fmt.Sprintf("outcome %s (exit code %d), want %s", o.Outcome, o.ExitCode, e.Outcome))
	}

	if e.MatchStderr && o.Stderr != e.Stderr {
		failures = append(failures, fmt.Sprintf("stderr %q, want %q", o.Stderr, e.Stderr))
	}

	if e.StdoutEmpty && o.Stdout != "" {
		failures = append(failures, fmt.Sprintf("unexpected stdout %q", o.Stdout))
	}

	if e.Signal != "" && o.Outcome == OutcomeCrashed {
		switch {
		case o.Fault == nil:
			failures = append(failures, "no fault reported")
		case o.Fault.Signal != e.Signal:
			failures = append(failures, fmt.Sprintf("fault signal %s, want %s", o.Fault.Signal, e.Signal))
		}
	}

	return failures
}

// checkDeterminism compares every run against the first one. Crashed runs are
// compared by fault signature since their tracebacks carry addresses and
// goroutine ids.
func checkDeterminism(runs []Observation) []string {
	if len(runs) < 2 {
		return nil
	}

	first := runs[0]
	var failures []string
	for i, r := range runs[1:] {
		if r.TimedOut || first.TimedOut {
			continue
		}

		n := i + 2
		if r.Outcome != first.Outcome {
			failures = append(failures, fmt.Sprintf("run %d: outcome %s differs from run 1 (%s)", n, r.Outcome, first.Outcome))
			continue
		}

		if r.Outcome == OutcomeCrashed {
			if signature(r.Fault) != signature(first.Fault) {
				failures = append(failures, fmt.Sprintf("run %d: fault %q differs from run 1 (%q)", n, signature(r.Fault), signature(first.Fault)))
			}
			continue
		}

		if r.Stderr != first.Stderr {
			failures = append(failures, fmt.Sprintf("run %d: stderr differs from run 1", n))
		}
	}

	return failures
}

func signature(f *Fault) string {
	if f == nil {
		return ""
	}
	return f.Signature()
}
