// Command crashprobe exposes the crash and stderr probes as subcommands and can
// verify a probe binary against a suite.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jcchavezs/crashprobe"
	"github.com/jcchavezs/crashprobe/config"
	"github.com/jcchavezs/crashprobe/exec"
	"github.com/jcchavezs/crashprobe/probe"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errSuiteFailed = errors.New("suite failed")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crashprobe",
		Short: "Deliberately crash or write to stderr, for crash detection harnesses",
		// The probes own stdout and stderr, cobra must not print anything there.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCrashCmd(), newStderrCmd(), newVerifyCmd())
	return root
}

func newCrashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crash [arg]",
		Short: "Write to address zero and die with a fault",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			arg := 0
			if len(args) == 1 {
				// The argument only mirrors the exported C symbol and is not used.
				var err error
				if arg, err = strconv.Atoi(args[0]); err != nil {
					return fmt.Errorf("invalid argument %q: %w", args[0], err)
				}
			}
			probe.Crash(arg)
			return nil
		},
	}
}

func newStderrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stderr",
		Short: "Write \"" + probe.StderrMessage + "\" to stderr",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			probe.WriteStderr()
			return nil
		},
	}
}

type verifyFlags struct {
	suite   string
	binary  string
	build   string
	repeat  int
	debug   bool
	logFile string
}

func newVerifyCmd() *cobra.Command {
	f := verifyFlags{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Spawn a probe binary per case and check how it terminates",
		Long: `Runs a suite of cases against a probe binary, each run in a fresh process.

Without --suite the default suite checks that "crash" always dies with a fault
and that "stderr" always writes exactly "` + probe.StderrMessage + `" and nothing to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.suite, "suite", "", "TOML suite file")
	cmd.Flags().StringVar(&f.binary, "binary", "", "probe binary to verify (defaults to this executable)")
	cmd.Flags().StringVar(&f.build, "build", "", "Go package to build and verify instead of --binary")
	cmd.MarkFlagsMutuallyExclusive("binary", "build")
	cmd.Flags().IntVar(&f.repeat, "repeat", 0, "override the repeat count of every case")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "print the commands being run")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "write debug logs to this file")

	return cmd
}

func runVerify(cmd *cobra.Command, f verifyFlags) error {
	cases := crashprobe.DefaultSuite()
	if f.suite != "" {
		var err error
		if cases, err = config.LoadSuite(afero.NewOsFs(), f.suite); err != nil {
			return err
		}
	}

	if f.repeat > 0 {
		for i := range cases {
			cases[i].Repeat = f.repeat
		}
	}

	opts := crashprobe.Options{Debug: f.debug}
	var logger *slog.Logger
	if f.logFile != "" {
		lf, err := os.Create(f.logFile)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer lf.Close() //nolint:errcheck

		opts.LogHandler = slog.NewTextHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logger = slog.New(opts.LogHandler)
	}

	binary := f.binary
	switch {
	case f.build != "":
		dir, err := os.MkdirTemp("", "crashprobe-build-")
		if err != nil {
			return fmt.Errorf("creating build directory: %w", err)
		}
		defer os.RemoveAll(dir)

		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("locating working directory: %w", err)
		}

		binary = filepath.Join(dir, "probe")
		x := exec.NewExecerWithLogger(wd, f.debug, logger)
		if err := crashprobe.BuildProbe(cmd.Context(), x, f.build, binary, false); err != nil {
			if stderr, ok := exec.GetStderr(err); ok {
				fmt.Fprint(cmd.ErrOrStderr(), stderr)
			}
			return err
		}
	case binary == "":
		var err error
		if binary, err = os.Executable(); err != nil {
			return fmt.Errorf("locating probe binary: %w", err)
		}
	}

	report, err := crashprobe.RunSuite(cmd.Context(), binary, cases, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := crashprobe.WriteReport(out, report, isTerminal(out)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if !report.Passed() {
		return errSuiteFailed
	}

	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errSuiteFailed) {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		os.Exit(1)
	}
}
