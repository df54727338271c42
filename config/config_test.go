package config

import (
	"testing"

	"github.com/jcchavezs/crashprobe"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const suiteFile = `
[[case]]
name = "crash"
entry = "crash"
args = ["7"]
repeat = 5
expect_outcome = "crashed"
expect_signal = "SIGSEGV"

[[case]]
entry = "stderr"
expect_outcome = "clean"
expect_stderr = "Just testing"
expect_stdout_empty = false
`

func TestLoadSuite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/suite.toml", []byte(suiteFile), 0o644))

	cases, err := LoadSuite(fs, "/suite.toml")
	require.NoError(t, err)
	require.Equal(t, []crashprobe.Case{
		{
			Name:   "crash",
			Entry:  crashprobe.EntryCrash,
			Args:   []string{"7"},
			Repeat: 5,
			Expect: crashprobe.Expectation{
				Outcome:     crashprobe.OutcomeCrashed,
				StdoutEmpty: true,
				Signal:      "SIGSEGV",
			},
		},
		{
			Name:   "case-2",
			Entry:  crashprobe.EntryStderr,
			Repeat: 1,
			Expect: crashprobe.Expectation{
				Outcome:     crashprobe.OutcomeClean,
				Stderr:      "Just testing",
				MatchStderr: true,
			},
		},
	}, cases)
}

func TestLoadSuiteMissingFile(t *testing.T) {
	_, err := LoadSuite(afero.NewMemMapFs(), "/nope.toml")
	require.ErrorContains(t, err, "load suite")
}

func TestParseSuiteErrors(t *testing.T) {
	t.Run("invalid toml", func(t *testing.T) {
		_, err := ParseSuite("[[case]\n")
		require.ErrorContains(t, err, "parse suite")
	})

	t.Run("no cases", func(t *testing.T) {
		_, err := ParseSuite("")
		require.EqualError(t, err, "parse suite: no cases")
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := ParseSuite("[[case]]\nname = \"a\"\nentry = \"crash\"\nexpect_outcome = \"crashed\"\ntimeout = 3\n")
		require.ErrorContains(t, err, "unknown keys case.timeout")
	})

	t.Run("bad entry and outcome are both reported", func(t *testing.T) {
		_, err := ParseSuite(`
[[case]]
name = "a"
entry = "reboot"
expect_outcome = "crashed"

[[case]]
name = "b"
entry = "crash"
expect_outcome = "exploded"
`)
		require.ErrorContains(t, err, `case "a": unknown entry "reboot"`)
		require.ErrorContains(t, err, `case "b": unknown outcome "exploded"`)
	})

	t.Run("non positive repeat", func(t *testing.T) {
		_, err := ParseSuite("[[case]]\nname = \"a\"\nentry = \"crash\"\nrepeat = 0\nexpect_outcome = \"crashed\"\n")
		require.ErrorContains(t, err, "repeat must be positive")
	})
}
