// Package config loads probe suites from TOML files.
//
// A suite file holds one [[case]] table per case:
//
//	[[case]]
//	name = "crash"
//	entry = "crash"
//	repeat = 3
//	expect_outcome = "crashed"
//	expect_signal = "SIGSEGV"
//
//	[[case]]
//	name = "stderr"
//	entry = "stderr"
//	expect_outcome = "clean"
//	expect_stderr = "Just testing"
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jcchavezs/crashprobe"
	"github.com/spf13/afero"
)

type fileCase struct {
	Name              string   `toml:"name"`
	Entry             string   `toml:"entry"`
	Args              []string `toml:"args"`
	Repeat            *int     `toml:"repeat"`
	ExpectOutcome     string   `toml:"expect_outcome"`
	ExpectStderr      *string  `toml:"expect_stderr"`
	ExpectStdoutEmpty *bool    `toml:"expect_stdout_empty"`
	ExpectSignal      string   `toml:"expect_signal"`
}

type fileSuite struct {
	Cases []fileCase `toml:"case"`
}

// LoadSuite reads the suite file at path from fs.
func LoadSuite(fs afero.Fs, path string) ([]crashprobe.Case, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("load suite: %w", err)
	}

	return ParseSuite(string(b))
}

// ParseSuite decodes a suite from TOML. Keys left out keep their defaults:
// repeat is 1 and stdout must stay empty.
func ParseSuite(data string) ([]crashprobe.Case, error) {
	var raw fileSuite
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse suite: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("parse suite: unknown keys %s", strings.Join(keys, ", "))
	}

	if len(raw.Cases) == 0 {
		return nil, errors.New("parse suite: no cases")
	}

	cases := make([]crashprobe.Case, 0, len(raw.Cases))
	var errs []error
	for i, fc := range raw.Cases {
		c, err := convertCase(i, fc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cases = append(cases, c)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return cases, nil
}

func convertCase(i int, fc fileCase) (crashprobe.Case, error) {
	name := strings.TrimSpace(fc.Name)
	if name == "" {
		name = fmt.Sprintf("case-%d", i+1)
	}

	c := crashprobe.Case{
		Name:   name,
		Entry:  crashprobe.Entry(strings.TrimSpace(fc.Entry)),
		Args:   fc.Args,
		Repeat: 1,
		Expect: crashprobe.Expectation{
			StdoutEmpty: true,
			Signal:      strings.TrimSpace(fc.ExpectSignal),
		},
	}

	if fc.Repeat != nil {
		c.Repeat = *fc.Repeat
	}

	if fc.ExpectStderr != nil {
		c.Expect.Stderr = *fc.ExpectStderr
		c.Expect.MatchStderr = true
	}

	if fc.ExpectStdoutEmpty != nil {
		c.Expect.StdoutEmpty = *fc.ExpectStdoutEmpty
	}

	outcome, err := crashprobe.ParseOutcome(fc.ExpectOutcome)
	if err != nil {
		return crashprobe.Case{}, fmt.Errorf("case %q: %w", name, err)
	}
	c.Expect.Outcome = outcome

	if err := c.Validate(); err != nil {
		return crashprobe.Case{}, err
	}

	return c, nil
}
