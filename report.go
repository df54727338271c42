package crashprobe

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	passColor = lipgloss.Color("2")
	failColor = lipgloss.Color("1")
)

// WriteReport renders r as text. Colors are only used when color is true,
// typically when w is a terminal.
func WriteReport(w io.Writer, r Report, color bool) error {
	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(termenv.Ascii)
	if color {
		renderer.SetColorProfile(termenv.ANSI)
	}

	passStyle := renderer.NewStyle().Foreground(passColor)
	failStyle := renderer.NewStyle().Foreground(failColor)

	for _, c := range r.Cases {
		mark := passStyle.Render("PASS")
		if !c.Passed() {
			mark = failStyle.Render("FAIL")
		}

		if _, err := fmt.Fprintf(w, "%s %s (%d runs)%s\n", mark, c.Case.Name, len(c.Runs), summary(c)); err != nil {
			return err
		}

		for _, f := range c.Failures {
			if _, err := fmt.Fprintf(w, "    %s\n", f); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintf(w, "%d cases, %d failed\n", len(r.Cases), r.Failed())
	return err
}

func summary(c CaseReport) string {
	if len(c.Runs) == 0 {
		return ""
	}

	first := c.Runs[0]
	s := ": " + first.Outcome.String()
	if first.Fault != nil {
		s += " " + first.Fault.Signature()
	}
	if n := len(first.Artifacts); n > 0 {
		s += fmt.Sprintf(", %d artifacts", n)
	}
	return s
}
