package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/triad/internal/review"
)

const (
	ruleWidth = 60
	wrapWidth = 70
	fixLimit  = 100
)

// TextWriter outputs a human-readable text report. Colors are applied only
// when w is a terminal.
type TextWriter struct{}

type textStyles struct {
	header  lipgloss.Style
	pass    lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	dim     lipgloss.Style
	section lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	return textStyles{
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1),
		pass:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warn:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		fail:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("241")),
		section: r.NewStyle().Bold(true),
	}
}

func (s textStyles) status(st review.Status) string {
	switch st {
	case review.StatusPass:
		return s.pass.Render(string(st))
	case review.StatusConditionalPass:
		return s.warn.Render(string(st))
	default:
		return s.fail.Render(string(st))
	}
}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	st := newTextStyles(w)

	ew.println(st.header.Render("Triad Review Report"))
	ew.printf("Timestamp: %s\n", report.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	if report.SpecDir != "" {
		ew.printf("Spec Dir:  %s\n", report.SpecDir)
	}
	if report.RunID != "" {
		ew.printf("Run ID:    %s\n", st.dim.Render(report.RunID))
	}
	ew.println(strings.Repeat("─", ruleWidth))
	ew.printf("Total Checks: %d\n", report.TotalChecks)
	ew.printf("Passed:       %d\n", report.Passed)
	ew.printf("Warnings:     %d\n", report.Warnings)
	ew.printf("Errors:       %d\n", report.Errors)
	ew.println(strings.Repeat("─", ruleWidth))
	ew.printf("Status: %s\n", st.status(report.Status()))

	writeIssuesText(ew, st, report.Issues)
	writeAgentsText(ew, st, report)

	return ew.err
}

func writeIssuesText(ew *errWriter, st textStyles, issues []review.Issue) {
	if len(issues) == 0 {
		ew.println("\nNo issues found.")
		return
	}
	ew.printf("\n%s\n", st.section.Render("ISSUES"))
	for _, is := range issues {
		ew.printf("\n  %s %s %s\n", severityIcon(st, is.Severity), is.Label(), firstLine(is.Description))
		ew.printf("      Type: %s", is.Type)
		if is.TypeInferred {
			ew.printf(" %s", st.dim.Render("(inferred)"))
		}
		ew.println("")
		if is.Location != "" && is.Location != review.UnknownLocation {
			ew.printf("      Location: %s\n", is.Location)
		}
		ew.printf("      Detected by: %s\n", strings.Join(is.DetectedBy, ", "))
		ew.printf("      Confidence: %s\n", is.Confidence)
		if is.SuggestedFix != "" {
			lines := wrapText(clip(is.SuggestedFix, fixLimit), wrapWidth)
			ew.printf("      Fix: %s\n", lines[0])
			for _, line := range lines[1:] {
				ew.printf("           %s\n", line)
			}
		}
	}
}

func writeAgentsText(ew *errWriter, st textStyles, report *review.Report) {
	ew.printf("\n%s\n", st.section.Render("AGENTS"))
	for _, a := range report.Agents {
		switch {
		case !a.Enabled:
			ew.printf("  %s %-10s %s\n", st.dim.Render("[-]"), a.Name, st.dim.Render(orDefault(a.Reason, "disabled")))
		case a.OK:
			ew.printf("  %s %-10s %d finding(s)\n", st.pass.Render("[ok]"), a.Name, a.Findings)
		default:
			ew.printf("  %s %-10s %s\n", st.fail.Render("[!!]"), a.Name, firstLine(a.Reason))
		}
	}
	switch {
	case report.Arbitration == review.ArbitrationArbiter:
		ew.println("  Arbitration: arbiter")
	case report.ArbiterError != "":
		ew.printf("  Arbitration: fallback (%s)\n", firstLine(report.ArbiterError))
	default:
		ew.printf("  Arbitration: %s\n", orDefault(string(report.Arbitration), "fallback"))
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func severityIcon(st textStyles, s review.Severity) string {
	switch s {
	case review.SeverityError:
		return st.fail.Render("[!!]")
	case review.SeverityWarning:
		return st.warn.Render("[!]")
	default:
		return "[-]"
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
