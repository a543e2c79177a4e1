package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/triad/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	ew.printf("## Triad Review: %s %s\n\n", mdStatusIcon(report.Status()), report.Status())
	if report.SpecDir != "" {
		ew.printf("Spec dir: `%s`\n\n", report.SpecDir)
	}

	ew.println("| Check | Count |")
	ew.println("|-------|-------|")
	ew.printf("| Passed | %d |\n", report.Passed)
	ew.printf("| Warnings | %d |\n", report.Warnings)
	ew.printf("| Errors | %d |\n", report.Errors)
	ew.printf("| **Total** | **%d** |\n\n", report.TotalChecks)

	if len(report.Issues) == 0 {
		ew.println("No issues found. :white_check_mark:")
		ew.println("")
	}

	for _, sev := range []review.Severity{review.SeverityError, review.SeverityWarning} {
		issues := issuesWithSeverity(report.Issues, sev)
		if len(issues) == 0 {
			continue
		}
		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(issues))

		for _, is := range issues {
			ew.printf("### %s %s\n\n", is.Label(), firstLine(is.Description))
			ew.printf("`%s`", is.Type)
			if is.Location != "" && is.Location != review.UnknownLocation {
				ew.printf(" | **`%s`**", is.Location)
			}
			ew.printf(" | Confidence: %s | Detected by: %s\n\n", is.Confidence, strings.Join(is.DetectedBy, ", "))
			if strings.Contains(is.Description, "\n") {
				ew.printf("%s\n\n", is.Description)
			}
			if is.SpecDefinition != "" {
				ew.printf("- **Spec:** %s\n", is.SpecDefinition)
			}
			if is.ActualImplementation != "" {
				ew.printf("- **Implementation:** %s\n", is.ActualImplementation)
			}
			if is.SpecDefinition != "" || is.ActualImplementation != "" {
				ew.println("")
			}
			if is.SuggestedFix != "" {
				ew.printf("**Suggested fix:**\n\n> %s\n\n", strings.ReplaceAll(is.SuggestedFix, "\n", "\n> "))
			}
			ew.printf("---\n\n")
		}
		ew.printf("</details>\n\n")
	}

	ew.println("#### Agents")
	ew.println("")
	ew.println("| Agent | Status | Findings | Reason |")
	ew.println("|-------|--------|----------|--------|")
	for _, a := range report.Agents {
		ew.printf("| %s | %s | %d | %s |\n", a.Name, mdAgentState(a), a.Findings, mdCell(a.Reason))
	}
	ew.println("")
	ew.printf("*Arbitration: %s", orDefault(string(report.Arbitration), "fallback"))
	if report.ArbiterError != "" {
		ew.printf(" (%s)", mdCell(report.ArbiterError))
	}
	ew.println("*")

	return ew.err
}

func issuesWithSeverity(issues []review.Issue, sev review.Severity) []review.Issue {
	var out []review.Issue
	for _, is := range issues {
		if is.Severity == sev {
			out = append(out, is)
		}
	}
	return out
}

func mdStatusIcon(s review.Status) string {
	switch s {
	case review.StatusPass:
		return ":white_check_mark:"
	case review.StatusConditionalPass:
		return ":warning:"
	default:
		return ":x:"
	}
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityError:
		return ":red_circle:"
	case review.SeverityWarning:
		return ":orange_circle:"
	default:
		return ":white_circle:"
	}
}

func mdAgentState(a review.AgentStatus) string {
	switch {
	case !a.Enabled:
		return "disabled"
	case a.OK:
		return "ok"
	default:
		return "error"
	}
}

// mdCell flattens s so it fits a single table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(firstLine(s), "|", `\|`)
	return strings.TrimSpace(s)
}
