package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dshills/triad/internal/review"
)

func TestTextWriter_NoIssues(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, emptyReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Status: PASS", "Total Checks: 10", "No issues found", "AGENTS", "claude", "Arbitration: arbiter"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("output to a non-terminal should not contain ANSI escapes")
	}
}

func TestTextWriter_WithIssues(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Status: FAILED",
		"ISSUE-001 Total ignores discounts",
		"ISSUE-002 Cancel is untested",
		"Detected by: chatgpt, gemini, qwen",
		"Location: order.go#Order.total",
		"Fix: Subtract discounts in Total",
		"gemini",
		"timeout",
		"disabled in config",
		"Arbitration: fallback (arbiter disabled)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Location: unknown") {
		t.Error("unknown location should be omitted")
	}
	if strings.Index(out, "ISSUE-001") > strings.Index(out, "ISSUE-002") {
		t.Error("issues should be printed in id order")
	}
}

func TestTextWriter_ConditionalPass(t *testing.T) {
	r := sampleReport()
	r.Errors = 0
	r.Issues = r.Issues[1:]

	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, r); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "Status: CONDITIONAL PASS") {
		t.Errorf("expected CONDITIONAL PASS:\n%s", buf.String())
	}
}

func TestTextWriter_InferredType(t *testing.T) {
	r := emptyReport()
	r.Warnings = 1
	r.Issues = []review.Issue{{
		ID: 1, Severity: review.SeverityWarning, Type: review.IssueSpecProgramMismatch,
		Description: "odd", DetectedBy: []string{"a", "b"}, Confidence: review.ConfidenceMedium, TypeInferred: true,
	}}

	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, r); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "(inferred)") {
		t.Error("inferred types should be marked")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("alpha beta gamma delta", 11)
	if len(lines) != 2 || lines[0] != "alpha beta" || lines[1] != "gamma delta" {
		t.Errorf("wrapText = %q", lines)
	}
	if got := wrapText("", 10); len(got) != 1 {
		t.Errorf("wrapText(empty) = %q", got)
	}
}
