package review

import (
	"errors"
	"reflect"
	"testing"
)

func findingWith(typ IssueType, loc string, agents ...string) Finding {
	return Finding{Key: Key{typ, loc}, Description: loc, Agents: agents}
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		t       Thresholds
		wantErr bool
	}{
		{"default", DefaultThresholds(), false},
		{"warning one", Thresholds{Error: 2, Warning: 1}, false},
		{"wide", Thresholds{Error: 5, Warning: 2}, false},
		{"equal", Thresholds{Error: 2, Warning: 2}, true},
		{"inverted", Thresholds{Error: 2, Warning: 3}, true},
		{"zero warning", Thresholds{Error: 3, Warning: 0}, true},
		{"negative error", Thresholds{Error: -1, Warning: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.t.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ce *ConfigError
				if !errors.As(err, &ce) {
					t.Errorf("error %T is not a *ConfigError", err)
				}
			}
		})
	}
}

func TestFallback_DefaultThresholds(t *testing.T) {
	findings := []Finding{
		findingWith(IssueSpecProgramMismatch, "three", "A", "B", "C"),
		findingWith(IssueProgramTestGap, "one", "D"),
		findingWith(IssueTestSpecMismatch, "two", "A", "B"),
		findingWith(IssueMetadataMismatch, "four", "A", "B", "C", "D"),
	}

	issues := Fallback(findings, DefaultThresholds())
	if len(issues) != 3 {
		t.Fatalf("got %d issues, want 3", len(issues))
	}

	want := []struct {
		id   int
		loc  string
		sev  Severity
		conf Confidence
		by   []string
	}{
		{1, "three", SeverityError, ConfidenceHigh, []string{"A", "B", "C"}},
		{2, "two", SeverityWarning, ConfidenceMedium, []string{"A", "B"}},
		{3, "four", SeverityError, ConfidenceHigh, []string{"A", "B", "C", "D"}},
	}
	for i, w := range want {
		is := issues[i]
		if is.ID != w.id || is.Location != w.loc || is.Severity != w.sev || is.Confidence != w.conf {
			t.Errorf("issues[%d] = {%d %s %s %s}, want {%d %s %s %s}",
				i, is.ID, is.Location, is.Severity, is.Confidence, w.id, w.loc, w.sev, w.conf)
		}
		if !reflect.DeepEqual(is.DetectedBy, w.by) {
			t.Errorf("issues[%d].DetectedBy = %v, want %v", i, is.DetectedBy, w.by)
		}
	}
}

func TestFallback_SeverityConfidencePairing(t *testing.T) {
	var findings []Finding
	for n := 1; n <= 6; n++ {
		agents := make([]string, n)
		for i := range agents {
			agents[i] = string(rune('A' + i))
		}
		findings = append(findings, findingWith(IssueProgramTestGap, string(rune('0'+n)), agents...))
	}
	for _, th := range []Thresholds{DefaultThresholds(), {Error: 4, Warning: 2}, {Error: 2, Warning: 1}} {
		for _, is := range Fallback(findings, th) {
			switch is.Severity {
			case SeverityError:
				if is.Confidence != ConfidenceHigh {
					t.Errorf("%+v: error issue with confidence %s", th, is.Confidence)
				}
			case SeverityWarning:
				if is.Confidence != ConfidenceMedium {
					t.Errorf("%+v: warning issue with confidence %s", th, is.Confidence)
				}
			default:
				t.Errorf("%+v: unexpected severity %s", th, is.Severity)
			}
		}
	}
}

func TestFallback_BetweenThresholdsIsWarning(t *testing.T) {
	issues := Fallback([]Finding{findingWith(IssueProgramTestGap, "x", "A", "B", "C")}, Thresholds{Error: 4, Warning: 2})
	if len(issues) != 1 || issues[0].Severity != SeverityWarning {
		t.Fatalf("3 agents with thresholds 4/2 should be a warning, got %+v", issues)
	}
}

func TestFallback_DoesNotAliasAgents(t *testing.T) {
	f := findingWith(IssueProgramTestGap, "x", "A", "B")
	issues := Fallback([]Finding{f}, DefaultThresholds())
	issues[0].DetectedBy[0] = "Z"
	if f.Agents[0] != "A" {
		t.Error("issue DetectedBy aliases the finding's agent slice")
	}
}

func TestIssuesFromVerdict(t *testing.T) {
	v := Verdict{
		Confirmed: []VerdictEntry{
			{Type: "spec_program_mismatch", Location: "Order#total", Description: "c1", DetectedBy: []string{"A", "B", "C"}, SuggestedFix: "fix"},
			{Type: "nonsense", Description: "c2"},
		},
		Warnings: []VerdictEntry{
			{Type: "program_test_gap", Location: "Order#cancel", Description: "w1", DetectedBy: []string{"D"}},
		},
		Discarded: []VerdictEntry{
			{Type: "test_spec_mismatch", Description: "d1"},
		},
	}

	issues := IssuesFromVerdict(v)
	if len(issues) != 3 {
		t.Fatalf("got %d issues, want 3 (discarded dropped)", len(issues))
	}
	for i, is := range issues {
		if is.ID != i+1 {
			t.Errorf("issues[%d].ID = %d, want %d", i, is.ID, i+1)
		}
	}
	if issues[0].Severity != SeverityError || issues[0].Confidence != ConfidenceHigh {
		t.Errorf("confirmed entry mapped to %s/%s", issues[0].Severity, issues[0].Confidence)
	}
	if issues[0].SuggestedFix != "fix" {
		t.Errorf("SuggestedFix = %q", issues[0].SuggestedFix)
	}
	if issues[1].Type != IssueSpecProgramMismatch || !issues[1].TypeInferred {
		t.Errorf("unknown verdict type should default and be flagged: %+v", issues[1])
	}
	if issues[1].Location != UnknownLocation {
		t.Errorf("missing verdict location = %q, want %q", issues[1].Location, UnknownLocation)
	}
	if issues[0].Location != "Order#total" {
		t.Errorf("Location = %q", issues[0].Location)
	}
	if issues[1].DetectedBy == nil {
		t.Error("DetectedBy should be an empty slice, not nil")
	}
	if issues[2].Severity != SeverityWarning || issues[2].Confidence != ConfidenceMedium {
		t.Errorf("warning entry mapped to %s/%s", issues[2].Severity, issues[2].Confidence)
	}
}

func TestScope_Filter(t *testing.T) {
	issues := []Issue{
		{ID: 1, Type: IssueSpecProgramMismatch},
		{ID: 2, Type: IssueProgramTestGap},
		{ID: 3, Type: IssueMetadataMismatch},
		{ID: 4, Type: IssueTestSpecMismatch},
	}

	got := ScopeSpecProgram.Filter(issues)
	if len(got) != 2 || got[0].Type != IssueSpecProgramMismatch || got[1].Type != IssueMetadataMismatch {
		t.Fatalf("spec-program filter = %+v", got)
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("filtered ids = %d,%d, want 1,2", got[0].ID, got[1].ID)
	}
	if issues[2].ID != 3 {
		t.Error("Filter mutated its input")
	}
	if len(ScopeAll.Filter(issues)) != 4 {
		t.Error("ScopeAll should keep everything")
	}
}

func TestParseScope(t *testing.T) {
	for _, s := range []string{"", "all", "spec-program", "program-test", "test-spec"} {
		if _, err := ParseScope(s); err != nil {
			t.Errorf("ParseScope(%q) error: %v", s, err)
		}
	}
	if _, err := ParseScope("everything"); err == nil {
		t.Error("expected error for unknown scope")
	}
}
