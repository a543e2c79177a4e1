package review

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func sampleContext() *Context {
	return &Context{
		SpecSummary:    "Frame: CBF; Domain Events: OrderPlaced",
		ProgramSummary: "Files: 2",
		TestSummary:    "Test files: 1",
		SpecArtifacts: map[string]any{
			"frame.yaml": map[string]any{"frame_type": "CBF"},
		},
		ProgramArtifacts: map[string]string{
			"b/order.go": "package b\n",
			"a/total.go": "package a",
		},
		TestArtifacts: map[string]string{"order_test.go": "package b\n"},
	}
}

func TestBuildUserPrompt(t *testing.T) {
	p := BuildUserPrompt(sampleContext(), PromptOptions{})

	for _, want := range []string{
		"## SPECIFICATION",
		"frame_type: CBF",
		"Summary: Frame: CBF; Domain Events: OrderPlaced",
		"--- a/total.go ---",
		"--- order_test.go ---",
		"## TESTS",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Index(p, "a/total.go") > strings.Index(p, "b/order.go") {
		t.Error("program files should be emitted in sorted order")
	}
	if strings.Contains(p, "Only report issues of type") {
		t.Error("default scope should not narrow the prompt")
	}
}

func TestBuildUserPrompt_Stable(t *testing.T) {
	rc := sampleContext()
	first := BuildUserPrompt(rc, PromptOptions{})
	for i := 0; i < 10; i++ {
		if BuildUserPrompt(rc, PromptOptions{}) != first {
			t.Fatal("prompt differs between calls for identical input")
		}
	}
}

func TestBuildUserPrompt_TruncatesAndScopes(t *testing.T) {
	rc := sampleContext()
	rc.ProgramArtifacts = map[string]string{"big.go": strings.Repeat("x", 500)}

	p := BuildUserPrompt(rc, PromptOptions{MaxArtifactBytes: 100, Scope: ScopeProgramTest})
	if !strings.Contains(p, "[truncated]") {
		t.Error("oversized section should be truncated")
	}
	if strings.Contains(p, strings.Repeat("x", 200)) {
		t.Error("truncated section still contains the full artifact")
	}
	if !strings.Contains(p, "Only report issues of type: program_test_gap") {
		t.Error("scope instructions missing")
	}
}

func TestBuildUserPrompt_Empty(t *testing.T) {
	p := BuildUserPrompt(&Context{}, PromptOptions{})
	if !strings.Contains(p, "(none)") || !strings.Contains(p, "{}") {
		t.Errorf("empty context prompt:\n%s", p)
	}
}

func TestBuildArbiterPrompt(t *testing.T) {
	results := []AgentResult{
		Ok("chatgpt", []RawFinding{raw("program_test_gap", "Order#cancel", "cancel untested")}),
		Failed("codex", "timeout"),
	}
	p := BuildArbiterPrompt(results, &Context{SpecSummary: "Frame: CBF"}, Thresholds{})

	for _, want := range []string{
		`"model": "chatgpt"`,
		`"location": "Order#cancel"`,
		`"error": "timeout"`,
		"Specification: Frame: CBF",
		"Program: N/A",
		"confirmed_issues",
		"3 or more models agree",
		"Mark warnings (2 models agree)",
		"only 1 model",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("arbiter prompt missing %q", want)
		}
	}
}

func TestSystemPrompt(t *testing.T) {
	s := SystemPrompt()
	for _, typ := range IssueTypes {
		if !strings.Contains(s, string(typ)) {
			t.Errorf("system prompt missing issue type %s", typ)
		}
	}
}

func TestBuildArbiterPrompt_Thresholds(t *testing.T) {
	tests := []struct {
		t    Thresholds
		want []string
	}{
		{Thresholds{Error: 4, Warning: 2}, []string{"4 or more models agree", "(2 to 3 models agree)", "only 1 model"}},
		{Thresholds{Error: 5, Warning: 3}, []string{"5 or more models agree", "(3 to 4 models agree)", "fewer than 3 models"}},
	}
	for _, tt := range tests {
		p := BuildArbiterPrompt(nil, &Context{}, tt.t)
		for _, want := range tt.want {
			if !strings.Contains(p, want) {
				t.Errorf("%+v: arbiter prompt missing %q", tt.t, want)
			}
		}
		if strings.Contains(p, "3 or more models agree") && tt.t.Error != 3 {
			t.Errorf("%+v: prompt still quotes the default rule", tt.t)
		}
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"héllo", 2, "h"},
		{"héllo", 3, "hé"},
		{"日本語", 4, "日"},
		{"abc", 5, "abc"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) = %q, not valid UTF-8", tt.in, tt.max, got)
		}
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("truncate(%q, %d) = %q, want prefix %q", tt.in, tt.max, got, tt.want)
		}
		if len(tt.in) > tt.max && strings.HasPrefix(got, tt.in) {
			t.Errorf("truncate(%q, %d) did not cut", tt.in, tt.max)
		}
	}
}
