package review

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// DefaultMaxArtifactBytes bounds each artifact section embedded in a prompt.
const DefaultMaxArtifactBytes = 50000

const systemPrompt = `You are a code review expert specializing in verifying consistency between:
1. Specification (YAML specs defining requirements, domain events, invariants)
2. Program (implementation code)
3. Test (acceptance tests, unit tests)

Your task is to identify mismatches in the "Specification == Program == Test" triangle:
- Spec defines something the program does not implement
- Program implements something the spec does not define
- Program has behavior the tests do not cover
- Tests verify something the spec does not define

Focus on:
1. Domain events: spec properties vs implementation fields
2. Invariants: spec constraints vs code enforcement
3. Use cases: spec input/output vs service parameters
4. Acceptance criteria: spec scenarios vs test cases

You MUST respond with ONLY a JSON object. No markdown, no explanation, no preamble.

{
  "issues": [
    {
      "type": "spec_program_mismatch|program_test_gap|test_spec_mismatch|metadata_mismatch",
      "location": "file#element",
      "description": "What is wrong",
      "spec_definition": "What the spec says",
      "actual_implementation": "What the code does",
      "suggested_fix": "How to fix it"
    }
  ]
}

If there are no issues, respond with {"issues": []}`

// SystemPrompt returns the reviewer system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// PromptOptions tunes BuildUserPrompt.
type PromptOptions struct {
	MaxArtifactBytes int
	Scope            Scope
}

// BuildUserPrompt embeds the spec, program and test artifacts of rc. Each
// section is truncated to MaxArtifactBytes. Paths are emitted in sorted order
// so the prompt is stable for identical inputs.
func BuildUserPrompt(rc *Context, opts PromptOptions) string {
	maxBytes := opts.MaxArtifactBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxArtifactBytes
	}

	var b strings.Builder
	b.WriteString("Review the following for Specification == Program == Test consistency:\n")
	b.WriteString(opts.Scope.PromptSection())

	b.WriteString("\n## SPECIFICATION\n")
	if rc.SpecSummary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", rc.SpecSummary)
	}
	b.WriteString("```yaml\n")
	b.WriteString(truncate(specYAML(rc.SpecArtifacts), maxBytes))
	b.WriteString("\n```\n")

	b.WriteString("\n## PROGRAM\n")
	if rc.ProgramSummary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", rc.ProgramSummary)
	}
	b.WriteString(truncate(fileSection(rc.ProgramArtifacts), maxBytes))

	b.WriteString("\n## TESTS\n")
	if rc.TestSummary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", rc.TestSummary)
	}
	b.WriteString(truncate(fileSection(rc.TestArtifacts), maxBytes))

	b.WriteString("\nIdentify any mismatches and report them in JSON format.\n")
	return b.String()
}

// BuildArbiterPrompt asks the arbiter to classify every agent's findings
// using the agreement counts of t. Zero thresholds mean the 3/2 rule.
func BuildArbiterPrompt(results []AgentResult, rc *Context, t Thresholds) string {
	if t.Error <= 0 || t.Warning <= 0 {
		t = DefaultThresholds()
	}
	type entry struct {
		Model    string       `json:"model"`
		Findings []RawFinding `json:"findings,omitempty"`
		Error    string       `json:"error,omitempty"`
	}
	entries := make([]entry, len(results))
	for i, r := range results {
		entries[i] = entry{Model: r.Agent, Findings: r.Findings, Error: r.Err}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		data = []byte("[]")
	}

	return fmt.Sprintf(`You are the final arbiter for a multi-model code review.

Multiple AI models have reviewed the following context:
- Specification: %s
- Program: %s
- Tests: %s

Here are the findings from each model:
%s

Your task:
1. Cross-compare findings from all models
2. Identify true issues (%d or more models agree)
3. Mark warnings (%s models agree)
4. Discard likely false positives (%s)
5. Provide actionable fix suggestions

Respond with ONLY a JSON object:
{
  "confirmed_issues": [{"type": "...", "location": "...", "description": "...", "detected_by": ["model"], "suggested_fix": "..."}],
  "warnings": [],
  "discarded_as_false_positive": []
}
`, orNA(rc.SpecSummary), orNA(rc.ProgramSummary), orNA(rc.TestSummary), data,
		t.Error, countRange(t.Warning, t.Error-1), belowWarning(t.Warning))
}

func countRange(lo, hi int) string {
	if lo == hi {
		return fmt.Sprint(lo)
	}
	return fmt.Sprintf("%d to %d", lo, hi)
}

func belowWarning(warning int) string {
	if warning <= 2 {
		return "only 1 model"
	}
	return fmt.Sprintf("fewer than %d models", warning)
}

func specYAML(specs map[string]any) string {
	if len(specs) == 0 {
		return "{}"
	}
	data, err := yaml.Marshal(specs)
	if err != nil {
		return fmt.Sprintf("# unable to render specs: %v", err)
	}
	return strings.TrimRight(string(data), "\n")
}

func fileSection(files map[string]string) string {
	if len(files) == 0 {
		return "(none)\n"
	}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "\n--- %s ---\n", p)
		b.WriteString(files[p])
		if !strings.HasSuffix(files[p], "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// truncate cuts s to at most max bytes on a rune boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... [truncated]\n"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
