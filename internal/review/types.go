package review

import "time"

// Severity represents the severity level of a review issue. It is derived by
// the arbiter or the fallback rule, never reported directly by an agent.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// IssueType classifies which edge of the spec/program/test triangle is broken.
type IssueType string

const (
	IssueSpecProgramMismatch IssueType = "spec_program_mismatch"
	IssueProgramTestGap      IssueType = "program_test_gap"
	IssueTestSpecMismatch    IssueType = "test_spec_mismatch"
	IssueMetadataMismatch    IssueType = "metadata_mismatch"
)

// IssueTypes lists every known issue type.
var IssueTypes = []IssueType{
	IssueSpecProgramMismatch,
	IssueProgramTestGap,
	IssueTestSpecMismatch,
	IssueMetadataMismatch,
}

// ParseIssueType maps a reported type string onto a known IssueType. Unknown
// or empty strings map to spec_program_mismatch and ok is false.
func ParseIssueType(s string) (t IssueType, ok bool) {
	for _, known := range IssueTypes {
		if string(known) == s {
			return known, true
		}
	}
	return IssueSpecProgramMismatch, false
}

// Confidence is the qualitative confidence attached to a review issue.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// UnknownLocation is used when an agent omits a finding location.
const UnknownLocation = "unknown"

// Context is the read-only bundle of artifacts every agent reviews. It is
// built once per run by the artifact collector.
type Context struct {
	SpecDir          string            `json:"spec_dir,omitempty" yaml:"spec_dir,omitempty"`
	SpecSummary      string            `json:"spec_summary" yaml:"spec_summary"`
	ProgramSummary   string            `json:"program_summary" yaml:"program_summary"`
	TestSummary      string            `json:"test_summary" yaml:"test_summary"`
	SpecArtifacts    map[string]any    `json:"spec_artifacts" yaml:"spec_artifacts"`
	ProgramArtifacts map[string]string `json:"program_artifacts" yaml:"program_artifacts"`
	TestArtifacts    map[string]string `json:"test_artifacts" yaml:"test_artifacts"`
}

// RawFinding is one finding as an agent reported it, projected from the
// agent's untyped response envelope. Type and Location are kept verbatim.
type RawFinding struct {
	Type                 string `json:"type"`
	Location             string `json:"location,omitempty"`
	Description          string `json:"description"`
	SpecDefinition       string `json:"spec_definition,omitempty"`
	ActualImplementation string `json:"actual_implementation,omitempty"`
	SuggestedFix         string `json:"suggested_fix,omitempty"`
}

// AgentResult is the outcome of one agent's review call. Exactly one of
// Findings (Err == "") or Err is meaningful.
type AgentResult struct {
	Agent    string        `json:"agent"`
	Findings []RawFinding  `json:"findings,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

// OK reports whether the agent call succeeded.
func (r AgentResult) OK() bool { return r.Err == "" }

// Ok builds a successful result.
func Ok(agent string, findings []RawFinding) AgentResult {
	return AgentResult{Agent: agent, Findings: findings}
}

// Failed builds a failed result carrying reason.
func Failed(agent, reason string) AgentResult {
	if reason == "" {
		reason = "unknown error"
	}
	return AgentResult{Agent: agent, Err: reason}
}

// Key identifies "the same issue" across agents: exact, case-sensitive
// equality of type and location.
type Key struct {
	Type     IssueType
	Location string
}

func (k Key) String() string { return string(k.Type) + ":" + k.Location }

// Finding is a normalized, deduplicated candidate issue. Agents is never empty
// and holds agent names in first-reported order.
type Finding struct {
	Key                  Key
	Description          string
	SuggestedFix         string
	SpecDefinition       string
	ActualImplementation string
	Agents               []string
	// LowConfidence marks findings whose reported type was unknown.
	LowConfidence bool
}

// Verdict is the arbiter's final classification of all raw findings.
type Verdict struct {
	Confirmed []VerdictEntry `json:"confirmed_issues"`
	Warnings  []VerdictEntry `json:"warnings"`
	Discarded []VerdictEntry `json:"discarded_as_false_positive"`
}

// VerdictEntry is a single entry of an arbiter verdict group.
type VerdictEntry struct {
	Type         string   `json:"type"`
	Location     string   `json:"location,omitempty"`
	Description  string   `json:"description"`
	DetectedBy   []string `json:"detected_by"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

// Issue is a final, severity-ranked review issue.
type Issue struct {
	ID                   int        `json:"id" yaml:"id"`
	Severity             Severity   `json:"severity" yaml:"severity"`
	Type                 IssueType  `json:"type" yaml:"type"`
	Location             string     `json:"location,omitempty" yaml:"location,omitempty"`
	Description          string     `json:"description" yaml:"description"`
	DetectedBy           []string   `json:"detected_by" yaml:"detected_by"`
	Confidence           Confidence `json:"confidence" yaml:"confidence"`
	SuggestedFix         string     `json:"suggested_fix,omitempty" yaml:"suggested_fix,omitempty"`
	SpecDefinition       string     `json:"spec_definition,omitempty" yaml:"spec_definition,omitempty"`
	ActualImplementation string     `json:"actual_implementation,omitempty" yaml:"actual_implementation,omitempty"`
	// TypeInferred is set when the reported type was missing or unknown and
	// Type was defaulted to spec_program_mismatch.
	TypeInferred bool `json:"type_inferred,omitempty" yaml:"type_inferred,omitempty"`
}

// Label returns the display identifier of an issue, e.g. ISSUE-007.
func (i Issue) Label() string {
	return formatIssueID(i.ID)
}

// Arbitration records which path produced the issue list.
type Arbitration string

const (
	ArbitrationArbiter  Arbitration = "arbiter"
	ArbitrationFallback Arbitration = "fallback"
)

// AgentStatus is the per-agent health line carried by every report.
type AgentStatus struct {
	Name     string `json:"name" yaml:"name"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	OK       bool   `json:"ok" yaml:"ok"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Findings int    `json:"findings" yaml:"findings"`
}

// Report is the durable output of a review run.
type Report struct {
	Tool         string        `json:"tool" yaml:"tool"`
	Version      string        `json:"version" yaml:"version"`
	RunID        string        `json:"run_id" yaml:"run_id"`
	Timestamp    time.Time     `json:"timestamp" yaml:"timestamp"`
	SpecDir      string        `json:"spec_dir,omitempty" yaml:"spec_dir,omitempty"`
	TotalChecks  int           `json:"total_checks" yaml:"total_checks"`
	Passed       int           `json:"passed" yaml:"passed"`
	Warnings     int           `json:"warnings" yaml:"warnings"`
	Errors       int           `json:"errors" yaml:"errors"`
	Arbitration  Arbitration   `json:"arbitration" yaml:"arbitration"`
	ArbiterError string        `json:"arbiter_error,omitempty" yaml:"arbiter_error,omitempty"`
	Agents       []AgentStatus `json:"agents" yaml:"agents"`
	Issues       []Issue       `json:"issues" yaml:"issues"`
}

// Status is the overall verdict line for a report.
type Status string

const (
	StatusPass            Status = "PASS"
	StatusConditionalPass Status = "CONDITIONAL PASS"
	StatusFailed          Status = "FAILED"
)

// Status derives the overall verdict from the counts.
func (r *Report) Status() Status {
	switch {
	case r.Errors > 0:
		return StatusFailed
	case r.Warnings > 0:
		return StatusConditionalPass
	default:
		return StatusPass
	}
}
