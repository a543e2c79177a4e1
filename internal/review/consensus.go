package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/dshills/triad/internal/logging"
)

// Default corroboration thresholds for the fallback rule.
const (
	DefaultErrorThreshold   = 3
	DefaultWarningThreshold = 2
)

// ConfigError reports an invalid configuration. It is the only error that
// aborts a run, and it does so before any agent is dispatched.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// Thresholds are the corroboration counts of the fallback rule.
type Thresholds struct {
	Error   int
	Warning int
}

// DefaultThresholds returns the 3/2 rule.
func DefaultThresholds() Thresholds {
	return Thresholds{Error: DefaultErrorThreshold, Warning: DefaultWarningThreshold}
}

// Validate requires error > warning >= 1.
func (t Thresholds) Validate() error {
	if t.Warning < 1 {
		return &ConfigError{Field: "consensus.warning_threshold", Message: fmt.Sprintf("must be a positive integer, got %d", t.Warning)}
	}
	if t.Error < 1 {
		return &ConfigError{Field: "consensus.error_threshold", Message: fmt.Sprintf("must be a positive integer, got %d", t.Error)}
	}
	if t.Error <= t.Warning {
		return &ConfigError{
			Field:   "consensus.error_threshold",
			Message: fmt.Sprintf("must be greater than warning threshold (%d <= %d)", t.Error, t.Warning),
		}
	}
	return nil
}

// classify maps a corroboration count to a severity. Counts between the two
// thresholds are warnings; counts below the warning threshold are discarded
// as likely noise.
func (t Thresholds) classify(n int) (Severity, Confidence, bool) {
	switch {
	case n >= t.Error:
		return SeverityError, ConfidenceHigh, true
	case n >= t.Warning:
		return SeverityWarning, ConfidenceMedium, true
	default:
		return "", "", false
	}
}

// Fallback applies the corroboration-count rule to normalized findings.
// Issue ids follow the order in which keys were first seen.
func Fallback(findings []Finding, t Thresholds) []Issue {
	issues := make([]Issue, 0, len(findings))
	for _, f := range findings {
		sev, conf, keep := t.classify(len(f.Agents))
		if !keep {
			continue
		}
		issues = append(issues, Issue{
			ID:                   len(issues) + 1,
			Severity:             sev,
			Type:                 f.Key.Type,
			Location:             f.Key.Location,
			Description:          f.Description,
			DetectedBy:           append([]string(nil), f.Agents...),
			Confidence:           conf,
			SuggestedFix:         f.SuggestedFix,
			SpecDefinition:       f.SpecDefinition,
			ActualImplementation: f.ActualImplementation,
			TypeInferred:         f.LowConfidence,
		})
	}
	return issues
}

// IssuesFromVerdict converts an arbiter verdict into issues: confirmed entries
// become errors, warnings become warnings, discarded entries are dropped.
// Ids run from 1 across confirmed then warnings, in verdict order.
func IssuesFromVerdict(v Verdict) []Issue {
	issues := make([]Issue, 0, len(v.Confirmed)+len(v.Warnings))
	add := func(e VerdictEntry, sev Severity, conf Confidence) {
		t, known := ParseIssueType(e.Type)
		detected := append([]string{}, e.DetectedBy...)
		loc := e.Location
		if strings.TrimSpace(loc) == "" {
			loc = UnknownLocation
		}
		issues = append(issues, Issue{
			ID:           len(issues) + 1,
			Severity:     sev,
			Type:         t,
			Location:     loc,
			Description:  e.Description,
			DetectedBy:   detected,
			Confidence:   conf,
			SuggestedFix: e.SuggestedFix,
			TypeInferred: !known,
		})
	}
	for _, e := range v.Confirmed {
		add(e, SeverityError, ConfidenceHigh)
	}
	for _, e := range v.Warnings {
		add(e, SeverityWarning, ConfidenceMedium)
	}
	return issues
}

// arbitration is the outcome of arbitrate.
type arbitration struct {
	issues []Issue
	path   Arbitration
	err    error
}

// arbitrate tries the designated arbiter and falls back to the counting rule
// over findings when the arbiter is disabled, cannot arbitrate, or fails.
func arbitrate(ctx context.Context, arbiter Handle, results []AgentResult, findings []Finding, rc *Context, t Thresholds, timeout time.Duration, log *logging.Logger) arbitration {
	log = log.WithPhase("arbitrate")

	verdict, err := callArbiter(ctx, arbiter, results, rc, timeout)
	if err != nil {
		log.Warn("arbiter unavailable, using consensus fallback",
			"arbiter", arbiter.Name(), "error", err.Error())
		return arbitration{
			issues: Fallback(findings, t),
			path:   ArbitrationFallback,
			err:    err,
		}
	}

	log.Info("arbiter verdict",
		"arbiter", arbiter.Name(),
		"confirmed", len(verdict.Confirmed),
		"warnings", len(verdict.Warnings),
		"discarded", len(verdict.Discarded))
	return arbitration{issues: IssuesFromVerdict(verdict), path: ArbitrationArbiter}
}

func callArbiter(ctx context.Context, h Handle, results []AgentResult, rc *Context, timeout time.Duration) (Verdict, error) {
	if !h.Active() {
		return Verdict{}, ErrArbiterDisabled
	}
	a, ok := h.Agent.(Arbiter)
	if !ok {
		return Verdict{}, ErrNotArbiter
	}
	if h.Timeout > 0 {
		timeout = h.Timeout
	}

	callCtx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		v   Verdict
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		var pc panics.Catcher
		var o outcome
		pc.Try(func() { o.v, o.err = a.Arbitrate(callCtx, results, rc) })
		if r := pc.Recovered(); r != nil {
			o = outcome{err: r.AsError()}
		}
		done <- o
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return Verdict{}, fmt.Errorf("arbitrate: %w", o.err)
		}
		return o.v, nil
	case <-callCtx.Done():
		return Verdict{}, fmt.Errorf("arbitrate: %s", interruptReason(ctx, callCtx))
	}
}
