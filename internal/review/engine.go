package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/triad/internal/logging"
)

const (
	toolName    = "triad"
	toolVersion = "1.0"
)

// Default per-call bounds.
const (
	DefaultAgentTimeout   = 180 * time.Second
	DefaultArbiterTimeout = 180 * time.Second
)

// Options configures a review run.
type Options struct {
	Thresholds     Thresholds
	AgentTimeout   time.Duration
	ArbiterTimeout time.Duration
	// TotalChecks overrides the estimate when positive.
	TotalChecks    int
	ChecksPerAgent int
	Scope          Scope
	Logger         *logging.Logger

	// Now and NewRunID default to time.Now and a random UUID.
	Now      func() time.Time
	NewRunID func() string
}

// DefaultOptions returns the 3/2 thresholds with default timeouts.
func DefaultOptions() Options {
	return Options{
		Thresholds:     DefaultThresholds(),
		AgentTimeout:   DefaultAgentTimeout,
		ArbiterTimeout: DefaultArbiterTimeout,
		ChecksPerAgent: DefaultChecksPerAgent,
		Scope:          ScopeAll,
	}
}

// Run dispatches rc to every enabled agent, normalizes their findings,
// arbitrates (falling back to the counting rule when the arbiter is unusable)
// and assembles the report.
//
// Per-agent and arbiter failures never fail the run. A *ConfigError is
// returned before any dispatch when the options are invalid or two agents
// share a name; the context
// error is returned when the caller cancels the run.
func Run(ctx context.Context, agents []Handle, arbiter Handle, rc *Context, opts Options) (*Report, error) {
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}
	scope, err := ParseScope(string(opts.Scope))
	if err != nil {
		return nil, err
	}
	if err := uniqueNames(agents); err != nil {
		return nil, err
	}
	if rc == nil {
		rc = &Context{}
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = func() string { return uuid.NewString() }
	}

	runID := newRunID()
	log = log.With("run_id", runID)

	enabled := 0
	for _, h := range agents {
		if h.Active() {
			enabled++
		}
	}
	log.Info("review started", "agents", len(agents), "enabled", enabled, "arbiter", arbiter.Name())

	results := Dispatch(ctx, agents, rc, opts.AgentTimeout, log)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("review cancelled: %w", err)
	}

	findings := Normalize(results)
	log.Debug("normalized findings", "findings", len(findings))

	arb := arbitrate(ctx, arbiter, results, findings, rc, opts.Thresholds, opts.ArbiterTimeout, log)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("review cancelled: %w", err)
	}

	issues := scope.Filter(arb.issues)
	total := EstimateTotalChecks(opts.TotalChecks, opts.ChecksPerAgent, enabled)

	report := Assemble(issues, total, now(), log)
	report.Tool = toolName
	report.Version = toolVersion
	report.RunID = runID
	report.SpecDir = rc.SpecDir
	report.Arbitration = arb.path
	if arb.err != nil {
		report.ArbiterError = arb.err.Error()
	}
	report.Agents = Statuses(agents, results)

	log.Info("review finished",
		"arbitration", string(report.Arbitration),
		"errors", report.Errors,
		"warnings", report.Warnings,
		"passed", report.Passed)
	return report, nil
}

// uniqueNames rejects two handles with the same agent name, since results,
// votes and health entries are keyed by name.
func uniqueNames(agents []Handle) error {
	seen := make(map[string]bool, len(agents))
	for _, h := range agents {
		name := h.Name()
		if name == "" {
			continue
		}
		if seen[name] {
			return &ConfigError{Field: "agents", Message: fmt.Sprintf("duplicate agent name %q", name)}
		}
		seen[name] = true
	}
	return nil
}
