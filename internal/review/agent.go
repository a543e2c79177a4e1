package review

import (
	"context"
	"errors"
	"time"
)

// Agent is one review backend. Review must never panic or return a partial
// result: every internal failure (transport error, non-zero exit, malformed
// payload, cancellation) is reported through AgentResult.Err.
type Agent interface {
	Name() string
	Review(ctx context.Context, rc *Context) AgentResult
}

// Arbiter is an Agent that can additionally issue a final verdict over every
// agent's raw findings.
type Arbiter interface {
	Agent
	Arbitrate(ctx context.Context, results []AgentResult, rc *Context) (Verdict, error)
}

// Handle pairs an agent with the availability decided at construction time.
// A disabled handle is never dispatched.
type Handle struct {
	Agent   Agent
	Enabled bool
	// Timeout overrides the run-wide per-agent timeout when positive.
	Timeout time.Duration
	// Reason explains why the handle is disabled, if known.
	Reason string
}

// Name returns the agent name, or "" for an empty handle.
func (h Handle) Name() string {
	if h.Agent == nil {
		return ""
	}
	return h.Agent.Name()
}

// Active reports whether the handle can be dispatched.
func (h Handle) Active() bool {
	return h.Enabled && h.Agent != nil
}

// ErrArbiterDisabled is returned when the designated arbiter is unavailable.
var ErrArbiterDisabled = errors.New("arbiter disabled")

// ErrNotArbiter is returned when the designated arbiter agent cannot arbitrate.
var ErrNotArbiter = errors.New("designated arbiter does not support arbitration")

const (
	reasonTimeout   = "timeout"
	reasonCancelled = "cancelled"
)
