package review

import (
	"context"
	"sync/atomic"
	"time"
)

// stubAgent returns canned findings or a canned failure.
type stubAgent struct {
	name     string
	findings []RawFinding
	err      string
	delay    time.Duration
	panicMsg string
	// ignoreCtx makes the agent sleep through cancellation.
	ignoreCtx bool
	calls     atomic.Int32
}

func (s *stubAgent) Name() string { return s.name }

func (s *stubAgent) Review(ctx context.Context, _ *Context) AgentResult {
	s.calls.Add(1)
	if s.delay > 0 {
		if s.ignoreCtx {
			time.Sleep(s.delay)
		} else {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return Failed(s.name, ctx.Err().Error())
			}
		}
	}
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != "" {
		return Failed(s.name, s.err)
	}
	return Ok(s.name, s.findings)
}

// stubArbiter is a stubAgent that also arbitrates.
type stubArbiter struct {
	stubAgent
	verdict     Verdict
	arbErr      error
	arbitrated  atomic.Int32
	lastResults []AgentResult
}

func (s *stubArbiter) Arbitrate(_ context.Context, results []AgentResult, _ *Context) (Verdict, error) {
	s.arbitrated.Add(1)
	s.lastResults = results
	if s.arbErr != nil {
		return Verdict{}, s.arbErr
	}
	return s.verdict, nil
}

func handle(a Agent) Handle { return Handle{Agent: a, Enabled: true} }

func raw(typ, loc, desc string) RawFinding {
	return RawFinding{Type: typ, Location: loc, Description: desc}
}

func fixedOptions() Options {
	opts := DefaultOptions()
	opts.AgentTimeout = 2 * time.Second
	opts.ArbiterTimeout = 2 * time.Second
	opts.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	opts.NewRunID = func() string { return "run-fixed" }
	return opts
}
