package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/dshills/triad/internal/logging"
)

// Dispatch runs Review on every active handle concurrently and returns one
// result per active handle in handle order, regardless of completion order.
// Each call gets its own deadline; a slow or failing agent never delays the
// others beyond its own timeout. There are no retries at this layer.
func Dispatch(ctx context.Context, handles []Handle, rc *Context, timeout time.Duration, log *logging.Logger) []AgentResult {
	if log == nil {
		log = logging.Nop()
	}
	log = log.WithPhase("dispatch")

	active := make([]Handle, 0, len(handles))
	for _, h := range handles {
		if !h.Active() {
			log.Info("agent unavailable", "agent", h.Name(), "reason", h.Reason)
			continue
		}
		active = append(active, h)
	}

	results := make([]AgentResult, len(active))
	var wg conc.WaitGroup
	for i, h := range active {
		wg.Go(func() {
			d := timeout
			if h.Timeout > 0 {
				d = h.Timeout
			}
			results[i] = callAgent(ctx, h.Agent, rc, d)

			agentLog := log.WithAgent(h.Name())
			if results[i].OK() {
				agentLog.Info("agent ok",
					"findings", len(results[i].Findings),
					"duration_ms", results[i].Duration.Milliseconds())
			} else {
				agentLog.Warn("agent failed",
					"reason", results[i].Err,
					"duration_ms", results[i].Duration.Milliseconds())
			}
		})
	}
	wg.Wait()

	return results
}

// callAgent performs a single bounded Review call. The agent runs on its own
// goroutine so that an agent ignoring its context is abandoned at the
// deadline rather than awaited.
func callAgent(ctx context.Context, a Agent, rc *Context, timeout time.Duration) AgentResult {
	name := a.Name()
	start := time.Now()

	callCtx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	done := make(chan AgentResult, 1)
	go func() {
		var pc panics.Catcher
		var res AgentResult
		pc.Try(func() { res = a.Review(callCtx, rc) })
		if r := pc.Recovered(); r != nil {
			res = Failed(name, fmt.Sprintf("panic: %v", r.Value))
		}
		done <- res
	}()

	var res AgentResult
	select {
	case res = <-done:
		if !res.OK() && callCtx.Err() != nil {
			res = Failed(name, interruptReason(ctx, callCtx))
		}
	case <-callCtx.Done():
		res = Failed(name, interruptReason(ctx, callCtx))
	}

	res.Agent = name
	if !res.OK() {
		// A failed call contributes zero findings.
		res.Findings = nil
	}
	res.Duration = time.Since(start)
	return res
}

func interruptReason(parent, call context.Context) string {
	if parent.Err() != nil {
		return reasonCancelled
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return reasonTimeout
	}
	return reasonCancelled
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
