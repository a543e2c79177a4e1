package agent

import (
	"context"
	"fmt"

	"github.com/dshills/triad/internal/cache"
	"github.com/dshills/triad/internal/logging"
	"github.com/dshills/triad/internal/providers"
	"github.com/dshills/triad/internal/review"
)

const arbiterSystemPrompt = "You are a meticulous senior reviewer. Respond with ONLY the requested JSON object."

// Options tunes an Agent.
type Options struct {
	Model     string
	MaxTokens int
	Prompt    review.PromptOptions
	// Thresholds are quoted to the arbiter.
	Thresholds review.Thresholds
	Cache      *cache.Cache
	Logger     *logging.Logger
}

// Agent implements review.Agent and review.Arbiter over a providers.Reviewer.
type Agent struct {
	name    string
	backend providers.Reviewer
	opts    Options
	log     *logging.Logger
}

// New wraps backend as the agent called name. A nil backend yields an agent
// whose every call fails, which is how unavailable agents keep their name in
// the health summary.
func New(name string, backend providers.Reviewer, opts Options) *Agent {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Agent{name: name, backend: backend, opts: opts, log: log.WithAgent(name)}
}

func (a *Agent) Name() string { return a.name }

// Backend returns the wrapped provider, or nil.
func (a *Agent) Backend() providers.Reviewer { return a.backend }

// Available probes the backend.
func (a *Agent) Available(ctx context.Context) error {
	if a.backend == nil {
		return fmt.Errorf("no backend configured")
	}
	return providers.Probe(ctx, a.backend)
}

// Review asks the backend for findings about rc.
func (a *Agent) Review(ctx context.Context, rc *review.Context) review.AgentResult {
	if a.backend == nil {
		return review.Failed(a.name, "no backend configured")
	}
	system, user := review.SystemPrompt(), review.BuildUserPrompt(rc, a.opts.Prompt)
	content, err := a.complete(ctx, system, user)
	if err != nil {
		return review.Failed(a.name, err.Error())
	}
	findings, err := review.DecodeFindings(content)
	if err != nil {
		a.log.Debug("undecodable response", "error", err, "bytes", len(content))
		return review.Failed(a.name, "malformed response: "+err.Error())
	}
	a.store(system, user, content)
	return review.Ok(a.name, findings)
}

// Arbitrate asks the backend to classify every agent's findings.
func (a *Agent) Arbitrate(ctx context.Context, results []review.AgentResult, rc *review.Context) (review.Verdict, error) {
	if a.backend == nil {
		return review.Verdict{}, fmt.Errorf("no backend configured")
	}
	prompt := review.BuildArbiterPrompt(results, rc, a.opts.Thresholds)
	content, err := a.complete(ctx, arbiterSystemPrompt, prompt)
	if err != nil {
		return review.Verdict{}, err
	}
	v, err := review.DecodeVerdict(content)
	if err != nil {
		return review.Verdict{}, fmt.Errorf("malformed verdict: %w", err)
	}
	a.store(arbiterSystemPrompt, prompt, content)
	return v, nil
}

// complete returns a cached response when one exists, otherwise calls the
// backend.
func (a *Agent) complete(ctx context.Context, system, user string) (string, error) {
	key := a.cacheKey(system, user)
	if a.opts.Cache != nil {
		if content, ok := a.opts.Cache.Get(key); ok {
			a.log.Debug("cache hit")
			return content, nil
		}
	}

	resp, err := a.backend.Review(ctx, providers.ReviewRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		MaxTokens:    a.opts.MaxTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	a.log.Debug("backend responded", "tokens", resp.TokensUsed, "bytes", len(resp.Content))
	return resp.Content, nil
}

// store caches a response only once it decoded, so a malformed reply is
// retried on the next run.
func (a *Agent) store(system, user, content string) {
	if a.opts.Cache == nil {
		return
	}
	if err := a.opts.Cache.Put(a.cacheKey(system, user), a.name, content); err != nil {
		a.log.Warn("cache write failed", "error", err)
	}
}

func (a *Agent) cacheKey(system, user string) string {
	return cache.BuildKey(a.name, a.opts.Model, system, user)
}
