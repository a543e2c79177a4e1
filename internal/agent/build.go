package agent

import (
	"context"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/dshills/triad/internal/cache"
	"github.com/dshills/triad/internal/config"
	"github.com/dshills/triad/internal/logging"
	"github.com/dshills/triad/internal/providers"
	"github.com/dshills/triad/internal/review"
)

// Disabled-handle reasons.
const (
	ReasonDisabled  = "disabled in config"
	ReasonNoArbiter = "no arbiter configured"
)

// BackendFactory creates a provider from its spec.
type BackendFactory func(providers.Spec) (providers.Reviewer, error)

// BuildOptions controls Build.
type BuildOptions struct {
	// Probe runs each backend's availability check and disables the agents
	// that fail it.
	Probe   bool
	Cache   *cache.Cache
	Logger  *logging.Logger
	Backend BackendFactory
}

// Set is the outcome of Build.
type Set struct {
	Agents  []review.Handle
	Arbiter review.Handle
}

// Build creates a handle for every configured agent, in config order, plus
// the arbiter handle. The arbiter is built from its agent's backend settings
// even when that agent is disabled as a reviewer.
func Build(ctx context.Context, cfg *config.Config, opts BuildOptions) Set {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	newBackend := opts.Backend
	if newBackend == nil {
		newBackend = providers.New
	}

	names := cfg.AgentNames()
	set := Set{Agents: make([]review.Handle, len(names))}
	for i, name := range names {
		ac := cfg.Agents[name]
		if !ac.Enabled {
			set.Agents[i] = review.Handle{Agent: New(name, nil, agentOptions(cfg, ac, opts, log)), Reason: ReasonDisabled}
			continue
		}
		set.Agents[i] = handle(name, ac, cfg, opts, newBackend, log)
	}

	if cfg.Arbiter == "" || cfg.Arbiter == config.NoArbiter {
		set.Arbiter = review.Handle{Reason: ReasonNoArbiter}
	} else {
		set.Arbiter = handle(cfg.Arbiter, cfg.Agents[cfg.Arbiter], cfg, opts, newBackend, log)
	}

	if opts.Probe {
		probe(ctx, &set, log)
	}
	return set
}

func handle(name string, ac config.AgentConfig, cfg *config.Config, opts BuildOptions, newBackend BackendFactory, log *logging.Logger) review.Handle {
	backend, err := newBackend(Spec(ac))
	if err != nil {
		log.WithAgent(name).Warn("backend unavailable", "error", err)
		return review.Handle{Agent: New(name, nil, agentOptions(cfg, ac, opts, log)), Reason: err.Error()}
	}
	return review.Handle{
		Agent:   New(name, backend, agentOptions(cfg, ac, opts, log)),
		Enabled: true,
		Timeout: ac.Timeout,
	}
}

// Spec converts an agent's config into a provider spec.
func Spec(ac config.AgentConfig) providers.Spec {
	return providers.Spec{
		Provider: ac.Provider,
		Model:    ac.Model,
		Command:  ac.Command,
		Args:     ac.Args,
		Endpoint: ac.Endpoint,
	}
}

func agentOptions(cfg *config.Config, ac config.AgentConfig, opts BuildOptions, log *logging.Logger) Options {
	scope, _ := review.ParseScope(cfg.Review.Check)
	return Options{
		Model:     ac.Model,
		MaxTokens: cfg.Review.MaxTokens,
		Prompt: review.PromptOptions{
			MaxArtifactBytes: cfg.Review.MaxArtifactBytes,
			Scope:            scope,
		},
		Thresholds: cfg.Thresholds(),
		Cache:      opts.Cache,
		Logger:     log,
	}
}

// probe checks every enabled handle concurrently and disables the ones whose
// backend is unavailable.
func probe(ctx context.Context, set *Set, log *logging.Logger) {
	handles := make([]*review.Handle, 0, len(set.Agents)+1)
	for i := range set.Agents {
		handles = append(handles, &set.Agents[i])
	}
	handles = append(handles, &set.Arbiter)

	var wg conc.WaitGroup
	for _, h := range handles {
		if !h.Active() {
			continue
		}
		a, ok := h.Agent.(*Agent)
		if !ok {
			continue
		}
		wg.Go(func() {
			if err := a.Available(ctx); err != nil {
				log.WithAgent(a.Name()).Info("agent unavailable", "reason", err)
				h.Enabled = false
				h.Reason = firstLine(err.Error())
			}
		})
	}
	wg.Wait()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
