package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dshills/triad/internal/agent"
	"github.com/dshills/triad/internal/config"
	"github.com/dshills/triad/internal/review"
)

var flagProbe bool

const probeBudget = 30 * time.Second

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List configured agents and the arbiter",
	Long:  "List every configured agent with its backend and state. With --probe each backend's availability check is run.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), probeBudget)
		defer cancel()
		set := agent.Build(ctx, cfg, agent.BuildOptions{Probe: flagProbe, Backend: newBackend})

		printAgents(cmd.OutOrStdout(), cfg, set)
		return nil
	},
}

func printAgents(w io.Writer, cfg *config.Config, set agent.Set) {
	r := lipgloss.NewRenderer(w)
	ok := r.NewStyle().Foreground(lipgloss.Color("42"))
	bad := r.NewStyle().Foreground(lipgloss.Color("196"))
	dim := r.NewStyle().Foreground(lipgloss.Color("241"))
	bold := r.NewStyle().Bold(true)

	fmt.Fprintln(w, bold.Render("Agents"))
	for _, h := range set.Agents {
		ac := cfg.Agents[h.Name()]
		state := ok.Render("ready")
		if !h.Active() {
			if h.Reason == agent.ReasonDisabled {
				state = dim.Render(h.Reason)
			} else {
				state = bad.Render("unavailable: " + h.Reason)
			}
		}
		marker := "  "
		if h.Name() == cfg.Arbiter {
			marker = "* "
		}
		fmt.Fprintf(w, "%s%-10s %-28s %s\n", marker, h.Name(), backendLabel(ac), state)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", bold.Render("Arbiter:"), arbiterLabel(cfg, set.Arbiter, ok, bad))
}

func arbiterLabel(cfg *config.Config, h review.Handle, ok, bad lipgloss.Style) string {
	if cfg.Arbiter == "" || cfg.Arbiter == config.NoArbiter {
		return "none (counting fallback)"
	}
	if !h.Active() {
		return cfg.Arbiter + " " + bad.Render("unavailable: "+h.Reason) + " (counting fallback)"
	}
	return cfg.Arbiter + " " + ok.Render("ready")
}

func backendLabel(ac config.AgentConfig) string {
	switch strings.ToLower(ac.Provider) {
	case "command", "cli":
		return "command:" + ac.Command
	default:
		if ac.Model == "" {
			return ac.Provider
		}
		return ac.Provider + ":" + ac.Model
	}
}

func init() {
	agentsCmd.Flags().BoolVar(&flagProbe, "probe", false, "Run each backend's availability check")
}
