package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/triad/internal/agent"
	"github.com/dshills/triad/internal/cache"
	"github.com/dshills/triad/internal/collect"
	"github.com/dshills/triad/internal/config"
	"github.com/dshills/triad/internal/logging"
	"github.com/dshills/triad/internal/output"
	"github.com/dshills/triad/internal/providers"
	"github.com/dshills/triad/internal/review"
)

// Review flags
var (
	flagSpecDir    string
	flagProgramDir string
	flagTestDir    string
	flagFormat     string
	flagOut        string
	flagModels     string
	flagCheck      string
	flagLogLevel   string
	flagNoCache    bool
	flagNoRedact   bool
	flagNoProbe    bool
)

// newBackend creates provider backends. Tests replace it with fakes.
var newBackend agent.BackendFactory = providers.New

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagSpecDir, "spec-dir", "", "Specification directory (YAML specs)")
	cmd.Flags().StringVar(&flagProgramDir, "program-dir", "", "Program source directory")
	cmd.Flags().StringVar(&flagTestDir, "test-dir", "", "Test directory")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, yaml, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagModels, "models", "", "Comma-separated agents to use (default: all enabled)")
	cmd.Flags().StringVar(&flagCheck, "check", "", "Checks to report (all, spec-program, program-test, test-spec)")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoProbe, "no-probe", false, "Skip backend availability probes")
	_ = cmd.MarkFlagRequired("spec-dir")
	_ = cmd.MarkFlagRequired("program-dir")
	_ = cmd.MarkFlagRequired("test-dir")
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// loadConfig loads the effective config, applies review flag overrides and
// validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) error {
	if flagFormat != "" {
		cfg.Output.Format = flagFormat
	}
	if flagOut != "" {
		cfg.Output.Path = flagOut
	}
	if flagCheck != "" {
		cfg.Review.Check = flagCheck
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
	}
	if flagModels != "" {
		return cfg.RestrictAgents(splitComma(flagModels))
	}
	return nil
}

func reviewOptions(cfg *config.Config, log *logging.Logger) review.Options {
	scope, _ := review.ParseScope(cfg.Review.Check)
	return review.Options{
		Thresholds:     cfg.Thresholds(),
		AgentTimeout:   cfg.Review.Timeout,
		ArbiterTimeout: cfg.Review.ArbiterTimeout,
		TotalChecks:    cfg.Review.TotalChecks,
		ChecksPerAgent: cfg.Review.ChecksPerAgent,
		Scope:          scope,
		Logger:         log,
	}
}

func collectOptions(cfg *config.Config) collect.Options {
	opts := collect.DefaultOptions(flagSpecDir, flagProgramDir, flagTestDir)
	opts.RedactSecrets = cfg.Privacy.RedactSecrets
	opts.RedactPaths = append(opts.RedactPaths, cfg.Privacy.RedactPaths...)
	return opts
}

func runReview(cmd *cobra.Command, cfg *config.Config) {
	stderr := cmd.ErrOrStderr()
	if !cfg.Privacy.RedactSecrets {
		fmt.Fprintln(stderr, "WARNING: secret redaction is disabled")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := logging.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	defer log.Close()

	c, err := cache.New(cache.Options{
		Enabled:       cfg.Cache.Enabled,
		Dir:           cfg.Cache.Dir,
		TTLSeconds:    cfg.Cache.TTLSeconds,
		MemoryEntries: cfg.Cache.MemoryEntries,
	})
	if err != nil {
		log.Warn("cache unavailable, continuing without it", "error", err)
		c, _ = cache.New(cache.Options{})
	}

	res, err := collect.Collect(collectOptions(cfg))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		exitCode = ExitInputError
		return
	}
	for _, w := range res.Warnings {
		log.WithPhase("collect").Warn(w)
	}

	set := agent.Build(ctx, cfg, agent.BuildOptions{
		Probe:   !flagNoProbe,
		Cache:   c,
		Logger:  log,
		Backend: newBackend,
	})

	report, err := review.Run(ctx, set.Agents, set.Arbiter, res.Context, reviewOptions(cfg, log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var cfgErr *review.ConfigError
		if errors.As(err, &cfgErr) {
			exitCode = ExitUsageError
		} else {
			exitCode = ExitRuntimeError
		}
		return
	}

	if err := writeReport(cmd, report, cfg.Output.Format, cfg.Output.Path); err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if cfg.Output.Path != "" {
		fmt.Fprintf(stderr, "Report saved to: %s (%s)\n", cfg.Output.Path, report.Status())
	}

	if report.Errors > 0 {
		exitCode = ExitFindings
	}
}

// writeReport renders to the command's stdout unless a path is set.
func writeReport(cmd *cobra.Command, report *review.Report, format, path string) error {
	if path != "" {
		return output.WriteReport(report, format, path)
	}
	w, err := output.GetWriter(format)
	if err != nil {
		return err
	}
	return w.Write(cmd.OutOrStdout(), report)
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Check that the spec, program and tests agree",
	Long: "Review dispatches the spec, program and test artifacts to every enabled agent in parallel, " +
		"arbitrates their findings and prints a report. The exit code is 1 when any error-level issue is found.",
	Example: "  triad review --spec-dir docs/specs/order --program-dir src --test-dir tests",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runReview(cmd, cfg)
		return nil
	},
}

func init() {
	addReviewFlags(reviewCmd)
}
