package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dshills/triad/internal/logging"
	"github.com/dshills/triad/internal/review"
)

const (
	appName   = "triad"
	fileName  = "triad.yaml"
	envPrefix = "TRIAD"
)

// NoArbiter disables the arbiter so every run uses the counting fallback.
const NoArbiter = "none"

// Config represents the triad configuration.
type Config struct {
	Agents    map[string]AgentConfig `mapstructure:"agents" yaml:"agents"`
	Arbiter   string                 `mapstructure:"arbiter" yaml:"arbiter"`
	Consensus ConsensusConfig        `mapstructure:"consensus" yaml:"consensus"`
	Review    ReviewConfig           `mapstructure:"review" yaml:"review"`
	Output    OutputConfig           `mapstructure:"output" yaml:"output"`
	Privacy   PrivacyConfig          `mapstructure:"privacy" yaml:"privacy"`
	Cache     CacheConfig            `mapstructure:"cache" yaml:"cache"`
	Logging   LoggingConfig          `mapstructure:"logging" yaml:"logging"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// AgentConfig selects the backend for one named agent.
type AgentConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Provider is anthropic, openai, gemini, ollama or command.
	Provider string        `mapstructure:"provider" yaml:"provider"`
	Model    string        `mapstructure:"model" yaml:"model,omitempty"`
	Command  string        `mapstructure:"command" yaml:"command,omitempty"`
	Args     []string      `mapstructure:"args" yaml:"args,omitempty"`
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// ConsensusConfig holds the agreement thresholds for the fallback rule.
type ConsensusConfig struct {
	ErrorThreshold   int `mapstructure:"error_threshold" yaml:"error_threshold"`
	WarningThreshold int `mapstructure:"warning_threshold" yaml:"warning_threshold"`
}

// ReviewConfig controls a review run.
type ReviewConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ArbiterTimeout   time.Duration `mapstructure:"arbiter_timeout" yaml:"arbiter_timeout"`
	ChecksPerAgent   int           `mapstructure:"checks_per_agent" yaml:"checks_per_agent"`
	TotalChecks      int           `mapstructure:"total_checks" yaml:"total_checks"`
	Check            string        `mapstructure:"check" yaml:"check"`
	MaxArtifactBytes int           `mapstructure:"max_artifact_bytes" yaml:"max_artifact_bytes"`
	MaxTokens        int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path" yaml:"path,omitempty"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `mapstructure:"redact_secrets" yaml:"redact_secrets"`
	RedactPaths   []string `mapstructure:"redact_paths" yaml:"redact_paths,omitempty"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir           string `mapstructure:"dir" yaml:"dir,omitempty"`
	TTLSeconds    int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
	MemoryEntries int    `mapstructure:"memory_entries" yaml:"memory_entries"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file,omitempty"`
}

// AgentOrder is the default agent construction order.
var AgentOrder = []string{"chatgpt", "gemini", "codex", "qwen", "claude"}

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "yaml", "markdown", "sarif"}

var providerNames = map[string]bool{
	"anthropic": true, "openai": true, "gemini": true, "google": true,
	"ollama": true, "qwen": true, "command": true, "cli": true,
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Agents: map[string]AgentConfig{
			"chatgpt": {Enabled: true, Provider: "openai", Model: "gpt-4o"},
			"gemini":  {Enabled: true, Provider: "command", Command: "gemini"},
			"codex":   {Enabled: true, Provider: "command", Command: "codex"},
			"qwen":    {Enabled: true, Provider: "ollama", Model: "qwen2.5:32b", Endpoint: "http://localhost:11434"},
			"claude":  {Enabled: true, Provider: "command", Command: "claude"},
		},
		Arbiter: "claude",
		Consensus: ConsensusConfig{
			ErrorThreshold:   review.DefaultErrorThreshold,
			WarningThreshold: review.DefaultWarningThreshold,
		},
		Review: ReviewConfig{
			Timeout:          review.DefaultAgentTimeout,
			ArbiterTimeout:   review.DefaultArbiterTimeout,
			ChecksPerAgent:   review.DefaultChecksPerAgent,
			Check:            string(review.ScopeAll),
			MaxArtifactBytes: review.DefaultMaxArtifactBytes,
			MaxTokens:        4096,
		},
		Output: OutputConfig{Format: "text"},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/.env.*", "**/*secret*", "**/*.pem", "**/*.key"},
		},
		Cache: CacheConfig{
			TTLSeconds:    86400,
			MemoryEntries: 256,
		},
		Logging: LoggingConfig{Level: "WARN"},
	}
}

// SetDefaults registers every default value on v, leaf by leaf, so that a
// file setting one agent field keeps the defaults of the others.
func SetDefaults(v *viper.Viper) {
	d := Default()
	for name, a := range d.Agents {
		prefix := "agents." + name + "."
		v.SetDefault(prefix+"enabled", a.Enabled)
		v.SetDefault(prefix+"provider", a.Provider)
		v.SetDefault(prefix+"model", a.Model)
		v.SetDefault(prefix+"command", a.Command)
		v.SetDefault(prefix+"args", a.Args)
		v.SetDefault(prefix+"endpoint", a.Endpoint)
		v.SetDefault(prefix+"timeout", a.Timeout)
	}
	v.SetDefault("arbiter", d.Arbiter)

	v.SetDefault("consensus.error_threshold", d.Consensus.ErrorThreshold)
	v.SetDefault("consensus.warning_threshold", d.Consensus.WarningThreshold)

	v.SetDefault("review.timeout", d.Review.Timeout)
	v.SetDefault("review.arbiter_timeout", d.Review.ArbiterTimeout)
	v.SetDefault("review.checks_per_agent", d.Review.ChecksPerAgent)
	v.SetDefault("review.total_checks", d.Review.TotalChecks)
	v.SetDefault("review.check", d.Review.Check)
	v.SetDefault("review.max_artifact_bytes", d.Review.MaxArtifactBytes)
	v.SetDefault("review.max_tokens", d.Review.MaxTokens)

	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.path", d.Output.Path)

	v.SetDefault("privacy.redact_secrets", d.Privacy.RedactSecrets)
	v.SetDefault("privacy.redact_paths", d.Privacy.RedactPaths)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.ttl_seconds", d.Cache.TTLSeconds)
	v.SetDefault("cache.memory_entries", d.Cache.MemoryEntries)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
}

// NewViper returns a viper instance with defaults, the TRIAD_ environment
// prefix, and the config search path. path forces a specific file.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		return v
	}
	v.SetConfigName(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	v.AddConfigPath(".")
	if dir, err := ConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}
	return v
}

// Load builds the effective config: defaults <- file <- env. A missing file
// is not an error unless path was given explicitly. The result is not
// validated; call Validate after applying flag overrides.
func Load(path string) (*Config, error) {
	v := NewViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper decodes v into a Config. Agents declared only in the file or
// environment are enabled unless they say otherwise.
func FromViper(v *viper.Viper) (*Config, error) {
	for name := range v.GetStringMap("agents") {
		v.SetDefault("agents."+name+".enabled", true)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return &cfg, nil
}

// Validate reports the first invalid setting as a *review.ConfigError.
func (c *Config) Validate() error {
	t := c.Thresholds()
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := review.ParseScope(c.Review.Check); err != nil {
		return err
	}
	if !validFormat(c.Output.Format) {
		return configError("output.format", "unknown format %q (want %s)", c.Output.Format, strings.Join(Formats, ", "))
	}
	if c.Review.Timeout <= 0 {
		return configError("review.timeout", "must be positive, got %s", c.Review.Timeout)
	}
	if c.Review.ArbiterTimeout <= 0 {
		return configError("review.arbiter_timeout", "must be positive, got %s", c.Review.ArbiterTimeout)
	}
	if c.Review.ChecksPerAgent < 1 {
		return configError("review.checks_per_agent", "must be at least 1, got %d", c.Review.ChecksPerAgent)
	}
	if c.Review.TotalChecks < 0 {
		return configError("review.total_checks", "must not be negative, got %d", c.Review.TotalChecks)
	}
	if c.Review.MaxArtifactBytes <= 0 {
		return configError("review.max_artifact_bytes", "must be positive, got %d", c.Review.MaxArtifactBytes)
	}
	if c.Cache.TTLSeconds < 0 {
		return configError("cache.ttl_seconds", "must not be negative, got %d", c.Cache.TTLSeconds)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return configError("logging.level", "unknown level %q (want DEBUG, INFO, WARN, ERROR)", c.Logging.Level)
	}

	for _, name := range c.AgentNames() {
		a := c.Agents[name]
		field := "agents." + name
		if !providerNames[strings.ToLower(a.Provider)] {
			return configError(field+".provider", "unknown provider %q", a.Provider)
		}
		if isCommand(a.Provider) && strings.TrimSpace(a.Command) == "" {
			return configError(field+".command", "required for the command provider")
		}
		if a.Timeout < 0 {
			return configError(field+".timeout", "must not be negative, got %s", a.Timeout)
		}
	}

	if c.Arbiter != "" && c.Arbiter != NoArbiter {
		if _, ok := c.Agents[c.Arbiter]; !ok {
			return configError("arbiter", "unknown agent %q", c.Arbiter)
		}
	}
	return nil
}

// Thresholds returns the consensus thresholds.
func (c *Config) Thresholds() review.Thresholds {
	return review.Thresholds{
		Error:   c.Consensus.ErrorThreshold,
		Warning: c.Consensus.WarningThreshold,
	}
}

// AgentNames returns the configured agents: the default order first, then
// any additional agents sorted by name.
func (c *Config) AgentNames() []string {
	names := make([]string, 0, len(c.Agents))
	seen := make(map[string]bool, len(c.Agents))
	for _, n := range AgentOrder {
		if _, ok := c.Agents[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var extra []string
	for n := range c.Agents {
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// RestrictAgents disables every agent not in names. Unknown names are an
// error.
func (c *Config) RestrictAgents(names []string) error {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := c.Agents[n]; !ok {
			return configError("models", "unknown agent %q (configured: %s)", n, strings.Join(c.AgentNames(), ", "))
		}
		keep[n] = true
	}
	if len(keep) == 0 {
		return nil
	}
	for name, a := range c.Agents {
		if !keep[name] {
			a.Enabled = false
			c.Agents[name] = a
		}
	}
	return nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ConfigDir returns the platform-appropriate config directory for triad.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, "AppData", "Roaming", appName), nil
	default:
		return filepath.Join(home, ".config", appName), nil
	}
}

// DefaultPath returns the user-level config file path.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func validFormat(f string) bool {
	for _, v := range Formats {
		if f == v {
			return true
		}
	}
	return false
}

func isCommand(provider string) bool {
	p := strings.ToLower(provider)
	return p == "command" || p == "cli"
}

func configError(field, format string, args ...any) error {
	return &review.ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}
