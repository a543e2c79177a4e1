package providers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
)

const (
	promptPlaceholder = "{prompt}"
	probeTimeout      = 5 * time.Second
)

// Argument templates for the agent CLIs with a known non-interactive mode.
var defaultCommandArgs = map[string][]string{
	"claude": {"-p", promptPlaceholder, "--output-format", "json"},
	"gemini": {"-p", promptPlaceholder, "--json"},
	"codex":  {"--prompt", promptPlaceholder, "--format", "json"},
}

// Command implements the Reviewer interface by running a local agent CLI
// and reading its JSON answer from stdout.
type Command struct {
	name    string
	command string
	args    []string
}

// NewCommand creates a provider around an executable. When args is empty
// the template for a known CLI is used, otherwise the prompt is passed as
// the only argument.
func NewCommand(command string, args []string) (*Command, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, fmt.Errorf("command provider requires a command")
	}
	name := filepath.Base(command)
	if len(args) == 0 {
		args = defaultCommandArgs[name]
	}
	if len(args) == 0 {
		args = []string{promptPlaceholder}
	}
	return &Command{name: name, command: command, args: args}, nil
}

func (c *Command) Name() string { return c.name }

// Available checks that the executable resolves and answers --version
// within a few seconds.
func (c *Command) Available(ctx context.Context) error {
	path, err := exec.LookPath(c.command)
	if err != nil {
		return fmt.Errorf("%s not installed: %w", c.name, err)
	}
	t := timeout.New[struct{}](timeout.Config{DefaultTimeout: probeTimeout})
	_, err = t.Execute(ctx, probeTimeout, func(ctx context.Context) (struct{}, error) {
		cmd := exec.CommandContext(ctx, path, "--version")
		if out, err := cmd.CombinedOutput(); err != nil {
			return struct{}{}, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("%s --version failed: %w", c.name, err)
	}
	return nil
}

func (c *Command) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	prompt := req.UserPrompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + req.UserPrompt
	}

	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = strings.ReplaceAll(a, promptPlaceholder, prompt)
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.WaitDelay = 2 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ReviewResponse{}, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return ReviewResponse{}, fmt.Errorf("%s: %w", c.name, err)
		}
		return ReviewResponse{}, fmt.Errorf("%s: %w: %s", c.name, err, msg)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return ReviewResponse{}, fmt.Errorf("%s: empty output", c.name)
	}
	return ReviewResponse{Content: out}, nil
}
