// Package cli wires together the Cobra command tree for the triad binary.
//
// It defines the root command and its subcommands (review, agents, config,
// cache, version), binds flags, loads configuration and .env credentials,
// collects artifacts, runs the review engine and maps the outcome to exit
// codes for CI gating.
package cli
