// Package redact removes secrets from spec, program and test artifacts
// before they are sent to any review agent or written to the cache.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, database connection strings, and provider-specific tokens
// (Anthropic, OpenAI, GitHub, Slack).
//
// Files whose paths match a doublestar glob have their entire content
// replaced with [REDACTED] rather than being scanned. Parsed YAML specs are
// redacted value by value with [Value].
package redact
