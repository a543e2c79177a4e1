// Package providers implements the Reviewer interface for each supported
// review backend.
//
// HTTP backends: Anthropic, OpenAI, and Ollama's native generate API (the
// local Qwen agent). Gemini goes through the genai SDK. The Command backend
// runs a local agent CLI such as claude, gemini or codex and reads its JSON
// answer from stdout.
//
// HTTP and SDK backends share a fortify retry helper with exponential
// back-off; only rate-limit and server errors are retried. HTTP clients are
// plain fields so tests can redirect calls to httptest servers.
//
// Use [New] to obtain a Reviewer from a [Spec], and [Probe] to check
// availability before dispatch.
package providers
