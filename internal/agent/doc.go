// Package agent adapts a transport-level provider into a review agent.
//
// An Agent builds the review or arbiter prompt, calls its backend, decodes
// the loosely shaped JSON reply, and reports every failure as a failed
// AgentResult instead of an error. Build assembles the configured agents and
// the designated arbiter, probing each backend for availability.
package agent
