// Package cache stores raw agent responses so that re-running a review over
// unchanged artifacts does not call the backends again.
//
// Entries are keyed by a SHA-256 hash of the agent name, model and prompts.
// A bounded LRU holds recent entries in memory in front of one JSON file per
// entry on disk. Expired entries are skipped on read and counted by
// GetStats.
//
// The default directory is $XDG_CACHE_HOME/triad (or the OS-appropriate
// equivalent). Prompts are redacted before they are hashed or stored.
package cache
