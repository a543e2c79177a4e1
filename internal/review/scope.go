package review

import (
	"fmt"
	"strings"
)

// Scope restricts which edges of the spec/program/test triangle a run reports.
type Scope string

const (
	ScopeAll         Scope = "all"
	ScopeSpecProgram Scope = "spec-program"
	ScopeProgramTest Scope = "program-test"
	ScopeTestSpec    Scope = "test-spec"
)

var scopeTypes = map[Scope][]IssueType{
	ScopeSpecProgram: {IssueSpecProgramMismatch, IssueMetadataMismatch},
	ScopeProgramTest: {IssueProgramTestGap},
	ScopeTestSpec:    {IssueTestSpecMismatch},
}

// ParseScope parses a --check value. An empty string means ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeSpecProgram, ScopeProgramTest, ScopeTestSpec:
		return Scope(s), nil
	default:
		return "", &ConfigError{
			Field:   "review.check",
			Message: fmt.Sprintf("unknown check %q (want all, spec-program, program-test, test-spec)", s),
		}
	}
}

// Allows reports whether issues of type t are in scope.
func (s Scope) Allows(t IssueType) bool {
	types, ok := scopeTypes[s]
	if !ok {
		return true
	}
	for _, allowed := range types {
		if allowed == t {
			return true
		}
	}
	return false
}

// Filter drops out-of-scope issues and renumbers the rest from 1, keeping
// their relative order.
func (s Scope) Filter(issues []Issue) []Issue {
	if s == ScopeAll || s == "" {
		return issues
	}
	kept := make([]Issue, 0, len(issues))
	for _, is := range issues {
		if !s.Allows(is.Type) {
			continue
		}
		is.ID = len(kept) + 1
		kept = append(kept, is)
	}
	return kept
}

// PromptSection returns extra reviewer instructions for a narrowed scope.
func (s Scope) PromptSection() string {
	types, ok := scopeTypes[s]
	if !ok {
		return ""
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return fmt.Sprintf("\nOnly report issues of type: %s.\n", strings.Join(names, ", "))
}
