package review

import (
	"fmt"
	"time"

	"github.com/dshills/triad/internal/logging"
)

// DefaultChecksPerAgent is the per-agent contribution to the total_checks
// estimate when no explicit total is configured.
const DefaultChecksPerAgent = 10

func formatIssueID(id int) string {
	return fmt.Sprintf("ISSUE-%03d", id)
}

// EstimateTotalChecks returns explicit when positive, otherwise
// perAgent * enabledAgents.
func EstimateTotalChecks(explicit, perAgent, enabledAgents int) int {
	if explicit > 0 {
		return explicit
	}
	if perAgent <= 0 {
		perAgent = DefaultChecksPerAgent
	}
	return perAgent * enabledAgents
}

// Assemble counts issue severities into a report. passed never goes negative:
// when the issues outnumber the estimate, the inconsistency is logged and
// total_checks is raised so that passed + warnings + errors == total_checks
// still holds.
func Assemble(issues []Issue, totalChecks int, now time.Time, log *logging.Logger) *Report {
	if log == nil {
		log = logging.Nop()
	}
	if issues == nil {
		issues = []Issue{}
	}

	r := &Report{
		Timestamp:   now,
		TotalChecks: totalChecks,
		Issues:      issues,
	}
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			r.Errors++
		case SeverityWarning:
			r.Warnings++
		}
	}

	r.Passed = r.TotalChecks - r.Errors - r.Warnings
	if r.Passed < 0 {
		log.WithPhase("assemble").Warn("issue count exceeds total_checks estimate",
			"total_checks", r.TotalChecks,
			"errors", r.Errors,
			"warnings", r.Warnings)
		r.Passed = 0
		r.TotalChecks = r.Errors + r.Warnings
	}
	return r
}

// Statuses builds the per-agent health summary. Disabled handles are listed
// as absent; results are matched to handles by name.
func Statuses(handles []Handle, results []AgentResult) []AgentStatus {
	byName := make(map[string]AgentResult, len(results))
	for _, r := range results {
		byName[r.Agent] = r
	}

	statuses := make([]AgentStatus, 0, len(handles))
	for _, h := range handles {
		st := AgentStatus{Name: h.Name(), Enabled: h.Active()}
		if !st.Enabled {
			st.Reason = h.Reason
			if st.Reason == "" {
				st.Reason = "unavailable"
			}
			statuses = append(statuses, st)
			continue
		}
		r, ok := byName[st.Name]
		if !ok {
			st.Reason = "not dispatched"
			statuses = append(statuses, st)
			continue
		}
		st.OK = r.OK()
		st.Reason = r.Err
		st.Findings = len(r.Findings)
		statuses = append(statuses, st)
	}
	return statuses
}
