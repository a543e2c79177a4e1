package review

import "strings"

// Normalize groups the raw findings of every successful result by Key and
// returns one Finding per distinct key, in the order keys were first seen.
// Results are visited in dispatch order, so description and suggested fix
// come from the first agent that reported a key. Failed results contribute
// nothing.
func Normalize(results []AgentResult) []Finding {
	var findings []Finding
	index := make(map[Key]int)

	for _, r := range results {
		if !r.OK() {
			continue
		}
		for _, raw := range r.Findings {
			key, known := keyOf(raw)

			i, seen := index[key]
			if !seen {
				index[key] = len(findings)
				findings = append(findings, Finding{
					Key:                  key,
					Description:          raw.Description,
					SuggestedFix:         raw.SuggestedFix,
					SpecDefinition:       raw.SpecDefinition,
					ActualImplementation: raw.ActualImplementation,
					Agents:               []string{r.Agent},
					LowConfidence:        !known,
				})
				continue
			}

			f := &findings[i]
			if known {
				f.LowConfidence = false
			}
			if !containsString(f.Agents, r.Agent) {
				f.Agents = append(f.Agents, r.Agent)
			}
		}
	}

	return findings
}

func keyOf(raw RawFinding) (Key, bool) {
	t, known := ParseIssueType(raw.Type)
	loc := raw.Location
	if strings.TrimSpace(loc) == "" {
		loc = UnknownLocation
	}
	return Key{Type: t, Location: loc}, known
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
