package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoEnvelope is returned when a response contains no recognizable payload.
var ErrNoEnvelope = errors.New("response contains no findings envelope")

// maxUnwrap bounds how many wrapper objects ({"result": "..."}) are peeled.
const maxUnwrap = 4

// DecodeFindings parses an agent response into raw findings. It accepts
// {"issues": [...]}, a single issue object under "issues",
// {"findings": {"issues": [...]}}, a bare array, markdown
// code fences, and CLI wrappers whose "result" or "response" field holds the
// JSON text. Malformed entries are kept with missing fields left empty; the
// normalizer fills the defaults.
func DecodeFindings(content string) ([]RawFinding, error) {
	v, err := decodeLoose(content)
	if err != nil {
		return nil, err
	}
	for i := 0; i < maxUnwrap; i++ {
		switch t := v.(type) {
		case []any:
			return projectFindings(t), nil
		case map[string]any:
			switch issues := t["issues"].(type) {
			case []any:
				return projectFindings(issues), nil
			case map[string]any:
				return projectFindings([]any{issues}), nil
			}
			if inner, ok := t["findings"]; ok {
				v = inner
				continue
			}
			if next, ok := unwrap(t); ok {
				v = next
				continue
			}
			if issues, ok := t["issues"]; ok {
				if issues == nil {
					return []RawFinding{}, nil
				}
				return nil, fmt.Errorf("%w: issues is %T", ErrNoEnvelope, issues)
			}
			return nil, ErrNoEnvelope
		default:
			return nil, fmt.Errorf("%w: unexpected %T", ErrNoEnvelope, v)
		}
	}
	return nil, ErrNoEnvelope
}

// DecodeVerdict parses an arbiter response into a Verdict.
func DecodeVerdict(content string) (Verdict, error) {
	v, err := decodeLoose(content)
	if err != nil {
		return Verdict{}, err
	}
	for i := 0; i < maxUnwrap; i++ {
		m, ok := v.(map[string]any)
		if !ok {
			return Verdict{}, fmt.Errorf("%w: unexpected %T", ErrNoEnvelope, v)
		}
		if hasAny(m, "confirmed_issues", "warnings", "discarded_as_false_positive") {
			return Verdict{
				Confirmed: projectEntries(m["confirmed_issues"]),
				Warnings:  projectEntries(m["warnings"]),
				Discarded: projectEntries(m["discarded_as_false_positive"]),
			}, nil
		}
		next, ok := unwrap(m)
		if !ok {
			return Verdict{}, ErrNoEnvelope
		}
		v = next
	}
	return Verdict{}, ErrNoEnvelope
}

// unwrap peels CLI and local-service wrappers that carry the model output as
// a string or nested object.
func unwrap(m map[string]any) (any, bool) {
	for _, field := range []string{"result", "response", "content", "output"} {
		switch inner := m[field].(type) {
		case string:
			v, err := decodeLoose(inner)
			if err != nil {
				return nil, false
			}
			return v, true
		case map[string]any, []any:
			return inner, true
		}
	}
	return nil, false
}

// decodeLoose parses JSON, tolerating code fences and prose around a single
// top-level object or array.
func decodeLoose(content string) (any, error) {
	content = stripFences(strings.TrimSpace(content))
	if content == "" {
		return nil, fmt.Errorf("empty response")
	}

	var v any
	err := json.Unmarshal([]byte(content), &v)
	if err == nil {
		return v, nil
	}

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(content, pair[0])
		end := strings.LastIndex(content, pair[1])
		if start < 0 || end <= start {
			continue
		}
		if json.Unmarshal([]byte(content[start:end+1]), &v) == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("invalid JSON: %w", err)
}

func stripFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}

func projectFindings(list []any) []RawFinding {
	out := make([]RawFinding, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			out = append(out, RawFinding{Description: fmt.Sprint(item)})
			continue
		}
		out = append(out, RawFinding{
			Type:                 firstString(m, "type", "issue_type"),
			Location:             firstString(m, "location", "program_location", "spec_location", "test_location"),
			Description:          firstString(m, "description", "message"),
			SpecDefinition:       firstString(m, "spec_definition"),
			ActualImplementation: firstString(m, "actual_implementation"),
			SuggestedFix:         firstString(m, "suggested_fix", "suggestion"),
		})
	}
	return out
}

func projectEntries(v any) []VerdictEntry {
	list, _ := v.([]any)
	out := make([]VerdictEntry, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			out = append(out, VerdictEntry{Description: fmt.Sprint(item), DetectedBy: []string{}})
			continue
		}
		out = append(out, VerdictEntry{
			Type:         firstString(m, "type", "issue_type"),
			Location:     firstString(m, "location", "program_location", "spec_location", "test_location"),
			Description:  firstString(m, "description", "message"),
			DetectedBy:   stringList(m["detected_by"]),
			SuggestedFix: firstString(m, "suggested_fix", "suggestion"),
		})
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case nil:
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return []string{}
		}
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
