package collect

import (
	"fmt"
	"path"
	"strings"
)

// SummarizeSpecs describes the frame, its domain events and the aggregate
// invariants found in parsed spec documents.
func SummarizeSpecs(specs map[string]any) string {
	var parts []string
	for _, p := range sortedKeys(specs) {
		if path.Base(p) != "frame.yaml" {
			continue
		}
		frame, ok := specs[p].(map[string]any)
		if !ok {
			continue
		}
		frameType, _ := frame["frame_type"].(string)
		if frameType == "" {
			frameType = "Unknown"
		}
		parts = append(parts, "Frame: "+frameType)
		if events, ok := frame["domain_events"].([]any); ok {
			names := make([]string, 0, len(events))
			for _, e := range events {
				if m, ok := e.(map[string]any); ok {
					if n, ok := m["name"].(string); ok && n != "" {
						names = append(names, n)
					}
				}
			}
			parts = append(parts, "Domain Events: "+strings.Join(names, ", "))
		}
		break
	}

	for _, p := range sortedKeys(specs) {
		if !strings.Contains(strings.ToLower(p), "aggregate") {
			continue
		}
		doc, ok := specs[p].(map[string]any)
		if !ok {
			continue
		}
		if n, ok := countOf(doc["invariants"]); ok {
			parts = append(parts, fmt.Sprintf("Invariants: %d defined", n))
		}
	}

	if len(parts) == 0 {
		return "No specs found"
	}
	return strings.Join(parts, "; ")
}

// SummarizePrograms counts source files and the service or use-case files
// among them.
func SummarizePrograms(files map[string]string) string {
	parts := []string{fmt.Sprintf("Files: %d", len(files))}
	services := 0
	for p := range files {
		if strings.Contains(p, "Service") || strings.Contains(p, "UseCase") {
			services++
		}
	}
	if services > 0 {
		parts = append(parts, fmt.Sprintf("Services: %d", services))
	}
	return strings.Join(parts, "; ")
}

// SummarizeTests counts test files.
func SummarizeTests(files map[string]string) string {
	return fmt.Sprintf("Test files: %d", len(files))
}

func countOf(v any) (int, bool) {
	switch t := v.(type) {
	case []any:
		return len(t), true
	case map[string]any:
		return len(t), true
	default:
		return 0, false
	}
}
