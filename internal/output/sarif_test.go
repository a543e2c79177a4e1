package output

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestSARIFWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&SARIFWriter{}).Write(&buf, emptyReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var sarif sarifLog
	if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
		t.Fatalf("Invalid SARIF JSON: %v", err)
	}
	if sarif.Version != "2.1.0" {
		t.Errorf("Version = %q, want %q", sarif.Version, "2.1.0")
	}
	if len(sarif.Runs) != 1 {
		t.Fatalf("Runs count = %d, want 1", len(sarif.Runs))
	}
	if len(sarif.Runs[0].Results) != 0 {
		t.Errorf("Results count = %d, want 0", len(sarif.Runs[0].Results))
	}
	if sarif.Runs[0].Properties.Status != "PASS" {
		t.Errorf("Status = %q, want PASS", sarif.Runs[0].Properties.Status)
	}
}

func TestSARIFWriter_WithIssues(t *testing.T) {
	var buf bytes.Buffer
	if err := (&SARIFWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var sarif sarifLog
	if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
		t.Fatalf("Invalid SARIF JSON: %v", err)
	}
	run := sarif.Runs[0]
	if run.Tool.Driver.Name != "triad" {
		t.Errorf("driver = %q", run.Tool.Driver.Name)
	}
	if len(run.Tool.Driver.Rules) != 2 {
		t.Errorf("Rules = %d, want 2", len(run.Tool.Driver.Rules))
	}
	if len(run.Results) != 2 {
		t.Fatalf("Results = %d, want 2", len(run.Results))
	}

	first := run.Results[0]
	if first.RuleID != "triad/spec_program_mismatch" {
		t.Errorf("RuleID = %q", first.RuleID)
	}
	if first.Level != "error" {
		t.Errorf("Level = %q, want error", first.Level)
	}
	if len(first.Locations) != 1 || first.Locations[0].PhysicalLocation.ArtifactLocation.URI != "order.go" {
		t.Errorf("Locations = %+v", first.Locations)
	}
	if len(first.Fixes) != 1 {
		t.Errorf("Fixes = %d, want 1", len(first.Fixes))
	}
	if first.Properties.IssueID != "ISSUE-001" {
		t.Errorf("IssueID = %q", first.Properties.IssueID)
	}

	second := run.Results[1]
	if second.Level != "warning" {
		t.Errorf("Level = %q, want warning", second.Level)
	}
	if len(second.Locations) != 0 {
		t.Error("unknown location should produce no SARIF location")
	}
	if len(run.Properties.Agents) != 3 {
		t.Errorf("Agents = %d, want 3", len(run.Properties.Agents))
	}
}

func TestSARIFLocationFor(t *testing.T) {
	tests := []struct {
		in      string
		uri     string
		logical bool
		ok      bool
	}{
		{"order.go#Order.total", "order.go", true, true},
		{"specs/events.yaml", "specs/events.yaml", false, true},
		{"#Order", "Order", true, true},
		{"unknown", "", false, false},
		{"", "", false, false},
	}
	for _, tt := range tests {
		loc, ok := sarifLocationFor(tt.in)
		if ok != tt.ok {
			t.Errorf("sarifLocationFor(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if loc.PhysicalLocation.ArtifactLocation.URI != tt.uri {
			t.Errorf("sarifLocationFor(%q) uri = %q, want %q", tt.in, loc.PhysicalLocation.ArtifactLocation.URI, tt.uri)
		}
		if (len(loc.LogicalLocations) > 0) != tt.logical {
			t.Errorf("sarifLocationFor(%q) logical = %v", tt.in, loc.LogicalLocations)
		}
	}
}
