package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/triad/internal/review"
)

// SARIFWriter outputs issues in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	sarif := buildSARIF(report)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool          `json:"tool"`
	Results    []sarifResult      `json:"results"`
	Properties sarifRunProperties `json:"properties"`
}

type sarifRunProperties struct {
	RunID       string               `json:"runId,omitempty"`
	Status      string               `json:"status"`
	Arbitration string               `json:"arbitration,omitempty"`
	Agents      []review.AgentStatus `json:"agents,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID     string                `json:"ruleId"`
	Level      string                `json:"level"`
	Message    sarifMessage          `json:"message"`
	Locations  []sarifLocation       `json:"locations,omitempty"`
	Fixes      []sarifFix            `json:"fixes,omitempty"`
	Properties sarifResultProperties `json:"properties"`
}

type sarifResultProperties struct {
	IssueID    string   `json:"issueId"`
	DetectedBy []string `json:"detectedBy"`
	Confidence string   `json:"confidence"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	LogicalLocations []sarifLogical        `json:"logicalLocations,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifLogical struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
}

type sarifFix struct {
	Description sarifMessage `json:"description"`
}

var ruleDescriptions = map[review.IssueType]string{
	review.IssueSpecProgramMismatch: "Specification and program disagree",
	review.IssueProgramTestGap:      "Program behavior not covered by tests",
	review.IssueTestSpecMismatch:    "Tests verify something the specification does not define",
	review.IssueMetadataMismatch:    "Specification metadata does not match the program",
}

func buildSARIF(report *review.Report) sarifLog {
	rules := []sarifRule{}
	seen := make(map[string]bool)
	results := []sarifResult{}

	for _, is := range report.Issues {
		ruleID := ruleIDFor(is.Type)
		if !seen[ruleID] {
			seen[ruleID] = true
			rules = append(rules, sarifRule{
				ID:               ruleID,
				Name:             string(is.Type),
				ShortDescription: sarifMessage{Text: orDefault(ruleDescriptions[is.Type], string(is.Type))},
				DefaultConfig:    sarifDefaultConfig{Level: "warning"},
			})
		}

		result := sarifResult{
			RuleID:  ruleID,
			Level:   severityToLevel(is.Severity),
			Message: sarifMessage{Text: is.Description},
			Properties: sarifResultProperties{
				IssueID:    is.Label(),
				DetectedBy: is.DetectedBy,
				Confidence: string(is.Confidence),
			},
		}
		if loc, ok := sarifLocationFor(is.Location); ok {
			result.Locations = append(result.Locations, loc)
		}
		if is.SuggestedFix != "" {
			result.Fixes = append(result.Fixes, sarifFix{
				Description: sarifMessage{Text: is.SuggestedFix},
			})
		}
		results = append(results, result)
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           orDefault(report.Tool, "triad"),
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/triad",
						Rules:          rules,
					},
				},
				Results: results,
				Properties: sarifRunProperties{
					RunID:       report.RunID,
					Status:      string(report.Status()),
					Arbitration: string(report.Arbitration),
					Agents:      report.Agents,
				},
			},
		},
	}
}

// sarifLocationFor splits an issue location of the form "path#element".
// The path becomes the artifact URI and the element a logical location.
func sarifLocationFor(location string) (sarifLocation, bool) {
	if location == "" || location == review.UnknownLocation {
		return sarifLocation{}, false
	}
	path, element, _ := strings.Cut(location, "#")
	if path == "" {
		path = element
	}
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: path},
		},
	}
	if element != "" {
		loc.LogicalLocations = []sarifLogical{{FullyQualifiedName: location}}
	}
	return loc, true
}

// severityToLevel maps review severity to SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityError:
		return "error"
	case review.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

func ruleIDFor(t review.IssueType) string {
	return "triad/" + string(t)
}
