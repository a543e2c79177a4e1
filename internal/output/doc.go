// Package output formats review reports for display or persistence.
//
// Five formats are supported:
//   - text     human-readable terminal output (default), styled with lipgloss
//   - json     full structured JSON report
//   - yaml     full report as YAML
//   - markdown PR-comment-friendly with collapsible sections per severity
//   - sarif    SARIF v2.1.0 with one rule per issue type
//
// Every format carries the per-agent health summary. Use [GetWriter] to
// obtain a [Writer] for a format string, or [WriteReport] to write to a
// file or stdout.
package output
