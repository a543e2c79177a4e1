// Package review is the dispatch and consensus engine of triad.
//
// A run fans one read-only [Context] out to every enabled [Agent]
// concurrently ([Dispatch]), each call bounded by its own timeout and
// isolated from the others' failures. Successful results are grouped by
// (type, location) into [Finding]s ([Normalize]). The designated [Arbiter]
// then classifies every raw finding into confirmed issues, warnings and false
// positives; when the arbiter is disabled or fails, the corroboration-count
// rule ([Fallback]) decides severity instead. [Assemble] turns the resulting
// issue list into a [Report] whose counts always satisfy
// passed + warnings + errors == total_checks.
//
// [Run] ties the stages together. Agent responses are decoded permissively
// ([DecodeFindings], [DecodeVerdict]): missing locations become "unknown" and
// unknown types become spec_program_mismatch.
package review
