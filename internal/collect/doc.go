// Package collect builds the review context from a spec directory, a program
// directory and a test directory.
//
// Spec files (*.yaml, *.yml) are parsed with yaml.v3; program and test
// sources are read as text. File selection uses doublestar globs relative to
// each directory, and every artifact passes through secret redaction before
// it reaches an agent prompt.
package collect
