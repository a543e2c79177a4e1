package collect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"
	"gopkg.in/yaml.v3"

	"github.com/dshills/triad/internal/redact"
	"github.com/dshills/triad/internal/review"
)

// Default file patterns, matched against slash-separated paths relative to
// the collected directory.
var (
	DefaultSpecPatterns    = []string{"**/*.yaml", "**/*.yml"}
	DefaultProgramPatterns = []string{"**/*.java", "**/*.ts", "**/*.go", "**/*.rs"}
	DefaultTestPatterns    = []string{"**/*Test.java", "**/*.test.ts", "**/*_test.go", "**/*_test.rs", "**/*.spec.ts"}
	DefaultExclude         = []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/target/**", "**/dist/**"}
)

// DefaultMaxFileBytes skips files larger than this.
const DefaultMaxFileBytes = 1 << 20

// ErrNotDirectory is returned when an input path is missing or not a
// directory.
var ErrNotDirectory = errors.New("not a directory")

// Options controls artifact selection.
type Options struct {
	SpecDir    string
	ProgramDir string
	TestDir    string

	SpecPatterns    []string
	ProgramPatterns []string
	TestPatterns    []string
	Exclude         []string
	MaxFileBytes    int64

	RedactSecrets bool
	RedactPaths   []string
}

// DefaultOptions returns options with the default patterns and redaction on.
func DefaultOptions(specDir, programDir, testDir string) Options {
	return Options{
		SpecDir:         specDir,
		ProgramDir:      programDir,
		TestDir:         testDir,
		SpecPatterns:    DefaultSpecPatterns,
		ProgramPatterns: DefaultProgramPatterns,
		TestPatterns:    DefaultTestPatterns,
		Exclude:         DefaultExclude,
		MaxFileBytes:    DefaultMaxFileBytes,
		RedactSecrets:   true,
		RedactPaths:     redact.DefaultPathPatterns,
	}
}

// Result is the collected context plus non-fatal problems found on the way.
type Result struct {
	Context  *review.Context
	Warnings []string
}

// Collect reads the three directories and builds a review context. A missing
// directory is an error; unreadable or unparseable individual files are
// reported as warnings and skipped (program, test) or kept as raw text
// (spec).
func Collect(opts Options) (*Result, error) {
	for _, d := range []struct{ name, path string }{
		{"spec", opts.SpecDir},
		{"program", opts.ProgramDir},
		{"test", opts.TestDir},
	} {
		if err := checkDir(d.path); err != nil {
			return nil, fmt.Errorf("%s dir: %w", d.name, err)
		}
	}

	res := &Result{}

	specFiles, warns, err := readFiles(opts.SpecDir, orDefault(opts.SpecPatterns, DefaultSpecPatterns), opts)
	if err != nil {
		return nil, fmt.Errorf("collecting specs: %w", err)
	}
	res.Warnings = append(res.Warnings, warns...)

	programFiles, warns, err := readFiles(opts.ProgramDir, orDefault(opts.ProgramPatterns, DefaultProgramPatterns), opts)
	if err != nil {
		return nil, fmt.Errorf("collecting program: %w", err)
	}
	res.Warnings = append(res.Warnings, warns...)

	testFiles, warns, err := readFiles(opts.TestDir, orDefault(opts.TestPatterns, DefaultTestPatterns), opts)
	if err != nil {
		return nil, fmt.Errorf("collecting tests: %w", err)
	}
	res.Warnings = append(res.Warnings, warns...)

	specs := make(map[string]any, len(specFiles))
	for _, p := range sortedKeys(specFiles) {
		doc, err := parseSpec(specFiles[p])
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v (kept as text)", p, err))
			specs[p] = specFiles[p]
			continue
		}
		specs[p] = doc
	}

	if opts.RedactSecrets {
		for p, v := range specs {
			if redact.ShouldRedactPath(p, opts.RedactPaths) {
				specs[p] = redact.Content("", p, opts.RedactPaths)
				continue
			}
			specs[p] = redact.Value(v)
		}
		programFiles = redact.Files(programFiles, opts.RedactPaths)
		testFiles = redact.Files(testFiles, opts.RedactPaths)
	}

	res.Context = &review.Context{
		SpecDir:          opts.SpecDir,
		SpecSummary:      SummarizeSpecs(specs),
		ProgramSummary:   SummarizePrograms(programFiles),
		TestSummary:      SummarizeTests(testFiles),
		SpecArtifacts:    specs,
		ProgramArtifacts: programFiles,
		TestArtifacts:    testFiles,
	}
	return res, nil
}

func checkDir(path string) error {
	if path == "" {
		return fmt.Errorf("path is empty: %w", ErrNotDirectory)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return nil
}

// readFiles returns the files under root matching any pattern and no
// exclude, keyed by slash-separated relative path.
func readFiles(root string, patterns []string, opts Options) (map[string]string, []string, error) {
	files := make(map[string]string)
	var warnings []string
	maxBytes := opts.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", path, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			// Probe with a child path so "dir/**" excludes prune the walk.
			if rel != "." && MatchesAny(rel+"/_", opts.Exclude) {
				return fs.SkipDir
			}
			return nil
		}
		if !MatchesAny(rel, patterns) || MatchesAny(rel, opts.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", rel, err))
			return nil
		}
		if info.Size() > maxBytes {
			warnings = append(warnings, fmt.Sprintf("%s: skipped, %d bytes exceeds limit", rel, info.Size()))
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", rel, err))
			return nil
		}
		files[rel] = string(data)
		return nil
	})
	if err != nil {
		return nil, warnings, err
	}
	return files, warnings, nil
}

// MatchesAny reports whether a slash-separated path matches any doublestar
// pattern.
func MatchesAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

func parseSpec(text string) (any, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return normalizeYAML(doc), nil
}

// normalizeYAML converts map[any]any nodes, which yaml.v3 produces for
// non-string keys, into map[string]any so the tree is JSON-compatible.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

func orDefault(patterns, def []string) []string {
	if len(patterns) == 0 {
		return def
	}
	return patterns
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
