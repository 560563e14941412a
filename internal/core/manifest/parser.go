// Package manifest parses the flat dependency manifest consumed by the
// dependency installer: one constraint per line, name[operator]version, with
// blank lines and #-comments ignored. Parsing is pure; reading the file is
// the caller's job.
package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitebase/deployctl/internal/core/domain"
)

// =============================================================================
// Parser Errors
// =============================================================================

var (
	// ErrEmptyManifest is returned when the manifest declares no dependencies.
	ErrEmptyManifest = errors.New("manifest declares no dependencies")
)

// ParseError reports a malformed manifest line.
type ParseError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %q: %v", e.Path, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Parsing
// =============================================================================

// Parse parses raw manifest content into a dependency set. Pure function:
// no I/O, no side effects.
func Parse(path, content string) (domain.DependencySet, error) {
	set := domain.DependencySet{ManifestPath: path}

	for i, raw := range strings.Split(content, "\n") {
		line := stripComment(raw)
		if line == "" {
			continue
		}

		dep := splitConstraint(line)
		if err := dep.Validate(); err != nil {
			return domain.DependencySet{}, &ParseError{
				Path: path,
				Line: i + 1,
				Text: strings.TrimSpace(raw),
				Err:  err,
			}
		}
		set.Dependencies = append(set.Dependencies, dep)
	}

	if len(set.Dependencies) == 0 {
		return domain.DependencySet{}, ErrEmptyManifest
	}
	return set, nil
}

// stripComment removes a trailing #-comment and surrounding whitespace.
func stripComment(line string) string {
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// splitConstraint splits a line at the first known operator. Operators are
// tried longest-first so ">=" is not read as ">" followed by "=version".
func splitConstraint(line string) domain.Dependency {
	earliest := -1
	op := ""
	for _, candidate := range domain.KnownOperators {
		idx := strings.Index(line, candidate)
		if idx < 0 {
			continue
		}
		if earliest < 0 || idx < earliest || (idx == earliest && len(candidate) > len(op)) {
			earliest = idx
			op = candidate
		}
	}

	if earliest < 0 {
		return domain.Dependency{Name: line}
	}
	return domain.Dependency{
		Name:     strings.TrimSpace(line[:earliest]),
		Operator: op,
		Version:  strings.TrimSpace(line[earliest+len(op):]),
	}
}
