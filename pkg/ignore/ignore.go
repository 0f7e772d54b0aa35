// Package ignore decides whether directories and files are excluded from a
// repository crawl. Patterns are matched against paths relative to the crawl
// root using exact comparison and shell-glob semantics.
package ignore

import (
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Kind identifies whether a path refers to a directory or a file.
type Kind int

const (
	// KindDirectory selects the directory pattern list.
	KindDirectory Kind = iota
	// KindFile selects the file pattern list.
	KindFile
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Matcher evaluates paths against a PatternSet. It is safe for concurrent
// use: the pattern set is copied at construction and never mutated.
type Matcher struct {
	patterns PatternSet
	logger   *zap.Logger
}

// NewMatcher creates a Matcher for the given pattern set.
func NewMatcher(patterns PatternSet, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		patterns: patterns.Clone(),
		logger:   logger,
	}
}

// Patterns returns a copy of the matcher's pattern set.
func (m *Matcher) Patterns() PatternSet {
	return m.patterns.Clone()
}

// IsIgnored reports whether the path at relPath should be excluded from the
// crawl. The path must be relative to the crawl root and use either slash.
// Files additionally inherit exclusion from any ancestor directory that
// matches a directory pattern. A path that cannot be expressed relative to
// the root fails open: it is reported as not ignored and logged.
func (m *Matcher) IsIgnored(kind Kind, relPath string) bool {
	normalized := path.Clean(filepath.ToSlash(relPath))
	if normalized == "." || normalized == "" {
		return false
	}
	if path.IsAbs(normalized) || normalized == ".." || strings.HasPrefix(normalized, "../") {
		m.logger.Warn("Path is not relative to the crawl root, treating as not ignored",
			zap.String("path", relPath),
			zap.String("kind", kind.String()))
		return false
	}

	patterns := m.patterns.Files
	if kind == KindDirectory {
		patterns = m.patterns.Directories
	}
	if matchesAny(patterns, normalized) {
		return true
	}

	if kind == KindFile {
		// A file inside an ignored directory is ignored even when no file
		// pattern matches it directly.
		for ancestor := path.Dir(normalized); ancestor != "." && ancestor != "/"; ancestor = path.Dir(ancestor) {
			if matchesAny(m.patterns.Directories, ancestor) {
				return true
			}
		}
	}
	return false
}

// matchesAny reports whether relPath matches any pattern in the list, either
// verbatim, as a glob over the whole path, or as a glob over any single path
// segment. Pattern order carries no priority; the first hit wins.
func matchesAny(patterns []string, relPath string) bool {
	segments := strings.Split(relPath, "/")
	for _, pattern := range patterns {
		if pattern == relPath {
			return true
		}
		if ok, err := path.Match(pattern, relPath); err == nil && ok {
			return true
		}
		for _, segment := range segments {
			if ok, err := path.Match(pattern, segment); err == nil && ok {
				return true
			}
		}
	}
	return false
}
