package ignore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
)

// PatternSet holds the two pattern lists driving exclusion decisions.
// Both lists are treated as unordered sets during matching.
type PatternSet struct {
	Directories []string // Patterns applied to directory paths.
	Files       []string // Patterns applied to file paths.
}

// Clone returns a deep copy of the pattern set.
func (ps PatternSet) Clone() PatternSet {
	return PatternSet{
		Directories: append([]string(nil), ps.Directories...),
		Files:       append([]string(nil), ps.Files...),
	}
}

// Validate checks every pattern for glob syntax errors, such as an unclosed
// character class. A pattern set that fails validation must not replace the
// previously active one.
func (ps PatternSet) Validate() error {
	for _, pattern := range ps.Directories {
		if err := validatePattern(pattern); err != nil {
			return fmt.Errorf("directory pattern %q: %w", pattern, err)
		}
	}
	for _, pattern := range ps.Files {
		if err := validatePattern(pattern); err != nil {
			return fmt.Errorf("file pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// validatePattern probes the pattern against path.Match. A structurally
// broken pattern surfaces as ErrBadPattern; an empty pattern is rejected
// because it can never match anything.
func validatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("pattern is empty")
	}
	if strings.Count(pattern, "[") != strings.Count(pattern, "]") {
		return path.ErrBadPattern
	}
	if _, err := path.Match(pattern, pattern); err != nil {
		return err
	}
	return nil
}

// Fingerprint returns a deterministic digest of the pattern set, stable
// across processes and restarts. Both lists are sorted and joined with fixed
// delimiters before hashing, so equal sets always produce equal fingerprints
// regardless of declaration order.
func (ps PatternSet) Fingerprint() string {
	directories := append([]string(nil), ps.Directories...)
	files := append([]string(nil), ps.Files...)
	sort.Strings(directories)
	sort.Strings(files)

	joined := "dirs:" + strings.Join(directories, ",") + "|files:" + strings.Join(files, ",")
	digest := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(digest[:])
}
