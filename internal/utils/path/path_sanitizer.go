package pathutils

import (
	"path/filepath"
	"strings"
)

// PathSanitizer normalizes user-supplied project paths.
type PathSanitizer struct {
	homeExpander *HomeExpander
}

// NewPathSanitizer constructs a PathSanitizer. A nil expander uses the operating system home directory.
func NewPathSanitizer(homeExpander *HomeExpander) *PathSanitizer {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	return &PathSanitizer{homeExpander: homeExpander}
}

// Sanitize trims, expands "~", cleans and de-duplicates paths while preserving input order.
func (sanitizer *PathSanitizer) Sanitize(candidatePaths []string) []string {
	sanitized := make([]string, 0, len(candidatePaths))
	seen := make(map[string]struct{}, len(candidatePaths))
	for _, candidate := range candidatePaths {
		cleaned := sanitizer.SanitizePath(candidate)
		if len(cleaned) == 0 {
			continue
		}
		if _, duplicate := seen[cleaned]; duplicate {
			continue
		}
		seen[cleaned] = struct{}{}
		sanitized = append(sanitized, cleaned)
	}
	return sanitized
}

// SanitizePath normalizes a single path; blank input yields an empty string.
func (sanitizer *PathSanitizer) SanitizePath(candidatePath string) string {
	trimmed := strings.TrimSpace(candidatePath)
	if len(trimmed) == 0 {
		return ""
	}
	return filepath.Clean(sanitizer.homeExpander.Expand(trimmed))
}
