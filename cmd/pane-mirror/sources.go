package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

var errNoMatches = errors.New("pattern matched nothing")

// expandSources makes sources absolute and appends the matches of pattern, dropping
// duplicates while keeping order.
func expandSources(sources []string, pattern string) ([]string, error) {
	candidates := append([]string(nil), sources...)

	if pattern != "" {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to expand pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 && len(sources) == 0 {
			return nil, fmt.Errorf("%w: %s", errNoMatches, pattern)
		}

		candidates = append(candidates, matches...)
	}

	seen := make(map[string]bool, len(candidates))
	expanded := make([]string, 0, len(candidates))

	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", candidate, err)
		}

		if seen[abs] {
			continue
		}

		seen[abs] = true
		expanded = append(expanded, abs)
	}

	return expanded, nil
}
