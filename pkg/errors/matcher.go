package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
// Rules are checked in order: ssh reports auth failures as "permission denied (publickey...)",
// so auth must win over the generic permission rule.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		rules: []matchRule{
			{CategoryAuth, []string{
				"permission denied (publickey",
				"permission denied, please try again",
				"authentication failed",
				"unable to authenticate",
				"too many authentication failures",
			}},
			{CategoryConnection, []string{
				"connection refused",
				"connection timed out",
				"operation timed out",
				"i/o timeout",
				"no route to host",
				"could not resolve hostname",
				"connection closed by",
				"connection reset",
				"host is down",
			}},
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"operation not permitted",
			}},
			{CategoryDiskSpace, []string{
				"no space left on device",
				"disk full",
				"quota exceeded",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file not found",
				"path does not exist",
				"no mirror root",
			}},
			{CategoryDelete, []string{
				"directory not empty",
				"cannot remove",
				"delete failed",
			}},
			{CategoryCopy, []string{
				"short write",
				"input/output error",
				"i/o error",
				"rsync error",
			}},
		},
	}
}

type matchRule struct {
	category ErrorCategory
	patterns []string
}

type patternMatcher struct {
	rules []matchRule
}

// Match returns the category of the first rule with a matching pattern.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, rule := range m.rules {
		for _, pattern := range rule.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return rule.category
			}
		}
	}

	return CategoryUnknown
}
