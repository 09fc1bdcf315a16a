package errors

import (
	"errors"
	"regexp"
	"strings"
)

// Enricher enriches standard errors with actionable suggestions.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// NewEnricher creates a new Enricher with default pattern matcher and suggestion generator.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Compiled once, shared by all enrichers
	pathExtractionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\w+\s+([./][^\s:]+):`),
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:\\[^\s:]+):`),
	}
)

// pathCarrier is implemented by the taxonomy errors that know which path failed.
type pathCarrier interface {
	FailedPath() string
}

type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich wraps err with a category and suggestions. Already actionable errors are returned
// unchanged. An empty affectedPath is filled from a typed error's path or, failing that,
// from the message text.
func (e *enricher) Enrich(err error, affectedPath string) error {
	if err == nil {
		return nil
	}

	var actionableErr ActionableError
	if errors.As(err, &actionableErr) {
		return actionableErr
	}

	if affectedPath == "" {
		var carrier pathCarrier
		if errors.As(err, &carrier) {
			affectedPath = carrier.FailedPath()
		}
	}

	if affectedPath == "" {
		affectedPath = extractPath(err.Error())
	}

	category := e.matcher.Match(err.Error())
	if category == CategoryUnknown {
		category = categoryFromType(err)
	}

	return NewActionableError(
		err,
		category,
		e.generator.Generate(category, affectedPath),
		affectedPath,
	)
}

// categoryFromType falls back to the taxonomy type when the message text is not recognised.
func categoryFromType(err error) ErrorCategory {
	var (
		connErr *ConnectionError
		pathErr *PathResolutionError
	)

	switch {
	case errors.As(err, &connErr):
		return CategoryConnection
	case errors.As(err, &pathErr):
		return CategoryPath
	case errors.Is(err, ErrDeleteFailed):
		return CategoryDelete
	default:
		return CategoryUnknown
	}
}

// extractPath pulls a path out of messages like "open /path/to/file: permission denied".
func extractPath(errorMsg string) string {
	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			if path := strings.TrimSpace(matches[1]); path != "" {
				return path
			}
		}
	}

	return ""
}
