package errors

import "fmt"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

type suggestionGenerator struct{}

// Generate returns actionable suggestions based on the error category and affected path.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryAuth:
		return g.authSuggestions()
	case CategoryConnection:
		return g.connectionSuggestions()
	case CategoryPermission:
		return g.permissionSuggestions(affectedPath)
	case CategoryDiskSpace:
		return g.diskSpaceSuggestions(affectedPath)
	case CategoryPath:
		return g.pathSuggestions(affectedPath)
	case CategoryDelete:
		return g.deleteSuggestions(affectedPath)
	case CategoryCopy:
		return g.copySuggestions()
	case CategoryUnknown:
		return g.unknownSuggestions(affectedPath)
	default:
		return g.unknownSuggestions(affectedPath)
	}
}

func (g *suggestionGenerator) authSuggestions() []string {
	return []string{
		"Check the username and password for this connection",
		"Reconnect so the saved password in the connection history is refreshed",
		"Verify the server allows password or keyboard-interactive authentication",
	}
}

func (g *suggestionGenerator) connectionSuggestions() []string {
	return []string{
		"Verify the host name and port are correct",
		"Check that the SSH server is running and reachable from this machine",
		"Try the operation again - the network may have been briefly unavailable",
	}
}

func (g *suggestionGenerator) copySuggestions() []string {
	return []string{
		"Check if there is sufficient disk space on the destination",
		"Try the operation again - this may be a transient I/O error",
		"Confirm rsync is installed on both this machine and the server",
	}
}

func (g *suggestionGenerator) deleteSuggestions(path string) []string {
	suggestions := []string{
		"The copy succeeded but the original could not be removed",
	}

	if path != "" {
		suggestions = append(suggestions, "Remove the leftover original manually: "+path)
	}

	return append(suggestions, "Check that you may delete files in the source directory")
}

func (g *suggestionGenerator) diskSpaceSuggestions(path string) []string {
	suggestions := []string{
		"Free up space on the destination device",
		"Check available space with 'df -h'",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify disk usage for the filesystem containing "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) pathSuggestions(path string) []string {
	suggestions := []string{
		"Verify the path exists and is spelled correctly",
	}

	if path != "" {
		suggestions = append(suggestions, "Check if the path exists: "+path)
	}

	return append(suggestions, "Refresh the pane so the mirror matches the server")
}

func (g *suggestionGenerator) permissionSuggestions(path string) []string {
	suggestions := []string{
		"Ensure you have read/write permissions for the files and directories",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check permissions with 'ls -la %s'", path))
	} else {
		suggestions = append(suggestions, "Check permissions with 'ls -la' on the affected path")
	}

	return suggestions
}

func (g *suggestionGenerator) unknownSuggestions(path string) []string {
	suggestions := []string{
		"Check the error message for more details",
		"Run again with --verbose and inspect the log",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
