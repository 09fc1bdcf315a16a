package shared

import (
	"fmt"
	"strings"
)

// RenderActivityLog renders log entries oldest first under an optional title.
// maxEntries > 0 keeps only the most recent entries.
func RenderActivityLog(title string, entries []string, maxEntries int) string {
	var builder strings.Builder

	if trimmed := strings.TrimSpace(title); trimmed != "" {
		builder.WriteString(RenderLabel(trimmed))
		builder.WriteString("\n")
	}

	if maxEntries > 0 && maxEntries < len(entries) {
		hidden := len(entries) - maxEntries
		entries = entries[hidden:]

		builder.WriteString(RenderDim("  ... " + plural(hidden, "earlier item")))
		builder.WriteString("\n")
	}

	for i, entry := range entries {
		builder.WriteString("  ")
		builder.WriteString(entry)

		if i < len(entries)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}

	return fmt.Sprintf("%d %ss", n, noun)
}
