package shared

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/pkg/errors"
)

// ErrorLimit bounds how many failed items the summary lists.
const ErrorLimit = 10

// RenderErrorList renders the failed and partially moved items of a batch with their
// suggestions, at most ErrorLimit of them. maxWidth <= 0 disables truncation.
func RenderErrorList(result *transfer.BatchResult, maxWidth int) string {
	if result == nil {
		return ""
	}

	var (
		builder strings.Builder
		shown   int
		total   int
	)

	for _, item := range result.Items {
		if item.State != transfer.Failed && item.State != transfer.DeleteFailed {
			continue
		}

		total++

		if shown >= ErrorLimit {
			continue
		}

		shown++

		name := filepath.Base(item.Source)
		if item.State == transfer.DeleteFailed {
			name += " (copied, original kept)"
		}

		fmt.Fprintf(&builder, "  %s %s\n", ErrorSymbol(), ErrorStyle().Render(name))

		errMsg := fmt.Sprint(item.Err)
		if maxWidth > ProgressEllipsisLength && len(errMsg) > maxWidth {
			errMsg = errMsg[:maxWidth-ProgressEllipsisLength] + "..."
		}

		fmt.Fprintf(&builder, "    %s\n", errMsg)

		suggestions := errors.FormatSuggestions(item.Err)
		if suggestions != "" {
			fmt.Fprintf(&builder, "    %s\n", strings.ReplaceAll(suggestions, "\n", "\n    "))
		}
	}

	if total > shown {
		fmt.Fprintf(&builder, "... and %d more error(s)\n", total-shown)
	}

	return builder.String()
}
