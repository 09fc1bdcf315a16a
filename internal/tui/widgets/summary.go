package widgets

import (
	"fmt"
	"strings"

	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/internal/tui/shared"
)

// NewSummaryWidget creates a widget that displays the batch summary.
// Returns a closure that formats the result, its resynced panes and its failures.
func NewSummaryWidget(getResult func() *transfer.BatchResult, err error) func() string {
	return func() string {
		result := getResult()
		if result == nil {
			if err != nil {
				return fmt.Sprintf("Error: %v", err)
			}

			return "No result available"
		}

		var b strings.Builder

		headline := transfer.Summary(result)
		if idx := strings.IndexByte(headline, '\n'); idx >= 0 {
			headline = headline[:idx]
		}

		switch {
		case result.Cancelled:
			b.WriteString(shared.RenderWarning(headline))
		case result.Count(transfer.Failed, transfer.DeleteFailed) > 0:
			b.WriteString(shared.RenderWarning(headline))
		default:
			b.WriteString(shared.RenderSuccess(headline))
		}

		fmt.Fprintf(&b, "\nTime elapsed: %s", shared.FormatDuration(result.Duration))

		if skipped := result.Count(transfer.Skipped); skipped > 0 && !result.Cancelled {
			fmt.Fprintf(&b, "\nSkipped: %d", skipped)
		}

		for _, dir := range result.Resynced {
			fmt.Fprintf(&b, "\n%s", shared.RenderDim("Refreshed "+dir))
		}

		if errs := shared.RenderErrorList(result, shared.MaxProgressBarWidth); errs != "" {
			b.WriteString("\n\n")
			b.WriteString(errs)
		}

		return b.String()
	}
}
