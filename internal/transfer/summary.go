package transfer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joe/pane-mirror/pkg/formatters"
)

// Summary renders the one message a UI shows at the end of a batch: the totals, then one line
// per skipped, failed or partially moved item.
func Summary(result *BatchResult) string {
	if result == nil {
		return ""
	}

	var b strings.Builder

	verb := "Copied"
	if result.Op == OpMove {
		verb = "Moved"
	}

	if result.Cancelled {
		fmt.Fprintf(&b, "Move cancelled: nothing was changed in %s.", result.DestDir)

		return b.String()
	}

	fmt.Fprintf(&b, "%s %d of %d items (%s) to %s.",
		verb, result.SucceededCount(), len(result.Items), formatters.FormatBytes(result.CompletedBytes), result.DestDir)

	for _, item := range result.Items {
		name := filepath.Base(item.Source)

		switch item.State {
		case Skipped:
			fmt.Fprintf(&b, "\nSkipped %s: %s", name, item.Reason)
		case Failed:
			fmt.Fprintf(&b, "\nFailed %s: %v", name, item.Err)
		case DeleteFailed:
			fmt.Fprintf(&b, "\nCopied %s but could not delete the original: %v", name, item.Err)
		case Pending, CollisionCheck, Overwriting, InFlight, Succeeded, PendingDeletion, Deleted:
		}
	}

	return b.String()
}
