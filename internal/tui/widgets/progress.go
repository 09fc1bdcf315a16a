package widgets

import (
	"fmt"

	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/internal/tui/shared"
)

// NewProgressWidget creates a widget that displays batch progress.
// Returns a closure that formats the latest snapshot.
func NewProgressWidget(getSnapshot func() *transfer.ProgressSnapshot) func() string {
	return func() string {
		snapshot := getSnapshot()
		if snapshot == nil {
			return "Preparing transfer..."
		}

		return fmt.Sprintf("%s %d/%d: %s\n%s / %s (%.1f%%)  %s  ETA %s",
			opVerb(snapshot.Op),
			snapshot.Index,
			snapshot.Total,
			shared.TruncatePath(snapshot.Item, shared.MaxProgressBarWidth),
			shared.FormatBytes(transferred(snapshot)),
			shared.FormatBytes(snapshot.TotalBytes),
			snapshot.Progress*shared.ProgressPercentageScale,
			shared.FormatRate(snapshot.Speed),
			shared.FormatDuration(snapshot.ETA))
	}
}

func opVerb(op transfer.Op) string {
	if op == transfer.OpMove {
		return "Moving"
	}

	return "Copying"
}

func transferred(snapshot *transfer.ProgressSnapshot) int64 {
	return int64(snapshot.Progress * float64(snapshot.TotalBytes))
}
