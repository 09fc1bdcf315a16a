package shared

import (
	"time"

	"github.com/joe/pane-mirror/pkg/formatters"
)

// FormatBytes formats bytes into human-readable format (e.g., "1.5 MB")
func FormatBytes(bytes int64) string {
	return formatters.FormatBytes(bytes)
}

// FormatDuration formats duration into human-readable format (e.g., "2m 30s")
func FormatDuration(duration time.Duration) string {
	return formatters.FormatDuration(duration)
}

// FormatRate formats transfer rate into human-readable format (e.g., "5.2 MB/s")
func FormatRate(bytesPerSec float64) string {
	return formatters.FormatRate(bytesPerSec)
}

// TruncatePath shortens path to maxWidth, keeping its tail.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if maxWidth <= ProgressEllipsisLength || len(runes) <= maxWidth {
		return path
	}

	return "..." + string(runes[len(runes)-maxWidth+ProgressEllipsisLength:])
}
