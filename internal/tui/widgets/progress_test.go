//nolint:varnamelen // Test files use idiomatic short variable names
package widgets_test

import (
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/internal/tui/widgets"
)

func TestNewProgressWidget_ShowsItemBytesAndETA(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	snapshot := &transfer.ProgressSnapshot{
		Item:       "/home/joe/report.pdf",
		Index:      2,
		Total:      5,
		Progress:   0.5,
		Speed:      2 * 1024 * 1024,
		ETA:        90 * time.Second,
		Op:         transfer.OpMove,
		TotalBytes: 100 * 1024 * 1024,
	}

	result := widgets.NewProgressWidget(func() *transfer.ProgressSnapshot { return snapshot })()

	g.Expect(result).Should(ContainSubstring("Moving 2/5"))
	g.Expect(result).Should(ContainSubstring("report.pdf"))
	g.Expect(result).Should(ContainSubstring("50.0 MB / 100.0 MB"))
	g.Expect(result).Should(ContainSubstring("50.0%"))
	g.Expect(result).Should(ContainSubstring("2.0 MB/s"))
	g.Expect(result).Should(ContainSubstring("ETA 1m 30s"))
}

func TestNewProgressWidget_CopyVerb(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	snapshot := &transfer.ProgressSnapshot{Item: "a", Index: 1, Total: 1, Op: transfer.OpCopy}

	g.Expect(widgets.NewProgressWidget(func() *transfer.ProgressSnapshot { return snapshot })()).
		Should(ContainSubstring("Copying 1/1"))
}

func TestNewProgressWidget_BeforeFirstSnapshot(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	result := widgets.NewProgressWidget(func() *transfer.ProgressSnapshot { return nil })()

	g.Expect(result).Should(Equal("Preparing transfer..."))
}

func TestNewProgressWidget_ReadsLatestSnapshot(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	snapshot := &transfer.ProgressSnapshot{Item: "first.txt", Index: 1, Total: 2}
	widget := widgets.NewProgressWidget(func() *transfer.ProgressSnapshot { return snapshot })

	g.Expect(widget()).Should(ContainSubstring("first.txt"))

	snapshot = &transfer.ProgressSnapshot{Item: "second.txt", Index: 2, Total: 2}

	g.Expect(widget()).Should(ContainSubstring("second.txt"))
}
