package tui_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/internal/tui"
)

func TestPlainRenderer_RendersBatch(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var out bytes.Buffer

	result := &transfer.BatchResult{Op: transfer.OpCopy, DestDir: "/mirror"}
	events := make(chan transfer.Event, 10)
	events <- transfer.BatchStarted{Op: transfer.OpCopy, Items: 3, TotalBytes: 100}
	events <- transfer.ProgressUpdated{Snapshot: transfer.ProgressSnapshot{Item: "/local/a.txt", Index: 1, Total: 3, Progress: 0.5}}
	events <- transfer.ItemStateChanged{Index: 1, Source: "/local/b.txt", State: transfer.Skipped}
	events <- transfer.ItemStateChanged{Index: 2, Source: "/local/c.txt", State: transfer.Failed, Err: errors.New("disk full")}
	events <- transfer.PaneResynced{Dir: "/mirror", Err: errors.New("listing failed")}
	events <- transfer.BatchFinished{Result: result, Err: transfer.ErrBatchActive, Summary: "Copied 1 of 3 items (50 B) to /mirror."}
	close(events)

	got, err := tui.NewPlainRenderer(&out).Run(events)

	g.Expect(got).To(Equal(result))
	g.Expect(err).To(MatchError(transfer.ErrBatchActive))

	text := out.String()
	g.Expect(text).To(ContainSubstring("skipped b.txt"))
	g.Expect(text).To(ContainSubstring("failed c.txt: disk full"))
	g.Expect(text).To(ContainSubstring("could not refresh /mirror: listing failed"))
	g.Expect(text).To(ContainSubstring("Copied 1 of 3 items (50 B) to /mirror."))
}

func TestPlainRenderer_ToleratesEventsBeforeStart(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var out bytes.Buffer

	renderer := tui.NewPlainRenderer(&out)
	renderer.Handle(transfer.ProgressUpdated{})
	renderer.Handle(transfer.ItemStateChanged{Source: "/x/moved.txt", State: transfer.DeleteFailed, Err: errors.New("busy")})

	g.Expect(out.String()).To(ContainSubstring("copied moved.txt but could not delete the original: busy"))
}

func TestPromptCollision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		op       transfer.Op
		input    string
		expected transfer.Decision
	}{
		{"overwrite", transfer.OpCopy, "o\n", transfer.OverwriteAll},
		{"skip", transfer.OpMove, "s\n", transfer.SkipAll},
		{"cancel move", transfer.OpMove, "c\n", transfer.CancelBatch},
		{"cancel is not a copy answer", transfer.OpCopy, "c\n", transfer.SkipAll},
		{"unknown answer skips", transfer.OpCopy, "maybe\n", transfer.SkipAll},
		{"closed input skips", transfer.OpMove, "", transfer.SkipAll},
	}

	for _, tt := range tests { //nolint:varnamelen // Standard Go idiom for table-driven tests
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			var out bytes.Buffer

			resolve := tui.PromptCollision(strings.NewReader(tt.input), &out)

			g.Expect(resolve(tt.op, []string{"a.txt", "b.txt"})).To(Equal(tt.expected))
			g.Expect(out.String()).To(ContainSubstring("2 item(s) already exist in the destination: a.txt, b.txt"))
			g.Expect(strings.Contains(out.String(), "[c]ancel move")).To(Equal(tt.op == transfer.OpMove))
		})
	}
}
