package tui

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/internal/tui/shared"
)

// plainBarWidth is the bar width for non-terminal output.
const plainBarWidth = 50

// PlainRenderer prints a batch as a single progress bar plus one line per notable item, for
// output that is not a terminal.
type PlainRenderer struct {
	out    io.Writer
	bar    *progressbar.ProgressBar
	total  int64
	result *transfer.BatchResult
	err    error
}

// NewPlainRenderer creates a PlainRenderer writing to out.
func NewPlainRenderer(out io.Writer) *PlainRenderer {
	return &PlainRenderer{out: out}
}

// Run renders events until the channel closes and returns the finished batch.
func (p *PlainRenderer) Run(events <-chan transfer.Event) (*transfer.BatchResult, error) {
	for event := range events {
		p.Handle(event)
	}

	return p.result, p.err
}

// Handle renders one event.
func (p *PlainRenderer) Handle(event transfer.Event) {
	switch e := event.(type) {
	case transfer.BatchStarted:
		p.start(e)
	case transfer.ProgressUpdated:
		p.update(e.Snapshot)
	case transfer.ItemStateChanged:
		p.item(e)
	case transfer.PaneResynced:
		if e.Err != nil {
			p.println(fmt.Sprintf("could not refresh %s: %v", e.Dir, e.Err))
		}
	case transfer.BatchFinished:
		p.finish(e)
	}
}

func (p *PlainRenderer) start(e transfer.BatchStarted) {
	p.total = e.TotalBytes
	p.bar = progressbar.NewOptions64(max(e.TotalBytes, 1),
		progressbar.OptionSetDescription(fmt.Sprintf("%s %d item(s)", e.Op, e.Items)),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(plainBarWidth),
		progressbar.OptionThrottle(transfer.ThrottleInterval),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(p.out, "\n")
		}),
		progressbar.OptionSpinnerType(14), //nolint:mnd // progressbar spinner style
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (p *PlainRenderer) update(snapshot transfer.ProgressSnapshot) {
	if p.bar == nil {
		return
	}

	p.bar.Describe(fmt.Sprintf("[%d/%d] %s", snapshot.Index, snapshot.Total,
		shared.TruncatePath(snapshot.Item, shared.ProgressBarWidth)))
	_ = p.bar.Set64(int64(snapshot.Progress * float64(max(p.total, 1))))
}

func (p *PlainRenderer) item(e transfer.ItemStateChanged) {
	name := filepath.Base(e.Source)

	switch e.State {
	case transfer.Failed:
		p.println(fmt.Sprintf("failed %s: %v", name, e.Err))
	case transfer.DeleteFailed:
		p.println(fmt.Sprintf("copied %s but could not delete the original: %v", name, e.Err))
	case transfer.Skipped:
		p.println("skipped " + name)
	case transfer.Pending, transfer.CollisionCheck, transfer.Overwriting, transfer.InFlight,
		transfer.Succeeded, transfer.PendingDeletion, transfer.Deleted:
	}
}

func (p *PlainRenderer) finish(e transfer.BatchFinished) {
	p.result = e.Result
	p.err = e.Err

	if p.bar != nil {
		_ = p.bar.Finish()
	}

	_, _ = fmt.Fprintln(p.out, e.Summary)
}

// println prints a line without tearing the bar.
func (p *PlainRenderer) println(line string) {
	if p.bar != nil {
		_ = p.bar.Clear()
	}

	_, _ = fmt.Fprintln(p.out, line)
}

// PromptCollision returns a resolver asking on out and reading one answer from in. An
// unreadable or unknown answer skips.
func PromptCollision(in io.Reader, out io.Writer) transfer.CollisionResolver {
	reader := bufio.NewReader(in)

	return func(op transfer.Op, names []string) transfer.Decision {
		_, _ = fmt.Fprintf(out, "%d item(s) already exist in the destination: %s\n", len(names), strings.Join(names, ", "))

		choices := "[o]verwrite all, [s]kip all"
		if op == transfer.OpMove {
			choices += ", [c]ancel move"
		}

		_, _ = fmt.Fprintf(out, "%s%s? ", shared.PromptArrow, choices)

		answer, _ := reader.ReadString('\n')

		decision, ok := decisionForKey(strings.TrimSpace(answer), op)
		if !ok {
			return transfer.SkipAll
		}

		return decision
	}
}
