package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/internal/tui/shared"
	"github.com/joe/pane-mirror/internal/tui/widgets"
)

// maxItemLines bounds the per-item list while the batch runs.
const maxItemLines = 8

// View implements tea.Model
func (m Model) View() string {
	switch m.state {
	case stateAsking:
		return m.renderPrompt()
	case stateComplete:
		return m.renderComplete()
	}

	return m.renderRunning()
}

func (m Model) renderRunning() string {
	var b strings.Builder

	b.WriteString(shared.RenderTitle(m.spinner.View() + " Transfer in progress"))
	b.WriteString("\n")
	b.WriteString(shared.RenderTimeline(shared.BatchPhases(m.op == transfer.OpMove), m.phase))
	b.WriteString("\n\n")

	progress := 0.0
	if m.snapshot != nil {
		progress = m.snapshot.Progress
	}

	b.WriteString(shared.RenderProgress(m.bar, progress))
	b.WriteString("\n")
	b.WriteString(widgets.NewProgressWidget(m.Snapshot)())
	b.WriteString("\n\n")

	entries := make([]string, 0, len(m.order))
	for _, index := range m.order {
		line := m.items[index]
		entries = append(entries, fmt.Sprintf("%s %s %s", stateSymbol(line.state), filepath.Base(line.source), shared.RenderDim(line.state.String())))
	}

	b.WriteString(shared.RenderActivityLog("Items", entries, maxItemLines))
	b.WriteString("\n")

	if !m.quitting {
		b.WriteString(shared.RenderDim("\nq: hide progress (the transfer keeps running)"))
	}

	return shared.RenderBox(b.String())
}

func (m Model) renderPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", shared.RenderWarning(fmt.Sprintf("%d item(s) already exist in the destination:", len(m.prompt.Names))))
	b.WriteString(shared.RenderActivityLog("", m.prompt.Names, 0))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(shared.PromptArrow)
	b.WriteString(shared.RenderLabel("o") + " overwrite all  ")
	b.WriteString(shared.RenderLabel("s") + " skip all")

	if m.prompt.Op == transfer.OpMove {
		b.WriteString("  " + shared.RenderLabel("c") + " cancel move")
	}

	return shared.RenderWidgetBox(m.prompt.Op.String()+": name collision", b.String(), m.width)
}

func (m Model) renderComplete() string {
	return shared.RenderBox(widgets.NewSummaryWidget(m.Result, m.err)()) + "\n"
}

func stateSymbol(state transfer.ItemState) string {
	switch {
	case state == transfer.Failed || state == transfer.DeleteFailed:
		return shared.ErrorSymbol()
	case state.Succeeded():
		return shared.SuccessSymbol()
	case state == transfer.Skipped:
		return shared.RenderDim("-")
	}

	return shared.RenderDim("·")
}
