// Package tui presents a running transfer batch: a Bubble Tea view for terminals and a plain
// progress bar for everything else. Both consume the engine's events.
package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/internal/tui/shared"
)

// View states.
const (
	stateRunning  = "running"
	stateAsking   = "asking"
	stateComplete = "complete"
)

// itemLine is one row of the per-item list.
type itemLine struct {
	source string
	state  transfer.ItemState
}

// Model renders one transfer batch fed by an EventBridge.
type Model struct {
	bridge   *shared.EventBridge
	bar      progress.Model
	spinner  spinner.Model
	state    string
	op       transfer.Op
	phase    string
	snapshot *transfer.ProgressSnapshot
	items    map[int]*itemLine
	order    []int
	prompt   *shared.CollisionPromptMsg
	result   *transfer.BatchResult
	err      error
	width    int
	quitting bool
}

// NewModel creates a Model listening on bridge.
func NewModel(bridge *shared.EventBridge) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		bridge:  bridge,
		bar:     shared.NewProgressModel(shared.ProgressBarWidth),
		spinner: spin,
		state:   stateRunning,
		phase:   shared.PhasePlan,
		items:   make(map[int]*itemLine),
	}
}

// Result returns the finished batch, or nil while it runs.
func (m Model) Result() *transfer.BatchResult {
	return m.result
}

// Err returns the batch error reported with BatchFinished.
func (m Model) Err() error {
	return m.err
}

// Snapshot returns the latest progress snapshot.
func (m Model) Snapshot() *transfer.ProgressSnapshot {
	return m.snapshot
}

// Phase returns the batch phase shown in the timeline.
func (m Model) Phase() string {
	return m.phase
}
