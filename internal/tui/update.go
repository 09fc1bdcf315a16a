package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/internal/tui/shared"
)

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.bridge.ListenCmd())
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(shared.MaxProgressBarWidth, max(shared.ProgressBarWidth/2, msg.Width-shared.DefaultPadding*4))

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case shared.CollisionPromptMsg:
		m.state = stateAsking
		m.prompt = &msg

		return m, nil

	case shared.EngineEventMsg:
		return m.handleEvent(msg.Event)

	case shared.BridgeClosedMsg:
		m.quitting = true

		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleEvent(event transfer.Event) (tea.Model, tea.Cmd) {
	switch e := event.(type) {
	case transfer.BatchStarted:
		m.op = e.Op
		m.phase = shared.PhaseTransfer

	case transfer.PaneResynced:
		m.phase = shared.PhaseRefresh

	case transfer.ProgressUpdated:
		snapshot := e.Snapshot
		m.snapshot = &snapshot

	case transfer.ItemStateChanged:
		line, ok := m.items[e.Index]
		if !ok {
			line = &itemLine{source: e.Source}
			m.items[e.Index] = line
			m.order = append(m.order, e.Index)
		}

		line.state = e.State

		if e.State == transfer.PendingDeletion {
			m.phase = shared.PhaseDelete
		}

	case transfer.BatchFinished:
		m.state = stateComplete
		m.phase = shared.PhaseDone
		m.result = e.Result
		m.err = e.Err

		return m, tea.Quit
	}

	return m, m.bridge.ListenCmd()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == stateAsking && m.prompt != nil {
		decision, ok := decisionForKey(msg.String(), m.prompt.Op)
		if !ok {
			return m, nil
		}

		m.prompt.Reply <- decision
		m.prompt = nil
		m.state = stateRunning

		return m, m.bridge.ListenCmd()
	}

	if msg.String() == shared.KeyCtrlC || msg.String() == "q" {
		// Transfers cannot be interrupted; leaving only stops rendering.
		m.quitting = true

		return m, tea.Quit
	}

	return m, nil
}

func decisionForKey(key string, op transfer.Op) (transfer.Decision, bool) {
	switch key {
	case "o", "O":
		return transfer.OverwriteAll, true
	case "s", "S", "esc":
		return transfer.SkipAll, true
	case "c", "C":
		if op == transfer.OpMove {
			return transfer.CancelBatch, true
		}
	}

	return transfer.SkipAll, false
}
