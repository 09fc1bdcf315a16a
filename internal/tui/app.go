package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/pane-mirror/internal/tui/shared"
)

// Run shows the batch view until BatchFinished arrives or the user hides it.
func Run(bridge *shared.EventBridge, input io.Reader, output io.Writer) (Model, error) {
	program := tea.NewProgram(NewModel(bridge), tea.WithInput(input), tea.WithOutput(output))

	final, err := program.Run()
	if err != nil {
		return Model{}, fmt.Errorf("failed to run progress view: %w", err)
	}

	model, ok := final.(Model)
	if !ok {
		return Model{}, fmt.Errorf("unexpected model type %T", final) //nolint:err113 // programming error
	}

	return model, nil
}
