package shared

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Batch phases shown in the timeline.
const (
	PhasePlan     = "plan"
	PhaseTransfer = "transfer"
	PhaseDelete   = "delete"
	PhaseRefresh  = "refresh"
	PhaseDone     = "done"
)

// ActiveSymbol returns a circled dot symbol with ASCII fallback
func ActiveSymbol() string {
	if colorsDisabled {
		return "[*]"
	}

	return "◉"
}

// CancelledSymbol returns a cancelled/prohibited symbol with ASCII fallback
func CancelledSymbol() string {
	if colorsDisabled {
		return "[!]"
	}

	return "⊘"
}

// PendingSymbol returns an empty circle with ASCII fallback
func PendingSymbol() string {
	if colorsDisabled {
		return "[ ]"
	}

	return "○"
}

// BatchPhases lists the phases of a batch; only moves delete sources.
func BatchPhases(move bool) []string {
	if move {
		return []string{PhasePlan, PhaseTransfer, PhaseDelete, PhaseRefresh, PhaseDone}
	}

	return []string{PhasePlan, PhaseTransfer, PhaseRefresh, PhaseDone}
}

// RenderTimeline renders the phase progression for the header.
// Phases before current are completed, later ones pending. A "_error" suffix on
// currentPhase marks it failed and the rest cancelled. Unknown phases render as the first.
func RenderTimeline(phases []string, currentPhase string) string {
	phase := strings.ToLower(strings.TrimSpace(currentPhase))

	isError := strings.HasSuffix(phase, "_error")
	if isError {
		phase = strings.TrimSuffix(phase, "_error")
	}

	currentIdx := 0

	for i, key := range phases {
		if key == phase {
			currentIdx = i

			break
		}
	}

	parts := make([]string, 0, len(phases))

	for idx, key := range phases {
		var (
			symbol string
			style  lipgloss.Style
		)

		switch {
		case isError && idx == currentIdx:
			symbol = ErrorSymbol()
			style = lipgloss.NewStyle().Foreground(ErrorColor())
		case isError && idx > currentIdx:
			symbol = CancelledSymbol()
			style = DimStyle()
		case idx < currentIdx, idx == currentIdx && idx == len(phases)-1:
			symbol = SuccessSymbol()
			style = lipgloss.NewStyle().Foreground(SuccessColor())
		case idx == currentIdx:
			symbol = ActiveSymbol()
			style = lipgloss.NewStyle().Foreground(PrimaryColor())
		default:
			symbol = PendingSymbol()
			style = DimStyle()
		}

		parts = append(parts, style.Render(symbol+" "+phaseTitle(key)))
	}

	return strings.Join(parts, DimStyle().Render(" ── "))
}

func phaseTitle(key string) string {
	if key == "" {
		return key
	}

	return strings.ToUpper(key[:1]) + key[1:]
}
