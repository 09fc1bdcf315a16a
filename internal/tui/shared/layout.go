package shared

import "github.com/charmbracelet/lipgloss"

// RenderWidgetBox renders content under a bold title inside a bordered box.
// width <= 0 lets the box size to its content.
func RenderWidgetBox(title, content string, width int) string {
	const widthOverhead = 4 // borders (2) and padding (2)

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor())

	box := BoxStyle()
	if width > widthOverhead {
		box = box.Width(width - widthOverhead)
	}

	return box.Render(titleStyle.Render(title) + "\n" + content)
}
