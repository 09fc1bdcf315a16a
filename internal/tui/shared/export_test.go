package shared

// SetColorsDisabledForTesting overrides color detection and returns the previous value.
func SetColorsDisabledForTesting(disabled bool) bool {
	previous := colorsDisabled
	colorsDisabled = disabled

	return previous
}
