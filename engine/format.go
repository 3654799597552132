package engine

import "fmt"

// =============================================================================
// DURATION FORMATTING - Shared everywhere elapsed/duration is shown
// =============================================================================

// FormatDuration renders seconds as "H:MM:SS": no leading zero on hours,
// minutes and seconds zero-padded to two digits. Any non-positive input
// renders as the literal "0:00:00".
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0:00:00"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
}
