package recording

import "fmt"

// FormatDuration renders seconds as MM:SS. Minutes are not wrapped at 60.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatRemainingTime renders max(0, maxSeconds-currentSeconds) as MM:SS.
func FormatRemainingTime(currentSeconds, maxSeconds int) string {
	return FormatDuration(max(0, maxSeconds-currentSeconds))
}
