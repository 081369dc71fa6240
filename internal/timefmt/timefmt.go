// Package timefmt renders elapsed durations the way the store displays
// them on pool and task screens.
package timefmt

import (
	"fmt"
	"time"
)

// Waiting renders elapsed time coarsely: whole days as "N gün", otherwise
// hours and minutes as "H:MM saat", otherwise minutes and seconds as
// "M:SS dk".
func Waiting(since, now time.Time) string {
	elapsed := now.Sub(since)
	if elapsed < 0 {
		elapsed = 0
	}

	if days := int(elapsed.Hours()) / 24; days >= 1 {
		return fmt.Sprintf("%d gün", days)
	}
	if hours := int(elapsed.Hours()); hours >= 1 {
		minutes := int(elapsed.Minutes()) % 60
		return fmt.Sprintf("%d:%02d saat", hours, minutes)
	}
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60
	return fmt.Sprintf("%d:%02d dk", minutes, seconds)
}
