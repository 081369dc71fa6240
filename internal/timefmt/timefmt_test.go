package timefmt

import (
	"testing"
	"time"
)

func TestWaiting(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{name: "seconds only", elapsed: 45 * time.Second, want: "0:45 dk"},
		{name: "minutes and seconds", elapsed: 5*time.Minute + 7*time.Second, want: "5:07 dk"},
		{name: "just under an hour", elapsed: 59*time.Minute + 59*time.Second, want: "59:59 dk"},
		{name: "exactly one hour", elapsed: time.Hour, want: "1:00 saat"},
		{name: "hours and minutes", elapsed: 3*time.Hour + 4*time.Minute, want: "3:04 saat"},
		{name: "just under a day", elapsed: 23*time.Hour + 59*time.Minute, want: "23:59 saat"},
		{name: "exactly one day", elapsed: 24 * time.Hour, want: "1 gün"},
		{name: "several days", elapsed: 72*time.Hour + 5*time.Hour, want: "3 gün"},
		{name: "future timestamp clamps to zero", elapsed: -time.Minute, want: "0:00 dk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Waiting(now.Add(-tt.elapsed), now)
			if got != tt.want {
				t.Errorf("Waiting(elapsed=%v) = %q, want %q", tt.elapsed, got, tt.want)
			}
		})
	}
}
