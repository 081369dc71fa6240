package service

import "testing"

func TestCanAssign(t *testing.T) {
	tests := []struct {
		name            string
		capacityLimited bool
		limit           int
		currentLoad     int
		othersWithSpace int
		wantAllowed     bool
	}{
		{
			name:            "unlimited role bypasses entirely",
			capacityLimited: false,
			limit:           1,
			currentLoad:     50,
			othersWithSpace: 10,
			wantAllowed:     true,
		},
		{
			name:            "under limit always allowed",
			capacityLimited: true,
			limit:           3,
			currentLoad:     2,
			othersWithSpace: 5,
			wantAllowed:     true,
		},
		{
			name:            "at limit denied while others have room",
			capacityLimited: true,
			limit:           1,
			currentLoad:     1,
			othersWithSpace: 1,
			wantAllowed:     false,
		},
		{
			name:            "at limit allowed as last resort when nobody has room",
			capacityLimited: true,
			limit:           1,
			currentLoad:     1,
			othersWithSpace: 0,
			wantAllowed:     true,
		},
		{
			name:            "over limit still allowed when nobody has room",
			capacityLimited: true,
			limit:           1,
			currentLoad:     4,
			othersWithSpace: 0,
			wantAllowed:     true,
		},
		{
			name:            "over limit denied while others have room",
			capacityLimited: true,
			limit:           2,
			currentLoad:     3,
			othersWithSpace: 2,
			wantAllowed:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanAssign(tt.capacityLimited, tt.limit, tt.currentLoad, tt.othersWithSpace)
			if got.Allowed != tt.wantAllowed {
				t.Errorf("CanAssign(%v, %d, %d, %d).Allowed = %v, want %v",
					tt.capacityLimited, tt.limit, tt.currentLoad, tt.othersWithSpace,
					got.Allowed, tt.wantAllowed)
			}
			if !got.Allowed && got.Reason == "" {
				t.Error("deny decision carries no reason")
			}
		})
	}
}
