package engine_test

import (
	"testing"

	"github.com/grindstone/activity-engine/engine"
)

func TestFormatDuration_ZeroAndNegative(t *testing.T) {
	// GIVEN: Non-positive durations
	// WHEN: Formatting
	// THEN: Both render as the zero display "0:00:00"

	if got := engine.FormatDuration(0); got != "0:00:00" {
		t.Errorf("FormatDuration(0) = %q, want %q", got, "0:00:00")
	}
	if got := engine.FormatDuration(-5); got != "0:00:00" {
		t.Errorf("FormatDuration(-5) = %q, want %q", got, "0:00:00")
	}
}

func TestFormatDuration_Rendering(t *testing.T) {
	// GIVEN: A spread of durations
	// WHEN: Formatting
	// THEN: Hours are unpadded, minutes and seconds zero-padded to two digits

	cases := []struct {
		seconds int64
		want    string
	}{
		{1, "0:00:01"},
		{59, "0:00:59"},
		{60, "0:01:00"},
		{125, "0:02:05"},
		{3599, "0:59:59"},
		{3600, "1:00:00"},
		{3661, "1:01:01"},
		{86400, "24:00:00"},
		{90061, "25:01:01"},
	}

	for _, tc := range cases {
		if got := engine.FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
