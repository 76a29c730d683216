package checkin

import (
	"testing"
	"time"
)

func TestWeekStartFor(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			"monday maps to itself",
			time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC),
			time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			"wednesday maps back to monday",
			time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			"sunday belongs to the preceding monday",
			time.Date(2026, 9, 6, 23, 59, 0, 0, time.UTC),
			time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			"week spanning a month boundary",
			time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WeekStartFor(tc.in); !got.Equal(tc.want) {
				t.Fatalf("WeekStartFor(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestWeekStartForSameWeekCollides(t *testing.T) {
	monday := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	friday := time.Date(2026, 9, 4, 17, 0, 0, 0, time.UTC)
	if !WeekStartFor(monday).Equal(WeekStartFor(friday)) {
		t.Fatal("expected monday and friday of the same week to share a week start")
	}
}
