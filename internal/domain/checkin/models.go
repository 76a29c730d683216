package checkin

import "time"

type CheckIn struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"orgId"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName,omitempty"`
	WeekStart    time.Time `json:"weekStart"`
	Achievements string    `json:"achievements"`
	Challenges   string    `json:"challenges"`
	NextWeekPlan string    `json:"nextWeekPlan"`
	Mood         int       `json:"mood"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// WeekStartFor truncates to the Monday of the given date's week, UTC midnight.
// Every check-in keys on this value, so two submissions in the same ISO week
// collide regardless of weekday.
func WeekStartFor(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
