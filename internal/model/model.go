package model

import "time"

// Event is a single calendar event extracted from an ICS feed, already
// normalized: for all-day events Start/End carry midnight as their
// time-of-day. Text fields are empty when the source VEVENT omits them.
type Event struct {
	Name        string
	Summary     string
	Description string
	Location    string

	// Start and End are timezone-naive wall-clock instants; Start <= End.
	Start time.Time
	End   time.Time
}

// OnDate reports whether the event overlaps the given calendar date,
// comparing dates only and inclusive on both ends. Each value's date is
// taken in its own location; the comparison never converts instants, so
// a zoned feed and a reference date in another zone still line up.
func (e Event) OnDate(d time.Time) bool {
	day := ymd(d)
	return ymd(e.Start) <= day && day <= ymd(e.End)
}

// Task is one incomplete item pulled from the task database. All fields
// are required; rows that cannot produce all four are dropped upstream.
type Task struct {
	Name  string
	Due   time.Time
	Kind  string
	Group string
}

// ymd collapses a wall-clock date to a single comparable number.
func ymd(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
