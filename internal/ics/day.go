package ics

import (
	"context"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "daybook/internal/log"
	"daybook/internal/model"
)

// DayEvents fetches the feed at url and returns every event that touches
// the given reference date: an event is included when its start and end
// dates (inclusive) bracket the reference date. Recurring events
// contribute the occurrence that falls on that date, with EXDATEs
// honored. The result is sorted ascending by (start, end) and the sort
// is stable.
func (f *Fetcher) DayEvents(ctx context.Context, url string, ref time.Time) ([]model.Event, error) {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	parsed, err := parseEvents(url, body)
	if err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}

	events := make([]model.Event, 0, len(parsed))
	for _, pe := range parsed {
		events = append(events, occurrencesOn(pe, ref)...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].End.Before(events[j].End)
	})

	appLog.Debug("ics: day events", "url", redactURL(url),
		"date", ref.Format("2006-01-02"), "count", len(events))
	return events, nil
}

// occurrencesOn resolves a parsed VEVENT to zero or more concrete events
// overlapping the reference date.
func occurrencesOn(pe parsedEvent, ref time.Time) []model.Event {
	if pe.RawRRule == "" {
		ev := toEvent(pe, pe.Start, pe.End)
		if ev.OnDate(ref) {
			return []model.Event{ev}
		}
		return nil
	}

	r, err := rrule.StrToRRule(pe.RawRRule)
	if err != nil {
		appLog.Warn("ics: unparseable RRULE, using base event only",
			"rrule", pe.RawRRule, "reason", err)
		ev := toEvent(pe, pe.Start, pe.End)
		if ev.OnDate(ref) {
			return []model.Event{ev}
		}
		return nil
	}
	r.DTStart(pe.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range pe.ExDates {
		set.ExDate(ex.In(pe.Start.Location()))
	}

	dur := pe.End.Sub(pe.Start)

	// An instance overlaps the reference day when it starts no later than
	// the day's end and ends no earlier than the day's start.
	loc := pe.Start.Location()
	dayStart := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	var out []model.Event
	for _, instStart := range set.Between(dayStart.Add(-dur), dayEnd, true) {
		ev := toEvent(pe, instStart, instStart.Add(dur))
		if ev.OnDate(ref) {
			out = append(out, ev)
		}
	}
	return out
}

func toEvent(pe parsedEvent, start, end time.Time) model.Event {
	return model.Event{
		Name:        pe.Name,
		Summary:     pe.Summary,
		Description: pe.Description,
		Location:    pe.Location,
		Start:       start,
		End:         end,
	}
}
