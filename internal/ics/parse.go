package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "daybook/internal/log"
)

// parsedEvent is one VEVENT before day filtering. Recurrence data is
// carried along so the day filter can expand RRULEs.
type parsedEvent struct {
	Name        string
	Summary     string
	Description string
	Location    string

	Start time.Time
	End   time.Time

	RawRRule string
	ExDates  []time.Time
}

// parseEvents parses an ICS payload into its VEVENTs. A VEVENT that
// cannot be parsed is logged and skipped; a document that cannot be
// parsed at all is an error.
func parseEvents(url string, body []byte) ([]parsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]parsedEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics: skipping vevent", "url", redactURL(url), "reason", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics: parsed document", "url", redactURL(url), "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (parsedEvent, error) {
	var out parsedEvent

	if p := ve.GetProperty(ical.ComponentProperty("NAME")); p != nil {
		out.Name = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, errors.New("missing or invalid DTSTART")
	}
	out.Start = start

	// A missing DTEND collapses to a zero-length event.
	end, err := ve.GetEndAt()
	if err != nil {
		end = start
	}
	if end.Before(start) {
		return out, errors.New("DTEND before DTSTART")
	}
	out.End = end

	// All-day events come through as bare DATE values; the library
	// anchors them at midnight, which is exactly the instant we want.

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := exdateLocation(p, start.Location())
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, perr := parseICSTime(part, loc); perr == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// exdateLocation resolves the location an EXDATE value is expressed in:
// its own TZID parameter when present and loadable, otherwise the
// event's DTSTART location so exclusions match occurrence starts.
func exdateLocation(p *ical.IANAProperty, fallback *time.Location) *time.Location {
	if params := p.ICalParameters; params != nil {
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			if loc, err := time.LoadLocation(tzs[0]); err == nil {
				return loc
			}
		}
	}
	return fallback
}

// parseICSTime parses a bare ICS date or date-time value, as found in
// EXDATE lists. Values without a Z suffix are local to loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
