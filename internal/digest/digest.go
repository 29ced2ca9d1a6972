// Package digest composes the calendar and task adapters into the
// report the CLI and the cron watcher print.
package digest

import (
	"context"
	"strings"
	"time"

	"daybook/internal/format"
	"daybook/internal/ics"
	appLog "daybook/internal/log"
	"daybook/internal/notion"
)

const divider = "---------------"

// Digest pulls from every configured calendar feed and one task
// database. Feeds fail independently: a broken URL is logged and its
// events are missing from the result, while the remaining feeds still
// contribute.
type Digest struct {
	fetcher *ics.Fetcher
	tasks   *notion.Client
	urls    []string
}

func New(fetcher *ics.Fetcher, tasks *notion.Client, urls []string) *Digest {
	return &Digest{fetcher: fetcher, tasks: tasks, urls: urls}
}

// EventLines renders every event on the given date across all feeds,
// in feed order, each feed internally sorted by (start, end).
func (d *Digest) EventLines(ctx context.Context, date time.Time) []string {
	var lines []string
	for _, url := range d.urls {
		events, err := d.fetcher.DayEvents(ctx, url, date)
		if err != nil {
			appLog.Error("digest: calendar feed failed", err)
			continue
		}
		lines = append(lines, format.EventLines(events)...)
	}
	return lines
}

// TaskLinesDueByTomorrow renders the incomplete tasks due before
// tomorrow, ascending by due date. A failed query propagates so the
// caller can tell "no tasks" from "service unreachable".
func (d *Digest) TaskLinesDueByTomorrow(ctx context.Context) ([]string, error) {
	rows, err := d.tasks.QueryDueByTomorrow(ctx)
	if err != nil {
		return nil, err
	}
	return d.tasks.DisplayStrings(ctx, rows), nil
}

// SearchCandidates builds the candidate pool for fuzzy search from the
// incomplete tasks in the database.
func (d *Digest) SearchCandidates(ctx context.Context) ([]string, error) {
	rows, err := d.tasks.QueryIncomplete(ctx, 0)
	if err != nil {
		return nil, err
	}
	return d.tasks.DisplayStrings(ctx, rows), nil
}

// Report assembles the printable today view: due tasks first, then the
// date's events, each under a labeled header as "- {line}" entries.
func (d *Digest) Report(ctx context.Context, date time.Time) (string, error) {
	taskLines, err := d.TaskLinesDueByTomorrow(ctx)
	if err != nil {
		return "", err
	}
	eventLines := d.EventLines(ctx, date)

	var b strings.Builder
	writeSection(&b, "Tasks due today:", taskLines)
	writeSection(&b, "Events for "+date.Format("2006-01-02")+":", eventLines)
	return b.String(), nil
}

func writeSection(b *strings.Builder, header string, lines []string) {
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}
