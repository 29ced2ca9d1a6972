package notion

import (
	"context"

	"daybook/internal/format"
	appLog "daybook/internal/log"
	"daybook/internal/model"
	"daybook/internal/timeparse"
)

// Tasks turns query result rows into Task values. Rows with a missing or
// malformed property are logged and skipped; a row whose group relation
// cannot be resolved is dropped too. Distinct relation IDs are resolved
// once per batch.
func (c *Client) Tasks(ctx context.Context, pages []Page) []model.Task {
	groups := make(map[string]string) // relation ID -> resolved name ("" = failed)

	tasks := make([]model.Task, 0, len(pages))
	for _, p := range pages {
		name, dateStr, kind, groupID, err := taskFields(p)
		if err != nil {
			appLog.Warn("notion: skipping row", "page", p.ID, "reason", err)
			continue
		}

		due, err := timeparse.Parse(dateStr)
		if err != nil {
			appLog.Warn("notion: skipping row", "page", p.ID, "reason", err)
			continue
		}

		group, seen := groups[groupID]
		if !seen {
			group = c.resolveGroupName(ctx, groupID)
			groups[groupID] = group
		}
		if group == "" {
			appLog.Warn("notion: skipping row, group unresolved", "page", p.ID, "group_id", groupID)
			continue
		}

		tasks = append(tasks, model.Task{
			Name:  name,
			Due:   due,
			Kind:  kind,
			Group: group,
		})
	}
	return tasks
}

// DisplayStrings renders query result rows into display lines, dropping
// rows that cannot produce a complete task.
func (c *Client) DisplayStrings(ctx context.Context, pages []Page) []string {
	return format.TaskLines(c.Tasks(ctx, pages))
}

// resolveGroupName fetches the related page and extracts its title.
// Failures are logged and collapse to ""; the caller drops the owning
// row rather than aborting the batch.
func (c *Client) resolveGroupName(ctx context.Context, pageID string) string {
	page, err := c.fetchPage(ctx, pageID)
	if err != nil {
		appLog.Error("notion: group resolution failed", err, "page", pageID)
		return ""
	}

	prop, ok := page.Properties[propClass]
	if !ok || len(prop.Title) == 0 || prop.Title[0].PlainText == "" {
		appLog.Warn("notion: group page has no usable title", "page", pageID)
		return ""
	}
	return prop.Title[0].PlainText
}

// taskFields extracts the four required raw fields from a row.
func taskFields(p Page) (name, dateStr, kind, groupID string, err error) {
	prop, ok := p.Properties[propName]
	if !ok || len(prop.Title) == 0 || prop.Title[0].PlainText == "" {
		return "", "", "", "", &FieldError{Field: propName, Reason: "missing title"}
	}
	name = prop.Title[0].PlainText

	prop, ok = p.Properties[propDate]
	if !ok || prop.Date == nil || prop.Date.Start == "" {
		return "", "", "", "", &FieldError{Field: propDate, Reason: "missing date"}
	}
	dateStr = prop.Date.Start

	prop, ok = p.Properties[propType]
	if !ok || prop.Select == nil || prop.Select.Name == "" {
		return "", "", "", "", &FieldError{Field: propType, Reason: "missing select value"}
	}
	kind = prop.Select.Name

	prop, ok = p.Properties[propClass]
	if !ok || len(prop.Relation) == 0 || prop.Relation[0].ID == "" {
		return "", "", "", "", &FieldError{Field: propClass, Reason: "missing relation"}
	}
	groupID = prop.Relation[0].ID

	return name, dateStr, kind, groupID, nil
}
