package notion

import (
	"context"
	"fmt"
)

// Property names of the task database schema. The related group database
// keys its title under propClass as well.
const (
	propName     = "Name"
	propDate     = "Date"
	propType     = "Type"
	propClass    = "Class"
	propComplete = "Complete"
)

// defaultPageSize bounds queryIncomplete when the caller passes no limit.
const defaultPageSize = 100

// filter is the API's composable filter DSL. Exactly one of the
// condition fields (or And) is set per node.
type filter struct {
	Property string             `json:"property,omitempty"`
	Checkbox *checkboxCondition `json:"checkbox,omitempty"`
	Date     *dateCondition     `json:"date,omitempty"`
	And      []filter           `json:"and,omitempty"`
}

type checkboxCondition struct {
	Equals bool `json:"equals"`
}

type dateCondition struct {
	Before string `json:"before,omitempty"`
}

type sortSpec struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type queryRequest struct {
	PageSize int        `json:"page_size,omitempty"`
	Filter   *filter    `json:"filter,omitempty"`
	Sorts    []sortSpec `json:"sorts,omitempty"`
}

type queryResponse struct {
	Object  string `json:"object"`
	Results []Page `json:"results"`
}

// Page is one row of a query response (or one fetched page). Properties
// are keyed by the database's column names.
type Page struct {
	ID         string              `json:"id"`
	Properties map[string]Property `json:"properties"`
}

// Property is a single page property; which field is populated depends
// on the column type.
type Property struct {
	Title    []RichText    `json:"title,omitempty"`
	Date     *DateValue    `json:"date,omitempty"`
	Select   *SelectValue  `json:"select,omitempty"`
	Relation []RelationRef `json:"relation,omitempty"`
	Checkbox *bool         `json:"checkbox,omitempty"`
}

type RichText struct {
	PlainText string `json:"plain_text"`
}

type DateValue struct {
	Start string `json:"start"`
}

type SelectValue struct {
	Name string `json:"name"`
}

type RelationRef struct {
	ID string `json:"id"`
}

// QueryIncomplete returns up to limit rows where Complete = false. Row
// order is whatever the store returns.
func (c *Client) QueryIncomplete(ctx context.Context, limit int) ([]Page, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	return c.query(ctx, queryRequest{
		PageSize: limit,
		Filter: &filter{
			Property: propComplete,
			Checkbox: &checkboxCondition{Equals: false},
		},
	})
}

// QueryDueByTomorrow returns rows where Complete = false and the due
// date is strictly before tomorrow, ascending by due date.
func (c *Client) QueryDueByTomorrow(ctx context.Context) ([]Page, error) {
	tomorrow := c.now().AddDate(0, 0, 1).Format("2006-01-02")
	return c.query(ctx, queryRequest{
		Sorts: []sortSpec{{Property: propDate, Direction: "ascending"}},
		Filter: &filter{
			And: []filter{
				{Property: propComplete, Checkbox: &checkboxCondition{Equals: false}},
				{Property: propDate, Date: &dateCondition{Before: tomorrow}},
			},
		},
	})
}

func (c *Client) query(ctx context.Context, req queryRequest) ([]Page, error) {
	path := fmt.Sprintf("/v1/databases/%s/query", c.databaseID)

	var resp queryResponse
	if err := c.do(ctx, "POST", path, req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// fetchPage retrieves a single page by ID.
func (c *Client) fetchPage(ctx context.Context, pageID string) (Page, error) {
	var p Page
	err := c.do(ctx, "GET", "/v1/pages/"+pageID, nil, &p)
	return p, err
}
