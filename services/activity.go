package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// ActivityType is the kind of CRM touchpoint recorded in activity_logs.
type ActivityType string

const (
	ActivityCall         ActivityType = "call"
	ActivityEmail        ActivityType = "email"
	ActivityMeeting      ActivityType = "meeting"
	ActivityNote         ActivityType = "note"
	ActivityQuoteSent    ActivityType = "quote_sent"
	ActivityStatusChange ActivityType = "status_change"
	ActivityImport       ActivityType = "import"
)

// ActivityTypes lists every activity type.
var ActivityTypes = []ActivityType{
	ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote,
	ActivityQuoteSent, ActivityStatusChange, ActivityImport,
}

// Activity is one activity_logs entry.
type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"activity_type"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	CompanyID   string       `json:"company,omitempty"`
	ContactID   string       `json:"contact,omitempty"`
	QuoteID     string       `json:"quote,omitempty"`
	CreatedBy   string       `json:"created_by,omitempty"`
	Created     time.Time    `json:"created"`
}

// LogActivity appends an activity entry.
func LogActivity(app core.App, a Activity) error {
	col, err := app.FindCollectionByNameOrId("activity_logs")
	if err != nil {
		return fmt.Errorf("activity_logs collection not found: %w", err)
	}

	r := core.NewRecord(col)
	r.Set("activity_type", string(a.Type))
	r.Set("subject", a.Subject)
	r.Set("description", a.Description)
	r.Set("company", a.CompanyID)
	r.Set("contact", a.ContactID)
	r.Set("quote", a.QuoteID)
	r.Set("created_by", a.CreatedBy)
	if err := app.Save(r); err != nil {
		return fmt.Errorf("save activity: %w", err)
	}
	return nil
}

// ActivityFilter narrows ListActivity. Empty fields match everything.
type ActivityFilter struct {
	CompanyID string
	ContactID string
	QuoteID   string
	Type      ActivityType
	Limit     int
}

// ListActivity returns matching entries, newest first.
func ListActivity(app core.App, f ActivityFilter) ([]Activity, error) {
	exp := dbx.HashExp{}
	if f.CompanyID != "" {
		exp["company"] = f.CompanyID
	}
	if f.ContactID != "" {
		exp["contact"] = f.ContactID
	}
	if f.QuoteID != "" {
		exp["quote"] = f.QuoteID
	}
	if f.Type != "" {
		exp["activity_type"] = string(f.Type)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	records, err := findRecordsWhere(app, "activity_logs", exp, "-created", limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	out := make([]Activity, 0, len(records))
	for _, r := range records {
		out = append(out, Activity{
			ID:          r.Id,
			Type:        ActivityType(r.GetString("activity_type")),
			Subject:     r.GetString("subject"),
			Description: r.GetString("description"),
			CompanyID:   r.GetString("company"),
			ContactID:   r.GetString("contact"),
			QuoteID:     r.GetString("quote"),
			CreatedBy:   r.GetString("created_by"),
			Created:     r.GetDateTime("created").Time(),
		})
	}
	return out, nil
}

// findRecordsWhere runs a sorted, limited query with a dbx expression.
// sort is a field name, prefixed with "-" for descending.
func findRecordsWhere(app core.App, collection string, where dbx.Expression, sort string, limit int) ([]*core.Record, error) {
	q := app.RecordQuery(collection).AndWhere(where)
	if sort != "" {
		if sort[0] == '-' {
			q = q.OrderBy(sort[1:] + " DESC")
		} else {
			q = q.OrderBy(sort + " ASC")
		}
	}
	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	var records []*core.Record
	if err := q.All(&records); err != nil {
		return nil, err
	}
	return records, nil
}
