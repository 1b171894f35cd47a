package services

import (
	"fmt"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// QuoteFilter narrows ListQuotes. Empty fields match everything.
type QuoteFilter struct {
	Status    string
	CompanyID string
	Query     string
	// LatestOnly hides versions that have been superseded by a newer one.
	LatestOnly bool
	Limit      int
	Offset     int
}

// ListQuotes returns quotes of kind, newest first.
func ListQuotes(app core.App, kind QuoteKind, f QuoteFilter) ([]*core.Record, error) {
	table := kind.Collection()
	q := app.RecordQuery(table)

	if f.Status != "" {
		q = q.AndWhere(dbx.HashExp{"status": f.Status})
	}
	if f.CompanyID != "" {
		q = q.AndWhere(dbx.HashExp{"company": f.CompanyID})
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		q = q.AndWhere(dbx.Or(
			dbx.Like("quote_number", term),
			dbx.Like("customer_name", term),
			dbx.Like("customer_company", term),
		))
	}
	if f.LatestOnly {
		q = q.AndWhere(dbx.NewExp(fmt.Sprintf(
			"[[id]] NOT IN (SELECT [[parent_quote_id]] FROM {{%s}} WHERE [[parent_quote_id]] != '')", table)))
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var records []*core.Record
	err := q.OrderBy("created DESC", "quote_number DESC").
		Limit(int64(limit)).
		Offset(int64(max(f.Offset, 0))).
		All(&records)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return records, nil
}
