package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// ErrInvalidTransition is returned for a status change the pipeline does
// not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

// QuoteStatus is a stage of the sales pipeline.
type QuoteStatus string

const (
	StatusDraft    QuoteStatus = "draft"
	StatusSent     QuoteStatus = "sent"
	StatusViewed   QuoteStatus = "viewed"
	StatusAccepted QuoteStatus = "accepted"
	StatusRejected QuoteStatus = "rejected"
	StatusExpired  QuoteStatus = "expired"
)

// QuoteStatuses lists the pipeline in order.
var QuoteStatuses = []QuoteStatus{
	StatusDraft, StatusSent, StatusViewed, StatusAccepted, StatusRejected, StatusExpired,
}

var statusTransitions = map[QuoteStatus][]QuoteStatus{
	StatusDraft:  {StatusSent, StatusExpired},
	StatusSent:   {StatusViewed, StatusAccepted, StatusRejected, StatusExpired},
	StatusViewed: {StatusAccepted, StatusRejected, StatusExpired},
}

// ValidQuoteStatus reports whether s names a pipeline status.
func ValidQuoteStatus(s string) bool {
	for _, st := range QuoteStatuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s QuoteStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusExpired
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to QuoteStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusService moves quotes through the pipeline.
type StatusService struct {
	app          core.App
	notifier     *Notifier
	validityDays int
	now          func() time.Time
}

// NewStatusService returns a StatusService. notifier may be nil.
// validityDays sets expires_at on quotes sent without one.
func NewStatusService(app core.App, notifier *Notifier, validityDays int) *StatusService {
	return &StatusService{app: app, notifier: notifier, validityDays: validityDays, now: time.Now}
}

// Change moves a quote to a new status. The status row, the history entry
// and the activity entry are written together. A notification for accepted
// or rejected quotes is sent afterwards and its failure never undoes the
// change.
func (s *StatusService) Change(ctx context.Context, kind QuoteKind, id string, to QuoteStatus, userID, notes string) (*core.Record, error) {
	var rec *core.Record
	var from QuoteStatus

	err := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		rec, err = txApp.FindRecordById(kind.Collection(), id)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrQuoteNotFound, id)
		}

		from = QuoteStatus(rec.GetString("status"))
		if !CanTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}

		now := s.now().UTC()
		rec.Set("status", string(to))
		switch to {
		case StatusSent:
			rec.Set("sent_at", now)
			if rec.GetDateTime("expires_at").IsZero() && s.validityDays > 0 {
				rec.Set("expires_at", now.AddDate(0, 0, s.validityDays))
			}
		case StatusViewed:
			rec.Set("viewed_at", now)
		case StatusAccepted, StatusRejected:
			rec.Set("responded_at", now)
		}
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save status: %w", err)
		}

		if err := appendStatusHistory(txApp, kind, rec.Id, from, to, userID, notes); err != nil {
			return err
		}

		activityType := ActivityStatusChange
		if to == StatusSent {
			activityType = ActivityQuoteSent
		}
		return LogActivity(txApp, Activity{
			Type:        activityType,
			Subject:     fmt.Sprintf("Quote %s %s", rec.GetString("quote_number"), to),
			Description: notes,
			CompanyID:   rec.GetString("company"),
			ContactID:   rec.GetString("contact"),
			QuoteID:     rec.Id,
			CreatedBy:   userID,
		})
	})
	if err != nil {
		return nil, err
	}

	if (to == StatusAccepted || to == StatusRejected) && s.notifier != nil {
		if err := s.notifier.QuoteStatusChanged(ctx, kind, rec, from, to); err != nil {
			s.app.Logger().Warn("status notification failed",
				"quote", rec.Id, "status", to, "error", err)
		}
	}

	return rec, nil
}

func appendStatusHistory(app core.App, kind QuoteKind, quoteID string, from, to QuoteStatus, userID, notes string) error {
	col, err := app.FindCollectionByNameOrId("quote_status_history")
	if err != nil {
		return fmt.Errorf("quote_status_history collection not found: %w", err)
	}
	h := core.NewRecord(col)
	h.Set("quote", quoteID)
	h.Set("quote_kind", string(kind))
	h.Set("from_status", string(from))
	h.Set("to_status", string(to))
	h.Set("changed_by", userID)
	h.Set("notes", notes)
	if err := app.Save(h); err != nil {
		return fmt.Errorf("save status history: %w", err)
	}
	return nil
}

// StatusEntry is one quote_status_history row.
type StatusEntry struct {
	From      QuoteStatus `json:"from_status"`
	To        QuoteStatus `json:"to_status"`
	ChangedBy string      `json:"changed_by,omitempty"`
	Notes     string      `json:"notes,omitempty"`
	Created   time.Time   `json:"created"`
}

// StatusHistory returns the recorded transitions of a quote, oldest first.
func StatusHistory(app core.App, quoteID string) ([]StatusEntry, error) {
	records, err := app.FindRecordsByFilter(
		"quote_status_history", "quote = {:q}", "created", 0, 0,
		map[string]any{"q": quoteID},
	)
	if err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}
	out := make([]StatusEntry, 0, len(records))
	for _, r := range records {
		out = append(out, StatusEntry{
			From:      QuoteStatus(r.GetString("from_status")),
			To:        QuoteStatus(r.GetString("to_status")),
			ChangedBy: r.GetString("changed_by"),
			Notes:     r.GetString("notes"),
			Created:   r.GetDateTime("created").Time(),
		})
	}
	return out, nil
}

// ExpireOverdue moves sent and viewed quotes whose expires_at has passed to
// expired, for both quote kinds. It returns how many were expired.
func (s *StatusService) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.now().UTC().Format(types.DefaultDateLayout)
	expired := 0

	for _, kind := range []QuoteKind{KindDismantle, KindInland} {
		due, err := s.app.FindRecordsByFilter(
			kind.Collection(),
			"(status = 'sent' || status = 'viewed') && expires_at != '' && expires_at < {:now}",
			"expires_at", 0, 0,
			map[string]any{"now": now},
		)
		if err != nil {
			return expired, fmt.Errorf("find overdue %s: %w", kind.Collection(), err)
		}
		for _, rec := range due {
			if _, err := s.Change(ctx, kind, rec.Id, StatusExpired, "", "Expired automatically"); err != nil {
				s.app.Logger().Warn("expire quote failed", "quote", rec.Id, "error", err)
				continue
			}
			expired++
		}
	}
	return expired, nil
}
