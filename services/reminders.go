package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// ErrReminderNotFound is returned when a reminder id does not resolve.
var ErrReminderNotFound = errors.New("reminder not found")

// Reminder is one follow_up_reminders row.
type Reminder struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company,omitempty"`
	ContactID   string     `json:"contact,omitempty"`
	QuoteID     string     `json:"quote,omitempty"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	DueAt       time.Time  `json:"due_at"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notified    bool       `json:"notified"`
	CreatedBy   string     `json:"created_by,omitempty"`
}

// Overdue reports whether the reminder is open and past due at now.
func (r Reminder) Overdue(now time.Time) bool {
	return !r.Completed && r.DueAt.Before(now)
}

func reminderFromRecord(rec *core.Record) Reminder {
	r := Reminder{
		ID:        rec.Id,
		CompanyID: rec.GetString("company"),
		ContactID: rec.GetString("contact"),
		QuoteID:   rec.GetString("quote"),
		Title:     rec.GetString("title"),
		Notes:     rec.GetString("notes"),
		DueAt:     rec.GetDateTime("due_at").Time(),
		Priority:  rec.GetString("priority"),
		Completed: rec.GetBool("completed"),
		Notified:  rec.GetBool("notified"),
		CreatedBy: rec.GetString("created_by"),
	}
	if done := rec.GetDateTime("completed_at"); !done.IsZero() {
		t := done.Time()
		r.CompletedAt = &t
	}
	return r
}

// ReminderScope selects which reminders ListReminders returns.
type ReminderScope string

const (
	ReminderScopeOpen    ReminderScope = "open"
	ReminderScopeDue     ReminderScope = "due"
	ReminderScopeOverdue ReminderScope = "overdue"
	ReminderScopeAll     ReminderScope = "all"
)

// CreateReminder saves a new open reminder.
func CreateReminder(app core.App, in ReminderInput, userID string) (Reminder, error) {
	if err := in.Validate(); err != nil {
		return Reminder{}, err
	}
	col, err := app.FindCollectionByNameOrId("follow_up_reminders")
	if err != nil {
		return Reminder{}, fmt.Errorf("follow_up_reminders collection not found: %w", err)
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}

	rec := core.NewRecord(col)
	rec.Set("company", in.CompanyID)
	rec.Set("contact", in.ContactID)
	rec.Set("quote", in.QuoteID)
	rec.Set("title", in.Title)
	rec.Set("notes", in.Notes)
	rec.Set("due_at", in.DueAt.UTC())
	rec.Set("priority", in.Priority)
	rec.Set("created_by", userID)
	if err := app.Save(rec); err != nil {
		return Reminder{}, fmt.Errorf("save reminder: %w", err)
	}
	return reminderFromRecord(rec), nil
}

// ListReminders returns reminders in scope, soonest first. Due means open and
// due by the end of today; overdue means open and past due.
func ListReminders(app core.App, scope ReminderScope, now time.Time) ([]Reminder, error) {
	now = now.UTC()
	var where dbx.Expression
	switch scope {
	case ReminderScopeAll:
		where = dbx.NewExp("1=1")
	case ReminderScopeOverdue:
		where = dbx.And(
			dbx.HashExp{"completed": false},
			dbx.NewExp("due_at < {:now}", dbx.Params{"now": now.Format(types.DefaultDateLayout)}),
		)
	case ReminderScopeDue:
		endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)
		where = dbx.And(
			dbx.HashExp{"completed": false},
			dbx.NewExp("due_at <= {:end}", dbx.Params{"end": endOfDay.Format(types.DefaultDateLayout)}),
		)
	default:
		where = dbx.HashExp{"completed": false}
	}

	records, err := findRecordsWhere(app, "follow_up_reminders", where, "due_at", 0)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	out := make([]Reminder, 0, len(records))
	for _, rec := range records {
		out = append(out, reminderFromRecord(rec))
	}
	return out, nil
}

// CompleteReminder marks a reminder done.
func CompleteReminder(app core.App, id string, now time.Time) (Reminder, error) {
	rec, err := app.FindRecordById("follow_up_reminders", id)
	if err != nil {
		return Reminder{}, fmt.Errorf("%w: %s", ErrReminderNotFound, id)
	}
	rec.Set("completed", true)
	rec.Set("completed_at", now.UTC())
	if err := app.Save(rec); err != nil {
		return Reminder{}, fmt.Errorf("complete reminder: %w", err)
	}
	return reminderFromRecord(rec), nil
}

// DeleteReminder removes a reminder.
func DeleteReminder(app core.App, id string) error {
	rec, err := app.FindRecordById("follow_up_reminders", id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrReminderNotFound, id)
	}
	if err := app.Delete(rec); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// NotifyOverdueReminders emails the sales team one digest of overdue
// reminders that have not been announced yet, then marks them notified.
// Reminders stay unmarked when the email fails so the next run retries.
func (n *Notifier) NotifyOverdueReminders(ctx context.Context, now time.Time) (int, error) {
	overdue, err := ListReminders(n.app, ReminderScopeOverdue, now)
	if err != nil {
		return 0, err
	}
	var pending []Reminder
	for _, r := range overdue {
		if !r.Notified {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if len(n.salesTo) > 0 {
		body, err := renderEmail(ctx, reminderEmail(pending))
		if err != nil {
			return 0, err
		}
		subject := fmt.Sprintf("%d overdue follow-up reminder(s)", len(pending))
		if err := n.deliver(ctx, "reminder", "", Email{To: n.salesTo, Subject: subject, HTML: body}); err != nil {
			return 0, err
		}
	}

	marked := 0
	for _, r := range pending {
		rec, err := n.app.FindRecordById("follow_up_reminders", r.ID)
		if err != nil {
			continue
		}
		rec.Set("notified", true)
		if err := n.app.Save(rec); err != nil {
			n.app.Logger().Warn("mark reminder notified failed", "reminder", r.ID, "error", err)
			continue
		}
		marked++
	}
	return marked, nil
}
