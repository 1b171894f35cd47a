package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"equipquote/testhelpers"
)

type failingMailer struct{ calls int }

func (m *failingMailer) Name() string { return "failing" }

func (m *failingMailer) Send(context.Context, Email) error {
	m.calls++
	return errors.New("smtp: connection refused")
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to QuoteStatus
		want     bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusAccepted, false},
		{StatusSent, StatusViewed, true},
		{StatusSent, StatusAccepted, true},
		{StatusViewed, StatusRejected, true},
		{StatusViewed, StatusSent, false},
		{StatusAccepted, StatusRejected, false},
		{StatusExpired, StatusSent, false},
		{StatusRejected, StatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStatusService_Change(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	user := testhelpers.CreateTestUser(t, app, "rep@example.com")
	q := testhelpers.CreateTestQuote(t, app, "QT-260301-001", 1000, 10)
	svc := NewStatusService(app, nil, 30)
	ctx := context.Background()

	rec, err := svc.Change(ctx, KindDismantle, q.Id, StatusSent, user.Id, "emailed to buyer")
	if err != nil {
		t.Fatalf("Change(sent) error = %v", err)
	}
	if rec.GetString("status") != "sent" || rec.GetDateTime("sent_at").IsZero() {
		t.Errorf("status = %s, sent_at = %v", rec.GetString("status"), rec.GetDateTime("sent_at"))
	}

	if _, err := svc.Change(ctx, KindDismantle, q.Id, StatusAccepted, user.Id, ""); err != nil {
		t.Fatalf("Change(accepted) error = %v", err)
	}
	reloaded, _ := app.FindRecordById("quote_history", q.Id)
	if reloaded.GetDateTime("responded_at").IsZero() {
		t.Error("responded_at should be set on acceptance")
	}

	_, err = svc.Change(ctx, KindDismantle, q.Id, StatusRejected, user.Id, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Change(accepted->rejected) error = %v, want ErrInvalidTransition", err)
	}

	history, err := StatusHistory(app, q.Id)
	if err != nil {
		t.Fatalf("StatusHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(history))
	}
	seen := map[QuoteStatus]QuoteStatus{}
	for _, h := range history {
		seen[h.To] = h.From
	}
	if seen[StatusSent] != StatusDraft || seen[StatusAccepted] != StatusSent {
		t.Errorf("history = %+v", history)
	}

	acts, err := ListActivity(app, ActivityFilter{QuoteID: q.Id})
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 2 {
		t.Errorf("activity entries = %d, want 2", len(acts))
	}
}

func TestStatusService_NotificationFailureIsNotFatal(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	q := testhelpers.CreateTestQuote(t, app, "QT-260301-002", 500, 0)
	mailer := &failingMailer{}
	svc := NewStatusService(app, NewNotifier(app, mailer, []string{"sales@example.com"}), 30)
	ctx := context.Background()

	if _, err := svc.Change(ctx, KindDismantle, q.Id, StatusSent, "", ""); err != nil {
		t.Fatal(err)
	}
	rec, err := svc.Change(ctx, KindDismantle, q.Id, StatusRejected, "", "went with a competitor")
	if err != nil {
		t.Fatalf("Change(rejected) error = %v, want nil despite mail failure", err)
	}
	if rec.GetString("status") != "rejected" {
		t.Errorf("status = %s, want rejected", rec.GetString("status"))
	}
	if mailer.calls != 1 {
		t.Errorf("mailer called %d times, want 1", mailer.calls)
	}

	logs, err := ListEmailLogs(app, q.Id, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Status != "failed" || logs[0].Kind != "status_rejected" {
		t.Errorf("email logs = %+v, want one failed status_rejected entry", logs)
	}
}

func TestStatusService_ExpireOverdue(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	svc := NewStatusService(app, nil, 30)
	past := time.Now().UTC().AddDate(0, 0, -2)

	overdue := testhelpers.CreateTestQuote(t, app, "QT-260301-003", 100, 0)
	overdue.Set("status", "sent")
	overdue.Set("expires_at", past)
	stillDraft := testhelpers.CreateTestQuote(t, app, "QT-260301-004", 100, 0)
	stillDraft.Set("expires_at", past)
	fresh := testhelpers.CreateTestQuote(t, app, "QT-260301-005", 100, 0)
	fresh.Set("status", "viewed")
	inland := testhelpers.CreateTestInlandQuote(t, app, "IT-260301-001", 900)
	inland.Set("status", "viewed")
	inland.Set("expires_at", past)
	for _, r := range []*core.Record{overdue, stillDraft, fresh, inland} {
		if err := app.Save(r); err != nil {
			t.Fatal(err)
		}
	}

	n, err := svc.ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("ExpireOverdue() error = %v", err)
	}
	if n != 2 {
		t.Errorf("expired %d quotes, want 2", n)
	}

	checks := []struct {
		col, id, want string
	}{
		{"quote_history", overdue.Id, "expired"},
		{"quote_history", stillDraft.Id, "draft"},
		{"quote_history", fresh.Id, "viewed"},
		{"inland_quotes", inland.Id, "expired"},
	}
	for _, c := range checks {
		rec, err := app.FindRecordById(c.col, c.id)
		if err != nil {
			t.Fatal(err)
		}
		if got := rec.GetString("status"); got != c.want {
			t.Errorf("%s %s status = %s, want %s", c.col, rec.GetString("quote_number"), got, c.want)
		}
	}
}
