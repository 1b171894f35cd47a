package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// ErrQuoteNotFound is returned when a quote id does not resolve.
var ErrQuoteNotFound = errors.New("quote not found")

// ErrQuoteLocked is returned when editing a quote in a terminal status in
// place. Such quotes change only through a new version.
var ErrQuoteLocked = errors.New("quote is closed; save it as a new version instead")

// QuoteKind distinguishes the two quote collections that share lineage
// and status handling.
type QuoteKind string

const (
	KindDismantle QuoteKind = "dismantle"
	KindInland    QuoteKind = "inland"
)

// Collection is the PocketBase collection holding quotes of this kind.
func (k QuoteKind) Collection() string {
	if k == KindInland {
		return "inland_quotes"
	}
	return "quote_history"
}

// lineageColumns are owned by Lineage and never copied or edited by callers.
var lineageColumns = map[string]bool{
	"id":                true,
	"quote_number":      true,
	"version":           true,
	"parent_quote_id":   true,
	"original_quote_id": true,
	"status":            true,
	"sent_at":           true,
	"viewed_at":         true,
	"responded_at":      true,
	"created_by":        true,
	"created":           true,
	"updated":           true,
}

// Lineage stores versions of a quote as independent rows linked by
// parent_quote_id and original_quote_id. A saved version is never rewritten
// when a newer one is branched from it.
type Lineage struct {
	app    core.App
	kind   QuoteKind
	prefix string
	now    func() time.Time
}

// NewLineage returns the lineage helper for one quote kind. prefix is the
// quote number prefix, e.g. "QT".
func NewLineage(app core.App, kind QuoteKind, prefix string) *Lineage {
	return &Lineage{app: app, kind: kind, prefix: prefix, now: time.Now}
}

// Kind reports which collection the lineage writes to.
func (l *Lineage) Kind() QuoteKind { return l.kind }

// Find loads one quote of this kind.
func (l *Lineage) Find(id string) (*core.Record, error) {
	rec, err := l.app.FindRecordById(l.kind.Collection(), id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrQuoteNotFound, id)
	}
	return rec, nil
}

// Create saves the first version of a new lineage. apply fills the content
// columns; the lineage columns are set here.
func (l *Lineage) Create(userID string, apply func(*core.Record) error) (*core.Record, error) {
	col, err := l.app.FindCollectionByNameOrId(l.kind.Collection())
	if err != nil {
		return nil, fmt.Errorf("%s collection not found: %w", l.kind.Collection(), err)
	}

	rec := core.NewRecord(col)
	if err := apply(rec); err != nil {
		return nil, err
	}

	err = l.app.RunInTransaction(func(txApp core.App) error {
		number, err := GenerateQuoteNumber(txApp, l.kind.Collection(), l.prefix, l.now())
		if err != nil {
			return err
		}
		rec.Set("quote_number", number)
		rec.Set("version", 1)
		rec.Set("status", string(StatusDraft))
		rec.Set("created_by", userID)
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save quote: %w", err)
		}
		rec.Set("original_quote_id", rec.Id)
		return txApp.Save(rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SaveAsNewVersion copies the source quote into a new draft row with a fresh
// number, version source+1, parent_quote_id = source and the source's
// original id. apply edits the copy before it is saved. The source row is
// left untouched.
func (l *Lineage) SaveAsNewVersion(sourceID, userID string, apply func(*core.Record) error) (*core.Record, error) {
	src, err := l.Find(sourceID)
	if err != nil {
		return nil, err
	}

	next := core.NewRecord(src.Collection())
	for _, f := range src.Collection().Fields {
		name := f.GetName()
		if lineageColumns[name] {
			continue
		}
		next.Set(name, src.Get(name))
	}

	if apply != nil {
		if err := apply(next); err != nil {
			return nil, err
		}
	}

	original := src.GetString("original_quote_id")
	if original == "" {
		original = src.Id
	}

	err = l.app.RunInTransaction(func(txApp core.App) error {
		number, err := GenerateQuoteNumber(txApp, l.kind.Collection(), l.prefix, l.now())
		if err != nil {
			return err
		}
		next.Set("quote_number", number)
		next.Set("version", src.GetInt("version")+1)
		next.Set("parent_quote_id", src.Id)
		next.Set("original_quote_id", original)
		next.Set("status", string(StatusDraft))
		next.Set("created_by", userID)
		return txApp.Save(next)
	})
	if err != nil {
		return nil, fmt.Errorf("save new version of %s: %w", sourceID, err)
	}

	l.app.Logger().Info("quote versioned",
		"kind", l.kind, "source", src.Id, "quote", next.Id, "version", next.GetInt("version"))
	return next, nil
}

// UpdateInPlace edits a quote's content columns on the same row. Lineage
// columns are restored after apply so they cannot drift.
func (l *Lineage) UpdateInPlace(id string, apply func(*core.Record) error) (*core.Record, error) {
	rec, err := l.Find(id)
	if err != nil {
		return nil, err
	}
	if QuoteStatus(rec.GetString("status")).Terminal() {
		return nil, ErrQuoteLocked
	}

	kept := make(map[string]any, len(lineageColumns))
	for name := range lineageColumns {
		kept[name] = rec.Get(name)
	}

	if err := apply(rec); err != nil {
		return nil, err
	}
	for name, v := range kept {
		if name == "id" || name == "created" || name == "updated" {
			continue
		}
		rec.Set(name, v)
	}

	if err := l.app.Save(rec); err != nil {
		return nil, fmt.Errorf("update quote %s: %w", id, err)
	}
	return rec, nil
}

// History returns every version in the lineage of id, oldest first.
func (l *Lineage) History(id string) ([]*core.Record, error) {
	rec, err := l.Find(id)
	if err != nil {
		return nil, err
	}
	original := rec.GetString("original_quote_id")
	if original == "" {
		original = rec.Id
	}

	var versions []*core.Record
	err = l.app.RecordQuery(l.kind.Collection()).
		AndWhere(dbx.Or(
			dbx.HashExp{"original_quote_id": original},
			dbx.HashExp{"id": original},
		)).
		OrderBy("version ASC", "created ASC").
		All(&versions)
	if err != nil {
		return nil, fmt.Errorf("load lineage of %s: %w", id, err)
	}
	return versions, nil
}
