package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// formatQuoteNumber builds "<prefix>-<YYMMDD>-<seq>", e.g. QT-260417-003.
func formatQuoteNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format("060102"), seq)
}

// GenerateQuoteNumber returns the next free number for the day in a quote
// collection. The sequence restarts at 001 every day and grows past 999
// without truncation.
func GenerateQuoteNumber(app core.App, collection, prefix string, now time.Time) (string, error) {
	dayPrefix := fmt.Sprintf("%s-%s-", prefix, now.Format("060102"))

	existing, err := app.FindRecordsByFilter(
		collection,
		"quote_number ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{"prefix": dayPrefix + "%"},
	)
	if err != nil {
		return "", fmt.Errorf("count %s numbers: %w", collection, err)
	}

	next := 1
	for _, r := range existing {
		seq, err := strconv.Atoi(strings.TrimPrefix(r.GetString("quote_number"), dayPrefix))
		if err == nil && seq >= next {
			next = seq + 1
		}
	}

	// Guard against a number taken between the scan and now.
	for {
		number := formatQuoteNumber(prefix, now, next)
		if _, err := app.FindFirstRecordByData(collection, "quote_number", number); err != nil {
			return number, nil
		}
		next++
	}
}
