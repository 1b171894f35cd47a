package services

import (
	"testing"
	"time"

	"equipquote/testhelpers"
)

func TestFormatQuoteNumber(t *testing.T) {
	day := time.Date(2026, time.April, 7, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		prefix string
		seq    int
		want   string
	}{
		{"QT", 1, "QT-260407-001"},
		{"IT", 42, "IT-260407-042"},
		{"QT", 1000, "QT-260407-1000"},
	}
	for _, tt := range tests {
		if got := formatQuoteNumber(tt.prefix, day, tt.seq); got != tt.want {
			t.Errorf("formatQuoteNumber(%q, %d) = %q, want %q", tt.prefix, tt.seq, got, tt.want)
		}
	}
}

func TestGenerateQuoteNumber(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	day := time.Date(2026, time.April, 7, 9, 0, 0, 0, time.UTC)

	first, err := GenerateQuoteNumber(app, "quote_history", "QT", day)
	if err != nil {
		t.Fatalf("GenerateQuoteNumber() error = %v", err)
	}
	if first != "QT-260407-001" {
		t.Errorf("first number = %q", first)
	}

	testhelpers.CreateTestQuote(t, app, "QT-260407-001", 100, 10)
	testhelpers.CreateTestQuote(t, app, "QT-260407-004", 100, 10)
	testhelpers.CreateTestQuote(t, app, "QT-260406-009", 100, 10)

	next, err := GenerateQuoteNumber(app, "quote_history", "QT", day)
	if err != nil {
		t.Fatalf("GenerateQuoteNumber() error = %v", err)
	}
	if next != "QT-260407-005" {
		t.Errorf("next number = %q, want QT-260407-005", next)
	}

	other, _ := GenerateQuoteNumber(app, "quote_history", "QT", day.AddDate(0, 0, 1))
	if other != "QT-260408-001" {
		t.Errorf("next day number = %q, want QT-260408-001", other)
	}

	inland, _ := GenerateQuoteNumber(app, "inland_quotes", "IT", day)
	if inland != "IT-260407-001" {
		t.Errorf("inland number = %q, want IT-260407-001", inland)
	}
}
