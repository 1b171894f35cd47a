package services

import "testing"

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{5, "$5.00"},
		{165, "$165.00"},
		{1234.5, "$1,234.50"},
		{1000000, "$1,000,000.00"},
		{12345.678, "$12,345.68"},
		{-5, "-$5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatUSD(tt.amount); got != tt.want {
				t.Errorf("FormatUSD(%v) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(10); got != "10%" {
		t.Errorf("FormatPercent(10) = %q", got)
	}
	if got := FormatPercent(12.5); got != "12.5%" {
		t.Errorf("FormatPercent(12.5) = %q", got)
	}
}

func TestFormatInches(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{125, "10' 5\""},
		{12, "1' 0\""},
		{0, "-"},
	}
	for _, tt := range tests {
		if got := FormatInches(tt.in); got != tt.want {
			t.Errorf("FormatInches(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatWeight(t *testing.T) {
	if got := FormatWeight(49000); got != "49,000 lbs" {
		t.Errorf("FormatWeight(49000) = %q", got)
	}
	if got := FormatWeight(0); got != "-" {
		t.Errorf("FormatWeight(0) = %q", got)
	}
}

func TestJoinNonEmpty(t *testing.T) {
	if got := joinNonEmpty([]string{"Newark", "", "NJ", " "}, ", "); got != "Newark, NJ" {
		t.Errorf("joinNonEmpty = %q", got)
	}
	if got := fmtField("Phone", ""); got != "" {
		t.Errorf("fmtField with empty value = %q", got)
	}
	if got := fmtField("Phone", "555"); got != "Phone: 555" {
		t.Errorf("fmtField = %q", got)
	}
}
