package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatUSD formats an amount as US dollars with thousands separators and
// exactly 2 decimal places, e.g. $12,345.60 or -$5.00.
func FormatUSD(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", amount)
}

// FormatPercent drops trailing zeros: 10 -> "10%", 12.5 -> "12.5%".
func FormatPercent(p float64) string {
	return humanize.FtoaWithDigits(p, 2) + "%"
}

// FormatInches renders a length in inches as feet and inches, e.g. 125 -> 10' 5".
func FormatInches(in float64) string {
	if in <= 0 {
		return "-"
	}
	total := int(math.Round(in))
	return fmt.Sprintf("%d' %d\"", total/12, total%12)
}

// FormatWeight renders pounds with separators, e.g. 49,000 lbs.
func FormatWeight(lbs float64) string {
	if lbs <= 0 {
		return "-"
	}
	return humanize.Comma(int64(math.Round(lbs))) + " lbs"
}

// formatQty prints whole numbers without decimals.
func formatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}

// joinNonEmpty joins the non-blank parts with sep.
func joinNonEmpty(parts []string, sep string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}

// fmtField returns "label: value", or "" when value is empty.
func fmtField(label, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", label, value)
}
