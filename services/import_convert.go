package services

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// booleanTokens is the fixed set of spellings accepted for boolean columns.
var booleanTokens = map[string]bool{
	"yes":   true,
	"no":    false,
	"true":  true,
	"false": false,
	"1":     true,
	"0":     false,
}

// dateLayouts are tried before cast's own list. Month-first order wins for
// ambiguous numeric dates; day-first layouts only catch what it rejects.
var dateLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04",
	"2006-1-2 15:04:05",
	"2006-1-2T15:04",
	"2006-1-2T15:04:05",
	"2006/1/2",
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"1-2-06",
	"1.2.2006",
	"1.2.06",
	"2/1/2006",
	"2/1/06",
	"2-1-2006",
	"2-1-06",
	"2.1.2006",
	"2.1.06",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan. 2, 2006",
}

// isoDate is how imported dates are stored.
const isoDate = "2006-01-02"

// ConvertValue turns a raw cell into the value stored for a field type.
// Blank cells and values that cannot be read as the type become nil.
func ConvertValue(t FieldType, raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	switch t {
	case FieldNumber:
		if n, ok := parseNumber(raw); ok {
			return n
		}
		return nil
	case FieldBoolean:
		if b, ok := booleanTokens[strings.ToLower(raw)]; ok {
			return b
		}
		return nil
	case FieldDate:
		if d, ok := parseDate(raw); ok {
			return d.Format(isoDate)
		}
		return nil
	case FieldJSON:
		return parseJSONCell(raw)
	}
	return raw
}

// parseNumber strips currency punctuation before parsing: "$1,200.50" -> 1200.5.
// A value wrapped in parentheses is negative, as in accounting exports.
func parseNumber(s string) (float64, bool) {
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(s)
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	n, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	d, err := cast.ToTimeE(s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// parseJSONCell keeps valid JSON as-is, splits "a; b" into a list, and
// otherwise stores the text.
func parseJSONCell(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		switch v.(type) {
		case map[string]any, []any:
			return v
		}
	}
	if strings.Contains(s, ";") {
		parts := strings.Split(s, ";")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return s
}
