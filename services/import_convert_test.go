package services

import (
	"reflect"
	"testing"
)

func TestConvertValue(t *testing.T) {
	tests := []struct {
		name string
		typ  FieldType
		raw  string
		want any
	}{
		{"blank is nil", FieldText, "   ", nil},
		{"text trimmed", FieldText, "  Acme ", "Acme"},
		{"plain number", FieldNumber, "42", 42.0},
		{"currency", FieldNumber, "$1,234.50", 1234.5},
		{"percent", FieldNumber, "15%", 15.0},
		{"accounting negative", FieldNumber, "($20.00)", -20.0},
		{"bad number", FieldNumber, "n/a", nil},
		{"yes", FieldBoolean, "Yes", true},
		{"zero", FieldBoolean, "0", false},
		{"bad boolean", FieldBoolean, "maybe", nil},
		{"iso date", FieldDate, "2024-03-09", "2024-03-09"},
		{"us date", FieldDate, "3/9/2024", "2024-03-09"},
		{"long date", FieldDate, "March 9, 2024", "2024-03-09"},
		{"timestamp", FieldDate, "2024-03-09T10:30:00Z", "2024-03-09"},
		{"bad date", FieldDate, "someday", nil},
		{"json array", FieldJSON, `["a","b"]`, []any{"a", "b"}},
		{"json object", FieldJSON, `{"k":1}`, map[string]any{"k": 1.0}},
		{"semicolon list", FieldJSON, "vip; port ;", []string{"vip", "port"}},
		{"plain json text", FieldJSON, "vip", "vip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertValue(tt.typ, tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ConvertValue(%s, %q) = %#v, want %#v", tt.typ, tt.raw, got, tt.want)
			}
		})
	}
}
