package main

import (
	"testing"

	"equipquote/services"
)

func TestApplyMapFlags(t *testing.T) {
	base := func() []services.FieldMapping {
		return []services.FieldMapping{
			{CSVColumn: "Company", SystemField: "name"},
			{CSVColumn: "Org"},
			{CSVColumn: "Fleet", CreateNew: true, NewFieldName: "fleet", NewFieldType: "number", SampleValues: []string{"12"}},
		}
	}

	tests := []struct {
		name    string
		flags   []string
		check   func(t *testing.T, m []services.FieldMapping)
		wantErr bool
	}{
		{
			name:  "claiming a field frees it elsewhere",
			flags: []string{"Org=name"},
			check: func(t *testing.T, m []services.FieldMapping) {
				if m[1].SystemField != "name" || m[0].SystemField != "" {
					t.Errorf("mappings = %+v", m)
				}
			},
		},
		{
			name:  "empty field skips",
			flags: []string{"fleet="},
			check: func(t *testing.T, m []services.FieldMapping) {
				if !m[2].Skipped() {
					t.Errorf("Fleet = %+v, want skipped", m[2])
				}
			},
		},
		{
			name:  "unknown field becomes custom",
			flags: []string{"Fleet=fleet_size"},
			check: func(t *testing.T, m []services.FieldMapping) {
				if !m[2].CreateNew || m[2].NewFieldName != "fleet_size" || m[2].NewFieldType != services.FieldNumber {
					t.Errorf("Fleet = %+v", m[2])
				}
			},
		},
		{name: "no equals", flags: []string{"Org"}, wantErr: true},
		{name: "unknown column", flags: []string{"Fax=phone"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			err := applyMapFlags(services.TableCompanies, m, tt.flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyMapFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, m)
			}
		})
	}
}

func TestDescribeMapping(t *testing.T) {
	tests := []struct {
		m    services.FieldMapping
		want string
	}{
		{services.FieldMapping{SystemField: "phone"}, "phone"},
		{services.FieldMapping{CustomField: "fleet"}, "custom:fleet"},
		{services.FieldMapping{CreateNew: true, NewFieldName: "fleet", NewFieldType: "number"}, `new number field "fleet"`},
		{services.FieldMapping{}, "(skipped)"},
	}
	for _, tt := range tests {
		if got := describeMapping(tt.m); got != tt.want {
			t.Errorf("describeMapping(%+v) = %q, want %q", tt.m, got, tt.want)
		}
	}
}
