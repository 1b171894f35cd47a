package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"equipquote/collections"
	"equipquote/services"
)

// newImportCmd imports a CSV or XLSX file from the command line. Columns are
// auto-matched like the web preview; --map overrides individual columns.
//
//	equipquote import --table companies --file leads.csv --map "Org=name" --map "Fax="
func newImportCmd(app *pocketbase.PocketBase) *cobra.Command {
	var (
		table   string
		file    string
		mapping []string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import companies, contacts or customers from a CSV or XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := services.ParseImportTable(table)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()

			parsed, err := services.ParseImportFile(file, f)
			if err != nil {
				return err
			}

			collections.Setup(app)
			custom, err := services.LoadCustomFields(app, t)
			if err != nil {
				return err
			}
			mappings := services.AutoMatch(t, parsed, custom)
			if err := applyMapFlags(t, mappings, mapping); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range mappings {
				fmt.Fprintf(out, "  %-24s -> %s\n", m.CSVColumn, describeMapping(m))
			}
			if dryRun {
				if missing := services.MissingRequired(t, mappings); len(missing) > 0 {
					fmt.Fprintf(out, "missing required: %s\n", strings.Join(missing, ", "))
				}
				fmt.Fprintf(out, "%d rows parsed, nothing written\n", len(parsed.Rows))
				return nil
			}

			result, err := services.CommitImport(app, t, parsed, mappings, "", 0)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, result.Summary())
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  %s\n", e)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "companies, contacts or customers")
	cmd.Flags().StringVar(&file, "file", "", "path to a .csv or .xlsx file")
	cmd.Flags().StringArrayVar(&mapping, "map", nil, `column override "Header=field"; an empty field skips the column`)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the mapping without importing")
	cmd.MarkFlagRequired("table")
	cmd.MarkFlagRequired("file")
	return cmd
}

// applyMapFlags rewrites mappings from "Header=field" flags. A field that is
// not a built-in one becomes a new custom field.
func applyMapFlags(table services.ImportTable, mappings []services.FieldMapping, flags []string) error {
	builtin := map[string]bool{}
	for _, f := range services.SystemFields(table) {
		builtin[f.Key] = true
	}

	for _, flag := range flags {
		header, field, ok := strings.Cut(flag, "=")
		if !ok {
			return fmt.Errorf("invalid --map %q, want Header=field", flag)
		}
		header, field = strings.TrimSpace(header), strings.TrimSpace(field)

		i := indexOfColumn(mappings, header)
		if i < 0 {
			return fmt.Errorf("--map %q: no column named %q", flag, header)
		}
		m := services.FieldMapping{CSVColumn: header, SampleValues: mappings[i].SampleValues}
		switch {
		case field == "":
		case builtin[field]:
			m.SystemField = field
		default:
			m.CreateNew = true
			m.NewFieldName = field
			m.NewFieldType = services.DetectFieldType(m.SampleValues)
		}
		mappings[i] = m

		// A built-in field can only be claimed by one column.
		if m.SystemField == "" {
			continue
		}
		for j := range mappings {
			if j != i && mappings[j].SystemField == m.SystemField {
				mappings[j].SystemField = ""
			}
		}
	}
	return nil
}

func indexOfColumn(mappings []services.FieldMapping, header string) int {
	for i, m := range mappings {
		if strings.EqualFold(m.CSVColumn, header) {
			return i
		}
	}
	return -1
}

func describeMapping(m services.FieldMapping) string {
	switch {
	case m.SystemField != "":
		return m.SystemField
	case m.CustomField != "":
		return "custom:" + m.CustomField
	case m.CreateNew:
		return fmt.Sprintf("new %s field %q", m.NewFieldType, m.NewFieldName)
	}
	return "(skipped)"
}
