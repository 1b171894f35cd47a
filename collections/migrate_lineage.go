package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// MigrateQuoteLineage stamps lineage columns on quotes saved before
// versioning existed: original_quote_id defaults to the record's own id and
// version defaults to 1. Safe to call on every startup.
func MigrateQuoteLineage(app core.App) error {
	for _, name := range []string{"quote_history", "inland_quotes"} {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			return fmt.Errorf("migrate_lineage: could not find %s collection: %w", name, err)
		}

		stale, err := app.FindRecordsByFilter(col, "original_quote_id = '' || version < 1", "", 0, 0, nil)
		if err != nil {
			return fmt.Errorf("migrate_lineage: could not query %s: %w", name, err)
		}
		if len(stale) == 0 {
			continue
		}

		log.Printf("migrate_lineage: found %d %s record(s) without lineage -- fixing...\n", len(stale), name)

		for _, rec := range stale {
			if rec.GetString("original_quote_id") == "" {
				rec.Set("original_quote_id", rec.Id)
			}
			if rec.GetInt("version") < 1 {
				rec.Set("version", 1)
			}
			if err := app.Save(rec); err != nil {
				log.Printf("migrate_lineage: failed to update %s %s: %v\n", name, rec.Id, err)
				continue
			}
		}
	}

	return nil
}
