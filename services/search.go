package services

import (
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// SearchHit is one global search result.
type SearchHit struct {
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

type searchSource struct {
	kind       string
	collection string
	filter     string
	sort       string
	hit        func(*core.Record) SearchHit
}

var searchSources = []searchSource{
	{
		kind: "company", collection: "companies", sort: "name",
		filter: "name ~ {:q} || email ~ {:q} || phone ~ {:q} || city ~ {:q}",
		hit: func(r *core.Record) SearchHit {
			return SearchHit{Title: r.GetString("name"),
				Subtitle: joinNonEmpty([]string{r.GetString("city"), r.GetString("state")}, ", ")}
		},
	},
	{
		kind: "contact", collection: "contacts", sort: "first_name",
		filter: "first_name ~ {:q} || last_name ~ {:q} || email ~ {:q} || phone ~ {:q}",
		hit: func(r *core.Record) SearchHit {
			return SearchHit{Title: joinNonEmpty([]string{r.GetString("first_name"), r.GetString("last_name")}, " "),
				Subtitle: r.GetString("email")}
		},
	},
	{
		kind: "customer", collection: "customers", sort: "name",
		filter: "name ~ {:q} || company_name ~ {:q} || email ~ {:q}",
		hit: func(r *core.Record) SearchHit {
			return SearchHit{Title: r.GetString("name"), Subtitle: r.GetString("company_name")}
		},
	},
	{
		kind: "quote", collection: "quote_history", sort: "-created",
		filter: "quote_number ~ {:q} || customer_name ~ {:q} || customer_company ~ {:q} || make_name ~ {:q} || model_name ~ {:q}",
		hit: func(r *core.Record) SearchHit {
			return SearchHit{Title: r.GetString("quote_number"),
				Subtitle: joinNonEmpty([]string{r.GetString("customer_name"), r.GetString("make_name"), r.GetString("model_name")}, " · ")}
		},
	},
	{
		kind: "inland_quote", collection: "inland_quotes", sort: "-created",
		filter: "quote_number ~ {:q} || customer_name ~ {:q} || customer_company ~ {:q} || pickup_city ~ {:q} || dropoff_city ~ {:q}",
		hit: func(r *core.Record) SearchHit {
			return SearchHit{Title: r.GetString("quote_number"),
				Subtitle: joinNonEmpty([]string{r.GetString("customer_name"),
					joinNonEmpty([]string{r.GetString("pickup_city"), r.GetString("dropoff_city")}, " → ")}, " · ")}
		},
	},
}

// Search looks q up across companies, contacts, customers and both quote
// kinds, returning at most perKind hits of each. Queries shorter than two
// characters return nothing.
func Search(app core.App, q string, perKind int) ([]SearchHit, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < 2 {
		return nil, nil
	}
	if perKind <= 0 {
		perKind = 5
	}

	var hits []SearchHit
	for _, src := range searchSources {
		records, err := app.FindRecordsByFilter(src.collection, src.filter, src.sort, perKind, 0,
			map[string]any{"q": q})
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", src.collection, err)
		}
		for _, r := range records {
			h := src.hit(r)
			h.Kind, h.ID = src.kind, r.Id
			hits = append(hits, h)
		}
	}
	return hits, nil
}
