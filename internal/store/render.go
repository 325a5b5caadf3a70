package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Well-known text fields rendered first when present, so the index sees
// the most descriptive content at the front of each document.
var preferredFields = []string{"name", "description", "category", "brand"}

// renderDocument flattens a store document into the text indexed for
// retrieval. The structured path emits "field: value" lines with the
// search field first; if the document carries nothing renderable it
// falls back to a raw JSON serialization of the whole document.
func renderDocument(doc map[string]any, searchField string) string {
	var b strings.Builder

	order := fieldOrder(doc, searchField)
	for _, field := range order {
		v := doc[field]
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %v\n", field, v)
	}

	if b.Len() > 0 {
		return strings.TrimRight(b.String(), "\n")
	}

	// Manual fallback: serialize whatever is there.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Sprintf("%v", doc)
	}
	return string(raw)
}

// fieldOrder returns the document's keys with the search field first,
// then the preferred fields, then everything else alphabetically.
func fieldOrder(doc map[string]any, searchField string) []string {
	seen := make(map[string]bool, len(doc))
	order := make([]string, 0, len(doc))

	appendField := func(field string) {
		if _, ok := doc[field]; ok && !seen[field] {
			seen[field] = true
			order = append(order, field)
		}
	}

	appendField(searchField)
	for _, field := range preferredFields {
		appendField(field)
	}

	rest := make([]string, 0, len(doc))
	for field := range doc {
		if !seen[field] {
			rest = append(rest, field)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	return order
}
