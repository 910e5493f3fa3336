package links

import (
	"strings"

	"github.com/bunchhieng/linkdir/internal/model"
	"golang.org/x/text/cases"
)

// Filter returns the records in category whose title or description contains
// query, ignoring case. An empty query or category does not filter. Order is
// preserved.
func Filter(records []model.LinkRecord, query, category string) []model.LinkRecord {
	result := make([]model.LinkRecord, 0, len(records))

	var fold cases.Caser
	if query != "" {
		fold = cases.Fold()
		query = fold.String(query)
	}

	for _, r := range records {
		if category != "" && r.CategoryID != category {
			continue
		}
		if query != "" &&
			!strings.Contains(fold.String(r.Title), query) &&
			!strings.Contains(fold.String(r.Description), query) {
			continue
		}
		result = append(result, r)
	}
	return result
}
