package catalog

import (
	"strings"

	"shop-assistant/internal/domain"
)

// MaxMatches caps the number of records Search returns.
const MaxMatches = 2

// Search returns the first MaxMatches records, in catalog order, whose title,
// description or type contains any whitespace-separated query term. Matching
// is case-insensitive.
func Search(records []domain.ProductRecord, query string) []domain.ProductRecord {
	terms := strings.Fields(strings.ToLower(query))
	matches := make([]domain.ProductRecord, 0, MaxMatches)
	if len(terms) == 0 {
		return matches
	}

	for _, rec := range records {
		if matchesAny(searchText(rec), terms) {
			matches = append(matches, rec)
			if len(matches) == MaxMatches {
				break
			}
		}
	}
	return matches
}

func searchText(rec domain.ProductRecord) string {
	return strings.ToLower(strings.Join([]string{
		rec[domain.FieldDisplayTitle],
		rec[domain.FieldEmbeddingText],
		rec[domain.FieldProductType],
	}, " "))
}

func matchesAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
