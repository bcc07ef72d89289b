package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"shop-assistant/internal/domain"
)

func product(title, text, kind string) domain.ProductRecord {
	return domain.ProductRecord{
		domain.FieldDisplayTitle:  title,
		domain.FieldEmbeddingText: text,
		domain.FieldProductType:   kind,
	}
}

func testCatalog() []domain.ProductRecord {
	return []domain.ProductRecord{
		product("Aurora X2", "Slim smartphone with OLED screen", "phone"),
		product("Trail Runner", "Lightweight running shoe", "shoes"),
		product("Pixel Buds", "Wireless earbuds for your phone", "audio"),
		product("Nova Phone Mini", "Compact handset", "Phone"),
		product("Desk Lamp", "LED lamp with dimmer", "home"),
	}
}

func TestSearch_NoMatchingTerm(t *testing.T) {
	require.Empty(t, Search(testCatalog(), "bicycle helmet"))
}

func TestSearch_EmptyQuery(t *testing.T) {
	require.Empty(t, Search(testCatalog(), "   "))
	require.Empty(t, Search(testCatalog(), ""))
}

func TestSearch_CaseInsensitive(t *testing.T) {
	out := Search([]domain.ProductRecord{product("Desk", "a basic phone", "misc")}, "Phone")
	require.Len(t, out, 1)
	require.Equal(t, "Desk", out[0][domain.FieldDisplayTitle])
}

func TestSearch_CapsAtTwoInCatalogOrder(t *testing.T) {
	out := Search(testCatalog(), "phone")
	require.Len(t, out, MaxMatches)
	require.Equal(t, "Aurora X2", out[0][domain.FieldDisplayTitle])
	require.Equal(t, "Pixel Buds", out[1][domain.FieldDisplayTitle])
}

func TestSearch_AnyTermMatches(t *testing.T) {
	out := Search(testCatalog(), "lamp shoe")
	require.Len(t, out, 2)
	require.Equal(t, "Trail Runner", out[0][domain.FieldDisplayTitle])
	require.Equal(t, "Desk Lamp", out[1][domain.FieldDisplayTitle])
}

func TestSearch_MatchesAcrossFields(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{query: "aurora", want: "Aurora X2"},
		{query: "running", want: "Trail Runner"},
		{query: "home", want: "Desk Lamp"},
	}
	for _, tc := range cases {
		out := Search(testCatalog(), tc.query)
		require.Len(t, out, 1, "query=%q", tc.query)
		require.Equal(t, tc.want, out[0][domain.FieldDisplayTitle], "query=%q", tc.query)
	}
}

func TestSearch_ResultIsOrderedSubset(t *testing.T) {
	records := testCatalog()
	queries := []string{"phone", "o", "lamp shoe", "buds x2 mini", "nothing"}
	for _, q := range queries {
		out := Search(records, q)
		require.LessOrEqual(t, len(out), MaxMatches, "query=%q", q)

		next := 0
		for _, got := range out {
			found := false
			for next < len(records) {
				idx := next
				next++
				if records[idx][domain.FieldDisplayTitle] == got[domain.FieldDisplayTitle] {
					found = true
					break
				}
			}
			require.True(t, found, "query=%q returned out-of-order or foreign record", q)
		}
	}
}

func TestSearch_MissingFieldsDoNotPanic(t *testing.T) {
	out := Search([]domain.ProductRecord{{"displayTitle": "Phone case"}}, "case")
	require.Len(t, out, 1)
}
