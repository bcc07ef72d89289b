package domain

// Catalog column names every product record is expected to carry.
const (
	FieldDisplayTitle  = "displayTitle"
	FieldEmbeddingText = "embeddingText"
	FieldProductType   = "productType"
)

// ProductRecord is one catalog row keyed by column header, loaded verbatim.
type ProductRecord map[string]string

// ConversionResult is an amount expressed in a target currency.
type ConversionResult struct {
	Amount   float64
	Currency string
}
