package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"shop-assistant/internal/domain"
)

var requiredColumns = []string{
	domain.FieldDisplayTitle,
	domain.FieldEmbeddingText,
	domain.FieldProductType,
}

// CSVSource reads the product catalog from a CSV file with a header row.
// The file is read in full on every Load.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSVSource for the given file path.
func NewCSVSource(path string) (*CSVSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("catalog: path must not be empty")
	}
	return &CSVSource{path: filepath.Clean(path)}, nil
}

// Load returns every row of the catalog in file order.
func (s *CSVSource) Load(ctx context.Context) ([]domain.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := gocsv.CSVToMaps(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", s.path, err)
	}

	records := make([]domain.ProductRecord, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			if missing := missingColumns(row); len(missing) > 0 {
				return nil, fmt.Errorf("catalog: %s missing columns %s", s.path, strings.Join(missing, ", "))
			}
		}
		records = append(records, domain.ProductRecord(row))
	}
	return records, nil
}

func missingColumns(row map[string]string) []string {
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := row[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
