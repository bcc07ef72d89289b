package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"shop-assistant/internal/domain"
)

// FunctionName is the closed set of functions the model may call.
type FunctionName string

const (
	FunctionSearchProducts    FunctionName = "searchProducts"
	FunctionConvertCurrencies FunctionName = "convertCurrencies"
)

var knownFunctions = []FunctionName{FunctionSearchProducts, FunctionConvertCurrencies}

func parseFunctionName(name string) (FunctionName, bool) {
	for _, fn := range knownFunctions {
		if string(fn) == name {
			return fn, true
		}
	}
	return "", false
}

type searchProductsArgs struct {
	Query string `json:"query"`
}

type convertCurrenciesArgs struct {
	Amount       float64 `json:"amount"`
	FromCurrency string  `json:"fromCurrency"`
	ToCurrency   string  `json:"toCurrency"`
}

var (
	errInvalidArgumentsJSON = errors.New("function arguments are not valid JSON")
	errArgumentsMismatch    = errors.New("function arguments do not match schema")
)

type declaredFunction struct {
	definition domain.FunctionDefinition
	schema     *gojsonschema.Schema
}

// functionRegistry holds the declared functions and their compiled argument
// schemas. The same schema document is sent to the model and used to
// validate its arguments.
type functionRegistry struct {
	decls map[FunctionName]declaredFunction
}

func newFunctionRegistry() (*functionRegistry, error) {
	defs := map[FunctionName]domain.FunctionDefinition{
		FunctionSearchProducts: {
			Name:        string(FunctionSearchProducts),
			Description: "Search the product catalog for items matching a free-text query.",
			Parameters: json.RawMessage(`{
				"type":"object",
				"properties":{
					"query":{"type":"string","description":"Words describing the product the customer is looking for"}
				},
				"required":["query"]
			}`),
		},
		FunctionConvertCurrencies: {
			Name:        string(FunctionConvertCurrencies),
			Description: "Convert an amount of money from one currency to another using live exchange rates.",
			Parameters: json.RawMessage(`{
				"type":"object",
				"properties":{
					"amount":{"type":"number","description":"The amount to convert"},
					"fromCurrency":{"type":"string","description":"ISO 4217 code of the source currency, e.g. USD"},
					"toCurrency":{"type":"string","description":"ISO 4217 code of the target currency, e.g. EUR"}
				},
				"required":["amount","fromCurrency","toCurrency"]
			}`),
		},
	}

	r := &functionRegistry{decls: make(map[FunctionName]declaredFunction, len(defs))}
	for name, def := range defs {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(def.Parameters))
		if err != nil {
			return nil, fmt.Errorf("usecase: compile %s schema: %w", name, err)
		}
		r.decls[name] = declaredFunction{definition: def, schema: schema}
	}
	return r, nil
}

// definitions returns the function declarations in a stable order.
func (r *functionRegistry) definitions() []domain.FunctionDefinition {
	out := make([]domain.FunctionDefinition, 0, len(knownFunctions))
	for _, name := range knownFunctions {
		out = append(out, r.decls[name].definition)
	}
	return out
}

// decode validates raw against the function's schema and unmarshals it into out.
func (r *functionRegistry) decode(name FunctionName, raw string, out any) error {
	decl, ok := r.decls[name]
	if !ok {
		return fmt.Errorf("usecase: no schema for function %q", name)
	}
	if !json.Valid([]byte(raw)) {
		return errInvalidArgumentsJSON
	}

	result, err := decl.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgumentsJSON, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return fmt.Errorf("%w: %s", errArgumentsMismatch, strings.Join(details, "; "))
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %v", errArgumentsMismatch, err)
	}
	return nil
}
