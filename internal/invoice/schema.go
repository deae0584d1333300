package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns the canonical output contract as a
// JSON-Schema (draft 2020-12 subset). The top-level object carries
// exactly the keys supplier, invoice, line_items, taxes, totals, raw.
func BuildInvoiceJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	// minor currency units or null, never a float
	minorUnits := map[string]any{"type": []string{"integer", "null"}}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"supplier", "invoice", "line_items", "taxes", "totals", "raw"},
		"properties": map[string]any{
			"supplier": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"name":    nullableString,
					"tax_id":  nullableString,
					"address": nullableString,
					"email":   nullableString,
				},
			},
			"invoice": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"number":   nullableString,
					"date":     nullableString,
					"due_date": nullableString,
					"currency": nullableString,
				},
			},
			"line_items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"description": nullableString,
						"name":        nullableString,
						"quantity":    map[string]any{"type": "number"},
						"unit_price":  minorUnits,
						"tax":         minorUnits,
						"total":       minorUnits,
						"discount":    minorUnits,
					},
				},
			},
			"taxes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":   nullableString,
						"rate":   map[string]any{"type": []string{"number", "null"}},
						"amount": minorUnits,
					},
				},
			},
			"totals": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"total", "subtotal", "tax"},
				"properties": map[string]any{
					"total":    minorUnits,
					"subtotal": minorUnits,
					"tax":      minorUnits,
				},
			},
			"raw": map[string]any{"type": "object"},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
