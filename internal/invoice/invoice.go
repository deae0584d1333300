package invoice

// Invoice is the canonical output schema. Every field is resolved from a
// LooseRecord by a fixed alias-priority order; the canonical record
// never invents values. The original loose record rides along under Raw
// so no information is silently dropped even when not mapped to a
// canonical slot.
type Invoice struct {
	Supplier  Supplier     `json:"supplier"`
	Invoice   Header       `json:"invoice"`
	LineItems []LineItem   `json:"line_items"`
	Taxes     []TaxEntry   `json:"taxes"`
	Totals    Totals       `json:"totals"`
	Raw       *LooseRecord `json:"raw"`
}

// Supplier identifies the issuing party.
type Supplier struct {
	Name    *string `json:"name"`
	TaxID   *string `json:"tax_id"`
	Address *string `json:"address"`
	Email   *string `json:"email"`
}

// Header carries invoice-level identifiers and dates.
type Header struct {
	Number   *string `json:"number"`
	Date     *string `json:"date"`
	DueDate  *string `json:"due_date"`
	Currency *string `json:"currency"`
}

// Totals holds document amounts in minor currency units. Monetary
// fields stay null when not recoverable; they are never defaulted to 0.
type Totals struct {
	Total    *int64 `json:"total"`
	Subtotal *int64 `json:"subtotal"`
	Tax      *int64 `json:"tax"`
}

// LineItem is one canonical invoice line. Quantity is the only field
// that ever defaults (to 1).
type LineItem struct {
	Description *string `json:"description"`
	Name        *string `json:"name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   *int64  `json:"unit_price"`
	Tax         *int64  `json:"tax"`
	Total       *int64  `json:"total"`
	Discount    *int64  `json:"discount"`
}

// TaxEntry is one canonical tax breakdown row.
type TaxEntry struct {
	Name   *string  `json:"name"`
	Rate   *float64 `json:"rate"`
	Amount *int64   `json:"amount"`
}
