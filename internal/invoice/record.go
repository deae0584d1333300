package invoice

// LooseRecord is the sparse, synonym-keyed intermediate extraction. It
// carries every key the template extractor vocabulary uses, as named
// optional fields, so each accepted synonym is enumerable and testable.
// Absence is meaningful (field not recoverable) and is never defaulted.
//
// Monetary fields are int64 minor currency units (cents), never floats.
type LooseRecord struct {
	Issuer   *string `json:"issuer,omitempty"`
	Supplier *string `json:"supplier,omitempty"`
	Company  *string `json:"company,omitempty"`

	VATID   *string `json:"vat_id,omitempty"`
	TaxID   *string `json:"tax_id,omitempty"`
	Address *string `json:"address,omitempty"`
	Email   *string `json:"email,omitempty"`

	InvoiceNumber *string `json:"invoice_number,omitempty"`
	Number        *string `json:"number,omitempty"`
	Date          *string `json:"date,omitempty"`
	DueDate       *string `json:"due_date,omitempty"`
	Currency      *string `json:"currency,omitempty"`
	CurrencyCode  *string `json:"currency_code,omitempty"`

	Amount   *int64 `json:"amount,omitempty"`
	Total    *int64 `json:"total,omitempty"`
	Net      *int64 `json:"net,omitempty"`
	Subtotal *int64 `json:"subtotal,omitempty"`
	Tax      *int64 `json:"tax,omitempty"`

	Lines []LooseLine `json:"lines,omitempty"`
	Items []LooseLine `json:"items,omitempty"`
	Taxes []LooseTax  `json:"taxes,omitempty"`
}

// LooseLine is one line item in extractor vocabulary.
type LooseLine struct {
	Desc        *string  `json:"desc,omitempty"`
	Description *string  `json:"description,omitempty"`
	Product     *string  `json:"product,omitempty"`
	Name        *string  `json:"name,omitempty"`
	Qty         *float64 `json:"qty,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Price       *int64   `json:"price,omitempty"`
	UnitPrice   *int64   `json:"unit_price,omitempty"`
	Tax         *int64   `json:"tax,omitempty"`
	Total       *int64   `json:"total,omitempty"`
	Amount      *int64   `json:"amount,omitempty"`
	Discount    *int64   `json:"discount,omitempty"`
}

// LooseTax is one tax breakdown entry in extractor vocabulary.
type LooseTax struct {
	Name   *string  `json:"name,omitempty"`
	Rate   *float64 `json:"rate,omitempty"`
	Amount *int64   `json:"amount,omitempty"`
}

// IsEmpty reports whether no field of the record is set.
func (r *LooseRecord) IsEmpty() bool {
	if r == nil {
		return true
	}
	return firstString(r.Issuer, r.Supplier, r.Company, r.VATID, r.TaxID,
		r.Address, r.Email, r.InvoiceNumber, r.Number, r.Date, r.DueDate,
		r.Currency, r.CurrencyCode) == nil &&
		firstInt64(r.Amount, r.Total, r.Net, r.Subtotal, r.Tax) == nil &&
		len(r.Lines) == 0 && len(r.Items) == 0 && len(r.Taxes) == 0
}

// firstString returns the first non-nil, non-empty candidate. The
// argument order is the alias priority order.
func firstString(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return c
		}
	}
	return nil
}

func firstInt64(candidates ...*int64) *int64 {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstFloat64(candidates ...*float64) *float64 {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}
