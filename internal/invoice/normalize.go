package invoice

import (
	"invoice-extractor/internal/common"
)

// Alias priority per canonical field. First present wins.
//
//	supplier.name     issuer > supplier > company
//	supplier.tax_id   vat_id > tax_id
//	invoice.number    invoice_number > number
//	invoice.currency  currency > currency_code
//	totals.total      amount > total
//	totals.subtotal   net > subtotal
//	line.description  desc > description > product
//	line.name         product > name > desc
//	line.quantity     qty > quantity > 1
//	line.unit_price   price > unit_price
//	line.total        total > amount
//
// A record must exist: Normalize fails on an absent record rather than
// fabricating an invoice for it. An absent record is a nil pointer;
// a present record whose fields are all unset still normalizes, to an
// all-null invoice (sparse results are valid results). Boundaries that
// receive record objects over the wire reject empty ones before calling
// here (see template.Client).
func Normalize(rec *LooseRecord) (*Invoice, error) {
	if rec == nil {
		return nil, common.NewAppError("NORMALIZE_EMPTY", "no record to normalize", common.ErrEmptyRecord)
	}

	inv := &Invoice{
		Supplier: Supplier{
			Name:    firstString(rec.Issuer, rec.Supplier, rec.Company),
			TaxID:   firstString(rec.VATID, rec.TaxID),
			Address: rec.Address,
			Email:   rec.Email,
		},
		Invoice: Header{
			Number:   firstString(rec.InvoiceNumber, rec.Number),
			Date:     rec.Date,
			DueDate:  rec.DueDate,
			Currency: firstString(rec.Currency, rec.CurrencyCode),
		},
		Totals: Totals{
			Total:    firstInt64(rec.Amount, rec.Total),
			Subtotal: firstInt64(rec.Net, rec.Subtotal),
			Tax:      rec.Tax,
		},
		LineItems: []LineItem{},
		Taxes:     []TaxEntry{},
		Raw:       rec,
	}

	lines := rec.Lines
	if len(lines) == 0 {
		lines = rec.Items
	}
	for _, ln := range lines {
		qty := 1.0
		if q := firstFloat64(ln.Qty, ln.Quantity); q != nil {
			qty = *q
		}
		inv.LineItems = append(inv.LineItems, LineItem{
			Description: firstString(ln.Desc, ln.Description, ln.Product),
			Name:        firstString(ln.Product, ln.Name, ln.Desc),
			Quantity:    qty,
			UnitPrice:   firstInt64(ln.Price, ln.UnitPrice),
			Tax:         ln.Tax,
			Total:       firstInt64(ln.Total, ln.Amount),
			Discount:    ln.Discount,
		})
	}

	for _, tx := range rec.Taxes {
		inv.Taxes = append(inv.Taxes, TaxEntry{
			Name:   tx.Name,
			Rate:   tx.Rate,
			Amount: tx.Amount,
		})
	}

	return inv, nil
}
