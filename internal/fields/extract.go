// Package fields infers invoice fields from recovered OCR text using
// keyword and numeric-pattern heuristics tuned for multilingual (Latin
// and Cyrillic) receipts. It is deliberately best-effort: ambiguity
// degrades to absent fields, never to an error.
package fields

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"invoice-extractor/internal/invoice"
)

// Config holds the heuristic tunables.
type Config struct {
	// MaxTotal is the sanity ceiling for monetary values, in major
	// currency units. Parsed numbers above it are discarded so long
	// numeric codes (fiscal IDs, barcodes) are not misread as totals.
	MaxTotal int64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{MaxTotal: 1_000_000}
}

var (
	reISODate    = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	reDottedDate = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})`)
	reAmount     = regexp.MustCompile(`\d+[.,]\d{2}|\d+`)
)

// totalKeywords marks lines that likely carry the document total.
// Macedonian receipts print both Cyrillic and Latin spellings.
var totalKeywords = []string{
	"total",
	"вкупно",
	"vkupno",
	"вкупен износ",
	"vkupen iznos",
	"износ за плаќање",
	"iznos za plakjanje",
}

var hundred = decimal.NewFromInt(100)

// Extract scans recovered text line by line and produces a loose
// record. Never fails: malformed or empty text yields all-absent
// fields. Invoice number, tax and line items are populated only by the
// template extractor, never here.
func (c Config) Extract(text string) *invoice.LooseRecord {
	if c.MaxTotal <= 0 {
		c.MaxTotal = 1_000_000
	}
	rec := &invoice.LooseRecord{}

	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			lines = append(lines, t)
		}
	}

	// Receipts conventionally print the merchant name first.
	if len(lines) > 0 {
		rec.Issuer = &lines[0]
	}

	if m := reISODate.FindString(text); m != "" {
		rec.Date = &m
	} else if m := reDottedDate.FindString(text); m != "" {
		rec.Date = &m
	}

	if total, ok := c.findTotal(lines); ok {
		minor := total.Mul(hundred).Round(0).IntPart()
		rec.Amount = &minor
		rec.Total = &minor
	}

	return rec
}

// findTotal partitions plausible monetary tokens into two pools: every
// number seen anywhere, and the last number on each line carrying a
// "total" keyword (printed totals place the amount at line end, after a
// colon or label). Keyword-scoped numbers win; otherwise fall back to
// the largest reasonable number anywhere.
func (c Config) findTotal(lines []string) (decimal.Decimal, bool) {
	ceiling := decimal.NewFromInt(c.MaxTotal)

	var allNumbers, keywordNumbers []decimal.Decimal
	for _, line := range lines {
		lower := strings.ToLower(line)

		var lineNumbers []decimal.Decimal
		for _, tok := range reAmount.FindAllString(line, -1) {
			num, err := decimal.NewFromString(strings.ReplaceAll(tok, ",", "."))
			if err != nil {
				continue
			}
			if !num.IsPositive() || num.GreaterThan(ceiling) {
				continue
			}
			allNumbers = append(allNumbers, num)
			lineNumbers = append(lineNumbers, num)
		}

		if len(lineNumbers) > 0 && containsAny(lower, totalKeywords) {
			keywordNumbers = append(keywordNumbers, lineNumbers[len(lineNumbers)-1])
		}
	}

	if len(keywordNumbers) > 0 {
		return maxDecimal(keywordNumbers), true
	}
	if len(allNumbers) > 0 {
		return maxDecimal(allNumbers), true
	}
	return decimal.Decimal{}, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func maxDecimal(nums []decimal.Decimal) decimal.Decimal {
	best := nums[0]
	for _, n := range nums[1:] {
		if n.GreaterThan(best) {
			best = n
		}
	}
	return best
}
