// Package parser turns raw recognized invoice text into a structured record.
// Extraction is best-effort: every field is optional and a field that cannot
// be found is simply left empty, never an error.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/StackTheCode/invoice-shield/internal/validation"
)

// ExtractedFields is the structured candidate record produced from raw text
type ExtractedFields struct {
	VendorName    string
	VATNumber     string
	IBAN          string
	Email         string
	InvoiceNumber string
	TotalAmount   *decimal.Decimal
	Currency      string
	InvoiceDate   *time.Time
	DueDate       *time.Time
}

// Parse extracts all supported fields from raw invoice text. It is a pure
// function over its input and never fails.
func Parse(rawText string) ExtractedFields {
	return ExtractedFields{
		VendorName:    extractVendorName(rawText),
		VATNumber:     extractVAT(rawText),
		IBAN:          extractIBAN(rawText),
		Email:         extractEmail(rawText),
		InvoiceNumber: extractInvoiceNumber(rawText),
		TotalAmount:   extractAmount(rawText),
		Currency:      extractCurrency(rawText),
		InvoiceDate:   extractInvoiceDate(rawText),
		DueDate:       extractDueDate(rawText),
	}
}

// extractVendorName takes the first non-empty line of plausible length.
// This is a crude heuristic and known to be noisy; the engine treats the
// result as best-effort evidence only.
func extractVendorName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 3 && len(line) < 100 {
			return line
		}
	}
	return ""
}

// vatPatterns is an ordered priority list: the first candidate that also
// passes format validation wins. Precedence follows the original rule order;
// new country formats are additions to this table, not code edits.
var vatPatterns = []*regexp.Regexp{
	// VAT with label (VAT, BTW, TVA, Tax, optionally "No"/"Number"/"ID")
	regexp.MustCompile(`(?i)(?:VAT|BTW|TVA|Tax)(?:\s*(?:No|Number|ID))?\.?[:\s#]*([A-Z]{2}[0-9A-Z]{8,12})`),
	// UK VAT format (GB followed by 9 or 12 digits)
	regexp.MustCompile(`(?i)\b(GB[0-9]{9}(?:[0-9]{3})?)\b`),
	// Generic EU VAT format
	regexp.MustCompile(`\b([A-Z]{2}[0-9A-Z]{9,12})\b`),
}

func extractVAT(text string) string {
	for _, pattern := range vatPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			vat := strings.ToUpper(strings.ReplaceAll(match[1], " ", ""))
			if validation.ValidateVAT(vat).Valid {
				return vat
			}
		}
	}
	return ""
}

var ibanPattern = regexp.MustCompile(`\b[A-Z]{2}[0-9]{2}[A-Z0-9]{1,30}\b`)

// extractIBAN scans all IBAN-shaped tokens and selects the longest one, on
// the assumption that longer tokens are less likely to be truncated false
// positives. Ties are broken by first occurrence.
func extractIBAN(text string) string {
	matches := ibanPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if len(m) > len(best) {
			best = m
		}
	}
	return strings.ToUpper(strings.ReplaceAll(best, " ", ""))
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

func extractEmail(text string) string {
	return emailPattern.FindString(text)
}

var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Invoice|Facture|Rechnung|Bill)\s*(?:No|Number|#|Nr)[:\s]*([A-Z0-9\-/]+)`),
	regexp.MustCompile(`(?i)\b(?:INV|FAC|REC)[:\-\s]*([0-9]+)`),
}

func extractInvoiceNumber(text string) string {
	for _, pattern := range invoiceNumberPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}

var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Total|Amount|Sum|Grand\s*Total)[:\s]*[€$£]?\s*([0-9][0-9,.]*)`),
	regexp.MustCompile(`[€$£]\s*([0-9][0-9,.]*)`),
}

func extractAmount(text string) *decimal.Decimal {
	for _, pattern := range amountPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			// Strip thousands separators before parsing
			numStr := strings.ReplaceAll(match[1], ",", "")
			if amount, err := decimal.NewFromString(numStr); err == nil {
				return &amount
			}
		}
	}
	return nil
}

func extractCurrency(text string) string {
	switch {
	case strings.Contains(text, "€") || strings.Contains(strings.ToUpper(text), "EUR"):
		return "EUR"
	case strings.Contains(text, "$") || strings.Contains(strings.ToUpper(text), "USD"):
		return "USD"
	case strings.Contains(text, "£") || strings.Contains(strings.ToUpper(text), "GBP"):
		return "GBP"
	default:
		return "EUR"
	}
}

var invoiceDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Invoice\s*Date|Date)[:\s]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
	regexp.MustCompile(`\b(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})\b`),
}

var dueDatePattern = regexp.MustCompile(`(?i)(?:Due\s*Date|Payment\s*Due)[:\s]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`)

func extractInvoiceDate(text string) *time.Time {
	for _, pattern := range invoiceDatePatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			if date := parseDate(match[1]); date != nil {
				return date
			}
		}
	}
	return nil
}

func extractDueDate(text string) *time.Time {
	if match := dueDatePattern.FindStringSubmatch(text); match != nil {
		return parseDate(match[1])
	}
	return nil
}

var dateSeparators = regexp.MustCompile(`[/\-.]`)

// parseDate parses a dd/mm/yyyy-shaped token with locale-naive day/month/year
// ordering. Invalid calendar dates yield nil.
func parseDate(token string) *time.Time {
	parts := dateSeparators.Split(token, -1)
	if len(parts) != 3 {
		return nil
	}
	layout := "2/1/2006"
	if len(parts[2]) == 2 {
		layout = "2/1/06"
	}
	normalized := strings.Join(parts, "/")
	date, err := time.Parse(layout, normalized)
	if err != nil {
		return nil
	}
	return &date
}
