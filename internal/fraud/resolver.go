package fraud

import (
	"strings"
	"unicode/utf8"

	"github.com/StackTheCode/invoice-shield/internal/model"
)

// similarityThreshold is the minimum normalized similarity for a fuzzy name
// match against the trusted vendor registry.
const similarityThreshold = 0.7

// resolveVendor matches the extracted vendor identity against the company's
// trusted registry. Exact VAT match wins outright; otherwise the first vendor
// (in registry order) whose name contains, is contained in, or is
// sufficiently similar to the candidate name is returned. No best-of-N
// ranking is attempted.
func resolveVendor(vendors []model.Vendor, vat, name string) *model.Vendor {
	if vat != "" {
		for i := range vendors {
			if vendors[i].VATNumber != "" && vendors[i].VATNumber == vat {
				return &vendors[i]
			}
		}
	}

	if name != "" {
		nameLower := strings.ToLower(name)
		for i := range vendors {
			vendorLower := strings.ToLower(vendors[i].Name)
			if strings.Contains(nameLower, vendorLower) ||
				strings.Contains(vendorLower, nameLower) ||
				Similarity(nameLower, vendorLower) > similarityThreshold {
				return &vendors[i]
			}
		}
	}

	return nil
}

// compareVendorDetails checks the extracted IBAN and email against a resolved
// trusted vendor. Comparisons are whitespace-stripped and case-insensitive;
// any mismatch is strong evidence of payment redirection.
func compareVendorDetails(inv *model.Invoice, vendor *model.Vendor) []model.FraudIndicator {
	var indicators []model.FraudIndicator

	if vendor.IBAN != "" && inv.VendorIBAN != "" {
		cleanVendor := strings.ToUpper(strings.ReplaceAll(vendor.IBAN, " ", ""))
		cleanInvoice := strings.ToUpper(strings.ReplaceAll(inv.VendorIBAN, " ", ""))

		if cleanVendor != cleanInvoice {
			indicators = append(indicators, model.FraudIndicator{
				Type:     IndicatorIBANMismatch,
				Severity: model.SeverityCritical,
				Message:  "IBAN does not match trusted vendor",
				Details: map[string]interface{}{
					"expected": vendor.IBAN,
					"received": inv.VendorIBAN,
				},
			})
		}
	}

	if vendor.Email != "" && inv.VendorEmail != "" {
		if !strings.EqualFold(vendor.Email, inv.VendorEmail) {
			indicators = append(indicators, model.FraudIndicator{
				Type:     IndicatorEmailMismatch,
				Severity: model.SeverityHigh,
				Message:  "Email does not match trusted vendor",
				Details: map[string]interface{}{
					"expected": vendor.Email,
					"received": inv.VendorEmail,
				},
			})
		}
	}

	return indicators
}

// Similarity computes a normalized similarity score in [0,1] between two
// strings: 1 - editDistance/maxLen, case-insensitive. Two empty strings are
// identical by definition.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	longer, shorter := a, b
	if utf8.RuneCountInString(shorter) > utf8.RuneCountInString(longer) {
		longer, shorter = shorter, longer
	}
	longerLen := utf8.RuneCountInString(longer)
	if longerLen == 0 {
		return 1.0
	}

	distance := levenshtein(longer, shorter)
	return float64(longerLen-distance) / float64(longerLen)
}

// levenshtein computes the classic edit distance with unit costs for
// insertion, deletion and substitution.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)

	for j := 0; j <= len(ra); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(rb); i++ {
		curr[0] = i
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min3(prev[j-1], curr[j-1], prev[j]) + 1
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(ra)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
