// Package validation holds the pure format and checksum validators used by
// the fraud engine. All validators are stateless and total.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Result is the outcome of a single validation
type Result struct {
	Valid   bool
	Message string
}

var (
	ibanRegex  = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{1,30}$`)
	ukVATRegex = regexp.MustCompile(`^(GB|XI)[0-9]{9}(?:[0-9]{3})?$`)
	euVATRegex = regexp.MustCompile(`^[A-Z]{2}[0-9A-Z]{8,12}$`)
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// euVATCountries is the fixed EU+UK country-code set accepted for VAT ids.
// XI is Northern Ireland.
var euVATCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "CY": true, "CZ": true,
	"DE": true, "DK": true, "EE": true, "ES": true, "FI": true,
	"FR": true, "GB": true, "GR": true, "HR": true, "HU": true,
	"IE": true, "IT": true, "LT": true, "LU": true, "LV": true,
	"MT": true, "NL": true, "PL": true, "PT": true, "RO": true,
	"SE": true, "SI": true, "SK": true, "XI": true,
}

// ValidateIBAN checks the basic IBAN shape and length. Real per-country
// rules are out of scope; ValidateIBANChecksum adds the mod-97 check.
func ValidateIBAN(iban string) Result {
	if iban == "" {
		return Result{Valid: false, Message: "IBAN is missing"}
	}
	clean := strings.ToUpper(strings.ReplaceAll(iban, " ", ""))

	if !ibanRegex.MatchString(clean) {
		return Result{Valid: false, Message: "Invalid IBAN format"}
	}
	if len(clean) < 15 || len(clean) > 34 {
		return Result{Valid: false, Message: "IBAN length is incorrect, should be between 15 and 34"}
	}
	return Result{Valid: true}
}

// ValidateIBANChecksum verifies the ISO 7064 mod-97-10 checksum: the first
// four characters move to the end, letters map to ord(ch)-55, and the
// resulting numeral string must be congruent to 1 mod 97. The modulus is
// computed in fixed-size chunks to avoid integer overflow.
func ValidateIBANChecksum(iban string) bool {
	clean := strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
	if !ibanRegex.MatchString(clean) {
		return false
	}

	rearranged := clean[4:] + clean[:4]

	var numerical strings.Builder
	for _, ch := range rearranged {
		if ch >= 'A' && ch <= 'Z' {
			numerical.WriteString(strconv.Itoa(int(ch) - 55))
		} else {
			numerical.WriteRune(ch)
		}
	}

	remainder := numerical.String()
	for len(remainder) > 2 {
		block := remainder
		if len(block) > 9 {
			block = block[:9]
		}
		n, err := strconv.ParseInt(block, 10, 64)
		if err != nil {
			return false
		}
		remainder = strconv.FormatInt(n%97, 10) + remainder[len(block):]
	}

	final, err := strconv.ParseInt(remainder, 10, 64)
	if err != nil {
		return false
	}
	return final%97 == 1
}

// ValidateVAT checks the VAT id format. The UK pattern short-circuits;
// everything else goes through the generic EU pattern plus the country-code
// allow list.
func ValidateVAT(vat string) Result {
	if vat == "" {
		return Result{Valid: false, Message: "VAT number is missing"}
	}
	clean := strings.ToUpper(strings.ReplaceAll(vat, " ", ""))

	if strings.HasPrefix(clean, "GB") || strings.HasPrefix(clean, "XI") {
		if !ukVATRegex.MatchString(clean) {
			return Result{Valid: false, Message: "Invalid UK VAT format (should be GB + 9 or 12 digits)"}
		}
		return Result{Valid: true}
	}

	if !euVATRegex.MatchString(clean) {
		return Result{Valid: false, Message: "Invalid VAT number format"}
	}
	if len(clean) < 10 || len(clean) > 14 {
		return Result{Valid: false, Message: "VAT number length is incorrect"}
	}

	countryCode := clean[:2]
	if !euVATCountries[countryCode] {
		return Result{Valid: false, Message: fmt.Sprintf("Unknown country code: %s", countryCode)}
	}

	return Result{Valid: true}
}

// ValidateEmail checks a permissive email shape
func ValidateEmail(email string) Result {
	if email == "" {
		return Result{Valid: false, Message: "Email is missing"}
	}
	if !emailRegex.MatchString(email) {
		return Result{Valid: false, Message: "Invalid email format"}
	}
	return Result{Valid: true}
}

// noHistoryThreshold flags amounts above this value when no historical
// baseline exists for the vendor.
var noHistoryThreshold = decimal.NewFromInt(10000)

// IsAmountSuspicious flags an amount as anomalous when it exceeds three times
// the vendor's historical average, or 10 000 when no history exists.
func IsAmountSuspicious(amount decimal.Decimal, historicalAverage *decimal.Decimal) bool {
	if historicalAverage == nil {
		return amount.GreaterThan(noHistoryThreshold)
	}
	return amount.GreaterThan(historicalAverage.Mul(decimal.NewFromInt(3)))
}
