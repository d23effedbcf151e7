package fraud

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/StackTheCode/invoice-shield/internal/model"
	"github.com/StackTheCode/invoice-shield/internal/validation"
)

// euVIESCountries is the set of country codes VIES can verify. GB and XI are
// valid VAT prefixes but left Brexit-side of the registry.
var euVIESCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "CY": true, "CZ": true,
	"DE": true, "DK": true, "EE": true, "ES": true, "FI": true,
	"FR": true, "GR": true, "HR": true, "HU": true, "IE": true,
	"IT": true, "LT": true, "LU": true, "LV": true, "MT": true,
	"NL": true, "PL": true, "PT": true, "RO": true, "SE": true,
	"SI": true, "SK": true,
}

// ibanCountryExceptions lists country pairs where a cross-border IBAN is
// common enough not to flag, e.g. Irish companies banking in the UK. Pairs
// match in either direction.
var ibanCountryExceptions = [][2]string{
	{"IE", "GB"},
	{"BE", "NL"},
}

// checkVendorWhitelist resolves the extracted vendor identity against the
// trusted registry and, on a hit, compares banking details.
func (e *Engine) checkVendorWhitelist(_ context.Context, snap *snapshot) []model.FraudIndicator {
	inv := snap.invoice

	if inv.VendorVAT == "" && inv.VendorName == "" {
		return []model.FraudIndicator{{
			Type:     IndicatorMissingVendorInfo,
			Severity: model.SeverityMedium,
			Message:  "Vendor information is incomplete",
		}}
	}

	if vendor := resolveVendor(snap.vendors, inv.VendorVAT, inv.VendorName); vendor != nil {
		return compareVendorDetails(inv, vendor)
	}

	return []model.FraudIndicator{{
		Type:     IndicatorUnknownVendor,
		Severity: model.SeverityHigh,
		Message:  "Vendor not in trusted whitelist",
		Details: map[string]interface{}{
			"vendor_name": inv.VendorName,
			"vendor_vat":  inv.VendorVAT,
		},
	}}
}

func (e *Engine) checkIBANValidity(_ context.Context, snap *snapshot) []model.FraudIndicator {
	inv := snap.invoice

	if inv.VendorIBAN == "" {
		return []model.FraudIndicator{{
			Type:     IndicatorMissingIBAN,
			Severity: model.SeverityMedium,
			Message:  "IBAN not found in invoice",
		}}
	}

	if result := validation.ValidateIBAN(inv.VendorIBAN); !result.Valid {
		return []model.FraudIndicator{{
			Type:     IndicatorInvalidIBAN,
			Severity: model.SeverityHigh,
			Message:  result.Message,
			Details:  map[string]interface{}{"iban": inv.VendorIBAN},
		}}
	}

	return nil
}

func (e *Engine) checkVATValidity(_ context.Context, snap *snapshot) []model.FraudIndicator {
	inv := snap.invoice

	// Absence is already flagged by the whitelist check
	if inv.VendorVAT == "" {
		return nil
	}

	if result := validation.ValidateVAT(inv.VendorVAT); !result.Valid {
		return []model.FraudIndicator{{
			Type:     IndicatorInvalidVAT,
			Severity: model.SeverityMedium,
			Message:  result.Message,
			Details:  map[string]interface{}{"vat": inv.VendorVAT},
		}}
	}

	return nil
}

func (e *Engine) checkEmailValidity(_ context.Context, snap *snapshot) []model.FraudIndicator {
	inv := snap.invoice

	if inv.VendorEmail == "" {
		return nil
	}

	if result := validation.ValidateEmail(inv.VendorEmail); !result.Valid {
		return []model.FraudIndicator{{
			Type:     IndicatorInvalidEmail,
			Severity: model.SeverityLow,
			Message:  result.Message,
		}}
	}

	return nil
}

// checkDuplicateInvoice flags invoice numbers already seen for this company
func (e *Engine) checkDuplicateInvoice(_ context.Context, snap *snapshot) []model.FraudIndicator {
	inv := snap.invoice

	if inv.InvoiceNumber == "" {
		return nil
	}

	duplicates := 0
	for i := range snap.history {
		other := &snap.history[i]
		if other.ID != inv.ID && other.InvoiceNumber == inv.InvoiceNumber {
			duplicates++
		}
	}

	if duplicates > 0 {
		return []model.FraudIndicator{{
			Type:     IndicatorDuplicateInvoice,
			Severity: model.SeverityCritical,
			Message:  "Invoice number already exists",
			Details: map[string]interface{}{
				"duplicate_count": duplicates,
				"invoice_number":  inv.InvoiceNumber,
			},
		}}
	}

	return nil
}

// checkAmountAnomaly compares the invoice amount against the historical
// average for the same vendor. The baseline includes all prior invoices
// regardless of their own risk status, matching observed behavior.
func (e *Engine) checkAmountAnomaly(_ context.Context, snap *snapshot) []model.FraudIndicator {
	inv := snap.invoice

	if inv.TotalAmount == nil {
		return nil
	}

	var sum decimal.Decimal
	count := 0
	for i := range snap.history {
		other := &snap.history[i]
		if other.ID == inv.ID || other.TotalAmount == nil {
			continue
		}
		if other.VendorVAT != inv.VendorVAT {
			continue
		}
		sum = sum.Add(*other.TotalAmount)
		count++
	}

	var average *decimal.Decimal
	if count > 0 {
		avg := sum.Div(decimal.NewFromInt(int64(count)))
		average = &avg
	}

	if validation.IsAmountSuspicious(*inv.TotalAmount, average) {
		details := map[string]interface{}{
			"amount":   inv.TotalAmount.String(),
			"currency": inv.Currency,
		}
		if average != nil {
			details["average"] = average.String()
		}
		return []model.FraudIndicator{{
			Type:     IndicatorAmountAnomaly,
			Severity: model.SeverityMedium,
			Message:  "Amount is unusually high",
			Details:  details,
		}}
	}

	return nil
}

// checkWellKnownCompany flags invoices claiming to come from a large
// corporation that the company has never whitelisted.
func (e *Engine) checkWellKnownCompany(_ context.Context, snap *snapshot) []model.FraudIndicator {
	inv := snap.invoice

	if inv.VendorName == "" {
		return nil
	}

	known, matchedName := e.directory.IsWellKnownCompany(inv.VendorName)
	if !known {
		return nil
	}

	if inv.VendorVAT != "" {
		for i := range snap.vendors {
			if snap.vendors[i].VATNumber == inv.VendorVAT {
				return nil
			}
		}
	}
	for i := range snap.vendors {
		vendorLower := strings.ToLower(snap.vendors[i].Name)
		if strings.Contains(vendorLower, matchedName) || strings.Contains(matchedName, vendorLower) {
			return nil
		}
	}

	return []model.FraudIndicator{{
		Type:     IndicatorWellKnownNotWhitelisted,
		Severity: model.SeverityMedium,
		Message:  fmt.Sprintf("Invoice claims to be from %s, but they're not in your trusted vendors", matchedName),
		Details: map[string]interface{}{
			"claimed_company": matchedName,
			"suggestion":      "Add this vendor to whitelist if legitimate",
		},
	}}
}

// checkVIESRegistration verifies EU VAT ids against the VIES registry. A
// lookup failure or timeout is inconclusive and produces no indicator.
func (e *Engine) checkVIESRegistration(ctx context.Context, snap *snapshot) []model.FraudIndicator {
	inv := snap.invoice

	if inv.VendorVAT == "" || len(inv.VendorVAT) < 2 {
		return nil
	}
	if !euVIESCountries[inv.VendorVAT[:2]] {
		return nil
	}

	result, err := e.vatRegistry.VerifyVAT(ctx, inv.VendorVAT)
	if err != nil {
		e.logger.Warn("VAT verification failed",
			zap.String("vat", inv.VendorVAT),
			zap.Error(err))
		return nil
	}

	if !result.Valid {
		return []model.FraudIndicator{{
			Type:     IndicatorVATNotRegistered,
			Severity: model.SeverityCritical,
			Message:  "VAT number not registered in EU VIES database",
			Details:  map[string]interface{}{"vat_number": inv.VendorVAT},
		}}
	}

	if fields := strings.Fields(result.CompanyName); len(fields) > 0 {
		invoiceName := strings.ToLower(inv.VendorName)
		officialFirstWord := strings.ToLower(fields[0])

		if !strings.Contains(invoiceName, officialFirstWord) {
			return []model.FraudIndicator{{
				Type:     IndicatorCompanyNameMismatch,
				Severity: model.SeverityHigh,
				Message:  "Vendor name does not match VAT registration",
				Details: map[string]interface{}{
					"invoice_name":    inv.VendorName,
					"registered_name": result.CompanyName,
				},
			}}
		}
	}

	return nil
}

// checkIBANCountryMatch flags IBANs whose country code differs from the VAT
// country, outside the allow-listed cross-border banking pairs.
func (e *Engine) checkIBANCountryMatch(_ context.Context, snap *snapshot) []model.FraudIndicator {
	inv := snap.invoice

	if len(inv.VendorIBAN) < 2 || len(inv.VendorVAT) < 2 {
		return nil
	}

	ibanCountry := inv.VendorIBAN[:2]
	vatCountry := inv.VendorVAT[:2]

	if ibanCountry == vatCountry {
		return nil
	}
	for _, pair := range ibanCountryExceptions {
		if (ibanCountry == pair[0] && vatCountry == pair[1]) ||
			(ibanCountry == pair[1] && vatCountry == pair[0]) {
			return nil
		}
	}

	return []model.FraudIndicator{{
		Type:     IndicatorIBANCountryMismatch,
		Severity: model.SeverityMedium,
		Message:  fmt.Sprintf("IBAN country (%s) doesn't match VAT country (%s)", ibanCountry, vatCountry),
		Details: map[string]interface{}{
			"iban_country": ibanCountry,
			"vat_country":  vatCountry,
		},
	}}
}
