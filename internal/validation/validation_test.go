package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateIBAN(t *testing.T) {
	tests := []struct {
		name  string
		iban  string
		valid bool
	}{
		{"valid UK IBAN", "GB82WEST12345698765432", true},
		{"valid German IBAN", "DE89370400440532013000", true},
		{"valid Irish IBAN", "IE29AIBK93115212345678", true},
		{"spaces are stripped", "GB82 WEST 1234 5698 7654 32", true},
		{"lowercase is normalized", "gb82west12345698765432", true},
		{"empty", "", false},
		{"no country code", "82WEST12345698765432", false},
		{"too short", "GB82WEST1", false},
		{"garbage", "not-an-iban", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateIBAN(tt.iban)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.NotEmpty(t, result.Message)
			}
		})
	}
}

func TestValidateIBANChecksum(t *testing.T) {
	// Published example IBANs with correct mod-97 checksums
	valid := []string{
		"GB82WEST12345698765432",
		"DE89370400440532013000",
		"IE29AIBK93115212345678",
		"FR1420041010050500013M02606",
		"BE68539007547034",
	}
	for _, iban := range valid {
		assert.True(t, ValidateIBANChecksum(iban), iban)
	}

	invalid := []string{
		"GB82WEST12345698765433", // last digit flipped
		"DE89370400440532013001",
		"GB00WEST12345698765432", // wrong check digits
		"",
		"not-an-iban",
	}
	for _, iban := range invalid {
		assert.False(t, ValidateIBANChecksum(iban), iban)
	}
}

func TestValidateVAT(t *testing.T) {
	tests := []struct {
		name  string
		vat   string
		valid bool
	}{
		{"UK 9 digits", "GB123456789", true},
		{"UK 12 digits", "GB123456789012", true},
		{"Northern Ireland", "XI123456789", true},
		{"UK too few digits", "GB12345678", false},
		{"UK letters in number", "GB12345678A", false},
		{"Irish with letter", "IE9692928L", true},
		{"German", "DE123456789", true},
		{"spaces are stripped", "DE 123 456 789", true},
		{"unknown country code", "ZZ123456789", false},
		{"empty", "", false},
		{"too short", "DE1234", false},
		{"no country prefix", "123456789", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateVAT(tt.vat)
			assert.Equal(t, tt.valid, result.Valid)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("billing@acme-supplies.ie").Valid)
	assert.True(t, ValidateEmail("a.b+c@example.co.uk").Valid)
	assert.False(t, ValidateEmail("").Valid)
	assert.False(t, ValidateEmail("not-an-email").Valid)
	assert.False(t, ValidateEmail("two@@example.com").Valid)
	assert.False(t, ValidateEmail("spaces in@example.com").Valid)
}

func TestIsAmountSuspicious(t *testing.T) {
	avg := decimal.NewFromInt(100)

	// No history: only amounts above the absolute threshold are flagged
	assert.False(t, IsAmountSuspicious(decimal.NewFromInt(10000), nil))
	assert.True(t, IsAmountSuspicious(decimal.NewFromFloat(10000.01), nil))
	assert.False(t, IsAmountSuspicious(decimal.NewFromInt(500), nil))

	// With history: the bar is three times the historical average, exclusive
	assert.False(t, IsAmountSuspicious(decimal.NewFromInt(300), &avg))
	assert.True(t, IsAmountSuspicious(decimal.NewFromInt(301), &avg))
	assert.False(t, IsAmountSuspicious(decimal.NewFromInt(50), &avg))
}
