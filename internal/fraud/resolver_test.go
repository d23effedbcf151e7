package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StackTheCode/invoice-shield/internal/model"
)

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("acme", "acme"))
	assert.Equal(t, 1.0, Similarity("Acme", "ACME"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))

	// kitten -> sitting is the classic distance-3 pair
	assert.InDelta(t, 4.0/7.0, Similarity("kitten", "sitting"), 1e-9)

	// symmetric
	assert.Equal(t, Similarity("acme supplies", "acme supplier"), Similarity("acme supplier", "acme supplies"))

	// one empty string against a non-empty one
	assert.Equal(t, 0.0, Similarity("", "acme"))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("", ""))
	assert.Equal(t, 4, levenshtein("acme", ""))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, 1, levenshtein("acme", "acmé"))
}

func TestResolveVendorExactVATWins(t *testing.T) {
	vendors := []model.Vendor{
		{Name: "Completely Different Name", VATNumber: "IE9692928L"},
		{Name: "Acme Supplies Ltd", VATNumber: "DE123456789"},
	}

	// VAT match beats any name similarity
	got := resolveVendor(vendors, "IE9692928L", "Acme Supplies Ltd")
	require.NotNil(t, got)
	assert.Equal(t, "Completely Different Name", got.Name)

	// and works without a name at all
	got = resolveVendor(vendors, "IE9692928L", "")
	require.NotNil(t, got)
	assert.Equal(t, "Completely Different Name", got.Name)
}

func TestResolveVendorNameContains(t *testing.T) {
	vendors := []model.Vendor{
		{Name: "Acme Supplies", VATNumber: "IE9692928L"},
	}

	// extracted name contains the registered one
	got := resolveVendor(vendors, "", "Acme Supplies Ltd")
	require.NotNil(t, got)
	assert.Equal(t, "Acme Supplies", got.Name)

	// and the other direction
	got = resolveVendor(vendors, "", "Acme")
	require.NotNil(t, got)
}

func TestResolveVendorFuzzyMatch(t *testing.T) {
	vendors := []model.Vendor{
		{Name: "Acme Supplies Ltd", VATNumber: "IE9692928L"},
	}

	// one-character typo clears the similarity threshold
	got := resolveVendor(vendors, "", "Acme Suplies Ltd")
	require.NotNil(t, got)

	// an unrelated name does not
	assert.Nil(t, resolveVendor(vendors, "", "Globex Industrial"))
}

func TestResolveVendorNoInput(t *testing.T) {
	vendors := []model.Vendor{
		{Name: "Acme Supplies Ltd", VATNumber: "IE9692928L"},
	}
	assert.Nil(t, resolveVendor(vendors, "", ""))
	assert.Nil(t, resolveVendor(nil, "IE9692928L", "Acme Supplies Ltd"))
}

func TestResolveVendorFirstHitInRegistryOrder(t *testing.T) {
	vendors := []model.Vendor{
		{Name: "Acme Supplies", VATNumber: "IE9692928L"},
		{Name: "Acme Supplies Ltd", VATNumber: "DE123456789"},
	}

	got := resolveVendor(vendors, "", "Acme Supplies Ltd")
	require.NotNil(t, got)
	assert.Equal(t, "Acme Supplies", got.Name)
}

func TestCompareVendorDetails(t *testing.T) {
	vendor := &model.Vendor{
		Name:      "Acme Supplies Ltd",
		VATNumber: "IE9692928L",
		IBAN:      "IE29AIBK93115212345678",
		Email:     "billing@acme-supplies.ie",
	}

	t.Run("matching details produce no indicators", func(t *testing.T) {
		inv := &model.Invoice{
			VendorIBAN:  "IE29 AIBK 9311 5212 3456 78",
			VendorEmail: "BILLING@acme-supplies.ie",
		}
		assert.Empty(t, compareVendorDetails(inv, vendor))
	})

	t.Run("redirected IBAN is critical", func(t *testing.T) {
		inv := &model.Invoice{
			VendorIBAN:  "DE89370400440532013000",
			VendorEmail: "billing@acme-supplies.ie",
		}
		indicators := compareVendorDetails(inv, vendor)
		require.Len(t, indicators, 1)
		assert.Equal(t, IndicatorIBANMismatch, indicators[0].Type)
		assert.Equal(t, model.SeverityCritical, indicators[0].Severity)
	})

	t.Run("changed email is high", func(t *testing.T) {
		inv := &model.Invoice{
			VendorIBAN:  "IE29AIBK93115212345678",
			VendorEmail: "billing@acme-supplies.xyz",
		}
		indicators := compareVendorDetails(inv, vendor)
		require.Len(t, indicators, 1)
		assert.Equal(t, IndicatorEmailMismatch, indicators[0].Type)
		assert.Equal(t, model.SeverityHigh, indicators[0].Severity)
	})

	t.Run("absent invoice fields are not compared", func(t *testing.T) {
		assert.Empty(t, compareVendorDetails(&model.Invoice{}, vendor))
	})
}
