package fraud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/StackTheCode/invoice-shield/internal/model"
	"github.com/StackTheCode/invoice-shield/internal/verification"
)

type fakeRegistry struct {
	vendors []model.Vendor
	err     error
}

func (f *fakeRegistry) ListVendors(_ context.Context, _ uuid.UUID) ([]model.Vendor, error) {
	return f.vendors, f.err
}

func (f *fakeRegistry) FindVendorByVAT(_ context.Context, _ uuid.UUID, vat string) (*model.Vendor, error) {
	for i := range f.vendors {
		if f.vendors[i].VATNumber == vat {
			return &f.vendors[i], nil
		}
	}
	return nil, f.err
}

type fakeHistory struct {
	invoices []model.Invoice
	err      error
}

func (f *fakeHistory) ListInvoices(_ context.Context, _ uuid.UUID) ([]model.Invoice, error) {
	return f.invoices, f.err
}

type fakeVATRegistry struct {
	result *verification.VATVerification
	err    error
}

func (f *fakeVATRegistry) VerifyVAT(_ context.Context, _ string) (*verification.VATVerification, error) {
	return f.result, f.err
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func trustedVendor() model.Vendor {
	return model.Vendor{
		Name:      "Acme Supplies Ltd",
		VATNumber: "IE9692928L",
		IBAN:      "IE29AIBK93115212345678",
		Email:     "billing@acme-supplies.ie",
	}
}

func cleanInvoice() *model.Invoice {
	return &model.Invoice{
		ID:            uuid.New(),
		VendorName:    "Acme Supplies Ltd",
		VendorVAT:     "IE9692928L",
		VendorIBAN:    "IE29AIBK93115212345678",
		VendorEmail:   "billing@acme-supplies.ie",
		InvoiceNumber: "INV-1001",
		TotalAmount:   amount(500),
		Currency:      "EUR",
	}
}

func newTestEngine(registry *fakeRegistry, history *fakeHistory, vat *fakeVATRegistry) *Engine {
	return NewEngine(
		registry,
		history,
		vat,
		verification.NewCompanyDirectory(),
		DefaultPolicy(),
		time.Second,
		zap.NewNop(),
	)
}

func registeredAcme() *fakeVATRegistry {
	return &fakeVATRegistry{result: &verification.VATVerification{
		Valid:       true,
		CompanyName: "Acme Supplies Ltd",
		CountryCode: "IE",
	}}
}

func TestAnalyzeCleanInvoiceIsSafe(t *testing.T) {
	engine := newTestEngine(
		&fakeRegistry{vendors: []model.Vendor{trustedVendor()}},
		&fakeHistory{},
		registeredAcme(),
	)

	a, err := engine.Analyze(context.Background(), uuid.New(), cleanInvoice())
	require.NoError(t, err)

	assert.Equal(t, 0, a.RiskScore)
	assert.Equal(t, model.RiskStatusSafe, a.Status)
	assert.Empty(t, a.Indicators)
}

func TestAnalyzeUnknownVendor(t *testing.T) {
	engine := newTestEngine(&fakeRegistry{}, &fakeHistory{}, registeredAcme())

	a, err := engine.Analyze(context.Background(), uuid.New(), cleanInvoice())
	require.NoError(t, err)

	require.Len(t, a.Indicators, 1)
	assert.Equal(t, IndicatorUnknownVendor, a.Indicators[0].Type)
	assert.Equal(t, model.SeverityHigh, a.Indicators[0].Severity)
	assert.Equal(t, 35, a.RiskScore)
	assert.Equal(t, model.RiskStatusSuspicious, a.Status)
}

func TestAnalyzeMissingVendorInfo(t *testing.T) {
	inv := cleanInvoice()
	inv.VendorName = ""
	inv.VendorVAT = ""
	inv.VendorIBAN = ""
	inv.VendorEmail = ""
	inv.InvoiceNumber = ""
	inv.TotalAmount = nil

	engine := newTestEngine(&fakeRegistry{}, &fakeHistory{}, registeredAcme())

	a, err := engine.Analyze(context.Background(), uuid.New(), inv)
	require.NoError(t, err)

	types := indicatorTypes(a)
	assert.Contains(t, types, IndicatorMissingVendorInfo)
	assert.Contains(t, types, IndicatorMissingIBAN)
	assert.Len(t, types, 2)
	// medium + medium
	assert.Equal(t, 40, a.RiskScore)
	assert.Equal(t, model.RiskStatusSuspicious, a.Status)
}

func TestAnalyzeDuplicateInvoiceNumber(t *testing.T) {
	inv := cleanInvoice()
	prior := *cleanInvoice()
	prior.ID = uuid.New()
	prior.InvoiceNumber = inv.InvoiceNumber

	engine := newTestEngine(
		&fakeRegistry{vendors: []model.Vendor{trustedVendor()}},
		&fakeHistory{invoices: []model.Invoice{prior}},
		registeredAcme(),
	)

	a, err := engine.Analyze(context.Background(), uuid.New(), inv)
	require.NoError(t, err)

	types := indicatorTypes(a)
	require.Contains(t, types, IndicatorDuplicateInvoice)
	for _, ind := range a.Indicators {
		if ind.Type == IndicatorDuplicateInvoice {
			assert.Equal(t, model.SeverityCritical, ind.Severity)
		}
	}
}

func TestAnalyzeDuplicateIgnoresOwnRecord(t *testing.T) {
	inv := cleanInvoice()

	// The invoice under analysis already persisted its own extracted fields
	engine := newTestEngine(
		&fakeRegistry{vendors: []model.Vendor{trustedVendor()}},
		&fakeHistory{invoices: []model.Invoice{*inv}},
		registeredAcme(),
	)

	a, err := engine.Analyze(context.Background(), uuid.New(), inv)
	require.NoError(t, err)
	assert.NotContains(t, indicatorTypes(a), IndicatorDuplicateInvoice)
}

func TestAnalyzeAmountAnomaly(t *testing.T) {
	history := make([]model.Invoice, 0, 3)
	for i := 0; i < 3; i++ {
		h := *cleanInvoice()
		h.ID = uuid.New()
		h.InvoiceNumber = ""
		h.TotalAmount = amount(100)
		history = append(history, h)
	}

	inv := cleanInvoice()
	inv.TotalAmount = amount(500) // over 3x the 100 average

	engine := newTestEngine(
		&fakeRegistry{vendors: []model.Vendor{trustedVendor()}},
		&fakeHistory{invoices: history},
		registeredAcme(),
	)

	a, err := engine.Analyze(context.Background(), uuid.New(), inv)
	require.NoError(t, err)

	require.Contains(t, indicatorTypes(a), IndicatorAmountAnomaly)
}

func TestAnalyzeAmountBaselineIsPerVendor(t *testing.T) {
	// Large invoices from a different vendor must not raise this vendor's bar
	other := *cleanInvoice()
	other.ID = uuid.New()
	other.VendorVAT = "DE123456789"
	other.InvoiceNumber = ""
	other.TotalAmount = amount(100)

	inv := cleanInvoice()
	inv.TotalAmount = amount(9000) // under the no-history threshold

	engine := newTestEngine(
		&fakeRegistry{vendors: []model.Vendor{trustedVendor()}},
		&fakeHistory{invoices: []model.Invoice{other}},
		registeredAcme(),
	)

	a, err := engine.Analyze(context.Background(), uuid.New(), inv)
	require.NoError(t, err)
	assert.NotContains(t, indicatorTypes(a), IndicatorAmountAnomaly)
}

func TestAnalyzeIBANCountryMismatch(t *testing.T) {
	t.Run("cross-border IBAN fires", func(t *testing.T) {
		inv := cleanInvoice()
		inv.VendorVAT = "DE123456789"
		inv.VendorIBAN = "FR1420041010050500013M02606"
		vendor := trustedVendor()
		vendor.VATNumber = "DE123456789"
		vendor.IBAN = inv.VendorIBAN

		engine := newTestEngine(
			&fakeRegistry{vendors: []model.Vendor{vendor}},
			&fakeHistory{},
			registeredAcme(),
		)

		a, err := engine.Analyze(context.Background(), uuid.New(), inv)
		require.NoError(t, err)
		assert.Contains(t, indicatorTypes(a), IndicatorIBANCountryMismatch)
	})

	t.Run("allow-listed pair does not fire", func(t *testing.T) {
		inv := cleanInvoice()
		inv.VendorIBAN = "GB82WEST12345698765432" // IE company banking in the UK
		vendor := trustedVendor()
		vendor.IBAN = inv.VendorIBAN

		engine := newTestEngine(
			&fakeRegistry{vendors: []model.Vendor{vendor}},
			&fakeHistory{},
			registeredAcme(),
		)

		a, err := engine.Analyze(context.Background(), uuid.New(), inv)
		require.NoError(t, err)
		assert.NotContains(t, indicatorTypes(a), IndicatorIBANCountryMismatch)
	})
}

func TestAnalyzeVIESOutcomes(t *testing.T) {
	registry := &fakeRegistry{vendors: []model.Vendor{trustedVendor()}}

	t.Run("unregistered VAT is critical", func(t *testing.T) {
		engine := newTestEngine(registry, &fakeHistory{},
			&fakeVATRegistry{result: &verification.VATVerification{Valid: false}})

		a, err := engine.Analyze(context.Background(), uuid.New(), cleanInvoice())
		require.NoError(t, err)
		require.Contains(t, indicatorTypes(a), IndicatorVATNotRegistered)
	})

	t.Run("registered name mismatch is high", func(t *testing.T) {
		engine := newTestEngine(registry, &fakeHistory{},
			&fakeVATRegistry{result: &verification.VATVerification{
				Valid:       true,
				CompanyName: "Globex Industrial Holdings",
			}})

		a, err := engine.Analyze(context.Background(), uuid.New(), cleanInvoice())
		require.NoError(t, err)
		require.Contains(t, indicatorTypes(a), IndicatorCompanyNameMismatch)
	})

	t.Run("lookup failure is inconclusive", func(t *testing.T) {
		engine := newTestEngine(registry, &fakeHistory{},
			&fakeVATRegistry{err: errors.New("vies unavailable")})

		a, err := engine.Analyze(context.Background(), uuid.New(), cleanInvoice())
		require.NoError(t, err)
		assert.Empty(t, a.Indicators)
		assert.Equal(t, model.RiskStatusSafe, a.Status)
	})

	t.Run("non-EU VAT skips the lookup", func(t *testing.T) {
		inv := cleanInvoice()
		inv.VendorVAT = "GB123456789"
		inv.VendorIBAN = "GB82WEST12345698765432"
		vendor := trustedVendor()
		vendor.VATNumber = inv.VendorVAT
		vendor.IBAN = inv.VendorIBAN

		engine := newTestEngine(
			&fakeRegistry{vendors: []model.Vendor{vendor}},
			&fakeHistory{},
			&fakeVATRegistry{err: errors.New("must not be called")},
		)

		a, err := engine.Analyze(context.Background(), uuid.New(), inv)
		require.NoError(t, err)
		assert.Empty(t, a.Indicators)
	})
}

func TestAnalyzeWellKnownCompanyNotWhitelisted(t *testing.T) {
	inv := cleanInvoice()
	inv.VendorName = "Microsoft Ireland Operations"
	inv.VendorVAT = "IE9825613N"

	engine := newTestEngine(&fakeRegistry{}, &fakeHistory{},
		&fakeVATRegistry{result: &verification.VATVerification{
			Valid:       true,
			CompanyName: "Microsoft Ireland Operations Limited",
		}})

	a, err := engine.Analyze(context.Background(), uuid.New(), inv)
	require.NoError(t, err)

	types := indicatorTypes(a)
	assert.Contains(t, types, IndicatorWellKnownNotWhitelisted)
	assert.Contains(t, types, IndicatorUnknownVendor)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	inv := cleanInvoice()
	inv.VendorIBAN = "DE89370400440532013000" // mismatch + country mismatch

	engine := newTestEngine(
		&fakeRegistry{vendors: []model.Vendor{trustedVendor()}},
		&fakeHistory{},
		registeredAcme(),
	)

	companyID := uuid.New()
	first, err := engine.Analyze(context.Background(), companyID, inv)
	require.NoError(t, err)
	require.NotEmpty(t, first.Indicators)

	for i := 0; i < 10; i++ {
		next, err := engine.Analyze(context.Background(), companyID, inv)
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestAnalyzeInputErrors(t *testing.T) {
	engine := newTestEngine(&fakeRegistry{}, &fakeHistory{}, registeredAcme())

	_, err := engine.Analyze(context.Background(), uuid.Nil, cleanInvoice())
	assert.Error(t, err)

	_, err = engine.Analyze(context.Background(), uuid.New(), nil)
	assert.Error(t, err)
}

func TestAnalyzeDependencyErrors(t *testing.T) {
	boom := errors.New("db down")

	engine := newTestEngine(&fakeRegistry{err: boom}, &fakeHistory{}, registeredAcme())
	_, err := engine.Analyze(context.Background(), uuid.New(), cleanInvoice())
	assert.ErrorIs(t, err, boom)

	engine = newTestEngine(&fakeRegistry{}, &fakeHistory{err: boom}, registeredAcme())
	_, err = engine.Analyze(context.Background(), uuid.New(), cleanInvoice())
	assert.ErrorIs(t, err, boom)
}

func indicatorTypes(a *Assessment) []string {
	types := make([]string, 0, len(a.Indicators))
	for _, ind := range a.Indicators {
		types = append(types, ind.Type)
	}
	return types
}
