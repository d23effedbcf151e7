// Package fraud implements the invoice risk-scoring engine: it evaluates a
// fixed battery of independent checks against an invoice's extracted fields,
// the company's trusted vendor registry and its invoice history, and
// aggregates the resulting indicators into a bounded risk score and verdict.
package fraud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/StackTheCode/invoice-shield/internal/model"
	"github.com/StackTheCode/invoice-shield/internal/verification"
)

// Indicator type catalogue. The set is closed: checks only ever produce
// these types.
const (
	IndicatorMissingVendorInfo       = "missing_vendor_info"
	IndicatorUnknownVendor           = "unknown_vendor"
	IndicatorIBANMismatch            = "iban_mismatch"
	IndicatorEmailMismatch           = "email_mismatch"
	IndicatorMissingIBAN             = "missing_iban"
	IndicatorInvalidIBAN             = "invalid_iban"
	IndicatorIBANCountryMismatch     = "iban_country_mismatch"
	IndicatorInvalidVAT              = "invalid_vat"
	IndicatorInvalidEmail            = "invalid_email"
	IndicatorDuplicateInvoice        = "duplicate_invoice"
	IndicatorAmountAnomaly           = "amount_anomaly"
	IndicatorWellKnownNotWhitelisted = "well_known_company_not_whitelisted"
	IndicatorVATNotRegistered        = "vat_not_registered"
	IndicatorCompanyNameMismatch     = "company_name_mismatch"
)

// VendorRegistry reads the company's trusted vendor registry. The engine
// never writes vendors.
type VendorRegistry interface {
	ListVendors(ctx context.Context, companyID uuid.UUID) ([]model.Vendor, error)
	FindVendorByVAT(ctx context.Context, companyID uuid.UUID, vat string) (*model.Vendor, error)
}

// InvoiceHistory reads the company's other invoices for duplicate and
// amount-anomaly checks.
type InvoiceHistory interface {
	ListInvoices(ctx context.Context, companyID uuid.UUID) ([]model.Invoice, error)
}

// VATRegistryClient verifies a VAT id against an external registry
type VATRegistryClient interface {
	VerifyVAT(ctx context.Context, vatNumber string) (*verification.VATVerification, error)
}

// CompanyDirectoryClient matches a vendor name against a directory of
// well-known corporations
type CompanyDirectoryClient interface {
	IsWellKnownCompany(name string) (bool, string)
}

// defaultCheckTimeout bounds any single check that performs network I/O
const defaultCheckTimeout = 5 * time.Second

// Engine runs the fraud check battery. All collaborators are injected so
// tests can substitute deterministic fakes.
type Engine struct {
	registry     VendorRegistry
	history      InvoiceHistory
	vatRegistry  VATRegistryClient
	directory    CompanyDirectoryClient
	policy       Policy
	checkTimeout time.Duration
	logger       *zap.Logger
}

// NewEngine creates a fraud engine with the given collaborators
func NewEngine(
	registry VendorRegistry,
	history InvoiceHistory,
	vatRegistry VATRegistryClient,
	directory CompanyDirectoryClient,
	policy Policy,
	checkTimeout time.Duration,
	logger *zap.Logger,
) *Engine {
	if checkTimeout <= 0 {
		checkTimeout = defaultCheckTimeout
	}
	return &Engine{
		registry:     registry,
		history:      history,
		vatRegistry:  vatRegistry,
		directory:    directory,
		policy:       policy,
		checkTimeout: checkTimeout,
		logger:       logger,
	}
}

// snapshot holds the read-only state the checks evaluate against. It is
// taken once before evaluation starts so the assessment reflects the
// company's data state at invocation time.
type snapshot struct {
	invoice *model.Invoice
	vendors []model.Vendor
	history []model.Invoice
}

// check is one independent, side-effect-free rule
type check struct {
	name string
	run  func(ctx context.Context, snap *snapshot) []model.FraudIndicator
}

// Analyze runs the full check battery for an invoice belonging to the given
// company and aggregates the indicators into an assessment. The company id
// is always explicit; the engine never fabricates a tenant identity. Checks
// run concurrently but results are joined in catalogue order, so the
// indicator list is deterministic for a given data snapshot.
func (e *Engine) Analyze(ctx context.Context, companyID uuid.UUID, inv *model.Invoice) (*Assessment, error) {
	if companyID == uuid.Nil {
		return nil, fmt.Errorf("company id is required")
	}
	if inv == nil {
		return nil, fmt.Errorf("invoice is required")
	}

	vendors, err := e.registry.ListVendors(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor registry: %w", err)
	}
	invoices, err := e.history.ListInvoices(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice history: %w", err)
	}

	snap := &snapshot{
		invoice: inv,
		vendors: vendors,
		history: invoices,
	}

	checks := []check{
		{"vendor_whitelist", e.checkVendorWhitelist},
		{"iban_validity", e.checkIBANValidity},
		{"vat_validity", e.checkVATValidity},
		{"email_validity", e.checkEmailValidity},
		{"duplicate_invoice", e.checkDuplicateInvoice},
		{"amount_anomaly", e.checkAmountAnomaly},
		{"well_known_company", e.checkWellKnownCompany},
		{"vies_verification", e.checkVIESRegistration},
		{"iban_country", e.checkIBANCountryMatch},
	}

	results := make([][]model.FraudIndicator, len(checks))

	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c check) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, e.checkTimeout)
			defer cancel()
			results[i] = c.run(checkCtx, snap)
		}(i, c)
	}
	wg.Wait()

	var indicators []model.FraudIndicator
	for _, r := range results {
		indicators = append(indicators, r...)
	}

	assessment := e.policy.Aggregate(indicators)

	e.logger.Info("fraud analysis complete",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.Int("risk_score", assessment.RiskScore),
		zap.String("status", string(assessment.Status)),
		zap.Int("indicator_count", len(assessment.Indicators)))

	return &assessment, nil
}
