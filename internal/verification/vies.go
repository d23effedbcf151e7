// Package verification contains the best-effort external lookup clients the
// fraud engine consults. Lookup failures are returned as errors and the
// engine degrades by treating them as inconclusive.
package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// VATVerification is the outcome of a VIES registry lookup
type VATVerification struct {
	Valid       bool   `json:"valid"`
	CompanyName string `json:"company_name,omitempty"`
	Address     string `json:"address,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// viesResponse mirrors the VIES REST API response body
type viesResponse struct {
	Valid       bool   `json:"valid"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	CountryCode string `json:"countryCode"`
}

// VIESClient queries the EU VAT Information Exchange System REST API
type VIESClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewVIESClient creates a VIES client with the given base URL and timeout
func NewVIESClient(baseURL string, timeout time.Duration, logger *zap.Logger) *VIESClient {
	return &VIESClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

// VerifyVAT looks up a VAT id in the VIES registry. The id is split into
// country code and number, e.g. IE9692928L -> ms/IE/vat/9692928L.
func (c *VIESClient) VerifyVAT(ctx context.Context, vatNumber string) (*VATVerification, error) {
	clean := strings.ToUpper(strings.ReplaceAll(vatNumber, " ", ""))
	if len(clean) < 3 {
		return nil, fmt.Errorf("VAT number too short: %q", vatNumber)
	}
	countryCode := clean[:2]
	number := clean[2:]

	url := fmt.Sprintf("%s/ms/%s/vat/%s", c.BaseURL, countryCode, number)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Warn("VIES request failed", zap.String("vat", clean), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		c.Logger.Warn("VIES returned non-OK status",
			zap.String("vat", clean),
			zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("VIES lookup failed: %d %s", resp.StatusCode, string(body))
	}

	var vies viesResponse
	if err := json.Unmarshal(body, &vies); err != nil {
		return nil, fmt.Errorf("failed to parse VIES response: %w", err)
	}

	return &VATVerification{
		Valid:       vies.Valid,
		CompanyName: vies.Name,
		Address:     vies.Address,
		CountryCode: vies.CountryCode,
	}, nil
}
