package verification

import "strings"

// wellKnownCompanies is a static allow-list of large corporations whose names
// are commonly impersonated on fraudulent invoices.
var wellKnownCompanies = []string{
	// Tech giants
	"microsoft", "apple", "google", "amazon", "meta", "facebook",
	"netflix", "adobe", "oracle", "salesforce", "ibm", "intel",
	"cisco", "nvidia", "amd", "dell", "hp", "lenovo",

	// Cloud providers
	"aws", "amazon web services", "azure", "google cloud",

	// Payment processors
	"stripe", "paypal", "square", "visa", "mastercard",

	// Software/SaaS
	"slack", "zoom", "dropbox", "atlassian", "jira", "github",
	"gitlab", "docker", "mongodb", "redis", "cloudflare",

	// Enterprise
	"sap", "accenture", "deloitte", "pwc", "kpmg", "ey",
}

// CompanyDirectory matches vendor names against the static list of
// well-known corporations
type CompanyDirectory struct{}

// NewCompanyDirectory returns the static company directory
func NewCompanyDirectory() *CompanyDirectory {
	return &CompanyDirectory{}
}

// IsWellKnownCompany reports whether the name contains a well-known company
// name, returning the matched entry when it does.
func (d *CompanyDirectory) IsWellKnownCompany(name string) (bool, string) {
	lower := strings.ToLower(name)
	for _, known := range wellKnownCompanies {
		if strings.Contains(lower, known) {
			return true, known
		}
	}
	return false, ""
}
