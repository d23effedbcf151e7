package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Severity classifies how strongly a fraud indicator weighs on the risk score
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// FraudIndicator is one discrete piece of evidence produced by a fraud check.
// Indicators are immutable once produced; they are only ever appended to a
// list, never merged or mutated.
type FraudIndicator struct {
	Type     string                 `json:"type"`
	Severity Severity               `json:"severity"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// IndicatorList is a list of fraud indicators persisted as a jsonb column
type IndicatorList []FraudIndicator

// Value implements driver.Valuer for jsonb storage
func (l IndicatorList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(IndicatorList{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for jsonb storage
func (l *IndicatorList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for IndicatorList: %T", value)
	}
}
