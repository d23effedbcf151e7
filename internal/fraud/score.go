package fraud

import (
	"github.com/StackTheCode/invoice-shield/internal/model"
)

// Assessment is the result of a full fraud analysis. The score is always the
// deterministic function of the indicator list; it is never set independently.
type Assessment struct {
	RiskScore  int                 `json:"risk_score"`
	Status     model.RiskStatus    `json:"status"`
	Indicators model.IndicatorList `json:"indicators"`
}

// Policy holds the scoring constants: per-severity weights and the verdict
// thresholds. Tuning the policy never requires touching aggregation logic.
type Policy struct {
	SeverityWeights     map[model.Severity]int
	FraudulentThreshold int
	SuspiciousThreshold int
	MaxScore            int
}

// DefaultPolicy returns the standard scoring policy
func DefaultPolicy() Policy {
	return Policy{
		SeverityWeights: map[model.Severity]int{
			model.SeverityLow:      10,
			model.SeverityMedium:   20,
			model.SeverityHigh:     35,
			model.SeverityCritical: 50,
		},
		FraudulentThreshold: 70,
		SuspiciousThreshold: 30,
		MaxScore:            100,
	}
}

// Aggregate combines an indicator list into a bounded risk score and a
// verdict. It is total: an empty list yields score 0 and a safe verdict.
func (p Policy) Aggregate(indicators []model.FraudIndicator) Assessment {
	score := 0
	for _, indicator := range indicators {
		score += p.SeverityWeights[indicator.Severity]
	}
	if score > p.MaxScore {
		score = p.MaxScore
	}

	var status model.RiskStatus
	switch {
	case score >= p.FraudulentThreshold:
		status = model.RiskStatusFraudulent
	case score >= p.SuspiciousThreshold:
		status = model.RiskStatusSuspicious
	default:
		status = model.RiskStatusSafe
	}

	return Assessment{
		RiskScore:  score,
		Status:     status,
		Indicators: append(model.IndicatorList{}, indicators...),
	}
}
