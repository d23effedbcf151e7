package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/StackTheCode/invoice-shield/internal/model"
)

func indicatorsOf(severities ...model.Severity) []model.FraudIndicator {
	out := make([]model.FraudIndicator, 0, len(severities))
	for _, s := range severities {
		out = append(out, model.FraudIndicator{Type: "test", Severity: s})
	}
	return out
}

func TestAggregateEmptyListIsSafe(t *testing.T) {
	a := DefaultPolicy().Aggregate(nil)

	assert.Equal(t, 0, a.RiskScore)
	assert.Equal(t, model.RiskStatusSafe, a.Status)
	assert.Empty(t, a.Indicators)
	assert.NotNil(t, a.Indicators)
}

func TestAggregateSeverityWeights(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 10, p.Aggregate(indicatorsOf(model.SeverityLow)).RiskScore)
	assert.Equal(t, 20, p.Aggregate(indicatorsOf(model.SeverityMedium)).RiskScore)
	assert.Equal(t, 35, p.Aggregate(indicatorsOf(model.SeverityHigh)).RiskScore)
	assert.Equal(t, 50, p.Aggregate(indicatorsOf(model.SeverityCritical)).RiskScore)
}

func TestAggregateThresholds(t *testing.T) {
	p := DefaultPolicy()

	// 20 < 30: still safe
	a := p.Aggregate(indicatorsOf(model.SeverityMedium))
	assert.Equal(t, model.RiskStatusSafe, a.Status)

	// 10 + 20 = 30: suspicious threshold is inclusive
	a = p.Aggregate(indicatorsOf(model.SeverityLow, model.SeverityMedium))
	assert.Equal(t, 30, a.RiskScore)
	assert.Equal(t, model.RiskStatusSuspicious, a.Status)

	// 50 + 20 = 70: fraudulent threshold is inclusive
	a = p.Aggregate(indicatorsOf(model.SeverityCritical, model.SeverityMedium))
	assert.Equal(t, 70, a.RiskScore)
	assert.Equal(t, model.RiskStatusFraudulent, a.Status)
}

func TestAggregateClampsAtMaxScore(t *testing.T) {
	p := DefaultPolicy()

	a := p.Aggregate(indicatorsOf(
		model.SeverityCritical,
		model.SeverityCritical,
		model.SeverityCritical,
	))
	assert.Equal(t, 100, a.RiskScore)
	assert.Equal(t, model.RiskStatusFraudulent, a.Status)
	assert.Len(t, a.Indicators, 3)
}

func TestAggregateScoreIsMonotonic(t *testing.T) {
	p := DefaultPolicy()

	severities := []model.Severity{
		model.SeverityLow,
		model.SeverityMedium,
		model.SeverityHigh,
		model.SeverityCritical,
		model.SeverityLow,
	}

	prev := 0
	for i := 1; i <= len(severities); i++ {
		score := p.Aggregate(indicatorsOf(severities[:i]...)).RiskScore
		assert.GreaterOrEqual(t, score, prev)
		assert.LessOrEqual(t, score, p.MaxScore)
		prev = score
	}
}
