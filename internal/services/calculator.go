package pricing

import (
	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Apply folds the chain over base left to right. Each step works on the running rate.
func Apply(chain Chain, base decimal.Decimal) models.EvaluationResult {
	rate := base
	steps := make([]models.Step, 0, chain.Len())

	step := func(rule models.PricingRule, phase models.Phase) {
		rate = applyAction(rate, rule.Action)
		steps = append(steps, models.Step{
			RuleID:        rule.ID,
			RuleName:      rule.Name,
			Phase:         phase,
			Action:        rule.Action,
			ResultingRate: rate.Round(2),
		})
	}
	for _, r := range chain.Overrides {
		step(r, models.PhaseOverride)
	}
	for _, r := range chain.Normals {
		step(r, models.PhaseNormal)
	}

	return models.EvaluationResult{
		BaseRate:  base,
		FinalRate: rate.Round(2),
		Breakdown: steps,
	}
}

func applyAction(rate decimal.Decimal, a models.Action) decimal.Decimal {
	v := decimal.NewFromFloat(a.Value)
	switch a.Type {
	case models.IncreaseByPercent:
		return rate.Mul(one.Add(v.Div(hundred)))
	case models.DecreaseByPercent:
		r := rate.Mul(one.Sub(v.Div(hundred)))
		if r.IsNegative() {
			return decimal.Zero
		}
		return r
	case models.SetFixedRate:
		return v
	}
	return rate
}
