package pricing

import (
	"testing"

	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func requireRate(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestApplyCompounding(t *testing.T) {
	a := testRule("A", 1, inc(10), nil)
	b := testRule("B", 2, dec(5), nil)

	result := Apply(Chain{Normals: []models.PricingRule{a, b}}, decimal.NewFromInt(1000))

	requireRate(t, "1045", result.FinalRate)
	require.Len(t, result.Breakdown, 2)
	requireRate(t, "1100", result.Breakdown[0].ResultingRate)
	requireRate(t, "1045", result.Breakdown[1].ResultingRate)
	require.Equal(t, a.ID, result.Breakdown[0].RuleID)
	require.Equal(t, models.PhaseNormal, result.Breakdown[1].Phase)
}

func TestApplyOverridesFirst(t *testing.T) {
	n := testRule("N", -5, models.Action{Type: models.SetFixedRate, Value: 100}, nil)
	o := testOverride("O", 10, inc(50))

	result := Apply(Chain{Overrides: []models.PricingRule{o}, Normals: []models.PricingRule{n}}, decimal.NewFromInt(1000))

	require.Equal(t, models.PhaseOverride, result.Breakdown[0].Phase)
	requireRate(t, "1500", result.Breakdown[0].ResultingRate)
	requireRate(t, "100", result.FinalRate)
}

func TestApplyActions(t *testing.T) {
	tests := []struct {
		name     string
		actions  []models.Action
		base     int64
		expected string
	}{
		{"no rules", nil, 1000, "1000"},
		{"increase", []models.Action{inc(12.5)}, 1000, "1125"},
		{"decrease clamps at zero", []models.Action{dec(150)}, 1000, "0"},
		{"decrease to zero", []models.Action{dec(100), inc(20)}, 1000, "0"},
		{"fixed then increase", []models.Action{{Type: models.SetFixedRate, Value: 500}, inc(10)}, 1000, "550"},
		{"increase then fixed", []models.Action{inc(10), {Type: models.SetFixedRate, Value: 500}}, 1000, "500"},
		{"zero magnitude", []models.Action{inc(0), dec(0)}, 1000, "1000"},
		{"rounded to cents", []models.Action{dec(33)}, 999, "669.33"},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			var chain Chain
			for i, a := range ts.actions {
				chain.Normals = append(chain.Normals, testRule(ts.name, i, a, nil))
			}
			result := Apply(chain, decimal.NewFromInt(ts.base))
			requireRate(t, ts.expected, result.FinalRate)
			require.Len(t, result.Breakdown, len(ts.actions))
		})
	}
}

func TestApplyEmptyBreakdown(t *testing.T) {
	result := Apply(Chain{}, decimal.NewFromInt(8000))
	require.NotNil(t, result.Breakdown)
	require.Empty(t, result.Breakdown)
	requireRate(t, "8000", result.FinalRate)
	requireRate(t, "8000", result.BaseRate)
}
