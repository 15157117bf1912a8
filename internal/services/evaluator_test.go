package pricing

import (
	"testing"
	"time"

	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCompareValues(t *testing.T) {
	tests := []struct {
		cond     float64
		field    float64
		expected int
	}{
		{90, 95, -1},
		{90, 90, 0},
		{90, 89, 1},
		{96, 95.5, 1},
		{0, 0, 0},
	}

	for _, ts := range tests {
		result := compareValues(ts.cond, ts.field)
		require.Equal(t, ts.expected, result, "cond=%v field=%v", ts.cond, ts.field)
	}
}

func TestMatches(t *testing.T) {
	pctx := models.PricingContext{
		LeadTimeDays:     95,
		OccupancyPercent: 96,
		DayOfWeek:        time.Friday,
		IsHoliday:        true,
	}
	leaf := func(c models.Condition) *models.Condition { return &c }

	tests := []struct {
		name     string
		cond     *models.Condition
		expected bool
	}{
		{"nil tree", nil, true},
		{"gte match", leaf(models.Gte(models.FieldLeadTimeDays, 90)), true},
		{"gte inclusive", leaf(models.Gte(models.FieldLeadTimeDays, 95)), true},
		{"gte miss", leaf(models.Gte(models.FieldLeadTimeDays, 96)), false},
		{"lte inclusive", leaf(models.Lte(models.FieldOccupancyPercent, 96)), true},
		{"lte miss", leaf(models.Lte(models.FieldOccupancyPercent, 95.5)), false},
		{"eq float", leaf(models.Eq(models.FieldOccupancyPercent, 96.0)), true},
		{"between lower bound", leaf(models.Between(models.FieldLeadTimeDays, 95, 120)), true},
		{"between upper bound", leaf(models.Between(models.FieldLeadTimeDays, 60, 95)), true},
		{"between miss", leaf(models.Between(models.FieldLeadTimeDays, 60, 89)), false},
		{"in weekday names", leaf(models.In(models.FieldDayOfWeek, "friday", "Saturday")), true},
		{"in weekday numbers", leaf(models.In(models.FieldDayOfWeek, 0, 6)), false},
		{"eq weekday number", leaf(models.Eq(models.FieldDayOfWeek, 5)), true},
		{"holiday", leaf(models.Eq(models.FieldIsHoliday, true)), true},
		{"not holiday", leaf(models.Eq(models.FieldIsHoliday, false)), false},
		{"and", leaf(models.And(
			models.Gte(models.FieldLeadTimeDays, 90),
			models.Gte(models.FieldOccupancyPercent, 96),
		)), true},
		{"and short", leaf(models.And(
			models.Gte(models.FieldLeadTimeDays, 90),
			models.Lte(models.FieldOccupancyPercent, 30),
		)), false},
		{"or", leaf(models.Or(
			models.Lte(models.FieldLeadTimeDays, 3),
			models.Eq(models.FieldIsHoliday, true),
		)), true},
		{"nested", leaf(models.Or(
			models.Lte(models.FieldLeadTimeDays, 3),
			models.And(
				models.In(models.FieldDayOfWeek, "friday", "saturday"),
				models.Between(models.FieldOccupancyPercent, 80, 100),
			),
		)), true},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			result, err := Matches(ts.cond, pctx)
			require.NoError(t, err)
			require.Equal(t, ts.expected, result)
		})
	}
}

func TestMatchesMalformed(t *testing.T) {
	pctx := models.PricingContext{LeadTimeDays: 10}
	bad := func(c models.Condition) *models.Condition { return &c }

	tests := []struct {
		name string
		cond *models.Condition
	}{
		{"empty and", bad(models.And())},
		{"unknown field", bad(models.Gte("stars", 4))},
		{"unknown operator", bad(models.Condition{Op: "like", Field: models.FieldLeadTimeDays, Value: 1})},
		{"missing value", bad(models.Condition{Op: models.OpEq, Field: models.FieldLeadTimeDays})},
		{"string on number", bad(models.Gte(models.FieldLeadTimeDays, "ninety"))},
		{"bad weekday", bad(models.In(models.FieldDayOfWeek, "funday"))},
		{"range on holiday", bad(models.Gte(models.FieldIsHoliday, true))},
		{"number on holiday", bad(models.Eq(models.FieldIsHoliday, 1))},
		{"inverted between", bad(models.Between(models.FieldLeadTimeDays, 10, 5))},
		{"bad child", bad(models.Or(models.Lte(models.FieldLeadTimeDays, 3), models.And()))},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			result, err := Matches(ts.cond, pctx)
			require.Error(t, err)
			require.False(t, result)
		})
	}
}
