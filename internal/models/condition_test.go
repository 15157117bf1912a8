package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConditionValidateLiterals(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		ok   bool
	}{
		{"lead time number", Gte(FieldLeadTimeDays, 90), true},
		{"occupancy float", Lte(FieldOccupancyPercent, 29.99), true},
		{"occupancy string", Gte(FieldOccupancyPercent, "very high"), false},
		{"weekday names", In(FieldDayOfWeek, "friday", "Saturday"), true},
		{"weekday numbers", In(FieldDayOfWeek, 0, int64(6)), true},
		{"weekday typo", In(FieldDayOfWeek, "funday"), false},
		{"weekday out of range", Eq(FieldDayOfWeek, 7), false},
		{"weekday fraction", Eq(FieldDayOfWeek, 2.5), false},
		{"weekday between", Between(FieldDayOfWeek, 1, 5), true},
		{"weekday between out of range", Between(FieldDayOfWeek, 1, 8), false},
		{"holiday bool", Eq(FieldIsHoliday, true), true},
		{"holiday number", Eq(FieldIsHoliday, 1), false},
		{"holiday in", In(FieldIsHoliday, true, "no"), false},
		{"nested bad leaf", And(Gte(FieldLeadTimeDays, 30), Or(Eq(FieldDayOfWeek, "sunday"), Lte(FieldLeadTimeDays, "soon"))), false},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			err := ts.cond.Validate()
			if ts.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestLiteral(t *testing.T) {
	n, err := Literal(FieldDayOfWeek, "Friday")
	require.NoError(t, err)
	require.Equal(t, 5.0, n)

	n, err = Literal(FieldLeadTimeDays, int32(90))
	require.NoError(t, err)
	require.Equal(t, 90.0, n)

	_, err = Literal(FieldLeadTimeDays, "90")
	require.EqualError(t, err, "lead_time_days expects a number, got string")
}
