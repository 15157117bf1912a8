package pricing

import (
	"fmt"

	models "github.com/glkeru/hotel/pricing/internal/models"
)

// Проверка дерева условий правила на контексте.
// nil дерево совпадает с любым контекстом. Ошибка означает некорректное правило,
// вызывающий считает его несовпавшим.
func Matches(cond *models.Condition, pctx models.PricingContext) (bool, error) {
	if cond == nil {
		return true, nil
	}
	if err := cond.Validate(); err != nil {
		return false, err
	}
	return evaluate(*cond, pctx)
}

func evaluate(c models.Condition, pctx models.PricingContext) (bool, error) {
	switch c.Op {
	case models.OpAnd:
		for _, ch := range c.Children {
			ok, err := evaluate(ch, pctx)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case models.OpOr:
		for _, ch := range c.Children {
			ok, err := evaluate(ch, pctx)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case models.OpEq, models.OpGte, models.OpLte, models.OpIn, models.OpBetween:
		if c.Field == models.FieldIsHoliday {
			return checkHoliday(c, pctx.IsHoliday)
		}
		return checkNumeric(c, numericField(c.Field, pctx))
	}
	return false, fmt.Errorf("unknown operator %q", c.Op)
}

func numericField(f models.Field, pctx models.PricingContext) float64 {
	switch f {
	case models.FieldLeadTimeDays:
		return float64(pctx.LeadTimeDays)
	case models.FieldOccupancyPercent:
		return pctx.OccupancyPercent
	case models.FieldDayOfWeek:
		return float64(pctx.DayOfWeek)
	}
	return 0
}

// bool поддерживает только eq и in
func checkHoliday(c models.Condition, actual bool) (bool, error) {
	switch c.Op {
	case models.OpEq:
		b, ok := c.Value.(bool)
		if !ok {
			return false, fmt.Errorf("%s expects bool, got %T", c.Field, c.Value)
		}
		return b == actual, nil
	case models.OpIn:
		for _, v := range c.Values {
			b, ok := v.(bool)
			if !ok {
				return false, fmt.Errorf("%s expects bool, got %T", c.Field, v)
			}
			if b == actual {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("%s is not supported on %s", c.Op, c.Field)
}

func checkNumeric(c models.Condition, actual float64) (bool, error) {
	switch c.Op {
	case models.OpBetween:
		return *c.Min <= actual && actual <= *c.Max, nil
	case models.OpIn:
		for _, v := range c.Values {
			lit, err := models.Literal(c.Field, v)
			if err != nil {
				return false, err
			}
			if compareValues(lit, actual) == 0 {
				return true, nil
			}
		}
		return false, nil
	}

	lit, err := models.Literal(c.Field, c.Value)
	if err != nil {
		return false, err
	}
	result := compareValues(lit, actual)
	switch c.Op {
	case models.OpEq:
		return result == 0, nil
	case models.OpGte:
		return result == -1 || result == 0, nil
	case models.OpLte:
		return result == 1 || result == 0, nil
	}
	return false, fmt.Errorf("unknown operator %q", c.Op)
}

// Если равны возвращаем 0, если cond больше field возвращаем 1, если меньше -1
func compareValues(cond, field float64) int {
	switch {
	case cond > field:
		return 1
	case cond < field:
		return -1
	}
	return 0
}
