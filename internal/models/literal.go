package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Literal приводит литерал условия к числу поля.
// day_of_week принимает название дня или 0..6 (воскресенье = 0).
func Literal(f Field, v any) (float64, error) {
	if f == FieldDayOfWeek {
		if s, ok := v.(string); ok {
			d, ok := weekdays[strings.ToLower(s)]
			if !ok {
				return 0, fmt.Errorf("unknown weekday %q", s)
			}
			return float64(d), nil
		}
	}
	n, ok := ToFloat64(v)
	if !ok {
		return 0, fmt.Errorf("%s expects a number, got %T", f, v)
	}
	if f == FieldDayOfWeek && (n < 0 || n > 6 || n != math.Trunc(n)) {
		return 0, fmt.Errorf("weekday %v is out of range 0..6", v)
	}
	return n, nil
}

// ToFloat64 принимает числа из JSON, YAML и BSON
func ToFloat64(a any) (float64, bool) {
	switch val := a.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	}
	return 0, false
}

// литерал листа должен подходить к типу поля
func checkLiteral(f Field, v any) error {
	if f == FieldIsHoliday {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%s expects bool, got %T", f, v)
		}
		return nil
	}
	_, err := Literal(f, v)
	return err
}
