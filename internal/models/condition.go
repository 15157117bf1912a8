package pricing

import (
	"fmt"
	"strings"
)

type Operator string

const (
	OpAnd     Operator = "and"
	OpOr      Operator = "or"
	OpEq      Operator = "eq"
	OpGte     Operator = "gte"
	OpLte     Operator = "lte"
	OpIn      Operator = "in"
	OpBetween Operator = "between"
)

type Field string

const (
	FieldLeadTimeDays     Field = "lead_time_days"
	FieldOccupancyPercent Field = "occupancy_percent"
	FieldDayOfWeek        Field = "day_of_week"
	FieldIsHoliday        Field = "is_holiday"
)

// Condition is a node of the predicate tree. Op selects the variant:
// and/or use Children, eq/gte/lte use Value, in uses Values, between uses Min and Max.
type Condition struct {
	Op       Operator    `bson:"op" json:"op" yaml:"op"`
	Field    Field       `bson:"field,omitempty" json:"field,omitempty" yaml:"field,omitempty"`
	Value    any         `bson:"value,omitempty" json:"value,omitempty" yaml:"value,omitempty"`
	Values   []any       `bson:"values,omitempty" json:"values,omitempty" yaml:"values,omitempty"`
	Min      *float64    `bson:"min,omitempty" json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64    `bson:"max,omitempty" json:"max,omitempty" yaml:"max,omitempty"`
	Children []Condition `bson:"children,omitempty" json:"children,omitempty" yaml:"children,omitempty"`
}

func And(children ...Condition) Condition { return Condition{Op: OpAnd, Children: children} }
func Or(children ...Condition) Condition  { return Condition{Op: OpOr, Children: children} }
func Eq(f Field, v any) Condition         { return Condition{Op: OpEq, Field: f, Value: v} }
func Gte(f Field, v any) Condition        { return Condition{Op: OpGte, Field: f, Value: v} }
func Lte(f Field, v any) Condition        { return Condition{Op: OpLte, Field: f, Value: v} }
func In(f Field, v ...any) Condition      { return Condition{Op: OpIn, Field: f, Values: v} }

func Between(f Field, min, max float64) Condition {
	return Condition{Op: OpBetween, Field: f, Min: &min, Max: &max}
}

func knownField(f Field) bool {
	switch f {
	case FieldLeadTimeDays, FieldOccupancyPercent, FieldDayOfWeek, FieldIsHoliday:
		return true
	}
	return false
}

// Validate checks the tree shape and that every leaf literal fits its field.
func (c Condition) Validate() error {
	switch c.Op {
	case OpAnd, OpOr:
		if len(c.Children) == 0 {
			return fmt.Errorf("%s node has no children", c.Op)
		}
		for i, ch := range c.Children {
			if err := ch.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", c.Op, i, err)
			}
		}
		return nil
	case OpEq, OpGte, OpLte:
		if !knownField(c.Field) {
			return fmt.Errorf("unknown field %q", c.Field)
		}
		if c.Value == nil {
			return fmt.Errorf("%s on %s has no value", c.Op, c.Field)
		}
		if c.Field == FieldIsHoliday && c.Op != OpEq {
			return fmt.Errorf("%s is not supported on %s", c.Op, c.Field)
		}
		return checkLiteral(c.Field, c.Value)
	case OpIn:
		if !knownField(c.Field) {
			return fmt.Errorf("unknown field %q", c.Field)
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("in on %s has no values", c.Field)
		}
		for i, v := range c.Values {
			if err := checkLiteral(c.Field, v); err != nil {
				return fmt.Errorf("in[%d]: %w", i, err)
			}
		}
		return nil
	case OpBetween:
		if !knownField(c.Field) {
			return fmt.Errorf("unknown field %q", c.Field)
		}
		if c.Field == FieldIsHoliday {
			return fmt.Errorf("between is not supported on %s", c.Field)
		}
		if c.Min == nil || c.Max == nil {
			return fmt.Errorf("between on %s needs min and max", c.Field)
		}
		if *c.Min > *c.Max {
			return fmt.Errorf("between on %s has min > max", c.Field)
		}
		if c.Field == FieldDayOfWeek {
			if _, err := Literal(c.Field, *c.Min); err != nil {
				return err
			}
			if _, err := Literal(c.Field, *c.Max); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown operator %q", c.Op)
}

func (c Condition) String() string {
	switch c.Op {
	case OpAnd, OpOr:
		parts := make([]string, len(c.Children))
		for i, ch := range c.Children {
			parts[i] = ch.String()
		}
		return "(" + strings.Join(parts, " "+string(c.Op)+" ") + ")"
	case OpIn:
		return fmt.Sprintf("%s in %v", c.Field, c.Values)
	case OpBetween:
		if c.Min != nil && c.Max != nil {
			return fmt.Sprintf("%s between %g and %g", c.Field, *c.Min, *c.Max)
		}
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}
