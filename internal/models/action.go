package pricing

import "fmt"

type ActionType string

const (
	IncreaseByPercent ActionType = "increase_rate_by_percent"
	DecreaseByPercent ActionType = "decrease_rate_by_percent"
	SetFixedRate      ActionType = "set_fixed_rate"
)

// Action is exactly one rate adjustment with a non-negative magnitude.
type Action struct {
	Type  ActionType `bson:"type" json:"type" yaml:"type"`
	Value float64    `bson:"value" json:"value" yaml:"value"`
}

func (a Action) Validate() error {
	switch a.Type {
	case IncreaseByPercent, DecreaseByPercent, SetFixedRate:
	default:
		return &ValidationError{Field: "action.type", Reason: fmt.Sprintf("unknown action %q", a.Type)}
	}
	if a.Value < 0 {
		return &ValidationError{Field: "action.value", Reason: "magnitude must be non-negative"}
	}
	return nil
}

func (a Action) String() string {
	switch a.Type {
	case IncreaseByPercent:
		return fmt.Sprintf("+%g%%", a.Value)
	case DecreaseByPercent:
		return fmt.Sprintf("-%g%%", a.Value)
	case SetFixedRate:
		return fmt.Sprintf("=%g", a.Value)
	}
	return string(a.Type)
}

// Стратегия для override и быстрых событий
type Strategy string

const (
	StrategyIncrease Strategy = "INCREASE"
	StrategyDecrease Strategy = "DECREASE"
	StrategyFixed    Strategy = "FIXED"
)

// ActionFor maps a pricing strategy and value to an Action.
func ActionFor(s Strategy, value float64) (Action, error) {
	var a Action
	switch s {
	case StrategyIncrease:
		a = Action{Type: IncreaseByPercent, Value: value}
	case StrategyDecrease:
		a = Action{Type: DecreaseByPercent, Value: value}
	case StrategyFixed:
		a = Action{Type: SetFixedRate, Value: value}
	default:
		return Action{}, &ValidationError{Field: "pricingStrategy", Reason: fmt.Sprintf("unknown strategy %q", s)}
	}
	return a, a.Validate()
}
