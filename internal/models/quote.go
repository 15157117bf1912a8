package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Контекст расчета цены (не сохраняется)
type PricingContext struct {
	TargetDate       time.Time
	RoomTypeID       string
	LeadTimeDays     int
	OccupancyPercent float64
	DayOfWeek        time.Weekday
	IsHoliday        bool
	BaseRate         decimal.Decimal
}

type Phase string

const (
	PhaseOverride Phase = "override"
	PhaseNormal   Phase = "normal"
)

// Шаг расчета: правило, действие и ставка после шага
type Step struct {
	RuleID        uuid.UUID       `json:"ruleId"`
	RuleName      string          `json:"ruleName"`
	Phase         Phase           `json:"phase"`
	Action        Action          `json:"action"`
	ResultingRate decimal.Decimal `json:"resultingRate"`
}

type EvaluationResult struct {
	BaseRate  decimal.Decimal `json:"baseRate"`
	FinalRate decimal.Decimal `json:"finalRate"`
	Breakdown []Step          `json:"breakdown"`
}

type Quote struct {
	RoomTypeID       string    `json:"roomTypeId"`
	TargetDate       time.Time `json:"targetDate"`
	OccupancyPercent float64   `json:"occupancyPercent"`
	LeadTimeDays     int       `json:"leadTimeDays"`
	IsHoliday        bool      `json:"isHoliday"`
	EvaluationResult
	Suppressed []uuid.UUID `json:"suppressed,omitempty"`
}
