package pricing

import (
	"time"

	"github.com/google/uuid"
)

type RuleStatus string

const (
	StatusActive  RuleStatus = "active"
	StatusRevoked RuleStatus = "revoked"
)

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Rank orders urgencies, critical first. Unknown or empty urgency ranks last.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 0
	case UrgencyHigh:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 3
	}
	return 4
}

// Классификация правил для отчетов
const (
	CategoryLeadTime     = "lead-time"
	CategoryLastMinute   = "last-minute"
	CategoryOccupancy    = "occupancy"
	CategoryYield        = "yield"
	CategorySeasonal     = "seasonal"
	CategoryDayOfWeek    = "day-of-week"
	CategoryHoliday      = "holiday"
	CategorySpecialEvent = "special-event"
	CategoryEmergency    = "emergency"
	CategoryManual       = "manual"
)

var categories = map[string]struct{}{
	CategoryLeadTime:     {},
	CategoryLastMinute:   {},
	CategoryOccupancy:    {},
	CategoryYield:        {},
	CategorySeasonal:     {},
	CategoryDayOfWeek:    {},
	CategoryHoliday:      {},
	CategorySpecialEvent: {},
	CategoryEmergency:    {},
	CategoryManual:       {},
}

func KnownCategory(c string) bool {
	_, ok := categories[c]
	return ok
}

// Правило ценообразования: обычное или ручное (override)
type PricingRule struct {
	ID              uuid.UUID   `bson:"id" json:"id"`
	Name            string      `bson:"name" json:"name"`
	Description     string      `bson:"description" json:"description"`
	Priority        int         `bson:"priority" json:"priority"`
	IsActive        bool        `bson:"isActive" json:"isActive"`
	Status          RuleStatus  `bson:"status" json:"status"`
	Conditions      *Condition  `bson:"conditions,omitempty" json:"conditions,omitempty"`
	Action          Action      `bson:"action" json:"action"`
	DateRangeStart  *time.Time  `bson:"dateRangeStart,omitempty" json:"dateRangeStart,omitempty"`
	DateRangeEnd    *time.Time  `bson:"dateRangeEnd,omitempty" json:"dateRangeEnd,omitempty"`
	RoomTypes       []string    `bson:"roomTypes" json:"roomTypes"`
	Category        string      `bson:"category" json:"category"`
	UrgencyLevel    Urgency     `bson:"urgencyLevel,omitempty" json:"urgencyLevel,omitempty"`
	IsOverride      bool        `bson:"isOverride" json:"isOverride"`
	DisabledRuleIDs []uuid.UUID `bson:"disabledRuleIds" json:"disabledRuleIds"`
	CreatedBy       string      `bson:"createdBy" json:"createdBy"`
	CreatedAt       time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time   `bson:"updatedAt" json:"updatedAt"`
	RevokedAt       *time.Time  `bson:"revokedAt,omitempty" json:"revokedAt,omitempty"`
	RevokeReason    string      `bson:"revokeReason,omitempty" json:"revokeReason,omitempty"`
	Version         int64       `bson:"version" json:"version"`
}

// InDateRange reports whether date falls inside the rule window. Nil bounds are unbounded.
func (r PricingRule) InDateRange(date time.Time) bool {
	d := DateOf(date)
	if r.DateRangeStart != nil && d.Before(DateOf(*r.DateRangeStart)) {
		return false
	}
	if r.DateRangeEnd != nil && d.After(DateOf(*r.DateRangeEnd)) {
		return false
	}
	return true
}

// AppliesTo reports whether the rule scope includes roomType. Empty scope means every room type.
func (r PricingRule) AppliesTo(roomType string) bool {
	if len(r.RoomTypes) == 0 {
		return true
	}
	for _, t := range r.RoomTypes {
		if t == roomType {
			return true
		}
	}
	return false
}

// Disables reports whether the override suppresses rule id.
func (r PricingRule) Disables(id uuid.UUID) bool {
	for _, d := range r.DisabledRuleIDs {
		if d == id {
			return true
		}
	}
	return false
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DatePtr returns a copy of t truncated to its UTC date, nil stays nil.
func DatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOf(*t)
	return &d
}

// Validate checks the invariants every stored rule must hold.
func (r PricingRule) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if r.DateRangeStart != nil && r.DateRangeEnd != nil && DateOf(*r.DateRangeStart).After(DateOf(*r.DateRangeEnd)) {
		return &ValidationError{Field: "dateRange", Reason: "dateRangeStart is after dateRangeEnd"}
	}
	if err := r.Action.Validate(); err != nil {
		return err
	}
	if !KnownCategory(r.Category) {
		return &ValidationError{Field: "category", Reason: "unknown category " + r.Category}
	}
	if r.UrgencyLevel != "" && !r.UrgencyLevel.Valid() {
		return &ValidationError{Field: "urgencyLevel", Reason: "unknown urgency " + string(r.UrgencyLevel)}
	}
	if r.Conditions != nil {
		if err := r.Conditions.Validate(); err != nil {
			return &ValidationError{Field: "conditions", Reason: err.Error()}
		}
	}
	return nil
}
