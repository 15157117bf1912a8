package pricing

import (
	"time"

	"github.com/google/uuid"
)

type EventCategory string

const (
	EventSurprise        EventCategory = "SURPRISE_EVENT"
	EventConcert         EventCategory = "CONCERT"
	EventFestival        EventCategory = "FESTIVAL"
	EventSports          EventCategory = "SPORTS_EVENT"
	EventConference      EventCategory = "CONFERENCE"
	EventNaturalDisaster EventCategory = "NATURAL_DISASTER"
	EventMaintenance     EventCategory = "MAINTENANCE"
)

// EventTemplate is the default override for an event category.
type EventTemplate struct {
	Strategy Strategy
	Value    float64
	Urgency  Urgency
}

var EventTemplates = map[EventCategory]EventTemplate{
	EventSurprise:        {StrategyIncrease, 30, UrgencyHigh},
	EventConcert:         {StrategyIncrease, 25, UrgencyMedium},
	EventFestival:        {StrategyIncrease, 20, UrgencyMedium},
	EventSports:          {StrategyIncrease, 25, UrgencyMedium},
	EventConference:      {StrategyIncrease, 15, UrgencyLow},
	EventNaturalDisaster: {StrategyDecrease, 50, UrgencyCritical},
	EventMaintenance:     {StrategyDecrease, 20, UrgencyLow},
}

// Событие календаря, созданное быстрым сценарием
type CalendarEvent struct {
	ID             uuid.UUID     `bson:"id" json:"id"`
	Title          string        `bson:"title" json:"title"`
	Description    string        `bson:"description" json:"description"`
	Category       EventCategory `bson:"category" json:"category"`
	StartDate      time.Time     `bson:"startDate" json:"startDate"`
	EndDate        time.Time     `bson:"endDate" json:"endDate"`
	RoomTypes      []string      `bson:"roomTypes" json:"roomTypes"`
	OverrideRuleID *uuid.UUID    `bson:"overrideRuleId,omitempty" json:"overrideRuleId"`
	CreatedBy      string        `bson:"createdBy" json:"createdBy"`
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
}
