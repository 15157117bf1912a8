package pricing

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditRevoke AuditAction = "revoke"
)

// Запись журнала аудита, только добавление
type AuditEntry struct {
	ID        uuid.UUID      `bson:"id" json:"id"`
	RuleID    uuid.UUID      `bson:"ruleId" json:"ruleId"`
	Action    AuditAction    `bson:"action" json:"action"`
	ActorID   string         `bson:"actorId" json:"actorId"`
	Reason    string         `bson:"reason" json:"reason"`
	Urgency   Urgency        `bson:"urgency,omitempty" json:"urgency,omitempty"`
	Changes   map[string]any `bson:"changes,omitempty" json:"changes,omitempty"`
	CreatedAt time.Time      `bson:"createdAt" json:"createdAt"`
}

// Активный override для панели администратора
type ActiveOverride struct {
	RuleID        uuid.UUID  `json:"ruleId"`
	Name          string     `json:"name"`
	Priority      int        `json:"priority"`
	DaysRemaining *int       `json:"daysRemaining"`
	CreatedBy     string     `json:"createdBy"`
	UrgencyLevel  Urgency    `json:"urgencyLevel,omitempty"`
	Category      string     `json:"category"`
	DateRangeEnd  *time.Time `json:"dateRangeEnd,omitempty"`
}
