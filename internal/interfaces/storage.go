package pricing

import (
	"context"
	"time"

	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=./../services/mock_storage_test.go -package=pricing . RuleStorage

// Хранилище правил. Правила не удаляются физически.
type RuleStorage interface {
	GetAllRules(ctx context.Context) ([]models.PricingRule, error)
	GetActiveRules(ctx context.Context) ([]models.PricingRule, error)
	// FindCandidates returns active rules whose window contains date and whose scope includes roomType.
	FindCandidates(ctx context.Context, date time.Time, roomType string) ([]models.PricingRule, error)
	GetRule(ctx context.Context, id uuid.UUID) (models.PricingRule, error)
	// SaveRule stores a new rule together with its audit entry: both are written or neither.
	SaveRule(ctx context.Context, rule models.PricingRule, entry models.AuditEntry) error
	// UpdateRule stores rule and entry if the stored version equals expectedVersion, otherwise ErrConflict and nothing is written.
	UpdateRule(ctx context.Context, rule models.PricingRule, expectedVersion int64, entry models.AuditEntry) error
}

type AuditStorage interface {
	AppendAudit(ctx context.Context, entry models.AuditEntry) error
	GetAudit(ctx context.Context, ruleID uuid.UUID) ([]models.AuditEntry, error)
}

type EventStorage interface {
	SaveEvent(ctx context.Context, event models.CalendarEvent) error
	LinkEventOverride(ctx context.Context, eventID uuid.UUID, ruleID uuid.UUID) error
	GetEvent(ctx context.Context, id uuid.UUID) (models.CalendarEvent, error)
	GetEvents(ctx context.Context) ([]models.CalendarEvent, error)
}

// Базовые тарифы и праздники, владелец - система бронирования
type CalendarStorage interface {
	BaseRate(ctx context.Context, roomType string) (decimal.Decimal, error)
	SetBaseRate(ctx context.Context, roomType string, rate decimal.Decimal) error
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
	AddHoliday(ctx context.Context, date time.Time, name string) error
}

type Storage interface {
	RuleStorage
	AuditStorage
	EventStorage
	CalendarStorage
}

type AuditPublisher interface {
	Publish(ctx context.Context, entry models.AuditEntry) error
}
