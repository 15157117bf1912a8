package pricing

import (
	"context"
	"time"

	interf "github.com/glkeru/hotel/pricing/internal/interfaces"
	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ведение обычных правил (ручной ввод и начальная загрузка)
type RuleService struct {
	db     interf.RuleStorage
	audit  auditor
	logger *zap.Logger
	now    func() time.Time
}

func NewRuleService(db interf.RuleStorage, audit interf.AuditStorage, logger *zap.Logger, publishers ...interf.AuditPublisher) *RuleService {
	return &RuleService{
		db:     db,
		audit:  auditor{audit, publishers, logger},
		logger: logger,
		now:    time.Now,
	}
}

func (s *RuleService) SetClock(now func() time.Time) {
	s.now = now
}

// Создать обычное правило
func (s *RuleService) CreateRule(ctx context.Context, rule models.PricingRule, actorID string) (models.PricingRule, error) {
	if actorID == "" {
		return models.PricingRule{}, &models.ValidationError{Field: "actorId", Reason: "is required"}
	}
	if rule.IsOverride {
		return models.PricingRule{}, &models.ValidationError{Field: "isOverride", Reason: "overrides are created through the override workflow"}
	}
	if err := rule.Validate(); err != nil {
		return models.PricingRule{}, err
	}

	now := s.now().UTC()
	rule.ID = uuid.New()
	rule.IsActive = true
	rule.Status = models.StatusActive
	rule.DisabledRuleIDs = nil
	rule.CreatedBy = actorID
	rule.CreatedAt = now
	rule.UpdatedAt = now
	rule.RevokedAt = nil
	rule.RevokeReason = ""
	rule.Version = 1
	rule.DateRangeStart = models.DatePtr(rule.DateRangeStart)
	rule.DateRangeEnd = models.DatePtr(rule.DateRangeEnd)

	entry := models.AuditEntry{
		ID:      uuid.New(),
		RuleID:  rule.ID,
		Action:  models.AuditCreate,
		ActorID: actorID,
		Reason:  "rule created",
		Changes: map[string]any{
			"priority": rule.Priority,
			"action":   rule.Action.String(),
			"category": rule.Category,
		},
		CreatedAt: now,
	}
	if err := s.db.SaveRule(ctx, rule, entry); err != nil {
		return models.PricingRule{}, err
	}
	s.audit.publish(ctx, entry)
	s.logger.Info("rule created",
		zap.String("service", "CreateRule"),
		zap.String("rule", rule.ID.String()),
		zap.String("name", rule.Name),
	)
	return rule, nil
}

func (s *RuleService) GetRule(ctx context.Context, id uuid.UUID) (models.PricingRule, error) {
	return s.db.GetRule(ctx, id)
}

func (s *RuleService) ListRules(ctx context.Context) ([]models.PricingRule, error) {
	rules, err := s.db.GetAllRules(ctx)
	if err != nil {
		return nil, err
	}
	sortRules(rules)
	return rules, nil
}

func (s *RuleService) ListActiveRules(ctx context.Context) ([]models.PricingRule, error) {
	rules, err := s.db.GetActiveRules(ctx)
	if err != nil {
		return nil, err
	}
	sortRules(rules)
	return rules, nil
}

// RuleAudit returns the audit trail of a rule, oldest first.
func (s *RuleService) RuleAudit(ctx context.Context, id uuid.UUID) ([]models.AuditEntry, error) {
	if _, err := s.db.GetRule(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.db.GetAudit(ctx, id)
}
