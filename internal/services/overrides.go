package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	interf "github.com/glkeru/hotel/pricing/internal/interfaces"
	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Параметры нового override. Action или пара PricingStrategy/PricingValue.
type OverrideSpec struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Category        string            `json:"category"`
	UrgencyLevel    models.Urgency    `json:"urgencyLevel"`
	Action          *models.Action    `json:"action,omitempty"`
	PricingStrategy models.Strategy   `json:"pricingStrategy,omitempty"`
	PricingValue    *float64          `json:"pricingValue,omitempty"`
	Priority        *int              `json:"priority,omitempty"`
	Conditions      *models.Condition `json:"conditions,omitempty"`
	DateRangeStart  *time.Time        `json:"dateRangeStart,omitempty"`
	DateRangeEnd    *time.Time        `json:"dateRangeEnd,omitempty"`
	RoomTypes       []string          `json:"roomTypes"`
	DisabledRuleIDs []uuid.UUID       `json:"disabledRuleIds"`
}

type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Изменение override. nil поле - без изменений.
type OverridePatch struct {
	Value           *float64   `json:"value,omitempty"`
	DateRange       *DateRange `json:"dateRange,omitempty"`
	RoomTypes       *[]string  `json:"roomTypes,omitempty"`
	IsOverride      *bool      `json:"isOverride,omitempty"`
	Priority        *int       `json:"priority,omitempty"`
	ExpectedVersion *int64     `json:"expectedVersion,omitempty"`
}

type OverrideManager struct {
	db     interf.RuleStorage
	audit  auditor
	logger *zap.Logger
	now    func() time.Time
}

func NewOverrideManager(db interf.RuleStorage, audit interf.AuditStorage, logger *zap.Logger, publishers ...interf.AuditPublisher) *OverrideManager {
	return &OverrideManager{
		db:     db,
		audit:  auditor{audit, publishers, logger},
		logger: logger,
		now:    time.Now,
	}
}

func (m *OverrideManager) SetClock(now func() time.Time) {
	m.now = now
}

func requireActor(actorID, reason string) error {
	if actorID == "" {
		return &models.ValidationError{Field: "actorId", Reason: "is required"}
	}
	if strings.TrimSpace(reason) == "" {
		return &models.ValidationError{Field: "reason", Reason: "is required"}
	}
	return nil
}

// Создать override
func (m *OverrideManager) CreateOverride(ctx context.Context, spec OverrideSpec, actorID, reason string) (models.PricingRule, error) {
	ctx, span := tracer.Start(ctx, "CreateOverride")
	defer span.End()

	if err := requireActor(actorID, reason); err != nil {
		return models.PricingRule{}, err
	}
	if !spec.UrgencyLevel.Valid() {
		return models.PricingRule{}, &models.ValidationError{Field: "urgencyLevel", Reason: fmt.Sprintf("unknown urgency %q", spec.UrgencyLevel)}
	}
	action, err := overrideAction(spec)
	if err != nil {
		return models.PricingRule{}, err
	}

	now := m.now().UTC()
	rule := models.PricingRule{
		ID:              uuid.New(),
		Name:            spec.Name,
		Description:     spec.Description,
		IsActive:        true,
		Status:          models.StatusActive,
		Conditions:      spec.Conditions,
		Action:          action,
		DateRangeStart:  models.DatePtr(spec.DateRangeStart),
		DateRangeEnd:    models.DatePtr(spec.DateRangeEnd),
		RoomTypes:       spec.RoomTypes,
		Category:        spec.Category,
		UrgencyLevel:    spec.UrgencyLevel,
		IsOverride:      true,
		DisabledRuleIDs: spec.DisabledRuleIDs,
		CreatedBy:       actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}
	if err := rule.Validate(); err != nil {
		return models.PricingRule{}, err
	}

	rule.Priority, err = m.overridePriority(ctx, spec.Priority)
	if err != nil {
		return models.PricingRule{}, err
	}

	entry := models.AuditEntry{
		ID:      uuid.New(),
		RuleID:  rule.ID,
		Action:  models.AuditCreate,
		ActorID: actorID,
		Reason:  reason,
		Urgency: rule.UrgencyLevel,
		Changes: map[string]any{
			"priority":        rule.Priority,
			"action":          rule.Action.String(),
			"category":        rule.Category,
			"roomTypes":       rule.RoomTypes,
			"disabledRuleIds": idStrings(rule.DisabledRuleIDs),
		},
		CreatedAt: now,
	}
	if err := m.db.SaveRule(ctx, rule, entry); err != nil {
		return models.PricingRule{}, err
	}
	overrideMutations.WithLabelValues(string(models.AuditCreate)).Inc()
	span.SetAttributes(attribute.String("rule", rule.ID.String()))
	m.audit.publish(ctx, entry)
	m.logger.Info("override created",
		zap.String("service", "CreateOverride"),
		zap.String("rule", rule.ID.String()),
		zap.String("actor", actorID),
		zap.String("urgency", string(rule.UrgencyLevel)),
	)
	return rule, nil
}

func overrideAction(spec OverrideSpec) (models.Action, error) {
	if spec.Action != nil {
		return *spec.Action, spec.Action.Validate()
	}
	if spec.PricingStrategy == "" || spec.PricingValue == nil {
		return models.Action{}, &models.ValidationError{Field: "action", Reason: "action or pricingStrategy with pricingValue is required"}
	}
	return models.ActionFor(spec.PricingStrategy, *spec.PricingValue)
}

// Приоритет override всегда ниже обычных правил: заданный, если он ниже их полосы, иначе полоса - 1
func (m *OverrideManager) overridePriority(ctx context.Context, requested *int) (int, error) {
	band, err := m.normalBand(ctx)
	if err != nil {
		return 0, err
	}
	if requested != nil && *requested < band {
		return *requested, nil
	}
	return band - 1, nil
}

// Наименьший priority среди активных обычных правил. Без обычных правил 1, тогда override получает 0.
func (m *OverrideManager) normalBand(ctx context.Context) (int, error) {
	rules, err := m.db.GetActiveRules(ctx)
	if err != nil {
		return 0, err
	}
	band, found := 0, false
	for _, r := range rules {
		if r.IsOverride {
			continue
		}
		if !found || r.Priority < band {
			band, found = r.Priority, true
		}
	}
	if !found {
		return 1, nil
	}
	return band, nil
}

// Изменить override: величину действия, период, типы номеров или приоритет
func (m *OverrideManager) UpdateOverride(ctx context.Context, id uuid.UUID, patch OverridePatch, actorID, reason string) (models.PricingRule, error) {
	ctx, span := tracer.Start(ctx, "UpdateOverride")
	defer span.End()
	span.SetAttributes(attribute.String("rule", id.String()))

	if err := requireActor(actorID, reason); err != nil {
		return models.PricingRule{}, err
	}
	if patch.IsOverride != nil && !*patch.IsOverride {
		return models.PricingRule{}, &models.ValidationError{Field: "isOverride", Reason: "an override cannot be downgraded, revoke it and create a normal rule"}
	}

	rule, err := m.db.GetRule(ctx, id)
	if err != nil {
		return models.PricingRule{}, err
	}
	if !rule.IsOverride {
		return models.PricingRule{}, &models.ValidationError{Field: "ruleId", Reason: "rule is not an override"}
	}
	if rule.Status == models.StatusRevoked {
		return models.PricingRule{}, &models.ValidationError{Field: "ruleId", Reason: "override is revoked"}
	}
	expected := rule.Version
	if patch.ExpectedVersion != nil {
		if *patch.ExpectedVersion != rule.Version {
			return models.PricingRule{}, fmt.Errorf("rule %s: %w", id, models.ErrConflict)
		}
		expected = *patch.ExpectedVersion
	}

	changes := make(map[string]any)
	if patch.Value != nil {
		changes["value"] = map[string]any{"from": rule.Action.Value, "to": *patch.Value}
		rule.Action.Value = *patch.Value
	}
	if patch.DateRange != nil {
		changes["dateRange"] = map[string]any{
			"from": []any{dateString(rule.DateRangeStart), dateString(rule.DateRangeEnd)},
			"to":   []any{dateString(patch.DateRange.Start), dateString(patch.DateRange.End)},
		}
		rule.DateRangeStart = models.DatePtr(patch.DateRange.Start)
		rule.DateRangeEnd = models.DatePtr(patch.DateRange.End)
	}
	if patch.RoomTypes != nil {
		changes["roomTypes"] = map[string]any{"from": rule.RoomTypes, "to": *patch.RoomTypes}
		rule.RoomTypes = *patch.RoomTypes
	}
	if patch.Priority != nil {
		priority, err := m.overridePriority(ctx, patch.Priority)
		if err != nil {
			return models.PricingRule{}, err
		}
		changes["priority"] = map[string]any{"from": rule.Priority, "to": priority}
		rule.Priority = priority
	}
	if err := rule.Validate(); err != nil {
		return models.PricingRule{}, err
	}

	now := m.now().UTC()
	rule.UpdatedAt = now
	rule.Version = expected + 1
	entry := models.AuditEntry{
		ID:        uuid.New(),
		RuleID:    rule.ID,
		Action:    models.AuditUpdate,
		ActorID:   actorID,
		Reason:    reason,
		Urgency:   rule.UrgencyLevel,
		Changes:   changes,
		CreatedAt: now,
	}
	if err := m.db.UpdateRule(ctx, rule, expected, entry); err != nil {
		return models.PricingRule{}, err
	}
	overrideMutations.WithLabelValues(string(models.AuditUpdate)).Inc()
	m.audit.publish(ctx, entry)
	m.logger.Info("override updated",
		zap.String("service", "UpdateOverride"),
		zap.String("rule", rule.ID.String()),
		zap.String("actor", actorID),
	)
	return rule, nil
}

// Отозвать override. Повторный отзыв ничего не меняет, но пишется в аудит.
func (m *OverrideManager) RevokeOverride(ctx context.Context, id uuid.UUID, actorID, reason string) (models.PricingRule, error) {
	ctx, span := tracer.Start(ctx, "RevokeOverride")
	defer span.End()
	span.SetAttributes(attribute.String("rule", id.String()))

	if err := requireActor(actorID, reason); err != nil {
		return models.PricingRule{}, err
	}
	rule, err := m.db.GetRule(ctx, id)
	if err != nil {
		return models.PricingRule{}, err
	}
	if !rule.IsOverride {
		return models.PricingRule{}, &models.ValidationError{Field: "ruleId", Reason: "rule is not an override"}
	}

	now := m.now().UTC()
	entry := models.AuditEntry{
		ID:        uuid.New(),
		RuleID:    rule.ID,
		Action:    models.AuditRevoke,
		ActorID:   actorID,
		Reason:    reason,
		Urgency:   rule.UrgencyLevel,
		CreatedAt: now,
	}

	if !rule.IsActive {
		entry.Changes = map[string]any{"noop": true}
		if err := m.audit.record(ctx, entry); err != nil {
			return rule, err
		}
		return rule, nil
	}

	expected := rule.Version
	rule.IsActive = false
	rule.Status = models.StatusRevoked
	if rule.RevokedAt == nil {
		rule.RevokedAt = &now
		rule.RevokeReason = reason
	}
	rule.UpdatedAt = now
	rule.Version = expected + 1
	entry.Changes = map[string]any{"isActive": false}
	if err := m.db.UpdateRule(ctx, rule, expected, entry); err != nil {
		return models.PricingRule{}, err
	}
	overrideMutations.WithLabelValues(string(models.AuditRevoke)).Inc()
	m.audit.publish(ctx, entry)
	m.logger.Info("override revoked",
		zap.String("service", "RevokeOverride"),
		zap.String("rule", rule.ID.String()),
		zap.String("actor", actorID),
	)
	return rule, nil
}

// Активные override для панели администратора
func (m *OverrideManager) ListActive(ctx context.Context) ([]models.ActiveOverride, error) {
	rules, err := m.db.GetActiveRules(ctx)
	if err != nil {
		return nil, err
	}
	var overrides []models.PricingRule
	for _, r := range rules {
		if r.IsOverride && r.IsActive {
			overrides = append(overrides, r)
		}
	}
	sortRules(overrides)

	today := models.DateOf(m.now())
	out := make([]models.ActiveOverride, 0, len(overrides))
	for _, r := range overrides {
		item := models.ActiveOverride{
			RuleID:       r.ID,
			Name:         r.Name,
			Priority:     r.Priority,
			CreatedBy:    r.CreatedBy,
			UrgencyLevel: r.UrgencyLevel,
			Category:     r.Category,
			DateRangeEnd: r.DateRangeEnd,
		}
		if r.DateRangeEnd != nil {
			days := int(models.DateOf(*r.DateRangeEnd).Sub(today).Hours() / 24)
			item.DaysRemaining = &days
		}
		out = append(out, item)
	}
	return out, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	sort.Strings(out)
	return out
}

func dateString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.DateOnly)
}
