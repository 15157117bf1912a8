package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Хранилище в памяти: локальный запуск без БД и тесты
type MemoryStore struct {
	mu       sync.RWMutex
	rules    map[uuid.UUID]models.PricingRule
	audit    []models.AuditEntry
	events   map[uuid.UUID]models.CalendarEvent
	rates    map[string]decimal.Decimal
	holidays map[time.Time]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:    make(map[uuid.UUID]models.PricingRule),
		events:   make(map[uuid.UUID]models.CalendarEvent),
		rates:    make(map[string]decimal.Decimal),
		holidays: make(map[time.Time]string),
	}
}

func cloneRule(r models.PricingRule) models.PricingRule {
	r.RoomTypes = append([]string(nil), r.RoomTypes...)
	r.DisabledRuleIDs = append([]uuid.UUID(nil), r.DisabledRuleIDs...)
	return r
}

func (m *MemoryStore) GetAllRules(ctx context.Context) ([]models.PricingRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rules := make([]models.PricingRule, 0, len(m.rules))
	for _, r := range m.rules {
		rules = append(rules, cloneRule(r))
	}
	return rules, nil
}

func (m *MemoryStore) GetActiveRules(ctx context.Context) ([]models.PricingRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rules []models.PricingRule
	for _, r := range m.rules {
		if r.IsActive {
			rules = append(rules, cloneRule(r))
		}
	}
	return rules, nil
}

func (m *MemoryStore) FindCandidates(ctx context.Context, date time.Time, roomType string) ([]models.PricingRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rules []models.PricingRule
	for _, r := range m.rules {
		if r.IsActive && r.InDateRange(date) && r.AppliesTo(roomType) {
			rules = append(rules, cloneRule(r))
		}
	}
	return rules, nil
}

func (m *MemoryStore) GetRule(ctx context.Context, id uuid.UUID) (models.PricingRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rules[id]
	if !ok {
		return models.PricingRule{}, fmt.Errorf("rule %s: %w", id, models.ErrNotFound)
	}
	return cloneRule(r), nil
}

// правило и запись аудита под одной блокировкой
func (m *MemoryStore) SaveRule(ctx context.Context, rule models.PricingRule, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[rule.ID]; ok {
		return fmt.Errorf("rule %s: %w", rule.ID, models.ErrConflict)
	}
	m.rules[rule.ID] = cloneRule(rule)
	m.audit = append(m.audit, entry)
	return nil
}

func (m *MemoryStore) UpdateRule(ctx context.Context, rule models.PricingRule, expectedVersion int64, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rules[rule.ID]
	if !ok {
		return fmt.Errorf("rule %s: %w", rule.ID, models.ErrNotFound)
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("rule %s version %d, expected %d: %w", rule.ID, cur.Version, expectedVersion, models.ErrConflict)
	}
	m.rules[rule.ID] = cloneRule(rule)
	m.audit = append(m.audit, entry)
	return nil
}

func (m *MemoryStore) AppendAudit(ctx context.Context, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *MemoryStore) GetAudit(ctx context.Context, ruleID uuid.UUID) ([]models.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.AuditEntry
	for _, e := range m.audit {
		if e.RuleID == ruleID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveEvent(ctx context.Context, event models.CalendarEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	return nil
}

func (m *MemoryStore) LinkEventOverride(ctx context.Context, eventID uuid.UUID, ruleID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return fmt.Errorf("event %s: %w", eventID, models.ErrNotFound)
	}
	e.OverrideRuleID = &ruleID
	m.events[eventID] = e
	return nil
}

func (m *MemoryStore) GetEvent(ctx context.Context, id uuid.UUID) (models.CalendarEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return models.CalendarEvent{}, fmt.Errorf("event %s: %w", id, models.ErrNotFound)
	}
	return e, nil
}

func (m *MemoryStore) GetEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.CalendarEvent, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	return out, nil
}

func (m *MemoryStore) BaseRate(ctx context.Context, roomType string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rate, ok := m.rates[roomType]
	if !ok {
		return decimal.Zero, fmt.Errorf("room type %s: %w", roomType, models.ErrNotFound)
	}
	return rate, nil
}

func (m *MemoryStore) SetBaseRate(ctx context.Context, roomType string, rate decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[roomType] = rate
	return nil
}

func (m *MemoryStore) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.holidays[models.DateOf(date)]
	return ok, nil
}

func (m *MemoryStore) AddHoliday(ctx context.Context, date time.Time, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[models.DateOf(date)] = name
	return nil
}
