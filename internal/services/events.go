package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	interf "github.com/glkeru/hotel/pricing/internal/interfaces"
	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Запрос быстрого события. Пустые стратегия, значение и срочность берутся из шаблона категории.
type QuickEventRequest struct {
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Category        models.EventCategory `json:"category"`
	StartDate       time.Time            `json:"startDate"`
	EndDate         time.Time            `json:"endDate"`
	RoomTypes       []string             `json:"roomTypes"`
	PricingStrategy models.Strategy      `json:"pricingStrategy,omitempty"`
	PricingValue    *float64             `json:"pricingValue,omitempty"`
	UrgencyLevel    models.Urgency       `json:"urgencyLevel,omitempty"`
	DisabledRuleIDs []uuid.UUID          `json:"disabledRuleIds"`
	Reason          string               `json:"reason"`
}

type QuickEventService struct {
	events    interf.EventStorage
	overrides *OverrideManager
	logger    *zap.Logger
	now       func() time.Time
}

func NewQuickEventService(events interf.EventStorage, overrides *OverrideManager, logger *zap.Logger) *QuickEventService {
	return &QuickEventService{
		events:    events,
		overrides: overrides,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *QuickEventService) SetClock(now func() time.Time) {
	s.now = now
}

func (r QuickEventRequest) validate() (models.EventTemplate, error) {
	if r.Title == "" {
		return models.EventTemplate{}, &models.ValidationError{Field: "title", Reason: "is required"}
	}
	tpl, ok := models.EventTemplates[r.Category]
	if !ok {
		return models.EventTemplate{}, &models.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown event category %q", r.Category)}
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return models.EventTemplate{}, &models.ValidationError{Field: "dateRange", Reason: "startDate and endDate are required"}
	}
	if models.DateOf(r.StartDate).After(models.DateOf(r.EndDate)) {
		return models.EventTemplate{}, &models.ValidationError{Field: "dateRange", Reason: "startDate is after endDate"}
	}
	if r.PricingStrategy != "" {
		tpl.Strategy = r.PricingStrategy
	}
	if r.PricingValue != nil {
		tpl.Value = *r.PricingValue
	}
	if r.UrgencyLevel != "" {
		tpl.Urgency = r.UrgencyLevel
	}
	if _, err := models.ActionFor(tpl.Strategy, tpl.Value); err != nil {
		return models.EventTemplate{}, err
	}
	if !tpl.Urgency.Valid() {
		return models.EventTemplate{}, &models.ValidationError{Field: "urgencyLevel", Reason: fmt.Sprintf("unknown urgency %q", tpl.Urgency)}
	}
	return tpl, nil
}

// CreateQuickEvent stores the event and then its override. When the override
// fails the stored event is returned together with a *PartialEventError.
func (s *QuickEventService) CreateQuickEvent(ctx context.Context, req QuickEventRequest, actorID string) (models.CalendarEvent, *models.PricingRule, error) {
	ctx, span := tracer.Start(ctx, "CreateQuickEvent")
	defer span.End()

	if actorID == "" {
		return models.CalendarEvent{}, nil, &models.ValidationError{Field: "actorId", Reason: "is required"}
	}
	tpl, err := req.validate()
	if err != nil {
		return models.CalendarEvent{}, nil, err
	}

	start := models.DateOf(req.StartDate)
	end := models.DateOf(req.EndDate)
	event := models.CalendarEvent{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		StartDate:   start,
		EndDate:     end,
		RoomTypes:   req.RoomTypes,
		CreatedBy:   actorID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.events.SaveEvent(ctx, event); err != nil {
		return models.CalendarEvent{}, nil, err
	}
	span.SetAttributes(attribute.String("event", event.ID.String()))

	reason := req.Reason
	if reason == "" {
		reason = fmt.Sprintf("quick event %s: %s", req.Category, req.Title)
	}
	category := models.CategorySpecialEvent
	if tpl.Urgency == models.UrgencyCritical {
		category = models.CategoryEmergency
	}
	value := tpl.Value
	rule, err := s.overrides.CreateOverride(ctx, OverrideSpec{
		Name:            req.Title,
		Description:     req.Description,
		Category:        category,
		UrgencyLevel:    tpl.Urgency,
		PricingStrategy: tpl.Strategy,
		PricingValue:    &value,
		DateRangeStart:  &start,
		DateRangeEnd:    &end,
		RoomTypes:       req.RoomTypes,
		DisabledRuleIDs: req.DisabledRuleIDs,
	}, actorID, reason)
	if err != nil {
		s.logger.Error("quick event override",
			zap.String("service", "CreateQuickEvent"),
			zap.String("event", event.ID.String()),
			zap.Error(err),
		)
		return event, nil, &models.PartialEventError{Event: event, Err: err}
	}

	if lerr := s.events.LinkEventOverride(ctx, event.ID, rule.ID); lerr != nil {
		s.logger.Error("quick event link",
			zap.String("service", "CreateQuickEvent"),
			zap.String("event", event.ID.String()),
			zap.String("rule", rule.ID.String()),
			zap.Error(lerr),
		)
		return event, &rule, fmt.Errorf("link event %s to override %s: %w", event.ID, rule.ID, lerr)
	}
	event.OverrideRuleID = &rule.ID

	s.logger.Info("quick event created",
		zap.String("service", "CreateQuickEvent"),
		zap.String("event", event.ID.String()),
		zap.String("rule", rule.ID.String()),
	)
	return event, &rule, nil
}

func (s *QuickEventService) GetEvent(ctx context.Context, id uuid.UUID) (models.CalendarEvent, error) {
	return s.events.GetEvent(ctx, id)
}

// ListEvents returns events ordered by start date.
func (s *QuickEventService) ListEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	events, err := s.events.GetEvents(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.Before(events[j].StartDate)
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}
