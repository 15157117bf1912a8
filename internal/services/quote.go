package pricing

import (
	"context"
	"time"

	interf "github.com/glkeru/hotel/pricing/internal/interfaces"
	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type QuoteService struct {
	db       interf.RuleStorage
	calendar interf.CalendarStorage
	resolver *Resolver
	logger   *zap.Logger
	now      func() time.Time
}

func NewQuoteService(db interf.RuleStorage, calendar interf.CalendarStorage, logger *zap.Logger) *QuoteService {
	return &QuoteService{
		db:       db,
		calendar: calendar,
		resolver: NewResolver(db, logger),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *QuoteService) SetClock(now func() time.Time) {
	s.now = now
}

// Расчет цены за ночь. Только чтение, идемпотентно.
func (s *QuoteService) Quote(ctx context.Context, roomType string, targetDate time.Time, occupancy float64) (models.Quote, error) {
	ctx, span := tracer.Start(ctx, "Quote")
	defer span.End()
	span.SetAttributes(attribute.String("room_type", roomType))

	if roomType == "" {
		return models.Quote{}, &models.ValidationError{Field: "roomTypeId", Reason: "is required"}
	}
	if occupancy < 0 || occupancy > 100 {
		return models.Quote{}, &models.ValidationError{Field: "occupancyPercent", Reason: "must be between 0 and 100"}
	}
	target := models.DateOf(targetDate)
	today := models.DateOf(s.now())
	if target.Before(today) {
		return models.Quote{}, &models.ValidationError{Field: "targetDate", Reason: "is in the past"}
	}

	pctx := models.PricingContext{
		TargetDate:       target,
		RoomTypeID:       roomType,
		LeadTimeDays:     int(target.Sub(today).Hours() / 24),
		OccupancyPercent: occupancy,
		DayOfWeek:        target.Weekday(),
	}

	// тариф, праздник и кандидаты читаются параллельно
	var candidates []models.PricingRule
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rate, err := s.calendar.BaseRate(gctx, roomType)
		if err != nil {
			return err
		}
		pctx.BaseRate = rate
		return nil
	})
	g.Go(func() error {
		holiday, err := s.calendar.IsHoliday(gctx, target)
		if err != nil {
			return err
		}
		pctx.IsHoliday = holiday
		return nil
	})
	g.Go(func() error {
		rules, err := s.db.FindCandidates(gctx, target, roomType)
		if err != nil {
			return err
		}
		candidates = rules
		return nil
	})
	if err := g.Wait(); err != nil {
		quotesTotal.WithLabelValues("error").Inc()
		s.logger.Error("Quote",
			zap.String("service", "Quote"),
			zap.String("room_type", roomType),
			zap.Error(err),
		)
		return models.Quote{}, err
	}

	chain := s.resolver.Select(candidates, pctx)
	result := s.apply(chain, pctx.BaseRate)

	return models.Quote{
		RoomTypeID:       roomType,
		TargetDate:       target,
		OccupancyPercent: occupancy,
		LeadTimeDays:     pctx.LeadTimeDays,
		IsHoliday:        pctx.IsHoliday,
		EvaluationResult: result,
		Suppressed:       chain.Suppressed,
	}, nil
}

// Evaluate resolves and applies the rule chain for a caller-built context.
func (s *QuoteService) Evaluate(ctx context.Context, pctx models.PricingContext) (models.EvaluationResult, Chain, error) {
	ctx, span := tracer.Start(ctx, "Evaluate")
	defer span.End()

	chain, err := s.resolver.Resolve(ctx, pctx)
	if err != nil {
		quotesTotal.WithLabelValues("error").Inc()
		return models.EvaluationResult{}, Chain{}, err
	}
	return s.apply(chain, pctx.BaseRate), chain, nil
}

func (s *QuoteService) apply(chain Chain, base decimal.Decimal) models.EvaluationResult {
	quotesTotal.WithLabelValues("ok").Inc()
	rulesApplied.WithLabelValues(string(models.PhaseOverride)).Add(float64(len(chain.Overrides)))
	rulesApplied.WithLabelValues(string(models.PhaseNormal)).Add(float64(len(chain.Normals)))
	return Apply(chain, base)
}
