package pricing

import (
	"context"
	"sort"

	interf "github.com/glkeru/hotel/pricing/internal/interfaces"
	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Chain is the ordered set of rules to apply: every override precedes every normal rule.
type Chain struct {
	Overrides  []models.PricingRule
	Normals    []models.PricingRule
	Suppressed []uuid.UUID
}

func (c Chain) Len() int {
	return len(c.Overrides) + len(c.Normals)
}

func (c Chain) Rules() []models.PricingRule {
	out := make([]models.PricingRule, 0, c.Len())
	out = append(out, c.Overrides...)
	return append(out, c.Normals...)
}

type Resolver struct {
	db     interf.RuleStorage
	logger *zap.Logger
}

func NewResolver(db interf.RuleStorage, logger *zap.Logger) *Resolver {
	return &Resolver{db, logger}
}

// Выбор цепочки правил для контекста
func (r *Resolver) Resolve(ctx context.Context, pctx models.PricingContext) (Chain, error) {
	candidates, err := r.db.FindCandidates(ctx, pctx.TargetDate, pctx.RoomTypeID)
	if err != nil {
		return Chain{}, err
	}
	return r.Select(candidates, pctx), nil
}

// Select filters candidates against pctx and resolves precedence and suppression.
// The scope checks are repeated here so the result does not depend on the storage backend.
func (r *Resolver) Select(candidates []models.PricingRule, pctx models.PricingContext) Chain {
	var overrides, normals []models.PricingRule
	for _, rule := range candidates {
		if !rule.IsActive || !rule.InDateRange(pctx.TargetDate) || !rule.AppliesTo(pctx.RoomTypeID) {
			continue
		}
		ok, err := Matches(rule.Conditions, pctx)
		if err != nil {
			malformedRules.Inc()
			r.logger.Warn("malformed rule skipped",
				zap.String("service", "Resolve"),
				zap.String("rule", rule.ID.String()),
				zap.Any("conditions", rule.Conditions),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		if rule.IsOverride {
			overrides = append(overrides, rule)
		} else {
			normals = append(normals, rule)
		}
	}

	sortRules(overrides)
	sortRules(normals)

	// правила, отключенные любым совпавшим override
	disabled := make(map[uuid.UUID]struct{})
	for _, o := range overrides {
		for _, id := range o.DisabledRuleIDs {
			disabled[id] = struct{}{}
		}
	}

	chain := Chain{Overrides: overrides}
	for _, n := range normals {
		if _, ok := disabled[n.ID]; ok {
			chain.Suppressed = append(chain.Suppressed, n.ID)
			continue
		}
		chain.Normals = append(chain.Normals, n)
	}
	return chain
}

// priority по возрастанию, затем более новые, затем срочность и id для воспроизводимости
func sortRules(rules []models.PricingRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.UrgencyLevel.Rank() != b.UrgencyLevel.Rank() {
			return a.UrgencyLevel.Rank() < b.UrgencyLevel.Rank()
		}
		return a.ID.String() < b.ID.String()
	})
}
