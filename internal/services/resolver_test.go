package pricing

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

var created = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func testRule(name string, priority int, action models.Action, cond *models.Condition) models.PricingRule {
	return models.PricingRule{
		ID:         uuid.New(),
		Name:       name,
		Priority:   priority,
		IsActive:   true,
		Status:     models.StatusActive,
		Conditions: cond,
		Action:     action,
		Category:   models.CategoryManual,
		CreatedAt:  created,
		Version:    1,
	}
}

func testOverride(name string, priority int, action models.Action, disabled ...uuid.UUID) models.PricingRule {
	r := testRule(name, priority, action, nil)
	r.IsOverride = true
	r.Category = models.CategoryEmergency
	r.UrgencyLevel = models.UrgencyHigh
	r.DisabledRuleIDs = disabled
	return r
}

func inc(v float64) models.Action { return models.Action{Type: models.IncreaseByPercent, Value: v} }
func dec(v float64) models.Action { return models.Action{Type: models.DecreaseByPercent, Value: v} }

func cond(c models.Condition) *models.Condition { return &c }

func ids(rules []models.PricingRule) []uuid.UUID {
	out := make([]uuid.UUID, len(rules))
	for i, r := range rules {
		out[i] = r.ID
	}
	return out
}

var testCtx = models.PricingContext{
	TargetDate:       time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC),
	RoomTypeID:       "deluxe",
	LeadTimeDays:     95,
	OccupancyPercent: 96,
	DayOfWeek:        time.Wednesday,
}

func TestSelectOverridePrecedence(t *testing.T) {
	r := testRule("R", 5, dec(10), nil)
	o := testOverride("O", 100, inc(35), r.ID)

	chain := NewResolver(nil, zap.NewNop()).Select([]models.PricingRule{r, o}, testCtx)

	require.Equal(t, []uuid.UUID{o.ID}, ids(chain.Overrides))
	require.Empty(t, chain.Normals)
	require.Equal(t, []uuid.UUID{r.ID}, chain.Suppressed)
	require.Equal(t, []uuid.UUID{o.ID}, ids(chain.Rules()))
}

func TestSelectOrdering(t *testing.T) {
	older := testRule("older", 2, inc(1), nil)
	newer := testRule("newer", 2, inc(2), nil)
	newer.CreatedAt = created.Add(time.Hour)
	first := testRule("first", 1, inc(3), nil)
	late := testRule("late", 50, inc(4), nil)
	o1 := testOverride("o1", 0, inc(5))
	o2 := testOverride("o2", -1, inc(6))
	// numerically later than every normal rule, still applied first
	o3 := testOverride("o3", 1000, inc(7))

	chain := NewResolver(nil, zap.NewNop()).Select(
		[]models.PricingRule{late, older, o3, newer, first, o1, o2}, testCtx)

	require.Equal(t, []uuid.UUID{o2.ID, o1.ID, o3.ID}, ids(chain.Overrides))
	require.Equal(t, []uuid.UUID{first.ID, newer.ID, older.ID, late.ID}, ids(chain.Normals))
}

func TestSelectUrgencyTieBreak(t *testing.T) {
	low := testOverride("low", 0, inc(1))
	low.UrgencyLevel = models.UrgencyLow
	critical := testOverride("critical", 0, inc(2))
	critical.UrgencyLevel = models.UrgencyCritical

	chain := NewResolver(nil, zap.NewNop()).Select([]models.PricingRule{low, critical}, testCtx)
	require.Equal(t, []uuid.UUID{critical.ID, low.ID}, ids(chain.Overrides))
}

func TestSelectDeterministic(t *testing.T) {
	var rules []models.PricingRule
	for i := 0; i < 20; i++ {
		r := testRule(fmt.Sprintf("r%d", i), i%3, inc(float64(i)), nil)
		if i%4 == 0 {
			r.IsOverride = true
		}
		rules = append(rules, r)
	}
	resolver := NewResolver(nil, zap.NewNop())
	want := resolver.Select(rules, testCtx)

	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := append([]models.PricingRule(nil), rules...)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := resolver.Select(shuffled, testCtx)
		require.Equal(t, ids(want.Rules()), ids(got.Rules()))
	}
}

func TestSelectDateBoundary(t *testing.T) {
	target := testCtx.TargetDate
	dayBefore := target.AddDate(0, 0, -1)
	endOfDay := target.Add(23 * time.Hour)

	inclusive := testRule("ends on target", 1, inc(10), nil)
	inclusive.DateRangeEnd = &endOfDay
	expired := testRule("ended day before", 2, inc(10), nil)
	expired.DateRangeEnd = &dayBefore
	starts := testRule("starts on target", 3, inc(10), nil)
	starts.DateRangeStart = &target

	chain := NewResolver(nil, zap.NewNop()).Select([]models.PricingRule{inclusive, expired, starts}, testCtx)
	require.Equal(t, []uuid.UUID{inclusive.ID, starts.ID}, ids(chain.Normals))
}

func TestSelectScope(t *testing.T) {
	deluxe := testRule("deluxe only", 1, inc(10), nil)
	deluxe.RoomTypes = []string{"deluxe", "suite"}
	standard := testRule("standard only", 2, inc(10), nil)
	standard.RoomTypes = []string{"standard"}
	inactive := testRule("inactive", 3, inc(10), nil)
	inactive.IsActive = false
	miss := testRule("no match", 4, inc(10), cond(models.Lte(models.FieldLeadTimeDays, 3)))

	chain := NewResolver(nil, zap.NewNop()).Select([]models.PricingRule{deluxe, standard, inactive, miss}, testCtx)
	require.Equal(t, []uuid.UUID{deluxe.ID}, ids(chain.Normals))
}

func TestSelectMalformedSkipped(t *testing.T) {
	broken := testRule("broken", 1, inc(10), cond(models.And()))
	typo := testRule("typo", 2, inc(10), cond(models.Gte(models.FieldLeadTimeDays, "ninety")))
	good := testRule("good", 3, inc(10), cond(models.Gte(models.FieldLeadTimeDays, 90)))

	chain := NewResolver(nil, zap.NewNop()).Select([]models.PricingRule{broken, typo, good}, testCtx)
	require.Equal(t, []uuid.UUID{good.ID}, ids(chain.Normals))
}

func TestSelectUnknownDisabledIDs(t *testing.T) {
	r := testRule("R", 5, inc(10), nil)
	inactive := testRule("inactive", 6, inc(10), nil)
	inactive.IsActive = false
	o := testOverride("O", 0, inc(35), uuid.New(), inactive.ID)

	chain := NewResolver(nil, zap.NewNop()).Select([]models.PricingRule{r, inactive, o}, testCtx)
	require.Equal(t, []uuid.UUID{o.ID}, ids(chain.Overrides))
	require.Equal(t, []uuid.UUID{r.ID}, ids(chain.Normals))
	require.Empty(t, chain.Suppressed)
}

func TestSelectNonMatchingOverrideDoesNotSuppress(t *testing.T) {
	r := testRule("R", 5, inc(10), nil)
	o := testOverride("O", 0, inc(35), r.ID)
	o.RoomTypes = []string{"suite"}

	chain := NewResolver(nil, zap.NewNop()).Select([]models.PricingRule{r, o}, testCtx)
	require.Empty(t, chain.Overrides)
	require.Equal(t, []uuid.UUID{r.ID}, ids(chain.Normals))
}

func TestResolve(t *testing.T) {
	cont := gomock.NewController(t)
	defer cont.Finish()

	rules := []models.PricingRule{
		testRule("early", 1, dec(25), cond(models.Gte(models.FieldLeadTimeDays, 90))),
		testRule("peak", 21, inc(50), cond(models.Gte(models.FieldOccupancyPercent, 96))),
	}
	tengine := NewMockRuleStorage(cont)
	tengine.EXPECT().
		FindCandidates(gomock.Any(), testCtx.TargetDate, "deluxe").
		Return(rules, nil)

	chain, err := NewResolver(tengine, zap.NewNop()).Resolve(context.Background(), testCtx)
	require.NoError(t, err)
	require.Equal(t, ids(rules), ids(chain.Normals))
}

func TestResolveStorageError(t *testing.T) {
	cont := gomock.NewController(t)
	defer cont.Finish()

	tengine := NewMockRuleStorage(cont)
	tengine.EXPECT().
		FindCandidates(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: connection refused", models.ErrStorage))

	_, err := NewResolver(tengine, zap.NewNop()).Resolve(context.Background(), testCtx)
	require.True(t, errors.Is(err, models.ErrStorage))
}
