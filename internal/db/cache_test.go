package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// считает обращения к хранилищу
type countingStorage struct {
	*MemoryStore
	finds int
	err   error
}

func (c *countingStorage) FindCandidates(ctx context.Context, date time.Time, roomType string) ([]models.PricingRule, error) {
	c.finds++
	if c.err != nil {
		return nil, c.err
	}
	return c.MemoryStore.FindCandidates(ctx, date, roomType)
}

func newCached(t *testing.T) (*CachedRuleStorage, *countingStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := &countingStorage{MemoryStore: NewMemoryStore()}
	return NewCachedRuleStorage(inner, client, time.Minute, zap.NewNop()), inner, mr
}

func TestCachedFindCandidates(t *testing.T) {
	ctx := context.Background()
	cache, inner, _ := newCached(t)
	date := time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC)

	rule := memRule("weekend", 31)
	rule.Conditions = &models.Condition{Op: models.OpIn, Field: models.FieldDayOfWeek, Values: []any{"friday", "saturday"}}
	require.NoError(t, cache.SaveRule(ctx, rule, auditOf(rule, models.AuditCreate)))

	first, err := cache.FindCandidates(ctx, date, "deluxe")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := cache.FindCandidates(ctx, date.Add(5*time.Hour), "deluxe")
	require.NoError(t, err)
	require.Equal(t, 1, inner.finds)
	require.Equal(t, first[0].ID, second[0].ID)
	require.Equal(t, []any{"friday", "saturday"}, second[0].Conditions.Values)

	_, err = cache.FindCandidates(ctx, date, "suite")
	require.NoError(t, err)
	require.Equal(t, 2, inner.finds)
}

func TestCachedInvalidation(t *testing.T) {
	ctx := context.Background()
	cache, inner, _ := newCached(t)
	date := time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC)

	rule := memRule("a", 1)
	require.NoError(t, cache.SaveRule(ctx, rule, auditOf(rule, models.AuditCreate)))
	_, err := cache.FindCandidates(ctx, date, "deluxe")
	require.NoError(t, err)

	// новое правило видно сразу
	require.NoError(t, cache.SaveRule(ctx, memRule("b", 2), models.AuditEntry{ID: uuid.New()}))
	rules, err := cache.FindCandidates(ctx, date, "deluxe")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Equal(t, 2, inner.finds)

	// отзыв тоже
	rule.IsActive = false
	rule.Version = 2
	require.NoError(t, cache.UpdateRule(ctx, rule, 1, auditOf(rule, models.AuditRevoke)))
	rules, err = cache.FindCandidates(ctx, date, "deluxe")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, 3, inner.finds)

	// конфликт не сбрасывает кэш
	err = cache.UpdateRule(ctx, rule, 1, auditOf(rule, models.AuditRevoke))
	require.True(t, errors.Is(err, models.ErrConflict))
	_, err = cache.FindCandidates(ctx, date, "deluxe")
	require.NoError(t, err)
	require.Equal(t, 3, inner.finds)
}

func TestCachedRedisDown(t *testing.T) {
	ctx := context.Background()
	cache, inner, mr := newCached(t)
	require.NoError(t, inner.SaveRule(ctx, memRule("a", 1), models.AuditEntry{ID: uuid.New()}))

	mr.Close()
	rules, err := cache.FindCandidates(ctx, time.Now(), "deluxe")
	require.NoError(t, err)
	require.Len(t, rules, 1)

	// ошибки хранилища не маскируются
	inner.err = models.ErrStorage
	_, err = cache.FindCandidates(ctx, time.Now(), "deluxe")
	require.True(t, errors.Is(err, models.ErrStorage))
}

func TestCachedExpiry(t *testing.T) {
	ctx := context.Background()
	cache, inner, mr := newCached(t)
	date := time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC)
	require.NoError(t, inner.SaveRule(ctx, memRule("a", 1), models.AuditEntry{ID: uuid.New()}))

	_, err := cache.FindCandidates(ctx, date, "deluxe")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = cache.FindCandidates(ctx, date, "deluxe")
	require.NoError(t, err)
	require.Equal(t, 2, inner.finds)
}
