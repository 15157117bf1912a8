package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	interf "github.com/glkeru/hotel/pricing/internal/interfaces"
	models "github.com/glkeru/hotel/pricing/internal/models"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const generationKey = "pricing:rules:generation"

// Кэш кандидатов для расчета цены поверх хранилища правил.
// Любая запись правила увеличивает поколение, старые ключи истекают сами.
type CachedRuleStorage struct {
	interf.RuleStorage
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisClient(ctx context.Context, addr, user, pwd string) (*redis.Client, error) {
	db := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    pwd,
		Username:    user,
		DB:          0,
		MaxRetries:  5,
		DialTimeout: 10 * time.Second,
	})
	if err := db.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return db, nil
}

func NewCachedRuleStorage(inner interf.RuleStorage, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRuleStorage {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRuleStorage{inner, client, ttl, logger}
}

func (c *CachedRuleStorage) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func candidatesKey(gen int64, date time.Time, roomType string) string {
	return fmt.Sprintf("pricing:candidates:%d:%s:%s", gen, models.DateOf(date).Format(time.DateOnly), roomType)
}

// FindCandidates serves from the cache when possible. Cache failures fall back to storage.
func (c *CachedRuleStorage) FindCandidates(ctx context.Context, date time.Time, roomType string) ([]models.PricingRule, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.warn("FindCandidates", err)
		return c.RuleStorage.FindCandidates(ctx, date, roomType)
	}
	key := candidatesKey(gen, date, roomType)

	val, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var rules []models.PricingRule
		if err := json.Unmarshal(val, &rules); err == nil {
			return rules, nil
		}
		c.warn("FindCandidates", err)
	} else if !errors.Is(err, redis.Nil) {
		c.warn("FindCandidates", err)
	}

	rules, err := c.RuleStorage.FindCandidates(ctx, date, roomType)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rules)
	if err != nil {
		c.warn("FindCandidates", err)
		return rules, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.warn("FindCandidates", err)
	}
	return rules, nil
}

func (c *CachedRuleStorage) SaveRule(ctx context.Context, rule models.PricingRule, entry models.AuditEntry) error {
	if err := c.RuleStorage.SaveRule(ctx, rule, entry); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

func (c *CachedRuleStorage) UpdateRule(ctx context.Context, rule models.PricingRule, expectedVersion int64, entry models.AuditEntry) error {
	if err := c.RuleStorage.UpdateRule(ctx, rule, expectedVersion, entry); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

func (c *CachedRuleStorage) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.warn("Invalidate", err)
	}
}

func (c *CachedRuleStorage) warn(service string, err error) {
	c.logger.Warn("cache error",
		zap.String("service", service),
		zap.Error(err),
	)
}
