package pricing

import (
	"testing"
	"time"

	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCandidatesFilter(t *testing.T) {
	date := time.Date(2026, 4, 8, 15, 30, 0, 0, time.UTC)
	day := models.DateOf(date)
	filter := candidatesFilter(date, "deluxe")

	require.Equal(t, true, filter["isActive"])
	and, ok := filter["$and"].(bson.A)
	require.True(t, ok)
	require.Len(t, and, 3)

	require.Equal(t, bson.M{"$or": bson.A{
		bson.M{"dateRangeStart": nil},
		bson.M{"dateRangeStart": bson.M{"$lt": day.AddDate(0, 0, 1)}},
	}}, and[0])
	require.Equal(t, bson.M{"$or": bson.A{
		bson.M{"dateRangeEnd": nil},
		bson.M{"dateRangeEnd": bson.M{"$gte": day}},
	}}, and[1])
	require.Contains(t, and[2].(bson.M)["$or"], bson.M{"roomTypes": "deluxe"})
	require.Contains(t, and[2].(bson.M)["$or"], bson.M{"roomTypes": bson.M{"$size": 0}})

	_, err := bson.Marshal(filter)
	require.NoError(t, err)
}

func TestVersionFilter(t *testing.T) {
	id := uuid.New()
	require.Equal(t, bson.M{"id": id, "version": int64(3)}, versionFilter(id, 3))
}

// числа из BSON приходят как int32 и должны проходить проверку условий
func TestDecodeRuleDocument(t *testing.T) {
	doc, err := bson.Marshal(bson.D{
		{Key: "name", Value: "Weekend"},
		{Key: "priority", Value: int32(20)},
		{Key: "isActive", Value: true},
		{Key: "status", Value: "active"},
		{Key: "conditions", Value: bson.D{
			{Key: "op", Value: "in"},
			{Key: "field", Value: "day_of_week"},
			{Key: "values", Value: bson.A{int32(5), int32(6)}},
		}},
		{Key: "action", Value: bson.D{{Key: "type", Value: "increase_rate_by_percent"}, {Key: "value", Value: 15.0}}},
		{Key: "category", Value: models.CategoryDayOfWeek},
		{Key: "version", Value: int64(1)},
	})
	require.NoError(t, err)

	var rule models.PricingRule
	require.NoError(t, bson.Unmarshal(doc, &rule))
	require.Equal(t, models.OpIn, rule.Conditions.Op)
	require.NoError(t, rule.Validate())

	rule.Conditions.Values = bson.A{int32(9)}
	require.Error(t, rule.Validate())
}
