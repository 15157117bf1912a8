package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MongoStore struct {
	mgo      *mongo.Client
	rules    *mongo.Collection
	audit    *mongo.Collection
	events   *mongo.Collection
	rates    *mongo.Collection
	holidays *mongo.Collection
	logger   *zap.Logger
}

type rateDoc struct {
	RoomType string `bson:"roomType"`
	BaseRate string `bson:"baseRate"`
}

type holidayDoc struct {
	Day  time.Time `bson:"day"`
	Name string    `bson:"name"`
}

func NewMongoStore(ctx context.Context, addr string, logger *zap.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	options := options.Client().ApplyURI("mongodb://" + addr)
	client, err := mongo.Connect(ctx, options)
	if err != nil {
		return nil, err
	}
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, err
	}
	db := client.Database("pricingDB")

	return &MongoStore{
		mgo:      client,
		rules:    db.Collection("rules"),
		audit:    db.Collection("audit"),
		events:   db.Collection("events"),
		rates:    db.Collection("rates"),
		holidays: db.Collection("holidays"),
		logger:   logger,
	}, nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.mgo.Disconnect(ctx)
}

// Индексы, повторный запуск безопасен
func (m *MongoStore) Migrate(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{m.rules, mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique}},
		{m.rules, mongo.IndexModel{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "dateRangeStart", Value: 1}}}},
		{m.audit, mongo.IndexModel{Keys: bson.D{{Key: "ruleId", Value: 1}, {Key: "createdAt", Value: 1}}}},
		{m.events, mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique}},
		{m.rates, mongo.IndexModel{Keys: bson.D{{Key: "roomType", Value: 1}}, Options: unique}},
		{m.holidays, mongo.IndexModel{Keys: bson.D{{Key: "day", Value: 1}}, Options: unique}},
	}
	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateOne(ctx, ix.model); err != nil {
			return m.mongoError("Migrate", err)
		}
	}
	return nil
}

func (m *MongoStore) mongoError(service string, err error) error {
	m.logger.Error("Mongo error",
		zap.String("service", service),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %w", models.ErrStorage, service, err)
}

func (m *MongoStore) findRules(ctx context.Context, service string, filter bson.M) ([]models.PricingRule, error) {
	result, err := m.rules.Find(ctx, filter)
	if err != nil {
		return nil, m.mongoError(service, err)
	}
	defer result.Close(ctx)

	var rules []models.PricingRule
	for result.Next(ctx) {
		var rule models.PricingRule
		err := result.Decode(&rule)
		if err != nil {
			m.logger.Warn("rule decode",
				zap.String("service", service),
				zap.Error(err),
			)
			continue
		}
		rules = append(rules, rule)
	}
	if err := result.Err(); err != nil {
		return nil, m.mongoError(service, err)
	}
	return rules, nil
}

func (m *MongoStore) GetAllRules(ctx context.Context) ([]models.PricingRule, error) {
	return m.findRules(ctx, "GetAllRules", bson.M{})
}

func (m *MongoStore) GetActiveRules(ctx context.Context) ([]models.PricingRule, error) {
	return m.findRules(ctx, "GetActiveRules", bson.M{"isActive": true})
}

func (m *MongoStore) FindCandidates(ctx context.Context, date time.Time, roomType string) ([]models.PricingRule, error) {
	return m.findRules(ctx, "FindCandidates", candidatesFilter(date, roomType))
}

// активно, дата внутри периода, тип номера в области действия (пустая - все)
func candidatesFilter(date time.Time, roomType string) bson.M {
	d := models.DateOf(date)
	return bson.M{
		"isActive": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"dateRangeStart": nil},
				bson.M{"dateRangeStart": bson.M{"$lt": d.AddDate(0, 0, 1)}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"dateRangeEnd": nil},
				bson.M{"dateRangeEnd": bson.M{"$gte": d}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"roomTypes": nil},
				bson.M{"roomTypes": bson.M{"$size": 0}},
				bson.M{"roomTypes": roomType},
			}},
		},
	}
}

func (m *MongoStore) GetRule(ctx context.Context, id uuid.UUID) (models.PricingRule, error) {
	var rule models.PricingRule
	err := m.rules.FindOne(ctx, bson.M{"id": id}).Decode(&rule)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PricingRule{}, fmt.Errorf("rule %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.PricingRule{}, m.mongoError("GetRule", err)
	}
	return rule, nil
}

// Транзакция правило + аудит. Нужен replica set.
func (m *MongoStore) withTransaction(ctx context.Context, service string, fn func(sc mongo.SessionContext) error) error {
	session, err := m.mgo.StartSession()
	if err != nil {
		return m.mongoError(service, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err == nil || errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrStorage) {
		return err
	}
	return m.mongoError(service, err)
}

func (m *MongoStore) SaveRule(ctx context.Context, rule models.PricingRule, entry models.AuditEntry) error {
	return m.withTransaction(ctx, "SaveRule", func(sc mongo.SessionContext) error {
		_, err := m.rules.InsertOne(sc, rule)
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("rule %s: %w", rule.ID, models.ErrConflict)
		}
		if err != nil {
			return err
		}
		_, err = m.audit.InsertOne(sc, entry)
		return err
	})
}

// Обновление с проверкой версии
func (m *MongoStore) UpdateRule(ctx context.Context, rule models.PricingRule, expectedVersion int64, entry models.AuditEntry) error {
	return m.withTransaction(ctx, "UpdateRule", func(sc mongo.SessionContext) error {
		result, err := m.rules.ReplaceOne(sc, versionFilter(rule.ID, expectedVersion), rule)
		if err != nil {
			return err
		}
		if result.MatchedCount != 1 {
			if _, err := m.GetRule(sc, rule.ID); err != nil {
				return err
			}
			return fmt.Errorf("rule %s version %d: %w", rule.ID, expectedVersion, models.ErrConflict)
		}
		_, err = m.audit.InsertOne(sc, entry)
		return err
	})
}

func versionFilter(id uuid.UUID, version int64) bson.M {
	return bson.M{"id": id, "version": version}
}

func (m *MongoStore) AppendAudit(ctx context.Context, entry models.AuditEntry) error {
	if _, err := m.audit.InsertOne(ctx, entry); err != nil {
		return m.mongoError("AppendAudit", err)
	}
	return nil
}

func (m *MongoStore) GetAudit(ctx context.Context, ruleID uuid.UUID) ([]models.AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	result, err := m.audit.Find(ctx, bson.M{"ruleId": ruleID}, opts)
	if err != nil {
		return nil, m.mongoError("GetAudit", err)
	}
	var entries []models.AuditEntry
	if err := result.All(ctx, &entries); err != nil {
		return nil, m.mongoError("GetAudit", err)
	}
	return entries, nil
}

func (m *MongoStore) SaveEvent(ctx context.Context, event models.CalendarEvent) error {
	if _, err := m.events.InsertOne(ctx, event); err != nil {
		return m.mongoError("SaveEvent", err)
	}
	return nil
}

func (m *MongoStore) LinkEventOverride(ctx context.Context, eventID uuid.UUID, ruleID uuid.UUID) error {
	result, err := m.events.UpdateOne(ctx, bson.M{"id": eventID}, bson.M{"$set": bson.M{"overrideRuleId": ruleID}})
	if err != nil {
		return m.mongoError("LinkEventOverride", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("event %s: %w", eventID, models.ErrNotFound)
	}
	return nil
}

func (m *MongoStore) GetEvent(ctx context.Context, id uuid.UUID) (models.CalendarEvent, error) {
	var event models.CalendarEvent
	err := m.events.FindOne(ctx, bson.M{"id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CalendarEvent{}, fmt.Errorf("event %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.CalendarEvent{}, m.mongoError("GetEvent", err)
	}
	return event, nil
}

func (m *MongoStore) GetEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	result, err := m.events.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}}))
	if err != nil {
		return nil, m.mongoError("GetEvents", err)
	}
	var events []models.CalendarEvent
	if err := result.All(ctx, &events); err != nil {
		return nil, m.mongoError("GetEvents", err)
	}
	return events, nil
}

func (m *MongoStore) BaseRate(ctx context.Context, roomType string) (decimal.Decimal, error) {
	var doc rateDoc
	err := m.rates.FindOne(ctx, bson.M{"roomType": roomType}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return decimal.Zero, fmt.Errorf("room type %s: %w", roomType, models.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, m.mongoError("BaseRate", err)
	}
	rate, err := decimal.NewFromString(doc.BaseRate)
	if err != nil {
		return decimal.Zero, m.mongoError("BaseRate", err)
	}
	return rate, nil
}

func (m *MongoStore) SetBaseRate(ctx context.Context, roomType string, rate decimal.Decimal) error {
	_, err := m.rates.UpdateOne(ctx,
		bson.M{"roomType": roomType},
		bson.M{"$set": rateDoc{RoomType: roomType, BaseRate: rate.String()}},
		options.Update().SetUpsert(true))
	if err != nil {
		return m.mongoError("SetBaseRate", err)
	}
	return nil
}

func (m *MongoStore) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	n, err := m.holidays.CountDocuments(ctx, bson.M{"day": models.DateOf(date)})
	if err != nil {
		return false, m.mongoError("IsHoliday", err)
	}
	return n > 0, nil
}

func (m *MongoStore) AddHoliday(ctx context.Context, date time.Time, name string) error {
	day := models.DateOf(date)
	_, err := m.holidays.UpdateOne(ctx,
		bson.M{"day": day},
		bson.M{"$set": holidayDoc{Day: day, Name: name}},
		options.Update().SetUpsert(true))
	if err != nil {
		return m.mongoError("AddHoliday", err)
	}
	return nil
}
