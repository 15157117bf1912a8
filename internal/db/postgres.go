package pricing

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed migrations/001_init.sql
var initSchema string

type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	ctxPing, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool, logger}, nil
}

func (p *PostgresStore) Close() {
	p.pool.Close()
}

// Создание таблиц, повторный запуск безопасен
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, initSchema); err != nil {
		return fmt.Errorf("%w: migrate: %w", models.ErrStorage, err)
	}
	return nil
}

func (p *PostgresStore) sqlError(service, query string, args []any, err error) error {
	p.logger.Error("SQL error",
		zap.String("service", service),
		zap.Error(err),
		zap.String("query", query),
		zap.Any("args", args),
	)
	return fmt.Errorf("%w: %s: %w", models.ErrStorage, service, err)
}

var ruleColumns = []string{
	"id", "name", "description", "priority", "is_active", "status", "conditions",
	"action_type", "action_value", "date_range_start", "date_range_end", "room_types",
	"category", "urgency_level", "is_override", "disabled_rule_ids", "created_by",
	"created_at", "updated_at", "revoked_at", "revoke_reason", "version",
}

func nullableText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Status: pgtype.Null}
	}
	return pgtype.Text{String: s, Status: pgtype.Present}
}

func jsonArg(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func ruleValues(r models.PricingRule) ([]any, error) {
	var conditions any
	if r.Conditions != nil {
		c, err := jsonArg(r.Conditions)
		if err != nil {
			return nil, err
		}
		conditions = c
	}
	rooms := r.RoomTypes
	if rooms == nil {
		rooms = []string{}
	}
	return []any{
		r.ID, r.Name, r.Description, r.Priority, r.IsActive, string(r.Status), conditions,
		string(r.Action.Type), r.Action.Value, r.DateRangeStart, r.DateRangeEnd, rooms,
		r.Category, nullableText(string(r.UrgencyLevel)), r.IsOverride, uuidStrings(r.DisabledRuleIDs), r.CreatedBy,
		r.CreatedAt, r.UpdatedAt, r.RevokedAt, r.RevokeReason, r.Version,
	}, nil
}

// unparseable помечает правило, условие которого не читается: оно будет пропущено при расчете
const unparseable models.Operator = "unparseable"

func (p *PostgresStore) scanRule(row pgx.Row) (models.PricingRule, error) {
	var (
		r          models.PricingRule
		id         pgtype.UUID
		status     string
		conditions []byte
		actionType string
		urgency    pgtype.Text
		disabled   []string
	)
	err := row.Scan(&id, &r.Name, &r.Description, &r.Priority, &r.IsActive, &status, &conditions,
		&actionType, &r.Action.Value, &r.DateRangeStart, &r.DateRangeEnd, &r.RoomTypes,
		&r.Category, &urgency, &r.IsOverride, &disabled, &r.CreatedBy,
		&r.CreatedAt, &r.UpdatedAt, &r.RevokedAt, &r.RevokeReason, &r.Version)
	if err != nil {
		return models.PricingRule{}, err
	}
	r.ID = uuid.UUID(id.Bytes)
	r.Status = models.RuleStatus(status)
	r.Action.Type = models.ActionType(actionType)
	if urgency.Status == pgtype.Present {
		r.UrgencyLevel = models.Urgency(urgency.String)
	}
	for _, s := range disabled {
		if d, err := uuid.Parse(s); err == nil {
			r.DisabledRuleIDs = append(r.DisabledRuleIDs, d)
		}
	}
	if len(conditions) > 0 && string(conditions) != "null" {
		var c models.Condition
		if err := json.Unmarshal(conditions, &c); err != nil {
			p.logger.Warn("unparseable conditions",
				zap.String("service", "scanRule"),
				zap.String("rule", r.ID.String()),
				zap.ByteString("conditions", conditions),
				zap.Error(err),
			)
			c = models.Condition{Op: unparseable}
		}
		r.Conditions = &c
	}
	return r, nil
}

func (p *PostgresStore) queryRules(ctx context.Context, service string, query sq.SelectBuilder) ([]models.PricingRule, error) {
	sql, args, err := query.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, p.sqlError(service, sql, args, err)
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, p.sqlError(service, sql, args, err)
	}
	defer rows.Close()

	var rules []models.PricingRule
	for rows.Next() {
		rule, err := p.scanRule(rows)
		if err != nil {
			return nil, p.sqlError(service, sql, args, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, p.sqlError(service, sql, args, err)
	}
	return rules, nil
}

func (p *PostgresStore) GetAllRules(ctx context.Context) ([]models.PricingRule, error) {
	return p.queryRules(ctx, "GetAllRules", sq.Select(ruleColumns...).From("pricing_rules"))
}

func (p *PostgresStore) GetActiveRules(ctx context.Context) ([]models.PricingRule, error) {
	return p.queryRules(ctx, "GetActiveRules", sq.Select(ruleColumns...).
		From("pricing_rules").
		Where(sq.Eq{"is_active": true}))
}

func (p *PostgresStore) FindCandidates(ctx context.Context, date time.Time, roomType string) ([]models.PricingRule, error) {
	return p.queryRules(ctx, "FindCandidates", candidatesQuery(date, roomType))
}

func candidatesQuery(date time.Time, roomType string) sq.SelectBuilder {
	d := models.DateOf(date)
	return sq.Select(ruleColumns...).
		From("pricing_rules").
		Where(sq.Eq{"is_active": true}).
		Where(sq.Or{sq.Eq{"date_range_start": nil}, sq.LtOrEq{"date_range_start": d}}).
		Where(sq.Or{sq.Eq{"date_range_end": nil}, sq.GtOrEq{"date_range_end": d}}).
		Where(sq.Or{sq.Expr("cardinality(room_types) = 0"), sq.Expr("? = ANY(room_types)", roomType)})
}

func (p *PostgresStore) GetRule(ctx context.Context, id uuid.UUID) (models.PricingRule, error) {
	sql, args, err := sq.Select(ruleColumns...).
		From("pricing_rules").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return models.PricingRule{}, p.sqlError("GetRule", sql, args, err)
	}
	rule, err := p.scanRule(p.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PricingRule{}, fmt.Errorf("rule %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.PricingRule{}, p.sqlError("GetRule", sql, args, err)
	}
	return rule, nil
}

func insertRuleQuery(rule models.PricingRule) (string, []any, error) {
	values, err := ruleValues(rule)
	if err != nil {
		return "", nil, err
	}
	return sq.Insert("pricing_rules").
		Columns(ruleColumns...).
		Values(values...).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

// UPDATE ... WHERE id AND version: ноль строк - конфликт версий или нет правила
func updateRuleQuery(rule models.PricingRule, expectedVersion int64) (string, []any, error) {
	values, err := ruleValues(rule)
	if err != nil {
		return "", nil, err
	}
	set := make(map[string]any, len(ruleColumns)-1)
	for i, col := range ruleColumns {
		if col == "id" || col == "created_at" || col == "created_by" {
			continue
		}
		set[col] = values[i]
	}
	return sq.Update("pricing_rules").
		SetMap(set).
		Where(sq.Eq{"id": rule.ID, "version": expectedVersion}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func insertAuditQuery(entry models.AuditEntry) (string, []any, error) {
	var changes any
	if len(entry.Changes) > 0 {
		c, err := jsonArg(entry.Changes)
		if err != nil {
			return "", nil, err
		}
		changes = c
	}
	return sq.Insert("rule_audit").
		Columns("id", "rule_id", "action", "actor_id", "reason", "urgency", "changes", "created_at").
		Values(entry.ID, entry.RuleID, string(entry.Action), entry.ActorID, entry.Reason,
			nullableText(string(entry.Urgency)), changes, entry.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

// правило и его запись аудита в одной транзакции
func (p *PostgresStore) inTx(ctx context.Context, service string, fn func(tx pgx.Tx) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		p.logger.Error("Begin tx error", zap.String("service", service), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", models.ErrStorage, service, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		p.logger.Error("Commit error", zap.String("service", service), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", models.ErrStorage, service, err)
	}
	return nil
}

func (p *PostgresStore) appendAuditTx(ctx context.Context, tx pgx.Tx, service string, entry models.AuditEntry) error {
	sql, args, err := insertAuditQuery(entry)
	if err != nil {
		return p.sqlError(service, sql, args, err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return p.sqlError(service, sql, args, err)
	}
	return nil
}

func (p *PostgresStore) SaveRule(ctx context.Context, rule models.PricingRule, entry models.AuditEntry) error {
	return p.inTx(ctx, "SaveRule", func(tx pgx.Tx) error {
		sql, args, err := insertRuleQuery(rule)
		if err != nil {
			return p.sqlError("SaveRule", sql, args, err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return p.sqlError("SaveRule", sql, args, err)
		}
		return p.appendAuditTx(ctx, tx, "SaveRule", entry)
	})
}

// Обновление с проверкой версии
func (p *PostgresStore) UpdateRule(ctx context.Context, rule models.PricingRule, expectedVersion int64, entry models.AuditEntry) error {
	return p.inTx(ctx, "UpdateRule", func(tx pgx.Tx) error {
		sql, args, err := updateRuleQuery(rule, expectedVersion)
		if err != nil {
			return p.sqlError("UpdateRule", sql, args, err)
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return p.sqlError("UpdateRule", sql, args, err)
		}
		if tag.RowsAffected() != 1 {
			// нет строки или другая версия
			if _, err := p.GetRule(ctx, rule.ID); err != nil {
				return err
			}
			return fmt.Errorf("rule %s version %d: %w", rule.ID, expectedVersion, models.ErrConflict)
		}
		return p.appendAuditTx(ctx, tx, "UpdateRule", entry)
	})
}

func (p *PostgresStore) AppendAudit(ctx context.Context, entry models.AuditEntry) error {
	sql, args, err := insertAuditQuery(entry)
	if err != nil {
		return p.sqlError("AppendAudit", sql, args, err)
	}
	if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
		return p.sqlError("AppendAudit", sql, args, err)
	}
	return nil
}

func (p *PostgresStore) GetAudit(ctx context.Context, ruleID uuid.UUID) ([]models.AuditEntry, error) {
	sql, args, err := sq.Select("id", "rule_id", "action", "actor_id", "reason", "urgency", "changes", "created_at").
		From("rule_audit").
		Where(sq.Eq{"rule_id": ruleID}).
		OrderBy("seq").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, p.sqlError("GetAudit", sql, args, err)
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, p.sqlError("GetAudit", sql, args, err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var (
			e       models.AuditEntry
			id      pgtype.UUID
			rule    pgtype.UUID
			action  string
			urgency pgtype.Text
			changes []byte
		)
		if err := rows.Scan(&id, &rule, &action, &e.ActorID, &e.Reason, &urgency, &changes, &e.CreatedAt); err != nil {
			return nil, p.sqlError("GetAudit", sql, args, err)
		}
		e.ID = uuid.UUID(id.Bytes)
		e.RuleID = uuid.UUID(rule.Bytes)
		e.Action = models.AuditAction(action)
		if urgency.Status == pgtype.Present {
			e.Urgency = models.Urgency(urgency.String)
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, p.sqlError("GetAudit", sql, args, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, p.sqlError("GetAudit", sql, args, err)
	}
	return entries, nil
}

var eventColumns = []string{
	"id", "title", "description", "category", "start_date", "end_date",
	"room_types", "override_rule_id", "created_by", "created_at",
}

func (p *PostgresStore) SaveEvent(ctx context.Context, e models.CalendarEvent) error {
	rooms := e.RoomTypes
	if rooms == nil {
		rooms = []string{}
	}
	sql, args, err := sq.Insert("calendar_events").
		Columns(eventColumns...).
		Values(e.ID, e.Title, e.Description, string(e.Category), e.StartDate, e.EndDate,
			rooms, e.OverrideRuleID, e.CreatedBy, e.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError("SaveEvent", sql, args, err)
	}
	if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
		return p.sqlError("SaveEvent", sql, args, err)
	}
	return nil
}

func (p *PostgresStore) LinkEventOverride(ctx context.Context, eventID uuid.UUID, ruleID uuid.UUID) error {
	sql, args, err := sq.Update("calendar_events").
		Set("override_rule_id", ruleID).
		Where(sq.Eq{"id": eventID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError("LinkEventOverride", sql, args, err)
	}
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return p.sqlError("LinkEventOverride", sql, args, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %s: %w", eventID, models.ErrNotFound)
	}
	return nil
}

func scanEvent(row pgx.Row) (models.CalendarEvent, error) {
	var (
		e        models.CalendarEvent
		id       pgtype.UUID
		category string
		override pgtype.UUID
	)
	err := row.Scan(&id, &e.Title, &e.Description, &category, &e.StartDate, &e.EndDate,
		&e.RoomTypes, &override, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return models.CalendarEvent{}, err
	}
	e.ID = uuid.UUID(id.Bytes)
	e.Category = models.EventCategory(category)
	if override.Status == pgtype.Present {
		ruleID := uuid.UUID(override.Bytes)
		e.OverrideRuleID = &ruleID
	}
	return e, nil
}

func (p *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (models.CalendarEvent, error) {
	sql, args, err := sq.Select(eventColumns...).
		From("calendar_events").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return models.CalendarEvent{}, p.sqlError("GetEvent", sql, args, err)
	}
	e, err := scanEvent(p.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CalendarEvent{}, fmt.Errorf("event %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.CalendarEvent{}, p.sqlError("GetEvent", sql, args, err)
	}
	return e, nil
}

func (p *PostgresStore) GetEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	sql, args, err := sq.Select(eventColumns...).
		From("calendar_events").
		OrderBy("start_date").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, p.sqlError("GetEvents", sql, args, err)
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, p.sqlError("GetEvents", sql, args, err)
	}
	defer rows.Close()

	var events []models.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, p.sqlError("GetEvents", sql, args, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, p.sqlError("GetEvents", sql, args, err)
	}
	return events, nil
}

func (p *PostgresStore) BaseRate(ctx context.Context, roomType string) (decimal.Decimal, error) {
	sql, args, err := sq.Select("base_rate").
		From("room_type_rates").
		Where(sq.Eq{"room_type": roomType}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return decimal.Zero, p.sqlError("BaseRate", sql, args, err)
	}
	var rate decimal.Decimal
	err = p.pool.QueryRow(ctx, sql, args...).Scan(&rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("room type %s: %w", roomType, models.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, p.sqlError("BaseRate", sql, args, err)
	}
	return rate, nil
}

func (p *PostgresStore) SetBaseRate(ctx context.Context, roomType string, rate decimal.Decimal) error {
	sql, args, err := sq.Insert("room_type_rates").
		Columns("room_type", "base_rate").
		Values(roomType, rate).
		Suffix("ON CONFLICT (room_type) DO UPDATE SET base_rate = EXCLUDED.base_rate").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError("SetBaseRate", sql, args, err)
	}
	if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
		return p.sqlError("SetBaseRate", sql, args, err)
	}
	return nil
}

func (p *PostgresStore) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM holidays WHERE day = $1)", models.DateOf(date)).Scan(&exists)
	if err != nil {
		return false, p.sqlError("IsHoliday", "holidays", []any{date}, err)
	}
	return exists, nil
}

func (p *PostgresStore) AddHoliday(ctx context.Context, date time.Time, name string) error {
	sql, args, err := sq.Insert("holidays").
		Columns("day", "name").
		Values(models.DateOf(date), name).
		Suffix("ON CONFLICT (day) DO UPDATE SET name = EXCLUDED.name").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError("AddHoliday", sql, args, err)
	}
	if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
		return p.sqlError("AddHoliday", sql, args, err)
	}
	return nil
}
