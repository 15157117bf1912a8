package pricing

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	interf "github.com/glkeru/hotel/pricing/internal/interfaces"
	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed rules/professional.yaml
var professionalPack []byte

type RoomTypeRate struct {
	ID       string  `yaml:"id"`
	BaseRate float64 `yaml:"baseRate"`
}

type Holiday struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

// Описание правила в YAML
type RuleDef struct {
	Name           string            `yaml:"name"`
	Description    string            `yaml:"description"`
	Priority       int               `yaml:"priority"`
	Category       string            `yaml:"category"`
	Conditions     *models.Condition `yaml:"conditions"`
	Action         models.Action     `yaml:"action"`
	RoomTypes      []string          `yaml:"roomTypes"`
	DateRangeStart string            `yaml:"dateRangeStart"`
	DateRangeEnd   string            `yaml:"dateRangeEnd"`
}

type RulePack struct {
	RoomTypes []RoomTypeRate `yaml:"roomTypes"`
	Holidays  []Holiday      `yaml:"holidays"`
	Rules     []RuleDef      `yaml:"rules"`
}

func LoadRulePack(data []byte) (RulePack, error) {
	var pack RulePack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return RulePack{}, &models.ValidationError{Field: "rulePack", Reason: err.Error()}
	}
	return pack, nil
}

func LoadRulePackFile(path string) (RulePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RulePack{}, fmt.Errorf("read rule pack %s: %w", path, err)
	}
	return LoadRulePack(data)
}

// DefaultRulePack is the embedded professional rule set.
func DefaultRulePack() (RulePack, error) {
	return LoadRulePack(professionalPack)
}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, &models.ValidationError{Field: field, Reason: err.Error()}
	}
	return &t, nil
}

func (d RuleDef) rule() (models.PricingRule, error) {
	start, err := parseDate("dateRangeStart", d.DateRangeStart)
	if err != nil {
		return models.PricingRule{}, err
	}
	end, err := parseDate("dateRangeEnd", d.DateRangeEnd)
	if err != nil {
		return models.PricingRule{}, err
	}
	return models.PricingRule{
		Name:           d.Name,
		Description:    d.Description,
		Priority:       d.Priority,
		Category:       d.Category,
		Conditions:     d.Conditions,
		Action:         d.Action,
		RoomTypes:      d.RoomTypes,
		DateRangeStart: start,
		DateRangeEnd:   end,
	}, nil
}

type BootstrapReport struct {
	Created   []string
	Skipped   []string
	RoomTypes int
	Holidays  int
}

// Начальная загрузка тарифов, праздников и правил
type Bootstrapper struct {
	rules    *RuleService
	calendar interf.CalendarStorage
	logger   *zap.Logger
}

func NewBootstrapper(rules *RuleService, calendar interf.CalendarStorage, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{rules: rules, calendar: calendar, logger: logger}
}

// Apply loads the pack. Rules whose name already exists are skipped, so repeated runs are safe.
func (b *Bootstrapper) Apply(ctx context.Context, pack RulePack, actorID string) (BootstrapReport, error) {
	var report BootstrapReport

	// проверка всего пакета до записи
	defs := make([]models.PricingRule, 0, len(pack.Rules))
	for i, d := range pack.Rules {
		rule, err := d.rule()
		if err == nil {
			err = rule.Validate()
		}
		if err != nil {
			return report, fmt.Errorf("rule %d (%s): %w", i, d.Name, err)
		}
		defs = append(defs, rule)
	}
	holidays := make([]time.Time, len(pack.Holidays))
	for i, h := range pack.Holidays {
		d, err := parseDate("holidays.date", h.Date)
		if err != nil || d == nil {
			return report, &models.ValidationError{Field: "holidays", Reason: fmt.Sprintf("bad date %q", h.Date)}
		}
		holidays[i] = *d
	}

	for _, rt := range pack.RoomTypes {
		if rt.ID == "" || rt.BaseRate < 0 {
			return report, &models.ValidationError{Field: "roomTypes", Reason: fmt.Sprintf("bad room type %q", rt.ID)}
		}
		if err := b.calendar.SetBaseRate(ctx, rt.ID, decimal.NewFromFloat(rt.BaseRate)); err != nil {
			return report, err
		}
		report.RoomTypes++
	}
	for i, h := range pack.Holidays {
		if err := b.calendar.AddHoliday(ctx, holidays[i], h.Name); err != nil {
			return report, err
		}
		report.Holidays++
	}

	existing, err := b.rules.ListRules(ctx)
	if err != nil {
		return report, err
	}
	names := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		names[r.Name] = struct{}{}
	}
	for _, rule := range defs {
		if _, ok := names[rule.Name]; ok {
			report.Skipped = append(report.Skipped, rule.Name)
			continue
		}
		if _, err := b.rules.CreateRule(ctx, rule, actorID); err != nil {
			return report, err
		}
		names[rule.Name] = struct{}{}
		report.Created = append(report.Created, rule.Name)
	}

	b.logger.Info("bootstrap",
		zap.String("service", "Bootstrap"),
		zap.Int("created", len(report.Created)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("room_types", report.RoomTypes),
		zap.Int("holidays", report.Holidays),
	)
	return report, nil
}
