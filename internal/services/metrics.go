package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("pricing")

// метрики
var (
	quotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_quotes_total",
			Help: "Number of quotes by result",
		},
		[]string{"result"},
	)

	rulesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_rules_applied_total",
			Help: "Number of rules applied to quotes by phase",
		},
		[]string{"phase"},
	)

	malformedRules = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_malformed_rules_total",
			Help: "Number of rule evaluations skipped because of a malformed condition tree",
		},
	)

	overrideMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_override_mutations_total",
			Help: "Number of override mutations by action",
		},
		[]string{"action"},
	)
)
