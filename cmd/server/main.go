package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/glkeru/hotel/pricing/internal/api"
	config "github.com/glkeru/hotel/pricing/internal/config"
	store "github.com/glkeru/hotel/pricing/internal/db"
	external "github.com/glkeru/hotel/pricing/internal/external"
	interf "github.com/glkeru/hotel/pricing/internal/interfaces"
	service "github.com/glkeru/hotel/pricing/internal/services"
	tracing "github.com/glkeru/hotel/pricing/observability/otel"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Env == "production" {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err == nil {
		zcfg.Level = level
	}
	return zcfg.Build()
}

func main() {
	// config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.ValidateServer(); err != nil {
		panic(err)
	}

	// log
	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// tracing
	shutdownTracer, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint, logger)
	if err != nil {
		logger.Fatal("init tracer", zap.Error(err))
	}
	defer shutdownTracer()

	// database
	storage, closeStorage, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open storage", zap.Error(err))
	}
	defer closeStorage()

	// cache
	rules, closeCache := store.RuleCache(ctx, cfg, storage, logger)
	defer closeCache()

	// публикация аудита
	var publishers []interf.AuditPublisher
	if cfg.KafkaEnabled() {
		kafka := external.NewKafkaAuditPublisher(cfg.Kafka.URL, cfg.Kafka.Topic)
		defer kafka.Close()
		publishers = append(publishers, kafka)
	}
	if cfg.RabbitEnabled() {
		rabbit, err := external.NewRabbitAlertPublisher(cfg.Rabbit.DSN(), cfg.Rabbit.Queue)
		if err != nil {
			logger.Error("rabbit is unavailable, urgent alerts disabled", zap.Error(err))
		} else {
			defer rabbit.Close()
			publishers = append(publishers, rabbit)
		}
	}

	// services
	overrides := service.NewOverrideManager(rules, storage, logger, publishers...)
	serv := api.Services{
		Quotes:    service.NewQuoteService(rules, storage, logger),
		Rules:     service.NewRuleService(rules, storage, logger, publishers...),
		Overrides: overrides,
		Events:    service.NewQuickEventService(storage, overrides, logger),
	}

	// api handlers
	r := api.NewHandler(serv, []byte(cfg.JWTSecret), logger)
	srv := &http.Server{
		Handler:      otelhttp.NewHandler(r, "pricing"),
		Addr:         ":" + cfg.Port,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	go func() {
		logger.Info("pricing service started", zap.String("port", cfg.Port), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	timeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = srv.Shutdown(timeout)
	if err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
