// Job - загрузка набора правил, базовых ставок и праздников.
// Повторный запуск пропускает правила с теми же именами.
package main

import (
	"context"
	"time"

	config "github.com/glkeru/hotel/pricing/internal/config"
	store "github.com/glkeru/hotel/pricing/internal/db"
	service "github.com/glkeru/hotel/pricing/internal/services"
	"go.uber.org/zap"
)

func main() {
	// config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		panic(err)
	}

	// log
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// database
	storage, closeStorage, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open storage", zap.Error(err))
	}
	defer closeStorage()

	// cache, чтобы сбросить поколение кэша правил
	rules, closeCache := store.RuleCache(ctx, cfg, storage, logger)
	defer closeCache()

	var pack service.RulePack
	if cfg.BootstrapFile != "" {
		pack, err = service.LoadRulePackFile(cfg.BootstrapFile)
	} else {
		pack, err = service.DefaultRulePack()
	}
	if err != nil {
		logger.Fatal("load rule pack", zap.Error(err))
	}

	b := service.NewBootstrapper(service.NewRuleService(rules, storage, logger), storage, logger)
	report, err := b.Apply(ctx, pack, "bootstrap")
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}
	logger.Info("bootstrap done",
		zap.Strings("created", report.Created),
		zap.Strings("skipped", report.Skipped),
		zap.Int("room_types", report.RoomTypes),
		zap.Int("holidays", report.Holidays),
	)
}
