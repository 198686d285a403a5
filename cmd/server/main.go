package main // Entry point package

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eladw/parkbot/internal/auth"
	"github.com/eladw/parkbot/internal/config"
	"github.com/eladw/parkbot/internal/dialog"
	"github.com/eladw/parkbot/internal/engine"
	"github.com/eladw/parkbot/internal/handler"
	"github.com/eladw/parkbot/internal/model"
	"github.com/eladw/parkbot/internal/queue"
	"github.com/eladw/parkbot/internal/registry"
	"github.com/eladw/parkbot/internal/repository"
	"github.com/eladw/parkbot/internal/router"
	"github.com/eladw/parkbot/internal/scheduler"
	"github.com/eladw/parkbot/internal/telegram"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment

	cfg := config.Load()
	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	// Static yard layout.  Any structural violation aborts startup.
	yards, err := config.LoadYards(cfg.YardsFile)
	if err != nil {
		logger.Fatal("yard layout rejected", zap.Error(err))
	}
	reg, err := registry.New(yards)
	if err != nil {
		logger.Fatal("yard layout rejected", zap.Error(err))
	}

	// Durable documents.
	phones, err := repository.NewPhoneRepo(cfg.DataDir)
	if err != nil {
		logger.Fatal("load phone records", zap.Error(err))
	}
	allowList, err := repository.NewAllowListRepo(cfg.DataDir)
	if err != nil {
		logger.Fatal("load allow-list", zap.Error(err))
	}

	gate := auth.NewGate(phones, allowList, cfg.AdminIDs)
	eng := engine.New(reg, logger)

	gw, err := telegram.New(cfg.BotToken, logger)
	if err != nil {
		logger.Fatal("telegram gateway", zap.Error(err))
	}

	sched := scheduler.New(eng, logger, func(job model.ReminderJob) {
		out := dialog.Outbound{UserID: job.UserID, Text: dialog.ReminderText(job, cfg.ReminderAfter)}
		if err := gw.Send(out); err != nil {
			logger.Warn("charging reminder delivery failed",
				zap.Int64("user_id", job.UserID), zap.Error(err))
		}
	})
	defer sched.Stop()
	if err := sched.StartDailyReset(cfg.ResetTZ, cfg.ResetHour, cfg.ResetMinute, eng.ResetAll); err != nil {
		logger.Fatal("daily reset job", zap.Error(err))
	}

	machine := dialog.New(dialog.Deps{
		Registry:      reg,
		Engine:        eng,
		Gate:          gate,
		Phones:        phones,
		AllowList:     allowList,
		Scheduler:     sched,
		Normalizer:    auth.Normalizer{CountryCode: cfg.CountryCode, TrunkPrefix: cfg.TrunkPrefix},
		Messenger:     gw,
		Logger:        logger,
		ReminderAfter: cfg.ReminderAfter,
		EventsEnabled: cfg.EventsEnabled,
	})

	// Slot events: audit consumer runs only when publishing is on.
	if cfg.EventsEnabled {
		go func() {
			if err := queue.StartEventConsumer(); err != nil {
				logger.Warn("event consumer stopped", zap.Error(err))
			}
		}()
	}

	// Register the webhook when a public URL is configured; local runs
	// can point Telegram at a tunnel by hand instead.
	if base := os.Getenv("WEBHOOK_URL"); base != "" {
		if err := gw.RegisterWebhook(base+"/webhook", cfg.WebhookSecret); err != nil {
			logger.Fatal("register webhook", zap.Error(err))
		}
	}

	e := echo.New()
	e.HideBanner = true
	wh := handler.NewWebhookHandler(machine, cfg.WebhookSecret, logger)
	router.RegisterRoutes(e, wh, config.LoadRateLimitConfig(), config.NewRedisClient())

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// newLogger builds the zap logger for the environment: JSON at Info in
// prod, console at Debug otherwise.
func newLogger(env string) *zap.Logger {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return logger
}
