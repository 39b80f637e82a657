package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samhoi-x/compass/internal/accuracy"
	"github.com/samhoi-x/compass/internal/cache"
	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/database"
	"github.com/samhoi-x/compass/internal/database/repositories"
	"github.com/samhoi-x/compass/internal/events"
	"github.com/samhoi-x/compass/internal/external"
	"github.com/samhoi-x/compass/internal/paper"
	"github.com/samhoi-x/compass/internal/ratelimit"
	"github.com/samhoi-x/compass/internal/scheduler"
	"github.com/samhoi-x/compass/internal/server"
	"github.com/samhoi-x/compass/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{Level: "info", Pretty: true}).Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting compass")

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	settings := repositories.NewSettingRepository(db.Conn(), log)
	if err := config.Defaults(settings); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default settings")
	}

	signals := repositories.NewSignalRepository(db.Conn(), log)
	priceBars := repositories.NewPriceBarRepository(db.Conn(), log)
	alerts := repositories.NewRiskAlertRepository(db.Conn(), log)
	backtests := repositories.NewBacktestRepository(db.Conn(), log)
	positions := repositories.NewPaperPositionRepository(db.Conn(), log)
	trades := repositories.NewPaperTradeRepository(db.Conn(), log)
	cacheRepo := repositories.NewCacheRepository(db.Conn(), log)

	tradingParams := config.DefaultTradingParams()
	if _, err := settings.GetJSON(config.KeyTradingParams, &tradingParams); err != nil {
		log.Warn().Err(err).Msg("failed to load trading params, using defaults")
	}
	stopLossParams := config.DefaultStopLossParams()
	if _, err := settings.GetJSON(config.KeyStopLossParams, &stopLossParams); err != nil {
		log.Warn().Err(err).Msg("failed to load stop-loss params, using defaults")
	}

	engine := paper.NewEngine(positions, trades, tradingParams, stopLossParams, log)
	tracker := accuracy.New(signals, priceBars, log)
	cacheStore := cache.New(cacheRepo, log)
	eventBus := events.NewManager(log)

	limiters := ratelimit.NewRegistry()
	limiters.Register("price", 5, 10)
	limiters.Register("news", 2, 5)
	limiters.Register("social", 2, 5)

	scanJob := scheduler.NewScanJob(scheduler.ScanConfig{
		Log:          log,
		Cache:        cacheStore,
		EquitySource: external.NewReferencePriceSource(log),
		CryptoSource: external.NewReferencePriceSource(log),
		News:         external.NewReferenceNewsSource(log),
		Social:       external.NewReferenceSocialSource(log),
		Sentiment:    external.NewReferenceSentimentModel(log),
		XGB:          external.NewReferenceXGBScorer(log),
		LSTM:         external.NewReferenceLSTMScorer(log),
		MarketData:   external.NewReferenceMarketDataProvider(log),
		Notifier:     external.NewReferenceNotifier(log),
		Signals:      signals,
		Prices:       priceBars,
		Alerts:       alerts,
		Settings:     settings,
		Paper:        engine,
		Accuracy:     tracker,
		Events:       eventBus,
		Limiters:     limiters,
		WorkerLimit:  cfg.WorkerPoolSize,
	})

	sched := scheduler.New(cfg.ScanInterval, scanJob, log)
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DevMode:   cfg.DevMode,
		Signals:   signals,
		Prices:    priceBars,
		Alerts:    alerts,
		Settings:  settings,
		Backtests: backtests,
		Positions: positions,
		Trades:    trades,
		Paper:     engine,
		Scheduler: sched,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("compass started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("stopped")
}
