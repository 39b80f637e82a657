package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/samhoi-x/compass/internal/accuracy"
	"github.com/samhoi-x/compass/internal/cache"
	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/database"
	"github.com/samhoi-x/compass/internal/database/repositories"
	"github.com/samhoi-x/compass/internal/events"
	"github.com/samhoi-x/compass/internal/external"
	"github.com/samhoi-x/compass/internal/paper"
	"github.com/samhoi-x/compass/internal/ratelimit"
)

// buildTestJob wires a ScanJob against a fresh in-memory SQLite
// database and the deterministic reference external collaborators,
// the same shape cmd/server/main.go wires in production, so the scan
// pipeline is exercised end to end without any network dependency.
func buildTestJob(t *testing.T) (*ScanJob, *repositories.SettingRepository, *repositories.RiskAlertRepository) {
	t.Helper()
	log := zerolog.Nop()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	// A single shared connection: SQLite's ":memory:" database only
	// lives as long as its connection, so the pool must never hand out
	// a second one pointing at an empty database.
	db.Conn().SetMaxOpenConns(1)
	require.NoError(t, db.Migrate())

	settings := repositories.NewSettingRepository(db.Conn(), log)
	signals := repositories.NewSignalRepository(db.Conn(), log)
	priceBars := repositories.NewPriceBarRepository(db.Conn(), log)
	alerts := repositories.NewRiskAlertRepository(db.Conn(), log)
	positions := repositories.NewPaperPositionRepository(db.Conn(), log)
	trades := repositories.NewPaperTradeRepository(db.Conn(), log)
	cacheRepo := repositories.NewCacheRepository(db.Conn(), log)

	engine := paper.NewEngine(positions, trades, config.DefaultTradingParams(), config.DefaultStopLossParams(), log)
	tracker := accuracy.New(signals, priceBars, log)
	c := cache.New(cacheRepo, log)

	cfg := ScanConfig{
		Log:          log,
		Cache:        c,
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
		Events:       events.NewManager(log),
		Limiters:     ratelimit.NewRegistry(),
		WorkerLimit:  4,
		Now:          func() time.Time { return time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC) },
	}
	return NewScanJob(cfg), settings, alerts
}

func TestRunScan_CompletesAndRecordsDailySummary(t *testing.T) {
	job, settings, _ := buildTestJob(t)

	require.NoError(t, settings.Put(config.KeyWatchlists, config.Watchlists{Stocks: []string{"AAPL"}}))

	err := job.RunScan(context.Background())
	require.NoError(t, err)

	var seenDate string
	found, err := settings.GetJSON(keyLastDailySummary, &seenDate)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "2026-01-15", seenDate)
}

func TestRunScan_StopsBeforeStartingNextSymbolWhenCancelled(t *testing.T) {
	job, settings, _ := buildTestJob(t)

	require.NoError(t, settings.Put(config.KeyWatchlists, config.Watchlists{Stocks: []string{"AAPL", "MSFT", "GOOGL"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := job.RunScan(ctx)
	require.Error(t, err)
}

func TestRunScan_SecondCallSameDaySkipsDailySummary(t *testing.T) {
	job, settings, _ := buildTestJob(t)
	require.NoError(t, settings.Put(config.KeyWatchlists, config.Watchlists{Stocks: []string{"AAPL"}}))

	require.NoError(t, job.RunScan(context.Background()))
	require.NoError(t, job.RunScan(context.Background()))

	var seenDate string
	_, err := settings.GetJSON(keyLastDailySummary, &seenDate)
	require.NoError(t, err)
	require.Equal(t, "2026-01-15", seenDate)
}
