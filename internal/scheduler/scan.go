package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/samhoi-x/compass/internal/accuracy"
	"github.com/samhoi-x/compass/internal/adaptive"
	"github.com/samhoi-x/compass/internal/cache"
	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/internal/events"
	"github.com/samhoi-x/compass/internal/external"
	"github.com/samhoi-x/compass/internal/paper"
	"github.com/samhoi-x/compass/internal/ratelimit"
	"github.com/samhoi-x/compass/internal/risk"
)

const (
	keyPortfolioPeak     = "portfolio_peak_value"
	keyLastDailySummary  = "last_daily_summary_date"
	defaultWorkerLimit   = 8
	weightLearningWindow = 90 * 24 * time.Hour
)

// SignalStore is the slice of SignalRepository the scheduler needs.
type SignalStore interface {
	Insert(s domain.Signal) (domain.Signal, error)
	EvaluatedSince(since time.Time) ([]domain.Signal, error)
}

// PriceStore is the slice of PriceBarRepository the scheduler needs.
type PriceStore interface {
	UpsertBatch(symbol string, asset domain.AssetClass, bars []domain.OHLCVBar) error
}

// AlertStore is the slice of RiskAlertRepository the scheduler needs.
type AlertStore interface {
	Insert(a domain.RiskAlert) (domain.RiskAlert, error)
}

// ScanConfig bundles every collaborator one scan needs (spec §4.4).
type ScanConfig struct {
	Log zerolog.Logger

	Cache *cache.Cache

	EquitySource external.PriceSource
	CryptoSource external.PriceSource
	News         external.NewsSource
	Social       external.SocialSource
	Sentiment    external.SentimentModel
	XGB          external.MLScorer
	LSTM         external.MLScorer
	MarketData   external.MarketDataProvider
	Notifier     external.Notifier

	Signals  SignalStore
	Prices   PriceStore
	Alerts   AlertStore
	Settings SettingsStore

	Paper    *paper.Engine
	Accuracy *accuracy.Tracker
	Events   *events.Manager
	Limiters *ratelimit.Registry

	// WorkerLimit bounds per-symbol fan-out concurrency (spec §4.4,
	// <= 8). Zero means defaultWorkerLimit.
	WorkerLimit int

	// Now overrides the scan clock; nil means time.Now.
	Now func() time.Time
}

// ScanJob is the top-level orchestrator for one scan cycle.
type ScanJob struct {
	cfg ScanConfig
	log zerolog.Logger
}

func NewScanJob(cfg ScanConfig) *ScanJob {
	if cfg.WorkerLimit <= 0 {
		cfg.WorkerLimit = defaultWorkerLimit
	}
	if cfg.WorkerLimit > defaultWorkerLimit {
		cfg.WorkerLimit = defaultWorkerLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ScanJob{cfg: cfg, log: cfg.Log.With().Str("component", "scan").Logger()}
}

func (j *ScanJob) Name() string { return "scan" }
func (j *ScanJob) Run() error   { return j.RunScan(context.Background()) }

// RunScan executes one full scan cycle (spec §4.4): accuracy
// evaluation, global signal fetch, bounded per-symbol fan-out, a
// single portfolio-wide paper-position tick, drawdown gating, and a
// once-daily summary notification.
func (j *ScanJob) RunScan(ctx context.Context) error {
	now := j.cfg.Now()
	j.cfg.Events.Emit(events.ScanStarted, "scheduler", nil)

	if res, err := j.cfg.Accuracy.Run(now); err != nil {
		j.log.Error().Err(err).Msg("accuracy evaluation pass failed")
	} else {
		j.log.Info().Int("evaluated", res.Evaluated).Int("left_pending", res.LeftPending).
			Msg("accuracy evaluation pass complete")
		j.cfg.Events.Emit(events.AccuracyEvaluated, "scheduler", map[string]interface{}{
			"evaluated": res.Evaluated, "left_pending": res.LeftPending,
		})
	}

	t := loadTunables(j.cfg.Settings)
	g := j.fetchGlobalSignals(ctx)

	weights := j.loadWeights(t.Weights.ToWeights())
	t.Weights = config.SignalWeights{Technical: weights.Technical, Sentiment: weights.Sentiment, ML: weights.ML, Macro: weights.Macro}

	thresholds, adjustments := adaptive.AdjustThresholds(t.Thresholds.ToThresholds(), g.vixLevel, g.macroRegime, g.breadthRegime)
	if len(adjustments) > 0 {
		j.log.Debug().Interface("adjustments", adjustments).Msg("adaptive thresholds adjusted")
	}
	t.Thresholds = config.BaseThresholds{
		BuyThreshold: thresholds.BuyThreshold, BuyConfMin: thresholds.BuyConfMin,
		SellThreshold: thresholds.SellThreshold, SellConfMin: thresholds.SellConfMin,
	}

	symbols := make([]watchSymbol, 0, len(t.Watchlists.Stocks)+len(t.Watchlists.Crypto))
	for _, s := range t.Watchlists.Stocks {
		symbols = append(symbols, watchSymbol{symbol: s, asset: domain.AssetEquity})
	}
	for _, s := range t.Watchlists.Crypto {
		symbols = append(symbols, watchSymbol{symbol: s, asset: domain.AssetCrypto})
	}

	prices := newSafePriceMap()
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(j.cfg.WorkerLimit)
	for _, sym := range symbols {
		sym := sym
		group.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			j.processSymbol(gctx, sym, now, g, t, prices)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		j.log.Warn().Err(err).Msg("scan cancelled before every symbol completed")
	}

	priceMap := prices.snapshot()
	if closed, err := j.cfg.Paper.UpdatePositions(priceMap, now); err != nil {
		j.log.Error().Err(err).Msg("failed to update paper positions")
	} else {
		for _, trade := range closed {
			j.cfg.Events.Emit(events.PositionClosed, "scheduler", map[string]interface{}{
				"symbol": trade.Symbol, "pnl": trade.PnL, "reason": trade.Reason,
			})
		}
	}

	j.maybeRaiseDrawdownAlert(t.Risk, priceMap, now)
	j.maybeEmitDailySummary(priceMap, now)

	j.cfg.Events.Emit(events.ScanCompleted, "scheduler", map[string]interface{}{"symbols": len(symbols)})
	return ctx.Err()
}

// loadWeights recomputes adaptive weights from the correlation learner
// (spec §4.2), cached at its own 1-hour TTL. Falls back to the
// configured priors on any failure.
func (j *ScanJob) loadWeights(priors domain.Weights) domain.Weights {
	var w domain.Weights
	err := j.cfg.Cache.GetOrFetch(domain.CacheAdaptiveWts, "global", "", &w, func() (any, error) {
		since := j.cfg.Now().Add(-weightLearningWindow)
		evaluated, ferr := j.cfg.Signals.EvaluatedSince(since)
		if ferr != nil {
			return domain.Weights{}, ferr
		}
		samples := make([]adaptive.EvaluatedSample, 0, len(evaluated))
		for _, s := range evaluated {
			if s.Correct == nil {
				continue
			}
			samples = append(samples, adaptive.EvaluatedSample{
				Direction: s.Direction, Correct: *s.Correct == 1,
				TechnicalScore: s.TechnicalScore, SentimentScore: s.SentimentScore, MLScore: s.MLScore,
			})
		}
		return adaptive.LearnWeights(samples, priors), nil
	})
	if err != nil {
		j.log.Warn().Err(err).Msg("adaptive weight learning unavailable, using configured priors")
		return priors
	}
	return w
}

// maybeRaiseDrawdownAlert persists a running portfolio peak in the
// Settings table and feeds [peak, current] to the drawdown gate: the
// same running-peak algorithm the backtester's full equity curve
// uses, seeded with one external point instead of full history.
func (j *ScanJob) maybeRaiseDrawdownAlert(riskParams config.RiskParams, priceMap map[string]float64, now time.Time) {
	summary, err := j.cfg.Paper.Summary(priceMap)
	if err != nil {
		j.log.Warn().Err(err).Msg("failed to compute portfolio summary for drawdown check")
		return
	}
	currentValue := summary.Cash + summary.InvestedValue

	var peak float64
	_, _ = j.cfg.Settings.GetJSON(keyPortfolioPeak, &peak)
	if currentValue > peak {
		peak = currentValue
	}
	if err := j.cfg.Settings.Put(keyPortfolioPeak, peak); err != nil {
		j.log.Warn().Err(err).Msg("failed to persist portfolio peak value")
	}

	status, alert := risk.DrawdownGate(riskParams, []float64{peak, currentValue}, now)
	if alert == nil {
		return
	}
	if _, err := j.cfg.Alerts.Insert(*alert); err != nil {
		j.log.Error().Err(err).Msg("failed to persist risk alert")
	}
	j.cfg.Events.Emit(events.RiskAlertRaised, "scheduler", map[string]interface{}{
		"level": string(status.Level), "drawdown": status.Drawdown,
	})
	if status.Level == domain.DrawdownHalt || status.Level == domain.DrawdownCritical {
		j.cfg.Events.Emit(events.DrawdownHalted, "scheduler", map[string]interface{}{"level": string(status.Level)})
	}
}

// maybeEmitDailySummary sends one notification per calendar day
// (UTC), tracked by a persisted date string rather than a separate
// cron entry so it rides the same scan cadence.
func (j *ScanJob) maybeEmitDailySummary(priceMap map[string]float64, now time.Time) {
	today := now.UTC().Format("2006-01-02")
	var lastDate string
	_, _ = j.cfg.Settings.GetJSON(keyLastDailySummary, &lastDate)
	if lastDate == today {
		return
	}

	summary, err := j.cfg.Paper.Summary(priceMap)
	if err != nil {
		j.log.Warn().Err(err).Msg("failed to build daily summary")
		return
	}
	msg := fmt.Sprintf("Daily summary %s: cash=%.2f invested=%.2f realized_pnl=%.2f unrealized_pnl=%.2f open_positions=%d",
		today, summary.Cash, summary.InvestedValue, summary.RealizedPnL, summary.UnrealizedPnL, len(summary.Positions))
	if err := j.cfg.Notifier.Send(context.Background(), "daily-summary", msg); err != nil {
		j.log.Warn().Err(err).Msg("daily summary notification failed")
	}
	j.cfg.Events.Emit(events.DailySummary, "scheduler", map[string]interface{}{"date": today})
	if err := j.cfg.Settings.Put(keyLastDailySummary, today); err != nil {
		j.log.Warn().Err(err).Msg("failed to persist daily summary date")
	}
}
