package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/internal/events"
	"github.com/samhoi-x/compass/internal/factors/analyst"
	"github.com/samhoi-x/compass/internal/factors/earnings"
	mlfactor "github.com/samhoi-x/compass/internal/factors/ml"
	"github.com/samhoi-x/compass/internal/factors/multitimeframe"
	"github.com/samhoi-x/compass/internal/factors/options"
	"github.com/samhoi-x/compass/internal/factors/sector"
	sentimentfactor "github.com/samhoi-x/compass/internal/factors/sentiment"
	"github.com/samhoi-x/compass/internal/factors/shortinterest"
	"github.com/samhoi-x/compass/internal/factors/technical"
	"github.com/samhoi-x/compass/internal/fusion"
	"github.com/samhoi-x/compass/pkg/formulas"
)

// watchSymbol pairs a symbol with the asset class driving which
// factors apply to it (spec §4.12: crypto skips the equity-only
// factors).
type watchSymbol struct {
	symbol string
	asset  domain.AssetClass
}

// safePriceMap collects the last traded price seen for each symbol
// during a scan's fan-out, for the single post-loop paper-engine tick.
type safePriceMap struct {
	mu sync.Mutex
	m  map[string]float64
}

func newSafePriceMap() *safePriceMap {
	return &safePriceMap{m: make(map[string]float64)}
}

func (s *safePriceMap) set(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[symbol] = price
}

func (s *safePriceMap) snapshot() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.m))
	for k, v := range s.m {
		out[k] = v
	}
	return out
}

// processSymbol runs one symbol through every applicable factor,
// fuses them, persists and notifies, and ticks the paper engine (spec
// §4.4 steps 3-4). Errors from any individual factor degrade that
// factor to absent/neutral rather than aborting the symbol.
func (j *ScanJob) processSymbol(ctx context.Context, sym watchSymbol, now time.Time, g globalSignals, t tunables, prices *safePriceMap) {
	log := j.log.With().Str("symbol", sym.symbol).Logger()

	priceSource := j.cfg.EquitySource
	if sym.asset == domain.AssetCrypto {
		priceSource = j.cfg.CryptoSource
	}

	var bars []domain.OHLCVBar
	err := j.cfg.Cache.GetOrFetch(domain.CachePrice, sym.symbol, string(sym.asset), &bars, func() (any, error) {
		if lim := j.cfg.Limiters.For("price"); lim != nil {
			if err := lim.Acquire(ctx); err != nil {
				return nil, err
			}
		}
		return priceSource.Fetch(ctx, sym.symbol, 400*24*time.Hour)
	})
	if err != nil || len(bars) < 20 {
		log.Warn().Err(err).Msg("insufficient price history, skipping symbol this scan")
		return
	}
	if err := j.cfg.Prices.UpsertBatch(sym.symbol, sym.asset, bars); err != nil {
		log.Warn().Err(err).Msg("failed to persist price history")
	}

	techResult := technical.Score(bars)
	mtf := multitimeframe.Score(bars)
	highs, lows, closes := splitOHLC(bars)
	atr := formulas.ATRFromBars(highs, lows, closes)

	sentimentInput, err := j.sentimentFactor(ctx, sym)
	if err != nil {
		log.Debug().Err(err).Msg("sentiment factor unavailable, using neutral")
		sentimentInput = domain.FactorInput{Score: 0, Confidence: 0}
	}

	mlInput, err := j.mlFactor(ctx, sym.symbol, bars, t.ML)
	if err != nil {
		log.Debug().Err(err).Msg("ml factor unavailable, using neutral")
		mlInput = domain.FactorInput{Score: 0, Confidence: 0}
	}

	in := domain.FusionInputs{
		Symbol:        sym.symbol,
		Asset:         sym.asset,
		Technical:     techResult.FactorInput,
		Sentiment:     sentimentInput,
		ML:            mlInput,
		Macro:         g.macro,
		MultiTimeframe: &mtf,
		Breadth:       &domain.BreadthInput{Regime: g.breadthRegime},
		Intermarket:   &g.intermarket,
		MacroRegime:   g.macroRegime,
		BreadthRegime: g.breadthRegime,
	}
	if fg, ok := g.fearGreed[sym.asset]; ok {
		in.FearGreed = &fg
	}
	if sym.asset == domain.AssetEquity {
		j.equityOnlyFactors(ctx, sym.symbol, &in)
	}

	weights := t.Weights.ToWeights()
	thresholds := t.Thresholds.ToThresholds()
	result := fusion.Combine(in, weights, thresholds, domain.SignalScheduled, now)

	persisted, err := j.cfg.Signals.Insert(result.Signal)
	if err != nil {
		log.Error().Err(err).Msg("failed to persist signal")
		return
	}
	j.cfg.Events.Emit(events.SignalPersisted, "scheduler", map[string]interface{}{
		"symbol": sym.symbol, "direction": string(persisted.Direction), "strength": persisted.Strength,
	})

	if persisted.Direction == domain.Buy || persisted.Direction == domain.Sell {
		msg := fmt.Sprintf("%s %s strength=%.2f confidence=%.2f", persisted.Direction, sym.symbol, persisted.Strength, persisted.Confidence)
		if err := j.cfg.Notifier.Send(ctx, "signals", msg); err != nil {
			log.Warn().Err(err).Msg("signal notification failed")
		}
	}

	currentPrice := bars[len(bars)-1].Close
	prices.set(sym.symbol, currentPrice)

	if trade, err := j.cfg.Paper.ProcessSignal(persisted, sym.asset, currentPrice, atr, now); err != nil {
		log.Error().Err(err).Msg("paper engine failed to process signal")
	} else if trade != nil {
		j.cfg.Events.Emit(events.PositionOpened, "scheduler", map[string]interface{}{"symbol": sym.symbol, "action": string(trade.Action)})
	}
}

func (j *ScanJob) equityOnlyFactors(ctx context.Context, symbol string, in *domain.FusionInputs) {
	var days int
	if err := j.cfg.Cache.GetOrFetch(domain.CacheEarnings, symbol, "", &days, func() (any, error) {
		return j.cfg.MarketData.DaysToEarnings(ctx, symbol)
	}); err == nil {
		ei := earnings.Score(days)
		in.Earnings = &ei
	}

	var ratings []float64
	if err := j.cfg.Cache.GetOrFetch(domain.CacheAnalyst, symbol, "", &ratings, func() (any, error) {
		return j.cfg.MarketData.AnalystRatings(ctx, symbol)
	}); err == nil && len(ratings) > 0 {
		ai := analyst.Score(ratings)
		in.Analyst = &ai
	}

	type sectorPayload struct{ SectorReturn, MarketReturn float64 }
	var sp sectorPayload
	if err := j.cfg.Cache.GetOrFetch(domain.CacheSector, symbol, "", &sp, func() (any, error) {
		sr, mr, ferr := j.cfg.MarketData.SectorReturns(ctx, symbol)
		return sectorPayload{SectorReturn: sr, MarketReturn: mr}, ferr
	}); err == nil {
		si := sector.Score(sp.SectorReturn, sp.MarketReturn)
		in.Sector = &si
	}

	type shortPayload struct{ Ratio, PriorRatio, PercentFloat float64 }
	var shp shortPayload
	if err := j.cfg.Cache.GetOrFetch(domain.CacheShortInt, symbol, "", &shp, func() (any, error) {
		r, p, pf, ferr := j.cfg.MarketData.ShortInterest(ctx, symbol)
		return shortPayload{Ratio: r, PriorRatio: p, PercentFloat: pf}, ferr
	}); err == nil {
		shi := shortinterest.Score(shp.Ratio, shp.PriorRatio, shp.PercentFloat)
		in.ShortInterest = &shi
	}

	var pcr float64
	if err := j.cfg.Cache.GetOrFetch(domain.CacheOptions, symbol, "", &pcr, func() (any, error) {
		return j.cfg.MarketData.PutCallRatio(ctx, symbol)
	}); err == nil {
		oi := options.Score(pcr)
		in.Options = &oi
	}
}

// sentimentFactor fetches news/social/short-message text and scores it
// through the sentiment model, cached as one composite unit (spec §6's
// 60-minute "sentiment" class; the nested news fetch is cached
// separately at its own 30-minute TTL).
func (j *ScanJob) sentimentFactor(ctx context.Context, sym watchSymbol) (domain.FactorInput, error) {
	var out domain.FactorInput
	err := j.cfg.Cache.GetOrFetch(domain.CacheSentiment, sym.symbol, "", &out, func() (any, error) {
		news, _ := cachedNews(ctx, j.cfg, sym.symbol)
		social, err := j.cfg.Social.FetchPosts(ctx, sym.symbol, sym.asset)
		if err != nil {
			social = nil
		}
		shortMsgs, err := j.cfg.Social.FetchShortMessages(ctx, sym.symbol)
		if err != nil {
			shortMsgs = nil
		}
		return sentimentfactor.Score(ctx, j.cfg.Sentiment, news, social, shortMsgs)
	})
	return out, err
}

// mlFactor predicts through both configured scorers, cached as the
// spec's 120-minute "ml_prediction" class.
func (j *ScanJob) mlFactor(ctx context.Context, symbol string, bars []domain.OHLCVBar, ml config.MLParams) (domain.FactorInput, error) {
	var out domain.FactorInput
	retrain := time.Duration(ml.RetrainIntervalDays) * 24 * time.Hour
	err := j.cfg.Cache.GetOrFetch(domain.CacheMLPrediction, symbol, "", &out, func() (any, error) {
		return mlfactor.Score(ctx, j.cfg.XGB, j.cfg.LSTM, symbol, bars, retrain)
	})
	return out, err
}

func splitOHLC(bars []domain.OHLCVBar) (highs, lows, closes []float64) {
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	closes = make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}
	return highs, lows, closes
}
