// Package backtest implements the event-driven backtester (spec
// §4.7): a single chronological pass over a multi-symbol OHLCV
// history that mark-to-markets every open position, maintains
// trailing stops, gates new entries under a drawdown halt, and sizes
// entries the same way the spec's backtester describes (distinct from
// the live risk manager's action-plan sizing in internal/risk, which
// the backtester does not call — only its stop-loss arithmetic is
// shared).
package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/internal/external"
	"github.com/samhoi-x/compass/internal/factors/ml"
	"github.com/samhoi-x/compass/internal/factors/technical"
	"github.com/samhoi-x/compass/internal/fusion"
	"github.com/samhoi-x/compass/pkg/formulas"
)

// Mode selects the scoring function the backtester drives entries
// from.
type Mode string

const (
	ModeTechnical Mode = "technical"
	ModeAI        Mode = "ai"
)

// Score is a scoring function's result: a composite in [-1,1] and a
// confidence in [0,1], evaluated from bar history up to and including
// "today" only — no look-ahead.
type Score struct {
	Value      float64
	Confidence float64
}

// ScoreFunc computes a Score from a symbol's history. The caller must
// never pass bars beyond the evaluation date.
type ScoreFunc func(ctx context.Context, symbol string, history []domain.OHLCVBar) (Score, error)

// TechnicalScoreFunc is the default scoring function: the technical
// factor alone, unfused.
func TechnicalScoreFunc() ScoreFunc {
	return func(_ context.Context, _ string, history []domain.OHLCVBar) (Score, error) {
		r := technical.Score(history)
		return Score{Value: r.Score, Confidence: r.Confidence}, nil
	}
}

// AIScoreFunc composes the technical and ML factors through the
// fusion engine, per spec §4.7's "ai" mode. Sentiment gets a neutral
// placeholder (score 0, confidence 0); macro and every optional factor
// are left absent, so fusion redistributes the macro weight across
// technical, sentiment and ML as it does whenever macro is unavailable.
func AIScoreFunc(xgb, lstm external.MLScorer, weights domain.Weights, thresholds domain.Thresholds, retrainInterval time.Duration) ScoreFunc {
	neutral := domain.FactorInput{Score: 0, Confidence: 0}
	return func(ctx context.Context, symbol string, history []domain.OHLCVBar) (Score, error) {
		tech := technical.Score(history)
		mlFactor, err := ml.Score(ctx, xgb, lstm, symbol, history, retrainInterval)
		if err != nil {
			mlFactor = neutral
		}
		inputs := domain.FusionInputs{
			Symbol: symbol, Asset: domain.AssetEquity,
			Technical: tech.FactorInput, Sentiment: neutral, ML: mlFactor,
			MacroRegime: domain.RegimeNeutral, BreadthRegime: domain.BreadthNeutral,
		}
		asOf := history[len(history)-1].Date
		result := fusion.Combine(inputs, weights, thresholds, domain.SignalCombined, asOf)
		return Score{Value: result.Signal.Strength, Confidence: result.Signal.Confidence}, nil
	}
}

// Config parameterizes one backtest run.
type Config struct {
	Mode       Mode
	ScoreFunc  ScoreFunc // overrides the mode default when set
	Weights    domain.Weights
	Thresholds domain.Thresholds
	StopLoss   config.StopLossParams
	Trading    config.TradingParams
	Risk       config.RiskParams
	Assets     map[string]domain.AssetClass // defaults to AssetEquity when absent

	// MinHistoryBars is the minimum bar count before a symbol is
	// eligible for a new entry (spec §4.7: "require >= 200 bars").
	MinHistoryBars int
}

func (c Config) scoreFunc() ScoreFunc {
	if c.ScoreFunc != nil {
		return c.ScoreFunc
	}
	return TechnicalScoreFunc()
}

func (c Config) minHistory() int {
	if c.MinHistoryBars > 0 {
		return c.MinHistoryBars
	}
	return 200
}

func (c Config) assetFor(symbol string) domain.AssetClass {
	if a, ok := c.Assets[symbol]; ok {
		return a
	}
	return domain.AssetEquity
}

// Trade is one closed or opened round-trip leg logged by the
// backtester.
type Trade struct {
	Symbol   string
	Action   domain.TxAction
	Date     time.Time
	Price    float64
	Quantity float64
	PnL      float64
	Reason   string
}

// Result is one backtest run's equity curve, trade log and metrics.
type Result struct {
	Dates       []time.Time
	EquityCurve []float64
	Trades      []Trade
	Metrics     Metrics
}

type openPosition struct {
	EntryDate    time.Time
	EntryPrice   float64
	Quantity     float64
	StopLoss     float64
	TrailingStop float64
	HighestPrice float64
}

// Run executes the event-driven backtest over data (symbol -> sorted
// OHLCV history) and returns the resulting equity curve, trade log and
// metrics. Per-symbol scoring failures are isolated: a symbol with a
// failing scorer on a given bar is simply skipped for that bar's entry
// decision, never aborting the run.
func Run(ctx context.Context, data map[string][]domain.OHLCVBar, cfg Config) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("backtest requires at least one symbol's history")
	}

	dates := unionDates(data)
	if len(dates) == 0 {
		return Result{}, fmt.Errorf("backtest requires at least one trading day")
	}

	indexByDate := make(map[string]map[time.Time]int, len(data))
	for sym, bars := range data {
		sorted := append([]domain.OHLCVBar(nil), bars...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
		data[sym] = sorted
		idx := make(map[time.Time]int, len(sorted))
		for i, b := range sorted {
			idx[b.Date] = i
		}
		indexByDate[sym] = idx
	}

	score := cfg.scoreFunc()
	minHistory := cfg.minHistory()

	cash := cfg.Trading.InitialCapital
	open := map[string]*openPosition{}
	lastPrice := map[string]float64{}

	benchmarkShares := map[string]float64{}
	if len(data) > 0 {
		allocPerSymbol := cfg.Trading.InitialCapital / float64(len(data))
		for sym, bars := range data {
			if len(bars) > 0 && bars[0].Close > 0 {
				benchmarkShares[sym] = allocPerSymbol / bars[0].Close
			}
		}
	}

	var equityCurve, benchmarkCurve []float64
	var trades []Trade
	peak := cfg.Trading.InitialCapital

	for _, date := range dates {
		for sym, idx := range indexByDate {
			if i, ok := idx[date]; ok {
				lastPrice[sym] = data[sym][i].Close
			}
		}

		value := cash
		for sym, pos := range open {
			value += pos.Quantity * lastPrice[sym]
		}
		equityCurve = append(equityCurve, value)
		if value > peak {
			peak = value
		}

		benchValue := 0.0
		for sym, shares := range benchmarkShares {
			benchValue += shares * lastPrice[sym]
		}
		benchmarkCurve = append(benchmarkCurve, benchValue)

		for sym, pos := range open {
			i, ok := indexByDate[sym][date]
			if !ok {
				continue
			}
			price := data[sym][i].Close
			if price > pos.HighestPrice {
				pos.HighestPrice = price
				pos.TrailingStop = price * (1 - cfg.StopLoss.Trailing)
			}
			effectiveStop := pos.StopLoss
			if pos.TrailingStop > effectiveStop {
				effectiveStop = pos.TrailingStop
			}
			if price <= effectiveStop {
				pnl := (price-pos.EntryPrice)*pos.Quantity - cfg.Trading.Commission*pos.Quantity*price
				cash += pos.Quantity*price - cfg.Trading.Commission*pos.Quantity*price
				trades = append(trades, Trade{Symbol: sym, Action: domain.ActionStop, Date: date, Price: price, Quantity: pos.Quantity, PnL: pnl, Reason: "stop"})
				delete(open, sym)
			}
		}

		drawdown := 0.0
		if peak > 0 {
			drawdown = (peak - value) / peak
		}
		skipEntries := drawdown >= cfg.Risk.DrawdownHalt

		for sym, bars := range data {
			i, ok := indexByDate[sym][date]
			if !ok {
				continue
			}
			price := bars[i].Close

			if pos, isOpen := open[sym]; isOpen {
				s, err := score(ctx, sym, bars[:i+1])
				if err == nil && s.Value < cfg.Thresholds.SellThreshold && s.Confidence >= cfg.Thresholds.SellConfMin {
					pnl := (price-pos.EntryPrice)*pos.Quantity - cfg.Trading.Commission*pos.Quantity*price
					cash += pos.Quantity*price - cfg.Trading.Commission*pos.Quantity*price
					trades = append(trades, Trade{Symbol: sym, Action: domain.ActionSell, Date: date, Price: price, Quantity: pos.Quantity, PnL: pnl, Reason: "signal"})
					delete(open, sym)
				}
				continue
			}

			if skipEntries || i+1 < minHistory {
				continue
			}

			s, err := score(ctx, sym, bars[:i+1])
			if err != nil {
				continue
			}
			if !(s.Value > cfg.Thresholds.BuyThreshold && s.Confidence >= cfg.Thresholds.BuyConfMin) {
				continue
			}

			positionValue := cfg.Trading.PositionSizePct * value
			if positionValue > cash {
				positionValue = cash
			}
			if positionValue <= 0 {
				continue
			}

			var quantity float64
			if cfg.assetFor(sym) == domain.AssetCrypto {
				quantity = math.Floor(positionValue/price*10000) / 10000
			} else {
				quantity = math.Floor(positionValue / price)
			}
			if quantity <= 0 {
				continue
			}

			closes, highs, lows := splitOHLC(bars[:i+1])
			atr := formulas.CalculateATR(highs, lows, closes, 14)
			stopPrice := price * (1 - cfg.StopLoss.Percentage)
			if atr != nil {
				stopPrice = price - cfg.StopLoss.ATRMultiplier*(*atr)
			}

			cost := quantity * price
			cash -= cost
			open[sym] = &openPosition{
				EntryDate: date, EntryPrice: price, Quantity: quantity,
				StopLoss: stopPrice, TrailingStop: price * (1 - cfg.StopLoss.Trailing), HighestPrice: price,
			}
			trades = append(trades, Trade{Symbol: sym, Action: domain.ActionBuy, Date: date, Price: price, Quantity: quantity, Reason: "signal"})
		}
	}

	lastDate := dates[len(dates)-1]
	for sym, pos := range open {
		price := lastPrice[sym]
		pnl := (price-pos.EntryPrice)*pos.Quantity - cfg.Trading.Commission*pos.Quantity*price
		cash += pos.Quantity*price - cfg.Trading.Commission*pos.Quantity*price
		trades = append(trades, Trade{Symbol: sym, Action: domain.ActionSell, Date: lastDate, Price: price, Quantity: pos.Quantity, PnL: pnl, Reason: "end_of_series"})
	}
	if len(open) > 0 && len(equityCurve) > 0 {
		equityCurve[len(equityCurve)-1] = cash
	}

	metrics := computeMetrics(equityCurve, trades, benchmarkCurve)

	return Result{Dates: dates, EquityCurve: equityCurve, Trades: trades, Metrics: metrics}, nil
}

func unionDates(data map[string][]domain.OHLCVBar) []time.Time {
	seen := map[time.Time]struct{}{}
	for _, bars := range data {
		for _, b := range bars {
			seen[b.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func splitOHLC(bars []domain.OHLCVBar) (closes, highs, lows []float64) {
	closes = make([]float64, len(bars))
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}
	return
}
