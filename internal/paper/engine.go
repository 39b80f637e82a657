// Package paper implements the paper-trading state machine (spec
// §4.6): a signal handler with strict invariants around cash and
// position uniqueness, driven entirely through two small
// dependency-injected storage interfaces so it is testable without a
// database.
package paper

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/internal/errs"
	"github.com/samhoi-x/compass/internal/risk"
)

// PositionStore is the slice of PaperPositionRepository the engine
// needs.
type PositionStore interface {
	GetOpen(symbol string) (*domain.PaperPosition, error)
	AllOpen() ([]domain.PaperPosition, error)
	Insert(p domain.PaperPosition) (domain.PaperPosition, error)
	UpdateStops(id int64, highestPrice, trailingStop float64) error
	Close(id int64, closed domain.PaperPosition) error
}

// TradeStore is the slice of PaperTradeRepository the engine needs.
type TradeStore interface {
	Insert(t domain.PaperTrade) (domain.PaperTrade, error)
	All() ([]domain.PaperTrade, error)
}

// Engine is the paper-trading state machine. Cash is never stored
// directly: it is always initial_capital minus the cost basis of
// currently open positions (spec §8's invariant), so it is derived
// from PositionStore on every query instead of drifting out of sync.
type Engine struct {
	positions PositionStore
	trades    TradeStore
	log       zerolog.Logger
	trading   config.TradingParams
	stopLoss  config.StopLossParams
}

// NewEngine wires the engine to its storage and configured parameters.
func NewEngine(positions PositionStore, trades TradeStore, trading config.TradingParams, stopLoss config.StopLossParams, log zerolog.Logger) *Engine {
	return &Engine{positions: positions, trades: trades, trading: trading, stopLoss: stopLoss, log: log.With().Str("component", "paper_engine").Logger()}
}

// AvailableCash returns initial_capital minus the cost basis of every
// open position.
func (e *Engine) AvailableCash() (float64, error) {
	open, err := e.positions.AllOpen()
	if err != nil {
		return 0, fmt.Errorf("failed to load open positions: %w", err)
	}
	cash := e.trading.InitialCapital
	for _, p := range open {
		cash -= p.EntryPrice * p.Quantity
	}
	return cash, nil
}

// ProcessSignal implements the per-signal state transitions: BUY opens
// a new position when none is open for the symbol and cash covers the
// sized cost; SELL closes an existing open position at the current
// price; HOLD and a BUY/SELL with no matching precondition are no-ops
// that return (nil, nil) — partial application is never allowed.
func (e *Engine) ProcessSignal(signal domain.Signal, asset domain.AssetClass, currentPrice float64, atr *float64, now time.Time) (*domain.PaperTrade, error) {
	existing, err := e.positions.GetOpen(signal.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to check open position for %s: %w", signal.Symbol, err)
	}

	switch signal.Direction {
	case domain.Buy:
		if existing != nil {
			return nil, nil
		}
		return e.open(signal.Symbol, asset, currentPrice, atr, now)
	case domain.Sell:
		if existing == nil {
			return nil, nil
		}
		return e.closePosition(*existing, currentPrice, domain.ActionSell, "signal", now)
	default:
		return nil, nil
	}
}

func (e *Engine) open(symbol string, asset domain.AssetClass, price float64, atr *float64, now time.Time) (*domain.PaperTrade, error) {
	if price <= 0 {
		return nil, &errs.BadInput{Field: "currentPrice", Reason: "must be positive"}
	}

	cash, err := e.AvailableCash()
	if err != nil {
		return nil, err
	}

	targetValue := e.trading.PositionSizePct * e.trading.InitialCapital
	if targetValue > cash {
		targetValue = cash
	}
	if targetValue <= 0 {
		return nil, nil
	}

	var quantity float64
	if asset == domain.AssetCrypto {
		quantity = math.Floor(targetValue/price*10000) / 10000
	} else {
		quantity = math.Floor(targetValue / price)
	}
	if quantity <= 0 {
		return nil, nil
	}

	cost := quantity * price
	if cost > cash {
		return nil, nil
	}

	stops := risk.ComputeStopLoss(e.stopLoss, price, atr)
	fixedStop := stops.PercentageStop
	if stops.ATRStop != nil {
		fixedStop = *stops.ATRStop
	}

	pos := domain.PaperPosition{
		Symbol:       symbol,
		EntryDate:    now,
		EntryPrice:   price,
		Quantity:     quantity,
		StopLoss:     fixedStop,
		TrailingStop: stops.TrailingStop,
		HighestPrice: price,
		Status:       domain.PaperOpen,
		OpenedAt:     now,
	}
	pos, err = e.positions.Insert(pos)
	if err != nil {
		return nil, fmt.Errorf("failed to open paper position for %s: %w", symbol, err)
	}

	trade := domain.PaperTrade{
		Symbol: symbol, Action: domain.ActionBuy, Price: price, Quantity: quantity,
		PnL: 0, Reason: "signal", ExecutedAt: now,
	}
	inserted, err := e.trades.Insert(trade)
	if err != nil {
		return nil, fmt.Errorf("failed to log BUY trade for %s: %w", symbol, err)
	}
	e.log.Info().Str("symbol", symbol).Int64("position_id", pos.ID).Float64("quantity", quantity).Float64("price", price).Msg("paper position opened")
	return &inserted, nil
}

func (e *Engine) closePosition(pos domain.PaperPosition, price float64, action domain.TxAction, reason string, now time.Time) (*domain.PaperTrade, error) {
	if pos.Quantity < 0 {
		return nil, &errs.InternalInvariantViolation{Invariant: "paper position quantity >= 0", Detail: fmt.Sprintf("symbol=%s quantity=%.6f", pos.Symbol, pos.Quantity)}
	}

	pnl := (price-pos.EntryPrice)*pos.Quantity - e.trading.Commission*pos.Quantity*price
	closedAt := now
	closePrice := price
	if err := e.positions.Close(pos.ID, domain.PaperPosition{ClosedAt: &closedAt, ClosePrice: &closePrice, RealizedPnL: &pnl}); err != nil {
		return nil, fmt.Errorf("failed to close paper position %d: %w", pos.ID, err)
	}

	trade := domain.PaperTrade{
		Symbol: pos.Symbol, Action: action, Price: price, Quantity: pos.Quantity,
		PnL: pnl, Reason: reason, ExecutedAt: now,
	}
	inserted, err := e.trades.Insert(trade)
	if err != nil {
		return nil, fmt.Errorf("failed to log %s trade for %s: %w", action, pos.Symbol, err)
	}
	e.log.Info().Str("symbol", pos.Symbol).Str("reason", reason).Float64("pnl", pnl).Msg("paper position closed")
	return &inserted, nil
}

// UpdatePositions is the tick handler invoked once per scan with the
// latest price for every open position (spec §4.6): it lifts the
// trailing stop on a new high, then closes any position whose price
// has fallen to or below max(stop, trailing-stop).
func (e *Engine) UpdatePositions(priceMap map[string]float64, now time.Time) ([]domain.PaperTrade, error) {
	open, err := e.positions.AllOpen()
	if err != nil {
		return nil, fmt.Errorf("failed to load open positions: %w", err)
	}

	var closed []domain.PaperTrade
	for _, pos := range open {
		price, ok := priceMap[pos.Symbol]
		if !ok {
			continue
		}

		highest := pos.HighestPrice
		trailing := pos.TrailingStop
		if price > highest {
			highest = price
			trailing = highest * (1 - e.stopLoss.Trailing)
		}

		effectiveStop := pos.StopLoss
		if trailing > effectiveStop {
			effectiveStop = trailing
		}

		if price <= effectiveStop {
			trade, err := e.closePosition(pos, price, domain.ActionStop, "stop", now)
			if err != nil {
				return closed, err
			}
			if trade != nil {
				closed = append(closed, *trade)
			}
			continue
		}

		if highest != pos.HighestPrice || trailing != pos.TrailingStop {
			if err := e.positions.UpdateStops(pos.ID, highest, trailing); err != nil {
				return closed, fmt.Errorf("failed to update stops for %s: %w", pos.Symbol, err)
			}
		}
	}
	return closed, nil
}

// PositionSummary is one open position's standing as of the last tick.
type PositionSummary struct {
	Symbol            string
	Quantity          float64
	EntryPrice        float64
	CurrentPrice      float64
	UnrealizedPnL     float64
	DistanceToStopPct float64
}

// PortfolioSummary is the spec §4.6 portfolio summary: cash, invested
// value, realised and unrealised PnL, and per-position stop distance.
type PortfolioSummary struct {
	Cash          float64
	InvestedValue float64
	RealizedPnL   float64
	UnrealizedPnL float64
	Positions     []PositionSummary
}

// Summary computes the current portfolio summary using the last known
// price for each open position (falling back to entry price when a
// symbol is missing from priceMap).
func (e *Engine) Summary(priceMap map[string]float64) (PortfolioSummary, error) {
	open, err := e.positions.AllOpen()
	if err != nil {
		return PortfolioSummary{}, fmt.Errorf("failed to load open positions: %w", err)
	}
	trades, err := e.trades.All()
	if err != nil {
		return PortfolioSummary{}, fmt.Errorf("failed to load trade log: %w", err)
	}

	realized := 0.0
	for _, t := range trades {
		if t.Action == domain.ActionSell || t.Action == domain.ActionStop {
			realized += t.PnL
		}
	}

	summary := PortfolioSummary{Cash: e.trading.InitialCapital}
	for _, p := range open {
		summary.Cash -= p.EntryPrice * p.Quantity

		price := p.EntryPrice
		if v, ok := priceMap[p.Symbol]; ok {
			price = v
		}
		summary.InvestedValue += price * p.Quantity
		unrealized := (price - p.EntryPrice) * p.Quantity
		summary.UnrealizedPnL += unrealized

		effectiveStop := p.StopLoss
		if p.TrailingStop > effectiveStop {
			effectiveStop = p.TrailingStop
		}
		distance := 0.0
		if price > 0 {
			distance = (price - effectiveStop) / price
		}

		summary.Positions = append(summary.Positions, PositionSummary{
			Symbol: p.Symbol, Quantity: p.Quantity, EntryPrice: p.EntryPrice,
			CurrentPrice: price, UnrealizedPnL: unrealized, DistanceToStopPct: distance,
		})
	}

	summary.RealizedPnL = realized
	return summary, nil
}
