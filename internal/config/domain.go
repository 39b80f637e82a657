package config

import "github.com/samhoi-x/compass/internal/domain"

// SignalWeights is the configured prior for {technical, sentiment,
// ml, macro}; it must sum to 1.
type SignalWeights struct {
	Technical float64 `json:"technical"`
	Sentiment float64 `json:"sentiment"`
	ML        float64 `json:"ml"`
	Macro     float64 `json:"macro"`
}

// BaseThresholds is the spec §4.3 starting point before adaptive
// adjustment.
type BaseThresholds struct {
	BuyThreshold  float64 `json:"buy_threshold"`
	BuyConfMin    float64 `json:"buy_confidence_min"`
	SellThreshold float64 `json:"sell_threshold"`
	SellConfMin   float64 `json:"sell_confidence_min"`
}

// RiskParams mirrors spec §6 `risk.*`.
type RiskParams struct {
	MaxSinglePosition  float64 `json:"max_single_position"`
	MaxCryptoAllocation float64 `json:"max_crypto_allocation"`
	MaxTradeRisk       float64 `json:"max_trade_risk"`
	MinCashReserve     float64 `json:"min_cash_reserve"`
	DrawdownWarning    float64 `json:"drawdown_warning"`
	DrawdownHalt       float64 `json:"drawdown_halt"`
	DrawdownReduce     float64 `json:"drawdown_reduce"`
}

// StopLossParams mirrors spec §6 `stop_loss.*`.
type StopLossParams struct {
	ATRMultiplier float64 `json:"atr_multiplier"`
	Percentage    float64 `json:"percentage"`
	Trailing      float64 `json:"trailing"`
}

// MLParams mirrors spec §6 `ml_params.*`.
type MLParams struct {
	RetrainIntervalDays int `json:"retrain_interval_days"`
	ForwardDays         int `json:"forward_days"`
	LSTMWindow          int `json:"lstm_window"`
}

// Watchlists mirrors spec §6 `watchlist_stocks`/`watchlist_crypto`.
type Watchlists struct {
	Stocks []string `json:"watchlist_stocks"`
	Crypto []string `json:"watchlist_crypto"`
}

// DefaultSignalWeights returns the spec's configured prior.
func DefaultSignalWeights() SignalWeights {
	return SignalWeights{Technical: 0.35, Sentiment: 0.25, ML: 0.25, Macro: 0.15}
}

// DefaultBaseThresholds returns the spec §4.3 base thresholds.
func DefaultBaseThresholds() BaseThresholds {
	return BaseThresholds{
		BuyThreshold:  0.30,
		BuyConfMin:    0.65,
		SellThreshold: -0.20,
		SellConfMin:   0.50,
	}
}

// DefaultRiskParams returns spec §6 defaults.
func DefaultRiskParams() RiskParams {
	return RiskParams{
		MaxSinglePosition:   0.15,
		MaxCryptoAllocation: 0.30,
		MaxTradeRisk:        0.01,
		MinCashReserve:      0.10,
		DrawdownWarning:     0.08,
		DrawdownHalt:        0.12,
		DrawdownReduce:      0.15,
	}
}

// DefaultStopLossParams returns spec §6 defaults.
func DefaultStopLossParams() StopLossParams {
	return StopLossParams{ATRMultiplier: 2.0, Percentage: 0.05, Trailing: 0.07}
}

// DefaultMLParams returns spec §6 defaults.
func DefaultMLParams() MLParams {
	return MLParams{RetrainIntervalDays: 60, ForwardDays: 5, LSTMWindow: 60}
}

// TradingParams configures the paper-trading engine and the
// backtester's entry sizing (spec §4.6/§4.7, not individually named
// constants in the spec — chosen defaults recorded as an Open
// Question decision in DESIGN.md).
type TradingParams struct {
	InitialCapital  float64 `json:"initial_capital"`
	PositionSizePct float64 `json:"position_size_pct"`
	Commission      float64 `json:"commission"`
}

// DefaultTradingParams returns the chosen defaults: $100,000 starting
// capital, 10% of capital per new position, 10bps commission.
func DefaultTradingParams() TradingParams {
	return TradingParams{InitialCapital: 100000, PositionSizePct: 0.10, Commission: 0.001}
}

// ToWeights converts the configured prior into a domain.Weights value.
func (w SignalWeights) ToWeights() domain.Weights {
	return domain.Weights{Technical: w.Technical, Sentiment: w.Sentiment, ML: w.ML, Macro: w.Macro}
}

// ToThresholds converts the base thresholds into a domain.Thresholds value.
func (b BaseThresholds) ToThresholds() domain.Thresholds {
	return domain.Thresholds{
		BuyThreshold:  b.BuyThreshold,
		BuyConfMin:    b.BuyConfMin,
		SellThreshold: b.SellThreshold,
		SellConfMin:   b.SellConfMin,
	}
}
