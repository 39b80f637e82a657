package domain

import "time"

// Direction is the directional call a Signal carries.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
	Hold Direction = "HOLD"
)

// SignalKind distinguishes how a Signal came to exist.
type SignalKind string

const (
	SignalScheduled SignalKind = "scheduled"
	SignalOnDemand  SignalKind = "on-demand"
	SignalCombined  SignalKind = "combined"
)

// AssetClass distinguishes equities from crypto pairs; crypto symbols
// skip equity-only factors (analyst, earnings, short interest, options).
type AssetClass string

const (
	AssetEquity AssetClass = "equity"
	AssetCrypto AssetClass = "crypto"
)

// RiskLevel labels how aggressively a Signal should be acted on.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// MacroRegime is the coarse risk regime used by adaptive thresholds
// and the intermarket factor.
type MacroRegime string

const (
	RegimeRiskOn       MacroRegime = "RISK_ON"
	RegimeConstructive MacroRegime = "CONSTRUCTIVE"
	RegimeNeutral      MacroRegime = "NEUTRAL"
	RegimeCautious     MacroRegime = "CAUTIOUS"
	RegimeRiskOff      MacroRegime = "RISK_OFF"
)

// BreadthRegime labels the health of market breadth.
type BreadthRegime string

const (
	BreadthPoor    BreadthRegime = "POOR"
	BreadthWeak    BreadthRegime = "WEAK"
	BreadthNeutral BreadthRegime = "NEUTRAL"
	BreadthHealthy BreadthRegime = "HEALTHY"
)

// Signal is the immutable record of one fusion decision. Outcome
// fields are nil until the accuracy tracker evaluates the signal;
// nothing else ever mutates a persisted Signal.
type Signal struct {
	ID               int64
	Symbol           string
	Kind             SignalKind
	Direction        Direction
	Strength         float64 // composite score, [-1,1]
	Confidence       float64 // [0,1]
	TechnicalScore   float64
	SentimentScore   float64
	MLScore          float64
	MacroScore       float64
	HasMacro         bool
	MacroRegime      MacroRegime
	CreatedAt        time.Time
	Return5d         *float64
	Return10d        *float64
	Correct          *int // 0 or 1
	OutcomeCheckedAt *time.Time
}

// CacheClass names a family of cached payloads, each with its own TTL.
type CacheClass string

const (
	CachePrice        CacheClass = "price"
	CacheNews         CacheClass = "news"
	CacheSentiment    CacheClass = "sentiment"
	CacheMLPrediction CacheClass = "ml_prediction"
	CacheMacro        CacheClass = "macro"
	CacheBreadth      CacheClass = "breadth"
	CacheCrossAsset   CacheClass = "cross_asset"
	CacheFearGreed    CacheClass = "fear_greed"
	CacheAnalyst      CacheClass = "analyst"
	CacheEarnings     CacheClass = "earnings"
	CacheOptions      CacheClass = "options"
	CacheShortInt     CacheClass = "short_interest"
	CacheSector       CacheClass = "sector"
	CacheAdaptiveWts  CacheClass = "adaptive_weights"
)

// CacheEntry is a TTL-governed cached payload, keyed by class, symbol
// and an optional sub-key (e.g. a date range digest).
type CacheEntry struct {
	Class     CacheClass
	Symbol    string
	SubKey    string
	Payload   []byte
	FetchedAt time.Time
}

// OHLCVBar is one day of price history, naive-UTC indexed.
type OHLCVBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Holding is a portfolio position row, upserted by transaction.
type Holding struct {
	Symbol     string
	AssetClass AssetClass
	Quantity   float64
	AvgCost    float64
	Sector     string
	StopLoss   *float64
}

// TxAction is the side of a Transaction or PaperTrade.
type TxAction string

const (
	ActionBuy  TxAction = "BUY"
	ActionSell TxAction = "SELL"
	ActionStop TxAction = "STOP"
)

// Transaction is an append-only log row of portfolio actions.
type Transaction struct {
	ID         int64
	Symbol     string
	Action     TxAction
	Quantity   float64
	Price      float64
	Note       string
	ExecutedAt time.Time
}

// PaperPositionStatus is the lifecycle state of a PaperPosition.
type PaperPositionStatus string

const (
	PaperOpen   PaperPositionStatus = "open"
	PaperClosed PaperPositionStatus = "closed"
)

// PaperPosition is the state of one virtual trade held by the
// paper-trading engine. Exactly one open row exists per symbol at
// any moment; HighestPrice is monotonically non-decreasing while open.
type PaperPosition struct {
	ID             int64
	Symbol         string
	EntryDate      time.Time
	EntryPrice     float64
	Quantity       float64
	StopLoss       float64
	TrailingStop   float64
	HighestPrice   float64
	Status         PaperPositionStatus
	OpenedAt       time.Time
	ClosedAt       *time.Time
	ClosePrice     *float64
	RealizedPnL    *float64
}

// PaperTrade is an append-only execution log row of the paper engine.
type PaperTrade struct {
	ID         int64
	Symbol     string
	Action     TxAction
	Price      float64
	Quantity   float64
	PnL        float64
	Reason     string
	ExecutedAt time.Time
}

// BacktestResult persists the summary metrics of one backtest run.
type BacktestResult struct {
	ID            int64
	Name          string
	ConfigJSON    string
	TotalReturn   float64
	AnnualReturn  float64
	Sharpe        float64
	Sortino       float64
	Calmar        float64
	MaxDrawdown   float64
	VaR95         float64
	CVaR95        float64
	WinRate       float64
	TradeCount    int
	EquityCurveJSON string
	CreatedAt     time.Time
}

// AlertSeverity ranks a RiskAlert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// RiskAlert is a persisted, acknowledgeable risk event.
type RiskAlert struct {
	ID           int64
	Type         string
	Severity     AlertSeverity
	Message      string
	Symbol       string
	CreatedAt    time.Time
	Acknowledged bool
}

// Setting is a named, JSON-encoded configuration override.
type Setting struct {
	Name      string
	ValueJSON string
	UpdatedAt time.Time
}
