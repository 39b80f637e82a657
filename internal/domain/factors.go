package domain

// FactorInput is the common shape every factor feeds the fusion
// engine: a bounded score, a confidence, and factor-specific metadata.
// Optional factors are modelled as *FactorInput so the "absent macro
// redistributes weight" rule is explicit at the type level instead of
// relying on a sentinel zero-confidence stub.
type FactorInput struct {
	Score      float64
	Confidence float64
	Meta       map[string]any
}

// MultiTimeframeInput carries the extra alignment signal the
// multi-timeframe factor contributes on top of score/confidence.
type MultiTimeframeInput struct {
	FactorInput
	Alignment float64 // [0,1], how aligned timeframes are
}

// EarningsInput describes proximity to the next earnings event.
type EarningsInput struct {
	IsToday    bool
	DaysAway   int // -1 if unknown
	Multiplier float64
}

// BreadthInput carries the breadth regime only: breadth has no score
// or confidence of its own and contributes no term to the composite,
// only a confidence multiplier.
type BreadthInput struct {
	Regime BreadthRegime
}

// IntermarketInput carries the macro-regime label the factor reads to
// decide its confidence multiplier, plus its blend score.
type IntermarketInput struct {
	FactorInput
	Regime MacroRegime
}

// SectorRotationState labels a security's sector rotation state.
type SectorRotationState string

const (
	SectorLeading SectorRotationState = "LEADING"
	SectorLagging SectorRotationState = "LAGGING"
	SectorNeutral SectorRotationState = "NEUTRAL"
)

type SectorInput struct {
	State SectorRotationState
}

// ShortInterestState labels whether a symbol is squeeze-prone.
type ShortInterestState string

const (
	ShortSqueeze ShortInterestState = "SQUEEZE"
	ShortNormal  ShortInterestState = "NORMAL"
)

type ShortInterestInput struct {
	FactorInput
	State ShortInterestState
}

// OptionsInput carries the options-positioning blend score.
type OptionsInput struct {
	FactorInput
}

// AnalystInput carries the analyst-consensus blend score plus the
// number of ratings backing it (tracked but, per the spec's Open
// Question, not used to taper the fixed 0.30 blend weight).
type AnalystInput struct {
	FactorInput
	TotalRatings int
	StronglyAligned bool
}

// FearGreedInput is the contrarian fear/greed reading.
type FearGreedInput struct {
	FactorInput
}

// FusionInputs bundles every factor the combiner accepts for one
// symbol. Required factors are plain FactorInput; optional ones are
// pointers and nil means "absent, skip and redistribute/neutral".
type FusionInputs struct {
	Symbol    string
	Asset     AssetClass
	Technical FactorInput
	Sentiment FactorInput
	ML        FactorInput
	Macro     *FactorInput

	MultiTimeframe *MultiTimeframeInput
	Earnings       *EarningsInput
	Breadth        *BreadthInput
	Analyst        *AnalystInput
	Intermarket    *IntermarketInput
	FearGreed      *FearGreedInput
	Sector         *SectorInput
	ShortInterest  *ShortInterestInput
	Options        *OptionsInput

	MacroRegime   MacroRegime
	BreadthRegime BreadthRegime
}

// AppliedAdjustment is a human-readable record of one blend/penalty
// step the fusion engine applied, for FusionDiagnostics.
type AppliedAdjustment struct {
	Step   string
	Before float64
	After  float64
	Detail string
}

// Weights is the {technical, sentiment, ml, macro} combiner weight
// set; it always sums to 1 after redistribution.
type Weights struct {
	Technical float64
	Sentiment float64
	ML        float64
	Macro     float64
}

// Thresholds is the adaptive BUY/SELL decision boundary set.
type Thresholds struct {
	BuyThreshold  float64
	BuyConfMin    float64
	SellThreshold float64
	SellConfMin   float64
}

// FusionDiagnostics is the non-authoritative explain-trace returned
// alongside a Signal: weights used, thresholds, per-factor scores after
// blending, and the adjustments applied. BaseThresholds and
// EffectiveThresholds both hold the thresholds passed to Combine, so
// they are always equal; the scheduler passes thresholds already
// adjusted by adaptive.AdjustThresholds, and the unadjusted base set is
// not recorded here.
type FusionDiagnostics struct {
	WeightsUsed       Weights
	BaseThresholds    Thresholds
	EffectiveThresholds Thresholds
	PostBlendScores   map[string]float64
	Adjustments       []AppliedAdjustment
	RiskLevel         RiskLevel
	EarningsWarning   bool
}

// FusionResult bundles the produced Signal with its diagnostics; the
// scheduler persists the Signal and logs/attaches the diagnostics.
type FusionResult struct {
	Signal      Signal
	Diagnostics FusionDiagnostics
}
