package domain

// PositionLimitCheck is the result of check_position_limits: zero or
// more violations/warnings, never an error — the caller decides what
// to do with them.
type PositionLimitCheck struct {
	Violations []string
	Warnings   []string
}

// OK reports whether the check found no blocking violations.
func (c PositionLimitCheck) OK() bool { return len(c.Violations) == 0 }

// StopLossCandidates is every computed candidate stop plus the one
// selected (the tightest, i.e. highest, of the available candidates).
type StopLossCandidates struct {
	ATRStop        *float64
	PercentageStop float64
	TrailingStop   float64
	Selected       float64
}

// DrawdownStatusLevel is the four-tier drawdown gate state.
type DrawdownStatusLevel string

const (
	DrawdownOK       DrawdownStatusLevel = "OK"
	DrawdownWarning  DrawdownStatusLevel = "WARNING"
	DrawdownHalt     DrawdownStatusLevel = "HALT"
	DrawdownCritical DrawdownStatusLevel = "CRITICAL"
)

// DrawdownStatus is the result of the drawdown gate: the current
// drawdown, its tier, and the position-sizing consequence that tier
// implies.
type DrawdownStatus struct {
	Drawdown          float64
	Level             DrawdownStatusLevel
	BlockNewBuys      bool
	HalveNewPositions bool
	ReduceToCash      bool
}

// ActionPlan is the concrete, risk-gated trade specification produced
// from a BUY/SELL signal (spec §4.5, §9 — explicit sum type in place
// of a dict-shaped return value).
type ActionPlan struct {
	Symbol        string
	Direction     Direction
	Blocked       bool
	BlockedReason string

	EntryPrice    float64
	StopPrice     float64
	StopDistance  float64
	StopPct       float64
	TargetPrice   float64
	Shares        float64
	PositionValue float64
	DollarRisk    float64

	Warnings []string
}
