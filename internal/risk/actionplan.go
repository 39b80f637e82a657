package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
)

// PortfolioState is the subset of live portfolio state the action
// plan needs, gathered by the caller from the holdings/paper
// repositories before calling GenerateActionPlan.
type PortfolioState struct {
	PortfolioValue     float64
	Cash               float64
	EquityCurve        []float64
	CurrentCryptoValue float64
}

// GenerateActionPlan implements spec §4.5's action plan generation:
// both BUY and SELL signals run through the same stop/sizing/shares/
// target-price pipeline, only the target-price sign differs (entry ±
// 2·stop-distance). The drawdown and cash-reserve gates only ever
// demote a BUY — a SELL (reducing exposure) is never blocked by them.
func GenerateActionPlan(riskParams config.RiskParams, stopLossParams config.StopLossParams, signal domain.Signal, currentPrice float64, atr *float64, asset domain.AssetClass, state PortfolioState, now time.Time) (domain.ActionPlan, *domain.RiskAlert) {
	plan := domain.ActionPlan{
		Symbol:     signal.Symbol,
		Direction:  signal.Direction,
		EntryPrice: currentPrice,
	}

	drawdownStatus, alert := DrawdownGate(riskParams, state.EquityCurve, now)

	if signal.Direction != domain.Buy && signal.Direction != domain.Sell {
		plan.Blocked = true
		plan.BlockedReason = "signal is not actionable (HOLD)"
		return plan, alert
	}

	if signal.Direction == domain.Buy {
		if drawdownStatus.BlockNewBuys {
			plan.Blocked = true
			plan.BlockedReason = fmt.Sprintf("drawdown gate at %s blocks new BUYs", drawdownStatus.Level)
			return plan, alert
		}

		if ok, reason := CheckCashReserve(riskParams, state.Cash, state.PortfolioValue); !ok {
			plan.Blocked = true
			plan.BlockedReason = reason
			return plan, alert
		}
	}

	stops := ComputeStopLoss(stopLossParams, currentPrice, atr)
	plan.StopPrice = stops.Selected
	plan.StopDistance = math.Abs(currentPrice - stops.Selected)
	if currentPrice > 0 {
		plan.StopPct = plan.StopDistance / currentPrice
	}
	if plan.StopPct <= 0 {
		plan.Blocked = true
		plan.BlockedReason = "computed stop distance is non-positive"
		return plan, alert
	}

	riskBudget := riskParams.MaxTradeRisk * state.PortfolioValue
	positionValue := riskBudget / plan.StopPct

	if cap := riskParams.MaxSinglePosition * state.PortfolioValue; positionValue > cap {
		positionValue = cap
	}
	if cap := 0.90 * state.Cash; positionValue > cap {
		positionValue = cap
	}
	if positionValue < 0 {
		positionValue = 0
	}
	if signal.Direction == domain.Buy && drawdownStatus.HalveNewPositions {
		positionValue /= 2
	}

	shares := positionValue / currentPrice
	if asset == domain.AssetCrypto {
		shares = math.Floor(shares*10000) / 10000
	} else {
		shares = math.Floor(shares)
	}
	plan.Shares = shares
	plan.PositionValue = shares * currentPrice
	plan.DollarRisk = shares * plan.StopDistance
	if signal.Direction == domain.Buy {
		plan.TargetPrice = currentPrice + 2*plan.StopDistance
	} else {
		plan.TargetPrice = currentPrice - 2*plan.StopDistance
	}

	limitCheck := CheckPositionLimits(riskParams, stopLossParams, signal.Symbol, plan.PositionValue, state.PortfolioValue, asset, state.CurrentCryptoValue)
	plan.Warnings = append(plan.Warnings, limitCheck.Warnings...)
	if !limitCheck.OK() {
		plan.Blocked = true
		plan.BlockedReason = limitCheck.Violations[0]
		return plan, alert
	}

	if shares <= 0 {
		plan.Blocked = true
		plan.BlockedReason = "sized position rounds down to zero shares"
	}

	return plan, alert
}
