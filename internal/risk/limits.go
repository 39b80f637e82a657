// Package risk implements the stateless position-sizing, stop-loss,
// drawdown-gate and action-plan functions of spec §4.5. Every function
// here is pure: it takes portfolio state and a candidate signal and
// returns a result, the way the fusion engine takes factor inputs and
// returns a Signal — no I/O, no persistence, the caller wires in
// current portfolio/price data read from the repositories.
package risk

import (
	"fmt"

	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
)

// CheckPositionLimits implements spec §4.5's check_position_limits:
// a single position over 15% of portfolio value is a violation; a new
// crypto position that would push total crypto exposure over 30% is a
// violation; a hard-stop dollar risk (sized at the configured
// stop-loss percentage) over 1% of portfolio value is a warning.
func CheckPositionLimits(params config.RiskParams, stopLoss config.StopLossParams, symbol string, proposedValue, portfolioValue float64, asset domain.AssetClass, currentCryptoValue float64) domain.PositionLimitCheck {
	var out domain.PositionLimitCheck
	if portfolioValue <= 0 {
		out.Violations = append(out.Violations, "portfolio value is zero or negative")
		return out
	}

	if proposedValue/portfolioValue > params.MaxSinglePosition {
		out.Violations = append(out.Violations, fmt.Sprintf(
			"%s position of %.2f exceeds max single position of %.0f%% of portfolio",
			symbol, proposedValue, params.MaxSinglePosition*100))
	}

	if asset == domain.AssetCrypto {
		totalCrypto := currentCryptoValue + proposedValue
		if totalCrypto/portfolioValue > params.MaxCryptoAllocation {
			out.Violations = append(out.Violations, fmt.Sprintf(
				"adding %s would push total crypto exposure to %.1f%%, over the %.0f%% cap",
				symbol, totalCrypto/portfolioValue*100, params.MaxCryptoAllocation*100))
		}
	}

	hardStopRisk := proposedValue * stopLoss.Percentage
	if hardStopRisk/portfolioValue > params.MaxTradeRisk {
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"hard-stop dollar risk of %.2f exceeds %.1f%% of portfolio", hardStopRisk, params.MaxTradeRisk*100))
	}

	return out
}

// CheckCashReserve implements spec §4.5's cash reserve gate: BUYs are
// blocked unless cash is at least the configured minimum share of
// portfolio value.
func CheckCashReserve(params config.RiskParams, cash, portfolioValue float64) (ok bool, reason string) {
	if portfolioValue <= 0 {
		return false, "portfolio value is zero or negative"
	}
	if cash/portfolioValue < params.MinCashReserve {
		return false, fmt.Sprintf("cash reserve %.1f%% is below the required minimum of %.0f%%",
			cash/portfolioValue*100, params.MinCashReserve*100)
	}
	return true, ""
}
