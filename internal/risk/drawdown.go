package risk

import (
	"fmt"
	"time"

	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/pkg/formulas"
)

// DrawdownGate implements spec §4.5's four-tier drawdown status:
// OK below the warning threshold, WARNING halves new position sizing,
// HALT blocks new BUYs, CRITICAL signals a 25% reduce-to-cash. alert,
// when non-nil, is a RiskAlert ready to persist at the severity the
// tier implies (nil at OK, since OK is not alert-worthy).
func DrawdownGate(params config.RiskParams, equityCurve []float64, now time.Time) (domain.DrawdownStatus, *domain.RiskAlert) {
	metrics := formulas.CalculateDrawdownMetrics(equityCurve)
	drawdown := 0.0
	if metrics != nil {
		drawdown = metrics.CurrentDrawdown
	}

	status := domain.DrawdownStatus{Drawdown: drawdown}

	switch {
	case drawdown >= params.DrawdownReduce:
		status.Level = domain.DrawdownCritical
		status.ReduceToCash = true
		status.BlockNewBuys = true
	case drawdown >= params.DrawdownHalt:
		status.Level = domain.DrawdownHalt
		status.BlockNewBuys = true
	case drawdown >= params.DrawdownWarning:
		status.Level = domain.DrawdownWarning
		status.HalveNewPositions = true
	default:
		status.Level = domain.DrawdownOK
		return status, nil
	}

	severity := domain.SeverityWarning
	switch status.Level {
	case domain.DrawdownHalt:
		severity = domain.SeverityHigh
	case domain.DrawdownCritical:
		severity = domain.SeverityCritical
	}

	alert := &domain.RiskAlert{
		Type:      "drawdown_" + string(status.Level),
		Severity:  severity,
		Message:   fmt.Sprintf("portfolio drawdown %.1f%% crossed into %s", drawdown*100, status.Level),
		CreatedAt: now,
	}

	return status, alert
}
