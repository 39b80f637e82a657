package risk

import (
	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
)

// ComputeStopLoss implements spec §4.5's three-candidate stop-loss
// computation: ATR-based, percentage and trailing, selecting the
// tightest (highest) of whichever are available. atr is nil when ATR
// could not be computed (insufficient bar history), in which case the
// ATR-based candidate is simply omitted.
func ComputeStopLoss(params config.StopLossParams, entry float64, atr *float64) domain.StopLossCandidates {
	pctStop := entry * (1 - params.Percentage)
	trailingStop := entry * (1 - params.Trailing)

	selected := pctStop
	if trailingStop > selected {
		selected = trailingStop
	}

	var atrStop *float64
	if atr != nil {
		v := entry - params.ATRMultiplier*(*atr)
		atrStop = &v
		if v > selected {
			selected = v
		}
	}

	return domain.StopLossCandidates{
		ATRStop:        atrStop,
		PercentageStop: pctStop,
		TrailingStop:   trailingStop,
		Selected:       selected,
	}
}
