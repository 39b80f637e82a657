// Package sector labels a security's sector as leading, lagging or
// neutral relative to the broad market, from trailing relative
// performance.
package sector

import "github.com/samhoi-x/compass/internal/domain"

// Score classifies a sector's trailing relative return against the
// broad market into a rotation state.
func Score(sectorReturn, marketReturn float64) domain.SectorInput {
	relative := sectorReturn - marketReturn
	switch {
	case relative >= 0.02:
		return domain.SectorInput{State: domain.SectorLeading}
	case relative <= -0.02:
		return domain.SectorInput{State: domain.SectorLagging}
	default:
		return domain.SectorInput{State: domain.SectorNeutral}
	}
}

// Adjustment is the fixed composite nudge the fusion engine applies
// (spec §4.1): ±0.05 for leading/lagging, none for neutral.
func Adjustment(state domain.SectorRotationState) float64 {
	switch state {
	case domain.SectorLeading:
		return 0.05
	case domain.SectorLagging:
		return -0.05
	default:
		return 0
	}
}
