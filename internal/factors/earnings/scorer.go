// Package earnings computes the proximity-to-earnings confidence
// schedule (spec §4.1): an imminent earnings date can force HOLD and
// always dampens confidence by a fixed schedule the closer it gets.
package earnings

import "github.com/samhoi-x/compass/internal/domain"

// Score classifies days-until-earnings into the EarningsInput the
// fusion engine reads. daysAway < 0 means unknown/no scheduled date.
func Score(daysAway int) domain.EarningsInput {
	if daysAway < 0 {
		return domain.EarningsInput{IsToday: false, DaysAway: -1, Multiplier: 1.0}
	}

	isToday := daysAway == 0
	var multiplier float64
	switch {
	case daysAway == 0:
		multiplier = 0.30
	case daysAway <= 3:
		multiplier = 0.50
	case daysAway <= 7:
		multiplier = 0.75
	case daysAway <= 14:
		multiplier = 0.90
	default:
		multiplier = 1.00
	}

	return domain.EarningsInput{IsToday: isToday, DaysAway: daysAway, Multiplier: multiplier}
}
