package rewards

import (
	"campusbites/internal/apperr"
	"campusbites/internal/models"
)

// totalWeight sums the catalog's probability weights.
func totalWeight(catalog []models.Reward) int {
	total := 0
	for _, r := range catalog {
		total += r.Probability
	}
	return total
}

// pickReward maps a draw in [0, totalWeight) onto the catalog using
// cumulative half-open ranges: an entry with weight w owns the next w
// integers. Entries with zero weight own an empty range and can never
// win. A single pass, no allocation.
func pickReward(catalog []models.Reward, draw int) (models.Reward, error) {
	total := totalWeight(catalog)
	if total <= 0 {
		return models.Reward{}, apperr.InvalidState("reward catalog has no winnable entries")
	}
	if draw < 0 || draw >= total {
		return models.Reward{}, apperr.Validation("draw %d outside [0, %d)", draw, total)
	}

	cumulative := 0
	for _, r := range catalog {
		cumulative += r.Probability
		if draw < cumulative {
			return r, nil
		}
	}
	// Unreachable: draw < total and the ranges cover [0, total).
	return models.Reward{}, apperr.InvalidState("reward ranges do not cover draw %d", draw)
}
