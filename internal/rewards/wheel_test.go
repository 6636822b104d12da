package rewards

import (
	"errors"
	"math/rand"
	"testing"

	"campusbites/internal/apperr"
	"campusbites/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wheelCatalog() []models.Reward {
	return []models.Reward{
		{ID: "r1", Title: "Free Coffee", Type: models.RewardTypeFreeItem, Probability: 50},
		{ID: "r2", Title: "10% Off", Type: models.RewardTypeDiscount, Value: 10, Probability: 30},
		{ID: "r3", Title: "50 Tokens", Type: models.RewardTypeTokens, Value: 50, Probability: 20},
	}
}

func TestPickReward_RangeBoundaries(t *testing.T) {
	catalog := wheelCatalog()

	cases := []struct {
		draw int
		want string
	}{
		{0, "r1"},
		{49, "r1"},
		{50, "r2"},
		{79, "r2"},
		{80, "r3"},
		{99, "r3"},
	}
	for _, tc := range cases {
		got, err := pickReward(catalog, tc.draw)
		require.NoError(t, err, "draw %d", tc.draw)
		assert.Equal(t, tc.want, got.ID, "draw %d", tc.draw)
	}
}

func TestPickReward_ZeroWeightEntryNeverWins(t *testing.T) {
	catalog := []models.Reward{
		{ID: "r1", Probability: 10},
		{ID: "dead", Probability: 0},
		{ID: "r2", Probability: 10},
	}

	for draw := 0; draw < 20; draw++ {
		got, err := pickReward(catalog, draw)
		require.NoError(t, err)
		assert.NotEqual(t, "dead", got.ID, "draw %d", draw)
	}
}

func TestPickReward_EmptyCatalog(t *testing.T) {
	_, err := pickReward(nil, 0)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))

	_, err = pickReward([]models.Reward{{ID: "r1", Probability: 0}}, 0)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestPickReward_DrawOutOfRange(t *testing.T) {
	catalog := wheelCatalog()

	_, err := pickReward(catalog, -1)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = pickReward(catalog, 100)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

// Seeded draws should land close to the configured weights over many spins.
func TestPickReward_Distribution(t *testing.T) {
	catalog := wheelCatalog()
	rng := rand.New(rand.NewSource(42))
	total := totalWeight(catalog)

	const spins = 100000
	counts := map[string]int{}
	for i := 0; i < spins; i++ {
		got, err := pickReward(catalog, rng.Intn(total))
		require.NoError(t, err)
		counts[got.ID]++
	}

	// 2% absolute tolerance is generous for 100k samples.
	assert.InDelta(t, 0.50, float64(counts["r1"])/spins, 0.02)
	assert.InDelta(t, 0.30, float64(counts["r2"])/spins, 0.02)
	assert.InDelta(t, 0.20, float64(counts["r3"])/spins, 0.02)
}
