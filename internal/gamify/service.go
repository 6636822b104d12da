package gamify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/logger"
	"campusbites/internal/models"

	"github.com/google/uuid"
)

// Badge IDs awarded automatically by order milestones. Seeded with the
// schema.
const (
	BadgeFirstOrder   = "first_order"
	BadgeRegular      = "regular_10"
	BadgeCampusLegend = "campus_legend_50"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	comfortFoodLimit        = 5
)

type DBLayer interface {
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	ListBadges(ctx context.Context) ([]models.Badge, error)
	GetBadge(ctx context.Context, id string) (*models.Badge, error)
	GetUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error)
	HasBadge(ctx context.Context, userID, badgeID string) (bool, error)
	InsertUserBadge(ctx context.Context, award models.UserBadge) error
	ComfortFood(ctx context.Context, userID string, limit int) ([]models.ComfortFoodEntry, error)
}

// BadgeAward is a user's badge with the award timestamp attached.
type BadgeAward struct {
	Badge    models.Badge `json:"badge"`
	EarnedAt time.Time    `json:"earned_at"`
}

type GamifyService struct {
	DB     DBLayer
	Logger *logger.Logger

	now func() time.Time
}

func NewGamifyService(db DBLayer, log *logger.Logger) *GamifyService {
	return &GamifyService{DB: db, Logger: log, now: time.Now}
}

// Leaderboard returns the top students by token balance with 1-based
// ranks. Ties share the same token count but not the same rank; the id
// tiebreak keeps the ordering stable.
func (s *GamifyService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := s.DB.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (s *GamifyService) Badges(ctx context.Context) ([]models.Badge, error) {
	return s.DB.ListBadges(ctx)
}

// UserBadges returns the user's awards joined with badge details.
func (s *GamifyService) UserBadges(ctx context.Context, userID string) ([]BadgeAward, error) {
	awards, err := s.DB.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.DB.ListBadges(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Badge, len(catalog))
	for _, b := range catalog {
		byID[b.ID] = b
	}

	result := make([]BadgeAward, 0, len(awards))
	for _, a := range awards {
		badge, ok := byID[a.BadgeID]
		if !ok {
			// Retired badge; keep the award visible with just its id.
			badge = models.Badge{ID: a.BadgeID}
		}
		result = append(result, BadgeAward{Badge: badge, EarnedAt: a.EarnedAt})
	}
	return result, nil
}

// AwardBadge grants a badge at most once. Re-awards, including racing
// ones, resolve to a no-op.
func (s *GamifyService) AwardBadge(ctx context.Context, userID, badgeID string) error {
	if _, err := s.DB.GetBadge(ctx, badgeID); err != nil {
		return err
	}

	held, err := s.DB.HasBadge(ctx, userID, badgeID)
	if err != nil {
		return err
	}
	if held {
		return nil
	}

	award := models.UserBadge{
		ID:       uuid.New().String(),
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: s.now(),
	}
	err = s.DB.InsertUserBadge(ctx, award)
	if errors.Is(err, apperr.ErrConflict) {
		// Lost the race to a concurrent award of the same badge.
		return nil
	}
	if err != nil {
		return err
	}

	s.Logger.Info("GAMIFY", fmt.Sprintf("user %s earned badge %s", userID, badgeID))
	return nil
}

// OnOrderCreated awards order-milestone badges. Called after each order
// with the user's lifetime order count; failures are the caller's to log,
// never to fail the order on.
func (s *GamifyService) OnOrderCreated(ctx context.Context, userID string, orderCount int) error {
	switch orderCount {
	case 1:
		return s.AwardBadge(ctx, userID, BadgeFirstOrder)
	case 10:
		return s.AwardBadge(ctx, userID, BadgeRegular)
	case 50:
		return s.AwardBadge(ctx, userID, BadgeCampusLegend)
	}
	return nil
}

// ComfortFood returns the user's most-ordered dishes.
func (s *GamifyService) ComfortFood(ctx context.Context, userID string) ([]models.ComfortFoodEntry, error) {
	return s.DB.ComfortFood(ctx, userID, comfortFoodLimit)
}
