package rating

import (
	"context"
	"fmt"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/config"
	"campusbites/internal/logger"
	"campusbites/internal/models"

	"github.com/google/uuid"
)

type DBLayer interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	CreateRatingTx(ctx context.Context, rating models.Rating) (int, error)
	GetRatingByOrder(ctx context.Context, orderID string) (*models.Rating, error)
	ListRatingsByOutlet(ctx context.Context, outletID string) ([]models.Rating, error)
	AverageStars(ctx context.Context, outletID string) (float64, error)
}

type SubmitRequest struct {
	OrderID string `json:"order_id"`
	Stars   int    `json:"stars"`
	Comment string `json:"comment,omitempty"`
}

type SubmitResult struct {
	Rating  models.Rating `json:"rating"`
	Balance int           `json:"balance"`
}

type OutletSummary struct {
	OutletID     string          `json:"outlet_id"`
	AverageStars float64         `json:"average_stars"`
	Ratings      []models.Rating `json:"ratings"`
}

type RatingService struct {
	DB     DBLayer
	Logger *logger.Logger
	Config config.RewardsConfig

	now func() time.Time
}

func NewRatingService(db DBLayer, log *logger.Logger, cfg config.RewardsConfig) *RatingService {
	return &RatingService{DB: db, Logger: log, Config: cfg, now: time.Now}
}

// Submit records a rating for a completed order and credits the reviewer
// the configured token reward. One rating per order; only the order's
// owner may rate it.
func (s *RatingService) Submit(ctx context.Context, userID string, req SubmitRequest) (*SubmitResult, error) {
	if req.OrderID == "" {
		return nil, apperr.Validation("order_id is required")
	}
	if req.Stars < 1 || req.Stars > 5 {
		return nil, apperr.Validation("stars must be between 1 and 5")
	}

	order, err := s.DB.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.Forbidden("order %s does not belong to user %s", order.ID, userID)
	}
	if order.Status != models.StatusCompleted {
		return nil, apperr.InvalidState("only completed orders can be rated")
	}

	rating := models.Rating{
		ID:            uuid.New().String(),
		OrderID:       order.ID,
		OutletID:      order.OutletID,
		UserID:        userID,
		Stars:         req.Stars,
		Comment:       req.Comment,
		TokensAwarded: s.Config.RatingTokens,
		CreatedAt:     s.now(),
	}

	balance, err := s.DB.CreateRatingTx(ctx, rating)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("RATING", fmt.Sprintf("user %s rated order %s %d stars (+%d tokens)", userID, order.ID, req.Stars, rating.TokensAwarded))
	return &SubmitResult{Rating: rating, Balance: balance}, nil
}

func (s *RatingService) GetByOrder(ctx context.Context, orderID string) (*models.Rating, error) {
	return s.DB.GetRatingByOrder(ctx, orderID)
}

// OutletRatings returns an outlet's ratings with the running average.
func (s *RatingService) OutletRatings(ctx context.Context, outletID string) (*OutletSummary, error) {
	ratings, err := s.DB.ListRatingsByOutlet(ctx, outletID)
	if err != nil {
		return nil, err
	}
	avg, err := s.DB.AverageStars(ctx, outletID)
	if err != nil {
		return nil, err
	}
	return &OutletSummary{OutletID: outletID, AverageStars: avg, Ratings: ratings}, nil
}
