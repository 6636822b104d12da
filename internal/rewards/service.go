package rewards

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/config"
	"campusbites/internal/logger"
	"campusbites/internal/models"
	"campusbites/internal/notify"

	"github.com/google/uuid"
)

type DBLayer interface {
	ListRewards(ctx context.Context) ([]models.Reward, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ClaimRewardTx(ctx context.Context, claim models.RewardClaim, cost int, prize models.Reward) (int, error)
	ListClaimsByUser(ctx context.Context, userID string) ([]models.RewardClaim, error)
}

// SpinLock serializes spins per user while the claim transaction runs.
type SpinLock interface {
	AcquireSpin(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	ReleaseSpin(ctx context.Context, userID string) error
}

type RewardsService struct {
	DB       DBLayer
	Lock     SpinLock
	Notifier notify.Notifier
	Logger   *logger.Logger
	Config   config.RewardsConfig

	// draw returns a value in [0, total). Swappable for deterministic
	// tests; defaults to a seeded math/rand source.
	draw func(total int) int
	now  func() time.Time
}

func NewRewardsService(db DBLayer, lock SpinLock, notifier notify.Notifier, log *logger.Logger, cfg config.RewardsConfig) *RewardsService {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &RewardsService{
		DB:       db,
		Lock:     lock,
		Notifier: notifier,
		Logger:   log,
		Config:   cfg,
		draw:     rng.Intn,
		now:      time.Now,
	}
}

// Spin debits the spin cost, draws a reward from the weighted wheel and
// records the claim. The whole debit-draw-claim runs under a per-user
// lock; a losing concurrent spin is rejected, never queued.
func (s *RewardsService) Spin(ctx context.Context, userID string) (*models.SpinResult, error) {
	user, err := s.DB.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Fast-path check; the conditional debit inside the transaction is
	// the authoritative guard.
	if user.Tokens < s.Config.SpinCost {
		return nil, apperr.InsufficientTokens("spin costs %d tokens, balance is %d", s.Config.SpinCost, user.Tokens)
	}

	ok, err := s.Lock.AcquireSpin(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("acquire spin lock: %w", err)
	}
	if !ok {
		return nil, apperr.Conflict("a spin is already in progress")
	}
	// Release on a fresh context so a client disconnect mid-spin cannot
	// leave the lock held until its TTL lapses.
	defer func() {
		if err := s.Lock.ReleaseSpin(context.Background(), userID); err != nil {
			s.Logger.Warn("REWARDS", fmt.Sprintf("failed to release spin lock for %s: %v", userID, err))
		}
	}()

	catalog, err := s.DB.ListRewards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reward catalog: %w", err)
	}
	total := totalWeight(catalog)
	if total <= 0 {
		return nil, apperr.InvalidState("reward catalog has no winnable entries")
	}

	prize, err := pickReward(catalog, s.draw(total))
	if err != nil {
		return nil, err
	}

	claim := models.RewardClaim{
		ID:          uuid.New().String(),
		UserID:      userID,
		RewardID:    prize.ID,
		TokensSpent: s.Config.SpinCost,
		CreatedAt:   s.now(),
	}

	balance, err := s.DB.ClaimRewardTx(ctx, claim, s.Config.SpinCost, prize)
	if err != nil {
		return nil, err
	}

	s.Logger.LogRewards("SPIN", userID, fmt.Sprintf("won %q (balance %d)", prize.Title, balance))
	s.Notifier.NotifyRewardClaim(claim)

	return &models.SpinResult{Reward: prize, TokensSpent: s.Config.SpinCost, Balance: balance}, nil
}

func (s *RewardsService) Catalog(ctx context.Context) ([]models.Reward, error) {
	return s.DB.ListRewards(ctx)
}

func (s *RewardsService) History(ctx context.Context, userID string) ([]models.RewardClaim, error) {
	return s.DB.ListClaimsByUser(ctx, userID)
}

// Balance returns the user's current token balance.
func (s *RewardsService) Balance(ctx context.Context, userID string) (int, error) {
	user, err := s.DB.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Tokens, nil
}
