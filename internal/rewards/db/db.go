package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campusbites/internal/apperr"
	"campusbites/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) ListRewards(ctx context.Context) ([]models.Reward, error) {
	rewards := []models.Reward{}
	err := d.Bun.NewSelect().
		Model(&rewards).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

func (d *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ClaimRewardTx debits the spin cost, credits any token prize and records
// the claim, all in one transaction. The conditional debit guards against
// concurrent spins draining the same balance: if another spin got there
// first the WHERE clause matches no row and the whole transaction rolls
// back. Returns the post-transaction balance.
func (d *DB) ClaimRewardTx(ctx context.Context, claim models.RewardClaim, cost int, prize models.Reward) (int, error) {
	var balance int

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("tokens = tokens - ?", cost).
			Where("id = ?", claim.UserID).
			Where("tokens >= ?", cost).
			Returning("tokens").
			Scan(ctx, &balance)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.InsufficientTokens("balance below spin cost of %d tokens", cost)
		}
		if err != nil {
			return fmt.Errorf("debit spin cost: %w", err)
		}

		if prize.Type == models.RewardTypeTokens && prize.Value > 0 {
			err := tx.NewUpdate().
				Model((*models.User)(nil)).
				Set("tokens = tokens + ?", prize.Value).
				Where("id = ?", claim.UserID).
				Returning("tokens").
				Scan(ctx, &balance)
			if err != nil {
				return fmt.Errorf("credit token prize: %w", err)
			}
		}

		if _, err := tx.NewInsert().Model(&claim).Exec(ctx); err != nil {
			return fmt.Errorf("insert reward claim: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// CreditTokens adds to a user's balance and returns the new value.
func (d *DB) CreditTokens(ctx context.Context, userID string, amount int) (int, error) {
	var balance int
	err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("tokens = tokens + ?", amount).
		Where("id = ?", userID).
		Returning("tokens").
		Scan(ctx, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("user %s", userID)
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (d *DB) ListClaimsByUser(ctx context.Context, userID string) ([]models.RewardClaim, error) {
	claims := []models.RewardClaim{}
	err := d.Bun.NewSelect().
		Model(&claims).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
