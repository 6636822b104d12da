package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"campusbites/internal/apperr"
	"campusbites/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("order %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateRatingTx inserts the rating and credits the reviewer's token
// reward in one transaction. The unique constraint on order_id makes a
// second rating for the same order fail the insert; the credit rolls
// back with it. Returns the post-credit balance.
func (d *DB) CreateRatingTx(ctx context.Context, rating models.Rating) (int, error) {
	var balance int

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&rating).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("order %s has already been rated", rating.OrderID)
			}
			return fmt.Errorf("insert rating: %w", err)
		}

		if rating.TokensAwarded > 0 {
			err := tx.NewUpdate().
				Model((*models.User)(nil)).
				Set("tokens = tokens + ?", rating.TokensAwarded).
				Where("id = ?", rating.UserID).
				Returning("tokens").
				Scan(ctx, &balance)
			if err != nil {
				return fmt.Errorf("credit rating reward: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (d *DB) GetRatingByOrder(ctx context.Context, orderID string) (*models.Rating, error) {
	var rating models.Rating
	err := d.Bun.NewSelect().
		Model(&rating).
		Where("order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("rating for order %s", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (d *DB) ListRatingsByOutlet(ctx context.Context, outletID string) ([]models.Rating, error) {
	ratings := []models.Rating{}
	err := d.Bun.NewSelect().
		Model(&ratings).
		Where("outlet_id = ?", outletID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

// AverageStars returns the outlet's mean rating, 0 when unrated.
func (d *DB) AverageStars(ctx context.Context, outletID string) (float64, error) {
	var avg sql.NullFloat64
	err := d.Bun.NewSelect().
		Model((*models.Rating)(nil)).
		ColumnExpr("AVG(stars)").
		Where("outlet_id = ?", outletID).
		Scan(ctx, &avg)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

// isUniqueViolation matches both the Postgres error text and sqlite's,
// so the same check works against the in-memory test database.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
