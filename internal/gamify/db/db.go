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

// Leaderboard ranks students by token balance, ties broken by id so the
// ordering is stable across refreshes.
func (d *DB) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries := []models.LeaderboardEntry{}
	err := d.Bun.NewSelect().
		Model((*models.User)(nil)).
		ColumnExpr("id AS user_id").
		ColumnExpr("full_name").
		ColumnExpr("tokens").
		ColumnExpr("(SELECT COUNT(*) FROM orders WHERE orders.user_id = u.id) AS order_count").
		ModelTableExpr("users AS u").
		Where("role = ?", models.RoleStudent).
		OrderExpr("tokens DESC, id ASC").
		Limit(limit).
		Scan(ctx, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ---------------- BADGES ----------------

func (d *DB) ListBadges(ctx context.Context) ([]models.Badge, error) {
	badges := []models.Badge{}
	err := d.Bun.NewSelect().
		Model(&badges).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return badges, nil
}

func (d *DB) GetBadge(ctx context.Context, id string) (*models.Badge, error) {
	var badge models.Badge
	err := d.Bun.NewSelect().
		Model(&badge).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("badge %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &badge, nil
}

func (d *DB) GetUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	awards := []models.UserBadge{}
	err := d.Bun.NewSelect().
		Model(&awards).
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return awards, nil
}

func (d *DB) HasBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.UserBadge)(nil)).
		Where("user_id = ?", userID).
		Where("badge_id = ?", badgeID).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertUserBadge records an award. A duplicate hits the unique index on
// (user_id, badge_id) and is reported as a conflict so callers can treat
// re-awards as a no-op.
func (d *DB) InsertUserBadge(ctx context.Context, award models.UserBadge) error {
	_, err := d.Bun.NewInsert().Model(&award).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("user %s already holds badge %s", award.UserID, award.BadgeID)
		}
		return fmt.Errorf("insert user badge: %w", err)
	}
	return nil
}

// ---------------- COMFORT FOOD ----------------

// ComfortFood returns the dishes a user orders most, a small personal
// ranking shown on their profile.
func (d *DB) ComfortFood(ctx context.Context, userID string, limit int) ([]models.ComfortFoodEntry, error) {
	entries := []models.ComfortFoodEntry{}
	err := d.Bun.NewSelect().
		Model((*models.OrderItem)(nil)).
		ModelTableExpr("order_items AS oi").
		ColumnExpr("oi.dish_id").
		ColumnExpr("d.name AS dish_name").
		ColumnExpr("SUM(oi.quantity) AS times_ordered").
		Join("JOIN dishes AS d ON d.id = oi.dish_id").
		Join("JOIN orders AS o ON o.id = oi.order_id").
		Where("o.user_id = ?", userID).
		GroupExpr("oi.dish_id, d.name").
		OrderExpr("times_ordered DESC, oi.dish_id ASC").
		Limit(limit).
		Scan(ctx, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
