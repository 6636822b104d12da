package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/models"
)

// ---------------- GROUP ORDERS ----------------

func (d *DB) CreateGroupOrder(ctx context.Context, group models.GroupOrder) error {
	_, err := d.Bun.NewInsert().Model(&group).Exec(ctx)
	return err
}

func (d *DB) GetGroupOrderByID(ctx context.Context, id string) (*models.GroupOrder, error) {
	var group models.GroupOrder
	err := d.Bun.NewSelect().
		Model(&group).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("group order %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (d *DB) GetGroupOrderByShareToken(ctx context.Context, token string) (*models.GroupOrder, error) {
	var group models.GroupOrder
	err := d.Bun.NewSelect().
		Model(&group).
		Where("share_token = ?", token).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("group order")
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// CloseGroupOrder flips an open group order to closed. The status guard
// makes a double close a no-op at the row level.
func (d *DB) CloseGroupOrder(ctx context.Context, id string, now time.Time) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.GroupOrder)(nil)).
		Set("status = ?", models.GroupOrderClosed).
		Set("closed_at = ?", now).
		Where("id = ?", id).
		Where("status = ?", models.GroupOrderOpen).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.InvalidState("group order already closed")
	}
	return nil
}

func (d *DB) GetOrdersByGroup(ctx context.Context, groupID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("group_order_id = ?", groupID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}
