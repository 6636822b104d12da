package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

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

// GetOrderByQRCode looks an order up by its pickup credential.
func (d *DB) GetOrderByQRCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("qr_code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("pickup code")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (d *DB) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := d.Bun.NewSelect().
		Model(&items).
		Where("order_id = ?", orderID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrderTx persists the order and its items, bumps each referenced
// dish's order_count and the outlet's active_orders_count, all in one
// transaction. Returns the post-increment active-order count so the caller
// can evaluate the chill throttle against the value this order produced.
func (d *DB) CreateOrderTx(ctx context.Context, order models.Order, items []models.OrderItem) (int, error) {
	var postCount int

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&order).Exec(ctx); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		// One bump per line item, never per quantity.
		for _, item := range items {
			if _, err := tx.NewUpdate().
				Model((*models.Dish)(nil)).
				Set("order_count = order_count + 1").
				Where("id = ?", item.DishID).
				Exec(ctx); err != nil {
				return fmt.Errorf("bump dish order_count: %w", err)
			}
		}

		// Atomic increment; RETURNING gives the post-increment value this
		// transaction observed, free of read-modify-write races.
		if _, err := tx.NewUpdate().
			Model((*models.Outlet)(nil)).
			Set("active_orders_count = active_orders_count + 1").
			Where("id = ?", order.OutletID).
			Returning("active_orders_count").
			Exec(ctx, &postCount); err != nil {
			return fmt.Errorf("bump outlet active_orders_count: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	return postCount, nil
}

// AdvanceOrderStatus moves an order to a non-terminal status. The WHERE
// guard on the previous status makes concurrent updates lose cleanly
// instead of silently overwriting each other.
func (d *DB) AdvanceOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", to).
		Where("id = ?", orderID).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowChanged(res, orderID)
}

// FinalizeOrderTx moves an order into a terminal status, stamps
// completed_at and releases the outlet's active-order slot, atomically.
// The status guard guarantees the decrement happens exactly once even if
// two confirmations race.
func (d *DB) FinalizeOrderTx(ctx context.Context, order *models.Order, to models.OrderStatus, now time.Time) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("status = ?", to).
			Set("completed_at = ?", now).
			Where("id = ?", order.ID).
			Where("status = ?", order.Status).
			Exec(ctx)
		if err != nil {
			return err
		}
		if err := requireRowChanged(res, order.ID); err != nil {
			return err
		}

		// Floored decrement; the counter never goes negative even if the
		// stored value drifted.
		if _, err := tx.NewUpdate().
			Model((*models.Outlet)(nil)).
			Set("active_orders_count = CASE WHEN active_orders_count > 0 THEN active_orders_count - 1 ELSE 0 END").
			Where("id = ?", order.OutletID).
			Exec(ctx); err != nil {
			return fmt.Errorf("release outlet active-order slot: %w", err)
		}

		return nil
	})
}

// CountActiveOrders derives the active-order count from order rows. Used to
// reconcile the stored counter.
func (d *DB) CountActiveOrders(ctx context.Context, outletID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("outlet_id = ?", outletID).
		Where("status NOT IN (?)", bun.In([]models.OrderStatus{models.StatusCompleted, models.StatusCancelled})).
		Count(ctx)
}

func (d *DB) CountOrdersByUser(ctx context.Context, userID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}

// ---------------- REFERENCES ----------------

func (d *DB) GetOutlet(ctx context.Context, id string) (*models.Outlet, error) {
	var outlet models.Outlet
	err := d.Bun.NewSelect().
		Model(&outlet).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("outlet %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &outlet, nil
}

func (d *DB) GetDishesByIDs(ctx context.Context, ids []string) ([]models.Dish, error) {
	dishes := []models.Dish{}
	err := d.Bun.NewSelect().
		Model(&dishes).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return dishes, nil
}

func requireRowChanged(res sql.Result, orderID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict("order %s was modified concurrently", orderID)
	}
	return nil
}
