package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/models"
	"campusbites/internal/order/db"
	"campusbites/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Outlet)(nil),
		(*models.Dish)(nil),
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.GroupOrder)(nil),
	} {
		_, err = bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func seedOutletAndDish(t *testing.T, bunDB *bun.DB) (models.Outlet, models.Dish) {
	ctx := context.Background()

	outlet := models.Outlet{
		ID:              "outlet-1",
		UniversityID:    "uni-1",
		OwnerID:         "owner-1",
		Name:            "Night Canteen",
		MaxActiveOrders: 25,
		CreatedAt:       time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&outlet).Exec(ctx)
	require.NoError(t, err)

	dish := models.Dish{
		ID:        "dish-1",
		OutletID:  outlet.ID,
		Name:      "Veg Maggi",
		Price:     40,
		Available: true,
		CreatedAt: time.Now(),
	}
	_, err = bunDB.NewInsert().Model(&dish).Exec(ctx)
	require.NoError(t, err)

	return outlet, dish
}

func newOrder(outletID string) (models.Order, []models.OrderItem) {
	order := models.Order{
		ID:          uuid.New().String(),
		UserID:      "user-1",
		OutletID:    outletID,
		QRCode:      utils.GeneratePickupCode(),
		Status:      models.StatusPending,
		TotalAmount: 80,
		CreatedAt:   time.Now(),
	}
	items := []models.OrderItem{
		{ID: uuid.New().String(), OrderID: order.ID, DishID: "dish-1", Quantity: 2, PriceAtOrder: 40},
	}
	return order, items
}

func TestCreateOrderTx_CountersMoveTogether(t *testing.T) {
	orderDB, bunDB := setupTestDB(t)
	outlet, dish := seedOutletAndDish(t, bunDB)
	ctx := context.Background()

	order, items := newOrder(outlet.ID)
	postCount, err := orderDB.CreateOrderTx(ctx, order, items)
	require.NoError(t, err)
	assert.Equal(t, 1, postCount)

	order2, items2 := newOrder(outlet.ID)
	postCount, err = orderDB.CreateOrderTx(ctx, order2, items2)
	require.NoError(t, err)
	assert.Equal(t, 2, postCount)

	// One bump per line item regardless of quantity.
	var gotDish models.Dish
	require.NoError(t, bunDB.NewSelect().Model(&gotDish).Where("id = ?", dish.ID).Scan(ctx))
	assert.Equal(t, 2, gotDish.OrderCount)

	stored, err := orderDB.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestFinalizeOrderTx_ExactlyOnce(t *testing.T) {
	orderDB, bunDB := setupTestDB(t)
	outlet, _ := seedOutletAndDish(t, bunDB)
	ctx := context.Background()

	order, items := newOrder(outlet.ID)
	_, err := orderDB.CreateOrderTx(ctx, order, items)
	require.NoError(t, err)

	order.Status = models.StatusReady
	_, err = bunDB.NewUpdate().Model(&order).Column("status").WherePK().Exec(ctx)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, orderDB.FinalizeOrderTx(ctx, &order, models.StatusCompleted, now))

	var gotOutlet models.Outlet
	require.NoError(t, bunDB.NewSelect().Model(&gotOutlet).Where("id = ?", outlet.ID).Scan(ctx))
	assert.Equal(t, 0, gotOutlet.ActiveOrdersCount)

	stored, err := orderDB.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.False(t, stored.CompletedAt.IsZero())

	// A racing second finalize loses on the status guard and must not
	// decrement again.
	err = orderDB.FinalizeOrderTx(ctx, &order, models.StatusCompleted, now)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	require.NoError(t, bunDB.NewSelect().Model(&gotOutlet).Where("id = ?", outlet.ID).Scan(ctx))
	assert.Equal(t, 0, gotOutlet.ActiveOrdersCount)
}

func TestFinalizeOrderTx_ChillSurvivesCompletion(t *testing.T) {
	orderDB, bunDB := setupTestDB(t)
	outlet, _ := seedOutletAndDish(t, bunDB)
	ctx := context.Background()

	order, items := newOrder(outlet.ID)
	_, err := orderDB.CreateOrderTx(ctx, order, items)
	require.NoError(t, err)

	// Outlet hit its threshold and went chill while the order was active.
	chillEnds := time.Now().Add(10 * time.Minute)
	_, err = bunDB.NewUpdate().
		Model((*models.Outlet)(nil)).
		Set("chill_active = ?", true).
		Set("chill_ends_at = ?", chillEnds).
		Where("id = ?", outlet.ID).
		Exec(ctx)
	require.NoError(t, err)

	order.Status = models.StatusReady
	_, err = bunDB.NewUpdate().Model(&order).Column("status").WherePK().Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, orderDB.FinalizeOrderTx(ctx, &order, models.StatusCompleted, time.Now()))

	// The count drops, but completing an order never lifts the chill;
	// only the timer or the owner does.
	var gotOutlet models.Outlet
	require.NoError(t, bunDB.NewSelect().Model(&gotOutlet).Where("id = ?", outlet.ID).Scan(ctx))
	assert.Equal(t, 0, gotOutlet.ActiveOrdersCount)
	assert.True(t, gotOutlet.ChillActive)
	assert.WithinDuration(t, chillEnds, gotOutlet.ChillEndsAt, time.Second)
}

func TestFinalizeOrderTx_DecrementIsFloored(t *testing.T) {
	orderDB, bunDB := setupTestDB(t)
	outlet, _ := seedOutletAndDish(t, bunDB)
	ctx := context.Background()

	// Insert the order directly so the counter was never incremented.
	order, items := newOrder(outlet.ID)
	order.Status = models.StatusReady
	_, err := bunDB.NewInsert().Model(&order).Exec(ctx)
	require.NoError(t, err)
	_, err = bunDB.NewInsert().Model(&items).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, orderDB.FinalizeOrderTx(ctx, &order, models.StatusCompleted, time.Now()))

	var gotOutlet models.Outlet
	require.NoError(t, bunDB.NewSelect().Model(&gotOutlet).Where("id = ?", outlet.ID).Scan(ctx))
	assert.Equal(t, 0, gotOutlet.ActiveOrdersCount)
}

func TestAdvanceOrderStatus_GuardRejectsStaleWriters(t *testing.T) {
	orderDB, bunDB := setupTestDB(t)
	outlet, _ := seedOutletAndDish(t, bunDB)
	ctx := context.Background()

	order, items := newOrder(outlet.ID)
	_, err := orderDB.CreateOrderTx(ctx, order, items)
	require.NoError(t, err)

	require.NoError(t, orderDB.AdvanceOrderStatus(ctx, order.ID, models.StatusPending, models.StatusConfirmed))

	// Second writer still believes the order is pending.
	err = orderDB.AdvanceOrderStatus(ctx, order.ID, models.StatusPending, models.StatusConfirmed)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	stored, err := orderDB.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
}

func TestGetOrderByQRCode(t *testing.T) {
	orderDB, bunDB := setupTestDB(t)
	outlet, _ := seedOutletAndDish(t, bunDB)
	ctx := context.Background()

	order, items := newOrder(outlet.ID)
	_, err := orderDB.CreateOrderTx(ctx, order, items)
	require.NoError(t, err)

	found, err := orderDB.GetOrderByQRCode(ctx, order.QRCode)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = orderDB.GetOrderByQRCode(ctx, "ORDER-does-not-exist")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCountActiveOrders_DerivedFromRows(t *testing.T) {
	orderDB, bunDB := setupTestDB(t)
	outlet, _ := seedOutletAndDish(t, bunDB)
	ctx := context.Background()

	active, items := newOrder(outlet.ID)
	_, err := orderDB.CreateOrderTx(ctx, active, items)
	require.NoError(t, err)

	done, doneItems := newOrder(outlet.ID)
	done.Status = models.StatusCompleted
	_, err = bunDB.NewInsert().Model(&done).Exec(ctx)
	require.NoError(t, err)
	_, err = bunDB.NewInsert().Model(&doneItems).Exec(ctx)
	require.NoError(t, err)

	count, err := orderDB.CountActiveOrders(ctx, outlet.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGroupOrderLifecycle(t *testing.T) {
	orderDB, bunDB := setupTestDB(t)
	outlet, _ := seedOutletAndDish(t, bunDB)
	ctx := context.Background()

	group := models.GroupOrder{
		ID:         uuid.New().String(),
		OutletID:   outlet.ID,
		CreatorID:  "user-1",
		ShareToken: utils.GenerateShareToken(),
		Status:     models.GroupOrderOpen,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, orderDB.CreateGroupOrder(ctx, group))

	found, err := orderDB.GetGroupOrderByShareToken(ctx, group.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, group.ID, found.ID)

	require.NoError(t, orderDB.CloseGroupOrder(ctx, group.ID, time.Now()))

	// Closing twice is an invalid state, not a silent success.
	err = orderDB.CloseGroupOrder(ctx, group.ID, time.Now())
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestCloseGroupOrder_MigratedColumnSet(t *testing.T) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	ctx := context.Background()

	// Same column set as migrations/000001_core_schema.up.sql, so a
	// column the model writes but the migration lacks fails here instead
	// of in production.
	_, err = bunDB.ExecContext(ctx, `CREATE TABLE group_orders (
		id VARCHAR(64) PRIMARY KEY,
		outlet_id VARCHAR(64) NOT NULL,
		creator_id VARCHAR(64) NOT NULL,
		share_token VARCHAR(64) NOT NULL UNIQUE,
		status VARCHAR(16) NOT NULL DEFAULT 'open',
		closed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	)`)
	require.NoError(t, err)

	orderDB := &db.DB{Bun: bunDB}
	group := models.GroupOrder{
		ID:         uuid.New().String(),
		OutletID:   "outlet-1",
		CreatorID:  "user-1",
		ShareToken: utils.GenerateShareToken(),
		Status:     models.GroupOrderOpen,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, orderDB.CreateGroupOrder(ctx, group))

	closedAt := time.Now()
	require.NoError(t, orderDB.CloseGroupOrder(ctx, group.ID, closedAt))

	stored, err := orderDB.GetGroupOrderByID(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GroupOrderClosed, stored.Status)
	assert.False(t, stored.ClosedAt.IsZero())
}
