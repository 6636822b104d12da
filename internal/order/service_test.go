package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/logger"
	"campusbites/internal/models"
	"campusbites/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateOrderTx(ctx context.Context, order models.Order, items []models.OrderItem) (int, error) {
	args := m.Called(ctx, order, items)
	return args.Int(0), args.Error(1)
}

func (m *MockDBLayer) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockDBLayer) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderItem), args.Error(1)
}

func (m *MockDBLayer) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockDBLayer) AdvanceOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus) error {
	args := m.Called(ctx, orderID, from, to)
	return args.Error(0)
}

func (m *MockDBLayer) FinalizeOrderTx(ctx context.Context, order *models.Order, to models.OrderStatus, now time.Time) error {
	args := m.Called(ctx, order, to, now)
	return args.Error(0)
}

func (m *MockDBLayer) CountOrdersByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockDBLayer) GetOutlet(ctx context.Context, id string) (*models.Outlet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Outlet), args.Error(1)
}

func (m *MockDBLayer) GetDishesByIDs(ctx context.Context, ids []string) ([]models.Dish, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Dish), args.Error(1)
}

func (m *MockDBLayer) CreateGroupOrder(ctx context.Context, group models.GroupOrder) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockDBLayer) GetGroupOrderByID(ctx context.Context, id string) (*models.GroupOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GroupOrder), args.Error(1)
}

func (m *MockDBLayer) GetGroupOrderByShareToken(ctx context.Context, token string) (*models.GroupOrder, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GroupOrder), args.Error(1)
}

func (m *MockDBLayer) CloseGroupOrder(ctx context.Context, id string, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *MockDBLayer) GetOrdersByGroup(ctx context.Context, groupID string) ([]models.Order, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

type MockThrottle struct {
	mock.Mock
}

func (m *MockThrottle) EvaluateAfterOrder(ctx context.Context, outlet *models.Outlet, postCount int) {
	m.Called(ctx, outlet, postCount)
}

type MockBadgeAwarder struct {
	mock.Mock
}

func (m *MockBadgeAwarder) OnOrderCreated(ctx context.Context, userID string, orderCount int) {
	m.Called(ctx, userID, orderCount)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyNewOrder(outletID string, order models.Order, items []models.OrderItem) {
	m.Called(outletID, order, items)
}

func (m *MockNotifier) NotifyOrderStatusUpdate(userID, orderID string, status models.OrderStatus) {
	m.Called(userID, orderID, status)
}

type fixture struct {
	db       *MockDBLayer
	throttle *MockThrottle
	badges   *MockBadgeAwarder
	notifier *MockNotifier
	svc      *OrderService
}

func newFixture() *fixture {
	f := &fixture{
		db:       new(MockDBLayer),
		throttle: new(MockThrottle),
		badges:   new(MockBadgeAwarder),
		notifier: new(MockNotifier),
	}
	f.svc = NewOrderService(f.db, f.throttle, f.badges, f.notifier, logger.NewLogger())
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func testOutlet() *models.Outlet {
	return &models.Outlet{
		ID:              "outlet-1",
		OwnerID:         "owner-1",
		MaxActiveOrders: 25,
	}
}

func testDishes() []models.Dish {
	return []models.Dish{
		{ID: "dish-1", OutletID: "outlet-1", Name: "Masala Dosa", Available: true},
		{ID: "dish-2", OutletID: "outlet-1", Name: "Filter Coffee", Available: true},
	}
}

func validRequest() CreateRequest {
	return CreateRequest{
		OutletID: "outlet-1",
		Items: []ItemRequest{
			{DishID: "dish-1", Quantity: 2, Price: 80},
			{DishID: "dish-2", Quantity: 1, Price: 25},
		},
		TotalAmount: 185,
	}
}

func TestCreateOrder_Success(t *testing.T) {
	f := newFixture()

	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(testOutlet(), nil)
	f.db.On("GetDishesByIDs", mock.Anything, []string{"dish-1", "dish-2"}).Return(testDishes(), nil)
	f.db.On("CreateOrderTx", mock.Anything, mock.Anything, mock.Anything).Return(7, nil)
	f.db.On("CountOrdersByUser", mock.Anything, "user-1").Return(3, nil)
	f.throttle.On("EvaluateAfterOrder", mock.Anything, mock.Anything, 7).Return()
	f.badges.On("OnOrderCreated", mock.Anything, "user-1", 3).Return()
	f.notifier.On("NotifyNewOrder", "outlet-1", mock.Anything, mock.Anything).Return()

	result, err := f.svc.CreateOrder(context.Background(), "user-1", validRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, result.Order.Status)
	assert.True(t, utils.IsPickupCode(result.Order.QRCode))
	assert.Len(t, result.Items, 2)
	assert.Equal(t, result.Order.ID, result.Items[0].OrderID)

	f.db.AssertExpectations(t)
	f.throttle.AssertExpectations(t)
	f.badges.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateOrder(context.Background(), "user-1", CreateRequest{OutletID: "outlet-1"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	req := validRequest()
	req.Items[0].Quantity = 0
	_, err = f.svc.CreateOrder(context.Background(), "user-1", req)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	req = validRequest()
	req.TotalAmount = -1
	_, err = f.svc.CreateOrder(context.Background(), "user-1", req)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	f.db.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_ChilledOutletRejected(t *testing.T) {
	f := newFixture()

	chilled := testOutlet()
	chilled.ChillActive = true
	chilled.ChillEndsAt = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(chilled, nil)

	_, err := f.svc.CreateOrder(context.Background(), "user-1", validRequest())
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	f.db.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_ExpiredChillAdmits(t *testing.T) {
	f := newFixture()

	// Flag still set but the timestamp has passed; the computed state wins.
	stale := testOutlet()
	stale.ChillActive = true
	stale.ChillEndsAt = time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(stale, nil)
	f.db.On("GetDishesByIDs", mock.Anything, mock.Anything).Return(testDishes(), nil)
	f.db.On("CreateOrderTx", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)
	f.db.On("CountOrdersByUser", mock.Anything, "user-1").Return(1, nil)
	f.throttle.On("EvaluateAfterOrder", mock.Anything, mock.Anything, 1).Return()
	f.badges.On("OnOrderCreated", mock.Anything, "user-1", 1).Return()
	f.notifier.On("NotifyNewOrder", "outlet-1", mock.Anything, mock.Anything).Return()

	_, err := f.svc.CreateOrder(context.Background(), "user-1", validRequest())
	assert.NoError(t, err)
}

func TestCreateOrder_ForeignDishRejected(t *testing.T) {
	f := newFixture()

	dishes := testDishes()
	dishes[1].OutletID = "outlet-other"

	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(testOutlet(), nil)
	f.db.On("GetDishesByIDs", mock.Anything, mock.Anything).Return(dishes, nil)

	_, err := f.svc.CreateOrder(context.Background(), "user-1", validRequest())
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestCreateOrder_UnavailableDishRejected(t *testing.T) {
	f := newFixture()

	dishes := testDishes()
	dishes[0].Available = false

	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(testOutlet(), nil)
	f.db.On("GetDishesByIDs", mock.Anything, mock.Anything).Return(dishes, nil)

	_, err := f.svc.CreateOrder(context.Background(), "user-1", validRequest())
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestCreateOrder_ClosedGroupOrderRejected(t *testing.T) {
	f := newFixture()

	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(testOutlet(), nil)
	f.db.On("GetDishesByIDs", mock.Anything, mock.Anything).Return(testDishes(), nil)
	f.db.On("GetGroupOrderByID", mock.Anything, "group-1").Return(&models.GroupOrder{
		ID:       "group-1",
		OutletID: "outlet-1",
		Status:   models.GroupOrderClosed,
	}, nil)

	req := validRequest()
	req.GroupOrderID = "group-1"
	_, err := f.svc.CreateOrder(context.Background(), "user-1", req)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestUpdateStatus_OwnerAdvances(t *testing.T) {
	f := newFixture()

	order := &models.Order{ID: "order-1", UserID: "user-1", OutletID: "outlet-1", Status: models.StatusConfirmed}
	f.db.On("GetOrderByID", mock.Anything, "order-1").Return(order, nil)
	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(testOutlet(), nil)
	f.db.On("AdvanceOrderStatus", mock.Anything, "order-1", models.StatusConfirmed, models.StatusPreparing).Return(nil)
	f.notifier.On("NotifyOrderStatusUpdate", "user-1", "order-1", models.StatusPreparing).Return()

	err := f.svc.UpdateStatus(context.Background(), "order-1", models.StatusPreparing, "owner-1", models.RoleOutletOwner)
	require.NoError(t, err)
	f.db.AssertExpectations(t)
}

func TestUpdateStatus_TerminalUsesFinalize(t *testing.T) {
	f := newFixture()

	order := &models.Order{ID: "order-1", UserID: "user-1", OutletID: "outlet-1", Status: models.StatusReady}
	f.db.On("GetOrderByID", mock.Anything, "order-1").Return(order, nil)
	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(testOutlet(), nil)
	f.db.On("FinalizeOrderTx", mock.Anything, order, models.StatusCompleted, mock.Anything).Return(nil)
	f.notifier.On("NotifyOrderStatusUpdate", "user-1", "order-1", models.StatusCompleted).Return()

	err := f.svc.UpdateStatus(context.Background(), "order-1", models.StatusCompleted, "owner-1", models.RoleOutletOwner)
	require.NoError(t, err)
	f.db.AssertNotCalled(t, "AdvanceOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	f := newFixture()

	order := &models.Order{ID: "order-1", UserID: "user-1", OutletID: "outlet-1", Status: models.StatusPending}
	f.db.On("GetOrderByID", mock.Anything, "order-1").Return(order, nil)
	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(testOutlet(), nil)

	err := f.svc.UpdateStatus(context.Background(), "order-1", models.StatusReady, "owner-1", models.RoleOutletOwner)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestUpdateStatus_TerminalOrderIsFrozen(t *testing.T) {
	f := newFixture()

	order := &models.Order{ID: "order-1", UserID: "user-1", OutletID: "outlet-1", Status: models.StatusCompleted}
	f.db.On("GetOrderByID", mock.Anything, "order-1").Return(order, nil)
	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(testOutlet(), nil)

	err := f.svc.UpdateStatus(context.Background(), "order-1", models.StatusCancelled, "owner-1", models.RoleOutletOwner)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestUpdateStatus_StudentCannotAdvance(t *testing.T) {
	f := newFixture()

	order := &models.Order{ID: "order-1", UserID: "user-1", OutletID: "outlet-1", Status: models.StatusPending}
	f.db.On("GetOrderByID", mock.Anything, "order-1").Return(order, nil)

	err := f.svc.UpdateStatus(context.Background(), "order-1", models.StatusConfirmed, "user-1", models.RoleStudent)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestCancelOrder_OwnOrderOnly(t *testing.T) {
	f := newFixture()

	order := &models.Order{ID: "order-1", UserID: "user-1", OutletID: "outlet-1", Status: models.StatusPending}
	f.db.On("GetOrderByID", mock.Anything, "order-1").Return(order, nil)
	f.db.On("FinalizeOrderTx", mock.Anything, order, models.StatusCancelled, mock.Anything).Return(nil)
	f.notifier.On("NotifyOrderStatusUpdate", "user-1", "order-1", models.StatusCancelled).Return()

	require.NoError(t, f.svc.CancelOrder(context.Background(), "order-1", "user-1"))

	err := f.svc.CancelOrder(context.Background(), "order-1", "someone-else")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestUpdateStatus_ConcurrentLoserGetsConflict(t *testing.T) {
	f := newFixture()

	order := &models.Order{ID: "order-1", UserID: "user-1", OutletID: "outlet-1", Status: models.StatusPending}
	f.db.On("GetOrderByID", mock.Anything, "order-1").Return(order, nil)
	f.db.On("GetOutlet", mock.Anything, "outlet-1").Return(testOutlet(), nil)
	f.db.On("AdvanceOrderStatus", mock.Anything, "order-1", models.StatusPending, models.StatusConfirmed).
		Return(apperr.Conflict("order %s was modified concurrently", "order-1"))

	err := f.svc.UpdateStatus(context.Background(), "order-1", models.StatusConfirmed, "owner-1", models.RoleOutletOwner)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	f.notifier.AssertNotCalled(t, "NotifyOrderStatusUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrder_StudentOwnershipEnforced(t *testing.T) {
	f := newFixture()

	order := &models.Order{ID: "order-1", UserID: "user-1", OutletID: "outlet-1", Status: models.StatusPending}
	f.db.On("GetOrderByID", mock.Anything, "order-1").Return(order, nil)
	f.db.On("GetOrderItems", mock.Anything, "order-1").Return([]models.OrderItem{}, nil)

	_, err := f.svc.GetOrder(context.Background(), "order-1", "user-1", models.RoleStudent)
	assert.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), "order-1", "intruder", models.RoleStudent)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	// Outlet staff can inspect orders placed with them.
	_, err = f.svc.GetOrder(context.Background(), "order-1", "owner-1", models.RoleOutletOwner)
	assert.NoError(t, err)
}

func TestEstimatePrepTime_Capped(t *testing.T) {
	assert.Equal(t, 20*time.Minute, estimatePrepTime(1))
	assert.Equal(t, 40*time.Minute, estimatePrepTime(5))
	assert.Equal(t, time.Hour, estimatePrepTime(40))
}
