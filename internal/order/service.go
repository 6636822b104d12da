package order

import (
	"context"
	"fmt"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/logger"
	"campusbites/internal/models"
	"campusbites/internal/utils"

	"github.com/google/uuid"
)

type DBLayer interface {
	CreateOrderTx(ctx context.Context, order models.Order, items []models.OrderItem) (int, error)
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	AdvanceOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus) error
	FinalizeOrderTx(ctx context.Context, order *models.Order, to models.OrderStatus, now time.Time) error
	CountOrdersByUser(ctx context.Context, userID string) (int, error)
	GetOutlet(ctx context.Context, id string) (*models.Outlet, error)
	GetDishesByIDs(ctx context.Context, ids []string) ([]models.Dish, error)

	CreateGroupOrder(ctx context.Context, group models.GroupOrder) error
	GetGroupOrderByID(ctx context.Context, id string) (*models.GroupOrder, error)
	GetGroupOrderByShareToken(ctx context.Context, token string) (*models.GroupOrder, error)
	CloseGroupOrder(ctx context.Context, id string, now time.Time) error
	GetOrdersByGroup(ctx context.Context, groupID string) ([]models.Order, error)
}

// Throttle is the chill-period policy evaluated with the post-increment
// active-order count of a freshly created order.
type Throttle interface {
	EvaluateAfterOrder(ctx context.Context, outlet *models.Outlet, postCount int)
}

// BadgeAwarder receives qualifying events immediately after the triggering
// action; there is no background evaluation.
type BadgeAwarder interface {
	OnOrderCreated(ctx context.Context, userID string, orderCount int)
}

type Notifier interface {
	NotifyNewOrder(outletID string, order models.Order, items []models.OrderItem)
	NotifyOrderStatusUpdate(userID, orderID string, status models.OrderStatus)
}

type ItemRequest struct {
	DishID         string  `json:"dish_id"`
	Quantity       int     `json:"quantity"`
	Price          float64 `json:"price"`
	Customizations string  `json:"customizations,omitempty"`
}

type CreateRequest struct {
	OutletID            string        `json:"outlet_id"`
	GroupOrderID        string        `json:"group_order_id,omitempty"`
	Items               []ItemRequest `json:"items"`
	SpecialInstructions string        `json:"special_instructions,omitempty"`
	TotalAmount         float64       `json:"total_amount"`
}

type OrderService struct {
	DB       DBLayer
	Throttle Throttle
	Badges   BadgeAwarder
	Notifier Notifier
	Logger   *logger.Logger

	now func() time.Time
}

func NewOrderService(db DBLayer, throttle Throttle, badges BadgeAwarder, notifier Notifier, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:       db,
		Throttle: throttle,
		Badges:   badges,
		Notifier: notifier,
		Logger:   log,
		now:      time.Now,
	}
}

// CreateOrder places a new pending order. The order, its items, the dish
// order-count bumps and the outlet counter increment land in one
// transaction; the chill throttle is evaluated against the post-increment
// count that transaction returned.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req CreateRequest) (*models.OrderWithItems, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.DishID == "" || item.Quantity <= 0 {
			return nil, apperr.Validation("each item needs a dish and a positive quantity")
		}
	}
	if req.TotalAmount < 0 {
		return nil, apperr.Validation("total amount must not be negative")
	}

	outlet, err := s.DB.GetOutlet(ctx, req.OutletID)
	if err != nil {
		return nil, fmt.Errorf("resolve outlet: %w", err)
	}

	now := s.now()
	if outlet.EffectivelyChilled(now) {
		return nil, apperr.Validation("outlet is in a chill period, try again later")
	}

	if err := s.validateDishes(ctx, outlet.ID, req.Items); err != nil {
		return nil, err
	}

	if req.GroupOrderID != "" {
		group, err := s.DB.GetGroupOrderByID(ctx, req.GroupOrderID)
		if err != nil {
			return nil, fmt.Errorf("resolve group order: %w", err)
		}
		if group.Status != models.GroupOrderOpen {
			return nil, apperr.InvalidState("group order is closed")
		}
		if group.OutletID != outlet.ID {
			return nil, apperr.Validation("group order belongs to a different outlet")
		}
	}

	order := models.Order{
		ID:                  uuid.NewString(),
		UserID:              userID,
		OutletID:            outlet.ID,
		GroupOrderID:        req.GroupOrderID,
		QRCode:              utils.GeneratePickupCode(),
		Status:              models.StatusPending,
		TotalAmount:         req.TotalAmount,
		SpecialInstructions: req.SpecialInstructions,
		EstimatedReadyTime:  now.Add(estimatePrepTime(len(req.Items))),
		CreatedAt:           now,
	}

	items := make([]models.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = models.OrderItem{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			DishID:         item.DishID,
			Quantity:       item.Quantity,
			PriceAtOrder:   item.Price,
			Customizations: item.Customizations,
		}
	}

	postCount, err := s.DB.CreateOrderTx(ctx, order, items)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.Logger.LogOrder("CREATE", order.ID, fmt.Sprintf("outlet %s now at %d active orders", outlet.ID, postCount))

	if s.Throttle != nil {
		s.Throttle.EvaluateAfterOrder(ctx, outlet, postCount)
	}

	if s.Badges != nil {
		if count, err := s.DB.CountOrdersByUser(ctx, userID); err == nil {
			s.Badges.OnOrderCreated(ctx, userID, count)
		} else {
			s.Logger.Warn("ORDER", fmt.Sprintf("badge hook skipped, count failed: %v", err))
		}
	}

	if s.Notifier != nil {
		s.Notifier.NotifyNewOrder(outlet.ID, order, items)
	}

	return &models.OrderWithItems{Order: order, Items: items}, nil
}

// UpdateStatus advances the order through the state machine. Illegal
// transitions are rejected at this boundary; terminal transitions release
// the outlet's active-order slot exactly once.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, next models.OrderStatus, actorID string, actorRole models.Role) error {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.authorizeTransition(ctx, order, next, actorID, actorRole); err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(next) {
		return apperr.InvalidState("cannot move order from %s to %s", order.Status, next)
	}

	if next.IsTerminal() {
		if err := s.DB.FinalizeOrderTx(ctx, order, next, s.now()); err != nil {
			return err
		}
	} else {
		if err := s.DB.AdvanceOrderStatus(ctx, orderID, order.Status, next); err != nil {
			return err
		}
	}

	s.Logger.LogOrder("STATUS", orderID, fmt.Sprintf("%s -> %s", order.Status, next))

	if s.Notifier != nil {
		s.Notifier.NotifyOrderStatusUpdate(order.UserID, orderID, next)
	}
	return nil
}

// CancelOrder is the student-facing cancellation path.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, actorID string) error {
	return s.UpdateStatus(ctx, orderID, models.StatusCancelled, actorID, models.RoleStudent)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID, actorID string, actorRole models.Role) (*models.OrderWithItems, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != actorID && actorRole == models.RoleStudent {
		// Collapses to a generic denial at the API boundary.
		return nil, apperr.Forbidden("order %s belongs to another user", orderID)
	}

	items, err := s.DB.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &models.OrderWithItems{Order: *order, Items: items}, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.DB.GetOrdersByUser(ctx, userID)
}

func (s *OrderService) authorizeTransition(ctx context.Context, order *models.Order, next models.OrderStatus, actorID string, actorRole models.Role) error {
	switch actorRole {
	case models.RoleStudent:
		// Students may only cancel their own order.
		if next != models.StatusCancelled {
			return apperr.Forbidden("students cannot advance order status")
		}
		if order.UserID != actorID {
			return apperr.Forbidden("order belongs to another user")
		}
	case models.RoleOutletOwner:
		outlet, err := s.DB.GetOutlet(ctx, order.OutletID)
		if err != nil {
			return err
		}
		if outlet.OwnerID != actorID {
			return apperr.Forbidden("outlet belongs to another owner")
		}
	case models.RoleUniversityAdmin, models.RoleAppAdmin:
		// Admins may manage any order.
	default:
		return apperr.Forbidden("unknown role")
	}
	return nil
}

func (s *OrderService) validateDishes(ctx context.Context, outletID string, items []ItemRequest) error {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.DishID
	}

	dishes, err := s.DB.GetDishesByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve dishes: %w", err)
	}

	byID := make(map[string]models.Dish, len(dishes))
	for _, dish := range dishes {
		byID[dish.ID] = dish
	}

	for _, item := range items {
		dish, ok := byID[item.DishID]
		if !ok {
			return apperr.Validation("dish %s does not exist", item.DishID)
		}
		if dish.OutletID != outletID {
			return apperr.Validation("dish %s belongs to a different outlet", item.DishID)
		}
		if !dish.Available {
			return apperr.Validation("dish %q is currently unavailable", dish.Name)
		}
	}
	return nil
}

// estimatePrepTime is a coarse kitchen estimate: a base window plus a few
// minutes per line item, capped at an hour.
func estimatePrepTime(itemCount int) time.Duration {
	est := 15*time.Minute + time.Duration(itemCount)*5*time.Minute
	if est > time.Hour {
		est = time.Hour
	}
	return est
}
