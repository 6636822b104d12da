package pickup

import (
	"context"
	"fmt"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/logger"
	"campusbites/internal/models"
	"campusbites/internal/utils"
)

// OrderStore is the slice of the order store the pickup flow needs.
// FinalizeOrderTx is the same terminal-transition path the lifecycle
// manager uses, so the outlet counter is released exactly once no matter
// which door the confirmation came through.
type OrderStore interface {
	GetOrderByQRCode(ctx context.Context, code string) (*models.Order, error)
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	GetOutlet(ctx context.Context, id string) (*models.Outlet, error)
	FinalizeOrderTx(ctx context.Context, order *models.Order, to models.OrderStatus, now time.Time) error
}

type Notifier interface {
	NotifyOrderStatusUpdate(userID, orderID string, status models.OrderStatus)
}

// Details is the aggregate shown to whoever scanned a pickup credential.
type Details struct {
	Order  models.Order       `json:"order"`
	Items  []models.OrderItem `json:"items"`
	Outlet models.Outlet      `json:"outlet"`
}

type PickupService struct {
	DB       OrderStore
	Notifier Notifier
	Logger   *logger.Logger

	now func() time.Time
}

func NewPickupService(db OrderStore, notifier Notifier, log *logger.Logger) *PickupService {
	return &PickupService{DB: db, Notifier: notifier, Logger: log, now: time.Now}
}

// VerifyByCode resolves a pickup credential to its order, items and
// outlet, independent of status.
func (s *PickupService) VerifyByCode(ctx context.Context, code string) (*Details, error) {
	if !utils.IsPickupCode(code) {
		return nil, apperr.Validation("malformed pickup code")
	}

	order, err := s.DB.GetOrderByQRCode(ctx, code)
	if err != nil {
		return nil, err
	}

	items, err := s.DB.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	outlet, err := s.DB.GetOutlet(ctx, order.OutletID)
	if err != nil {
		return nil, err
	}

	s.Logger.LogPickup("VERIFY", code, fmt.Sprintf("order %s status %s", order.ID, order.Status))
	return &Details{Order: *order, Items: items, Outlet: *outlet}, nil
}

// ConfirmPickup is the student self-service path: only the ordering user
// may confirm, and only a ready order.
func (s *PickupService) ConfirmPickup(ctx context.Context, orderID, requestingUserID string) error {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != requestingUserID {
		return apperr.Forbidden("order belongs to another user")
	}
	return s.complete(ctx, order)
}

// ScanByOutlet is the staff path: the credential must resolve to an order
// of the scanning outlet. This is the only place someone other than the
// ordering student may confirm a pickup.
func (s *PickupService) ScanByOutlet(ctx context.Context, code, outletID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByQRCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if order.OutletID != outletID {
		return nil, apperr.Forbidden("order belongs to another outlet")
	}
	if err := s.complete(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PickupService) complete(ctx context.Context, order *models.Order) error {
	if order.Status != models.StatusReady {
		return apperr.InvalidState("order not ready for pickup (status %s)", order.Status)
	}

	// The status guard inside FinalizeOrderTx makes a concurrent double
	// confirm lose with a conflict instead of double-decrementing.
	if err := s.DB.FinalizeOrderTx(ctx, order, models.StatusCompleted, s.now()); err != nil {
		return err
	}

	s.Logger.LogPickup("CONFIRM", order.QRCode, fmt.Sprintf("order %s completed", order.ID))

	if s.Notifier != nil {
		s.Notifier.NotifyOrderStatusUpdate(order.UserID, order.ID, models.StatusCompleted)
	}
	return nil
}
