package order

import (
	"context"
	"fmt"

	"campusbites/internal/apperr"
	"campusbites/internal/models"
	"campusbites/internal/utils"

	"github.com/google/uuid"
)

// ---------------- GROUP ORDERS ----------------

// CreateGroupOrder opens a shareable group order against an outlet. Member
// orders attach to it through CreateOrder's group_order_id.
func (s *OrderService) CreateGroupOrder(ctx context.Context, creatorID, outletID string) (*models.GroupOrder, error) {
	if _, err := s.DB.GetOutlet(ctx, outletID); err != nil {
		return nil, fmt.Errorf("resolve outlet: %w", err)
	}

	group := models.GroupOrder{
		ID:         uuid.NewString(),
		OutletID:   outletID,
		CreatorID:  creatorID,
		ShareToken: utils.GenerateShareToken(),
		Status:     models.GroupOrderOpen,
		CreatedAt:  s.now(),
	}
	if err := s.DB.CreateGroupOrder(ctx, group); err != nil {
		return nil, fmt.Errorf("create group order: %w", err)
	}

	s.Logger.LogOrder("GROUP", group.ID, "group order opened")
	return &group, nil
}

// GetGroupOrder resolves a share token to the group order and its member
// orders.
func (s *OrderService) GetGroupOrder(ctx context.Context, shareToken string) (*models.GroupOrder, []models.Order, error) {
	group, err := s.DB.GetGroupOrderByShareToken(ctx, shareToken)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.DB.GetOrdersByGroup(ctx, group.ID)
	if err != nil {
		return nil, nil, err
	}
	return group, members, nil
}

// CloseGroupOrder ends intake on a group order. Only the creator may close.
func (s *OrderService) CloseGroupOrder(ctx context.Context, groupID, actorID string) error {
	group, err := s.DB.GetGroupOrderByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatorID != actorID {
		return apperr.Forbidden("group order belongs to another user")
	}
	if err := s.DB.CloseGroupOrder(ctx, groupID, s.now()); err != nil {
		return err
	}
	s.Logger.LogOrder("GROUP", groupID, "group order closed")
	return nil
}
