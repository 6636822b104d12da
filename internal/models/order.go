package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// transitions is the closed set of legal status moves. Terminal states have
// no outgoing entries, so any attempt past completed/cancelled is rejected.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusCompleted},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// CanTransitionTo reports whether next is reachable from the current status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the order's life. Terminal
// transitions are the ones that release the outlet's active-order slot.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID                  string      `bun:"id,pk" json:"id"`
	UserID              string      `bun:"user_id,notnull" json:"user_id"`
	OutletID            string      `bun:"outlet_id,notnull" json:"outlet_id"`
	GroupOrderID        string      `bun:"group_order_id,nullzero" json:"group_order_id,omitempty"`
	QRCode              string      `bun:"qr_code,unique,notnull" json:"qr_code"`
	Status              OrderStatus `bun:"status,notnull" json:"status"`
	TotalAmount         float64     `bun:"total_amount,notnull" json:"total_amount"`
	SpecialInstructions string      `bun:"special_instructions,nullzero" json:"special_instructions,omitempty"`
	EstimatedReadyTime  time.Time   `bun:"estimated_ready_time,nullzero" json:"estimated_ready_time"`
	CompletedAt         time.Time   `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
	CreatedAt           time.Time   `bun:"created_at,notnull" json:"created_at"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID             string  `bun:"id,pk" json:"id"`
	OrderID        string  `bun:"order_id,notnull" json:"order_id"`
	DishID         string  `bun:"dish_id,notnull" json:"dish_id"`
	Quantity       int     `bun:"quantity,notnull" json:"quantity"`
	PriceAtOrder   float64 `bun:"price_at_order,notnull" json:"price_at_order"`
	Customizations string  `bun:"customizations,nullzero" json:"customizations,omitempty"`
}

type OrderWithItems struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}
