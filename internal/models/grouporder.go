package models

import (
	"time"

	"github.com/uptrace/bun"
)

type GroupOrderStatus string

const (
	GroupOrderOpen   GroupOrderStatus = "open"
	GroupOrderClosed GroupOrderStatus = "closed"
)

// GroupOrder is a shareable aggregation of individual orders against one
// outlet. Member orders use the ordinary order status vocabulary.
type GroupOrder struct {
	bun.BaseModel `bun:"table:group_orders"`

	ID         string           `bun:"id,pk" json:"id"`
	OutletID   string           `bun:"outlet_id,notnull" json:"outlet_id"`
	CreatorID  string           `bun:"creator_id,notnull" json:"creator_id"`
	ShareToken string           `bun:"share_token,unique,notnull" json:"share_token"`
	Status     GroupOrderStatus `bun:"status,notnull" json:"status"`
	CreatedAt  time.Time        `bun:"created_at,notnull" json:"created_at"`
	ClosedAt   time.Time        `bun:"closed_at,nullzero" json:"closed_at,omitempty"`
}
