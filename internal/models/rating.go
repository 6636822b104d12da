package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Rating struct {
	bun.BaseModel `bun:"table:ratings"`

	ID            string    `bun:"id,pk" json:"id"`
	OrderID       string    `bun:"order_id,unique,notnull" json:"order_id"`
	OutletID      string    `bun:"outlet_id,notnull" json:"outlet_id"`
	UserID        string    `bun:"user_id,notnull" json:"user_id"`
	Stars         int       `bun:"stars,notnull" json:"stars"`
	Comment       string    `bun:"comment,nullzero" json:"comment,omitempty"`
	TokensAwarded int       `bun:"tokens_awarded,notnull" json:"tokens_awarded"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}
