package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Reward types. The wheel treats them uniformly; only token prizes touch
// the balance at claim time, the rest are redeemed out of band.
const (
	RewardTypeTokens   = "tokens"
	RewardTypeDiscount = "discount"
	RewardTypeFreeItem = "free_item"
	RewardTypeNone     = "none"
)

type Reward struct {
	bun.BaseModel `bun:"table:rewards"`

	ID          string `bun:"id,pk" json:"id"`
	Title       string `bun:"title,notnull" json:"title"`
	Type        string `bun:"type,notnull" json:"type"`
	Value       int    `bun:"value,notnull" json:"value"`
	Probability int    `bun:"probability,notnull" json:"probability"`
}

type RewardClaim struct {
	bun.BaseModel `bun:"table:reward_claims"`

	ID          string    `bun:"id,pk" json:"id"`
	UserID      string    `bun:"user_id,notnull" json:"user_id"`
	RewardID    string    `bun:"reward_id,notnull" json:"reward_id"`
	TokensSpent int       `bun:"tokens_spent,notnull" json:"tokens_spent"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

type SpinResult struct {
	Reward      Reward `json:"reward"`
	TokensSpent int    `json:"tokens_spent"`
	Balance     int    `json:"balance"`
}
