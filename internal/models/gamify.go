package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Badge struct {
	bun.BaseModel `bun:"table:badges"`

	ID          string `bun:"id,pk" json:"id"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description,nullzero" json:"description,omitempty"`
	Icon        string `bun:"icon,nullzero" json:"icon,omitempty"`
}

type UserBadge struct {
	bun.BaseModel `bun:"table:user_badges"`

	ID       string    `bun:"id,pk" json:"id"`
	UserID   string    `bun:"user_id,notnull" json:"user_id"`
	BadgeID  string    `bun:"badge_id,notnull" json:"badge_id"`
	EarnedAt time.Time `bun:"earned_at,notnull" json:"earned_at"`
}

type Challenge struct {
	bun.BaseModel `bun:"table:challenges"`

	ID          string `bun:"id,pk" json:"id"`
	Title       string `bun:"title,notnull" json:"title"`
	Description string `bun:"description,nullzero" json:"description,omitempty"`
	TokenReward int    `bun:"token_reward,notnull" json:"token_reward"`
	Active      bool   `bun:"active,notnull,default:true" json:"active"`
}

type LeaderboardEntry struct {
	UserID     string `bun:"user_id" json:"user_id"`
	FullName   string `bun:"full_name" json:"full_name"`
	Tokens     int    `bun:"tokens" json:"tokens"`
	OrderCount int    `bun:"order_count" json:"order_count"`
	Rank       int    `bun:"-" json:"rank"`
}

type ComfortFoodEntry struct {
	DishID     string `bun:"dish_id" json:"dish_id"`
	DishName   string `bun:"dish_name" json:"dish_name"`
	TimesOrder int    `bun:"times_ordered" json:"times_ordered"`
}
