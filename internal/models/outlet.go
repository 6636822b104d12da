package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Outlet struct {
	bun.BaseModel `bun:"table:outlets"`

	ID                string    `bun:"id,pk" json:"id"`
	UniversityID      string    `bun:"university_id,notnull" json:"university_id"`
	OwnerID           string    `bun:"owner_id,notnull" json:"owner_id"`
	Name              string    `bun:"name,notnull" json:"name"`
	ActiveOrdersCount int       `bun:"active_orders_count,notnull,default:0" json:"active_orders_count"`
	MaxActiveOrders   int       `bun:"max_active_orders,notnull,default:10" json:"max_active_orders"`
	ChillActive       bool      `bun:"chill_active,notnull,default:false" json:"chill_active"`
	ChillEndsAt       time.Time `bun:"chill_ends_at,nullzero" json:"chill_ends_at,omitempty"`
	CreatedAt         time.Time `bun:"created_at,notnull" json:"created_at"`
}

// EffectivelyChilled reports whether the outlet is currently refusing new
// orders. The chill flag is a passive timestamp, so the expiry has to be
// compared against "now" on every read.
func (o *Outlet) EffectivelyChilled(now time.Time) bool {
	return o.ChillActive && now.Before(o.ChillEndsAt)
}

// OutletView is the API shape for an outlet, carrying the computed chill
// state so clients never interpret the raw flag + timestamp themselves.
type OutletView struct {
	Outlet
	Chilled bool `json:"chilled"`
}

func (o *Outlet) ToView(now time.Time) OutletView {
	return OutletView{Outlet: *o, Chilled: o.EffectivelyChilled(now)}
}
