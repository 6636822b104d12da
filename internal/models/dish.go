package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Dish struct {
	bun.BaseModel `bun:"table:dishes"`

	ID         string    `bun:"id,pk" json:"id"`
	OutletID   string    `bun:"outlet_id,notnull" json:"outlet_id"`
	Name       string    `bun:"name,notnull" json:"name"`
	Price      float64   `bun:"price,notnull" json:"price"`
	Category   string    `bun:"category,nullzero" json:"category,omitempty"`
	Available  bool      `bun:"available,notnull,default:true" json:"available"`
	Calories   int       `bun:"calories,nullzero" json:"calories,omitempty"`
	ProteinG   int       `bun:"protein_g,nullzero" json:"protein_g,omitempty"`
	OrderCount int       `bun:"order_count,notnull,default:0" json:"order_count"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}
