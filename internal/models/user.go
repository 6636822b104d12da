package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Role string

const (
	RoleStudent         Role = "student"
	RoleOutletOwner     Role = "outlet_owner"
	RoleUniversityAdmin Role = "university_admin"
	RoleAppAdmin        Role = "app_admin"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk" json:"id"`
	Email        string    `bun:"email,unique,notnull" json:"email"`
	FullName     string    `bun:"full_name,notnull" json:"full_name"`
	Role         Role      `bun:"role,notnull" json:"role"`
	UniversityID string    `bun:"university_id,nullzero" json:"university_id,omitempty"`
	Tokens       int       `bun:"tokens,notnull,default:0" json:"tokens"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
}
