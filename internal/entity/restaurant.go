package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Restaurant is immutable reference data created at seed time.
type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants"`

	ID        int64     `bun:",pk"`
	Name      string    `bun:"name"`
	Location  string    `bun:"location"`
	Cuisine   string    `bun:"cuisine"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
