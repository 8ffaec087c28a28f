package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order is a purchase order referencing a restaurant. Orders are seeded with
// explicit ids and never updated afterwards.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           int64     `bun:",pk"`
	RestaurantID int64     `bun:"restaurant_id,notnull"`
	OrderAmount  float64   `bun:"order_amount,notnull"`
	OrderTime    time.Time `bun:"order_time,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`

	Restaurant *Restaurant `bun:"rel:belongs-to,join:restaurant_id=id"`
}
