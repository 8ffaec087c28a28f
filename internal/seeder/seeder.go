package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

// Seeder loads fixture restaurants and orders for local/dev setups.
type Seeder struct {
	db              *bun.DB
	restaurantsFile string
	ordersFile      string
	logger          *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:              conns.Writer,
		restaurantsFile: cfg.Seed.RestaurantsFile,
		ordersFile:      cfg.Seed.OrdersFile,
		logger:          logger,
	}
}

type restaurantFixture struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Cuisine  string `json:"cuisine"`
}

type orderFixture struct {
	ID           int64   `json:"id"`
	RestaurantID int64   `json:"restaurant_id"`
	OrderAmount  float64 `json:"order_amount"`
	OrderTime    string  `json:"order_time"`
}

// Restaurants upserts the restaurant fixtures, keeping fixture ids so
// orders can reference them.
func (s *Seeder) Restaurants(ctx context.Context) error {
	var fixtures []restaurantFixture
	if err := readFixtures(s.restaurantsFile, &fixtures); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, f := range fixtures {
		restaurant := entity.Restaurant{
			ID:        f.ID,
			Name:      f.Name,
			Location:  f.Location,
			Cuisine:   f.Cuisine,
			CreatedAt: now,
			UpdatedAt: now,
		}
		// Ignore picks the conflict clause for the active dialect
		// (INSERT IGNORE on mysql, ON CONFLICT DO NOTHING elsewhere).
		_, err := s.db.NewInsert().Model(&restaurant).
			Ignore().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("seed restaurant %d: %w", f.ID, err)
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded restaurants", zap.Int("count", len(fixtures)))
	}
	return nil
}

// Orders inserts the order fixtures. Order times are RFC 3339 timestamps.
func (s *Seeder) Orders(ctx context.Context) error {
	var fixtures []orderFixture
	if err := readFixtures(s.ordersFile, &fixtures); err != nil {
		return err
	}

	for _, f := range fixtures {
		orderTime, err := time.Parse(time.RFC3339, f.OrderTime)
		if err != nil {
			return fmt.Errorf("seed order %d: parse order_time: %w", f.ID, err)
		}
		order := entity.Order{
			ID:           f.ID,
			RestaurantID: f.RestaurantID,
			OrderAmount:  f.OrderAmount,
			OrderTime:    orderTime.UTC(),
		}
		_, err = s.db.NewInsert().Model(&order).
			Ignore().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("seed order %d: %w", f.ID, err)
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", len(fixtures)))
	}
	return nil
}

func readFixtures(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixtures %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode fixtures %s: %w", path, err)
	}
	return nil
}
