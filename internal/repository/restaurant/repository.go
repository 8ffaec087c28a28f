package restaurant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/observability"
)

var repoTracer = observability.Tracer("repository/restaurant")

// ErrNotFound is returned when a restaurant is missing.
var ErrNotFound = errors.New("restaurant not found")

// ListFilters narrows and orders a restaurant listing.
type ListFilters struct {
	Search   string
	Location string
	Cuisine  string
	Sort     string
	Order    string
}

// OrderStats aggregates the order history of one restaurant. Values are raw
// sums/averages; rounding happens when responses are shaped.
type OrderStats struct {
	RestaurantID  int64   `bun:"restaurant_id"`
	TotalOrders   int     `bun:"total_orders"`
	TotalRevenue  float64 `bun:"total_revenue"`
	AvgOrderValue float64 `bun:"avg_order_value"`
}

// Repository encapsulates read access for restaurants.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository backed by the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// sortable whitelists the fields a listing may be ordered by.
var sortable = map[string]bool{"name": true, "location": true, "cuisine": true}

// List returns restaurants matching the filters. Unknown sort fields leave
// the listing unordered, matching the permissive query contract; only an
// explicit "desc" flips the direction.
func (r *Repository) List(ctx context.Context, f ListFilters) ([]entity.Restaurant, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.List")
	defer span.End()

	var restaurants []entity.Restaurant
	q := r.reader.NewSelect().Model(&restaurants)

	if f.Search != "" {
		q = q.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if f.Location != "" {
		q = q.Where("location = ?", f.Location)
	}
	if f.Cuisine != "" {
		q = q.Where("cuisine = ?", f.Cuisine)
	}

	if sortable[f.Sort] {
		dir := "ASC"
		if f.Order == "desc" {
			dir = "DESC"
		}
		q = q.OrderExpr(fmt.Sprintf("%s %s", f.Sort, dir))
	}

	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return restaurants, nil
}

// Find fetches a restaurant by primary key.
func (r *Repository) Find(ctx context.Context, id int64) (*entity.Restaurant, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.Find", trace.WithAttributes(attribute.Int64("restaurant.id", id)))
	defer span.End()

	restaurant := new(entity.Restaurant)
	err := r.reader.NewSelect().Model(restaurant).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return restaurant, nil
}

// Count returns the total number of restaurants.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.Count")
	defer span.End()

	count, err := r.reader.NewSelect().Model((*entity.Restaurant)(nil)).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return 0, err
	}
	return count, nil
}

// Locations returns the distinct restaurant locations.
func (r *Repository) Locations(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "location")
}

// Cuisines returns the distinct restaurant cuisines.
func (r *Repository) Cuisines(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "cuisine")
}

func (r *Repository) distinct(ctx context.Context, column string) ([]string, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.Distinct", trace.WithAttributes(attribute.String("column", column)))
	defer span.End()

	var values []string
	err := r.reader.NewSelect().
		Model((*entity.Restaurant)(nil)).
		ColumnExpr("DISTINCT "+column).
		Scan(ctx, &values)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return values, nil
}

// Stats aggregates the full order history of one restaurant. Restaurants
// without orders yield zero-valued stats.
func (r *Repository) Stats(ctx context.Context, id int64) (OrderStats, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.Stats", trace.WithAttributes(attribute.Int64("restaurant.id", id)))
	defer span.End()

	stats := OrderStats{RestaurantID: id}
	err := r.reader.NewSelect().
		TableExpr("orders").
		ColumnExpr("COUNT(*) AS total_orders").
		ColumnExpr("COALESCE(SUM(order_amount), 0) AS total_revenue").
		ColumnExpr("COALESCE(AVG(order_amount), 0) AS avg_order_value").
		Where("restaurant_id = ?", id).
		Scan(ctx, &stats.TotalOrders, &stats.TotalRevenue, &stats.AvgOrderValue)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return OrderStats{}, err
	}
	return stats, nil
}

// StatsForAll aggregates order stats for every restaurant that has orders,
// keyed by restaurant id. One grouped query replaces a per-restaurant loop.
func (r *Repository) StatsForAll(ctx context.Context) (map[int64]OrderStats, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.StatsForAll")
	defer span.End()

	var rows []OrderStats
	err := r.reader.NewSelect().
		TableExpr("orders").
		ColumnExpr("restaurant_id").
		ColumnExpr("COUNT(*) AS total_orders").
		ColumnExpr("SUM(order_amount) AS total_revenue").
		ColumnExpr("AVG(order_amount) AS avg_order_value").
		GroupExpr("restaurant_id").
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}

	stats := make(map[int64]OrderStats, len(rows))
	for _, row := range rows {
		stats[row.RestaurantID] = row
	}
	return stats, nil
}
