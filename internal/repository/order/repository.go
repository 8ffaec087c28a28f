package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/observability"
)

var repoTracer = observability.Tracer("repository/order")

// GroupBy enumerates the supported breakdown groupings.
const (
	GroupByDay        = "day"
	GroupByHour       = "hour"
	GroupByRestaurant = "restaurant"
)

// Filters carries the optional predicates of the filtered analytics query.
// Date bounds are day-granular UTC midnights; the range is inclusive of both
// boundary days. Hour bounds are inclusive on both ends. Amount bounds of
// zero add no predicate, so min=max=0 excludes nothing.
type Filters struct {
	RestaurantID *int64
	StartDate    *time.Time
	EndDate      *time.Time
	MinAmount    *float64
	MaxAmount    *float64
	StartHour    *int
	EndHour      *int
	GroupBy      string
}

// DailyRow is one calendar day of grouped order aggregates.
type DailyRow struct {
	Date          string  `bun:"date"`
	OrderCount    int     `bun:"order_count"`
	TotalRevenue  float64 `bun:"total_revenue"`
	AvgOrderValue float64 `bun:"avg_order_value"`
}

// PeakBucket is the winning hour bucket of one day.
type PeakBucket struct {
	Hour       int
	OrderCount int
}

// RevenueRow is one restaurant's revenue aggregate within a range.
type RevenueRow struct {
	ID            int64   `bun:"id"`
	Name          string  `bun:"name"`
	Location      string  `bun:"location"`
	Cuisine       string  `bun:"cuisine"`
	TotalRevenue  float64 `bun:"total_revenue"`
	TotalOrders   int     `bun:"total_orders"`
	AvgOrderValue float64 `bun:"avg_order_value"`
}

// BreakdownRow is one grouped aggregate row of the filtered analytics query.
type BreakdownRow struct {
	GroupLabel    string  `bun:"group_label"`
	OrderCount    int     `bun:"order_count"`
	TotalRevenue  float64 `bun:"total_revenue"`
	AvgOrderValue float64 `bun:"avg_order_value"`
}

// Range is the global min/max order date; Null when no orders exist.
type Range struct {
	MinDate sql.NullString `bun:"min_date"`
	MaxDate sql.NullString `bun:"max_date"`
}

// Repository runs aggregation queries over the orders table. All methods are
// read-only and use the reader connection.
type Repository struct {
	reader *bun.DB
	driver string
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader, driver: conns.Driver}
}

// dateExpr renders col's calendar date as a YYYY-MM-DD string for the
// configured dialect.
func (r *Repository) dateExpr(col string) string {
	switch r.driver {
	case "mysql":
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-%%d')", col)
	case "sqlite", "sqlite3":
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", col)
	default: // postgres
		return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", col)
	}
}

// hourExpr extracts col's hour-of-day (0-23) as an integer for the
// configured dialect.
func (r *Repository) hourExpr(col string) string {
	switch r.driver {
	case "mysql":
		return fmt.Sprintf("HOUR(%s)", col)
	case "sqlite", "sqlite3":
		return fmt.Sprintf("CAST(strftime('%%H', %s) AS INTEGER)", col)
	default: // postgres
		return fmt.Sprintf("CAST(EXTRACT(HOUR FROM %s) AS INT)", col)
	}
}

// dayRange converts inclusive day bounds into a half-open timestamp window.
func dayRange(start, end time.Time) (time.Time, time.Time) {
	return start, end.AddDate(0, 0, 1)
}

// DailyMetrics groups one restaurant's orders by calendar day over the
// inclusive [start, end] range, day ascending. Days without orders are
// omitted.
func (r *Repository) DailyMetrics(ctx context.Context, restaurantID int64, start, end time.Time) ([]DailyRow, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.DailyMetrics", trace.WithAttributes(attribute.Int64("restaurant.id", restaurantID)))
	defer span.End()

	de := r.dateExpr("order_time")
	from, until := dayRange(start, end)

	var rows []DailyRow
	err := r.reader.NewSelect().
		TableExpr("orders").
		ColumnExpr(de+" AS date").
		ColumnExpr("COUNT(*) AS order_count").
		ColumnExpr("SUM(order_amount) AS total_revenue").
		ColumnExpr("AVG(order_amount) AS avg_order_value").
		Where("restaurant_id = ?", restaurantID).
		Where("order_time >= ?", from).
		Where("order_time < ?", until).
		GroupExpr(de).
		OrderExpr("date ASC").
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}
	return rows, nil
}

// PeakHours returns the peak hour bucket per day for one restaurant over the
// inclusive [start, end] range, keyed by date. The peak is the hour with the
// most orders; ties go to the lowest hour number.
func (r *Repository) PeakHours(ctx context.Context, restaurantID int64, start, end time.Time) (map[string]PeakBucket, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.PeakHours", trace.WithAttributes(attribute.Int64("restaurant.id", restaurantID)))
	defer span.End()

	de := r.dateExpr("order_time")
	he := r.hourExpr("order_time")
	from, until := dayRange(start, end)

	var rows []struct {
		Date       string `bun:"date"`
		Hour       int    `bun:"hour"`
		OrderCount int    `bun:"order_count"`
	}
	err := r.reader.NewSelect().
		TableExpr("orders").
		ColumnExpr(de+" AS date").
		ColumnExpr(he+" AS hour").
		ColumnExpr("COUNT(*) AS order_count").
		Where("restaurant_id = ?", restaurantID).
		Where("order_time >= ?", from).
		Where("order_time < ?", until).
		GroupExpr(de + ", " + he).
		OrderExpr("date ASC, order_count DESC, hour ASC").
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}

	// Rows arrive best-bucket-first per day; keep the first one seen.
	peaks := make(map[string]PeakBucket)
	for _, row := range rows {
		if _, ok := peaks[row.Date]; !ok {
			peaks[row.Date] = PeakBucket{Hour: row.Hour, OrderCount: row.OrderCount}
		}
	}
	return peaks, nil
}

// TopRestaurantsByRevenue joins orders to restaurants over the inclusive
// [start, end] range and returns up to limit restaurants ordered by revenue
// descending.
func (r *Repository) TopRestaurantsByRevenue(ctx context.Context, start, end time.Time, limit int) ([]RevenueRow, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.TopRestaurantsByRevenue", trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	from, until := dayRange(start, end)

	var rows []RevenueRow
	err := r.reader.NewSelect().
		TableExpr("orders").
		Join("JOIN restaurants ON restaurants.id = orders.restaurant_id").
		ColumnExpr("restaurants.id AS id").
		ColumnExpr("restaurants.name AS name").
		ColumnExpr("restaurants.location AS location").
		ColumnExpr("restaurants.cuisine AS cuisine").
		ColumnExpr("SUM(orders.order_amount) AS total_revenue").
		ColumnExpr("COUNT(orders.id) AS total_orders").
		ColumnExpr("AVG(orders.order_amount) AS avg_order_value").
		Where("orders.order_time >= ?", from).
		Where("orders.order_time < ?", until).
		GroupExpr("restaurants.id, restaurants.name, restaurants.location, restaurants.cuisine").
		OrderExpr("total_revenue DESC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}
	return rows, nil
}

// FilteredBreakdown applies the optional filters and groups the matching
// orders by day, hour, or restaurant. Day and hour groups are ordered by
// bucket key ascending; restaurant groups by revenue descending.
func (r *Repository) FilteredBreakdown(ctx context.Context, f Filters) ([]BreakdownRow, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.FilteredBreakdown", trace.WithAttributes(attribute.String("group_by", f.GroupBy)))
	defer span.End()

	q := r.reader.NewSelect().
		TableExpr("orders").
		Join("JOIN restaurants ON restaurants.id = orders.restaurant_id").
		ColumnExpr("COUNT(*) AS order_count").
		ColumnExpr("SUM(orders.order_amount) AS total_revenue").
		ColumnExpr("AVG(orders.order_amount) AS avg_order_value")

	if f.RestaurantID != nil && *f.RestaurantID > 0 {
		q = q.Where("orders.restaurant_id = ?", *f.RestaurantID)
	}
	if f.StartDate != nil && f.EndDate != nil {
		from, until := dayRange(*f.StartDate, *f.EndDate)
		q = q.Where("orders.order_time >= ?", from).Where("orders.order_time < ?", until)
	}
	if f.MinAmount != nil && *f.MinAmount > 0 {
		q = q.Where("orders.order_amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil && *f.MaxAmount > 0 {
		q = q.Where("orders.order_amount <= ?", *f.MaxAmount)
	}
	if f.StartHour != nil && f.EndHour != nil {
		he := r.hourExpr("orders.order_time")
		q = q.Where(he+" >= ?", *f.StartHour).Where(he+" <= ?", *f.EndHour)
	}

	switch f.GroupBy {
	case GroupByHour:
		he := r.hourExpr("orders.order_time")
		q = q.ColumnExpr(he + " AS group_label").
			GroupExpr(he).
			OrderExpr("group_label ASC")
	case GroupByRestaurant:
		q = q.ColumnExpr("restaurants.name AS group_label").
			GroupExpr("restaurants.id, restaurants.name").
			OrderExpr("total_revenue DESC")
	default: // day
		de := r.dateExpr("orders.order_time")
		q = q.ColumnExpr(de + " AS group_label").
			GroupExpr(de).
			OrderExpr("group_label ASC")
	}

	var rows []BreakdownRow
	if err := q.Scan(ctx, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}
	return rows, nil
}

// DateRange returns the calendar dates of the oldest and newest orders.
func (r *Repository) DateRange(ctx context.Context) (Range, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.DateRange")
	defer span.End()

	de := r.dateExpr("order_time")

	var rng Range
	err := r.reader.NewSelect().
		TableExpr("orders").
		ColumnExpr("MIN("+de+") AS min_date").
		ColumnExpr("MAX("+de+") AS max_date").
		Scan(ctx, &rng.MinDate, &rng.MaxDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return Range{}, err
	}
	return rng, nil
}
