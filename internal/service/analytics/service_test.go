package analytics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	restaurantrepo "github.com/Additional-Code/bistro/internal/repository/restaurant"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

type fixture struct {
	svc   *Service
	conns *database.Connections
}

func newFixture(t *testing.T, store cache.Store) *fixture {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.NewCreateTable().Model((*entity.Restaurant)(nil)).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewCreateTable().Model((*entity.Order)(nil)).Exec(ctx)
	require.NoError(t, err)

	restaurants := []entity.Restaurant{
		{ID: 1, Name: "Spice Symphony", Location: "Bandra", Cuisine: "North Indian"},
		{ID: 2, Name: "Dragon Wok", Location: "Powai", Cuisine: "Chinese"},
		{ID: 3, Name: "Chaat Corner", Location: "Dadar", Cuisine: "Street Food"},
	}
	_, err = db.NewInsert().Model(&restaurants).Exec(ctx)
	require.NoError(t, err)

	orders := []entity.Order{
		{ID: 1, RestaurantID: 1, OrderAmount: 100, OrderTime: at(1, 12, 0)},
		{ID: 2, RestaurantID: 1, OrderAmount: 200, OrderTime: at(1, 12, 30)},
		{ID: 3, RestaurantID: 1, OrderAmount: 300, OrderTime: at(1, 18, 0)},
		{ID: 4, RestaurantID: 1, OrderAmount: 50, OrderTime: at(2, 10, 0)},
		{ID: 5, RestaurantID: 1, OrderAmount: 150, OrderTime: at(2, 23, 30)},
		{ID: 6, RestaurantID: 2, OrderAmount: 400, OrderTime: at(1, 19, 0)},
		{ID: 7, RestaurantID: 2, OrderAmount: 500, OrderTime: at(1, 19, 30)},
	}
	_, err = db.NewInsert().Model(&orders).Exec(ctx)
	require.NoError(t, err)

	conns := &database.Connections{Writer: db, Reader: db, Driver: "sqlite3"}
	cfg := config.Config{Cache: config.Cache{
		AggregateTTL: 15 * time.Minute,
		StatsTTL:     5 * time.Minute,
		MetaTTL:      time.Hour,
	}}

	svc := NewService(Params{
		Orders:      orderrepo.NewRepository(conns),
		Restaurants: restaurantrepo.NewRepository(conns),
		Cache:       store,
		Config:      cfg,
		Logger:      zap.NewNop(),
	})
	return &fixture{svc: svc, conns: conns}
}

func newRedisStore(t *testing.T) cache.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedis(client, time.Minute)
}

func at(day, hour, min int) time.Time {
	return time.Date(2025, 6, day, hour, min, 0, 0, time.UTC)
}

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestGetOrderTrends(t *testing.T) {
	f := newFixture(t, cache.NoopStore{})

	data, err := f.svc.GetOrderTrends(context.Background(), 1, day(1), day(2))
	require.NoError(t, err)

	assert.Equal(t, int64(1), data.Restaurant.ID)
	assert.Equal(t, "Spice Symphony", data.Restaurant.Name)
	assert.Equal(t, "2025-06-01", data.DateRange.Start)
	assert.Equal(t, "2025-06-02", data.DateRange.End)
	assert.Equal(t, 2, data.DateRange.Days)

	require.Len(t, data.DailyMetrics, 2)
	first := data.DailyMetrics[0]
	assert.Equal(t, "2025-06-01", first.Date)
	assert.Equal(t, "Sunday", first.DayOfWeek)
	assert.Equal(t, 3, first.OrderCount)
	assert.InDelta(t, 600, first.TotalRevenue, 0.001)
	assert.InDelta(t, 200, first.AvgOrderValue, 0.001)
	assert.Equal(t, 12, first.PeakHour.Hour)
	assert.Equal(t, "12:00 PM", first.PeakHour.HourFormatted)
	assert.Equal(t, 2, first.PeakHour.OrderCount)

	second := data.DailyMetrics[1]
	assert.Equal(t, "Monday", second.DayOfWeek)
	assert.Equal(t, 10, second.PeakHour.Hour, "tied hours resolve to the lowest")
}

func TestGetOrderTrendsSummaryMatchesDailyTotals(t *testing.T) {
	f := newFixture(t, cache.NoopStore{})

	data, err := f.svc.GetOrderTrends(context.Background(), 1, day(1), day(2))
	require.NoError(t, err)

	var orders int
	var revenue float64
	for _, m := range data.DailyMetrics {
		orders += m.OrderCount
		revenue += m.TotalRevenue
	}
	assert.Equal(t, orders, data.Summary.TotalOrders)
	assert.InDelta(t, revenue, data.Summary.TotalRevenue, 0.01)
	assert.InDelta(t, revenue/float64(orders), data.Summary.AvgOrderValue, 0.01)

	// Peak hours 12 and 10 occur once each; the first day's wins.
	assert.Equal(t, 12, data.Summary.MostCommonPeakHour)
	assert.Equal(t, "12:00 PM", data.Summary.MostCommonPeakHourFormatted)
}

func TestGetOrderTrendsEmptyRange(t *testing.T) {
	f := newFixture(t, cache.NoopStore{})

	data, err := f.svc.GetOrderTrends(context.Background(), 1, day(10), day(12))
	require.NoError(t, err)

	assert.Empty(t, data.DailyMetrics)
	assert.Zero(t, data.Summary.TotalOrders)
	assert.Zero(t, data.Summary.AvgOrderValue)
	assert.Equal(t, 0, data.Summary.MostCommonPeakHour)
	assert.Equal(t, 3, data.DateRange.Days)
}

func TestGetOrderTrendsUnknownRestaurant(t *testing.T) {
	f := newFixture(t, cache.NoopStore{})

	_, err := f.svc.GetOrderTrends(context.Background(), 999, day(1), day(2))
	require.Error(t, err)
	assert.Equal(t, 404, errorbank.From(err).StatusCode())
	assert.Equal(t, "Restaurant not found", errorbank.From(err).Message())
}

func TestGetTopRestaurants(t *testing.T) {
	f := newFixture(t, cache.NoopStore{})

	data, err := f.svc.GetTopRestaurants(context.Background(), day(1), day(2), 10)
	require.NoError(t, err)

	assert.Equal(t, 3, data.TotalRestaurantsAnalyzed)
	require.Len(t, data.Rankings, 2)

	assert.Equal(t, 1, data.Rankings[0].Rank)
	assert.Equal(t, "Dragon Wok", data.Rankings[0].Restaurant.Name)
	assert.InDelta(t, 900, data.Rankings[0].Metrics.TotalRevenue, 0.001)

	assert.Equal(t, 2, data.Rankings[1].Rank)
	assert.Equal(t, "Spice Symphony", data.Rankings[1].Restaurant.Name)

	var pct float64
	for _, r := range data.Rankings {
		pct += r.Metrics.RevenuePercentage
	}
	assert.InDelta(t, 100, pct, 0.01, "percentages sum to 100 over the returned set")
}

func TestGetTopRestaurantsLimitedSubsetPercentages(t *testing.T) {
	f := newFixture(t, cache.NoopStore{})

	data, err := f.svc.GetTopRestaurants(context.Background(), day(1), day(2), 1)
	require.NoError(t, err)

	require.Len(t, data.Rankings, 1)
	assert.InDelta(t, 100, data.Rankings[0].Metrics.RevenuePercentage, 0.01)
}

func TestGetFilteredAnalytics(t *testing.T) {
	f := newFixture(t, cache.NoopStore{})

	start, end := day(1), day(2)
	minAmount := 100.0
	id := int64(1)
	data, err := f.svc.GetFilteredAnalytics(context.Background(), orderrepo.Filters{
		RestaurantID: &id,
		StartDate:    &start,
		EndDate:      &end,
		MinAmount:    &minAmount,
		GroupBy:      orderrepo.GroupByDay,
	})
	require.NoError(t, err)

	// Orders 100, 200, 300 on day 1 and 150 on day 2 pass the filters.
	assert.Equal(t, 4, data.Summary.FilteredOrders)
	assert.InDelta(t, 750, data.Summary.TotalRevenue, 0.001)
	assert.InDelta(t, 187.5, data.Summary.AvgOrderValue, 0.001)

	require.Len(t, data.Breakdown, 2)
	assert.Equal(t, "2025-06-01", data.Breakdown[0].Group)
	assert.Equal(t, 3, data.Breakdown[0].OrderCount)

	assert.Equal(t, "Spice Symphony (ID: 1)", data.FiltersApplied["restaurant"])
	assert.Equal(t, "2025-06-01 to 2025-06-02", data.FiltersApplied["date_range"])
	assert.Equal(t, "₹100 - ₹∞", data.FiltersApplied["amount_range"])
	assert.NotContains(t, data.FiltersApplied, "hour_range")
}

func TestGetFilteredAnalyticsHourRangeDescription(t *testing.T) {
	f := newFixture(t, cache.NoopStore{})

	startHour, endHour := 10, 14
	data, err := f.svc.GetFilteredAnalytics(context.Background(), orderrepo.Filters{
		StartHour: &startHour,
		EndHour:   &endHour,
		GroupBy:   orderrepo.GroupByHour,
	})
	require.NoError(t, err)

	assert.Equal(t, "10:00 AM - 2:00 PM", data.FiltersApplied["hour_range"])
	// Hours 10, 12, 12 fall in range.
	assert.Equal(t, 3, data.Summary.FilteredOrders)
}

func TestGetFilteredAnalyticsEmptyResult(t *testing.T) {
	f := newFixture(t, cache.NoopStore{})

	min := 10000.0
	data, err := f.svc.GetFilteredAnalytics(context.Background(), orderrepo.Filters{
		MinAmount: &min,
		GroupBy:   orderrepo.GroupByDay,
	})
	require.NoError(t, err)

	assert.Zero(t, data.Summary.FilteredOrders)
	assert.Zero(t, data.Summary.AvgOrderValue)
	assert.Empty(t, data.Breakdown)
}

func TestGetFilteredAnalyticsCachedWithinTTL(t *testing.T) {
	f := newFixture(t, newRedisStore(t))
	ctx := context.Background()

	filters := orderrepo.Filters{GroupBy: orderrepo.GroupByDay}
	first, err := f.svc.GetFilteredAnalytics(ctx, filters)
	require.NoError(t, err)

	// New data does not affect a cached result.
	_, err = f.conns.Writer.NewInsert().Model(&entity.Order{
		ID: 99, RestaurantID: 1, OrderAmount: 777, OrderTime: at(1, 9, 0),
	}).Exec(ctx)
	require.NoError(t, err)

	second, err := f.svc.GetFilteredAnalytics(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Different filters bypass the cached entry.
	id := int64(1)
	third, err := f.svc.GetFilteredAnalytics(ctx, orderrepo.Filters{RestaurantID: &id, GroupBy: orderrepo.GroupByDay})
	require.NoError(t, err)
	assert.NotEqual(t, first.Summary.FilteredOrders, third.Summary.FilteredOrders)
}

func TestGetFilterMeta(t *testing.T) {
	f := newFixture(t, cache.NoopStore{})

	meta, err := f.svc.GetFilterMeta(context.Background())
	require.NoError(t, err)

	require.NotNil(t, meta.DateRange.MinDate)
	require.NotNil(t, meta.DateRange.MaxDate)
	assert.Equal(t, "2025-06-01", *meta.DateRange.MinDate)
	assert.Equal(t, "2025-06-02", *meta.DateRange.MaxDate)

	assert.ElementsMatch(t, []string{"Bandra", "Powai", "Dadar"}, meta.Locations)
	assert.ElementsMatch(t, []string{"North Indian", "Chinese", "Street Food"}, meta.Cuisines)

	require.Len(t, meta.Hours, 24)
	assert.Equal(t, 0, meta.Hours[0])
	assert.Equal(t, 23, meta.Hours[23])
}

func TestFormatHour(t *testing.T) {
	assert.Equal(t, "12:00 AM", FormatHour(0))
	assert.Equal(t, "9:00 AM", FormatHour(9))
	assert.Equal(t, "12:00 PM", FormatHour(12))
	assert.Equal(t, "2:00 PM", FormatHour(14))
	assert.Equal(t, "11:00 PM", FormatHour(23))
}
