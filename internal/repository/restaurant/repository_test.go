package restaurant

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

func newSeededRepo(t *testing.T) *Repository {
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
		{ID: 2, Name: "Tandoor Tales", Location: "Bandra", Cuisine: "North Indian"},
		{ID: 3, Name: "Dragon Wok", Location: "Powai", Cuisine: "Chinese"},
	}
	_, err = db.NewInsert().Model(&restaurants).Exec(ctx)
	require.NoError(t, err)

	when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	orders := []entity.Order{
		{ID: 1, RestaurantID: 1, OrderAmount: 100.555, OrderTime: when},
		{ID: 2, RestaurantID: 1, OrderAmount: 200, OrderTime: when.Add(time.Hour)},
		{ID: 3, RestaurantID: 3, OrderAmount: 450, OrderTime: when},
	}
	_, err = db.NewInsert().Model(&orders).Exec(ctx)
	require.NoError(t, err)

	return NewRepository(&database.Connections{Writer: db, Reader: db, Driver: "sqlite3"})
}

func TestListAll(t *testing.T) {
	repo := newSeededRepo(t)

	restaurants, err := repo.List(context.Background(), ListFilters{Sort: "name", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, restaurants, 3)
	assert.Equal(t, "Dragon Wok", restaurants[0].Name)
	assert.Equal(t, "Spice Symphony", restaurants[1].Name)
}

func TestListSortDescending(t *testing.T) {
	repo := newSeededRepo(t)

	restaurants, err := repo.List(context.Background(), ListFilters{Sort: "name", Order: "desc"})
	require.NoError(t, err)
	require.Len(t, restaurants, 3)
	assert.Equal(t, "Tandoor Tales", restaurants[0].Name)
}

func TestListSearch(t *testing.T) {
	repo := newSeededRepo(t)

	restaurants, err := repo.List(context.Background(), ListFilters{Search: "Wok"})
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "Dragon Wok", restaurants[0].Name)
}

func TestListFilterLocationAndCuisine(t *testing.T) {
	repo := newSeededRepo(t)

	restaurants, err := repo.List(context.Background(), ListFilters{Location: "Bandra", Cuisine: "North Indian"})
	require.NoError(t, err)
	assert.Len(t, restaurants, 2)

	restaurants, err = repo.List(context.Background(), ListFilters{Location: "Bandra", Cuisine: "Chinese"})
	require.NoError(t, err)
	assert.Empty(t, restaurants)
}

func TestFind(t *testing.T) {
	repo := newSeededRepo(t)

	restaurant, err := repo.Find(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Spice Symphony", restaurant.Name)
}

func TestFindNotFound(t *testing.T) {
	repo := newSeededRepo(t)

	_, err := repo.Find(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCount(t *testing.T) {
	repo := newSeededRepo(t)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestDistinctValues(t *testing.T) {
	repo := newSeededRepo(t)
	ctx := context.Background()

	locations, err := repo.Locations(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Bandra", "Powai"}, locations)

	cuisines, err := repo.Cuisines(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"North Indian", "Chinese"}, cuisines)
}

func TestStats(t *testing.T) {
	repo := newSeededRepo(t)

	stats, err := repo.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.InDelta(t, 300.555, stats.TotalRevenue, 0.001)
	assert.InDelta(t, 150.2775, stats.AvgOrderValue, 0.001)
}

func TestStatsWithoutOrders(t *testing.T) {
	repo := newSeededRepo(t)

	stats, err := repo.Stats(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalOrders)
	assert.Zero(t, stats.TotalRevenue)
	assert.Zero(t, stats.AvgOrderValue)
}

func TestStatsForAll(t *testing.T) {
	repo := newSeededRepo(t)

	stats, err := repo.StatsForAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2, "only restaurants with orders appear")

	assert.Equal(t, 2, stats[1].TotalOrders)
	assert.Equal(t, 1, stats[3].TotalOrders)
	assert.InDelta(t, 450, stats[3].TotalRevenue, 0.001)

	_, ok := stats[2]
	assert.False(t, ok)
}
