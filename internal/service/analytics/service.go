package analytics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/observability"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	restaurantrepo "github.com/Additional-Code/bistro/internal/repository/restaurant"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = observability.Tracer("service/analytics")

// Service composes order aggregates into the analytics response shapes.
type Service struct {
	orders       *orderrepo.Repository
	restaurants  *restaurantrepo.Repository
	cache        cache.Store
	aggregateTTL time.Duration
	metaTTL      time.Duration
	logger       *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders      *orderrepo.Repository
	Restaurants *restaurantrepo.Repository
	Cache       cache.Store
	Config      config.Config
	Logger      *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		orders:       p.Orders,
		restaurants:  p.Restaurants,
		cache:        p.Cache,
		aggregateTTL: p.Config.Cache.AggregateTTL,
		metaTTL:      p.Config.Cache.MetaTTL,
		logger:       p.Logger,
	}
}

// GetOrderTrends returns per-day metrics for one restaurant over the
// inclusive [start, end] range, with a summary across the range.
func (s *Service) GetOrderTrends(ctx context.Context, restaurantID int64, start, end time.Time) (dto.TrendsData, error) {
	ctx, span := serviceTracer.Start(ctx, "AnalyticsService.GetOrderTrends", trace.WithAttributes(attribute.Int64("restaurant.id", restaurantID)))
	defer span.End()

	restaurant, err := s.restaurants.Find(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, restaurantrepo.ErrNotFound) {
			return dto.TrendsData{}, errorbank.NotFound("Restaurant not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.TrendsData{}, errorbank.Internal("failed to load restaurant", errorbank.WithCause(err))
	}

	startStr := start.Format(validation.DateLayout)
	endStr := end.Format(validation.DateLayout)
	key := fmt.Sprintf("analytics:trends:%d:%s:%s", restaurantID, startStr, endStr)

	data, err := cache.Remember(ctx, s.cache, key, s.aggregateTTL, func(ctx context.Context) (dto.TrendsData, error) {
		daily, err := s.orders.DailyMetrics(ctx, restaurantID, start, end)
		if err != nil {
			return dto.TrendsData{}, err
		}
		peaks, err := s.orders.PeakHours(ctx, restaurantID, start, end)
		if err != nil {
			return dto.TrendsData{}, err
		}

		metrics := make([]dto.DailyMetric, 0, len(daily))
		for _, row := range daily {
			metrics = append(metrics, dto.DailyMetric{
				Date:          row.Date,
				DayOfWeek:     dayOfWeek(row.Date),
				OrderCount:    row.OrderCount,
				TotalRevenue:  dto.Round2(row.TotalRevenue),
				AvgOrderValue: dto.Round2(row.AvgOrderValue),
				PeakHour:      peakHourFor(peaks, row.Date),
			})
		}

		return dto.TrendsData{
			Restaurant: dto.RestaurantRef{ID: restaurant.ID, Name: restaurant.Name},
			DateRange: dto.DateRange{
				Start: startStr,
				End:   endStr,
				Days:  inclusiveDays(start, end),
			},
			DailyMetrics: metrics,
			Summary:      summarize(metrics),
		}, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation failed")
		return dto.TrendsData{}, errorbank.Internal("failed to compute order trends", errorbank.WithCause(err))
	}
	return data, nil
}

// GetTopRestaurants ranks restaurants by revenue over the inclusive
// [start, end] range, bounded to limit entries.
func (s *Service) GetTopRestaurants(ctx context.Context, start, end time.Time, limit int) (dto.TopRestaurantsData, error) {
	ctx, span := serviceTracer.Start(ctx, "AnalyticsService.GetTopRestaurants", trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	startStr := start.Format(validation.DateLayout)
	endStr := end.Format(validation.DateLayout)
	key := fmt.Sprintf("analytics:top:%s:%s:%d", startStr, endStr, limit)

	rankings, err := cache.Remember(ctx, s.cache, key, s.aggregateTTL, func(ctx context.Context) ([]dto.RankedRestaurant, error) {
		rows, err := s.orders.TopRestaurantsByRevenue(ctx, start, end, limit)
		if err != nil {
			return nil, err
		}
		return rank(rows), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation failed")
		return dto.TopRestaurantsData{}, errorbank.Internal("failed to rank restaurants", errorbank.WithCause(err))
	}

	total, err := s.restaurants.Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.TopRestaurantsData{}, errorbank.Internal("failed to count restaurants", errorbank.WithCause(err))
	}

	return dto.TopRestaurantsData{
		DateRange:                dto.DateRange{Start: startStr, End: endStr},
		TotalRestaurantsAnalyzed: total,
		Rankings:                 rankings,
	}, nil
}

// GetFilteredAnalytics applies the optional filters, groups the matching
// orders, and describes each applied filter in a human-readable form.
func (s *Service) GetFilteredAnalytics(ctx context.Context, f orderrepo.Filters) (dto.FilteredAnalytics, error) {
	ctx, span := serviceTracer.Start(ctx, "AnalyticsService.GetFilteredAnalytics", trace.WithAttributes(attribute.String("group_by", f.GroupBy)))
	defer span.End()

	key := cache.Key("analytics:filter", filterParams(f))

	data, err := cache.Remember(ctx, s.cache, key, s.aggregateTTL, func(ctx context.Context) (dto.FilteredAnalytics, error) {
		rows, err := s.orders.FilteredBreakdown(ctx, f)
		if err != nil {
			return dto.FilteredAnalytics{}, err
		}

		breakdown := make([]dto.BreakdownRow, 0, len(rows))
		var totalOrders int
		var totalRevenue float64
		for _, row := range rows {
			rounded := dto.Round2(row.TotalRevenue)
			breakdown = append(breakdown, dto.BreakdownRow{
				Group:         row.GroupLabel,
				OrderCount:    row.OrderCount,
				TotalRevenue:  rounded,
				AvgOrderValue: dto.Round2(row.AvgOrderValue),
			})
			totalOrders += row.OrderCount
			totalRevenue += rounded
		}

		summary := dto.FilterSummary{
			FilteredOrders: totalOrders,
			TotalRevenue:   dto.Round2(totalRevenue),
		}
		if totalOrders > 0 {
			summary.AvgOrderValue = dto.Round2(totalRevenue / float64(totalOrders))
		}

		return dto.FilteredAnalytics{
			FiltersApplied: s.describeFilters(ctx, f),
			Summary:        summary,
			Breakdown:      breakdown,
		}, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation failed")
		return dto.FilteredAnalytics{}, errorbank.Internal("failed to compute filtered analytics", errorbank.WithCause(err))
	}
	return data, nil
}

// GetFilterMeta returns the global order date range plus the distinct
// locations, cuisines, and valid hours available for filtering.
func (s *Service) GetFilterMeta(ctx context.Context) (dto.FilterMeta, error) {
	ctx, span := serviceTracer.Start(ctx, "AnalyticsService.GetFilterMeta")
	defer span.End()

	dateRange, err := cache.Remember(ctx, s.cache, "orders:date_range", s.metaTTL, func(ctx context.Context) (dto.OrderDateRange, error) {
		rng, err := s.orders.DateRange(ctx)
		if err != nil {
			return dto.OrderDateRange{}, err
		}
		var out dto.OrderDateRange
		if rng.MinDate.Valid {
			out.MinDate = &rng.MinDate.String
		}
		if rng.MaxDate.Valid {
			out.MaxDate = &rng.MaxDate.String
		}
		return out, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation failed")
		return dto.FilterMeta{}, errorbank.Internal("failed to load order date range", errorbank.WithCause(err))
	}

	locations, err := cache.Remember(ctx, s.cache, "restaurants:locations", s.metaTTL, s.restaurants.Locations)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.FilterMeta{}, errorbank.Internal("failed to load locations", errorbank.WithCause(err))
	}
	cuisines, err := cache.Remember(ctx, s.cache, "restaurants:cuisines", s.metaTTL, s.restaurants.Cuisines)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.FilterMeta{}, errorbank.Internal("failed to load cuisines", errorbank.WithCause(err))
	}

	if locations == nil {
		locations = []string{}
	}
	if cuisines == nil {
		cuisines = []string{}
	}

	hours := make([]int, 24)
	for h := range hours {
		hours[h] = h
	}

	return dto.FilterMeta{
		DateRange: dateRange,
		Locations: locations,
		Cuisines:  cuisines,
		Hours:     hours,
	}, nil
}

// RestaurantExists reports whether a restaurant with the id is present.
func (s *Service) RestaurantExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.restaurants.Find(ctx, id)
	if err != nil {
		if errors.Is(err, restaurantrepo.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// describeFilters renders the applied filters the way the dashboard shows
// them: restaurant name with id, plain date range, currency-formatted amount
// range, and 12-hour clock hour range.
func (s *Service) describeFilters(ctx context.Context, f orderrepo.Filters) map[string]string {
	applied := make(map[string]string)

	if f.RestaurantID != nil && *f.RestaurantID > 0 {
		if restaurant, err := s.restaurants.Find(ctx, *f.RestaurantID); err == nil {
			applied["restaurant"] = fmt.Sprintf("%s (ID: %d)", restaurant.Name, restaurant.ID)
		} else {
			applied["restaurant"] = fmt.Sprintf("ID: %d", *f.RestaurantID)
		}
	}

	if f.StartDate != nil && f.EndDate != nil {
		applied["date_range"] = fmt.Sprintf("%s to %s",
			f.StartDate.Format(validation.DateLayout), f.EndDate.Format(validation.DateLayout))
	}

	if (f.MinAmount != nil && *f.MinAmount > 0) || (f.MaxAmount != nil && *f.MaxAmount > 0) {
		low := "0"
		if f.MinAmount != nil {
			low = formatAmount(*f.MinAmount)
		}
		high := "∞"
		if f.MaxAmount != nil {
			high = formatAmount(*f.MaxAmount)
		}
		applied["amount_range"] = fmt.Sprintf("₹%s - ₹%s", low, high)
	}

	if f.StartHour != nil && f.EndHour != nil {
		applied["hour_range"] = fmt.Sprintf("%s - %s", FormatHour(*f.StartHour), FormatHour(*f.EndHour))
	}

	return applied
}

// filterParams flattens the filters into the cache fingerprint input.
func filterParams(f orderrepo.Filters) map[string]string {
	params := make(map[string]string)
	if f.RestaurantID != nil {
		params["restaurant_id"] = strconv.FormatInt(*f.RestaurantID, 10)
	}
	if f.StartDate != nil {
		params["start_date"] = f.StartDate.Format(validation.DateLayout)
	}
	if f.EndDate != nil {
		params["end_date"] = f.EndDate.Format(validation.DateLayout)
	}
	if f.MinAmount != nil {
		params["min_amount"] = formatAmount(*f.MinAmount)
	}
	if f.MaxAmount != nil {
		params["max_amount"] = formatAmount(*f.MaxAmount)
	}
	if f.StartHour != nil {
		params["start_hour"] = strconv.Itoa(*f.StartHour)
	}
	if f.EndHour != nil {
		params["end_hour"] = strconv.Itoa(*f.EndHour)
	}
	params["group_by"] = f.GroupBy
	return params
}

func summarize(metrics []dto.DailyMetric) dto.TrendsSummary {
	var totalOrders int
	var totalRevenue float64
	for _, m := range metrics {
		totalOrders += m.OrderCount
		totalRevenue += m.TotalRevenue
	}

	summary := dto.TrendsSummary{
		TotalOrders:  totalOrders,
		TotalRevenue: dto.Round2(totalRevenue),
	}
	if totalOrders > 0 {
		summary.AvgOrderValue = dto.Round2(totalRevenue / float64(totalOrders))
	}

	summary.MostCommonPeakHour = mostCommonPeakHour(metrics)
	summary.MostCommonPeakHourFormatted = FormatHour(summary.MostCommonPeakHour)
	return summary
}

// mostCommonPeakHour is the mode of the daily peak hours. Ties go to the
// hour encountered first in day order; 0 when there are no days with data.
func mostCommonPeakHour(metrics []dto.DailyMetric) int {
	counts := make(map[int]int)
	var order []int
	for _, m := range metrics {
		hour := m.PeakHour.Hour
		if counts[hour] == 0 {
			order = append(order, hour)
		}
		counts[hour]++
	}

	best := 0
	bestCount := 0
	for _, hour := range order {
		if counts[hour] > bestCount {
			best = hour
			bestCount = counts[hour]
		}
	}
	return best
}

func rank(rows []orderrepo.RevenueRow) []dto.RankedRestaurant {
	var totalRevenue float64
	for _, row := range rows {
		totalRevenue += row.TotalRevenue
	}

	rankings := make([]dto.RankedRestaurant, 0, len(rows))
	for i, row := range rows {
		var share float64
		if totalRevenue > 0 {
			share = dto.Round2(row.TotalRevenue / totalRevenue * 100)
		}
		rankings = append(rankings, dto.RankedRestaurant{
			Rank: i + 1,
			Restaurant: dto.RankedRestaurantInfo{
				ID:       row.ID,
				Name:     row.Name,
				Location: row.Location,
				Cuisine:  row.Cuisine,
			},
			Metrics: dto.RankedRestaurantMetrics{
				TotalRevenue:      dto.Round2(row.TotalRevenue),
				TotalOrders:       row.TotalOrders,
				AvgOrderValue:     dto.Round2(row.AvgOrderValue),
				RevenuePercentage: share,
			},
		})
	}
	return rankings
}

func peakHourFor(peaks map[string]orderrepo.PeakBucket, date string) dto.PeakHour {
	bucket, ok := peaks[date]
	if !ok {
		return dto.PeakHour{Hour: 0, HourFormatted: "N/A", OrderCount: 0}
	}
	return dto.PeakHour{
		Hour:          bucket.Hour,
		HourFormatted: FormatHour(bucket.Hour),
		OrderCount:    bucket.OrderCount,
	}
}

// formatAmount renders an amount without trailing zeros, e.g. 250 -> "250",
// 99.5 -> "99.5".
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatHour renders an hour-of-day on a 12-hour clock, e.g. 14 -> "2:00 PM".
func FormatHour(hour int) string {
	return time.Date(2000, time.January, 1, hour, 0, 0, 0, time.UTC).Format("3:04 PM")
}

func dayOfWeek(date string) string {
	t, err := time.ParseInLocation(validation.DateLayout, date, time.UTC)
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}

func inclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
