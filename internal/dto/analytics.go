package dto

// PeakHour is the hour-of-day with the most orders within a single day.
// When a day has no orders the sentinel {0, "N/A", 0} is used.
type PeakHour struct {
	Hour          int    `json:"hour"`
	HourFormatted string `json:"hour_formatted"`
	OrderCount    int    `json:"order_count"`
}

// DailyMetric aggregates one calendar day of orders for a restaurant.
type DailyMetric struct {
	Date          string   `json:"date"`
	DayOfWeek     string   `json:"day_of_week"`
	OrderCount    int      `json:"order_count"`
	TotalRevenue  float64  `json:"total_revenue"`
	AvgOrderValue float64  `json:"avg_order_value"`
	PeakHour      PeakHour `json:"peak_hour"`
}

// RestaurantRef identifies a restaurant in analytics payloads.
type RestaurantRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DateRange echoes the requested range; Days is the inclusive day count and
// is only emitted on trends responses.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days,omitempty"`
}

// TrendsSummary totals the daily metrics of a trends response.
type TrendsSummary struct {
	TotalOrders                 int     `json:"total_orders"`
	TotalRevenue                float64 `json:"total_revenue"`
	AvgOrderValue               float64 `json:"avg_order_value"`
	MostCommonPeakHour          int     `json:"most_common_peak_hour"`
	MostCommonPeakHourFormatted string  `json:"most_common_peak_hour_formatted"`
}

// TrendsData is the payload of GET /analytics/trends.
type TrendsData struct {
	Restaurant   RestaurantRef `json:"restaurant"`
	DateRange    DateRange     `json:"date_range"`
	DailyMetrics []DailyMetric `json:"daily_metrics"`
	Summary      TrendsSummary `json:"summary"`
}

// RankedRestaurantInfo identifies a restaurant within a ranking entry.
type RankedRestaurantInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Cuisine  string `json:"cuisine"`
}

// RankedRestaurantMetrics carries revenue aggregates for a ranking entry.
// RevenuePercentage is the share of the returned top-N total, not of all
// restaurants.
type RankedRestaurantMetrics struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalOrders       int     `json:"total_orders"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	RevenuePercentage float64 `json:"revenue_percentage"`
}

// RankedRestaurant is one entry of a top-restaurants ranking.
type RankedRestaurant struct {
	Rank       int                     `json:"rank"`
	Restaurant RankedRestaurantInfo    `json:"restaurant"`
	Metrics    RankedRestaurantMetrics `json:"metrics"`
}

// TopRestaurantsData is the payload of GET /analytics/top-restaurants.
type TopRestaurantsData struct {
	DateRange                DateRange          `json:"date_range"`
	TotalRestaurantsAnalyzed int                `json:"total_restaurants_analyzed"`
	Rankings                 []RankedRestaurant `json:"rankings"`
}

// BreakdownRow is one grouped aggregate row of the filtered analytics.
// Group is the calendar date, the hour number rendered as a decimal string,
// or the restaurant name, depending on the grouping mode.
type BreakdownRow struct {
	Group         string  `json:"group"`
	OrderCount    int     `json:"order_count"`
	TotalRevenue  float64 `json:"total_revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// FilterSummary totals the breakdown rows.
type FilterSummary struct {
	FilteredOrders int     `json:"filtered_orders"`
	TotalRevenue   float64 `json:"total_revenue"`
	AvgOrderValue  float64 `json:"avg_order_value"`
}

// FilteredAnalytics is the payload of POST /analytics/filter.
type FilteredAnalytics struct {
	FiltersApplied map[string]string `json:"filters_applied"`
	Summary        FilterSummary     `json:"summary"`
	Breakdown      []BreakdownRow    `json:"breakdown"`
}

// OrderDateRange is the global min/max order date; nil when no orders exist.
type OrderDateRange struct {
	MinDate *string `json:"min_date"`
	MaxDate *string `json:"max_date"`
}

// FilterMeta is the payload of GET /analytics/meta.
type FilterMeta struct {
	DateRange OrderDateRange `json:"date_range"`
	Locations []string       `json:"locations"`
	Cuisines  []string       `json:"cuisines"`
	Hours     []int          `json:"hours"`
}
