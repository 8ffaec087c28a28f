package dto

// RestaurantStats summarises the order history of a single restaurant.
type RestaurantStats struct {
	TotalOrders   int     `json:"total_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// RestaurantResponse is a restaurant with embedded order stats.
type RestaurantResponse struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Location string          `json:"location"`
	Cuisine  string          `json:"cuisine"`
	Stats    RestaurantStats `json:"stats"`
}

// RestaurantMeta lists the distinct filter options for restaurants.
type RestaurantMeta struct {
	Locations []string `json:"locations"`
	Cuisines  []string `json:"cuisines"`
}
