// Package client is a typed Go consumer for the analytics HTTP API. It wraps
// the JSON envelope the server emits and retries transient failures.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// One initial attempt plus three retries, delayed 1s/2s/4s.
const maxAttempts = 4

// APIError carries the error payload of a non-2xx response.
type APIError struct {
	Status   int
	Message  string
	Messages map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Restaurant is a listing entry with embedded order stats.
type Restaurant struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Cuisine  string `json:"cuisine"`
	Stats    struct {
		TotalOrders   int     `json:"total_orders"`
		TotalRevenue  float64 `json:"total_revenue"`
		AvgOrderValue float64 `json:"avg_order_value"`
	} `json:"stats"`
}

// RestaurantMeta holds the listing filter options.
type RestaurantMeta struct {
	Locations []string `json:"locations"`
	Cuisines  []string `json:"cuisines"`
}

// TrendsData is the per-day metrics response.
type TrendsData struct {
	Restaurant struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"restaurant"`
	DateRange struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Days  int    `json:"days"`
	} `json:"date_range"`
	DailyMetrics []struct {
		Date          string  `json:"date"`
		DayOfWeek     string  `json:"day_of_week"`
		OrderCount    int     `json:"order_count"`
		TotalRevenue  float64 `json:"total_revenue"`
		AvgOrderValue float64 `json:"avg_order_value"`
		PeakHour      struct {
			Hour          int    `json:"hour"`
			HourFormatted string `json:"hour_formatted"`
			OrderCount    int    `json:"order_count"`
		} `json:"peak_hour"`
	} `json:"daily_metrics"`
	Summary struct {
		TotalOrders                 int     `json:"total_orders"`
		TotalRevenue                float64 `json:"total_revenue"`
		AvgOrderValue               float64 `json:"avg_order_value"`
		MostCommonPeakHour          int     `json:"most_common_peak_hour"`
		MostCommonPeakHourFormatted string  `json:"most_common_peak_hour_formatted"`
	} `json:"summary"`
}

// TopRestaurantsData is the revenue ranking response.
type TopRestaurantsData struct {
	DateRange struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date_range"`
	TotalRestaurantsAnalyzed int `json:"total_restaurants_analyzed"`
	Rankings                 []struct {
		Rank       int `json:"rank"`
		Restaurant struct {
			ID       int64  `json:"id"`
			Name     string `json:"name"`
			Location string `json:"location"`
			Cuisine  string `json:"cuisine"`
		} `json:"restaurant"`
		Metrics struct {
			TotalRevenue      float64 `json:"total_revenue"`
			TotalOrders       int     `json:"total_orders"`
			AvgOrderValue     float64 `json:"avg_order_value"`
			RevenuePercentage float64 `json:"revenue_percentage"`
		} `json:"metrics"`
	} `json:"rankings"`
}

// FilteredAnalytics is the grouped breakdown response.
type FilteredAnalytics struct {
	FiltersApplied map[string]string `json:"filters_applied"`
	Summary        struct {
		FilteredOrders int     `json:"filtered_orders"`
		TotalRevenue   float64 `json:"total_revenue"`
		AvgOrderValue  float64 `json:"avg_order_value"`
	} `json:"summary"`
	Breakdown []struct {
		Group         string  `json:"group"`
		OrderCount    int     `json:"order_count"`
		TotalRevenue  float64 `json:"total_revenue"`
		AvgOrderValue float64 `json:"avg_order_value"`
	} `json:"breakdown"`
}

// FilterMeta is the available-filter-options response.
type FilterMeta struct {
	DateRange struct {
		MinDate *string `json:"min_date"`
		MaxDate *string `json:"max_date"`
	} `json:"date_range"`
	Locations []string `json:"locations"`
	Cuisines  []string `json:"cuisines"`
	Hours     []int    `json:"hours"`
}

// FilterRequest is the body for FilteredAnalytics.
type FilterRequest struct {
	RestaurantID *int64       `json:"restaurant_id,omitempty"`
	DateRange    *DateRange   `json:"date_range,omitempty"`
	AmountRange  *AmountRange `json:"amount_range,omitempty"`
	HourRange    *HourRange   `json:"hour_range,omitempty"`
	GroupBy      string       `json:"group_by,omitempty"`
}

// DateRange bounds orders by calendar date, inclusive.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AmountRange bounds orders by amount.
type AmountRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// HourRange bounds orders by hour of day.
type HourRange struct {
	Start *int `json:"start,omitempty"`
	End   *int `json:"end,omitempty"`
}

// Client talks to a running analytics server.
type Client struct {
	baseURL string
	http    *http.Client
	backoff func(attempt int) time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackoff replaces the retry delay schedule.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(c *Client) { c.backoff = fn }
}

// New constructs a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultBackoff doubles the delay each attempt: 1s, 2s, 4s.
func defaultBackoff(attempt int) time.Duration {
	return time.Second << attempt
}

// Restaurants lists restaurants with embedded stats.
func (c *Client) Restaurants(ctx context.Context, params url.Values) ([]Restaurant, error) {
	var out []Restaurant
	if err := c.get(ctx, "/restaurants", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Restaurant fetches one restaurant by id.
func (c *Client) Restaurant(ctx context.Context, id int64) (Restaurant, error) {
	var out Restaurant
	err := c.get(ctx, "/restaurants/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

// RestaurantMeta fetches the listing filter options.
func (c *Client) RestaurantMeta(ctx context.Context) (RestaurantMeta, error) {
	var out RestaurantMeta
	err := c.get(ctx, "/restaurants/meta", nil, &out)
	return out, err
}

// OrderTrends fetches per-day metrics for a restaurant over a date range.
func (c *Client) OrderTrends(ctx context.Context, restaurantID int64, start, end string) (TrendsData, error) {
	params := url.Values{}
	params.Set("restaurant_id", strconv.FormatInt(restaurantID, 10))
	params.Set("start_date", start)
	params.Set("end_date", end)

	var out TrendsData
	err := c.get(ctx, "/analytics/trends", params, &out)
	return out, err
}

// TopRestaurants fetches the revenue ranking for a date range.
func (c *Client) TopRestaurants(ctx context.Context, start, end string, limit int) (TopRestaurantsData, error) {
	params := url.Values{}
	params.Set("start_date", start)
	params.Set("end_date", end)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var out TopRestaurantsData
	err := c.get(ctx, "/analytics/top-restaurants", params, &out)
	return out, err
}

// FilteredAnalytics runs a filtered breakdown query.
func (c *Client) FilteredAnalytics(ctx context.Context, req FilterRequest) (FilteredAnalytics, error) {
	var out FilteredAnalytics
	err := c.post(ctx, "/analytics/filter", req, &out)
	return out, err
}

// FilterMeta fetches the available filter options.
func (c *Client) FilterMeta(ctx context.Context) (FilterMeta, error) {
	var out FilterMeta
	err := c.get(ctx, "/analytics/meta", nil, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, func() (*http.Request, error) {
		u := c.baseURL + path
		if len(params) > 0 {
			u += "?" + params.Encode()
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

// do issues the request, retrying network errors and 5xx responses up to
// maxAttempts with the configured backoff. 4xx responses never retry.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error), out any) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
		}

		req, err := build()
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
			var envelope struct {
				Messages map[string][]string `json:"messages"`
			}
			if json.Unmarshal(raw, &envelope) == nil {
				apiErr.Messages = envelope.Messages
			}
			return apiErr
		}

		if out == nil {
			return nil
		}
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return json.Unmarshal(envelope.Data, out)
	}
	return lastErr
}

func errorMessage(raw []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		return envelope.Error
	}
	return http.StatusText(http.StatusInternalServerError)
}
