package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDelay(int) time.Duration { return 0 }

func TestRestaurantSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/restaurants/1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":1,"name":"Spice Symphony","stats":{"total_orders":2,"total_revenue":300.67}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithBackoff(noDelay))
	restaurant, err := c.Restaurant(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Spice Symphony", restaurant.Name)
	assert.Equal(t, 300.67, restaurant.Stats.TotalRevenue)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 4 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"locations":["Bandra"],"cuisines":["Chinese"]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithBackoff(noDelay))
	meta, err := c.RestaurantMeta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Bandra"}, meta.Locations)
	assert.Equal(t, int32(4), calls.Load(), "three retries after the initial attempt")
}

func TestGivesUpAfterThreeRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, WithBackoff(noDelay))
	_, err := c.RestaurantMeta(context.Background())

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, int32(4), calls.Load())
}

func TestClientErrorsDoNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Restaurant not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithBackoff(noDelay))
	_, err := c.Restaurant(context.Background(), 999)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Restaurant not found", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestValidationErrorCarriesFieldMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"Validation failed","messages":{"start_date":["The start_date field is required."]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithBackoff(noDelay))
	_, err := c.OrderTrends(context.Background(), 1, "", "2025-06-02")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Equal(t, []string{"The start_date field is required."}, apiErr.Messages["start_date"])
}

func TestRetriesNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, WithBackoff(noDelay))
	_, err := c.RestaurantMeta(context.Background())
	require.Error(t, err)

	_, isAPI := err.(*APIError)
	assert.False(t, isAPI, "network failures surface as transport errors")
}

func TestFilteredAnalyticsPostsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analytics/filter", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"data":{"filters_applied":{"group_by":"day"},"summary":{"filtered_orders":3},"breakdown":[]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithBackoff(noDelay))
	data, err := c.FilteredAnalytics(context.Background(), FilterRequest{GroupBy: "day"})
	require.NoError(t, err)
	assert.Equal(t, 3, data.Summary.FilteredOrders)
}

func TestQueryParamsEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("restaurant_id"))
		assert.Equal(t, "2025-06-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2025-06-02", r.URL.Query().Get("end_date"))
		_, _ = w.Write([]byte(`{"data":{"restaurant":{"id":1,"name":"x"},"date_range":{"start":"2025-06-01","end":"2025-06-02","days":2},"daily_metrics":[],"summary":{}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithBackoff(noDelay))
	data, err := c.OrderTrends(context.Background(), 1, "2025-06-01", "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, 2, data.DateRange.Days)
}

func TestRetryWalksFullBackoffSchedule(t *testing.T) {
	var legs []int
	record := func(attempt int) time.Duration {
		legs = append(legs, attempt)
		return 0
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, WithBackoff(record))
	_, err := c.RestaurantMeta(context.Background())

	require.Error(t, err)
	assert.Equal(t, []int{0, 1, 2}, legs, "delays before each retry cover the 1s, 2s and 4s legs")
}

func TestDefaultBackoffDoubles(t *testing.T) {
	assert.Equal(t, time.Second, defaultBackoff(0))
	assert.Equal(t, 2*time.Second, defaultBackoff(1))
	assert.Equal(t, 4*time.Second, defaultBackoff(2))
}
