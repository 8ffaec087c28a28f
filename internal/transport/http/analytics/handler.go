package analytics

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/observability"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	service "github.com/Additional-Code/bistro/internal/service/analytics"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var httpTracer = observability.Tracer("transport/http/analytics")

const (
	defaultTopLimit = 3
	maxTopLimit     = 10
)

// Handler exposes analytics endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an analytics Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/analytics")
	g.GET("/trends", h.trends)
	g.GET("/top-restaurants", h.topRestaurants)
	g.POST("/filter", h.filter)
	g.GET("/meta", h.meta)
}

func (h *Handler) trends(c echo.Context) error {
	b := response.New(c)

	v := validation.New()
	restaurantID := v.RequiredInt("restaurant_id", c.QueryParam("restaurant_id"))
	start := v.RequiredDate("start_date", c.QueryParam("start_date"))
	end := v.RequiredDate("end_date", c.QueryParam("end_date"))
	v.DateOrder("end_date", "start_date", start, end)
	if err := v.Err(); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "analytics.trends", trace.WithAttributes(attribute.Int64("restaurant.id", restaurantID)))
	defer span.End()

	data, err := h.svc.GetOrderTrends(ctx, restaurantID, start, end)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(data).Build()
}

func (h *Handler) topRestaurants(c echo.Context) error {
	b := response.New(c)

	v := validation.New()
	start := v.RequiredDate("start_date", c.QueryParam("start_date"))
	end := v.RequiredDate("end_date", c.QueryParam("end_date"))
	v.DateOrder("end_date", "start_date", start, end)
	limit := v.IntInRange("limit", c.QueryParam("limit"), 1, maxTopLimit, defaultTopLimit)
	if err := v.Err(); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "analytics.topRestaurants", trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	data, err := h.svc.GetTopRestaurants(ctx, start, end, limit)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(data).Build()
}

type filterRequest struct {
	RestaurantID *int64 `json:"restaurant_id"`
	DateRange    *struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date_range"`
	AmountRange *struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	} `json:"amount_range"`
	HourRange *struct {
		Start *int `json:"start"`
		End   *int `json:"end"`
	} `json:"hour_range"`
	GroupBy string `json:"group_by"`
}

func (h *Handler) filter(c echo.Context) error {
	b := response.New(c)

	var payload filterRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "analytics.filter")
	defer span.End()

	v := validation.New()
	filters := orderrepo.Filters{GroupBy: orderrepo.GroupByDay}

	if payload.RestaurantID != nil {
		ok, err := h.svc.RestaurantExists(ctx, *payload.RestaurantID)
		if err != nil {
			return b.WithError(errorbank.Internal("failed to check restaurant", errorbank.WithCause(err))).Build()
		}
		if !ok {
			v.Fail("restaurant_id", "The selected restaurant_id is invalid.")
		}
		filters.RestaurantID = payload.RestaurantID
	}

	if payload.DateRange != nil {
		start := v.RequiredDate("date_range.start", payload.DateRange.Start)
		end := v.RequiredDate("date_range.end", payload.DateRange.End)
		v.DateOrder("date_range.end", "date_range.start", start, end)
		if !start.IsZero() && !end.IsZero() {
			filters.StartDate = &start
			filters.EndDate = &end
		}
	}

	if payload.AmountRange != nil {
		if payload.AmountRange.Min != nil {
			v.NonNegative("amount_range.min", *payload.AmountRange.Min)
			filters.MinAmount = payload.AmountRange.Min
		}
		if payload.AmountRange.Max != nil {
			v.NonNegative("amount_range.max", *payload.AmountRange.Max)
			filters.MaxAmount = payload.AmountRange.Max
		}
	}

	if payload.HourRange != nil {
		if payload.HourRange.Start != nil {
			v.IntBetween("hour_range.start", *payload.HourRange.Start, 0, 23)
		}
		if payload.HourRange.End != nil {
			v.IntBetween("hour_range.end", *payload.HourRange.End, 0, 23)
		}
		if payload.HourRange.Start != nil && payload.HourRange.End != nil {
			filters.StartHour = payload.HourRange.Start
			filters.EndHour = payload.HourRange.End
		}
	}

	if payload.GroupBy != "" {
		v.OneOf("group_by", payload.GroupBy, orderrepo.GroupByDay, orderrepo.GroupByHour, orderrepo.GroupByRestaurant)
		filters.GroupBy = payload.GroupBy
	}

	if err := v.Err(); err != nil {
		return b.WithError(err).Build()
	}

	data, err := h.svc.GetFilteredAnalytics(ctx, filters)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(data).Build()
}

func (h *Handler) meta(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "analytics.meta")
	defer span.End()

	meta, err := h.svc.GetFilterMeta(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(meta).Build()
}
