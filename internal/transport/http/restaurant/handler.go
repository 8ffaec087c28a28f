package restaurant

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/observability"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	repo "github.com/Additional-Code/bistro/internal/repository/restaurant"
	service "github.com/Additional-Code/bistro/internal/service/restaurant"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var httpTracer = observability.Tracer("transport/http/restaurant")

// Handler exposes restaurant endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a restaurant Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance. The meta route is
// registered before the id route so "meta" never binds as an id.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/restaurants")
	g.GET("", h.list)
	g.GET("/meta", h.meta)
	g.GET("/:id", h.getByID)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	v := validation.New()
	sort := c.QueryParam("sort")
	if sort == "" {
		sort = "name"
	}
	order := c.QueryParam("order")
	if order == "" {
		order = "asc"
	}
	v.OneOf("sort", sort, "name", "location", "cuisine")
	v.OneOf("order", order, "asc", "desc")
	if err := v.Err(); err != nil {
		return b.WithError(err).Build()
	}

	filters := repo.ListFilters{
		Search:   c.QueryParam("search"),
		Location: c.QueryParam("location"),
		Cuisine:  c.QueryParam("cuisine"),
		Sort:     sort,
		Order:    order,
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "restaurants.list")
	defer span.End()

	restaurants, err := h.svc.List(ctx, filters)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(restaurants).WithMeta("total", len(restaurants)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.NotFound("Restaurant not found")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "restaurants.getByID", trace.WithAttributes(attribute.Int64("restaurant.id", id)))
	defer span.End()

	restaurant, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(restaurant).Build()
}

func (h *Handler) meta(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "restaurants.meta")
	defer span.End()

	meta, err := h.svc.Meta(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(meta).Build()
}
