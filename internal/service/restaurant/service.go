package restaurant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/observability"
	repo "github.com/Additional-Code/bistro/internal/repository/restaurant"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = observability.Tracer("service/restaurant")

// Service exposes restaurant listings with embedded order stats.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	statsTTL time.Duration
	metaTTL  time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		statsTTL: p.Config.Cache.StatsTTL,
		metaTTL:  p.Config.Cache.MetaTTL,
		logger:   p.Logger,
	}
}

// List returns restaurants matching the filters, each with its order stats.
func (s *Service) List(ctx context.Context, f repo.ListFilters) ([]dto.RestaurantResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "RestaurantService.List")
	defer span.End()

	key := cache.Key("restaurants:all", map[string]string{
		"search":   f.Search,
		"location": f.Location,
		"cuisine":  f.Cuisine,
		"sort":     f.Sort,
		"order":    f.Order,
	})

	return cache.Remember(ctx, s.cache, key, s.statsTTL, func(ctx context.Context) ([]dto.RestaurantResponse, error) {
		restaurants, err := s.repo.List(ctx, f)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to list restaurants", errorbank.WithCause(err))
		}

		stats, err := s.repo.StatsForAll(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to aggregate restaurant stats", errorbank.WithCause(err))
		}

		responses := make([]dto.RestaurantResponse, 0, len(restaurants))
		for _, restaurant := range restaurants {
			responses = append(responses, toResponse(&restaurant, stats[restaurant.ID]))
		}
		return responses, nil
	})
}

// Get returns one restaurant with its order stats.
func (s *Service) Get(ctx context.Context, id int64) (dto.RestaurantResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "RestaurantService.Get", trace.WithAttributes(attribute.Int64("restaurant.id", id)))
	defer span.End()

	key := fmt.Sprintf("restaurant:%d:stats", id)

	resp, err := cache.Remember(ctx, s.cache, key, s.statsTTL, func(ctx context.Context) (dto.RestaurantResponse, error) {
		restaurant, err := s.repo.Find(ctx, id)
		if err != nil {
			return dto.RestaurantResponse{}, err
		}
		stats, err := s.repo.Stats(ctx, id)
		if err != nil {
			return dto.RestaurantResponse{}, err
		}
		return toResponse(restaurant, stats), nil
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dto.RestaurantResponse{}, errorbank.NotFound("Restaurant not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.RestaurantResponse{}, errorbank.Internal("failed to load restaurant", errorbank.WithCause(err))
	}
	return resp, nil
}

// Meta returns the distinct locations and cuisines available for filtering.
func (s *Service) Meta(ctx context.Context) (dto.RestaurantMeta, error) {
	ctx, span := serviceTracer.Start(ctx, "RestaurantService.Meta")
	defer span.End()

	locations, err := cache.Remember(ctx, s.cache, "restaurants:locations", s.metaTTL, s.repo.Locations)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.RestaurantMeta{}, errorbank.Internal("failed to load locations", errorbank.WithCause(err))
	}

	cuisines, err := cache.Remember(ctx, s.cache, "restaurants:cuisines", s.metaTTL, s.repo.Cuisines)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.RestaurantMeta{}, errorbank.Internal("failed to load cuisines", errorbank.WithCause(err))
	}

	if locations == nil {
		locations = []string{}
	}
	if cuisines == nil {
		cuisines = []string{}
	}

	return dto.RestaurantMeta{Locations: locations, Cuisines: cuisines}, nil
}

func toResponse(restaurant *entity.Restaurant, stats repo.OrderStats) dto.RestaurantResponse {
	return dto.RestaurantResponse{
		ID:       restaurant.ID,
		Name:     restaurant.Name,
		Location: restaurant.Location,
		Cuisine:  restaurant.Cuisine,
		Stats: dto.RestaurantStats{
			TotalOrders:   stats.TotalOrders,
			TotalRevenue:  dto.Round2(stats.TotalRevenue),
			AvgOrderValue: dto.Round2(stats.AvgOrderValue),
		},
	}
}
