package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/logger"
	"github.com/Additional-Code/bistro/internal/observability"
	repositoryorder "github.com/Additional-Code/bistro/internal/repository/order"
	repositoryrestaurant "github.com/Additional-Code/bistro/internal/repository/restaurant"
	httpserver "github.com/Additional-Code/bistro/internal/server/http"
	serviceanalytics "github.com/Additional-Code/bistro/internal/service/analytics"
	servicerestaurant "github.com/Additional-Code/bistro/internal/service/restaurant"
	transporthttp "github.com/Additional-Code/bistro/internal/transport/http"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	observability.Module,
	repositoryrestaurant.Module,
	repositoryorder.Module,
	servicerestaurant.Module,
	serviceanalytics.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
