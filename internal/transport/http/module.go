package http

import (
	"go.uber.org/fx"

	analyticstransport "github.com/Additional-Code/bistro/internal/transport/http/analytics"
	restauranttransport "github.com/Additional-Code/bistro/internal/transport/http/restaurant"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	restauranttransport.Module,
	analyticstransport.Module,
)
