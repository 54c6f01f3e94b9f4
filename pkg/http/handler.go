package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler owns a set of routes. NewServer calls RegisterRoutes once, before
// the listener starts.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// RouteFunc lets a plain function act as a Handler.
type RouteFunc func(e *echo.Echo)

func (f RouteFunc) RegisterRoutes(e *echo.Echo) { f(e) }

// MetricsRoutes serves the gatherer's families on GET /metrics.
func MetricsRoutes(g prometheus.Gatherer) Handler {
	h := echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return RouteFunc(func(e *echo.Echo) {
		e.GET("/metrics", h)
	})
}
