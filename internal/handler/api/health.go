package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	xhttp "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/http"
)

// StreamStatus is implemented by *usecase.IngestionSupervisor.
type StreamStatus interface {
	Connected() bool
	ConnectedGroups() int
	Restarts() int64
}

// RunStatus is implemented by *usecase.Orchestrator.
type RunStatus interface {
	Ready() bool
	Symbols() []string
}

// FreshnessSource is implemented by *usecase.Analyzer.
type FreshnessSource interface {
	FreshCount(maxAge time.Duration) int
}

type HealthHandler struct {
	stream      StreamStatus
	run         RunStatus
	fresh       FreshnessSource
	freshWindow time.Duration
}

func NewHealthHandler(stream StreamStatus, run RunStatus, fresh FreshnessSource, freshWindow time.Duration) *HealthHandler {
	return &HealthHandler{stream: stream, run: run, fresh: fresh, freshWindow: freshWindow}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

type healthResponse struct {
	Ready           bool  `json:"ready"`
	StreamConnected bool  `json:"stream_connected"`
	ConnectedGroups int   `json:"connected_groups"`
	StreamRestarts  int64 `json:"stream_restarts"`
	Symbols         int   `json:"symbols"`
	FreshSymbols    int   `json:"fresh_symbols"`
}

// Health answers 503 until backfill has finished and a stream group is up.
func (h *HealthHandler) Health(c echo.Context) error {
	res := healthResponse{
		Ready:           h.run.Ready(),
		StreamConnected: h.stream.Connected(),
		ConnectedGroups: h.stream.ConnectedGroups(),
		StreamRestarts:  h.stream.Restarts(),
		Symbols:         len(h.run.Symbols()),
		FreshSymbols:    h.fresh.FreshCount(h.freshWindow),
	}
	status := http.StatusOK
	if !res.Ready || !res.StreamConnected {
		status = http.StatusServiceUnavailable
	}
	return xhttp.DataResponse(c, status, res)
}
