package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	domrepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/patterns"
	xhttp "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/http"
	xlogger "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

// MarketHandler exposes the rolling buffers and the pattern registry.
type MarketHandler struct {
	logger     *xlogger.Logger
	series     domrepo.SeriesReader
	catalog    *patterns.Catalog
	staleAfter time.Duration
}

func NewMarketHandler(logger *xlogger.Logger, series domrepo.SeriesReader, catalog *patterns.Catalog, staleAfter time.Duration) *MarketHandler {
	return &MarketHandler{logger: logger, series: series, catalog: catalog, staleAfter: staleAfter}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/series", h.Series)
	g.GET("/patterns", h.Patterns)
	g.GET("/tiers", h.Tiers)
}

func (h *MarketHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := models.NewSeriesKey(req.Symbol, models.Timeframe(req.TF))
	st, ok := h.series.Stats(key, h.staleAfter)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("series %s is not tracked", key))
	}
	return xhttp.SuccessResponse(c, st)
}

type patternView struct {
	models.PatternProfile
	TierWeight float64 `json:"tier_weight"`
}

func (h *MarketHandler) Patterns(c echo.Context) error {
	req := &models.PatternsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Tier != "" {
		if _, ok := h.catalog.Tier(req.Tier); !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("tier", "unknown tier %q", req.Tier))
		}
	}

	profiles := h.catalog.Profiles(models.Category(req.Category), req.Tier)
	total := len(profiles)
	if len(profiles) > req.Limit {
		profiles = profiles[:req.Limit]
	}
	rows := make([]patternView, 0, len(profiles))
	for _, p := range profiles {
		t, _ := h.catalog.Tier(p.Tier)
		rows = append(rows, patternView{PatternProfile: p, TierWeight: t.Weight})
	}
	return xhttp.ListResponse(c, rows, int64(total))
}

func (h *MarketHandler) Tiers(c echo.Context) error {
	tiers := h.catalog.Tiers()
	return xhttp.ListResponse(c, tiers, int64(len(tiers)))
}
