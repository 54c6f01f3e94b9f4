package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	xhttp "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/http"
	xlogger "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

// AnalysisSource serves the latest analysis of a symbol. *usecase.Analyzer implements it.
type AnalysisSource interface {
	Latest(symbol string) (models.SymbolAnalysis, bool)
}

type PredictionsHandler struct {
	logger  *xlogger.Logger
	results AnalysisSource
}

func NewPredictionsHandler(logger *xlogger.Logger, results AnalysisSource) *PredictionsHandler {
	return &PredictionsHandler{logger: logger, results: results}
}

func (h *PredictionsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/predictions", h.Predictions)
}

// predictionsResponse omits the raw per-timeframe matches; the contributing
// top patterns are already inside each prediction.
type predictionsResponse struct {
	Symbol       string                                      `json:"symbol"`
	CurrentPrice float64                                     `json:"current_price"`
	AnalyzedAt   time.Time                                   `json:"analyzed_at"`
	Predictions  map[models.Horizon]models.Prediction        `json:"predictions"`
	MatchCounts  map[models.Horizon]map[models.Timeframe]int `json:"match_counts"`
}

func (h *PredictionsHandler) Predictions(c echo.Context) error {
	req := &models.PredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, ok := h.results.Latest(req.Symbol)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no recent analysis for %s", req.Symbol).
			WithParam("symbol", req.Symbol))
	}

	out := predictionsResponse{
		Symbol:       res.Symbol,
		CurrentPrice: res.CurrentPrice,
		AnalyzedAt:   res.AnalyzedAt.UTC(),
		Predictions:  make(map[models.Horizon]models.Prediction, len(res.Predictions)),
		MatchCounts:  make(map[models.Horizon]map[models.Timeframe]int, len(res.Matches)),
	}
	for hz, p := range res.Predictions {
		if req.Horizon != "" && string(hz) != req.Horizon {
			continue
		}
		out.Predictions[hz] = p
		counts := make(map[models.Timeframe]int, len(res.Matches[hz]))
		for tf, ms := range res.Matches[hz] {
			counts[tf] = len(ms)
		}
		out.MatchCounts[hz] = counts
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, out)
}
