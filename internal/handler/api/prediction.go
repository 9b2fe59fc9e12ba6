package api

import (
	"context"
	"net/http"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/usecase"
	xhttp "StockSignal/pkg/http"
	"StockSignal/pkg/http/middleware"
	xlogger "StockSignal/pkg/logger"

	"github.com/labstack/echo/v4"
)

type Predictor interface {
	Predict(ctx context.Context, p usecase.PredictParams) (*models.PredictionResult, error)
	HasModel() bool
}

type HistoryReader interface {
	History(ctx context.Context, p usecase.HistoryParams) ([]models.HistoryPoint, error)
}

type Searcher interface {
	Search(ctx context.Context, query string) ([]byte, error)
}

// PredictionHandler serves the prediction, chart and search endpoints.
type PredictionHandler struct {
	logger    *xlogger.Logger
	predictor Predictor
	history   HistoryReader
	search    Searcher
	limiter   middleware.Allower
}

// NewPredictionHandler wires the endpoints. limiter may be nil to disable rate limiting.
func NewPredictionHandler(logger *xlogger.Logger, predictor Predictor, history HistoryReader, search Searcher, limiter middleware.Allower) *PredictionHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &PredictionHandler{
		logger:    logger,
		predictor: predictor,
		history:   history,
		search:    search,
		limiter:   limiter,
	}
}

func (h *PredictionHandler) RegisterRoutes(e *echo.Echo) {
	var predictMW []echo.MiddlewareFunc
	if h.limiter != nil {
		predictMW = append(predictMW, middleware.RateLimit(h.limiter))
	}
	e.GET("/predict/:symbol", h.Predict, predictMW...)
	e.POST("/predict", h.PredictWithBar, predictMW...)
	e.GET("/history/:symbol", h.History)
	e.GET("/search/:query", h.Search)
	e.GET("/health", h.Health)
}

// Predict handles GET /predict/:symbol?strategy=rules|model.
func (h *PredictionHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ErrorResponse(c, verr)
	}
	strategy, _ := models.ParseStrategy(req.Strategy)

	res, err := h.predictor.Predict(c.Request().Context(), usecase.PredictParams{
		Symbol:   req.Symbol,
		Strategy: strategy,
	})
	if err != nil {
		return h.fail(c, "predict", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.JSONResponse(c, res)
}

// PredictWithBar runs the pipeline with the posted bar as the newest observation.
func (h *PredictionHandler) PredictWithBar(c echo.Context) error {
	req := &models.BarPredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ErrorResponse(c, verr)
	}
	strategy, _ := models.ParseStrategy(req.Strategy)

	res, err := h.predictor.Predict(c.Request().Context(), usecase.PredictParams{
		Symbol:   req.Symbol,
		Strategy: strategy,
		Bar: &models.Bar{
			Open:   req.Open,
			High:   req.High,
			Low:    req.Low,
			Close:  req.Close,
			Volume: req.Volume,
		},
	})
	if err != nil {
		return h.fail(c, "predict_bar", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.JSONResponse(c, map[string]*models.PredictionResult{"prediction": res})
}

func (h *PredictionHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ErrorResponse(c, verr)
	}

	points, err := h.history.History(c.Request().Context(), usecase.HistoryParams{
		Symbol:   req.Symbol,
		Range:    req.Range,
		Interval: domrepo.NormalizeInterval(req.Interval),
	})
	if err != nil {
		return h.fail(c, "history", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.JSONResponse(c, points)
}

// Search relays the provider's JSON untouched.
func (h *PredictionHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ErrorResponse(c, verr)
	}

	body, err := h.search.Search(c.Request().Context(), req.Query)
	if err != nil {
		return h.fail(c, "search", err)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}

func (h *PredictionHandler) Health(c echo.Context) error {
	return xhttp.JSONResponse(c, map[string]interface{}{
		"status":     "ok",
		"classifier": h.predictor.HasModel(),
	})
}

func (h *PredictionHandler) fail(c echo.Context, op string, err error) error {
	appErr := domainError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed",
			xlogger.String("path", c.Request().URL.Path),
			xlogger.Int("status", appErr.Status),
			xlogger.Error(err),
		)
	}
	return xhttp.ErrorResponse(c, appErr)
}
