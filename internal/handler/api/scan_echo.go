package api

import (
	"context"
	"net/http"
	"time"

	models "LureScan/internal/domain/models"
	domrepo "LureScan/internal/domain/repository"
	"LureScan/internal/usecase"
	xhttp "LureScan/pkg/http"
	xlogger "LureScan/pkg/logger"
	"LureScan/pkg/util"

	"github.com/labstack/echo/v4"
)

// ScanEchoHandler exposes the scan funnel over HTTP.
type ScanEchoHandler struct {
	logger    *xlogger.Logger
	scanner   *usecase.Scanner
	results   domrepo.ResultStore
	collector *usecase.BarCollector
}

func NewScanEchoHandler(logger *xlogger.Logger, scanner *usecase.Scanner, results domrepo.ResultStore, collector *usecase.BarCollector) *ScanEchoHandler {
	return &ScanEchoHandler{logger: logger, scanner: scanner, results: results, collector: collector}
}

func (h *ScanEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/scan", h.Scan)
	g.GET("/results", h.Results)
	g.GET("/health", h.Health)
}

// Scan runs one funnel pass synchronously and returns the ranked list.
func (h *ScanEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var (
		ranked  []models.ScanResult
		summary models.ScanSummary
		err     error
	)
	if at, ok := util.ParseTime(req.At); ok {
		ranked, summary, err = h.scanner.ScanAt(c.Request().Context(), req.Universe, req.TopN, at)
	} else {
		ranked, summary, err = h.scanner.Scan(c.Request().Context(), req.Universe, req.TopN)
	}
	if err != nil {
		h.logger.Error("scan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"summary": summary,
		"results": ranked,
	})
}

// Results serves the last pass from memory, falling back to storage after a
// restart.
func (h *ScanEchoHandler) Results(c echo.Context) error {
	req := &models.ResultsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	results, summary := h.scanner.Latest(req.Limit)
	if len(results) == 0 && h.results != nil {
		stored, err := h.results.LatestResults(c.Request().Context(), req.Limit)
		if err != nil {
			h.logger.Error("results store error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		results = stored
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"summary": summary,
		"results": results,
	})
}

// Health reports storage and stream health.
func (h *ScanEchoHandler) Health(c echo.Context) error {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok"}

	if h.results != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.results.Health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["storage"] = err.Error()
		}
	}
	if h.collector != nil {
		body["stream_connected"] = h.collector.IsConnected()
	}

	return c.JSON(status, body)
}
