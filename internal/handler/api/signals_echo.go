package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	models "FinSignal/internal/domain/models"
	"FinSignal/internal/usecase"
	xhttp "FinSignal/pkg/http"
	xlogger "FinSignal/pkg/logger"
)

// HistoryService resolves price history for a symbol and range.
type HistoryService interface {
	Resolve(ctx context.Context, symbol, rng string) (*models.Series, error)
}

// SignalReader lists stored signals, newest first.
type SignalReader interface {
	Recent(ctx context.Context, limit int) ([]models.Signal, error)
	RecentBySymbol(ctx context.Context, symbol string, limit int) ([]models.Signal, error)
}

// Scanner is the manual trigger and status surface of the scheduler.
type Scanner interface {
	Trigger()
	State() usecase.SchedulerState
}

// StreamServer upgrades a request into a live event stream.
type StreamServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
	Subscribers() int
}

// SignalsEchoHandler serves the history, signal, scan and stream routes.
type SignalsEchoHandler struct {
	logger  *xlogger.Logger
	history HistoryService
	signals SignalReader
	scanner Scanner
	stream  StreamServer
}

var _ xhttp.Handler = (*SignalsEchoHandler)(nil)

func NewSignalsEchoHandler(logger *xlogger.Logger, history HistoryService, signals SignalReader, scanner Scanner, stream StreamServer) *SignalsEchoHandler {
	return &SignalsEchoHandler{logger: logger, history: history, signals: signals, scanner: scanner, stream: stream}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/history", h.History)
	g.GET("/signals", h.Signals)
	g.POST("/scan", h.Scan)
	g.GET("/status", h.Status)
	e.GET("/ws", h.WS)
}

func (h *SignalsEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	series, err := h.history.Resolve(c.Request().Context(), req.Symbol, req.Range)
	if err != nil {
		h.logger.Error("history usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.String("range", req.Range),
			xlogger.Error(err),
		)
		if errors.Is(err, models.ErrUnknownRange) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("range", err.Error()).WithError(err))
		}
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("history unavailable").WithError(err))
	}
	if series.Simulated {
		c.Response().Header().Set("X-Data-Simulated", "true")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, series)
}

func (h *SignalsEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var (
		sigs []models.Signal
		err  error
	)
	ctx := c.Request().Context()
	if req.Symbol != "" {
		sigs, err = h.signals.RecentBySymbol(ctx, req.Symbol, req.Limit)
	} else {
		sigs, err = h.signals.Recent(ctx, req.Limit)
	}
	if err != nil {
		h.logger.Error("signals query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("signal store unavailable").WithError(err))
	}
	if sigs == nil {
		sigs = []models.Signal{}
	}
	return xhttp.SuccessResponse(c, sigs)
}

func (h *SignalsEchoHandler) Scan(c echo.Context) error {
	h.scanner.Trigger()
	h.logger.Info("manual scan triggered", xlogger.String("remote", c.RealIP()))
	return xhttp.AcceptedResponse(c, h.scanner.State())
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Scheduler   usecase.SchedulerState `json:"scheduler"`
	Subscribers int                    `json:"subscribers"`
}

func (h *SignalsEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, StatusResponse{
		Scheduler:   h.scanner.State(),
		Subscribers: h.stream.Subscribers(),
	})
}

func (h *SignalsEchoHandler) WS(c echo.Context) error {
	if err := h.stream.ServeWS(c.Response(), c.Request()); err != nil {
		// The upgrader has already written the error response.
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
	}
	return nil
}
