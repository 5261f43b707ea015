package api

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"HydroFlow/internal/domain/models"
	domrepo "HydroFlow/internal/domain/repository"
	"HydroFlow/internal/usecase"
	xhttp "HydroFlow/pkg/http"
	xlogger "HydroFlow/pkg/logger"
	xutil "HydroFlow/pkg/util"
)

// FeedStatus reports whether the quote feed is up.
type FeedStatus interface {
	IsConnected() bool
}

// HealthChecker pings a backing store.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// EngineEchoHandler serves the read-only operator API over the engines.
type EngineEchoHandler struct {
	logger    *xlogger.Logger
	engines   usecase.Engines
	snapshots domrepo.SnapshotStore
	bars      domrepo.BarSource
	feed      FeedStatus
	journal   HealthChecker
	timeframe domrepo.Timeframe
}

// NewEngineEchoHandler wires the handler. snapshots, bars, feed and journal may be nil.
func NewEngineEchoHandler(
	logger *xlogger.Logger,
	engines usecase.Engines,
	snapshots domrepo.SnapshotStore,
	bars domrepo.BarSource,
	feed FeedStatus,
	journal HealthChecker,
	tf domrepo.Timeframe,
) *EngineEchoHandler {
	return &EngineEchoHandler{
		logger:    logger,
		engines:   engines,
		snapshots: snapshots,
		bars:      bars,
		feed:      feed,
		journal:   journal,
		timeframe: tf,
	}
}

func (h *EngineEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/state", h.State)
	g.GET("/trades", h.Trades)
	g.GET("/performance", h.Performance)
	g.GET("/bars", h.Bars)
}

func (h *EngineEchoHandler) Health(c echo.Context) error {
	res := models.Health{Status: "ok", Journal: "disabled"}
	if h.feed != nil {
		res.FeedConnected = h.feed.IsConnected()
		if !res.FeedConnected {
			res.Status = "degraded"
		}
	}
	if h.journal != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.journal.Health(ctx); err != nil {
			h.logger.Warn("journal health check failed", xlogger.Error(err))
			res.Journal = "down"
			res.Status = "degraded"
		} else {
			res.Journal = "up"
		}
	}
	return xhttp.SuccessResponse(c, res)
}

// State returns the live snapshot, or the last persisted one when the symbol has no engine.
func (h *EngineEchoHandler) State(c echo.Context) error {
	req := &models.StateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if e, ok := h.engines.Get(req.Symbol); ok {
		return xhttp.SuccessResponse(c, e.Snapshot())
	}
	if h.snapshots == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("unknown symbol").WithParam("symbol", req.Symbol))
	}
	snap, err := h.snapshots.Load(c.Request().Context(), req.Symbol)
	if errors.Is(err, domrepo.ErrSnapshotNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no snapshot for symbol").WithParam("symbol", req.Symbol))
	}
	if err != nil {
		h.logger.Error("load snapshot", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("snapshot store unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *EngineEchoHandler) Trades(c echo.Context) error {
	trades := make([]models.OpenTrade, 0)
	for _, sym := range h.engines.Symbols() {
		trades = append(trades, h.engines[sym].OpenTrades()...)
	}
	return xhttp.ListResponse(c, trades, int64(len(trades)))
}

// Performance returns per-symbol statistics.
func (h *EngineEchoHandler) Performance(c echo.Context) error {
	out := make(map[string]models.Performance, len(h.engines))
	for _, sym := range h.engines.Symbols() {
		out[sym] = h.engines[sym].Performance()
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *EngineEchoHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.bars == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("no bar source configured"))
	}
	now := time.Now().UTC()
	to := xhttp.ParseTimeDefault(req.To, now)
	from := xhttp.ParseTimeDefault(req.From, to.Add(-time.Duration(req.Limit)*h.timeframe.Duration()))
	if !from.Before(to) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from must be before to"))
	}
	from, to = xutil.AlignFromTo(from, to, h.timeframe.Duration())

	bars, err := h.bars.LoadBars(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("load bars", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("bar source unavailable").WithError(err))
	}
	return xhttp.ListResponse(c, bars, int64(len(bars)))
}
