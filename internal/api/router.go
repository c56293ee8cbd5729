package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"go.uber.org/zap"

	"nse-tracker/internal/market"
	"nse-tracker/internal/tracker"
)

type SymbolsRequest struct {
	Symbols string `json:"symbols"`
}

type IntervalRequest struct {
	IntervalSec int `json:"interval_sec"`
}

type BoardResponse struct {
	OK    bool         `json:"ok"`
	Board tracker.View `json:"board"`
}

type QuotesResponse struct {
	OK     bool            `json:"ok"`
	Quotes []market.Result `json:"quotes"`
}

func RegisterRoutes(h *server.Hertz, sess *tracker.Session, svc tracker.BatchFetcher, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	h.GET("/healthz", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})

	h.GET("/api/v1/board", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, BoardResponse{OK: true, Board: sess.View()})
	})

	h.PUT("/api/v1/board/symbols", func(_ context.Context, c *app.RequestContext) {
		var req SymbolsRequest
		if err := c.BindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json body")
			return
		}
		sess.SetSymbols(req.Symbols)
		c.JSON(http.StatusOK, BoardResponse{OK: true, Board: sess.View()})
	})

	h.PUT("/api/v1/board/interval", func(_ context.Context, c *app.RequestContext) {
		var req IntervalRequest
		if err := c.BindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := sess.SetInterval(req.IntervalSec); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, tracker.ErrInvalidInterval) {
				status = http.StatusBadRequest
			}
			writeError(c, status, err.Error())
			return
		}
		c.JSON(http.StatusOK, BoardResponse{OK: true, Board: sess.View()})
	})

	h.POST("/api/v1/board/start", func(_ context.Context, c *app.RequestContext) {
		runID, started := sess.Start()
		c.JSON(http.StatusOK, map[string]any{
			"ok":      true,
			"started": started,
			"run_id":  runID,
		})
	})

	h.POST("/api/v1/board/stop", func(_ context.Context, c *app.RequestContext) {
		stopped := sess.Stop()
		c.JSON(http.StatusOK, map[string]any{
			"ok":      true,
			"stopped": stopped,
		})
	})

	h.GET("/api/v1/quotes", func(ctx context.Context, c *app.RequestContext) {
		if svc == nil {
			writeError(c, http.StatusInternalServerError, "market service not configured")
			return
		}
		symbols := market.ParseSymbols(c.Query("symbols"))
		if len(symbols) == 0 {
			symbols = sess.Config().Symbols
		}
		if len(symbols) == 0 {
			writeError(c, http.StatusBadRequest, "symbols is empty")
			return
		}
		results := svc.FetchAll(ctx, symbols)
		logger.Debug("one-off quote fetch", zap.Int("symbols", len(symbols)), zap.Int("results", len(results)))
		c.JSON(http.StatusOK, QuotesResponse{OK: true, Quotes: results})
	})
}

func writeError(c *app.RequestContext, status int, msg string) {
	c.JSON(status, map[string]any{
		"ok":    false,
		"error": msg,
	})
}
