package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether a backing store answers.
type Pinger func(ctx context.Context) error

// Counter reports how many units of work a store has committed.
type Counter func(ctx context.Context) (int64, error)

type Handler struct {
	ping    Pinger
	commits Counter
}

func NewHandler(ping Pinger) *Handler { return &Handler{ping: ping} }

// WithCommits adds the store's commit count to the health report.
func (h *Handler) WithCommits(c Counter) *Handler {
	h.commits = c
	return h
}

func (h *Handler) Health(c echo.Context) error {
	status, code := "ok", http.StatusOK
	body := map[string]any{}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if h.ping != nil {
		if err := h.ping(ctx); err != nil {
			log.Warnw("health ping failed", "err", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	if h.commits != nil && code == http.StatusOK {
		n, err := h.commits(ctx)
		if err != nil {
			log.Warnw("health commit count failed", "err", err)
			status, code = "degraded", http.StatusServiceUnavailable
		} else {
			body["commits"] = n
		}
	}
	body["status"] = status
	body["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	return c.JSON(code, body)
}
