package handler

import (
	"net/http"
	"time"

	"github.com/sharpagents/linesight/internal/pipeline"
)

// StatusSource exposes the most recent collection cycle.
type StatusSource interface {
	LastStatus() pipeline.CycleStatus
}

// StatusHandler reports collection health: the last cycle, whether its data is
// stale, and whether the feeds are currently unavailable.
type StatusHandler struct {
	source   StatusSource
	interval time.Duration
}

// NewStatusHandler creates a StatusHandler. interval is the configured
// collection interval; data older than twice the interval is reported stale.
func NewStatusHandler(source StatusSource, interval time.Duration) *StatusHandler {
	return &StatusHandler{source: source, interval: interval}
}

// Status responds with the last collection cycle and derived health flags.
// GET /api/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	last := h.source.LastStatus()

	started := !last.StartedAt.IsZero()
	stale := !started || time.Since(last.CompletedAt) > 2*h.interval
	unavailable := started && len(last.VenuesOK) == 0

	writeJSON(w, http.StatusOK, map[string]any{
		"last_cycle":  last,
		"stale":       stale,
		"unavailable": unavailable,
	})
}
