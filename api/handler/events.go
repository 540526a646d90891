package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskbridge/backend/internal/infrastructure/journal"
	"github.com/taskbridge/backend/pkg/httpcontext"
)

// EventsHandler exposes the notification journal to managers for
// operational inspection. Entries are history, never redelivered.
type EventsHandler struct {
	baseHandler
	journal *journal.Store
}

func NewEventsHandler(store *journal.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		journal:     store,
	}
}

// @Summary Recent notification events
// @Tags events
// @Router /api/v1/events [get]
func (h *EventsHandler) Recent(ctx *fasthttp.RequestCtx) {
	if _, ok := h.identity(ctx); !ok {
		return
	}

	limit := 50
	if raw := string(ctx.QueryArgs().Peek("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.journal.Recent(limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, entries)
}
