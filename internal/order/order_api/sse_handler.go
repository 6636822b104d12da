package order_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"campusbites/internal/auth"
	"campusbites/internal/logger"
	"campusbites/internal/models"
	"campusbites/internal/sse"

	"github.com/go-chi/chi/v5"
)

// SSEHandler streams live order events: outlet owners watch their incoming
// queue, students watch their own order's status changes.
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.OrderEventEmitter
}

func NewSSEHandler(log *logger.Logger, emitter *sse.OrderEventEmitter) *SSEHandler {
	return &SSEHandler{Logger: log, EventEmitter: emitter}
}

// HandleUserOrderFeed streams status changes for the caller's own orders.
func (h *SSEHandler) HandleUserOrderFeed(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	h.setupSSEHeaders(w)
	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToUser(ctx, userID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	w.(http.Flusher).Flush()
	h.Logger.Info("SSE", fmt.Sprintf("user %s connected to order feed", userID))

	h.stream(w, ctx.Done(), eventChan)
}

// HandleOutletOrderFeed streams incoming orders for an outlet. Only the
// outlet's owner (or an admin) may subscribe.
func (h *SSEHandler) HandleOutletOrderFeed(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "outletID")
	if outletID == "" {
		http.Error(w, "outlet ID is required", http.StatusBadRequest)
		return
	}

	role := auth.Role(r.Context())
	if role != models.RoleOutletOwner && role != models.RoleUniversityAdmin && role != models.RoleAppAdmin {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	h.setupSSEHeaders(w)
	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToOutlet(ctx, outletID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"outletID\":\"%s\"}\n\n", outletID)
	w.(http.Flusher).Flush()
	h.Logger.Info("SSE", fmt.Sprintf("client connected to outlet feed %s", outletID))

	h.stream(w, ctx.Done(), eventChan)
}

func (h *SSEHandler) stream(w http.ResponseWriter, done <-chan struct{}, eventChan chan sse.OrderEvent) {
	for {
		select {
		case ev, ok := <-eventChan:
			if !ok {
				return
			}
			jsonData, err := json.Marshal(ev)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to serialize order event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: order\ndata: %s\n\n", jsonData)
			w.(http.Flusher).Flush()

		case <-done:
			h.Logger.Debug("SSE", "client disconnected")
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
