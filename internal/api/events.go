package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/taskchat/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxFrameBytes bounds the size of an inbound event body.
const maxFrameBytes = 16 << 10

// EventHandler accepts chat events over plain HTTP.
type EventHandler struct {
	*Handler
}

// NewEventHandler creates a new event handler.
func NewEventHandler(base *Handler) *EventHandler {
	return &EventHandler{Handler: base}
}

// RegisterRoutes registers event routes.
func (h *EventHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/events", h.PostEvent)
	})
}

// PostEvent decodes one event frame, routes it and writes the response.
func (h *EventHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)

	frame, err := DecodeFrame(http.MaxBytesReader(w, r.Body, maxFrameBytes))
	if err != nil {
		slog.Warn("Rejected event frame", "request_id", requestID, "error", err)
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := frame.Event()
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			slog.Warn("Invalid event frame", "request_id", requestID, "field", verr.Field, "error", err)
		}
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.router.Handle(r.Context(), ev)
	slog.Debug("Event handled",
		"request_id", requestID,
		"user_id", frame.UserID,
		"type", frame.Type,
		"kind", resp.Kind)
	JSON(w, http.StatusOK, resp)
}
