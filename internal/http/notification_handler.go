package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/persistence"
)

// NotificationHandler exposes the confirmation delivery log.
type NotificationHandler struct {
	log       persistence.DeliveryLogRepository
	responder responder
}

func NewNotificationHandler(log persistence.DeliveryLogRepository, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{log: log, responder: newResponder(logger)}
}

// List returns recent delivery records, narrowed to one booking when the
// appointment_id query parameter is present, or to one outcome when the
// outcome parameter is present.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if value := strings.TrimSpace(query.Get("appointment_id")); value != "" {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
			return
		}
		entries, err := h.log.ListByAppointment(r.Context(), id)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
			"notifications": toDeliveryDTOs(entries),
		})
		return
	}

	limit := 50
	if value := strings.TrimSpace(query.Get("limit")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if outcome := strings.TrimSpace(query.Get("outcome")); outcome != "" {
		switch outcome {
		case persistence.DeliveryNotSent, persistence.DeliverySent, persistence.DeliveryFailed:
		default:
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"outcome": "unknown status"},
			})
			return
		}
		entries, err := h.log.ListByOutcome(r.Context(), outcome, limit)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
			"notifications": toDeliveryDTOs(entries),
		})
		return
	}

	entries, err := h.log.List(r.Context(), limit)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"notifications": toDeliveryDTOs(entries),
	})
}
