package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/scheduler"
	"github.com/example/clinic-scheduler/internal/validation"
)

type appointmentService interface {
	Create(ctx context.Context, input application.CreateAppointmentInput) (*persistence.Appointment, error)
	Update(ctx context.Context, id int64, input application.UpdateAppointmentInput) (*persistence.Appointment, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	MarkAttended(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (*persistence.Appointment, error)
	List(ctx context.Context, filter persistence.AppointmentFilter) ([]*persistence.Appointment, error)
	Statistics(ctx context.Context) (*persistence.Statistics, error)
}

type AppointmentHandler struct {
	service   appointmentService
	responder responder
}

func NewAppointmentHandler(service appointmentService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, responder: newResponder(logger)}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	date, clock, vErr := parseSlot(req.Date, req.Time)
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	appointment, err := h.service.Create(r.Context(), application.CreateAppointmentInput{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Time:      clock,
		Notes:     req.Notes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAppointmentDTO(appointment))
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	date, clock, vErr := parseSlot(req.Date, req.Time)
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	appointment, err := h.service.Update(r.Context(), id, application.UpdateAppointmentInput{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Time:      clock,
		Notes:     req.Notes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appointment))
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.service.Cancel)
}

func (h *AppointmentHandler) MarkAttended(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.service.MarkAttended)
}

func (h *AppointmentHandler) applyTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (bool, error)) {
	id, ok := resourceID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	found, err := op(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !found {
		h.responder.handleServiceError(r.Context(), w, application.ErrNotFound)
		return
	}

	appointment, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appointment))
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	found, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !found {
		h.responder.handleServiceError(r.Context(), w, application.ErrNotFound)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	appointment, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appointment))
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, vErr := buildAppointmentFilter(r)
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	appointments, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"appointments": toAppointmentDTOs(appointments),
	})
}

func (h *AppointmentHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, statisticsDTO{
		Total:     stats.Total,
		Scheduled: stats.Scheduled,
		Attended:  stats.Attended,
		Cancelled: stats.Cancelled,
	})
}

func buildAppointmentFilter(r *http.Request) (persistence.AppointmentFilter, *application.ValidationError) {
	query := r.URL.Query()
	var filter persistence.AppointmentFilter
	fieldErrors := make(map[string]string)

	if value := strings.TrimSpace(query.Get("patient_id")); value != "" {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			fieldErrors["patient_id"] = "id must be a positive integer"
		} else {
			filter.PatientID = id
		}
	}
	if value := strings.TrimSpace(query.Get("doctor_id")); value != "" {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			fieldErrors["doctor_id"] = "id must be a positive integer"
		} else {
			filter.DoctorID = id
		}
	}
	if value := strings.TrimSpace(query.Get("date")); value != "" {
		date, err := validation.ParseDate(value)
		if err != nil {
			fieldErrors["date"] = err.Error()
		} else {
			filter.Date = date
		}
	}
	if value := strings.TrimSpace(query.Get("from")); value != "" {
		date, err := validation.ParseDate(value)
		if err != nil {
			fieldErrors["from"] = err.Error()
		} else {
			filter.From = date
		}
	}
	if value := strings.TrimSpace(query.Get("to")); value != "" {
		date, err := validation.ParseDate(value)
		if err != nil {
			fieldErrors["to"] = err.Error()
		} else {
			filter.To = date
		}
	}
	if value := strings.TrimSpace(query.Get("status")); value != "" {
		status := scheduler.Status(value)
		if !status.Valid() {
			fieldErrors["status"] = "unknown status"
		} else {
			filter.Status = status
		}
	}
	filter.ActiveOnly = query.Get("active") == "true"

	if len(fieldErrors) > 0 {
		return persistence.AppointmentFilter{}, &application.ValidationError{FieldErrors: fieldErrors}
	}
	return filter, nil
}

// parseSlot converts the request's dd/mm/yyyy date and HH:mm time into
// domain values, collecting field errors for anything unparseable.
func parseSlot(dateValue, timeValue string) (time.Time, scheduler.TimeOfDay, *application.ValidationError) {
	fieldErrors := make(map[string]string)

	date, err := validation.ParseDate(dateValue)
	if err != nil {
		fieldErrors["date"] = err.Error()
	}
	clock, err := scheduler.ParseTimeOfDay(timeValue)
	if err != nil {
		fieldErrors["time"] = "time must use the HH:mm format"
	}

	if len(fieldErrors) > 0 {
		return time.Time{}, 0, &application.ValidationError{FieldErrors: fieldErrors}
	}
	return date, clock, nil
}

func resourceID(r *http.Request) (int64, bool) {
	value, ok := ResourceIDFromContext(r.Context())
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
