package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/persistence"
)

type patientService interface {
	Create(ctx context.Context, input application.CreatePatientInput) (*persistence.Patient, error)
	Get(ctx context.Context, id int64) (*persistence.Patient, error)
	GetByDocument(ctx context.Context, document string) (*persistence.Patient, error)
	List(ctx context.Context) ([]*persistence.Patient, error)
	Search(ctx context.Context, term string) ([]*persistence.Patient, error)
	Update(ctx context.Context, id int64, input application.UpdatePatientInput) (*persistence.Patient, error)
	Delete(ctx context.Context, id int64) error
}

type PatientHandler struct {
	service   patientService
	responder responder
}

func NewPatientHandler(service patientService, logger *slog.Logger) *PatientHandler {
	return &PatientHandler{service: service, responder: newResponder(logger)}
}

func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	patient, err := h.service.Create(r.Context(), application.CreatePatientInput{
		Name:     req.Name,
		Document: req.Document,
		Age:      req.Age,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toPatientDTO(patient))
}

// List returns all patients, a single match when the document query
// parameter is present, or a name/document search when q is present.
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if document := strings.TrimSpace(query.Get("document")); document != "" {
		patient, err := h.service.GetByDocument(r.Context(), document)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
			"patients": []patientDTO{toPatientDTO(patient)},
		})
		return
	}

	if term := strings.TrimSpace(query.Get("q")); term != "" {
		patients, err := h.service.Search(r.Context(), term)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
			"patients": toPatientDTOs(patients),
		})
		return
	}

	patients, err := h.service.List(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"patients": toPatientDTOs(patients),
	})
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	patient, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPatientDTO(patient))
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	patient, err := h.service.Update(r.Context(), id, application.UpdatePatientInput{
		Name:     req.Name,
		Document: req.Document,
		Age:      req.Age,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPatientDTO(patient))
}

func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
