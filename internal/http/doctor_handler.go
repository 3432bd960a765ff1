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

type doctorService interface {
	Create(ctx context.Context, input application.CreateDoctorInput) (*persistence.Doctor, error)
	Get(ctx context.Context, id int64) (*persistence.Doctor, error)
	GetByDocument(ctx context.Context, document string) (*persistence.Doctor, error)
	List(ctx context.Context, specialty string) ([]*persistence.Doctor, error)
	Search(ctx context.Context, term string) ([]*persistence.Doctor, error)
	Specialties(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id int64, input application.UpdateDoctorInput) (*persistence.Doctor, error)
	Delete(ctx context.Context, id int64) error
}

type DoctorHandler struct {
	service   doctorService
	responder responder
}

func NewDoctorHandler(service doctorService, logger *slog.Logger) *DoctorHandler {
	return &DoctorHandler{service: service, responder: newResponder(logger)}
}

func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req doctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	doctor, err := h.service.Create(r.Context(), application.CreateDoctorInput{
		Name:      req.Name,
		Document:  req.Document,
		Specialty: req.Specialty,
		Phone:     req.Phone,
		Email:     req.Email,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toDoctorDTO(doctor))
}

// List returns all doctors, a single match when the document query
// parameter is present, a search when q is present, or a specialty
// filter otherwise.
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if document := strings.TrimSpace(query.Get("document")); document != "" {
		doctor, err := h.service.GetByDocument(r.Context(), document)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
			"doctors": []doctorDTO{toDoctorDTO(doctor)},
		})
		return
	}

	if term := strings.TrimSpace(query.Get("q")); term != "" {
		doctors, err := h.service.Search(r.Context(), term)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
			"doctors": toDoctorDTOs(doctors),
		})
		return
	}

	doctors, err := h.service.List(r.Context(), query.Get("specialty"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"doctors": toDoctorDTOs(doctors),
	})
}

// Specialties returns the distinct specialty labels in use.
func (h *DoctorHandler) Specialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.service.Specialties(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if specialties == nil {
		specialties = []string{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"specialties": specialties,
	})
}

func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	doctor, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDoctorDTO(doctor))
}

func (h *DoctorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req doctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	doctor, err := h.service.Update(r.Context(), id, application.UpdateDoctorInput{
		Name:      req.Name,
		Document:  req.Document,
		Specialty: req.Specialty,
		Phone:     req.Phone,
		Email:     req.Email,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDoctorDTO(doctor))
}

func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
