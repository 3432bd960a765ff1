package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/scheduler"
)

var (
	errBadRequestBody = errors.New("El formato de la solicitud no es válido.")
	errInvalidID      = errors.New("El identificador no es válido.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors onto HTTP statuses with the
// user-facing Spanish text centralized here, away from the services.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "El recurso solicitado no existe."})
	case errors.Is(err, application.ErrDuplicate):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "DUPLICATE",
			Message:   localizedDuplicateMessage(err),
		})
	case errors.Is(err, application.ErrDeleteNotAllowed):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "DELETE_NOT_ALLOWED",
			Message:   "No se puede eliminar una cita programada futura. Cancélela primero.",
		})
	case errors.Is(err, application.ErrResourceInUse):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "RESOURCE_IN_USE",
			Message:   "No se puede eliminar porque tiene citas asociadas.",
		})
	case errors.Is(err, scheduler.ErrAlreadyInState):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_IN_STATE",
			Message:   "La cita ya se encuentra en ese estado.",
		})
	case errors.Is(err, scheduler.ErrInvalidTransition):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_TRANSITION",
			Message:   "El estado actual de la cita no permite esa operación.",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "Los datos ingresados no son válidos.",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		var cErr *application.ConflictError
		if errors.As(err, &cErr) {
			r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
				ErrorCode: "SCHEDULING_CONFLICT",
				Message:   localizedConflictMessage(cErr),
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "Ocurrió un error interno en el servidor."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "La solicitud no es correcta."
	case http.StatusNotFound:
		return "El recurso solicitado no existe."
	case http.StatusConflict:
		return "La solicitud entra en conflicto con el estado actual del recurso."
	case http.StatusUnprocessableEntity:
		return "Los datos ingresados no son válidos."
	case http.StatusTooManyRequests:
		return "Demasiadas solicitudes. Intente de nuevo más tarde."
	default:
		return "Ocurrió un error interno en el servidor."
	}
}

func localizedDuplicateMessage(err error) string {
	var dErr *application.DuplicateError
	if errors.As(err, &dErr) {
		switch dErr.Field {
		case "document":
			return "Ya existe un registro con ese documento."
		case "email":
			return "Ya existe un registro con ese correo electrónico."
		}
	}
	return "Ya existe un registro con esos datos."
}

func localizedConflictMessage(cErr *application.ConflictError) string {
	switch cErr.Party {
	case "doctor":
		return "El médico ya tiene una cita programada en esa fecha y hora."
	case "patient":
		return "El paciente ya tiene una cita programada en esa fecha y hora."
	default:
		return "Ya existe una cita programada en esa fecha y hora."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "name is required":
		return "El nombre es obligatorio."
	case "name must be between 2 and 100 characters":
		return "El nombre debe tener entre 2 y 100 caracteres."
	case "name may only contain letters, spaces, hyphens and periods":
		return "El nombre solo puede contener letras, espacios, guiones y puntos."
	case "document is required":
		return "El documento es obligatorio."
	case "document must be 5 to 20 digits":
		return "El documento debe tener entre 5 y 20 dígitos."
	case "age must be between 1 and 150":
		return "La edad debe estar entre 1 y 150."
	case "phone is required":
		return "El teléfono es obligatorio."
	case "phone must be 7 to 20 characters of digits, spaces, hyphens, parentheses or plus":
		return "El teléfono debe tener entre 7 y 20 caracteres válidos."
	case "email is required":
		return "El correo electrónico es obligatorio."
	case "email is invalid":
		return "El correo electrónico no es válido."
	case "specialty is required":
		return "La especialidad es obligatoria."
	case "specialty must be between 2 and 50 characters":
		return "La especialidad debe tener entre 2 y 50 caracteres."
	case "specialty may only contain letters, spaces, hyphens and periods":
		return "La especialidad solo puede contener letras, espacios, guiones y puntos."
	case "notes must not exceed 500 characters":
		return "Las notas no pueden superar los 500 caracteres."
	case "date is required":
		return "La fecha es obligatoria."
	case "date must be today or later":
		return "La fecha debe ser hoy o posterior."
	case "date must be within 2 years":
		return "La fecha no puede superar los 2 años."
	case "date must use the dd/mm/yyyy format":
		return "La fecha debe usar el formato dd/mm/aaaa."
	case "time must use the HH:mm format":
		return "La hora debe usar el formato HH:mm."
	case "unknown status":
		return "El estado indicado no existe."
	case "time must be between 06:00 and 22:00":
		return "La hora debe estar entre las 06:00 y las 22:00."
	case "appointment must be in the future":
		return "La cita debe ser en el futuro."
	case "id must be a positive integer":
		return "El identificador debe ser un entero positivo."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
