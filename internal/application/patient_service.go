package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/validation"
)

// PatientService orchestrates validation and persistence for patient
// records.
type PatientService struct {
	patients     persistence.PatientRepository
	appointments persistence.AppointmentRepository
	logger       *slog.Logger
	now          func() time.Time
}

// NewPatientService wires dependencies for patient operations. A nil now
// falls back to time.Now.
func NewPatientService(patients persistence.PatientRepository, appointments persistence.AppointmentRepository, logger *slog.Logger, now func() time.Time) *PatientService {
	if now == nil {
		now = time.Now
	}
	return &PatientService{
		patients:     patients,
		appointments: appointments,
		logger:       logger,
		now:          now,
	}
}

// Create registers a patient. The document and email must be unique.
func (s *PatientService) Create(ctx context.Context, input CreatePatientInput) (*persistence.Patient, error) {
	log := serviceLogger(ctx, s.logger, "patients", "create")

	if err := validatePatientInput(input.Name, input.Document, input.Age, input.Phone, input.Email); err != nil {
		log.Warn("patient rejected", "error_kind", ErrorKind(err))
		return nil, err
	}

	// Friendly pre-check; the UNIQUE constraint still decides under races.
	if _, err := s.patients.GetByDocument(ctx, strings.TrimSpace(input.Document)); err == nil {
		log.Warn("patient rejected", "error_kind", ErrorKind(ErrDuplicate))
		return nil, &DuplicateError{Field: "document"}
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return nil, mapRecordRepoError(err)
	}

	patient := &persistence.Patient{
		Name:     strings.TrimSpace(input.Name),
		Document: strings.TrimSpace(input.Document),
		Age:      input.Age,
		Phone:    strings.TrimSpace(input.Phone),
		Email:    strings.TrimSpace(input.Email),
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, mapRecordRepoError(err)
	}

	log.Info("patient created", "patient_id", patient.ID)
	return patient, nil
}

// Get retrieves one patient.
func (s *PatientService) Get(ctx context.Context, id int64) (*persistence.Patient, error) {
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, mapRecordRepoError(err)
	}
	return patient, nil
}

// GetByDocument retrieves one patient by identity document.
func (s *PatientService) GetByDocument(ctx context.Context, document string) (*persistence.Patient, error) {
	patient, err := s.patients.GetByDocument(ctx, strings.TrimSpace(document))
	if err != nil {
		return nil, mapRecordRepoError(err)
	}
	return patient, nil
}

// List returns all patients.
func (s *PatientService) List(ctx context.Context) ([]*persistence.Patient, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, mapRecordRepoError(err)
	}
	return patients, nil
}

// Search returns patients whose name or document contains the term.
func (s *PatientService) Search(ctx context.Context, term string) ([]*persistence.Patient, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx)
	}
	patients, err := s.patients.Search(ctx, term)
	if err != nil {
		return nil, mapRecordRepoError(err)
	}
	return patients, nil
}

// Update rewrites a patient's fields. Document and email uniqueness are
// re-checked only when the value actually changes, excluding the
// patient's own row.
func (s *PatientService) Update(ctx context.Context, id int64, input UpdatePatientInput) (*persistence.Patient, error) {
	log := serviceLogger(ctx, s.logger, "patients", "update", "patient_id", id)

	if err := validation.ValidateID(id); err != nil {
		vErr := &ValidationError{}
		vErr.add("id", err.Error())
		return nil, vErr
	}
	if err := validatePatientInput(input.Name, input.Document, input.Age, input.Phone, input.Email); err != nil {
		log.Warn("update rejected", "error_kind", ErrorKind(err))
		return nil, err
	}

	existing, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, mapRecordRepoError(err)
	}

	document := strings.TrimSpace(input.Document)
	if document != existing.Document {
		if err := s.checkPatientDocumentFree(ctx, document, id); err != nil {
			log.Warn("update rejected", "error_kind", ErrorKind(err))
			return nil, err
		}
	}
	email := strings.TrimSpace(input.Email)
	if !strings.EqualFold(email, existing.Email) {
		if err := s.checkPatientEmailFree(ctx, email, id); err != nil {
			log.Warn("update rejected", "error_kind", ErrorKind(err))
			return nil, err
		}
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Document = document
	existing.Age = input.Age
	existing.Phone = strings.TrimSpace(input.Phone)
	existing.Email = email

	if err := s.patients.Update(ctx, existing); err != nil {
		return nil, mapRecordRepoError(err)
	}

	log.Info("patient updated")
	return existing, nil
}

func (s *PatientService) checkPatientDocumentFree(ctx context.Context, document string, ownID int64) error {
	other, err := s.patients.GetByDocument(ctx, document)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return mapRecordRepoError(err)
	}
	if other.ID != ownID {
		return &DuplicateError{Field: "document"}
	}
	return nil
}

func (s *PatientService) checkPatientEmailFree(ctx context.Context, email string, ownID int64) error {
	other, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return mapRecordRepoError(err)
	}
	if other.ID != ownID {
		return &DuplicateError{Field: "email"}
	}
	return nil
}

// Delete removes a patient. A patient still holding a scheduled booking
// dated today or later is kept; older history is removed with the record.
func (s *PatientService) Delete(ctx context.Context, id int64) error {
	log := serviceLogger(ctx, s.logger, "patients", "delete", "patient_id", id)

	count, err := s.appointments.CountUpcomingByPatient(ctx, id, s.now().UTC())
	if err != nil {
		return mapRecordRepoError(err)
	}
	if count > 0 {
		log.Warn("delete rejected", "error_kind", ErrorKind(ErrResourceInUse), "bookings", count)
		return ErrResourceInUse
	}

	if err := s.patients.Delete(ctx, id); err != nil {
		return mapRecordRepoError(err)
	}

	log.Info("patient deleted")
	return nil
}

func validatePatientInput(name, document string, age int, phone, email string) error {
	vErr := &ValidationError{}
	vErr.addIf("name", validation.ValidateName(name))
	vErr.addIf("document", validation.ValidateDocument(document))
	vErr.addIf("age", validation.ValidateAge(age))
	vErr.addIf("phone", validation.ValidatePhone(phone))
	vErr.addIf("email", validation.ValidateEmail(email))
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// mapRecordRepoError translates persistence sentinels for patient and
// doctor records.
func mapRecordRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrDuplicate
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrResourceInUse
	default:
		return mapAppointmentRepoError(err)
	}
}
