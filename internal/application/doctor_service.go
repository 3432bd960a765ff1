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

// DoctorService orchestrates validation and persistence for clinician
// records.
type DoctorService struct {
	doctors      persistence.DoctorRepository
	appointments persistence.AppointmentRepository
	logger       *slog.Logger
	now          func() time.Time
}

// NewDoctorService wires dependencies for doctor operations. A nil now
// falls back to time.Now.
func NewDoctorService(doctors persistence.DoctorRepository, appointments persistence.AppointmentRepository, logger *slog.Logger, now func() time.Time) *DoctorService {
	if now == nil {
		now = time.Now
	}
	return &DoctorService{
		doctors:      doctors,
		appointments: appointments,
		logger:       logger,
		now:          now,
	}
}

// Create registers a doctor. The document and email must be unique, as
// must the name and specialty pairing.
func (s *DoctorService) Create(ctx context.Context, input CreateDoctorInput) (*persistence.Doctor, error) {
	log := serviceLogger(ctx, s.logger, "doctors", "create")

	if err := validateDoctorInput(input.Name, input.Document, input.Specialty, input.Phone, input.Email); err != nil {
		log.Warn("doctor rejected", "error_kind", ErrorKind(err))
		return nil, err
	}

	// Friendly pre-check; the UNIQUE constraint still decides under races.
	if _, err := s.doctors.GetByDocument(ctx, strings.TrimSpace(input.Document)); err == nil {
		log.Warn("doctor rejected", "error_kind", ErrorKind(ErrDuplicate))
		return nil, &DuplicateError{Field: "document"}
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return nil, mapRecordRepoError(err)
	}

	doctor := &persistence.Doctor{
		Name:      strings.TrimSpace(input.Name),
		Document:  strings.TrimSpace(input.Document),
		Specialty: strings.TrimSpace(input.Specialty),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     strings.TrimSpace(input.Email),
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, mapRecordRepoError(err)
	}

	log.Info("doctor created", "doctor_id", doctor.ID)
	return doctor, nil
}

// Get retrieves one doctor.
func (s *DoctorService) Get(ctx context.Context, id int64) (*persistence.Doctor, error) {
	doctor, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, mapRecordRepoError(err)
	}
	return doctor, nil
}

// GetByDocument retrieves one doctor by identity document.
func (s *DoctorService) GetByDocument(ctx context.Context, document string) (*persistence.Doctor, error) {
	doctor, err := s.doctors.GetByDocument(ctx, strings.TrimSpace(document))
	if err != nil {
		return nil, mapRecordRepoError(err)
	}
	return doctor, nil
}

// List returns all doctors, optionally narrowed to one specialty.
func (s *DoctorService) List(ctx context.Context, specialty string) ([]*persistence.Doctor, error) {
	var doctors []*persistence.Doctor
	var err error
	if specialty = strings.TrimSpace(specialty); specialty != "" {
		doctors, err = s.doctors.ListBySpecialty(ctx, specialty)
	} else {
		doctors, err = s.doctors.List(ctx)
	}
	if err != nil {
		return nil, mapRecordRepoError(err)
	}
	return doctors, nil
}

// Search returns doctors whose name, document or specialty contains the
// term.
func (s *DoctorService) Search(ctx context.Context, term string) ([]*persistence.Doctor, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx, "")
	}
	doctors, err := s.doctors.Search(ctx, term)
	if err != nil {
		return nil, mapRecordRepoError(err)
	}
	return doctors, nil
}

// Specialties returns the distinct specialty labels in use.
func (s *DoctorService) Specialties(ctx context.Context) ([]string, error) {
	specialties, err := s.doctors.Specialties(ctx)
	if err != nil {
		return nil, mapRecordRepoError(err)
	}
	return specialties, nil
}

// Update rewrites a doctor's fields. Document and email uniqueness are
// re-checked only when the value actually changes, excluding the
// doctor's own row.
func (s *DoctorService) Update(ctx context.Context, id int64, input UpdateDoctorInput) (*persistence.Doctor, error) {
	log := serviceLogger(ctx, s.logger, "doctors", "update", "doctor_id", id)

	if err := validation.ValidateID(id); err != nil {
		vErr := &ValidationError{}
		vErr.add("id", err.Error())
		return nil, vErr
	}
	if err := validateDoctorInput(input.Name, input.Document, input.Specialty, input.Phone, input.Email); err != nil {
		log.Warn("update rejected", "error_kind", ErrorKind(err))
		return nil, err
	}

	existing, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, mapRecordRepoError(err)
	}

	document := strings.TrimSpace(input.Document)
	if document != existing.Document {
		if err := s.checkDoctorDocumentFree(ctx, document, id); err != nil {
			log.Warn("update rejected", "error_kind", ErrorKind(err))
			return nil, err
		}
	}
	email := strings.TrimSpace(input.Email)
	if !strings.EqualFold(email, existing.Email) {
		if err := s.checkDoctorEmailFree(ctx, email, id); err != nil {
			log.Warn("update rejected", "error_kind", ErrorKind(err))
			return nil, err
		}
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Document = document
	existing.Specialty = strings.TrimSpace(input.Specialty)
	existing.Phone = strings.TrimSpace(input.Phone)
	existing.Email = email

	if err := s.doctors.Update(ctx, existing); err != nil {
		return nil, mapRecordRepoError(err)
	}

	log.Info("doctor updated")
	return existing, nil
}

// Delete removes a doctor. A doctor still holding a scheduled booking
// dated today or later is kept; older history is removed with the record.
func (s *DoctorService) Delete(ctx context.Context, id int64) error {
	log := serviceLogger(ctx, s.logger, "doctors", "delete", "doctor_id", id)

	count, err := s.appointments.CountUpcomingByDoctor(ctx, id, s.now().UTC())
	if err != nil {
		return mapRecordRepoError(err)
	}
	if count > 0 {
		log.Warn("delete rejected", "error_kind", ErrorKind(ErrResourceInUse), "bookings", count)
		return ErrResourceInUse
	}

	if err := s.doctors.Delete(ctx, id); err != nil {
		return mapRecordRepoError(err)
	}

	log.Info("doctor deleted")
	return nil
}

func (s *DoctorService) checkDoctorDocumentFree(ctx context.Context, document string, ownID int64) error {
	other, err := s.doctors.GetByDocument(ctx, document)
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

func (s *DoctorService) checkDoctorEmailFree(ctx context.Context, email string, ownID int64) error {
	other, err := s.doctors.GetByEmail(ctx, email)
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

func validateDoctorInput(name, document, specialty, phone, email string) error {
	vErr := &ValidationError{}
	vErr.addIf("name", validation.ValidateName(name))
	vErr.addIf("document", validation.ValidateDocument(document))
	vErr.addIf("specialty", validation.ValidateSpecialty(specialty))
	vErr.addIf("phone", validation.ValidatePhone(phone))
	vErr.addIf("email", validation.ValidateEmail(email))
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
