package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/scheduler"
	"github.com/example/clinic-scheduler/internal/validation"
)

// Notifier delivers booking confirmations. Delivery runs after the booking
// is committed and its outcome never affects the scheduling operation. The
// return value reports whether the confirmation actually went out.
type Notifier interface {
	AppointmentScheduled(ctx context.Context, confirmation Confirmation) bool
}

// AppointmentService orchestrates validation, conflict detection and
// persistence for booking operations.
type AppointmentService struct {
	appointments persistence.AppointmentRepository
	patients     persistence.PatientRepository
	doctors      persistence.DoctorRepository
	notifier     Notifier
	logger       *slog.Logger
	now          func() time.Time
}

// NewAppointmentService wires dependencies for booking operations. A nil
// notifier disables confirmations and a nil now falls back to time.Now.
func NewAppointmentService(
	appointments persistence.AppointmentRepository,
	patients persistence.PatientRepository,
	doctors persistence.DoctorRepository,
	notifier Notifier,
	logger *slog.Logger,
	now func() time.Time,
) *AppointmentService {
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{
		appointments: appointments,
		patients:     patients,
		doctors:      doctors,
		notifier:     notifier,
		logger:       logger,
		now:          now,
	}
}

// Create books a slot after validating the input, confirming both parties
// exist and checking both calendars for collisions. The storage layer's
// uniqueness constraints re-check the slot on insert, so two racing
// requests for the same slot cannot both succeed.
func (s *AppointmentService) Create(ctx context.Context, input CreateAppointmentInput) (*persistence.Appointment, error) {
	log := serviceLogger(ctx, s.logger, "appointments", "create",
		"patient_id", input.PatientID, "doctor_id", input.DoctorID)

	if err := s.validateAppointmentInput(input.PatientID, input.DoctorID, input.Date, input.Time, input.Notes); err != nil {
		log.Warn("booking rejected", "error_kind", ErrorKind(err))
		return nil, err
	}

	slot := scheduler.NewSlot(input.Date, input.Time)

	// A booking for today must still lie ahead of the clock. Date and
	// time pass their field checks independently, so only the combined
	// instant can catch a same-day slot that already went by.
	if !slot.At().After(s.now().UTC()) {
		vErr := &ValidationError{}
		vErr.add("time", "appointment must be in the future")
		log.Warn("booking rejected", "error_kind", ErrorKind(vErr))
		return nil, vErr
	}

	patient, err := s.patients.GetByID(ctx, input.PatientID)
	if err != nil {
		return nil, mapPartyError(err, "patient")
	}
	doctor, err := s.doctors.GetByID(ctx, input.DoctorID)
	if err != nil {
		return nil, mapPartyError(err, "doctor")
	}

	if err := s.checkSlotFree(ctx, slot, input.DoctorID, input.PatientID, 0); err != nil {
		log.Warn("booking rejected", "error_kind", ErrorKind(err))
		return nil, err
	}

	appointment := &persistence.Appointment{
		PatientID: input.PatientID,
		DoctorID:  input.DoctorID,
		Date:      slot.Date,
		Time:      slot.Time,
		Status:    scheduler.StatusScheduled,
		Notes:     strings.TrimSpace(input.Notes),
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, mapAppointmentRepoError(err)
	}

	log.Info("booking created", "appointment_id", appointment.ID,
		"date", slot.Date.Format("2006-01-02"), "time", slot.Time.String())

	s.sendConfirmation(appointment, patient, doctor)

	return appointment, nil
}

// Update rewrites a booking. Calendars are re-checked only for a party
// whose slot actually changes, and the booking's own row is excluded so
// keeping the same slot never collides with itself.
func (s *AppointmentService) Update(ctx context.Context, id int64, input UpdateAppointmentInput) (*persistence.Appointment, error) {
	log := serviceLogger(ctx, s.logger, "appointments", "update", "appointment_id", id)

	if err := validation.ValidateID(id); err != nil {
		vErr := &ValidationError{}
		vErr.add("id", err.Error())
		return nil, vErr
	}

	existing, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}

	if err := s.validateAppointmentInput(input.PatientID, input.DoctorID, input.Date, input.Time, input.Notes); err != nil {
		log.Warn("update rejected", "error_kind", ErrorKind(err))
		return nil, err
	}

	slot := scheduler.NewSlot(input.Date, input.Time)
	slotChanged := !slot.Equal(existing.Slot())

	if _, err := s.patients.GetByID(ctx, input.PatientID); err != nil {
		return nil, mapPartyError(err, "patient")
	}
	if _, err := s.doctors.GetByID(ctx, input.DoctorID); err != nil {
		return nil, mapPartyError(err, "doctor")
	}

	checkDoctor := slotChanged || input.DoctorID != existing.DoctorID
	checkPatient := slotChanged || input.PatientID != existing.PatientID
	if checkDoctor || checkPatient {
		doctorID, patientID := input.DoctorID, input.PatientID
		if !checkDoctor {
			doctorID = 0
		}
		if !checkPatient {
			patientID = 0
		}
		if err := s.checkSlotFree(ctx, slot, doctorID, patientID, id); err != nil {
			log.Warn("update rejected", "error_kind", ErrorKind(err))
			return nil, err
		}
	}

	updated := *existing
	updated.PatientID = input.PatientID
	updated.DoctorID = input.DoctorID
	updated.Date = slot.Date
	updated.Time = slot.Time
	updated.Notes = strings.TrimSpace(input.Notes)

	if err := s.appointments.Update(ctx, &updated); err != nil {
		return nil, mapAppointmentRepoError(err)
	}

	log.Info("booking updated", "date", slot.Date.Format("2006-01-02"), "time", slot.Time.String())
	return &updated, nil
}

// Cancel releases a booking's slot. It reports false without error when
// the booking does not exist.
func (s *AppointmentService) Cancel(ctx context.Context, id int64) (bool, error) {
	return s.transition(ctx, id, scheduler.EventCancel)
}

// MarkAttended records that the patient showed up. It reports false
// without error when the booking does not exist.
func (s *AppointmentService) MarkAttended(ctx context.Context, id int64) (bool, error) {
	return s.transition(ctx, id, scheduler.EventMarkAttended)
}

func (s *AppointmentService) transition(ctx context.Context, id int64, event scheduler.Event) (bool, error) {
	log := serviceLogger(ctx, s.logger, "appointments", string(event), "appointment_id", id)

	existing, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, mapAppointmentRepoError(err)
	}

	next, err := scheduler.Transition(existing.Status, event)
	if err != nil {
		log.Warn("transition rejected", "from", string(existing.Status), "error_kind", ErrorKind(err))
		return false, err
	}

	if err := s.appointments.UpdateStatus(ctx, id, next); err != nil {
		return false, mapAppointmentRepoError(err)
	}

	log.Info("status changed", "from", string(existing.Status), "to", string(next))
	return true, nil
}

// Delete removes a booking permanently. A booking still scheduled for a
// future slot must be cancelled first, so history cannot silently lose an
// upcoming commitment. It reports false without error when the booking
// does not exist.
func (s *AppointmentService) Delete(ctx context.Context, id int64) (bool, error) {
	log := serviceLogger(ctx, s.logger, "appointments", "delete", "appointment_id", id)

	existing, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, mapAppointmentRepoError(err)
	}

	if existing.Status == scheduler.StatusScheduled && existing.Slot().At().After(s.now().UTC()) {
		log.Warn("delete rejected", "error_kind", ErrorKind(ErrDeleteNotAllowed))
		return false, ErrDeleteNotAllowed
	}

	if err := s.appointments.Delete(ctx, id); err != nil {
		return false, mapAppointmentRepoError(err)
	}

	log.Info("booking deleted")
	return true, nil
}

// Get retrieves one booking.
func (s *AppointmentService) Get(ctx context.Context, id int64) (*persistence.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}
	return appointment, nil
}

// List returns bookings matching the filter.
func (s *AppointmentService) List(ctx context.Context, filter persistence.AppointmentFilter) ([]*persistence.Appointment, error) {
	appointments, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}
	return appointments, nil
}

// Statistics aggregates booking counts per lifecycle state.
func (s *AppointmentService) Statistics(ctx context.Context) (*persistence.Statistics, error) {
	stats, err := s.appointments.Stats(ctx)
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}
	return stats, nil
}

func (s *AppointmentService) validateAppointmentInput(patientID, doctorID int64, date time.Time, clock scheduler.TimeOfDay, notes string) error {
	vErr := &ValidationError{}
	vErr.addIf("patient_id", validation.ValidateID(patientID))
	vErr.addIf("doctor_id", validation.ValidateID(doctorID))
	vErr.addIf("date", validation.ValidateAppointmentDate(date, s.now()))
	vErr.addIf("time", validation.ValidateAppointmentTime(clock))
	vErr.addIf("notes", validation.ValidateNotes(notes))
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// checkSlotFree inspects the slot's active bookings for either party.
// Passing a zero doctorID or patientID skips that party's calendar.
func (s *AppointmentService) checkSlotFree(ctx context.Context, slot scheduler.Slot, doctorID, patientID, excludeID int64) error {
	occupants, err := s.appointments.FindActiveAt(ctx, slot)
	if err != nil {
		return mapAppointmentRepoError(err)
	}

	bookings := make([]scheduler.Booking, 0, len(occupants))
	for _, occupant := range occupants {
		bookings = append(bookings, occupant.Booking())
	}

	if doctorID != 0 && scheduler.HasConflict(bookings, scheduler.ResourceDoctor, doctorID, slot, excludeID) {
		return &ConflictError{Party: "doctor"}
	}
	if patientID != 0 && scheduler.HasConflict(bookings, scheduler.ResourcePatient, patientID, slot, excludeID) {
		return &ConflictError{Party: "patient"}
	}
	return nil
}

// sendConfirmation hands the booking to the notifier on a fresh goroutine
// with its own deadline, detached from the request context.
func (s *AppointmentService) sendConfirmation(appointment *persistence.Appointment, patient *persistence.Patient, doctor *persistence.Doctor) {
	if s.notifier == nil {
		return
	}

	confirmation := Confirmation{
		AppointmentID: appointment.ID,
		PatientName:   patient.Name,
		PatientEmail:  patient.Email,
		DoctorName:    doctor.Name,
		Specialty:     doctor.Specialty,
		Date:          appointment.Date,
		Time:          appointment.Time,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		defer func() {
			// A notifier failure of any kind must never reach the caller;
			// the booking is already committed.
			if p := recover(); p != nil {
				serviceLogger(ctx, s.logger, "appointments", "notify").Error(
					"notifier panicked", "appointment_id", confirmation.AppointmentID, "panic", p)
			}
		}()
		if !s.notifier.AppointmentScheduled(ctx, confirmation) {
			serviceLogger(ctx, s.logger, "appointments", "notify").Warn(
				"confirmation not delivered", "appointment_id", confirmation.AppointmentID)
		}
	}()
}

func mapPartyError(err error, party string) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, party)
	}
	return mapAppointmentRepoError(err)
}

// mapAppointmentRepoError translates persistence sentinels into the
// application vocabulary.
func mapAppointmentRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDoctorSlotTaken):
		return &ConflictError{Party: "doctor"}
	case errors.Is(err, persistence.ErrPatientSlotTaken):
		return &ConflictError{Party: "patient"}
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrResourceInUse
	default:
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
}
