package persistence

import (
	"context"
	"time"

	"github.com/example/clinic-scheduler/internal/scheduler"
)

// PatientRepository persists patient records. Delete removes the
// patient's remaining appointment history along with the record.
type PatientRepository interface {
	Create(ctx context.Context, patient *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	GetByDocument(ctx context.Context, document string) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	Search(ctx context.Context, term string) ([]*Patient, error)
	Update(ctx context.Context, patient *Patient) error
	Delete(ctx context.Context, id int64) error
}

// DoctorRepository persists clinician records. Delete removes the
// doctor's remaining appointment history along with the record.
type DoctorRepository interface {
	Create(ctx context.Context, doctor *Doctor) error
	GetByID(ctx context.Context, id int64) (*Doctor, error)
	GetByDocument(ctx context.Context, document string) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	ListBySpecialty(ctx context.Context, specialty string) ([]*Doctor, error)
	Specialties(ctx context.Context) ([]string, error)
	Search(ctx context.Context, term string) ([]*Doctor, error)
	Update(ctx context.Context, doctor *Doctor) error
	Delete(ctx context.Context, id int64) error
}

// AppointmentFilter narrows List queries. Zero-valued fields are ignored.
type AppointmentFilter struct {
	PatientID  int64
	DoctorID   int64
	Date       time.Time
	From       time.Time
	To         time.Time
	Status     scheduler.Status
	ActiveOnly bool
}

// Statistics aggregates booking counts per lifecycle state.
type Statistics struct {
	Total     int
	Scheduled int
	Attended  int
	Cancelled int
}

// AppointmentRepository persists bookings. Create and Update surface
// ErrDoctorSlotTaken or ErrPatientSlotTaken when the slot uniqueness
// constraints reject the write, which closes the check-then-insert race.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	List(ctx context.Context, filter AppointmentFilter) ([]*Appointment, error)
	FindActiveAt(ctx context.Context, slot scheduler.Slot) ([]*Appointment, error)
	Update(ctx context.Context, appointment *Appointment) error
	UpdateStatus(ctx context.Context, id int64, status scheduler.Status) error
	Delete(ctx context.Context, id int64) error
	CountUpcomingByPatient(ctx context.Context, patientID int64, from time.Time) (int, error)
	CountUpcomingByDoctor(ctx context.Context, doctorID int64, from time.Time) (int, error)
	Stats(ctx context.Context) (*Statistics, error)
}

// DeliveryLogRepository records confirmation delivery attempts.
type DeliveryLogRepository interface {
	Create(ctx context.Context, entry *DeliveryLog) error
	MarkOutcome(ctx context.Context, id int64, outcome, detail string, sentAt time.Time) error
	ListByAppointment(ctx context.Context, appointmentID int64) ([]*DeliveryLog, error)
	ListByOutcome(ctx context.Context, outcome string, limit int) ([]*DeliveryLog, error)
	List(ctx context.Context, limit int) ([]*DeliveryLog, error)
}
