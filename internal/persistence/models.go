package persistence

import (
	"time"

	"github.com/example/clinic-scheduler/internal/scheduler"
)

// Patient is a stored patient record. The identifier is assigned by the
// database on insert.
type Patient struct {
	ID        int64
	Name      string
	Document  string
	Age       int
	Phone     string
	Email     string
	CreatedAt time.Time
}

// Doctor is a stored clinician record.
type Doctor struct {
	ID        int64
	Name      string
	Document  string
	Specialty string
	Phone     string
	Email     string
	CreatedAt time.Time
}

// Appointment is a stored booking occupying one exact slot for one patient
// and one doctor.
type Appointment struct {
	ID        int64
	PatientID int64
	DoctorID  int64
	Date      time.Time
	Time      scheduler.TimeOfDay
	Status    scheduler.Status
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Slot returns the slot the appointment occupies.
func (a Appointment) Slot() scheduler.Slot {
	return scheduler.NewSlot(a.Date, a.Time)
}

// Booking converts the stored row into the form the conflict detector
// operates on.
func (a Appointment) Booking() scheduler.Booking {
	return scheduler.Booking{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Slot:      a.Slot(),
		Status:    a.Status,
	}
}

// Delivery outcomes for confirmation messages.
const (
	DeliveryNotSent = "not_sent"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// DeliveryLog records one attempt to deliver a confirmation message for an
// appointment. A row is written before the attempt and updated with the
// outcome afterwards, so a crash mid-send leaves an auditable not_sent row.
type DeliveryLog struct {
	ID            int64
	MessageID     string
	AppointmentID int64
	Recipient     string
	Subject       string
	Body          string
	Outcome       string
	Detail        string
	CreatedAt     time.Time
	SentAt        *time.Time
}
