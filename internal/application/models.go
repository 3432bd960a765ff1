package application

import (
	"time"

	"github.com/example/clinic-scheduler/internal/scheduler"
)

// CreateAppointmentInput carries the fields needed to book a slot.
type CreateAppointmentInput struct {
	PatientID int64
	DoctorID  int64
	Date      time.Time
	Time      scheduler.TimeOfDay
	Notes     string
}

// UpdateAppointmentInput carries the fields a booking update may change.
// The identifier is supplied separately by the caller.
type UpdateAppointmentInput struct {
	PatientID int64
	DoctorID  int64
	Date      time.Time
	Time      scheduler.TimeOfDay
	Notes     string
}

// CreatePatientInput carries the fields needed to register a patient.
type CreatePatientInput struct {
	Name     string
	Document string
	Age      int
	Phone    string
	Email    string
}

// UpdatePatientInput carries the fields a patient update may change.
type UpdatePatientInput struct {
	Name     string
	Document string
	Age      int
	Phone    string
	Email    string
}

// CreateDoctorInput carries the fields needed to register a doctor.
type CreateDoctorInput struct {
	Name      string
	Document  string
	Specialty string
	Phone     string
	Email     string
}

// UpdateDoctorInput carries the fields a doctor update may change.
type UpdateDoctorInput struct {
	Name      string
	Document  string
	Specialty string
	Phone     string
	Email     string
}

// Confirmation carries everything the notifier needs to compose a booking
// confirmation without further lookups.
type Confirmation struct {
	AppointmentID int64
	PatientName   string
	PatientEmail  string
	DoctorName    string
	Specialty     string
	Date          time.Time
	Time          scheduler.TimeOfDay
}
