// Package testfixtures provides deterministic records and a controllable
// clock for tests across the scheduling packages.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/scheduler"
)

var (
	patientCounter     uint64
	doctorCounter      uint64
	appointmentCounter uint64
)

var referenceTime = time.Date(2026, time.August, 31, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// PatientOption configures the generated patient fixture.
type PatientOption func(*persistence.Patient)

// NewPatient returns a deterministic patient record with optional overrides.
func NewPatient(opts ...PatientOption) *persistence.Patient {
	idx := atomic.AddUint64(&patientCounter, 1)
	patient := &persistence.Patient{
		ID:        int64(idx),
		Name:      fmt.Sprintf("Paciente Prueba %03d", idx),
		Document:  fmt.Sprintf("10020%04d", idx),
		Age:       30 + int(idx%40),
		Phone:     fmt.Sprintf("30012%05d", idx),
		Email:     fmt.Sprintf("paciente%03d@example.com", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(patient)
	}
	return patient
}

// WithPatientDocument overrides the generated identity document.
func WithPatientDocument(document string) PatientOption {
	return func(p *persistence.Patient) {
		p.Document = document
	}
}

// WithPatientEmail overrides the generated email address.
func WithPatientEmail(email string) PatientOption {
	return func(p *persistence.Patient) {
		p.Email = email
	}
}

// DoctorOption configures the generated doctor fixture.
type DoctorOption func(*persistence.Doctor)

// NewDoctor returns a deterministic doctor record with optional overrides.
func NewDoctor(opts ...DoctorOption) *persistence.Doctor {
	idx := atomic.AddUint64(&doctorCounter, 1)
	doctor := &persistence.Doctor{
		ID:        int64(idx),
		Name:      fmt.Sprintf("Doctora Prueba %03d", idx),
		Document:  fmt.Sprintf("20030%04d", idx),
		Specialty: "Medicina General",
		Phone:     fmt.Sprintf("30198%05d", idx),
		Email:     fmt.Sprintf("doctora%03d@example.com", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(doctor)
	}
	return doctor
}

// WithSpecialty overrides the generated specialty.
func WithSpecialty(specialty string) DoctorOption {
	return func(d *persistence.Doctor) {
		d.Specialty = specialty
	}
}

// WithDoctorDocument overrides the generated identity document.
func WithDoctorDocument(document string) DoctorOption {
	return func(d *persistence.Doctor) {
		d.Document = document
	}
}

// AppointmentOption configures the generated appointment fixture.
type AppointmentOption func(*persistence.Appointment)

// NewAppointment returns a deterministic scheduled booking ten days past
// the reference time, with optional overrides.
func NewAppointment(opts ...AppointmentOption) *persistence.Appointment {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	appointment := &persistence.Appointment{
		ID:        int64(idx),
		PatientID: 1,
		DoctorID:  1,
		Date:      scheduler.DateOf(referenceTime.AddDate(0, 0, 10)),
		Time:      scheduler.TimeOfDay(9*60) + scheduler.TimeOfDay(idx%12)*30,
		Status:    scheduler.StatusScheduled,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(appointment)
	}
	return appointment
}

// WithSlot places the booking at the given date and time.
func WithSlot(date time.Time, clock scheduler.TimeOfDay) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.Date = scheduler.DateOf(date)
		a.Time = clock
	}
}

// WithStatus overrides the lifecycle state.
func WithStatus(status scheduler.Status) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.Status = status
	}
}

// WithParties assigns the patient and doctor.
func WithParties(patientID, doctorID int64) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.PatientID = patientID
		a.DoctorID = doctorID
	}
}
