package http

import (
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

const requestDateLayout = "02/01/2006"

type patientRequest struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Age      int    `json:"age"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

type patientDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Document  string `json:"document"`
	Age       int    `json:"age"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func toPatientDTO(patient *persistence.Patient) patientDTO {
	return patientDTO{
		ID:        patient.ID,
		Name:      patient.Name,
		Document:  patient.Document,
		Age:       patient.Age,
		Phone:     patient.Phone,
		Email:     patient.Email,
		CreatedAt: patient.CreatedAt.Format(time.RFC3339),
	}
}

func toPatientDTOs(patients []*persistence.Patient) []patientDTO {
	out := make([]patientDTO, 0, len(patients))
	for _, patient := range patients {
		out = append(out, toPatientDTO(patient))
	}
	return out
}

type doctorRequest struct {
	Name      string `json:"name"`
	Document  string `json:"document"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type doctorDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Document  string `json:"document"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func toDoctorDTO(doctor *persistence.Doctor) doctorDTO {
	return doctorDTO{
		ID:        doctor.ID,
		Name:      doctor.Name,
		Document:  doctor.Document,
		Specialty: doctor.Specialty,
		Phone:     doctor.Phone,
		Email:     doctor.Email,
		CreatedAt: doctor.CreatedAt.Format(time.RFC3339),
	}
}

func toDoctorDTOs(doctors []*persistence.Doctor) []doctorDTO {
	out := make([]doctorDTO, 0, len(doctors))
	for _, doctor := range doctors {
		out = append(out, toDoctorDTO(doctor))
	}
	return out
}

type appointmentRequest struct {
	PatientID int64  `json:"patient_id"`
	DoctorID  int64  `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Notes     string `json:"notes"`
}

type appointmentDTO struct {
	ID        int64  `json:"id"`
	PatientID int64  `json:"patient_id"`
	DoctorID  int64  `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toAppointmentDTO(appointment *persistence.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:        appointment.ID,
		PatientID: appointment.PatientID,
		DoctorID:  appointment.DoctorID,
		Date:      appointment.Date.Format(requestDateLayout),
		Time:      appointment.Time.String(),
		Status:    string(appointment.Status),
		Notes:     appointment.Notes,
		CreatedAt: appointment.CreatedAt.Format(time.RFC3339),
		UpdatedAt: appointment.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppointmentDTOs(appointments []*persistence.Appointment) []appointmentDTO {
	out := make([]appointmentDTO, 0, len(appointments))
	for _, appointment := range appointments {
		out = append(out, toAppointmentDTO(appointment))
	}
	return out
}

type statisticsDTO struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Attended  int `json:"attended"`
	Cancelled int `json:"cancelled"`
}

type deliveryDTO struct {
	ID            int64  `json:"id"`
	MessageID     string `json:"message_id"`
	AppointmentID int64  `json:"appointment_id"`
	Recipient     string `json:"recipient"`
	Subject       string `json:"subject"`
	Outcome       string `json:"outcome"`
	Detail        string `json:"detail,omitempty"`
	CreatedAt     string `json:"created_at"`
	SentAt        string `json:"sent_at,omitempty"`
}

func toDeliveryDTOs(entries []*persistence.DeliveryLog) []deliveryDTO {
	out := make([]deliveryDTO, 0, len(entries))
	for _, entry := range entries {
		dto := deliveryDTO{
			ID:            entry.ID,
			MessageID:     entry.MessageID,
			AppointmentID: entry.AppointmentID,
			Recipient:     entry.Recipient,
			Subject:       entry.Subject,
			Outcome:       entry.Outcome,
			Detail:        entry.Detail,
			CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
		}
		if entry.SentAt != nil {
			dto.SentAt = entry.SentAt.Format(time.RFC3339)
		}
		out = append(out, dto)
	}
	return out
}
