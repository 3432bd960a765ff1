package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/scheduler"
)

// AppointmentRepository implements persistence.AppointmentRepository using
// SQLite. The partial unique indexes on (doctor_id, date, time) and
// (patient_id, date, time) make the database the final authority on slot
// occupancy, so concurrent writers cannot double-book.
type AppointmentRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewAppointmentRepository creates a SQLite appointment repository.
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

const appointmentColumns = "id, patient_id, doctor_id, date, time, status, notes, created_at, updated_at"

const dateLayout = "2006-01-02"

// Create inserts a booking and fills in the assigned identifier. A slot
// collision surfaces as ErrDoctorSlotTaken or ErrPatientSlotTaken.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *persistence.Appointment) error {
	now := time.Now().UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	return r.retry.WithRetry(ctx, func() error {
		result, err := r.helper.Exec(ctx, `
			INSERT INTO appointments (patient_id, doctor_id, date, time, status, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			appointment.PatientID,
			appointment.DoctorID,
			scheduler.DateOf(appointment.Date).Format(dateLayout),
			appointment.Time.String(),
			string(appointment.Status),
			appointment.Notes,
			appointment.CreatedAt.Format(time.RFC3339),
			appointment.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return r.mapAppointmentError(err)
		}

		appointment.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted id: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a booking by identifier.
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*persistence.Appointment, error) {
	row := r.helper.QueryRow(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id = ?", id)

	appointment, err := scanAppointment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, r.mapper.MapError(err)
	}
	return appointment, nil
}

// List returns bookings matching the filter, ordered by date then time.
func (r *AppointmentRepository) List(ctx context.Context, filter persistence.AppointmentFilter) ([]*persistence.Appointment, error) {
	query := "SELECT " + appointmentColumns + " FROM appointments WHERE 1=1"
	var args []any

	if filter.PatientID != 0 {
		query += " AND patient_id = ?"
		args = append(args, filter.PatientID)
	}
	if filter.DoctorID != 0 {
		query += " AND doctor_id = ?"
		args = append(args, filter.DoctorID)
	}
	if !filter.Date.IsZero() {
		query += " AND date = ?"
		args = append(args, scheduler.DateOf(filter.Date).Format(dateLayout))
	}
	if !filter.From.IsZero() {
		query += " AND date >= ?"
		args = append(args, scheduler.DateOf(filter.From).Format(dateLayout))
	}
	if !filter.To.IsZero() {
		query += " AND date <= ?"
		args = append(args, scheduler.DateOf(filter.To).Format(dateLayout))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.ActiveOnly {
		query += " AND status != ?"
		args = append(args, string(scheduler.StatusCancelled))
	}
	query += " ORDER BY date ASC, time ASC, id ASC"

	return r.list(ctx, query, args...)
}

// FindActiveAt returns the non-cancelled bookings occupying the slot.
func (r *AppointmentRepository) FindActiveAt(ctx context.Context, slot scheduler.Slot) ([]*persistence.Appointment, error) {
	return r.list(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE date = ? AND time = ? AND status != ? ORDER BY id ASC",
		slot.Date.Format(dateLayout),
		slot.Time.String(),
		string(scheduler.StatusCancelled),
	)
}

// Update rewrites a booking's mutable fields.
func (r *AppointmentRepository) Update(ctx context.Context, appointment *persistence.Appointment) error {
	appointment.UpdatedAt = time.Now().UTC()

	return r.retry.WithRetry(ctx, func() error {
		result, err := r.helper.Exec(ctx, `
			UPDATE appointments
			SET patient_id = ?, doctor_id = ?, date = ?, time = ?, status = ?, notes = ?, updated_at = ?
			WHERE id = ?`,
			appointment.PatientID,
			appointment.DoctorID,
			scheduler.DateOf(appointment.Date).Format(dateLayout),
			appointment.Time.String(),
			string(appointment.Status),
			appointment.Notes,
			appointment.UpdatedAt.Format(time.RFC3339),
			appointment.ID,
		)
		if err != nil {
			return r.mapAppointmentError(err)
		}
		return requireRowAffected(result)
	})
}

// UpdateStatus sets only the lifecycle state of a booking.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status scheduler.Status) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.helper.Exec(ctx,
			"UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?",
			string(status),
			time.Now().UTC().Format(time.RFC3339),
			id,
		)
		if err != nil {
			return r.mapAppointmentError(err)
		}
		return requireRowAffected(result)
	})
}

// Delete removes a booking by identifier.
func (r *AppointmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.helper.Exec(ctx, "DELETE FROM appointments WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowAffected(result)
}

// CountUpcomingByPatient returns the number of scheduled bookings for a
// patient dated on or after the given day.
func (r *AppointmentRepository) CountUpcomingByPatient(ctx context.Context, patientID int64, from time.Time) (int, error) {
	return r.count(ctx,
		"SELECT COUNT(*) FROM appointments WHERE patient_id = ? AND status = ? AND date >= ?",
		patientID, string(scheduler.StatusScheduled), scheduler.DateOf(from).Format(dateLayout))
}

// CountUpcomingByDoctor returns the number of scheduled bookings for a
// doctor dated on or after the given day.
func (r *AppointmentRepository) CountUpcomingByDoctor(ctx context.Context, doctorID int64, from time.Time) (int, error) {
	return r.count(ctx,
		"SELECT COUNT(*) FROM appointments WHERE doctor_id = ? AND status = ? AND date >= ?",
		doctorID, string(scheduler.StatusScheduled), scheduler.DateOf(from).Format(dateLayout))
}

// Stats aggregates booking counts per lifecycle state.
func (r *AppointmentRepository) Stats(ctx context.Context) (*persistence.Statistics, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT status, COUNT(*) FROM appointments GROUP BY status")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var stats persistence.Statistics
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, r.mapper.MapError(err)
		}
		stats.Total += count
		switch scheduler.Status(status) {
		case scheduler.StatusScheduled:
			stats.Scheduled = count
		case scheduler.StatusAttended:
			stats.Attended = count
		case scheduler.StatusCancelled:
			stats.Cancelled = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return &stats, nil
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]*persistence.Appointment, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var appointments []*persistence.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var count int
	if err := r.helper.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// mapAppointmentError resolves which party's slot index rejected a write.
// The driver reports failed unique indexes by their column list.
func (r *AppointmentRepository) mapAppointmentError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
		if containsAny(errStr, []string{"appointments.doctor_id"}) {
			return persistence.ErrDoctorSlotTaken
		}
		if containsAny(errStr, []string{"appointments.patient_id"}) {
			return persistence.ErrPatientSlotTaken
		}
		return persistence.ErrDuplicate
	}

	return r.mapper.MapError(err)
}

func scanAppointment(scan func(dest ...any) error) (*persistence.Appointment, error) {
	var appointment persistence.Appointment
	var date, clock, status, createdAt, updatedAt string

	err := scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.DoctorID,
		&date,
		&clock,
		&status,
		&appointment.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if appointment.Date, err = time.ParseInLocation(dateLayout, date, time.UTC); err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	if appointment.Time, err = scheduler.ParseTimeOfDay(clock); err != nil {
		return nil, fmt.Errorf("failed to parse time: %w", err)
	}
	appointment.Status = scheduler.Status(status)
	if appointment.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if appointment.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &appointment, nil
}
