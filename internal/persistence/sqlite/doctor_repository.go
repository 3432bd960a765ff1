package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// DoctorRepository implements persistence.DoctorRepository using SQLite.
type DoctorRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewDoctorRepository creates a SQLite doctor repository.
func NewDoctorRepository(pool *ConnectionPool) *DoctorRepository {
	return &DoctorRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const doctorColumns = "id, name, document, specialty, phone, email, created_at"

// Create inserts a doctor and fills in the assigned identifier.
func (r *DoctorRepository) Create(ctx context.Context, doctor *persistence.Doctor) error {
	doctor.CreatedAt = time.Now().UTC()
	doctor.Email = normalizeEmail(doctor.Email)

	result, err := r.helper.Exec(ctx, `
		INSERT INTO doctors (name, document, specialty, phone, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		doctor.Name,
		doctor.Document,
		doctor.Specialty,
		doctor.Phone,
		doctor.Email,
		doctor.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	doctor.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	return nil
}

// GetByID retrieves a doctor by identifier.
func (r *DoctorRepository) GetByID(ctx context.Context, id int64) (*persistence.Doctor, error) {
	row := r.helper.QueryRow(ctx,
		"SELECT "+doctorColumns+" FROM doctors WHERE id = ?", id)
	return r.scanDoctor(row)
}

// GetByDocument retrieves a doctor by identity document.
func (r *DoctorRepository) GetByDocument(ctx context.Context, document string) (*persistence.Doctor, error) {
	row := r.helper.QueryRow(ctx,
		"SELECT "+doctorColumns+" FROM doctors WHERE document = ?", document)
	return r.scanDoctor(row)
}

// GetByEmail retrieves a doctor by email address.
func (r *DoctorRepository) GetByEmail(ctx context.Context, email string) (*persistence.Doctor, error) {
	row := r.helper.QueryRow(ctx,
		"SELECT "+doctorColumns+" FROM doctors WHERE email = ?", normalizeEmail(email))
	return r.scanDoctor(row)
}

// List returns all doctors ordered by name.
func (r *DoctorRepository) List(ctx context.Context) ([]*persistence.Doctor, error) {
	return r.list(ctx,
		"SELECT "+doctorColumns+" FROM doctors ORDER BY name ASC, id ASC")
}

// Search returns doctors whose name, document or specialty contains the
// term, matched case-insensitively and ordered by name.
func (r *DoctorRepository) Search(ctx context.Context, term string) ([]*persistence.Doctor, error) {
	pattern := "%" + escapeLike(term) + "%"
	return r.list(ctx,
		"SELECT "+doctorColumns+" FROM doctors WHERE name LIKE ? ESCAPE '\\' COLLATE NOCASE OR document LIKE ? ESCAPE '\\' OR specialty LIKE ? ESCAPE '\\' COLLATE NOCASE ORDER BY name ASC, id ASC",
		pattern, pattern, pattern)
}

// ListBySpecialty returns doctors with the given specialty, matched
// case-insensitively.
func (r *DoctorRepository) ListBySpecialty(ctx context.Context, specialty string) ([]*persistence.Doctor, error) {
	return r.list(ctx,
		"SELECT "+doctorColumns+" FROM doctors WHERE specialty = ? COLLATE NOCASE ORDER BY name ASC, id ASC",
		specialty)
}

// Specialties returns the distinct specialty labels in use, sorted.
func (r *DoctorRepository) Specialties(ctx context.Context) ([]string, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT DISTINCT specialty FROM doctors ORDER BY specialty ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var specialties []string
	for rows.Next() {
		var specialty string
		if err := rows.Scan(&specialty); err != nil {
			return nil, r.mapper.MapError(err)
		}
		specialties = append(specialties, specialty)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return specialties, nil
}

// Update rewrites a doctor's mutable fields.
func (r *DoctorRepository) Update(ctx context.Context, doctor *persistence.Doctor) error {
	doctor.Email = normalizeEmail(doctor.Email)

	result, err := r.helper.Exec(ctx, `
		UPDATE doctors
		SET name = ?, document = ?, specialty = ?, phone = ?, email = ?
		WHERE id = ?`,
		doctor.Name,
		doctor.Document,
		doctor.Specialty,
		doctor.Phone,
		doctor.Email,
		doctor.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowAffected(result)
}

// Delete removes a doctor together with their remaining appointment rows
// in one transaction. The service layer blocks the call while upcoming
// scheduled bookings exist, so only history is discarded here; delivery
// log rows follow their appointments via the cascade.
func (r *DoctorRepository) Delete(ctx context.Context, id int64) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM appointments WHERE doctor_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}
		result, err := r.helper.ExecTx(tx, "DELETE FROM doctors WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireRowAffected(result)
	})
}

func (r *DoctorRepository) list(ctx context.Context, query string, args ...any) ([]*persistence.Doctor, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var doctors []*persistence.Doctor
	for rows.Next() {
		var doctor persistence.Doctor
		var createdAt string

		err := rows.Scan(
			&doctor.ID,
			&doctor.Name,
			&doctor.Document,
			&doctor.Specialty,
			&doctor.Phone,
			&doctor.Email,
			&createdAt,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		if doctor.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		doctors = append(doctors, &doctor)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return doctors, nil
}

func (r *DoctorRepository) scanDoctor(row *sql.Row) (*persistence.Doctor, error) {
	var doctor persistence.Doctor
	var createdAt string

	err := row.Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.Document,
		&doctor.Specialty,
		&doctor.Phone,
		&doctor.Email,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, r.mapper.MapError(err)
	}

	if doctor.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &doctor, nil
}
