package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// PatientRepository implements persistence.PatientRepository using SQLite.
type PatientRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPatientRepository creates a SQLite patient repository.
func NewPatientRepository(pool *ConnectionPool) *PatientRepository {
	return &PatientRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const patientColumns = "id, name, document, age, phone, email, created_at"

// Create inserts a patient and fills in the assigned identifier.
func (r *PatientRepository) Create(ctx context.Context, patient *persistence.Patient) error {
	patient.CreatedAt = time.Now().UTC()
	patient.Email = normalizeEmail(patient.Email)

	result, err := r.helper.Exec(ctx, `
		INSERT INTO patients (name, document, age, phone, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		patient.Name,
		patient.Document,
		patient.Age,
		patient.Phone,
		patient.Email,
		patient.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	patient.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	return nil
}

// GetByID retrieves a patient by identifier.
func (r *PatientRepository) GetByID(ctx context.Context, id int64) (*persistence.Patient, error) {
	row := r.helper.QueryRow(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE id = ?", id)
	return r.scanPatient(row)
}

// GetByDocument retrieves a patient by identity document.
func (r *PatientRepository) GetByDocument(ctx context.Context, document string) (*persistence.Patient, error) {
	row := r.helper.QueryRow(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE document = ?", document)
	return r.scanPatient(row)
}

// GetByEmail retrieves a patient by email address.
func (r *PatientRepository) GetByEmail(ctx context.Context, email string) (*persistence.Patient, error) {
	row := r.helper.QueryRow(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE email = ?", normalizeEmail(email))
	return r.scanPatient(row)
}

// List returns all patients ordered by name.
func (r *PatientRepository) List(ctx context.Context) ([]*persistence.Patient, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT "+patientColumns+" FROM patients ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var patients []*persistence.Patient
	for rows.Next() {
		patient, err := r.scanPatientRows(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return patients, nil
}

// Search returns patients whose name or document contains the term,
// matched case-insensitively and ordered by name.
func (r *PatientRepository) Search(ctx context.Context, term string) ([]*persistence.Patient, error) {
	pattern := "%" + escapeLike(term) + "%"
	rows, err := r.helper.Query(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE name LIKE ? ESCAPE '\\' COLLATE NOCASE OR document LIKE ? ESCAPE '\\' ORDER BY name ASC, id ASC",
		pattern, pattern)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var patients []*persistence.Patient
	for rows.Next() {
		patient, err := r.scanPatientRows(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return patients, nil
}

// Update rewrites a patient's mutable fields.
func (r *PatientRepository) Update(ctx context.Context, patient *persistence.Patient) error {
	patient.Email = normalizeEmail(patient.Email)

	result, err := r.helper.Exec(ctx, `
		UPDATE patients
		SET name = ?, document = ?, age = ?, phone = ?, email = ?
		WHERE id = ?`,
		patient.Name,
		patient.Document,
		patient.Age,
		patient.Phone,
		patient.Email,
		patient.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowAffected(result)
}

// Delete removes a patient together with their remaining appointment rows
// in one transaction. The service layer blocks the call while upcoming
// scheduled bookings exist, so only history is discarded here; delivery
// log rows follow their appointments via the cascade.
func (r *PatientRepository) Delete(ctx context.Context, id int64) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM appointments WHERE patient_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}
		result, err := r.helper.ExecTx(tx, "DELETE FROM patients WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireRowAffected(result)
	})
}

func (r *PatientRepository) scanPatient(row *sql.Row) (*persistence.Patient, error) {
	var patient persistence.Patient
	var createdAt string

	err := row.Scan(
		&patient.ID,
		&patient.Name,
		&patient.Document,
		&patient.Age,
		&patient.Phone,
		&patient.Email,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, r.mapper.MapError(err)
	}

	if patient.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &patient, nil
}

func (r *PatientRepository) scanPatientRows(rows *sql.Rows) (*persistence.Patient, error) {
	var patient persistence.Patient
	var createdAt string

	err := rows.Scan(
		&patient.ID,
		&patient.Name,
		&patient.Document,
		&patient.Age,
		&patient.Phone,
		&patient.Email,
		&createdAt,
	)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}

	if patient.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &patient, nil
}

func requireRowAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(term)
}
