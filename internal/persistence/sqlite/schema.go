package sqlite

import (
	"context"
	"fmt"
)

// Schema statements are idempotent so startup can run them unconditionally.
// The partial unique indexes on appointments are the authority on slot
// occupancy: cancelled rows fall outside them, so a freed slot can be
// rebooked, and two racing inserts for the same slot cannot both commit.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		document TEXT NOT NULL,
		age INTEGER NOT NULL CHECK (age BETWEEN 1 AND 150),
		phone TEXT NOT NULL,
		email TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_document ON patients(document)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_email ON patients(email)`,

	`CREATE TABLE IF NOT EXISTS doctors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		document TEXT NOT NULL,
		specialty TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_doctors_document ON doctors(document)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_doctors_email ON doctors(email)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_doctors_name_specialty ON doctors(name, specialty)`,

	`CREATE TABLE IF NOT EXISTS appointments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL REFERENCES patients(id),
		doctor_id INTEGER NOT NULL REFERENCES doctors(id),
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('scheduled', 'attended', 'cancelled')),
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_doctor_slot
		ON appointments(doctor_id, date, time) WHERE status != 'cancelled'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_patient_slot
		ON appointments(patient_id, date, time) WHERE status != 'cancelled'`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date)`,

	`CREATE TABLE IF NOT EXISTS delivery_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL UNIQUE,
		appointment_id INTEGER NOT NULL REFERENCES appointments(id) ON DELETE CASCADE,
		recipient TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		outcome TEXT NOT NULL CHECK (outcome IN ('not_sent', 'sent', 'failed')),
		detail TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		sent_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_delivery_logs_appointment ON delivery_logs(appointment_id)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
