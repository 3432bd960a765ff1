package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// DeliveryLogRepository implements persistence.DeliveryLogRepository using
// SQLite.
type DeliveryLogRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewDeliveryLogRepository creates a SQLite delivery log repository.
func NewDeliveryLogRepository(pool *ConnectionPool) *DeliveryLogRepository {
	return &DeliveryLogRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const deliveryColumns = "id, message_id, appointment_id, recipient, subject, body, outcome, detail, created_at, sent_at"

// Create inserts a delivery record and fills in the assigned identifier.
func (r *DeliveryLogRepository) Create(ctx context.Context, entry *persistence.DeliveryLog) error {
	entry.CreatedAt = time.Now().UTC()
	if entry.Outcome == "" {
		entry.Outcome = persistence.DeliveryNotSent
	}

	result, err := r.helper.Exec(ctx, `
		INSERT INTO delivery_logs (message_id, appointment_id, recipient, subject, body, outcome, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.MessageID,
		entry.AppointmentID,
		entry.Recipient,
		entry.Subject,
		entry.Body,
		entry.Outcome,
		entry.Detail,
		entry.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	entry.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	return nil
}

// MarkOutcome records the result of a delivery attempt.
func (r *DeliveryLogRepository) MarkOutcome(ctx context.Context, id int64, outcome, detail string, sentAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		"UPDATE delivery_logs SET outcome = ?, detail = ?, sent_at = ? WHERE id = ?",
		outcome,
		detail,
		sentAt.UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowAffected(result)
}

// ListByAppointment returns delivery records for one booking, newest first.
func (r *DeliveryLogRepository) ListByAppointment(ctx context.Context, appointmentID int64) ([]*persistence.DeliveryLog, error) {
	return r.list(ctx,
		"SELECT "+deliveryColumns+" FROM delivery_logs WHERE appointment_id = ? ORDER BY id DESC",
		appointmentID)
}

// ListByOutcome returns the most recent delivery records with the given
// outcome, up to limit.
func (r *DeliveryLogRepository) ListByOutcome(ctx context.Context, outcome string, limit int) ([]*persistence.DeliveryLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx,
		"SELECT "+deliveryColumns+" FROM delivery_logs WHERE outcome = ? ORDER BY id DESC LIMIT ?",
		outcome, limit)
}

// List returns the most recent delivery records up to limit.
func (r *DeliveryLogRepository) List(ctx context.Context, limit int) ([]*persistence.DeliveryLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx,
		"SELECT "+deliveryColumns+" FROM delivery_logs ORDER BY id DESC LIMIT ?",
		limit)
}

func (r *DeliveryLogRepository) list(ctx context.Context, query string, args ...any) ([]*persistence.DeliveryLog, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []*persistence.DeliveryLog
	for rows.Next() {
		var entry persistence.DeliveryLog
		var createdAt string
		var sentAt sql.NullString

		err := rows.Scan(
			&entry.ID,
			&entry.MessageID,
			&entry.AppointmentID,
			&entry.Recipient,
			&entry.Subject,
			&entry.Body,
			&entry.Outcome,
			&entry.Detail,
			&createdAt,
			&sentAt,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}

		if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if sentAt.Valid {
			parsed, err := time.Parse(time.RFC3339, sentAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse sent_at: %w", err)
			}
			entry.SentAt = &parsed
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return entries, nil
}
