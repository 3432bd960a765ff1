// Package notify delivers booking confirmations over SMTP and records every
// attempt in the delivery log.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/persistence"
)

// SMTPConfig holds mail server settings. An empty Host disables delivery:
// attempts are still logged so the audit trail stays complete.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether a mail server is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func (c SMTPConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Mailer implements application.Notifier. Failures are logged and recorded
// but never propagated: confirmation delivery must not undo a booking.
type Mailer struct {
	config SMTPConfig
	log    persistence.DeliveryLogRepository
	logger *slog.Logger
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a mailer backed by the given SMTP settings.
func NewMailer(config SMTPConfig, log persistence.DeliveryLogRepository, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		config: config,
		log:    log,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// AppointmentScheduled composes and delivers a confirmation message,
// reporting whether it actually went out. A log row is written before the
// attempt, then updated with the outcome, so a crash mid-send leaves an
// auditable not_sent row behind.
func (m *Mailer) AppointmentScheduled(ctx context.Context, confirmation application.Confirmation) bool {
	logger := m.logger.With(
		"service", "notify",
		"appointment_id", confirmation.AppointmentID,
		"recipient", confirmation.PatientEmail,
	)

	subject := "Confirmación de Cita Médica"
	entry := &persistence.DeliveryLog{
		MessageID:     uuid.NewString(),
		AppointmentID: confirmation.AppointmentID,
		Recipient:     confirmation.PatientEmail,
		Subject:       subject,
		Body:          confirmationBody(confirmation),
		Outcome:       persistence.DeliveryNotSent,
	}
	if err := m.log.Create(ctx, entry); err != nil {
		logger.Error("failed to record delivery attempt", "error", err)
		return false
	}

	if !m.config.Enabled() {
		logger.Info("mail delivery disabled, confirmation recorded only", "message_id", entry.MessageID)
		return false
	}

	err := m.deliver(entry.Recipient, entry.Subject, entry.Body)
	if err != nil {
		logger.Warn("confirmation delivery failed", "message_id", entry.MessageID, "error", err)
		if markErr := m.log.MarkOutcome(ctx, entry.ID, persistence.DeliveryFailed, err.Error(), time.Now()); markErr != nil {
			logger.Error("failed to record delivery failure", "error", markErr)
		}
		return false
	}

	logger.Info("confirmation delivered", "message_id", entry.MessageID)
	if err := m.log.MarkOutcome(ctx, entry.ID, persistence.DeliverySent, "", time.Now()); err != nil {
		logger.Error("failed to record delivery success", "error", err)
	}
	return true
}

func (m *Mailer) deliver(recipient, subject, body string) error {
	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return m.send(m.config.addr(), auth, m.config.From, []string{recipient}, []byte(msg.String()))
}

func confirmationBody(confirmation application.Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estimado/a %s,\n\n", confirmation.PatientName)
	b.WriteString("Su cita médica ha sido confirmada:\n\n")
	fmt.Fprintf(&b, "Médico: %s\n", confirmation.DoctorName)
	fmt.Fprintf(&b, "Especialidad: %s\n", confirmation.Specialty)
	fmt.Fprintf(&b, "Fecha: %s\n", confirmation.Date.Format("02/01/2006"))
	fmt.Fprintf(&b, "Hora: %s\n\n", confirmation.Time.String())
	b.WriteString("Por favor llegue 15 minutos antes de su cita.\n\n")
	b.WriteString("Atentamente,\nClínica San Vicente")
	return b.String()
}
