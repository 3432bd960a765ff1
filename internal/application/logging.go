package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/clinic-scheduler/internal/logging"
	"github.com/example/clinic-scheduler/internal/scheduler"
)

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrDeleteNotAllowed):
		return "delete_not_allowed"
	case errors.Is(err, ErrResourceInUse):
		return "resource_in_use"
	case errors.Is(err, scheduler.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, scheduler.ErrAlreadyInState):
		return "already_in_state"
	case errors.Is(err, ErrStorage):
		return "storage"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return "conflict"
	}

	return "unexpected"
}
