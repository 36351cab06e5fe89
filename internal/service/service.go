// Package service holds the application's use cases on top of the repositories.
package service

import (
	"context"
	"errors"
	"log/slog"

	"yatube/internal/events"
	"yatube/internal/middleware"
	"yatube/internal/models"
)

// publish hands e to the broker. Delivery problems are logged, never returned:
// the database write has already succeeded.
func publish(ctx context.Context, p events.Publisher, e events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			slog.String("type", e.Type), slog.String("error", err.Error()))
	}
}

// mergeFields adds the field messages from a validation error to fields.
// Any other error is returned unchanged.
func mergeFields(fields map[string]string, err error) error {
	if err == nil {
		return nil
	}
	appErr, ok := asValidation(err)
	if !ok {
		return err
	}
	if len(appErr.Fields) == 0 {
		fields["__all__"] = appErr.Message
	}
	for k, v := range appErr.Fields {
		if _, exists := fields[k]; !exists {
			fields[k] = v
		}
	}
	return nil
}

func asValidation(err error) (*models.AppError, bool) {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
		return appErr, true
	}
	return nil, false
}
