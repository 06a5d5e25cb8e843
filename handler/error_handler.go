package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/marketplace/pkg/logger"
	"github.com/dmitrymomot/marketplace/pkg/requestid"
	"github.com/dmitrymomot/marketplace/pkg/validator"
)

// ErrorMapper translates a domain error into an HTTP error.
// It reports false when it does not recognise err.
type ErrorMapper func(err error) (HTTPError, bool)

// Classify returns the HTTP status for err after applying mappers.
func Classify(err error, mappers ...ErrorMapper) (int, error) {
	if validator.IsValidationError(err) {
		return http.StatusUnprocessableEntity, err
	}
	for _, m := range mappers {
		if httpErr, ok := m(err); ok {
			return httpErr.Code, httpErr
		}
	}
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, httpErr
	}
	return http.StatusInternalServerError, err
}

// NewErrorHandler creates the JSON error handler shared by all API routes.
// Client errors are logged at warn level, server errors at error level.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		status, public := Classify(err, mappers...)

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if renderErr := JSONError(public).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}
