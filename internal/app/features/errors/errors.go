// Package errors turns failures into JSON responses and logs the ones the
// client cannot act on.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"github.com/dalemusser/stratashelter/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// ErrorLogger wraps the zap logger for error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}, fields...)
	e.logger.Error(msg, all...)
}

// Respond writes the response for a failed shelter call. Invalid input is
// the caller's fault and comes back as 400 with the reason. Anything else is
// logged and reported as a generic 500.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, err error) {
	if stderrors.Is(err, shelter.ErrInvalidArgument) {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	op := "unknown"
	var se *shelter.StoreError
	if stderrors.As(err, &se) {
		op = se.Op
	}
	e.Log(r, "shelter operation failed", err, zap.String("op", op))
	jsonutil.InternalError(w, "the record store could not complete the request")
}

// NotFound is the router's 404 handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.NotFound(w, "no route for "+r.Method+" "+r.URL.Path)
}

// MethodNotAllowed is the router's 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed on "+r.URL.Path)
}
