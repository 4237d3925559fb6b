package services

import (
	"errors"
	"fmt"
	"net/http"

	"portfolio-backend-go/internal/logging"
	"portfolio-backend-go/internal/store"

	"github.com/go-playground/validator/v10"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "authentication"
	KindForbidden  ErrorKind = "authorization"
	KindNotFound   ErrorKind = "not_found"
	KindRateLimit  ErrorKind = "rate_limit"
	KindConflict   ErrorKind = "conflict"
	KindServer     ErrorKind = "server"
)

// ServiceError is the only error shape the HTTP layer renders directly.
type ServiceError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Fields  []FieldError
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrValidation(msg string) error {
	return ServiceError{Kind: KindValidation, Status: http.StatusBadRequest, Message: msg}
}

func ErrValidationFields(fields []FieldError) error {
	msg := "Validation failed"
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return ServiceError{Kind: KindValidation, Status: http.StatusBadRequest, Message: msg, Fields: fields}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Kind: KindAuth, Status: http.StatusUnauthorized, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Kind: KindForbidden, Status: http.StatusForbidden, Message: msg}
}

func ErrNotFound(msg string) error {
	return ServiceError{Kind: KindNotFound, Status: http.StatusNotFound, Message: msg}
}

func ErrRateLimited(msg string) error {
	return ServiceError{Kind: KindRateLimit, Status: http.StatusTooManyRequests, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Kind: KindConflict, Status: http.StatusBadRequest, Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Translate maps store, validation and unexpected failures onto a
// ServiceError. notFound is the message used when a document is missing.
func Translate(err error, notFound string) ServiceError {
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		return ErrValidationFields(describe(invalid)).(ServiceError)
	case errors.Is(err, store.ErrNotFound):
		if notFound == "" {
			notFound = "Resource not found"
		}
		return ErrNotFound(notFound).(ServiceError)
	case errors.Is(err, store.ErrInvalidID):
		return ErrNotFound("Resource not found").(ServiceError)
	case errors.Is(err, store.ErrDuplicate):
		return ErrConflict("Duplicate field value entered").(ServiceError)
	}
	logging.WithComponent("services").Error().Err(err).Msg("unexpected failure")
	return ServiceError{Kind: KindServer, Status: http.StatusInternalServerError, Message: "Server Error"}
}

// notFoundAs gives a missing document a domain message and leaves every
// other error for Translate.
func notFoundAs(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		return ErrNotFound(msg)
	}
	return err
}
