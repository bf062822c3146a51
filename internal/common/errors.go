package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError represents a standard structure for API errors.
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%d %s: %s (%v)", e.StatusCode, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is reports whether target is an APIError with the same code, so that
// errors.Is(err, ErrNotFound) holds for copies returned by WithDetails.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.StatusCode == t.StatusCode
}

func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details. The sentinel values below
// are shared, so they are never mutated.
func (e *APIError) WithDetails(details interface{}) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

var (
	ErrBadRequest          = NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "The request is invalid.")
	ErrUnauthorized        = NewAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to continue.")
	ErrForbidden           = NewAPIError(http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action.")
	ErrNotFound            = NewAPIError(http.StatusNotFound, "NOT_FOUND", "The requested resource was not found.")
	ErrConflict            = NewAPIError(http.StatusConflict, "CONFLICT", "The resource already exists or was changed concurrently.")
	ErrUnprocessableEntity = NewAPIError(http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", "The request could not be processed.")
	ErrInternalServer      = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Something went wrong on our side.")
	ErrServiceUnavailable  = NewAPIError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "The service is temporarily unavailable.")
)

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func NewValidationAPIError(details interface{}) *APIError {
	return &APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "VALIDATION_ERROR",
		Message:    "Input validation failed.",
		Details:    details,
	}
}

// validationMessages holds the message template per validator tag. %[1]s is
// the lower-cased field name and %[2]s the tag parameter.
var validationMessages = map[string]string{
	"required":  "The %[1]s field is required.",
	"email":     "The %[1]s field must be a valid email address.",
	"min":       "The %[1]s field must be at least %[2]s characters long.",
	"max":       "The %[1]s field may not be greater than %[2]s characters.",
	"oneof":     "The %[1]s field must be one of: %[2]s.",
	"url":       "The %[1]s field must be a valid URL.",
	"uuid":      "The %[1]s field must be a valid UUID.",
	"latitude":  "The %[1]s field must be a valid latitude.",
	"longitude": "The %[1]s field must be a valid longitude.",
	"datetime":  "The %[1]s field must be a date in the format %[2]s.",
}

// FormatValidationErrors maps each failing field to a readable message.
func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		tmpl, ok := validationMessages[fe.Tag()]
		if !ok {
			out[fe.Field()] = fmt.Sprintf("The %s field failed the '%s' check.", strings.ToLower(fe.Field()), fe.Tag())
			continue
		}
		if !strings.Contains(tmpl, "%[2]s") {
			out[fe.Field()] = fmt.Sprintf(tmpl, strings.ToLower(fe.Field()))
			continue
		}
		out[fe.Field()] = fmt.Sprintf(tmpl, strings.ToLower(fe.Field()), fe.Param())
	}
	return out
}

// BindingError converts an error returned by gin's ShouldBind* into an APIError.
func BindingError(err error) *APIError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return NewValidationAPIError(FormatValidationErrors(ve))
	}
	return ErrBadRequest.WithDetails(err.Error())
}
