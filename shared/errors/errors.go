package errors

import (
	"errors"
	"fmt"
)

// APIError is any transport or non-2xx failure coming back from the forum API.
// StatusCode is 0 when the request never got a response.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return e.Message
}

// ValidationError is raised before a request is dispatched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("Validation error: %s", e.Message)
	}
	return fmt.Sprintf("Validation error: %s: %s", e.Field, e.Message)
}

// InvalidInputError reports payloads that do not have the expected shape.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// Is reports whether err (or anything it wraps) is of type T.
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// StatusCode extracts the HTTP status of an APIError, 0 otherwise.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
