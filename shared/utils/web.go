package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	internal_errors "github.com/itchan-dev/forllm/shared/errors"
	"github.com/itchan-dev/forllm/shared/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	var apiErr *internal_errors.APIError
	var validationErr *internal_errors.ValidationError
	var invalidErr *internal_errors.InvalidInputError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &apiErr) && apiErr.StatusCode != 0:
		http.Error(w, err.Error(), apiErr.StatusCode)
	case errors.As(err, &apiErr), errors.As(err, &invalidErr):
		// the forum API was unreachable or answered nonsense
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

// DecodeValidate decodes an incoming request body and checks its validate tags.
func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid request body", "error", err)
		return &internal_errors.ValidationError{Message: "Body is invalid json"}
	}
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("request body failed validation", "error", err)
		return &internal_errors.ValidationError{Message: "Required fields missing"}
	}
	return nil
}

// ValidateResponse checks a decoded API payload against its validate tags.
// Slices are checked element by element.
func ValidateResponse(body any) error {
	v := reflect.Indirect(reflect.ValueOf(body))
	if v.Kind() != reflect.Slice {
		return shapeError(validate.Struct(body))
	}
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		if reflect.Indirect(elem).Kind() != reflect.Struct {
			continue
		}
		if err := validate.Struct(elem.Interface()); err != nil {
			return shapeError(fmt.Errorf("item %d: %w", i, err))
		}
	}
	return nil
}

func shapeError(err error) error {
	if err == nil {
		return nil
	}
	return &internal_errors.InvalidInputError{Message: fmt.Sprintf("unexpected response shape: %v", err)}
}
