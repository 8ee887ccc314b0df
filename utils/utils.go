package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ParseRequestBody decodes the json body into dest and runs the `validate` struct
// tags on it. On failure the response has already been written and false is returned.
func ParseRequestBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dest)
	if err != nil {
		slog.Error("error parsing request body", "error", err)
		http.Error(w, fmt.Sprintf("error parsing request body: %v", err), http.StatusBadRequest)
		return false
	}

	if err := Validate(dest); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return false
	}
	return true
}

func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("field '%v' failed '%v' validation", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid request: %v", strings.Join(msgs, "; "))
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// Non struct payloads (slices, maps) carry no tags.
		return nil
	}
	return fmt.Errorf("invalid request: %w", err)
}

func WriteJsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("error serializing response body", "error", err)
		http.Error(w, fmt.Sprintf("error serializing response body: %v", err), http.StatusInternalServerError)
	}
}

func WriteSuccess(w http.ResponseWriter) {
	WriteJsonResponse(w, struct{}{})
}

func URLParam(r *http.Request, key string) (string, error) {
	param := chi.URLParam(r, key)
	if len(param) == 0 {
		return "", fmt.Errorf("missing {%v} url parameter", key)
	}
	return param, nil
}

func URLParamUUID(r *http.Request, key string) (uuid.UUID, error) {
	param := chi.URLParam(r, key)

	if len(param) == 0 {
		return uuid.Nil, fmt.Errorf("missing {%v} url parameter", key)
	}

	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid '%v' provided: %w", param, err)
	}

	return id, nil
}

// OptionalQueryUUID returns nil if the query parameter is absent.
func OptionalQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	param := r.URL.Query().Get(key)
	if len(param) == 0 {
		return nil, nil
	}

	id, err := uuid.Parse(param)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid '%v' provided for query parameter %v: %w", param, key, err)
	}
	return &id, nil
}
