package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Response is the success envelope returned by every API endpoint.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is the failure envelope returned by every API endpoint.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteData writes data wrapped in the success envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Success: true, Data: data}); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// WriteNoContent writes a 204 without a body.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError resolves err into the taxonomy and writes the failure envelope.
func WriteError(w http.ResponseWriter, err error) {
	appErr := apperr.As(err)
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
	} else {
		log.Debugf("request rejected (%d): %v", status, err)
	}

	message := appErr.Message
	if appErr.Kind == apperr.KindInternal || appErr.Kind == apperr.KindDatabase {
		// driver details stay in the logs
		message = "internal server error"
	}
	writeErrorResponse(w, status, ErrorResponse{
		Error:  message,
		Code:   appErr.ErrorCode(),
		Fields: appErr.Fields,
	})
}

func writeErrorResponse(w http.ResponseWriter, status int, body ErrorResponse) {
	body.Success = false
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode error response: %v", err)
	}
}

// DecodeJSON decodes the request body into v, reporting malformed input as a validation error.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required", nil)
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apperr.Validation("Request body is too large", nil).WithCode("BODY_TOO_LARGE")
		}
		return apperr.Validation("Invalid request body format", nil)
	}
	return nil
}

// PathId parses the named mux path variable as a positive integer id.
func PathId(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid "+name, map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}

// ApiFunc is a handler that returns its status and payload instead of writing them.
type ApiFunc func(r *http.Request) (int, any, error)

// CreateApiHandler adapts an ApiFunc to net/http, writing the envelope for both outcomes.
func CreateApiHandler(fn ApiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, data, err := fn(r)
		if err != nil {
			WriteError(w, err)
			return
		}
		if status == http.StatusNoContent {
			WriteNoContent(w)
			return
		}
		WriteData(w, status, data)
	}
}
