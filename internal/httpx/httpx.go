// Package httpx holds the JSON request/response helpers shared by the HTTP
// handler packages.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"carjoy/internal/apperror"
)

// Dev toggles inclusion of underlying error detail in responses. Set once at
// startup from config; never enable in production.
var Dev bool

// DecodeJSON decodes the request body into dest, rejecting unknown fields.
func DecodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

// RespondJSON writes payload as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Error  string                `json:"error"`
	Fields []apperror.FieldError `json:"fields,omitempty"`
	Detail string                `json:"detail,omitempty"`
}

// RespondError renders err through the apperror taxonomy. Server-side failures
// are logged with full detail; the response body only ever carries the safe
// message unless Dev is set.
func RespondError(w http.ResponseWriter, err error) {
	appErr := apperror.From(err)
	if appErr.Status() >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}

	body := errorBody{Error: appErr.Message, Fields: appErr.Fields}
	if Dev && appErr.Err != nil {
		body.Detail = appErr.Err.Error()
	}
	RespondJSON(w, appErr.Status(), body)
}
