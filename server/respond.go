package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("error writing response")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError turns a service error into a response. Errors that are not the client's fault are
// logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid validator.ValidationErrors

	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fieldErrors(invalid)})
	case errors.Is(err, coursecart.ErrInvalidRequest), errors.Is(err, coursecart.ErrMalformedTime):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coursecart.ErrNotFriends), errors.Is(err, coursecart.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, coursecart.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	default:
		log.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Str("path", r.URL.Path).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, "something went wrong, please try again later")
	}
}
