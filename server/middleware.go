package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ctxKey int

const (
	userKey ctxKey = iota
	requestIDKey
)

const (
	requestIDHeader    = "X-Request-ID"
	triggerTokenHeader = "X-Trigger-Token"
)

// paths that are served without an identity; /trigger checks its own token
var public = map[string]bool{
	"/ping":    true,
	"/trigger": true,
}

func userFrom(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Info().
			Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

// triggerAllowed reports whether the request carries the configured trigger token.
func (s Server) triggerAllowed(r *http.Request) bool {
	if s.cfg.TriggerToken == "" {
		return false
	}
	token := r.Header.Get(triggerTokenHeader)
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.TriggerToken)) == 1
}

// identify reads the user set by the fronting proxy and makes sure they have a profile.
func (s Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if public[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		user := strings.TrimSpace(r.Header.Get(s.cfg.UserHeader))
		if user == "" {
			writeMessage(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		if _, err := s.profiles.Ensure(r.Context(), user, strings.TrimSpace(r.Header.Get(s.cfg.EmailHeader))); err != nil {
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}
