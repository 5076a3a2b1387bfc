package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/jacobmichels/Course-Cart-Go/config"
)

func TestEmail(t *testing.T) {
	var addr string
	var to []string
	var body string

	e := NewEmail("smtp.example.com", "user", "pass", "cart@example.com", 587)
	e.send = func(a string, _ smtp.Auth, from string, rcpt []string, msg []byte) error {
		addr, to, body = a, rcpt, string(msg)
		return nil
	}

	err := e.Notify(context.Background(), coursecart.Notification{To: "mary@virginia.edu", Subject: "New comment", Body: "john commented"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", addr)
	assert.Equal(t, []string{"mary@virginia.edu"}, to)
	assert.Contains(t, body, "Subject: [Course Cart] New comment")
	assert.Contains(t, body, "john commented")
}

func TestEmail_SkipsMissingRecipient(t *testing.T) {
	e := NewEmail("smtp.example.com", "user", "pass", "cart@example.com", 587)
	e.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("nothing should be sent")
		return nil
	}

	assert.NoError(t, e.Notify(context.Background(), coursecart.Notification{Subject: "hi"}))
}

func TestEmail_Error(t *testing.T) {
	e := NewEmail("smtp.example.com", "user", "pass", "cart@example.com", 587)
	e.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	assert.Error(t, e.Notify(context.Background(), coursecart.Notification{To: "mary@virginia.edu"}))
}

func TestSendgrid(t *testing.T) {
	var payload struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			Subject string `json:"subject"`
			To      []struct {
				Email string `json:"email"`
			} `json:"to"`
		} `json:"personalizations"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(raw, &payload))

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	s := NewSendgrid("secret", "cart@example.com")
	s.host = server.URL

	err := s.Notify(context.Background(), coursecart.Notification{To: "mary@virginia.edu", Subject: "New friend request", Body: "john sent you a friend request."})
	require.NoError(t, err)
	assert.Equal(t, "cart@example.com", payload.From.Email)
	require.Len(t, payload.Personalizations, 1)
	assert.Equal(t, "[Course Cart] New friend request", payload.Personalizations[0].Subject)
	require.Len(t, payload.Personalizations[0].To, 1)
	assert.Equal(t, "mary@virginia.edu", payload.Personalizations[0].To[0].Email)
}

func TestSendgrid_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer server.Close()

	s := NewSendgrid("wrong", "cart@example.com")
	s.host = server.URL

	err := s.Notify(context.Background(), coursecart.Notification{To: "mary@virginia.edu"})
	assert.ErrorContains(t, err, "401")
}

func TestNew(t *testing.T) {
	n, err := New(config.Notifications{Type: "noop"})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, n)

	n, err = New(config.Notifications{Type: "smtp", EmailSmtp: config.EmailSmtp{Host: "smtp.example.com", Port: 25}})
	require.NoError(t, err)
	assert.IsType(t, Email{}, n)

	_, err = New(config.Notifications{Type: "sendgrid"})
	assert.Error(t, err)

	n, err = New(config.Notifications{Type: "sendgrid", Sendgrid: config.Sendgrid{APIKey: "key", From: "cart@example.com"}})
	require.NoError(t, err)
	assert.IsType(t, Sendgrid{}, n)

	_, err = New(config.Notifications{Type: "pigeon"})
	assert.Error(t, err)
}
