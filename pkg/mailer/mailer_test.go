package mailer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMailer_SendsTemplatedRequest(t *testing.T) {
	var received sendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_ = json.NewEncoder(w).Encode(map[string]string{"message_id": "msg-123"})
	}))
	defer server.Close()

	mailer := NewHTTPMailer(slog.Default(), server.URL, "secret-key")

	messageID, err := mailer.SendTemplated(context.Background(), "welcome-lead", "ana@example.com", map[string]any{
		"first_name": "Ana",
	})
	require.NoError(t, err)

	assert.Equal(t, "msg-123", messageID)
	assert.Equal(t, "welcome-lead", received.TemplateID)
	assert.Equal(t, "ana@example.com", received.Recipient)
	assert.Equal(t, "Ana", received.Data["first_name"])
}

func TestHTTPMailer_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"message_id": "msg-retry"})
	}))
	defer server.Close()

	mailer := NewHTTPMailer(slog.Default(), server.URL, "",
		WithRetryDelay(time.Millisecond))

	messageID, err := mailer.SendTemplated(context.Background(), "welcome-lead", "ana@example.com", nil)
	require.NoError(t, err)

	assert.Equal(t, "msg-retry", messageID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPMailer_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown template", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	mailer := NewHTTPMailer(slog.Default(), server.URL, "",
		WithRetryDelay(time.Millisecond))

	_, err := mailer.SendTemplated(context.Background(), "ghost-template", "ana@example.com", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 422")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPMailer_GivesUpAfterConfiguredAttempts(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	mailer := NewHTTPMailer(slog.Default(), server.URL, "",
		WithAttempts(2),
		WithRetryDelay(time.Millisecond))

	_, err := mailer.SendTemplated(context.Background(), "welcome-lead", "ana@example.com", nil)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPMailer_MissingMessageIDGetsGenerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	mailer := NewHTTPMailer(slog.Default(), server.URL, "")

	messageID, err := mailer.SendTemplated(context.Background(), "welcome-lead", "ana@example.com", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, messageID)
}

func TestLogMailer_AlwaysSucceeds(t *testing.T) {
	mailer := NewLogMailer(slog.Default())

	first, err := mailer.SendTemplated(context.Background(), "welcome-lead", "ana@example.com", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := mailer.SendTemplated(context.Background(), "welcome-lead", "ana@example.com", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
