// Package mailer implements the email delivery collaborators: an HTTP
// provider client for production and a logging mailer for development.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultAttempts = 3

const defaultRetryDelay = time.Second

// HTTPMailer sends templated emails through a JSON HTTP provider endpoint.
// Transport errors and 5xx responses are retried; 4xx responses are not.
type HTTPMailer struct {
	logger     *slog.Logger
	client     *http.Client
	endpoint   string
	apiKey     string
	attempts   int
	retryDelay time.Duration
}

type MailerOption func(*HTTPMailer)

func WithAttempts(attempts int) MailerOption {
	return func(m *HTTPMailer) { m.attempts = attempts }
}

func WithRetryDelay(delay time.Duration) MailerOption {
	return func(m *HTTPMailer) { m.retryDelay = delay }
}

func WithHTTPClient(client *http.Client) MailerOption {
	return func(m *HTTPMailer) { m.client = client }
}

func NewHTTPMailer(logger *slog.Logger, endpoint, apiKey string, opts ...MailerOption) *HTTPMailer {
	mailer := &HTTPMailer{
		logger:     logger.With("module", "http_mailer"),
		client:     &http.Client{Timeout: 30 * time.Second},
		endpoint:   endpoint,
		apiKey:     apiKey,
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
	}

	for _, opt := range opts {
		opt(mailer)
	}

	return mailer
}

type sendRequest struct {
	TemplateID string         `json:"template_id"`
	Recipient  string         `json:"recipient"`
	Data       map[string]any `json:"data,omitempty"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

func (m *HTTPMailer) SendTemplated(ctx context.Context, templateID, recipient string, data map[string]any) (string, error) {
	payload, err := json.Marshal(sendRequest{
		TemplateID: templateID,
		Recipient:  recipient,
		Data:       data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode send request: %w", err)
	}

	logger := m.logger.With("template_id", templateID, "recipient", recipient)

	var lastErr error

	for attempt := 1; attempt <= m.attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "Retrying send", "attempt", attempt)

			select {
			case <-time.After(m.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		messageID, retryable, err := m.send(ctx, payload)
		if err == nil {
			logger.InfoContext(ctx, "Email sent", "message_id", messageID)
			return messageID, nil
		}

		lastErr = err

		if !retryable {
			break
		}
	}

	return "", fmt.Errorf("failed to send %s to %s: %w", templateID, recipient, lastErr)
}

func (m *HTTPMailer) send(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("failed to create send request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("send request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, fmt.Errorf("failed to read provider response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("provider returned status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", false, fmt.Errorf("provider rejected request with status %d: %s", resp.StatusCode, string(body))
	}

	var decoded sendResponse
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.MessageID == "" {
		// Providers without a message id in the response still delivered.
		return uuid.New().String(), false, nil
	}

	return decoded.MessageID, false, nil
}

// LogMailer records sends in the log instead of delivering them. Used in
// development and tests.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "log_mailer")}
}

func (m *LogMailer) SendTemplated(ctx context.Context, templateID, recipient string, data map[string]any) (string, error) {
	messageID := uuid.New().String()

	m.logger.InfoContext(ctx, "Email send (log only)",
		"template_id", templateID,
		"recipient", recipient,
		"message_id", messageID,
		"data_keys", len(data))

	return messageID, nil
}
