package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"pretest-quiz-service/internal/domain"
)

// SubmitPath is appended to the collector base URL.
const SubmitPath = "/api/quiz/submit"

// Client posts completed attempts to the backend collector. It implements
// domain.Submitter: failures are reported in the result, never raised.
type Client struct {
	baseURL  string
	identity Identity
	http     *http.Client
	now      func() time.Time
	log      *zap.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithIdentity overrides the learner and test attributes.
func WithIdentity(id Identity) ClientOption {
	return func(c *Client) { c.identity = id }
}

// WithClock replaces the wall clock used for generated ids and processed_at.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		identity: DefaultIdentity(),
		http:     &http.Client{Timeout: 5 * time.Second},
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit transforms and sends one attempt. It makes exactly one request.
func (c *Client) Submit(ctx context.Context, attempt domain.CompletedAttempt) (res domain.SubmitResult) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.SubmitResult{Err: fmt.Errorf("submission panicked: %v", r)}
		}
	}()

	payload := Transform(c.identity, attempt, c.now())
	status, err := c.Send(ctx, payload)
	if err != nil {
		c.log.Warn("submission failed",
			zap.String("session_id", payload.SessionInfo.SessionID),
			zap.Int("status", status),
			zap.Error(err))
		return domain.SubmitResult{StatusCode: status, Err: err}
	}
	c.log.Info("submission accepted",
		zap.String("session_id", payload.SessionInfo.SessionID),
		zap.Int("answers", len(payload.Answers)))
	return domain.SubmitResult{OK: true, StatusCode: status}
}

// Send POSTs an already transformed payload. Any non-2xx status is an error.
func (c *Client) Send(ctx context.Context, payload domain.SubmissionPayload) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SubmitPath, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, fmt.Errorf("collector responded %s", resp.Status)
	}
	return resp.StatusCode, nil
}

// Disabled is a Submitter that drops every attempt, used when no collector
// is configured.
type Disabled struct {
	Log *zap.Logger
}

func (d Disabled) Submit(_ context.Context, attempt domain.CompletedAttempt) domain.SubmitResult {
	if d.Log != nil {
		d.Log.Debug("submission disabled", zap.String("session_id", attempt.Session.ID))
	}
	return domain.SubmitResult{OK: false}
}
