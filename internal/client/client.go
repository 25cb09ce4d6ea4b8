// Package client talks to a running PurrPal API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/purrpal/purrpal/internal/ai"
	"github.com/purrpal/purrpal/pkg/models"
)

var ErrNotLoggedIn = errors.New("not logged in: run `purrpal login` first")

// APIError is a non-2xx answer that did not map onto a diagnosis error kind.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken sets the bearer token sent with authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a token and keeps it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, false, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

// Predict submits a questionnaire. Diagnosis failures come back as
// *ai.ClassifiedError with the server's message and suggestions.
func (c *Client) Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResult, error) {
	var out models.PredictionResult
	if err := c.do(ctx, http.MethodPost, "/api/ai/predict-symptoms", req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AIHealth fetches the ML service health report.
func (c *Client) AIHealth(ctx context.Context) (*ai.HealthReport, error) {
	var out ai.HealthReport
	if err := c.do(ctx, http.MethodGet, "/api/ai/health", nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type envelope struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data"`
	Error       string          `json:"error"`
	Code        string          `json:"code"`
	Details     any             `json:"details"`
	Suggestions []string        `json:"suggestions"`
}

func (c *Client) do(ctx context.Context, method, path string, payload any, authed bool, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ai.ClassifyFor(err, ai.LangID, ai.SubjectDiagnosis)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "invalid response body"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		return toError(resp.StatusCode, env)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

// toError rebuilds a classified error from the envelope's code when it names a
// diagnosis error kind.
func toError(status int, env envelope) error {
	kind := ai.Kind(strings.ToLower(env.Code))
	switch kind {
	case ai.KindValidation, ai.KindServiceUnavailable, ai.KindTimeout,
		ai.KindRateLimited, ai.KindAuth, ai.KindUnknown:
		ce := &ai.ClassifiedError{
			Kind:        kind,
			Message:     env.Error,
			Suggestions: env.Suggestions,
		}
		if d, ok := env.Details.(string); ok {
			ce.Detail = d
		}
		return ce
	}
	return &APIError{StatusCode: status, Code: env.Code, Message: env.Error}
}
