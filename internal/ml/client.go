package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/purrpal/purrpal/pkg/models"
)

// Sentinel errors for ML service failures. They are attached where the failure
// is observed so callers never have to inspect message text.
var (
	ErrUnavailable      = errors.New("ml service unavailable")
	ErrTimeout          = errors.New("ml service timeout")
	ErrRateLimited      = errors.New("ml service rate limit exceeded")
	ErrAuth             = errors.New("ml service authentication failed")
	ErrInvalidResponse  = errors.New("ml service returned invalid response")
	ErrPredictionFailed = errors.New("ml service prediction failed")
)

// maxErrorBody caps how much of a failed response body is kept for diagnostics.
const maxErrorBody = 4096

// StatusError is returned when an ML service answers with a non-2xx status.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match the statuses that carry a more specific meaning.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	}
	return nil
}

// HTTPClient talks to the tabular and vision diagnosis services over HTTP.
type HTTPClient struct {
	tabularURL string
	visionURL  string
	client     *http.Client
}

// NewHTTPClient creates a client for the two ML services. A zero timeout leaves
// requests bounded only by the caller's context and the transport.
func NewHTTPClient(tabularURL, visionURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		tabularURL: tabularURL,
		visionURL:  visionURL,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Name() string { return "http" }

// PredictSymptoms forwards a questionnaire to POST {tabular}/predict. The
// response payload is decoded as-is and not validated beyond being JSON.
func (c *HTTPClient) PredictSymptoms(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	body, err := c.post(ctx, "ML service", c.tabularURL+"/predict", req)
	if err != nil {
		return nil, err
	}

	var result models.PredictionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &result, nil
}

// DetectImage forwards a base64 image to POST {vision}/predict. The vision
// service wraps its payload in {success, data}.
func (c *HTTPClient) DetectImage(ctx context.Context, req models.ImageDetectionRequest) (*models.PredictionResult, error) {
	payload := visionRequest{Image: req.ImageURL, CatInfo: req.CatInfo}

	body, err := c.post(ctx, "Vision service", c.visionURL+"/predict", payload)
	if err != nil {
		return nil, err
	}

	var vr visionResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !vr.Success {
		msg := vr.Error
		if msg == "" {
			msg = "Vision service prediction failed"
		}
		return nil, fmt.Errorf("%w: %s", ErrPredictionFailed, msg)
	}
	if vr.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrInvalidResponse)
	}
	if vr.Data.ActiveSymptoms == nil {
		vr.Data.ActiveSymptoms = []string{vr.Data.PredictedDisease}
	}
	return vr.Data, nil
}

// Health probes GET {tabular}/health and returns the decoded body.
func (c *HTTPClient) Health(ctx context.Context) (map[string]any, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tabularURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError("ML service", resp)
	}

	var details map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, nil
	}
	return details, nil
}

func (c *HTTPClient) post(ctx context.Context, service, url string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(service, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyError(err)
	}
	return body, nil
}

func newStatusError(service string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: connection refused: %v", ErrUnavailable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

type visionRequest struct {
	Image   string          `json:"image"`
	CatInfo json.RawMessage `json:"cat_info,omitempty"`
}

type visionResponse struct {
	Success bool                     `json:"success"`
	Error   string                   `json:"error"`
	Data    *models.PredictionResult `json:"data"`
}

// Compile-time check that HTTPClient implements SymptomPredictor.
var _ models.SymptomPredictor = (*HTTPClient)(nil)
