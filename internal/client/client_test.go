package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/purrpal/purrpal/internal/ai"
	"github.com/purrpal/purrpal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.URL, 5*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestLogin_StoresToken(t *testing.T) {
	c := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mira@example.com", body["email"])
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"token": "tok-123"}})
	})

	token, err := c.Login(context.Background(), "mira@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "tok-123", c.Token())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid credentials", "code": "INVALID_CREDENTIALS"})
	})

	_, err := c.Login(context.Background(), "mira@example.com", "nope")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestPredict_SendsBearerAndDecodesResult(t *testing.T) {
	c := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/ai/predict-symptoms", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"predicted_disease": "Bronchitis",
			"confidence":        82.5,
			"active_symptoms":   []string{"cough"},
		}})
	})
	c.SetToken("tok-123")

	result, err := c.Predict(context.Background(), &models.PredictionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Bronchitis", result.PredictedDisease)
	assert.Equal(t, 82.5, result.Confidence)
}

func TestPredict_RequiresToken(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second)
	_, err := c.Predict(context.Background(), &models.PredictionRequest{})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestPredict_ClassifiedErrorRoundTrip(t *testing.T) {
	c := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success":     false,
			"error":       "ML service is currently unavailable. Please try again later.",
			"code":        "SERVICE_UNAVAILABLE",
			"details":     "The machine learning service is not responding.",
			"suggestions": []string{"Try again in a few minutes"},
		})
	})
	c.SetToken("tok")

	_, err := c.Predict(context.Background(), &models.PredictionRequest{})
	var ce *ai.ClassifiedError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ai.KindServiceUnavailable, ce.Kind)
	assert.Equal(t, "ML service is currently unavailable. Please try again later.", ce.Message)
	assert.Equal(t, "The machine learning service is not responding.", ce.Detail)
	assert.Equal(t, []string{"Try again in a few minutes"}, ce.Suggestions)
}

func TestPredict_ServerUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New(url, time.Second)
	c.SetToken("tok")
	_, err := c.Predict(context.Background(), &models.PredictionRequest{})
	require.Error(t, err)

	var ce *ai.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ai.KindServiceUnavailable, ce.Kind)
	assert.Equal(t, "Layanan diagnosis sedang tidak tersedia. Silakan coba lagi nanti.", ce.Message)
	assert.NotContains(t, strings.ToLower(ce.Message), "chatbot")
	assert.Len(t, ce.Suggestions, 3)
}

func TestAIHealth(t *testing.T) {
	c := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"overall_status": "degraded",
			"services": map[string]any{
				"tabular_service": map[string]any{"url": "http://ml:8001", "status": "unhealthy"},
			},
		}})
	})

	report, err := c.AIHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "degraded", report.OverallStatus)
	assert.Equal(t, "unhealthy", report.Services["tabular_service"].Status)
}

func TestNonJSONBody(t *testing.T) {
	c := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := c.AIHealth(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}
