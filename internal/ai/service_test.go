package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/purrpal/purrpal/internal/ai"
	"github.com/purrpal/purrpal/internal/ai/mock"
	"github.com/purrpal/purrpal/internal/events"
	"github.com/purrpal/purrpal/internal/ml"
	"github.com/purrpal/purrpal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func fullQuestionnaire(trueKeys ...string) map[string]bool {
	q := make(map[string]bool)
	for _, k := range models.SymptomKeys() {
		q[string(k)] = false
	}
	for _, k := range trueKeys {
		q[k] = true
	}
	return q
}

func validRequest() *models.PredictionRequest {
	return &models.PredictionRequest{
		CatInfo:       &models.CatProfile{Name: "Milo", Age: "2 tahun", Gender: models.GenderMale},
		Questionnaire: fullQuestionnaire("cough"),
	}
}

// countingPredictor records how many outbound calls the gateway made.
func countingPredictor(calls *atomic.Int32, inner *mock.MockPredictor) *mock.MockPredictor {
	return &mock.MockPredictor{
		Name_: inner.Name_,
		PredictFunc: func(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
			calls.Add(1)
			return inner.PredictSymptoms(ctx, req)
		},
		DetectFunc: func(ctx context.Context, req models.ImageDetectionRequest) (*models.PredictionResult, error) {
			calls.Add(1)
			return inner.DetectImage(ctx, req)
		},
	}
}

// --- validation ---

func TestPredict_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  *models.PredictionRequest
	}{
		{"nil request", nil},
		{"no cat_info", &models.PredictionRequest{Questionnaire: fullQuestionnaire()}},
		{"no questionnaire", &models.PredictionRequest{CatInfo: &models.CatProfile{Name: "Milo", Age: "2", Gender: "male"}}},
		{"neither", &models.PredictionRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			gw := ai.NewGateway(countingPredictor(&calls, mock.NewMockPredictor()), nil)

			_, err := gw.Predict(context.Background(), tt.req)

			var ce *ai.ClassifiedError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, ai.KindValidation, ce.Kind)
			assert.Equal(t, "Missing required fields: cat_info and questionnaire", ce.Message)
			assert.Zero(t, calls.Load(), "validation must fail before any outbound call")
		})
	}
}

func TestPredict_MissingCatInfoFieldInOrder(t *testing.T) {
	tests := []struct {
		name    string
		profile models.CatProfile
		field   string
	}{
		{"all missing reports name", models.CatProfile{}, "name"},
		{"age and gender missing reports age", models.CatProfile{Name: "Milo"}, "age"},
		{"only gender missing", models.CatProfile{Name: "Milo", Age: "2 tahun"}, "gender"},
		{"name missing reports name", models.CatProfile{Age: "2 tahun", Gender: "female"}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			gw := ai.NewGateway(countingPredictor(&calls, mock.NewMockPredictor()), nil)

			profile := tt.profile
			_, err := gw.Predict(context.Background(), &models.PredictionRequest{
				CatInfo:       &profile,
				Questionnaire: fullQuestionnaire(),
			})

			var ce *ai.ClassifiedError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, ai.KindValidation, ce.Kind)
			assert.Equal(t, "Missing required cat_info field: "+tt.field, ce.Message)
			assert.Zero(t, calls.Load())
		})
	}
}

// --- forwarding ---

func TestPredict_SingleCallNoRetry(t *testing.T) {
	var calls atomic.Int32
	gw := ai.NewGateway(countingPredictor(&calls, mock.NewFailingPredictor(errors.New("boom"))), nil)

	_, err := gw.Predict(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPredict_ConfidencePassesThrough(t *testing.T) {
	p := &mock.MockPredictor{
		Name_: "stub",
		PredictFunc: func(_ context.Context, _ models.PredictionRequest) (*models.PredictionResult, error) {
			return &models.PredictionResult{PredictedDisease: "Bronchitis", Confidence: 82.5}, nil
		},
	}
	gw := ai.NewGateway(p, nil)

	result, err := gw.Predict(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 82.5, result.Confidence)
	assert.Equal(t, "Bronchitis", result.PredictedDisease)
}

func TestPredict_ConnectionRefusedIsServiceUnavailable(t *testing.T) {
	client := ml.NewHTTPClient("http://127.0.0.1:1", "http://127.0.0.1:1", 0)
	gw := ai.NewGateway(client, nil)

	_, err := gw.Predict(context.Background(), validRequest())

	var ce *ai.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ai.KindServiceUnavailable, ce.Kind)
	assert.Equal(t, "ML service is currently unavailable. Please try again later.", ce.Message)
}

func TestPredict_Non2xxIsUnknownWithStatusAndBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"invalid questionnaire"}`))
	}))
	defer ts.Close()

	gw := ai.NewGateway(ml.NewHTTPClient(ts.URL, ts.URL, 0), nil)
	_, err := gw.Predict(context.Background(), validRequest())

	var ce *ai.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ai.KindUnknown, ce.Kind)
	assert.Equal(t, "Failed to process prediction request", ce.Message)
	assert.Equal(t, `ML service responded with status 422: {"detail":"invalid questionnaire"}`, ce.Detail)
}

func TestPredict_TimeoutIsClassified(t *testing.T) {
	gw := ai.NewGateway(mock.NewTimeoutPredictor(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gw.Predict(ctx, validRequest())
	assert.True(t, ai.IsKind(err, ai.KindTimeout))
}

// End to end against a stub collaborator.
func TestPredict_EndToEnd(t *testing.T) {
	var forwarded map[string]json.RawMessage
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&forwarded); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"predicted_disease": "Healthy",
			"confidence": 95.0,
			"diagnosis": "<p>OK</p>",
			"recommendations": "<p>None</p>",
			"accuracy": "90",
			"active_symptoms": ["cough"],
			"all_probabilities": {"Healthy": 95.0, "Bronchitis": 5.0}
		}`))
	}))
	defer ts.Close()

	rec := &events.Recorder{}
	gw := ai.NewGateway(ml.NewHTTPClient(ts.URL, ts.URL, 0), rec)

	result, err := gw.Predict(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"cough"}, result.ActiveSymptoms)
	assert.Equal(t, "Healthy", result.PredictedDisease)
	assert.Equal(t, 95.0, result.Confidence)
	assert.Equal(t, "<p>OK</p>", result.DiagnosisHTML)
	assert.Equal(t, "90", result.Accuracy)
	assert.Equal(t, map[string]float64{"Healthy": 95.0, "Bronchitis": 5.0}, result.AllProbabilities)

	var q map[string]bool
	require.NoError(t, json.Unmarshal(forwarded["questionnaire"], &q))
	assert.Len(t, q, 14)
	assert.True(t, q["cough"])

	evs := rec.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "Milo", evs[0].CatName)
	assert.Equal(t, "questionnaire", evs[0].Source)
}

func TestPredict_EventFailureDoesNotFailPrediction(t *testing.T) {
	gw := ai.NewGateway(mock.NewMockPredictor(), &events.Recorder{Err: errors.New("nats down")})

	result, err := gw.Predict(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestPredict_FailureIsNotPublished(t *testing.T) {
	rec := &events.Recorder{}
	gw := ai.NewGateway(mock.NewFailingPredictor(ml.ErrUnavailable), rec)

	_, err := gw.Predict(context.Background(), validRequest())
	require.Error(t, err)
	assert.Empty(t, rec.Events())
}

// --- DetectImage ---

func TestDetectImage_MissingImage(t *testing.T) {
	var calls atomic.Int32
	gw := ai.NewGateway(countingPredictor(&calls, mock.NewMockPredictor()), nil)

	_, err := gw.DetectImage(context.Background(), &models.ImageDetectionRequest{})

	var ce *ai.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ai.KindValidation, ce.Kind)
	assert.Equal(t, "No image data provided", ce.Message)
	assert.Zero(t, calls.Load())
}

func TestDetectImage_UnavailableNamesVisionService(t *testing.T) {
	gw := ai.NewGateway(mock.NewFailingPredictor(ml.ErrUnavailable), nil)

	_, err := gw.DetectImage(context.Background(), &models.ImageDetectionRequest{ImageURL: "data:image/png;base64,AA"})

	var ce *ai.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ai.KindServiceUnavailable, ce.Kind)
	assert.Equal(t, "Vision service is currently unavailable. Please try again later.", ce.Message)
}

func TestDetectImage_Success(t *testing.T) {
	rec := &events.Recorder{}
	gw := ai.NewGateway(mock.NewMockPredictor(), rec)

	result, err := gw.DetectImage(context.Background(), &models.ImageDetectionRequest{ImageURL: "data:image/png;base64,AA"})
	require.NoError(t, err)
	assert.Equal(t, "Healthy", result.PredictedDisease)
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, "image", rec.Events()[0].Source)
}

// --- Health ---

func TestHealthChecker(t *testing.T) {
	tests := []struct {
		name      string
		predictor models.SymptomPredictor
		service   string
		overall   string
	}{
		{"healthy", mock.NewMockPredictor(), ai.StatusHealthy, ai.StatusHealthy},
		{"unhealthy", mock.NewFailingPredictor(&ml.StatusError{Service: "ML service", StatusCode: 503}), ai.StatusUnhealthy, ai.StatusDegraded},
		{"offline", mock.NewFailingPredictor(ml.ErrUnavailable), ai.StatusOffline, ai.StatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ai.NewHealthChecker(tt.predictor, "http://localhost:8001")
			report := h.Check(context.Background())

			svc := report.Services["tabular_service"]
			assert.Equal(t, tt.service, svc.Status)
			assert.Equal(t, "http://localhost:8001", svc.URL)
			assert.Equal(t, tt.overall, report.OverallStatus)
			assert.False(t, report.Timestamp.IsZero())
		})
	}
}

func TestHealthChecker_OfflineKeepsError(t *testing.T) {
	h := ai.NewHealthChecker(mock.NewFailingPredictor(ml.ErrUnavailable), "http://localhost:8001")
	report := h.Check(context.Background())
	assert.Contains(t, report.Services["tabular_service"].Error, "ml service unavailable")
}
