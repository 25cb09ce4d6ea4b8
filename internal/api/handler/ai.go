package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/purrpal/purrpal/internal/ai"
	"github.com/purrpal/purrpal/internal/api/response"
	"github.com/purrpal/purrpal/pkg/models"
)

// bodyLimit matches what a phone camera data URL needs.
const bodyLimit = 50 << 20

// Predictor is the part of ai.Gateway the AI handlers depend on.
type Predictor interface {
	Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResult, error)
	DetectImage(ctx context.Context, req *models.ImageDetectionRequest) (*models.PredictionResult, error)
}

// HealthChecker probes the ML services.
type HealthChecker interface {
	Check(ctx context.Context) ai.HealthReport
}

// NewPredictHandler returns an http.HandlerFunc for POST /api/ai/predict-symptoms.
func NewPredictHandler(p Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.PredictionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, bodyLimit)).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		result, err := p.Predict(r.Context(), &req)
		if err != nil {
			writeClassified(w, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewDetectImageHandler returns an http.HandlerFunc for POST /api/ai/detect-image.
func NewDetectImageHandler(p Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ImageDetectionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, bodyLimit)).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		result, err := p.DetectImage(r.Context(), &req)
		if err != nil {
			writeClassified(w, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewAIHealthHandler returns an http.HandlerFunc for GET /api/ai/health.
func NewAIHealthHandler(h HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, h.Check(r.Context()))
	}
}

// NewAIInfoHandler returns an http.HandlerFunc for GET /api/ai/info.
func NewAIInfoHandler() http.HandlerFunc {
	symptoms := make(map[string]string, len(models.SymptomKeys()))
	for _, k := range models.SymptomKeys() {
		symptoms[string(k)] = "boolean (required)"
	}

	info := map[string]any{
		"services": map[string]any{
			"tabular_prediction": map[string]any{
				"name":        "Symptoms-based Disease Prediction",
				"description": "Predicts cat diseases based on observed symptoms and cat information",
				"endpoint":    "/api/ai/predict-symptoms",
				"method":      http.MethodPost,
				"status":      "available",
				"input_format": map[string]any{
					"cat_info": map[string]string{
						"name":             "string (required)",
						"age":              `string (required, e.g., "2 tahun")`,
						"gender":           `string (required, "male" or "female")`,
						"weight":           "number (optional, default: 4.0)",
						"body_temperature": "number (optional, default: 38.5)",
						"duration_days":    "number (optional, default: 3)",
						"heart_rate":       "number (optional, default: 120)",
					},
					"questionnaire": symptoms,
				},
			},
			"image_detection": map[string]any{
				"name":        "Image-based Detection",
				"description": "Analyzes cat images for visible symptoms",
				"endpoint":    "/api/ai/detect-image",
				"method":      http.MethodPost,
				"status":      "available",
				"input_format": map[string]string{
					"image_url": "string (required, base64 data URL)",
					"cat_info":  "object (optional)",
				},
			},
		},
		"health_check": "/api/ai/health",
	}

	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, info)
	}
}

// writeClassified renders any error from the AI path as a classified envelope.
func writeClassified(w http.ResponseWriter, err error) {
	var ce *ai.ClassifiedError
	if !errors.As(err, &ce) {
		ce = ai.Classify(err)
	}
	response.Classified(w, ce)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
