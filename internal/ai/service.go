package ai

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/purrpal/purrpal/internal/events"
	"github.com/purrpal/purrpal/internal/metrics"
	"github.com/purrpal/purrpal/pkg/models"
)

const (
	msgMissingFields  = "Missing required fields: cat_info and questionnaire"
	msgMissingCatInfo = "Missing required cat_info field: "
	msgMissingImage   = "No image data provided"
)

// Gateway validates diagnosis requests and relays them to the ML backend.
// It holds no per-request state and never retries.
type Gateway struct {
	predictor models.SymptomPredictor
	publisher events.Publisher
}

// NewGateway creates a Gateway. A nil publisher disables diagnosis events.
func NewGateway(predictor models.SymptomPredictor, publisher events.Publisher) *Gateway {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Gateway{predictor: predictor, publisher: publisher}
}

// Backend returns the name of the configured predictor.
func (g *Gateway) Backend() string { return g.predictor.Name() }

// ValidatePrediction checks the request without calling out. The first missing
// cat_info field is reported in the order name, age, gender.
func ValidatePrediction(req *models.PredictionRequest) error {
	if req == nil || req.CatInfo == nil || req.Questionnaire == nil {
		return NewValidationError(msgMissingFields)
	}
	if field := req.CatInfo.MissingField(); field != "" {
		return NewValidationError(msgMissingCatInfo + field)
	}
	return nil
}

// Predict turns a questionnaire into a diagnosis. Every error it returns is a
// *ClassifiedError.
func (g *Gateway) Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResult, error) {
	if err := ValidatePrediction(req); err != nil {
		return nil, err
	}

	slog.Info("prediction request started", "backend", g.predictor.Name())
	slog.Info("prediction cat info",
		"name", req.CatInfo.Name,
		"age", req.CatInfo.Age,
		"gender", req.CatInfo.Gender,
	)
	slog.Info("prediction questionnaire", "keys", questionnaireKeys(req.Questionnaire))

	start := time.Now()
	result, err := g.predictor.PredictSymptoms(ctx, *req)
	if err != nil {
		ce := Classify(err)
		metrics.RecordPrediction("questionnaire", string(ce.Kind), time.Since(start))
		slog.Error("prediction failed", "kind", ce.Kind, "error", err)
		return nil, ce
	}
	metrics.RecordPrediction("questionnaire", "success", time.Since(start))

	slog.Info("prediction received",
		"disease", result.PredictedDisease,
		"confidence", result.Confidence,
	)
	g.publish(ctx, "questionnaire", req.CatInfo.Name, result)

	return result, nil
}

// DetectImage runs the vision backend over a base64 image.
func (g *Gateway) DetectImage(ctx context.Context, req *models.ImageDetectionRequest) (*models.PredictionResult, error) {
	if req == nil || req.ImageURL == "" {
		return nil, NewValidationError(msgMissingImage)
	}

	slog.Info("image detection started", "backend", g.predictor.Name(), "image_bytes", len(req.ImageURL))

	start := time.Now()
	result, err := g.predictor.DetectImage(ctx, *req)
	if err != nil {
		ce := Classify(err).WithService("Vision service",
			"The computer vision service is not responding. This might be a temporary issue.")
		metrics.RecordPrediction("image", string(ce.Kind), time.Since(start))
		slog.Error("image detection failed", "kind", ce.Kind, "error", err)
		return nil, ce
	}
	metrics.RecordPrediction("image", "success", time.Since(start))

	slog.Info("image detection received",
		"disease", result.PredictedDisease,
		"confidence", result.Confidence,
	)
	g.publish(ctx, "image", "", result)

	return result, nil
}

func (g *Gateway) publish(ctx context.Context, source, catName string, result *models.PredictionResult) {
	ev := events.DiagnosisCompleted{
		Source:           source,
		CatName:          catName,
		PredictedDisease: result.PredictedDisease,
		Confidence:       result.Confidence,
		ActiveSymptoms:   result.ActiveSymptoms,
		OccurredAt:       time.Now().UTC(),
	}
	if err := g.publisher.PublishDiagnosis(ctx, ev); err != nil {
		slog.Warn("publishing diagnosis event failed", "error", err)
	}
}

func questionnaireKeys(q map[string]bool) []string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
