package mock

import (
	"context"
	"encoding/json"

	"github.com/purrpal/purrpal/internal/ml"
	"github.com/purrpal/purrpal/pkg/models"
	"github.com/tmc/langchaingo/llms"
)

// MockPredictor satisfies models.SymptomPredictor for tests and offline runs.
type MockPredictor struct {
	Name_       string
	PredictFunc func(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error)
	DetectFunc  func(ctx context.Context, req models.ImageDetectionRequest) (*models.PredictionResult, error)
	HealthFunc  func(ctx context.Context) (map[string]any, error)
}

func (m *MockPredictor) Name() string { return m.Name_ }

func (m *MockPredictor) PredictSymptoms(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, req)
	}
	return &models.PredictionResult{}, nil
}

func (m *MockPredictor) DetectImage(ctx context.Context, req models.ImageDetectionRequest) (*models.PredictionResult, error) {
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, req)
	}
	return &models.PredictionResult{}, nil
}

func (m *MockPredictor) Health(ctx context.Context) (map[string]any, error) {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil, nil
}

// NewMockPredictor returns a MockPredictor with deterministic responses: the
// active symptoms are the questionnaire keys answered true, in questionnaire order.
func NewMockPredictor() *MockPredictor {
	return &MockPredictor{
		Name_: "mock",
		PredictFunc: func(_ context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
			active := []string{}
			for _, k := range models.SymptomKeys() {
				if req.Questionnaire[string(k)] {
					active = append(active, string(k))
				}
			}
			disease, confidence := "Healthy", 95.0
			if len(active) > 0 {
				disease, confidence = "Upper Respiratory Infection", 72.5
			}
			var catInfo json.RawMessage
			if req.CatInfo != nil {
				filled := req.CatInfo.WithDefaults()
				catInfo, _ = json.Marshal(filled)
			}
			return &models.PredictionResult{
				PredictedDisease:    disease,
				Confidence:          confidence,
				DiagnosisHTML:       "<p>Mock diagnosis for " + disease + "</p>",
				RecommendationsHTML: "<ul><li>Consult a veterinarian</li></ul>",
				Accuracy:            "72.5",
				CatInfo:             catInfo,
				ActiveSymptoms:      active,
				AllProbabilities: map[string]float64{
					disease: confidence,
				},
			}, nil
		},
		DetectFunc: func(_ context.Context, _ models.ImageDetectionRequest) (*models.PredictionResult, error) {
			return &models.PredictionResult{
				PredictedDisease:    "Healthy",
				Confidence:          90,
				DiagnosisHTML:       "<p>Mock image diagnosis</p>",
				RecommendationsHTML: "<ul><li>Keep monitoring</li></ul>",
				Accuracy:            "90.0",
				ActiveSymptoms:      []string{"Healthy"},
			}, nil
		},
		HealthFunc: func(_ context.Context) (map[string]any, error) {
			return map[string]any{"status": "healthy", "model_loaded": true}, nil
		},
	}
}

// NewFailingPredictor returns a MockPredictor whose every call fails with err.
func NewFailingPredictor(err error) *MockPredictor {
	return &MockPredictor{
		Name_: "mock-failing",
		PredictFunc: func(_ context.Context, _ models.PredictionRequest) (*models.PredictionResult, error) {
			return nil, err
		},
		DetectFunc: func(_ context.Context, _ models.ImageDetectionRequest) (*models.PredictionResult, error) {
			return nil, err
		},
		HealthFunc: func(_ context.Context) (map[string]any, error) {
			return nil, err
		},
	}
}

// NewTimeoutPredictor returns a MockPredictor that blocks until ctx is done.
func NewTimeoutPredictor() *MockPredictor {
	return &MockPredictor{
		Name_: "mock-timeout",
		PredictFunc: func(ctx context.Context, _ models.PredictionRequest) (*models.PredictionResult, error) {
			<-ctx.Done()
			return nil, ml.ErrTimeout
		},
		DetectFunc: func(ctx context.Context, _ models.ImageDetectionRequest) (*models.PredictionResult, error) {
			<-ctx.Done()
			return nil, ml.ErrTimeout
		},
		HealthFunc: func(ctx context.Context) (map[string]any, error) {
			<-ctx.Done()
			return nil, ml.ErrTimeout
		},
	}
}

// MockLLM satisfies llms.Model for chatbot tests.
type MockLLM struct {
	GenerateFunc func(ctx context.Context, messages []llms.MessageContent) (string, error)
}

func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	text := "Meong! Ini jawaban uji."
	if m.GenerateFunc != nil {
		var err error
		text, err = m.GenerateFunc(ctx, messages)
		if err != nil {
			return nil, err
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}, nil
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Compile-time checks.
var (
	_ models.SymptomPredictor = (*MockPredictor)(nil)
	_ llms.Model              = (*MockLLM)(nil)
)
