// Package models contains shared data models used across the PurrPal codebase.
package models

import (
	"context"
	"encoding/json"
)

// Gender of the cat being diagnosed.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Defaults applied to optional vitals when the client leaves them unset.
const (
	DefaultWeight          = 4.0
	DefaultBodyTemperature = 38.5
	DefaultDurationDays    = 3
	DefaultHeartRate       = 120
)

// CatProfile describes the cat the questionnaire is about. Name, Age and Gender
// are required; the vitals are optional and defaulted by WithDefaults.
type CatProfile struct {
	Name            string   `json:"name"`
	Age             string   `json:"age"`
	Gender          Gender   `json:"gender"`
	Weight          *float64 `json:"weight,omitempty"`
	BodyTemperature *float64 `json:"body_temperature,omitempty"`
	DurationDays    *int     `json:"duration_days,omitempty"`
	HeartRate       *int     `json:"heart_rate,omitempty"`
}

// WithDefaults returns a copy of p with every unset optional field filled.
func (p CatProfile) WithDefaults() CatProfile {
	if p.Weight == nil {
		w := DefaultWeight
		p.Weight = &w
	}
	if p.BodyTemperature == nil {
		t := DefaultBodyTemperature
		p.BodyTemperature = &t
	}
	if p.DurationDays == nil {
		d := DefaultDurationDays
		p.DurationDays = &d
	}
	if p.HeartRate == nil {
		h := DefaultHeartRate
		p.HeartRate = &h
	}
	return p
}

// MissingField returns the first required field that is empty, checked in the
// order name, age, gender. Returns "" when the profile is complete.
func (p CatProfile) MissingField() string {
	switch {
	case p.Name == "":
		return "name"
	case p.Age == "":
		return "age"
	case p.Gender == "":
		return "gender"
	}
	return ""
}

// PredictionRequest is the body of POST /api/ai/predict-symptoms and of the
// request forwarded to the tabular ML service.
type PredictionRequest struct {
	CatInfo       *CatProfile     `json:"cat_info"`
	Questionnaire map[string]bool `json:"questionnaire"`
}

// PredictionResult is the diagnosis returned by the ML collaborator. The HTML
// fields are rendered by the client as-is.
type PredictionResult struct {
	PredictedDisease    string             `json:"predicted_disease"`
	Confidence          float64            `json:"confidence"`
	DiagnosisHTML       string             `json:"diagnosis"`
	RecommendationsHTML string             `json:"recommendations"`
	Accuracy            string             `json:"accuracy"`
	CatInfo             json.RawMessage    `json:"cat_info,omitempty"`
	ActiveSymptoms      []string           `json:"active_symptoms"`
	AllProbabilities    map[string]float64 `json:"all_probabilities,omitempty"`
}

// ImageDetectionRequest is the body of POST /api/ai/detect-image.
type ImageDetectionRequest struct {
	ImageURL string          `json:"image_url"`
	CatInfo  json.RawMessage `json:"cat_info,omitempty"`
}

// SymptomPredictor is the interface every diagnosis backend implements.
// Handlers and the questionnaire never talk to a concrete ML client directly.
type SymptomPredictor interface {
	// PredictSymptoms turns a complete questionnaire into a diagnosis.
	PredictSymptoms(ctx context.Context, req PredictionRequest) (*PredictionResult, error)
	// DetectImage runs the vision model over a base64 data URL.
	DetectImage(ctx context.Context, req ImageDetectionRequest) (*PredictionResult, error)
	// Health probes the backend. A nil map with a nil error means healthy without details.
	Health(ctx context.Context) (map[string]any, error)
	// Name returns the backend identifier (e.g. "http", "mock").
	Name() string
}
