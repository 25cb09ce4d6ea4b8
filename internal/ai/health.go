package ai

import (
	"context"
	"errors"
	"time"

	"github.com/purrpal/purrpal/internal/ml"
	"github.com/purrpal/purrpal/pkg/models"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusOffline   = "offline"
	StatusDegraded  = "degraded"
)

// ServiceHealth is the probe result for one ML service.
type ServiceHealth struct {
	URL     string         `json:"url"`
	Status  string         `json:"status"`
	Details map[string]any `json:"details"`
	Error   string         `json:"error,omitempty"`
}

// HealthReport aggregates every probed ML service.
type HealthReport struct {
	OverallStatus string                   `json:"overall_status"`
	Services      map[string]ServiceHealth `json:"services"`
	Timestamp     time.Time                `json:"timestamp"`
}

// HealthChecker probes the ML backends.
type HealthChecker struct {
	predictor  models.SymptomPredictor
	tabularURL string
	now        func() time.Time
}

func NewHealthChecker(predictor models.SymptomPredictor, tabularURL string) *HealthChecker {
	return &HealthChecker{predictor: predictor, tabularURL: tabularURL, now: time.Now}
}

// Check probes the tabular service. A reachable service answering non-2xx is
// unhealthy; an unreachable one is offline.
func (h *HealthChecker) Check(ctx context.Context) HealthReport {
	svc := ServiceHealth{URL: h.tabularURL}

	details, err := h.predictor.Health(ctx)
	var statusErr *ml.StatusError
	switch {
	case err == nil:
		svc.Status = StatusHealthy
		svc.Details = details
	case errors.As(err, &statusErr):
		svc.Status = StatusUnhealthy
	default:
		svc.Status = StatusOffline
		svc.Error = err.Error()
	}

	services := map[string]ServiceHealth{"tabular_service": svc}
	return HealthReport{
		OverallStatus: overallStatus(services),
		Services:      services,
		Timestamp:     h.now().UTC(),
	}
}

func overallStatus(services map[string]ServiceHealth) string {
	allHealthy, anyOnline := true, false
	for _, s := range services {
		if s.Status != StatusHealthy {
			allHealthy = false
		}
		if s.Status != StatusOffline {
			anyOnline = true
		}
	}
	switch {
	case allHealthy:
		return StatusHealthy
	case anyOnline:
		return StatusDegraded
	}
	return StatusOffline
}
