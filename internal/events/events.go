package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectDiagnosisCompleted is published after every successful diagnosis.
const SubjectDiagnosisCompleted = "purrpal.diagnosis.completed"

// DiagnosisCompleted describes a finished diagnosis. It carries no owner identity.
type DiagnosisCompleted struct {
	Source           string    `json:"source"`
	CatName          string    `json:"cat_name"`
	PredictedDisease string    `json:"predicted_disease"`
	Confidence       float64   `json:"confidence"`
	ActiveSymptoms   []string  `json:"active_symptoms"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// Publisher emits domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishDiagnosis(ctx context.Context, ev DiagnosisCompleted) error
	Close() error
}

// NATSPublisher publishes events as JSON on core NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to url. Reconnects are unbounded so a NATS restart
// never takes the API down.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("purrpal-api"),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	slog.Info("connected to nats", "url", conn.ConnectedUrl())
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) PublishDiagnosis(_ context.Context, ev DiagnosisCompleted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(SubjectDiagnosisCompleted, data); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectDiagnosisCompleted, err)
	}
	return nil
}

// Close drains pending messages before closing the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// Nop discards every event. Used when NATS_URL is unset.
type Nop struct{}

func (Nop) PublishDiagnosis(context.Context, DiagnosisCompleted) error { return nil }
func (Nop) Close() error { return nil }

// Recorder keeps published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []DiagnosisCompleted
	Err    error
}

func (r *Recorder) PublishDiagnosis(_ context.Context, ev DiagnosisCompleted) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []DiagnosisCompleted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DiagnosisCompleted(nil), r.events...)
}

func (r *Recorder) Close() error { return nil }

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = Nop{}
	_ Publisher = (*Recorder)(nil)
)
