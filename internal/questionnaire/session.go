// Package questionnaire drives one run of the symptom questionnaire: it tracks
// the answers and the visible question, and submits the completed run once.
package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/purrpal/purrpal/internal/ai"
	"github.com/purrpal/purrpal/pkg/models"
)

// DefaultAdvanceDelay paces the move to the next question after an answer.
const DefaultAdvanceDelay = 500 * time.Millisecond

const (
	msgUnanswered    = "Mohon jawab semua pertanyaan terlebih dahulu"
	msgMissingCatArg = "Mohon lengkapi informasi kucing: "
)

var (
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrRunComplete      = errors.New("run already has a result; restart to diagnose again")
	ErrUnknownSymptom   = errors.New("unknown symptom key")
)

// State is the phase of a questionnaire run.
type State string

const (
	StateCollecting  State = "collecting"
	StateReviewing   State = "reviewing"
	StateSubmitting  State = "submitting"
	StateResultReady State = "result_ready"
	StateErrored     State = "errored"
)

// Predictor turns a complete request into a diagnosis. ai.Gateway and the
// remote API client both satisfy it.
type Predictor interface {
	Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResult, error)
}

// Option configures a Session.
type Option func(*Session)

// WithAdvanceDelay sets the pause before the visible question advances. Zero
// advances immediately.
func WithAdvanceDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// Session is one user's questionnaire. It is safe for concurrent use; no state
// is shared between sessions.
type Session struct {
	predictor Predictor
	keys      []models.SymptomKey
	delay     time.Duration

	mu         sync.Mutex
	profile    models.CatProfile
	answers    map[models.SymptomKey]models.Answer
	index      int
	phase      State // "" while collecting or reviewing
	result     *models.PredictionResult
	err        error
	generation uint64
	timer      *time.Timer
}

// NewSession starts a run for profile at the first question.
func NewSession(profile models.CatProfile, predictor Predictor, opts ...Option) *Session {
	s := &Session{
		predictor: predictor,
		keys:      models.SymptomKeys(),
		delay:     DefaultAdvanceDelay,
		profile:   profile,
		answers:   make(map[models.SymptomKey]models.Answer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys returns the questions in presentation order.
func (s *Session) Keys() []models.SymptomKey {
	out := make([]models.SymptomKey, len(s.keys))
	copy(out, s.keys)
	return out
}

// Answer records v for key, overwriting any earlier answer. Unless the visible
// question is the last one, the index advances by one after the advance delay.
func (s *Session) Answer(key models.SymptomKey, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(key); err != nil {
		return err
	}
	s.answers[key] = models.AnswerOf(v)

	if s.index < len(s.keys)-1 {
		s.scheduleAdvance()
	}
	return nil
}

// Reset retracts the answer to key.
func (s *Session) Reset(key models.SymptomKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(key); err != nil {
		return err
	}
	delete(s.answers, key)
	return nil
}

// GoToPrevious moves the visible question back one step. Answers are kept.
func (s *Session) GoToPrevious() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelAdvance()
	if s.index > 0 {
		s.index--
	}
}

// SetProfile replaces the cat profile for the current run.
func (s *Session) SetProfile(p models.CatProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

// Submit validates the run locally and, when complete, sends it to the
// predictor. Validation failures are *ai.ClassifiedError values of kind
// validation and never reach the predictor. Predictor errors are returned
// unchanged and leave the answers in place for another Submit.
func (s *Session) Submit(ctx context.Context) (*models.PredictionResult, error) {
	s.mu.Lock()
	switch s.phase {
	case StateSubmitting:
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	case StateResultReady:
		s.mu.Unlock()
		return nil, ErrRunComplete
	}

	req, err := s.buildRequest()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.cancelAdvance()
	s.phase = StateSubmitting
	s.err = nil
	gen := s.generation
	s.mu.Unlock()

	result, err := s.predictor.Predict(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// Restarted while the request was in flight.
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	if err != nil {
		s.phase = StateErrored
		s.err = err
		return nil, err
	}
	s.phase = StateResultReady
	s.result = result
	return result, nil
}

// Restart begins a fresh run at the first question with no answers.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelAdvance()
	s.generation++
	s.answers = make(map[models.SymptomKey]models.Answer)
	s.index = 0
	s.phase = ""
	s.result = nil
	s.err = nil
}

// State reports the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// Index returns the visible question index.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the visible question.
func (s *Session) Current() models.SymptomKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[s.index]
}

// AnswerFor returns the recorded answer to key.
func (s *Session) AnswerFor(key models.SymptomKey) models.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers[key]
}

// Unanswered lists the keys still without an answer, in presentation order.
func (s *Session) Unanswered() []models.SymptomKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unanswered()
}

// Result returns the diagnosis once the run is in StateResultReady.
func (s *Session) Result() *models.PredictionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Err returns the last submission error while the run is in StateErrored.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) state() State {
	if s.phase != "" {
		return s.phase
	}
	if s.index == len(s.keys)-1 && len(s.unanswered()) == 0 {
		return StateReviewing
	}
	return StateCollecting
}

// editable allows answer changes while collecting, reviewing or after an error.
func (s *Session) editable(key models.SymptomKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSymptom, key)
	}
	switch s.phase {
	case StateSubmitting:
		return ErrSubmitInProgress
	case StateResultReady:
		return ErrRunComplete
	}
	return nil
}

func (s *Session) unanswered() []models.SymptomKey {
	var out []models.SymptomKey
	for _, k := range s.keys {
		if s.answers[k] == models.Unanswered {
			out = append(out, k)
		}
	}
	return out
}

func (s *Session) buildRequest() (*models.PredictionRequest, error) {
	if len(s.unanswered()) > 0 {
		return nil, ai.NewValidationError(msgUnanswered)
	}
	if field := s.profile.MissingField(); field != "" {
		return nil, ai.NewValidationError(msgMissingCatArg + field)
	}

	q := make(map[string]bool, len(s.keys))
	for _, k := range s.keys {
		v, _ := s.answers[k].Bool()
		q[string(k)] = v
	}
	profile := s.profile.WithDefaults()
	return &models.PredictionRequest{CatInfo: &profile, Questionnaire: q}, nil
}

func (s *Session) scheduleAdvance() {
	s.cancelAdvance()
	if s.delay == 0 {
		s.advance()
		return
	}
	gen := s.generation
	var t *time.Timer
	t = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.timer != t || s.generation != gen {
			return
		}
		s.timer = nil
		s.advance()
	})
	s.timer = t
}

func (s *Session) cancelAdvance() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) advance() {
	if s.index < len(s.keys)-1 {
		s.index++
	}
}
