package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the lifecycle of the chatbot backend handle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

var (
	// ErrInitializing means another caller is bringing the backend up.
	ErrInitializing = errors.New("chatbot is initializing")
	// ErrNotReady means initialization was attempted and failed.
	ErrNotReady = errors.New("chatbot is not available")
)

// InitFunc builds a working Assistant or explains why it cannot.
type InitFunc func(ctx context.Context) (*Assistant, error)

// Status is a snapshot of the gateway.
type Status struct {
	State    State
	Reason   string
	Provider string
	Model    string
}

// Gateway guards the chatbot handle. Initialization runs at most once at a
// time; a failed or never-run initialization is retried by the next caller.
type Gateway struct {
	init        InitFunc
	initTimeout time.Duration

	mu        sync.Mutex
	state     State
	reason    error
	assistant *Assistant
}

func NewGateway(init InitFunc, initTimeout time.Duration) *Gateway {
	return &Gateway{init: init, initTimeout: initTimeout, state: StateUninitialized}
}

// Start initializes in the background.
func (g *Gateway) Start() {
	if !g.begin() {
		return
	}
	go g.run(context.Background())
}

// Ensure returns the assistant, initializing synchronously when the handle is
// not ready and nobody else is initializing.
func (g *Gateway) Ensure(ctx context.Context) (*Assistant, error) {
	g.mu.Lock()
	switch g.state {
	case StateReady:
		a := g.assistant
		g.mu.Unlock()
		return a, nil
	case StateInitializing:
		g.mu.Unlock()
		return nil, ErrInitializing
	}
	g.state = StateInitializing
	g.reason = nil
	g.mu.Unlock()

	return g.run(ctx)
}

// Status reports the current state without triggering initialization.
func (g *Gateway) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := Status{State: g.state}
	if g.reason != nil {
		st.Reason = g.reason.Error()
	}
	if g.assistant != nil {
		st.Provider = g.assistant.Provider
		st.Model = g.assistant.Model
	}
	return st
}

// Reply answers message for sessionID once the backend is ready.
func (g *Gateway) Reply(ctx context.Context, sessionID, message string) (string, error) {
	a, err := g.Ensure(ctx)
	if err != nil {
		return "", err
	}
	return a.Reply(ctx, sessionID, message)
}

func (g *Gateway) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateInitializing || g.state == StateReady {
		return false
	}
	g.state = StateInitializing
	g.reason = nil
	return true
}

func (g *Gateway) run(ctx context.Context) (*Assistant, error) {
	if g.initTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.initTimeout)
		defer cancel()
	}

	slog.Info("chatbot initialization started")
	a, err := g.init(ctx)
	if err == nil && a == nil {
		err = errors.New("initializer returned no assistant")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state = StateFailed
		g.reason = err
		g.assistant = nil
		slog.Error("chatbot initialization failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	g.state = StateReady
	g.assistant = a
	slog.Info("chatbot initialized", "provider", a.Provider, "model", a.Model)
	return a, nil
}
