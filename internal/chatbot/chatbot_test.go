package chatbot_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/purrpal/purrpal/internal/ai/mock"
	cachemock "github.com/purrpal/purrpal/internal/cache/mock"
	"github.com/purrpal/purrpal/internal/chatbot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func newAssistant(llm llms.Model, c *cachemock.MemoryCache) *chatbot.Assistant {
	return chatbot.NewAssistant(llm, chatbot.NewHistory(c, time.Hour), time.Second, "mock", "mock-model")
}

// --- History ---

func TestHistory_AppendAndClear(t *testing.T) {
	ctx := context.Background()
	h := chatbot.NewHistory(cachemock.NewMemoryCache(), time.Hour)

	require.NoError(t, h.Append(ctx, "s1",
		chatbot.Message{Role: chatbot.RoleUser, Content: "halo"},
		chatbot.Message{Role: chatbot.RoleAssistant, Content: "meong"},
	))

	msgs, err := h.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "halo", msgs[0].Content)
	assert.Equal(t, chatbot.RoleAssistant, msgs[1].Role)

	other, err := h.Messages(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, h.Clear(ctx, "s1"))
	msgs, err = h.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHistory_Expires(t *testing.T) {
	ctx := context.Background()
	c := cachemock.NewMemoryCache()
	h := chatbot.NewHistory(c, time.Minute)

	require.NoError(t, h.Append(ctx, "s1", chatbot.Message{Role: chatbot.RoleUser, Content: "halo"}))
	c.Advance(2 * time.Minute)

	msgs, err := h.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHistory_Capped(t *testing.T) {
	ctx := context.Background()
	h := chatbot.NewHistory(cachemock.NewMemoryCache(), time.Hour)

	for i := 0; i < 50; i++ {
		require.NoError(t, h.Append(ctx, "s1", chatbot.Message{Role: chatbot.RoleUser, Content: "x"}))
	}
	msgs, err := h.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, msgs, 40)
}

// --- Assistant ---

func TestAssistant_ReplyUsesHistory(t *testing.T) {
	ctx := context.Background()
	c := cachemock.NewMemoryCache()

	var seen [][]llms.MessageContent
	llm := &mock.MockLLM{GenerateFunc: func(_ context.Context, msgs []llms.MessageContent) (string, error) {
		seen = append(seen, msgs)
		return "  jawaban  ", nil
	}}
	a := newAssistant(llm, c)

	reply, err := a.Reply(ctx, "s1", "Kucingku batuk")
	require.NoError(t, err)
	assert.Equal(t, "jawaban", reply)

	_, err = a.Reply(ctx, "s1", "Apa yang harus dilakukan?")
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Len(t, seen[0], 2, "system + question")
	assert.Equal(t, llms.ChatMessageTypeSystem, seen[0][0].Role)

	second := seen[1]
	require.Len(t, second, 4, "system + two past turns + question")
	assert.Equal(t, llms.ChatMessageTypeHuman, second[1].Role)
	assert.Equal(t, llms.TextContent{Text: "Kucingku batuk"}, second[1].Parts[0])
	assert.Equal(t, llms.ChatMessageTypeAI, second[2].Role)
	assert.Equal(t, llms.TextContent{Text: "Apa yang harus dilakukan?"}, second[3].Parts[0])
}

func TestAssistant_FailureLeavesHistoryUntouched(t *testing.T) {
	ctx := context.Background()
	c := cachemock.NewMemoryCache()
	llm := &mock.MockLLM{GenerateFunc: func(context.Context, []llms.MessageContent) (string, error) {
		return "", errors.New("connection refused")
	}}
	a := newAssistant(llm, c)

	_, err := a.Reply(ctx, "s1", "halo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	msgs, err := chatbot.NewHistory(c, time.Hour).Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAssistant_EmptyReply(t *testing.T) {
	llm := &mock.MockLLM{GenerateFunc: func(context.Context, []llms.MessageContent) (string, error) {
		return "   ", nil
	}}
	_, err := newAssistant(llm, cachemock.NewMemoryCache()).Reply(context.Background(), "s1", "halo")
	assert.Error(t, err)
}

// --- Gateway ---

func TestGateway_ReadyAfterEnsure(t *testing.T) {
	c := cachemock.NewMemoryCache()
	g := chatbot.NewGateway(func(context.Context) (*chatbot.Assistant, error) {
		return newAssistant(&mock.MockLLM{}, c), nil
	}, time.Second)

	assert.Equal(t, chatbot.StateUninitialized, g.Status().State)

	reply, err := g.Reply(context.Background(), "s1", "halo")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)

	st := g.Status()
	assert.Equal(t, chatbot.StateReady, st.State)
	assert.Equal(t, "mock", st.Provider)
	assert.Equal(t, "mock-model", st.Model)
}

func TestGateway_FailedIsRetriedOnDemand(t *testing.T) {
	c := cachemock.NewMemoryCache()
	var calls atomic.Int32
	g := chatbot.NewGateway(func(context.Context) (*chatbot.Assistant, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("dial tcp: connection refused")
		}
		return newAssistant(&mock.MockLLM{}, c), nil
	}, time.Second)

	_, err := g.Ensure(context.Background())
	require.ErrorIs(t, err, chatbot.ErrNotReady)
	st := g.Status()
	assert.Equal(t, chatbot.StateFailed, st.State)
	assert.Contains(t, st.Reason, "connection refused")

	_, err = g.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, chatbot.StateReady, g.Status().State)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGateway_ConcurrentCallersSeeInitializing(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	c := cachemock.NewMemoryCache()
	g := chatbot.NewGateway(func(context.Context) (*chatbot.Assistant, error) {
		close(started)
		<-release
		return newAssistant(&mock.MockLLM{}, c), nil
	}, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := g.Ensure(context.Background())
		assert.NoError(t, err)
	}()
	<-started

	_, err := g.Ensure(context.Background())
	assert.ErrorIs(t, err, chatbot.ErrInitializing)
	assert.Equal(t, chatbot.StateInitializing, g.Status().State)

	close(release)
	wg.Wait()
	assert.Equal(t, chatbot.StateReady, g.Status().State)
}

func TestGateway_StartInitializesInBackground(t *testing.T) {
	c := cachemock.NewMemoryCache()
	done := make(chan struct{})
	g := chatbot.NewGateway(func(context.Context) (*chatbot.Assistant, error) {
		defer close(done)
		return newAssistant(&mock.MockLLM{}, c), nil
	}, time.Second)

	g.Start()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background initialization did not run")
	}

	assert.Eventually(t, func() bool {
		return g.Status().State == chatbot.StateReady
	}, time.Second, 10*time.Millisecond)
}
