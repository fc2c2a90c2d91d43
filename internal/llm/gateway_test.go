package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	provider string
	phase    string
	success  bool
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) ObserveGatewayCall(provider, phase string, success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{provider: provider, phase: phase, success: success})
}

func TestSplitSystem(t *testing.T) {
	req := Request{
		SystemPrompt: "base",
		Messages: []Message{
			{Role: RoleSystem, Content: "extra"},
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, Content: "hi"},
		},
	}

	system, history := splitSystem(req)

	assert.Equal(t, "base\n\nextra", system)
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, RoleAssistant, history[1].Role)
}

func TestWrapErrorDoesNotDoubleWrap(t *testing.T) {
	base := errors.New("boom")
	first := wrapError(ProviderOpenAI, Request{Phase: "planning"}, base)
	second := wrapError(ProviderAnthropic, Request{Phase: "content"}, first)

	var gwErr *GatewayError
	require.ErrorAs(t, second, &gwErr)
	assert.Equal(t, ProviderOpenAI, gwErr.Provider)
	assert.Equal(t, "planning", gwErr.Phase)
	assert.ErrorIs(t, second, base)
	assert.Contains(t, second.Error(), "during planning")
	assert.Nil(t, wrapError(ProviderOpenAI, Request{}, nil))
}

func TestWithTimeoutReportsGatewayTimeout(t *testing.T) {
	slow := GatewayFunc(func(ctx context.Context, _ Request) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	})

	gw := WithTimeout(slow, 20*time.Millisecond)
	_, err := gw.Generate(context.Background(), Request{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeoutKeepsParentCancellation(t *testing.T) {
	blocked := GatewayFunc(func(ctx context.Context, _ Request) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithTimeout(blocked, time.Second).Generate(ctx, Request{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrGatewayTimeout)
}

func TestWithTimeoutDisabled(t *testing.T) {
	inner := GatewayFunc(func(context.Context, Request) (Response, error) {
		return Response{Text: "ok"}, nil
	})

	resp, err := WithTimeout(inner, 0).Generate(context.Background(), Request{})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

func TestInstrumentRecordsEveryCall(t *testing.T) {
	recorder := &fakeRecorder{}
	fail := true
	inner := GatewayFunc(func(context.Context, Request) (Response, error) {
		if fail {
			return Response{}, errors.New("nope")
		}
		return Response{Text: "ok"}, nil
	})

	gw := Instrument(inner, ProviderOllama, recorder)

	_, err := gw.Generate(context.Background(), Request{Phase: "planning"})
	require.Error(t, err)

	fail = false
	resp, err := gw.Generate(context.Background(), Request{Phase: "content"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)

	require.Len(t, recorder.calls, 2)
	assert.Equal(t, recordedCall{ProviderOllama, "planning", false}, recorder.calls[0])
	assert.Equal(t, recordedCall{ProviderOllama, "content", true}, recorder.calls[1])
}

func TestNewGateway(t *testing.T) {
	for _, provider := range []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama} {
		t.Run(provider, func(t *testing.T) {
			gw, err := NewGateway(Config{Provider: provider, Model: "m", APIKey: "k", CallTimeout: time.Second}, &fakeRecorder{})
			require.NoError(t, err)
			assert.NotNil(t, gw)
		})
	}

	_, err := NewGateway(Config{Provider: "mystery"}, nil)
	assert.Error(t, err)
}
