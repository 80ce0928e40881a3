package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"calistenia/internal/config"
	"calistenia/internal/pkg/limiter"
	apperrors "calistenia/pkg/errors"

	"github.com/go-redis/redis_rate/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoer struct {
	status   int
	body     string
	lastReq  *http.Request
	lastBody []byte
	err      error
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.lastReq = req
	if req.Body != nil {
		f.lastBody, _ = io.ReadAll(req.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

type fakeLimiter struct {
	denied bool
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	if f.denied {
		return limiter.ErrRateLimited
	}
	return nil
}

func newTestCoach(doer *fakeDoer, lim *fakeLimiter) *ServiceCoach {
	return &ServiceCoach{
		cfg: &config.Config{
			OpenAIAPIKey:  "test-key",
			OpenAIBaseURL: "https://llm.example/v1",
		},
		limiter: lim,
		client:  doer,
	}
}

func TestCoachAsk(t *testing.T) {
	doer := &fakeDoer{
		status: http.StatusOK,
		body:   `{"choices":[{"message":{"role":"assistant","content":"¡Dale con las dominadas! 💪"}}]}`,
	}
	coach := newTestCoach(doer, &fakeLimiter{})

	answer, err := coach.Ask(context.Background(), "user-1", "¿cómo progreso a muscle up?")
	require.NoError(t, err)
	assert.Equal(t, "¡Dale con las dominadas! 💪", answer)

	require.NotNil(t, doer.lastReq)
	assert.Equal(t, "https://llm.example/v1/chat/completions", doer.lastReq.URL.String())
	assert.Equal(t, "Bearer test-key", doer.lastReq.Header.Get("Authorization"))

	var sent chatRequest
	require.NoError(t, json.Unmarshal(doer.lastBody, &sent))
	assert.Equal(t, "gpt-4o", sent.Model)
	assert.Equal(t, 600, sent.MaxTokens)
	assert.InDelta(t, 0.7, sent.Temperature, 1e-9)
	require.Len(t, sent.Messages, 2)
	assert.Equal(t, "system", sent.Messages[0].Role)
	assert.Contains(t, sent.Messages[1].Content, "muscle up")
}

func TestCoachAskRateLimited(t *testing.T) {
	coach := newTestCoach(&fakeDoer{status: http.StatusOK}, &fakeLimiter{denied: true})

	_, err := coach.Ask(context.Background(), "user-1", "hola")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrRateLimited, apperrors.CodeOf(err))
}

func TestCoachAskUpstreamError(t *testing.T) {
	doer := &fakeDoer{status: http.StatusInternalServerError, body: `{"error":"boom"}`}
	coach := newTestCoach(doer, &fakeLimiter{})

	_, err := coach.Ask(context.Background(), "user-1", "hola")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrService, apperrors.CodeOf(err))
}

func TestCoachDisabledWithoutKey(t *testing.T) {
	coach := newTestCoach(&fakeDoer{}, &fakeLimiter{})
	coach.cfg = &config.Config{}

	assert.False(t, coach.Enabled())
	_, err := coach.Ask(context.Background(), "user-1", "hola")
	assert.Error(t, err)
}

func TestCoachEmptyChoices(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"choices":[]}`}
	coach := newTestCoach(doer, &fakeLimiter{})

	_, err := coach.EnhanceRoutine(context.Background(), "Pecho y tríceps", "flexiones 4x12")
	require.Error(t, err)
}
