package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"calistenia/internal/config"
	"calistenia/internal/interfaces"
	"calistenia/internal/pkg/limiter"
	apperrors "calistenia/pkg/errors"
	"calistenia/pkg/logger"

	"github.com/go-redis/redis_rate/v10"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/samber/do"
)

// Doer is the one HTTP method the coach needs; heimdall satisfies it
// in production, tests hand in a fake.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ServiceCoach answers !calistenico questions through an
// OpenAI-compatible chat completion endpoint.
type ServiceCoach struct {
	container *do.Injector
	cfg       *config.Config
	limiter   interfaces.Limiter
	client    Doer
}

var coachLimit = redis_rate.Limit{Rate: 3, Burst: 3, Period: time.Minute}

func NewServiceCoach(container *do.Injector) (*ServiceCoach, error) {
	cfg, err := do.Invoke[*config.Config](container)
	if err != nil {
		return nil, err
	}
	lim, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(20*time.Second),
		httpclient.WithRetryCount(2),
	)

	return &ServiceCoach{
		container: container,
		cfg:       cfg,
		limiter:   lim,
		client:    client,
	}, nil
}

func (s *ServiceCoach) Enabled() bool {
	return s.cfg.OpenAIAPIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Ask answers one member question. Rate limited per user so a single
// member cannot drain the API budget.
func (s *ServiceCoach) Ask(ctx context.Context, userID, question string) (string, error) {
	if !s.Enabled() {
		return "", apperrors.New(apperrors.ErrService, "coach is not configured", nil)
	}
	if err := s.limiter.Allow(ctx, LimitKeyCoach(userID), coachLimit); err != nil {
		if errors.Is(err, limiter.ErrRateLimited) {
			return "", apperrors.New(apperrors.ErrRateLimited, "too many questions, slow down", err)
		}
		return "", apperrors.New(apperrors.ErrService, "rate limit check", err)
	}
	return s.complete(ctx, question)
}

// EnhanceRoutine rewrites a raw routine row into a motivational post.
// Callers fall back to the raw text when this fails.
func (s *ServiceCoach) EnhanceRoutine(ctx context.Context, title, description string) (string, error) {
	prompt := fmt.Sprintf(
		"Escribe la publicación de la rutina de hoy para el canal de la academia. Título: %q. Ejercicios: %s. "+
			"Formato: título en negrita, lista de ejercicios y un cierre motivador corto.",
		title, description)
	return s.complete(ctx, prompt)
}

func (s *ServiceCoach) complete(ctx context.Context, userContent string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: "gpt-4o",
		Messages: []chatMessage{
			{Role: "system", Content: coachSystemPrompt},
			{Role: "user", Content: userContent},
		},
		MaxTokens:   600,
		Temperature: 0.7,
	})
	if err != nil {
		return "", apperrors.New(apperrors.ErrService, "encode chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.OpenAIBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.New(apperrors.ErrService, "build chat request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.OpenAIAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperrors.New(apperrors.ErrService, "chat completion request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.New(apperrors.ErrService, "read chat response", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.WithFields(map[string]interface{}{"status": resp.StatusCode}).Error("coach: api error")
		return "", apperrors.New(apperrors.ErrService, fmt.Sprintf("chat completion status %d", resp.StatusCode), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperrors.New(apperrors.ErrService, "decode chat response", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", apperrors.New(apperrors.ErrService, "chat completion returned no choices", nil)
	}
	return parsed.Choices[0].Message.Content, nil
}

// FallbackReply is the canned answer when the coach misfires.
func FallbackReply() string {
	return msgCoachOffline
}
