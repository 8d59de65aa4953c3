package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/decisioniq/decisioniq-api/internal/config"
	"github.com/decisioniq/decisioniq-api/internal/dataset"
)

var ErrModelNotAllowed = errors.New("model is not available")

// NewGenerator builds the generator for the configured provider. It returns
// ErrNotConfigured when the provider's API key is empty.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	if cfg.ModelProvider == "openai" {
		gen, err := NewOpenAIGenerator(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
	gen, err := NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

type Service struct {
	gen          Generator
	defaultModel string
	allowed      []string
	timeout      time.Duration
}

// NewService wires a generator into the prompt contract. gen may be nil, in
// which case every model call fails with ErrNotConfigured.
func NewService(gen Generator, cfg *config.Config) *Service {
	return &Service{
		gen:          gen,
		defaultModel: cfg.DefaultModel(),
		allowed:      cfg.AllowedModels(),
		timeout:      cfg.AITimeout,
	}
}

func (s *Service) Configured() bool {
	return s.gen != nil
}

func (s *Service) Models() []string {
	return s.allowed
}

// ResolveModel maps a requested model name to one that may be used. Blank
// selects the default.
func (s *Service) ResolveModel(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.defaultModel, nil
	}
	if !slices.Contains(s.allowed, name) {
		return "", fmt.Errorf("%w: %s", ErrModelNotAllowed, name)
	}
	return name, nil
}

// Ask answers a free-text query. Malformed replies are recovered into a
// plain-text response; only configuration and upstream failures are errors.
func (s *Service) Ask(ctx context.Context, query, category, model string) (Response, error) {
	model, err := s.ResolveModel(model)
	if err != nil {
		return Response{}, err
	}
	return s.generate(ctx, model, BuildPrompt(query, category))
}

// AnalyzeDataset asks the default model for insights on the uploaded rows.
func (s *Service) AnalyzeDataset(ctx context.Context, rows dataset.Rows) (Response, error) {
	if len(rows) == 0 {
		return Response{}, dataset.ErrEmptyDataset
	}
	prompt, err := BuildDatasetPrompt(rows)
	if err != nil {
		return Response{}, err
	}
	if len(rows) > MaxDatasetRows {
		slog.Info("dataset truncated for analysis", "rows", len(rows), "sent", MaxDatasetRows)
	}
	return s.generate(ctx, s.defaultModel, prompt)
}

func (s *Service) generate(ctx context.Context, model, prompt string) (Response, error) {
	if s.gen == nil {
		return Response{}, ErrNotConfigured
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.gen.Generate(ctx, model, prompt)
	if err != nil {
		if !errors.Is(err, ErrUpstream) {
			err = fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return Response{}, err
	}
	slog.Debug("model reply received", "model", model, "latency_ms", time.Since(start).Milliseconds(), "bytes", len(text))

	return ParseReply(text), nil
}

// UpstreamFailure is the degraded answer shown when the model call fails on
// the chat path.
func UpstreamFailure(err error) Response {
	return PlainText("Error: " + err.Error())
}
