package assistant

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured means no API key was provided for the model provider.
	ErrNotConfigured = errors.New("model API key missing")
	// ErrUpstream wraps failures reported by the model provider.
	ErrUpstream = errors.New("model request failed")
)

// Generator sends one combined prompt to a hosted model and returns the
// reply text. Each call is stateless.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	Close() error
}
