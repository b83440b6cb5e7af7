// Package ai defines the capability interface through which the pipeline
// talks to its classification/generation oracle. The oracle is treated as
// an untrusted black box: callers own retry, backoff and fallback; this
// package owns request shaping, rate limiting and schema-constrained output.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable marks oracle failures (timeouts, transport errors,
// unusable output after repair). Callers match it with errors.Is to decide
// between retry and degraded fallback.
var ErrUnavailable = errors.New("oracle unavailable")

// GenerateOptions holds configuration for oracle requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
}

// GenerateOption is a functional option for configuring oracle requests.
type GenerateOption func(*GenerateOptions)

// WithModel sets the model used for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts sets the system prompts prepended to the request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// ModelMetrics accumulates usage metrics across oracle calls.
type ModelMetrics struct {
	Requests     int   `json:"requests"`
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// Client is the oracle capability interface. Implementations are expected
// to be safe for concurrent use and to bound their own in-flight requests.
type Client interface {
	// GenerateCompletion sends a single-turn prompt and returns the raw
	// assistant text.
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)

	// GenerateCompletionWithFormat enforces a JSON schema derived from out
	// and unmarshals the response into it. name and description identify
	// the schema to the model.
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error

	// GetMetrics returns accumulated usage metrics.
	GetMetrics() ModelMetrics
}
