// Package openai implements the ai.Client oracle interface against any
// OpenAI-compatible chat completion endpoint.
package openai

import (
	"sync"
	"time"

	"github.com/mlkg-org/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// Client talks to an OpenAI-compatible API.
type Client struct {
	model string

	reqLock        *semaphore.Weighted
	requestTimeout time.Duration

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	chatClient openai.Client
}

// NewClientParams configures a new Client. BaseURL may be empty for the
// default OpenAI endpoint.
type NewClientParams struct {
	Model   string
	BaseURL string
	APIKey  string

	MaxConcurrentRequests int64
	RequestTimeout        time.Duration
}

// NewClient creates a Client.
func NewClient(params NewClientParams) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
	}
	if params.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(params.BaseURL))
	}

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	timeout := params.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		model:          params.Model,
		reqLock:        semaphore.NewWeighted(maxConcurrent),
		requestTimeout: timeout,
		chatClient:     openai.NewClient(reqOpts...),
	}
}

func (c *Client) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.Requests++
	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
}

// GetMetrics returns accumulated usage metrics.
func (c *Client) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
