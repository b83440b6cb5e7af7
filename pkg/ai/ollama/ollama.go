// Package ollama implements the ai.Client oracle interface against a
// locally hosted Ollama server.
package ollama

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mlkg-org/backend/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// Client talks to an Ollama server. In-flight requests are bounded by a
// weighted semaphore so oracle pressure never exceeds the configured limit.
type Client struct {
	model string

	reqLock        *semaphore.Weighted
	requestTimeout time.Duration

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	api *api.Client
}

// NewClientParams configures a new Client.
type NewClientParams struct {
	Model   string
	BaseURL string
	APIKey  string

	MaxConcurrentRequests int64
	RequestTimeout        time.Duration
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient creates a Client for the Ollama server at BaseURL (or the
// default when empty).
func NewClient(params NewClientParams) (*Client, error) {
	var (
		u   *url.URL
		err error
	)
	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.APIKey,
			},
			rt: http.DefaultTransport,
		},
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
		api:            api.NewClient(u, httpClient),
	}, nil
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
