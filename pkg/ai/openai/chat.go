package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mlkg-org/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
)

func (c *Client) complete(
	ctx context.Context,
	prompt string,
	responseFormat *openai.ChatCompletionNewParamsResponseFormatUnion,
	options ai.GenerateOptions,
) (string, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	msgs := []openai.ChatCompletionMessageParamUnion{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}
	if responseFormat != nil {
		body.ResponseFormat = *responseFormat
	}

	start := time.Now()
	response, err := c.chatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ai.ErrUnavailable)
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   time.Since(start).Milliseconds(),
	})

	return response.Choices[0].Message.Content, nil
}

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *Client) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.model,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}
	return c.complete(ctx, prompt, nil, options)
}

// GenerateCompletionWithFormat enforces a JSON schema and unmarshals the
// response into out.
func (c *Client) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      ai.GenerateSchema(out),
		Strict:      openai.Bool(true),
	}
	format := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: schemaParam,
		},
	}

	options := ai.GenerateOptions{
		Model:       c.model,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	resp, err := c.complete(ctx, prompt, &format, options)
	if err != nil {
		return err
	}
	if err := ai.UnmarshalFlexible(resp, out); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
	}
	return nil
}
