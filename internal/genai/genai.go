// Package genai provides the OpenAI chat-completion client used by the
// conversation flow. Every call requests a JSON-schema response format so the
// caller can parse the reply into a typed structure instead of trusting
// free-form model output.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// JSONSchema names the schema the model must satisfy for one call.
type JSONSchema struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// ClientInterface defines the model operations the conversation flow depends on.
// Tests inject a mock implementation.
type ClientInterface interface {
	GenerateStructured(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, schema JSONSchema) (string, error)
}

// completionService is the seam between Client and the OpenAI SDK.
type completionService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Client wraps the OpenAI chat-completion service.
type Client struct {
	completions completionService
	model       shared.ChatModel
	effort      shared.ReasoningEffort
}

// Opt configures the client.
type Opt func(*clientOptions)

type clientOptions struct {
	apiKey  string
	model   string
	effort  string
	timeout time.Duration
}

// WithAPIKey overrides the OPENAI_API_KEY environment variable.
func WithAPIKey(key string) Opt {
	return func(o *clientOptions) { o.apiKey = key }
}

// WithModel sets the chat model (defaults to DefaultModel).
func WithModel(model string) Opt {
	return func(o *clientOptions) { o.model = model }
}

// WithReasoningEffort sets the reasoning effort (low, medium, high) for models
// that support it. Empty leaves the API default.
func WithReasoningEffort(effort string) Opt {
	return func(o *clientOptions) { o.effort = effort }
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Opt {
	return func(o *clientOptions) { o.timeout = d }
}

// NewClient initializes a client from options, falling back to the
// OPENAI_API_KEY environment variable for the credential.
func NewClient(opts ...Opt) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.apiKey == "" {
		o.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if o.apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}
	if o.model == "" {
		o.model = DefaultModel
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(o.apiKey)}
	if o.timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(o.timeout))
	}
	cli := openai.NewClient(reqOpts...)

	effort, err := parseReasoningEffort(o.effort)
	if err != nil {
		return nil, err
	}

	slog.Debug("genai.NewClient: client initialized", "model", o.model, "reasoning_effort", o.effort, "timeout", o.timeout)
	return &Client{
		completions: &cli.Chat.Completions,
		model:       shared.ChatModel(o.model),
		effort:      effort,
	}, nil
}

func parseReasoningEffort(effort string) (shared.ReasoningEffort, error) {
	switch effort {
	case "":
		return "", nil
	case "low":
		return shared.ReasoningEffortLow, nil
	case "medium":
		return shared.ReasoningEffortMedium, nil
	case "high":
		return shared.ReasoningEffortHigh, nil
	default:
		return "", fmt.Errorf("invalid reasoning effort %q (want low, medium or high)", effort)
	}
}

// GenerateStructured sends the messages and returns the raw content of the first
// choice. The response format pins the model to the given JSON schema; the
// caller still validates the payload before trusting it.
func (c *Client) GenerateStructured(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, schema JSONSchema) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				// Strict mode cannot express optional fields or free-form
				// maps, so the schema guides the model and the caller
				// validates the payload.
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        schema.Name,
					Description: openai.String(schema.Description),
					Schema:      schema.Schema,
					Strict:      openai.Bool(false),
				},
			},
		},
	}
	if c.effort != "" {
		params.ReasoningEffort = c.effort
	}

	slog.Debug("Client.GenerateStructured: sending chat completion", "model", c.model, "schema", schema.Name, "messages", len(messages))
	resp, err := c.completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	content := resp.Choices[0].Message.Content
	slog.Debug("Client.GenerateStructured: received completion", "schema", schema.Name, "content_length", len(content))
	return content, nil
}

// StatusCode extracts the upstream HTTP status from an SDK error, or 0 when the
// failure happened before a response (network error, timeout).
func StatusCode(err error) int {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode
	}
	return 0
}
