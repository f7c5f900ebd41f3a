package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type fakeCompletions struct {
	lastParams openai.ChatCompletionNewParams
	response   *openai.ChatCompletion
	err        error
}

func (f *fakeCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func testSchema() JSONSchema {
	return JSONSchema{
		Name:        "structured_reply",
		Description: "test schema",
		Schema:      map[string]interface{}{"type": "object"},
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewClient(WithAPIKey("sk-test")); err != nil {
		t.Errorf("unexpected error with explicit key: %v", err)
	}
}

func TestNewClientRejectsInvalidReasoningEffort(t *testing.T) {
	_, err := NewClient(WithAPIKey("sk-test"), WithReasoningEffort("extreme"))
	if err == nil {
		t.Error("expected error for invalid reasoning effort")
	}
	if _, err := NewClient(WithAPIKey("sk-test"), WithReasoningEffort("low")); err != nil {
		t.Errorf("unexpected error for low effort: %v", err)
	}
}

func TestGenerateStructuredReturnsFirstChoice(t *testing.T) {
	fake := &fakeCompletions{
		response: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: `{"phase":"RECOGNITION","message":"hi"}`}},
			},
		},
	}
	client := &Client{completions: fake, model: DefaultModel}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("system"),
		openai.UserMessage("user"),
	}
	content, err := client.GenerateStructured(context.Background(), messages, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != `{"phase":"RECOGNITION","message":"hi"}` {
		t.Errorf("unexpected content: %q", content)
	}
	if fake.lastParams.ResponseFormat.OfJSONSchema == nil {
		t.Fatal("expected JSON schema response format to be set")
	}
	if got := fake.lastParams.ResponseFormat.OfJSONSchema.JSONSchema.Name; got != "structured_reply" {
		t.Errorf("unexpected schema name %q", got)
	}
}

func TestGenerateStructuredNoChoices(t *testing.T) {
	fake := &fakeCompletions{response: &openai.ChatCompletion{}}
	client := &Client{completions: fake, model: DefaultModel}

	_, err := client.GenerateStructured(context.Background(), nil, testSchema())
	if err == nil {
		t.Error("expected error when no choices returned")
	}
}

func TestGenerateStructuredPropagatesError(t *testing.T) {
	upstream := errors.New("rate limited")
	fake := &fakeCompletions{err: upstream}
	client := &Client{completions: fake, model: DefaultModel}

	_, err := client.GenerateStructured(context.Background(), nil, testSchema())
	if !errors.Is(err, upstream) {
		t.Errorf("expected wrapped upstream error, got %v", err)
	}
}

func TestStatusCodeNonAPIError(t *testing.T) {
	if got := StatusCode(errors.New("dial tcp: timeout")); got != 0 {
		t.Errorf("expected 0 for non-API error, got %d", got)
	}
}
