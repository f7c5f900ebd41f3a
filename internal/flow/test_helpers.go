package flow

import (
	"context"
	"errors"

	"github.com/openai/openai-go"

	"github.com/forgeline/blueprint/internal/genai"
	"github.com/forgeline/blueprint/internal/models"
)

type scriptedCall struct {
	reply string
	err   error
}

// MockModelClient is a scripted genai.ClientInterface for tests. Each call pops
// the next queued entry; calls beyond the script fail.
type MockModelClient struct {
	script []scriptedCall

	Calls    int
	Messages [][]openai.ChatCompletionMessageParamUnion
	Schemas  []string
}

// NewMockModelClient creates a mock scripted with the given raw replies.
func NewMockModelClient(replies ...string) *MockModelClient {
	m := &MockModelClient{}
	for _, r := range replies {
		m.QueueReply(r)
	}
	return m
}

// QueueReply appends a successful call to the script.
func (m *MockModelClient) QueueReply(raw string) {
	m.script = append(m.script, scriptedCall{reply: raw})
}

// QueueError appends a failing call to the script.
func (m *MockModelClient) QueueError(err error) {
	m.script = append(m.script, scriptedCall{err: err})
}

// GenerateStructured pops the next scripted entry.
func (m *MockModelClient) GenerateStructured(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, schema genai.JSONSchema) (string, error) {
	i := m.Calls
	m.Calls++
	m.Messages = append(m.Messages, messages)
	m.Schemas = append(m.Schemas, schema.Name)
	if i >= len(m.script) {
		return "", errors.New("mock model client: no scripted reply left")
	}
	if m.script[i].err != nil {
		return "", m.script[i].err
	}
	return m.script[i].reply, nil
}

// RecordedTurn is one captured TurnRecorder call.
type RecordedTurn struct {
	SessionID string
	Role      models.Role
	Message   string
}

// MockTurnRecorder captures recorded turns.
type MockTurnRecorder struct {
	Records []RecordedTurn
}

// Record implements TurnRecorder.
func (m *MockTurnRecorder) Record(ctx context.Context, sessionID string, role models.Role, message string) {
	m.Records = append(m.Records, RecordedTurn{SessionID: sessionID, Role: role, Message: message})
}
