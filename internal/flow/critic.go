package flow

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/openai/openai-go"
)

// critique is the contradiction scan reply shape.
type critique struct {
	Issues []string `json:"issues"`
}

// runCritic scans the drafted blueprint for internal contradictions and stores
// the findings for the next export. Best-effort: a failed scan logs a warning
// and leaves the previous findings untouched. Caller holds the session lock.
func (f *BlueprintFlow) runCritic(ctx context.Context) {
	s := f.session
	md := s.Blueprint.Markdown()
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(criticInstructions),
		openai.UserMessage(md),
	}

	raw, err := f.genaiClient.GenerateStructured(ctx, messages, critiqueSchema())
	if err != nil {
		slog.Warn("BlueprintFlow.runCritic: contradiction scan failed", "sessionID", s.ID, "error", err)
		return
	}
	var c critique
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		slog.Warn("BlueprintFlow.runCritic: unparseable critique", "sessionID", s.ID, "error", err)
		return
	}
	if c.Issues == nil {
		c.Issues = []string{}
	}
	s.Blueprint.SetCriticIssues(c.Issues)
	slog.Info("BlueprintFlow.runCritic: contradiction scan completed", "sessionID", s.ID, "issues", len(c.Issues))
}
