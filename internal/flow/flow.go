// Package flow implements the blueprint conversation orchestrator: a
// four-phase state machine driven by the model's structured replies.
//
// The orchestrator trusts the model as the phase router. After every user turn
// it sends the transcript plus the current phase, validates the declared target
// phase against the recognized set, and adopts it. Backward transitions are
// logged as anomalies, never rejected.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/openai/openai-go"

	"github.com/forgeline/blueprint/internal/genai"
	"github.com/forgeline/blueprint/internal/models"
	"github.com/forgeline/blueprint/internal/util"
)

// TurnRecorder receives every recorded turn for out-of-band logging. The flow
// never fails a turn because recording failed.
type TurnRecorder interface {
	Record(ctx context.Context, sessionID string, role models.Role, message string)
}

// FailedExchange keeps an invalid model reply for diagnostics without admitting
// it into the transcript.
type FailedExchange struct {
	UserText string    `json:"user_text"`
	Raw      string    `json:"raw"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}

// Session is one conversation instance. Created at start, mutated turn by turn,
// discarded at process end.
type Session struct {
	ID          string           `json:"id"`
	Phase       models.Phase     `json:"phase"`
	Transcript  []models.Turn    `json:"transcript"`
	Blueprint   models.Blueprint `json:"blueprint"`
	Regressions int              `json:"regressions"`
	Failed      []FailedExchange `json:"failed,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func newSession() *Session {
	return &Session{
		ID:        util.GenerateSessionID(),
		Phase:     models.PhaseRecognition,
		CreatedAt: time.Now(),
	}
}

// Snapshot is a read-only view of the session for the surfaces.
type Snapshot struct {
	SessionID      string        `json:"session_id"`
	Phase          models.Phase  `json:"phase"`
	Transcript     []models.Turn `json:"transcript"`
	BlueprintReady bool          `json:"blueprint_ready"`
	Regressions    int           `json:"regressions"`
}

// BlueprintFlow drives a single session through its phases by exchanging turns
// with the model. Safe for concurrent use; turns are serialized.
type BlueprintFlow struct {
	mu          sync.Mutex
	genaiClient genai.ClientInterface
	recorder    TurnRecorder
	criticOn    bool
	session     *Session
}

// Option customizes flow construction.
type Option func(*BlueprintFlow)

// WithTurnRecorder attaches an out-of-band turn recorder.
func WithTurnRecorder(r TurnRecorder) Option {
	return func(f *BlueprintFlow) { f.recorder = r }
}

// WithCritic toggles the contradiction scan over Builder-mode fragments.
func WithCritic(enabled bool) Option {
	return func(f *BlueprintFlow) { f.criticOn = enabled }
}

// NewBlueprintFlow creates the orchestrator with a fresh session in RECOGNITION.
func NewBlueprintFlow(genaiClient genai.ClientInterface, opts ...Option) *BlueprintFlow {
	f := &BlueprintFlow{genaiClient: genaiClient, criticOn: true, session: newSession()}
	for _, opt := range opts {
		opt(f)
	}
	slog.Debug("flow.NewBlueprintFlow: session created", "sessionID", f.session.ID, "critic", f.criticOn)
	return f
}

// FirstUserPrompt is the input placeholder surfaces show before any turn.
const FirstUserPrompt = firstUserPrompt

// SubmitTurn appends a user turn, exchanges it with the model and routes on the
// structured reply. On *UpstreamError or *SchemaViolationError nothing advances:
// the phase and transcript stay as they were before the call, and the user may
// retry the same turn.
func (f *BlueprintFlow) SubmitTurn(ctx context.Context, userText string) (*models.StructuredReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.session
	slog.Debug("BlueprintFlow.SubmitTurn: processing turn",
		"sessionID", s.ID, "phase", s.Phase, "turns", len(s.Transcript),
		"transcript", transcriptPreview(s.Transcript, 4))

	messages := f.buildMessages(userText)
	raw, err := f.genaiClient.GenerateStructured(ctx, messages, structuredReplySchema())
	if err != nil {
		upstream := &UpstreamError{StatusCode: genai.StatusCode(err), Err: err}
		slog.Error("BlueprintFlow.SubmitTurn: model call failed",
			"sessionID", s.ID, "phase", s.Phase, "status", upstream.StatusCode, "error", err)
		return nil, upstream
	}

	reply, err := models.ParseStructuredReply(raw)
	if err != nil {
		s.Failed = append(s.Failed, FailedExchange{
			UserText: userText,
			Raw:      raw,
			Reason:   err.Error(),
			At:       time.Now(),
		})
		slog.Error("BlueprintFlow.SubmitTurn: structured reply rejected",
			"sessionID", s.ID, "phase", s.Phase, "error", err, "raw_length", len(raw))
		return nil, &SchemaViolationError{Raw: raw, Err: err}
	}

	if reply.Phase.Rank() < s.Phase.Rank() {
		// Backward transition: trusted, logged as an anomaly, counted.
		s.Regressions++
		slog.Warn("BlueprintFlow.SubmitTurn: backward phase transition",
			"sessionID", s.ID, "from", s.Phase, "to", reply.Phase, "regressions", s.Regressions)
	}

	now := time.Now()
	s.Transcript = append(s.Transcript,
		models.Turn{Role: models.RoleUser, Text: userText, Timestamp: now},
		models.Turn{Role: models.RoleAssistant, Text: reply.Message, Timestamp: now, Reply: reply},
	)
	previousPhase := s.Phase
	s.Phase = reply.Phase

	if f.recorder != nil {
		f.recorder.Record(ctx, s.ID, models.RoleUser, userText)
		f.recorder.Record(ctx, s.ID, models.RoleAssistant, reply.Message)
	}

	if len(reply.BlueprintFragment) > 0 {
		if s.Phase != models.PhaseBuilder {
			slog.Warn("BlueprintFlow.SubmitTurn: fragment outside BUILDER accepted",
				"sessionID", s.ID, "phase", s.Phase, "keys", len(reply.BlueprintFragment))
		}
		s.Blueprint.AddFragment(reply.BlueprintFragment)
		slog.Info("BlueprintFlow.SubmitTurn: blueprint fragment merged",
			"sessionID", s.ID, "sections", len(s.Blueprint.Sections))
		if f.criticOn && s.Phase == models.PhaseBuilder {
			f.runCritic(ctx)
		}
	}

	slog.Info("BlueprintFlow.SubmitTurn: turn completed",
		"sessionID", s.ID, "from", previousPhase, "to", s.Phase, "turns", len(s.Transcript))
	return reply, nil
}

// buildMessages assembles the model request: system instructions, a phase note,
// the transcript so far, then the new user turn.
func (f *BlueprintFlow) buildMessages(userText string) []openai.ChatCompletionMessageParamUnion {
	s := f.session
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(s.Transcript)+3)
	messages = append(messages,
		openai.SystemMessage(systemInstructions),
		openai.SystemMessage(phaseNote(s.Phase)),
	)
	for _, turn := range s.Transcript {
		switch turn.Role {
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Text))
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		}
	}
	return append(messages, openai.UserMessage(userText))
}

// ExportBlueprint serializes the accumulated blueprint as Markdown. Valid only
// in BUILDER with at least one merged fragment; otherwise ErrNotReady.
func (f *BlueprintFlow) ExportBlueprint() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.session
	if s.Phase != models.PhaseBuilder || s.Blueprint.Empty() {
		slog.Debug("BlueprintFlow.ExportBlueprint: not ready",
			"sessionID", s.ID, "phase", s.Phase, "fragments", s.Blueprint.FragmentsAdded)
		return "", fmt.Errorf("%w (phase %s, %d fragments)", ErrNotReady, s.Phase, s.Blueprint.FragmentsAdded)
	}
	md := s.Blueprint.Markdown()
	slog.Info("BlueprintFlow.ExportBlueprint: blueprint exported",
		"sessionID", s.ID, "sections", len(s.Blueprint.Sections), "bytes", len(md))
	return md, nil
}

// Reset discards the session and starts a fresh one in RECOGNITION.
func (f *BlueprintFlow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	old := f.session.ID
	f.session = newSession()
	slog.Info("BlueprintFlow.Reset: session replaced", "oldSessionID", old, "sessionID", f.session.ID)
}

// Snapshot returns a copy of the session state for rendering.
func (f *BlueprintFlow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.session
	transcript := make([]models.Turn, len(s.Transcript))
	copy(transcript, s.Transcript)
	return Snapshot{
		SessionID:      s.ID,
		Phase:          s.Phase,
		Transcript:     transcript,
		BlueprintReady: s.Phase == models.PhaseBuilder && !s.Blueprint.Empty(),
		Regressions:    s.Regressions,
	}
}
