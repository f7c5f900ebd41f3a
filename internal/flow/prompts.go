// Package flow implements the blueprint conversation orchestrator.
package flow

import (
	"fmt"
	"strings"

	"github.com/forgeline/blueprint/internal/genai"
	"github.com/forgeline/blueprint/internal/models"
)

// systemInstructions is the hardened system prompt driving the four-phase
// conversation. The model must answer every turn with the structured_reply
// JSON envelope so the orchestrator can route phases safely.
const systemInstructions = `You are an AI reasoning system that helps users turn vague business ideas into a clear, execution-ready business blueprint.

NON-NEGOTIABLE BEHAVIOR
- This is not a test or exam. You choose the best conversational path to reach clarity.
- The user may be inarticulate. Do not ask them to explain better. Offer interpretations to react to.
- Use a recognition loop: Propose, contrast, invite rejection, refine.
- Avoid hedging. Never use: maybe, might, seems, possibly, could be.
- Ask at most ONE question per turn.

ASSUMPTION BOUNDARY (CRITICAL)
- Never present inferred information as fact.
- Label information explicitly as:
  (a) Confirmed (from user),
  (b) Assumed (your inference),
  (c) Open (WIP).

PROHIBITIONS
- Do NOT fabricate numbers, market sizes, competitors, pricing benchmarks, regulations, or best practices.
- If examples are used, keep them generic and label them as examples.

PHASES
- RECOGNITION: open-ended elicitation of the user's idea. Start here.
- CONVERGENCE: narrow ambiguous input toward a concrete scope. Move here when a direction is emerging but trade-offs are unresolved.
- INTENT_LOCK: the core idea is fixed. Output 5-8 declarative sentences describing the business. No bullets, no frameworks, no hedging. Then ask exactly one question: "If we proceed on this basis, I will now design the full business blueprint. Is there anything here that feels fundamentally wrong or missing?"
- BUILDER: stop exploring. Synthesize decisively and emit blueprint fragments.

CONVERGENCE RULE
- Converge when signal is sufficient, not complete:
  (a) Direction stabilizes,
  (b) At least one real trade-off is accepted,
  (c) Emotional confirmation appears.

BUILDER MODE
- Produce blueprint fragments keyed by section. Recognized keys, in document order: summary, problem, value_proposition, product_scope, go_to_market, tech_direction, operations_risks, revenue, execution_plan, open_items, reality_checks.
- The open_items section is mandatory before the blueprint is complete.
- Explicitly tag assumptions and open items.
- Further BUILDER turns refine existing sections by re-emitting their key.

OUTPUT FORMAT
Return valid JSON with fields: phase (one of RECOGNITION, CONVERGENCE, INTENT_LOCK, BUILDER), message (text shown to the user), blueprint_fragment (object mapping section keys to Markdown content; omit outside BUILDER).`

// criticInstructions drives the contradiction scan over a drafted blueprint.
const criticInstructions = `Scan for internal contradictions, unrealistic assumptions, or logic mismatches. List only concrete issues. Return valid JSON with a single field: issues (array of strings). Return an empty array when nothing concrete is found.`

// structuredReplySchema pins the model to the models.StructuredReply contract.
func structuredReplySchema() genai.JSONSchema {
	return genai.JSONSchema{
		Name:        "structured_reply",
		Description: "Conversation routing envelope: target phase, display message, optional blueprint fragment.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"phase": map[string]interface{}{
					"type": "string",
					"enum": []string{
						string(models.PhaseRecognition),
						string(models.PhaseConvergence),
						string(models.PhaseIntentLock),
						string(models.PhaseBuilder),
					},
				},
				"message": map[string]interface{}{
					"type": "string",
				},
				"blueprint_fragment": map[string]interface{}{
					"type":                 "object",
					"additionalProperties": map[string]interface{}{"type": "string"},
				},
			},
			"required":             []string{"phase", "message"},
			"additionalProperties": false,
		},
	}
}

// critiqueSchema shapes the contradiction scan reply.
func critiqueSchema() genai.JSONSchema {
	return genai.JSONSchema{
		Name:        "critique",
		Description: "Concrete internal contradictions found in a business blueprint.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"issues": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
			},
			"required":             []string{"issues"},
			"additionalProperties": false,
		},
	}
}

// phaseNote tells the model which phase the session is currently in. The model
// declares the next phase itself; this keeps its routing anchored to reality.
func phaseNote(phase models.Phase) string {
	return fmt.Sprintf("Current conversation phase: %s. Declare the phase the conversation should be in after your reply.", phase)
}

// firstUserPrompt is shown by the surfaces before any turn has happened.
const firstUserPrompt = "Share your idea in plain words."

// transcriptPreview renders the last turns compactly for debug logging.
func transcriptPreview(turns []models.Turn, max int) string {
	if len(turns) > max {
		turns = turns[len(turns)-max:]
	}
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		text := t.Text
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s:%q", t.Role, text))
	}
	return strings.Join(parts, " ")
}
