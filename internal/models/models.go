// Package models defines the shared data structures for the blueprint conversation.
//
// It includes the phase enumeration, conversation turns, the structured reply
// envelope returned by the model, and the API response types shared across modules.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Phase represents the conversation phase declared by the model after each turn.
type Phase string

const (
	// PhaseRecognition is the initial open-ended phase eliciting the user's idea.
	PhaseRecognition Phase = "RECOGNITION"
	// PhaseConvergence narrows ambiguous input toward a concrete scope.
	PhaseConvergence Phase = "CONVERGENCE"
	// PhaseIntentLock is the phase at which the core idea is considered fixed.
	PhaseIntentLock Phase = "INTENT_LOCK"
	// PhaseBuilder is the terminal-productive phase generating and refining the blueprint.
	PhaseBuilder Phase = "BUILDER"
)

// ErrInvalidPhase indicates a phase value outside the recognized set.
var ErrInvalidPhase = errors.New("invalid phase")

// phaseRanks orders phases for regression detection. Higher rank is later.
var phaseRanks = map[Phase]int{
	PhaseRecognition: 0,
	PhaseConvergence: 1,
	PhaseIntentLock:  2,
	PhaseBuilder:     3,
}

// Valid reports whether the phase is one of the four recognized values.
func (p Phase) Valid() bool {
	_, ok := phaseRanks[p]
	return ok
}

// Rank returns the phase's position in the expected progression, or -1 if invalid.
func (p Phase) Rank() int {
	r, ok := phaseRanks[p]
	if !ok {
		return -1
	}
	return r
}

// ParsePhase converts a raw string into a Phase, rejecting unrecognized values.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, s)
	}
	return p, nil
}

// Role identifies the speaker of a conversation turn.
type Role string

const (
	// RoleUser marks a turn typed by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the model.
	RoleAssistant Role = "assistant"
)

// Turn is one exchange unit in the transcript. Turns are immutable once recorded.
type Turn struct {
	Role      Role             `json:"role"`
	Text      string           `json:"text"`
	Timestamp time.Time        `json:"timestamp"`
	Reply     *StructuredReply `json:"reply,omitempty"` // set only on assistant turns
}

// StructuredReply is the JSON envelope the model must return on every turn.
type StructuredReply struct {
	Phase             Phase             `json:"phase"`
	Message           string            `json:"message"`
	BlueprintFragment map[string]string `json:"blueprint_fragment,omitempty"`
}

// Validate checks the reply against the contract: a recognized phase and a
// non-empty display message. Fragment content is free-form and not validated here.
func (r *StructuredReply) Validate() error {
	if !r.Phase.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPhase, string(r.Phase))
	}
	if r.Message == "" {
		return errors.New("reply message is required")
	}
	return nil
}

// ParseStructuredReply strictly decodes raw model output into a StructuredReply.
// Unknown fields are rejected so contract drift surfaces immediately.
func ParseStructuredReply(raw string) (*StructuredReply, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	var reply StructuredReply
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("failed to decode structured reply: %w", err)
	}
	if dec.More() {
		return nil, errors.New("trailing content after structured reply")
	}
	if err := reply.Validate(); err != nil {
		return nil, err
	}
	return &reply, nil
}
