package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Phase is the current state of a practice session
type Phase string

const (
	PhaseLanding    Phase = "landing"
	PhaseSelection  Phase = "selection"
	PhaseCoaching   Phase = "coaching"
	PhaseEvaluation Phase = "evaluation"
)

// Snapshot is the read-only view of a session exposed to the rendering
// layer. It is a value copy; mutating it has no effect on the session.
type Snapshot struct {
	Token           string            `json:"token"`
	Phase           Phase             `json:"phase"`
	ActiveScenario  *Scenario         `json:"active_scenario,omitempty"`
	Transcript      []Message         `json:"transcript"`
	PendingResponse bool              `json:"pending_response"`
	Evaluation      *EvaluationResult `json:"evaluation,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	LastActiveAt    time.Time         `json:"last_active_at"`
}

// GenerateSessionToken creates a cryptographically random 48-char hex token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CreateSessionResponse is returned after registering a session
type CreateSessionResponse struct {
	Token     string    `json:"token"`
	Phase     Phase     `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
}

// SelectScenarioRequest picks the scenario for a practice run
type SelectScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// SendMessageRequest carries one user chat turn
type SendMessageRequest struct {
	Text string `json:"text"`
}

// StreamEventType discriminates websocket stream events
type StreamEventType string

const (
	EventMessage StreamEventType = "message"
	EventPhase   StreamEventType = "phase"
	EventPending StreamEventType = "pending"
)

// StreamEvent is one entry on the session event stream. Message is set
// for message events; Phase and Pending always reflect current state.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Message *Message        `json:"message,omitempty"`
	Phase   Phase           `json:"phase"`
	Pending bool            `json:"pending"`
}
