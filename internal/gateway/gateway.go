package gateway

import (
	"context"
	"errors"

	"github.com/casequest/coach-engine/internal/models"
)

// Common errors. ErrTransport covers unreachable-service and missing
// credential failures; ErrProtocol covers replies that arrive but
// cannot be understood.
var (
	ErrTransport     = errors.New("coaching service unreachable")
	ErrProtocol      = errors.New("malformed coaching service reply")
	ErrUnknownHandle = errors.New("unknown session handle")
)

// Handle identifies one remote coaching conversation. A handle is
// owned by exactly one session and becomes invalid once closed.
type Handle string

// CoachGateway is the boundary to the external generative-language
// service. Every operation is a single request/response round trip:
// no retries, no streaming. Callers are expected to keep at most one
// call in flight per handle.
//
// Failure policy differs per operation (matched from the product
// behavior this service fronts): CreateSession, StartScenario and
// SendMessage propagate errors; GetHint degrades to a fixed fallback
// string; EndAndEvaluate masks unparseable replies with a zero-score
// result and only propagates transport failures.
type CoachGateway interface {
	// CreateSession opens a conversation configured with the
	// category's instruction profile.
	CreateSession(ctx context.Context, category models.Category) (Handle, error)

	// StartScenario asks the coach to expand the scenario one-liner
	// into context and an opening question, withholding the solution.
	StartScenario(ctx context.Context, h Handle, title string, category models.Category) (string, error)

	// SendMessage forwards the user's literal text as the next turn.
	SendMessage(ctx context.Context, h Handle, userText string) (string, error)

	// GetHint requests a short directional nudge. Never fails on
	// transport errors; returns HintFallback instead.
	GetHint(ctx context.Context, h Handle) (string, error)

	// EndAndEvaluate reveals the solution and grades the session
	// against the category rubric, returning the structured report.
	EndAndEvaluate(ctx context.Context, h Handle, category models.Category) (*models.EvaluationResult, error)

	// CloseSession discards the conversation held for h. Closing an
	// unknown handle is a no-op.
	CloseSession(h Handle)
}
