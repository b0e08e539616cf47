package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/casequest/coach-engine/internal/gateway"
	"github.com/casequest/coach-engine/internal/models"
)

// Common errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrWrongPhase       = errors.New("action not valid in current phase")
	ErrBusy             = errors.New("a coaching response is already pending")
	ErrEmptyMessage     = errors.New("message text is empty")
	ErrNoGatewaySession = errors.New("no coaching session established")
)

// failedToStartNotice is the inline transcript notice shown when the
// coaching session could not be opened.
const failedToStartNotice = "Failed to start session."

// hintMarker prefixes hint messages in the transcript
const hintMarker = "💡 HINT: "

// Orchestrator owns one practice session: its phase, scenario,
// transcript, pending flag and gateway handle. All mutations happen
// under the mutex; gateway calls are issued outside it and their
// results committed only if the session epoch has not moved, so a
// reply belonging to a discarded run can never touch a fresh one.
//
// The pending flag gives single-flight discipline: at most one
// gateway call is outstanding per session, and send/hint/complete are
// no-ops while one is.
type Orchestrator struct {
	token string
	gw    gateway.CoachGateway

	mu         sync.Mutex
	phase      models.Phase
	scenario   *models.Scenario
	transcript []models.Message
	pending    bool
	evaluation *models.EvaluationResult
	handle     gateway.Handle
	epoch      uint64

	createdAt    time.Time
	lastActiveAt time.Time

	subs    map[int]chan models.StreamEvent
	nextSub int
}

// NewOrchestrator creates a session in the landing phase
func NewOrchestrator(token string, gw gateway.CoachGateway) *Orchestrator {
	now := time.Now()
	return &Orchestrator{
		token:        token,
		gw:           gw,
		phase:        models.PhaseLanding,
		createdAt:    now,
		lastActiveAt: now,
		subs:         make(map[int]chan models.StreamEvent),
	}
}

// Token returns the session token
func (o *Orchestrator) Token() string {
	return o.token
}

// Snapshot returns a value copy of the current session state
func (o *Orchestrator) Snapshot() models.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	transcript := make([]models.Message, len(o.transcript))
	copy(transcript, o.transcript)

	return models.Snapshot{
		Token:           o.token,
		Phase:           o.phase,
		ActiveScenario:  o.scenario,
		Transcript:      transcript,
		PendingResponse: o.pending,
		Evaluation:      o.evaluation,
		CreatedAt:       o.createdAt,
		LastActiveAt:    o.lastActiveAt,
	}
}

// LastActive returns when the session last processed a user action
func (o *Orchestrator) LastActive() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastActiveAt
}

// StartPractice moves landing -> selection. No side effects.
func (o *Orchestrator) StartPractice() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != models.PhaseLanding {
		return ErrWrongPhase
	}

	o.phase = models.PhaseSelection
	o.touchLocked()
	o.emitLocked(models.StreamEvent{Type: models.EventPhase})
	return nil
}

// SelectScenario moves selection -> coaching: it opens a gateway
// session for the scenario's category, asks for the opening coaching
// text and commits it to the fresh transcript. A gateway failure is
// surfaced as an inline system notice; the session stays in coaching
// either way so the user sees the error where they expect the coach.
func (o *Orchestrator) SelectScenario(ctx context.Context, sc *models.Scenario) error {
	o.mu.Lock()
	if o.phase != models.PhaseSelection {
		o.mu.Unlock()
		return ErrWrongPhase
	}
	if o.pending {
		o.mu.Unlock()
		return ErrBusy
	}

	o.scenario = sc
	o.phase = models.PhaseCoaching
	o.transcript = nil
	o.evaluation = nil
	o.handle = ""
	o.pending = true
	o.epoch++
	epoch := o.epoch
	o.touchLocked()
	o.emitLocked(models.StreamEvent{Type: models.EventPhase})
	o.emitLocked(models.StreamEvent{Type: models.EventPending})
	o.mu.Unlock()

	handle, err := o.gw.CreateSession(ctx, sc.Category)
	var opening string
	if err == nil {
		opening, err = o.gw.StartScenario(ctx, handle, sc.Title, sc.Category)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		// Session was reset while the call was in flight; the reply
		// belongs to a discarded run.
		if handle != "" {
			o.gw.CloseSession(handle)
		}
		return nil
	}

	if handle != "" {
		o.handle = handle
	}

	if err != nil {
		slog.Error("failed to start coaching session",
			"token", o.token, "scenario", sc.ID, "error", err)
		o.appendLocked(models.RoleSystem, failedToStartNotice)
	} else {
		o.appendLocked(models.RoleModel, opening)
	}

	o.pending = false
	o.emitLocked(models.StreamEvent{Type: models.EventPending})
	return nil
}

// SendMessage appends the user's text optimistically, forwards it to
// the coach and commits the reply. A gateway failure leaves the user
// message in place and appends nothing (logged only).
func (o *Orchestrator) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	o.mu.Lock()
	if o.phase != models.PhaseCoaching {
		o.mu.Unlock()
		return ErrWrongPhase
	}
	if o.pending {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.handle == "" {
		o.mu.Unlock()
		return ErrNoGatewaySession
	}

	o.appendLocked(models.RoleUser, text)
	o.pending = true
	epoch := o.epoch
	handle := o.handle
	o.touchLocked()
	o.emitLocked(models.StreamEvent{Type: models.EventPending})
	o.mu.Unlock()

	reply, err := o.gw.SendMessage(ctx, handle, text)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		return nil
	}

	if err != nil {
		// Deliberately silent: the user message stays visible and no
		// error notice is injected.
		slog.Error("coach reply failed", "token", o.token, "error", err)
	} else {
		o.appendLocked(models.RoleModel, reply)
	}

	o.pending = false
	o.emitLocked(models.StreamEvent{Type: models.EventPending})
	return nil
}

// RequestHint asks the coach for a directional nudge and appends it as
// a system message. Failures append nothing.
func (o *Orchestrator) RequestHint(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != models.PhaseCoaching {
		o.mu.Unlock()
		return ErrWrongPhase
	}
	if o.pending {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.handle == "" {
		o.mu.Unlock()
		return ErrNoGatewaySession
	}

	o.pending = true
	epoch := o.epoch
	handle := o.handle
	o.touchLocked()
	o.emitLocked(models.StreamEvent{Type: models.EventPending})
	o.mu.Unlock()

	hint, err := o.gw.GetHint(ctx, handle)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		return nil
	}

	if err != nil {
		slog.Error("hint request failed", "token", o.token, "error", err)
	} else {
		o.appendLocked(models.RoleSystem, hintMarker+hint)
	}

	o.pending = false
	o.emitLocked(models.StreamEvent{Type: models.EventPending})
	return nil
}

// Complete ends the coaching run and retrieves the structured
// evaluation, moving coaching -> evaluation on success. A transport
// failure leaves the session in coaching (logged only); unparseable
// replies never reach here because the gateway masks them with the
// zero-score result.
func (o *Orchestrator) Complete(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != models.PhaseCoaching {
		o.mu.Unlock()
		return ErrWrongPhase
	}
	if o.pending {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.handle == "" || o.scenario == nil {
		o.mu.Unlock()
		return ErrNoGatewaySession
	}

	o.pending = true
	epoch := o.epoch
	handle := o.handle
	category := o.scenario.Category
	o.touchLocked()
	o.emitLocked(models.StreamEvent{Type: models.EventPending})
	o.mu.Unlock()

	result, err := o.gw.EndAndEvaluate(ctx, handle, category)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		return nil
	}

	if err != nil {
		slog.Error("evaluation failed", "token", o.token, "error", err)
	} else {
		o.evaluation = result
		o.phase = models.PhaseEvaluation
		o.emitLocked(models.StreamEvent{Type: models.EventPhase})
	}

	o.pending = false
	o.emitLocked(models.StreamEvent{Type: models.EventPending})
	return nil
}

// Exit discards the practice run and returns to scenario selection
func (o *Orchestrator) Exit() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != models.PhaseCoaching && o.phase != models.PhaseEvaluation {
		return ErrWrongPhase
	}

	o.resetLocked(models.PhaseSelection)
	return nil
}

// GoHome discards any practice run and returns to the landing phase
func (o *Orchestrator) GoHome() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.resetLocked(models.PhaseLanding)
	return nil
}

// resetLocked discards scenario, transcript, evaluation and handle,
// bumps the epoch so in-flight replies are dropped, and moves to the
// given phase. Caller holds the mutex.
func (o *Orchestrator) resetLocked(phase models.Phase) {
	if o.handle != "" {
		o.gw.CloseSession(o.handle)
		o.handle = ""
	}

	o.scenario = nil
	o.transcript = nil
	o.evaluation = nil
	o.pending = false
	o.epoch++
	o.phase = phase
	o.touchLocked()
	o.emitLocked(models.StreamEvent{Type: models.EventPhase})
	o.emitLocked(models.StreamEvent{Type: models.EventPending})
}

// appendLocked adds a message to the transcript and notifies
// subscribers. Caller holds the mutex.
func (o *Orchestrator) appendLocked(role models.Role, text string) {
	msg := models.Message{
		ID:   uuid.New().String(),
		Role: role,
		Text: text,
	}
	o.transcript = append(o.transcript, msg)
	o.emitLocked(models.StreamEvent{Type: models.EventMessage, Message: &msg})
}

func (o *Orchestrator) touchLocked() {
	o.lastActiveAt = time.Now()
}

// Subscribe registers a stream listener. The returned cancel func must
// be called when the listener goes away.
func (o *Orchestrator) Subscribe() (<-chan models.StreamEvent, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSub
	o.nextSub++
	ch := make(chan models.StreamEvent, 32)
	o.subs[id] = ch

	cancel := func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if sub, ok := o.subs[id]; ok {
			delete(o.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// emitLocked broadcasts an event to all subscribers. Slow listeners
// are skipped rather than blocking the state machine. Caller holds
// the mutex.
func (o *Orchestrator) emitLocked(ev models.StreamEvent) {
	ev.Phase = o.phase
	ev.Pending = o.pending

	for _, ch := range o.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// shutdown releases gateway and subscriber resources. Called by the
// manager when the session is removed.
func (o *Orchestrator) shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.handle != "" {
		o.gw.CloseSession(o.handle)
		o.handle = ""
	}
	o.epoch++

	for id, ch := range o.subs {
		delete(o.subs, id)
		close(ch)
	}
}
