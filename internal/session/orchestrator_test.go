package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casequest/coach-engine/internal/gateway"
	"github.com/casequest/coach-engine/internal/models"
)

var (
	rcaScenario = &models.Scenario{
		ID:         "e1",
		Category:   models.CategoryRCA,
		Title:      "A key product metric (DAU) suddenly drops by 5%.",
		Difficulty: models.DifficultyEasy,
	}
	strategyScenario = &models.Scenario{
		ID:         "s1",
		Category:   models.CategoryStrategy,
		Title:      "Should Spotify launch its own hardware (headphones/speakers)?",
		Difficulty: models.DifficultyEasy,
	}
)

// newCoachingSession returns an orchestrator already driven into the
// coaching phase with a successful opening message.
func newCoachingSession(t *testing.T, gw gateway.CoachGateway) *Orchestrator {
	t.Helper()

	o := NewOrchestrator("test-token", gw)
	require.NoError(t, o.StartPractice())
	require.NoError(t, o.SelectScenario(context.Background(), rcaScenario))
	return o
}

// checkInvariants asserts the cross-phase invariants that must hold
// after every action.
func checkInvariants(t *testing.T, snap models.Snapshot) {
	t.Helper()

	assert.Equal(t, snap.Evaluation != nil, snap.Phase == models.PhaseEvaluation,
		"evaluation must be non-nil exactly in the evaluation phase")

	if snap.Phase == models.PhaseCoaching || snap.Phase == models.PhaseEvaluation {
		assert.NotNil(t, snap.ActiveScenario, "active scenario required in phase %s", snap.Phase)
	} else {
		assert.Nil(t, snap.ActiveScenario, "no active scenario allowed in phase %s", snap.Phase)
		assert.Empty(t, snap.Transcript, "transcript must be empty in phase %s", snap.Phase)
	}
}

func TestStartPractice(t *testing.T) {
	o := NewOrchestrator("tok", gateway.NewMock())

	require.Equal(t, models.PhaseLanding, o.Snapshot().Phase)
	require.NoError(t, o.StartPractice())
	assert.Equal(t, models.PhaseSelection, o.Snapshot().Phase)

	// Not valid twice
	assert.ErrorIs(t, o.StartPractice(), ErrWrongPhase)
	checkInvariants(t, o.Snapshot())
}

func TestSelectScenarioSuccess(t *testing.T) {
	o := newCoachingSession(t, gateway.NewMock())

	snap := o.Snapshot()
	assert.Equal(t, models.PhaseCoaching, snap.Phase)
	assert.False(t, snap.PendingResponse)
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, models.RoleModel, snap.Transcript[0].Role)
	assert.Contains(t, snap.Transcript[0].Text, rcaScenario.Title)
	checkInvariants(t, snap)
}

func TestSelectScenarioNotInSelection(t *testing.T) {
	o := NewOrchestrator("tok", gateway.NewMock())
	assert.ErrorIs(t, o.SelectScenario(context.Background(), rcaScenario), ErrWrongPhase)
}

func TestSelectScenarioCreateFailure(t *testing.T) {
	gw := gateway.NewMock()
	gw.CreateSessionFn = func(ctx context.Context, category models.Category) (gateway.Handle, error) {
		return "", gateway.ErrTransport
	}

	o := NewOrchestrator("tok", gw)
	require.NoError(t, o.StartPractice())
	require.NoError(t, o.SelectScenario(context.Background(), rcaScenario))

	// The user sees the failure inline and stays in coaching
	snap := o.Snapshot()
	assert.Equal(t, models.PhaseCoaching, snap.Phase)
	assert.False(t, snap.PendingResponse)
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, models.RoleSystem, snap.Transcript[0].Role)
	assert.Equal(t, failedToStartNotice, snap.Transcript[0].Text)
	checkInvariants(t, snap)

	// Without a gateway session, sending is rejected and appends nothing
	assert.ErrorIs(t, o.SendMessage(context.Background(), "hello"), ErrNoGatewaySession)
	assert.Len(t, o.Snapshot().Transcript, 1)
}

func TestSelectScenarioStartFailure(t *testing.T) {
	gw := gateway.NewMock()
	gw.StartScenarioFn = func(ctx context.Context, h gateway.Handle, title string, category models.Category) (string, error) {
		return "", gateway.ErrTransport
	}

	o := NewOrchestrator("tok", gw)
	require.NoError(t, o.StartPractice())
	require.NoError(t, o.SelectScenario(context.Background(), rcaScenario))

	snap := o.Snapshot()
	assert.Equal(t, models.PhaseCoaching, snap.Phase)
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, failedToStartNotice, snap.Transcript[0].Text)

	// The handle from the successful CreateSession survives, so the
	// user can still chat despite the failed opening.
	require.NoError(t, o.SendMessage(context.Background(), "let me try anyway"))
	assert.Len(t, o.Snapshot().Transcript, 3)
}

func TestSendMessageAppendsUserThenModel(t *testing.T) {
	o := newCoachingSession(t, gateway.NewMock())

	// Each successful send appends exactly 2 messages: opening + 2N
	const n = 3
	for i := 0; i < n; i++ {
		require.NoError(t, o.SendMessage(context.Background(), "I would segment by platform"))
	}

	snap := o.Snapshot()
	require.Len(t, snap.Transcript, 2*n+1)
	for i := 1; i < len(snap.Transcript); i += 2 {
		assert.Equal(t, models.RoleUser, snap.Transcript[i].Role)
		assert.Equal(t, models.RoleModel, snap.Transcript[i+1].Role)
	}
	checkInvariants(t, snap)
}

func TestSendMessageWhitespaceIsNoOp(t *testing.T) {
	o := newCoachingSession(t, gateway.NewMock())
	before := o.Snapshot()

	assert.ErrorIs(t, o.SendMessage(context.Background(), ""), ErrEmptyMessage)
	assert.ErrorIs(t, o.SendMessage(context.Background(), "   "), ErrEmptyMessage)
	assert.ErrorIs(t, o.SendMessage(context.Background(), "\n\t "), ErrEmptyMessage)

	after := o.Snapshot()
	assert.Equal(t, len(before.Transcript), len(after.Transcript))
	assert.False(t, after.PendingResponse)
}

func TestSendMessageFailureIsSilent(t *testing.T) {
	gw := gateway.NewMock()
	gw.SendMessageFn = func(ctx context.Context, h gateway.Handle, userText string) (string, error) {
		return "", gateway.ErrTransport
	}

	o := newCoachingSession(t, gw)
	require.NoError(t, o.SendMessage(context.Background(), "anyone there?"))

	// The user message stays; no reply and no error notice appear
	snap := o.Snapshot()
	require.Len(t, snap.Transcript, 2)
	assert.Equal(t, models.RoleUser, snap.Transcript[1].Role)
	assert.Equal(t, "anyone there?", snap.Transcript[1].Text)
	assert.False(t, snap.PendingResponse)
	checkInvariants(t, snap)
}

func TestRequestHintAppendsMarkedSystemMessage(t *testing.T) {
	o := newCoachingSession(t, gateway.NewMock())
	require.NoError(t, o.RequestHint(context.Background()))

	snap := o.Snapshot()
	require.Len(t, snap.Transcript, 2)
	assert.Equal(t, models.RoleSystem, snap.Transcript[1].Role)
	assert.True(t, strings.HasPrefix(snap.Transcript[1].Text, hintMarker))
}

func TestRequestHintFailureAppendsNothing(t *testing.T) {
	gw := gateway.NewMock()
	gw.GetHintFn = func(ctx context.Context, h gateway.Handle) (string, error) {
		return "", gateway.ErrUnknownHandle
	}

	o := newCoachingSession(t, gw)
	require.NoError(t, o.RequestHint(context.Background()))

	snap := o.Snapshot()
	assert.Len(t, snap.Transcript, 1)
	assert.False(t, snap.PendingResponse)
}

func TestCompleteTransitionsToEvaluation(t *testing.T) {
	o := newCoachingSession(t, gateway.NewMock())
	require.NoError(t, o.SendMessage(context.Background(), "my final answer"))
	require.NoError(t, o.Complete(context.Background()))

	snap := o.Snapshot()
	assert.Equal(t, models.PhaseEvaluation, snap.Phase)
	require.NotNil(t, snap.Evaluation)
	assert.False(t, snap.PendingResponse)
	// Transcript survives into the evaluation phase
	assert.Len(t, snap.Transcript, 3)
	checkInvariants(t, snap)
}

func TestCompleteZeroResultStillTransitions(t *testing.T) {
	gw := gateway.NewMock()
	gw.EndAndEvaluateFn = func(ctx context.Context, h gateway.Handle, category models.Category) (*models.EvaluationResult, error) {
		// What the gateway returns when the remote reply is unparseable
		return models.ZeroEvaluation(), nil
	}

	o := newCoachingSession(t, gw)
	require.NoError(t, o.Complete(context.Background()))

	snap := o.Snapshot()
	assert.Equal(t, models.PhaseEvaluation, snap.Phase)
	require.NotNil(t, snap.Evaluation)
	assert.Zero(t, snap.Evaluation.Scores.FinalScore)
	assert.Zero(t, snap.Evaluation.Scores.StructuredThinking)
	assert.Zero(t, snap.Evaluation.Scores.FrameworkUsage)
	assert.Zero(t, snap.Evaluation.Scores.CommunicationClarity)
	checkInvariants(t, snap)
}

func TestCompleteTransportFailureStaysInCoaching(t *testing.T) {
	gw := gateway.NewMock()
	gw.EndAndEvaluateFn = func(ctx context.Context, h gateway.Handle, category models.Category) (*models.EvaluationResult, error) {
		return nil, gateway.ErrTransport
	}

	o := newCoachingSession(t, gw)
	require.NoError(t, o.Complete(context.Background()))

	snap := o.Snapshot()
	assert.Equal(t, models.PhaseCoaching, snap.Phase)
	assert.Nil(t, snap.Evaluation)
	assert.False(t, snap.PendingResponse)
	checkInvariants(t, snap)
}

func TestActionsRejectedWhilePending(t *testing.T) {
	gw := gateway.NewMock()
	started := make(chan struct{})
	release := make(chan struct{})
	gw.SendMessageFn = func(ctx context.Context, h gateway.Handle, userText string) (string, error) {
		close(started)
		<-release
		return "finally", nil
	}

	o := newCoachingSession(t, gw)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = o.SendMessage(context.Background(), "slow question")
	}()
	<-started

	// One call in flight: everything else is a no-op
	assert.ErrorIs(t, o.SendMessage(context.Background(), "second"), ErrBusy)
	assert.ErrorIs(t, o.RequestHint(context.Background()), ErrBusy)
	assert.ErrorIs(t, o.Complete(context.Background()), ErrBusy)

	snap := o.Snapshot()
	assert.True(t, snap.PendingResponse)
	assert.Len(t, snap.Transcript, 2, "only opening + the in-flight user message")

	close(release)
	wg.Wait()

	snap = o.Snapshot()
	assert.False(t, snap.PendingResponse)
	require.Len(t, snap.Transcript, 3)
	assert.Equal(t, "finally", snap.Transcript[2].Text)
}

func TestExitDiscardsSessionState(t *testing.T) {
	o := newCoachingSession(t, gateway.NewMock())
	require.NoError(t, o.SendMessage(context.Background(), "working on it"))
	require.NoError(t, o.Complete(context.Background()))

	require.NoError(t, o.Exit())

	snap := o.Snapshot()
	assert.Equal(t, models.PhaseSelection, snap.Phase)
	assert.Nil(t, snap.ActiveScenario)
	assert.Nil(t, snap.Evaluation)
	assert.Empty(t, snap.Transcript)
	checkInvariants(t, snap)

	// Exit is only valid from coaching/evaluation
	assert.ErrorIs(t, o.Exit(), ErrWrongPhase)
}

func TestExitThenSelectProducesFreshTranscript(t *testing.T) {
	o := newCoachingSession(t, gateway.NewMock())
	require.NoError(t, o.SendMessage(context.Background(), "first try"))
	require.Len(t, o.Snapshot().Transcript, 3)

	require.NoError(t, o.Exit())
	require.NoError(t, o.SelectScenario(context.Background(), strategyScenario))

	// Only the new opening message; nothing from the old run survives
	snap := o.Snapshot()
	require.Len(t, snap.Transcript, 1)
	assert.Contains(t, snap.Transcript[0].Text, strategyScenario.Title)
	assert.Equal(t, strategyScenario.ID, snap.ActiveScenario.ID)
	checkInvariants(t, snap)
}

func TestGoHomeFromAnyPhase(t *testing.T) {
	for _, setup := range []func(t *testing.T) *Orchestrator{
		func(t *testing.T) *Orchestrator { return NewOrchestrator("tok", gateway.NewMock()) },
		func(t *testing.T) *Orchestrator {
			o := NewOrchestrator("tok", gateway.NewMock())
			require.NoError(t, o.StartPractice())
			return o
		},
		func(t *testing.T) *Orchestrator { return newCoachingSession(t, gateway.NewMock()) },
		func(t *testing.T) *Orchestrator {
			o := newCoachingSession(t, gateway.NewMock())
			require.NoError(t, o.Complete(context.Background()))
			return o
		},
	} {
		o := setup(t)
		require.NoError(t, o.GoHome())

		snap := o.Snapshot()
		assert.Equal(t, models.PhaseLanding, snap.Phase)
		assert.Nil(t, snap.ActiveScenario)
		assert.Nil(t, snap.Evaluation)
		assert.Empty(t, snap.Transcript)
		checkInvariants(t, snap)
	}
}

func TestStaleReplyDiscardedAfterExit(t *testing.T) {
	gw := gateway.NewMock()
	started := make(chan struct{})
	release := make(chan struct{})
	gw.SendMessageFn = func(ctx context.Context, h gateway.Handle, userText string) (string, error) {
		close(started)
		<-release
		return "stale reply", nil
	}

	o := newCoachingSession(t, gw)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = o.SendMessage(context.Background(), "doomed question")
	}()
	<-started

	// Reset while the call is in flight
	require.NoError(t, o.Exit())
	require.NoError(t, o.SelectScenario(context.Background(), strategyScenario))

	close(release)
	wg.Wait()

	// The resolved stale reply must not reach the fresh transcript
	snap := o.Snapshot()
	require.Len(t, snap.Transcript, 1)
	for _, msg := range snap.Transcript {
		assert.NotEqual(t, "stale reply", msg.Text)
		assert.NotEqual(t, "doomed question", msg.Text)
	}
	assert.False(t, snap.PendingResponse)
	checkInvariants(t, snap)
}

func TestStaleStartDiscardedAfterGoHome(t *testing.T) {
	gw := gateway.NewMock()
	started := make(chan struct{})
	release := make(chan struct{})
	gw.StartScenarioFn = func(ctx context.Context, h gateway.Handle, title string, category models.Category) (string, error) {
		close(started)
		<-release
		return "late opening", nil
	}

	o := NewOrchestrator("tok", gw)
	require.NoError(t, o.StartPractice())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = o.SelectScenario(context.Background(), rcaScenario)
	}()
	<-started

	require.NoError(t, o.GoHome())
	close(release)
	wg.Wait()

	snap := o.Snapshot()
	assert.Equal(t, models.PhaseLanding, snap.Phase)
	assert.Empty(t, snap.Transcript)
	checkInvariants(t, snap)
}

func TestSubscribeReceivesTranscriptEvents(t *testing.T) {
	o := NewOrchestrator("tok", gateway.NewMock())
	events, cancel := o.Subscribe()
	defer cancel()

	require.NoError(t, o.StartPractice())
	require.NoError(t, o.SelectScenario(context.Background(), rcaScenario))

	var sawPhase, sawMessage bool
	for i := 0; i < 10; i++ {
		select {
		case ev := <-events:
			switch ev.Type {
			case models.EventPhase:
				sawPhase = true
			case models.EventMessage:
				sawMessage = true
				require.NotNil(t, ev.Message)
				assert.Equal(t, models.RoleModel, ev.Message.Role)
			}
		default:
		}
		if sawPhase && sawMessage {
			break
		}
	}

	assert.True(t, sawPhase, "expected a phase event")
	assert.True(t, sawMessage, "expected a message event")
}

func TestGatewayErrorsWrapSentinels(t *testing.T) {
	// Sanity check the error taxonomy the orchestrator logs against
	assert.True(t, errors.Is(gateway.ErrTransport, gateway.ErrTransport))
	assert.False(t, errors.Is(gateway.ErrTransport, gateway.ErrProtocol))
}
