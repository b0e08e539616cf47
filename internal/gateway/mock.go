package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/casequest/coach-engine/internal/models"
)

// Mock is a scriptable in-process CoachGateway for tests and local
// development (USE_MOCK_GATEWAY=1). The Fn fields override individual
// operations; unset operations return canned deterministic replies.
type Mock struct {
	mu      sync.Mutex
	handles map[Handle]models.Category

	CreateSessionFn  func(ctx context.Context, category models.Category) (Handle, error)
	StartScenarioFn  func(ctx context.Context, h Handle, title string, category models.Category) (string, error)
	SendMessageFn    func(ctx context.Context, h Handle, userText string) (string, error)
	GetHintFn        func(ctx context.Context, h Handle) (string, error)
	EndAndEvaluateFn func(ctx context.Context, h Handle, category models.Category) (*models.EvaluationResult, error)
}

// NewMock creates a mock gateway with canned behavior
func NewMock() *Mock {
	return &Mock{handles: make(map[Handle]models.Category)}
}

func (m *Mock) CreateSession(ctx context.Context, category models.Category) (Handle, error) {
	if m.CreateSessionFn != nil {
		return m.CreateSessionFn(ctx, category)
	}
	h := Handle(uuid.New().String())
	m.mu.Lock()
	m.handles[h] = category
	m.mu.Unlock()
	return h, nil
}

func (m *Mock) StartScenario(ctx context.Context, h Handle, title string, category models.Category) (string, error) {
	if m.StartScenarioFn != nil {
		return m.StartScenarioFn(ctx, h, title, category)
	}
	if err := m.check(h); err != nil {
		return "", err
	}
	return fmt.Sprintf("Welcome! Let's work through: %s. How would you like to start?", title), nil
}

func (m *Mock) SendMessage(ctx context.Context, h Handle, userText string) (string, error) {
	if m.SendMessageFn != nil {
		return m.SendMessageFn(ctx, h, userText)
	}
	if err := m.check(h); err != nil {
		return "", err
	}
	return fmt.Sprintf("Interesting. You said %q. What would you examine next?", userText), nil
}

func (m *Mock) GetHint(ctx context.Context, h Handle) (string, error) {
	if m.GetHintFn != nil {
		return m.GetHintFn(ctx, h)
	}
	if err := m.check(h); err != nil {
		return "", err
	}
	return "Consider segmenting the problem before diving deeper.", nil
}

func (m *Mock) EndAndEvaluate(ctx context.Context, h Handle, category models.Category) (*models.EvaluationResult, error) {
	if m.EndAndEvaluateFn != nil {
		return m.EndAndEvaluateFn(ctx, h, category)
	}
	if err := m.check(h); err != nil {
		return nil, err
	}

	result := &models.EvaluationResult{
		RootCauseSummary:       "Mock evaluation summary.",
		ReasoningSteps:         []string{"Clarified the problem", "Segmented the metric"},
		RecommendedActions:     []string{"Validate the top hypothesis"},
		Scores:                 models.ScoreBlock{StructuredThinking: 3, FrameworkUsage: 3, CommunicationClarity: 3, FinalScore: 60},
		ImprovementSuggestions: "Structure your hypotheses before testing them.",
	}
	result.Normalize(category)
	return result, nil
}

func (m *Mock) CloseSession(h Handle) {
	m.mu.Lock()
	delete(m.handles, h)
	m.mu.Unlock()
}

func (m *Mock) check(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.handles[h]; !ok {
		return ErrUnknownHandle
	}
	return nil
}
