package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/casequest/coach-engine/internal/config"
	"github.com/casequest/coach-engine/internal/models"
)

// conversation holds the server-side state behind one handle. The
// orchestrator guarantees at most one call in flight per handle, so
// history needs no lock of its own.
type conversation struct {
	category models.Category
	system   string
	history  []*genai.Content
}

// GeminiGateway implements CoachGateway against the Gemini API. Each
// handle maps to a held conversation; every operation is one
// GenerateContent round trip carrying the full history.
type GeminiGateway struct {
	cfg config.GeminiConfig

	mu            sync.Mutex
	client        *genai.Client
	conversations map[Handle]*conversation
}

// NewGeminiGateway builds the gateway. The underlying client is
// created lazily on first use so a missing credential surfaces as a
// transport error on the first call instead of a startup crash.
func NewGeminiGateway(cfg config.GeminiConfig) *GeminiGateway {
	return &GeminiGateway{
		cfg:           cfg,
		conversations: make(map[Handle]*conversation),
	}
}

// ensureClient creates the genai client on first use
func (g *GeminiGateway) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	if g.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API credential configured", ErrTransport)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating client: %v", ErrTransport, err)
	}

	g.client = client
	return client, nil
}

// CreateSession registers a conversation configured with the
// category's standing instruction profile.
func (g *GeminiGateway) CreateSession(ctx context.Context, category models.Category) (Handle, error) {
	if _, err := g.ensureClient(ctx); err != nil {
		return "", err
	}

	h := Handle(uuid.New().String())

	g.mu.Lock()
	g.conversations[h] = &conversation{
		category: category,
		system:   systemInstruction(category),
	}
	g.mu.Unlock()

	slog.Debug("coaching session opened", "handle", h, "category", category)
	return h, nil
}

// CloseSession discards the conversation held for h
func (g *GeminiGateway) CloseSession(h Handle) {
	g.mu.Lock()
	delete(g.conversations, h)
	g.mu.Unlock()
}

func (g *GeminiGateway) lookup(h Handle) (*conversation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	conv, ok := g.conversations[h]
	if !ok {
		return nil, ErrUnknownHandle
	}
	return conv, nil
}

// generate sends one turn and commits it to the conversation history
// on success. extra, when non-nil, customizes the generation config
// (used by the evaluation call to force the JSON response schema).
func (g *GeminiGateway) generate(ctx context.Context, conv *conversation, text string, extra func(*genai.GenerateContentConfig)) (string, error) {
	client, err := g.ensureClient(ctx)
	if err != nil {
		return "", err
	}

	userTurn := genai.NewContentFromText(text, genai.RoleUser)
	contents := make([]*genai.Content, 0, len(conv.history)+1)
	contents = append(contents, conv.history...)
	contents = append(contents, userTurn)

	temp := float32(g.cfg.Temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(conv.system, genai.RoleUser),
		Temperature:       &temp,
	}
	if extra != nil {
		extra(cfg)
	}

	res, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", ErrTransport, err)
	}

	reply := res.Text()
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", ErrTransport)
	}

	conv.history = append(conv.history, userTurn, genai.NewContentFromText(reply, genai.RoleModel))
	return reply, nil
}

// StartScenario sends the category framing prompt and returns the
// coach's opening text verbatim.
func (g *GeminiGateway) StartScenario(ctx context.Context, h Handle, title string, category models.Category) (string, error) {
	conv, err := g.lookup(h)
	if err != nil {
		return "", err
	}
	return g.generate(ctx, conv, startScenarioPrompt(title, category), nil)
}

// SendMessage forwards the user's literal text as the next turn
func (g *GeminiGateway) SendMessage(ctx context.Context, h Handle, userText string) (string, error) {
	conv, err := g.lookup(h)
	if err != nil {
		return "", err
	}
	return g.generate(ctx, conv, userText, nil)
}

// GetHint requests a directional nudge. Transport failures degrade to
// the fixed fallback string; only an invalid handle is an error.
func (g *GeminiGateway) GetHint(ctx context.Context, h Handle) (string, error) {
	conv, err := g.lookup(h)
	if err != nil {
		return "", err
	}

	hint, err := g.generate(ctx, conv, hintPrompt, nil)
	if err != nil {
		slog.Warn("hint request failed, using fallback", "handle", h, "error", err)
		return HintFallback, nil
	}
	return hint, nil
}

// EndAndEvaluate reveals the solution and grades the session. The
// reply is forced into the evaluation JSON shape; a reply that still
// violates the shape is masked with the zero-score result so the
// caller can always reach the evaluation phase. Transport failures
// propagate.
func (g *GeminiGateway) EndAndEvaluate(ctx context.Context, h Handle, category models.Category) (*models.EvaluationResult, error) {
	conv, err := g.lookup(h)
	if err != nil {
		return nil, err
	}

	raw, err := g.generate(ctx, conv, evaluationPrompt(category), func(cfg *genai.GenerateContentConfig) {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = evaluationSchema
	})
	if err != nil {
		return nil, err
	}

	result, err := parseEvaluation(raw, category)
	if err != nil {
		slog.Error("evaluation reply violates schema, returning zero result", "handle", h, "error", err)
		return models.ZeroEvaluation(), nil
	}
	return result, nil
}
