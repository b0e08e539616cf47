package gateway

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/casequest/coach-engine/internal/models"
)

// evaluationSchema constrains the end-of-session reply to the exact
// EvaluationResult wire shape. This is the one bit-exact contract with
// the remote service.
var evaluationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"rootCauseSummary": {
			Type:        genai.TypeString,
			Description: "The answer or summary of the case.",
		},
		"reasoningSteps": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Step-by-step logical breakdown of the ideal path.",
		},
		"recommendedActions": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "2-4 follow-up actions or conclusions.",
		},
		"scores": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"structuredThinking":    {Type: genai.TypeNumber, Description: "Score 1-5"},
				"frameworkUsage":        {Type: genai.TypeNumber, Description: "Score 1-5"},
				"communicationClarity":  {Type: genai.TypeNumber, Description: "Score 1-5"},
				"mathAndReasoning":      {Type: genai.TypeNumber, Description: "Score 1-5 (Optional, for Guesstimates)"},
				"strategicInsight":      {Type: genai.TypeNumber, Description: "Score 1-5 (Optional, for Strategy)"},
				"userUnderstanding":     {Type: genai.TypeNumber, Description: "Score 1-5 (Optional, for Product Design)"},
				"prioritizationClarity": {Type: genai.TypeNumber, Description: "Score 1-5 (Optional, for Product Design)"},
				"finalScore":            {Type: genai.TypeNumber, Description: "Total Score 0-100"},
			},
			Required: []string{"structuredThinking", "frameworkUsage", "communicationClarity", "finalScore"},
		},
		"improvementSuggestions": {
			Type:        genai.TypeString,
			Description: "Constructive feedback for the user.",
		},
	},
	Required: []string{"rootCauseSummary", "reasoningSteps", "recommendedActions", "scores", "improvementSuggestions"},
}

// evaluationProbe mirrors EvaluationResult with pointer fields so a
// missing required key is distinguishable from a zero value.
type evaluationProbe struct {
	RootCauseSummary   *string   `json:"rootCauseSummary"`
	ReasoningSteps     *[]string `json:"reasoningSteps"`
	RecommendedActions *[]string `json:"recommendedActions"`
	Scores             *struct {
		StructuredThinking    *float64 `json:"structuredThinking"`
		FrameworkUsage        *float64 `json:"frameworkUsage"`
		CommunicationClarity  *float64 `json:"communicationClarity"`
		MathAndReasoning      *float64 `json:"mathAndReasoning"`
		StrategicInsight      *float64 `json:"strategicInsight"`
		UserUnderstanding     *float64 `json:"userUnderstanding"`
		PrioritizationClarity *float64 `json:"prioritizationClarity"`
		FinalScore            *float64 `json:"finalScore"`
	} `json:"scores"`
	ImprovementSuggestions *string `json:"improvementSuggestions"`
}

// parseEvaluation validates a raw reply against the evaluation shape
// and builds the result, normalized for the scenario category.
// Returns ErrProtocol when the reply violates the schema.
func parseEvaluation(raw string, category models.Category) (*models.EvaluationResult, error) {
	var probe evaluationProbe
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	if probe.RootCauseSummary == nil ||
		probe.ReasoningSteps == nil ||
		probe.RecommendedActions == nil ||
		probe.Scores == nil ||
		probe.ImprovementSuggestions == nil {
		return nil, fmt.Errorf("%w: missing required evaluation field", ErrProtocol)
	}

	s := probe.Scores
	if s.StructuredThinking == nil || s.FrameworkUsage == nil ||
		s.CommunicationClarity == nil || s.FinalScore == nil {
		return nil, fmt.Errorf("%w: missing required score field", ErrProtocol)
	}

	result := &models.EvaluationResult{
		RootCauseSummary:   *probe.RootCauseSummary,
		ReasoningSteps:     *probe.ReasoningSteps,
		RecommendedActions: *probe.RecommendedActions,
		Scores: models.ScoreBlock{
			StructuredThinking:    *s.StructuredThinking,
			FrameworkUsage:        *s.FrameworkUsage,
			CommunicationClarity:  *s.CommunicationClarity,
			MathAndReasoning:      s.MathAndReasoning,
			StrategicInsight:      s.StrategicInsight,
			UserUnderstanding:     s.UserUnderstanding,
			PrioritizationClarity: s.PrioritizationClarity,
			FinalScore:            *s.FinalScore,
		},
		ImprovementSuggestions: *probe.ImprovementSuggestions,
	}

	result.Normalize(category)
	return result, nil
}
