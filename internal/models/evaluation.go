package models

// ScoreBlock holds the numeric scores of an evaluation. The base three
// dimensions and FinalScore are always present; the optional pointers
// are category-specific and populated per the category profile.
type ScoreBlock struct {
	StructuredThinking   float64 `json:"structuredThinking"`
	FrameworkUsage       float64 `json:"frameworkUsage"`
	CommunicationClarity float64 `json:"communicationClarity"`

	MathAndReasoning      *float64 `json:"mathAndReasoning,omitempty"`
	StrategicInsight      *float64 `json:"strategicInsight,omitempty"`
	UserUnderstanding     *float64 `json:"userUnderstanding,omitempty"`
	PrioritizationClarity *float64 `json:"prioritizationClarity,omitempty"`

	FinalScore float64 `json:"finalScore"`
}

// EvaluationResult is the structured scoring report returned when a
// session completes. Immutable once created; discarded on reset.
type EvaluationResult struct {
	RootCauseSummary       string     `json:"rootCauseSummary"`
	ReasoningSteps         []string   `json:"reasoningSteps"`
	RecommendedActions     []string   `json:"recommendedActions"`
	Scores                 ScoreBlock `json:"scores"`
	ImprovementSuggestions string     `json:"improvementSuggestions"`
}

// ZeroEvaluation returns the degenerate zero-score result used when
// the remote reply cannot be parsed. Keeping this local guarantees a
// completed session always reaches the evaluation phase.
func ZeroEvaluation() *EvaluationResult {
	return &EvaluationResult{
		RootCauseSummary:       "Error retrieving evaluation.",
		ReasoningSteps:         []string{},
		RecommendedActions:     []string{},
		Scores:                 ScoreBlock{},
		ImprovementSuggestions: "Please try again.",
	}
}

// Normalize strips optional score dimensions that do not belong to the
// given category, so illegal combinations never leave the gateway.
func (e *EvaluationResult) Normalize(category Category) {
	keep := map[ScoreDimension]bool{}
	for _, dim := range Profiles[category].ExtraDimensions {
		keep[dim] = true
	}

	if !keep[DimMathAndReasoning] {
		e.Scores.MathAndReasoning = nil
	}
	if !keep[DimStrategicInsight] {
		e.Scores.StrategicInsight = nil
	}
	if !keep[DimUserUnderstanding] {
		e.Scores.UserUnderstanding = nil
	}
	if !keep[DimPrioritizationClarity] {
		e.Scores.PrioritizationClarity = nil
	}

	if e.ReasoningSteps == nil {
		e.ReasoningSteps = []string{}
	}
	if e.RecommendedActions == nil {
		e.RecommendedActions = []string{}
	}
}
