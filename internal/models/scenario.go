package models

// Category is the interview scenario category. The string values are
// the wire values used by the catalog files and the API.
type Category string

const (
	CategoryRCA           Category = "RCA"
	CategoryGuesstimate   Category = "Guesstimate"
	CategoryStrategy      Category = "Strategy"
	CategoryProductDesign Category = "Product Design"
)

// Difficulty rates a scenario
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// DifficultyAll is the wildcard value accepted by catalog filters
const DifficultyAll = "All"

// Scenario is a single practice prompt. Scenarios are loaded once at
// process start and never mutated.
type Scenario struct {
	ID           string     `json:"id" yaml:"id"`
	Category     Category   `json:"category" yaml:"category"`
	Title        string     `json:"title" yaml:"title"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty"`
	CompanyStyle string     `json:"companyStyle,omitempty" yaml:"company_style,omitempty"`
}

// ScoreDimension names one scoring axis of an evaluation
type ScoreDimension string

const (
	DimStructuredThinking    ScoreDimension = "structuredThinking"
	DimFrameworkUsage        ScoreDimension = "frameworkUsage"
	DimCommunicationClarity  ScoreDimension = "communicationClarity"
	DimMathAndReasoning      ScoreDimension = "mathAndReasoning"
	DimStrategicInsight      ScoreDimension = "strategicInsight"
	DimUserUnderstanding     ScoreDimension = "userUnderstanding"
	DimPrioritizationClarity ScoreDimension = "prioritizationClarity"
)

// CategoryProfile describes the coaching persona and the extra scoring
// dimensions a category carries on top of the base three.
type CategoryProfile struct {
	Category        Category         `json:"category"`
	CoachPersona    string           `json:"coachPersona"`
	ExtraDimensions []ScoreDimension `json:"extraDimensions"`
}

// Profiles maps each category to its coaching profile. Adding a
// category means adding one entry here plus its prompts.
var Profiles = map[Category]CategoryProfile{
	CategoryRCA: {
		Category:     CategoryRCA,
		CoachPersona: "RCA Coach AI",
	},
	CategoryGuesstimate: {
		Category:        CategoryGuesstimate,
		CoachPersona:    "Senior PM Interviewer",
		ExtraDimensions: []ScoreDimension{DimMathAndReasoning},
	},
	CategoryStrategy: {
		Category:        CategoryStrategy,
		CoachPersona:    "VP of Product",
		ExtraDimensions: []ScoreDimension{DimStrategicInsight},
	},
	CategoryProductDesign: {
		Category:        CategoryProductDesign,
		CoachPersona:    "Senior PM Interview Coach",
		ExtraDimensions: []ScoreDimension{DimUserUnderstanding, DimPrioritizationClarity},
	},
}

// ValidCategory reports whether c is a known category
func ValidCategory(c Category) bool {
	_, ok := Profiles[c]
	return ok
}

// ValidDifficulty reports whether d is a known difficulty
func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
