package extract

type (
	// Category classifies an extracted fact.
	Category string

	// Fact is an ephemeral extraction candidate. It is never persisted
	// directly; the memory store builds a Memory from it.
	Fact struct {
		Category    Category `json:"category"`
		Content     string   `json:"content"`
		Confidence  float64  `json:"confidence"`
		MatchedSpan string   `json:"matchedSpan"`
	}
)

const (
	CategoryIdentity   Category = "identity"
	CategoryLocation   Category = "location"
	CategoryWork       Category = "work"
	CategoryPreference Category = "preference"
	CategoryEducation  Category = "education"
	CategoryFamily     Category = "family"
	CategoryHobby      Category = "hobby"
	CategoryGoal       Category = "goal"
	CategoryHealth     Category = "health"
	CategoryTechnology Category = "technology"
	CategoryGeneral    Category = "general"
)

// Categories lists every known category, in declaration order.
func Categories() []Category {
	return []Category{
		CategoryIdentity,
		CategoryLocation,
		CategoryWork,
		CategoryPreference,
		CategoryEducation,
		CategoryFamily,
		CategoryHobby,
		CategoryGoal,
		CategoryHealth,
		CategoryTechnology,
		CategoryGeneral,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
