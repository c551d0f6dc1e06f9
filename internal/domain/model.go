package domain

// ModelCategory classifies a model for presentation. Purely
// classificatory, never affects arithmetic.
type ModelCategory string

// Model categories.
const (
	CategoryTraditional ModelCategory = "traditional"
	CategoryML          ModelCategory = "ml"
	CategoryDL          ModelCategory = "dl"
)

// ModelDescriptor describes one entry of the model catalog.
type ModelDescriptor struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"display_name"`
	Description string        `json:"description"`
	Category    ModelCategory `json:"category"`
}
