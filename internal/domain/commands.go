package domain

// MaxGenerateTextLength bounds the text accepted for flashcard generation,
// counted in characters.
const MaxGenerateTextLength = 10000

// CreateProject is the inbound command for a new project.
type CreateProject struct {
	Name        string `json:"name" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateFlashcard is the inbound command for creating or editing a card.
type CreateFlashcard struct {
	Front string `json:"front" validate:"notblank"`
	Back  string `json:"back" validate:"notblank"`
}

// GenerateFlashcards asks a generator for up to DesiredCount proposals. The
// max rule on Text must match MaxGenerateTextLength.
type GenerateFlashcards struct {
	Text         string `json:"text" validate:"notblank,max=10000"`
	DesiredCount int    `json:"desired_count" validate:"min=1,max=50"`
}

// AddSource registers a markdown source for a project.
type AddSource struct {
	ProjectID string `json:"project_id" validate:"required"`
	Path      string `json:"path" validate:"notblank"`
}
