package domain

import "time"

// Project groups flashcards that are studied together.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Draft is a front/back pair that has not been stored yet. Parsers and
// generators produce drafts; the deck service turns them into flashcards.
type Draft struct {
	Front   string `json:"front"`
	Back    string `json:"back"`
	Context string `json:"context,omitempty"`
}

// Flashcard is a stored card belonging to a project.
type Flashcard struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Front     string `json:"front"`
	Back      string `json:"back"`
	Context   string `json:"context,omitempty"`
	Hash      string `json:"-"`
	SourceID  int64  `json:"source_id,omitempty"` // 0 when the card was created by hand
	// SourceHash is the hash of the draft the card was imported from. Edits
	// change Hash but not SourceHash, so a sync still recognizes the card.
	SourceHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Source is a markdown location that cards are imported from, either a
// local directory or a git repository.
type Source struct {
	ID          int64     `json:"id"`
	ProjectID   string    `json:"project_id"`
	Path        string    `json:"path"`
	Type        string    `json:"type"`
	LastScanned time.Time `json:"last_scanned"`
}

const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// ReviewLog records a single review event for a card.
type ReviewLog struct {
	FlashcardID string
	Rating      string
	ReviewedAt  time.Time
	Stability   float64
	DueAt       time.Time
}
