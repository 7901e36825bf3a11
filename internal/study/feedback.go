package study

import (
	"slices"
	"strings"

	"github.com/conorfennell/studydeck/internal/validate"
)

// StudyCard is the read-only view of a due card. It is never modified while
// the session displays it.
type StudyCard struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Rating is the user's self-assessed recall quality for a revealed card.
type Rating string

const (
	Easy Rating = "easy"
	Good Rating = "good"
	Hard Rating = "hard"
)

// Ratings lists every accepted rating.
var Ratings = []Rating{Easy, Good, Hard}

// Valid reports whether r is one of Ratings.
func (r Rating) Valid() bool {
	return slices.Contains(Ratings, r)
}

// ParseRating maps raw input onto a Rating. Case and surrounding space are
// ignored; anything outside the three ratings is a ValidationError.
func ParseRating(raw string) (Rating, error) {
	r := Rating(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		names := make([]string, len(Ratings))
		for i, name := range Ratings {
			names[i] = string(name)
		}
		return "", validate.Invalid("difficulty", "oneof", strings.Join(names, " "))
	}
	return r, nil
}

// FeedbackCommand is sent to the backend once per reviewed card.
type FeedbackCommand struct {
	FlashcardID string `json:"flashcardId" validate:"required"`
	Difficulty  Rating `json:"difficulty" validate:"oneof=easy good hard"`
}

// Collect turns a rating for cardID into a FeedbackCommand. No command is
// produced when the rating is unknown or the card id is empty.
func Collect(cardID, raw string) (FeedbackCommand, error) {
	rating, err := ParseRating(raw)
	if err != nil {
		return FeedbackCommand{}, err
	}
	cmd := FeedbackCommand{FlashcardID: cardID, Difficulty: rating}
	if err := validate.Struct(cmd); err != nil {
		return FeedbackCommand{}, err
	}
	return cmd, nil
}

// Percentage is the share of completed cards, 0 when total is 0.
func Percentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
