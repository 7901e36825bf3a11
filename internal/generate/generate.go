// Package generate turns free text into flashcard proposals.
package generate

import (
	"context"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/fingerprint"
	"github.com/conorfennell/studydeck/internal/parser"
	"github.com/conorfennell/studydeck/internal/validate"
)

// Generator produces at most cmd.DesiredCount drafts from cmd.Text.
type Generator interface {
	Generate(ctx context.Context, cmd domain.GenerateFlashcards) ([]domain.Draft, error)
}

// RuleBased extracts cards without a model: explicit Q:/A: blocks first,
// then "term: definition" and "term - definition" lines.
type RuleBased struct{}

var definitionSeparators = []string{" :: ", ": ", " - ", " – "}

// Generate implements Generator.
func (RuleBased) Generate(ctx context.Context, cmd domain.GenerateFlashcards) ([]domain.Draft, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}

	drafts, err := parser.Parse(strings.NewReader(cmd.Text))
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(cmd.Text, "\n") {
		if d, ok := definitionLine(line); ok {
			drafts = append(drafts, d)
		}
	}

	seen := make(map[string]bool)
	var out []domain.Draft
	for _, d := range drafts {
		if strings.TrimSpace(d.Back) == "" {
			continue
		}
		h := fingerprint.Hash(d)
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, d)
		if len(out) == cmd.DesiredCount {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func definitionLine(line string) (domain.Draft, bool) {
	line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
	// Lines already handled by the block parser.
	for _, p := range []string{"Q:", "A:", "C:"} {
		if strings.HasPrefix(line, p) {
			return domain.Draft{}, false
		}
	}
	for _, sep := range definitionSeparators {
		term, def, ok := strings.Cut(line, sep)
		if !ok {
			continue
		}
		term, def = strings.TrimSpace(term), strings.TrimSpace(def)
		// Long "terms" are sentences that happen to contain the separator.
		if term == "" || def == "" || len(strings.Fields(term)) > 6 {
			return domain.Draft{}, false
		}
		return domain.Draft{Front: term, Back: def}, true
	}
	return domain.Draft{}, false
}
