package validate

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/conorfennell/studydeck/internal/domain"
)

func TestStruct(t *testing.T) {
	testCases := []struct {
		name       string
		input      any
		wantFields []string
	}{
		{
			name:  "valid flashcard",
			input: domain.CreateFlashcard{Front: "front", Back: "back"},
		},
		{
			name:       "missing back",
			input:      domain.CreateFlashcard{Front: "front"},
			wantFields: []string{"back"},
		},
		{
			name:       "blank front",
			input:      domain.CreateFlashcard{Front: "   \n", Back: "back"},
			wantFields: []string{"front"},
		},
		{
			name:  "generate at bounds",
			input: domain.GenerateFlashcards{Text: strings.Repeat("é", domain.MaxGenerateTextLength), DesiredCount: 50},
		},
		{
			name:       "generate text too long",
			input:      domain.GenerateFlashcards{Text: strings.Repeat("a", domain.MaxGenerateTextLength+1), DesiredCount: 1},
			wantFields: []string{"text"},
		},
		{
			name:       "generate count out of range",
			input:      domain.GenerateFlashcards{Text: "some text", DesiredCount: 0},
			wantFields: []string{"desired_count"},
		},
		{
			name:       "generate count above range",
			input:      domain.GenerateFlashcards{Text: "", DesiredCount: 51},
			wantFields: []string{"text", "desired_count"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.input)
			if len(tc.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected *ValidationError, got %T (%v)", err, err)
			}
			if len(ve.Fields) != len(tc.wantFields) {
				t.Fatalf("Expected %d field errors, got %v", len(tc.wantFields), ve.Fields)
			}
			for i, f := range tc.wantFields {
				if ve.Fields[i].Field != f {
					t.Errorf("Expected field %q at %d, got %q", f, i, ve.Fields[i].Field)
				}
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	wrapped := fmt.Errorf("create card: %w", Invalid("front", "notblank", ""))
	if !IsValidation(wrapped) {
		t.Error("Expected wrapped ValidationError to be detected")
	}
	if IsValidation(errors.New("boom")) {
		t.Error("Expected plain error not to be a ValidationError")
	}
	if got := Invalid("difficulty", "oneof", "easy good hard").Error(); got != "validation failed: difficulty: oneof=easy good hard" {
		t.Errorf("Unexpected message %q", got)
	}
}
