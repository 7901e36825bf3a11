package fsrs

import (
	"math"
	"testing"
	"time"
)

func TestCalculateNewStability(t *testing.T) {
	params := DefaultParams()

	// S' = 10 * (1 + 0.2 * 5^(-0.5) * 10^0.1 * (e^(4 * (1-0.9)) - 1))
	//    = 10 * (1 + 0.112 * 0.4918) = 10.55
	expected := 10.55

	got := params.calculateNewStability(10, 5)
	if math.Abs(got-expected) > 0.01 {
		t.Errorf("Expected new stability to be around %.2f, but got %.2f", expected, got)
	}
}

func TestNextState(t *testing.T) {
	params := DefaultParams()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	initial := CardState{
		Stability:  10,
		Difficulty: 5,
		LastReview: now.Add(-10 * 24 * time.Hour),
	}

	t.Run("Review with Again", func(t *testing.T) {
		next := params.NextState(initial, Again, now)
		if next.Stability != 1 {
			t.Errorf("Expected stability to be reset to 1, but got %.2f", next.Stability)
		}
		if next.Difficulty <= initial.Difficulty {
			t.Errorf("Expected difficulty to increase, got %.2f", next.Difficulty)
		}
		if !next.LastReview.Equal(now) {
			t.Errorf("Expected last review %v, got %v", now, next.LastReview)
		}
	})

	t.Run("Review with Good", func(t *testing.T) {
		next := params.NextState(initial, Good, now)
		if next.Stability <= initial.Stability {
			t.Errorf("Expected stability to increase, got %.2f", next.Stability)
		}
		if next.Difficulty != initial.Difficulty {
			t.Errorf("Expected difficulty to remain the same for 'Good', got %.2f", next.Difficulty)
		}
	})

	t.Run("Review with Hard", func(t *testing.T) {
		next := params.NextState(initial, Hard, now)
		if next.Stability <= initial.Stability {
			t.Errorf("Expected stability to increase, got %.2f", next.Stability)
		}
		if next.Difficulty <= initial.Difficulty {
			t.Errorf("Expected difficulty to increase for 'Hard', got %.2f", next.Difficulty)
		}
	})

	t.Run("Review with Easy", func(t *testing.T) {
		good := params.NextState(initial, Good, now)
		easy := params.NextState(initial, Easy, now)
		if easy.Stability <= good.Stability {
			t.Errorf("Expected Easy to grow stability more than Good, got %.2f <= %.2f", easy.Stability, good.Stability)
		}
		if easy.Difficulty >= initial.Difficulty {
			t.Errorf("Expected difficulty to decrease for 'Easy', got %.2f", easy.Difficulty)
		}
	})

	t.Run("Difficulty is capped", func(t *testing.T) {
		next := params.NextState(CardState{Stability: 3, Difficulty: 9.9}, Again, now)
		if next.Difficulty != maxDifficulty {
			t.Errorf("Expected difficulty capped at %d, got %.2f", maxDifficulty, next.Difficulty)
		}
	})
}

func TestNextDueDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// 15.5 rounds to 16 days.
	expected := now.Add(16 * 24 * time.Hour)
	if got := NextDueDate(15.5, now); !got.Equal(expected) {
		t.Errorf("Expected due date %v, but got %v", expected, got)
	}
}
