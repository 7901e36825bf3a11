package fsrs

import (
	"math"
	"time"
)

// Rating is the user's response to a card review.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

const maxDifficulty = 10

// Params holds the parameters for the scheduler.
type Params struct {
	A                float64 // scales the overall memory increase
	B                float64 // difficulty exponent
	C                float64 // stability exponent
	D                float64 // retention effect scaler
	EasyBonus        float64 // extra stability multiplier for Easy
	DesiredRetention float64 // e.g. 0.9 for 90%
}

// DefaultParams provides a set of sensible default parameters to start with.
func DefaultParams() *Params {
	return &Params{
		A:                0.2,
		B:                0.5,
		C:                0.1,
		D:                4.0,
		EasyBonus:        1.3,
		DesiredRetention: 0.9,
	}
}

// CardState holds the memory state of a card.
type CardState struct {
	Stability  float64
	Difficulty float64
	LastReview time.Time
}

// NextState calculates the next stability and difficulty after a review at now.
func (p *Params) NextState(current CardState, rating Rating, now time.Time) CardState {
	if rating == Again {
		return CardState{
			Stability:  1,
			Difficulty: math.Min(maxDifficulty, current.Difficulty+0.5),
			LastReview: now,
		}
	}

	stability := p.calculateNewStability(current.Stability, current.Difficulty)
	difficulty := current.Difficulty
	switch rating {
	case Hard:
		difficulty = math.Min(maxDifficulty, difficulty+0.1)
	case Easy:
		stability *= p.EasyBonus
		difficulty = math.Max(0, difficulty-0.1)
	}

	return CardState{
		Stability:  stability,
		Difficulty: difficulty,
		LastReview: now,
	}
}

// calculateNewStability applies the stability update for a successful review:
// S' = S * (1 + a * D^(-b) * S^c * (e^(d * (1-R)) - 1))
func (p *Params) calculateNewStability(stability, difficulty float64) float64 {
	// Keep both terms >= 1 so the powers stay well behaved.
	stability = math.Max(1, stability)
	difficulty = math.Max(1, difficulty)

	factor := p.A * math.Pow(difficulty, -p.B) * math.Pow(stability, p.C)
	multiplier := math.Exp(p.D*(1-p.DesiredRetention)) - 1

	return stability * (1 + factor*multiplier)
}

// NextDueDate schedules the next review round(stability) days after now.
func NextDueDate(stability float64, now time.Time) time.Time {
	days := time.Duration(math.Round(stability))
	return now.Add(days * 24 * time.Hour)
}
