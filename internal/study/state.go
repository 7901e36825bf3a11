package study

// Phase names the variant a State is in.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReviewing
	PhaseRevealed
	PhaseSubmitting
	PhaseFinished
	PhaseFailed
	PhaseExited
)

var phaseNames = [...]string{
	PhaseLoading:    "loading",
	PhaseReviewing:  "reviewing",
	PhaseRevealed:   "revealed",
	PhaseSubmitting: "submitting",
	PhaseFinished:   "finished",
	PhaseFailed:     "failed",
	PhaseExited:     "exited",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Terminal reports whether no further card can be shown in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseFailed || p == PhaseExited
}

// State is the session's current variant. Only the types in this file
// implement it, so a card is present exactly in the phases that show one.
type State interface {
	Phase() Phase
	isState()
}

// Loading waits for the next due card. Pending is set while a fetch is
// outstanding.
type Loading struct{ Pending bool }

// Reviewing shows the front of Card.
type Reviewing struct{ Card StudyCard }

// Revealed shows both sides of Card and accepts feedback.
type Revealed struct{ Card StudyCard }

// Submitting waits for the backend to accept Rating for Card.
type Submitting struct {
	Card   StudyCard
	Rating Rating
}

// Finished means no more cards are due.
type Finished struct{}

// Failed ends the session after a fetch or submit error.
type Failed struct{ Message string }

// Exited means the host navigated away.
type Exited struct{}

func (Loading) Phase() Phase { return PhaseLoading }
func (Reviewing) Phase() Phase { return PhaseReviewing }
func (Revealed) Phase() Phase { return PhaseRevealed }
func (Submitting) Phase() Phase { return PhaseSubmitting }
func (Finished) Phase() Phase { return PhaseFinished }
func (Failed) Phase() Phase { return PhaseFailed }
func (Exited) Phase() Phase { return PhaseExited }

func (Loading) isState() {}
func (Reviewing) isState() {}
func (Revealed) isState() {}
func (Submitting) isState() {}
func (Finished) isState() {}
func (Failed) isState() {}
func (Exited) isState() {}

// currentCard returns the card shown in s, if any.
func currentCard(s State) (StudyCard, bool) {
	switch st := s.(type) {
	case Reviewing:
		return st.Card, true
	case Revealed:
		return st.Card, true
	case Submitting:
		return st.Card, true
	}
	return StudyCard{}, false
}

// Snapshot is a copy of the session taken under the controller's lock.
type Snapshot struct {
	State      State      `json:"-"`
	Phase      Phase      `json:"phase"`
	Card       *StudyCard `json:"card,omitempty"`
	Revealed   bool       `json:"revealed"`
	Ended      bool       `json:"ended"` // no further card will be shown
	Completed  int        `json:"completed"`
	Total      int        `json:"total"`
	Percentage float64    `json:"percentage"`
	Error      string     `json:"error,omitempty"`
}
