// Package dashboard holds the seller's per-session working state and the actions that change it.
package dashboard

import (
	"errors"

	"cohost-dashboard/internal/cohost"
)

// ErrSessionNotFound is returned by stores for unknown or expired sessions.
var ErrSessionNotFound = errors.New("SESSION_NOT_FOUND")

// Phase summarises where a session is in the classify then generate flow.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseClassifying Phase = "classifying"
	PhaseClassified  Phase = "classified"
	PhaseGenerating  Phase = "generating"
	PhaseGenerated   Phase = "generated"
)

// State is one seller's dashboard. It is a value: transitions return a modified copy
// and never mutate the referenced results in place.
type State struct {
	Product        cohost.ProductContext        `json:"product"`
	Question       string                       `json:"question"`
	Classification *cohost.ClassificationResult `json:"classification"`
	Generated      *cohost.GeneratedResponse    `json:"generated"`
	Error          *string                      `json:"error"`
	Classifying    bool                         `json:"classifying"`
	Generating     bool                         `json:"generating"`
}

// NewState returns a fresh session prefilled with the example product.
func NewState() State {
	return State{Product: ExampleProduct()}
}

// ExampleProduct is the watch shown on first load.
func ExampleProduct() cohost.ProductContext {
	reference := "16610"
	year := 1995.0
	movement := "Caliber 3135"
	return cohost.ProductContext{
		Brand:     "Rolex",
		Model:     "Submariner",
		Reference: &reference,
		Price:     12500,
		Year:      &year,
		Condition: "Excellent",
		Movement:  &movement,
		BoxPapers: true,
	}
}

func (s State) Phase() Phase {
	switch {
	case s.Generating:
		return PhaseGenerating
	case s.Classifying:
		return PhaseClassifying
	case s.Generated != nil:
		return PhaseGenerated
	case s.Classification != nil:
		return PhaseClassified
	default:
		return PhaseIdle
	}
}

// ErrorMessage returns the current error text or "".
func (s State) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

func (s State) WithQuestion(text string) State {
	s.Question = text
	return s
}

func (s State) WithInputError(msg string) State {
	s.Error = &msg
	return s
}

// BeginClassify clears every earlier outcome, including a generated answer.
func (s State) BeginClassify() State {
	s.Error = nil
	s.Classification = nil
	s.Generated = nil
	s.Classifying = true
	return s
}

func (s State) ClassifySucceeded(result *cohost.ClassificationResult) State {
	s.Classification = result
	s.Classifying = false
	return s
}

func (s State) ClassifyFailed(msg string) State {
	s.Error = &msg
	s.Classifying = false
	return s
}

// BeginGenerate keeps the previous generated answer visible until a new one arrives.
func (s State) BeginGenerate() State {
	s.Error = nil
	s.Generating = true
	return s
}

func (s State) GenerateSucceeded(result *cohost.GeneratedResponse) State {
	s.Generated = result
	s.Generating = false
	return s
}

func (s State) GenerateFailed(msg string) State {
	s.Error = &msg
	s.Generating = false
	return s
}
