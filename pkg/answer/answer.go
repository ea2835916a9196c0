// Package answer implements the question steps of the wizard as controlled
// components: each operation receives the current answer and returns the
// new answer together with the navigation it requests.
package answer

import (
	"errors"

	"github.com/aretw0/leadflow/pkg/domain"
)

// ErrUnknownOption is returned when a value is not one of the step's options.
var ErrUnknownOption = errors.New("unknown option")

// Outcome is the navigation requested by a step.
type Outcome int

const (
	Stay Outcome = iota
	Advance
	Retreat
)

func (o Outcome) String() string {
	switch o {
	case Advance:
		return "advance"
	case Retreat:
		return "retreat"
	default:
		return "stay"
	}
}

// Result is the outcome of an answer step operation.
// Errors holds field messages when the step refused to advance.
type Result struct {
	Answer  domain.Answer
	Outcome Outcome
	Errors  map[string]string
}

// Back requests the previous step, leaving the answer untouched.
func Back(current domain.Answer) Result {
	return Result{Answer: current, Outcome: Retreat}
}
