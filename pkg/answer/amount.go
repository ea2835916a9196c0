package answer

import (
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/validation"
)

// Amount drives a free numeric entry step. An empty amount is valid.
type Amount struct {
	step domain.Step
}

// NewAmount returns the component for an amount step.
func NewAmount(step domain.Step) Amount {
	return Amount{step: step}
}

// Set writes the typed value without validating it.
func (a Amount) Set(value string) Result {
	return Result{Answer: domain.Amount(value), Outcome: Stay}
}

// Confirm advances when the value is empty or a non-negative number.
func (a Amount) Confirm(current domain.Answer) Result {
	value := strings.TrimSpace(current.Text())
	if err := validation.Validate(validation.AmountSchema, map[string]string{
		domain.FieldAmount: value,
	}); err != nil {
		return Result{Answer: current, Outcome: Stay, Errors: validation.Fields(err)}
	}
	return Result{Answer: domain.Amount(value), Outcome: Advance}
}

// Key handles a key press in the amount field. Enter confirms.
func (a Amount) Key(key string, current domain.Answer) Result {
	if key == domain.KeyEnter {
		return a.Confirm(current)
	}
	return Result{Answer: current, Outcome: Stay}
}

// View renders the step for the current answer.
func (a Amount) View(current domain.Answer, showBack bool, errs map[string]string) *domain.AmountView {
	return &domain.AmountView{
		Question: a.step.Heading(),
		Hint:     a.step.Hint,
		Value:    current.Text(),
		ShowBack: showBack,
		Errors:   errs,
	}
}
