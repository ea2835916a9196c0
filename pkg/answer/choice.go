package answer

import (
	"fmt"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/validation"
)

// Choice drives a fixed-option step with an optional free-text alternative.
type Choice struct {
	step domain.Step
}

// NewChoice returns the component for a choice step.
func NewChoice(step domain.Step) Choice {
	return Choice{step: step}
}

// Select picks an option. A listed option is written and advances at once;
// the "other" option reveals the free-text field and waits for confirmation.
func (c Choice) Select(value string, current domain.Answer) (Result, error) {
	if !c.step.HasOption(value) {
		return Result{Answer: current, Outcome: Stay}, fmt.Errorf("%w: %q in step %s", ErrUnknownOption, value, c.step.ID)
	}
	if value == domain.OtherOptionValue {
		text := ""
		if current.IsOther() {
			text = current.Text()
		}
		return Result{Answer: domain.Other(text), Outcome: Stay}, nil
	}
	return Result{Answer: domain.Fixed(value), Outcome: Advance}, nil
}

// SetOtherText updates the free-text buffer of the "other" option.
func (c Choice) SetOtherText(text string) (Result, error) {
	if !c.step.AllowsOther() {
		return Result{Outcome: Stay}, fmt.Errorf("%w: step %s has no %q option", ErrUnknownOption, c.step.ID, domain.OtherOptionValue)
	}
	return Result{Answer: domain.Other(text), Outcome: Stay}, nil
}

// ConfirmOther advances when the free text is not blank.
func (c Choice) ConfirmOther(current domain.Answer) Result {
	text := ""
	if current.IsOther() {
		text = current.Text()
	}
	if err := validation.Validate(validation.OtherSchema, map[string]string{
		domain.FieldOther: text,
	}); err != nil {
		return Result{Answer: current, Outcome: Stay, Errors: validation.Fields(err)}
	}
	return Result{Answer: domain.Other(strings.TrimSpace(text)), Outcome: Advance}
}

// Confirm advances with the current answer: a listed option advances as
// is, a free-text answer goes through ConfirmOther.
func (c Choice) Confirm(current domain.Answer) Result {
	switch {
	case current.IsOther():
		return c.ConfirmOther(current)
	case current.Kind == domain.AnswerFixed && c.step.HasOption(current.Value):
		return Result{Answer: current, Outcome: Advance}
	}
	return Result{
		Answer:  current,
		Outcome: Stay,
		Errors:  map[string]string{domain.FieldOption: validation.MsgSelectOption},
	}
}

// View renders the step for the current answer.
func (c Choice) View(current domain.Answer, showBack bool, errs map[string]string) *domain.ChoiceView {
	selected := current.Option()
	v := &domain.ChoiceView{
		Question:      c.step.Heading(),
		Options:       make([]domain.OptionView, 0, len(c.step.Options)),
		Selected:      selected,
		OtherSelected: current.IsOther(),
		OtherLabel:    c.step.OtherLabel,
		ShowBack:      showBack,
		Errors:        errs,
	}
	if current.IsOther() {
		v.OtherText = current.Text()
		v.CanConfirmOther = strings.TrimSpace(v.OtherText) != ""
	}
	for _, opt := range c.step.Options {
		v.Options = append(v.Options, domain.OptionView{
			Value:    opt.Value,
			Label:    opt.Label,
			Selected: opt.Value == selected,
		})
	}
	return v
}
