// Package sequencer implements the ordered step list of a wizard: step status,
// progress percentage, indicator geometry and bounds-checked navigation.
package sequencer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
)

var (
	ErrNoSteps       = errors.New("flow has no steps")
	ErrDuplicateStep = errors.New("duplicate step id")
	ErrInvalidStep   = errors.New("invalid step")
)

// Status reports the visual state of the step at index relative to current.
func Status(index, current int) domain.StepStatus {
	switch {
	case index < current:
		return domain.StepCompleted
	case index == current:
		return domain.StepCurrent
	default:
		return domain.StepPending
	}
}

// Progress returns the completion percentage for current within total steps.
// A wizard with a single step (or none) is always complete.
func Progress(total, current int) float64 {
	if total <= 1 {
		return 100
	}
	p := float64(current) * 100 / float64(total-1)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Connectors returns the lines between adjacent steps.
func Connectors(total, current int) []domain.Connector {
	if total <= 1 {
		return nil
	}
	height := 100 / float64(total-1)
	out := make([]domain.Connector, 0, total-1)
	for i := 0; i < total-1; i++ {
		out = append(out, domain.Connector{
			Index:         i,
			Completed:     i < current,
			TopPercent:    float64(i) * height,
			HeightPercent: height,
		})
	}
	return out
}

// Indicator assembles the progress indicator for steps at position current.
func Indicator(steps []domain.Step, current int) domain.IndicatorView {
	entries := make([]domain.IndicatorEntry, len(steps))
	for i, s := range steps {
		entries[i] = domain.IndicatorEntry{
			Index:       i,
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Status:      Status(i, current),
		}
	}
	return domain.IndicatorView{
		Entries:    entries,
		Connectors: Connectors(len(steps), current),
		Progress:   Progress(len(steps), current),
	}
}

// Sequencer holds a validated, immutable step list.
type Sequencer struct {
	steps []domain.Step
	index map[string]int
	auth  int
}

// New validates steps and returns a Sequencer over a private copy of them.
func New(steps []domain.Step) (*Sequencer, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	s := &Sequencer{
		steps: make([]domain.Step, len(steps)),
		index: make(map[string]int, len(steps)),
		auth:  -1,
	}

	for i, step := range steps {
		if step.ID == "" {
			return nil, fmt.Errorf("%w: step %d has no id", ErrInvalidStep, i)
		}
		if _, dup := s.index[step.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStep, step.ID)
		}

		switch step.Kind {
		case domain.StepKindChoice:
			if len(step.Options) == 0 {
				return nil, fmt.Errorf("%w: choice step %s has no options", ErrInvalidStep, step.ID)
			}
			seen := make(map[string]bool, len(step.Options))
			for _, opt := range step.Options {
				if opt.Value == "" || seen[opt.Value] {
					return nil, fmt.Errorf("%w: step %s has an empty or repeated option value", ErrInvalidStep, step.ID)
				}
				if strings.HasPrefix(opt.Value, domain.OtherPrefix) {
					return nil, fmt.Errorf("%w: step %s option %q uses the reserved %q prefix", ErrInvalidStep, step.ID, opt.Value, domain.OtherPrefix)
				}
				seen[opt.Value] = true
			}
		case domain.StepKindAmount:
		case domain.StepKindAuth:
			if s.auth >= 0 {
				return nil, fmt.Errorf("%w: more than one auth step (%s)", ErrInvalidStep, step.ID)
			}
			s.auth = i
		default:
			return nil, fmt.Errorf("%w: step %s has unknown kind %q", ErrInvalidStep, step.ID, step.Kind)
		}

		cp := step
		cp.Options = append([]domain.Option(nil), step.Options...)
		s.steps[i] = cp
		s.index[step.ID] = i
	}

	return s, nil
}

// Len returns the number of steps.
func (s *Sequencer) Len() int { return len(s.steps) }

// Steps returns a copy of the step list.
func (s *Sequencer) Steps() []domain.Step {
	out := make([]domain.Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Step returns the step at position i.
func (s *Sequencer) Step(i int) (domain.Step, error) {
	if i < 0 || i >= len(s.steps) {
		return domain.Step{}, fmt.Errorf("%w: %d not in [0,%d)", domain.ErrPositionOutOfRange, i, len(s.steps))
	}
	return s.steps[i], nil
}

// Index returns the position of the step with the given ID.
func (s *Sequencer) Index(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// AuthIndex returns the position of the auth step, or -1 when the flow has none.
func (s *Sequencer) AuthIndex() int { return s.auth }

// IsLast reports whether pos is the final step.
func (s *Sequencer) IsLast(pos int) bool { return pos == len(s.steps)-1 }

// Next returns the position after pos.
func (s *Sequencer) Next(pos int) (int, error) { return s.Jump(pos + 1) }

// Back returns the position before pos.
func (s *Sequencer) Back(pos int) (int, error) { return s.Jump(pos - 1) }

// Jump checks that target is a valid position. It applies no sequencing rules.
func (s *Sequencer) Jump(target int) (int, error) {
	if target < 0 || target >= len(s.steps) {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", domain.ErrPositionOutOfRange, target, len(s.steps))
	}
	return target, nil
}

// Indicator builds the indicator view at position current.
func (s *Sequencer) Indicator(current int) domain.IndicatorView {
	return Indicator(s.steps, current)
}
