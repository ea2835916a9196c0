package domain

// StepKind defines how a step collects its answer.
type StepKind string

const (
	// StepKindChoice presents a fixed option set, optionally with a free-text "other".
	StepKindChoice StepKind = "choice"
	// StepKindAmount collects an optional numeric amount.
	StepKindAmount StepKind = "amount"
	// StepKindAuth is the name + mobile + OTP gate.
	StepKindAuth StepKind = "auth"
)

// OtherOptionValue is the reserved option value that reveals the free-text field.
const OtherOptionValue = "other"

// Option is one selectable value of a choice step.
type Option struct {
	Value string `json:"value" yaml:"value" mapstructure:"value"`
	Label string `json:"label" yaml:"label" mapstructure:"label"`
}

// Step represents one screen of the wizard.
// Steps are defined statically by the host and never mutated at runtime.
type Step struct {
	ID          string   `json:"id" yaml:"id" mapstructure:"id"`
	Title       string   `json:"title" yaml:"title" mapstructure:"title"`
	Description string   `json:"description" yaml:"description" mapstructure:"description"`
	Kind        StepKind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Question is the heading shown inside the step view.
	// Falls back to Title when empty.
	Question string `json:"question,omitempty" yaml:"question,omitempty" mapstructure:"question"`
	Hint     string `json:"hint,omitempty" yaml:"hint,omitempty" mapstructure:"hint"`

	// Choice configuration (Kind == "choice").
	Options    []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	OtherLabel string   `json:"other_label,omitempty" yaml:"other_label,omitempty" mapstructure:"other_label"`
}

// Heading returns the question text, defaulting to the title.
func (s Step) Heading() string {
	if s.Question != "" {
		return s.Question
	}
	return s.Title
}

// AllowsOther reports whether the option list contains the "other" sentinel option.
func (s Step) AllowsOther() bool {
	for _, opt := range s.Options {
		if opt.Value == OtherOptionValue {
			return true
		}
	}
	return false
}

// HasOption reports whether value is one of the listed option values.
func (s Step) HasOption(value string) bool {
	for _, opt := range s.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// StepStatus is the visual state of a step relative to the current position.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepCurrent   StepStatus = "current"
	StepPending   StepStatus = "pending"
)
