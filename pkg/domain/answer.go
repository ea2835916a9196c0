package domain

import (
	"strings"
)

// AnswerKind tags the variant held by an Answer.
type AnswerKind string

const (
	AnswerNone   AnswerKind = ""
	AnswerFixed  AnswerKind = "fixed"
	AnswerOther  AnswerKind = "other"
	AnswerAmount AnswerKind = "amount"
)

// OtherPrefix marks free-text answers in the legacy string encoding.
const OtherPrefix = "other:"

// Answer is the value recorded for a question step.
// It is a tagged union: Fixed(option) | Other(text) | Amount(text).
// The zero value means "unanswered".
type Answer struct {
	Kind  AnswerKind `json:"kind,omitempty"`
	Value string     `json:"value,omitempty"`
}

// Fixed creates an answer selecting a listed option.
func Fixed(option string) Answer { return Answer{Kind: AnswerFixed, Value: option} }

// Other creates an answer carrying user-supplied free text.
// An empty text means the "other" option is selected but not yet filled in.
func Other(text string) Answer { return Answer{Kind: AnswerOther, Value: text} }

// Amount creates an answer for an amount step. An empty text means "none".
func Amount(text string) Answer { return Answer{Kind: AnswerAmount, Value: text} }

func (a Answer) IsZero() bool  { return a.Kind == AnswerNone }
func (a Answer) IsOther() bool { return a.Kind == AnswerOther }

// Option returns the selected option value of a choice answer.
// Other answers report the reserved "other" option.
func (a Answer) Option() string {
	switch a.Kind {
	case AnswerFixed:
		return a.Value
	case AnswerOther:
		return OtherOptionValue
	}
	return ""
}

// Text returns the free text of an Other answer or the raw amount.
func (a Answer) Text() string {
	if a.Kind == AnswerOther || a.Kind == AnswerAmount {
		return a.Value
	}
	return ""
}

// Encode renders the answer in the legacy string form:
// "value" for fixed options, "other:<text>" for free text and the raw amount.
// A bare "other" selection without text encodes as "other".
func (a Answer) Encode() string {
	switch a.Kind {
	case AnswerFixed, AnswerAmount:
		return a.Value
	case AnswerOther:
		if a.Value == "" {
			return OtherOptionValue
		}
		return OtherPrefix + a.Value
	}
	return ""
}

// ParseAnswer decodes the legacy string form for a step of the given kind.
func ParseAnswer(kind StepKind, s string) Answer {
	if kind == StepKindAmount {
		return Amount(s)
	}
	switch {
	case s == "":
		return Answer{}
	case s == OtherOptionValue:
		return Other("")
	case strings.HasPrefix(s, OtherPrefix):
		return Other(strings.TrimPrefix(s, OtherPrefix))
	}
	return Fixed(s)
}
