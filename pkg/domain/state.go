package domain

import "time"

// ExecutionStatus defines the lifecycle of a session.
type ExecutionStatus string

const (
	StatusActive    ExecutionStatus = "active"    // Normal operation
	StatusCompleted ExecutionStatus = "completed" // Last step passed, lead produced
)

// State represents the current snapshot of a wizard session.
type State struct {
	SessionID string `json:"session_id"`

	// Position is the index of the active step.
	Position int `json:"position"`

	// Furthest is the highest position reached so far.
	Furthest int `json:"furthest"`

	Status ExecutionStatus `json:"status"`

	// Answers holds the recorded answer per step ID.
	Answers map[string]Answer `json:"answers"`

	// Errors holds field-level messages for the current question step.
	Errors map[string]string `json:"errors,omitempty"`

	Auth AuthState `json:"auth"`

	// History tracks the step IDs entered, in order.
	History []string `json:"history"`

	// Lead is produced once the session completes.
	Lead *Lead `json:"lead,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted session when the store is wrapped by an
	// encryption middleware. Such envelope states hold nothing else.
	Sealed string `json:"sealed,omitempty"`
}

// NewState creates a clean state at the first step.
func NewState(sessionID string) *State {
	return &State{
		SessionID: sessionID,
		Status:    StatusActive,
		Answers:   make(map[string]Answer),
		Auth:      NewAuthState(),
		History:   []string{},
	}
}

// Snapshot returns a deep copy of the state.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Answers = make(map[string]Answer, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	out.Errors = cloneStrings(s.Errors)
	out.Auth = s.Auth.Clone()
	out.History = append([]string(nil), s.History...)
	if s.Lead != nil {
		lead := *s.Lead
		lead.Answers = cloneStrings(s.Lead.Answers)
		out.Lead = &lead
	}
	return &out
}

// Lead is the result of a completed session, handed to offer computation.
type Lead struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Mobile    string `json:"mobile"`

	// Answers uses the legacy string encoding ("other:<text>" for free text).
	Answers map[string]string `json:"answers"`

	CompletedAt time.Time `json:"completed_at"`
}
