package domain

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Position *int             `json:"position,omitempty"`
	Status   *ExecutionStatus `json:"status,omitempty"`

	// Answers contains only changed, added or deleted answers.
	// For deletions, the key is present with a nil value.
	Answers map[string]*Answer `json:"answers,omitempty"`

	AuthPhase *GatePhase `json:"auth_phase,omitempty"`

	// Errors is the full error set when it changed.
	// ErrorsCleared is set instead when the set became empty.
	Errors        map[string]string `json:"errors,omitempty"`
	ErrorsCleared bool              `json:"errors_cleared,omitempty"`

	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the history stack.
type HistoryDelta struct {
	Appended []string `json:"appended"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil || oldState.Position != newState.Position {
		diff.Position = &newState.Position
	}
	if oldState == nil || oldState.Status != newState.Status {
		diff.Status = &newState.Status
	}
	if oldState == nil || oldState.Auth.Phase != newState.Auth.Phase {
		diff.AuthPhase = &newState.Auth.Phase
	}

	diff.Answers = diffAnswers(oldState, newState)
	diff.Errors, diff.ErrorsCleared = diffErrors(oldState, newState)
	diff.History = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old, new *State) map[string]*Answer {
	delta := make(map[string]*Answer)

	for k, newVal := range new.Answers {
		v := newVal
		if old == nil {
			delta[k] = &v
			continue
		}
		if oldVal, exists := old.Answers[k]; !exists || oldVal != newVal {
			delta[k] = &v
		}
	}

	if old != nil {
		for k := range old.Answers {
			if _, exists := new.Answers[k]; !exists {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffErrors(old, new *State) (map[string]string, bool) {
	var before map[string]string
	if old != nil {
		before = old.Errors
	}
	if sameStrings(before, new.Errors) {
		return nil, false
	}
	if len(new.Errors) == 0 {
		return nil, true
	}
	return cloneStrings(new.Errors), false
}

func sameStrings(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// diffHistory assumes standard append-only behavior for History.
func diffHistory(old, new *State) *HistoryDelta {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return &HistoryDelta{Appended: new.History}
	}
	if len(new.History) > len(old.History) {
		return &HistoryDelta{Appended: new.History[len(old.History):]}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Position == nil &&
		d.Status == nil &&
		d.AuthPhase == nil &&
		len(d.Answers) == 0 &&
		len(d.Errors) == 0 &&
		!d.ErrorsCleared &&
		d.History == nil
}
