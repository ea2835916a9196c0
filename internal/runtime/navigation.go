package runtime

import (
	"fmt"

	"github.com/aretw0/leadflow/pkg/domain"
)

// advance moves past step, completing the session after the last one.
func (t *transition) advance(step domain.Step) error {
	if t.e.seq.IsLast(t.st.Position) {
		return t.complete(step)
	}
	return t.moveTo(step, t.st.Position+1)
}

func (t *transition) retreat(step domain.Step) error {
	to, err := t.e.seq.Back(t.st.Position)
	if err != nil {
		return err
	}
	return t.moveTo(step, to)
}

// jump applies the jump policy. Jumping to the current position is a no-op.
func (t *transition) jump(step domain.Step, index int) error {
	if _, err := t.e.seq.Jump(index); err != nil {
		return err
	}
	if index == t.st.Position {
		return nil
	}
	if t.e.policy == JumpVisited && index > t.st.Furthest {
		return fmt.Errorf("%w: step %d not reached yet (furthest %d)", domain.ErrJumpNotAllowed, index, t.st.Furthest)
	}
	return t.moveTo(step, index)
}

// moveTo changes the position. Steps after the auth gate stay locked
// until the gate is passed, whatever the jump policy.
func (t *transition) moveTo(from domain.Step, to int) error {
	if auth := t.e.seq.AuthIndex(); auth >= 0 && to > auth && !t.st.Auth.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	target, err := t.e.seq.Step(to)
	if err != nil {
		return err
	}

	st, fromIdx := t.st, t.st.Position
	t.emit(func() { t.e.emitStep(t.ctx, domain.EventStepLeave, st, from, fromIdx) })
	t.emit(func() { t.e.emitStep(t.ctx, domain.EventStepEnter, st, target, to) })

	st.Position = to
	if to > st.Furthest {
		st.Furthest = to
	}
	st.History = append(st.History, target.ID)
	st.Errors = nil
	return nil
}

func (t *transition) complete(last domain.Step) error {
	if auth := t.e.seq.AuthIndex(); auth >= 0 && !t.st.Auth.Authenticated() {
		return domain.ErrNotAuthenticated
	}

	st, idx := t.st, t.st.Position
	lead := t.e.buildLead(st)
	lead.CompletedAt = t.e.now()

	st.Status = domain.StatusCompleted
	st.Lead = lead
	st.Errors = nil

	t.emit(func() { t.e.emitStep(t.ctx, domain.EventStepLeave, st, last, idx) })
	t.emit(func() {
		t.e.logger.Info("session completed", "session_id", st.SessionID)
		t.e.emitLead(t.ctx, domain.EventCompleted, st, lead)
	})
	return nil
}

// buildLead collects the answers in step order using the legacy encoding.
func (e *Engine) buildLead(st *domain.State) *domain.Lead {
	lead := &domain.Lead{
		SessionID: st.SessionID,
		Name:      st.Auth.Details.Name,
		Mobile:    st.Auth.Details.Mobile,
		Answers:   make(map[string]string),
	}
	for _, step := range e.seq.Steps() {
		if a, ok := st.Answers[step.ID]; ok && !a.IsZero() {
			lead.Answers[step.ID] = a.Encode()
		}
	}
	return lead
}
