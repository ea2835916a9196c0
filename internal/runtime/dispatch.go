package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/leadflow/pkg/answer"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/validation"
)

// Dispatch applies one command and returns the new state.
//
// Field validation failures are not errors: they are recorded in the
// returned state (State.Errors or State.Auth.Errors) and reported through
// OnValidationFailed. Any returned error leaves the input state untouched
// and no hook fires.
func (e *Engine) Dispatch(ctx context.Context, in *domain.State, cmd domain.Command) (*domain.State, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: nil state", domain.ErrInvalidCommand)
	}
	if in.Status == domain.StatusCompleted {
		return nil, domain.ErrCompleted
	}
	step, err := e.seq.Step(in.Position)
	if err != nil {
		return nil, err
	}

	t := &transition{e: e, ctx: ctx, st: in.Snapshot()}
	if err := t.apply(step, cmd); err != nil {
		e.logger.Debug("command rejected", "session_id", in.SessionID, "command", cmd.Type, "err", err)
		return nil, err
	}

	t.st.UpdatedAt = e.now()
	t.flush()
	return t.st, nil
}

// transition accumulates the effects of one command. Hooks are queued and
// only fire once the whole command succeeded.
type transition struct {
	e       *Engine
	ctx     context.Context
	st      *domain.State
	pending []func()
}

func (t *transition) emit(fn func()) { t.pending = append(t.pending, fn) }

func (t *transition) flush() {
	for _, fn := range t.pending {
		fn()
	}
}

func (t *transition) apply(step domain.Step, cmd domain.Command) error {
	switch cmd.Type {
	case domain.CmdNext:
		return t.next(step)
	case domain.CmdBack:
		return t.retreat(step)
	case domain.CmdJump:
		return t.jump(step, cmd.Index)

	case domain.CmdSelect, domain.CmdSetOther, domain.CmdConfirmOther:
		if step.Kind != domain.StepKindChoice {
			return wrongKind(cmd, step)
		}
		return t.choice(step, cmd)

	case domain.CmdSetAmount, domain.CmdConfirmAmount, domain.CmdKey:
		if step.Kind != domain.StepKindAmount {
			return wrongKind(cmd, step)
		}
		return t.amount(step, cmd)

	case domain.CmdSubmitDetails, domain.CmdRequestOTP, domain.CmdSubmitOTP, domain.CmdBackToDetails:
		if step.Kind != domain.StepKindAuth {
			return wrongKind(cmd, step)
		}
		return t.auth(step, cmd)
	}
	return fmt.Errorf("%w: %q", domain.ErrInvalidCommand, cmd.Type)
}

func wrongKind(cmd domain.Command, step domain.Step) error {
	return fmt.Errorf("%w: %s on %s step %s", domain.ErrWrongStepKind, cmd.Type, step.Kind, step.ID)
}

func (t *transition) next(step domain.Step) error {
	current := t.st.Answers[step.ID]
	switch step.Kind {
	case domain.StepKindChoice:
		return t.result(step, answer.NewChoice(step).Confirm(current))
	case domain.StepKindAmount:
		return t.result(step, answer.NewAmount(step).Confirm(current))
	default:
		if !t.st.Auth.Authenticated() {
			return domain.ErrNotAuthenticated
		}
		return t.advance(step)
	}
}

func (t *transition) choice(step domain.Step, cmd domain.Command) error {
	c := answer.NewChoice(step)
	current := t.st.Answers[step.ID]

	var (
		res answer.Result
		err error
	)
	switch cmd.Type {
	case domain.CmdSelect:
		res, err = c.Select(cmd.Value, current)
	case domain.CmdSetOther:
		res, err = c.SetOtherText(cmd.Value)
	default:
		res = c.ConfirmOther(current)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCommand, err)
	}
	return t.result(step, res)
}

func (t *transition) amount(step domain.Step, cmd domain.Command) error {
	a := answer.NewAmount(step)
	current := t.st.Answers[step.ID]

	switch cmd.Type {
	case domain.CmdSetAmount:
		return t.result(step, a.Set(cmd.Value))
	case domain.CmdKey:
		return t.result(step, a.Key(cmd.Value, current))
	default:
		return t.result(step, a.Confirm(current))
	}
}

// result records the answer of a question step and follows its outcome.
func (t *transition) result(step domain.Step, res answer.Result) error {
	if res.Answer.IsZero() {
		delete(t.st.Answers, step.ID)
	} else {
		t.st.Answers[step.ID] = res.Answer
	}

	if len(res.Errors) > 0 {
		t.st.Errors = res.Errors
		t.validationFailed(step, res.Errors)
		return nil
	}
	t.st.Errors = nil

	switch res.Outcome {
	case answer.Advance:
		return t.advance(step)
	case answer.Retreat:
		return t.retreat(step)
	}
	return nil
}

func (t *transition) auth(step domain.Step, cmd domain.Command) error {
	g := t.e.gate
	var (
		next = t.st.Auth
		err  error
	)
	switch cmd.Type {
	case domain.CmdSubmitDetails:
		next, err = g.SubmitDetails(t.ctx, t.st.Auth, cmd.Name, cmd.Mobile)
	case domain.CmdRequestOTP:
		next, err = g.RequestOTP(t.ctx, t.st.Auth, cmd.Mobile)
	case domain.CmdSubmitOTP:
		next, err = g.SubmitOTP(t.ctx, t.st.Auth, cmd.OTP)
	case domain.CmdBackToDetails:
		next, err = g.Back(t.st.Auth)
	}

	if validation.IsValidationError(err) {
		t.st.Auth = next
		t.validationFailed(step, next.Errors)
		return nil
	}
	if err != nil {
		return err
	}
	t.st.Auth = next

	if cmd.Type == domain.CmdSubmitOTP && next.Authenticated() {
		lead := t.e.buildLead(t.st)
		st := t.st
		t.emit(func() {
			t.e.logger.Info("session authenticated", "session_id", st.SessionID)
			t.e.emitLead(t.ctx, domain.EventAuthenticated, st, lead)
		})
		return t.advance(step)
	}
	return nil
}

func (t *transition) validationFailed(step domain.Step, fields map[string]string) {
	st := t.st
	t.emit(func() { t.e.emitValidation(t.ctx, st, step, fields) })
}
