package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/leadflow/pkg/answer"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/gate"
	"github.com/aretw0/leadflow/pkg/sequencer"
	"github.com/aretw0/leadflow/pkg/validation"
)

// JumpPolicy decides which indicator clicks move the session.
type JumpPolicy string

const (
	// JumpVisited allows jumps to positions already reached.
	JumpVisited JumpPolicy = "visited"
	// JumpFree allows jumps to any position in range.
	JumpFree JumpPolicy = "free"
)

// Engine is the wizard controller. It owns no session state: every call
// receives a state, works on a copy and returns the new state.
type Engine struct {
	seq    *sequencer.Sequencer
	gate   *gate.Machine
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	policy JumpPolicy
	now    func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithJumpPolicy sets the policy applied to jump commands.
func WithJumpPolicy(p JumpPolicy) EngineOption {
	return func(e *Engine) {
		if p != "" {
			e.policy = p
		}
	}
}

// WithGate replaces the default gate machine (stub sender and verifier).
func WithGate(m *gate.Machine) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.gate = m
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine over a validated step sequence.
func NewEngine(seq *sequencer.Sequencer, opts ...EngineOption) *Engine {
	e := &Engine{
		seq:    seq,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		policy: JumpVisited,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.gate == nil {
		e.gate = gate.NewMachine(gate.WithLogger(e.logger))
	}
	return e
}

// Sequencer exposes the step sequence.
func (e *Engine) Sequencer() *sequencer.Sequencer { return e.seq }

// Policy returns the active jump policy.
func (e *Engine) Policy() JumpPolicy { return e.policy }

// Start creates the initial state at the first step and triggers lifecycle hooks.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.State, error) {
	first, err := e.seq.Step(0)
	if err != nil {
		return nil, err
	}

	st := domain.NewState(sessionID)
	st.History = append(st.History, first.ID)
	st.UpdatedAt = e.now()

	e.logger.Debug("session started", "session_id", sessionID, "step", first.ID)
	e.emitStep(ctx, domain.EventStepEnter, st, first, 0)
	return st, nil
}

// Render builds the view of the state without transitioning.
func (e *Engine) Render(ctx context.Context, st *domain.State) (*domain.View, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil state", domain.ErrInvalidCommand)
	}
	step, err := e.seq.Step(st.Position)
	if err != nil {
		return nil, err
	}

	v := &domain.View{
		SessionID: st.SessionID,
		Indicator: e.seq.Indicator(st.Position),
		Step:      step,
		Position:  st.Position,
	}

	if st.Status == domain.StatusCompleted {
		v.Indicator = e.seq.Indicator(e.seq.Len())
		v.Completed = true
		v.Lead = st.Lead
		return v, nil
	}

	showBack := e.showBack(st.Position)
	switch step.Kind {
	case domain.StepKindChoice:
		v.Choice = answer.NewChoice(step).View(st.Answers[step.ID], showBack, st.Errors)
	case domain.StepKindAmount:
		v.Amount = answer.NewAmount(step).View(st.Answers[step.ID], showBack, st.Errors)
	case domain.StepKindAuth:
		v.Auth = &domain.AuthView{
			Phase:         st.Auth.Phase,
			Name:          st.Auth.Details.Name,
			Mobile:        st.Auth.Details.Mobile,
			CodeSentTo:    st.Auth.CodeSentTo,
			ShowInlineOTP: validation.ValidMobile(st.Auth.Details.Mobile),
			Errors:        st.Auth.Errors,
		}
	}
	return v, nil
}

// showBack hides the back action on the first step and right after the gate.
func (e *Engine) showBack(pos int) bool {
	if pos == 0 {
		return false
	}
	prev, err := e.seq.Step(pos - 1)
	return err == nil && prev.Kind != domain.StepKindAuth
}
