package runtime

import (
	"context"

	"github.com/aretw0/leadflow/pkg/domain"
)

func (e *Engine) base(t domain.EventType, st *domain.State) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, SessionID: st.SessionID}
}

func (e *Engine) emitStep(ctx context.Context, t domain.EventType, st *domain.State, step domain.Step, index int) {
	ev := &domain.StepEvent{EventBase: e.base(t, st), StepID: step.ID, Index: index, Kind: step.Kind}
	switch t {
	case domain.EventStepEnter:
		if e.hooks.OnStepEnter != nil {
			e.hooks.OnStepEnter(ctx, ev)
		}
	case domain.EventStepLeave:
		if e.hooks.OnStepLeave != nil {
			e.hooks.OnStepLeave(ctx, ev)
		}
	}
}

func (e *Engine) emitValidation(ctx context.Context, st *domain.State, step domain.Step, fields map[string]string) {
	e.logger.Debug("validation failed", "session_id", st.SessionID, "step", step.ID, "fields", len(fields))
	if e.hooks.OnValidationFailed == nil {
		return
	}
	// Only field names and messages leave the engine, never the values.
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	e.hooks.OnValidationFailed(ctx, &domain.ValidationEvent{
		EventBase: e.base(domain.EventValidationFailed, st),
		StepID:    step.ID,
		Fields:    cp,
	})
}

func (e *Engine) emitLead(ctx context.Context, t domain.EventType, st *domain.State, lead *domain.Lead) {
	ev := &domain.LeadEvent{EventBase: e.base(t, st), Lead: lead}
	switch t {
	case domain.EventAuthenticated:
		if e.hooks.OnAuthenticated != nil {
			e.hooks.OnAuthenticated(ctx, ev)
		}
	case domain.EventCompleted:
		if e.hooks.OnCompleted != nil {
			e.hooks.OnCompleted(ctx, ev)
		}
	}
}
