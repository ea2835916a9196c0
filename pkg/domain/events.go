package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter        EventType = "step_enter"
	EventStepLeave        EventType = "step_leave"
	EventValidationFailed EventType = "validation_failed"
	EventAuthenticated    EventType = "authenticated"
	EventCompleted        EventType = "completed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry or exit from a step.
type StepEvent struct {
	EventBase
	StepID string   `json:"step_id"`
	Index  int      `json:"index"`
	Kind   StepKind `json:"kind"`
}

// ValidationEvent reports a rejected submission. Values are never included.
type ValidationEvent struct {
	EventBase
	StepID string            `json:"step_id"`
	Fields map[string]string `json:"fields"`
}

// LeadEvent reports authentication or completion of a session.
type LeadEvent struct {
	EventBase
	Lead *Lead `json:"lead,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepEnter        func(context.Context, *StepEvent)
	OnStepLeave        func(context.Context, *StepEvent)
	OnValidationFailed func(context.Context, *ValidationEvent)
	OnAuthenticated    func(context.Context, *LeadEvent)
	OnCompleted        func(context.Context, *LeadEvent)
}

// ChainHooks combines several hook sets; each callback fans out in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *StepEvent) {
			for _, h := range hooks {
				if h.OnStepEnter != nil {
					h.OnStepEnter(ctx, e)
				}
			}
		},
		OnStepLeave: func(ctx context.Context, e *StepEvent) {
			for _, h := range hooks {
				if h.OnStepLeave != nil {
					h.OnStepLeave(ctx, e)
				}
			}
		},
		OnValidationFailed: func(ctx context.Context, e *ValidationEvent) {
			for _, h := range hooks {
				if h.OnValidationFailed != nil {
					h.OnValidationFailed(ctx, e)
				}
			}
		},
		OnAuthenticated: func(ctx context.Context, e *LeadEvent) {
			for _, h := range hooks {
				if h.OnAuthenticated != nil {
					h.OnAuthenticated(ctx, e)
				}
			}
		},
		OnCompleted: func(ctx context.Context, e *LeadEvent) {
			for _, h := range hooks {
				if h.OnCompleted != nil {
					h.OnCompleted(ctx, e)
				}
			}
		},
	}
}
