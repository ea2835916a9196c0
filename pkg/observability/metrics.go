// Package observability turns engine lifecycle events into Prometheus metrics
// and structured log records.
package observability

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "leadflow"

// Metrics holds the collectors fed by Hooks.
type Metrics struct {
	StepVisits         *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Authenticated      prometheus.Counter
	Completed          prometheus.Counter
	Answers            *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "step_visits_total",
			Help:      "Total number of step entries.",
		}, []string{"step_id"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected submissions by step and field.",
		}, []string{"step_id", "field"}),
		Authenticated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "authenticated_total",
			Help:      "Sessions that passed the OTP gate.",
		}),
		Completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "leads_completed_total",
			Help:      "Sessions that produced a lead.",
		}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lead_answers_total",
			Help:      "Choice answers of completed leads.",
		}, []string{"step_id", "option"}),
	}
	if reg != nil {
		reg.MustRegister(m.StepVisits, m.ValidationFailures, m.Authenticated, m.Completed, m.Answers)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m. Free-text answers are
// counted under "other" so user input never becomes a label value.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepVisits.WithLabelValues(e.StepID).Inc()
		},
		OnValidationFailed: func(_ context.Context, e *domain.ValidationEvent) {
			for field := range e.Fields {
				m.ValidationFailures.WithLabelValues(e.StepID, field).Inc()
			}
		},
		OnAuthenticated: func(context.Context, *domain.LeadEvent) {
			m.Authenticated.Inc()
		},
		OnCompleted: func(_ context.Context, e *domain.LeadEvent) {
			m.Completed.Inc()
			if e.Lead == nil {
				return
			}
			for step, encoded := range e.Lead.Answers {
				if label, ok := answerLabel(encoded); ok {
					m.Answers.WithLabelValues(step, label).Inc()
				}
			}
		},
	}
}

// answerLabel maps an encoded answer to a bounded label value. Amounts are
// not labelled.
func answerLabel(encoded string) (string, bool) {
	if strings.HasPrefix(encoded, domain.OtherPrefix) {
		return "other", true
	}
	if encoded == "" {
		return "", false
	}
	if _, err := strconv.ParseFloat(encoded, 64); err == nil {
		return "", false
	}
	return encoded, true
}

// LogHooks returns hooks that log every event with logger. Lead contact
// details are never logged.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step_enter", "session_id", e.SessionID, "step_id", e.StepID, "index", e.Index, "kind", e.Kind)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "step_id", e.StepID)
		},
		OnValidationFailed: func(ctx context.Context, e *domain.ValidationEvent) {
			logger.DebugContext(ctx, "validation_failed", "session_id", e.SessionID, "step_id", e.StepID, "fields", len(e.Fields))
		},
		OnAuthenticated: func(ctx context.Context, e *domain.LeadEvent) {
			logger.InfoContext(ctx, "authenticated", "session_id", e.SessionID)
		},
		OnCompleted: func(ctx context.Context, e *domain.LeadEvent) {
			logger.InfoContext(ctx, "lead_completed", "session_id", e.SessionID)
		},
	}
}
