package runner

import (
	"log/slog"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithEngine configures the engine driven by the Runner. Required.
func WithEngine(engine ports.StatelessEngine) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithStore configures the StateStore. The state is saved after every
// dispatched command.
func WithStore(store ports.StateStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSessionID sets the session ID used for Start and persistence.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithInitialState resumes from state instead of starting a new session.
func WithInitialState(state *domain.State) Option {
	return func(r *Runner) {
		r.initialState = state
	}
}

// WithSignals makes Run stop on SIGINT/SIGTERM, keeping the last saved state.
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.handleSignals = enabled
	}
}
