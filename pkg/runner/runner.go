package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
)

// ErrNoEngine is returned by Run when no engine was configured.
var ErrNoEngine = errors.New("runner: no engine configured")

// Runner drives one session through an IOHandler:
// Render -> Output -> Input -> Dispatch -> Save, until the session completes
// or the input ends.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on stdio.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Store is the persistence adapter for durable sessions.
	// If nil, sessions are ephemeral.
	Store ports.StateStore

	// SessionID names the session for Start and Store.
	SessionID string

	engine        ports.StatelessEngine
	initialState  *domain.State
	handleSignals bool
}

// NewRunner creates a Runner configured by opts.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the loop and returns the last state. Reaching the end of the
// input is not an error: the partial state is returned so the caller can
// resume it later.
func (r *Runner) Run(ctx context.Context) (*domain.State, error) {
	if r.engine == nil {
		return nil, ErrNoEngine
	}
	handler := r.resolveHandler()

	if r.handleSignals {
		signals := NewSignalManager(ctx)
		defer signals.Stop()
		ctx = signals.Context()
	}

	state, err := r.resolveInitialState(ctx)
	if err != nil {
		return nil, err
	}

	for {
		view, err := r.engine.Render(ctx, state)
		if err != nil {
			return state, fmt.Errorf("render error: %w", err)
		}
		if err := handler.Output(ctx, view); err != nil {
			return state, fmt.Errorf("output error: %w", err)
		}
		if view.Completed {
			return state, nil
		}

		cmds, err := handler.Input(ctx, view)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.Logger.Debug("input closed", "session_id", state.SessionID)
				return state, nil
			}
			if ctx.Err() != nil {
				r.Logger.Debug("runner interrupted", "session_id", state.SessionID, "err", ctx.Err())
				return state, ctx.Err()
			}
			return state, fmt.Errorf("input error: %w", err)
		}

		next, err := r.dispatch(ctx, handler, state, cmds)
		if err != nil {
			return state, err
		}
		state = next
	}
}

// dispatch applies cmds in order. A rejected command is reported to the
// user and drops the remaining ones.
func (r *Runner) dispatch(ctx context.Context, handler IOHandler, state *domain.State, cmds []domain.Command) (*domain.State, error) {
	for _, cmd := range cmds {
		next, err := r.engine.Dispatch(ctx, state, cmd)
		if domain.IsRejected(err) {
			r.Logger.Debug("command rejected", "session_id", state.SessionID, "command", cmd.Type, "err", err)
			if err := handler.SystemOutput(ctx, err.Error()); err != nil {
				return state, fmt.Errorf("output error: %w", err)
			}
			return state, nil
		}
		if err != nil {
			return state, fmt.Errorf("dispatch %s: %w", cmd.Type, err)
		}
		if err := r.saveState(ctx, next); err != nil {
			return state, fmt.Errorf("critical persistence error: %w", err)
		}
		state = next
	}
	return state, nil
}

func (r *Runner) saveState(ctx context.Context, state *domain.State) error {
	if r.Store == nil || r.SessionID == "" {
		return nil
	}
	// Persist even when the caller is being cancelled.
	if err := r.Store.Save(context.WithoutCancel(ctx), r.SessionID, state); err != nil {
		return err
	}
	r.Logger.Debug("state saved", "session_id", r.SessionID, "position", state.Position)
	return nil
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r.Handler
}

func (r *Runner) resolveInitialState(ctx context.Context) (*domain.State, error) {
	if r.initialState != nil {
		return r.initialState, nil
	}
	state, err := r.engine.Start(ctx, r.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial state: %w", err)
	}
	if err := r.saveState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to initialize session %s: %w", r.SessionID, err)
	}
	return state, nil
}
