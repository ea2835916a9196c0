package leadflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/leadflow/internal/runtime"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/aretw0/leadflow/pkg/gate"
)

// JumpPolicy decides which indicator clicks move the session.
type JumpPolicy = runtime.JumpPolicy

const (
	JumpVisited = runtime.JumpVisited
	JumpFree    = runtime.JumpFree
)

// Wizard is the high-level entry point of the library.
// It wraps the internal runtime and binds it to a flow definition.
type Wizard struct {
	runtime  *runtime.Engine
	def      *flow.Definition
	flowPath string
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	policy   JumpPolicy
	gateOpts []gate.Option
	Name     string
}

// Option defines a functional option for configuring the Wizard.
type Option func(*Wizard)

// WithFlow uses an already parsed flow definition.
func WithFlow(def *flow.Definition) Option {
	return func(w *Wizard) {
		w.def = def
	}
}

// WithFlowFile loads the flow definition from a YAML or JSON file.
func WithFlowFile(path string) Option {
	return func(w *Wizard) {
		w.flowPath = path
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Wizard) {
		w.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		w.logger = logger
	}
}

// WithJumpPolicy sets which positions an indicator click may reach.
func WithJumpPolicy(p JumpPolicy) Option {
	return func(w *Wizard) {
		w.policy = p
	}
}

// WithGateOptions configures the OTP backends of the auth gate.
func WithGateOptions(opts ...gate.Option) Option {
	return func(w *Wizard) {
		w.gateOpts = append(w.gateOpts, opts...)
	}
}

// New initializes a Wizard. Without WithFlow or WithFlowFile it runs the
// built-in home loan flow.
func New(opts ...Option) (*Wizard, error) {
	w := &Wizard{}
	for _, opt := range opts {
		opt(w)
	}

	if w.def == nil && w.flowPath != "" {
		def, err := flow.LoadFile(w.flowPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load flow: %w", err)
		}
		w.def = def
	}
	if w.def == nil {
		w.def = flow.Default()
	}
	w.Name = w.def.Name

	seq, err := w.def.Sequencer()
	if err != nil {
		return nil, err
	}

	if w.logger == nil {
		w.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if w.Name != "" {
		w.logger = w.logger.With("flow", w.Name)
	}

	gateOpts := append([]gate.Option{gate.WithLogger(w.logger)}, w.gateOpts...)
	w.runtime = runtime.NewEngine(seq,
		runtime.WithLifecycleHooks(w.hooks),
		runtime.WithLogger(w.logger),
		runtime.WithJumpPolicy(w.policy),
		runtime.WithGate(gate.NewMachine(gateOpts...)),
	)
	return w, nil
}

// Start creates the initial state of a session and triggers lifecycle hooks.
func (w *Wizard) Start(ctx context.Context, sessionID string) (*domain.State, error) {
	return w.runtime.Start(ctx, sessionID)
}

// Render builds the view of a state without transitioning.
func (w *Wizard) Render(ctx context.Context, state *domain.State) (*domain.View, error) {
	return w.runtime.Render(ctx, state)
}

// Dispatch applies one command and returns the next state.
func (w *Wizard) Dispatch(ctx context.Context, state *domain.State, cmd domain.Command) (*domain.State, error) {
	return w.runtime.Dispatch(ctx, state, cmd)
}

// Steps returns the step definitions in wizard order.
func (w *Wizard) Steps() []domain.Step {
	return w.runtime.Sequencer().Steps()
}

// Flow returns the flow definition the wizard runs.
func (w *Wizard) Flow() *flow.Definition {
	return w.def
}

// Policy returns the active jump policy.
func (w *Wizard) Policy() JumpPolicy {
	return w.runtime.Policy()
}
