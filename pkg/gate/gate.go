package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/leadflow/pkg/domain"
)

// Gate is a self-contained authentication gate with its own state.
// It is safe for concurrent use. Backend calls run without holding the
// lock; a response that lost the race against Back or a newer request is
// dropped and reported as domain.ErrSuperseded.
type Gate struct {
	mu     sync.Mutex
	st     domain.AuthState
	m      *Machine
	sender Sender
	verify Verifier
	logger *slog.Logger
	onAuth func()
}

// New creates a Gate in the details phase.
func New(opts ...Option) *Gate {
	c := newConfig(opts)
	return &Gate{
		st:     domain.NewAuthState(),
		m:      &Machine{sender: c.sender, verifier: c.verifier, logger: c.logger},
		sender: c.sender,
		verify: c.verifier,
		logger: c.logger,
		onAuth: c.onAuthenticated,
	}
}

// State returns a copy of the current gate state.
func (g *Gate) State() domain.AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.Clone()
}

// Phase returns the current phase.
func (g *Gate) Phase() domain.GatePhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.Phase
}

// SubmitDetails validates the details form and requests a code.
func (g *Gate) SubmitDetails(ctx context.Context, name, mobile string) error {
	return g.send(ctx, func(st domain.AuthState) (domain.AuthState, Ticket, error) {
		return g.m.BeginDetails(st, name, mobile)
	})
}

// RequestOTP sends (or re-sends) a code to mobile.
func (g *Gate) RequestOTP(ctx context.Context, mobile string) error {
	return g.send(ctx, func(st domain.AuthState) (domain.AuthState, Ticket, error) {
		return g.m.BeginSend(st, mobile)
	})
}

func (g *Gate) send(ctx context.Context, begin func(domain.AuthState) (domain.AuthState, Ticket, error)) error {
	g.mu.Lock()
	next, t, err := begin(g.st)
	g.st = next
	g.mu.Unlock()
	if err != nil {
		return err
	}

	sendErr := g.sender.Send(ctx, t.Mobile)

	g.mu.Lock()
	defer g.mu.Unlock()
	next, err = g.m.CompleteSend(g.st, t, sendErr)
	if errors.Is(err, domain.ErrSuperseded) {
		return err
	}
	g.st = next
	return err
}

// SubmitOTP validates and verifies the code. The authenticated callback is
// invoked exactly once, by the call that moved the gate to authenticated.
// Any later submission fails with domain.ErrInvalidPhase.
func (g *Gate) SubmitOTP(ctx context.Context, otp string) error {
	g.mu.Lock()
	next, t, err := g.m.BeginVerify(g.st, otp)
	g.st = next
	g.mu.Unlock()
	if err != nil {
		return err
	}

	verifyErr := g.verify.Verify(ctx, t.Mobile, t.OTP)

	g.mu.Lock()
	next, err = g.m.CompleteVerify(g.st, t, verifyErr)
	if errors.Is(err, domain.ErrSuperseded) {
		g.mu.Unlock()
		return err
	}
	g.st = next
	authenticated := err == nil && next.Authenticated()
	g.mu.Unlock()

	if authenticated && g.onAuth != nil {
		g.onAuth()
	}
	return err
}

// Back returns to the details form.
func (g *Gate) Back() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	next, err := g.m.Back(g.st)
	if err != nil {
		return err
	}
	g.st = next
	return nil
}
