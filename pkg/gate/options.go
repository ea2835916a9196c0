package gate

import (
	"io"
	"log/slog"
)

type config struct {
	sender          Sender
	verifier        Verifier
	logger          *slog.Logger
	onAuthenticated func()
}

// Option configures a Machine or a Gate.
type Option func(*config)

// WithSender sets the code delivery backend. Defaults to StubSender.
func WithSender(s Sender) Option {
	return func(c *config) { c.sender = s }
}

// WithVerifier sets the code verification backend. Defaults to StubVerifier.
func WithVerifier(v Verifier) Option {
	return func(c *config) { c.verifier = v }
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOnAuthenticated registers the callback invoked once per successful
// OTP submission. Only Gate uses it; Machine ignores it.
func WithOnAuthenticated(fn func()) Option {
	return func(c *config) { c.onAuthenticated = fn }
}

func newConfig(opts []Option) config {
	c := config{
		sender:   StubSender{},
		verifier: StubVerifier{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}
