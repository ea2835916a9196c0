package gate

import (
	"context"
	"errors"
)

// ErrCodeRejected is returned by a Verifier when the code does not match.
// The gate reports it as an "Invalid OTP" field error instead of failing.
var ErrCodeRejected = errors.New("verification code rejected")

// Sender delivers a one-time password to a mobile number.
type Sender interface {
	Send(ctx context.Context, mobile string) error
}

// Verifier checks a one-time password previously sent to mobile.
type Verifier interface {
	Verify(ctx context.Context, mobile, otp string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, mobile string) error

func (f SenderFunc) Send(ctx context.Context, mobile string) error { return f(ctx, mobile) }

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, mobile, otp string) error

func (f VerifierFunc) Verify(ctx context.Context, mobile, otp string) error {
	return f(ctx, mobile, otp)
}

// StubSender pretends to deliver codes. It only honours cancellation.
type StubSender struct{}

func (StubSender) Send(ctx context.Context, _ string) error { return ctx.Err() }

// StubVerifier accepts any syntactically valid code.
type StubVerifier struct{}

func (StubVerifier) Verify(ctx context.Context, _, _ string) error { return ctx.Err() }
