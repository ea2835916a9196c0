// Package gate implements the authentication gate of the wizard: a details
// form (name + mobile), a one-time password request and its verification.
//
// Machine is stateless and operates on domain.AuthState values. Gate wraps a
// Machine with its own mutex-guarded state for hosts that embed a single gate.
//
// Every backend round trip is split into a Begin and a Complete half. Begin
// moves the gate into an intermediate phase (sending or verifying) and bumps
// the attempt counter; Complete applies the backend response only if the
// attempt still matches, so a response that arrives after the user went back
// (or after a newer request) is dropped with domain.ErrSuperseded.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/validation"
)

// Ticket identifies an in-flight backend request.
type Ticket struct {
	Attempt uint64
	Mobile  string
	OTP     string

	// From is the phase restored when the request fails.
	From domain.GatePhase
	// To is the phase entered when the request succeeds.
	To domain.GatePhase
}

// Machine applies gate transitions to AuthState values.
type Machine struct {
	sender   Sender
	verifier Verifier
	logger   *slog.Logger
}

// NewMachine creates a Machine. See WithSender, WithVerifier and WithLogger.
func NewMachine(opts ...Option) *Machine {
	c := newConfig(opts)
	return &Machine{sender: c.sender, verifier: c.verifier, logger: c.logger}
}

// SubmitDetails validates name and mobile, sends a code and moves to the OTP form.
// A validation failure returns the state with field errors and the validation error.
func (m *Machine) SubmitDetails(ctx context.Context, st domain.AuthState, name, mobile string) (domain.AuthState, error) {
	next, t, err := m.BeginDetails(st, name, mobile)
	if err != nil {
		return next, err
	}
	return m.CompleteSend(next, t, m.sender.Send(ctx, t.Mobile))
}

// RequestOTP sends a code to mobile without submitting the details form.
// In the details form it records the number and stays; in the OTP form it
// re-sends and clears the typed code. An empty mobile in the OTP form
// resends to the number already on file.
func (m *Machine) RequestOTP(ctx context.Context, st domain.AuthState, mobile string) (domain.AuthState, error) {
	next, t, err := m.BeginSend(st, mobile)
	if err != nil {
		return next, err
	}
	return m.CompleteSend(next, t, m.sender.Send(ctx, t.Mobile))
}

// SubmitOTP validates and verifies the code. On success the gate is authenticated.
func (m *Machine) SubmitOTP(ctx context.Context, st domain.AuthState, otp string) (domain.AuthState, error) {
	next, t, err := m.BeginVerify(st, otp)
	if err != nil {
		return next, err
	}
	return m.CompleteVerify(next, t, m.verifier.Verify(ctx, t.Mobile, t.OTP))
}

// Back returns to the details form, discarding the OTP draft and
// invalidating any in-flight request. Name and mobile are kept.
func (m *Machine) Back(st domain.AuthState) (domain.AuthState, error) {
	switch st.Phase {
	case domain.PhaseSending, domain.PhaseAwaitingOTP, domain.PhaseVerifying:
	default:
		return st, fmt.Errorf("%w: back from %s", domain.ErrInvalidPhase, st.Phase)
	}

	next := st.Clone()
	next.Phase = domain.PhaseCollectingDetails
	next.OTP = domain.OTPDraft{}
	next.Errors = nil
	next.Attempt++
	m.logger.Debug("gate back to details", "attempt", next.Attempt)
	return next, nil
}

// BeginDetails validates the details form and enters the sending phase.
func (m *Machine) BeginDetails(st domain.AuthState, name, mobile string) (domain.AuthState, Ticket, error) {
	if st.Phase != domain.PhaseCollectingDetails {
		return st, Ticket{}, fmt.Errorf("%w: submit details in %s", domain.ErrInvalidPhase, st.Phase)
	}

	next := st.Clone()
	next.Details = domain.AuthDraft{Name: strings.TrimSpace(name), Mobile: mobile}

	if err := validation.Validate(validation.DetailsSchema, map[string]string{
		domain.FieldName:   name,
		domain.FieldMobile: mobile,
	}); err != nil {
		next.Errors = validation.Fields(err)
		return next, Ticket{}, err
	}

	next, t := m.begin(next, Ticket{
		Mobile: mobile,
		From:   domain.PhaseCollectingDetails,
		To:     domain.PhaseAwaitingOTP,
	})
	return next, t, nil
}

// BeginSend validates mobile and enters the sending phase for an inline
// request (details form) or a resend (OTP form).
func (m *Machine) BeginSend(st domain.AuthState, mobile string) (domain.AuthState, Ticket, error) {
	if st.Phase != domain.PhaseCollectingDetails && st.Phase != domain.PhaseAwaitingOTP {
		return st, Ticket{}, fmt.Errorf("%w: request otp in %s", domain.ErrInvalidPhase, st.Phase)
	}
	if mobile == "" && st.Phase == domain.PhaseAwaitingOTP {
		mobile = st.Details.Mobile
	}

	next := st.Clone()
	next.Details.Mobile = mobile

	if err := validation.Validate(validation.MobileSchema, map[string]string{
		domain.FieldMobile: mobile,
	}); err != nil {
		next.Errors = validation.Fields(err)
		return next, Ticket{}, err
	}

	if st.Phase == domain.PhaseAwaitingOTP {
		next.OTP = domain.OTPDraft{}
	}
	next, t := m.begin(next, Ticket{Mobile: mobile, From: st.Phase, To: st.Phase})
	return next, t, nil
}

func (m *Machine) begin(st domain.AuthState, t Ticket) (domain.AuthState, Ticket) {
	st.Attempt++
	st.Phase = domain.PhaseSending
	st.Errors = nil
	t.Attempt = st.Attempt
	m.logger.Debug("gate sending code", "attempt", t.Attempt)
	return st, t
}

// CompleteSend applies the result of a Sender call started by BeginDetails or BeginSend.
func (m *Machine) CompleteSend(st domain.AuthState, t Ticket, sendErr error) (domain.AuthState, error) {
	if st.Phase != domain.PhaseSending || st.Attempt != t.Attempt {
		m.logger.Debug("gate dropped stale send response", "attempt", t.Attempt, "current", st.Attempt)
		return st, domain.ErrSuperseded
	}

	next := st.Clone()
	if sendErr != nil {
		next.Phase = t.From
		return next, fmt.Errorf("send code: %w", sendErr)
	}

	next.Phase = t.To
	next.CodeSentTo = t.Mobile
	if t.To == domain.PhaseAwaitingOTP {
		next.OTP = domain.OTPDraft{}
	}
	return next, nil
}

// BeginVerify validates the code and enters the verifying phase.
func (m *Machine) BeginVerify(st domain.AuthState, otp string) (domain.AuthState, Ticket, error) {
	if st.Phase != domain.PhaseAwaitingOTP {
		return st, Ticket{}, fmt.Errorf("%w: submit otp in %s", domain.ErrInvalidPhase, st.Phase)
	}

	next := st.Clone()
	next.OTP = domain.OTPDraft{OTP: otp}

	if err := validation.Validate(validation.OTPSchema, map[string]string{
		domain.FieldOTP: otp,
	}); err != nil {
		next.Errors = validation.Fields(err)
		return next, Ticket{}, err
	}

	next.Attempt++
	next.Phase = domain.PhaseVerifying
	next.Errors = nil

	mobile := next.CodeSentTo
	if mobile == "" {
		mobile = next.Details.Mobile
	}
	return next, Ticket{
		Attempt: next.Attempt,
		Mobile:  mobile,
		OTP:     otp,
		From:    domain.PhaseAwaitingOTP,
		To:      domain.PhaseAuthenticated,
	}, nil
}

// CompleteVerify applies the result of a Verifier call started by BeginVerify.
// A rejected code is reported as a field error, like a malformed one.
func (m *Machine) CompleteVerify(st domain.AuthState, t Ticket, verifyErr error) (domain.AuthState, error) {
	if st.Phase != domain.PhaseVerifying || st.Attempt != t.Attempt {
		m.logger.Debug("gate dropped stale verify response", "attempt", t.Attempt, "current", st.Attempt)
		return st, domain.ErrSuperseded
	}

	next := st.Clone()
	if verifyErr != nil {
		next.Phase = t.From
		if errors.Is(verifyErr, ErrCodeRejected) {
			fe := &validation.FieldError{Field: domain.FieldOTP, Reason: validation.MsgInvalidOTP}
			next.Errors = map[string]string{fe.Field: fe.Reason}
			return next, &validation.AggregateError{Errors: []error{fe}}
		}
		return next, fmt.Errorf("verify code: %w", verifyErr)
	}

	next.Phase = domain.PhaseAuthenticated
	next.Errors = nil
	m.logger.Debug("gate authenticated", "attempt", t.Attempt)
	return next, nil
}
