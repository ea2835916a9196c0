package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrPositionOutOfRange is returned when a navigation would leave the step list.
var ErrPositionOutOfRange = errors.New("position out of range")

// ErrInvalidCommand is returned for unknown or malformed commands.
var ErrInvalidCommand = errors.New("invalid command")

// ErrWrongStepKind is returned when a command does not apply to the current step.
var ErrWrongStepKind = errors.New("command does not apply to current step")

// ErrInvalidPhase is returned when a gate operation is not allowed in the current phase.
var ErrInvalidPhase = errors.New("operation not allowed in current auth phase")

// ErrSuperseded is returned when a backend response arrives for a request that
// was replaced or abandoned in the meantime.
var ErrSuperseded = errors.New("request superseded")

// ErrNotAuthenticated is returned when leaving the auth step before the gate is passed.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrCompleted is returned when a command is dispatched to a completed session.
var ErrCompleted = errors.New("session already completed")

// ErrJumpNotAllowed is returned when the jump policy refuses a target position.
var ErrJumpNotAllowed = errors.New("jump not allowed")

// IsRejected reports whether err refuses a command the user can correct,
// as opposed to a failure of the engine or its backends.
func IsRejected(err error) bool {
	for _, target := range []error{
		ErrPositionOutOfRange,
		ErrInvalidCommand,
		ErrWrongStepKind,
		ErrInvalidPhase,
		ErrNotAuthenticated,
		ErrCompleted,
		ErrJumpNotAllowed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
