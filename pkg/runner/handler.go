package runner

import (
	"context"

	"github.com/aretw0/leadflow/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the view of the current state.
	Output(ctx context.Context, view *domain.View) error

	// Input reads the next user action and translates it into commands for
	// the given view. Several commands may result from one action, e.g.
	// typing an amount sets it and confirms it. io.EOF ends the session.
	Input(ctx context.Context, view *domain.View) ([]domain.Command, error)

	// SystemOutput presents a meta-message (rejected command, save notice).
	// This is distinct from view rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms markdown before it is written, e.g. to ANSI.
type ContentRenderer func(string) (string, error)

// IndicatorRenderer draws the step indicator.
type IndicatorRenderer func(domain.IndicatorView) string
