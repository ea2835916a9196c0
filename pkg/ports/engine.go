package ports

import (
	"context"

	"github.com/aretw0/leadflow/pkg/domain"
)

// StatelessEngine is the wizard controller as seen by adapters (HTTP, MCP,
// terminal). It holds no session state: every call receives the state and
// Dispatch returns a new one.
type StatelessEngine interface {
	// Start creates the state of a new session positioned on the first step.
	Start(ctx context.Context, sessionID string) (*domain.State, error)

	// Render builds the view of a state without changing it.
	Render(ctx context.Context, state *domain.State) (*domain.View, error)

	// Dispatch applies one command. Field validation failures are recorded in
	// the returned state; a non-nil error means the command was rejected.
	Dispatch(ctx context.Context, state *domain.State, cmd domain.Command) (*domain.State, error)

	// Steps returns the step definitions in wizard order.
	Steps() []domain.Step
}
