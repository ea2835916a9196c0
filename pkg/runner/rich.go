package runner

import (
	"context"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
)

// RichResponse combines state and view for request/response clients
// (HTTP, MCP).
type RichResponse struct {
	State    *domain.State `json:"state"`
	View     *domain.View  `json:"view,omitempty"`
	Terminal bool          `json:"terminal"`
}

// DispatchAndRender applies cmd and immediately renders the resulting state,
// so clients always receive the view of the step they landed on.
func DispatchAndRender(ctx context.Context, engine ports.StatelessEngine, current *domain.State, cmd domain.Command) (*RichResponse, error) {
	next, err := engine.Dispatch(ctx, current, cmd)
	if err != nil {
		return nil, err
	}
	return Render(ctx, engine, next)
}

// Render wraps the view of state in a RichResponse.
func Render(ctx context.Context, engine ports.StatelessEngine, state *domain.State) (*RichResponse, error) {
	view, err := engine.Render(ctx, state)
	if err != nil {
		// The new state is still returned so the client can recover.
		return &RichResponse{State: state, Terminal: state.Status == domain.StatusCompleted}, err
	}
	return &RichResponse{
		State:    state,
		View:     view,
		Terminal: view.Completed,
	}, nil
}
