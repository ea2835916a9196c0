package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/internal/config"
	"github.com/aretw0/leadflow/internal/presentation/tui"
	"github.com/aretw0/leadflow/pkg/runner"
)

// RunSession runs one wizard session until it completes or the input ends.
func RunSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, backend *Backend, opts RunOptions) error {
	if !opts.Quiet {
		tui.PrintBanner(opts.Out, leadflow.Version)
	}

	wizard, err := NewWizard(cfg, logger, nil)
	if err != nil {
		return err
	}

	state, created, err := hydrateState(ctx, wizard, backend.Sessions, opts.SessionID, opts.Out, opts.Quiet)
	if err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	logSessionStatus(logger, opts.Out, wizard, state, created, opts.Quiet)

	r := runner.NewRunner(
		runner.WithEngine(wizard),
		runner.WithLogger(logger),
		runner.WithStore(backend.Store),
		runner.WithSessionID(opts.SessionID),
		runner.WithInitialState(state),
		runner.WithInputHandler(newIOHandler(opts)),
	)

	final, runErr := r.Run(ctx)
	if final == nil {
		final = state
	}
	if ctx.Err() != nil && runErr == nil {
		runErr = ctx.Err()
	}

	logCompletion(opts.Out, wizard, final, runErr, opts.Quiet)
	return handleExecutionError(runErr)
}
