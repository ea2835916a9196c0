package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/aretw0/leadflow/internal/config"
	"github.com/aretw0/leadflow/pkg/domain"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	SessionID string
	JSON      bool
	Watch     bool
	Fresh     bool
	Quiet     bool // No banner or system messages

	In  io.Reader
	Out io.Writer
}

// Execute handles the run command, dispatching to session or watch mode.
func Execute(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts RunOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.JSON {
		opts.Quiet = true
	}

	if opts.Watch {
		if opts.JSON {
			return errors.New("--watch and --json cannot be used together")
		}
		if cfg.Flow == "" {
			return errors.New("--watch needs a flow file")
		}
	}

	backend, err := NewBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("Failed to close store", "err", err)
		}
	}()

	if opts.SessionID == "" {
		if opts.Watch {
			opts.SessionID = "watch-dev"
		} else {
			opts.SessionID = uuid.NewString()
		}
	}

	if opts.Fresh {
		if err := backend.Sessions.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	if opts.Watch {
		return RunWatch(ctx, cfg, logger, backend, opts)
	}
	return RunSession(ctx, cfg, logger, backend, opts)
}
