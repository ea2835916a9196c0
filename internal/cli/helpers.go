package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/internal/config"
	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/internal/presentation/tui"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/runner"
	"github.com/aretw0/leadflow/pkg/session"
)

// NewLogger configures the application logger from cfg.
// It writes to w (Stderr when nil) to keep Stdout free for the wizard UI.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWithOptions(logging.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Writer: w,
	}), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func stepTitle(wizard *leadflow.Wizard, state *domain.State) string {
	steps := wizard.Steps()
	if state == nil || state.Position < 0 || state.Position >= len(steps) {
		return ""
	}
	return steps[state.Position].Title
}

func logSessionStatus(logger *slog.Logger, out io.Writer, wizard *leadflow.Wizard, state *domain.State, created, quiet bool) {
	if created {
		logger.Info("Session created", "session_id", state.SessionID)
		if !quiet {
			printSystemMessage(out, "Session '%s' active.", state.SessionID)
		}
		return
	}
	logger.Info("Session resumed", "session_id", state.SessionID, "position", state.Position)
	if !quiet {
		printSystemMessage(out, "Resuming at '%s' step...", stepTitle(wizard, state))
	}
}

// hydrateState loads the session or starts it. A stored session that no
// longer fits the flow (the flow file lost steps) is restarted.
func hydrateState(ctx context.Context, wizard *leadflow.Wizard, sessions *session.Manager, sessionID string, out io.Writer, quiet bool) (*domain.State, bool, error) {
	start := func(ctx context.Context) (*domain.State, error) {
		return wizard.Start(ctx, sessionID)
	}

	state, created, err := sessions.LoadOrStart(ctx, sessionID, start)
	if err != nil {
		return nil, false, err
	}
	if created || state.Position < len(wizard.Steps()) {
		return state, created, nil
	}

	if !quiet {
		printSystemMessage(out, "Session '%s' no longer matches the flow, restarting.", sessionID)
	}
	state, err = wizard.Start(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if err := sessions.Save(ctx, sessionID, state); err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// newIOHandler picks the JSON handler or a text handler. Terminals get the
// glamour renderer and the styled indicator.
func newIOHandler(opts RunOptions) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(opts.In, opts.Out)
	}
	var thOpts []runner.TextHandlerOption
	if f, ok := opts.Out.(*os.File); ok && tui.IsInteractive(f) {
		thOpts = append(thOpts,
			runner.WithTextHandlerRenderer(tui.NewRenderer()),
			runner.WithTextHandlerIndicator(tui.Indicator),
		)
	}
	return runner.NewTextHandler(opts.In, opts.Out, thOpts...)
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

func logCompletion(out io.Writer, wizard *leadflow.Wizard, state *domain.State, err error, quiet bool) {
	if quiet {
		return
	}
	switch {
	case state != nil && state.Status == domain.StatusCompleted:
		printSystemMessage(out, "Lead captured for session '%s'.", state.SessionID)
	case err == nil:
		printSystemMessage(out, "Paused at '%s' step.", stepTitle(wizard, state))
	case isInterrupted(err):
		fmt.Fprintln(out)
		printSystemMessage(out, "Interrupted at '%s' step.", stepTitle(wizard, state))
	}
}
