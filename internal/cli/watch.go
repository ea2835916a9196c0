package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/internal/config"
	"github.com/aretw0/leadflow/internal/presentation/tui"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/runner"
)

// reloadDelay lets editors finish writing before the flow is parsed again.
const reloadDelay = 100 * time.Millisecond

// RunWatch runs the wizard in development mode, reloading the flow file on
// every change while keeping the session.
func RunWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, backend *Backend, opts RunOptions) error {
	tui.PrintBanner(opts.Out, leadflow.Version)

	changes, err := watchFile(ctx, cfg.Flow, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting watcher", "flow", cfg.Flow, "session_id", opts.SessionID)
	printSystemMessage(opts.Out, "Watching '%s' in session '%s'.", cfg.Flow, opts.SessionID)

	// One handler for every iteration so stdin has a single reader.
	handler := newIOHandler(opts)

	for runWatchIteration(ctx, cfg, logger, backend, opts, handler, changes) {
		logger.Info("Watcher restarting")
	}
	return nil
}

// runWatchIteration runs the wizard until the flow changes or ctx ends.
// It reports whether the watcher should go on.
func runWatchIteration(ctx context.Context, cfg *config.Config, logger *slog.Logger, backend *Backend, opts RunOptions, handler runner.IOHandler, changes <-chan struct{}) bool {
	wizard, err := NewWizard(cfg, logger, nil)
	if err != nil {
		logger.Error("Flow failed to load", "err", err)
		printSystemMessage(opts.Out, "Flow error: %v. Waiting for changes...", err)
		return waitForChange(ctx, changes)
	}

	state, _, err := hydrateState(ctx, wizard, backend.Sessions, opts.SessionID, opts.Out, false)
	if err != nil {
		logger.Error("State rehydration failed", "err", err)
		return waitForChange(ctx, changes)
	}
	if state.Status == domain.StatusCompleted {
		if state, err = restart(ctx, wizard, backend, opts.SessionID); err != nil {
			logger.Error("Session restart failed", "err", err)
			return waitForChange(ctx, changes)
		}
	}
	printSystemMessage(opts.Out, "Resuming at '%s' step...", stepTitle(wizard, state))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := runner.NewRunner(
		runner.WithEngine(wizard),
		runner.WithLogger(logger),
		runner.WithStore(backend.Store),
		runner.WithSessionID(opts.SessionID),
		runner.WithInitialState(state),
		runner.WithInputHandler(handler),
	)

	type result struct {
		state *domain.State
		err   error
	}
	done := make(chan result, 1)
	go func() {
		s, err := r.Run(runCtx)
		done <- result{s, err}
	}()

	select {
	case <-ctx.Done():
		cancel()
		res := <-done
		logCompletion(opts.Out, wizard, res.state, context.Canceled, false)
		logger.Info("Stopping watcher (signal received)")
		return false
	case <-changes:
		cancel()
		<-done
		fmt.Fprintln(opts.Out)
		printSystemMessage(opts.Out, "Change detected in '%s'.", cfg.Flow)
		return true
	case res := <-done:
		if res.err != nil && !errors.Is(res.err, context.Canceled) {
			logger.Error("Runtime error", "err", res.err)
		}
		if res.err == nil {
			logCompletion(opts.Out, wizard, res.state, nil, false)
		}
		printSystemMessage(opts.Out, "Waiting for changes...")
		logger.Info("Flow finished, waiting for changes")
		return waitForChange(ctx, changes)
	}
}

func restart(ctx context.Context, wizard *leadflow.Wizard, backend *Backend, sessionID string) (*domain.State, error) {
	state, err := wizard.Start(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return state, backend.Sessions.Save(ctx, sessionID, state)
}

func waitForChange(ctx context.Context, changes <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return false
	case <-changes:
		return true
	}
}

// watchFile signals on the returned channel whenever path is written,
// created or renamed. The directory is watched so editors that replace the
// file are still seen.
func watchFile(ctx context.Context, path string, logger *slog.Logger) (<-chan struct{}, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || filepath.Clean(evt.Name) != abs {
					continue
				}
				time.Sleep(reloadDelay)
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error", "err", err)
			}
		}
	}()
	return changes, nil
}
