package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/internal/config"
	"github.com/aretw0/leadflow/pkg/adapters/file"
	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/adapters/process"
	"github.com/aretw0/leadflow/pkg/adapters/redis"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/gate"
	"github.com/aretw0/leadflow/pkg/observability"
	"github.com/aretw0/leadflow/pkg/persistence/middleware"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/aretw0/leadflow/pkg/session"
)

// Backend is the assembled persistence layer of a command.
type Backend struct {
	Store    ports.StateStore
	Sessions *session.Manager

	closers []func() error
}

// Close releases connections opened by the backend.
func (b *Backend) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewWizard initializes a wizard with the configured flow and jump policy.
// Lifecycle events are logged; reg, when non-nil, also receives metrics.
func NewWizard(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*leadflow.Wizard, error) {
	hooks := []domain.LifecycleHooks{observability.LogHooks(logger)}
	if reg != nil {
		hooks = append(hooks, observability.NewMetrics(reg).Hooks())
	}

	opts := []leadflow.Option{
		leadflow.WithLogger(logger),
		leadflow.WithJumpPolicy(leadflow.JumpPolicy(cfg.JumpPolicy)),
		leadflow.WithLifecycleHooks(domain.ChainHooks(hooks...)),
	}
	if cfg.Flow != "" {
		opts = append(opts, leadflow.WithFlowFile(cfg.Flow))
	}
	if cfg.OTP.Hooks != "" {
		gateOpts, err := otpHooks(cfg.OTP)
		if err != nil {
			return nil, err
		}
		opts = append(opts, leadflow.WithGateOptions(gateOpts...))
	}

	wizard, err := leadflow.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing wizard: %w", err)
	}
	return wizard, nil
}

// otpHooks builds gate options from a hooks file. Missing hooks keep the
// stub behaviour for that side.
func otpHooks(cfg config.OTPConfig) ([]gate.Option, error) {
	hooks, err := process.LoadHooks(cfg.Hooks)
	if err != nil {
		return nil, err
	}
	r := process.NewRunner(
		process.WithRegistry(hooks),
		process.WithBaseDir(filepath.Dir(cfg.Hooks)),
		process.WithTimeout(cfg.Timeout),
	)
	backend := process.NewBackend(r)

	var opts []gate.Option
	if r.Has(process.HookSend) {
		opts = append(opts, gate.WithSender(backend))
	}
	if r.Has(process.HookVerify) {
		opts = append(opts, gate.WithVerifier(backend))
	}
	return opts, nil
}

// NewBackend opens the configured store, wraps it with the scrub and
// encryption middlewares and builds a session manager over it. Redis
// backends also get a distributed lock.
func NewBackend(cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	active, fallback, err := cfg.Store.Keys()
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	if len(cfg.Store.Scrub) > 0 {
		scrub, err := middleware.NewScrubMiddleware(cfg.Store.Scrub)
		if err != nil {
			return nil, err
		}
		mws = append(mws, scrub)
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}

	b := &Backend{}
	sessionOpts := []session.Option{session.WithLogger(logger)}

	var base ports.StateStore
	switch cfg.Store.Backend {
	case config.BackendFile:
		base = file.New(cfg.Store.Dir)
	case config.BackendRedis:
		rc := cfg.Store.Redis
		rs := redis.New(rc.Addr, rc.Password, rc.DB,
			redis.WithPrefix(rc.Prefix),
			redis.WithTTL(rc.TTL),
		)
		b.closers = append(b.closers, rs.Close)
		base = rs
		sessionOpts = append(sessionOpts,
			session.WithLocker(redis.NewLocker(rs.Client(), rc.Prefix+"lock:")),
			session.WithLockTTL(rc.LockTTL),
		)
	default:
		base = memory.NewStore()
	}

	b.Store = middleware.Chain(base, mws...)
	b.Sessions = session.NewManager(b.Store, sessionOpts...)

	logger.Debug("Store ready", "backend", cfg.Store.Backend, "scrub", len(cfg.Store.Scrub) > 0, "encrypted", active != nil)
	return b, nil
}
