// Package process delivers and checks one-time passwords by running local
// commands, such as a script that calls an SMS gateway.
//
// Only commands registered up front can run. Values reach the command as
// LEADFLOW_* environment variables, never as arguments.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/leadflow/pkg/gate"
)

// ExitRejected is the exit code a verify hook uses for a wrong code.
const ExitRejected = 1

// DefaultTimeout bounds a single hook run.
const DefaultTimeout = 15 * time.Second

// ErrHookNotRegistered is returned when no command is registered under a name.
var ErrHookNotRegistered = errors.New("process hook not registered")

// Runner executes registered commands.
type Runner struct {
	registry map[string]HookConfig
	baseDir  string
	timeout  time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(hooks map[string]HookConfig) RunnerOption {
	return func(r *Runner) {
		for name, h := range hooks {
			r.registry[name] = h
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout overrides DefaultTimeout. Zero disables the limit.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]HookConfig),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name, command string, args ...string) {
	r.registry[name] = HookConfig{Name: name, Command: command, Args: args}
}

// Has reports whether name is registered.
func (r *Runner) Has(name string) bool {
	_, ok := r.registry[name]
	return ok
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Hook   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("hook %s exited with code %d: %s", e.Hook, e.Code, strings.TrimSpace(e.Stderr))
}

// Run executes the hook registered as name. Each vars entry is exported as
// LEADFLOW_<KEY>. It returns the trimmed stdout.
func (r *Runner) Run(ctx context.Context, name string, vars map[string]string) (string, error) {
	hook, ok := r.registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrHookNotRegistered, name)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, hook.Command, hook.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), environ(hook.Environment, vars)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("hook %s: %w", name, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExitError{Hook: name, Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("hook %s: %w", name, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func environ(static, vars map[string]string) []string {
	env := make([]string, 0, len(static)+len(vars))
	for k, v := range static {
		env = append(env, k+"="+v)
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, "LEADFLOW_"+strings.ToUpper(k)+"="+vars[k])
	}
	return env
}

// Backend adapts a Runner to the gate's Sender and Verifier.
// A verify hook exiting with ExitRejected reports a wrong code.
type Backend struct {
	runner *Runner
}

var (
	_ gate.Sender   = (*Backend)(nil)
	_ gate.Verifier = (*Backend)(nil)
)

// NewBackend wraps r. r should register HookSend and HookVerify.
func NewBackend(r *Runner) *Backend {
	return &Backend{runner: r}
}

// Send runs the send hook with LEADFLOW_MOBILE.
func (b *Backend) Send(ctx context.Context, mobile string) error {
	_, err := b.runner.Run(ctx, HookSend, map[string]string{"mobile": mobile})
	return err
}

// Verify runs the verify hook with LEADFLOW_MOBILE and LEADFLOW_OTP.
func (b *Backend) Verify(ctx context.Context, mobile, otp string) error {
	_, err := b.runner.Run(ctx, HookVerify, map[string]string{"mobile": mobile, "otp": otp})

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == ExitRejected {
		return gate.ErrCodeRejected
	}
	return err
}
