package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/leadflow/internal/config"
	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/persistence/middleware"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		LogLevel:   "info",
		LogFormat:  logging.FormatText,
		JumpPolicy: "visited",
		Store: config.StoreConfig{
			Backend: backend,
			Dir:     t.TempDir(),
			Scrub:   middleware.DefaultScrubPatterns,
		},
	}
}

const completeRun = `{"type":"submit_details","name":"Jane Doe","mobile":"9876543210"}
{"type":"submit_otp","otp":"123456"}
{"type":"select","value":"flat"}
[{"type":"select","value":"other"},{"type":"set_other","value":"Pune"},{"type":"confirm_other"}]
{"type":"confirm_amount"}
`

func TestExecute_JSONSessionPersists(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	var out bytes.Buffer

	err := Execute(context.Background(), cfg, logging.NewNop(), RunOptions{
		SessionID: "cli-1",
		JSON:      true,
		In:        strings.NewReader(completeRun),
		Out:       &out,
	})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), ">>>")

	backend, err := NewBackend(cfg, logging.NewNop())
	require.NoError(t, err)
	state, err := backend.Sessions.Load(context.Background(), "cli-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, state.Status)
	require.NotNil(t, state.Lead)
	assert.Equal(t, "Jane Doe", state.Lead.Name)
	assert.Equal(t, "other:Pune", state.Lead.Answers["city"])
}

func TestExecute_ResumeAndFresh(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	ctx := context.Background()

	run := func(input string, fresh bool) string {
		var out bytes.Buffer
		err := Execute(ctx, cfg, logging.NewNop(), RunOptions{
			SessionID: "cli-2",
			Fresh:     fresh,
			In:        strings.NewReader(input),
			Out:       &out,
		})
		require.NoError(t, err)
		return out.String()
	}

	first := run("Jane Doe\n9876543210\n", false)
	assert.Contains(t, first, "Session 'cli-2' active.")

	second := run("", false)
	assert.Contains(t, second, "Resuming at 'Verify your number' step...")

	third := run("", true)
	assert.Contains(t, third, "Session 'cli-2' active.")
}

func TestExecute_WatchFlags(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)

	err := Execute(context.Background(), cfg, logging.NewNop(), RunOptions{Watch: true, JSON: true})
	assert.ErrorContains(t, err, "cannot be used together")

	err = Execute(context.Background(), cfg, logging.NewNop(), RunOptions{Watch: true})
	assert.ErrorContains(t, err, "needs a flow file")
}

func TestNewBackend_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, config.BackendRedis)
	cfg.Store.Redis = config.RedisConfig{Addr: mr.Addr(), Prefix: "test:", TTL: time.Hour, LockTTL: time.Second}
	cfg.Store.EncryptionKey = strings.Repeat("ab", 32)

	backend, err := NewBackend(cfg, logging.NewNop())
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	st := domain.NewState("r1")
	st.Auth.CodeSentTo = "9876543210"
	require.NoError(t, backend.Sessions.Create(ctx, "r1", st))

	raw, err := mr.Get("test:r1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "9876543210")
	assert.Contains(t, raw, `"sealed"`)

	loaded, err := backend.Sessions.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "9876543210", loaded.Auth.CodeSentTo)

	assert.NoError(t, middleware.Ping(ctx, backend.Store))
	mr.Close()
	assert.Error(t, middleware.Ping(ctx, backend.Store))
}

func TestNewBackend_BadKey(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.Store.EncryptionKey = "abcd"

	_, err := NewBackend(cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestNewBackend_BadScrubPattern(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.MCP.Transport = "stdio"
	cfg.Store.Scrub = []string{"("}

	assert.ErrorContains(t, cfg.Validate(), "store.scrub[0]")
	assert.NotPanics(t, func() {
		_, err := NewBackend(cfg, logging.NewNop())
		assert.Error(t, err)
	})
}

func TestNewWizard_MetricsAndFlowFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: tiny
steps:
  - id: city
    kind: choice
    title: City
    options: [pune, other]
`), 0o644))

	cfg := testConfig(t, config.BackendMemory)
	cfg.Flow = path
	reg := prometheus.NewRegistry()

	wizard, err := NewWizard(cfg, logging.NewNop(), reg)
	require.NoError(t, err)
	require.Len(t, wizard.Steps(), 1)

	_, err = wizard.Start(context.Background(), "m1")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "leadflow_step_visits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewWizard_MissingFlow(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.Flow = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewWizard(cfg, logging.NewNop(), nil)
	assert.Error(t, err)
}

func TestHydrateState_RestartsStaleSession(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	backend, err := NewBackend(cfg, logging.NewNop())
	require.NoError(t, err)
	wizard, err := NewWizard(cfg, logging.NewNop(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	stale := domain.NewState("old")
	stale.Position = 42
	require.NoError(t, backend.Sessions.Save(ctx, "old", stale))

	var out bytes.Buffer
	state, created, err := hydrateState(ctx, wizard, backend.Sessions, "old", &out, false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 0, state.Position)
	assert.Contains(t, out.String(), "no longer matches the flow")
}

func TestWatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := watchFile(ctx, path, logging.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("name: b\n"), 0o644))

	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("no change signalled")
	}
}

func TestNewWizard_OTPHooks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook fixtures use sh")
	}
	dir := t.TempDir()
	hooks := filepath.Join(dir, "otp.yaml")
	require.NoError(t, os.WriteFile(hooks, []byte(`hooks:
  - name: verify
    command: sh
    args: ["-c", "test \"$LEADFLOW_OTP\" = 424242 || exit 1"]
`), 0o644))

	cfg := testConfig(t, config.BackendMemory)
	cfg.OTP = config.OTPConfig{Hooks: hooks, Timeout: 5 * time.Second}

	wizard, err := NewWizard(cfg, logging.NewNop(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	st, err := wizard.Start(ctx, "otp")
	require.NoError(t, err)
	st, err = wizard.Dispatch(ctx, st, domain.Command{Type: domain.CmdSubmitDetails, Name: "Jane Doe", Mobile: "9876543210"})
	require.NoError(t, err)

	rejected, err := wizard.Dispatch(ctx, st, domain.Command{Type: domain.CmdSubmitOTP, OTP: "111111"})
	require.NoError(t, err)
	assert.NotEmpty(t, rejected.Auth.Errors[domain.FieldOTP])

	accepted, err := wizard.Dispatch(ctx, st, domain.Command{Type: domain.CmdSubmitOTP, OTP: "424242"})
	require.NoError(t, err)
	assert.Equal(t, 1, accepted.Position)
}
