package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithTimeout(t *testing.T, r *runner.Runner) *domain.State {
	t.Helper()
	type result struct {
		state *domain.State
		err   error
	}
	done := make(chan result, 1)
	go func() {
		st, err := r.Run(t.Context())
		done <- result{st, err}
	}()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		return res.state
	case <-time.After(2 * time.Second):
		t.Fatal("Runner timed out")
		return nil
	}
}

func TestRunner_TextCompletesDefaultFlow(t *testing.T) {
	wiz, err := leadflow.New()
	require.NoError(t, err)
	store := memory.NewStore()

	script := strings.Join([]string{
		"J", "12", // rejected details, shown on the view
		"Asha Rao", "9876543210",
		"123456",
		":jump 1", // back to the verified gate
		"",        // continue
		"3",       // villa
		"6",       // other
		"Pune",
		"15000",
	}, "\n") + "\n"
	out := &bytes.Buffer{}

	r := runner.NewRunner(
		runner.WithEngine(wiz),
		runner.WithStore(store),
		runner.WithSessionID("cli-1"),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(script), out)),
	)
	state := runWithTimeout(t, r)

	require.Equal(t, domain.StatusCompleted, state.Status)
	assert.Equal(t, "villa", state.Lead.Answers["property_type"])
	assert.Equal(t, "other:Pune", state.Lead.Answers["city"])
	assert.Equal(t, "15000", state.Lead.Answers["emi"])

	saved, err := store.Load(context.Background(), "cli-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, saved.Status)

	text := out.String()
	assert.Contains(t, text, "Name too short")
	assert.Contains(t, text, "We've sent a verification code to **9876543210**")
	assert.Contains(t, text, "Thank you!")
}

func TestRunner_RejectedCommandIsReported(t *testing.T) {
	wiz, err := leadflow.New()
	require.NoError(t, err)

	out := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithEngine(wiz),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(":jump 4\n"), out)),
	)
	state := runWithTimeout(t, r)

	assert.Equal(t, 0, state.Position)
	assert.Contains(t, out.String(), "[!] ")
}

func TestRunner_ResumeFromInitialState(t *testing.T) {
	wiz, err := leadflow.New()
	require.NoError(t, err)
	ctx := context.Background()

	st, err := wiz.Start(ctx, "resume")
	require.NoError(t, err)
	for _, cmd := range []domain.Command{
		{Type: domain.CmdSubmitDetails, Name: "Asha Rao", Mobile: "9876543210"},
		{Type: domain.CmdSubmitOTP, OTP: "123456"},
	} {
		st, err = wiz.Dispatch(ctx, st, cmd)
		require.NoError(t, err)
	}

	r := runner.NewRunner(
		runner.WithEngine(wiz),
		runner.WithInitialState(st),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("1\n2\n\n"), &bytes.Buffer{})),
	)
	final := runWithTimeout(t, r)
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, "flat", final.Lead.Answers["property_type"])
	assert.Equal(t, "delhi", final.Lead.Answers["city"])
}

func TestRunner_JSONHeadless(t *testing.T) {
	wiz, err := leadflow.New()
	require.NoError(t, err)

	in := strings.Join([]string{
		`{"type":"submit_details","name":"Asha Rao","mobile":"9876543210"}`,
		`{"type":"submit_otp","otp":"000000"}`,
		`{"type":"select","value":"plot"}`,
		`{"type":"select","value":"chennai"}`,
		`{"type":"confirm_amount"}`,
	}, "\n") + "\n"
	out := &bytes.Buffer{}

	r := runner.NewRunner(
		runner.WithEngine(wiz),
		runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader(in), out)),
	)
	state := runWithTimeout(t, r)
	require.Equal(t, domain.StatusCompleted, state.Status)

	var last runner.Message
	scanner := bufio.NewScanner(out)
	lines := 0
	for scanner.Scan() {
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &last))
		lines++
	}
	assert.Equal(t, 6, lines)
	assert.True(t, last.View.Completed)
	assert.Equal(t, float64(100), last.View.Indicator.Progress)
}

func TestRunner_NoEngine(t *testing.T) {
	_, err := runner.NewRunner().Run(context.Background())
	assert.ErrorIs(t, err, runner.ErrNoEngine)
}

func TestDispatchAndRender(t *testing.T) {
	wiz, err := leadflow.New()
	require.NoError(t, err)
	ctx := context.Background()

	st, err := wiz.Start(ctx, "rich")
	require.NoError(t, err)

	resp, err := runner.DispatchAndRender(ctx, wiz, st, domain.Command{Type: domain.CmdSubmitDetails, Name: "Asha Rao", Mobile: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAwaitingOTP, resp.View.Auth.Phase)
	assert.False(t, resp.Terminal)

	_, err = runner.DispatchAndRender(ctx, wiz, resp.State, domain.Command{Type: domain.CmdSelect, Value: "flat"})
	assert.ErrorIs(t, err, domain.ErrWrongStepKind)
}
