package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/runner"
	"github.com/aretw0/leadflow/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	wiz, err := leadflow.New()
	require.NoError(t, err)
	n := 0
	return NewServer(wiz, session.NewManager(memory.NewStore()), WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("mcp-%d", n)
	}))
}

func TestTools_WalkDefaultFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	started, err := s.handleStart(ctx, req, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "mcp-1", started.State.SessionID)
	assert.Equal(t, domain.PhaseCollectingDetails, started.View.Auth.Phase)

	var last runner.RichResponse
	for _, args := range []map[string]interface{}{
		{"type": "submit_details", "name": "Asha Rao", "mobile": "9876543210"},
		{"type": "submit_otp", "otp": "123456"},
		{"type": "select", "value": "independent_house"},
		{"type": "jump", "index": float64(1)},
		{"type": "next"},
		{"type": "select", "value": "other"},
		{"type": "set_other", "value": "Nagpur"},
		{"type": "confirm_other"},
		{"type": "set_amount", "value": "0"},
		{"type": "key", "value": "Enter"},
	} {
		args["session_id"] = "mcp-1"
		last, err = s.handleDispatch(ctx, req, args)
		require.NoError(t, err, "%v", args)
	}
	assert.True(t, last.Terminal)
	assert.Equal(t, "other:Nagpur", last.State.Lead.Answers["city"])

	got, err := s.handleGet(ctx, req, map[string]interface{}{"session_id": "mcp-1"})
	require.NoError(t, err)
	assert.True(t, got.View.Completed)
}

func TestTools_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleGet(ctx, req, map[string]interface{}{"session_id": "nope"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.handleStart(ctx, req, map[string]interface{}{"session_id": "../escape"})
	assert.ErrorContains(t, err, "invalid session id")

	_, err = s.handleStart(ctx, req, map[string]interface{}{"session_id": "dup"})
	require.NoError(t, err)
	_, err = s.handleStart(ctx, req, map[string]interface{}{"session_id": "dup"})
	assert.ErrorIs(t, err, session.ErrSessionExists)

	_, err = s.handleDispatch(ctx, req, map[string]interface{}{"session_id": "dup", "type": "select", "value": "flat"})
	assert.ErrorIs(t, err, domain.ErrWrongStepKind)

	_, err = s.handleDispatch(ctx, req, map[string]interface{}{"session_id": "dup", "type": "set_other", "value": strings.Repeat("x", runner.DefaultMaxInputSize+1)})
	assert.ErrorIs(t, err, runner.ErrInputTooLarge)

	// Validation problems are part of the response, not errors.
	resp, err := s.handleDispatch(ctx, req, map[string]interface{}{"session_id": "dup", "type": "submit_details", "name": "Asha", "mobile": "98"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.View.Auth.Errors[domain.FieldMobile])
}

func TestListStepsAndFlowResource(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleListSteps(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var steps []domain.Step
	require.NoError(t, json.Unmarshal([]byte(text.Text), &steps))
	require.Len(t, steps, 4)
	assert.Equal(t, domain.StepKindAuth, steps[0].Kind)

	contents, err := s.readFlow(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	trc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, FlowURI, trc.URI)
	assert.Contains(t, trc.Text, `"home-loan"`)
}
