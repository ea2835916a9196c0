package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/adapters/redis"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/runner"
	"github.com/aretw0/leadflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store *memory.Store) *Server {
	t.Helper()
	wiz, err := leadflow.New()
	require.NoError(t, err)
	n := 0
	srv, err := NewServer(wiz, session.NewManager(store),
		WithLogger(logging.NewNop()),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("generated-%d", n)
		}),
	)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) runner.RichResponse {
	t.Helper()
	var resp runner.RichResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.NotNil(t, doc.Paths.Value("/sessions/{id}/commands"))
}

func TestSessionRoundTrip(t *testing.T) {
	store := memory.NewStore()
	h := newTestServer(t, store).Handler()

	w := do(t, h, http.MethodPost, "/sessions", map[string]string{"session_id": "web-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, domain.PhaseCollectingDetails, created.View.Auth.Phase)

	for _, cmd := range []domain.Command{
		{Type: domain.CmdSubmitDetails, Name: "Asha Rao", Mobile: "9876543210"},
		{Type: domain.CmdSubmitOTP, OTP: "123456"},
		{Type: domain.CmdSelect, Value: "flat"},
		{Type: domain.CmdSelect, Value: "bengaluru"},
		{Type: domain.CmdSetAmount, Value: "5000"},
		{Type: domain.CmdConfirmAmount},
	} {
		w = do(t, h, http.MethodPost, "/sessions/web-1/commands", cmd)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	final := decode(t, w)
	assert.True(t, final.Terminal)
	assert.Equal(t, "bengaluru", final.State.Lead.Answers["city"])

	w = do(t, h, http.MethodGet, "/sessions/web-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).View.Completed)

	w = do(t, h, http.MethodPost, "/sessions/web-1/commands", domain.Command{Type: domain.CmdNext})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestValidationErrorsAreNotHTTPErrors(t *testing.T) {
	h := newTestServer(t, memory.NewStore()).Handler()
	do(t, h, http.MethodPost, "/sessions", map[string]string{"session_id": "v"})

	w := do(t, h, http.MethodPost, "/sessions/v/commands", domain.Command{Type: domain.CmdSubmitDetails, Name: "A", Mobile: "1"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Name too short", resp.View.Auth.Errors[domain.FieldName])
}

func TestCommandErrors(t *testing.T) {
	h := newTestServer(t, memory.NewStore()).Handler()
	do(t, h, http.MethodPost, "/sessions", map[string]string{"session_id": "e"})

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"unknown session", "/sessions/missing/commands", domain.Command{Type: domain.CmdNext}, http.StatusNotFound},
		{"wrong step kind", "/sessions/e/commands", domain.Command{Type: domain.CmdSelect, Value: "flat"}, http.StatusUnprocessableEntity},
		{"not authenticated", "/sessions/e/commands", domain.Command{Type: domain.CmdNext}, http.StatusUnprocessableEntity},
		{"unknown type", "/sessions/e/commands", map[string]string{"type": "fly"}, http.StatusBadRequest},
		{"unknown field", "/sessions/e/commands", map[string]any{"type": "next", "force": true}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestCreateSession_GeneratedAndDuplicate(t *testing.T) {
	h := newTestServer(t, memory.NewStore()).Handler()

	w := do(t, h, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "generated-1", decode(t, w).State.SessionID)

	w = do(t, h, http.MethodPost, "/sessions", map[string]string{"session_id": "generated-1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/sessions", map[string]string{"session_id": "../etc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/sessions", nil)
	var list map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []string{"generated-1"}, list["sessions"])

	w = do(t, h, http.MethodDelete, "/sessions/generated-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/sessions/generated-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInfoFlowAndSpec(t *testing.T) {
	h := newTestServer(t, memory.NewStore()).Handler()

	w := do(t, h, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, strings.TrimSpace(leadflow.Version), info["version"])

	w = do(t, h, http.MethodGet, "/flow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"property_type"`)

	w = do(t, h, http.MethodGet, "/openapi.yaml", nil)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	w = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	store := redis.New(mr.Addr(), "", 0)
	t.Cleanup(func() { store.Close() })

	wiz, err := leadflow.New()
	require.NoError(t, err)
	h, err := NewHandler(wiz, session.NewManager(store), WithLogger(logging.NewNop()))
	require.NoError(t, err)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	mr.Close()
	w = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubscribeEvents_Session(t *testing.T) {
	srv := newTestServer(t, memory.NewStore())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	do(t, srv.Handler(), http.MethodPost, "/sessions", map[string]string{"session_id": "sse"})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sessions/sse/events?watch=auth", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimPrefix(line, "data: ")
			}
		}
		close(lines)
	}()

	assert.Equal(t, "connected", <-lines)
	assert.Contains(t, <-lines, `"auth_phase":"collecting_details"`)

	require.Eventually(t, func() bool { return srv.Streams().Subscribers("sse") == 1 }, time.Second, 10*time.Millisecond)

	// A rejected command broadcasts nothing.
	do(t, srv.Handler(), http.MethodPost, "/sessions/sse/commands", domain.Command{Type: domain.CmdSelect, Value: "x"})
	do(t, srv.Handler(), http.MethodPost, "/sessions/sse/commands", domain.Command{Type: domain.CmdSubmitDetails, Name: "Asha Rao", Mobile: "9876543210"})

	select {
	case msg := <-lines:
		var diff domain.StateDiff
		require.NoError(t, json.Unmarshal([]byte(msg), &diff))
		require.NotNil(t, diff.AuthPhase)
		assert.Equal(t, domain.PhaseAwaitingOTP, *diff.AuthPhase)
	case <-ctx.Done():
		t.Fatal("no event received")
	}
}

func TestStreamManager_CloseAndUnsubscribe(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())
	ch, unsubscribe := sm.Subscribe("s")
	sm.Broadcast("s", "one")
	assert.Equal(t, "one", <-ch)

	sm.Close("s")
	_, open := <-ch
	assert.False(t, open)
	unsubscribe()
	assert.Equal(t, 0, sm.Subscribers("s"))
}

func TestStreamManager_CloseAll(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())
	a, unsubA := sm.Subscribe("a")
	b, _ := sm.Subscribe("b")

	sm.CloseAll()

	_, open := <-a
	assert.False(t, open)
	_, open = <-b
	assert.False(t, open)
	assert.Equal(t, 0, sm.Subscribers("a"))
	unsubA()
}
