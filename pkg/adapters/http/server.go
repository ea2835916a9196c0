// Package http exposes wizard sessions as a JSON API with server-sent
// state diffs.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
	persistence "github.com/aretw0/leadflow/pkg/persistence/middleware"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/aretw0/leadflow/pkg/runner"
	"github.com/aretw0/leadflow/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Server serves the session API.
type Server struct {
	engine   ports.StatelessEngine
	sessions *session.Manager
	streams  *StreamManager
	logger   *slog.Logger
	spec     *openapi3.T
	router   routers.Router
	newID    func() string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to JSON on stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithIDGenerator replaces the random UUID generator for new sessions.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		s.newID = fn
	}
}

// NewServer builds a Server. It fails when the embedded OpenAPI document
// cannot be loaded.
func NewServer(engine ports.StatelessEngine, sessions *session.Manager, opts ...Option) (*Server, error) {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams = NewStreamManager(s.logger)

	doc, err := LoadSpec()
	if err != nil {
		return nil, err
	}
	router, err := newRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}
	s.spec, s.router = doc, router
	return s, nil
}

// NewHandler is a shortcut for NewServer followed by Handler.
func NewHandler(engine ports.StatelessEngine, sessions *session.Manager, opts ...Option) (http.Handler, error) {
	s, err := NewServer(engine, sessions, opts...)
	if err != nil {
		return nil, err
	}
	return s.Handler(), nil
}

// Streams exposes the SSE fan-out.
func (s *Server) Streams() *StreamManager { return s.streams }

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(RawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.validateRequests)

		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)
		r.Get("/flow", s.GetFlow)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.ListSessions)
			r.Post("/", s.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetSession)
				r.Delete("/", s.DeleteSession)
				r.Post("/commands", s.DispatchCommand)
				r.Get("/events", s.SubscribeEvents)
			})
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>leadflow API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles GET /health. Stores that can be pinged are checked.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if err := persistence.Ping(r.Context(), s.sessions.Store()); err != nil {
		s.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "leadflow-http",
		"version":     strings.TrimSpace(leadflow.Version),
		"api_version": apiVersion,
	})
}

type flowDescriber interface {
	Flow() *flow.Definition
}

// GetFlow handles GET /flow.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	if d, ok := s.engine.(flowDescriber); ok {
		writeJSON(w, http.StatusOK, d.Flow())
		return
	}
	writeJSON(w, http.StatusOK, flow.Definition{Steps: s.engine.Steps()})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.fail(w, "list sessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

type createRequest struct {
	SessionID string `json:"session_id"`
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	id := body.SessionID
	if id == "" {
		id = s.newID()
	}
	if err := session.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	state, err := s.engine.Start(ctx, id)
	if err != nil {
		s.fail(w, "start session", err)
		return
	}
	if err := s.sessions.Create(ctx, id, state); err != nil {
		if errors.Is(err, session.ErrSessionExists) {
			writeError(w, http.StatusConflict, err)
			return
		}
		s.fail(w, "create session", err)
		return
	}
	s.logger.Info("session created", "session_id", id)
	s.respond(w, r, http.StatusCreated, state)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.commandError(w, err)
		return
	}
	s.respond(w, r, http.StatusOK, state)
}

// DeleteSession handles DELETE /sessions/{id}. Open event streams end.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, "delete session", err)
		return
	}
	s.streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// DispatchCommand handles POST /sessions/{id}/commands.
func (s *Server) DispatchCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var cmd domain.Command
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := sanitizeCommand(&cmd); err != nil {
		s.logger.Warn("command input rejected", "session_id", id, "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	before, after, err := s.sessions.Update(r.Context(), id, func(ctx context.Context, current *domain.State) (*domain.State, error) {
		return s.engine.Dispatch(ctx, current, cmd)
	})
	if err != nil {
		s.commandError(w, err)
		return
	}

	if diff := domain.Diff(before, after); diff != nil {
		if b, err := json.Marshal(diff); err == nil {
			s.streams.Broadcast(id, string(b))
		}
	}
	s.respond(w, r, http.StatusOK, after)
}

// sanitizeCommand applies the input policy to every free-form field.
func sanitizeCommand(cmd *domain.Command) error {
	for _, field := range []*string{&cmd.Value, &cmd.Name, &cmd.Mobile, &cmd.OTP} {
		if *field == "" {
			continue
		}
		clean, err := runner.SanitizeInput(*field)
		if err != nil {
			return fmt.Errorf("invalid input: %w", err)
		}
		*field = clean
	}
	return nil
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, state *domain.State) {
	resp, err := runner.Render(r.Context(), s.engine, state)
	if err != nil {
		s.fail(w, "render", err)
		return
	}
	writeJSON(w, status, resp)
}

func (s *Server) commandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrCompleted):
		writeError(w, http.StatusConflict, err)
	case domain.IsRejected(err):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.fail(w, "dispatch", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, fmt.Errorf("%s failed", op))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE). The first event
// carries the full state as a diff from nothing; later events carry the
// changes of each command. The optional watch parameter filters events by
// the fields they touch.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	ch, cancel := s.streams.Subscribe(id)
	defer cancel()

	// Subscribe before loading so no command slips between snapshot and stream.
	current, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		s.commandError(w, err)
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = strings.Split(raw, ",")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if b, err := json.Marshal(domain.Diff(nil, current)); err == nil {
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", b)
	}
	flusher.Flush()
	s.logger.Info("SSE: subscribed", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !matchesWatch(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func matchesWatch(msg string, watch []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "position":
			if diff.Position != nil {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		case "answers":
			if len(diff.Answers) > 0 {
				return true
			}
		case "errors":
			if len(diff.Errors) > 0 || diff.ErrorsCleared {
				return true
			}
		case "auth":
			if diff.AuthPhase != nil {
				return true
			}
		case "history":
			if diff.History != nil {
				return true
			}
		}
	}
	return false
}
