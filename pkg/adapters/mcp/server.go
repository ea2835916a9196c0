// Package mcp exposes wizard sessions as Model Context Protocol tools, so an
// assistant can walk a user through the flow on their behalf.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/aretw0/leadflow/pkg/runner"
	"github.com/aretw0/leadflow/pkg/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FlowURI names the resource holding the flow definition.
const FlowURI = "leadflow://flow"

// Server wraps the wizard and exposes it as an MCP Server.
type Server struct {
	engine    ports.StatelessEngine
	sessions  *session.Manager
	logger    *slog.Logger
	newID     func() string
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Stdio mode owns stdout, so logs must go elsewhere.
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

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.StatelessEngine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		sessions:  sessions,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:     uuid.NewString,
		mcpServer: server.NewMCPServer("leadflow-mcp", strings.TrimSpace(leadflow.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var commandTypes = []string{
	string(domain.CmdNext), string(domain.CmdBack), string(domain.CmdJump),
	string(domain.CmdSelect), string(domain.CmdSetOther), string(domain.CmdConfirmOther),
	string(domain.CmdSetAmount), string(domain.CmdConfirmAmount), string(domain.CmdKey),
	string(domain.CmdSubmitDetails), string(domain.CmdRequestOTP), string(domain.CmdSubmitOTP),
	string(domain.CmdBackToDetails),
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new lead-capture session positioned on the first step."),
		mcp.WithString("session_id", mcp.Description("Session ID to use (optional, generated when omitted)")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the current state and view of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("dispatch",
		mcp.WithDescription("Apply one command to a session. Field validation problems are reported in the view errors."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("type", mcp.Required(), mcp.Enum(commandTypes...), mcp.Description("Command type")),
		mcp.WithString("value", mcp.Description("Option value, free text, amount or key name")),
		mcp.WithNumber("index", mcp.Description("Target position for jump (0-based)")),
		mcp.WithString("name", mcp.Description("Full name for submit_details")),
		mcp.WithString("mobile", mcp.Description("Mobile number for submit_details or request_otp")),
		mcp.WithString("otp", mcp.Description("One-time password for submit_otp")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleDispatch))

	s.mcpServer.AddTool(mcp.NewTool("list_steps",
		mcp.WithDescription("List the steps of the flow in order."),
	), s.handleListSteps)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (runner.RichResponse, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		id = s.newID()
	}
	if err := session.ValidateID(id); err != nil {
		return runner.RichResponse{}, err
	}
	state, err := s.engine.Start(ctx, id)
	if err != nil {
		return runner.RichResponse{}, fmt.Errorf("start failed: %w", err)
	}
	if err := s.sessions.Create(ctx, id, state); err != nil {
		return runner.RichResponse{}, err
	}
	s.logger.Info("MCP session started", "session_id", id)
	return s.render(ctx, state)
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (runner.RichResponse, error) {
	id, _ := args["session_id"].(string)
	state, err := s.sessions.Load(ctx, id)
	if err != nil {
		return runner.RichResponse{}, err
	}
	return s.render(ctx, state)
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (runner.RichResponse, error) {
	id, _ := args["session_id"].(string)
	cmd, err := commandFromArgs(args)
	if err != nil {
		s.logger.Warn("MCP dispatch: input rejected", "session_id", id, "error", err)
		return runner.RichResponse{}, err
	}

	_, after, err := s.sessions.Update(ctx, id, func(ctx context.Context, current *domain.State) (*domain.State, error) {
		return s.engine.Dispatch(ctx, current, cmd)
	})
	if err != nil {
		if !domain.IsRejected(err) && !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Error("MCP dispatch failed", "session_id", id, "error", err)
		}
		return runner.RichResponse{}, err
	}
	return s.render(ctx, after)
}

// commandFromArgs builds a command, applying the input policy to every
// free-form field.
func commandFromArgs(args map[string]interface{}) (domain.Command, error) {
	typ, _ := args["type"].(string)
	cmd := domain.Command{Type: domain.CommandType(typ)}
	if idx, ok := args["index"].(float64); ok {
		cmd.Index = int(idx)
	}
	fields := map[string]*string{
		"value":  &cmd.Value,
		"name":   &cmd.Name,
		"mobile": &cmd.Mobile,
		"otp":    &cmd.OTP,
	}
	for key, dst := range fields {
		raw, _ := args[key].(string)
		if raw == "" {
			continue
		}
		clean, err := runner.SanitizeInput(raw)
		if err != nil {
			return domain.Command{}, fmt.Errorf("input rejected: %s: %w", key, err)
		}
		*dst = clean
	}
	return cmd, nil
}

func (s *Server) render(ctx context.Context, state *domain.State) (runner.RichResponse, error) {
	rich, err := runner.Render(ctx, s.engine, state)
	if err != nil {
		return runner.RichResponse{}, fmt.Errorf("render failed: %w", err)
	}
	return *rich, nil
}

func (s *Server) handleListSteps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(s.engine.Steps())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode steps: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

type flowDescriber interface {
	Flow() *flow.Definition
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(FlowURI, "Flow Definition",
		mcp.WithMIMEType("application/json"),
	), s.readFlow)
}

func (s *Server) readFlow(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var def any = flow.Definition{Steps: s.engine.Steps()}
	if d, ok := s.engine.(flowDescriber); ok {
		def = d.Flow()
	}
	b, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode flow: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FlowURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
