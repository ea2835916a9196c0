package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
)

// Message types written by JSONHandler.
const (
	MessageView   = "view"
	MessageSystem = "system"
)

// Message is one NDJSON line written by JSONHandler.
type Message struct {
	Type    string       `json:"type"`
	View    *domain.View `json:"view,omitempty"`
	Message string       `json:"message,omitempty"`
}

// ErrMalformedCommand is returned by JSONHandler.Input for lines that are
// neither a command object, an array of commands, nor "exit".
var ErrMalformedCommand = errors.New("malformed command line")

// JSONHandler implements IOHandler for JSON-Lines communication: one view
// per line out, one command (or array of commands) per line in.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, view *domain.View) error {
	return h.Encoder.Encode(Message{Type: MessageView, View: view})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Message{Type: MessageSystem, Message: msg})
}

// Input reads the next non-empty line. Malformed lines are reported with a
// system message and skipped.
func (h *JSONHandler) Input(ctx context.Context, view *domain.View) ([]domain.Command, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := h.Reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
			return nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		clean, err := SanitizeInput(text)
		if err != nil {
			if err := h.SystemOutput(ctx, err.Error()); err != nil {
				return nil, err
			}
			continue
		}

		cmds, err := decodeCommands([]byte(clean))
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			if err := h.SystemOutput(ctx, err.Error()); err != nil {
				return nil, err
			}
			continue
		}
		return cmds, nil
	}
}

func decodeCommands(line []byte) ([]domain.Command, error) {
	var word string
	if json.Unmarshal(line, &word) == nil || !json.Valid(line) {
		if word == "" {
			word = string(line)
		}
		if word == "exit" || word == "quit" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %q", ErrMalformedCommand, word)
	}

	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if bytes.HasPrefix(line, []byte("[")) {
		var cmds []domain.Command
		if err := dec.Decode(&cmds); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
		}
		return cmds, nil
	}
	var cmd domain.Command
	if err := dec.Decode(&cmd); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
	}
	return []domain.Command{cmd}, nil
}
