package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/leadflow/pkg/domain"
)

// Text commands understood on every prompt.
const (
	CmdTextBack   = ":back"
	CmdTextNext   = ":next"
	CmdTextJump   = ":jump"   // :jump N, N is 1-based
	CmdTextResend = ":resend" // awaiting OTP
	CmdTextOTP    = ":otp"    // :otp MOBILE, inline code request on the details form
)

// TextHandler implements the line-based terminal interface.
type TextHandler struct {
	Reader    *bufio.Reader
	Writer    io.Writer
	Renderer  ContentRenderer
	Indicator IndicatorRenderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the markdown renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerIndicator configures how the step indicator is drawn.
func WithTextHandlerIndicator(renderer IndicatorRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Indicator = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:    bufio.NewReader(r),
		Writer:    w,
		Indicator: PlainIndicator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour cancellation.
func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			return
		}
	}
}

// Output writes the indicator and the markdown of the active step.
func (h *TextHandler) Output(ctx context.Context, view *domain.View) error {
	if h.Indicator != nil {
		if line := h.Indicator(view.Indicator); line != "" {
			fmt.Fprintln(h.Writer, line)
		}
	}
	output := ViewMarkdown(view)
	if h.Renderer != nil {
		if rendered, err := h.Renderer(output); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	return err
}

// Input reads one action. The details form reads two lines (name, mobile).
func (h *TextHandler) Input(ctx context.Context, view *domain.View) ([]domain.Command, error) {
	prompt := "> "
	if view.Auth != nil && view.Auth.Phase == domain.PhaseCollectingDetails {
		prompt = "Name: "
	}
	line, err := h.readLine(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(line, ":") || line == "exit" || line == "quit" {
		return parseMeta(line, view)
	}

	switch {
	case view.Auth != nil:
		return h.authInput(ctx, view.Auth, line)
	case view.Choice != nil:
		return choiceInput(view.Choice, line), nil
	case view.Amount != nil:
		if line == "" {
			return []domain.Command{{Type: domain.CmdConfirmAmount}}, nil
		}
		return []domain.Command{
			{Type: domain.CmdSetAmount, Value: line},
			{Type: domain.CmdKey, Value: domain.KeyEnter},
		}, nil
	}
	return []domain.Command{{Type: domain.CmdNext}}, nil
}

func (h *TextHandler) authInput(ctx context.Context, auth *domain.AuthView, line string) ([]domain.Command, error) {
	switch auth.Phase {
	case domain.PhaseCollectingDetails:
		mobile, err := h.readLine(ctx, "Mobile: ")
		if err != nil {
			return nil, err
		}
		return []domain.Command{{Type: domain.CmdSubmitDetails, Name: line, Mobile: mobile}}, nil
	case domain.PhaseAwaitingOTP:
		return []domain.Command{{Type: domain.CmdSubmitOTP, OTP: line}}, nil
	}
	return []domain.Command{{Type: domain.CmdNext}}, nil
}

// choiceInput accepts an option number, value or label. Any other text
// while "other" is selected becomes the free-text answer.
func choiceInput(choice *domain.ChoiceView, line string) []domain.Command {
	if line == "" {
		return []domain.Command{{Type: domain.CmdNext}}
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(choice.Options) {
		return []domain.Command{{Type: domain.CmdSelect, Value: choice.Options[n-1].Value}}
	}
	for _, opt := range choice.Options {
		if strings.EqualFold(line, opt.Value) || strings.EqualFold(line, opt.Label) {
			return []domain.Command{{Type: domain.CmdSelect, Value: opt.Value}}
		}
	}
	if choice.OtherSelected {
		return []domain.Command{
			{Type: domain.CmdSetOther, Value: line},
			{Type: domain.CmdConfirmOther},
		}
	}
	return []domain.Command{{Type: domain.CmdSelect, Value: line}}
}

func parseMeta(line string, view *domain.View) ([]domain.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	switch fields[0] {
	case "exit", "quit":
		return nil, io.EOF
	case CmdTextNext:
		return []domain.Command{{Type: domain.CmdNext}}, nil
	case CmdTextBack:
		if view.Auth != nil && view.Auth.Phase == domain.PhaseAwaitingOTP {
			return []domain.Command{{Type: domain.CmdBackToDetails}}, nil
		}
		return []domain.Command{{Type: domain.CmdBack}}, nil
	case CmdTextResend:
		return []domain.Command{{Type: domain.CmdRequestOTP}}, nil
	case CmdTextOTP:
		mobile := ""
		if len(fields) > 1 {
			mobile = fields[1]
		}
		return []domain.Command{{Type: domain.CmdRequestOTP, Mobile: mobile}}, nil
	case CmdTextJump:
		if len(fields) != 2 {
			return []domain.Command{{Type: domain.CmdJump, Index: -1}}, nil
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			n = 0
		}
		return []domain.Command{{Type: domain.CmdJump, Index: n - 1}}, nil
	}
	return []domain.Command{{Type: domain.CommandType(strings.TrimPrefix(fields[0], ":"))}}, nil
}

func (h *TextHandler) readLine(ctx context.Context, prompt string) (string, error) {
	h.initPump()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

// SystemOutput prints a meta-message with a prefix.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[!] %s\n", msg)
	return err
}
