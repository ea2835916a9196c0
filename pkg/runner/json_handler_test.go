package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler_Output(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)

	require.NoError(t, handler.Output(context.Background(), choiceView()))
	require.NoError(t, handler.SystemOutput(context.Background(), "jump not allowed"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second Message
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, MessageView, first.Type)
	assert.Equal(t, "city", first.View.Step.ID)
	assert.Equal(t, MessageSystem, second.Type)
	assert.Equal(t, "jump not allowed", second.Message)
}

func TestJSONHandler_Input(t *testing.T) {
	in := strings.Join([]string{
		`{"type":"select","value":"villa"}`,
		``,
		`[{"type":"set_amount","value":"9000"},{"type":"confirm_amount"}]`,
		`{"type":"select","bogus":1}`,
		`"exit"`,
	}, "\n")
	out := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(in), out)
	ctx := context.Background()

	cmds, err := handler.Input(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Command{{Type: domain.CmdSelect, Value: "villa"}}, cmds)

	cmds, err = handler.Input(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, cmds, 2)
	assert.Equal(t, domain.CmdConfirmAmount, cmds[1].Type)

	// The unknown field is reported and skipped; "exit" ends the input.
	_, err = handler.Input(ctx, nil)
	assert.ErrorIs(t, err, io.EOF)
	assert.Contains(t, out.String(), ErrMalformedCommand.Error())
}

func TestJSONHandler_InputEOF(t *testing.T) {
	handler := NewJSONHandler(strings.NewReader(""), io.Discard)
	_, err := handler.Input(context.Background(), nil)
	assert.ErrorIs(t, err, io.EOF)
}
