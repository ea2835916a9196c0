package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choiceView() *domain.View {
	return &domain.View{
		Step: domain.Step{ID: "city", Title: "City", Kind: domain.StepKindChoice},
		Choice: &domain.ChoiceView{
			Question: "Which city?",
			Options: []domain.OptionView{
				{Value: "mumbai", Label: "Mumbai"},
				{Value: "delhi", Label: "Delhi"},
				{Value: "other", Label: "Other"},
			},
		},
	}
}

func TestTextHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), out,
		WithTextHandlerRenderer(func(s string) (string, error) { return "Rendered: " + s, nil }),
	)

	view := choiceView()
	view.Choice.Errors = map[string]string{domain.FieldOption: "Please select an option"}
	require.NoError(t, handler.Output(context.Background(), view))

	got := out.String()
	assert.Contains(t, got, "Rendered: ## City")
	assert.Contains(t, got, "2. [ ] Delhi")
	assert.Contains(t, got, "Please select an option")
}

func TestTextHandler_ChoiceInput(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		other bool
		want  []domain.Command
	}{
		{"Number", "2", false, []domain.Command{{Type: domain.CmdSelect, Value: "delhi"}}},
		{"Label", "mumbai", false, []domain.Command{{Type: domain.CmdSelect, Value: "mumbai"}}},
		{"Empty confirms", "", false, []domain.Command{{Type: domain.CmdNext}}},
		{"Unknown passes through", "paris", false, []domain.Command{{Type: domain.CmdSelect, Value: "paris"}}},
		{"Other text", "Pune", true, []domain.Command{
			{Type: domain.CmdSetOther, Value: "Pune"},
			{Type: domain.CmdConfirmOther},
		}},
		{"Back", ":back", false, []domain.Command{{Type: domain.CmdBack}}},
		{"Jump is one-based", ":jump 3", false, []domain.Command{{Type: domain.CmdJump, Index: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := choiceView()
			view.Choice.OtherSelected = tt.other
			handler := NewTextHandler(strings.NewReader(tt.line+"\n"), io.Discard)

			got, err := handler.Input(context.Background(), view)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextHandler_DetailsReadsTwoLines(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("Asha Rao\n9876543210\n"), out)
	view := &domain.View{Auth: &domain.AuthView{Phase: domain.PhaseCollectingDetails}}

	got, err := handler.Input(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, []domain.Command{{Type: domain.CmdSubmitDetails, Name: "Asha Rao", Mobile: "9876543210"}}, got)
	assert.Equal(t, "Name: Mobile: ", out.String())
}

func TestTextHandler_OTPMetaCommands(t *testing.T) {
	view := &domain.View{Auth: &domain.AuthView{Phase: domain.PhaseAwaitingOTP, CodeSentTo: "9876543210"}}
	handler := NewTextHandler(strings.NewReader(":resend\n:back\n"), io.Discard)

	got, err := handler.Input(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, domain.CmdRequestOTP, got[0].Type)

	got, err = handler.Input(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, domain.CmdBackToDetails, got[0].Type)
}

func TestTextHandler_AmountInput(t *testing.T) {
	view := &domain.View{Amount: &domain.AmountView{Question: "EMI?"}}
	handler := NewTextHandler(strings.NewReader("15000\n\n"), io.Discard)

	got, err := handler.Input(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, []domain.Command{
		{Type: domain.CmdSetAmount, Value: "15000"},
		{Type: domain.CmdKey, Value: domain.KeyEnter},
	}, got)

	got, err = handler.Input(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, []domain.Command{{Type: domain.CmdConfirmAmount}}, got)
}

func TestTextHandler_ExitAndEOF(t *testing.T) {
	handler := NewTextHandler(strings.NewReader("quit\n"), io.Discard)
	_, err := handler.Input(context.Background(), choiceView())
	assert.ErrorIs(t, err, io.EOF)

	_, err = handler.Input(context.Background(), choiceView())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_InputCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	handler := NewTextHandler(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := handler.Input(ctx, choiceView())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlainIndicator(t *testing.T) {
	ind := domain.IndicatorView{
		Entries: []domain.IndicatorEntry{
			{Index: 0, Title: "Verify", Status: domain.StepCompleted},
			{Index: 1, Title: "Property", Status: domain.StepCurrent},
			{Index: 2, Title: "City", Status: domain.StepPending},
		},
		Progress: 50,
	}
	assert.Equal(t, "Step 2/3 · Property · 50%", PlainIndicator(ind))
}
