package answer

import (
	"testing"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cityStep = domain.Step{
	ID:       "city",
	Title:    "City",
	Kind:     domain.StepKindChoice,
	Question: "Which city is the property in?",
	Options: []domain.Option{
		{Value: "mumbai", Label: "Mumbai"},
		{Value: "delhi", Label: "Delhi"},
		{Value: "other", Label: "Other"},
	},
	OtherLabel: "Enter city name",
}

func TestChoice_SelectFixedAdvances(t *testing.T) {
	res, err := NewChoice(cityStep).Select("mumbai", domain.Answer{})
	require.NoError(t, err)
	assert.Equal(t, Advance, res.Outcome)
	assert.Equal(t, domain.Fixed("mumbai"), res.Answer)
}

func TestChoice_SelectOtherDefersAdvance(t *testing.T) {
	c := NewChoice(cityStep)

	res, err := c.Select("other", domain.Answer{})
	require.NoError(t, err)
	assert.Equal(t, Stay, res.Outcome)
	assert.True(t, res.Answer.IsOther())

	v := c.View(res.Answer, true, nil)
	assert.True(t, v.OtherSelected)
	assert.False(t, v.CanConfirmOther)

	// Blank text does not advance.
	res = c.ConfirmOther(domain.Other("   "))
	assert.Equal(t, Stay, res.Outcome)
	assert.Equal(t, "Please specify a value", res.Errors["other"])

	res, err = c.SetOtherText("Pune")
	require.NoError(t, err)
	assert.Equal(t, Stay, res.Outcome)

	res = c.ConfirmOther(res.Answer)
	assert.Equal(t, Advance, res.Outcome)
	assert.Equal(t, domain.Other("Pune"), res.Answer)
	assert.Empty(t, res.Errors)
}

func TestChoice_SelectOtherKeepsBuffer(t *testing.T) {
	res, err := NewChoice(cityStep).Select("other", domain.Other("Pune"))
	require.NoError(t, err)
	assert.Equal(t, domain.Other("Pune"), res.Answer)
}

func TestChoice_ConfirmOtherWithFixedAnswer(t *testing.T) {
	res := NewChoice(cityStep).ConfirmOther(domain.Fixed("mumbai"))
	assert.Equal(t, Stay, res.Outcome)
	assert.NotEmpty(t, res.Errors)
}

func TestChoice_UnknownOption(t *testing.T) {
	current := domain.Fixed("delhi")
	res, err := NewChoice(cityStep).Select("paris", current)
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Equal(t, current, res.Answer)
}

func TestChoice_SetOtherTextWithoutOtherOption(t *testing.T) {
	step := domain.Step{ID: "type", Kind: domain.StepKindChoice, Options: []domain.Option{{Value: "flat"}}}
	_, err := NewChoice(step).SetOtherText("villa")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestChoice_ViewFromLegacyEncoding(t *testing.T) {
	current := domain.ParseAnswer(domain.StepKindChoice, "other:Pune")
	v := NewChoice(cityStep).View(current, true, nil)

	assert.Equal(t, "other", v.Selected)
	assert.True(t, v.OtherSelected)
	assert.Equal(t, "Pune", v.OtherText)
	assert.True(t, v.CanConfirmOther)
	assert.Equal(t, "Which city is the property in?", v.Question)

	for _, opt := range v.Options {
		assert.Equal(t, opt.Value == "other", opt.Selected, opt.Value)
	}
}

func TestAmount(t *testing.T) {
	a := NewAmount(domain.Step{ID: "emi", Kind: domain.StepKindAmount, Hint: "Leave empty if none"})

	tests := []struct {
		name    string
		value   string
		outcome Outcome
		stored  string
	}{
		{"empty means no emi", "", Advance, ""},
		{"number", "15000", Advance, "15000"},
		{"trimmed", " 2500.50 ", Advance, "2500.50"},
		{"negative", "-5", Stay, "-5"},
		{"text", "lots", Stay, "lots"},
		{"hex float", "0x1p4", Stay, "0x1p4"},
		{"digit separator", "1_0", Stay, "1_0"},
		{"explicit sign", "+5", Stay, "+5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.Set(tt.value)
			assert.Equal(t, Stay, res.Outcome)

			res = a.Confirm(res.Answer)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.stored, res.Answer.Text())
			if tt.outcome == Stay {
				assert.Equal(t, "Invalid amount", res.Errors["amount"])
			}
		})
	}
}

func TestAmount_Key(t *testing.T) {
	a := NewAmount(domain.Step{ID: "emi", Kind: domain.StepKindAmount})

	assert.Equal(t, Advance, a.Key("Enter", domain.Amount("100")).Outcome)
	assert.Equal(t, Stay, a.Key("Tab", domain.Amount("100")).Outcome)

	v := a.View(domain.Amount("100"), true, nil)
	assert.Equal(t, "100", v.Value)
	assert.True(t, v.ShowBack)
}

func TestBack(t *testing.T) {
	res := Back(domain.Fixed("flat"))
	assert.Equal(t, Retreat, res.Outcome)
	assert.Equal(t, domain.Fixed("flat"), res.Answer)
	assert.Equal(t, "retreat", res.Outcome.String())
}

func TestChoice_Confirm(t *testing.T) {
	c := NewChoice(cityStep)

	assert.Equal(t, Advance, c.Confirm(domain.Fixed("delhi")).Outcome)
	assert.Equal(t, Advance, c.Confirm(domain.Other("Pune")).Outcome)

	res := c.Confirm(domain.Answer{})
	assert.Equal(t, Stay, res.Outcome)
	assert.Equal(t, "Please select an option", res.Errors["option"])

	// A stale option that is no longer listed must be picked again.
	assert.Equal(t, Stay, c.Confirm(domain.Fixed("paris")).Outcome)
}
