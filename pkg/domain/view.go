package domain

// View is the render model of a session: what the host should display.
// Exactly one of Choice, Amount or Auth is set while the session is active.
type View struct {
	SessionID string        `json:"session_id"`
	Indicator IndicatorView `json:"indicator"`
	Step      Step          `json:"step"`
	Position  int           `json:"position"`

	Choice *ChoiceView `json:"choice,omitempty"`
	Amount *AmountView `json:"amount,omitempty"`
	Auth   *AuthView   `json:"auth,omitempty"`

	Completed bool  `json:"completed"`
	Lead      *Lead `json:"lead,omitempty"`
}

// IndicatorView describes the progress indicator.
type IndicatorView struct {
	Entries    []IndicatorEntry `json:"entries"`
	Connectors []Connector      `json:"connectors"`
	Progress   float64          `json:"progress"` // Percentage, 0-100
}

// IndicatorEntry is one step in the progress indicator.
type IndicatorEntry struct {
	Index       int        `json:"index"`
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

// Connector is the line between step Index and Index+1.
// Top and Height are percentages of the indicator height.
type Connector struct {
	Index         int     `json:"index"`
	Completed     bool    `json:"completed"`
	TopPercent    float64 `json:"top_percent"`
	HeightPercent float64 `json:"height_percent"`
}

// ChoiceView is the render model of a choice step.
type ChoiceView struct {
	Question string       `json:"question"`
	Options  []OptionView `json:"options"`
	Selected string       `json:"selected,omitempty"`

	// OtherSelected is true when the "other" radio is active; OtherText
	// carries the buffered free text.
	OtherSelected bool   `json:"other_selected"`
	OtherText     string `json:"other_text,omitempty"`
	OtherLabel    string `json:"other_label,omitempty"`

	// CanConfirmOther is true when the free text is non-blank.
	CanConfirmOther bool              `json:"can_confirm_other"`
	ShowBack        bool              `json:"show_back"`
	Errors          map[string]string `json:"errors,omitempty"`
}

// OptionView is one option of a choice step.
type OptionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// AmountView is the render model of an amount step.
type AmountView struct {
	Question string            `json:"question"`
	Hint     string            `json:"hint,omitempty"`
	Value    string            `json:"value"`
	ShowBack bool              `json:"show_back"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// AuthView is the render model of the auth gate.
type AuthView struct {
	Phase  GatePhase `json:"phase"`
	Name   string    `json:"name"`
	Mobile string    `json:"mobile"`

	// CodeSentTo is shown in the OTP form ("We've sent a verification code to ...").
	CodeSentTo string `json:"code_sent_to,omitempty"`

	// ShowInlineOTP mirrors the details form revealing the OTP field once the
	// mobile number has a valid format.
	ShowInlineOTP bool              `json:"show_inline_otp"`
	Errors        map[string]string `json:"errors,omitempty"`
}
