package domain

// GatePhase is the position of a session inside the authentication gate.
type GatePhase string

const (
	PhaseCollectingDetails GatePhase = "collecting_details" // Name + mobile form
	PhaseSending           GatePhase = "sending"            // Code request in flight
	PhaseAwaitingOTP       GatePhase = "awaiting_otp"       // OTP form
	PhaseVerifying         GatePhase = "verifying"          // Verification in flight
	PhaseAuthenticated     GatePhase = "authenticated"      // Terminal
)

// Field names used in validation errors of the gate.
const (
	FieldName   = "name"
	FieldMobile = "mobile"
	FieldOTP    = "otp"
	FieldOther  = "other"
	FieldOption = "option"
	FieldAmount = "amount"
)

// AuthDraft is the unvalidated details form.
type AuthDraft struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

// OTPDraft is the unvalidated one-time password form.
type OTPDraft struct {
	OTP string `json:"otp"`
}

// AuthState captures everything the gate needs to resume.
type AuthState struct {
	Phase   GatePhase `json:"phase"`
	Details AuthDraft `json:"details"`
	OTP     OTPDraft  `json:"otp"`

	// CodeSentTo is the mobile number the last code was sent to.
	CodeSentTo string `json:"code_sent_to,omitempty"`

	// Errors holds field-level messages from the last failed submission.
	Errors map[string]string `json:"errors,omitempty"`

	// Attempt identifies the latest backend request. Responses carrying an
	// older attempt are stale and must be dropped.
	Attempt uint64 `json:"attempt"`
}

// NewAuthState returns the initial gate state.
func NewAuthState() AuthState {
	return AuthState{Phase: PhaseCollectingDetails}
}

// Authenticated reports whether the gate reached its terminal phase.
func (a AuthState) Authenticated() bool {
	return a.Phase == PhaseAuthenticated
}

// Clone returns a copy that shares no maps with the receiver.
func (a AuthState) Clone() AuthState {
	out := a
	out.Errors = cloneStrings(a.Errors)
	return out
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
