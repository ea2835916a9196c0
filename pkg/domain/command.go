package domain

// CommandType names a requested transition.
type CommandType string

const (
	// Sequencer
	CmdNext CommandType = "next"
	CmdBack CommandType = "back"
	CmdJump CommandType = "jump" // Index

	// Choice steps
	CmdSelect       CommandType = "select"    // Value
	CmdSetOther     CommandType = "set_other" // Value
	CmdConfirmOther CommandType = "confirm_other"

	// Amount steps
	CmdSetAmount     CommandType = "set_amount" // Value
	CmdConfirmAmount CommandType = "confirm_amount"
	CmdKey           CommandType = "key" // Value: key name, e.g. "Enter"

	// Auth gate
	CmdSubmitDetails CommandType = "submit_details" // Name, Mobile
	CmdRequestOTP    CommandType = "request_otp"    // Mobile
	CmdSubmitOTP     CommandType = "submit_otp"     // OTP
	CmdBackToDetails CommandType = "back_to_details"
)

// KeyEnter is the key name that confirms an amount step.
const KeyEnter = "Enter"

// Command is a message dispatched by a front-end to the engine.
type Command struct {
	Type   CommandType `json:"type"`
	Index  int         `json:"index,omitempty"`
	Value  string      `json:"value,omitempty"`
	Name   string      `json:"name,omitempty"`
	Mobile string      `json:"mobile,omitempty"`
	OTP    string      `json:"otp,omitempty"`
}
