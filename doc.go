/*
Package leadflow is a lead-capture wizard engine: an authentication gate
(name, mobile number and one-time password) followed by a sequence of
question steps whose answers form a lead.

The engine is stateless. A session lives in a domain.State value owned by
the host; every user action is a domain.Command dispatched to the engine,
which returns the next state. The same engine backs the terminal runner,
the HTTP API and the MCP server in this module.

# Usage

	wiz, err := leadflow.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	state, _ := wiz.Start(ctx, "session-1")

	state, err = wiz.Dispatch(ctx, state, domain.Command{
		Type:   domain.CmdSubmitDetails,
		Name:   "Jane Doe",
		Mobile: "9876543210",
	})

	view, _ := wiz.Render(ctx, state)
	fmt.Println(view.Auth.Phase) // awaiting_otp

Field validation failures ("Name too short", "Invalid mobile number",
"Invalid OTP") are not Go errors: they are recorded on the returned state
and shown in the next view. Errors returned by Dispatch are protocol errors
(wrong command for the step, out-of-range jump, completed session) and leave
the state untouched.

# Flows

The default flow (flow.Default) asks for the property type, the city (with
a free-text "other" option) and the current EMI. Custom flows are loaded
from YAML with WithFlowFile or passed with WithFlow.
*/
package leadflow
