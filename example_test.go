package leadflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/pkg/domain"
)

// ExampleNew walks the default flow from the auth gate to the lead.
func ExampleNew() {
	wiz, err := leadflow.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	state, err := wiz.Start(ctx, "example")
	if err != nil {
		log.Fatal(err)
	}

	// A name that is too short is reported on the view, not as an error.
	state, _ = wiz.Dispatch(ctx, state, domain.Command{Type: domain.CmdSubmitDetails, Name: "J", Mobile: "9876543210"})
	view, _ := wiz.Render(ctx, state)
	fmt.Println(view.Auth.Errors["name"])

	for _, cmd := range []domain.Command{
		{Type: domain.CmdSubmitDetails, Name: "Jane Doe", Mobile: "9876543210"},
		{Type: domain.CmdSubmitOTP, OTP: "123456"},
		{Type: domain.CmdSelect, Value: "villa"},
		{Type: domain.CmdSelect, Value: "mumbai"},
		{Type: domain.CmdSetAmount, Value: "12000"},
		{Type: domain.CmdKey, Value: domain.KeyEnter},
	} {
		if state, err = wiz.Dispatch(ctx, state, cmd); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println(state.Status)
	fmt.Println(state.Lead.Answers["property_type"], state.Lead.Answers["city"], state.Lead.Answers["emi"])
	// Output:
	// Name too short
	// completed
	// villa mumbai 12000
}
