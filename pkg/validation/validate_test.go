package validation

import (
	"errors"
	"testing"
)

func TestValidate_Success(t *testing.T) {
	data := map[string]string{
		"name":   "Jane Doe",
		"mobile": "9876543210",
	}
	if err := Validate(DetailsSchema, data); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(DetailsSchema, map[string]string{
		"name":   "J",
		"mobile": "123",
	})
	if err == nil {
		t.Fatal("Validate() expected error")
	}

	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("ValidationErrors() len = %d, want 2", len(errs))
	}

	// Sorted by field name: mobile, name.
	var fe *FieldError
	if !errors.As(errs[0], &fe) || fe.Field != "mobile" {
		t.Errorf("errs[0] = %v, want mobile field error", errs[0])
	}

	fields := Fields(err)
	if fields["name"] != MsgNameTooShort {
		t.Errorf("Fields()[name] = %q", fields["name"])
	}
	if fields["mobile"] != MsgInvalidMobile {
		t.Errorf("Fields()[mobile] = %q", fields["mobile"])
	}
	if !IsValidationError(err) {
		t.Error("IsValidationError() = false")
	}
}

func TestValidate_MissingFieldIsEmpty(t *testing.T) {
	err := Validate(OTPSchema, map[string]string{})
	if got := Fields(err)["otp"]; got != MsgInvalidOTP {
		t.Errorf("Fields()[otp] = %q, want %q", got, MsgInvalidOTP)
	}
}

func TestFields_NonValidationError(t *testing.T) {
	if Fields(errors.New("boom")) != nil {
		t.Error("Fields() should be nil for plain errors")
	}
	if Fields(nil) != nil {
		t.Error("Fields(nil) should be nil")
	}
	if IsValidationError(errors.New("boom")) {
		t.Error("IsValidationError() = true for plain error")
	}
}

func TestAggregateError_Message(t *testing.T) {
	single := &AggregateError{Errors: []error{&FieldError{Field: "otp", Reason: MsgInvalidOTP}}}
	if single.Error() != `field "otp": Invalid OTP` {
		t.Errorf("Error() = %q", single.Error())
	}
}
