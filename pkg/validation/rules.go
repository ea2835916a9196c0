package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/leadflow/pkg/domain"
)

// User-facing messages.
const (
	MsgNameTooShort  = "Name too short"
	MsgInvalidMobile = "Invalid mobile number"
	MsgInvalidOTP    = "Invalid OTP"
	MsgInvalidAmount = "Invalid amount"
	MsgOtherRequired = "Please specify a value"
	MsgSelectOption  = "Please select an option"
)

const (
	MinNameLength = 2
	MobileDigits  = 10
	OTPDigits     = 6
)

// Rule defines the contract for field validation.
type Rule interface {
	// Name returns a short identifier of the rule (e.g., "digits(10)").
	Name() string
	// Validate checks the value; the returned error text is shown to the user.
	Validate(value string) error
}

// MinLengthRule requires at least Min characters after trimming surrounding space.
type MinLengthRule struct {
	Min     int
	Message string
}

func (r *MinLengthRule) Name() string { return "min_length(" + strconv.Itoa(r.Min) + ")" }

func (r *MinLengthRule) Validate(value string) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < r.Min {
		return errors.New(r.Message)
	}
	return nil
}

// DigitsRule requires exactly N ASCII digits and nothing else.
type DigitsRule struct {
	N       int
	Message string
}

func (r *DigitsRule) Name() string { return "digits(" + strconv.Itoa(r.N) + ")" }

func (r *DigitsRule) Validate(value string) error {
	if !isDigits(value, r.N) {
		return errors.New(r.Message)
	}
	return nil
}

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// OptionalAmountRule accepts an empty value or a non-negative decimal number
// written as plain digits with an optional fraction.
type OptionalAmountRule struct {
	Message string
}

func (r *OptionalAmountRule) Name() string { return "optional_amount" }

func (r *OptionalAmountRule) Validate(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if !decimalPattern.MatchString(value) {
		return errors.New(r.Message)
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return errors.New(r.Message)
	}
	return nil
}

// NonBlankRule requires at least one non-space character.
type NonBlankRule struct {
	Message string
}

func (r *NonBlankRule) Name() string { return "non_blank" }

func (r *NonBlankRule) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(r.Message)
	}
	return nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// --- Factory Functions ---

func MinLength(n int, msg string) Rule { return &MinLengthRule{Min: n, Message: msg} }
func Digits(n int, msg string) Rule    { return &DigitsRule{N: n, Message: msg} }
func OptionalAmount(msg string) Rule   { return &OptionalAmountRule{Message: msg} }
func NonBlank(msg string) Rule         { return &NonBlankRule{Message: msg} }

// Built-in schemas of the wizard.
var (
	DetailsSchema = Schema{
		domain.FieldName:   MinLength(MinNameLength, MsgNameTooShort),
		domain.FieldMobile: Digits(MobileDigits, MsgInvalidMobile),
	}
	MobileSchema = Schema{
		domain.FieldMobile: Digits(MobileDigits, MsgInvalidMobile),
	}
	OTPSchema = Schema{
		domain.FieldOTP: Digits(OTPDigits, MsgInvalidOTP),
	}
	AmountSchema = Schema{
		domain.FieldAmount: OptionalAmount(MsgInvalidAmount),
	}
	OtherSchema = Schema{
		domain.FieldOther: NonBlank(MsgOtherRequired),
	}
	OptionSchema = Schema{
		domain.FieldOption: NonBlank(MsgSelectOption),
	}
)

// ValidName reports whether name passes the details rule.
func ValidName(name string) bool { return DetailsSchema[domain.FieldName].Validate(name) == nil }

// ValidMobile reports whether mobile is exactly 10 digits.
func ValidMobile(mobile string) bool { return isDigits(mobile, MobileDigits) }

// ValidOTP reports whether otp is exactly 6 digits.
func ValidOTP(otp string) bool { return isDigits(otp, OTPDigits) }
